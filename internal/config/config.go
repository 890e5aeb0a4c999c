// Package config loads prospect configuration from YAML with environment
// overrides. Credentials are only ever supplied through the environment or
// the config file, never hardcoded.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all prospect configuration.
type Config struct {
	Workspace string `yaml:"workspace"`

	LLM       LLMConfig       `yaml:"llm"`
	Search    SearchConfig    `yaml:"search"`
	Browser   BrowserConfig   `yaml:"browser"`
	Store     StoreConfig     `yaml:"store"`
	Discovery DiscoveryConfig `yaml:"discovery"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LLMConfig configures the intent classifier backend.
type LLMConfig struct {
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
	Timeout string `yaml:"timeout"` // parsed with time.ParseDuration
}

// SearchConfig configures the hosted search API strategy.
type SearchConfig struct {
	APIKey   string `yaml:"api_key"`
	BaseURL  string `yaml:"base_url"`
	Timeout  string `yaml:"timeout"`
	Recency  string `yaml:"recency"` // e.g. "day" for last-24h results
	MaxItems int    `yaml:"max_items"`
}

// BrowserConfig configures the browser-driven crawl strategy.
type BrowserConfig struct {
	Enabled             bool           `yaml:"enabled"`
	Headless            bool           `yaml:"headless"`
	NavigationTimeoutMs int            `yaml:"navigation_timeout_ms"`
	ScrollSteps         int            `yaml:"scroll_steps"`
	DelayMinMs          int            `yaml:"delay_min_ms"` // jitter window for anti-bot pacing
	DelayMaxMs          int            `yaml:"delay_max_ms"`
	ScreenshotDir       string         `yaml:"screenshot_dir"`
	FetchFullPost       bool           `yaml:"fetch_full_post"`
	Targets             []TargetConfig `yaml:"targets"`
}

// TargetConfig describes one crawl target listing page.
type TargetConfig struct {
	Platform     string `yaml:"platform"`
	URL          string `yaml:"url"`
	ItemSelector string `yaml:"item_selector"`
	TitleAttr    string `yaml:"title_attr"`
}

// StoreConfig configures SQLite persistence.
type StoreConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// DiscoveryConfig configures the orchestrator.
type DiscoveryConfig struct {
	MaxItemsPerPlatform  int      `yaml:"max_items_per_platform"`
	ClassifyConcurrency  int      `yaml:"classify_concurrency"`
	HelpPhrases          []string `yaml:"help_phrases"`
	DefaultChannel       string   `yaml:"default_channel"`
	MaxQueriesPerChannel int      `yaml:"max_queries_per_channel"`
}

// LoggingConfig mirrors logging.Options.
type LoggingConfig struct {
	DebugMode  bool   `yaml:"debug_mode"`
	Level      string `yaml:"level"`
	JSONFormat bool   `yaml:"json_format"`
}

// DefaultHelpPhrases are the help-seeking phrase templates combined with
// product keywords during query generation. Campaigns with different products
// can override the list in config.
var DefaultHelpPhrases = []string{
	"anyone know",
	"looking for",
	"need help",
	"struggling with",
	"recommendations for",
	"how do I",
	"any advice",
	"what should I use",
}

// Default returns the baseline configuration.
func Default() Config {
	return Config{
		Workspace: ".",
		LLM: LLMConfig{
			Model:   "gemini-2.5-flash",
			Timeout: "45s",
		},
		Search: SearchConfig{
			Timeout:  "20s",
			Recency:  "day",
			MaxItems: 10,
		},
		Browser: BrowserConfig{
			Headless:            true,
			NavigationTimeoutMs: 30000,
			ScrollSteps:         4,
			DelayMinMs:          800,
			DelayMaxMs:          2500,
			FetchFullPost:       false,
		},
		Store: StoreConfig{
			DatabasePath: filepath.Join(".prospect", "prospect.db"),
		},
		Discovery: DiscoveryConfig{
			MaxItemsPerPlatform:  20,
			ClassifyConcurrency:  3,
			HelpPhrases:          DefaultHelpPhrases,
			DefaultChannel:       "twitter",
			MaxQueriesPerChannel: 3,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads the config file at path (if it exists) over defaults, then
// applies PROSPECT_* environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return cfg, fmt.Errorf("read config: %w", err)
			}
		} else if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnvOverrides(&cfg)

	if cfg.Discovery.ClassifyConcurrency < 1 {
		cfg.Discovery.ClassifyConcurrency = 1
	}
	if len(cfg.Discovery.HelpPhrases) == 0 {
		cfg.Discovery.HelpPhrases = DefaultHelpPhrases
	}
	return cfg, nil
}

// applyEnvOverrides lets deployment environments supply credentials and
// switches without touching the config file.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("PROSPECT_GEMINI_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	}
	if v := os.Getenv("PROSPECT_LLM_MODEL"); v != "" {
		cfg.LLM.Model = v
	}
	if v := os.Getenv("PROSPECT_SEARCH_API_KEY"); v != "" {
		cfg.Search.APIKey = v
	}
	if v := os.Getenv("PROSPECT_SEARCH_BASE_URL"); v != "" {
		cfg.Search.BaseURL = v
	}
	if v := os.Getenv("PROSPECT_DB_PATH"); v != "" {
		cfg.Store.DatabasePath = v
	}
	if v := os.Getenv("PROSPECT_BROWSER_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Browser.Enabled = b
		}
	}
	if v := os.Getenv("PROSPECT_DEBUG"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Logging.DebugMode = b
		}
	}
}

// LLMTimeout returns the classifier call timeout.
func (c LLMConfig) LLMTimeout() time.Duration {
	return parseDurationOr(c.Timeout, 45*time.Second)
}

// SearchTimeout returns the hosted search call timeout.
func (c SearchConfig) SearchTimeout() time.Duration {
	return parseDurationOr(c.Timeout, 20*time.Second)
}

// NavigationTimeout returns the crawl navigation timeout.
func (c BrowserConfig) NavigationTimeout() time.Duration {
	if c.NavigationTimeoutMs <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.NavigationTimeoutMs) * time.Millisecond
}

func parseDurationOr(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
