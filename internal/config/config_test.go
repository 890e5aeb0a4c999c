package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg := Default()
	if cfg.Discovery.DefaultChannel != "twitter" {
		t.Errorf("default channel = %q", cfg.Discovery.DefaultChannel)
	}
	if len(cfg.Discovery.HelpPhrases) == 0 {
		t.Error("default help phrases missing")
	}
	if !cfg.Browser.Headless {
		t.Error("browser should default to headless")
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("missing config file should not error: %v", err)
	}
	if cfg.Search.Recency != "day" {
		t.Errorf("recency = %q", cfg.Search.Recency)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prospect.yaml")
	content := `
llm:
  model: gemini-2.5-pro
  timeout: 90s
discovery:
  classify_concurrency: 8
  default_channel: reddit
browser:
  enabled: true
  targets:
    - platform: reddit
      url: https://www.reddit.com/r/freelance/new/
      item_selector: a[slot=full-post-link]
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.LLM.Model != "gemini-2.5-pro" {
		t.Errorf("model = %q", cfg.LLM.Model)
	}
	if got := cfg.LLM.LLMTimeout(); got != 90*time.Second {
		t.Errorf("timeout = %v", got)
	}
	if cfg.Discovery.ClassifyConcurrency != 8 {
		t.Errorf("concurrency = %d", cfg.Discovery.ClassifyConcurrency)
	}
	if len(cfg.Browser.Targets) != 1 || cfg.Browser.Targets[0].Platform != "reddit" {
		t.Errorf("targets = %+v", cfg.Browser.Targets)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("PROSPECT_GEMINI_API_KEY", "env-llm-key")
	t.Setenv("PROSPECT_SEARCH_API_KEY", "env-search-key")
	t.Setenv("PROSPECT_BROWSER_ENABLED", "true")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.LLM.APIKey != "env-llm-key" {
		t.Errorf("llm key = %q", cfg.LLM.APIKey)
	}
	if cfg.Search.APIKey != "env-search-key" {
		t.Errorf("search key = %q", cfg.Search.APIKey)
	}
	if !cfg.Browser.Enabled {
		t.Error("browser should be enabled from env")
	}
}

func TestDurationFallbacks(t *testing.T) {
	c := LLMConfig{Timeout: "not a duration"}
	if got := c.LLMTimeout(); got != 45*time.Second {
		t.Errorf("bad duration should fall back, got %v", got)
	}
	b := BrowserConfig{}
	if got := b.NavigationTimeout(); got != 30*time.Second {
		t.Errorf("zero navigation timeout should fall back, got %v", got)
	}
}
