package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"prospect/internal/browser"
	"prospect/internal/config"
	"prospect/internal/discovery"
	"prospect/internal/intent"
	"prospect/internal/logging"
	"prospect/internal/source"
	"prospect/internal/store"
	"prospect/internal/types"
)

var (
	// Global flags
	verbose    bool
	configPath string
	campaignID string

	cfg    config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "prospect",
	Short: "prospect - customer discovery agent",
	Long: `prospect finds people actively asking for help a product can provide.

It searches social and community platforms for help-seeking posts, classifies
each post's intent with an LLM, and persists the qualifying ones as findings,
one discovery run per campaign.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zc := zap.NewProductionConfig()
		if verbose {
			zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zc.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		cfg, err = config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if verbose {
			cfg.Logging.DebugMode = true
		}

		return logging.Initialize(cfg.Workspace, logging.Options{
			DebugMode:  cfg.Logging.DebugMode,
			Level:      cfg.Logging.Level,
			JSONFormat: cfg.Logging.JSONFormat,
		})
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Run discovery for one campaign",
	Long: `Runs the full discovery pipeline for a single campaign: query building,
source search or crawl, intent classification, deduplication, persistence.

Example:
  prospect discover --campaign 4f7c...`,
	RunE: runDiscover,
}

var discoverAllCmd = &cobra.Command{
	Use:   "discover-all",
	Short: "Run discovery for every active campaign",
	RunE:  runDiscoverAll,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show a campaign's run state and recent findings",
	RunE:  runStatus,
}

var addCampaignCmd = &cobra.Command{
	Use:   "add-campaign",
	Short: "Register a campaign",
	Long: `Registers a campaign to discover against.

Example:
  prospect add-campaign --name "TaskFlow" --product "lightweight task manager for freelancers" --channels twitter,reddit`,
	RunE: runAddCampaign,
}

var (
	campaignName     string
	campaignProduct  string
	campaignGoals    []string
	campaignChannels []string
)

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "prospect.yaml", "config file path")

	discoverCmd.Flags().StringVar(&campaignID, "campaign", "", "campaign ID (required)")
	statusCmd.Flags().StringVar(&campaignID, "campaign", "", "campaign ID (required)")

	addCampaignCmd.Flags().StringVar(&campaignName, "name", "", "campaign name (required)")
	addCampaignCmd.Flags().StringVar(&campaignProduct, "product", "", "product description (required)")
	addCampaignCmd.Flags().StringSliceVar(&campaignGoals, "goals", nil, "campaign goals")
	addCampaignCmd.Flags().StringSliceVar(&campaignChannels, "channels", nil, "platforms to search (twitter, reddit, ...)")

	rootCmd.AddCommand(discoverCmd, discoverAllCmd, statusCmd, addCampaignCmd)
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	rootCmd.SetContext(ctx)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// buildPipeline wires the orchestrator from config. The source strategy is
// chosen by what is configured: a search credential wins, then the browser
// crawler, then the fallback sample adapter.
func buildPipeline(ctx context.Context, db *store.Store) (*discovery.Orchestrator, func(), error) {
	cleanup := func() {}

	var adapter source.Adapter
	switch {
	case cfg.Search.APIKey != "" && cfg.Search.BaseURL != "":
		adapter = source.NewSearchClient(cfg.Search.BaseURL, cfg.Search.APIKey,
			cfg.Search.Recency, cfg.Search.SearchTimeout())
		logger.Info("using hosted search adapter")

	case cfg.Browser.Enabled:
		sessions := browser.NewSessionManager(browser.Config{
			Headless:            cfg.Browser.Headless,
			NavigationTimeoutMs: cfg.Browser.NavigationTimeoutMs,
			ScreenshotDir:       cfg.Browser.ScreenshotDir,
		})
		cleanup = func() { _ = sessions.Shutdown() }

		targets := make([]source.Target, 0, len(cfg.Browser.Targets))
		for _, t := range cfg.Browser.Targets {
			targets = append(targets, source.Target{
				Platform:     t.Platform,
				URL:          t.URL,
				ItemSelector: t.ItemSelector,
				TitleAttr:    t.TitleAttr,
			})
		}
		adapter = source.NewCrawler(sessions, source.CrawlerOptions{
			Targets:   targets,
			Prefilter: source.NewPrefilter(cfg.Discovery.HelpPhrases, ""),
			Delay: source.JitterDelay{
				Min: time.Duration(cfg.Browser.DelayMinMs) * time.Millisecond,
				Max: time.Duration(cfg.Browser.DelayMaxMs) * time.Millisecond,
			},
			ScrollSteps:   cfg.Browser.ScrollSteps,
			MaxItems:      cfg.Discovery.MaxItemsPerPlatform,
			ScreenshotDir: cfg.Browser.ScreenshotDir,
			FetchFullPost: cfg.Browser.FetchFullPost,
		})
		logger.Info("using browser crawl adapter", zap.Int("targets", len(targets)))

	default:
		adapter = source.NewSampleAdapter()
		logger.Warn("no search credential or browser configured, using fallback sample adapter")
	}

	var classifier intent.Classifier
	if cfg.LLM.APIKey != "" {
		gemini, err := intent.NewGeminiClassifier(ctx, cfg.LLM.APIKey, cfg.LLM.Model, cfg.LLM.LLMTimeout())
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		classifier = gemini
	} else {
		classifier = intent.Unavailable{}
		logger.Warn("no LLM credential configured, findings will use default relevance")
	}

	queries := source.NewQueryBuilder(cfg.Discovery.HelpPhrases,
		cfg.Discovery.DefaultChannel, cfg.Discovery.MaxQueriesPerChannel)
	pool := intent.NewPool(classifier, cfg.Discovery.ClassifyConcurrency)

	orch := discovery.New(db, db, adapter, pool, queries, discovery.Options{
		PerQueryLimit: cfg.Search.MaxItems,
	})
	return orch, cleanup, nil
}

func runDiscover(cmd *cobra.Command, args []string) error {
	if campaignID == "" {
		return types.ErrCampaignIDRequired
	}

	db, err := store.Open(cfg.Store.DatabasePath)
	if err != nil {
		return err
	}
	defer db.Close()

	orch, cleanup, err := buildPipeline(cmd.Context(), db)
	if err != nil {
		return err
	}
	defer cleanup()

	result, err := orch.Run(cmd.Context(), campaignID)
	printResult(result)
	return err
}

func runDiscoverAll(cmd *cobra.Command, args []string) error {
	db, err := store.Open(cfg.Store.DatabasePath)
	if err != nil {
		return err
	}
	defer db.Close()

	orch, cleanup, err := buildPipeline(cmd.Context(), db)
	if err != nil {
		return err
	}
	defer cleanup()

	outcomes, err := orch.RunAll(cmd.Context())
	if err != nil {
		return err
	}

	failures := 0
	for _, out := range outcomes {
		if out.Err != nil {
			failures++
			fmt.Printf("campaign %s: FAILED: %v\n", out.CampaignID, out.Err)
			continue
		}
		printResult(out.Result)
	}
	if failures > 0 {
		return fmt.Errorf("%d of %d campaigns failed", failures, len(outcomes))
	}
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	if campaignID == "" {
		return types.ErrCampaignIDRequired
	}

	db, err := store.Open(cfg.Store.DatabasePath)
	if err != nil {
		return err
	}
	defer db.Close()

	campaign, err := db.GetCampaign(cmd.Context(), campaignID)
	if err != nil {
		return err
	}
	fmt.Printf("Campaign: %s (%s)\nProduct:  %s\nStatus:   %s\n",
		campaign.Name, campaign.ID, campaign.Product, campaign.Status)

	state, err := db.GetAgentState(cmd.Context(), campaignID)
	if err != nil {
		return err
	}
	if state == nil {
		fmt.Println("No runs yet.")
	} else {
		fmt.Printf("Phase:    %s\n", state.Phase)
		if state.LastRunAt != nil {
			fmt.Printf("Last run: %s\n", state.LastRunAt.Format(time.RFC3339))
		}
		fmt.Printf("Queued:   %d\n", state.OpportunitiesQueued)
		if state.LastError != "" {
			fmt.Printf("Last error: %s\n", state.LastError)
		}
	}

	findings, err := db.ListFindings(cmd.Context(), campaignID, true)
	if err != nil {
		return err
	}
	fmt.Printf("\nUnprocessed findings: %d\n", len(findings))
	for i, f := range findings {
		if i >= 10 {
			fmt.Printf("  ... and %d more\n", len(findings)-10)
			break
		}
		fmt.Printf("  [%d/10] %s\n         %s\n", f.RelevanceScore, f.Title, f.SourceURL)
	}
	return nil
}

func runAddCampaign(cmd *cobra.Command, args []string) error {
	if campaignName == "" || campaignProduct == "" {
		return fmt.Errorf("--name and --product are required")
	}

	db, err := store.Open(cfg.Store.DatabasePath)
	if err != nil {
		return err
	}
	defer db.Close()

	campaign := &types.Campaign{
		Name:     campaignName,
		Product:  campaignProduct,
		Goals:    campaignGoals,
		Channels: campaignChannels,
		Status:   types.CampaignActive,
	}
	if err := db.SaveCampaign(cmd.Context(), campaign); err != nil {
		return err
	}

	fmt.Printf("Campaign %s registered (channels: %s)\n",
		campaign.ID, strings.Join(campaign.Channels, ", "))
	return nil
}

func printResult(r *types.DiscoveryResult) {
	if r == nil {
		return
	}
	status := "ok"
	if !r.Success {
		status = "failed"
	}
	fmt.Printf("campaign %s: %s via %s, %d new findings (%d high priority, %d review)\n",
		r.CampaignID, status, r.Method, r.FindingsCount, r.HighPriorityCount, r.ReviewCount)
	for _, f := range r.Findings {
		score := "-"
		if f.IntentScore != nil {
			score = fmt.Sprintf("%.2f", *f.IntentScore)
		}
		fmt.Printf("  [%s] %s\n        %s\n", score, f.Title, f.URL)
	}
	for _, e := range r.Errors {
		fmt.Printf("  warning: %s\n", e)
	}
}
