package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"appliance-dashboard/internal/config"
	"appliance-dashboard/internal/middleware"
	"appliance-dashboard/internal/models"
	"appliance-dashboard/internal/observability"
	"appliance-dashboard/internal/report"
	"appliance-dashboard/internal/server"
	"appliance-dashboard/internal/services"
	"appliance-dashboard/internal/ui/templates"
)

const (
	renderTimeout  = 10 * time.Second
	csvLoadTimeout = 30 * time.Second
	version        = "1.0.0"
)

var (
	configPath string
	csvPath    string

	summaryCategories []string
	summaryRegions    []string
	summaryStart      string
	summaryEnd        string
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "appliance-dashboard",
		Short:         "Appliance sales analytics dashboard",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runServe,
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a TOML config file (overrides CONFIG_FILE)")
	rootCmd.PersistentFlags().StringVar(&csvPath, "csv", "", "path to the sales CSV (overrides CSV_FILE)")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Serve the web dashboard (default)",
		RunE:  runServe,
	})
	rootCmd.AddCommand(newSummaryCmd())

	return rootCmd
}

func newSummaryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print KPIs and sales by category for a selection",
		RunE:  runSummary,
	}
	cmd.Flags().StringSliceVar(&summaryCategories, "category", nil, "categories to include (default: all)")
	cmd.Flags().StringSliceVar(&summaryRegions, "region", nil, "regions to include (default: all)")
	cmd.Flags().StringVar(&summaryStart, "start", "", "first sale date, YYYY-MM-DD (default: earliest)")
	cmd.Flags().StringVar(&summaryEnd, "end", "", "last sale date, YYYY-MM-DD (default: latest)")
	return cmd
}

func loadConfig() (*config.Config, error) {
	if configPath != "" {
		if err := os.Setenv("CONFIG_FILE", configPath); err != nil {
			return nil, err
		}
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if csvPath != "" {
		cfg.Database.CSVFile = csvPath
	}
	return cfg, nil
}

func buildDashboard(cfg *config.Config, logger *slog.Logger) (*services.Dashboard, *services.DatasetCache, error) {
	cache, err := services.NewDatasetCache(cfg.Dashboard.CacheSize, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("create dataset cache: %w", err)
	}
	dashboard := services.NewDashboard(
		&services.FileSource{Path: cfg.Database.CSVFile, Cache: cache},
		services.WithHistogramBins(cfg.Dashboard.HistogramBins),
		services.WithLogger(logger),
	)
	return dashboard, cache, nil
}

// warmUp loads the dataset once so a missing or malformed file stops startup.
func warmUp(dashboard *services.Dashboard, path string, logger *slog.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), csvLoadTimeout)
	defer cancel()

	start := time.Now()
	ds, err := dashboard.Dataset(ctx)
	if err != nil {
		return fmt.Errorf("failed to load CSV data from %s: %w", path, err)
	}
	logger.Info("CSV data loaded successfully",
		"records", len(ds.Records),
		"categories", len(ds.Options.Categories),
		"regions", len(ds.Options.Regions),
		"duration", time.Since(start),
	)
	return nil
}

func dashboardHandler(dashboard *services.Dashboard, cfg *config.Config, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), renderTimeout)
		defer cancel()

		tick, err := dashboard.Tick(ctx, models.SelectionInput{})
		if err != nil {
			logger.Error("dashboard unavailable", "error", err, "request_id", observability.GetRequestID(ctx))
			http.Error(w, "dataset unavailable", http.StatusServiceUnavailable)
			return
		}

		page := templates.PageData{
			Options:         tick.Options,
			Selection:       tick.Selection,
			Display:         tick.Display,
			View:            tick.View,
			TotalRecords:    tick.TotalRecords,
			MaxTableRows:    cfg.Dashboard.MaxTableRows,
			RefreshInterval: cfg.Dashboard.RefreshInterval,
		}

		w.Header().Set("Cache-Control", "no-store")
		if err := templates.Dashboard(page).Render(ctx, w); err != nil {
			http.Error(w, "render error", http.StatusInternalServerError)
		}
	}
}

func newHandler(dashboard *services.Dashboard, cfg *config.Config, logger *slog.Logger) http.Handler {
	templateHandlers := &server.TemplateHandlers{
		Dashboard: dashboardHandler(dashboard, cfg, logger),
	}

	srv := server.NewServer(dashboard, logger, templateHandlers, cfg.Dashboard.MaxTableRows)

	rateLimiter := middleware.NewRateLimiter(cfg.Security)

	middlewareChain := middleware.Chain(
		middleware.Recovery(logger),
		middleware.RequestID(),
		middleware.Logger(logger),
		middleware.Tracing(logger),
		middleware.SecurityHeaders(),
		middleware.CORS(cfg.Security),
		middleware.TrustedProxy(cfg.Security),
		middleware.RateLimit(rateLimiter, logger),
	)

	return middlewareChain(srv)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		return err
	}

	logger := observability.NewLogger(cfg.Logger)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"version", version,
		"config", cfg,
	)

	dashboard, cache, err := buildDashboard(cfg, logger)
	if err != nil {
		return err
	}
	if err := warmUp(dashboard, cfg.Database.CSVFile, logger); err != nil {
		logger.Error("failed to load CSV data", "error", err)
		return err
	}

	httpServer := &http.Server{
		Addr:         cfg.Address(),
		Handler:      newHandler(dashboard, cfg, logger),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	gracefulServer := server.NewGracefulServer(httpServer, logger, cfg)

	gracefulServer.RegisterShutdownHook("dataset-cache", func(ctx context.Context) error {
		stats := cache.Stats()
		logger.Info("shutting down dashboard service",
			"cache_hits", stats.Hits,
			"cache_misses", stats.Misses,
			"cache_loads", stats.Loads,
		)
		return nil
	})

	logger.Info("starting graceful server", "refresh_interval", cfg.Dashboard.RefreshInterval)
	if err := gracefulServer.ListenAndServe(); err != nil {
		logger.Error("server failed", "error", err)
		return err
	}

	logger.Info("application stopped gracefully")
	return nil
}

func runSummary(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger := observability.NewLoggerTo(cmd.ErrOrStderr(), cfg.Logger)

	dashboard, _, err := buildDashboard(cfg, logger)
	if err != nil {
		return err
	}

	in := models.SelectionInput{Start: summaryStart, End: summaryEnd}
	if cmd.Flags().Changed("category") {
		in.Categories = nonNil(summaryCategories)
	}
	if cmd.Flags().Changed("region") {
		in.Regions = nonNil(summaryRegions)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), csvLoadTimeout)
	defer cancel()

	tick, err := dashboard.Tick(ctx, in)
	if err != nil {
		return fmt.Errorf("summarize %s: %w", cfg.Database.CSVFile, err)
	}

	return report.Render(cmd.OutOrStdout(), tick)
}

// nonNil keeps an explicitly empty flag distinct from an absent one.
func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
