package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pricelens/stparts-scraper/config"
	"github.com/pricelens/stparts-scraper/export"
	"github.com/pricelens/stparts-scraper/models"
	"github.com/pricelens/stparts-scraper/proxydir"
	"github.com/pricelens/stparts-scraper/scraper"
	"github.com/pricelens/stparts-scraper/service"
)

func main() {
	config.LoadDotenv()
	defaultCfg := config.DefaultConfig()

	concurrencyDefault := defaultCfg.Concurrency
	if value, ok, err := config.EnvInt("STPARTS_CONCURRENCY"); err != nil {
		fmt.Fprintf(os.Stderr, "invalid STPARTS_CONCURRENCY: %v\n", err)
		os.Exit(1)
	} else if ok {
		concurrencyDefault = value
	}
	baseURLDefault := defaultCfg.BaseURL
	if value, ok := config.EnvString("STPARTS_BASE_URL"); ok {
		baseURLDefault = value
	}
	proxyDBDefault := defaultCfg.ProxyDatabaseURL
	if value, ok := config.EnvString("STPARTS_PROXY_DATABASE_URL"); ok {
		proxyDBDefault = value
	}
	proxyTypeDefault := defaultCfg.ProxyTypeFilter
	if value, ok := config.EnvString("STPARTS_PROXY_TYPE"); ok {
		proxyTypeDefault = value
	}
	exportDirDefault := defaultCfg.ExportDir
	if value, ok := config.EnvString("STPARTS_EXPORT_DIR"); ok {
		exportDirDefault = value
	}
	metricsDefault := defaultCfg.MetricsAddr
	if value, ok := config.EnvString("STPARTS_METRICS_ADDR"); ok {
		metricsDefault = value
	}
	analogsDefault := defaultCfg.IncludeAnalogs
	if value, ok, err := config.EnvBool("STPARTS_INCLUDE_ANALOGS"); err != nil {
		fmt.Fprintf(os.Stderr, "invalid STPARTS_INCLUDE_ANALOGS: %v\n", err)
		os.Exit(1)
	} else if ok {
		analogsDefault = value
	}

	inputPath := flag.String("input", "", "Input file with article codes (.xlsx with an article column, or plain text)")
	baseURL := flag.String("base-url", baseURLDefault, "Marketplace base URL")
	concurrency := flag.Int("concurrency", concurrencyDefault, "Number of articles processed in parallel")
	includeAnalogs := flag.Bool("analogs", analogsDefault, "Include analog offers in the results")
	proxyDatabaseURL := flag.String("proxy-db", proxyDBDefault, "Postgres DSN of the proxy directory (empty runs without proxies)")
	proxyType := flag.String("proxy-type", proxyTypeDefault, "Restrict proxies to one type (e.g. mobile_shared)")
	exportDir := flag.String("export-dir", exportDirDefault, "Directory for xlsx reports")
	cleanupDays := flag.Int("cleanup-days", 5, "Delete reports older than this many days (0 disables cleanup)")
	metricsAddr := flag.String("metrics-addr", metricsDefault, "Prometheus metrics listen address (e.g. :9090)")
	verbose := flag.Bool("v", false, "Enable verbose logging")
	flag.Parse()

	logger, level := newLogger(*verbose)
	slog.SetDefault(logger)
	slog.SetLogLoggerLevel(level.Level())

	if *inputPath == "" {
		fmt.Fprintln(os.Stderr, "usage: stparts -input articles.xlsx [flags]")
		flag.PrintDefaults()
		os.Exit(2)
	}

	cfg := defaultCfg
	cfg.BaseURL = *baseURL
	cfg.Concurrency = *concurrency
	cfg.IncludeAnalogs = *includeAnalogs
	cfg.ProxyDatabaseURL = *proxyDatabaseURL
	cfg.ProxyTypeFilter = *proxyType
	cfg.ExportDir = *exportDir
	cfg.MetricsAddr = *metricsAddr
	cfg.Verbose = *verbose
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.Any("error", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received, waiting for in-flight work to finish")
	}()

	directory, closeDirectory, err := openDirectory(ctx, cfg)
	if err != nil {
		slog.Error("connecting proxy directory", slog.Any("error", err))
		os.Exit(1)
	}
	defer closeDirectory()

	metrics := scraper.NewMetrics()
	var metricsServer *http.Server
	if cfg.MetricsAddr != "" {
		metricsServer = &http.Server{
			Addr:    cfg.MetricsAddr,
			Handler: promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}),
		}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("metrics server failed", slog.Any("error", err))
			}
		}()
		slog.Info("metrics server enabled", slog.String("addr", cfg.MetricsAddr))
	}

	if *cleanupDays > 0 {
		if deleted := export.DeleteOldReports(cfg.ExportDir, time.Duration(*cleanupDays)*24*time.Hour); deleted > 0 {
			slog.Info("deleted old reports", slog.Int("count", deleted))
		}
	}

	slog.Info("starting run",
		slog.String("input", *inputPath),
		slog.String("base_url", cfg.BaseURL),
		slog.Int("concurrency", cfg.Concurrency),
		slog.Bool("analogs", cfg.IncludeAnalogs),
	)

	svc := service.New(cfg, directory, nil, metrics)
	result, err := svc.Run(ctx, *inputPath, nil)
	if err != nil {
		slog.Error("run failed", slog.Any("error", err))
		os.Exit(1)
	}

	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("metrics server shutdown failed", slog.Any("error", err))
		}
		cancel()
	}

	printSummary(result)
}

// openDirectory picks the proxy source: Postgres when a DSN is set,
// otherwise an empty static directory so the run degrades to skipping
// every article instead of failing.
func openDirectory(ctx context.Context, cfg *config.Config) (proxydir.Directory, func(), error) {
	if cfg.ProxyDatabaseURL == "" {
		slog.Warn("no proxy database configured, articles will be skipped")
		return &proxydir.Static{}, func() {}, nil
	}
	pg, err := proxydir.NewPostgres(ctx, cfg.ProxyDatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	return pg, pg.Close, nil
}

func printSummary(result *models.RunResult) {
	separator := "--------------------------------------------------"
	fmt.Println("\n" + separator)
	fmt.Println("Run complete")
	fmt.Printf("  Articles:      %d\n", result.ArticleCount)
	fmt.Printf("  Offers:        %d\n", len(result.Offers))
	fmt.Printf("  Failed:        %d\n", len(result.FailedArticles))
	if len(result.FailedArticles) > 0 {
		fmt.Printf("  Failed codes:  %v\n", result.FailedArticles)
	}
	fmt.Printf("  Duration:      %v\n", result.EndTime.Sub(result.StartTime).Round(time.Millisecond))
	fmt.Printf("  Report:        %s\n", result.ExportPath)
	fmt.Println(separator)
}

func newLogger(verbose bool) (*slog.Logger, *slog.LevelVar) {
	level := &slog.LevelVar{}
	if verbose {
		level.Set(slog.LevelDebug)
	} else {
		level.Set(slog.LevelInfo)
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if isTerminal(os.Stdout) {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(handler), level
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
