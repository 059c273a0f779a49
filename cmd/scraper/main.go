package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"workshop-scraper/config"
	"workshop-scraper/fetch"
	"workshop-scraper/models"
	"workshop-scraper/pipeline"
	"workshop-scraper/scraper"
)

func main() {
	defaultCfg := config.DefaultConfig()
	outputDefault := defaultCfg.OutputFile
	if value, ok := config.EnvString("SCRAPER_OUTPUT"); ok {
		outputDefault = value
	}
	metricsDefault := defaultCfg.MetricsAddr
	if value, ok := config.EnvString("SCRAPER_METRICS_ADDR"); ok {
		metricsDefault = value
	}
	batchDefault := defaultCfg.BatchSize
	if value, ok, err := config.EnvInt("SCRAPER_BATCH"); err != nil {
		fmt.Fprintf(os.Stderr, "invalid SCRAPER_BATCH: %v\n", err)
		os.Exit(1)
	} else if ok {
		batchDefault = value
	}

	seed := flag.String("seed", "", "Steam profile id (numeric) or vanity name to scrape")
	baseURL := flag.String("base-url", defaultCfg.BaseURL, "Community site base URL")
	appID := flag.String("app-id", defaultCfg.AppID, "Workshop app id to list")
	batchSize := flag.Int("batch-size", batchDefault, "Items per dispatch batch")
	itemDelayMs := flag.Int("item-delay", int(defaultCfg.ItemDelay/time.Millisecond), "Delay between item detail requests (milliseconds)")
	timeoutSec := flag.Int("timeout", int(defaultCfg.Timeout/time.Second), "HTTP request timeout (seconds)")
	outputFile := flag.String("output", outputDefault, "Output file path")
	outputFormat := flag.String("format", defaultCfg.OutputFormat, "Output format: csv, json, or dual")
	metricsAddr := flag.String("metrics-addr", metricsDefault, "Prometheus metrics listen address (e.g. :9090)")
	verbose := flag.Bool("v", false, "Enable verbose logging")

	flag.Parse()

	logger, level := newLogger(*verbose)
	slog.SetDefault(logger)
	slog.SetLogLoggerLevel(level.Level())

	if *seed == "" {
		slog.Error("missing required -seed flag")
		os.Exit(1)
	}

	cfg := config.DefaultConfig()
	cfg.BaseURL = *baseURL
	cfg.AppID = *appID
	cfg.BatchSize = *batchSize
	cfg.ItemDelay = time.Duration(*itemDelayMs) * time.Millisecond
	cfg.Timeout = time.Duration(*timeoutSec) * time.Second
	cfg.OutputFile = *outputFile
	cfg.OutputFormat = strings.ToLower(*outputFormat)
	cfg.MetricsAddr = *metricsAddr
	cfg.Verbose = *verbose
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.Any("error", err))
		os.Exit(1)
	}

	client, err := fetch.NewClient(cfg, *seed)
	if err != nil {
		slog.Error("initialising fetch client", slog.Any("error", err))
		os.Exit(1)
	}

	metrics := scraper.NewMetrics()
	engine := scraper.NewEngine(cfg, client, client, metrics)

	writer, err := createWriter(cfg.OutputFormat, cfg.OutputFile)
	if err != nil {
		slog.Error("creating writer", slog.Any("error", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received, cancelling run")
		engine.Cancel()
	}()

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

	slog.Info("starting scrape",
		slog.String("seed", *seed),
		slog.String("base_url", cfg.BaseURL),
		slog.Int("batch_size", cfg.BatchSize),
	)

	if err := engine.Start(ctx); err != nil {
		slog.Error("starting engine", slog.Any("error", err))
		os.Exit(1)
	}

	go controlLoop(engine)
	go statusLoop(engine, 10*time.Second)

	result := engine.Wait()

	p, err := pipeline.NewPipeline(writer, cfg)
	if err != nil {
		slog.Error("initialising pipeline", slog.Any("error", err))
		os.Exit(1)
	}
	p.Start(1)
	if err := p.Process(result.Items); err != nil {
		slog.Error("pipeline process failed", slog.Any("error", err))
	}
	if err := p.Close(); err != nil {
		slog.Error("pipeline shutdown failed", slog.Any("error", err))
		os.Exit(1)
	}
	if len(result.Items) > 0 {
		if err := writer.Validate(); err != nil {
			slog.Error("output validation failed", slog.Any("error", err))
			os.Exit(1)
		}
	}
	if err := writer.Close(); err != nil {
		slog.Error("close writer", slog.Any("error", err))
	}

	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("metrics server shutdown failed", slog.Any("error", err))
		}
		cancel()
	}

	printSummary(result, p.GetMetrics(), cfg.OutputFile)

	if result.Phase == models.PhaseFailed {
		os.Exit(1)
	}
}

// controlLoop reads operator commands from stdin. The engine itself
// exposes the pause/resume/cancel surface; this is just a console
// front for it.
func controlLoop(engine *scraper.Engine) {
	sc := bufio.NewScanner(os.Stdin)
	for sc.Scan() {
		switch strings.TrimSpace(strings.ToLower(sc.Text())) {
		case "pause", "p":
			if !engine.Pause() {
				slog.Info("pause ignored, run not in running state")
			}
		case "resume", "r":
			if !engine.Resume() {
				slog.Info("resume ignored, run not paused")
			}
		case "status", "s":
			snap := engine.Snapshot()
			slog.Info("status",
				slog.String("phase", string(snap.Phase)),
				slog.Int("page", snap.CurrentPage),
				slog.Int("collected", snap.Collected),
				slog.Int("pending", snap.Pending),
			)
		case "cancel", "quit", "q":
			engine.Cancel()
			return
		case "":
		default:
			slog.Info("commands: pause, resume, status, cancel")
		}
	}
}

// statusLoop logs a snapshot at a fixed interval until the run ends.
func statusLoop(engine *scraper.Engine, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-engine.Done():
			return
		case <-ticker.C:
			snap := engine.Snapshot()
			slog.Info("progress",
				slog.String("phase", string(snap.Phase)),
				slog.Int("page", snap.CurrentPage),
				slog.Int("collected", snap.Collected),
				slog.Int("pending", snap.Pending),
			)
		}
	}
}

func createWriter(format, filename string) (pipeline.OutputWriter, error) {
	switch format {
	case "json":
		return pipeline.NewJSONWriter(filename)
	case "csv":
		return pipeline.NewCSVWriter(filename)
	case "dual":
		jsonFilename := strings.TrimSuffix(filename, ".csv") + ".json"
		return pipeline.NewDualWriter(filename, jsonFilename)
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

func printSummary(result *models.RunResult, pipelineMetrics map[string]interface{}, outputFile string) {
	separator := "--------------------------------------------------"
	fmt.Println("\n" + separator)
	fmt.Println("Scrape complete")

	duration := result.EndTime.Sub(result.StartTime)
	itemsPerSec := 0.0
	if duration.Seconds() > 0 {
		itemsPerSec = float64(len(result.Items)) / duration.Seconds()
	}

	fmt.Printf("  Outcome:       %s\n", result.Phase)
	fmt.Printf("  Total items:   %d\n", len(result.Items))
	fmt.Printf("  Still pending: %d\n", len(result.StillPending))
	fmt.Printf("  Pages:         %d\n", result.PageCount)
	fmt.Printf("  Page fetches:  %d\n", result.RequestCount)
	fmt.Printf("  Retries:       %d\n", result.RetryCount)
	fmt.Printf("  Errors:        %d\n", result.ErrorCount)
	if len(result.ErrorsByType) > 0 {
		fmt.Printf("  Error types:   %v\n", result.ErrorsByType)
	}
	if valErrors, ok := pipelineMetrics["validation_errors"].(map[string]int); ok && len(valErrors) > 0 {
		fmt.Printf("  Validation:    %v\n", valErrors)
	}
	fmt.Printf("  Duration:      %v\n", duration)
	fmt.Printf("  Items/sec:     %.2f\n", itemsPerSec)
	fmt.Printf("  Output file:   %s\n", outputFile)
	if len(result.StillPending) > 0 {
		fmt.Printf("  Note: %d items could not be fetched; results are incomplete.\n", len(result.StillPending))
		for _, pending := range result.StillPending {
			fmt.Printf("    - page %d item %d: %s\n", pending.Page, pending.Index+1, pending.Ref.Name)
		}
	}
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
