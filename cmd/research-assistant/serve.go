// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/research-assistant/internal/cache"
	"github.com/pdiddy/research-assistant/internal/container"
	"github.com/pdiddy/research-assistant/internal/discover"
	"github.com/pdiddy/research-assistant/internal/extract"
	"github.com/pdiddy/research-assistant/internal/knowledge"
	"github.com/pdiddy/research-assistant/internal/server"
	"github.com/pdiddy/research-assistant/internal/synthesis"
	"github.com/pdiddy/research-assistant/internal/workflow"
	"github.com/pdiddy/research-assistant/pkg/types"
)

// cacheSweepInterval bounds how long expired cache entries linger.
const cacheSweepInterval = 5 * time.Minute

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the research-assistant HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func loadConfig() (types.ServiceConfig, error) {
	cfg := types.DefaultConfig()
	if err := viper.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("parsing configuration: %w", err)
	}
	return cfg, nil
}

func runServe() error {
	// Local development keeps API keys in .env; absence is fine.
	_ = godotenv.Load()

	log, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer log.Sync()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store, err := knowledge.NewStore(cfg.Knowledge)
	if err != nil {
		return fmt.Errorf("opening knowledge store: %w", err)
	}
	defer store.Close()

	coordinator, err := buildDiscovery(cfg.Discovery, log)
	if err != nil {
		return err
	}

	native := &extract.NativeExtractor{Tool: cfg.Extraction.NativeTool}
	pipeline := buildExtraction(cfg.Extraction, native, log)

	synthCfg := cfg.Synthesis
	if synthCfg.APIKey == "" {
		synthCfg.APIKey = loadedSecrets.Get("openai-api-key", os.Getenv("OPENAI_API_KEY"))
	}
	synthSvc := synthesis.NewOpenAIService(synthCfg)

	requestCache := cache.New()
	sweepStop := make(chan struct{})
	defer close(sweepStop)
	go requestCache.SweepEvery(cacheSweepInterval, sweepStop)

	sessions := cache.NewSessionManager(requestCache, cfg.Session)
	engine := workflow.NewEngine(cfg.Workflow, store, coordinator, pipeline, synthSvc, requestCache, log)

	ingester := &server.Ingester{Native: native, WorkDir: cfg.Extraction.WorkDir}
	srv := server.New(engine, store, sessions, ingester, cfg.Server, log)

	httpSrv := &http.Server{
		Addr:    cfg.Server.BindAddr,
		Handler: srv.Router(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("addr", cfg.Server.BindAddr))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// buildDiscovery registers the enabled sources behind one coordinator.
func buildDiscovery(cfg types.DiscoveryConfig, log *zap.Logger) (*discover.Coordinator, error) {
	client := &http.Client{Timeout: cfg.Timeout}

	var sources []discover.Source
	if cfg.EnableArxiv {
		sources = append(sources, &discover.ArxivSource{
			Client:     client,
			UserAgent:  cfg.UserAgent,
			MaxRetries: cfg.MaxRetries,
		})
	}
	if cfg.EnableOpenAlex {
		sources = append(sources, &discover.OpenAlexSource{
			Client:     client,
			UserAgent:  cfg.UserAgent,
			MaxRetries: cfg.MaxRetries,
			Email:      loadedSecrets.Get("openalex-email", cfg.OpenAlexEmail),
		})
	}
	if len(sources) == 0 {
		return nil, fmt.Errorf("no discovery sources enabled")
	}

	limiter := discover.NewRateLimiter(cfg.SourceDelay)
	return discover.NewCoordinator(sources, limiter, cfg, log), nil
}

// buildExtraction assembles the tier chain. A missing container runtime
// disables the OCR tier rather than failing startup.
func buildExtraction(cfg types.ExtractionConfig, native extract.TextExtractor, log *zap.Logger) *extract.Pipeline {
	fetcher := &extract.Fetcher{
		Client:    &http.Client{Timeout: cfg.Timeout},
		UserAgent: cfg.UserAgent,
		Dir:       cfg.WorkDir,
	}

	var ocr extract.TextExtractor
	if cfg.OCRImage != "" {
		rt, err := container.DetectRuntime()
		if err != nil {
			log.Warn("OCR tier disabled", zap.Error(err))
		} else if extractor, err := extract.NewOCRExtractor(rt, cfg.OCRImage); err != nil {
			log.Warn("OCR tier disabled", zap.Error(err))
		} else {
			ocr = extractor
		}
	}

	return extract.NewPipeline(cfg, fetcher, native, ocr, log)
}
