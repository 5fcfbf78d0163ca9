// Package main provides the apiluck service entry point.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm/logger"

	"github.com/Quang17112009/apiluck/internal/config"
	db "github.com/Quang17112009/apiluck/internal/db/gorm"
	"github.com/Quang17112009/apiluck/internal/feed"
	"github.com/Quang17112009/apiluck/internal/ingest"
	"github.com/Quang17112009/apiluck/internal/predict"
	"github.com/Quang17112009/apiluck/internal/telemetry"
	"github.com/Quang17112009/apiluck/internal/watcher"
	"github.com/Quang17112009/apiluck/internal/worker"
)

// Version is set at build time via ldflags.
var Version = "dev"

func main() {
	configPath := flag.String("config", "", "Config file path (default: apiluck.yaml)")
	debug := flag.Bool("debug", false, "Enable debug logging")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(Version)
		return
	}

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, NoColor: true})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	applyLogLevel(cfg.LogLevel, *debug)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Info().Str("signal", sig.String()).Msg("Shutting down")
		cancel()
	}()

	// Tracing is optional: no endpoint means a noop provider.
	shutdownTracing, err := telemetry.Setup(ctx, "apiluck", cfg.OTELEndpoint)
	if err != nil {
		log.Warn().Err(err).Msg("Tracing unavailable, continuing without it")
	} else {
		defer func() {
			flushCtx, flushCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer flushCancel()
			if err := shutdownTracing(flushCtx); err != nil {
				log.Warn().Err(err).Msg("Flushing traces failed")
			}
		}()
	}

	store, err := db.NewStore(db.Config{
		DSN:      cfg.DatabaseURL,
		MaxConns: cfg.MaxConns,
		LogLevel: logger.Silent,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open session database")
	}
	defer store.Close()

	sessions := db.NewSessionStore(store)

	// The classifier is optional: a missing or bad artifact leaves the
	// pattern rules in charge.
	var classifier predict.Classifier
	if cfg.ModelPath != "" {
		model, err := predict.LoadModel(cfg.ModelPath)
		if err != nil {
			log.Warn().Err(err).Str("path", cfg.ModelPath).Msg("Model unavailable, using pattern rules only")
		} else {
			classifier = model
			log.Info().Str("path", cfg.ModelPath).Msg("Model loaded")
		}
	}
	engine := predict.NewEngine(sessions, classifier, cfg.AnalysisWindow)

	stats := telemetry.NewIngestStats()
	svc := worker.New(Version, cfg, store, sessions, engine, stats)

	feedClient := feed.NewClient(feed.Config{URL: cfg.FeedURL, Timeout: cfg.FeedTimeout})
	ingestor := ingest.New(feedClient, sessions, stats,
		ingest.WithInterval(cfg.PollInterval),
		ingest.WithNotify(svc.NotifySession),
	)

	startModelWatcher(cfg.ModelPath, svc)

	log.Info().
		Str("version", Version).
		Str("addr", cfg.ListenAddr).
		Str("feed", cfg.FeedURL).
		Str("database", cfg.DatabaseURL).
		Msg("Starting apiluck")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return svc.Start()
	})
	g.Go(func() error {
		if err := ingestor.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		return svc.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Fatal().Err(err).Msg("apiluck exited with error")
	}
	log.Info().Msg("apiluck stopped")
}

func applyLogLevel(level string, debug bool) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	if debug {
		lvl = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(lvl)
}

// startModelWatcher flags the service when the artifact on disk changes,
// so operators know a restart would pick up a fresh model.
func startModelWatcher(modelPath string, svc *worker.Service) {
	if modelPath == "" {
		return
	}

	w, err := watcher.New(modelPath, svc.MarkModelStale)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to create model watcher")
		return
	}
	if err := w.Start(); err != nil {
		log.Warn().Err(err).Msg("Failed to start model watcher")
		return
	}
	log.Info().Str("path", modelPath).Msg("Model artifact watcher started")
}
