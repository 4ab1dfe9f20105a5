package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/jhagelund/snaplist/internal/config"
	"github.com/jhagelund/snaplist/internal/draft"
	"github.com/jhagelund/snaplist/internal/jobs"
	"github.com/jhagelund/snaplist/internal/market"
	"github.com/jhagelund/snaplist/internal/metrics"
	"github.com/jhagelund/snaplist/internal/notify"
	"github.com/jhagelund/snaplist/internal/server"
	"github.com/jhagelund/snaplist/internal/storage"
	"github.com/jhagelund/snaplist/internal/vision"
)

const logFileName = "snaplist.log"

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	config.LoadEnvFile()
	cfg := config.FromEnv()
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	// JOURNAL_STREAM is set by systemd when running as a service.
	// Skip file logging under systemd (journald handles it, and ProtectSystem=strict
	// makes the working directory read-only).
	if _, underSystemd := os.LookupEnv("JOURNAL_STREAM"); underSystemd {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	} else {
		// Local development: log to both stderr and file
		logFile, err := os.OpenFile(logFileName, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to open log file")
		}
		defer logFile.Close()

		consoleWriter := zerolog.ConsoleWriter{Out: os.Stderr}
		fileWriter := zerolog.ConsoleWriter{Out: logFile, NoColor: true}
		log.Logger = log.Output(io.MultiWriter(consoleWriter, fileWriter))

		log.Info().Str("logFile", logFileName).Msg("logging to file")
	}

	// Derive the secret-store key from the passphrase, if one is set.
	var encryptionKey []byte
	if cfg.SecretKey != "" {
		key, err := storage.DeriveKey(cfg.SecretKey)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to derive encryption key")
		}
		encryptionKey = key
	}

	store, err := storage.NewSQLiteStore(cfg.DBPath, encryptionKey)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize store")
	}
	defer store.Close()
	log.Info().Str("dbPath", cfg.DBPath).Msg("store initialized")

	// Create context that cancels on SIGINT or SIGTERM
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	reg := metrics.NewRegistry()

	client := buildVisionClient(ctx, cfg, store, reg)
	if client == nil {
		log.Warn().Msg("no model API key configured, producing demo drafts")
	}

	orchestrator := draft.NewOrchestrator(draft.OrchestratorOpts{
		Client: client,
		Live:   client != nil,
	})

	researcher := market.NewLocalResearcher()

	var notifier notify.Notifier = notify.NopNotifier{}
	if cfg.TelegramToken != "" && cfg.TelegramChatID != 0 {
		tn, err := notify.NewTelegramNotifier(cfg.TelegramToken, cfg.TelegramChatID)
		if err != nil {
			log.Warn().Err(err).Msg("failed to initialize telegram notifier")
		} else {
			notifier = tn
		}
	}

	runner := jobs.NewRunner(jobs.RunnerOpts{
		Orchestrator: orchestrator,
		Researcher:   researcher,
		Store:        store,
		Notifier:     notifier,
		Metrics:      reg,
		Workers:      cfg.Workers,
		QueueSize:    cfg.QueueSize,
	})

	srv := server.New(server.Opts{
		Runner:       runner,
		Store:        store,
		Orchestrator: orchestrator,
		Researcher:   researcher,
		Metrics:      reg,
		CacheEnabled: cfg.VisionCache && client != nil,
	})

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return runner.Run(ctx)
	})

	g.Go(func() error {
		log.Info().
			Str("addr", cfg.Addr).
			Str("provider", orchestrator.Provider()).
			Bool("live", orchestrator.Live()).
			Int("workers", cfg.Workers).
			Msg("server starting")
		return srv.Listen(cfg.Addr)
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancelShutdown()
		return srv.ShutdownWithContext(shutdownCtx)
	})

	if err := g.Wait(); err != nil && err != context.Canceled {
		log.Error().Err(err).Msg("shutdown with error")
	} else {
		log.Info().Msg("shutdown complete")
	}
}

// buildVisionClient resolves the provider credential from the environment
// or the encrypted secret store, builds the configured client and wraps it
// with the response cache when enabled. Returns nil when no credential is
// available, which puts the whole service in demo mode.
func buildVisionClient(ctx context.Context, cfg config.Config, store storage.Store, reg *metrics.Registry) vision.Client {
	apiKey := cfg.ProviderKey()
	if apiKey == "" {
		if stored, err := store.GetSecret(cfg.Provider + "_api_key"); err == nil && stored != "" {
			apiKey = stored
			log.Info().Str("provider", cfg.Provider).Msg("using API key from secret store")
		}
	}
	if apiKey == "" {
		return nil
	}

	var client vision.Client
	switch cfg.Provider {
	case "gemini":
		gc, err := vision.NewGeminiClient(ctx, vision.GeminiOpts{
			APIKey:  apiKey,
			Model:   cfg.Model,
			Metrics: reg,
		})
		if err != nil {
			log.Error().Err(err).Msg("failed to initialize gemini client")
			return nil
		}
		client = gc
	default:
		client = vision.NewOpenAIClient(vision.OpenAIOpts{
			APIKey:  apiKey,
			BaseURL: cfg.OpenAIBaseURL,
			Model:   cfg.Model,
			Timeout: cfg.ModelTimeout,
			Metrics: reg,
		})
	}

	if cfg.VisionCache {
		client = vision.NewCachedClient(client, store)
	}
	return client
}
