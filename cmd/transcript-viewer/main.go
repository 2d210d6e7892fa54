package main

import (
	"context"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	transcriptviewer "github.com/snarg/transcript-viewer"
	"github.com/snarg/transcript-viewer/internal/api"
	"github.com/snarg/transcript-viewer/internal/config"
	"github.com/snarg/transcript-viewer/internal/database"
	"github.com/snarg/transcript-viewer/internal/library"
	"github.com/snarg/transcript-viewer/internal/metrics"
	"github.com/snarg/transcript-viewer/internal/mqttclient"
	"github.com/snarg/transcript-viewer/internal/storage"
	"github.com/snarg/transcript-viewer/internal/viewer"
)

var version = "dev"

func main() {
	startTime := time.Now()

	var overrides config.Overrides
	flag.StringVar(&overrides.EnvFile, "env-file", "", "path to .env file (default .env)")
	flag.StringVar(&overrides.HTTPAddr, "listen", "", "HTTP listen address (overrides HTTP_ADDR)")
	flag.StringVar(&overrides.LogLevel, "log-level", "", "log level (overrides LOG_LEVEL)")
	flag.StringVar(&overrides.MediaDir, "media-dir", "", "media directory (overrides MEDIA_DIR)")
	flag.StringVar(&overrides.DatabaseURL, "database-url", "", "Postgres URL (overrides DATABASE_URL)")
	flag.StringVar(&overrides.MQTTBrokerURL, "mqtt-url", "", "MQTT broker URL (overrides MQTT_BROKER_URL)")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version)
		return
	}

	// Config
	cfg, err := config.Load(overrides)
	if err != nil {
		early := zerolog.New(os.Stderr).With().Timestamp().Logger()
		early.Fatal().Err(err).Msg("failed to load config")
	}

	// Logger
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log := zerolog.New(os.Stdout).With().Timestamp().Logger().Level(level)
	log.Info().Str("version", version).Msg("transcript-viewer starting")

	// Context for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Media storage and catalog
	storeLog := log.With().Str("component", "storage").Logger()
	store, err := storage.New(cfg.S3, cfg.MediaDir, storeLog)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize media storage")
	}
	libLog := log.With().Str("component", "library").Logger()
	lib := library.New(store, cfg.ManifestKey, libLog)
	if files, err := lib.List(ctx); err != nil {
		log.Warn().Err(err).Str("manifest", cfg.ManifestKey).Msg("media catalog not readable yet")
	} else {
		log.Info().Int("entries", len(files)).Str("storage", store.Type()).Msg("media catalog loaded")
	}

	var watcher *library.Watcher
	if local, ok := store.(*storage.LocalStore); ok && cfg.WatchMedia {
		watcher = library.NewWatcher(lib, local.Dir(), log.With().Str("component", "watcher").Logger())
		if err := watcher.Start(); err != nil {
			log.Warn().Err(err).Msg("media watcher disabled")
			watcher = nil
		} else {
			defer watcher.Stop()
		}
	}

	// Database (optional)
	var db *database.DB
	var buckets viewer.BucketStore = viewer.NewMemoryBucketStore()
	if cfg.DatabaseURL != "" {
		dbLog := log.With().Str("component", "database").Logger()
		db, err = database.Connect(ctx, cfg.DatabaseURL, dbLog)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer db.Close()
		if err := db.Migrate(ctx); err != nil {
			log.Fatal().Err(err).Msg("database migration failed")
		}
		buckets = db
	}

	// Sessions
	bus := viewer.NewEventBus(256)
	mgr := viewer.NewManager(lib, buckets, bus, viewer.Options{
		WordsBefore: cfg.WordsBefore,
		WordsAfter:  cfg.WordsAfter,
		SessionTTL:  cfg.SessionTTL,
	}, log.With().Str("component", "viewer").Logger())
	mgr.StartReaper(ctx, time.Minute)

	// Metrics
	var pool *pgxpool.Pool
	if db != nil {
		pool = db.Pool
	}
	prometheus.MustRegister(metrics.NewCollector(pool, mgr))

	// MQTT (optional)
	var mqtt *mqttclient.Client
	if cfg.MQTTBrokerURL != "" {
		mqttLog := log.With().Str("component", "mqtt").Logger()
		mqtt, err = mqttclient.Connect(mqttclient.Options{
			BrokerURL:   cfg.MQTTBrokerURL,
			ClientID:    cfg.MQTTClientID,
			TopicPrefix: cfg.MQTTTopicPrefix,
			Username:    cfg.MQTTUsername,
			Password:    cfg.MQTTPassword,
			Log:         mqttLog,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to mqtt broker")
		}
		defer mqtt.Close()
		mqtt.SetMessageHandler(mqttclient.TickHandler(cfg.MQTTTopicPrefix, mgr, mqtt, mqttLog))
	}

	// Web UI
	webFiles, err := fs.Sub(transcriptviewer.WebFiles, "web")
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load embedded web files")
	}

	// HTTP Server
	httpLog := log.With().Str("component", "http").Logger()
	srv := api.NewServer(api.ServerOptions{
		Config:    cfg,
		Manager:   mgr,
		DB:        db,
		MQTT:      mqtt,
		Watcher:   watcher,
		WebFiles:  webFiles,
		Version:   version,
		StartTime: startTime,
		Log:       httpLog,
	})

	// Start HTTP server in background
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	// Wait for shutdown signal or server error
	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("http server error")
		}
	}

	// Graceful shutdown with 10s timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http server shutdown error")
	}

	log.Info().Msg("transcript-viewer stopped")
}
