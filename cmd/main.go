package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"interview-assistant/internal/ai"
	"interview-assistant/internal/analytics"
	"interview-assistant/internal/api/handler"
	"interview-assistant/internal/api/router"
	"interview-assistant/internal/config"
	"interview-assistant/internal/extractor"
	"interview-assistant/internal/logger"
	"interview-assistant/internal/outbox"
	"interview-assistant/internal/parser"
	"interview-assistant/internal/settings"
	"interview-assistant/internal/storage"
	"interview-assistant/internal/tracing"

	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/hlog"
	hertzadapter "github.com/hertz-contrib/logger/zerolog"
	hertztracing "github.com/hertz-contrib/obs-opentelemetry/tracing"
	"github.com/spf13/pflag"
)

var version = "1.0.0" //nolint:gochecknoglobals

func main() {
	var configPath string
	pflag.StringVarP(&configPath, "config", "c", "", "Path to config file (default: search config.yaml)")
	pflag.Parse()

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("load config")
	}
	initLogger(cfg.Logger)
	defer logger.Close()
	hlog.Info("config loaded")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracer, err := tracing.Setup(ctx, cfg.Tracing, version)
	if err != nil {
		hlog.Fatalf("init tracing: %v", err)
	}

	store, err := storage.NewStorage(ctx, cfg)
	if err != nil {
		hlog.Fatalf("init storage: %v", err)
	}

	// nil pointers must not leak into the interfaces below
	var (
		cache   storage.Cache
		dedup   storage.UploadDeduper
		objects storage.ObjectStorage
		events  storage.MessageQueue
	)
	if store.Redis != nil {
		cache, dedup = store.Redis, store.Redis
	}
	if store.MinIO != nil {
		objects = store.MinIO
	}

	analyticsSvc := analytics.NewService(store.Interviews, store.Candidates, cache, parseDuration(cfg.Analytics.CacheTTL, 0))

	var relay *outbox.MessageRelay
	if store.RabbitMQ != nil {
		events = store.RabbitMQ
		if err := outbox.SetupTopology(store.RabbitMQ, cfg.RabbitMQ); err != nil {
			hlog.Fatalf("declare rabbitmq topology: %v", err)
		}
		relay = outbox.NewMessageRelay(store.MySQL.DB(), store.RabbitMQ, parseDuration(cfg.RabbitMQ.RelayIntervals["outbox_poll"], outbox.DefaultPollingInterval))
		relay.Start(ctx)
		if err := outbox.StartAnalyticsConsumer(ctx, store.RabbitMQ, cfg.RabbitMQ, analyticsSvc); err != nil {
			hlog.Warnf("analytics consumer not started: %v", err)
		}
	} else {
		hlog.Warn("rabbitmq unavailable, domain events stay local")
	}

	converter, err := parser.NewConverter(ctx, cfg.Parser)
	if err != nil {
		hlog.Fatalf("init document converter: %v", err)
	}
	ext, err := extractor.FromConfig(cfg.Extraction)
	if err != nil {
		hlog.Fatalf("init extractor: %v", err)
	}

	assistant := ai.New(cfg.AI, cache)
	if !assistant.Configured() {
		hlog.Warn("ai api key not set, using mock responses")
	}

	uploads := handler.NewUploadHandler(handler.UploadDeps{
		Config:        cfg.Upload,
		MaxInputChars: cfg.Extraction.MaxInputChars,
		Converter:     converter,
		Extractor:     ext,
		Objects:       objects,
		Dedup:         dedup,
		Interviews:    store.Interviews,
		Events:        events,
		Exchange:      cfg.RabbitMQ.EventsExchange,
		PresignExpiry: time.Duration(cfg.MinIO.PresignExpiryMinutes) * time.Minute,
	})

	tracer, tracerCfg := hertztracing.NewServerTracer()
	// each request may carry MaxFiles files of up to MaxFileSizeMB, plus form overhead
	maxBody := (cfg.Upload.MaxFileSizeMB*cfg.Upload.MaxFiles + 1) << 20
	h := server.New(
		server.WithHostPorts(cfg.Server.Address),
		server.WithHandleMethodNotAllowed(true),
		server.WithMaxRequestBodySize(maxBody),
		tracer,
	)
	h.Use(hertztracing.ServerMiddleware(tracerCfg), handler.AccessLog())

	router.RegisterRoutes(h, router.Handlers{
		Candidates: handler.NewCandidateHandler(store.Candidates),
		Interviews: handler.NewInterviewHandler(store.Interviews),
		AI:         handler.NewAIHandler(assistant),
		Analytics:  handler.NewAnalyticsHandler(analyticsSvc),
		Settings:   handler.NewSettingsHandler(settings.NewService(store.Settings, assistant.Configured()), assistant),
		Uploads:    uploads,
	})

	hlog.Infof("http server listening on %s", cfg.Server.Address)
	go func() {
		if err := h.Run(); err != nil {
			hlog.Fatalf("http server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	hlog.Info("shutting down")

	if relay != nil {
		relay.Stop()
	}
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), parseDuration(cfg.Server.ShutdownTimeout, 5*time.Second))
	defer cancelShutdown()
	if err := h.Shutdown(shutdownCtx); err != nil {
		hlog.Errorf("server shutdown: %v", err)
	}
	cancel()
	store.Close()
	if err := shutdownTracer(shutdownCtx); err != nil {
		hlog.Errorf("flush tracer: %v", err)
	}
	hlog.Info("bye")
}

// initLogger rebuilds the global zerolog logger and routes hlog through it.
func initLogger(cfg config.LoggerConfig) {
	if err := logger.Init(logger.Config{
		Level:        cfg.Level,
		Format:       cfg.Format,
		TimeFormat:   cfg.TimeFormat,
		ReportCaller: cfg.ReportCaller,
		File:         cfg.File,
	}); err != nil {
		logger.Fatal().Err(err).Msg("init logger")
	}
	hlog.SetLogger(hertzadapter.From(logger.Logger))
	if cfg.Level == "debug" {
		hlog.SetLevel(hlog.LevelDebug)
	} else {
		hlog.SetLevel(hlog.LevelInfo)
	}
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		hlog.Warnf("invalid duration %q, using %s", s, fallback)
		return fallback
	}
	return d
}
