package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"podium/internal/audit"
	"podium/internal/autosave"
	"podium/internal/command"
	commandhandler "podium/internal/command/handler"
	contenthandler "podium/internal/content/handler"
	contentmetrics "podium/internal/content/metrics"
	contentservice "podium/internal/content/service"
	contentstore "podium/internal/content/store"
	"podium/internal/platform/config"
	"podium/internal/platform/database"
	"podium/internal/platform/httpserver"
	"podium/internal/platform/logger"
	"podium/internal/platform/redis"
	"podium/internal/platform/token"
	"podium/internal/registration"
	registrationhandler "podium/internal/registration/handler"
	regmetrics "podium/internal/registration/metrics"
	httptransport "podium/internal/transport/http"
)

// main wires dependencies and owns the process lifecycle. Business logic lives
// in the internal services.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Storage. Empty DATABASE_URL keeps everything in memory for local runs.
	var (
		resources     contentstore.Store
		registrations registration.Store
	)
	if cfg.DatabaseURL != "" {
		db, err := database.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()
		resources = contentstore.NewPostgres(db)
		registrations = registration.NewPostgres(db)
	} else {
		log.Warn("DATABASE_URL not set, using in-memory stores")
		resources = contentstore.NewInMemory()
		registrations = registration.NewInMemoryStore()
	}

	cMetrics := contentmetrics.New()
	rMetrics := regmetrics.New()

	redisClient, err := redis.New(cfg.RedisURL)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		resources = contentstore.NewCached(resources, redisClient.Client, log,
			contentstore.WithCacheMetrics(cMetrics.CacheHits.Inc, cMetrics.CacheMisses.Inc),
		)
	}

	// Audit pipeline: non-blocking recorder, single drain worker, Kafka sink
	// when brokers are configured.
	recorder := audit.NewRecorder(log, 256)
	var sink audit.Sink
	if len(cfg.KafkaBrokers) > 0 {
		kafkaSink, err := audit.NewKafkaSink(cfg.KafkaBrokers, cfg.KafkaAuditTopic)
		if err != nil {
			return err
		}
		defer kafkaSink.Close()
		sink = kafkaSink
	} else {
		log.Warn("KAFKA_BROKERS not set, audit trail stays in memory")
		sink = audit.NewMemorySink()
	}
	worker := audit.NewWorker(sink, recorder.Inbox(), log)

	contentSvc := contentservice.New(resources, log,
		contentservice.WithMetrics(cMetrics),
		contentservice.WithAuditRecorder(recorder),
	)
	registrationSvc := registration.NewService(registrations, resources, log,
		registration.WithMetrics(rMetrics),
		registration.WithAuditRecorder(recorder),
	)

	coordinator := autosave.New(contentSvc.SaveDraft, log,
		autosave.WithWindow(cfg.AutosaveWindow),
		autosave.WithFailureCounter(cMetrics.AutosaveFailures.Inc),
	)
	defer coordinator.Close()

	tokens := token.NewService(cfg.JWTSigningKey, "podium", "podium-api")
	dispatcher := command.NewDispatcher(contentSvc, registrationSvc, coordinator, log)

	router := httptransport.NewRouter(httptransport.Deps{
		Logger:          log,
		TokenValidator:  tokens,
		DevelopmentMode: cfg.DevMode,
		Content:         contenthandler.New(contentSvc, coordinator),
		Registrations:   registrationhandler.New(registrationSvc),
		Commands:        commandhandler.New(dispatcher),
		Health: func(ctx context.Context) error {
			if redisClient != nil {
				return redisClient.Health(ctx)
			}
			return nil
		},
	})

	srv := httpserver.New(cfg.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := worker.Run(gctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		log.Info("starting podium server", "addr", cfg.Addr, "dev_mode", cfg.DevMode)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
