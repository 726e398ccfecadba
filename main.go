package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/yourorg/cma-api/internal/audit"
	"github.com/yourorg/cma-api/internal/comps"
	"github.com/yourorg/cma-api/internal/env"
	"github.com/yourorg/cma-api/internal/events"
	"github.com/yourorg/cma-api/internal/logger"
	"github.com/yourorg/cma-api/internal/redisx"
	"github.com/yourorg/cma-api/internal/store"
	"github.com/yourorg/cma-api/mls"
)

func main() {
	if err := run(); err != nil {
		slog.Error("cma-api stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	if err := env.Load(); err != nil {
		return fmt.Errorf("load .env: %w", err)
	}
	log, closeLog, err := logger.New(logger.Config{
		Level:         env.Get("LOG_LEVEL", "info"),
		Format:        env.Get("LOG_FORMAT", "text"),
		FluentEnabled: env.GetBool("FLUENTBIT_ENABLED", false),
		FluentHost:    env.Get("FLUENTBIT_HOST", "localhost"),
		FluentPort:    env.GetInt("FLUENTBIT_PORT", 24224),
	})
	if err != nil {
		return err
	}
	defer closeLog()
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var quota mls.Quota
	if addr := env.Get("REDIS_ADDR", ""); addr != "" {
		rc := redisx.New(addr, env.Get("REDIS_PASSWORD", ""), env.GetInt("REDIS_DB", 0))
		defer rc.Close()
		if err := rc.Ping(ctx); err != nil {
			log.Warn("redis unreachable, daily quota fails open", "addr", addr, "error", err)
		}
		quota = redisx.NewDailyQuota(rc.Rdb, "", env.GetInt("MLS_DAILY_LIMIT", 0))
	}

	client := mls.NewClient(mls.Config{
		BaseURL:       env.Get("MLS_BASE_URL", ""),
		APIKey:        env.Get("MLS_API_KEY", ""),
		APISecret:     env.Get("MLS_API_SECRET", ""),
		RatePerSecond: env.GetFloat("MLS_RATE_PER_SEC", 5),
		Quota:         quota,
		Logger:        log,
	})
	if !client.Configured() {
		log.Warn("MLS_API_KEY not set, comparables searches will return 503")
	}

	scoring, err := comps.LoadScoringConfig(env.Get("SCORING_CONFIG", ""))
	if err != nil {
		return err
	}
	engine := comps.NewEngine(client, comps.Options{
		Scoring:          &scoring,
		Timeout:          env.GetDuration("SEARCH_TIMEOUT", 20*time.Second),
		ParallelStatuses: env.GetBool("PARALLEL_STATUSES", false),
	})

	pubs := events.Multi{}
	if dsn := env.Get("PG_DSN", ""); dsn != "" {
		st, err := store.Open(dsn)
		if err != nil {
			return fmt.Errorf("open postgres: %w", err)
		}
		defer st.Close()
		if err := st.Ping(ctx); err != nil {
			return fmt.Errorf("ping postgres: %w", err)
		}
		if err := st.Migrate(ctx); err != nil {
			return err
		}
		bus := events.NewInMemory(512)
		rec := &audit.Recorder{Source: bus.Subscribe(), Store: st, Logger: log}
		go rec.Run(ctx)
		pubs = append(pubs, bus)
	}
	if url := env.Get("RABBITMQ_URL", ""); url != "" {
		amqpPub, err := events.DialAMQP(url, env.Get("EVENTS_EXCHANGE", "cma.events"))
		if err != nil {
			log.Warn("rabbitmq unavailable, search events stay local", "error", err)
		} else {
			defer amqpPub.Close()
			pubs = append(pubs, amqpPub)
		}
	}

	router := BuildRouter(RouterDeps{
		Engine:      engine,
		Events:      pubs,
		Logger:      log,
		CORSOrigins: env.GetList("CORS_ORIGINS", []string{"*"}),
	})

	port := env.GetInt("PORT", 4002)
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info("cma-api listening", "port", port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 25*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
