package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"

	"artikujt/internal/amqp"
	"artikujt/internal/backend"
	"artikujt/internal/cache"
	"artikujt/internal/cli"
	"artikujt/internal/config"
	apphttp "artikujt/internal/http"
	"artikujt/internal/loader"
	applog "artikujt/internal/log"
	"artikujt/internal/normalize"
	"artikujt/internal/services"
	"artikujt/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	cfg, logger := cli.LoadAndValidateConfig()

	schema, months, err := config.LoadSchema(cfg.SchemaFile)
	if err != nil {
		logger.Error("Failed to load schema file", applog.FieldError, err, "path", cfg.SchemaFile)
		os.Exit(1)
	}

	sourceCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid source configuration", applog.FieldError, err)
		os.Exit(1)
	}
	source, err := backend.NewFactory(logger).CreateSource(context.Background(), sourceCfg)
	if err != nil {
		logger.Error("Failed to initialize source", applog.FieldError, err, applog.FieldSource, cfg.DataSource)
		os.Exit(1)
	}
	if source.Cleanup != nil {
		defer func() {
			if err := source.Cleanup(); err != nil {
				logger.Warn("Source cleanup failed", applog.FieldError, err)
			}
		}()
	}

	opts := loader.DefaultOptions()
	opts.Timeout = cfg.FetchTimeout
	opts.MaxAttempts = cfg.FetchMaxAttempts
	opts.Backoff = cfg.FetchBackoff
	opts.TTL = cfg.CacheTTL
	l := loader.New(source.Fetcher, opts, logger)

	if cfg.CacheTTL > 0 {
		manager := cache.NewManager(logger.WithComponent(applog.ComponentCache).Logger)
		manager.Register(l.Cache())
		manager.StartCleanup(max(cfg.CacheTTL, time.Minute))
		defer manager.Stop()
	}

	svc := services.NewDashboardService(l, normalize.New(schema), months, source.Location, logger)

	srvOpts := apphttp.DefaultOptions(":" + cfg.Port)
	srvOpts.RefreshPerMinute = cfg.RefreshPerMinute
	srvOpts.TrustedProxies = cfg.TrustedProxies
	srvOpts.Loader = l
	srv := apphttp.NewServer(srvOpts, svc, logger)
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, done := cli.GracefulShutdown(context.Background(), logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", applog.FieldError, err)
		}
	})

	if cfg.AMQPURL != "" {
		origin := uuid.NewString()
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, origin)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without refresh broadcast",
				applog.FieldError, err)
		} else {
			defer client.Close()
			svc.SetNotifier(client)

			w := worker.NewRefreshWorker(l, origin, logger)
			go func() {
				if err := w.Run(ctx, client); err != nil {
					logger.Error("Refresh worker stopped", applog.FieldError, err)
				}
			}()
			logger.Info("Refresh broadcast enabled",
				"exchange", cfg.AMQPExchange,
				applog.FieldInstanceID, origin)
		}
	}

	// Warm the cache so the first visitor does not wait on the fetch.
	go func() {
		if err := svc.Ready(ctx); err != nil {
			logger.Warn("Initial load failed", applog.FieldError, err, applog.FieldOperation, applog.OpStartup)
		}
	}()

	logger.Info("Starting artikujt server",
		"port", cfg.Port,
		applog.FieldSource, cfg.DataSource,
		"cache_ttl", cfg.CacheTTL.String())
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", applog.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	<-done
	logger.Info("Server stopped gracefully")
}
