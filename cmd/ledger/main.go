package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"datalens/internal/backend"
	"datalens/internal/cli"
	"datalens/internal/ledger"
	"datalens/internal/log"
	"datalens/internal/middleware/ratelimit"
	"datalens/internal/middleware/security"
)

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), log.ComponentLedger)
	cfg := cli.LoadAndValidateConfig(logger)
	logger = cli.SetupLogger(cfg.LogLevel, log.ComponentLedger)

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}

	ctx, stop := cli.SignalContext()
	defer stop()

	initCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	result, err := backend.NewFactory(logger).CreateBackend(initCtx, backendCfg)
	cancel()
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err, log.FieldBackend, backendCfg.Type.String())
		os.Exit(1)
	}

	limiter := ratelimit.NewLimiter(ratelimit.DefaultConfig())
	router := ledger.NewRouter(result.Service, ledger.RouterConfig{
		Logger:   logger,
		Detector: security.NewDetector(logger),
		Limiter:  limiter,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.LedgerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 16,
	}

	logger.Info("Starting ledger", "port", cfg.LedgerPort, log.FieldBackend, backendCfg.Type.String())
	err = cli.Serve(ctx, logger, srv.Addr, srv,
		limiter.Stop,
		func() {
			if err := result.Cleanup(); err != nil {
				logger.Error("Backend cleanup failed", log.FieldError, err)
			}
		})
	if err != nil {
		os.Exit(1)
	}
}
