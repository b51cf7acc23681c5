package main

import (
	"net/http"
	"os"

	"datalens/internal/api"
	"datalens/internal/cli"
	apphttp "datalens/internal/http"
	"datalens/internal/log"
	"datalens/internal/middleware/ratelimit"
)

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), log.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)
	logger = cli.SetupLogger(cfg.LogLevel, log.ComponentApp)

	client := api.NewClient(cfg.LedgerURL, &http.Client{Timeout: cfg.RequestTimeout})

	srv, err := apphttp.NewServer(apphttp.Options{
		Addr:        ":" + cfg.Port,
		Backend:     client,
		Logger:      logger,
		SessionTTL:  cfg.SessionTTL,
		MaxSessions: cfg.MaxSessions,
		RateLimit:   ratelimit.DefaultConfig(),
	})
	if err != nil {
		logger.Error("Failed to build server", log.FieldError, err)
		os.Exit(1)
	}

	ctx, stop := cli.SignalContext()
	defer stop()

	logger.Info("Starting datalens",
		"port", cfg.Port,
		"ledger_url", client.BaseURL(),
		"session_ttl", cfg.SessionTTL.String())
	if err := cli.Serve(ctx, logger, srv.Addr, srv); err != nil {
		os.Exit(1)
	}
}
