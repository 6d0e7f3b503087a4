// Command folio-server runs the folio editor HTTP API for one workspace.
package main

import (
	"flag"
	"log/slog"
	"os"

	"github.com/kilupskalvis/folio/internal/config"
	"github.com/kilupskalvis/folio/internal/core"
	"github.com/kilupskalvis/folio/internal/server"
	"github.com/kilupskalvis/folio/internal/store"
)

func main() {
	workspace := flag.String("workspace", envOrDefault("FOLIO_WORKSPACE", config.FolioDir), "Path to the .folio directory")
	listen := flag.String("listen", os.Getenv("FOLIO_LISTEN"), "Listen address (default from config)")
	logLevel := flag.String("log-level", envOrDefault("FOLIO_LOG_LEVEL", "info"), "Log level (debug, info, warn, error)")
	logFormat := flag.String("log-format", envOrDefault("FOLIO_LOG_FORMAT", "json"), "Log format (json, text)")
	tlsCert := flag.String("tls-cert", os.Getenv("FOLIO_TLS_CERT"), "TLS certificate file")
	tlsKey := flag.String("tls-key", os.Getenv("FOLIO_TLS_KEY"), "TLS key file")
	webhookURLs := flag.String("webhook-urls", os.Getenv("FOLIO_WEBHOOK_URLS"), "Comma-separated webhook URLs to notify on publish")
	flag.Parse()

	// Setup logger
	var level slog.Level
	switch *logLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	var handler slog.Handler
	opts := &slog.HandlerOptions{Level: level}
	if *logFormat == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	logger := slog.New(handler)

	cfg, err := config.LoadFrom(*workspace)
	if err != nil {
		logger.Error("failed to load workspace", "error", err, "path", *workspace)
		os.Exit(1)
	}

	st, err := store.Open(cfg.StorageBackend, cfg.DatabasePath(), store.Options{QuotaBytes: cfg.Storage.QuotaBytes})
	if err != nil {
		logger.Error("failed to open store", "error", err, "path", cfg.DatabasePath())
		os.Exit(1)
	}
	defer st.Close()

	scfg, err := server.ConfigFrom(cfg, *webhookURLs)
	if err != nil {
		logger.Error("invalid server config", "error", err)
		os.Exit(1)
	}
	if scfg.AdminPasswordHash == "" {
		logger.Warn("no owner password configured, editing endpoints are disabled", "env", config.AdminPassEnv)
	}
	if len(scfg.WebhookURLs) > 0 {
		logger.Info("webhooks configured", "count", len(scfg.WebhookURLs))
	}

	addr := *listen
	if addr == "" {
		addr = cfg.Server.Listen
	}

	srv := server.New(core.NewWorkspace(cfg, st, logger), scfg, logger)
	defer srv.Close()

	if err := server.ListenAndServe(srv, addr, *tlsCert, *tlsKey); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// envOrDefault returns the value of the environment variable key, or defaultVal if unset.
func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}
