package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/kilupskalvis/folio/internal/config"
	"golang.org/x/crypto/bcrypt"
)

// ConfigFrom builds the server settings from the workspace config.
// webhookURLs is a comma-separated list added to the configured ones. When no
// password hash is configured, the FOLIO_ADMIN_PASSWORD environment variable
// is hashed instead.
func ConfigFrom(cfg *config.Config, webhookURLs string) (*Config, error) {
	scfg := DefaultConfig()
	scfg.AdminPasswordHash = cfg.Server.AdminPasswordHash
	if len(cfg.Server.AllowedOrigins) > 0 {
		scfg.AllowedOrigins = cfg.Server.AllowedOrigins
	}
	scfg.WebhookURLs = append(scfg.WebhookURLs, cfg.Server.WebhookURLs...)
	for _, u := range strings.Split(webhookURLs, ",") {
		if u = strings.TrimSpace(u); u != "" {
			scfg.WebhookURLs = append(scfg.WebhookURLs, u)
		}
	}

	if scfg.AdminPasswordHash == "" {
		if pw := os.Getenv(config.AdminPassEnv); pw != "" {
			hash, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
			if err != nil {
				return nil, fmt.Errorf("hash %s: %w", config.AdminPassEnv, err)
			}
			scfg.AdminPasswordHash = string(hash)
		}
	}
	return scfg, nil
}

// ListenAndServe serves s on listen until SIGINT or SIGTERM, then shuts down
// gracefully. TLS is used when both certificate files are given.
func ListenAndServe(s *Server, listen, tlsCert, tlsKey string) error {
	srv := &http.Server{
		Addr:              listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      2 * time.Minute,
		IdleTimeout:       120 * time.Second,
		BaseContext:       func(_ net.Listener) context.Context { return context.Background() },
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(done)

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("starting folio server", "listen", listen, "tls", tlsCert != "")
		var err error
		if tlsCert != "" && tlsKey != "" {
			err = srv.ListenAndServeTLS(tlsCert, tlsKey)
		} else {
			err = srv.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			errc <- err
		}
	}()

	select {
	case err := <-errc:
		return err
	case <-done:
	}
	s.logger.Info("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		s.logger.Error("shutdown error", "error", err)
	}
	s.logger.Info("server stopped")
	return nil
}
