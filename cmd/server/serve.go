package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/iliyamo/plant-maintenance/internal/config"
	"github.com/iliyamo/plant-maintenance/internal/database"
	"github.com/iliyamo/plant-maintenance/internal/mailer"
	"github.com/iliyamo/plant-maintenance/internal/queue"
	"github.com/iliyamo/plant-maintenance/internal/router"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long:  "Start the HTTP API. The schema is applied before the listener opens.",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	log, err := newLogger(cfg)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	weak, err := config.ValidateSecret(cfg.JWTSecret, cfg.IsProduction())
	if err != nil {
		return err
	}
	if weak {
		log.Warn("JWT_SECRET is a well-known sample value, change it before deploying")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()
	if err := database.Migrate(ctx, db); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	rdb := config.NewRedisClient(ctx)
	if rdb != nil {
		defer rdb.Close()
	} else {
		log.Info("redis not configured, rate limiting and caching disabled")
	}

	sender, closeSender, err := selectSender(cfg, log)
	if err != nil {
		return err
	}
	defer closeSender()

	deps := router.Deps{Cfg: cfg, DB: db, Redis: rdb, Notifier: mailer.NewDispatcher(sender), Log: log}
	e := router.New(deps, router.NewHandlers(deps))

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", ":"+cfg.Port), zap.String("env", cfg.Env))
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

// selectSender prefers the broker, then a direct SMTP relay, then the log.
// Production refuses to fall back to the log.
func selectSender(cfg config.Config, log *zap.Logger) (mailer.Sender, func(), error) {
	switch {
	case cfg.AMQPURL != "":
		log.Info("emails are published to the queue", zap.String("queue", queue.EmailQueue))
		p := queue.NewPublisher(cfg.AMQPURL)
		return p, func() { _ = p.Close() }, nil
	case cfg.SMTP.Enabled():
		s, err := mailer.NewSMTPSender(cfg.SMTP)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to configure smtp: %w", err)
		}
		log.Info("emails are sent over smtp", zap.String("host", cfg.SMTP.Host))
		return s, func() {}, nil
	}
	if cfg.IsProduction() {
		return nil, nil, errors.New("RABBITMQ_URL or SMTP_HOST and MAIL_FROM are required in production")
	}
	log.Warn("no mail relay configured, emails are only logged")
	return mailer.LogSender{Log: log, ShowSecrets: true}, func() {}, nil
}
