package main

import (
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/iliyamo/plant-maintenance/internal/config"
	"github.com/iliyamo/plant-maintenance/internal/mailer"
	"github.com/iliyamo/plant-maintenance/internal/queue"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Deliver queued emails",
	Long:  "Consume the email queue and deliver each message through the SMTP relay.",
	RunE:  runWorker,
}

func init() {
	rootCmd.AddCommand(workerCmd)
}

func runWorker(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	if cfg.AMQPURL == "" {
		return errors.New("RABBITMQ_URL is required to run the worker")
	}
	log, err := newLogger(cfg)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	var sender mailer.Sender = mailer.LogSender{Log: log, ShowSecrets: !cfg.IsProduction()}
	switch {
	case cfg.SMTP.Enabled():
		s, err := mailer.NewSMTPSender(cfg.SMTP)
		if err != nil {
			return fmt.Errorf("failed to configure smtp: %w", err)
		}
		sender = s
	case cfg.IsProduction():
		return errors.New("SMTP_HOST and MAIL_FROM are required to run the worker in production")
	default:
		log.Warn("SMTP not configured, queued emails are only logged")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info("worker started", zap.String("queue", queue.EmailQueue))
	return queue.NewConsumer(cfg.AMQPURL, sender, log).Run(ctx)
}
