package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joshsymonds/chronoreply/internal/config"
	"github.com/joshsymonds/chronoreply/internal/credential"
	"github.com/joshsymonds/chronoreply/internal/notify"
	"github.com/joshsymonds/chronoreply/internal/rate"
	"github.com/joshsymonds/chronoreply/internal/runtime"
	"github.com/joshsymonds/chronoreply/internal/schedule"
	"github.com/joshsymonds/chronoreply/internal/triage"
)

func main() {
	if err := run(); err != nil {
		runtime.DefaultLogger(slog.LevelInfo).Error("chronoreply failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load("")
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := runtime.DefaultLogger(cfg.LogLevel)

	oauthCfg := cfg.OAuth2(runtime.Scopes)
	store := credential.NewFileStore(cfg.TokenFile)
	auth := credential.Chain{
		credential.Cached{Store: store},
		credential.Interactive{Config: oauthCfg, Store: store, In: os.Stdin, Out: os.Stdout},
	}

	var limiter rate.Limiter
	if cfg.RPS > 0 {
		limiter = rate.NewTokenBucket(cfg.RPS)
	}
	notifier := notify.NewMailer(cfg.SMTPUser, notify.NewGmailSender(cfg.SMTPUser, cfg.SMTPPass), logger)

	task := func(ctx context.Context) error {
		tok, err := auth.Credential(ctx)
		if err != nil {
			return fmt.Errorf("authorize: %w", err)
		}
		client, err := runtime.NewGmailClient(ctx, oauthCfg, tok)
		if err != nil {
			return fmt.Errorf("authorize: %w", err)
		}
		triage.NewService(client, notifier, limiter, logger).ProcessUnread(ctx)
		return nil
	}

	err = schedule.New(task, logger).Run(ctx)
	if errors.Is(err, context.Canceled) {
		logger.Info("shutting down")
		return nil
	}
	return err
}
