package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Houeta/yacht-watch/internal/config"
	"github.com/Houeta/yacht-watch/internal/notify"
	"github.com/Houeta/yacht-watch/internal/repository"
	"github.com/Houeta/yacht-watch/internal/repository/drive"
	"github.com/Houeta/yacht-watch/internal/repository/sqlite"
	"google.golang.org/api/option"
)

// buildStore opens the configured snapshot store. The returned func releases it.
func buildStore(
	ctx context.Context,
	log *slog.Logger,
	cfg config.Store,
) (repository.SnapshotStore, func(), error) {
	switch cfg.Backend {
	case config.BackendDrive:
		store, err := drive.NewRepository(ctx, log, cfg.DriveFolderID, option.WithCredentialsFile(cfg.CredentialsFile))
		if err != nil {
			return nil, nil, err
		}
		return store, func() {}, nil
	case config.BackendSQLite:
		store, err := sqlite.NewRepository(ctx, log, cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return store, func() {
			if err := store.Close(); err != nil {
				log.WarnContext(ctx, "Failed to close database", "error", err)
			}
		}, nil
	default:
		return nil, nil, fmt.Errorf("%w: %q", config.ErrUnknownBackend, cfg.Backend)
	}
}

func buildNotifier(log *slog.Logger, cfg *config.Config) (notify.Notifier, error) {
	switch cfg.Notifier {
	case config.NotifierSMTP:
		return notify.NewSMTPNotifier(log, notify.SMTPConfig{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
		}), nil
	case config.NotifierResend:
		return notify.NewResendNotifier(log, cfg.Resend.APIKey), nil
	case config.NotifierTelegram:
		n, err := notify.NewTelegramNotifier(log, cfg.Tg.Token, cfg.Tg.ChatIDs)
		if err != nil {
			return nil, err
		}
		return n, nil
	case config.NotifierNoop:
		return notify.NewNoopNotifier(log), nil
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrUnknownNotifier, cfg.Notifier)
	}
}
