package app

import (
	"context"
	"fmt"

	"github.com/semmidev/phylax-mongo/internal/adapter/archiver"
	"github.com/semmidev/phylax-mongo/internal/adapter/database"
	"github.com/semmidev/phylax-mongo/internal/adapter/notifier"
	"github.com/semmidev/phylax-mongo/internal/adapter/staging"
	"github.com/semmidev/phylax-mongo/internal/adapter/storage"
	"github.com/semmidev/phylax-mongo/internal/config"
	"github.com/semmidev/phylax-mongo/internal/domain"
	"github.com/semmidev/phylax-mongo/internal/infrastructure/logger"
	"github.com/semmidev/phylax-mongo/internal/infrastructure/scheduler"
	"github.com/semmidev/phylax-mongo/internal/usecase"
)

type App struct {
	config *config.Config
	logger *logger.Logger
	backup *usecase.Backup
}

func New(ctx context.Context, cfg *config.Config) (*App, error) {
	log, err := logger.New(cfg.App.LogLevel, cfg.App.LogFile, cfg.App.Environment)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	store, destination, err := initializeStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	log.Infof("✓ Storage backend: %s", destination)

	exporter, err := database.New(cfg.Export.Engine, cfg.Export.Command, cfg.Export.Options, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize exporter: %w", err)
	}

	arch, err := archiver.New(cfg.Backup.Format)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize archiver: %w", err)
	}

	var sched scheduler.Schedule
	if cfg.Backup.Schedule != "" {
		sched, err = scheduler.Parse(cfg.Backup.Schedule)
		if err != nil {
			return nil, err
		}
	}

	backup := usecase.NewBackup(usecase.Components{
		Staging:   staging.New(cfg.Backup.StagingDir),
		Exporter:  exporter,
		Archiver:  arch,
		Store:     store,
		Retention: usecase.NewRetention(store, log, cfg.Backup.Retain),
		Notifier:  initializeNotifier(cfg, log),
		Logger:    log,
	}, usecase.Options{
		Label:                logger.Label(cfg.App.Environment),
		Destination:          destination,
		Prefix:               cfg.Backup.Prefix,
		Filename:             cfg.Backup.Filename,
		DateFormat:           cfg.Backup.DateFormat,
		StorageClass:         cfg.Storage.StorageClass,
		ServerSideEncryption: cfg.Storage.ServerSideEncryption,
		UniqueSuffix:         cfg.Backup.UniqueSuffix,
		CleanupStaging:       cfg.Backup.CleanupStaging,
		NotifyTimeout:        cfg.Notify.Timeout,
		Schedule:             sched,
	})

	return &App{
		config: cfg,
		logger: log,
		backup: backup,
	}, nil
}

func initializeStore(ctx context.Context, cfg *config.Config) (domain.ObjectStore, string, error) {
	switch cfg.Storage.Backend {
	case "s3":
		s, err := storage.NewS3(ctx, &cfg.Storage)
		if err != nil {
			return nil, "", fmt.Errorf("failed to initialize S3: %w", err)
		}
		return s, fmt.Sprintf("S3 bucket '%s'", cfg.Storage.Bucket), nil

	case "gdrive":
		s, err := storage.NewGDrive(ctx, &cfg.Storage)
		if err != nil {
			return nil, "", fmt.Errorf("failed to initialize Google Drive: %w", err)
		}
		return s, fmt.Sprintf("Google Drive folder '%s'", cfg.Storage.FolderID), nil

	case "local":
		s, err := storage.NewLocal(cfg.Storage.LocalPath)
		if err != nil {
			return nil, "", fmt.Errorf("failed to initialize local storage: %w", err)
		}
		return s, fmt.Sprintf("local directory '%s'", cfg.Storage.LocalPath), nil

	default:
		return nil, "", fmt.Errorf("unknown storage backend: %s", cfg.Storage.Backend)
	}
}

// initializeNotifier returns nil when no channel is usable. A channel that
// fails to initialize is skipped; notifications never block a backup.
func initializeNotifier(cfg *config.Config, log *logger.Logger) domain.Notifier {
	var channels notifier.Multi

	if cfg.Notify.WebhookURL != "" {
		channels = append(channels, notifier.NewWebhook(cfg.Notify.WebhookURL, cfg.Notify.Timeout))
		log.Infof("✓ Webhook notifications enabled")
	}

	if cfg.Notify.TelegramToken != "" {
		tg, err := notifier.NewTelegram(cfg.Notify.TelegramToken, cfg.Notify.TelegramChatID)
		if err != nil {
			log.Errorf("Failed to initialize Telegram: %v", err)
		} else {
			channels = append(channels, tg)
			log.Infof("✓ Telegram notifications enabled")
		}
	}

	switch len(channels) {
	case 0:
		log.Warnf("No notification channel is configured, notifications are disabled")
		return nil
	case 1:
		return channels[0]
	default:
		return channels
	}
}

// Run executes a single backup under the configured deadline.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, a.config.Backup.Timeout)
	defer cancel()

	_, err := a.backup.Execute(ctx)
	return err
}

func (a *App) Shutdown() {
	a.logger.Close()
}
