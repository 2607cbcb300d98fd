package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"apartment-tracker/config"
	"apartment-tracker/notify"
	"apartment-tracker/scraper"
	"apartment-tracker/scraper/berlinovo"
	"apartment-tracker/services"
	"apartment-tracker/storage"
	"apartment-tracker/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		utils.NewLogger().Error("Invalid configuration: %v", err)
		os.Exit(1)
	}
	logger := utils.NewLoggerTo(os.Stdout, utils.ParseLevel(cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("=== Apartment tracker starting ===")
	logger.Info("Config: url %s | fetch %s | store %s | interval %v | backoff %v",
		cfg.SearchURL, cfg.FetchMode, cfg.StoreBackend, cfg.CheckInterval, cfg.ErrorBackoff)

	store, err := newStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to open snapshot store: %v", err)
		os.Exit(1)
	}
	defer store.Close()

	matcher, err := services.NewMatcher(cfg.FilterMode, cfg.FilterPattern)
	if err != nil {
		logger.Error("Invalid filter: %v", err)
		os.Exit(1)
	}

	source := berlinovo.New(newFetcher(cfg, logger), berlinovo.Options{
		SearchURL:       cfg.SearchURL,
		BaseURL:         cfg.BaseURL,
		ResultsSelector: cfg.ResultsSelector,
	}, logger)

	tracker := services.NewTracker(services.TrackerConfig{
		CheckInterval:           cfg.CheckInterval,
		ErrorBackoff:            cfg.ErrorBackoff,
		FetchTimeout:            cfg.FetchTimeout,
		NotifyTimeout:           cfg.NotifyTimeout,
		SkipStartupNotification: cfg.SkipStartupNotification,
	}, services.TrackerDeps{
		Source:   source,
		Store:    store,
		Matcher:  matcher,
		Notifier: newNotifier(cfg, logger),
		Cleaner:  services.NewCleaner(logger),
		Reporter: services.NewReporter(os.Stdout),
		Logger:   logger,
	})

	if err := tracker.Run(ctx); err != nil {
		logger.Error("Tracker stopped with error: %v", err)
		os.Exit(1)
	}
	logger.Info("=== Apartment tracker stopped ===")
}

func newStore(ctx context.Context, cfg *config.Config, logger *utils.Logger) (storage.SnapshotStore, error) {
	if cfg.StoreBackend == config.StoreBackendPostgres {
		return storage.NewPostgresStore(ctx, cfg.DSN(), logger)
	}
	return storage.NewJSONStore(cfg.StorePath)
}

func newFetcher(cfg *config.Config, logger *utils.Logger) scraper.Fetcher {
	if cfg.FetchMode == config.FetchModeBrowser {
		return scraper.NewBrowserFetcher(cfg.UserAgent, cfg.ChromeBin, logger)
	}
	return scraper.NewHTTPFetcher(cfg.UserAgent, cfg.FetchTimeout)
}

func newNotifier(cfg *config.Config, logger *utils.Logger) notify.Notifier {
	channels := []notify.Notifier{notify.NewLogNotifier(logger)}

	if cfg.TelegramEnabled() {
		channels = append(channels, notify.NewTelegram(cfg.TelegramAPIURL, cfg.TelegramBotToken, cfg.TelegramChatID, cfg.NotifyTimeout))
	} else {
		logger.Warn("Telegram credentials not set. Telegram notifications disabled.")
	}
	if cfg.EmailEnabled() {
		channels = append(channels, notify.NewEmail(notify.EmailConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUser,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
			To:       cfg.SMTPTo,
		}))
	}
	if cfg.DesktopNotifications {
		channels = append(channels, notify.NewDesktop())
	}

	logger.Info("Notification channels: %d", len(channels))
	return notify.NewMulti(logger, channels...)
}
