package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/ytget/shizuku-bot/internal/afk"
	"github.com/ytget/shizuku-bot/internal/config"
	"github.com/ytget/shizuku-bot/internal/download"
	"github.com/ytget/shizuku-bot/internal/logger"
	"github.com/ytget/shizuku-bot/internal/messages"
	"github.com/ytget/shizuku-bot/internal/platform"
	"github.com/ytget/shizuku-bot/internal/session"
	"github.com/ytget/shizuku-bot/internal/telegram"
	"github.com/ytget/shizuku-bot/internal/transcode"
)

// Version is set during build via -ldflags "-X main.version=X.Y.Z"
var version = "dev"

func main() {
	settings, err := config.Load(config.ConfigPath(), config.DefaultEnvFile)
	if err != nil {
		logger.New(config.DefaultLogLevel).WithError(err).Fatal("Failed to load configuration")
	}

	log := logger.New(settings.Log.Level)
	log.WithField("version", version).Info("Shizuku bot starting")

	if err := config.CheckDependencies(); err != nil {
		log.WithError(err).Fatal("Missing required tools")
	}
	if err := platform.CreateDirectoryIfNotExists(settings.Download.OutputDir); err != nil {
		log.WithError(err).Fatal("Failed to ensure download directory")
	}

	texts := messages.NewLocalization()
	texts.SetLanguage(settings.Language)

	repo, err := afk.NewSQLiteRepository(settings.AFK.Database)
	if err != nil {
		log.WithError(err).Fatal("Failed to open AFK database")
	}
	defer repo.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := session.NewRegistry(settings.Download.SessionTTL)
	go registry.Run(ctx, settings.Download.SweepInterval, func(n int) {
		log.WithField("expired", n).Debug("Swept idle sessions")
	})

	enumerator := platform.NewYTDLPFormatService(settings.Download.CookiesFile)
	enumerator.SetTimeout(settings.Download.LookupTimeout)

	fetcher := platform.NewYTDLPFetcher(platform.FetcherOptions{
		OutputDir:   settings.Download.OutputDir,
		CookiesFile: settings.Download.CookiesFile,
		MaxSizeMB:   settings.Download.MaxSizeMB,
		Retries:     settings.FetchRetries(),
	}, transcode.NewService(log), log)

	bot, err := telegram.New(telegram.Options{
		Token:       settings.Telegram.Token,
		PollTimeout: settings.Telegram.PollTimeout,
	}, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to Telegram")
	}

	manager := download.NewManager(registry, bot.Transport(), enumerator, fetcher, texts, log, download.Options{
		MaxParallel:   settings.Download.MaxParallel,
		LookupTimeout: settings.Download.LookupTimeout,
		FetchTimeout:  settings.Download.FetchTimeout,
	})

	bot.Register(ctx, manager, afk.NewService(repo, texts, log), texts)

	go bot.Start()

	<-ctx.Done()
	log.Info("Shutting down")
	bot.Stop()
}
