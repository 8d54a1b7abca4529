package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ymorita/hisho/config"
	"github.com/ymorita/hisho/internal/agenda"
	"github.com/ymorita/hisho/internal/api"
	"github.com/ymorita/hisho/internal/bot"
	"github.com/ymorita/hisho/internal/clients/caldav"
	"github.com/ymorita/hisho/internal/clients/google"
	"github.com/ymorita/hisho/internal/clients/holidays"
	"github.com/ymorita/hisho/internal/clients/weather"
	"github.com/ymorita/hisho/internal/scheduler"
	"github.com/ymorita/hisho/internal/service"
	"github.com/ymorita/hisho/internal/storage"
)

func main() {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)
	logger.SetFormatter(&logrus.JSONFormatter{})
	log := logrus.NewEntry(logger).WithField("component", "hisho")

	log.Info("starting up")

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("load config")
	}

	store, err := storage.New(cfg.DatabasePath)
	if err != nil {
		log.WithError(err).Fatal("init storage")
	}
	defer store.Close()

	provider, err := buildProvider(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("init calendar provider")
	}

	holidaySvc := service.NewHolidayService(
		store,
		holidays.NewClient(cfg.HolidayRegion),
		cfg.HolidayRegion,
		log.WithField("component", "holidays"),
	)

	session := agenda.NewSession(provider, holidaySvc, cfg.Timezone, log.WithField("component", "agenda"))

	authSvc := service.NewAuthService(store)
	citySvc := service.NewCityService(store)
	clothingSvc := service.NewClothingService(store)
	weatherSvc := service.NewWeatherService(
		weather.NewClient(cfg.OpenWeatherAPIKey, cfg.OpenWeatherLang),
		citySvc,
		log.WithField("component", "weather"),
	)

	server := api.New(cfg, log.WithField("component", "api"), authSvc, citySvc, clothingSvc, weatherSvc, session)
	sched := scheduler.New(cfg, session, weatherSvc, clothingSvc, log.WithField("component", "scheduler"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.HasTelegram() {
		tgBot, err := bot.New(cfg, sched, session, log.WithField("component", "bot"))
		if err != nil {
			log.WithError(err).Fatal("init telegram bot")
		}
		sched.SetSender(tgBot)

		go func() {
			if err := tgBot.Start(ctx); err != nil {
				log.WithError(err).Error("bot stopped")
			}
		}()
	}

	go func() {
		if err := sched.Start(ctx); err != nil {
			log.WithError(err).Error("scheduler stopped")
		}
	}()

	go func() {
		if err := server.Start(); err != nil {
			log.WithError(err).Error("api server stopped")
		}
	}()

	// Warm the snapshot so the first request is served instantly.
	session.Refresh(ctx)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info("shutting down")
	cancel()
	sched.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Stop(shutdownCtx); err != nil {
		log.WithError(err).Error("api server shutdown")
	}

	log.Info("stopped")
}

// buildProvider picks the configured calendar backend. CalDAV wins when both
// are configured.
func buildProvider(cfg *config.Config, log *logrus.Entry) (agenda.Provider, error) {
	switch {
	case cfg.HasCalDAV():
		url := cfg.CalDAVURL
		if url == "" {
			url = caldav.DefaultiCloudURL
		}
		log.WithField("url", url).Info("using CalDAV calendar provider")
		return caldav.NewClient(url, cfg.CalDAVUsername, cfg.CalDAVPassword, cfg.Timezone), nil
	case cfg.HasGoogle():
		log.Info("using Google calendar provider")
		return google.NewClient(context.Background(), cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleTokenFile, cfg.Timezone)
	default:
		return nil, errNoProvider
	}
}

var errNoProvider = errors.New("no calendar provider configured: set CALDAV_* or GOOGLE_* credentials")
