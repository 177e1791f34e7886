package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"dailymeow/internal/avatar"
	"dailymeow/internal/backend"
	"dailymeow/internal/cli"
	apphttp "dailymeow/internal/http"
	"dailymeow/internal/log"
	"dailymeow/internal/services"
	"dailymeow/internal/session"
	"dailymeow/internal/store"
)

const avatarSize = 256

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)

	backendConfig, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}
	result, err := backend.NewFactory(logger.Logger).CreateBackend(context.Background(), backendConfig)
	if err != nil {
		logger.Error("Failed to create backend", "error", err, "backend", backendConfig.Type)
		os.Exit(1)
	}
	st := result.Store

	avatars, err := avatar.NewStore(cfg.AvatarDir, avatarSize)
	if err != nil {
		logger.Error("Failed to prepare avatar directory", "error", err, "dir", cfg.AvatarDir)
		os.Exit(1)
	}
	sessions := session.NewManager(cfg.SessionSecret, cfg.SessionTTL, cfg.Location())
	events := services.NewFinanceEvents(result.Publisher)

	svc := apphttp.Services{
		Calendar:   services.NewCalendarService(st, st),
		Daily:      services.NewDailyService(st, st, events),
		Finances:   services.NewRecurringExpander(st, events),
		Activities: services.NewActivityService(st),
		History:    services.NewHistoryService(st, events),
		Insight:    services.NewInsightService(st, cfg.InsightLocale),
		Recap:      services.NewRecapService(st, st),
		Reminders:  services.NewReminderService(st),
		Profiles:   services.NewProfileService(st, sessions, avatars, cfg.DefaultTimezone),
	}

	srv := apphttp.NewServer(apphttp.Options{
		Addr:               ":" + cfg.Port,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		CacheSize:          cfg.CacheSize,
		CacheTTL:           cfg.CacheTTL,
		Logger:             logger,
		Ready: func(ctx context.Context) error {
			_, err := st.ListFinances(ctx, store.Query{UserID: "readiness-probe", Limit: 1})
			return err
		},
	}, svc, sessions, avatars)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		if err := result.Cleanup(); err != nil {
			logger.Error("Backend cleanup error", "error", err)
		}
	})

	logger.Info("Starting dailymeow server",
		"port", cfg.Port,
		"backend", backendConfig.Type,
		"events", result.Publisher != nil)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
