package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"todo-planner/internal/api"
	"todo-planner/internal/bot"
	"todo-planner/internal/cache"
	"todo-planner/internal/config"
	"todo-planner/internal/engine"
	"todo-planner/internal/repository"
	"todo-planner/internal/service"
	"todo-planner/pkg/logger"
)

const cacheStatsInterval = 30 * time.Second

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, the Telegram bot and the reminder scheduler",
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	log, closer, err := logger.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer closer.Close()
	slog.SetDefault(log)
	if cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := repository.NewDB(cfg.DatabaseURL, log)
	if err != nil {
		return fmt.Errorf("db: %w", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}
	store := repository.NewStore(db)

	schedule := service.NewScheduleService(store, store, engine.New(cfg.Location), cacheConfig(cfg), log)
	defer schedule.Close()
	todos := service.NewTodoService(store, schedule)
	reminders := service.NewReminderService(store, store, schedule, nil, log)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, gctx := errgroup.WithContext(ctx)

	if cfg.TelegramToken != "" {
		telegramBot, err := bot.New(cfg.TelegramToken, bot.Deps{
			Users:     store.Users,
			Folders:   store.Folders,
			Todos:     todos,
			Schedule:  schedule,
			Reminders: reminders,
		}, log)
		if err != nil {
			return fmt.Errorf("bot: %w", err)
		}
		reminders.SetNotifier(telegramBot)
		g.Go(func() error { return telegramBot.Start(gctx) })
	} else {
		log.Warn("TELEGRAM_TOKEN is empty, bot and notifications are disabled")
	}

	scheduler := service.NewSchedulerService(cfg.Location)
	if _, err := scheduler.ScheduleMinutely(func() {
		jobCtx, cancel := context.WithTimeout(gctx, 50*time.Second)
		defer cancel()
		if _, err := reminders.CheckReminders(jobCtx, time.Now()); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("check reminders", "error", err)
		}
	}); err != nil {
		return fmt.Errorf("schedule reminders: %w", err)
	}
	if _, err := scheduler.ScheduleDaily(cfg.DigestTime, func() {
		jobCtx, cancel := context.WithTimeout(gctx, 5*time.Minute)
		defer cancel()
		if err := reminders.SendDigests(jobCtx, time.Now()); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("send digests", "error", err)
		}
	}); err != nil {
		return fmt.Errorf("schedule digest: %w", err)
	}
	if _, err := scheduler.ScheduleInterval(cacheStatsInterval, schedule.ReportCacheStats); err != nil {
		return fmt.Errorf("schedule cache stats: %w", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	server := api.NewServer(todos, schedule, reminders, log)
	g.Go(func() error { return server.Run(gctx, cfg.HTTPAddr) })

	log.Info("todo planner started", "http_addr", cfg.HTTPAddr, "timezone", cfg.Location.String(), "digest_time", cfg.DigestTime)
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info("shutdown complete")
	return nil
}

func cacheConfig(cfg config.Config) cache.Config {
	cc := cache.DefaultConfig
	if cfg.CacheTTL > 0 {
		cc.TTL = cfg.CacheTTL
	}
	return cc
}
