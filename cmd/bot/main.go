// Package main contains the entrypoint for the ad moderation bot.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbot "github.com/go-telegram/bot"

	"github.com/ronnietg/adbot/internal/bot"
	"github.com/ronnietg/adbot/internal/bot/handlers"
	"github.com/ronnietg/adbot/internal/bot/tasks"
	"github.com/ronnietg/adbot/internal/classifier"
	"github.com/ronnietg/adbot/internal/config"
	"github.com/ronnietg/adbot/internal/database"
	"github.com/ronnietg/adbot/internal/logger"
	"github.com/ronnietg/adbot/internal/membership"
	"github.com/ronnietg/adbot/internal/moderation"
	"github.com/ronnietg/adbot/internal/telegram"

	_ "modernc.org/sqlite"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	exitCode := run(ctx)
	stop()
	os.Exit(exitCode)
}

// run initializes and starts all application components (config, logger,
// database, classifier, moderation pipeline, bot, scheduler), handles
// graceful shutdown, and returns an exit code.
func run(ctx context.Context) int {
	configPath := flag.String("config", "", "Path to configuration file (optional)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "path", *configPath, "error", err)
		return 1
	}

	log := logger.NewLogger(cfg.Log.Level, cfg.Log.JSON)
	slog.SetDefault(log)
	log.Info("Logger initialized", "level", cfg.Log.Level, "json", cfg.Log.JSON)

	db, err := database.NewDB(cfg.Database.Path)
	if err != nil {
		log.Error("Failed to connect to database", "path", cfg.Database.Path, "error", err)
		return 1
	}
	defer database.CloseDB(db)
	store := database.NewStore(db, log)

	cls, err := classifier.New(ctx, cfg.LLM, log)
	if err != nil {
		log.Error("Failed to initialize classifier", "provider", cfg.LLM.Provider, "error", err)
		return 1
	}
	log.Info("Classifier initialized", "provider", cfg.LLM.Provider, "model", cfg.LLM.Model)

	botOpts := []tgbot.Option{
		tgbot.WithMiddlewares(logger.Middleware(log)),
	}
	tg, err := telegram.NewTelegramBot(cfg.Telegram.Token, log, botOpts...)
	if err != nil {
		log.Error("Failed to create Telegram bot", "error", err)
		return 1
	}

	cfg.Telegram.BotInfo, err = tg.GetMe(ctx)
	if err != nil {
		log.Error("Failed to get bot info", "error", err)
		return 1
	}
	log.Info("Retrieved bot info", "bot_id", cfg.Telegram.BotInfo.ID, "bot_username", cfg.Telegram.BotInfo.Username)

	gateway := telegram.NewGateway(tg, log)
	tracker := membership.NewTracker(store, log)
	engine := moderation.NewEngine(store, cls, tracker, gateway, moderation.Config{
		ScoreThreshold: cfg.Moderation.ScoreThreshold,
		GracePeriod:    cfg.Moderation.GracePeriod,
		DeletedNotice:  cfg.Moderation.DeletedNotice,
		ErrorNotice:    cfg.Moderation.ErrorNotice,
	}, log)

	hDeps := handlers.HandlerDeps{
		Logger: log,
		Config: cfg,
		Engine: engine,
	}
	tg.RegisterHandlerMatchFunc(handlers.MatchMessageUpdates, handlers.NewModerationHandler(hDeps))

	updatesClient := telegram.NewUpdatesClient(cfg.Telegram.Token, log)
	reconciler := moderation.NewReconciler(updatesClient, engine, cfg.Telegram.BacklogLimit, log)

	tDeps := tasks.TaskDeps{
		Logger: log,
		Config: cfg,
		Store:  store,
	}
	sched, err := bot.NewScheduler(log, &cfg.Scheduler, tasks.NewTaskRegistry(tDeps))
	if err != nil {
		log.Error("Failed to create scheduler", "error", err)
		return 1
	}

	app := bot.NewBot(log, cfg, db, store, reconciler, tg, sched)

	log.Info("Starting bot...")
	runErr := app.Run(ctx)
	log.Info("Bot run loop finished. Initiating shutdown...")

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		log.Error("Bot stopped due to error", "error", runErr)
		time.Sleep(time.Second)
		return 1
	}

	log.Info("Bot stopped gracefully.")
	time.Sleep(time.Second)
	return 0
}
