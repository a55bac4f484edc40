// Command cvbot runs the CV intake Telegram bot.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/iulicovete-ux/Documente-CV/bot"
	"github.com/iulicovete-ux/Documente-CV/core/config"
	"github.com/iulicovete-ux/Documente-CV/core/database"
	"github.com/iulicovete-ux/Documente-CV/core/logger"
	"github.com/iulicovete-ux/Documente-CV/core/telegram"
	"log/slog"

	"github.com/jmoiron/sqlx"
)

const defaultConfigPath = "config.yaml"

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "cvbot:", err)
		os.Exit(1)
	}
}

func run() error {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = defaultConfigPath
	}
	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if err := logger.Init(logger.Options{
		Level:   cfg.Logging.Level,
		Format:  cfg.Logging.Format,
		Profile: cfg.Logging.Profile,
		Dir:     cfg.Logging.Dir,
		File:    cfg.Logging.File,
	}); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Shutdown()

	var db *sqlx.DB
	if cfg.Database.Enabled() {
		if err := database.RunMigrations(cfg.Database); err != nil {
			return err
		}
		db, err = database.Connect(cfg.Database)
		if err != nil {
			return err
		}
		defer db.Close()
	} else {
		logger.APP.Info("archive disabled",
			slog.String("event", "db.skip"),
		)
	}

	app := bot.New(cfg, db)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return telegram.RunTelegram(ctx, app.RunOptions())
}
