package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/bringalong/bringalong/internal/bot"
	"github.com/bringalong/bringalong/internal/messaging"
	"github.com/bringalong/bringalong/internal/scheduler"
	"github.com/bringalong/bringalong/internal/store"
	"github.com/bringalong/bringalong/internal/util"
)

// Default configuration constants
const (
	// DefaultStateDir is the default directory for BringAlong state data
	DefaultStateDir = "/var/lib/bringalong"
	// DefaultDBFileName is the default SQLite database filename
	DefaultDBFileName = "bringalong.db"
	// DefaultReminderCron fires the daily reminder sweep at 10:00
	DefaultReminderCron = "0 10 * * *"
)

func main() {
	initializeLogger()

	config := loadEnvironmentConfig()
	flags := parseCommandLineFlags(config)

	slog.Info("Bootstrapping BringAlong")
	slog.Debug("Final configuration", "driver", *flags.dbDriver, "state_dir", *flags.stateDir, "dsn_set", *flags.dbDSN != "")

	st, err := buildStore(flags)
	if err != nil {
		slog.Error("Failed to open store", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	if err := run(st, flags); err != nil {
		slog.Error("BringAlong failed to run", "error", err)
		os.Exit(1)
	}
	slog.Info("BringAlong exited successfully")
}

// Config holds environment configuration
type Config struct {
	BotToken     string
	DbDriver     string
	DatabaseURL  string
	StateDir     string
	ReminderCron string
	Debug        bool
}

// Flags holds command line flag values
type Flags struct {
	botToken     *string
	stateDir     *string
	dbDriver     *string
	dbDSN        *string
	reminderCron *string
}

func initializeLogger() {
	level := slog.LevelInfo
	if util.ParseBoolEnv("BRINGALONG_DEBUG", false) {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
}

// loadEnvironmentConfig loads configuration from environment variables and .env file
func loadEnvironmentConfig() Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	} else {
		slog.Debug("successfully loaded .env file")
	}

	config := Config{
		BotToken:     os.Getenv("BOT_TOKEN"),
		DbDriver:     os.Getenv("DATABASE_DRIVER"),
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		StateDir:     os.Getenv("BRINGALONG_STATE_DIR"),
		ReminderCron: os.Getenv("REMINDER_SCHEDULE"),
	}

	if config.StateDir == "" {
		config.StateDir = DefaultStateDir
		slog.Debug("No BRINGALONG_STATE_DIR set, using default", "default_state_dir", config.StateDir)
	}
	if config.ReminderCron == "" {
		config.ReminderCron = DefaultReminderCron
	}
	return config
}

func parseCommandLineFlags(config Config) Flags {
	flags := Flags{
		botToken:     flag.String("token", config.BotToken, "Telegram bot token"),
		stateDir:     flag.String("state-dir", config.StateDir, "State directory for the SQLite database"),
		dbDriver:     flag.String("db-driver", config.DbDriver, "Database driver: sqlite3 or postgres"),
		dbDSN:        flag.String("db-dsn", config.DatabaseURL, "Database DSN (file path for sqlite3, URL for postgres)"),
		reminderCron: flag.String("reminder-cron", config.ReminderCron, "Cron expression for the daily reminder sweep"),
	}
	flag.Parse()
	return flags
}

// buildStore selects the backend from the driver flag. An explicit postgres
// driver or a postgres-looking DSN selects Postgres; everything else is
// SQLite under the state directory.
func buildStore(flags Flags) (store.Store, error) {
	driver := *flags.dbDriver
	dsn := *flags.dbDSN

	if driver == "postgres" {
		return store.NewPostgresStore(store.WithDSN(dsn))
	}
	if dsn == "" {
		dsn = filepath.Join(*flags.stateDir, DefaultDBFileName)
		slog.Debug("No DSN set, using default SQLite path", "dsn", dsn)
	}
	return store.NewSQLiteStore(store.WithDSN(dsn))
}

func run(st store.Store, flags Flags) error {
	if *flags.botToken == "" {
		slog.Error("BOT_TOKEN is required")
		os.Exit(1)
	}

	svc, err := messaging.NewTelegramService(*flags.botToken)
	if err != nil {
		return err
	}

	app, err := bot.New(st, svc)
	if err != nil {
		return err
	}
	defer app.Stop()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := svc.Start(ctx); err != nil {
		return err
	}
	defer svc.Stop()

	sched := scheduler.NewScheduler()
	if err := sched.AddJob(*flags.reminderCron, func() {
		if err := app.RemindUpcoming(ctx, time.Now()); err != nil {
			slog.Error("Reminder sweep failed", "error", err)
		}
	}); err != nil {
		return err
	}
	defer sched.Stop()

	slog.Info("BringAlong is up", "bot", svc.BotUsername())
	app.Run(ctx, svc.Events())
	return nil
}
