package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"cpamm/internal/config"
	"cpamm/internal/service"
	"cpamm/internal/storage"
	"cpamm/internal/storage/postgres"
)

func main() {
	root := &cobra.Command{
		Use:          "ammctl",
		Short:        "Constant-product pool engine",
		SilenceUsage: true,
	}

	flags := root.PersistentFlags()
	flags.String("config", "", "config file path")
	flags.String("store", config.StoreFile, "pool store backend (file, postgres)")
	flags.String("data-dir", "./data/pools", "directory for the file store")
	flags.String("pg-dsn", "", "Postgres DSN")
	flags.String("journal", "./data/events.jsonl", "event journal JSONL path")
	flags.Bool("journal-pg", false, "write events to Postgres instead of the JSONL journal")
	flags.Int("max-retries", 5, "maximum commit retries on version conflicts")
	flags.Duration("retry-backoff", 50*time.Millisecond, "initial retry backoff")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(
		newInitCmd(),
		newShowCmd(),
		newListCmd(),
		newPositionCmd(),
		newDepositCmd(),
		newWithdrawCmd(),
		newSwapCmd(),
		newQuoteCmd(),
		newLockCmd(true),
		newLockCmd(false),
		newCollectFeesCmd(),
		newEventsCmd(),
		newStatsCmd(),
		newAddressCmd(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfgFile, _ := cmd.Flags().GetString("config")
	return config.Load(cfgFile, cmd.Flags())
}

// runWithService loads config, wires the store and journal, and runs fn.
func runWithService(cmd *cobra.Command, fn func(ctx context.Context, svc *service.Service) (interface{}, error)) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx := cmd.Context()

	var (
		store   storage.PoolStore
		journal storage.Journal = storage.NewJsonlJournal(cfg.Journal)
	)
	switch cfg.Store {
	case config.StorePostgres:
		pg, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer pg.Close()
		if err := pg.EnsureSchema(ctx); err != nil {
			return err
		}
		store = pg
		if cfg.JournalPG {
			journal = pg
		}
	default:
		store = storage.NewFileStore(cfg.DataDir)
	}

	svc, err := service.New(service.Config{
		MaxRetries:   cfg.MaxRetries,
		RetryBackoff: cfg.RetryBackoff,
	}, store, journal, logger)
	if err != nil {
		return err
	}

	logger.Debug("service ready",
		zap.String("store", cfg.Store),
		zap.String("data_dir", cfg.DataDir),
		zap.String("journal", cfg.Journal),
		zap.Bool("journal_pg", cfg.JournalPG),
	)

	out, err := fn(ctx, svc)
	if err != nil {
		return err
	}
	return printJSON(out)
}

func printJSON(value interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(value)
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
