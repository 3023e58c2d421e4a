package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"cpamm/internal/aggregate"
	"cpamm/internal/config"
	"cpamm/internal/storage/postgres"
)

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Aggregate the event journal into per-window pool stats",
		RunE:  runStats,
	}
	cmd.Flags().String("window", "5m", "aggregation window (e.g. 1m, 5m, 1h)")
	cmd.Flags().Int("batch-size", 1000, "batch size for DB writes")
	cmd.Flags().Int64("from", 0, "skip events before this unix timestamp")
	return cmd
}

func runStats(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	windowRaw, _ := cmd.Flags().GetString("window")
	window, err := time.ParseDuration(windowRaw)
	if err != nil {
		return fmt.Errorf("parse window: %w", err)
	}
	if window < time.Second {
		return fmt.Errorf("window must be at least 1s")
	}
	batchSize, err := cmd.Flags().GetInt("batch-size")
	if err != nil {
		return fmt.Errorf("read --batch-size: %w", err)
	}
	from, err := cmd.Flags().GetInt64("from")
	if err != nil {
		return fmt.Errorf("read --from: %w", err)
	}
	if from < 0 {
		return fmt.Errorf("from must not be negative")
	}

	ctx := cmd.Context()

	var sink aggregate.Sink
	if cfg.Store == config.StorePostgres {
		pg, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer pg.Close()
		if err := pg.EnsureSchema(ctx); err != nil {
			return err
		}
		sink = pg
	}

	agg, err := aggregate.NewAggregator(aggregate.Config{
		WindowSeconds: uint64(window / time.Second),
		BatchSize:     batchSize,
		From:          uint64(from),
	}, sink, logger)
	if err != nil {
		return err
	}

	stats, err := agg.Run(ctx, cfg.Journal)
	if err != nil {
		return err
	}
	return printJSON(stats)
}
