package aggregate

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"cpamm/internal/events"
	"cpamm/internal/model"
	"cpamm/internal/storage"
)

// Sink receives flushed window stats.
type Sink interface {
	UpsertWindowStats(ctx context.Context, stats []model.PoolWindowStats) error
}

// Config controls aggregation behavior.
type Config struct {
	WindowSeconds uint64
	BatchSize     int
	// From skips events older than this unix timestamp.
	From uint64
}

// Aggregator folds journaled pool events into per-window stats.
type Aggregator struct {
	cfg          Config
	sink         Sink
	decoder      *events.Decoder
	logger       *zap.Logger
	accumulators map[string]*Accumulator
}

// NewAggregator builds an Aggregator. A nil sink only collects results.
func NewAggregator(cfg Config, sink Sink, logger *zap.Logger) (*Aggregator, error) {
	if cfg.WindowSeconds == 0 {
		return nil, fmt.Errorf("window seconds must be > 0")
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 1000
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	decoder, err := events.NewDecoder()
	if err != nil {
		return nil, err
	}
	return &Aggregator{
		cfg:          cfg,
		sink:         sink,
		decoder:      decoder,
		logger:       logger,
		accumulators: make(map[string]*Accumulator),
	}, nil
}

// Run aggregates every record in the journal at path and returns the stats
// in pool then window order.
func (a *Aggregator) Run(ctx context.Context, path string) ([]model.PoolWindowStats, error) {
	var (
		all     []model.PoolWindowStats
		batch   = make([]model.PoolWindowStats, 0, a.cfg.BatchSize)
		total   int
		skipped int
		failed  int
	)

	flush := func(acc *Accumulator) error {
		stats := acc.Stats(a.cfg.WindowSeconds)
		all = append(all, stats)
		batch = append(batch, stats)
		if len(batch) < a.cfg.BatchSize {
			return nil
		}
		if err := a.write(ctx, batch); err != nil {
			return err
		}
		batch = batch[:0]
		return nil
	}

	err := storage.ReadJournal(path, func(record model.LogRecord) error {
		total++
		if record.Timestamp < a.cfg.From {
			skipped++
			return nil
		}
		event, err := a.decoder.Decode(record)
		if err != nil {
			failed++
			a.logger.Warn("decode pool event", zap.Error(err), zap.String("pool", record.Pool), zap.Uint64("version", record.Version))
			return nil
		}

		start := windowStart(event.Timestamp, a.cfg.WindowSeconds)
		key := strings.ToLower(event.Pool)
		acc := a.accumulators[key]
		if acc != nil && acc.WindowStart != start {
			if err := flush(acc); err != nil {
				return err
			}
			acc = nil
		}
		if acc == nil {
			acc = NewAccumulator(event, start, start+a.cfg.WindowSeconds)
			a.accumulators[key] = acc
		}

		if err := acc.AddEvent(event); err != nil {
			failed++
			a.logger.Warn("aggregate event", zap.Error(err), zap.String("pool", event.Pool), zap.String("event", event.EventName))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(a.accumulators))
	for key := range a.accumulators {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if err := flush(a.accumulators[key]); err != nil {
			return nil, err
		}
	}
	a.accumulators = make(map[string]*Accumulator)

	if len(batch) > 0 {
		if err := a.write(ctx, batch); err != nil {
			return nil, err
		}
	}

	sort.SliceStable(all, func(i, j int) bool {
		if all[i].Pool != all[j].Pool {
			return strings.ToLower(all[i].Pool) < strings.ToLower(all[j].Pool)
		}
		return all[i].WindowStart.Before(all[j].WindowStart)
	})

	a.logger.Info("aggregate complete",
		zap.Int("total", total),
		zap.Int("windows", len(all)),
		zap.Int("skipped", skipped),
		zap.Int("failed", failed),
	)
	return all, nil
}

func (a *Aggregator) write(ctx context.Context, batch []model.PoolWindowStats) error {
	if a.sink == nil {
		return nil
	}
	if err := a.sink.UpsertWindowStats(ctx, batch); err != nil {
		return fmt.Errorf("upsert window stats: %w", err)
	}
	return nil
}
