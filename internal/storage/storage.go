package storage

import (
	"context"
	"errors"

	"github.com/ethereum/go-ethereum/common"

	"cpamm/internal/model"
)

var (
	// ErrPoolNotFound is returned when no snapshot exists for a pool.
	ErrPoolNotFound = errors.New("pool not found")
	// ErrVersionConflict is returned when the stored version differs from
	// the version a commit was computed against.
	ErrVersionConflict = errors.New("pool version conflict")
)

// PoolStore persists pool snapshots and share positions.
type PoolStore interface {
	LoadPool(ctx context.Context, pool common.Address) (model.PoolState, error)
	ListPools(ctx context.Context) ([]model.PoolState, error)
	// LoadPosition returns a zero-share position when owner holds nothing.
	LoadPosition(ctx context.Context, pool, owner common.Address) (model.Position, error)
	// CommitPool stores snapshot and positions atomically if the stored
	// version equals expectedVersion. expectedVersion 0 means the pool must
	// not exist yet.
	CommitPool(ctx context.Context, snapshot model.PoolState, expectedVersion uint64, positions ...model.Position) error
}

// Journal defines a sink for pool event records.
type Journal interface {
	PutLogBatch(ctx context.Context, logs []model.LogRecord) error
}

// NopJournal discards records.
type NopJournal struct{}

func (NopJournal) PutLogBatch(context.Context, []model.LogRecord) error { return nil }
