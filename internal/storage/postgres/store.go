package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"cpamm/internal/model"
	"cpamm/internal/storage"
)

const schema = `
CREATE TABLE IF NOT EXISTS pools (
	pool_address TEXT PRIMARY KEY,
	seed NUMERIC(20,0) NOT NULL,
	version BIGINT NOT NULL,
	state JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS positions (
	pool_address TEXT NOT NULL REFERENCES pools (pool_address),
	owner TEXT NOT NULL,
	shares NUMERIC(20,0) NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (pool_address, owner)
);
CREATE TABLE IF NOT EXISTS pool_events (
	pool_address TEXT NOT NULL,
	version BIGINT NOT NULL,
	log_index BIGINT NOT NULL,
	topics TEXT[] NOT NULL,
	data TEXT NOT NULL,
	ts BIGINT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (pool_address, version, log_index)
);
CREATE TABLE IF NOT EXISTS pool_window_stats (
	pool_address TEXT NOT NULL,
	window_size_seconds BIGINT NOT NULL,
	window_start_ts TIMESTAMPTZ NOT NULL,
	window_end_ts TIMESTAMPTZ NOT NULL,
	swap_count BIGINT NOT NULL,
	mint_count BIGINT NOT NULL,
	burn_count BIGINT NOT NULL,
	volume_x NUMERIC NOT NULL,
	volume_y NUMERIC NOT NULL,
	fee_x NUMERIC NOT NULL,
	fee_y NUMERIC NOT NULL,
	reserve_x NUMERIC,
	reserve_y NUMERIC,
	lp_supply NUMERIC,
	fee_rate_x NUMERIC,
	fee_rate_y NUMERIC,
	apr NUMERIC,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (pool_address, window_size_seconds, window_start_ts)
);
`

// Store provides Postgres persistence for pool state, events and stats.
type Store struct {
	pool *pgxpool.Pool
}

var (
	_ storage.PoolStore = (*Store)(nil)
	_ storage.Journal   = (*Store)(nil)
)

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// EnsureSchema creates the tables if they do not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

func (s *Store) LoadPool(ctx context.Context, pool common.Address) (model.PoolState, error) {
	var raw []byte
	row := s.pool.QueryRow(ctx, `SELECT state FROM pools WHERE pool_address=$1`, addressKey(pool))
	if err := row.Scan(&raw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.PoolState{}, fmt.Errorf("%w: %s", storage.ErrPoolNotFound, pool.Hex())
		}
		return model.PoolState{}, err
	}
	return decodeState(raw)
}

func (s *Store) ListPools(ctx context.Context) ([]model.PoolState, error) {
	rows, err := s.pool.Query(ctx, `SELECT state FROM pools ORDER BY seed`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pools []model.PoolState
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		state, err := decodeState(raw)
		if err != nil {
			return nil, err
		}
		pools = append(pools, state)
	}
	return pools, rows.Err()
}

func (s *Store) LoadPosition(ctx context.Context, pool, owner common.Address) (model.Position, error) {
	pos := model.Position{Pool: pool, Owner: owner}
	var shares string
	row := s.pool.QueryRow(ctx, `SELECT shares::text FROM positions WHERE pool_address=$1 AND owner=$2`, addressKey(pool), addressKey(owner))
	if err := row.Scan(&shares); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return pos, nil
		}
		return pos, err
	}
	n, err := strconv.ParseUint(shares, 10, 64)
	if err != nil {
		return pos, fmt.Errorf("parse shares: %w", err)
	}
	pos.Shares = n
	return pos, nil
}

// CommitPool writes the snapshot with an optimistic version check and upserts
// positions in the same transaction.
func (s *Store) CommitPool(ctx context.Context, snapshot model.PoolState, expectedVersion uint64, positions ...model.Position) error {
	raw, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("marshal pool state: %w", err)
	}
	key := addressKey(snapshot.Address)

	return pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		var (
			sql  string
			args []interface{}
		)
		if expectedVersion == 0 {
			sql = `
				INSERT INTO pools (pool_address, seed, version, state, created_at, updated_at)
				VALUES ($1, $2::numeric, $3, $4::jsonb, now(), now())
				ON CONFLICT (pool_address) DO NOTHING
			`
			args = []interface{}{key, strconv.FormatUint(snapshot.Seed, 10), int64(snapshot.Version), string(raw)}
		} else {
			sql = `
				UPDATE pools SET version=$2, state=$3::jsonb, updated_at=now()
				WHERE pool_address=$1 AND version=$4
			`
			args = []interface{}{key, int64(snapshot.Version), string(raw), int64(expectedVersion)}
		}
		tag, err := tx.Exec(ctx, sql, args...)
		if err != nil {
			return err
		}
		if tag.RowsAffected() != 1 {
			return fmt.Errorf("%w: %s expected=%d", storage.ErrVersionConflict, snapshot.Address.Hex(), expectedVersion)
		}

		for _, pos := range positions {
			if pos.Pool != snapshot.Address {
				return fmt.Errorf("position for %s committed with pool %s", pos.Pool.Hex(), snapshot.Address.Hex())
			}
			if _, err := tx.Exec(ctx, `
				INSERT INTO positions (pool_address, owner, shares, updated_at)
				VALUES ($1, $2, $3::numeric, now())
				ON CONFLICT (pool_address, owner)
				DO UPDATE SET shares = EXCLUDED.shares, updated_at = now()
			`, key, addressKey(pos.Owner), strconv.FormatUint(pos.Shares, 10)); err != nil {
				return err
			}
		}
		return nil
	})
}

// PutLogBatch inserts pool event records, ignoring ones already stored.
func (s *Store) PutLogBatch(ctx context.Context, logs []model.LogRecord) error {
	if len(logs) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, log := range logs {
		batch.Queue(`
			INSERT INTO pool_events (pool_address, version, log_index, topics, data, ts, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, now())
			ON CONFLICT (pool_address, version, log_index) DO NOTHING
		`,
			strings.ToLower(log.Pool),
			int64(log.Version),
			int64(log.LogIndex),
			log.Topics,
			log.Data,
			int64(log.Timestamp),
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range logs {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// UpsertWindowStats inserts or updates window stats.
func (s *Store) UpsertWindowStats(ctx context.Context, stats []model.PoolWindowStats) error {
	if len(stats) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, m := range stats {
		batch.Queue(`
			INSERT INTO pool_window_stats (
				pool_address, window_size_seconds, window_start_ts, window_end_ts,
				swap_count, mint_count, burn_count, volume_x, volume_y, fee_x, fee_y,
				reserve_x, reserve_y, lp_supply, fee_rate_x, fee_rate_y, apr, created_at, updated_at
			) VALUES (
				$1, $2, $3, $4, $5, $6, $7, $8::numeric, $9::numeric, $10::numeric, $11::numeric,
				$12::numeric, $13::numeric, $14::numeric, $15::numeric, $16::numeric, $17::numeric, now(), now()
			)
			ON CONFLICT (pool_address, window_size_seconds, window_start_ts)
			DO UPDATE SET
				window_end_ts = EXCLUDED.window_end_ts,
				swap_count = EXCLUDED.swap_count,
				mint_count = EXCLUDED.mint_count,
				burn_count = EXCLUDED.burn_count,
				volume_x = EXCLUDED.volume_x,
				volume_y = EXCLUDED.volume_y,
				fee_x = EXCLUDED.fee_x,
				fee_y = EXCLUDED.fee_y,
				reserve_x = EXCLUDED.reserve_x,
				reserve_y = EXCLUDED.reserve_y,
				lp_supply = EXCLUDED.lp_supply,
				fee_rate_x = EXCLUDED.fee_rate_x,
				fee_rate_y = EXCLUDED.fee_rate_y,
				apr = EXCLUDED.apr,
				updated_at = now()
		`,
			strings.ToLower(m.Pool),
			m.WindowSizeSecs,
			m.WindowStart,
			m.WindowEnd,
			int64(m.SwapCount),
			int64(m.MintCount),
			int64(m.BurnCount),
			m.VolumeX,
			m.VolumeY,
			m.FeeX,
			m.FeeY,
			m.ReserveX,
			m.ReserveY,
			m.LPSupply,
			m.FeeRateX,
			m.FeeRateY,
			m.APR,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range stats {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

func decodeState(raw []byte) (model.PoolState, error) {
	var state model.PoolState
	if err := json.Unmarshal(raw, &state); err != nil {
		return model.PoolState{}, fmt.Errorf("parse pool state: %w", err)
	}
	return state, nil
}

func addressKey(addr common.Address) string {
	return strings.ToLower(addr.Hex())
}
