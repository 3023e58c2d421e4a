// Package service runs pool operations against a store: it serializes work per
// pool, commits snapshots with an optimistic version check and journals the
// resulting events.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	errorsmod "cosmossdk.io/errors"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"cpamm/internal/amm"
	"cpamm/internal/events"
	"cpamm/internal/fixedpoint"
	"cpamm/internal/identity"
	"cpamm/internal/model"
	"cpamm/internal/storage"
)

// Config holds runtime settings for the service.
type Config struct {
	MaxRetries   int
	RetryBackoff time.Duration
	Now          func() time.Time
}

// Service applies pool operations and persists their effects.
type Service struct {
	cfg     Config
	store   storage.PoolStore
	journal storage.Journal
	encoder *events.Encoder
	locks   *poolLocks
	logger  *zap.Logger
}

// New builds a Service. A nil journal discards events.
func New(cfg Config, store storage.PoolStore, journal storage.Journal, logger *zap.Logger) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("store is nil")
	}
	if journal == nil {
		journal = storage.NopJournal{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	encoder, err := events.NewEncoder(cfg.Now)
	if err != nil {
		return nil, fmt.Errorf("build event encoder: %w", err)
	}
	return &Service{
		cfg:     cfg,
		store:   store,
		journal: journal,
		encoder: encoder,
		locks:   newPoolLocks(),
		logger:  logger,
	}, nil
}

// InitRequest creates a pool at the address derived from Seed.
type InitRequest struct {
	Seed           uint64
	FeeBps         uint16
	ProtocolFeeBps uint16
	Authority      *common.Address
}

// DepositRequest adds liquidity on behalf of Provider.
type DepositRequest struct {
	Pool      common.Address
	Provider  common.Address
	Shares    uint64
	MaxX      uint64
	MaxY      uint64
	Bootstrap bool
}

// WithdrawRequest burns Provider's shares.
type WithdrawRequest struct {
	Pool     common.Address
	Provider common.Address
	Shares   uint64
	MinX     uint64
	MinY     uint64
}

// SwapRequest trades AmountIn of Side for the other token.
type SwapRequest struct {
	Pool     common.Address
	Trader   common.Address
	Side     amm.Side
	AmountIn uint64
	MinOut   uint64
}

// InitPool creates and stores a new pool.
func (s *Service) InitPool(ctx context.Context, req InitRequest) (model.PoolState, error) {
	addr := identity.PoolAddress(req.Seed)
	s.locks.Lock(addr)
	defer s.locks.Unlock(addr)

	pool, err := amm.Initialize(amm.InitParams{
		Address:        addr,
		Seed:           req.Seed,
		FeeBps:         req.FeeBps,
		ProtocolFeeBps: req.ProtocolFeeBps,
		Authority:      req.Authority,
	})
	if err != nil {
		return model.PoolState{}, s.reject("init", addr, model.PoolState{}, err)
	}
	if err := s.store.CommitPool(ctx, pool, 0); err != nil {
		if errors.Is(err, storage.ErrVersionConflict) {
			return model.PoolState{}, errorsmod.Wrapf(amm.ErrInvalidConfig, "pool %s already initialized", addr.Hex())
		}
		return model.PoolState{}, fmt.Errorf("commit pool %s: %w", addr.Hex(), err)
	}

	s.logger.Info("pool initialized",
		zap.String("pool", addr.Hex()),
		zap.Uint64("seed", req.Seed),
		zap.Uint16("fee_bps", req.FeeBps),
		zap.String("lp_mint", identity.LPMintAddress(addr).Hex()),
	)
	s.emit(ctx, "init", pool, func() ([]model.LogRecord, error) {
		return s.encoder.Initialized(pool)
	})
	return pool, nil
}

// Deposit mints shares to the provider.
func (s *Service) Deposit(ctx context.Context, req DepositRequest) (amm.DepositResult, error) {
	var res amm.DepositResult
	next, err := s.apply(ctx, "deposit", req.Pool, func(ctx context.Context, pool model.PoolState) (commit, error) {
		pos, err := s.store.LoadPosition(ctx, req.Pool, req.Provider)
		if err != nil {
			return commit{}, fmt.Errorf("load position: %w", err)
		}
		next, out, err := amm.Deposit(pool, req.Shares, req.MaxX, req.MaxY, req.Bootstrap)
		if err != nil {
			return commit{}, err
		}
		if pos.Shares, err = fixedpoint.Add(pos.Shares, out.SharesMinted); err != nil {
			return commit{}, errorsmod.Wrap(amm.ErrOverflow, "position shares")
		}
		res = out
		return commit{next: next, positions: []model.Position{pos}}, nil
	})
	if err != nil {
		return amm.DepositResult{}, err
	}
	s.emit(ctx, "deposit", next, func() ([]model.LogRecord, error) {
		return s.encoder.Deposit(next, req.Provider, res)
	})
	return res, nil
}

// Withdraw burns shares held by the provider.
func (s *Service) Withdraw(ctx context.Context, req WithdrawRequest) (amm.WithdrawResult, error) {
	var res amm.WithdrawResult
	next, err := s.apply(ctx, "withdraw", req.Pool, func(ctx context.Context, pool model.PoolState) (commit, error) {
		pos, err := s.store.LoadPosition(ctx, req.Pool, req.Provider)
		if err != nil {
			return commit{}, fmt.Errorf("load position: %w", err)
		}
		next, out, err := amm.Withdraw(pool, req.Shares, req.MinX, req.MinY, pos.Shares)
		if err != nil {
			return commit{}, err
		}
		pos.Shares -= out.SharesBurned
		res = out
		return commit{next: next, positions: []model.Position{pos}}, nil
	})
	if err != nil {
		return amm.WithdrawResult{}, err
	}
	if res.Closed {
		s.logger.Info("pool closed", zap.String("pool", req.Pool.Hex()))
	}
	s.emit(ctx, "withdraw", next, func() ([]model.LogRecord, error) {
		return s.encoder.Withdraw(next, req.Provider, res)
	})
	return res, nil
}

// Swap trades against the pool.
func (s *Service) Swap(ctx context.Context, req SwapRequest) (amm.SwapResult, error) {
	var res amm.SwapResult
	next, err := s.apply(ctx, "swap", req.Pool, func(_ context.Context, pool model.PoolState) (commit, error) {
		next, out, err := amm.Swap(pool, req.Side, req.AmountIn, req.MinOut)
		if err != nil {
			return commit{}, err
		}
		res = out
		return commit{next: next}, nil
	})
	if err != nil {
		return amm.SwapResult{}, err
	}
	s.emit(ctx, "swap", next, func() ([]model.LogRecord, error) {
		return s.encoder.Swap(next, req.Trader, res)
	})
	return res, nil
}

// SetLock halts or resumes trading.
func (s *Service) SetLock(ctx context.Context, pool, caller common.Address, locked bool) (model.PoolState, error) {
	next, err := s.apply(ctx, "set_lock", pool, func(_ context.Context, current model.PoolState) (commit, error) {
		next, err := amm.SetLock(current, caller, locked)
		if err != nil {
			return commit{}, err
		}
		return commit{next: next}, nil
	})
	if err != nil {
		return model.PoolState{}, err
	}
	s.logger.Info("pool lock changed", zap.String("pool", pool.Hex()), zap.Bool("locked", locked))
	s.emit(ctx, "set_lock", next, func() ([]model.LogRecord, error) {
		return s.encoder.Lock(next, caller)
	})
	return next, nil
}

// CollectProtocolFees pays accrued protocol fees to the authority.
func (s *Service) CollectProtocolFees(ctx context.Context, pool, caller common.Address) (amm.FeeCollection, error) {
	var fees amm.FeeCollection
	next, err := s.apply(ctx, "collect_fees", pool, func(_ context.Context, current model.PoolState) (commit, error) {
		next, out, err := amm.CollectProtocolFees(current, caller)
		if err != nil {
			return commit{}, err
		}
		fees = out
		return commit{next: next}, nil
	})
	if err != nil {
		return amm.FeeCollection{}, err
	}
	s.emit(ctx, "collect_fees", next, func() ([]model.LogRecord, error) {
		return s.encoder.Collect(next, caller, fees)
	})
	return fees, nil
}

// QuoteSwap previews a swap without committing it.
func (s *Service) QuoteSwap(ctx context.Context, pool common.Address, side amm.Side, amountIn uint64) (amm.SwapQuote, error) {
	current, err := s.store.LoadPool(ctx, pool)
	if err != nil {
		return amm.SwapQuote{}, err
	}
	if _, _, err := amm.Swap(current, side, amountIn, 0); err != nil {
		return amm.SwapQuote{}, err
	}
	return amm.SwapOutput(current, side, amountIn, 0)
}

// QuoteIn returns the input needed to receive at least amountOut.
func (s *Service) QuoteIn(ctx context.Context, pool common.Address, side amm.Side, amountOut uint64) (uint64, error) {
	current, err := s.store.LoadPool(ctx, pool)
	if err != nil {
		return 0, err
	}
	return amm.QuoteIn(current, side, amountOut)
}

// Pool returns the stored snapshot.
func (s *Service) Pool(ctx context.Context, pool common.Address) (model.PoolState, error) {
	return s.store.LoadPool(ctx, pool)
}

// Pools lists every stored snapshot.
func (s *Service) Pools(ctx context.Context) ([]model.PoolState, error) {
	return s.store.ListPools(ctx)
}

// Position returns the shares owner holds in pool.
func (s *Service) Position(ctx context.Context, pool, owner common.Address) (model.Position, error) {
	return s.store.LoadPosition(ctx, pool, owner)
}

type commit struct {
	next      model.PoolState
	positions []model.Position
}

// apply loads the pool, runs fn and commits its result. A version conflict
// reloads the snapshot and runs fn again.
func (s *Service) apply(ctx context.Context, op string, pool common.Address, fn func(context.Context, model.PoolState) (commit, error)) (model.PoolState, error) {
	s.locks.Lock(pool)
	defer s.locks.Unlock(pool)

	var (
		current model.PoolState
		result  commit
	)
	err := withRetry(ctx, s.cfg.MaxRetries, s.cfg.RetryBackoff, isVersionConflict, func(ctx context.Context) error {
		var err error
		current, err = s.store.LoadPool(ctx, pool)
		if err != nil {
			return err
		}
		result, err = fn(ctx, current)
		if err != nil {
			return err
		}
		err = s.store.CommitPool(ctx, result.next, current.Version, result.positions...)
		if isVersionConflict(err) {
			s.logger.Warn("pool version conflict",
				zap.String("op", op),
				zap.String("pool", pool.Hex()),
				zap.Uint64("expected_version", current.Version),
			)
		}
		return err
	})
	if err != nil {
		return model.PoolState{}, s.reject(op, pool, current, err)
	}

	s.logger.Debug("pool committed",
		zap.String("op", op),
		zap.String("pool", pool.Hex()),
		zap.Uint64("version", result.next.Version),
		zap.Uint64("reserve_x", result.next.ReserveX),
		zap.Uint64("reserve_y", result.next.ReserveY),
		zap.Uint64("lp_supply", result.next.LPSupply),
	)
	return result.next, nil
}

func (s *Service) reject(op string, pool common.Address, snapshot model.PoolState, err error) error {
	fields := []zap.Field{
		zap.String("op", op),
		zap.String("pool", pool.Hex()),
		zap.Error(err),
	}
	switch {
	case amm.IsFatal(err):
		s.logger.Error("pool invariant violated", append(fields, zap.Any("snapshot", snapshot))...)
	case amm.Code(err) != 0:
		s.logger.Debug("operation rejected", append(fields, zap.Uint32("code", amm.Code(err)))...)
	default:
		s.logger.Warn("operation failed", fields...)
	}
	return fmt.Errorf("%s %s: %w", op, pool.Hex(), err)
}

// emit journals events for a committed operation. The commit already stands,
// so failures are logged rather than returned.
func (s *Service) emit(ctx context.Context, op string, pool model.PoolState, build func() ([]model.LogRecord, error)) {
	records, err := build()
	if err == nil {
		err = s.journal.PutLogBatch(ctx, records)
	}
	if err != nil {
		s.logger.Error("journal events",
			zap.String("op", op),
			zap.String("pool", pool.Address.Hex()),
			zap.Uint64("version", pool.Version),
			zap.Error(err),
		)
	}
}

func isVersionConflict(err error) bool {
	return errors.Is(err, storage.ErrVersionConflict)
}
