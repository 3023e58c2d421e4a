package amm

import (
	errorsmod "cosmossdk.io/errors"
	"github.com/ethereum/go-ethereum/common"

	"cpamm/internal/model"
)

// Authorize succeeds only when caller is the pool's configured authority.
// A pool created without an authority rejects every caller.
func Authorize(pool model.PoolState, caller common.Address) error {
	if pool.Authority == nil {
		return errorsmod.Wrapf(ErrUnauthorized, "pool %s has no authority", pool.Address.Hex())
	}
	if *pool.Authority != caller {
		return errorsmod.Wrapf(ErrUnauthorized, "caller %s is not the pool authority", caller.Hex())
	}
	return nil
}

// requireTradable gates deposit, withdraw and swap. A closed pool only
// accepts the deposit that bootstraps it again.
func requireTradable(pool model.PoolState, op string) error {
	switch pool.Status {
	case model.StatusActive:
	case model.StatusClosed:
		if op != opDeposit {
			return errorsmod.Wrapf(ErrPoolLocked, "%s: pool is closed", op)
		}
	default:
		return errorsmod.Wrapf(ErrPoolLocked, "%s: pool is not initialized", op)
	}
	if pool.Locked {
		return errorsmod.Wrapf(ErrPoolLocked, "%s: pool is halted", op)
	}
	return nil
}
