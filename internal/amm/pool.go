package amm

import (
	errorsmod "cosmossdk.io/errors"
	"github.com/ethereum/go-ethereum/common"

	"cpamm/internal/fixedpoint"
	"cpamm/internal/model"
)

const (
	opDeposit  = "deposit"
	opWithdraw = "withdraw"
	opSwap     = "swap"
	opSetLock  = "set_lock"
	opCollect  = "collect_protocol_fees"
)

// InitParams configures a new pool.
type InitParams struct {
	Address        common.Address
	Seed           uint64
	FeeBps         uint16
	ProtocolFeeBps uint16
	Authority      *common.Address
}

// DepositResult is the effect of a committed deposit.
type DepositResult struct {
	AmountX      uint64 `json:"amount_x"`
	AmountY      uint64 `json:"amount_y"`
	SharesMinted uint64 `json:"shares_minted"`
	Bootstrap    bool   `json:"bootstrap"`
}

// WithdrawResult is the effect of a committed withdraw.
type WithdrawResult struct {
	AmountX      uint64 `json:"amount_x"`
	AmountY      uint64 `json:"amount_y"`
	SharesBurned uint64 `json:"shares_burned"`
	Closed       bool   `json:"closed"`
}

// SwapResult is the effect of a committed swap.
type SwapResult struct {
	Side        Side   `json:"side"`
	AmountIn    uint64 `json:"amount_in"`
	AmountOut   uint64 `json:"amount_out"`
	FeeCharged  uint64 `json:"fee_charged"`
	ProtocolFee uint64 `json:"protocol_fee"`
}

// FeeCollection is the protocol fee paid out to the authority.
type FeeCollection struct {
	AmountX uint64 `json:"amount_x"`
	AmountY uint64 `json:"amount_y"`
}

// Initialize creates an active, unlocked, empty pool.
func Initialize(params InitParams) (model.PoolState, error) {
	if params.FeeBps > BpsDenominator {
		return model.PoolState{}, errorsmod.Wrapf(ErrInvalidConfig, "fee %d bps exceeds %d", params.FeeBps, BpsDenominator)
	}
	if params.ProtocolFeeBps > BpsDenominator {
		return model.PoolState{}, errorsmod.Wrapf(ErrInvalidConfig, "protocol fee share %d bps exceeds %d", params.ProtocolFeeBps, BpsDenominator)
	}
	if params.Authority != nil && *params.Authority == (common.Address{}) {
		return model.PoolState{}, errorsmod.Wrap(ErrInvalidConfig, "authority must not be the zero address")
	}

	pool := model.PoolState{
		Address:        params.Address,
		Seed:           params.Seed,
		Status:         model.StatusActive,
		FeeBps:         params.FeeBps,
		ProtocolFeeBps: params.ProtocolFeeBps,
		Version:        1,
	}
	if params.Authority != nil {
		auth := *params.Authority
		pool.Authority = &auth
	}
	return pool, nil
}

// Deposit adds liquidity. A bootstrap deposit takes exactly maxX and maxY and
// mints isqrt(maxX*maxY) shares, failing when that is below lpAmountRequested.
// Otherwise lpAmountRequested shares are minted at a rounded-up price.
//
// On error the input pool is returned unchanged.
func Deposit(pool model.PoolState, lpAmountRequested, maxX, maxY uint64, callerIsBootstrap bool) (model.PoolState, DepositResult, error) {
	if err := requireTradable(pool, opDeposit); err != nil {
		return pool, DepositResult{}, err
	}
	if callerIsBootstrap != pool.NeedsBootstrap() {
		return pool, DepositResult{}, errorsmod.Wrapf(ErrInvalidAmount, "bootstrap=%t but pool supply is %d", callerIsBootstrap, pool.LPSupply)
	}

	var (
		quote DepositQuote
		err   error
	)
	if callerIsBootstrap {
		if pool.ReserveX != 0 || pool.ReserveY != 0 {
			return pool, DepositResult{}, errorsmod.Wrapf(ErrInvariantViolation, "no shares but reserves x=%d y=%d", pool.ReserveX, pool.ReserveY)
		}
		quote, err = BootstrapDeposit(maxX, maxY)
		if err != nil {
			return pool, DepositResult{}, err
		}
		if quote.Shares < lpAmountRequested {
			return pool, DepositResult{}, errorsmod.Wrapf(ErrSlippageExceeded, "bootstrap mints %d shares, requested %d", quote.Shares, lpAmountRequested)
		}
	} else {
		quote, err = ProportionalDeposit(pool, lpAmountRequested, maxX, maxY)
		if err != nil {
			return pool, DepositResult{}, err
		}
	}

	next := pool.Clone()
	if next.ReserveX, err = fixedpoint.Add(pool.ReserveX, quote.AmountX); err != nil {
		return pool, DepositResult{}, mathErr(err, "reserve x")
	}
	if next.ReserveY, err = fixedpoint.Add(pool.ReserveY, quote.AmountY); err != nil {
		return pool, DepositResult{}, mathErr(err, "reserve y")
	}
	if next.LPSupply, err = fixedpoint.Add(pool.LPSupply, quote.Shares); err != nil {
		return pool, DepositResult{}, mathErr(err, "lp supply")
	}
	next.Status = model.StatusActive
	if err := checkShareValue(pool, next); err != nil {
		return pool, DepositResult{}, err
	}
	next.Version++

	return next, DepositResult{
		AmountX:      quote.AmountX,
		AmountY:      quote.AmountY,
		SharesMinted: quote.Shares,
		Bootstrap:    quote.Bootstrap,
	}, nil
}

// Withdraw burns lpAmount shares for a rounded-down slice of both reserves.
// Burning the whole supply closes the pool.
//
// On error the input pool is returned unchanged.
func Withdraw(pool model.PoolState, lpAmount, minX, minY, callerShareBalance uint64) (model.PoolState, WithdrawResult, error) {
	if err := requireTradable(pool, opWithdraw); err != nil {
		return pool, WithdrawResult{}, err
	}

	quote, err := WithdrawAmounts(pool, lpAmount, minX, minY, callerShareBalance)
	if err != nil {
		return pool, WithdrawResult{}, err
	}

	next := pool.Clone()
	if next.ReserveX, err = fixedpoint.Sub(pool.ReserveX, quote.AmountX); err != nil {
		return pool, WithdrawResult{}, mathErr(err, "reserve x")
	}
	if next.ReserveY, err = fixedpoint.Sub(pool.ReserveY, quote.AmountY); err != nil {
		return pool, WithdrawResult{}, mathErr(err, "reserve y")
	}
	if next.LPSupply, err = fixedpoint.Sub(pool.LPSupply, quote.Shares); err != nil {
		return pool, WithdrawResult{}, mathErr(err, "lp supply")
	}

	closed := next.LPSupply == 0
	switch {
	case closed && (next.ReserveX != 0 || next.ReserveY != 0):
		return pool, WithdrawResult{}, errorsmod.Wrapf(ErrInvariantViolation, "drained supply left reserves x=%d y=%d", next.ReserveX, next.ReserveY)
	case !closed && (next.ReserveX == 0 || next.ReserveY == 0):
		return pool, WithdrawResult{}, errorsmod.Wrapf(ErrInvariantViolation, "supply %d left with empty reserve", next.LPSupply)
	}
	if closed {
		next.Status = model.StatusClosed
	}
	if err := checkShareValue(pool, next); err != nil {
		return pool, WithdrawResult{}, err
	}
	next.Version++

	return next, WithdrawResult{
		AmountX:      quote.AmountX,
		AmountY:      quote.AmountY,
		SharesBurned: quote.Shares,
		Closed:       closed,
	}, nil
}

// Swap trades amountIn of side for the other token.
//
// On error the input pool is returned unchanged.
func Swap(pool model.PoolState, side Side, amountIn, minOut uint64) (model.PoolState, SwapResult, error) {
	if err := requireTradable(pool, opSwap); err != nil {
		return pool, SwapResult{}, err
	}

	quote, err := SwapOutput(pool, side, amountIn, minOut)
	if err != nil {
		return pool, SwapResult{}, err
	}

	next := pool.Clone()
	switch side {
	case SideX:
		next.ReserveX, next.ReserveY = quote.NewReserveIn, quote.NewReserveOut
		next.ProtocolFeesX, err = fixedpoint.Add(pool.ProtocolFeesX, quote.ProtocolFee)
	case SideY:
		next.ReserveY, next.ReserveX = quote.NewReserveIn, quote.NewReserveOut
		next.ProtocolFeesY, err = fixedpoint.Add(pool.ProtocolFeesY, quote.ProtocolFee)
	}
	if err != nil {
		return pool, SwapResult{}, mathErr(err, "protocol fee accrual")
	}
	if err := checkProduct(pool.ReserveX, pool.ReserveY, next.ReserveX, next.ReserveY); err != nil {
		return pool, SwapResult{}, err
	}
	next.Version++

	return next, SwapResult{
		Side:        side,
		AmountIn:    quote.AmountIn,
		AmountOut:   quote.AmountOut,
		FeeCharged:  quote.Fee,
		ProtocolFee: quote.ProtocolFee,
	}, nil
}

// SetLock halts or resumes trading. Only the pool authority may call it and
// reserves are never touched.
func SetLock(pool model.PoolState, caller common.Address, locked bool) (model.PoolState, error) {
	if err := Authorize(pool, caller); err != nil {
		return pool, errorsmod.Wrap(err, opSetLock)
	}
	next := pool.Clone()
	next.Locked = locked
	next.Version++
	return next, nil
}

// CollectProtocolFees pays the accrued protocol fees to the authority.
func CollectProtocolFees(pool model.PoolState, caller common.Address) (model.PoolState, FeeCollection, error) {
	if err := Authorize(pool, caller); err != nil {
		return pool, FeeCollection{}, errorsmod.Wrap(err, opCollect)
	}
	out := FeeCollection{AmountX: pool.ProtocolFeesX, AmountY: pool.ProtocolFeesY}
	next := pool.Clone()
	next.ProtocolFeesX = 0
	next.ProtocolFeesY = 0
	next.Version++
	return next, out, nil
}
