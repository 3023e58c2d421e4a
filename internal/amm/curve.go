package amm

import (
	"fmt"
	"strings"

	errorsmod "cosmossdk.io/errors"

	"cpamm/internal/fixedpoint"
	"cpamm/internal/model"
)

// BpsDenominator is 100% in basis points.
const BpsDenominator = 10_000

// Side names the token a swap pays in.
type Side uint8

const (
	SideX Side = iota
	SideY
)

func (s Side) String() string {
	switch s {
	case SideX:
		return "x"
	case SideY:
		return "y"
	default:
		return fmt.Sprintf("side(%d)", uint8(s))
	}
}

// MarshalText encodes the side as "x" or "y".
func (s Side) MarshalText() ([]byte, error) {
	if s != SideX && s != SideY {
		return nil, fmt.Errorf("invalid side %d", uint8(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText decodes "x" or "y".
func (s *Side) UnmarshalText(text []byte) error {
	parsed, err := ParseSide(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseSide parses "x" or "y".
func ParseSide(input string) (Side, error) {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "x":
		return SideX, nil
	case "y":
		return SideY, nil
	default:
		return 0, errorsmod.Wrapf(ErrInvalidAmount, "unknown side %q", input)
	}
}

// DepositQuote is the curve result for a deposit.
type DepositQuote struct {
	AmountX   uint64 `json:"amount_x"`
	AmountY   uint64 `json:"amount_y"`
	Shares    uint64 `json:"shares"`
	Bootstrap bool   `json:"bootstrap"`
}

// WithdrawQuote is the curve result for burning shares.
type WithdrawQuote struct {
	AmountX uint64 `json:"amount_x"`
	AmountY uint64 `json:"amount_y"`
	Shares  uint64 `json:"shares"`
}

// SwapQuote is the curve result for an exact-input swap.
type SwapQuote struct {
	Side             Side   `json:"side"`
	AmountIn         uint64 `json:"amount_in"`
	AmountInAfterFee uint64 `json:"amount_in_after_fee"`
	Fee              uint64 `json:"fee"`
	ProtocolFee      uint64 `json:"protocol_fee"`
	AmountOut        uint64 `json:"amount_out"`
	NewReserveIn     uint64 `json:"new_reserve_in"`
	NewReserveOut    uint64 `json:"new_reserve_out"`
}

// BootstrapDeposit mints the first shares as the geometric mean of the deposit.
func BootstrapDeposit(amountX, amountY uint64) (DepositQuote, error) {
	if amountX == 0 || amountY == 0 {
		return DepositQuote{}, errorsmod.Wrapf(ErrInvalidAmount, "bootstrap requires both amounts, got x=%d y=%d", amountX, amountY)
	}
	shares := fixedpoint.IsqrtProduct(amountX, amountY)
	if shares == 0 {
		return DepositQuote{}, errorsmod.Wrap(ErrInvalidAmount, "bootstrap mints zero shares")
	}
	return DepositQuote{AmountX: amountX, AmountY: amountY, Shares: shares, Bootstrap: true}, nil
}

// ProportionalDeposit prices lpAmount new shares against the current reserves.
// Required inputs round up.
func ProportionalDeposit(pool model.PoolState, lpAmount, maxX, maxY uint64) (DepositQuote, error) {
	if lpAmount == 0 {
		return DepositQuote{}, errorsmod.Wrap(ErrInvalidAmount, "lp amount must be greater than zero")
	}
	if pool.LPSupply == 0 {
		return DepositQuote{}, errorsmod.Wrap(ErrInvalidAmount, "pool has no shares, bootstrap deposit required")
	}
	if pool.ReserveX == 0 || pool.ReserveY == 0 {
		return DepositQuote{}, errorsmod.Wrapf(ErrInvariantViolation, "supply %d with empty reserves", pool.LPSupply)
	}

	amountX, err := fixedpoint.MulDiv(lpAmount, pool.ReserveX, pool.LPSupply, fixedpoint.RoundUp)
	if err != nil {
		return DepositQuote{}, mathErr(err, "deposit amount x")
	}
	amountY, err := fixedpoint.MulDiv(lpAmount, pool.ReserveY, pool.LPSupply, fixedpoint.RoundUp)
	if err != nil {
		return DepositQuote{}, mathErr(err, "deposit amount y")
	}

	if amountX > maxX {
		return DepositQuote{}, errorsmod.Wrapf(ErrInsufficientTokenX, "requires %d, max %d", amountX, maxX)
	}
	if amountY > maxY {
		return DepositQuote{}, errorsmod.Wrapf(ErrInsufficientTokenY, "requires %d, max %d", amountY, maxY)
	}

	return DepositQuote{AmountX: amountX, AmountY: amountY, Shares: lpAmount}, nil
}

// WithdrawAmounts prices burning lpAmount shares. Payouts round down.
func WithdrawAmounts(pool model.PoolState, lpAmount, minX, minY, callerShareBalance uint64) (WithdrawQuote, error) {
	if lpAmount == 0 {
		return WithdrawQuote{}, errorsmod.Wrap(ErrInvalidAmount, "lp amount must be greater than zero")
	}
	if lpAmount > callerShareBalance {
		return WithdrawQuote{}, errorsmod.Wrapf(ErrInsufficientBalance, "burn %d, balance %d", lpAmount, callerShareBalance)
	}
	if lpAmount > pool.LPSupply {
		return WithdrawQuote{}, errorsmod.Wrapf(ErrInvalidAmount, "burn %d exceeds supply %d", lpAmount, pool.LPSupply)
	}

	amountX, err := fixedpoint.MulDiv(lpAmount, pool.ReserveX, pool.LPSupply, fixedpoint.RoundDown)
	if err != nil {
		return WithdrawQuote{}, mathErr(err, "withdraw amount x")
	}
	amountY, err := fixedpoint.MulDiv(lpAmount, pool.ReserveY, pool.LPSupply, fixedpoint.RoundDown)
	if err != nil {
		return WithdrawQuote{}, mathErr(err, "withdraw amount y")
	}

	if amountX < minX || amountY < minY {
		return WithdrawQuote{}, errorsmod.Wrapf(ErrSlippageExceeded, "returns x=%d y=%d, min x=%d y=%d", amountX, amountY, minX, minY)
	}

	return WithdrawQuote{AmountX: amountX, AmountY: amountY, Shares: lpAmount}, nil
}

// SwapOutput prices an exact-input swap. The fee is skimmed first and rounds
// down; the output reserve rounds up so the trader never receives the remainder.
func SwapOutput(pool model.PoolState, side Side, amountIn, minOut uint64) (SwapQuote, error) {
	if side != SideX && side != SideY {
		return SwapQuote{}, errorsmod.Wrapf(ErrInvalidAmount, "unknown side %d", side)
	}
	if amountIn == 0 {
		return SwapQuote{}, errorsmod.Wrap(ErrInvalidAmount, "amount in must be greater than zero")
	}
	if pool.FeeBps > BpsDenominator || pool.ProtocolFeeBps > BpsDenominator {
		return SwapQuote{}, errorsmod.Wrapf(ErrInvalidConfig, "fee %d bps, protocol share %d bps", pool.FeeBps, pool.ProtocolFeeBps)
	}

	reserveIn, reserveOut := reservesFor(pool, side)
	if reserveIn == 0 || reserveOut == 0 {
		return SwapQuote{}, errorsmod.Wrap(ErrInsufficientLiquidity, "pool reserves are empty")
	}

	afterFee, err := fixedpoint.MulDiv(amountIn, uint64(BpsDenominator-pool.FeeBps), BpsDenominator, fixedpoint.RoundDown)
	if err != nil {
		return SwapQuote{}, mathErr(err, "amount after fee")
	}
	fee := amountIn - afterFee
	protocolFee, err := fixedpoint.MulDiv(fee, uint64(pool.ProtocolFeeBps), BpsDenominator, fixedpoint.RoundDown)
	if err != nil {
		return SwapQuote{}, mathErr(err, "protocol fee")
	}

	curveIn, err := fixedpoint.Add(reserveIn, afterFee)
	if err != nil {
		return SwapQuote{}, mathErr(err, "reserve in after fee")
	}
	// Output reserve rounds up so the trader receives the floor of the output.
	newReserveOut, err := fixedpoint.MulDiv(reserveIn, reserveOut, curveIn, fixedpoint.RoundUp)
	if err != nil {
		return SwapQuote{}, mathErr(err, "reserve out")
	}
	if newReserveOut > reserveOut {
		return SwapQuote{}, errorsmod.Wrapf(ErrInvariantViolation, "reserve out grew from %d to %d", reserveOut, newReserveOut)
	}
	amountOut := reserveOut - newReserveOut
	if amountOut == 0 || amountOut >= reserveOut {
		return SwapQuote{}, errorsmod.Wrapf(ErrInsufficientLiquidity, "output %d against reserve %d", amountOut, reserveOut)
	}
	if amountOut < minOut {
		return SwapQuote{}, errorsmod.Wrapf(ErrSlippageExceeded, "output %d below minimum %d", amountOut, minOut)
	}

	newReserveIn, err := fixedpoint.Add(reserveIn, amountIn-protocolFee)
	if err != nil {
		return SwapQuote{}, mathErr(err, "reserve in")
	}

	if err := checkProduct(reserveIn, reserveOut, newReserveIn, newReserveOut); err != nil {
		return SwapQuote{}, err
	}

	return SwapQuote{
		Side:             side,
		AmountIn:         amountIn,
		AmountInAfterFee: afterFee,
		Fee:              fee,
		ProtocolFee:      protocolFee,
		AmountOut:        amountOut,
		NewReserveIn:     newReserveIn,
		NewReserveOut:    newReserveOut,
	}, nil
}

// QuoteIn returns the gross input needed to receive at least amountOut.
// Both steps round up.
func QuoteIn(pool model.PoolState, side Side, amountOut uint64) (uint64, error) {
	if side != SideX && side != SideY {
		return 0, errorsmod.Wrapf(ErrInvalidAmount, "unknown side %d", side)
	}
	if amountOut == 0 {
		return 0, errorsmod.Wrap(ErrInvalidAmount, "amount out must be greater than zero")
	}
	if pool.FeeBps >= BpsDenominator {
		return 0, errorsmod.Wrapf(ErrInsufficientLiquidity, "fee %d bps leaves nothing to trade", pool.FeeBps)
	}

	reserveIn, reserveOut := reservesFor(pool, side)
	if reserveIn == 0 || reserveOut == 0 {
		return 0, errorsmod.Wrap(ErrInsufficientLiquidity, "pool reserves are empty")
	}
	if amountOut >= reserveOut {
		return 0, errorsmod.Wrapf(ErrInsufficientLiquidity, "requested %d of reserve %d", amountOut, reserveOut)
	}

	newReserveIn, err := fixedpoint.MulDiv(reserveIn, reserveOut, reserveOut-amountOut, fixedpoint.RoundUp)
	if err != nil {
		return 0, mathErr(err, "reserve in")
	}
	netIn := newReserveIn - reserveIn
	if netIn == 0 {
		return 0, errorsmod.Wrap(ErrInvariantViolation, "positive output priced at zero input")
	}

	grossIn, err := fixedpoint.MulDiv(netIn, BpsDenominator, uint64(BpsDenominator-pool.FeeBps), fixedpoint.RoundUp)
	if err != nil {
		return 0, mathErr(err, "gross amount in")
	}
	return grossIn, nil
}

func reservesFor(pool model.PoolState, side Side) (uint64, uint64) {
	if side == SideY {
		return pool.ReserveY, pool.ReserveX
	}
	return pool.ReserveX, pool.ReserveY
}

// checkProduct fails closed when k would decrease.
func checkProduct(beforeX, beforeY, afterX, afterY uint64) error {
	before := fixedpoint.Product(beforeX, beforeY)
	after := fixedpoint.Product(afterX, afterY)
	if after.Lt(before) {
		return errorsmod.Wrapf(ErrInvariantViolation, "k decreased from %s to %s", before.ToBig(), after.ToBig())
	}
	return nil
}

// checkShareValue fails closed when the reserves backing one share decrease,
// i.e. unless after/afterSupply >= before/beforeSupply for both tokens.
func checkShareValue(before, after model.PoolState) error {
	if before.LPSupply == 0 {
		return nil
	}
	pairs := [...]struct {
		name          string
		before, after uint64
	}{
		{"x", before.ReserveX, after.ReserveX},
		{"y", before.ReserveY, after.ReserveY},
	}
	for _, p := range pairs {
		lhs := fixedpoint.Product(p.after, before.LPSupply)
		rhs := fixedpoint.Product(p.before, after.LPSupply)
		if lhs.Lt(rhs) {
			return errorsmod.Wrapf(ErrInvariantViolation, "reserve %s per share decreased", p.name)
		}
	}
	return nil
}
