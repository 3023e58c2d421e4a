package amm

import (
	"errors"

	errorsmod "cosmossdk.io/errors"

	"cpamm/internal/fixedpoint"
)

// Codespace for registered pool errors.
const Codespace = "amm"

// Pool errors. Codes follow the on-chain custom error range.
var (
	ErrInvalidConfig         = errorsmod.Register(Codespace, 6000, "invalid config")
	ErrInvalidAmount         = errorsmod.Register(Codespace, 6001, "invalid amount")
	ErrPoolLocked            = errorsmod.Register(Codespace, 6002, "pool locked")
	ErrInsufficientTokenX    = errorsmod.Register(Codespace, 6003, "insufficient token x")
	ErrInsufficientTokenY    = errorsmod.Register(Codespace, 6004, "insufficient token y")
	ErrInsufficientBalance   = errorsmod.Register(Codespace, 6005, "insufficient balance")
	ErrSlippageExceeded      = errorsmod.Register(Codespace, 6006, "slippage exceeded")
	ErrInsufficientLiquidity = errorsmod.Register(Codespace, 6007, "insufficient liquidity")
	ErrUnauthorized          = errorsmod.Register(Codespace, 6008, "unauthorized")
	ErrOverflow              = errorsmod.Register(Codespace, 6009, "overflow")
	ErrDivideByZero          = errorsmod.Register(Codespace, 6010, "divide by zero")
	ErrInvariantViolation    = errorsmod.Register(Codespace, 6011, "invariant violation")
)

// IsSlippage reports whether err is a caller-bound violation. Deposits name
// the token that exceeded its ceiling, everything else uses ErrSlippageExceeded.
func IsSlippage(err error) bool {
	return errorsmod.IsOf(err, ErrSlippageExceeded, ErrInsufficientTokenX, ErrInsufficientTokenY)
}

// IsFatal reports whether err signals an internal consistency defect rather
// than a user-facing rejection.
func IsFatal(err error) bool {
	return errorsmod.IsOf(err, ErrInvariantViolation)
}

// Code returns the registered error code of err, or 0 when err is not a pool error.
func Code(err error) uint32 {
	var coded *errorsmod.Error
	if errors.As(err, &coded) && coded.Codespace() == Codespace {
		return coded.ABCICode()
	}
	return 0
}

func mathErr(err error, op string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, fixedpoint.ErrDivideByZero):
		return errorsmod.Wrap(ErrDivideByZero, op)
	case errors.Is(err, fixedpoint.ErrOverflow):
		return errorsmod.Wrap(ErrOverflow, op)
	default:
		return errorsmod.Wrap(err, op)
	}
}
