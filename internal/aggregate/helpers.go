package aggregate

import (
	"math/big"
	"time"
)

const ratioScale = 18

func computeRate(fee, reserve *big.Int) *string {
	if fee == nil || fee.Sign() == 0 || reserve == nil || reserve.Sign() == 0 {
		return nil
	}
	rate := new(big.Rat).SetFrac(fee, reserve).FloatString(ratioScale)
	return &rate
}

// computeAPR annualizes the window fee rate. Each side holds half of a
// constant-product pool's value, so the pool rate is half the summed rates.
func computeAPR(feeRateX, feeRateY *string, windowSeconds uint64) *string {
	if windowSeconds == 0 || (feeRateX == nil && feeRateY == nil) {
		return nil
	}
	total := new(big.Rat)
	for _, rate := range []*string{feeRateX, feeRateY} {
		if rate == nil {
			continue
		}
		r, ok := new(big.Rat).SetString(*rate)
		if !ok {
			return nil
		}
		total.Add(total, r)
	}

	total.Quo(total, big.NewRat(2, 1))

	yearSeconds := big.NewRat(int64(365*24*time.Hour/time.Second), 1)
	window := big.NewRat(int64(windowSeconds), 1)
	apr := new(big.Rat).Mul(total, yearSeconds)
	apr.Quo(apr, window)
	val := apr.FloatString(ratioScale)
	return &val
}

func optionalString(v *big.Int) *string {
	if v == nil {
		return nil
	}
	s := v.String()
	return &s
}

func unixTime(ts uint64) time.Time {
	return time.Unix(int64(ts), 0).UTC()
}

func windowStart(ts uint64, windowSec uint64) uint64 {
	return ts - (ts % windowSec)
}
