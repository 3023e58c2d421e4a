package aggregate

import (
	"fmt"
	"math/big"

	"cpamm/internal/events"
	"cpamm/internal/model"
)

// Accumulator holds aggregate values for a pool window.
type Accumulator struct {
	Pool        string
	WindowStart uint64
	WindowEnd   uint64
	SwapCount   uint64
	MintCount   uint64
	BurnCount   uint64
	VolumeX     *big.Int
	VolumeY     *big.Int
	FeeX        *big.Int
	FeeY        *big.Int
	ReserveX    *big.Int
	ReserveY    *big.Int
	LPSupply    *big.Int
	LastTS      uint64
}

func NewAccumulator(event *model.TypedEvent, windowStart, windowEnd uint64) *Accumulator {
	return &Accumulator{
		Pool:        event.Pool,
		WindowStart: windowStart,
		WindowEnd:   windowEnd,
		VolumeX:     big.NewInt(0),
		VolumeY:     big.NewInt(0),
		FeeX:        big.NewInt(0),
		FeeY:        big.NewInt(0),
		LastTS:      event.Timestamp,
	}
}

func (a *Accumulator) AddEvent(event *model.TypedEvent) error {
	if event.Timestamp > a.LastTS {
		a.LastTS = event.Timestamp
	}

	switch data := event.Decoded.(type) {
	case model.SwapEventData:
		return a.applySwap(data)
	case model.SyncEventData:
		return a.applySync(data)
	case model.MintEventData:
		a.MintCount++
	case model.BurnEventData:
		a.BurnCount++
	default:
		if event.EventName == events.EventSwap || event.EventName == events.EventSync {
			return fmt.Errorf("unexpected %s payload %T", event.EventName, event.Decoded)
		}
	}
	return nil
}

func (a *Accumulator) applySwap(swap model.SwapEventData) error {
	values, err := parseBigInts(swap.AmountXIn, swap.AmountYIn, swap.AmountXOut, swap.AmountYOut, swap.Fee)
	if err != nil {
		return err
	}
	xIn, yIn, xOut, yOut, fee := values[0], values[1], values[2], values[3], values[4]

	a.VolumeX.Add(a.VolumeX, xIn).Add(a.VolumeX, xOut)
	a.VolumeY.Add(a.VolumeY, yIn).Add(a.VolumeY, yOut)
	// the fee is charged in the input token
	if xIn.Sign() > 0 {
		a.FeeX.Add(a.FeeX, fee)
	} else {
		a.FeeY.Add(a.FeeY, fee)
	}
	a.SwapCount++
	return nil
}

func (a *Accumulator) applySync(sync model.SyncEventData) error {
	values, err := parseBigInts(sync.ReserveX, sync.ReserveY, sync.LPSupply)
	if err != nil {
		return err
	}
	a.ReserveX, a.ReserveY, a.LPSupply = values[0], values[1], values[2]
	return nil
}

// Stats renders the window.
func (a *Accumulator) Stats(windowSeconds uint64) model.PoolWindowStats {
	feeRateX := computeRate(a.FeeX, a.ReserveX)
	feeRateY := computeRate(a.FeeY, a.ReserveY)
	return model.PoolWindowStats{
		Pool:           a.Pool,
		WindowSizeSecs: int64(windowSeconds),
		WindowStart:    unixTime(a.WindowStart),
		WindowEnd:      unixTime(a.WindowEnd),
		SwapCount:      a.SwapCount,
		MintCount:      a.MintCount,
		BurnCount:      a.BurnCount,
		VolumeX:        a.VolumeX.String(),
		VolumeY:        a.VolumeY.String(),
		FeeX:           a.FeeX.String(),
		FeeY:           a.FeeY.String(),
		ReserveX:       optionalString(a.ReserveX),
		ReserveY:       optionalString(a.ReserveY),
		LPSupply:       optionalString(a.LPSupply),
		FeeRateX:       feeRateX,
		FeeRateY:       feeRateY,
		APR:            computeAPR(feeRateX, feeRateY, windowSeconds),
	}
}

func parseBigInts(values ...string) ([]*big.Int, error) {
	out := make([]*big.Int, len(values))
	for i, value := range values {
		if value == "" {
			out[i] = big.NewInt(0)
			continue
		}
		parsed, ok := new(big.Int).SetString(value, 10)
		if !ok {
			return nil, fmt.Errorf("invalid int: %s", value)
		}
		out[i] = parsed
	}
	return out, nil
}
