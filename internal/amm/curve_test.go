package amm

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"cpamm/internal/model"
)

func snapshot(x, y, supply uint64, feeBps uint16) model.PoolState {
	return model.PoolState{
		Status:   model.StatusActive,
		ReserveX: x,
		ReserveY: y,
		LPSupply: supply,
		FeeBps:   feeBps,
		Version:  1,
	}
}

func TestBootstrapDeposit(t *testing.T) {
	quote, err := BootstrapDeposit(1000, 2000)
	require.NoError(t, err)
	require.Equal(t, uint64(1414), quote.Shares)
	require.Equal(t, uint64(1000), quote.AmountX)
	require.Equal(t, uint64(2000), quote.AmountY)
	require.True(t, quote.Bootstrap)

	_, err = BootstrapDeposit(0, 2000)
	require.ErrorIs(t, err, ErrInvalidAmount)
	_, err = BootstrapDeposit(1000, 0)
	require.ErrorIs(t, err, ErrInvalidAmount)
}

func TestProportionalDepositRoundsUp(t *testing.T) {
	pool := snapshot(1500, 3000, 1414, 0)

	quote, err := ProportionalDeposit(pool, 100, 107, 213)
	require.NoError(t, err)
	require.Equal(t, uint64(107), quote.AmountX)
	require.Equal(t, uint64(213), quote.AmountY)
	require.Equal(t, uint64(100), quote.Shares)
	require.False(t, quote.Bootstrap)
}

func TestProportionalDepositErrors(t *testing.T) {
	pool := snapshot(1500, 3000, 1414, 0)

	tests := []struct {
		name    string
		lp      uint64
		maxX    uint64
		maxY    uint64
		wantErr error
	}{
		{name: "zero lp", lp: 0, maxX: 1000, maxY: 1000, wantErr: ErrInvalidAmount},
		{name: "x ceiling", lp: 100, maxX: 106, maxY: 213, wantErr: ErrInsufficientTokenX},
		{name: "y ceiling", lp: 100, maxX: 107, maxY: 212, wantErr: ErrInsufficientTokenY},
		{name: "zero max x", lp: 100, maxX: 0, maxY: 1000, wantErr: ErrInsufficientTokenX},
		{name: "zero max y", lp: 100, maxX: 1000, maxY: 0, wantErr: ErrInsufficientTokenY},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ProportionalDeposit(pool, tc.lp, tc.maxX, tc.maxY)
			require.ErrorIs(t, err, tc.wantErr)
		})
	}

	_, err := ProportionalDeposit(pool, 100, 0, 1000)
	require.True(t, IsSlippage(err))
}

func TestWithdrawAmountsRoundDown(t *testing.T) {
	pool := snapshot(1000, 2000, 1414, 0)

	quote, err := WithdrawAmounts(pool, 100, 70, 141, 1414)
	require.NoError(t, err)
	require.Equal(t, uint64(70), quote.AmountX)
	require.Equal(t, uint64(141), quote.AmountY)

	full, err := WithdrawAmounts(pool, 1414, 0, 0, 1414)
	require.NoError(t, err)
	require.Equal(t, uint64(1000), full.AmountX)
	require.Equal(t, uint64(2000), full.AmountY)
}

func TestWithdrawAmountsErrors(t *testing.T) {
	pool := snapshot(1000, 2000, 1000, 0)

	tests := []struct {
		name    string
		lp      uint64
		minX    uint64
		minY    uint64
		balance uint64
		wantErr error
	}{
		{name: "zero lp", lp: 0, balance: 1000, wantErr: ErrInvalidAmount},
		{name: "exceeds balance", lp: 1001, balance: 1000, wantErr: ErrInsufficientBalance},
		{name: "exceeds supply", lp: 1001, balance: 5000, wantErr: ErrInvalidAmount},
		{name: "min x too high", lp: 100, minX: 110, minY: 190, balance: 1000, wantErr: ErrSlippageExceeded},
		{name: "min y too high", lp: 100, minX: 95, minY: 220, balance: 1000, wantErr: ErrSlippageExceeded},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := WithdrawAmounts(pool, tc.lp, tc.minX, tc.minY, tc.balance)
			require.ErrorIs(t, err, tc.wantErr)
		})
	}

	quote, err := WithdrawAmounts(pool, 100, 95, 190, 1000)
	require.NoError(t, err)
	require.Equal(t, uint64(100), quote.AmountX)
	require.Equal(t, uint64(200), quote.AmountY)
}

func TestSwapOutputWithFee(t *testing.T) {
	pool := snapshot(1000, 2000, 1414, 300)

	quote, err := SwapOutput(pool, SideX, 100, 176)
	require.NoError(t, err)
	require.Equal(t, uint64(97), quote.AmountInAfterFee)
	require.Equal(t, uint64(3), quote.Fee)
	require.Equal(t, uint64(176), quote.AmountOut)
	require.Equal(t, uint64(1100), quote.NewReserveIn)
	require.Equal(t, uint64(1824), quote.NewReserveOut)

	_, err = SwapOutput(pool, SideX, 100, 177)
	require.ErrorIs(t, err, ErrSlippageExceeded)
}

func TestSwapOutputSideY(t *testing.T) {
	pool := snapshot(1000, 2000, 1414, 300)

	quote, err := SwapOutput(pool, SideY, 200, 0)
	require.NoError(t, err)
	require.Equal(t, uint64(194), quote.AmountInAfterFee)
	require.Equal(t, uint64(88), quote.AmountOut)
	require.Equal(t, uint64(2200), quote.NewReserveIn)
	require.Equal(t, uint64(912), quote.NewReserveOut)
}

func TestSwapOutputProtocolFee(t *testing.T) {
	pool := snapshot(1000, 2000, 1414, 300)
	pool.ProtocolFeeBps = 5000

	quote, err := SwapOutput(pool, SideX, 100, 0)
	require.NoError(t, err)
	require.Equal(t, uint64(3), quote.Fee)
	require.Equal(t, uint64(1), quote.ProtocolFee)
	require.Equal(t, uint64(1099), quote.NewReserveIn)
	require.Equal(t, uint64(176), quote.AmountOut)
}

func TestSwapOutputErrors(t *testing.T) {
	tests := []struct {
		name     string
		pool     model.PoolState
		side     Side
		amountIn uint64
		wantErr  error
	}{
		{name: "zero input", pool: snapshot(1000, 2000, 1414, 30), amountIn: 0, wantErr: ErrInvalidAmount},
		{name: "empty pool", pool: snapshot(0, 0, 0, 30), amountIn: 10, wantErr: ErrInsufficientLiquidity},
		{name: "zero output", pool: snapshot(1000, 1, 1, 0), amountIn: 10, wantErr: ErrInsufficientLiquidity},
		{name: "full fee", pool: snapshot(1000, 2000, 1414, 10_000), amountIn: 100, wantErr: ErrInsufficientLiquidity},
		{name: "bad side", pool: snapshot(1000, 2000, 1414, 30), side: Side(7), amountIn: 10, wantErr: ErrInvalidAmount},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := SwapOutput(tc.pool, tc.side, tc.amountIn, 0)
			require.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestSwapOutputNeverDrains(t *testing.T) {
	pool := snapshot(10, 5, 7, 0)
	quote, err := SwapOutput(pool, SideX, 1_000_000_000, 0)
	require.NoError(t, err)
	require.Equal(t, uint64(4), quote.AmountOut)
	require.Equal(t, uint64(1), quote.NewReserveOut)
}

func TestQuoteIn(t *testing.T) {
	pool := snapshot(1000, 2000, 1414, 300)

	in, err := QuoteIn(pool, SideX, 176)
	require.NoError(t, err)

	quote, err := SwapOutput(pool, SideX, in, 176)
	require.NoError(t, err)
	require.GreaterOrEqual(t, quote.AmountOut, uint64(176))

	_, err = QuoteIn(pool, SideX, 2000)
	require.ErrorIs(t, err, ErrInsufficientLiquidity)
	_, err = QuoteIn(pool, SideX, 0)
	require.ErrorIs(t, err, ErrInvalidAmount)
}

func TestSideText(t *testing.T) {
	side, err := ParseSide(" Y ")
	require.NoError(t, err)
	require.Equal(t, SideY, side)

	_, err = ParseSide("z")
	require.ErrorIs(t, err, ErrInvalidAmount)

	data, err := json.Marshal(SwapResult{Side: SideY})
	require.NoError(t, err)
	require.Contains(t, string(data), `"side":"y"`)

	var decoded SwapResult
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Equal(t, SideY, decoded.Side)
}
