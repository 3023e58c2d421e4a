package aggregate

import (
	"context"
	"math/big"
	"path/filepath"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"cpamm/internal/amm"
	"cpamm/internal/events"
	"cpamm/internal/model"
	"cpamm/internal/storage"
)

type memorySink struct {
	stats []model.PoolWindowStats
}

func (s *memorySink) UpsertWindowStats(_ context.Context, stats []model.PoolWindowStats) error {
	s.stats = append(s.stats, stats...)
	return nil
}

func writeJournal(t *testing.T) (string, uint64) {
	t.Helper()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "events.jsonl")
	journal := storage.NewJsonlJournal(path)

	const t0 = 1_700_000_100
	now := time.Unix(t0, 0)
	enc, err := events.NewEncoder(func() time.Time { return now })
	require.NoError(t, err)

	pool := model.PoolState{Address: common.HexToAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"), ReserveX: 1000, ReserveY: 2000, LPSupply: 1414, Version: 2}
	trader := common.HexToAddress("0x1111111111111111111111111111111111111111")

	records, err := enc.Deposit(pool, trader, amm.DepositResult{AmountX: 1000, AmountY: 2000, SharesMinted: 1414, Bootstrap: true})
	require.NoError(t, err)
	require.NoError(t, journal.PutLogBatch(ctx, records))

	pool.ReserveX, pool.ReserveY, pool.Version = 1100, 1824, 3
	records, err = enc.Swap(pool, trader, amm.SwapResult{Side: amm.SideX, AmountIn: 100, AmountOut: 176, FeeCharged: 3})
	require.NoError(t, err)
	require.NoError(t, journal.PutLogBatch(ctx, records))

	now = now.Add(10 * time.Minute)
	pool.ReserveX, pool.ReserveY, pool.Version = 1012, 2024, 4
	records, err = enc.Swap(pool, trader, amm.SwapResult{Side: amm.SideY, AmountIn: 200, AmountOut: 88, FeeCharged: 6})
	require.NoError(t, err)
	require.NoError(t, journal.PutLogBatch(ctx, records))

	return path, t0
}

func TestAggregatorWindows(t *testing.T) {
	path, t0 := writeJournal(t)
	sink := &memorySink{}

	agg, err := NewAggregator(Config{WindowSeconds: 300}, sink, nil)
	require.NoError(t, err)

	stats, err := agg.Run(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, stats, 2)
	require.Equal(t, stats, sink.stats)

	first := stats[0]
	require.Equal(t, unixTime(windowStart(t0, 300)), first.WindowStart)
	require.Equal(t, uint64(1), first.SwapCount)
	require.Equal(t, uint64(1), first.MintCount)
	require.Equal(t, "100", first.VolumeX)
	require.Equal(t, "176", first.VolumeY)
	require.Equal(t, "3", first.FeeX)
	require.Equal(t, "0", first.FeeY)
	require.Equal(t, "1100", *first.ReserveX)
	require.NotNil(t, first.FeeRateX)
	require.Nil(t, first.FeeRateY)
	require.NotNil(t, first.APR)

	second := stats[1]
	require.Equal(t, uint64(1), second.SwapCount)
	require.Zero(t, second.MintCount)
	require.Equal(t, "6", second.FeeY)
	require.Equal(t, "2024", *second.ReserveY)
}

func TestAggregatorFrom(t *testing.T) {
	path, t0 := writeJournal(t)

	agg, err := NewAggregator(Config{WindowSeconds: 300, From: t0 + 60}, nil, nil)
	require.NoError(t, err)

	stats, err := agg.Run(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, stats, 1)
	require.Equal(t, "6", stats[0].FeeY)

	_, err = NewAggregator(Config{}, nil, nil)
	require.Error(t, err)
}

func TestComputeAPR(t *testing.T) {
	rate := computeRate(big.NewInt(1), big.NewInt(100))
	require.NotNil(t, rate)
	require.Nil(t, computeRate(big.NewInt(0), big.NewInt(100)))
	require.Nil(t, computeRate(big.NewInt(1), nil))

	// 1% over a day on one side is 0.5% of pool value, 182.5% a year
	apr := computeAPR(rate, nil, 86400)
	require.NotNil(t, apr)
	got, ok := new(big.Rat).SetString(*apr)
	require.True(t, ok)
	require.Equal(t, 0, got.Cmp(big.NewRat(1825, 1000)))

	require.Nil(t, computeAPR(nil, nil, 86400))
	require.Nil(t, computeAPR(rate, nil, 0))
}
