package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"cpamm/internal/identity"
	"cpamm/internal/model"
	"cpamm/internal/storage"
)

// newTestStore connects to AMM_TEST_PG_DSN and skips when it is unset.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("AMM_TEST_PG_DSN")
	if dsn == "" {
		t.Skip("AMM_TEST_PG_DSN not set")
	}
	ctx := context.Background()
	store, err := NewStore(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(store.Close)
	require.NoError(t, store.EnsureSchema(ctx))
	return store
}

func TestNewStoreRequiresDSN(t *testing.T) {
	_, err := NewStore(context.Background(), "")
	require.Error(t, err)
}

func TestStoreCommitVersioning(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	seed := uint64(os.Getpid())<<16 | 0xbeef
	addr := identity.PoolAddress(seed)
	owner := common.HexToAddress("0x1111111111111111111111111111111111111111")

	pool := model.PoolState{Address: addr, Seed: seed, Status: model.StatusActive, FeeBps: 30, Version: 1}
	require.NoError(t, store.CommitPool(ctx, pool, 0))
	require.ErrorIs(t, store.CommitPool(ctx, pool, 0), storage.ErrVersionConflict)

	next := pool
	next.ReserveX, next.ReserveY, next.LPSupply, next.Version = 1000, 2000, 1414, 2
	require.NoError(t, store.CommitPool(ctx, next, 1, model.Position{Pool: addr, Owner: owner, Shares: 1414}))
	require.ErrorIs(t, store.CommitPool(ctx, next, 1), storage.ErrVersionConflict)

	loaded, err := store.LoadPool(ctx, addr)
	require.NoError(t, err)
	require.Equal(t, next, loaded)

	pos, err := store.LoadPosition(ctx, addr, owner)
	require.NoError(t, err)
	require.Equal(t, uint64(1414), pos.Shares)

	require.NoError(t, store.PutLogBatch(ctx, []model.LogRecord{{Pool: addr.Hex(), Version: 2, Topics: []string{"0x01"}, Data: "0x"}}))
	require.NoError(t, store.PutLogBatch(ctx, []model.LogRecord{{Pool: addr.Hex(), Version: 2, Topics: []string{"0x01"}, Data: "0x"}}))
}
