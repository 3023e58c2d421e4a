package amm

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"cpamm/internal/model"
)

var (
	authority = common.HexToAddress("0x1111111111111111111111111111111111111111")
	stranger  = common.HexToAddress("0x2222222222222222222222222222222222222222")
)

func newPool(t *testing.T, feeBps uint16, auth *common.Address) model.PoolState {
	t.Helper()
	pool, err := Initialize(InitParams{
		Address:   common.HexToAddress("0x9999999999999999999999999999999999999999"),
		Seed:      42,
		FeeBps:    feeBps,
		Authority: auth,
	})
	require.NoError(t, err)
	return pool
}

func bootstrapped(t *testing.T, feeBps uint16, x, y uint64) model.PoolState {
	t.Helper()
	auth := authority
	pool, _, err := Deposit(newPool(t, feeBps, &auth), 0, x, y, true)
	require.NoError(t, err)
	return pool
}

func TestInitialize(t *testing.T) {
	auth := authority
	pool := newPool(t, 300, &auth)
	require.Equal(t, model.StatusActive, pool.Status)
	require.False(t, pool.Locked)
	require.Equal(t, uint16(300), pool.FeeBps)
	require.Equal(t, uint64(42), pool.Seed)
	require.Equal(t, authority, *pool.Authority)
	require.Zero(t, pool.LPSupply)
	require.True(t, pool.NeedsBootstrap())

	for _, fee := range []uint16{0, 1, 100, 1000, 10_000} {
		_, err := Initialize(InitParams{FeeBps: fee})
		require.NoErrorf(t, err, "fee %d", fee)
	}

	_, err := Initialize(InitParams{FeeBps: 10_001})
	require.ErrorIs(t, err, ErrInvalidConfig)
	_, err = Initialize(InitParams{FeeBps: 30, ProtocolFeeBps: 10_001})
	require.ErrorIs(t, err, ErrInvalidConfig)
	zero := common.Address{}
	_, err = Initialize(InitParams{FeeBps: 30, Authority: &zero})
	require.ErrorIs(t, err, ErrInvalidConfig)
}

func TestDepositBootstrap(t *testing.T) {
	auth := authority
	pool := newPool(t, 300, &auth)

	next, res, err := Deposit(pool, 0, 1000, 2000, true)
	require.NoError(t, err)
	require.Equal(t, DepositResult{AmountX: 1000, AmountY: 2000, SharesMinted: 1414, Bootstrap: true}, res)
	require.Equal(t, uint64(1000), next.ReserveX)
	require.Equal(t, uint64(2000), next.ReserveY)
	require.Equal(t, uint64(1414), next.LPSupply)
	require.Equal(t, pool.Version+1, next.Version)

	_, _, err = Deposit(pool, 1415, 1000, 2000, true)
	require.ErrorIs(t, err, ErrSlippageExceeded)
	_, _, err = Deposit(pool, 0, 0, 2000, true)
	require.ErrorIs(t, err, ErrInvalidAmount)
	_, _, err = Deposit(pool, 100, 1000, 2000, false)
	require.ErrorIs(t, err, ErrInvalidAmount)
	_, _, err = Deposit(next, 0, 1000, 2000, true)
	require.ErrorIs(t, err, ErrInvalidAmount)
}

func TestDepositProportional(t *testing.T) {
	pool := snapshot(1500, 3000, 1414, 300)

	next, res, err := Deposit(pool, 100, 200, 300, false)
	require.NoError(t, err)
	require.Equal(t, uint64(107), res.AmountX)
	require.Equal(t, uint64(213), res.AmountY)
	require.Equal(t, uint64(100), res.SharesMinted)
	require.Equal(t, uint64(1607), next.ReserveX)
	require.Equal(t, uint64(3213), next.ReserveY)
	require.Equal(t, uint64(1514), next.LPSupply)
}

func TestWithdrawRoundTripNeverProfits(t *testing.T) {
	pool := bootstrapped(t, 0, 1000, 2000)

	afterDeposit, dep, err := Deposit(pool, 100, 1000, 1000, false)
	require.NoError(t, err)
	require.Equal(t, uint64(71), dep.AmountX)
	require.Equal(t, uint64(142), dep.AmountY)

	afterWithdraw, wd, err := Withdraw(afterDeposit, 100, 0, 0, 100)
	require.NoError(t, err)
	require.LessOrEqual(t, wd.AmountX, dep.AmountX)
	require.LessOrEqual(t, wd.AmountY, dep.AmountY)
	require.Equal(t, uint64(70), wd.AmountX)
	require.Equal(t, uint64(141), wd.AmountY)
	require.Equal(t, pool.LPSupply, afterWithdraw.LPSupply)
	require.GreaterOrEqual(t, afterWithdraw.ReserveX, pool.ReserveX)
	require.GreaterOrEqual(t, afterWithdraw.ReserveY, pool.ReserveY)
}

func TestWithdrawAllClosesAndReopens(t *testing.T) {
	pool := bootstrapped(t, 30, 1000, 2000)

	closed, res, err := Withdraw(pool, pool.LPSupply, 1000, 2000, pool.LPSupply)
	require.NoError(t, err)
	require.True(t, res.Closed)
	require.Equal(t, model.StatusClosed, closed.Status)
	require.Zero(t, closed.ReserveX)
	require.Zero(t, closed.ReserveY)
	require.Zero(t, closed.LPSupply)

	_, _, err = Swap(closed, SideX, 10, 0)
	require.ErrorIs(t, err, ErrPoolLocked)
	_, _, err = Withdraw(closed, 1, 0, 0, 1)
	require.ErrorIs(t, err, ErrPoolLocked)

	reopened, dep, err := Deposit(closed, 0, 400, 900, true)
	require.NoError(t, err)
	require.Equal(t, uint64(600), dep.SharesMinted)
	require.Equal(t, model.StatusActive, reopened.Status)
}

func TestSwapCommitsFullInput(t *testing.T) {
	pool := bootstrapped(t, 300, 1000, 2000)

	next, res, err := Swap(pool, SideX, 100, 176)
	require.NoError(t, err)
	require.Equal(t, uint64(176), res.AmountOut)
	require.Equal(t, uint64(3), res.FeeCharged)
	require.Equal(t, uint64(1100), next.ReserveX)
	require.Equal(t, uint64(1824), next.ReserveY)
	require.Equal(t, pool.LPSupply, next.LPSupply)

	unchanged, _, err := Swap(pool, SideX, 100, 177)
	require.ErrorIs(t, err, ErrSlippageExceeded)
	require.Equal(t, pool, unchanged)
}

func TestSwapAccruesProtocolFee(t *testing.T) {
	pool := bootstrapped(t, 300, 1000, 2000)
	pool.ProtocolFeeBps = 10_000

	next, res, err := Swap(pool, SideY, 200, 0)
	require.NoError(t, err)
	require.Equal(t, uint64(6), res.ProtocolFee)
	require.Equal(t, uint64(6), next.ProtocolFeesY)
	require.Equal(t, uint64(2194), next.ReserveY)

	_, _, err = CollectProtocolFees(next, stranger)
	require.ErrorIs(t, err, ErrUnauthorized)

	collected, fees, err := CollectProtocolFees(next, authority)
	require.NoError(t, err)
	require.Equal(t, FeeCollection{AmountY: 6}, fees)
	require.Zero(t, collected.ProtocolFeesY)
	require.Equal(t, next.ReserveY, collected.ReserveY)
}

func TestLockedPoolRejectsEverything(t *testing.T) {
	pool := bootstrapped(t, 300, 1000, 2000)

	locked, err := SetLock(pool, authority, true)
	require.NoError(t, err)
	require.True(t, locked.Locked)
	require.Equal(t, pool.ReserveX, locked.ReserveX)
	require.Equal(t, pool.ReserveY, locked.ReserveY)
	require.Equal(t, pool.LPSupply, locked.LPSupply)

	after, _, err := Swap(locked, SideX, 100, 0)
	require.ErrorIs(t, err, ErrPoolLocked)
	require.Equal(t, locked, after)

	after, _, err = Deposit(locked, 100, 1000, 1000, false)
	require.ErrorIs(t, err, ErrPoolLocked)
	require.Equal(t, locked, after)

	after, _, err = Withdraw(locked, 100, 0, 0, 1414)
	require.ErrorIs(t, err, ErrPoolLocked)
	require.Equal(t, locked, after)

	unlocked, err := SetLock(locked, authority, false)
	require.NoError(t, err)
	_, _, err = Swap(unlocked, SideX, 100, 0)
	require.NoError(t, err)
}

func TestUninitializedPoolRejectsTrading(t *testing.T) {
	var pool model.PoolState
	_, _, err := Deposit(pool, 0, 1000, 2000, true)
	require.ErrorIs(t, err, ErrPoolLocked)
	_, _, err = Swap(pool, SideX, 1, 0)
	require.ErrorIs(t, err, ErrPoolLocked)
}

func TestSetLockRequiresAuthority(t *testing.T) {
	auth := authority
	pool := newPool(t, 30, &auth)

	for _, caller := range []common.Address{stranger, {}, common.HexToAddress("0x9999999999999999999999999999999999999999")} {
		next, err := SetLock(pool, caller, true)
		require.ErrorIs(t, err, ErrUnauthorized)
		require.Equal(t, pool, next)
	}

	ownerless := newPool(t, 30, nil)
	for _, caller := range []common.Address{authority, stranger, {}} {
		_, err := SetLock(ownerless, caller, true)
		require.ErrorIs(t, err, ErrUnauthorized)
		_, err = SetLock(ownerless, caller, false)
		require.ErrorIs(t, err, ErrUnauthorized)
	}
}

func TestErrorClassification(t *testing.T) {
	require.Equal(t, uint32(6002), Code(ErrPoolLocked))
	_, err := Initialize(InitParams{FeeBps: 20_000})
	require.Equal(t, uint32(6000), Code(err))
	require.Zero(t, Code(nil))

	require.True(t, IsSlippage(ErrInsufficientTokenY))
	require.False(t, IsSlippage(ErrPoolLocked))
	require.True(t, IsFatal(ErrInvariantViolation))
	require.False(t, IsFatal(ErrSlippageExceeded))
}

func TestCorruptedSnapshotFailsClosed(t *testing.T) {
	pool := snapshot(0, 0, 100, 0)
	_, _, err := Deposit(pool, 10, 100, 100, false)
	require.True(t, IsFatal(err))

	drained := snapshot(5, 0, 0, 0)
	_, _, err = Deposit(drained, 0, 10, 10, true)
	require.True(t, IsFatal(err))
}
