package events

import (
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"cpamm/internal/amm"
	"cpamm/internal/model"
)

// Encoder turns committed pool effects into ABI-encoded log records.
type Encoder struct {
	poolABI abi.ABI
	now     func() time.Time
}

// NewEncoder builds an encoder. A nil clock defaults to time.Now.
func NewEncoder(now func() time.Time) (*Encoder, error) {
	poolABI, err := PoolABI()
	if err != nil {
		return nil, err
	}
	if now == nil {
		now = time.Now
	}
	return &Encoder{poolABI: poolABI, now: now}, nil
}

// Initialized records pool creation.
func (e *Encoder) Initialized(pool model.PoolState) ([]model.LogRecord, error) {
	var authority common.Address
	if pool.Authority != nil {
		authority = *pool.Authority
	}
	return e.build(pool, entry{name: EventInitialized, args: []interface{}{pool.Seed, pool.FeeBps, pool.ProtocolFeeBps, authority}})
}

// Deposit records a mint followed by the new reserves.
func (e *Encoder) Deposit(pool model.PoolState, provider common.Address, res amm.DepositResult) ([]model.LogRecord, error) {
	return e.build(pool,
		entry{name: EventMint, indexed: []common.Address{provider}, args: u256(res.AmountX, res.AmountY, res.SharesMinted)},
		syncEntry(pool),
	)
}

// Withdraw records a burn followed by the new reserves.
func (e *Encoder) Withdraw(pool model.PoolState, provider common.Address, res amm.WithdrawResult) ([]model.LogRecord, error) {
	return e.build(pool,
		entry{name: EventBurn, indexed: []common.Address{provider}, args: u256(res.AmountX, res.AmountY, res.SharesBurned)},
		syncEntry(pool),
	)
}

// Swap records a trade followed by the new reserves.
func (e *Encoder) Swap(pool model.PoolState, trader common.Address, res amm.SwapResult) ([]model.LogRecord, error) {
	var xIn, yIn, xOut, yOut uint64
	switch res.Side {
	case amm.SideX:
		xIn, yOut = res.AmountIn, res.AmountOut
	case amm.SideY:
		yIn, xOut = res.AmountIn, res.AmountOut
	default:
		return nil, fmt.Errorf("unknown swap side %d", res.Side)
	}
	return e.build(pool,
		entry{name: EventSwap, indexed: []common.Address{trader}, args: u256(xIn, yIn, xOut, yOut, res.FeeCharged)},
		syncEntry(pool),
	)
}

// Lock records a halt or resume.
func (e *Encoder) Lock(pool model.PoolState, authority common.Address) ([]model.LogRecord, error) {
	return e.build(pool, entry{name: EventLock, indexed: []common.Address{authority}, args: []interface{}{pool.Locked}})
}

// Collect records a protocol fee payout.
func (e *Encoder) Collect(pool model.PoolState, authority common.Address, fees amm.FeeCollection) ([]model.LogRecord, error) {
	return e.build(pool, entry{name: EventCollect, indexed: []common.Address{authority}, args: u256(fees.AmountX, fees.AmountY)})
}

type entry struct {
	name    string
	indexed []common.Address
	args    []interface{}
}

func syncEntry(pool model.PoolState) entry {
	return entry{name: EventSync, args: u256(pool.ReserveX, pool.ReserveY, pool.LPSupply)}
}

func (e *Encoder) build(pool model.PoolState, entries ...entry) ([]model.LogRecord, error) {
	now := e.now().UTC()
	records := make([]model.LogRecord, 0, len(entries))
	for i, ent := range entries {
		event, ok := e.poolABI.Events[ent.name]
		if !ok {
			return nil, fmt.Errorf("unknown event %s", ent.name)
		}
		data, err := event.Inputs.NonIndexed().Pack(ent.args...)
		if err != nil {
			return nil, fmt.Errorf("pack %s: %w", ent.name, err)
		}

		topics := make([]string, 0, len(ent.indexed)+1)
		topics = append(topics, event.ID.Hex())
		for _, addr := range ent.indexed {
			topics = append(topics, common.BytesToHash(addr.Bytes()).Hex())
		}

		records = append(records, model.LogRecord{
			Pool:       pool.Address.Hex(),
			Version:    pool.Version,
			LogIndex:   uint64(i),
			Topics:     topics,
			Data:       hexutil.Encode(data),
			Timestamp:  uint64(now.Unix()),
			RecordedAt: now.Format(time.RFC3339),
		})
	}
	return records, nil
}

func u256(values ...uint64) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = new(big.Int).SetUint64(v)
	}
	return out
}
