package model

import (
	"github.com/ethereum/go-ethereum/common"
)

// PoolStatus is the lifecycle stage of a pool.
type PoolStatus string

const (
	StatusUninitialized PoolStatus = "uninitialized"
	StatusActive        PoolStatus = "active"
	StatusClosed        PoolStatus = "closed"
)

// PoolState is the full snapshot of a constant-product pool.
type PoolState struct {
	Address        common.Address  `json:"address"`
	Seed           uint64          `json:"seed"`
	Status         PoolStatus      `json:"status"`
	ReserveX       uint64          `json:"reserve_x"`
	ReserveY       uint64          `json:"reserve_y"`
	LPSupply       uint64          `json:"lp_supply"`
	FeeBps         uint16          `json:"fee_bps"`
	ProtocolFeeBps uint16          `json:"protocol_fee_bps"`
	ProtocolFeesX  uint64          `json:"protocol_fees_x"`
	ProtocolFeesY  uint64          `json:"protocol_fees_y"`
	Locked         bool            `json:"locked"`
	Authority      *common.Address `json:"authority,omitempty"`
	Version        uint64          `json:"version"`
}

// Clone returns a deep copy of the snapshot.
func (p PoolState) Clone() PoolState {
	out := p
	if p.Authority != nil {
		auth := *p.Authority
		out.Authority = &auth
	}
	return out
}

// Initialized reports whether init has run for this pool.
func (p PoolState) Initialized() bool {
	return p.Status != "" && p.Status != StatusUninitialized
}

// NeedsBootstrap reports whether the next deposit mints the first shares.
func (p PoolState) NeedsBootstrap() bool {
	return p.LPSupply == 0
}
