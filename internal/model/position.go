package model

import "github.com/ethereum/go-ethereum/common"

// Position is a liquidity provider's share balance in one pool.
type Position struct {
	Pool   common.Address `json:"pool"`
	Owner  common.Address `json:"owner"`
	Shares uint64         `json:"shares"`
}
