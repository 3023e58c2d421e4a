// Package identity derives deterministic pool and share-mint addresses.
package identity

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

var (
	poolPrefix = []byte("config")
	mintPrefix = []byte("lp")
)

// PoolAddress derives the address of the pool created with seed.
func PoolAddress(seed uint64) common.Address {
	var le [8]byte
	binary.LittleEndian.PutUint64(le[:], seed)
	return derive(poolPrefix, le[:])
}

// LPMintAddress derives the share-mint address owned by pool.
func LPMintAddress(pool common.Address) common.Address {
	return derive(mintPrefix, pool.Bytes())
}

func derive(parts ...[]byte) common.Address {
	return common.BytesToAddress(crypto.Keccak256(parts...)[12:])
}

// ParseAddress converts a hex string into common.Address.
func ParseAddress(input string) (common.Address, error) {
	input = strings.TrimSpace(input)
	if !common.IsHexAddress(input) {
		return common.Address{}, fmt.Errorf("invalid address: %q", input)
	}
	return common.HexToAddress(input), nil
}

// ParseOptionalAddress returns nil for an empty input.
func ParseOptionalAddress(input string) (*common.Address, error) {
	if strings.TrimSpace(input) == "" {
		return nil, nil
	}
	addr, err := ParseAddress(input)
	if err != nil {
		return nil, err
	}
	return &addr, nil
}
