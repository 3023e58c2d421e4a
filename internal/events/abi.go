package events

import (
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// Event names emitted by a pool.
const (
	EventInitialized = "PoolInitialized"
	EventMint        = "Mint"
	EventBurn        = "Burn"
	EventSwap        = "Swap"
	EventSync        = "Sync"
	EventLock        = "LockChanged"
	EventCollect     = "ProtocolFeesCollected"
)

const poolABIJSON = `[
  {
    "anonymous": false,
    "inputs": [
      {"indexed": false, "internalType": "uint64", "name": "seed", "type": "uint64"},
      {"indexed": false, "internalType": "uint16", "name": "feeBps", "type": "uint16"},
      {"indexed": false, "internalType": "uint16", "name": "protocolFeeBps", "type": "uint16"},
      {"indexed": false, "internalType": "address", "name": "authority", "type": "address"}
    ],
    "name": "PoolInitialized",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "address", "name": "provider", "type": "address"},
      {"indexed": false, "internalType": "uint256", "name": "amountX", "type": "uint256"},
      {"indexed": false, "internalType": "uint256", "name": "amountY", "type": "uint256"},
      {"indexed": false, "internalType": "uint256", "name": "shares", "type": "uint256"}
    ],
    "name": "Mint",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "address", "name": "provider", "type": "address"},
      {"indexed": false, "internalType": "uint256", "name": "amountX", "type": "uint256"},
      {"indexed": false, "internalType": "uint256", "name": "amountY", "type": "uint256"},
      {"indexed": false, "internalType": "uint256", "name": "shares", "type": "uint256"}
    ],
    "name": "Burn",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "address", "name": "trader", "type": "address"},
      {"indexed": false, "internalType": "uint256", "name": "amountXIn", "type": "uint256"},
      {"indexed": false, "internalType": "uint256", "name": "amountYIn", "type": "uint256"},
      {"indexed": false, "internalType": "uint256", "name": "amountXOut", "type": "uint256"},
      {"indexed": false, "internalType": "uint256", "name": "amountYOut", "type": "uint256"},
      {"indexed": false, "internalType": "uint256", "name": "fee", "type": "uint256"}
    ],
    "name": "Swap",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": false, "internalType": "uint256", "name": "reserveX", "type": "uint256"},
      {"indexed": false, "internalType": "uint256", "name": "reserveY", "type": "uint256"},
      {"indexed": false, "internalType": "uint256", "name": "lpSupply", "type": "uint256"}
    ],
    "name": "Sync",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "address", "name": "authority", "type": "address"},
      {"indexed": false, "internalType": "bool", "name": "locked", "type": "bool"}
    ],
    "name": "LockChanged",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "address", "name": "authority", "type": "address"},
      {"indexed": false, "internalType": "uint256", "name": "amountX", "type": "uint256"},
      {"indexed": false, "internalType": "uint256", "name": "amountY", "type": "uint256"}
    ],
    "name": "ProtocolFeesCollected",
    "type": "event"
  }
]`

var (
	poolABIOnce sync.Once
	poolABI     abi.ABI
	poolABIErr  error
)

// PoolABI returns the parsed pool event ABI.
func PoolABI() (abi.ABI, error) {
	poolABIOnce.Do(func() {
		poolABI, poolABIErr = abi.JSON(strings.NewReader(poolABIJSON))
	})
	return poolABI, poolABIErr
}
