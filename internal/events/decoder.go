package events

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"cpamm/internal/model"
)

// Decoder decodes journaled pool events.
type Decoder struct {
	poolABI     abi.ABI
	topicToName map[string]string
}

// NewDecoder builds a pool event decoder.
func NewDecoder() (*Decoder, error) {
	poolABI, err := PoolABI()
	if err != nil {
		return nil, err
	}

	topicToName := make(map[string]string, len(poolABI.Events))
	for name, event := range poolABI.Events {
		topicToName[strings.ToLower(event.ID.Hex())] = name
	}

	return &Decoder{
		poolABI:     poolABI,
		topicToName: topicToName,
	}, nil
}

// CanDecode checks if the topic0 is supported.
func (d *Decoder) CanDecode(topic0 string) bool {
	if topic0 == "" {
		return false
	}
	_, ok := d.topicToName[strings.ToLower(topic0)]
	return ok
}

// Decode converts a LogRecord into a TypedEvent.
func (d *Decoder) Decode(log model.LogRecord) (*model.TypedEvent, error) {
	if len(log.Topics) == 0 {
		return nil, fmt.Errorf("missing topics")
	}
	name, ok := d.topicToName[strings.ToLower(log.Topics[0])]
	if !ok {
		return nil, fmt.Errorf("unsupported topic0: %s", log.Topics[0])
	}
	if !common.IsHexAddress(log.Pool) {
		return nil, fmt.Errorf("invalid pool address: %s", log.Pool)
	}

	event := d.poolABI.Events[name]
	indexed, err := parseIndexedAddress(event, log.Topics)
	if err != nil {
		return nil, err
	}
	values, err := unpackNonIndexed(event, log.Data)
	if err != nil {
		return nil, err
	}

	var decoded interface{}
	switch name {
	case EventInitialized:
		decoded, err = decodeInitialized(values)
	case EventMint:
		var amounts []string
		amounts, err = bigStrings(values, 3)
		if err == nil {
			decoded = model.MintEventData{Provider: indexed.Hex(), AmountX: amounts[0], AmountY: amounts[1], Shares: amounts[2]}
		}
	case EventBurn:
		var amounts []string
		amounts, err = bigStrings(values, 3)
		if err == nil {
			decoded = model.BurnEventData{Provider: indexed.Hex(), AmountX: amounts[0], AmountY: amounts[1], Shares: amounts[2]}
		}
	case EventSwap:
		var amounts []string
		amounts, err = bigStrings(values, 5)
		if err == nil {
			decoded = model.SwapEventData{
				Trader:     indexed.Hex(),
				AmountXIn:  amounts[0],
				AmountYIn:  amounts[1],
				AmountXOut: amounts[2],
				AmountYOut: amounts[3],
				Fee:        amounts[4],
			}
		}
	case EventSync:
		var amounts []string
		amounts, err = bigStrings(values, 3)
		if err == nil {
			decoded = model.SyncEventData{ReserveX: amounts[0], ReserveY: amounts[1], LPSupply: amounts[2]}
		}
	case EventLock:
		if len(values) != 1 {
			return nil, fmt.Errorf("unexpected lock values: %d", len(values))
		}
		locked, ok := values[0].(bool)
		if !ok {
			return nil, fmt.Errorf("unexpected locked type %T", values[0])
		}
		decoded = model.LockEventData{Authority: indexed.Hex(), Locked: locked}
	case EventCollect:
		var amounts []string
		amounts, err = bigStrings(values, 2)
		if err == nil {
			decoded = model.CollectEventData{Authority: indexed.Hex(), AmountX: amounts[0], AmountY: amounts[1]}
		}
	default:
		return nil, fmt.Errorf("unsupported event name: %s", name)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", name, err)
	}

	return &model.TypedEvent{
		Pool:      common.HexToAddress(log.Pool).Hex(),
		Version:   log.Version,
		LogIndex:  log.LogIndex,
		EventName: name,
		Timestamp: log.Timestamp,
		Decoded:   decoded,
		Raw:       &model.RawLogRef{Topic0: log.Topics[0], Data: log.Data},
	}, nil
}

func decodeInitialized(values []interface{}) (model.InitEventData, error) {
	if len(values) != 4 {
		return model.InitEventData{}, fmt.Errorf("unexpected init values: %d", len(values))
	}
	seed, ok := values[0].(uint64)
	if !ok {
		return model.InitEventData{}, fmt.Errorf("unexpected seed type %T", values[0])
	}
	fee, ok := values[1].(uint16)
	if !ok {
		return model.InitEventData{}, fmt.Errorf("unexpected fee type %T", values[1])
	}
	protocolFee, ok := values[2].(uint16)
	if !ok {
		return model.InitEventData{}, fmt.Errorf("unexpected protocol fee type %T", values[2])
	}
	authority, ok := values[3].(common.Address)
	if !ok {
		return model.InitEventData{}, fmt.Errorf("unexpected authority type %T", values[3])
	}
	out := model.InitEventData{Seed: seed, FeeBps: fee, ProtocolFeeBps: protocolFee}
	if authority != (common.Address{}) {
		out.Authority = authority.Hex()
	}
	return out, nil
}

// parseIndexedAddress returns the single indexed address of an event, or the
// zero address when the event has none.
func parseIndexedAddress(event abi.Event, topics []string) (common.Address, error) {
	args := indexedArguments(event.Inputs)
	if len(topics) != len(args)+1 {
		return common.Address{}, fmt.Errorf("expected %d topics, got %d", len(args)+1, len(topics))
	}
	if len(args) == 0 {
		return common.Address{}, nil
	}
	hashes, err := parseTopicHashes(topics[1:])
	if err != nil {
		return common.Address{}, err
	}
	parsed := make(map[string]interface{}, len(args))
	if err := abi.ParseTopicsIntoMap(parsed, args, hashes); err != nil {
		return common.Address{}, fmt.Errorf("parse topics: %w", err)
	}
	addr, ok := parsed[args[0].Name].(common.Address)
	if !ok {
		return common.Address{}, fmt.Errorf("indexed %s is not an address", args[0].Name)
	}
	return addr, nil
}

func parseTopicHashes(topics []string) ([]common.Hash, error) {
	out := make([]common.Hash, 0, len(topics))
	for _, topic := range topics {
		data, err := hexutil.Decode(topic)
		if err != nil {
			return nil, fmt.Errorf("invalid topic: %w", err)
		}
		if len(data) > 32 {
			return nil, fmt.Errorf("topic length %d", len(data))
		}
		out = append(out, common.BytesToHash(data))
	}
	return out, nil
}

func indexedArguments(args abi.Arguments) abi.Arguments {
	indexed := make(abi.Arguments, 0, len(args))
	for _, arg := range args {
		if arg.Indexed {
			indexed = append(indexed, arg)
		}
	}
	return indexed
}

func unpackNonIndexed(event abi.Event, dataHex string) ([]interface{}, error) {
	data, err := hexutil.Decode(dataHex)
	if err != nil {
		return nil, fmt.Errorf("invalid data: %w", err)
	}
	values, err := event.Inputs.NonIndexed().Unpack(data)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", event.Name, err)
	}
	return values, nil
}

func bigStrings(values []interface{}, want int) ([]string, error) {
	if len(values) != want {
		return nil, fmt.Errorf("expected %d values, got %d", want, len(values))
	}
	out := make([]string, len(values))
	for i, v := range values {
		n, ok := v.(*big.Int)
		if !ok {
			return nil, fmt.Errorf("value %d: unexpected type %T", i, v)
		}
		out[i] = n.String()
	}
	return out, nil
}
