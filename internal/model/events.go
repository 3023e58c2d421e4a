package model

// MintEventData is the decoded Mint event payload.
type MintEventData struct {
	Provider string `json:"provider"`
	AmountX  string `json:"amount_x"`
	AmountY  string `json:"amount_y"`
	Shares   string `json:"shares"`
}

// BurnEventData is the decoded Burn event payload.
type BurnEventData struct {
	Provider string `json:"provider"`
	AmountX  string `json:"amount_x"`
	AmountY  string `json:"amount_y"`
	Shares   string `json:"shares"`
}

// SwapEventData is the decoded Swap event payload.
type SwapEventData struct {
	Trader     string `json:"trader"`
	AmountXIn  string `json:"amount_x_in"`
	AmountYIn  string `json:"amount_y_in"`
	AmountXOut string `json:"amount_x_out"`
	AmountYOut string `json:"amount_y_out"`
	Fee        string `json:"fee"`
}

// SyncEventData is the decoded Sync event payload.
type SyncEventData struct {
	ReserveX string `json:"reserve_x"`
	ReserveY string `json:"reserve_y"`
	LPSupply string `json:"lp_supply"`
}

// LockEventData is the decoded LockChanged event payload.
type LockEventData struct {
	Authority string `json:"authority"`
	Locked    bool   `json:"locked"`
}

// CollectEventData is the decoded ProtocolFeesCollected event payload.
type CollectEventData struct {
	Authority string `json:"authority"`
	AmountX   string `json:"amount_x"`
	AmountY   string `json:"amount_y"`
}

// InitEventData is the decoded PoolInitialized event payload.
type InitEventData struct {
	Seed           uint64 `json:"seed"`
	FeeBps         uint16 `json:"fee_bps"`
	ProtocolFeeBps uint16 `json:"protocol_fee_bps"`
	Authority      string `json:"authority"`
}
