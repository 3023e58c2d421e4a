package model

import "time"

// PoolWindowStats stores aggregated activity for a pool window.
type PoolWindowStats struct {
	Pool           string    `json:"pool"`
	WindowSizeSecs int64     `json:"window_size_seconds"`
	WindowStart    time.Time `json:"window_start"`
	WindowEnd      time.Time `json:"window_end"`
	SwapCount      uint64    `json:"swap_count"`
	MintCount      uint64    `json:"mint_count"`
	BurnCount      uint64    `json:"burn_count"`
	VolumeX        string    `json:"volume_x"`
	VolumeY        string    `json:"volume_y"`
	FeeX           string    `json:"fee_x"`
	FeeY           string    `json:"fee_y"`
	ReserveX       *string   `json:"reserve_x,omitempty"`
	ReserveY       *string   `json:"reserve_y,omitempty"`
	LPSupply       *string   `json:"lp_supply,omitempty"`
	FeeRateX       *string   `json:"fee_rate_x,omitempty"`
	FeeRateY       *string   `json:"fee_rate_y,omitempty"`
	APR            *string   `json:"apr,omitempty"`
}
