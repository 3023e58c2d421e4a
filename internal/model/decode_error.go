package model

// DecodeError records a journal line that failed to decode.
type DecodeError struct {
	Pool     string `json:"pool,omitempty"`
	Version  uint64 `json:"version,omitempty"`
	LogIndex uint64 `json:"log_index,omitempty"`
	Topic0   string `json:"topic0,omitempty"`
	Error    string `json:"error"`
}
