package model

// TypedEvent is a decoded pool event.
type TypedEvent struct {
	Pool      string      `json:"pool"`
	Version   uint64      `json:"version"`
	LogIndex  uint64      `json:"log_index"`
	EventName string      `json:"event_name"`
	Timestamp uint64      `json:"timestamp"`
	Decoded   interface{} `json:"decoded"`
	Raw       *RawLogRef  `json:"raw,omitempty"`
}

// RawLogRef keeps a minimal raw reference for traceability.
type RawLogRef struct {
	Topic0 string `json:"topic0"`
	Data   string `json:"data"`
}
