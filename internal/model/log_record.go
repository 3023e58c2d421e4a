package model

// LogRecord is an ABI-encoded pool event as written to the journal.
type LogRecord struct {
	Pool       string   `json:"pool"`
	Version    uint64   `json:"version"`
	LogIndex   uint64   `json:"log_index"`
	Topics     []string `json:"topics"`
	Data       string   `json:"data"`
	Timestamp  uint64   `json:"timestamp"`
	RecordedAt string   `json:"recorded_at"`
}
