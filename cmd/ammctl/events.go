package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"cpamm/internal/events"
	"cpamm/internal/model"
	"cpamm/internal/storage"
)

func newEventsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Decode the event journal into typed events",
		RunE:  runEvents,
	}
	cmd.Flags().String("events-out", "", "output typed events JSONL (stdout when empty)")
	cmd.Flags().String("events-errors", "", "decode errors JSONL (dropped when empty)")
	cmd.Flags().String("pool", "", "only decode events of this pool")
	return cmd
}

func runEvents(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	poolFilter, _ := cmd.Flags().GetString("pool")
	poolFilter = strings.ToLower(strings.TrimSpace(poolFilter))

	decoder, err := events.NewDecoder()
	if err != nil {
		return err
	}

	outWriter, err := newJSONLWriter(cfg.EventsOut)
	if err != nil {
		return err
	}
	defer outWriter.Close()

	var errWriter *jsonlWriter
	if cfg.EventsErrors != "" {
		errWriter, err = newJSONLWriter(cfg.EventsErrors)
		if err != nil {
			return err
		}
		defer errWriter.Close()
	}

	logger.Info("events decode start",
		zap.String("journal", cfg.Journal),
		zap.String("out", cfg.EventsOut),
		zap.String("errors", cfg.EventsErrors),
	)

	var total, decoded, skipped, failed int
	err = storage.ReadJournal(cfg.Journal, func(record model.LogRecord) error {
		total++
		if poolFilter != "" && strings.ToLower(record.Pool) != poolFilter {
			skipped++
			return nil
		}
		if len(record.Topics) == 0 {
			failed++
			writeDecodeError(errWriter, decodeErrorFromRecord(record, fmt.Errorf("missing topic0")))
			return nil
		}
		if !decoder.CanDecode(record.Topics[0]) {
			skipped++
			return nil
		}

		event, err := decoder.Decode(record)
		if err != nil {
			failed++
			writeDecodeError(errWriter, decodeErrorFromRecord(record, err))
			return nil
		}
		if err := outWriter.Write(event); err != nil {
			return err
		}
		decoded++
		return nil
	})
	if err != nil {
		return err
	}

	logger.Info("events decode complete",
		zap.Int("total", total),
		zap.Int("decoded", decoded),
		zap.Int("skipped", skipped),
		zap.Int("failed", failed),
	)
	return nil
}

type jsonlWriter struct {
	file   *os.File
	writer *bufio.Writer
	owned  bool
}

// newJSONLWriter truncates path, or writes to stdout when path is empty.
func newJSONLWriter(path string) (*jsonlWriter, error) {
	if path == "" {
		return &jsonlWriter{file: os.Stdout, writer: bufio.NewWriter(os.Stdout)}, nil
	}

	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create dir: %w", err)
		}
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}

	return &jsonlWriter{
		file:   file,
		writer: bufio.NewWriter(file),
		owned:  true,
	}, nil
}

func (w *jsonlWriter) Write(value interface{}) error {
	line, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	if _, err := w.writer.Write(line); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	if err := w.writer.WriteByte('\n'); err != nil {
		return fmt.Errorf("write newline: %w", err)
	}
	return nil
}

func (w *jsonlWriter) Close() error {
	if w == nil {
		return nil
	}
	if err := w.writer.Flush(); err != nil {
		if w.owned {
			w.file.Close()
		}
		return err
	}
	if !w.owned {
		return nil
	}
	return w.file.Close()
}

func decodeErrorFromRecord(record model.LogRecord, err error) model.DecodeError {
	topic0 := ""
	if len(record.Topics) > 0 {
		topic0 = record.Topics[0]
	}

	return model.DecodeError{
		Pool:     record.Pool,
		Version:  record.Version,
		LogIndex: record.LogIndex,
		Topic0:   topic0,
		Error:    err.Error(),
	}
}

func writeDecodeError(writer *jsonlWriter, errRecord model.DecodeError) {
	if writer == nil {
		return
	}
	_ = writer.Write(errRecord)
}
