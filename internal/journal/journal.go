// Package journal persists emitted signals and resolved trades so a run can
// be audited after the fact. Recorders are append-only; nothing in the system
// reads the journal back at runtime.
package journal

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/omotosho-cloud/goldai/internal/signal"
	"github.com/omotosho-cloud/goldai/internal/tracker"
)

// Recorder receives every emitted signal and every closed trade.
type Recorder interface {
	RecordSignal(sig signal.Signal) error
	RecordTrade(trade tracker.Trade) error
	Close() error
}

type entry struct {
	Kind   string         `json:"kind"`
	At     time.Time      `json:"at"`
	Signal *signal.Signal `json:"signal,omitempty"`
	Trade  *tracker.Trade `json:"trade,omitempty"`
}

// JSONL appends one JSON object per line to a local file.
type JSONL struct {
	mu   sync.Mutex
	file *os.File
	enc  *json.Encoder
}

// NewJSONL opens the journal file for appending, creating parent directories
// as needed.
func NewJSONL(path string) (*JSONL, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create journal dir: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	return &JSONL{file: file, enc: json.NewEncoder(file)}, nil
}

// RecordSignal appends the signal.
func (j *JSONL) RecordSignal(sig signal.Signal) error {
	return j.write(entry{Kind: "signal", At: sig.Ts, Signal: &sig})
}

// RecordTrade appends the closed trade.
func (j *JSONL) RecordTrade(trade tracker.Trade) error {
	return j.write(entry{Kind: "trade", At: trade.ClosedAt, Trade: &trade})
}

// Close flushes and closes the file.
func (j *JSONL) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.file.Close()
}

func (j *JSONL) write(e entry) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if err := j.enc.Encode(e); err != nil {
		return fmt.Errorf("append journal entry: %w", err)
	}
	return nil
}

// Multi fans every record out to all recorders and joins their errors.
type Multi []Recorder

// RecordSignal forwards to every recorder.
func (m Multi) RecordSignal(sig signal.Signal) error {
	var errs []error
	for _, r := range m {
		errs = append(errs, r.RecordSignal(sig))
	}
	return errors.Join(errs...)
}

// RecordTrade forwards to every recorder.
func (m Multi) RecordTrade(trade tracker.Trade) error {
	var errs []error
	for _, r := range m {
		errs = append(errs, r.RecordTrade(trade))
	}
	return errors.Join(errs...)
}

// Close closes every recorder.
func (m Multi) Close() error {
	var errs []error
	for _, r := range m {
		errs = append(errs, r.Close())
	}
	return errors.Join(errs...)
}

// Nop discards everything; used when journaling is disabled.
type Nop struct{}

func (Nop) RecordSignal(signal.Signal) error { return nil }
func (Nop) RecordTrade(tracker.Trade) error  { return nil }
func (Nop) Close() error                     { return nil }
