// Package journal records what a reconciliation observed, decided and
// executed as an append-only JSONL audit trail. One file per invocation;
// the remote platform remains the only source of truth.
package journal

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// EntryType defines the type of journal entry
type EntryType string

const (
	EntryObserved EntryType = "observed"
	EntryDecided  EntryType = "decided"
	EntryExecuted EntryType = "executed"
	EntrySkipped  EntryType = "skipped"
	EntryFailed   EntryType = "failed"
)

// Entry represents a single journal entry
type Entry struct {
	Timestamp  time.Time       `json:"timestamp"`
	Invocation string          `json:"invocation"`
	Sequence   int64           `json:"sequence"`
	Type       EntryType       `json:"type"`
	Kind       string          `json:"kind,omitempty"`
	ResourceID string          `json:"resource_id,omitempty"`
	Data       json.RawMessage `json:"data,omitempty"`
	Error      string          `json:"error,omitempty"`
}

// Journal appends entries for one invocation.
type Journal struct {
	mu         sync.Mutex
	file       *os.File
	writer     *bufio.Writer
	sequence   int64
	invocation string
}

// Open creates a journal file in dir, named by invocation start time.
func Open(dir string) (*Journal, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create journal directory: %w", err)
	}

	invocation := uuid.NewString()
	filename := fmt.Sprintf("cskeeper-%s.journal", time.Now().Format("20060102-150405"))
	path := filepath.Join(dir, filename)

	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644) // #nosec G304 -- operator-chosen dir
	if err != nil {
		return nil, fmt.Errorf("failed to open journal file: %w", err)
	}

	return &Journal{
		file:       file,
		writer:     bufio.NewWriter(file),
		invocation: invocation,
	}, nil
}

// Invocation returns the id stamped on every entry of this journal.
func (j *Journal) Invocation() string {
	return j.invocation
}

// Close flushes and closes the journal.
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if err := j.writer.Flush(); err != nil {
		return err
	}
	return j.file.Close()
}

// Append adds an entry.
func (j *Journal) Append(entryType EntryType, kind, resourceID string, data any) error {
	return j.append(entryType, kind, resourceID, data, nil)
}

// AppendError adds an entry carrying a failure.
func (j *Journal) AppendError(entryType EntryType, kind, resourceID string, data any, cause error) error {
	return j.append(entryType, kind, resourceID, data, cause)
}

func (j *Journal) append(entryType EntryType, kind, resourceID string, data any, cause error) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.sequence++

	var jsonData json.RawMessage
	if data != nil {
		encoded, err := json.Marshal(data)
		if err != nil {
			return fmt.Errorf("failed to marshal data: %w", err)
		}
		jsonData = encoded
	}

	entry := Entry{
		Timestamp:  time.Now(),
		Invocation: j.invocation,
		Sequence:   j.sequence,
		Type:       entryType,
		Kind:       kind,
		ResourceID: resourceID,
		Data:       jsonData,
	}
	if cause != nil {
		entry.Error = cause.Error()
	}

	return j.writeEntry(entry)
}

func (j *Journal) writeEntry(entry Entry) error {
	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal entry: %w", err)
	}

	if _, err := j.writer.Write(line); err != nil {
		return fmt.Errorf("failed to write entry: %w", err)
	}
	if _, err := j.writer.WriteString("\n"); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	// Flush immediately for durability
	if err := j.writer.Flush(); err != nil {
		return fmt.Errorf("failed to flush: %w", err)
	}
	return j.file.Sync()
}

// Reader replays journal entries from a file.
type Reader struct {
	scanner *bufio.Scanner
	file    *os.File
}

// NewReader opens a journal file for replay.
func NewReader(path string) (*Reader, error) {
	file, err := os.Open(path) // #nosec G304 -- operator-chosen path
	if err != nil {
		return nil, fmt.Errorf("failed to open journal file: %w", err)
	}
	return &Reader{
		scanner: bufio.NewScanner(file),
		file:    file,
	}, nil
}

// Next reads the next entry, returning io.EOF at end of file.
func (r *Reader) Next() (*Entry, error) {
	if !r.scanner.Scan() {
		if err := r.scanner.Err(); err != nil {
			return nil, err
		}
		return nil, io.EOF
	}

	var entry Entry
	if err := json.Unmarshal(r.scanner.Bytes(), &entry); err != nil {
		return nil, fmt.Errorf("failed to unmarshal entry: %w", err)
	}
	return &entry, nil
}

// Close closes the reader.
func (r *Reader) Close() error {
	return r.file.Close()
}
