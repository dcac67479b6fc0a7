// Package history persists delivered practice recordings as append-only
// JSON lines in a local file, one object per recording. The file can be
// replayed with [ReadAll] to show a learner's progress across restarts.
package history

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/MrWong99/enunciate/internal/practice"
	"github.com/MrWong99/enunciate/pkg/types"
)

// Compile-time interface check.
var _ practice.Journal = (*FileStore)(nil)

// Record is a single history entry written to the file store.
type Record struct {
	Timestamp    time.Time            `json:"timestamp"`
	SessionID    string               `json:"session_id"`
	RecordingID  string               `json:"recording_id"`
	ItemID       int                  `json:"item_id"`
	ItemText     string               `json:"item_text"`
	Difficulty   types.Difficulty     `json:"difficulty"`
	Breakdown    types.ScoreBreakdown `json:"breakdown"`
	Message      string               `json:"message"`
	Tip          string               `json:"tip,omitempty"`
	RecognizedAs string               `json:"recognized_as,omitempty"`
	DurationSecs float64              `json:"duration_seconds"`
}

// FileStore appends history records to a local file.
// Thread-safe for concurrent use.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore creates a FileStore that writes to the given path.
// The file is created on the first append.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the file the store writes to.
func (fs *FileStore) Path() string {
	return fs.path
}

// Append implements [practice.Journal]. Recordings that were not delivered
// are rejected.
func (fs *FileStore) Append(_ context.Context, rec practice.Recording) error {
	if rec.State != practice.StateDelivered || rec.Breakdown == nil {
		return fmt.Errorf("history: recording %s is %s, not delivered", rec.ID, rec.State)
	}

	record := Record{
		Timestamp:    time.Now().UTC(),
		SessionID:    rec.SessionID,
		RecordingID:  rec.ID,
		ItemID:       rec.Item.ID,
		ItemText:     rec.Item.Text,
		Difficulty:   rec.Item.Difficulty,
		Breakdown:    *rec.Breakdown,
		DurationSecs: rec.Metadata.DurationSeconds,
	}
	if rec.DeliveredAt != nil {
		record.Timestamp = *rec.DeliveredAt
	}
	if rec.Feedback != nil {
		record.Message = rec.Feedback.Message
		record.Tip = rec.Feedback.Tip
	}
	if rec.Recognition != nil {
		record.RecognizedAs = rec.Recognition.RecognizedText
	}

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("history: marshal: %w", err)
	}
	data = append(data, '\n')

	fs.mu.Lock()
	defer fs.mu.Unlock()

	f, err := os.OpenFile(fs.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("history: open file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("history: write: %w", err)
	}
	return nil
}

// ReadAll returns every record in the store, oldest first. A missing file
// yields no records.
func (fs *FileStore) ReadAll() ([]Record, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	f, err := os.Open(fs.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("history: open file: %w", err)
	}
	defer f.Close()
	return decode(f)
}

func decode(r io.Reader) ([]Record, error) {
	var records []Record
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	line := 0
	for sc.Scan() {
		line++
		if len(sc.Bytes()) == 0 {
			continue
		}
		var rec Record
		if err := json.Unmarshal(sc.Bytes(), &rec); err != nil {
			return nil, fmt.Errorf("history: line %d: %w", line, err)
		}
		records = append(records, rec)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("history: read: %w", err)
	}
	return records, nil
}
