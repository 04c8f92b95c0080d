package report

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Compile-time interface check.
var _ Store = (*FileStore)(nil)

// FileStore persists reports as append-only JSON lines in a local file. It is
// suitable for local runs and as a durable fallback when the database is
// unreachable. Thread-safe for concurrent use.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore creates a FileStore that writes to the given path.
// The file is created if it does not exist.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Save appends a report to the file as one JSON line. A missing ID is
// assigned a fresh UUID and CreatedAt is set before writing.
func (fs *FileStore) Save(_ context.Context, r *Report) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}

	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("report: marshal: %w", err)
	}
	data = append(data, '\n')

	f, err := os.OpenFile(fs.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("report: open file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("report: write: %w", err)
	}
	return nil
}
