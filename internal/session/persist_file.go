package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"vlc/internal/sentinel"
)

// RecordName is the fixed storage name for the session record. The durable
// layer holds at most one session per installation, always under this name.
const RecordName = "vlc_auth"

// FilePersistence stores the session record as a single JSON file. This is
// the default backing for single-user installs: the record survives process
// restarts and its absence means the user is logged out.
type FilePersistence struct {
	mu   sync.Mutex
	path string
}

// NewFilePersistence stores the record at dir/vlc_auth.json.
func NewFilePersistence(dir string) (*FilePersistence, error) {
	if dir == "" {
		return nil, fmt.Errorf("session directory is required")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create session directory: %w", err)
	}
	return &FilePersistence{path: filepath.Join(dir, RecordName+".json")}, nil
}

func (f *FilePersistence) Save(_ context.Context, state State) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode session record: %w", err)
	}

	// Write-then-rename so a crash mid-write never leaves a torn record.
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write session record: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("replace session record: %w", err)
	}
	return nil
}

func (f *FilePersistence) Load(_ context.Context) (*State, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("session record: %w", sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("read session record: %w", err)
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("decode session record: %w", err)
	}
	return &state, nil
}

func (f *FilePersistence) Clear(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.Remove(f.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove session record: %w", err)
	}
	return nil
}
