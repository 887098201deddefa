package pipeline

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

const (
	// RunsDir is the subdirectory of the data directory holding runs.
	RunsDir = "runs"
	// RunFile is the filename of a run record.
	RunFile = "run.json"
)

// ErrRunNotFound is returned when a run id is unknown.
var ErrRunNotFound = errors.New("run not found")

// Store persists run records.
type Store interface {
	Save(run *RunRecord) error
	Load(id string) (*RunRecord, error)
	List() ([]RunRecord, error)
}

// FileStore keeps each run in <dataDir>/runs/<id>/run.json.
type FileStore struct {
	root string
}

// NewFileStore creates a filesystem-backed run store under dataDir.
func NewFileStore(dataDir string) *FileStore {
	return &FileStore{root: filepath.Join(dataDir, RunsDir)}
}

// RunPath returns the path of a run's run.json.
func (fs *FileStore) RunPath(id string) string {
	return filepath.Join(fs.root, id, RunFile)
}

// Save writes the run record, creating its directory when needed.
func (fs *FileStore) Save(run *RunRecord) error {
	if run.ID == "" {
		return fmt.Errorf("saving run: empty id")
	}
	data, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling run: %w", err)
	}
	path := fs.RunPath(run.ID)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating run directory: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// Load reads a run record by id.
func (fs *FileStore) Load(id string) (*RunRecord, error) {
	data, err := os.ReadFile(fs.RunPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %q", ErrRunNotFound, id)
		}
		return nil, fmt.Errorf("reading run: %w", err)
	}
	var run RunRecord
	if err := json.Unmarshal(data, &run); err != nil {
		return nil, fmt.Errorf("parsing run.json for %q: %w", id, err)
	}
	return &run, nil
}

// List returns every readable run, newest first.
func (fs *FileStore) List() ([]RunRecord, error) {
	entries, err := os.ReadDir(fs.root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading runs directory: %w", err)
	}
	var result []RunRecord
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		run, err := fs.Load(entry.Name())
		if err != nil {
			continue // skip unreadable runs
		}
		result = append(result, *run)
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt > result[j].CreatedAt
	})
	return result, nil
}
