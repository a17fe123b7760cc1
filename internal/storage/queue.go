// Package storage provides file-backed persistence for the task queue
// aggregate and the sync bridge's external record files.
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/critdev/crit/pkg/models"
)

// QueueStore reads and writes one queue aggregate as a single JSON document.
type QueueStore interface {
	// Load reads the queue file. A missing or corrupt file yields an empty
	// queue, never an error: the loader is best-effort by contract.
	Load() (*models.Queue, error)

	// Save writes the full aggregate atomically (temp file plus rename).
	Save(q *models.Queue) error

	// Path returns the queue file location.
	Path() string
}

type fileQueueStore struct {
	path      string
	queueName string
}

// NewQueueStore creates a QueueStore for the queue file at path. queueName
// seeds the aggregate when no file exists yet.
func NewQueueStore(path, queueName string) QueueStore {
	return &fileQueueStore{path: path, queueName: queueName}
}

func (s *fileQueueStore) Path() string {
	return s.path
}

func (s *fileQueueStore) Load() (*models.Queue, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		// Missing file: start empty.
		return models.NewQueue(s.queueName), nil
	}

	var q models.Queue
	if err := json.Unmarshal(data, &q); err != nil {
		// Corrupt file: start empty rather than aborting the process.
		return models.NewQueue(s.queueName), nil
	}
	if q.Name == "" {
		q.Name = s.queueName
	}
	if q.Tasks == nil {
		q.Tasks = []*models.Task{}
	}
	return &q, nil
}

func (s *fileQueueStore) Save(q *models.Queue) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o750); err != nil {
		return fmt.Errorf("saving queue: creating directory: %w", err)
	}

	data, err := json.MarshalIndent(q, "", "  ")
	if err != nil {
		return fmt.Errorf("saving queue: marshaling JSON: %w", err)
	}
	data = append(data, '\n')

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("saving queue: writing temp file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("saving queue: renaming temp file: %w", err)
	}
	return nil
}

// ReadSyncRecords reads an external todo file. A missing file returns nil
// records and no error; malformed JSON is an error the caller logs.
func ReadSyncRecords(path string) ([]models.SyncRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading sync file: %w", err)
	}

	var records []models.SyncRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parsing sync file %s: %w", path, err)
	}
	return records, nil
}

// WriteSyncRecords overwrites an external todo file wholesale.
func WriteSyncRecords(path string, records []models.SyncRecord) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("writing sync file: creating directory: %w", err)
	}
	if records == nil {
		records = []models.SyncRecord{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("writing sync file: marshaling JSON: %w", err)
	}
	data = append(data, '\n')

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("writing sync file: writing temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("writing sync file: renaming temp file: %w", err)
	}
	return nil
}
