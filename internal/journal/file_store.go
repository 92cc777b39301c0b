package journal

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/kindred-labs/hearthside/internal/logbook"
)

// FileStore keeps the journal as a single JSON file under the data
// directory. Save writes the full snapshot; Load tolerates a missing or
// corrupt file by returning an empty journal so startup never fails on
// bad state.
type FileStore struct {
	path string
	log  *logbook.Logbook
}

// NewFileStore creates a store rooted at the given file path.
func NewFileStore(path string, log *logbook.Logbook) *FileStore {
	return &FileStore{path: path, log: log}
}

// Load reads the persisted journal. A parse failure is logged and treated
// as an empty journal, never surfaced to the user.
func (s *FileStore) Load() ([]ImpactRecord, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []ImpactRecord{}, nil
		}
		return nil, err
	}
	var records []ImpactRecord
	if err := json.Unmarshal(data, &records); err != nil {
		s.log.Warn("journal: discarding unreadable state at %s: %v", s.path, err)
		return []ImpactRecord{}, nil
	}
	if records == nil {
		records = []ImpactRecord{}
	}
	return records, nil
}

// Save overwrites the journal with the given snapshot, newest first.
func (s *FileStore) Save(records []ImpactRecord) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	encoded, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, append(encoded, '\n'), 0o644)
}
