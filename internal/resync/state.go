package resync

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

const stateFileName = "state.json"

// State tracks the content hash of every document enqueued for indexing,
// so subsequent resyncs can skip unchanged files.
type State struct {
	FileHashes  map[string]string `json:"file_hashes"`
	LastUpdated time.Time         `json:"last_updated"`
}

// LoadState reads resync state from state.json inside the given data
// directory. A missing file yields empty state, which causes every
// document to be treated as new.
func LoadState(dataDir string) (*State, error) {
	data, err := os.ReadFile(filepath.Join(dataDir, stateFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return &State{FileHashes: make(map[string]string)}, nil
		}
		return nil, err
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, err
	}
	if state.FileHashes == nil {
		state.FileHashes = make(map[string]string)
	}
	return &state, nil
}

// Save writes the state to state.json inside the given data directory,
// creating the directory if needed.
func (s *State) Save(dataDir string) error {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return err
	}

	s.LastUpdated = time.Now()
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(filepath.Join(dataDir, stateFileName), data, 0o644)
}

// IsChanged returns true if the file's content hash differs from the
// stored hash, or if the file has never been seen.
func (s *State) IsChanged(relPath, contentHash string) bool {
	stored, ok := s.FileHashes[relPath]
	if !ok {
		return true
	}
	return stored != contentHash
}
