package fs

import (
	"context"
	"encoding/json"
	"os"

	shl "github.com/arnnv/shl-recommendation-system"
)

var _ shl.StateStore = (*StateStore)(nil)

// StateStore implements shl.StateStore on a JSON file.
type StateStore struct {
	path string
}

// NewStateStore creates a store backed by the JSON file at path.
func NewStateStore(path string) *StateStore {
	return &StateStore{path: path}
}

// Load reads the crawl state. A missing file yields a fresh state. States
// written by older runs may lack a section entry; missing entries are
// initialized so callers can rely on both sections being present.
func (s *StateStore) Load(ctx context.Context) (*shl.CrawlState, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return shl.NewCrawlState(), nil
	}
	if err != nil {
		return nil, shl.Errorf(shl.EINTERNAL, "read crawl state %s: %v", s.path, err)
	}

	state := shl.NewCrawlState()
	if err := json.Unmarshal(data, state); err != nil {
		return nil, shl.Errorf(shl.EINVALID, "parse crawl state %s: %v", s.path, err)
	}
	for _, sec := range shl.Sections {
		state.Section(sec)
	}
	return state, nil
}

// Save atomically rewrites the state file.
func (s *StateStore) Save(ctx context.Context, state *shl.CrawlState) error {
	return writeJSON(s.path, state)
}
