// Package fs persists the dataset and crawl state as JSON files with atomic
// update semantics: content is written to a temporary sibling file and moved
// into place with a rename, so readers never observe a half-written file.
package fs

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	shl "github.com/arnnv/shl-recommendation-system"
)

var _ shl.DatasetStore = (*DatasetStore)(nil)

// DatasetStore implements shl.DatasetStore on a JSON file.
type DatasetStore struct {
	path string
}

// NewDatasetStore creates a store backed by the JSON file at path. Partial
// saves go to a sibling file with "_partial" inserted before the extension.
func NewDatasetStore(path string) *DatasetStore {
	return &DatasetStore{path: path}
}

// PartialPath returns the sidecar path used by SavePartial.
func (s *DatasetStore) PartialPath() string {
	ext := filepath.Ext(s.path)
	return strings.TrimSuffix(s.path, ext) + "_partial" + ext
}

// Load reads the dataset. A missing file yields an empty collection. Records
// are normalized on the way in so JSON round-trips cannot violate the
// consumer contract.
func (s *DatasetStore) Load(ctx context.Context) ([]*shl.Assessment, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return []*shl.Assessment{}, nil
	}
	if err != nil {
		return nil, shl.Errorf(shl.EINTERNAL, "read dataset %s: %v", s.path, err)
	}

	var assessments []*shl.Assessment
	if err := json.Unmarshal(data, &assessments); err != nil {
		return nil, shl.Errorf(shl.EINVALID, "parse dataset %s: %v", s.path, err)
	}
	for _, a := range assessments {
		a.Normalize()
	}
	return assessments, nil
}

// Save atomically rewrites the main dataset file.
func (s *DatasetStore) Save(ctx context.Context, assessments []*shl.Assessment) error {
	return writeJSON(s.path, normalized(assessments))
}

// SavePartial atomically rewrites the in-flight sidecar file.
func (s *DatasetStore) SavePartial(ctx context.Context, assessments []*shl.Assessment) error {
	return writeJSON(s.PartialPath(), normalized(assessments))
}

func normalized(assessments []*shl.Assessment) []*shl.Assessment {
	for _, a := range assessments {
		a.Normalize()
	}
	if assessments == nil {
		return []*shl.Assessment{}
	}
	return assessments
}

// writeJSON writes v to path via a temporary file in the same directory
// followed by a rename.
func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return shl.Errorf(shl.EINTERNAL, "encode %s: %v", path, err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return shl.Errorf(shl.EINTERNAL, "create directory %s: %v", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return shl.Errorf(shl.EINTERNAL, "create temp file in %s: %v", dir, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return shl.Errorf(shl.EINTERNAL, "write %s: %v", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return shl.Errorf(shl.EINTERNAL, "close %s: %v", tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return shl.Errorf(shl.EINTERNAL, "rename %s to %s: %v", tmpName, path, err)
	}
	return nil
}
