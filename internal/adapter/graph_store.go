package adapter

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	m "ngraph.dev/pkg/ngraph/internal/model"
)

// GraphStore persists graph snapshots.
type GraphStore interface {
	SaveGraph(ctx context.Context, path m.Path, snapshot m.GraphSnapshot) error
	LoadGraph(ctx context.Context, path m.Path) (m.GraphSnapshot, error)
	MarshalGraph(snapshot m.GraphSnapshot) ([]byte, error)
}

// YAMLGraphStore writes snapshots as YAML documents.
type YAMLGraphStore struct {
	fs afero.Fs
}

// NewGraphStore returns a YAML store over fs.
func NewGraphStore(fs afero.Fs) *YAMLGraphStore {
	return &YAMLGraphStore{fs: fs}
}

// MarshalGraph encodes the snapshot.
func (s *YAMLGraphStore) MarshalGraph(snapshot m.GraphSnapshot) ([]byte, error) {
	data, err := yaml.Marshal(snapshot)
	if err != nil {
		return nil, fmt.Errorf("marshal graph: %w", err)
	}

	return data, nil
}

// SaveGraph writes the snapshot to path, creating parent directories.
func (s *YAMLGraphStore) SaveGraph(ctx context.Context, path m.Path, snapshot m.GraphSnapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := s.MarshalGraph(snapshot)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(string(path)); dir != "." {
		if err := s.fs.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}

	if err := afero.WriteFile(s.fs, string(path), data, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	return nil
}

// LoadGraph reads a snapshot written by SaveGraph.
func (s *YAMLGraphStore) LoadGraph(ctx context.Context, path m.Path) (m.GraphSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return m.GraphSnapshot{}, err
	}

	data, err := afero.ReadFile(s.fs, string(path))
	if err != nil {
		return m.GraphSnapshot{}, fmt.Errorf("read %s: %w", path, err)
	}

	var snapshot m.GraphSnapshot
	if err := yaml.Unmarshal(data, &snapshot); err != nil {
		return m.GraphSnapshot{}, fmt.Errorf("decode %s: %w", path, err)
	}

	return snapshot, nil
}
