package adapter

import (
	"context"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	m "ngraph.dev/pkg/ngraph/internal/model"
)

func TestGraphStore_SaveAndLoad(t *testing.T) {
	fs := afero.NewMemMapFs()
	store := NewGraphStore(fs)
	ctx := context.Background()

	producer := 0
	snapshot := m.GraphSnapshot{
		Manifest: "build.ninja",
		Pools:    []m.PoolSnapshot{{Name: "link", Depth: 2}},
		Edges: []m.EdgeSnapshot{{
			ID:        0,
			Rule:      "cc",
			Outputs:   []string{"a.o"},
			Inputs:    []string{"a.c"},
			OrderOnly: []string{"gen"},
		}},
		Nodes: []m.NodeSnapshot{
			{Path: "a.c", OutEdges: []int{0}},
			{Path: "a.o", InEdge: &producer},
		},
		Defaults: []string{"a.o"},
	}

	require.NoError(t, store.SaveGraph(ctx, "out/graph.yaml", snapshot))

	exists, err := afero.Exists(fs, "out/graph.yaml")
	require.NoError(t, err)
	assert.True(t, exists)

	loaded, err := store.LoadGraph(ctx, "out/graph.yaml")
	require.NoError(t, err)
	assert.Equal(t, snapshot, loaded)
}

func TestGraphStore_MarshalGraph(t *testing.T) {
	store := NewGraphStore(afero.NewMemMapFs())

	data, err := store.MarshalGraph(m.GraphSnapshot{
		Manifest: "build.ninja",
		Edges:    []m.EdgeSnapshot{{Rule: "phony", Outputs: []string{"all"}}},
	})
	require.NoError(t, err)
	assert.Contains(t, string(data), "manifest: build.ninja")
	assert.Contains(t, string(data), "rule: phony")
	assert.NotContains(t, string(data), "defaults")
}

func TestGraphStore_LoadErrors(t *testing.T) {
	fs := afero.NewMemMapFs()
	store := NewGraphStore(fs)
	ctx := context.Background()

	_, err := store.LoadGraph(ctx, "missing.yaml")
	require.Error(t, err)

	require.NoError(t, afero.WriteFile(fs, "bad.yaml", []byte("edges: [: oops"), 0o600))
	_, err = store.LoadGraph(ctx, "bad.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode bad.yaml")
}
