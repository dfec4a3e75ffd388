package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	m "ngraph.dev/pkg/ngraph/internal/model"
)

const snapshotManifest = `pool link_pool
  depth = 2
rule cc
  command = cc -c $in -o $out
rule link
  command = cc $in -o $out
  pool = link_pool
build a.o | a.d: cc a.c | a.h || gen
  dyndep = gen
build gen: phony
build app: link a.o
default app
`

func TestSnapshot(t *testing.T) {
	state := mustParse(t, snapshotManifest)

	snapshot := Snapshot(state, "build.ninja")

	assert.Equal(t, "build.ninja", snapshot.Manifest)
	assert.Equal(t, []m.PoolSnapshot{
		{Name: "console", Depth: 1},
		{Name: "link_pool", Depth: 2},
	}, snapshot.Pools)

	require.Len(t, snapshot.Edges, 3)
	assert.Equal(t, m.EdgeSnapshot{
		ID:              0,
		Rule:            "cc",
		Outputs:         []string{"a.o"},
		ImplicitOutputs: []string{"a.d"},
		Inputs:          []string{"a.c"},
		ImplicitInputs:  []string{"a.h"},
		OrderOnly:       []string{"gen"},
		Dyndep:          "gen",
		Command:         "cc -c a.c -o a.o",
	}, snapshot.Edges[0])
	assert.Equal(t, m.EdgeSnapshot{ID: 1, Rule: "phony", Outputs: []string{"gen"}}, snapshot.Edges[1])
	assert.Equal(t, "link_pool", snapshot.Edges[2].Pool)
	assert.Equal(t, "cc a.o -o app", snapshot.Edges[2].Command)

	assert.Equal(t, []string{"app"}, snapshot.Defaults)

	byPath := make(map[string]m.NodeSnapshot, len(snapshot.Nodes))
	for _, node := range snapshot.Nodes {
		byPath[node.Path] = node
	}

	require.Contains(t, byPath, "a.o")
	require.NotNil(t, byPath["a.o"].InEdge)
	assert.Equal(t, 0, *byPath["a.o"].InEdge)
	assert.Equal(t, []int{2}, byPath["a.o"].OutEdges)

	assert.Nil(t, byPath["a.c"].InEdge)
	assert.True(t, byPath["gen"].DyndepPending)
}

func TestSnapshot_Deterministic(t *testing.T) {
	first := Snapshot(mustParse(t, snapshotManifest), "x")
	second := Snapshot(mustParse(t, snapshotManifest), "x")

	assert.Equal(t, first, second)
}

func TestSnapshot_EmptyOutputsNotNil(t *testing.T) {
	state := mustParse(t, "rule r\n  command = r\nbuild | only: r\n")

	snapshot := Snapshot(state, "")

	require.Len(t, snapshot.Edges, 1)
	assert.NotNil(t, snapshot.Edges[0].Outputs)
	assert.Empty(t, snapshot.Edges[0].Outputs)
	assert.Equal(t, []string{"only"}, snapshot.Edges[0].ImplicitOutputs)
}

func TestSummarize(t *testing.T) {
	state := mustParse(t, snapshotManifest)

	summary := Summarize(state, "build.ninja")

	assert.Equal(t, "build.ninja", summary.Manifest)
	assert.Equal(t, 2, summary.Rules)
	assert.Equal(t, 3, summary.Pools)
	assert.Equal(t, 3, summary.Edges)
	assert.Equal(t, len(state.Nodes()), summary.Nodes)
	assert.Equal(t, 1, summary.Defaults)
	assert.Equal(t, 2, summary.Roots, "a.d and app")
	assert.Equal(t, len(state.Scopes()), summary.Scopes)
}
