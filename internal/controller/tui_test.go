package controller

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	m "ngraph.dev/pkg/ngraph/internal/model"
)

func browserSnapshot() m.GraphSnapshot {
	return m.GraphSnapshot{
		Manifest: "build.ninja",
		Edges: []m.EdgeSnapshot{
			{ID: 0, Rule: "cc", Outputs: []string{"a.o"}, Inputs: []string{"a.c"}, Command: "cc -c a.c -o a.o"},
			{ID: 1, Rule: "link", Pool: "console", Outputs: []string{"app"}, Inputs: []string{"a.o"}},
		},
		Nodes: []m.NodeSnapshot{
			{Path: "a.c", OutEdges: []int{0}},
			{Path: "a.o", InEdge: intPtr(0), OutEdges: []int{1}},
			{Path: "app", InEdge: intPtr(1)},
		},
	}
}

func press(t *testing.T, model browserModel, keys ...string) browserModel {
	t.Helper()

	for _, k := range keys {
		var msg tea.KeyMsg

		switch k {
		case "down":
			msg = tea.KeyMsg{Type: tea.KeyDown}
		case "up":
			msg = tea.KeyMsg{Type: tea.KeyUp}
		case "tab":
			msg = tea.KeyMsg{Type: tea.KeyTab}
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}

		next, _ := model.Update(msg)

		var ok bool
		model, ok = next.(browserModel)
		require.True(t, ok)
	}

	return model
}

func TestBrowserModel_Navigation(t *testing.T) {
	model := newBrowserModel(browserSnapshot())

	model = press(t, model, "down", "j")
	assert.Equal(t, 2, model.cursor[nodesView])

	model = press(t, model, "down")
	assert.Equal(t, 2, model.cursor[nodesView], "cursor stops at the last node")

	model = press(t, model, "k", "up", "up")
	assert.Equal(t, 0, model.cursor[nodesView], "cursor stops at the first node")

	model = press(t, model, "G")
	assert.Equal(t, 2, model.cursor[nodesView])

	model = press(t, model, "g")
	assert.Equal(t, 0, model.cursor[nodesView])
}

func TestBrowserModel_TabKeepsCursorPerView(t *testing.T) {
	model := newBrowserModel(browserSnapshot())

	model = press(t, model, "down", "tab")
	assert.Equal(t, edgesView, model.view)
	assert.Equal(t, 0, model.cursor[edgesView])

	model = press(t, model, "down", "tab")
	assert.Equal(t, nodesView, model.view)
	assert.Equal(t, 1, model.cursor[nodesView])
	assert.Equal(t, 1, model.cursor[edgesView])
}

func TestBrowserModel_Follow(t *testing.T) {
	model := newBrowserModel(browserSnapshot())

	// app is produced by edge #1.
	model = press(t, model, "G", "enter")
	assert.Equal(t, edgesView, model.view)
	assert.Equal(t, 1, model.cursor[edgesView])

	// Edge #0 outputs a.o.
	model = press(t, model, "g", "enter")
	assert.Equal(t, nodesView, model.view)
	assert.Equal(t, 1, model.cursor[nodesView])

	// a.c is a source file, so there is nothing to follow.
	model = press(t, model, "g", "enter")
	assert.Equal(t, nodesView, model.view)
	assert.Equal(t, 0, model.cursor[nodesView])
}

func TestBrowserModel_Quit(t *testing.T) {
	tests := map[string]tea.KeyMsg{
		"q":      {Type: tea.KeyRunes, Runes: []rune("q")},
		"esc":    {Type: tea.KeyEsc},
		"ctrl+c": {Type: tea.KeyCtrlC},
	}

	for name, msg := range tests {
		t.Run(name, func(t *testing.T) {
			next, cmd := newBrowserModel(browserSnapshot()).Update(msg)

			require.NotNil(t, cmd)
			assert.Equal(t, tea.Quit(), cmd())
			assert.Empty(t, next.View())
		})
	}
}

func TestBrowserModel_View(t *testing.T) {
	model := newBrowserModel(browserSnapshot())

	view := model.View()
	assert.Contains(t, view, "ngraph build.ninja")
	assert.Contains(t, view, "Nodes (3)")
	assert.Contains(t, view, "Edges (2)")
	assert.Contains(t, view, "a.o (#0)")
	assert.Contains(t, view, "produced by: (source)")
	assert.Contains(t, view, "consumed by: #0")
	assert.Contains(t, view, "q: quit")

	model = press(t, model, "tab", "down")
	view = model.View()
	assert.Contains(t, view, "#1 link: app")
	assert.Contains(t, view, "pool: console")
	assert.Contains(t, view, "#1 link: app <- a.o")
}

func TestBrowserModel_Empty(t *testing.T) {
	model := newBrowserModel(m.GraphSnapshot{Manifest: "empty.ninja"})

	model = press(t, model, "down", "enter", "tab", "enter")
	assert.Equal(t, 0, model.cursor[nodesView])
	assert.Equal(t, 0, model.cursor[edgesView])
	assert.Contains(t, model.View(), "(empty)")
}

func TestBrowserModel_Scrolling(t *testing.T) {
	snapshot := m.GraphSnapshot{}
	for _, path := range []string{"a", "b", "c", "d", "e", "f"} {
		snapshot.Nodes = append(snapshot.Nodes, m.NodeSnapshot{Path: path})
	}

	model := newBrowserModel(snapshot)

	next, _ := model.Update(tea.WindowSizeMsg{Width: 80, Height: 16})
	model = next.(browserModel)
	require.Equal(t, 2, model.itemsPerPage())

	model = press(t, model, "down", "down", "down")
	assert.Equal(t, 3, model.cursor[nodesView])
	assert.Equal(t, 2, model.offset[nodesView])

	model = press(t, model, "g")
	assert.Equal(t, 0, model.offset[nodesView])
}

func TestBrowserModel_ItemsPerPageDefault(t *testing.T) {
	model := newBrowserModel(m.GraphSnapshot{})
	assert.Equal(t, 10, model.itemsPerPage())

	model.height = 3
	assert.Equal(t, 1, model.itemsPerPage())
}
