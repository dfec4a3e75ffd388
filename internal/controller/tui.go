package controller

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	m "ngraph.dev/pkg/ngraph/internal/model"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#00FFFF"))

	activeTabStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#5F5FAF")).
			Padding(0, 1)

	inactiveTabStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#666666")).
				Padding(0, 1)

	selectedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFF00"))

	detailStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#5F5FAF")).
			Padding(0, 1)

	helpStyle = lipgloss.NewStyle().Faint(true)
)

// TUI implements UI with an interactive Bubble Tea graph browser. Everything
// except Browse is printed like SimpleUI.
type TUI struct {
	*SimpleUI
	output io.Writer
	input  io.Reader
}

// NewTUI creates a new TUI.
func NewTUI(cmd *cobra.Command) *TUI {
	return &TUI{
		SimpleUI: NewSimpleUI(cmd),
		output:   cmd.OutOrStdout(),
		input:    cmd.InOrStdin(),
	}
}

// Browse runs the browser until the user quits.
func (t *TUI) Browse(ctx context.Context, snapshot m.GraphSnapshot) error {
	model := newBrowserModel(snapshot)

	if f, ok := t.output.(*os.File); ok {
		width, height, err := term.GetSize(int(f.Fd()))
		if err == nil {
			model.width = width
			model.height = height
		}
	}

	program := tea.NewProgram(model,
		tea.WithContext(ctx),
		tea.WithInput(t.input),
		tea.WithOutput(t.output),
		tea.WithAltScreen(),
	)

	if _, err := program.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return ctx.Err()
		}

		return err
	}

	return nil
}

type browserView int

const (
	nodesView browserView = iota
	edgesView
)

type browserKeyMap struct {
	Up     key.Binding
	Down   key.Binding
	Top    key.Binding
	Bottom key.Binding
	Tab    key.Binding
	Follow key.Binding
	Quit   key.Binding
}

var browserKeys = browserKeyMap{
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "down"),
	),
	Top: key.NewBinding(
		key.WithKeys("g", "home"),
		key.WithHelp("g", "top"),
	),
	Bottom: key.NewBinding(
		key.WithKeys("G", "end"),
		key.WithHelp("G", "bottom"),
	),
	Tab: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("tab", "nodes/edges"),
	),
	Follow: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "follow"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "esc", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

func (k browserKeyMap) help() string {
	bindings := []key.Binding{k.Up, k.Down, k.Top, k.Bottom, k.Tab, k.Follow, k.Quit}
	parts := make([]string, 0, len(bindings))

	for _, b := range bindings {
		h := b.Help()
		parts = append(parts, h.Key+": "+h.Desc)
	}

	return strings.Join(parts, " | ")
}

// browserModel lists nodes or edges with a cursor and shows the selected
// item's neighbours below the list.
type browserModel struct {
	snapshot  m.GraphSnapshot
	nodeIndex map[string]int
	edgeIndex map[int]int
	view      browserView
	cursor    [2]int
	offset    [2]int
	height    int
	width     int
	quitting  bool
}

func newBrowserModel(snapshot m.GraphSnapshot) browserModel {
	model := browserModel{
		snapshot:  snapshot,
		nodeIndex: make(map[string]int, len(snapshot.Nodes)),
		edgeIndex: make(map[int]int, len(snapshot.Edges)),
	}

	for i, node := range snapshot.Nodes {
		model.nodeIndex[node.Path] = i
	}

	for i, edge := range snapshot.Edges {
		model.edgeIndex[edge.ID] = i
	}

	return model
}

func (bm browserModel) Init() tea.Cmd {
	return nil
}

func (bm browserModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		bm.height = msg.Height
		bm.width = msg.Width

		return bm.clamp(), nil

	case tea.KeyMsg:
		return bm.handleKeyPress(msg)
	}

	return bm, nil
}

func (bm browserModel) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, browserKeys.Quit):
		bm.quitting = true
		return bm, tea.Quit
	case key.Matches(msg, browserKeys.Up):
		bm.cursor[bm.view]--
	case key.Matches(msg, browserKeys.Down):
		bm.cursor[bm.view]++
	case key.Matches(msg, browserKeys.Top):
		bm.cursor[bm.view] = 0
	case key.Matches(msg, browserKeys.Bottom):
		bm.cursor[bm.view] = bm.itemCount() - 1
	case key.Matches(msg, browserKeys.Tab):
		bm.view = 1 - bm.view
	case key.Matches(msg, browserKeys.Follow):
		bm = bm.follow()
	}

	return bm.clamp(), nil
}

// follow jumps from a node to the edge producing it, or from an edge to its
// first output.
func (bm browserModel) follow() browserModel {
	switch bm.view {
	case nodesView:
		node, ok := bm.selectedNode()
		if !ok || node.InEdge == nil {
			return bm
		}

		if i, ok := bm.edgeIndex[*node.InEdge]; ok {
			bm.view = edgesView
			bm.cursor[edgesView] = i
		}
	case edgesView:
		edge, ok := bm.selectedEdge()
		if !ok || len(edge.Outputs)+len(edge.ImplicitOutputs) == 0 {
			return bm
		}

		first := append(append([]string{}, edge.Outputs...), edge.ImplicitOutputs...)[0]
		if i, ok := bm.nodeIndex[first]; ok {
			bm.view = nodesView
			bm.cursor[nodesView] = i
		}
	}

	return bm
}

// clamp keeps the cursor in range and scrolls it into the visible window.
func (bm browserModel) clamp() browserModel {
	count := bm.itemCount()
	cursor := bm.cursor[bm.view]

	if cursor >= count {
		cursor = count - 1
	}

	if cursor < 0 {
		cursor = 0
	}

	bm.cursor[bm.view] = cursor

	perPage := bm.itemsPerPage()
	offset := bm.offset[bm.view]

	if cursor < offset {
		offset = cursor
	}

	if cursor >= offset+perPage {
		offset = cursor - perPage + 1
	}

	bm.offset[bm.view] = offset

	return bm
}

func (bm browserModel) itemCount() int {
	if bm.view == edgesView {
		return len(bm.snapshot.Edges)
	}

	return len(bm.snapshot.Nodes)
}

// itemsPerPage reserves room for the tabs, the detail box and the help line.
func (bm browserModel) itemsPerPage() int {
	if bm.height == 0 {
		return 10
	}

	reserved := 14

	available := bm.height - reserved
	if available < 1 {
		return 1
	}

	return available
}

func (bm browserModel) selectedNode() (m.NodeSnapshot, bool) {
	i := bm.cursor[nodesView]
	if i < 0 || i >= len(bm.snapshot.Nodes) {
		return m.NodeSnapshot{}, false
	}

	return bm.snapshot.Nodes[i], true
}

func (bm browserModel) selectedEdge() (m.EdgeSnapshot, bool) {
	i := bm.cursor[edgesView]
	if i < 0 || i >= len(bm.snapshot.Edges) {
		return m.EdgeSnapshot{}, false
	}

	return bm.snapshot.Edges[i], true
}

func (bm browserModel) View() string {
	if bm.quitting {
		return ""
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render("ngraph " + bm.snapshot.Manifest))
	b.WriteString("\n")
	b.WriteString(bm.renderTabs())
	b.WriteString("\n\n")

	if bm.itemCount() == 0 {
		b.WriteString("  (empty)\n")
	} else {
		bm.renderList(&b)
		b.WriteString("\n")
		b.WriteString(detailStyle.Render(bm.renderDetail()))
		b.WriteString("\n")
	}

	b.WriteString(helpStyle.Render(browserKeys.help()))
	b.WriteString("\n")

	return b.String()
}

func (bm browserModel) renderTabs() string {
	nodes := fmt.Sprintf("Nodes (%d)", len(bm.snapshot.Nodes))
	edges := fmt.Sprintf("Edges (%d)", len(bm.snapshot.Edges))

	if bm.view == nodesView {
		return activeTabStyle.Render(nodes) + inactiveTabStyle.Render(edges)
	}

	return inactiveTabStyle.Render(nodes) + activeTabStyle.Render(edges)
}

func (bm browserModel) renderList(b *strings.Builder) {
	start := bm.offset[bm.view]

	end := start + bm.itemsPerPage()
	if end > bm.itemCount() {
		end = bm.itemCount()
	}

	for i := start; i < end; i++ {
		line := bm.itemLine(i)
		if bm.width > 4 && len(line) > bm.width-2 {
			line = line[:bm.width-5] + "..."
		}

		if i == bm.cursor[bm.view] {
			b.WriteString(selectedStyle.Render("> " + line))
		} else {
			b.WriteString("  " + line)
		}

		b.WriteString("\n")
	}
}

func (bm browserModel) itemLine(i int) string {
	if bm.view == edgesView {
		edge := bm.snapshot.Edges[i]
		return fmt.Sprintf("#%d %s: %s", edge.ID, edge.Rule, strings.Join(edge.Outputs, " "))
	}

	node := bm.snapshot.Nodes[i]
	if node.InEdge == nil {
		return node.Path
	}

	return fmt.Sprintf("%s (#%d)", node.Path, *node.InEdge)
}

func (bm browserModel) renderDetail() string {
	if bm.view == edgesView {
		edge, _ := bm.selectedEdge()
		return formatEdgeDetail(edge)
	}

	node, _ := bm.selectedNode()

	return formatNodeDetail(node)
}

func formatNodeDetail(node m.NodeSnapshot) string {
	var b strings.Builder

	fmt.Fprintf(&b, "path: %s\n", node.Path)

	if node.Scope != "" {
		fmt.Fprintf(&b, "scope: %s\n", node.Scope)
	}

	if node.InEdge != nil {
		fmt.Fprintf(&b, "produced by: #%d\n", *node.InEdge)
	} else {
		b.WriteString("produced by: (source)\n")
	}

	consumers := make([]string, 0, len(node.OutEdges))
	for _, id := range node.OutEdges {
		consumers = append(consumers, fmt.Sprintf("#%d", id))
	}

	fmt.Fprintf(&b, "consumed by: %s", strings.Join(consumers, " "))

	if node.DyndepPending {
		b.WriteString("\ndyndep pending")
	}

	return b.String()
}

func formatEdgeDetail(edge m.EdgeSnapshot) string {
	var b strings.Builder

	fmt.Fprintf(&b, "rule: %s\n", edge.Rule)

	if edge.Pool != "" {
		fmt.Fprintf(&b, "pool: %s\n", edge.Pool)
	}

	if edge.Command != "" {
		fmt.Fprintf(&b, "command: %s\n", edge.Command)
	}

	if edge.Dyndep != "" {
		fmt.Fprintf(&b, "dyndep: %s\n", edge.Dyndep)
	}

	b.WriteString(formatEdge(edge))

	return b.String()
}
