package controller

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	m "ngraph.dev/pkg/ngraph/internal/model"
)

// SimpleUI implements UI using cobra Command's output.
type SimpleUI struct {
	cmd *cobra.Command
}

// NewSimpleUI creates a new SimpleUI.
func NewSimpleUI(cmd *cobra.Command) *SimpleUI {
	return &SimpleUI{cmd: cmd}
}

// DisplaySummary prints the graph counts as a table.
func (s *SimpleUI) DisplaySummary(ctx context.Context, summary m.GraphSummary) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var tableBuffer bytes.Buffer

	table := tablewriter.NewWriter(&tableBuffer)
	table.SetHeader([]string{"Graph", "Count"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_RIGHT})

	rows := []struct {
		name  string
		count int
	}{
		{"rules", summary.Rules},
		{"pools", summary.Pools},
		{"edges", summary.Edges},
		{"nodes", summary.Nodes},
		{"defaults", summary.Defaults},
		{"roots", summary.Roots},
		{"scopes", summary.Scopes},
	}

	for _, row := range rows {
		table.Append([]string{row.name, strconv.Itoa(row.count)})
	}

	table.Render()

	s.printf("%s\n%s", summary.Manifest, tableBuffer.String())

	return nil
}

// DisplayWarnings prints one line per warning.
func (s *SimpleUI) DisplayWarnings(ctx context.Context, warnings []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	for _, warning := range warnings {
		s.errorf("ngraph: warning: %s\n", warning)
	}

	return nil
}

// DisplayTargets prints "path: rule" lines, indented by depth.
func (s *SimpleUI) DisplayTargets(ctx context.Context, targets []m.Target) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	for _, target := range targets {
		s.printf("%s\n", formatTarget(target))
	}

	return nil
}

func formatTarget(target m.Target) string {
	line := strings.Repeat("  ", target.Depth) + target.Path
	if target.Rule != "" {
		line += ": " + target.Rule
	}

	return line
}

// DisplayQuery prints each target's producer and consumers.
func (s *SimpleUI) DisplayQuery(ctx context.Context, results []m.QueryResult) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	for _, result := range results {
		s.printf("%s", formatQuery(result))
	}

	return nil
}

func formatQuery(result m.QueryResult) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s:\n", result.Path)

	if result.Rule != "" {
		fmt.Fprintf(&b, "  input: %s\n", result.Rule)

		for _, in := range result.Inputs {
			marker := in.Kind.Marker()
			if marker != "" {
				marker += " "
			}

			fmt.Fprintf(&b, "    %s%s\n", marker, in.Path)
		}

		if result.Dyndep != "" {
			fmt.Fprintf(&b, "  dyndep: %s\n", result.Dyndep)
		}
	}

	b.WriteString("  outputs:\n")

	for _, out := range result.Outputs {
		fmt.Fprintf(&b, "    %s\n", out)
	}

	return b.String()
}

// DisplayDiff prints a unified diff.
func (s *SimpleUI) DisplayDiff(ctx context.Context, diff string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if diff == "" {
		s.printf("graphs are identical\n")
		return nil
	}

	s.printf("%s", diff)

	return nil
}

// DisplayCheck prints one row per manifest followed by the parse errors.
func (s *SimpleUI) DisplayCheck(ctx context.Context, results []m.CheckResult) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var tableBuffer bytes.Buffer

	table := tablewriter.NewWriter(&tableBuffer)
	table.SetHeader([]string{"Manifest", "Edges", "Nodes", "Warnings", "Status"})
	table.SetBorder(false)
	table.SetCenterSeparator("")

	failed := 0

	for _, result := range results {
		status := statusOK
		if result.Err != nil {
			status = statusFailed
			failed++
		}

		table.Append([]string{
			string(result.Manifest),
			strconv.Itoa(result.Edges),
			strconv.Itoa(result.Nodes),
			strconv.Itoa(len(result.Warnings)),
			status,
		})
	}

	table.SetFooter([]string{fmt.Sprintf("%d manifests", len(results)), "", "", "", fmt.Sprintf("%d failed", failed)})
	table.Render()

	s.printf("%s", tableBuffer.String())

	for _, result := range results {
		if result.Err != nil {
			s.printf("\n%s: %v\n", result.Manifest, result.Err)
		}
	}

	return nil
}

// Browse prints every edge; the plain UI has no interactive mode.
func (s *SimpleUI) Browse(ctx context.Context, snapshot m.GraphSnapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	for _, edge := range snapshot.Edges {
		s.printf("%s\n", formatEdge(edge))
	}

	return nil
}

func formatEdge(edge m.EdgeSnapshot) string {
	var b strings.Builder

	fmt.Fprintf(&b, "#%d %s: %s", edge.ID, edge.Rule, strings.Join(edge.Outputs, " "))

	if len(edge.ImplicitOutputs) > 0 {
		b.WriteString(" | " + strings.Join(edge.ImplicitOutputs, " "))
	}

	if len(edge.Inputs)+len(edge.ImplicitInputs)+len(edge.OrderOnly) > 0 {
		b.WriteString(" <-")
	}

	if len(edge.Inputs) > 0 {
		b.WriteString(" " + strings.Join(edge.Inputs, " "))
	}

	if len(edge.ImplicitInputs) > 0 {
		b.WriteString(" | " + strings.Join(edge.ImplicitInputs, " "))
	}

	if len(edge.OrderOnly) > 0 {
		b.WriteString(" || " + strings.Join(edge.OrderOnly, " "))
	}

	return b.String()
}

func (s *SimpleUI) printf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(s.cmd.OutOrStdout(), format, args...)
}

func (s *SimpleUI) errorf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(s.cmd.ErrOrStderr(), format, args...)
}

const (
	statusOK     = "ok"
	statusFailed = "failed"
)
