// Package controller renders parse results for the terminal.
package controller

import (
	"context"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	m "ngraph.dev/pkg/ngraph/internal/model"
)

// UI defines how workflow results reach the user.
// Implementations can use different output methods (simple text, TUI, etc).
type UI interface {
	DisplaySummary(ctx context.Context, summary m.GraphSummary) error
	DisplayWarnings(ctx context.Context, warnings []string) error
	DisplayTargets(ctx context.Context, targets []m.Target) error
	DisplayQuery(ctx context.Context, results []m.QueryResult) error
	DisplayDiff(ctx context.Context, diff string) error
	DisplayCheck(ctx context.Context, results []m.CheckResult) error
	// Browse lets the user walk the graph. It blocks until the user quits.
	Browse(ctx context.Context, snapshot m.GraphSnapshot) error
}

// NewUI returns the interactive UI on a terminal and the plain one otherwise.
func NewUI(cmd *cobra.Command, tty bool) UI {
	if tty {
		return NewTUI(cmd)
	}

	return NewSimpleUI(cmd)
}

// IsTTY reports whether f is attached to a terminal.
func IsTTY(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
