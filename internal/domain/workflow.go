package domain

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/pmezard/go-difflib/difflib"
	"golang.org/x/sync/errgroup"

	"ngraph.dev/pkg/ngraph/internal/adapter"
	"ngraph.dev/pkg/ngraph/internal/controller"
	"ngraph.dev/pkg/ngraph/internal/ctxlog"
	m "ngraph.dev/pkg/ngraph/internal/model"
	"ngraph.dev/pkg/ngraph/pkg"
)

// ParseArgs selects a manifest and the parser policies to load it with.
type ParseArgs struct {
	Manifest         m.Path
	DupeEdgeAction   m.DupeEdgeAction
	PhonyCycleAction m.PhonyCycleAction
	Quiet            bool
}

// ParseResult is a successfully parsed graph and the warnings raised on the way.
type ParseResult struct {
	State    *m.State
	Warnings []string
}

// TargetsMode selects how Targets lists the graph.
type TargetsMode string

// Available TargetsMode values.
const (
	TargetsDepth TargetsMode = "depth"
	TargetsRule  TargetsMode = "rule"
	TargetsAll   TargetsMode = "all"
)

// TargetsArgs contains the arguments for listing targets.
type TargetsArgs struct {
	ParseArgs
	Mode TargetsMode
	// Rule filters outputs by rule name. Empty lists source files instead.
	Rule string
	// Depth limits how far below the default targets to descend; zero is unlimited.
	Depth int
}

// QueryArgs contains the targets to describe.
type QueryArgs struct {
	ParseArgs
	Targets []string
}

// DumpArgs selects where the graph snapshot goes. With an empty Output the
// YAML is written to Out.
type DumpArgs struct {
	ParseArgs
	Output m.Path
	Out    io.Writer
}

// DiffArgs names the two manifests to compare. ParseArgs.Manifest is ignored.
type DiffArgs struct {
	ParseArgs
	Old m.Path
	New m.Path
}

// CheckArgs lists manifests to parse independently. ParseArgs.Manifest is ignored.
type CheckArgs struct {
	ParseArgs
	Manifests []m.Path
	Parallel  int
}

// ErrCheckFailed is returned by Check when at least one manifest fails to parse.
var ErrCheckFailed = errors.New("manifest check failed")

// Workflow holds the use cases behind the CLI commands.
type Workflow interface {
	Parse(ctx context.Context, args ParseArgs) (ParseResult, error)
	Summary(ctx context.Context, args ParseArgs) error
	Targets(ctx context.Context, args TargetsArgs) error
	Query(ctx context.Context, args QueryArgs) error
	Dump(ctx context.Context, args DumpArgs) error
	Diff(ctx context.Context, args DiffArgs) error
	Check(ctx context.Context, args CheckArgs) error
	Browse(ctx context.Context, args ParseArgs) error
}

type workflow struct {
	adapter.FileReader
	adapter.GraphStore
	controller.UI
	versionChecker VersionChecker
}

// NewWorkflow creates a Workflow over the provided dependencies.
func NewWorkflow(
	reader adapter.FileReader,
	graphStore adapter.GraphStore,
	ui controller.UI,
	versionChecker VersionChecker,
) Workflow {
	return &workflow{
		FileReader:     reader,
		GraphStore:     graphStore,
		UI:             ui,
		versionChecker: versionChecker,
	}
}

// Parse loads one manifest into a fresh State. Every call uses its own copy
// of the file reader, so parses never share a working directory.
func (w *workflow) Parse(ctx context.Context, args ParseArgs) (ParseResult, error) {
	logger := ctxlog.FromContext(ctx)
	state := m.NewState()

	parser := NewManifestParser(state, w.Fork(), ParserOptions{
		DupeEdgeAction:   args.DupeEdgeAction,
		PhonyCycleAction: args.PhonyCycleAction,
		Quiet:            args.Quiet,
		VersionChecker:   w.versionChecker,
	})

	if err := parser.Load(ctx, args.Manifest); err != nil {
		logger.Error("manifest parse failed", "manifest", args.Manifest, "error", err)
		return ParseResult{Warnings: parser.Warnings()}, err
	}

	logger.Info("manifest parsed", "manifest", args.Manifest,
		"edges", len(state.Edges()), "warnings", len(parser.Warnings()))

	return ParseResult{State: state, Warnings: parser.Warnings()}, nil
}

func (w *workflow) Summary(ctx context.Context, args ParseArgs) error {
	result, err := w.Parse(ctx, args)
	if err != nil {
		return err
	}

	if err := w.DisplayWarnings(ctx, result.Warnings); err != nil {
		return fmt.Errorf("display warnings: %w", err)
	}

	if err := w.DisplaySummary(ctx, Summarize(result.State, string(args.Manifest))); err != nil {
		return fmt.Errorf("display summary: %w", err)
	}

	return nil
}

func (w *workflow) Targets(ctx context.Context, args TargetsArgs) error {
	result, err := w.Parse(ctx, args.ParseArgs)
	if err != nil {
		return err
	}

	targets, err := ListTargets(result.State, args.Mode, args.Rule, args.Depth)
	if err != nil {
		return err
	}

	if err := w.DisplayTargets(ctx, targets); err != nil {
		return fmt.Errorf("display targets: %w", err)
	}

	return nil
}

// ListTargets lists targets the way the mode asks for:
//   - depth: the default targets and their inputs, down to depth levels
//   - rule: outputs of edges using rule, or every source file for an empty rule
//   - all: every output with its rule, in edge order
func ListTargets(state *m.State, mode TargetsMode, rule string, depth int) ([]m.Target, error) {
	switch mode {
	case TargetsDepth, "":
		return appendTargetTree(nil, state.DefaultNodes(), depth, 0, map[*m.Node]bool{}), nil
	case TargetsRule:
		if rule == "" {
			return sourceTargets(state), nil
		}

		return ruleTargets(state, rule), nil
	case TargetsAll:
		var targets []m.Target

		for _, edge := range state.Edges() {
			for _, out := range edge.Outputs() {
				targets = append(targets, m.Target{Path: out.Path(), Rule: edge.Rule().Name()})
			}
		}

		return targets, nil
	}

	return nil, fmt.Errorf("unknown target tool mode '%s'; use one of: depth, rule, all", mode)
}

// appendTargetTree walks producing edges below nodes. Nodes already on the
// current path are listed but not descended into, so self-loops terminate.
func appendTargetTree(targets []m.Target, nodes []*m.Node, depth, level int, onPath map[*m.Node]bool) []m.Target {
	for _, node := range nodes {
		target := m.Target{Path: node.Path(), Depth: level}

		edge := node.InEdge()
		if edge == nil {
			targets = append(targets, target)
			continue
		}

		target.Rule = edge.Rule().Name()
		targets = append(targets, target)

		if (depth > 1 || depth <= 0) && !onPath[node] {
			onPath[node] = true
			targets = appendTargetTree(targets, edge.Inputs(), depth-1, level+1, onPath)
			delete(onPath, node)
		}
	}

	return targets
}

func sourceTargets(state *m.State) []m.Target {
	seen := make(map[string]bool)

	var targets []m.Target

	for _, edge := range state.Edges() {
		for _, in := range edge.Inputs() {
			if in.InEdge() == nil && !seen[in.Path()] {
				seen[in.Path()] = true
				targets = append(targets, m.Target{Path: in.Path()})
			}
		}
	}

	sortTargets(targets)

	return targets
}

func ruleTargets(state *m.State, rule string) []m.Target {
	seen := make(map[string]bool)

	var targets []m.Target

	for _, edge := range state.Edges() {
		if edge.Rule().Name() != rule {
			continue
		}

		for _, out := range edge.Outputs() {
			if !seen[out.Path()] {
				seen[out.Path()] = true
				targets = append(targets, m.Target{Path: out.Path(), Rule: rule})
			}
		}
	}

	sortTargets(targets)

	return targets
}

func sortTargets(targets []m.Target) {
	sort.Slice(targets, func(i, j int) bool { return targets[i].Path < targets[j].Path })
}

func (w *workflow) Query(ctx context.Context, args QueryArgs) error {
	result, err := w.Parse(ctx, args.ParseArgs)
	if err != nil {
		return err
	}

	results, err := QueryTargets(result.State, args.Targets)
	if err != nil {
		return err
	}

	if err := w.DisplayQuery(ctx, results); err != nil {
		return fmt.Errorf("display query: %w", err)
	}

	return nil
}

// QueryTargets describes the producer and consumers of each target.
func QueryTargets(state *m.State, targets []string) ([]m.QueryResult, error) {
	results := make([]m.QueryResult, 0, len(targets))

	for _, target := range targets {
		path, _, err := pkg.CanonicalizePath(target)
		if err != nil {
			return nil, fmt.Errorf("query '%s': %w", target, err)
		}

		node := state.LookupNode(path)
		if node == nil {
			return nil, fmt.Errorf("unknown target '%s'", target)
		}

		results = append(results, describeNode(node))
	}

	return results, nil
}

func describeNode(node *m.Node) m.QueryResult {
	result := m.QueryResult{Path: node.Path()}

	if edge := node.InEdge(); edge != nil {
		result.Rule = edge.Rule().Name()

		for i, in := range edge.Inputs() {
			kind := m.InputExplicit

			switch {
			case edge.IsOrderOnly(i):
				kind = m.InputOrderOnly
			case edge.IsImplicit(i):
				kind = m.InputImplicit
			}

			result.Inputs = append(result.Inputs, m.QueryInput{Path: in.Path(), Kind: kind})
		}

		if dyndep := edge.Dyndep(); dyndep != nil {
			result.Dyndep = dyndep.Path()
		}
	}

	for _, consumer := range node.OutEdges() {
		for _, out := range consumer.Outputs() {
			result.Outputs = append(result.Outputs, out.Path())
		}
	}

	return result
}

func (w *workflow) Dump(ctx context.Context, args DumpArgs) error {
	result, err := w.Parse(ctx, args.ParseArgs)
	if err != nil {
		return err
	}

	snapshot := Snapshot(result.State, string(args.Manifest))

	if args.Output != "" {
		if err := w.SaveGraph(ctx, args.Output, snapshot); err != nil {
			return fmt.Errorf("save graph: %w", err)
		}

		ctxlog.FromContext(ctx).Info("graph saved", "output", args.Output)

		return nil
	}

	if args.Out == nil {
		return errors.New("dump: no output destination")
	}

	data, err := w.MarshalGraph(snapshot)
	if err != nil {
		return err
	}

	_, err = args.Out.Write(data)

	return err
}

func (w *workflow) Diff(ctx context.Context, args DiffArgs) error {
	older, err := w.marshalManifest(ctx, args.ParseArgs, args.Old)
	if err != nil {
		return err
	}

	newer, err := w.marshalManifest(ctx, args.ParseArgs, args.New)
	if err != nil {
		return err
	}

	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(older),
		B:        difflib.SplitLines(newer),
		FromFile: string(args.Old),
		ToFile:   string(args.New),
		Context:  3,
	})
	if err != nil {
		return fmt.Errorf("diff: %w", err)
	}

	if err := w.DisplayDiff(ctx, diff); err != nil {
		return fmt.Errorf("display diff: %w", err)
	}

	return nil
}

// marshalManifest parses manifest and renders its snapshot without the
// manifest name, so two manifests compare by content only.
func (w *workflow) marshalManifest(ctx context.Context, args ParseArgs, manifest m.Path) (string, error) {
	args.Manifest = manifest

	result, err := w.Parse(ctx, args)
	if err != nil {
		return "", err
	}

	data, err := w.MarshalGraph(Snapshot(result.State, ""))
	if err != nil {
		return "", err
	}

	return string(data), nil
}

// Check parses every manifest into its own State, at most Parallel at a time.
// All manifests are attempted even when some fail.
func (w *workflow) Check(ctx context.Context, args CheckArgs) error {
	results := make([]m.CheckResult, len(args.Manifests))

	parallel := args.Parallel
	if parallel < 1 {
		parallel = 1
	}

	var group errgroup.Group
	group.SetLimit(parallel)

	for i, manifest := range args.Manifests {
		group.Go(func() error {
			parseArgs := args.ParseArgs
			parseArgs.Manifest = manifest

			result, err := w.Parse(ctx, parseArgs)

			check := m.CheckResult{Manifest: manifest, Warnings: result.Warnings, Err: err}
			if err == nil {
				check.Edges = len(result.State.Edges())
				check.Nodes = len(result.State.Nodes())
			}

			results[i] = check

			return nil
		})
	}

	// Failures are recorded per manifest, so the group itself never fails.
	if err := group.Wait(); err != nil {
		return fmt.Errorf("check manifests: %w", err)
	}

	if err := w.DisplayCheck(ctx, results); err != nil {
		return fmt.Errorf("display check: %w", err)
	}

	failed := 0

	for _, result := range results {
		if result.Err != nil {
			failed++
		}
	}

	if failed > 0 {
		return fmt.Errorf("%w: %d of %d manifests", ErrCheckFailed, failed, len(results))
	}

	return nil
}

func (w *workflow) Browse(ctx context.Context, args ParseArgs) error {
	result, err := w.Parse(ctx, args)
	if err != nil {
		return err
	}

	return w.UI.Browse(ctx, Snapshot(result.State, string(args.Manifest)))
}
