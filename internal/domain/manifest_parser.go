package domain

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"

	"ngraph.dev/pkg/ngraph/internal/adapter"
	"ngraph.dev/pkg/ngraph/internal/ctxlog"
	"ngraph.dev/pkg/ngraph/internal/domain/lexer"
	m "ngraph.dev/pkg/ngraph/internal/model"
	"ngraph.dev/pkg/ngraph/pkg"
)

// ParserOptions configures how a manifest parser reacts to questionable input.
type ParserOptions struct {
	DupeEdgeAction   m.DupeEdgeAction
	PhonyCycleAction m.PhonyCycleAction
	// Quiet drops warning text. The warned-about behavior still applies.
	Quiet bool
	// VersionChecker validates ninja_required_version. Defaults to a checker
	// for ManifestVersion.
	VersionChecker VersionChecker
}

// ManifestParser reads manifests into a State.
type ManifestParser interface {
	// Load reads filename through the file reader and parses it.
	Load(ctx context.Context, filename m.Path) error
	// Parse parses input, using filename in error messages.
	Parse(ctx context.Context, filename, input string) error
	// Warnings returns the warnings emitted so far, including those of
	// included manifests.
	Warnings() []string
}

type manifestParser struct {
	state   *m.State
	reader  adapter.FileReader
	options ParserOptions
	lexer   *lexer.Lexer
	env     *m.Scope

	warnings *[]string
}

// NewManifestParser returns a parser that adds everything it reads to state.
func NewManifestParser(state *m.State, reader adapter.FileReader, options ParserOptions) ManifestParser {
	if options.VersionChecker == nil {
		options.VersionChecker = NewVersionChecker(ManifestVersion)
	}

	return &manifestParser{
		state:    state,
		reader:   reader,
		options:  options,
		lexer:    lexer.New("", ""),
		env:      state.Bindings,
		warnings: new([]string),
	}
}

func (p *manifestParser) Warnings() []string {
	return append([]string(nil), *p.warnings...)
}

func (p *manifestParser) Load(ctx context.Context, filename m.Path) error {
	return p.load(ctx, filename, nil)
}

// load reads and parses filename. Read errors are reported at the include
// statement of parent when there is one.
func (p *manifestParser) load(ctx context.Context, filename m.Path, parent *lexer.Lexer) error {
	contents, err := p.reader.ReadFile(ctx, filename)
	if err != nil {
		var pathErr *fs.PathError
		if errors.As(err, &pathErr) {
			err = pathErr.Err
		}

		if parent != nil {
			return parent.Error(fmt.Sprintf("loading '%s': %s", filename, err))
		}

		return fmt.Errorf("loading '%s': %w", filename, err)
	}

	return p.Parse(ctx, string(filename), string(contents))
}

func (p *manifestParser) Parse(ctx context.Context, filename, input string) error {
	ctxlog.FromContext(ctx).Debug("parsing manifest", "file", filename, "scope", p.env.Dir())

	p.lexer.Start(filename, input)

	for {
		token := p.lexer.ReadToken()

		var err error

		switch token {
		case lexer.Pool:
			err = p.parsePool()
		case lexer.Build:
			err = p.parseEdge(ctx)
		case lexer.Rule:
			err = p.parseRule()
		case lexer.Default:
			err = p.parseDefault()
		case lexer.Ident:
			p.lexer.UnreadToken()
			err = p.parseBinding(ctx)
		case lexer.Include:
			err = p.parseFileInclude(ctx, false)
		case lexer.Subninja:
			err = p.parseFileInclude(ctx, true)
		case lexer.Illegal:
			err = p.lexer.Error(p.lexer.DescribeLastError())
		case lexer.EOF:
			return nil
		case lexer.Newline:
		default:
			err = p.lexer.Error("unexpected " + lexer.TokenName(token))
		}

		if err != nil {
			return err
		}
	}
}

func (p *manifestParser) warn(ctx context.Context, format string, args ...any) {
	if p.options.Quiet {
		return
	}

	msg := fmt.Sprintf(format, args...)
	*p.warnings = append(*p.warnings, msg)

	ctxlog.FromContext(ctx).Warn(msg, "file", p.lexer.Filename())
}

func (p *manifestParser) expectToken(expected lexer.Token) error {
	token := p.lexer.ReadToken()
	if token == expected {
		return nil
	}

	return p.lexer.Error("expected " + lexer.TokenName(expected) + ", got " +
		lexer.TokenName(token) + lexer.TokenErrorHint(expected))
}

// parseLet reads "name = value" with the value left unevaluated.
func (p *manifestParser) parseLet() (string, m.EvalString, error) {
	var value m.EvalString

	key, ok := p.lexer.ReadIdent()
	if !ok {
		return "", value, p.lexer.Error("expected variable name")
	}

	if err := p.expectToken(lexer.Equals); err != nil {
		return "", value, err
	}

	if err := p.lexer.ReadVarValue(&value); err != nil {
		return "", value, err
	}

	return key, value, nil
}

func (p *manifestParser) parseBinding(ctx context.Context) error {
	name, letValue, err := p.parseLet()
	if err != nil {
		return err
	}

	value := letValue.Evaluate(p.env)

	// Checked before anything else in the file so that an old parser fails
	// with a version error instead of a syntax error.
	if name == RequiredVersionKey {
		if err := p.options.VersionChecker.Check(ctx, value); err != nil {
			return fmt.Errorf("%s: %w", p.lexer.Filename(), err)
		}
	}

	p.env.AddBinding(name, value)

	return nil
}

func (p *manifestParser) parsePool() error {
	name, ok := p.lexer.ReadIdent()
	if !ok {
		return p.lexer.Error("expected pool name")
	}

	if err := p.expectToken(lexer.Newline); err != nil {
		return err
	}

	if p.state.LookupPool(name) != nil {
		return p.lexer.Error("duplicate pool '" + name + "'")
	}

	depth := -1

	for p.lexer.PeekToken(lexer.Indent) {
		key, value, err := p.parseLet()
		if err != nil {
			return err
		}

		if key != "depth" {
			return p.lexer.Error("unexpected variable '" + key + "'")
		}

		depth, err = strconv.Atoi(strings.TrimSpace(value.Evaluate(p.env)))
		if err != nil || depth < 0 {
			return p.lexer.Error("invalid pool depth")
		}
	}

	if depth < 0 {
		return p.lexer.Error("expected 'depth =' line")
	}

	p.state.AddPool(m.NewPool(name, depth))

	return nil
}

func (p *manifestParser) parseRule() error {
	name, ok := p.lexer.ReadIdent()
	if !ok {
		return p.lexer.Error("expected rule name")
	}

	if err := p.expectToken(lexer.Newline); err != nil {
		return err
	}

	if p.env.LookupRuleCurrentScope(name) != nil {
		return p.lexer.Error("duplicate rule '" + name + "'")
	}

	rule := m.NewRule(name)

	for p.lexer.PeekToken(lexer.Indent) {
		key, value, err := p.parseLet()
		if err != nil {
			return err
		}

		if !m.IsReservedBinding(key) {
			return p.lexer.Error("unexpected variable '" + key + "'")
		}

		rule.AddBinding(key, value)
	}

	if rule.Binding(m.BindingRspfile).Empty() != rule.Binding(m.BindingRspfileContent).Empty() {
		return p.lexer.Error("rspfile and rspfile_content need to be both specified")
	}

	if rule.Binding(m.BindingCommand).Empty() {
		return p.lexer.Error("expected 'command =' line")
	}

	p.env.AddRule(rule)

	return nil
}

func (p *manifestParser) parseDefault() error {
	var eval m.EvalString
	if err := p.lexer.ReadPath(&eval); err != nil {
		return err
	}

	if eval.Empty() {
		return p.lexer.Error("expected target name")
	}

	for !eval.Empty() {
		path, _, err := p.canonicalPath(p.env, eval.Evaluate(p.env))
		if err != nil {
			return err
		}

		if err := p.state.AddDefault(path); err != nil {
			return p.lexer.Error(err.Error())
		}

		eval.Clear()

		if err := p.lexer.ReadPath(&eval); err != nil {
			return err
		}
	}

	return p.expectToken(lexer.Newline)
}

// canonicalPath qualifies path with the scope directory and canonicalizes it.
func (p *manifestParser) canonicalPath(scope *m.Scope, path string) (string, uint64, error) {
	canonical, slashBits, err := pkg.CanonicalizePath(scope.ApplyChdir(path))
	if err != nil {
		return "", 0, p.lexer.Error(err.Error())
	}

	return canonical, slashBits, nil
}

// readPaths appends path expressions until an empty one.
func (p *manifestParser) readPaths(paths []m.EvalString) ([]m.EvalString, int, error) {
	count := 0

	for {
		var eval m.EvalString
		if err := p.lexer.ReadPath(&eval); err != nil {
			return paths, count, err
		}

		if eval.Empty() {
			return paths, count, nil
		}

		paths = append(paths, eval)
		count++
	}
}

func (p *manifestParser) parseEdge(ctx context.Context) error {
	outs, _, err := p.readPaths(nil)
	if err != nil {
		return err
	}

	implicitOuts := 0
	if p.lexer.PeekToken(lexer.Pipe) {
		if outs, implicitOuts, err = p.readPaths(outs); err != nil {
			return err
		}
	}

	if len(outs) == 0 {
		return p.lexer.Error("expected path")
	}

	if err := p.expectToken(lexer.Colon); err != nil {
		return err
	}

	ruleName, ok := p.lexer.ReadIdent()
	if !ok {
		return p.lexer.Error("expected build command name")
	}

	rule := p.env.LookupRule(ruleName)
	if rule == nil {
		return p.lexer.Error("unknown build rule '" + ruleName + "'")
	}

	ins, _, err := p.readPaths(nil)
	if err != nil {
		return err
	}

	implicit := 0
	if p.lexer.PeekToken(lexer.Pipe) {
		if ins, implicit, err = p.readPaths(ins); err != nil {
			return err
		}
	}

	orderOnly := 0
	if p.lexer.PeekToken(lexer.Pipe2) {
		if ins, orderOnly, err = p.readPaths(ins); err != nil {
			return err
		}
	}

	if err := p.expectToken(lexer.Newline); err != nil {
		return err
	}

	// Most edges have no bindings of their own and use the file scope.
	env := p.env
	for p.lexer.PeekToken(lexer.Indent) {
		if env == p.env {
			env = p.state.NewScope(p.env, "", p.env.Dir())
		}

		key, value, err := p.parseLet()
		if err != nil {
			return err
		}

		env.AddBinding(key, value.Evaluate(p.env))
	}

	edge := p.state.AddEdge(rule)
	edge.SetEnv(env)

	poolName, err := edge.Binding(m.BindingPool)
	if err != nil {
		return p.lexer.Error(err.Error())
	}

	if poolName != "" {
		pool := p.state.LookupPool(poolName)
		if pool == nil {
			return p.lexer.Error("unknown pool name '" + poolName + "'")
		}

		edge.SetPool(pool)
	}

	for i, out := range outs {
		path, slashBits, err := p.canonicalPath(env, out.Evaluate(env))
		if err != nil {
			return err
		}

		if p.state.AddOut(edge, path, slashBits, p.env) {
			continue
		}

		if p.options.DupeEdgeAction == m.DupeEdgeActionError {
			return p.lexer.Error("multiple rules generate " + path + " [-w dupbuild=err]")
		}

		p.warn(ctx, "multiple rules generate %s. builds involving this target will not be correct; "+
			"continuing anyway [-w dupbuild=warn]", path)

		if len(outs)-i <= implicitOuts {
			implicitOuts--
		}
	}

	if len(edge.Outputs()) == 0 {
		// Every output already has a producer. Drop the edge before any
		// input is linked to it.
		p.state.DiscardEdge(edge)
		return nil
	}

	edge.SetImplicitOuts(implicitOuts)

	for _, in := range ins {
		path, slashBits, err := p.canonicalPath(env, in.Evaluate(env))
		if err != nil {
			return err
		}

		p.state.AddIn(edge, path, slashBits, p.env)
	}

	edge.SetInputCounts(implicit, orderOnly)

	if p.options.PhonyCycleAction == m.PhonyCycleActionWarn && len(edge.Outputs()) == 1 {
		out := edge.Outputs()[0]
		if edge.RemoveInput(out) > 0 {
			p.warn(ctx, "phony target '%s' names itself as an input; ignoring [-w phonycycle=warn]", out.Path())
		}
	}

	depsType, err := edge.Binding(m.BindingDeps)
	if err != nil {
		return p.lexer.Error(err.Error())
	}

	if depsType != "" && len(edge.Outputs()) > 1 {
		return p.lexer.Error("multiple outputs aren't (yet?) supported by depslog; " +
			"bring this up on the mailing list if it affects you")
	}

	return p.bindDyndep(edge, env)
}

// bindDyndep marks the edge's dyndep file, which must be one of its inputs.
func (p *manifestParser) bindDyndep(edge *m.Edge, env *m.Scope) error {
	dyndep, err := edge.GetUnescapedDyndep()
	if err != nil {
		return p.lexer.Error(err.Error())
	}

	if dyndep == "" {
		return nil
	}

	path, slashBits, err := p.canonicalPath(env, dyndep)
	if err != nil {
		return err
	}

	node := p.state.GetNode(path, slashBits, p.env)
	node.SetDyndepPending(true)
	edge.SetDyndep(node)

	for _, in := range edge.Inputs() {
		if in == node {
			return nil
		}
	}

	return p.lexer.Error("dyndep '" + path + "' is not an input")
}

func (p *manifestParser) parseFileInclude(ctx context.Context, newScope bool) error {
	var eval m.EvalString
	if err := p.lexer.ReadPath(&eval); err != nil {
		return err
	}

	path := eval.Evaluate(p.env)

	if err := p.expectToken(lexer.Newline); err != nil {
		return err
	}

	var (
		err       error
		seenChdir bool
		hasChdir  bool
		prevCwd   m.Path
		relPath   string
	)

	for err == nil && p.lexer.PeekToken(lexer.Indent) {
		key, value, letErr := p.parseLet()

		switch {
		case letErr != nil:
			err = letErr
		case key != "chdir":
			err = p.lexer.Error("illegal key '" + key + "' (only 'chdir' is supported)")
		case !newScope:
			err = p.lexer.Error("invalid use of 'chdir' in include line")
		case seenChdir:
			err = p.lexer.Error("duplicate 'chdir' in subninja")
		default:
			seenChdir = true

			dir := value.Evaluate(p.env)
			if dir == "" {
				continue
			}

			// The scope prefix must match canonical node paths.
			if dir, _, err = pkg.CanonicalizePath(dir); err != nil {
				return p.lexer.Error(err.Error())
			}

			if dir == "." {
				continue
			}

			// Nothing to restore yet, so these can return directly.
			if prevCwd, err = p.reader.Getwd(ctx); err != nil {
				return fmt.Errorf("getcwd: %w", err)
			}

			if err = p.reader.Chdir(ctx, m.Path(dir)); err != nil {
				return fmt.Errorf("chdir to '%s': %w", dir, err)
			}

			hasChdir = true
			relPath = dir + "/"
		}
	}

	if err == nil {
		err = p.loadNested(ctx, m.Path(path), newScope, relPath)
	}

	if hasChdir {
		if cdErr := p.reader.Chdir(context.WithoutCancel(ctx), prevCwd); cdErr != nil && err == nil {
			err = fmt.Errorf("restore cwd = '%s': %w", prevCwd, cdErr)
		}
	}

	return err
}

// loadNested parses an included manifest with a fresh parser sharing the
// state, the file reader and the warning sink.
func (p *manifestParser) loadNested(ctx context.Context, path m.Path, newScope bool, relPath string) error {
	sub := &manifestParser{
		state:    p.state,
		reader:   p.reader,
		options:  p.options,
		lexer:    lexer.New("", ""),
		env:      p.env,
		warnings: p.warnings,
	}

	if newScope {
		sub.env = p.state.NewScope(p.env, relPath, p.env.Dir()+relPath)

		// An empty relPath means no chdir.
		if relPath != "" {
			sub.env.AddRule(m.PhonyRule)

			moved := p.state.RehomeNodes(sub.env.Dir(), sub.env)
			ctxlog.FromContext(ctx).Debug("rehomed nodes into subninja scope", "prefix", sub.env.Dir(), "nodes", moved)
		}
	}

	return sub.load(ctx, path, p.lexer)
}
