package model

import (
	"errors"
	"fmt"
	"strings"

	"ngraph.dev/pkg/ngraph/pkg"
)

// ErrBindingCycle is returned when rule bindings refer to each other in a loop.
var ErrBindingCycle = errors.New("cycle in rule variables")

// Edge is one rule invocation mapping input nodes to output nodes.
//
// Outputs are ordered explicit then implicit. Inputs are ordered in three
// contiguous blocks: explicit, implicit, order-only. The counts locate the
// block boundaries.
type Edge struct {
	id   int
	rule *Rule
	pool *Pool
	env  *Scope

	outputs      []*Node
	implicitOuts int

	inputs        []*Node
	implicitDeps  int
	orderOnlyDeps int

	dyndep *Node
}

// ID returns the creation index of the edge.
func (e *Edge) ID() int {
	return e.id
}

// Rule returns the rule the edge invokes.
func (e *Edge) Rule() *Rule {
	return e.rule
}

// Pool returns the resolved pool.
func (e *Edge) Pool() *Pool {
	return e.pool
}

// SetPool sets the pool the edge runs in.
func (e *Edge) SetPool(pool *Pool) {
	e.pool = pool
}

// Env returns the scope the edge evaluates its bindings in.
func (e *Edge) Env() *Scope {
	return e.env
}

// SetEnv sets the edge's scope.
func (e *Edge) SetEnv(env *Scope) {
	e.env = env
}

// Outputs returns every output, explicit first.
func (e *Edge) Outputs() []*Node {
	return e.outputs
}

// ExplicitOutputs returns the outputs reported as primary products.
func (e *Edge) ExplicitOutputs() []*Node {
	return e.outputs[:len(e.outputs)-e.implicitOuts]
}

// ImplicitOutputs returns the implicit outputs.
func (e *Edge) ImplicitOutputs() []*Node {
	return e.outputs[len(e.outputs)-e.implicitOuts:]
}

// ImplicitOuts returns the number of implicit outputs.
func (e *Edge) ImplicitOuts() int {
	return e.implicitOuts
}

// SetImplicitOuts sets the number of trailing outputs that are implicit.
func (e *Edge) SetImplicitOuts(n int) {
	e.implicitOuts = n
}

// Inputs returns every input in block order.
func (e *Edge) Inputs() []*Node {
	return e.inputs
}

// ExplicitInputs returns the explicit block of inputs.
func (e *Edge) ExplicitInputs() []*Node {
	return e.inputs[:len(e.inputs)-e.implicitDeps-e.orderOnlyDeps]
}

// ImplicitInputs returns the implicit block of inputs.
func (e *Edge) ImplicitInputs() []*Node {
	end := len(e.inputs) - e.orderOnlyDeps
	return e.inputs[end-e.implicitDeps : end]
}

// OrderOnlyInputs returns the order-only block of inputs.
func (e *Edge) OrderOnlyInputs() []*Node {
	return e.inputs[len(e.inputs)-e.orderOnlyDeps:]
}

// ImplicitDeps returns the size of the implicit input block.
func (e *Edge) ImplicitDeps() int {
	return e.implicitDeps
}

// OrderOnlyDeps returns the size of the order-only input block.
func (e *Edge) OrderOnlyDeps() int {
	return e.orderOnlyDeps
}

// SetInputCounts sets the implicit and order-only block sizes.
func (e *Edge) SetInputCounts(implicit, orderOnly int) {
	e.implicitDeps = implicit
	e.orderOnlyDeps = orderOnly
}

// IsImplicit reports whether the input at index is implicit.
func (e *Edge) IsImplicit(index int) bool {
	return index >= len(e.inputs)-e.orderOnlyDeps-e.implicitDeps && !e.IsOrderOnly(index)
}

// IsOrderOnly reports whether the input at index is order-only.
func (e *Edge) IsOrderOnly(index int) bool {
	return index >= len(e.inputs)-e.orderOnlyDeps
}

// Dyndep returns the node holding dynamically discovered dependencies, or nil.
func (e *Edge) Dyndep() *Node {
	return e.dyndep
}

// SetDyndep records the dyndep node.
func (e *Edge) SetDyndep(node *Node) {
	e.dyndep = node
}

// IsPhony reports whether the edge uses the built-in phony rule.
func (e *Edge) IsPhony() bool {
	return e.rule == PhonyRule
}

// UseConsole reports whether the edge runs in the console pool.
func (e *Edge) UseConsole() bool {
	return e.pool == ConsolePool
}

// RemoveInput drops every occurrence of node from the inputs, keeping the
// block counts consistent, and unlinks the edge from the node's consumers.
// It returns the number of occurrences removed.
func (e *Edge) RemoveInput(node *Node) int {
	explicitEnd := len(e.inputs) - e.implicitDeps - e.orderOnlyDeps
	implicitEnd := len(e.inputs) - e.orderOnlyDeps

	kept := make([]*Node, 0, len(e.inputs))
	removed := 0

	for i, in := range e.inputs {
		if in != node {
			kept = append(kept, in)
			continue
		}

		removed++

		switch {
		case i >= implicitEnd:
			e.orderOnlyDeps--
		case i >= explicitEnd:
			e.implicitDeps--
		}
	}

	if removed > 0 {
		e.inputs = kept
		node.removeOutEdge(e)
	}

	return removed
}

// GetBinding evaluates key in the edge's environment with shell escaping of
// $in and $out. Evaluation errors yield the empty string; use Binding to
// observe them.
func (e *Edge) GetBinding(key string) string {
	v, _ := e.Binding(key)
	return v
}

// Binding evaluates key in the edge's environment with shell escaping.
func (e *Edge) Binding(key string) (string, error) {
	env := newEdgeEnv(e, pkg.ShellEscape)
	v := env.LookupVariable(key)

	return v, env.err
}

// GetBindingBool reports whether key evaluates to a non-empty value.
func (e *Edge) GetBindingBool(key string) bool {
	return e.GetBinding(key) != ""
}

// GetUnescapedDyndep returns the dyndep binding without shell escaping.
func (e *Edge) GetUnescapedDyndep() (string, error) {
	return e.unescapedBinding(BindingDyndep)
}

// GetUnescapedDepfile returns the depfile binding without shell escaping.
func (e *Edge) GetUnescapedDepfile() (string, error) {
	return e.unescapedBinding(BindingDepfile)
}

// GetUnescapedRspfile returns the rspfile binding without shell escaping.
func (e *Edge) GetUnescapedRspfile() (string, error) {
	return e.unescapedBinding(BindingRspfile)
}

func (e *Edge) unescapedBinding(key string) (string, error) {
	env := newEdgeEnv(e, nil)
	v := env.LookupVariable(key)

	return v, env.err
}

// EvaluateCommand expands the command line. With inclRspFile the response
// file content is appended the way it would be written to disk.
func (e *Edge) EvaluateCommand(inclRspFile bool) (string, error) {
	command, err := e.Binding(BindingCommand)
	if err != nil {
		return "", err
	}

	if !inclRspFile {
		return command, nil
	}

	content, err := e.Binding(BindingRspfileContent)
	if err != nil {
		return "", err
	}

	if content != "" {
		command += ";rspfile=" + content
	}

	return command, nil
}

// EdgeEnv resolves variables for one edge: $in, $in_newline and $out are
// computed from the edge; everything else goes through the edge scope, the
// rule, and the enclosing scopes.
type EdgeEnv struct {
	edge    *Edge
	escape  func(string) string
	lookups []string
	err     error
}

func newEdgeEnv(edge *Edge, escape func(string) string) *EdgeEnv {
	return &EdgeEnv{edge: edge, escape: escape}
}

// LookupVariable implements Env.
func (env *EdgeEnv) LookupVariable(name string) string {
	switch name {
	case "in":
		return env.makePathList(env.edge.ExplicitInputs(), ' ')
	case "in_newline":
		return env.makePathList(env.edge.ExplicitInputs(), '\n')
	case "out":
		return env.makePathList(env.edge.ExplicitOutputs(), ' ')
	}

	for _, seen := range env.lookups {
		if seen == name {
			if env.err == nil {
				env.err = fmt.Errorf("%w: %s", ErrBindingCycle, strings.Join(append(env.lookups, name), " -> "))
			}

			return ""
		}
	}

	eval := env.edge.rule.Binding(name)
	if eval != nil {
		env.lookups = append(env.lookups, name)
		defer func() { env.lookups = env.lookups[:len(env.lookups)-1] }()
	}

	return env.edge.env.LookupWithFallback(name, eval, env)
}

func (env *EdgeEnv) makePathList(nodes []*Node, sep byte) string {
	var b strings.Builder

	for i, node := range nodes {
		if i > 0 {
			b.WriteByte(sep)
		}

		path := node.PathDecanonicalized()
		if env.escape != nil {
			path = env.escape(path)
		}

		b.WriteString(path)
	}

	return b.String()
}
