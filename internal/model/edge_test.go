package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func evalText(parts ...string) EvalString {
	var e EvalString

	for _, p := range parts {
		if len(p) > 1 && p[0] == '$' {
			e.AddSpecial(p[1:])
			continue
		}

		e.AddText(p)
	}

	return e
}

func newTestEdge(t *testing.T, state *State, rule *Rule) *Edge {
	t.Helper()

	edge := state.AddEdge(rule)
	require.True(t, state.AddOut(edge, "out one", 0, state.Bindings))
	require.True(t, state.AddOut(edge, "out.d", 0, state.Bindings))
	edge.SetImplicitOuts(1)

	state.AddIn(edge, "a.c", 0, state.Bindings)
	state.AddIn(edge, "b c.c", 0, state.Bindings)
	state.AddIn(edge, "dep.h", 0, state.Bindings)
	state.AddIn(edge, "stamp", 0, state.Bindings)
	edge.SetInputCounts(1, 1)

	return edge
}

func TestEdge_Blocks(t *testing.T) {
	state := NewState()
	edge := newTestEdge(t, state, NewRule("cc"))

	paths := func(nodes []*Node) []string {
		out := make([]string, 0, len(nodes))
		for _, n := range nodes {
			out = append(out, n.Path())
		}

		return out
	}

	assert.Equal(t, []string{"out one"}, paths(edge.ExplicitOutputs()))
	assert.Equal(t, []string{"out.d"}, paths(edge.ImplicitOutputs()))
	assert.Equal(t, []string{"a.c", "b c.c"}, paths(edge.ExplicitInputs()))
	assert.Equal(t, []string{"dep.h"}, paths(edge.ImplicitInputs()))
	assert.Equal(t, []string{"stamp"}, paths(edge.OrderOnlyInputs()))
	assert.False(t, edge.IsImplicit(1))
	assert.True(t, edge.IsImplicit(2))
	assert.True(t, edge.IsOrderOnly(3))
	assert.False(t, edge.IsImplicit(3))
}

func TestEdge_GetBinding(t *testing.T) {
	state := NewState()
	state.Bindings.AddBinding("cflags", "-O2")

	rule := NewRule("cc")
	rule.AddBinding(BindingCommand, evalText("cc ", "$cflags", " -c ", "$in", " -o ", "$out"))
	rule.AddBinding(BindingDepfile, evalText("$out", ".d"))

	edge := newTestEdge(t, state, rule)

	assert.Equal(t, "cc -O2 -c a.c 'b c.c' -o 'out one'", edge.GetBinding(BindingCommand))

	depfile, err := edge.GetUnescapedDepfile()
	require.NoError(t, err)
	assert.Equal(t, "out one.d", depfile)

	edgeScope := NewChildScope(state.Bindings)
	edgeScope.AddBinding("cflags", "-g")
	edge.SetEnv(edgeScope)
	assert.Equal(t, "cc -g -c a.c 'b c.c' -o 'out one'", edge.GetBinding(BindingCommand))
}

func TestEdge_InNewline(t *testing.T) {
	state := NewState()
	rule := NewRule("cat")
	rule.AddBinding(BindingRspfileContent, evalText("$in_newline"))
	rule.AddBinding(BindingCommand, evalText("cat @rsp"))

	edge := newTestEdge(t, state, rule)

	cmd, err := edge.EvaluateCommand(true)
	require.NoError(t, err)
	assert.Equal(t, "cat @rsp;rspfile=a.c\n'b c.c'", cmd)
}

func TestEdge_BindingCycle(t *testing.T) {
	state := NewState()
	rule := NewRule("loop")
	rule.AddBinding(BindingCommand, evalText("$description"))
	rule.AddBinding(BindingDescription, evalText("$command"))

	edge := newTestEdge(t, state, rule)

	_, err := edge.Binding(BindingCommand)
	require.ErrorIs(t, err, ErrBindingCycle)
	assert.Equal(t, "", edge.GetBinding(BindingCommand))
}

func TestEdge_RemoveInput(t *testing.T) {
	state := NewState()
	edge := state.AddEdge(NewRule("cc"))
	require.True(t, state.AddOut(edge, "self", 0, state.Bindings))

	state.AddIn(edge, "a", 0, state.Bindings)
	state.AddIn(edge, "self", 0, state.Bindings)
	state.AddIn(edge, "b", 0, state.Bindings)
	state.AddIn(edge, "self", 0, state.Bindings)
	edge.SetInputCounts(2, 1)

	self := state.LookupNode("self")
	require.Len(t, self.OutEdges(), 2)

	assert.Equal(t, 2, edge.RemoveInput(self))
	assert.Len(t, edge.Inputs(), 2)
	assert.Equal(t, 1, edge.ImplicitDeps())
	assert.Equal(t, 0, edge.OrderOnlyDeps())
	assert.Empty(t, self.OutEdges())
}

func TestEdge_PhonyAndConsole(t *testing.T) {
	state := NewState()

	phony := state.AddEdge(PhonyRule)
	assert.True(t, phony.IsPhony())
	assert.False(t, phony.UseConsole())

	phony.SetPool(ConsolePool)
	assert.True(t, phony.UseConsole())
}
