package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewState_BuiltIns(t *testing.T) {
	state := NewState()

	assert.Same(t, PhonyRule, state.Bindings.LookupRule(PhonyRuleName))
	assert.Same(t, DefaultPool, state.LookupPool(""))
	assert.Same(t, ConsolePool, state.LookupPool("console"))
	assert.Equal(t, 1, state.LookupPool("console").Depth())
}

func TestState_GetNodeInterns(t *testing.T) {
	state := NewState()

	a := state.GetNode("out/a.o", 0, state.Bindings)
	again := state.GetNode("out/a.o", 1, nil)

	assert.Same(t, a, again)
	assert.Equal(t, uint64(0), again.SlashBits(), "first reference fixes the separator marker")
	assert.Same(t, a, state.LookupNode("out/a.o"))
	assert.Nil(t, state.LookupNode("missing"))
}

func TestState_AddOutRejectsSecondProducer(t *testing.T) {
	state := NewState()
	rule := NewRule("cc")

	first := state.AddEdge(rule)
	require.True(t, state.AddOut(first, "a.o", 0, state.Bindings))

	second := state.AddEdge(rule)
	assert.False(t, state.AddOut(second, "a.o", 0, state.Bindings))
	assert.Empty(t, second.Outputs())
	assert.Same(t, first, state.LookupNode("a.o").InEdge())
}

func TestState_DiscardEdge(t *testing.T) {
	state := NewState()
	rule := NewRule("cc")

	kept := state.AddEdge(rule)
	require.True(t, state.AddOut(kept, "a.o", 0, state.Bindings))

	dropped := state.AddEdge(rule)
	state.DiscardEdge(dropped)

	require.Len(t, state.Edges(), 1)
	assert.Same(t, kept, state.Edges()[0])

	next := state.AddEdge(rule)
	assert.Equal(t, 1, next.ID())
}

func TestState_AddDefault(t *testing.T) {
	state := NewState()
	state.GetNode("all", 0, state.Bindings)

	require.NoError(t, state.AddDefault("all"))
	require.EqualError(t, state.AddDefault("nope"), "unknown target 'nope'")

	require.Len(t, state.Defaults(), 1)
	assert.Equal(t, "all", state.Defaults()[0].Path())
}

func TestState_RootAndDefaultNodes(t *testing.T) {
	state := NewState()
	rule := NewRule("cc")

	compile := state.AddEdge(rule)
	state.AddIn(compile, "a.c", 0, state.Bindings)
	require.True(t, state.AddOut(compile, "a.o", 0, state.Bindings))

	link := state.AddEdge(rule)
	state.AddIn(link, "a.o", 0, state.Bindings)
	require.True(t, state.AddOut(link, "app", 0, state.Bindings))

	roots := state.RootNodes()
	require.Len(t, roots, 1)
	assert.Equal(t, "app", roots[0].Path())
	assert.Equal(t, roots, state.DefaultNodes())

	require.NoError(t, state.AddDefault("a.o"))
	assert.Equal(t, "a.o", state.DefaultNodes()[0].Path())
}

func TestState_RehomeNodes(t *testing.T) {
	state := NewState()
	inside := state.GetNode("sub/out.o", 0, state.Bindings)
	outside := state.GetNode("subdir/x.o", 0, state.Bindings)

	sub := state.NewScope(state.Bindings, "sub/", "sub/")
	moved := state.RehomeNodes(sub.Dir(), sub)

	assert.Equal(t, 1, moved)
	assert.Same(t, sub, inside.Scope())
	assert.Same(t, state.Bindings, outside.Scope())
	assert.Equal(t, "out.o", inside.ScopedPath())
	assert.Equal(t, "subdir/x.o", outside.ScopedPath())
	assert.Len(t, state.Scopes(), 2)
}
