// Package model defines the build graph produced by parsing a manifest:
// template values, scopes, rules, pools, nodes, edges and the State that
// owns them.
package model

import (
	"fmt"
	"sort"
	"strings"
)

// State is the graph store shared by every parser working on one build.
// Paths are interned: once a canonical path maps to a Node, that mapping is
// stable for the lifetime of the State.
type State struct {
	paths    map[string]*Node
	edges    []*Edge
	pools    map[string]*Pool
	defaults []*Node

	// Bindings is the top-level scope.
	Bindings *Scope

	// scopes owns every scope created while parsing, including Bindings.
	scopes []*Scope

	nextEdgeID int
}

// NewState returns an empty graph with the built-in pools and the phony rule.
func NewState() *State {
	s := &State{
		paths:    make(map[string]*Node),
		pools:    make(map[string]*Pool),
		Bindings: NewRootScope(),
	}

	s.scopes = append(s.scopes, s.Bindings)
	s.Bindings.AddRule(PhonyRule)
	s.AddPool(DefaultPool)
	s.AddPool(ConsolePool)

	return s
}

// NewScope creates a scope owned by the state. An empty relPath creates a
// plain child scope sharing the parent's directory prefix.
func (s *State) NewScope(parent *Scope, relPath, absPath string) *Scope {
	var scope *Scope
	if relPath == "" && absPath == parent.Dir() {
		scope = NewChildScope(parent)
	} else {
		scope = NewChdirScope(parent, relPath, absPath)
	}

	s.scopes = append(s.scopes, scope)

	return scope
}

// Scopes returns every scope owned by the state.
func (s *State) Scopes() []*Scope {
	return s.scopes
}

// AddPool registers a pool. Callers check for duplicates with LookupPool.
func (s *State) AddPool(pool *Pool) {
	s.pools[pool.Name()] = pool
}

// LookupPool returns the pool with name, or nil.
func (s *State) LookupPool(name string) *Pool {
	return s.pools[name]
}

// Pools returns every registered pool sorted by name.
func (s *State) Pools() []*Pool {
	pools := make([]*Pool, 0, len(s.pools))
	for _, p := range s.pools {
		pools = append(pools, p)
	}

	sort.Slice(pools, func(i, j int) bool { return pools[i].Name() < pools[j].Name() })

	return pools
}

// AddEdge creates an edge for rule in the default pool and links it into the
// edge list. Its environment starts as the top-level scope.
func (s *State) AddEdge(rule *Rule) *Edge {
	edge := &Edge{
		id:   s.nextEdgeID,
		rule: rule,
		pool: DefaultPool,
		env:  s.Bindings,
	}

	s.nextEdgeID++
	s.edges = append(s.edges, edge)

	return edge
}

// DiscardEdge unlinks edge, which must be the most recently added edge and
// must not have any inputs yet. Its outputs are released.
func (s *State) DiscardEdge(edge *Edge) {
	n := len(s.edges)
	if n == 0 || s.edges[n-1] != edge {
		return
	}

	for _, out := range edge.outputs {
		if out.inEdge == edge {
			out.inEdge = nil
		}
	}

	s.edges = s.edges[:n-1]
	s.nextEdgeID--
}

// Edges returns every edge in creation order.
func (s *State) Edges() []*Edge {
	return s.edges
}

// GetNode returns the node for a canonical path, creating it owned by scope
// on first reference.
func (s *State) GetNode(path string, slashBits uint64, scope *Scope) *Node {
	if node, ok := s.paths[path]; ok {
		return node
	}

	node := &Node{
		id:        len(s.paths),
		path:      path,
		slashBits: slashBits,
		scope:     scope,
	}
	s.paths[path] = node

	return node
}

// LookupNode returns the node for a canonical path, or nil.
func (s *State) LookupNode(path string) *Node {
	return s.paths[path]
}

// Nodes returns every interned node sorted by path.
func (s *State) Nodes() []*Node {
	nodes := make([]*Node, 0, len(s.paths))
	for _, n := range s.paths {
		nodes = append(nodes, n)
	}

	sort.Slice(nodes, func(i, j int) bool { return nodes[i].path < nodes[j].path })

	return nodes
}

// AddOut makes edge the producer of path. It returns false, leaving the
// edge unchanged, when another edge already produces the path.
func (s *State) AddOut(edge *Edge, path string, slashBits uint64, scope *Scope) bool {
	node := s.GetNode(path, slashBits, scope)
	if node.inEdge != nil {
		return false
	}

	edge.outputs = append(edge.outputs, node)
	node.inEdge = edge

	return true
}

// AddIn appends path to the edge's inputs.
func (s *State) AddIn(edge *Edge, path string, slashBits uint64, scope *Scope) {
	node := s.GetNode(path, slashBits, scope)
	edge.inputs = append(edge.inputs, node)
	node.outEdges = append(node.outEdges, edge)
}

// AddDefault appends an existing node to the default targets.
func (s *State) AddDefault(path string) error {
	node := s.LookupNode(path)
	if node == nil {
		return fmt.Errorf("unknown target '%s'", path)
	}

	s.defaults = append(s.defaults, node)

	return nil
}

// Defaults returns the targets named by default statements, in order.
func (s *State) Defaults() []*Node {
	return s.defaults
}

// RehomeNodes moves every node whose path starts with prefix into scope and
// returns how many nodes moved.
func (s *State) RehomeNodes(prefix string, scope *Scope) int {
	moved := 0

	for path, node := range s.paths {
		if strings.HasPrefix(path, prefix) {
			node.ResetScope(scope)
			moved++
		}
	}

	return moved
}

// RootNodes returns the produced nodes that no edge consumes, sorted by path.
func (s *State) RootNodes() []*Node {
	var roots []*Node

	for _, edge := range s.edges {
		for _, out := range edge.outputs {
			if len(out.outEdges) == 0 {
				roots = append(roots, out)
			}
		}
	}

	sort.Slice(roots, func(i, j int) bool { return roots[i].path < roots[j].path })

	return roots
}

// DefaultNodes returns the default targets, or the root nodes when the
// manifest declares no defaults.
func (s *State) DefaultNodes() []*Node {
	if len(s.defaults) > 0 {
		return s.defaults
	}

	return s.RootNodes()
}
