package model

import (
	"strings"

	"ngraph.dev/pkg/ngraph/pkg"
)

// Node is an interned file path in the build graph. There is exactly one Node
// per canonical path for the lifetime of a State.
type Node struct {
	id        int
	path      string
	slashBits uint64
	scope     *Scope

	inEdge   *Edge
	outEdges []*Edge

	dyndepPending bool
}

// ID returns the creation index of the node.
func (n *Node) ID() int {
	return n.id
}

// Path returns the canonical path, which is the node's identity.
func (n *Node) Path() string {
	return n.path
}

// SlashBits returns the separator-style marker recorded when the node was created.
func (n *Node) SlashBits() uint64 {
	return n.slashBits
}

// PathDecanonicalized returns the path using the original separator style.
func (n *Node) PathDecanonicalized() string {
	return pkg.DecanonicalizePath(n.path, n.slashBits)
}

// Scope returns the scope that owns the node's path.
func (n *Node) Scope() *Scope {
	return n.scope
}

// ResetScope moves ownership of the node's path to scope.
func (n *Node) ResetScope(scope *Scope) {
	n.scope = scope
}

// ScopedPath returns the path relative to the owning scope's directory.
func (n *Node) ScopedPath() string {
	if n.scope == nil || n.scope.Dir() == "" {
		return n.path
	}

	return strings.TrimPrefix(n.path, n.scope.Dir())
}

// InEdge returns the edge producing this node, or nil for a source file.
func (n *Node) InEdge() *Edge {
	return n.inEdge
}

// OutEdges returns the edges consuming this node.
func (n *Node) OutEdges() []*Edge {
	return n.outEdges
}

// DyndepPending reports whether the node carries dynamically discovered
// dependencies that must be loaded before dependents run.
func (n *Node) DyndepPending() bool {
	return n.dyndepPending
}

// SetDyndepPending sets the dyndep flag.
func (n *Node) SetDyndepPending(pending bool) {
	n.dyndepPending = pending
}

func (n *Node) removeOutEdge(edge *Edge) {
	kept := n.outEdges[:0]

	for _, e := range n.outEdges {
		if e != edge {
			kept = append(kept, e)
		}
	}

	n.outEdges = kept
}
