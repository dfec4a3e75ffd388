package domain

import (
	m "ngraph.dev/pkg/ngraph/internal/model"
)

// Snapshot captures state in a serializable form. Edges keep creation order
// and nodes are sorted by path, so equal graphs give equal snapshots.
func Snapshot(state *m.State, manifest string) m.GraphSnapshot {
	snapshot := m.GraphSnapshot{Manifest: manifest}

	for _, pool := range state.Pools() {
		if pool == m.DefaultPool {
			continue
		}

		snapshot.Pools = append(snapshot.Pools, m.PoolSnapshot{Name: pool.Name(), Depth: pool.Depth()})
	}

	for _, edge := range state.Edges() {
		snapshot.Edges = append(snapshot.Edges, snapshotEdge(edge))
	}

	for _, node := range state.Nodes() {
		ns := m.NodeSnapshot{
			Path:          node.Path(),
			DyndepPending: node.DyndepPending(),
		}

		if in := node.InEdge(); in != nil {
			id := in.ID()
			ns.InEdge = &id
		}

		for _, out := range node.OutEdges() {
			ns.OutEdges = append(ns.OutEdges, out.ID())
		}

		if scope := node.Scope(); scope != nil {
			ns.Scope = scope.Dir()
		}

		snapshot.Nodes = append(snapshot.Nodes, ns)
	}

	for _, node := range state.Defaults() {
		snapshot.Defaults = append(snapshot.Defaults, node.Path())
	}

	return snapshot
}

func snapshotEdge(edge *m.Edge) m.EdgeSnapshot {
	es := m.EdgeSnapshot{
		ID:              edge.ID(),
		Rule:            edge.Rule().Name(),
		Pool:            edge.Pool().Name(),
		Outputs:         paths(edge.ExplicitOutputs()),
		ImplicitOutputs: paths(edge.ImplicitOutputs()),
		Inputs:          paths(edge.ExplicitInputs()),
		ImplicitInputs:  paths(edge.ImplicitInputs()),
		OrderOnly:       paths(edge.OrderOnlyInputs()),
	}

	if es.Outputs == nil {
		es.Outputs = []string{}
	}

	if dyndep := edge.Dyndep(); dyndep != nil {
		es.Dyndep = dyndep.Path()
	}

	if !edge.IsPhony() {
		es.Command = edge.GetBinding(m.BindingCommand)
	}

	return es
}

// Summarize counts the contents of state.
func Summarize(state *m.State, manifest string) m.GraphSummary {
	rules := make(map[*m.Rule]struct{})

	for _, scope := range state.Scopes() {
		for _, rule := range scope.Rules() {
			if rule != m.PhonyRule {
				rules[rule] = struct{}{}
			}
		}
	}

	return m.GraphSummary{
		Manifest: manifest,
		Rules:    len(rules),
		Pools:    len(state.Pools()),
		Edges:    len(state.Edges()),
		Nodes:    len(state.Nodes()),
		Defaults: len(state.Defaults()),
		Roots:    len(state.RootNodes()),
		Scopes:   len(state.Scopes()),
	}
}

func paths(nodes []*m.Node) []string {
	if len(nodes) == 0 {
		return nil
	}

	out := make([]string, 0, len(nodes))
	for _, node := range nodes {
		out = append(out, node.Path())
	}

	return out
}
