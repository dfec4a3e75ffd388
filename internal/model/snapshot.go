package model

// GraphSnapshot is a serializable, deterministic view of a parsed State.
type GraphSnapshot struct {
	Manifest string         `yaml:"manifest"`
	Pools    []PoolSnapshot `yaml:"pools,omitempty"`
	Edges    []EdgeSnapshot `yaml:"edges,omitempty"`
	Nodes    []NodeSnapshot `yaml:"nodes,omitempty"`
	Defaults []string       `yaml:"defaults,omitempty"`
}

// PoolSnapshot describes one pool.
type PoolSnapshot struct {
	Name  string `yaml:"name"`
	Depth int    `yaml:"depth"`
}

// EdgeSnapshot describes one edge with its outputs and inputs split by block.
type EdgeSnapshot struct {
	ID              int      `yaml:"id"`
	Rule            string   `yaml:"rule"`
	Pool            string   `yaml:"pool,omitempty"`
	Outputs         []string `yaml:"outputs"`
	ImplicitOutputs []string `yaml:"implicit_outputs,omitempty"`
	Inputs          []string `yaml:"inputs,omitempty"`
	ImplicitInputs  []string `yaml:"implicit_inputs,omitempty"`
	OrderOnly       []string `yaml:"order_only,omitempty"`
	Dyndep          string   `yaml:"dyndep,omitempty"`
	Command         string   `yaml:"command,omitempty"`
}

// NodeSnapshot describes one interned node.
type NodeSnapshot struct {
	Path          string `yaml:"path"`
	InEdge        *int   `yaml:"in_edge,omitempty"`
	OutEdges      []int  `yaml:"out_edges,omitempty"`
	DyndepPending bool   `yaml:"dyndep_pending,omitempty"`
	Scope         string `yaml:"scope,omitempty"`
}
