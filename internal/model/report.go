package model

// GraphSummary counts what a parse produced.
type GraphSummary struct {
	Manifest string
	Rules    int
	Pools    int
	Edges    int
	Nodes    int
	Defaults int
	Roots    int
	Scopes   int
}

// Target is one line of a target listing. Depth is the nesting level below
// the listed root, zero for top-level targets.
type Target struct {
	Path  string
	Rule  string
	Depth int
}

// InputKind tells which block of an edge's inputs a path belongs to.
type InputKind int

// Input blocks, in the order they appear on a build line.
const (
	InputExplicit InputKind = iota
	InputImplicit
	InputOrderOnly
)

// Marker returns the manifest separator that introduces the block.
func (k InputKind) Marker() string {
	switch k {
	case InputImplicit:
		return "|"
	case InputOrderOnly:
		return "||"
	}

	return ""
}

// QueryInput is one input of the edge producing a queried target.
type QueryInput struct {
	Path string
	Kind InputKind
}

// QueryResult describes a target's producer and consumers.
type QueryResult struct {
	Path string
	// Rule is empty when nothing produces the target.
	Rule    string
	Inputs  []QueryInput
	Dyndep  string
	Outputs []string
}

// CheckResult is the outcome of parsing one manifest on its own.
type CheckResult struct {
	Manifest Path
	Edges    int
	Nodes    int
	Warnings []string
	Err      error
}
