package model

// Pool is a named concurrency cap referenced by edges. Depth 0 means unlimited.
type Pool struct {
	name  string
	depth int
}

// NewPool creates a pool. Depth must be non-negative.
func NewPool(name string, depth int) *Pool {
	return &Pool{name: name, depth: depth}
}

// Built-in pools, registered in every State.
var (
	DefaultPool = NewPool("", 0)
	ConsolePool = NewPool("console", 1)
)

// Name returns the pool name.
func (p *Pool) Name() string {
	return p.name
}

// Depth returns the pool depth.
func (p *Pool) Depth() int {
	return p.depth
}
