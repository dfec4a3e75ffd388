package model

// Path represents a file system path handled by the file reader.
type Path string

// DupeEdgeAction selects what happens when two edges produce the same output.
type DupeEdgeAction int

const (
	// DupeEdgeActionWarn drops the output from the later edge and warns.
	DupeEdgeActionWarn DupeEdgeAction = iota
	// DupeEdgeActionError aborts the parse.
	DupeEdgeActionError
)

// PhonyCycleAction selects what happens when a single-output edge lists its
// own output as an input.
type PhonyCycleAction int

const (
	// PhonyCycleActionWarn strips the self-reference and warns.
	PhonyCycleActionWarn PhonyCycleAction = iota
	// PhonyCycleActionAllow keeps the self-loop in the graph.
	PhonyCycleActionAllow
)

func (a DupeEdgeAction) String() string {
	if a == DupeEdgeActionError {
		return "err"
	}

	return "warn"
}

func (a PhonyCycleAction) String() string {
	if a == PhonyCycleActionAllow {
		return "allow"
	}

	return "warn"
}
