package model

import "strings"

type fragmentKind int

const (
	fragmentRaw fragmentKind = iota
	fragmentSpecial
)

type fragment struct {
	text string
	kind fragmentKind
}

// EvalString is a deferred string template: literal text interleaved with
// variable references. It is evaluated against an Env only when requested.
type EvalString struct {
	parsed []fragment
}

// AddText appends literal text, merging it with a preceding literal.
func (e *EvalString) AddText(text string) {
	if n := len(e.parsed); n > 0 && e.parsed[n-1].kind == fragmentRaw {
		e.parsed[n-1].text += text
		return
	}

	e.parsed = append(e.parsed, fragment{text: text, kind: fragmentRaw})
}

// AddSpecial appends a reference to the variable name.
func (e *EvalString) AddSpecial(name string) {
	e.parsed = append(e.parsed, fragment{text: name, kind: fragmentSpecial})
}

// Evaluate substitutes every variable reference with its value in env.
// Undefined variables expand to the empty string.
func (e *EvalString) Evaluate(env Env) string {
	if e == nil {
		return ""
	}

	var b strings.Builder

	for _, f := range e.parsed {
		if f.kind == fragmentRaw {
			b.WriteString(f.text)
			continue
		}

		b.WriteString(env.LookupVariable(f.text))
	}

	return b.String()
}

// Unparse renders the template back into manifest syntax without expanding it.
func (e *EvalString) Unparse() string {
	var b strings.Builder

	for _, f := range e.parsed {
		if f.kind == fragmentRaw {
			b.WriteString(f.text)
			continue
		}

		b.WriteString("${")
		b.WriteString(f.text)
		b.WriteString("}")
	}

	return b.String()
}

// Serialize renders the parsed fragments as "[text][$var]", mostly for tests.
func (e *EvalString) Serialize() string {
	var b strings.Builder

	for _, f := range e.parsed {
		b.WriteString("[")

		if f.kind == fragmentSpecial {
			b.WriteString("$")
		}

		b.WriteString(f.text)
		b.WriteString("]")
	}

	return b.String()
}

// Empty reports whether the template has no fragments at all.
func (e *EvalString) Empty() bool {
	return e == nil || len(e.parsed) == 0
}

// Clear drops every fragment so the value can be reused.
func (e *EvalString) Clear() {
	e.parsed = e.parsed[:0]
}
