package model

// Reserved rule binding names. Rules accept no other keys.
const (
	BindingCommand        = "command"
	BindingDescription    = "description"
	BindingDepfile        = "depfile"
	BindingDeps           = "deps"
	BindingDyndep         = "dyndep"
	BindingGenerator      = "generator"
	BindingMSVCDepsPrefix = "msvc_deps_prefix"
	BindingPool           = "pool"
	BindingRestat         = "restat"
	BindingRspfile        = "rspfile"
	BindingRspfileContent = "rspfile_content"
)

var reservedBindings = map[string]struct{}{
	BindingCommand:        {},
	BindingDescription:    {},
	BindingDepfile:        {},
	BindingDeps:           {},
	BindingDyndep:         {},
	BindingGenerator:      {},
	BindingMSVCDepsPrefix: {},
	BindingPool:           {},
	BindingRestat:         {},
	BindingRspfile:        {},
	BindingRspfileContent: {},
}

// PhonyRuleName is the name of the built-in rule that has no command.
const PhonyRuleName = "phony"

// PhonyRule is shared by every scope that is seeded with the built-in rule.
var PhonyRule = NewRule(PhonyRuleName)

// Rule is a named, reusable template of command and metadata bindings.
type Rule struct {
	name     string
	bindings map[string]*EvalString
}

// NewRule creates a rule with no bindings.
func NewRule(name string) *Rule {
	return &Rule{name: name, bindings: make(map[string]*EvalString)}
}

// IsReservedBinding reports whether key may appear inside a rule block.
func IsReservedBinding(key string) bool {
	_, ok := reservedBindings[key]
	return ok
}

// Name returns the rule name.
func (r *Rule) Name() string {
	return r.name
}

// AddBinding sets a binding. Only the parser calls this, before the rule is
// registered in a scope.
func (r *Rule) AddBinding(key string, value EvalString) {
	r.bindings[key] = &EvalString{parsed: append([]fragment(nil), value.parsed...)}
}

// Binding returns the template bound to key, or nil.
func (r *Rule) Binding(key string) *EvalString {
	return r.bindings[key]
}

// HasBinding reports whether key is bound to a non-empty template.
func (r *Rule) HasBinding(key string) bool {
	return !r.bindings[key].Empty()
}
