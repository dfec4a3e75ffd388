package model

import "strings"

// Env resolves variable references while evaluating an EvalString.
type Env interface {
	LookupVariable(name string) string
}

// Scope is a variable and rule namespace with an optional parent. Scopes
// created for a chdir'd subninja carry a directory prefix used to qualify
// relative paths; every other scope inherits its parent's prefix.
type Scope struct {
	bindings map[string]string
	rules    map[string]*Rule
	parent   *Scope

	// relPath is the chdir path relative to the parent, with a trailing '/'.
	relPath string
	// absPath is the directory prefix relative to the top-level manifest.
	absPath string
}

// NewRootScope returns a scope with no parent and no directory prefix.
func NewRootScope() *Scope {
	return &Scope{
		bindings: make(map[string]string),
		rules:    make(map[string]*Rule),
	}
}

// NewChildScope returns a scope whose lookups fall back to parent. It shares
// the parent's directory prefix.
func NewChildScope(parent *Scope) *Scope {
	return NewChdirScope(parent, "", parent.absPath)
}

// NewChdirScope returns a child scope with explicit directory metadata.
func NewChdirScope(parent *Scope, relPath, absPath string) *Scope {
	s := NewRootScope()
	s.parent = parent
	s.relPath = relPath
	s.absPath = absPath

	return s
}

// Parent returns the enclosing scope, or nil for the root.
func (s *Scope) Parent() *Scope {
	return s.parent
}

// Dir returns the directory prefix of the scope ("" at the top level).
func (s *Scope) Dir() string {
	return s.absPath
}

// HasRelPath reports whether the scope was created with a chdir.
func (s *Scope) HasRelPath() bool {
	return s.relPath != ""
}

// AddBinding sets a variable in this scope, shadowing earlier values.
func (s *Scope) AddBinding(name, value string) {
	s.bindings[name] = value
}

// LookupVariable returns the value of name in this scope or the nearest
// parent defining it, or "" if undefined.
func (s *Scope) LookupVariable(name string) string {
	for scope := s; scope != nil; scope = scope.parent {
		if v, ok := scope.bindings[name]; ok {
			return v
		}
	}

	return ""
}

// LookupWithFallback resolves name for an edge: a binding in this scope wins,
// then the rule's template evaluated in env, then the enclosing scopes.
func (s *Scope) LookupWithFallback(name string, eval *EvalString, env Env) string {
	if v, ok := s.bindings[name]; ok {
		return v
	}

	if eval != nil {
		return eval.Evaluate(env)
	}

	if s.parent != nil {
		return s.parent.LookupVariable(name)
	}

	return ""
}

// AddRule registers a rule in this scope.
func (s *Scope) AddRule(rule *Rule) {
	s.rules[rule.Name()] = rule
}

// LookupRuleCurrentScope finds a rule defined directly in this scope.
func (s *Scope) LookupRuleCurrentScope(name string) *Rule {
	return s.rules[name]
}

// LookupRule finds a rule in this scope or any parent.
func (s *Scope) LookupRule(name string) *Rule {
	for scope := s; scope != nil; scope = scope.parent {
		if rule, ok := scope.rules[name]; ok {
			return rule
		}
	}

	return nil
}

// Rules returns the rules defined directly in this scope.
func (s *Scope) Rules() map[string]*Rule {
	return s.rules
}

// ApplyChdir qualifies a relative path with the scope's directory prefix.
// Absolute paths are returned unchanged. Leading "./" segments are dropped
// and each leading "../" consumes one directory of the prefix.
func (s *Scope) ApplyChdir(path string) string {
	if strings.HasPrefix(path, "/") {
		return path
	}

	prefix := s.absPath

	for prefix != "" {
		switch {
		case strings.HasPrefix(path, "./"):
			path = path[2:]
		case strings.HasPrefix(path, "../"):
			prefix = trimLastDir(prefix)
			path = path[3:]
		default:
			return prefix + path
		}
	}

	return prefix + path
}

// trimLastDir removes the last directory from a prefix ending in '/'.
func trimLastDir(prefix string) string {
	trimmed := strings.TrimSuffix(prefix, "/")

	i := strings.LastIndexByte(trimmed, '/')
	if i < 0 {
		return ""
	}

	return trimmed[:i+1]
}
