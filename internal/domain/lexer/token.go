package lexer

// Token is the kind of a lexical token in a manifest.
type Token int

// Token kinds.
const (
	Illegal Token = iota
	Build
	Colon
	Default
	Equals
	Ident
	Include
	Indent
	Newline
	Pipe
	Pipe2
	Pool
	Rule
	Subninja
	EOF
)

var keywords = map[string]Token{
	"build":    Build,
	"default":  Default,
	"include":  Include,
	"pool":     Pool,
	"rule":     Rule,
	"subninja": Subninja,
}

// TokenName returns a human-readable name for t, as used in error messages.
func TokenName(t Token) string {
	switch t {
	case Illegal:
		return "lexing error"
	case Build:
		return "'build'"
	case Colon:
		return "':'"
	case Default:
		return "'default'"
	case Equals:
		return "'='"
	case Ident:
		return "identifier"
	case Include:
		return "'include'"
	case Indent:
		return "indent"
	case Newline:
		return "newline"
	case Pipe:
		return "'|'"
	case Pipe2:
		return "'||'"
	case Pool:
		return "'pool'"
	case Rule:
		return "'rule'"
	case Subninja:
		return "'subninja'"
	case EOF:
		return "eof"
	}

	return "unknown token"
}

// TokenErrorHint returns a hint appended to "expected" errors for t.
func TokenErrorHint(expected Token) string {
	if expected == Colon {
		return " ($ also escapes ':')"
	}

	return ""
}

func (t Token) String() string {
	return TokenName(t)
}
