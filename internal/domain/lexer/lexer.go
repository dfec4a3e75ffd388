// Package lexer splits manifest text into tokens and reads the path and
// value expressions that follow them.
package lexer

import (
	"fmt"
	"strings"

	m "ngraph.dev/pkg/ngraph/internal/model"
)

const badEscape = "bad $-escape (literal $ must be written as $$)"

// truncateColumn bounds how much of the offending line an error quotes.
const truncateColumn = 72

// Error is a lexing or parsing error with its position in the manifest.
type Error struct {
	Filename string
	Line     int
	Column   int
	Message  string
	// Context is the offending line, empty when the column is out of range.
	Context string
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s:%d: %s", e.Filename, e.Line, e.Message)
	if e.Context == "" {
		return msg
	}

	return msg + "\n" + e.Context + "\n" + strings.Repeat(" ", e.Column) + "^ near here"
}

// Lexer tokenizes one manifest buffer.
type Lexer struct {
	filename  string
	input     string
	ofs       int
	lastToken int
}

// New returns a lexer positioned at the start of input.
func New(filename, input string) *Lexer {
	l := &Lexer{}
	l.Start(filename, input)

	return l
}

// Start resets the lexer onto a new buffer.
func (l *Lexer) Start(filename, input string) {
	l.filename = filename
	l.input = input
	l.ofs = 0
	l.lastToken = -1
}

// Filename returns the name of the buffer being lexed.
func (l *Lexer) Filename() string {
	return l.filename
}

// Error builds a positioned error pointing at the last token read.
func (l *Lexer) Error(message string) error {
	line := 1
	lineStart := 0

	end := l.lastToken
	if end < 0 {
		end = 0
	}

	for p := 0; p < end && p < len(l.input); p++ {
		if l.input[p] == '\n' {
			line++
			lineStart = p + 1
		}
	}

	col := 0
	if l.lastToken >= 0 {
		col = l.lastToken - lineStart
	}

	err := &Error{Filename: l.filename, Line: line, Column: col, Message: message}

	if col > 0 && col < truncateColumn {
		rest := l.input[lineStart:]

		n := strings.IndexByte(rest, '\n')
		if n < 0 {
			n = len(rest)
		}

		if n > truncateColumn {
			err.Context = rest[:truncateColumn] + "..."
		} else {
			err.Context = rest[:n]
		}
	}

	return err
}

// DescribeLastError explains an Illegal token.
func (l *Lexer) DescribeLastError() string {
	if l.lastToken >= 0 && l.lastToken < len(l.input) && l.input[l.lastToken] == '\t' {
		return "tabs are not allowed, use spaces"
	}

	return "lexing error"
}

// ReadToken reads the next token. Comment lines are skipped.
func (l *Lexer) ReadToken() Token {
	in := l.input

	var (
		start int
		p     int
		token Token
	)

	for {
		start = l.ofs
		p = start

		for p < len(in) && in[p] == ' ' {
			p++
		}

		if p < len(in) && in[p] == '#' {
			for p < len(in) && in[p] != '\n' {
				p++
			}

			if p < len(in) {
				p++
			}

			l.ofs = p

			continue
		}

		token, p = l.scanToken(start, p)

		break
	}

	l.lastToken = start
	l.ofs = p

	if token != Newline && token != EOF {
		l.eatWhitespace()
	}

	return token
}

// scanToken classifies the token at start, where p is past any leading spaces.
func (l *Lexer) scanToken(start, p int) (Token, int) {
	in := l.input

	switch {
	case p < len(in) && in[p] == '\n':
		return Newline, p + 1
	case strings.HasPrefix(in[p:], "\r\n"):
		return Newline, p + 2
	case p > start:
		return Indent, p
	case p >= len(in) || in[p] == 0:
		return EOF, p
	}

	switch in[p] {
	case '=':
		return Equals, p + 1
	case ':':
		return Colon, p + 1
	case '|':
		if p+1 < len(in) && in[p+1] == '|' {
			return Pipe2, p + 2
		}

		return Pipe, p + 1
	}

	if !isVarnameChar(in[p]) {
		return Illegal, p + 1
	}

	q := p
	for q < len(in) && isVarnameChar(in[q]) {
		q++
	}

	if kw, ok := keywords[in[p:q]]; ok {
		return kw, q
	}

	return Ident, q
}

// PeekToken consumes the next token if it is t and reports whether it was.
func (l *Lexer) PeekToken(t Token) bool {
	if l.ReadToken() == t {
		return true
	}

	l.UnreadToken()

	return false
}

// UnreadToken rewinds to the start of the last token read.
func (l *Lexer) UnreadToken() {
	if l.lastToken >= 0 {
		l.ofs = l.lastToken
	}
}

// ReadIdent reads an identifier.
func (l *Lexer) ReadIdent() (string, bool) {
	start := l.ofs

	p := start
	for p < len(l.input) && isVarnameChar(l.input[p]) {
		p++
	}

	l.lastToken = start
	if p == start {
		return "", false
	}

	l.ofs = p
	l.eatWhitespace()

	return l.input[start:p], true
}

// ReadPath reads a path expression. It stops at unescaped whitespace, ':',
// '|' or newline; an empty result means there are no more paths.
func (l *Lexer) ReadPath(eval *m.EvalString) error {
	return l.readEvalString(eval, true)
}

// ReadVarValue reads the rest of the line, consuming the newline.
func (l *Lexer) ReadVarValue(eval *m.EvalString) error {
	return l.readEvalString(eval, false)
}

func (l *Lexer) readEvalString(eval *m.EvalString, path bool) error {
	in := l.input
	p := l.ofs

	var start int

loop:
	for {
		start = p

		if p >= len(in) || in[p] == 0 {
			l.lastToken = start
			return l.Error("unexpected EOF")
		}

		switch c := in[p]; {
		case c == '$':
			next, err := l.readEscape(eval, p)
			if err != nil {
				return err
			}

			p = next
		case strings.HasPrefix(in[p:], "\r\n"):
			if !path {
				p += 2
			}

			break loop
		case c == ' ' || c == ':' || c == '|' || c == '\n':
			if path {
				break loop
			}

			p++

			if c == '\n' {
				break loop
			}

			eval.AddText(string(c))
		case c == '\r':
			l.lastToken = start
			return l.Error(l.DescribeLastError())
		default:
			q := p
			for q < len(in) && !isValueTerminator(in[q]) {
				q++
			}

			eval.AddText(in[p:q])
			p = q
		}
	}

	l.lastToken = start
	l.ofs = p

	if path {
		l.eatWhitespace()
	}

	return nil
}

// readEscape handles the '$' sequence at p and returns the offset after it.
func (l *Lexer) readEscape(eval *m.EvalString, p int) (int, error) {
	in := l.input

	if p+1 >= len(in) {
		l.lastToken = p
		return 0, l.Error(badEscape)
	}

	switch next := in[p+1]; {
	case next == '$' || next == ' ' || next == ':':
		eval.AddText(string(next))
		return p + 2, nil
	case next == '\n':
		return skipSpaces(in, p+2), nil
	case strings.HasPrefix(in[p+1:], "\r\n"):
		return skipSpaces(in, p+3), nil
	case next == '{':
		q := p + 2
		for q < len(in) && isVarnameChar(in[q]) {
			q++
		}

		if q > p+2 && q < len(in) && in[q] == '}' {
			eval.AddSpecial(in[p+2 : q])
			return q + 1, nil
		}
	case isSimpleVarnameChar(next):
		q := p + 1
		for q < len(in) && isSimpleVarnameChar(in[q]) {
			q++
		}

		eval.AddSpecial(in[p+1 : q])

		return q, nil
	}

	l.lastToken = p

	return 0, l.Error(badEscape)
}

// eatWhitespace skips spaces and "$\n" line continuations.
func (l *Lexer) eatWhitespace() {
	in := l.input

	for l.ofs < len(in) {
		switch {
		case in[l.ofs] == ' ':
			l.ofs++
		case strings.HasPrefix(in[l.ofs:], "$\n"):
			l.ofs += 2
		case strings.HasPrefix(in[l.ofs:], "$\r\n"):
			l.ofs += 3
		default:
			return
		}
	}
}

func skipSpaces(in string, p int) int {
	for p < len(in) && in[p] == ' ' {
		p++
	}

	return p
}

func isSimpleVarnameChar(c byte) bool {
	return 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z' || '0' <= c && c <= '9' || c == '_' || c == '-'
}

func isVarnameChar(c byte) bool {
	return isSimpleVarnameChar(c) || c == '.'
}

func isValueTerminator(c byte) bool {
	switch c {
	case '$', ' ', ':', '\r', '\n', '|', 0:
		return true
	}

	return false
}
