package parser

import (
	"fmt"
	"strconv"
	"unicode/utf8"

	"github.com/roach88/searchql/internal/ast"
)

// Parse parses the whole of input into a Term. Leading and trailing
// whitespace is ignored; anything else left over is an error.
func Parse(input []byte) (ast.Term, error) {
	p := &parser{input: input}

	p.skipSpace()
	if p.eof() {
		return nil, p.errorf(p.pos, "empty query")
	}

	tree, err := p.sequence()
	if err != nil {
		return nil, err
	}

	p.skipSpace()
	if !p.eof() {
		return nil, p.errorf(p.pos, "unexpected %q", p.input[p.pos])
	}
	return tree, nil
}

// ParseString is Parse for string input.
func ParseString(query string) (ast.Term, error) {
	return Parse([]byte(query))
}

type parser struct {
	input []byte
	pos   int
}

func (p *parser) errorf(offset int, format string, args ...any) *ParseError {
	return &ParseError{Offset: offset, Message: fmt.Sprintf(format, args...)}
}

func (p *parser) eof() bool {
	return p.pos >= len(p.input)
}

// peek returns the current byte, or 0 at end of input.
func (p *parser) peek() byte {
	if p.eof() {
		return 0
	}
	return p.input[p.pos]
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n'
}

// skipSpace consumes whitespace and returns how many bytes it skipped.
func (p *parser) skipSpace() int {
	start := p.pos
	for !p.eof() && isSpace(p.input[p.pos]) {
		p.pos++
	}
	return p.pos - start
}

// hasPrefix reports whether the input at the current position starts with s.
func (p *parser) hasPrefix(s string) bool {
	return len(p.input)-p.pos >= len(s) && string(p.input[p.pos:p.pos+len(s)]) == s
}

// keyword reports whether kw starts at the current position and is not just
// the beginning of a longer token, so ANDROID is not AND.
func (p *parser) keyword(kw string) bool {
	if !p.hasPrefix(kw) {
		return false
	}
	end := p.pos + len(kw)
	return end == len(p.input) || !ast.IsTokenByte(p.input[end])
}

// canStartUnit reports whether the current byte can begin a unit.
func (p *parser) canStartUnit() bool {
	if p.eof() {
		return false
	}
	switch c := p.input[p.pos]; c {
	case '(', '"', '[', '{':
		return true
	default:
		return ast.IsTokenByte(c)
	}
}

func (p *parser) sequence() (ast.Term, error) {
	left, err := p.unit()
	if err != nil {
		return nil, err
	}

	for {
		op, ok, err := p.operator()
		if err != nil {
			return nil, err
		}
		if !ok {
			return left, nil
		}
		right, err := p.unit()
		if err != nil {
			return nil, err
		}
		left = ast.Combined{Left: left, Right: right, Operator: op}
	}
}

// operator consumes an operator and the whitespace around it. When there is
// no operator the position is left unchanged. An explicit keyword with
// nothing after it is an error.
func (p *parser) operator() (ast.Operator, bool, error) {
	start := p.pos
	ws := p.skipSpace()

	var (
		op  ast.Operator
		tok string
	)
	switch {
	case p.keyword("AND"):
		op, tok = ast.And, "AND"
	case p.hasPrefix("&&"):
		op, tok = ast.And, "&&"
	case p.keyword("OR"):
		op, tok = ast.Or, "OR"
	case p.hasPrefix("||"):
		op, tok = ast.Or, "||"
	case ws > 0 && p.canStartUnit():
		return ast.Or, true, nil
	default:
		p.pos = start
		return 0, false, nil
	}

	p.pos += len(tok)
	p.skipSpace()
	if !p.canStartUnit() {
		return 0, false, p.errorf(p.pos, "expected term after %s", tok)
	}
	return op, true, nil
}

func (p *parser) unit() (ast.Term, error) {
	if p.peek() == '(' {
		return p.group()
	}

	if p.keyword("NOT") {
		start := p.pos
		p.pos += 3
		p.skipSpace()
		if p.canStartUnit() {
			inner, err := p.unit()
			if err != nil {
				return nil, err
			}
			return ast.Negated{Inner: inner}, nil
		}
		// A lone NOT is just text.
		p.pos = start
	}

	return p.term()
}

func (p *parser) group() (ast.Term, error) {
	open := p.pos
	p.pos++
	p.skipSpace()

	inner, err := p.sequence()
	if err != nil {
		return nil, err
	}

	p.skipSpace()
	if p.peek() != ')' {
		return nil, p.errorf(p.pos, "expected ')' to close group opened at offset %d", open)
	}
	p.pos++

	if c, ok := inner.(ast.Combined); ok {
		c.Grouping = true
		return c, nil
	}
	return inner, nil
}

func (p *parser) term() (ast.Term, error) {
	start := p.pos
	if key := p.token(); key != "" && p.peek() == ':' {
		p.pos++
		value, err := p.value()
		if err != nil {
			return nil, err
		}
		return ast.Named{Key: key, Value: value}, nil
	}
	p.pos = start

	value, err := p.value()
	if err != nil {
		return nil, err
	}
	return ast.Default{Value: value}, nil
}

func (p *parser) value() (ast.Value, error) {
	switch c := p.peek(); {
	case c == '[' || c == '{':
		return p.rangeValue()
	case c == '"':
		s, err := p.phrase()
		if err != nil {
			return nil, err
		}
		return ast.Text(s), nil
	}

	start := p.pos
	tok := p.token()
	if tok == "" {
		if p.eof() {
			return nil, p.errorf(p.pos, "expected value, found end of input")
		}
		return nil, p.errorf(p.pos, "expected value, found %q", p.peek())
	}

	switch {
	case tok == "true":
		return ast.Boolean(true), nil
	case tok == "false":
		return ast.Boolean(false), nil
	case isDigits(tok):
		n, err := strconv.ParseInt(tok, 10, 64)
		if err != nil {
			return nil, p.errorf(start, "integer %s out of range", tok)
		}
		return ast.Integer(n), nil
	default:
		return ast.Text(tok), nil
	}
}

// token consumes the longest run of token bytes, possibly empty.
func (p *parser) token() string {
	start := p.pos
	for !p.eof() && ast.IsTokenByte(p.input[p.pos]) {
		p.pos++
	}
	return string(p.input[start:p.pos])
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return s != ""
}

func (p *parser) phrase() (string, error) {
	open := p.pos
	p.pos++

	var buf []byte
	for {
		if p.eof() {
			return "", p.errorf(open, "unterminated phrase")
		}
		c := p.input[p.pos]
		p.pos++

		switch c {
		case '"':
			if !utf8.Valid(buf) {
				return "", p.errorf(open, "phrase is not valid UTF-8")
			}
			return string(buf), nil
		case '\\':
			if p.eof() {
				return "", p.errorf(open, "unterminated phrase")
			}
			esc := p.input[p.pos]
			switch esc {
			case '\\', '"':
				buf = append(buf, esc)
			case 'n':
				buf = append(buf, '\n')
			case 't':
				buf = append(buf, '\t')
			default:
				return "", p.errorf(p.pos-1, "invalid escape sequence \\%c", esc)
			}
			p.pos++
		default:
			buf = append(buf, c)
		}
	}
}

func (p *parser) rangeValue() (ast.Value, error) {
	var r ast.Range
	if p.input[p.pos] == '{' {
		r.Start.Kind = ast.Exclusive
	}
	p.pos++
	p.skipSpace()

	var err error
	if r.Start.Value, err = p.rangeBound(); err != nil {
		return nil, err
	}
	if p.skipSpace() == 0 || !p.keyword("TO") {
		return nil, p.errorf(p.pos, "expected TO in range")
	}
	p.pos += 2
	if p.skipSpace() == 0 {
		return nil, p.errorf(p.pos, "expected whitespace after TO")
	}
	if r.End.Value, err = p.rangeBound(); err != nil {
		return nil, err
	}
	p.skipSpace()

	switch p.peek() {
	case ']':
	case '}':
		r.End.Kind = ast.Exclusive
	default:
		return nil, p.errorf(p.pos, "expected ']' or '}' to close range")
	}
	p.pos++
	return r, nil
}

// rangeBound reads an optionally negative integer.
func (p *parser) rangeBound() (int64, error) {
	start := p.pos
	if p.peek() == '-' {
		p.pos++
	}
	digits := p.pos
	for !p.eof() && p.input[p.pos] >= '0' && p.input[p.pos] <= '9' {
		p.pos++
	}
	if p.pos == digits {
		return 0, p.errorf(start, "expected integer in range")
	}
	text := string(p.input[start:p.pos])
	n, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return 0, p.errorf(start, "integer %s out of range", text)
	}
	return n, nil
}
