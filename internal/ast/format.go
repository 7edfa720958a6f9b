package ast

import (
	"strconv"
	"strings"
)

// Format renders tree as query text with explicit operators.
//
// For trees produced by the parser, parsing the output yields the same tree.
// Trees built by hand may not survive the round trip: a right-nested Combined
// without Grouping comes back left-associated, negative integers come back as
// text, and Expression leaves have no query syntax at all.
func Format(tree Term) string {
	var b strings.Builder
	writeTerm(&b, tree)
	return b.String()
}

func writeTerm(b *strings.Builder, t Term) {
	switch t := t.(type) {
	case Default:
		writeValue(b, t.Value)
	case Named:
		b.WriteString(t.Key)
		b.WriteByte(':')
		writeValue(b, t.Value)
	case Combined:
		if t.Grouping {
			b.WriteByte('(')
		}
		writeTerm(b, t.Left)
		b.WriteByte(' ')
		b.WriteString(t.Operator.String())
		b.WriteByte(' ')
		writeTerm(b, t.Right)
		if t.Grouping {
			b.WriteByte(')')
		}
	case Negated:
		b.WriteString("NOT ")
		if c, ok := t.Inner.(Combined); ok && !c.Grouping {
			c.Grouping = true
			writeTerm(b, c)
			return
		}
		writeTerm(b, t.Inner)
	case Expression:
		b.WriteString("<sql ")
		b.WriteString(string(t))
		b.WriteByte('>')
	}
}

func writeValue(b *strings.Builder, v Value) {
	switch v := v.(type) {
	case Text:
		writeText(b, string(v))
	case Integer:
		b.WriteString(strconv.FormatInt(int64(v), 10))
	case Boolean:
		b.WriteString(strconv.FormatBool(bool(v)))
	case Range:
		if v.Start.Kind == Exclusive {
			b.WriteByte('{')
		} else {
			b.WriteByte('[')
		}
		b.WriteString(strconv.FormatInt(v.Start.Value, 10))
		b.WriteString(" TO ")
		b.WriteString(strconv.FormatInt(v.End.Value, 10))
		if v.End.Kind == Exclusive {
			b.WriteByte('}')
		} else {
			b.WriteByte(']')
		}
	}
}

// writeText writes s bare when the parser would read it back as the same
// Text, and as a quoted phrase otherwise.
func writeText(b *strings.Builder, s string) {
	if isPlainToken(s) {
		b.WriteString(s)
		return
	}
	b.WriteByte('"')
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteByte(c)
		}
	}
	b.WriteByte('"')
}

func isPlainToken(s string) bool {
	if s == "" {
		return false
	}
	switch s {
	case "true", "false", "AND", "OR", "NOT", "TO":
		return false
	}
	digits := true
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !IsTokenByte(c) {
			return false
		}
		if c < '0' || c > '9' {
			digits = false
		}
	}
	return !digits
}

// IsTokenByte reports whether c may appear in a bare token or field key.
func IsTokenByte(c byte) bool {
	return c >= 'a' && c <= 'z' ||
		c >= 'A' && c <= 'Z' ||
		c >= '0' && c <= '9' ||
		c == '-' || c == '_' || c == '.'
}

// Describe converts tree into nested maps tagged by "type", suitable for
// JSON encoding.
func Describe(tree Term) map[string]any {
	switch t := tree.(type) {
	case Default:
		return map[string]any{"type": "default", "value": describeValue(t.Value)}
	case Named:
		return map[string]any{"type": "named", "key": t.Key, "value": describeValue(t.Value)}
	case Combined:
		return map[string]any{
			"type":     "combined",
			"operator": t.Operator.String(),
			"grouping": t.Grouping,
			"left":     Describe(t.Left),
			"right":    Describe(t.Right),
		}
	case Negated:
		return map[string]any{"type": "negated", "inner": Describe(t.Inner)}
	case Expression:
		return map[string]any{"type": "expression", "sql": string(t)}
	default:
		return nil
	}
}

func describeValue(v Value) map[string]any {
	switch v := v.(type) {
	case Text:
		return map[string]any{"text": string(v)}
	case Integer:
		return map[string]any{"integer": int64(v)}
	case Boolean:
		return map[string]any{"boolean": bool(v)}
	case Range:
		return map[string]any{"range": map[string]any{
			"start":      v.Start.Value,
			"start_kind": v.Start.Kind.String(),
			"end":        v.End.Value,
			"end_kind":   v.End.Kind.String(),
		}}
	default:
		return nil
	}
}
