package ast

// Visitor maps a leaf term to its replacement.
type Visitor func(Term) Term

// Transform rebuilds tree children-first, applying visit to every leaf
// (Default, Named, Expression). Combined and Negated nodes are recursed
// through and keep their operator and grouping; visit never sees them.
func Transform(tree Term, visit Visitor) Term {
	switch t := tree.(type) {
	case Combined:
		return Combined{
			Left:     Transform(t.Left, visit),
			Right:    Transform(t.Right, visit),
			Operator: t.Operator,
			Grouping: t.Grouping,
		}
	case Negated:
		return Negated{Inner: Transform(t.Inner, visit)}
	default:
		return visit(tree)
	}
}

// Deanonymize replaces every Default leaf with a left-associated OR chain of
// Named terms, one per entry of fields, in order. With a single field the
// result is that Named term alone.
//
// Calling Deanonymize on a tree that contains a Default leaf with an empty
// fields list is a configuration bug and panics. Use HasDefault to check
// beforehand.
func Deanonymize(tree Term, fields []string) Term {
	return Transform(tree, func(leaf Term) Term {
		d, ok := leaf.(Default)
		if !ok {
			return leaf
		}
		return expandDefault(d, fields)
	})
}

func expandDefault(d Default, fields []string) Term {
	if len(fields) == 0 {
		panic("ast: Deanonymize called with no default fields on a tree containing a default term")
	}

	var out Term = Named{Key: fields[0], Value: d.Value}
	for _, f := range fields[1:] {
		out = Combined{
			Left:     out,
			Right:    Named{Key: f, Value: d.Value},
			Operator: Or,
		}
	}
	return out
}

// Rename replaces the key of every Named leaf found in renames.
func Rename(tree Term, renames map[string]string) Term {
	if len(renames) == 0 {
		return tree
	}
	return Transform(tree, func(leaf Term) Term {
		n, ok := leaf.(Named)
		if !ok {
			return leaf
		}
		if to, found := renames[n.Key]; found {
			n.Key = to
		}
		return n
	})
}

// Rule substitutes SQL for a field condition whose value equals Literal.
type Rule struct {
	Literal Value
	SQL     string
}

// Ruleset maps a field name to its rules. Rule order matters: the first rule
// whose literal matches wins.
type Ruleset map[string][]Rule

// Match returns the SQL of the first rule for key whose literal equals value.
// Ranges never match.
func (rs Ruleset) Match(key string, value Value) (string, bool) {
	if _, isRange := value.(Range); isRange {
		return "", false
	}
	for _, rule := range rs[key] {
		if literalEqual(rule.Literal, value) {
			return rule.SQL, true
		}
	}
	return "", false
}

// literalEqual compares two values of the same kind. Values of different
// kinds never match, so Integer(1) does not equal Text("1").
func literalEqual(a, b Value) bool {
	switch av := a.(type) {
	case Text:
		bv, ok := b.(Text)
		return ok && av == bv
	case Integer:
		bv, ok := b.(Integer)
		return ok && av == bv
	case Boolean:
		bv, ok := b.(Boolean)
		return ok && av == bv
	default:
		return false
	}
}

// ReplaceExpressions replaces each Named leaf matched by rules with the
// rule's Expression. Unmatched leaves pass through unchanged.
func ReplaceExpressions(tree Term, rules Ruleset) Term {
	if len(rules) == 0 {
		return tree
	}
	return Transform(tree, func(leaf Term) Term {
		n, ok := leaf.(Named)
		if !ok {
			return leaf
		}
		if sql, found := rules.Match(n.Key, n.Value); found {
			return Expression(sql)
		}
		return n
	})
}

// HasDefault reports whether tree contains a Default leaf.
func HasDefault(tree Term) bool {
	found := false
	Transform(tree, func(leaf Term) Term {
		if _, ok := leaf.(Default); ok {
			found = true
		}
		return leaf
	})
	return found
}

// Fields returns the keys of all Named leaves in source order. Duplicates are
// kept.
func Fields(tree Term) []string {
	var keys []string
	Transform(tree, func(leaf Term) Term {
		if n, ok := leaf.(Named); ok {
			keys = append(keys, n.Key)
		}
		return leaf
	})
	return keys
}
