package ast

// Term is a node of the query tree.
//
// This is a sealed interface - only types in this package implement it.
//
// Term types:
//   - Default: a bare value with no field name
//   - Named: field:value
//   - Combined: binary AND/OR of two terms
//   - Negated: NOT of a subtree
//   - Expression: a raw SQL fragment substituted by ReplaceExpressions
type Term interface {
	termNode() // Marker method - seals interface to this package
}

// Value is the right hand side of a Default or Named term.
//
// This is a sealed interface. Value types: Text, Integer, Boolean, Range.
type Value interface {
	valueNode()
}

// Text is a free text value, either a bare token or a quoted phrase.
type Text string

func (Text) valueNode() {}

// Integer is a decimal integer literal.
type Integer int64

func (Integer) valueNode() {}

// Boolean is the literal true or false.
type Boolean bool

func (Boolean) valueNode() {}

// BoundaryKind says whether a range endpoint is part of the range.
type BoundaryKind int

const (
	// Inclusive endpoints are written [ or ].
	Inclusive BoundaryKind = iota
	// Exclusive endpoints are written { or }.
	Exclusive
)

// String returns "inclusive" or "exclusive".
func (k BoundaryKind) String() string {
	if k == Exclusive {
		return "exclusive"
	}
	return "inclusive"
}

// Boundary is one endpoint of a Range.
type Boundary struct {
	Value int64
	Kind  BoundaryKind
}

// Range is an integer interval with independently inclusive or exclusive
// endpoints.
//
// Start <= End is not enforced. A reversed range is accepted and yields a
// predicate that matches nothing.
type Range struct {
	Start Boundary
	End   Boundary
}

func (Range) valueNode() {}

// Operator joins the two sides of a Combined term.
type Operator int

const (
	// And requires both sides.
	And Operator = iota
	// Or requires either side.
	Or
)

// String returns the SQL keyword for the operator.
func (o Operator) String() string {
	if o == Or {
		return "OR"
	}
	return "AND"
}

// Default is a field-less value. Deanonymize expands it into Named terms.
type Default struct {
	Value Value
}

func (Default) termNode() {}

// Named is a field-qualified condition, written key:value.
type Named struct {
	Key   string
	Value Value
}

func (Named) termNode() {}

// Combined is a binary boolean node.
//
// Grouping records that the query wrapped this node in parentheses. It only
// affects how the generated SQL is parenthesized; evaluation order is already
// fixed by the tree shape.
type Combined struct {
	Left     Term
	Right    Term
	Operator Operator
	Grouping bool
}

func (Combined) termNode() {}

// Negated is the logical NOT of Inner.
type Negated struct {
	Inner Term
}

func (Negated) termNode() {}

// Expression is a pre-rendered SQL fragment. It only ever comes from a
// server-side Ruleset and is emitted verbatim by sqlgen.
type Expression string

func (Expression) termNode() {}
