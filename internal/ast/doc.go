// Package ast defines the abstract syntax tree produced by the search query
// parser and the rewrite passes that run over it before SQL generation.
//
// PIPELINE:
//
//	[query text] → parser.Parse → [Term] → rewrite passes → sqlgen.ToSQL
//
// The package knows nothing about parsing or SQL. Every function here is a
// pure transformation: passes return new trees and never mutate their input.
// Unchanged subtrees may be shared between the input and output trees, which
// is safe because no consumer mutates a Term.
//
// SEALED INTERFACES:
//
// Term and Value are sealed interfaces using the marker method pattern. Only
// types in this package implement them, so type switches in the parser and
// in sqlgen are exhaustive:
//
//	switch t := term.(type) {
//	case Default:
//	case Named:
//	case Combined:
//	case Negated:
//	case Expression:
//	}
//
// REWRITE ORDER:
//
// The passes are independent but order-sensitive. The driver applies them as
//
//	Deanonymize → Rename → ReplaceExpressions
//
// Deanonymize must come first because it is the only pass that turns Default
// leaves into Named leaves. Rename runs before ReplaceExpressions, so
// expression rules are keyed by the renamed field name.
package ast
