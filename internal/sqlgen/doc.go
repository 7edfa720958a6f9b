// Package sqlgen composes a parameterized SQL SELECT from a rewritten
// ast.Term.
//
// CRITICAL: literal values are never interpolated. Every value becomes a
// named parameter (:v0, :v1, ...) numbered in traversal order, left before
// right, and never reused within one statement.
//
// CRITICAL: the Whitelist is the authorization boundary for field names. A
// Named term outside it fails the whole composition with a *FieldError.
// Identifiers are backtick-quoted with embedded backticks doubled.
//
// The tree handed to ToSQL must contain only Named, Expression, Combined and
// Negated nodes. A Default leaf means Deanonymize did not run, which is a
// caller bug, and ToSQL panics.
//
// Known and accepted imprecision:
//   - Text values are matched with LIKE and % or _ inside them are not
//     escaped, so they act as wildcards.
//   - Reversed ranges (start > end) are rendered as written and match nothing.
package sqlgen
