// Package parser turns a Lucene-style search query into an ast.Term.
//
// GRAMMAR (informal, loosest binding first):
//
//	query    = space sequence space EOF
//	sequence = unit { operator unit }            left-associated
//	operator = space ("AND" | "&&" | "OR" | "||") space
//	         | whitespace                         implicit OR
//	unit     = "NOT" space unit | group | term
//	group    = "(" space sequence space ")"
//	term     = token ":" value | value
//	value    = range | phrase | token
//	range    = ("[" | "{") space int ws "TO" ws int space ("]" | "}")
//	phrase   = '"' { char | "\\" | "\"" | "\n" | "\t" } '"'
//	token    = 1*[A-Za-z0-9_.-]
//
// A token is a Boolean when it is exactly "true" or "false", an Integer when
// it is all digits, and Text otherwise. AND and OR bind equally; only
// parentheses change association.
//
// Parsing is all or nothing: the first failure is returned as a *ParseError
// carrying the byte offset where it was detected.
package parser
