package parser

import "fmt"

// ParseError reports malformed query syntax.
type ParseError struct {
	// Offset is the byte offset in the input where the error was detected.
	Offset int

	// Message describes what was expected or found.
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at offset %d: %s", e.Offset, e.Message)
}
