package sqlgen

import (
	"errors"
	"fmt"
	"strings"
)

// FieldError reports Named terms whose field is not whitelisted.
type FieldError struct {
	// Fields lists the offending field names in traversal order.
	Fields []string
}

func (e *FieldError) Error() string {
	if len(e.Fields) == 1 {
		return fmt.Sprintf("field not allowed: %s", e.Fields[0])
	}
	return fmt.Sprintf("fields not allowed: %s", strings.Join(e.Fields, ", "))
}

// mergeErrors combines the failures of both sides of a Combined node so that
// every offending field is reported.
func mergeErrors(left, right error) error {
	if left == nil {
		return right
	}
	if right == nil {
		return left
	}

	var lf, rf *FieldError
	if errors.As(left, &lf) && errors.As(right, &rf) {
		fields := make([]string, 0, len(lf.Fields)+len(rf.Fields))
		fields = append(fields, lf.Fields...)
		fields = append(fields, rf.Fields...)
		return &FieldError{Fields: fields}
	}
	return errors.Join(left, right)
}
