// internal/engine/malformed.go
package engine

import "fmt"

// DimDate names the validity-window pseudo dimension in malformed-row
// diagnostics.
const DimDate = "Date_Window"

// MalformedError marks a stored predicate that could not be interpreted. The
// evaluator absorbs it: the row fails closed and a counter is bumped, the
// request never surfaces it as a failure.
type MalformedError struct {
	Dimension string
	Raw       string
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("malformed %s predicate %q", e.Dimension, e.Raw)
}

func errMalformed(dimension, raw string) error {
	return &MalformedError{Dimension: dimension, Raw: raw}
}

// IsMalformed reports whether err is a MalformedError.
func IsMalformed(err error) bool {
	_, ok := err.(*MalformedError)
	return ok
}
