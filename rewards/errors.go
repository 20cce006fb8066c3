package rewards

import (
	"fmt"
)

// ValidationError is returned when a roster or constants snapshot cannot feed a calculation.
// Category is only meaningful when HasCategory is set.
type ValidationError struct {
	Category    Category
	HasCategory bool
	Reason      string
}

func (e *ValidationError) Error() string {
	if e.HasCategory {
		return fmt.Sprintf("validation failed for %s: %s", e.Category, e.Reason)
	}
	return fmt.Sprintf("validation failed: %s", e.Reason)
}

func newValidationError(c Category, reason string) *ValidationError {
	return &ValidationError{
		Category:    c,
		HasCategory: true,
		Reason:      reason,
	}
}
