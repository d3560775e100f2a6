package services

import "fmt"

// Validation failure reasons.
const (
	ReasonRequired     = "required"
	ReasonTooLong      = "too_long"
	ReasonNotPositive  = "not_positive"
	ReasonNegative     = "negative"
	ReasonInvalidRange = "invalid_range"
)

// ValidationError reports a field constraint violation on a candidate
// product or on search parameters.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	switch e.Reason {
	case ReasonRequired:
		return fmt.Sprintf("%s is required", e.Field)
	case ReasonTooLong:
		return fmt.Sprintf("%s is too long", e.Field)
	case ReasonNotPositive:
		return fmt.Sprintf("%s must be greater than zero", e.Field)
	case ReasonNegative:
		return fmt.Sprintf("%s must not be negative", e.Field)
	case ReasonInvalidRange:
		return "minimum price must not exceed maximum price"
	default:
		return fmt.Sprintf("%s is invalid", e.Field)
	}
}

// ConflictError reports a duplicate product name.
type ConflictError struct {
	Name string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("a product named %q already exists", e.Name)
}

// NotFoundError reports a missing product ID.
type NotFoundError struct {
	ID uint
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("product with ID %d not found", e.ID)
}
