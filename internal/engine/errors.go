package engine

import "errors"

// Common errors for scoring computations.
var (
	// ErrNoRecord is returned by LedgerReader implementations when no daily
	// activity record exists for the requested date. The streak walk treats
	// it as a break, never as a failure.
	ErrNoRecord = errors.New("no daily activity record")

	// ErrInvalidActivityType is returned when an activity type is not in the
	// point table. No state is mutated.
	ErrInvalidActivityType = errors.New("invalid activity type")

	// ErrInvalidPolicyType is returned when a sale references an unknown
	// product category.
	ErrInvalidPolicyType = errors.New("invalid policy type")
)
