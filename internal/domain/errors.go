package domain

import "errors"

// Sentinel errors for the order domain. Callers match with errors.Is;
// call sites wrap them with field or state context via fmt.Errorf.
var (
	// ErrValidation marks malformed or out-of-range input: negative money,
	// incomplete addresses, a computed total below zero.
	ErrValidation = errors.New("validation error")

	// ErrInvalidState marks an operation that is not allowed in the order's
	// current status, such as adding items to a confirmed order.
	ErrInvalidState = errors.New("invalid order state")

	// ErrInvalidTransition marks a status change outside the transition table.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrNotFound marks a missing order or order item.
	ErrNotFound = errors.New("not found")

	// ErrOrderNumberConflict marks an order number that already exists.
	// The creation path regenerates the number and retries exactly once.
	ErrOrderNumberConflict = errors.New("order number already taken")
)
