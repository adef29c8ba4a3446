package billing

import "fmt"

// ValidationError rejects a malformed checkout before any store mutation.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func errValidation(format string, args ...any) *ValidationError {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// NotFoundError reports a line referencing an item that does not exist.
type NotFoundError struct {
	ItemID uint
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("Item with id %d not found", e.ItemID)
}

// InsufficientStockError reports a pre-check failure, naming the item and the
// available vs requested quantities.
type InsufficientStockError struct {
	ItemName  string
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("Insufficient stock for item %s. Available: %d, Requested: %d",
		e.ItemName, e.Available, e.Requested)
}

// ConcurrencyConflictError reports a commit-time conflict: either the
// conditional stock decrement affected zero rows (stock changed after the
// pre-check) or the generated bill number collided with a concurrent checkout.
// The caller may resubmit; nothing was persisted.
type ConcurrencyConflictError struct {
	Reason string
}

func (e *ConcurrencyConflictError) Error() string { return e.Reason }
