/*
errors.go - Centralized error types for the point-of-sale core

PURPOSE:
  All error types in one place for consistency and discoverability.
  Store implementations translate driver errors into these.

ERROR CATEGORIES:
  1. Validation errors - A business rule fails before any write
  2. Not-found errors  - A referenced document does not exist
  3. Store errors      - The underlying read or atomic write failed

USAGE:
  if errors.Is(err, pos.ErrInsufficientStock) {
      var stockErr *pos.InsufficientStockError
      errors.As(err, &stockErr)
      fmt.Printf("only %d available\n", stockErr.Available)
  }

SEE ALSO:
  - coordinator.go: Returns these errors
  - api/handlers.go: Maps them to HTTP status codes
*/
package pos

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrValidation is wrapped by every ValidationError.
	ErrValidation = errors.New("validation failed")

	// ErrInsufficientStock is returned when a sale asks for more than is on hand.
	ErrInsufficientStock = errors.New("insufficient stock")

	ErrItemNotFound     = errors.New("item not found")
	ErrSaleNotFound     = errors.New("sale not found")
	ErrStockNotFound    = errors.New("stock level not found")
	ErrShortageNotFound = errors.New("shortage not found")
	ErrDailyNotFound    = errors.New("daily stock sheet not found")

	// ErrDuplicate is returned when a document with the same key exists.
	ErrDuplicate = errors.New("duplicate document")

	// ErrConcurrentModification is returned when the store aborts a
	// transaction because of a conflicting concurrent write.
	ErrConcurrentModification = errors.New("concurrent modification detected")

	// ErrStore is wrapped by every StoreError.
	ErrStore = errors.New("store failure")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ValidationError is a request that fails a business rule. It is always
// raised before any write.
type ValidationError struct {
	Field   string
	Message string
	Err     error // optional cause, e.g. ErrItemNotFound
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrValidation, e.Err}
	}
	return []error{ErrValidation}
}

// InsufficientStockError names the quantity that could have been sold.
type InsufficientStockError struct {
	ItemID    string
	ItemName  string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("cannot sell %d of %s: only %d available", e.Requested, e.label(), e.Available)
}

func (e *InsufficientStockError) label() string {
	if e.ItemName != "" {
		return e.ItemName
	}
	return e.ItemID
}

func (e *InsufficientStockError) Unwrap() []error {
	return []error{ErrValidation, ErrInsufficientStock}
}

// StoreError wraps a failed read or write against the backing store.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() []error {
	return []error{ErrStore, e.Err}
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

func validation(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// storeErr wraps err unless it is already a domain error the caller
// should see unchanged.
func storeErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrValidation) || IsNotFound(err) || errors.Is(err, ErrStore) {
		return err
	}
	return &StoreError{Op: op, Err: err}
}

// IsRetryable returns true if the error might succeed on retry.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConcurrentModification)
}

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) || errors.Is(err, ErrDuplicate)
}

// IsNotFound returns true if the error indicates a missing document.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrItemNotFound) ||
		errors.Is(err, ErrSaleNotFound) ||
		errors.Is(err, ErrStockNotFound) ||
		errors.Is(err, ErrShortageNotFound) ||
		errors.Is(err, ErrDailyNotFound)
}
