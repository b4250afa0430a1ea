/*
errors.go - Centralized error types for the engine

ERROR CATEGORIES:
  1. Input errors  - invalid ranges and rates supplied by callers
  2. Lookup errors - referenced product/unit does not exist
  3. Claim errors  - unit+range conflicts detected at write time by stores

Storage/query failures are NOT represented here: the facade propagates them
unchanged, wrapped with context. A storage error must never be collapsed
into "no units" or "no bookings" - that would falsely report availability.
*/
package engine

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidRange is returned when endDate <= startDate is supplied to a
	// public operation. Surfaced to the caller, never retried.
	ErrInvalidRange = errors.New("invalid range: end date must be after start date")

	// ErrInvalidRate is returned for a negative daily rate or deposit.
	ErrInvalidRate = errors.New("invalid rate: rate and deposit must be non-negative")

	// ErrProductNotFound is returned when a referenced product doesn't exist.
	ErrProductNotFound = errors.New("product not found")

	// ErrBookingNotFound is returned when a referenced booking doesn't exist.
	ErrBookingNotFound = errors.New("booking not found")

	// ErrUnitConflict is returned by claim-capable stores when the chosen
	// unit already has a blocking booking overlapping the requested range.
	// This is the write-time guarantee that closes the check-then-act gap
	// left open by the pure availability check.
	ErrUnitConflict = errors.New("stock unit already booked for an overlapping range")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InvalidRangeError reports the offending bounds.
type InvalidRangeError struct {
	Start Date
	End   Date
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("invalid range [%s, %s]: end date must be after start date", e.Start, e.End)
}

func (e *InvalidRangeError) Unwrap() error { return ErrInvalidRange }

// InvalidRateError reports which monetary field was negative.
type InvalidRateError struct {
	Field string // "base_daily_rate" or "deposit_amount"
	Value int64
}

func (e *InvalidRateError) Error() string {
	return fmt.Sprintf("invalid %s: %d (must be non-negative)", e.Field, e.Value)
}

func (e *InvalidRateError) Unwrap() error { return ErrInvalidRate }

// UnitConflictError identifies the unit and range a claim collided on.
type UnitConflictError struct {
	StockUnitID StockUnitID
	Range       DateRange
}

func (e *UnitConflictError) Error() string {
	return fmt.Sprintf("unit %s already booked within %s", e.StockUnitID, e.Range)
}

func (e *UnitConflictError) Unwrap() error { return ErrUnitConflict }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid caller input.
// Callers should map these to a validation message, not a generic failure.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidRange) ||
		errors.Is(err, ErrInvalidRate) ||
		errors.Is(err, ErrUnitConflict)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrProductNotFound) ||
		errors.Is(err, ErrBookingNotFound)
}
