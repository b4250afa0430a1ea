package engine

import "context"

// =============================================================================
// SNAPSHOT SOURCE - "Fetch rows matching filters" storage boundary
// =============================================================================

// SnapshotSource is the engine's only external collaborator: a read-only
// row fetcher. Each facade call fetches its own snapshot; the engine holds
// no cache and no state between calls.
//
// Errors from a source must be propagated unchanged by the facade. Treating
// a failed fetch as an empty result would falsely report availability.
//
// Implementations:
//   - store/sqlite:       production store
//   - engine/store.Memory: in-memory source for tests and dev
type SnapshotSource interface {
	// Product returns the product row, or ErrProductNotFound.
	Product(ctx context.Context, id ProductID) (*Product, error)

	// StockUnits returns all units of the product, retired units excluded.
	StockUnits(ctx context.Context, productID ProductID) ([]StockUnit, error)

	// Bookings returns the product's bookings matching the filter.
	Bookings(ctx context.Context, productID ProductID, filter BookingFilter) ([]Booking, error)

	// PricingTiers returns the product's tier table, possibly empty and in
	// no particular order.
	PricingTiers(ctx context.Context, productID ProductID) ([]PricingTier, error)
}

// BookingFilter narrows a booking fetch. Zero-value fields are no-ops, so
// the empty filter fetches everything.
type BookingFilter struct {
	// Statuses restricts to bookings whose status is in the set.
	Statuses StatusSet

	// Overlapping restricts to bookings whose core range overlaps the
	// given inclusive range.
	Overlapping *DateRange
}

// Matches applies the filter in-process. Store implementations may push
// the same predicates into SQL; this is the reference semantics.
func (f BookingFilter) Matches(b Booking) bool {
	if len(f.Statuses) > 0 && !f.Statuses.Contains(b.Status) {
		return false
	}
	if f.Overlapping != nil && !b.Range.Overlaps(*f.Overlapping) {
		return false
	}
	return true
}
