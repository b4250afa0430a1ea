/*
engine.go - Availability & Pricing facade

PURPOSE:
  The two public operations the rest of the system consumes, plus the
  calendar view. Every call fetches a fresh snapshot from the source and
  computes a pure result; nothing is cached, mutated, or persisted, so a
  call repeated against an unchanged snapshot returns an identical result.

CONCURRENCY NOTE:
  CheckAvailability cannot guarantee the reported unit is still free when
  the caller persists a booking - two concurrent callers can both observe
  the same free unit (check-then-act). Claim-capable stores close that gap
  at write time; see store/sqlite.CreateBooking and ErrUnitConflict.
*/
package engine

import (
	"context"
	"fmt"
)

// =============================================================================
// CONFIG
// =============================================================================

// Config carries the caller-level knobs threaded through every operation.
// The default buffer is a single explicit value here rather than a constant
// scattered across call sites.
type Config struct {
	// DefaultBufferDays applies to either side of a booking when the
	// product has no override for that side.
	DefaultBufferDays int

	// BlockingStatuses is the set of order statuses that reserve a unit.
	BlockingStatuses StatusSet

	Pricing PricingPolicy
}

// DefaultConfig returns a 1-day buffer, the standard blocking set, and the
// default pricing policy.
func DefaultConfig() Config {
	return Config{
		DefaultBufferDays: 1,
		BlockingStatuses:  DefaultBlockingStatuses(),
		Pricing:           DefaultPricingPolicy(),
	}
}

// =============================================================================
// ENGINE
// =============================================================================

// Engine composes the interval, buffer, maintenance, conflict, occupancy
// and pricing pieces over a snapshot source.
type Engine struct {
	Source SnapshotSource
	Config Config
}

// New creates an engine over the given source.
func New(source SnapshotSource, config Config) *Engine {
	return &Engine{Source: source, Config: config}
}

// CheckAvailability determines which stock units of the product are free
// for [start, end] plus the product's logistics buffers.
//
// Fails with ErrInvalidRange when end <= start, ErrProductNotFound when the
// product doesn't exist. Source failures are propagated unchanged. A
// product with zero units reports Available=false with empty slices.
func (e *Engine) CheckAvailability(ctx context.Context, productID ProductID, start, end Date) (*Availability, error) {
	candidate, err := NewDateRange(start, end)
	if err != nil {
		return nil, err
	}

	product, err := e.Source.Product(ctx, productID)
	if err != nil {
		return nil, err
	}

	units, err := e.Source.StockUnits(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("fetching stock units for %s: %w", productID, err)
	}

	blocked := candidate.ExpandBy(product.Buffers(e.Config.DefaultBufferDays))

	// Fetch only bookings that can possibly conflict; the resolver applies
	// the same overlap test precisely.
	bookings, err := e.Source.Bookings(ctx, productID, BookingFilter{
		Statuses:    e.Config.BlockingStatuses,
		Overlapping: &blocked,
	})
	if err != nil {
		return nil, fmt.Errorf("fetching bookings for %s: %w", productID, err)
	}

	surviving := FilterMaintenance(units, candidate)
	available, conflicted := ResolveConflicts(blocked, surviving, bookings, e.Config.BlockingStatuses)

	return &Availability{
		ProductID:         productID,
		Range:             candidate,
		BlockedStart:      blocked.Start,
		BlockedEnd:        blocked.End,
		Available:         len(available) > 0,
		AvailableUnitIDs:  available,
		ConflictedUnitIDs: conflicted,
	}, nil
}

// Quote prices a stay for the product: rate, deposit and tier table come
// from the snapshot, the rest from Config.Pricing. Same validation rules
// as CalculatePrice.
func (e *Engine) Quote(ctx context.Context, productID ProductID, start, end Date) (*Quote, error) {
	rng, err := NewDateRange(start, end)
	if err != nil {
		return nil, err
	}

	product, err := e.Source.Product(ctx, productID)
	if err != nil {
		return nil, err
	}

	tiers, err := e.Source.PricingTiers(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("fetching pricing tiers for %s: %w", productID, err)
	}

	return CalculatePrice(rng, product.BaseDailyRate, product.DepositAmount, tiers, e.Config.Pricing)
}

// Calendar builds the advisory per-day occupancy view for [from, to] over
// ALL of the product's blocking bookings. It is decoupled from
// CheckAvailability on purpose and must never stand in for it.
func (e *Engine) Calendar(ctx context.Context, productID ProductID, from, to Date) ([]DayOccupancy, error) {
	if to.Before(from) {
		return nil, &InvalidRangeError{Start: from, End: to}
	}

	product, err := e.Source.Product(ctx, productID)
	if err != nil {
		return nil, err
	}

	units, err := e.Source.StockUnits(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("fetching stock units for %s: %w", productID, err)
	}

	bookings, err := e.Source.Bookings(ctx, productID, BookingFilter{
		Statuses: e.Config.BlockingStatuses,
	})
	if err != nil {
		return nil, fmt.Errorf("fetching bookings for %s: %w", productID, err)
	}

	m := BuildOccupancyMap(bookings, product.Buffers(e.Config.DefaultBufferDays), e.Config.BlockingStatuses, len(units))
	return m.Days(from, to), nil
}
