/*
Package engine provides the availability and pricing core for rental
equipment reservations.

PURPOSE:
  A product owns a pool of interchangeable physical units ("stock units").
  A reservation occupies exactly one unit for a contiguous, inclusive date
  range plus logistics buffer days on either side. This package answers two
  questions, and only these two, as pure computations over a read-only data
  snapshot:

    1. Which units (if any) are free for a candidate range?
    2. What does that stay cost under the product's tier table?

KEY CONCEPTS IN THIS FILE (types.go):
  - Product:     catalog row with base daily rate, deposit, buffer overrides
  - StockUnit:   one physical instance, with an optional maintenance blackout
  - Booking:     an existing reservation; only some order statuses block
  - PricingTier: bracket whose multiplier prices the WHOLE stay, not per day
  - StatusSet:   the caller-configurable set of blocking order statuses

DESIGN PRINCIPLES:
  1. Purity: the engine never mutates or persists anything; it consumes
     snapshots and returns value objects.
  2. Precision: all money is integer minor-currency units; multiplier
     arithmetic goes through decimal.Decimal with rounding per
     multiplication, never on accumulated sums.
  3. Type safety: distinct ID types so a unit ID can't be passed where a
     product ID belongs.

SEE ALSO:
  - engine.go:    the two public facade operations
  - conflict.go:  per-range unit availability
  - occupancy.go: per-day calendar view (a different computation on purpose)
  - pricing.go:   tiered price calculation
*/
package engine

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type ProductID string
type StockUnitID string
type BookingID string

// =============================================================================
// ORDER STATUS - Only a caller-supplied subset blocks a unit
// =============================================================================

type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusPaid      OrderStatus = "paid"
	StatusManual    OrderStatus = "manual"
	StatusCompleted OrderStatus = "completed"
	StatusCancelled OrderStatus = "cancelled"
	StatusRefunded  OrderStatus = "refunded"
)

// StatusSet is a set of order statuses. The engine treats a booking as
// blocking iff its status is in the set; cancelled/refunded bookings are
// simply never added by callers.
type StatusSet map[OrderStatus]struct{}

func NewStatusSet(statuses ...OrderStatus) StatusSet {
	set := make(StatusSet, len(statuses))
	for _, s := range statuses {
		set[s] = struct{}{}
	}
	return set
}

func (s StatusSet) Contains(status OrderStatus) bool {
	_, ok := s[status]
	return ok
}

func (s StatusSet) Slice() []OrderStatus {
	out := make([]OrderStatus, 0, len(s))
	for status := range s {
		out = append(out, status)
	}
	return out
}

// DefaultBlockingStatuses returns the statuses that reserve a unit unless
// the caller configures otherwise.
func DefaultBlockingStatuses() StatusSet {
	return NewStatusSet(StatusPending, StatusPaid, StatusManual, StatusCompleted)
}

// =============================================================================
// PRODUCT - Catalog row, read-only to the engine
// =============================================================================

// Product is the engine's view of a catalog item. Monetary fields are minor
// currency units (cents). Buffer overrides are optional; a nil override
// falls back to the caller-supplied default for that side independently.
type Product struct {
	ID            ProductID
	Name          string
	BaseDailyRate int64
	DepositAmount int64

	BufferBeforeDays *int
	BufferAfterDays  *int
}

// =============================================================================
// STOCK UNIT - One physical instance of a product
// =============================================================================

// StockUnit is one fungible physical instance. An optional maintenance
// blackout window excludes the unit from consideration regardless of
// bookings; either bound may be open-ended.
type StockUnit struct {
	ID        StockUnitID
	ProductID ProductID
	Label     string

	UnavailableFrom *Date
	UnavailableTo   *Date
}

// =============================================================================
// BOOKING - An existing reservation
// =============================================================================

// Booking is a reservation row as fetched from storage. StockUnitID is nil
// until a unit has been assigned. The range is inclusive with End > Start.
// No buffer is stored per booking: buffers are derived at query time from
// the product's current settings, so editing a product's buffer
// retroactively changes which historical bookings block new requests.
type Booking struct {
	ID          BookingID
	ProductID   ProductID
	StockUnitID *StockUnitID
	Range       DateRange
	Status      OrderStatus
}

// Blocks reports whether the booking reserves its unit under the given
// blocking-status set.
func (b Booking) Blocks(blocking StatusSet) bool {
	return blocking.Contains(b.Status)
}

// =============================================================================
// PRICING TIER - Bracket pricing for whole stays
// =============================================================================

// PricingTier prices stays of at least TierDays days. Multiplier applies to
// the base daily rate and yields the total price for the whole tier period,
// NOT a per-day rate. Tiers arrive unordered and are sorted before use.
type PricingTier struct {
	TierDays   int
	Multiplier decimal.Decimal
	Label      string
}

// =============================================================================
// RESULT VALUE OBJECTS - Never persisted by the engine
// =============================================================================

// Availability is the result of a per-range availability check.
type Availability struct {
	ProductID ProductID
	Range     DateRange

	// The candidate range expanded by the product's logistics buffers.
	BlockedStart Date
	BlockedEnd   Date

	Available         bool
	AvailableUnitIDs  []StockUnitID
	ConflictedUnitIDs []StockUnitID
}

// Quote is the result of a price calculation. All amounts are minor
// currency units. EffectiveDailyRate is display-only.
type Quote struct {
	Days               int
	EffectiveDailyRate int64
	RentalSubtotal     int64
	Deposit            int64
	Total              int64
	TierMatched        bool
	TierLabel          string
}
