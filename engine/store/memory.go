// Package store provides SnapshotSource implementations.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/orbitrent/availability-engine/engine"
)

// =============================================================================
// MEMORY SOURCE - In-memory implementation (for testing/dev)
// =============================================================================

// Memory is an in-memory engine.SnapshotSource with write helpers for
// seeding. It also implements a claim-capable CreateBooking with the same
// unit+range conflict guarantee as the SQLite store, so the full booking
// flow can run against it in tests.
type Memory struct {
	mu       sync.RWMutex
	products map[engine.ProductID]engine.Product
	units    map[engine.ProductID][]engine.StockUnit
	bookings map[engine.ProductID][]engine.Booking
	tiers    map[engine.ProductID][]engine.PricingTier

	// Statuses treated as blocking by CreateBooking's claim check.
	blocking engine.StatusSet
}

func NewMemory() *Memory {
	return &Memory{
		products: make(map[engine.ProductID]engine.Product),
		units:    make(map[engine.ProductID][]engine.StockUnit),
		bookings: make(map[engine.ProductID][]engine.Booking),
		tiers:    make(map[engine.ProductID][]engine.PricingTier),
		blocking: engine.DefaultBlockingStatuses(),
	}
}

// =============================================================================
// SNAPSHOT SOURCE (engine.SnapshotSource interface)
// =============================================================================

func (m *Memory) Product(_ context.Context, id engine.ProductID) (*engine.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.products[id]
	if !ok {
		return nil, engine.ErrProductNotFound
	}
	return &p, nil
}

func (m *Memory) StockUnits(_ context.Context, productID engine.ProductID) ([]engine.StockUnit, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]engine.StockUnit, len(m.units[productID]))
	copy(out, m.units[productID])
	return out, nil
}

func (m *Memory) Bookings(_ context.Context, productID engine.ProductID, filter engine.BookingFilter) ([]engine.Booking, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []engine.Booking
	for _, b := range m.bookings[productID] {
		if filter.Matches(b) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *Memory) PricingTiers(_ context.Context, productID engine.ProductID) ([]engine.PricingTier, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]engine.PricingTier, len(m.tiers[productID]))
	copy(out, m.tiers[productID])
	return out, nil
}

// =============================================================================
// WRITE HELPERS - Seeding and the transactional claim
// =============================================================================

func (m *Memory) SaveProduct(p engine.Product) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products[p.ID] = p
}

func (m *Memory) SaveStockUnit(u engine.StockUnit) {
	m.mu.Lock()
	defer m.mu.Unlock()

	units := m.units[u.ProductID]
	for i, existing := range units {
		if existing.ID == u.ID {
			units[i] = u
			return
		}
	}
	m.units[u.ProductID] = append(units, u)
}

func (m *Memory) SavePricingTiers(productID engine.ProductID, tiers []engine.PricingTier) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tiers[productID] = append([]engine.PricingTier(nil), tiers...)
}

// CreateBooking appends the booking after re-checking, under the write
// lock, that its assigned unit has no overlapping blocking booking. This
// is the same write-time claim the SQLite store enforces transactionally.
func (m *Memory) CreateBooking(_ context.Context, b engine.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if b.StockUnitID != nil {
		for _, existing := range m.bookings[b.ProductID] {
			if existing.StockUnitID == nil || *existing.StockUnitID != *b.StockUnitID {
				continue
			}
			if existing.Blocks(m.blocking) && existing.Range.Overlaps(b.Range) {
				return &engine.UnitConflictError{StockUnitID: *b.StockUnitID, Range: b.Range}
			}
		}
	}

	bookings := m.bookings[b.ProductID]
	i := sort.Search(len(bookings), func(i int) bool {
		return bookings[i].Range.Start.After(b.Range.Start)
	})
	bookings = append(bookings, engine.Booking{})
	copy(bookings[i+1:], bookings[i:])
	bookings[i] = b
	m.bookings[b.ProductID] = bookings
	return nil
}

// SetBookingStatus updates a booking's order status in place.
func (m *Memory) SetBookingStatus(_ context.Context, id engine.BookingID, status engine.OrderStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for productID, bookings := range m.bookings {
		for i, b := range bookings {
			if b.ID == id {
				bookings[i].Status = status
				m.bookings[productID] = bookings
				return nil
			}
		}
	}
	return engine.ErrBookingNotFound
}
