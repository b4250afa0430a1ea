package engine_test

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/orbitrent/availability-engine/engine"
	"github.com/orbitrent/availability-engine/engine/store"
)

func kayakBooking(id, unitID string, start, end engine.Date) engine.Booking {
	b := blockingBooking(id, unitID, start, end)
	b.ProductID = "kayak"
	return b
}

// seedKayak builds a memory source with one single-unit product, 1-day
// buffers on both sides, and a paid booking Jun 1-5.
func seedKayak() *store.Memory {
	mem := store.NewMemory()
	mem.SaveProduct(engine.Product{
		ID:              "kayak",
		Name:            "Touring Kayak",
		BaseDailyRate:   4500,
		DepositAmount:   10000,
		BufferBeforeDays: intPtr(1),
		BufferAfterDays:  intPtr(1),
	})
	mem.SaveStockUnit(engine.StockUnit{ID: "kayak-1", ProductID: "kayak", Label: "Kayak #1"})
	_ = mem.CreateBooking(context.Background(), kayakBooking("bk-1", "kayak-1", date(2025, time.June, 1), date(2025, time.June, 5)))
	return mem
}

func kayakEngine(mem *store.Memory) *engine.Engine {
	config := engine.DefaultConfig()
	return engine.New(mem, config)
}

// =============================================================================
// AVAILABILITY FACADE
// =============================================================================

func TestCheckAvailability_BufferExtendsTheBlockedSpan(t *testing.T) {
	// GIVEN: booking Jun 1-5'25 on the only unit, buffers 1/1
	// WHEN:  a candidate stay would brush the buffered span
	// THEN:  May 31 - Jun 2 conflicts (buffer-to-buffer contact), while
	//        Jun 7 - Jun 10 clears - its blocked span starts Jun 6, one
	//        day past the booking's core end.

	e := kayakEngine(seedKayak())
	ctx := context.Background()

	busy, err := e.CheckAvailability(ctx, "kayak", date(2025, time.May, 31), date(2025, time.June, 2))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if busy.Available {
		t.Error("May 31 - Jun 2 should conflict via buffers")
	}
	if !reflect.DeepEqual(busy.ConflictedUnitIDs, unitIDs("kayak-1")) {
		t.Errorf("conflicted = %v, want [kayak-1]", busy.ConflictedUnitIDs)
	}

	free, err := e.CheckAvailability(ctx, "kayak", date(2025, time.June, 7), date(2025, time.June, 10))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !free.Available {
		t.Error("Jun 7 - Jun 10 should be available")
	}
	if !free.BlockedStart.Equal(date(2025, time.June, 6)) || !free.BlockedEnd.Equal(date(2025, time.June, 11)) {
		t.Errorf("blocked span = [%s, %s], want [2025-06-06, 2025-06-11]", free.BlockedStart, free.BlockedEnd)
	}
}

func TestCheckAvailability_IsIdempotent(t *testing.T) {
	// Repeated calls against an unchanged snapshot return identical
	// results - the check never mutates anything.

	e := kayakEngine(seedKayak())
	ctx := context.Background()

	first, err := e.CheckAvailability(ctx, "kayak", date(2025, time.June, 7), date(2025, time.June, 10))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := e.CheckAvailability(ctx, "kayak", date(2025, time.June, 7), date(2025, time.June, 10))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("results differ:\nfirst  %+v\nsecond %+v", first, second)
	}
}

func TestCheckAvailability_MaintenanceExcludesUnit(t *testing.T) {
	mem := seedKayak()
	mem.SaveStockUnit(engine.StockUnit{
		ID:              "kayak-2",
		ProductID:       "kayak",
		Label:           "Kayak #2",
		UnavailableFrom: datePtr(date(2025, time.June, 8)),
	})
	e := kayakEngine(mem)

	// kayak-1 is free Jun 7-10 but kayak-2 is in open-ended maintenance.
	avail, err := e.CheckAvailability(context.Background(), "kayak", date(2025, time.June, 7), date(2025, time.June, 10))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(avail.AvailableUnitIDs, unitIDs("kayak-1")) {
		t.Errorf("available = %v, want [kayak-1]", avail.AvailableUnitIDs)
	}
	if len(avail.ConflictedUnitIDs) != 0 {
		t.Errorf("maintenance units must not be reported as conflicted: %v", avail.ConflictedUnitIDs)
	}
}

func TestCheckAvailability_ZeroUnitsIsUnavailableNotAnError(t *testing.T) {
	mem := store.NewMemory()
	mem.SaveProduct(engine.Product{ID: "kayak", BaseDailyRate: 4500})
	e := kayakEngine(mem)

	avail, err := e.CheckAvailability(context.Background(), "kayak", date(2025, time.June, 7), date(2025, time.June, 10))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if avail.Available {
		t.Error("a product with no units must never be available")
	}
	if len(avail.AvailableUnitIDs) != 0 || len(avail.ConflictedUnitIDs) != 0 {
		t.Errorf("want empty unit slices, got %v / %v", avail.AvailableUnitIDs, avail.ConflictedUnitIDs)
	}
}

func TestCheckAvailability_ErrorCases(t *testing.T) {
	e := kayakEngine(seedKayak())
	ctx := context.Background()

	if _, err := e.CheckAvailability(ctx, "gone", date(2025, time.June, 7), date(2025, time.June, 10)); !errors.Is(err, engine.ErrProductNotFound) {
		t.Errorf("unknown product: err = %v, want ErrProductNotFound", err)
	}
	if _, err := e.CheckAvailability(ctx, "kayak", date(2025, time.June, 10), date(2025, time.June, 7)); !errors.Is(err, engine.ErrInvalidRange) {
		t.Errorf("inverted range: err = %v, want ErrInvalidRange", err)
	}
}

func TestCheckAvailability_SourceFailurePropagates(t *testing.T) {
	// A failing source must surface as an error, never as "no units free".

	cause := errors.New("connection reset")
	e := engine.New(&failingSource{bookingsErr: cause}, engine.DefaultConfig())

	_, err := e.CheckAvailability(context.Background(), "kayak", date(2025, time.June, 7), date(2025, time.June, 10))
	if !errors.Is(err, cause) {
		t.Errorf("err = %v, want wrapped %v", err, cause)
	}
}

// failingSource serves one product and unit but fails on bookings.
type failingSource struct {
	bookingsErr error
}

func (f *failingSource) Product(context.Context, engine.ProductID) (*engine.Product, error) {
	return &engine.Product{ID: "kayak", BaseDailyRate: 4500}, nil
}

func (f *failingSource) StockUnits(context.Context, engine.ProductID) ([]engine.StockUnit, error) {
	return []engine.StockUnit{{ID: "kayak-1", ProductID: "kayak"}}, nil
}

func (f *failingSource) Bookings(context.Context, engine.ProductID, engine.BookingFilter) ([]engine.Booking, error) {
	return nil, fmt.Errorf("querying bookings: %w", f.bookingsErr)
}

func (f *failingSource) PricingTiers(context.Context, engine.ProductID) ([]engine.PricingTier, error) {
	return nil, nil
}

// =============================================================================
// QUOTE FACADE
// =============================================================================

func TestQuote_UsesProductRateDepositAndTiers(t *testing.T) {
	mem := seedKayak()
	mem.SavePricingTiers("kayak", []engine.PricingTier{
		tier(1, "1", "day"),
		tier(3, "2.7", "short"),
	})
	e := kayakEngine(mem)

	quote, err := e.Quote(context.Background(), "kayak", date(2025, time.June, 7), date(2025, time.June, 10))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if quote.Days != 3 {
		t.Errorf("days = %d, want 3", quote.Days)
	}
	// round(4500 * 2.7) = 12150, plus the 10000 deposit.
	if quote.RentalSubtotal != 12150 {
		t.Errorf("subtotal = %d, want 12150", quote.RentalSubtotal)
	}
	if quote.Total != 22150 {
		t.Errorf("total = %d, want 22150", quote.Total)
	}
	if !quote.TierMatched || quote.TierLabel != "short" {
		t.Errorf("tier = %v/%q, want matched short", quote.TierMatched, quote.TierLabel)
	}
}

func TestQuote_ErrorCases(t *testing.T) {
	e := kayakEngine(seedKayak())
	ctx := context.Background()

	if _, err := e.Quote(ctx, "gone", date(2025, time.June, 7), date(2025, time.June, 10)); !errors.Is(err, engine.ErrProductNotFound) {
		t.Errorf("unknown product: err = %v, want ErrProductNotFound", err)
	}
	if _, err := e.Quote(ctx, "kayak", date(2025, time.June, 7), date(2025, time.June, 7)); !errors.Is(err, engine.ErrInvalidRange) {
		t.Errorf("zero-length range: err = %v, want ErrInvalidRange", err)
	}
}

// =============================================================================
// CALENDAR FACADE
// =============================================================================

func TestCalendar_ReflectsBookingAndBuffers(t *testing.T) {
	e := kayakEngine(seedKayak())

	days, err := e.Calendar(context.Background(), "kayak", date(2025, time.May, 30), date(2025, time.June, 7))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(days) != 9 {
		t.Fatalf("len = %d, want 9", len(days))
	}

	want := map[string]engine.DayStatus{
		"2025-05-30": engine.DayFree,
		"2025-05-31": engine.DayBufferOnly,
		"2025-06-01": engine.DayFullyBooked,
		"2025-06-05": engine.DayFullyBooked,
		"2025-06-06": engine.DayBufferOnly,
		"2025-06-07": engine.DayFree,
	}
	for _, day := range days {
		if status, ok := want[day.Date.String()]; ok && day.Status != status {
			t.Errorf("%s: status = %s, want %s", day.Date, day.Status, status)
		}
	}
}

func TestCalendar_SingleDayWindowAllowed(t *testing.T) {
	e := kayakEngine(seedKayak())

	days, err := e.Calendar(context.Background(), "kayak", date(2025, time.June, 3), date(2025, time.June, 3))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(days) != 1 || days[0].Status != engine.DayFullyBooked {
		t.Errorf("days = %+v, want one fully_booked day", days)
	}
}

func TestCalendar_RejectsInvertedWindow(t *testing.T) {
	e := kayakEngine(seedKayak())

	_, err := e.Calendar(context.Background(), "kayak", date(2025, time.June, 5), date(2025, time.June, 3))
	if !errors.Is(err, engine.ErrInvalidRange) {
		t.Errorf("err = %v, want ErrInvalidRange", err)
	}
}

// =============================================================================
// WRITE-TIME CLAIM (memory source)
// =============================================================================

func TestMemoryCreateBooking_RejectsOverlapOnSameUnit(t *testing.T) {
	// GIVEN: two callers both saw kayak-1 free for Jun 7-10
	// WHEN:  both try to claim it
	// THEN:  the second claim fails with ErrUnitConflict.

	mem := seedKayak()
	ctx := context.Background()

	first := kayakBooking("bk-2", "kayak-1", date(2025, time.June, 7), date(2025, time.June, 10))
	if err := mem.CreateBooking(ctx, first); err != nil {
		t.Fatalf("first claim failed: %v", err)
	}

	second := kayakBooking("bk-3", "kayak-1", date(2025, time.June, 9), date(2025, time.June, 12))
	err := mem.CreateBooking(ctx, second)
	if !errors.Is(err, engine.ErrUnitConflict) {
		t.Fatalf("second claim: err = %v, want ErrUnitConflict", err)
	}

	var conflict *engine.UnitConflictError
	if !errors.As(err, &conflict) || conflict.StockUnitID != "kayak-1" {
		t.Errorf("conflict detail = %+v, want kayak-1", conflict)
	}
}

func TestMemoryCreateBooking_CancelledBookingDoesNotClaim(t *testing.T) {
	mem := seedKayak()
	ctx := context.Background()

	if err := mem.SetBookingStatus(ctx, "bk-1", engine.StatusCancelled); err != nil {
		t.Fatalf("status update failed: %v", err)
	}

	retry := kayakBooking("bk-2", "kayak-1", date(2025, time.June, 2), date(2025, time.June, 4))
	if err := mem.CreateBooking(ctx, retry); err != nil {
		t.Errorf("claim over a cancelled booking failed: %v", err)
	}
}
