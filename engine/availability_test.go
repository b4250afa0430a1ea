package engine_test

import (
	"reflect"
	"testing"
	"time"

	"github.com/orbitrent/availability-engine/engine"
)

func intPtr(n int) *int { return &n }

func datePtr(d engine.Date) *engine.Date { return &d }

func unitPtr(id string) *engine.StockUnitID {
	u := engine.StockUnitID(id)
	return &u
}

func blockingBooking(id, unitID string, start, end engine.Date) engine.Booking {
	return engine.Booking{
		ID:          engine.BookingID(id),
		ProductID:   "prod-1",
		StockUnitID: unitPtr(unitID),
		Range:       rng(start, end),
		Status:      engine.StatusPaid,
	}
}

// =============================================================================
// BUFFER RESOLVER
// =============================================================================

func TestBuffers_ProductOverridesFallBackPerSide(t *testing.T) {
	cases := []struct {
		name    string
		product engine.Product
		def     int
		want    engine.BufferDays
	}{
		{"no overrides", engine.Product{}, 2, engine.BufferDays{Before: 2, After: 2}},
		{"both overridden", engine.Product{BufferBeforeDays: intPtr(3), BufferAfterDays: intPtr(0)}, 2, engine.BufferDays{Before: 3, After: 0}},
		{"only before", engine.Product{BufferBeforeDays: intPtr(5)}, 1, engine.BufferDays{Before: 5, After: 1}},
		{"explicit zero respected", engine.Product{BufferBeforeDays: intPtr(0), BufferAfterDays: intPtr(0)}, 4, engine.BufferDays{Before: 0, After: 0}},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := c.product.Buffers(c.def); got != c.want {
				t.Errorf("Buffers(%d) = %+v, want %+v", c.def, got, c.want)
			}
		})
	}
}

func TestExpandBy_WidensBothSides(t *testing.T) {
	core := rng(date(2025, time.June, 10), date(2025, time.June, 15))
	blocked := core.ExpandBy(engine.BufferDays{Before: 2, After: 3})

	if !blocked.Start.Equal(date(2025, time.June, 8)) {
		t.Errorf("blocked start = %s, want 2025-06-08", blocked.Start)
	}
	if !blocked.End.Equal(date(2025, time.June, 18)) {
		t.Errorf("blocked end = %s, want 2025-06-18", blocked.End)
	}

	// Zero buffers are legitimate and change nothing.
	if got := core.ExpandBy(engine.BufferDays{}); got != core {
		t.Errorf("zero-buffer expansion = %s, want %s", got, core)
	}
}

// =============================================================================
// UNIT AVAILABILITY FILTER (maintenance blackouts)
// =============================================================================

func TestInMaintenance_BoundCombinations(t *testing.T) {
	candidate := rng(date(2025, time.June, 10), date(2025, time.June, 15))

	cases := []struct {
		name string
		from *engine.Date
		to   *engine.Date
		want bool
	}{
		{"no bounds: never excluded", nil, nil, false},
		{"both bounds, overlapping", datePtr(date(2025, time.June, 14)), datePtr(date(2025, time.June, 20)), true},
		{"both bounds, disjoint", datePtr(date(2025, time.July, 1)), datePtr(date(2025, time.July, 10)), false},
		{"both bounds, touching candidate end", datePtr(date(2025, time.June, 15)), datePtr(date(2025, time.June, 30)), true},
		{"open-ended forward, starts during candidate", datePtr(date(2025, time.June, 12)), nil, true},
		{"open-ended forward, starts after candidate", datePtr(date(2025, time.June, 16)), nil, false},
		{"open-ended backward, ends during candidate", nil, datePtr(date(2025, time.June, 10)), true},
		{"open-ended backward, ends before candidate", nil, datePtr(date(2025, time.June, 9)), false},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			unit := engine.StockUnit{ID: "unit-1", ProductID: "prod-1", UnavailableFrom: c.from, UnavailableTo: c.to}
			if got := unit.InMaintenance(candidate); got != c.want {
				t.Errorf("InMaintenance = %v, want %v", got, c.want)
			}
		})
	}
}

func TestFilterMaintenance_ChecksCandidateNotBlockedRange(t *testing.T) {
	// GIVEN: A unit whose blackout sits just before the candidate range,
	//        inside what would be the buffer-expanded span
	// WHEN:  Filtering on the candidate range
	// THEN:  The unit survives - maintenance is independent of buffers

	candidate := rng(date(2025, time.June, 10), date(2025, time.June, 15))
	unit := engine.StockUnit{
		ID:              "unit-1",
		ProductID:       "prod-1",
		UnavailableFrom: datePtr(date(2025, time.June, 7)),
		UnavailableTo:   datePtr(date(2025, time.June, 9)),
	}

	surviving := engine.FilterMaintenance([]engine.StockUnit{unit}, candidate)
	if len(surviving) != 1 {
		t.Fatalf("expected unit to survive, got %d survivors", len(surviving))
	}
}

// =============================================================================
// BOOKING CONFLICT RESOLVER
// =============================================================================

func TestResolveConflicts_PartitionsUnits(t *testing.T) {
	// GIVEN: Three units, one booking on unit-b overlapping the blocked range
	// WHEN:  Resolving conflicts
	// THEN:  unit-a and unit-c are available, unit-b is conflicted

	blocked := rng(date(2025, time.June, 9), date(2025, time.June, 16))
	units := []engine.StockUnit{
		{ID: "unit-a", ProductID: "prod-1"},
		{ID: "unit-b", ProductID: "prod-1"},
		{ID: "unit-c", ProductID: "prod-1"},
	}
	bookings := []engine.Booking{
		blockingBooking("bk-1", "unit-b", date(2025, time.June, 14), date(2025, time.June, 20)),
	}

	available, conflicted := engine.ResolveConflicts(blocked, units, bookings, engine.DefaultBlockingStatuses())

	if !reflect.DeepEqual(available, unitIDs("unit-a", "unit-c")) {
		t.Errorf("available = %v, want [unit-a unit-c]", available)
	}
	if !reflect.DeepEqual(conflicted, unitIDs("unit-b")) {
		t.Errorf("conflicted = %v, want [unit-b]", conflicted)
	}
}

func TestResolveConflicts_NonBlockingStatusesIgnored(t *testing.T) {
	// Cancelled and refunded bookings never block a unit.

	blocked := rng(date(2025, time.June, 1), date(2025, time.June, 10))
	units := []engine.StockUnit{{ID: "unit-a", ProductID: "prod-1"}}

	for _, status := range []engine.OrderStatus{engine.StatusCancelled, engine.StatusRefunded} {
		booking := blockingBooking("bk-1", "unit-a", date(2025, time.June, 2), date(2025, time.June, 4))
		booking.Status = status

		available, conflicted := engine.ResolveConflicts(blocked, units, []engine.Booking{booking}, engine.DefaultBlockingStatuses())
		if len(available) != 1 || len(conflicted) != 0 {
			t.Errorf("status %s: available=%v conflicted=%v, want the unit free", status, available, conflicted)
		}
	}
}

func TestResolveConflicts_UnassignedBookingMarksNothing(t *testing.T) {
	blocked := rng(date(2025, time.June, 1), date(2025, time.June, 10))
	units := []engine.StockUnit{{ID: "unit-a", ProductID: "prod-1"}}
	bookings := []engine.Booking{{
		ID:        "bk-1",
		ProductID: "prod-1",
		Range:     rng(date(2025, time.June, 2), date(2025, time.June, 4)),
		Status:    engine.StatusPaid,
	}}

	available, _ := engine.ResolveConflicts(blocked, units, bookings, engine.DefaultBlockingStatuses())
	if len(available) != 1 {
		t.Errorf("unassigned booking should not conflict any unit, available=%v", available)
	}
}

func TestResolveConflicts_ZeroUnitsIsEmptyResultNotError(t *testing.T) {
	blocked := rng(date(2025, time.June, 1), date(2025, time.June, 10))

	available, conflicted := engine.ResolveConflicts(blocked, nil, nil, engine.DefaultBlockingStatuses())
	if len(available) != 0 || len(conflicted) != 0 {
		t.Errorf("expected explicit empty result, got available=%v conflicted=%v", available, conflicted)
	}
}

func TestResolveConflicts_BufferMonotonicity(t *testing.T) {
	// Growing the buffer never increases the number of available units for
	// a fixed candidate range and booking set.

	candidate := rng(date(2025, time.June, 10), date(2025, time.June, 12))
	units := []engine.StockUnit{
		{ID: "unit-a", ProductID: "prod-1"},
		{ID: "unit-b", ProductID: "prod-1"},
	}
	bookings := []engine.Booking{
		blockingBooking("bk-1", "unit-a", date(2025, time.June, 14), date(2025, time.June, 16)),
		blockingBooking("bk-2", "unit-b", date(2025, time.June, 5), date(2025, time.June, 7)),
	}

	prev := len(units) + 1
	for buffer := 0; buffer <= 6; buffer++ {
		blocked := candidate.ExpandBy(engine.BufferDays{Before: buffer, After: buffer})
		available, _ := engine.ResolveConflicts(blocked, units, bookings, engine.DefaultBlockingStatuses())
		if len(available) > prev {
			t.Fatalf("buffer %d: available count %d grew past %d", buffer, len(available), prev)
		}
		prev = len(available)
	}
}
