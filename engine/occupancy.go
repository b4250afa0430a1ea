/*
occupancy.go - Per-day occupancy map for calendar rendering

PURPOSE:
  Classify every calendar day touched by any booking (or its buffer) so a
  UI can gray dates out. This is NOT the per-range availability check and
  must never be used as one: the calendar wants "is anything left at all"
  per day, the booking flow wants "is one unit free for this whole span".
  Earlier revisions computed per-day blocking independently in the
  storefront widget and the admin order screen with subtly different
  buffer handling; this builder is the single shared implementation.

CLASSIFICATION:
  A day is fully booked iff the count of DISTINCT occupied units
  (buffer-inclusive) reaches the product's total unit count. Within that,
  if the core-occupied count alone does not reach the total, the blockage
  comes only from buffer extensions and the day is reported buffer-only.
  Every other day is free - even when some units are occupied, a
  multi-unit product must never show a day as blocked while a free unit
  remains. Raw per-day counts are exposed so UIs can still render
  partially buffered days differently.
*/
package engine

import "sort"

// =============================================================================
// DAY STATUS
// =============================================================================

type DayStatus string

const (
	DayFree        DayStatus = "free"
	DayBufferOnly  DayStatus = "buffer_only"
	DayFullyBooked DayStatus = "fully_booked"
)

// DayOccupancy is the occupancy of a single calendar day.
type DayOccupancy struct {
	Date Date

	// Distinct units whose core rental span covers the day.
	CoreUnits int
	// Distinct units whose buffer-extended span covers the day.
	// Core occupation implies occupation, so OccupiedUnits >= CoreUnits.
	OccupiedUnits int

	Status DayStatus
}

// =============================================================================
// OCCUPANCY MAP BUILDER
// =============================================================================

// OccupancyMap aggregates distinct-unit occupancy per calendar day across
// ALL of a product's blocking bookings.
type OccupancyMap struct {
	totalUnits int
	days       map[Date]*dayUnits
}

type dayUnits struct {
	core     map[StockUnitID]struct{}
	occupied map[StockUnitID]struct{}
}

// BuildOccupancyMap walks every blocking booking: each day of the core span
// marks the booking's unit core-occupied, each day of the buffer-extended
// span marks it occupied. Bookings outside the blocking set or without an
// assigned unit contribute nothing. Buffers come from the product's current
// settings, the same resolution the availability check uses.
func BuildOccupancyMap(bookings []Booking, buffers BufferDays, blocking StatusSet, totalUnits int) *OccupancyMap {
	m := &OccupancyMap{
		totalUnits: totalUnits,
		days:       make(map[Date]*dayUnits),
	}

	for _, b := range bookings {
		if !b.Blocks(blocking) || b.StockUnitID == nil {
			continue
		}
		unit := *b.StockUnitID

		b.Range.EachDay(func(d Date) {
			m.day(d).core[unit] = struct{}{}
		})
		b.Range.ExpandBy(buffers).EachDay(func(d Date) {
			m.day(d).occupied[unit] = struct{}{}
		})
	}

	return m
}

func (m *OccupancyMap) day(d Date) *dayUnits {
	du, ok := m.days[d]
	if !ok {
		du = &dayUnits{
			core:     make(map[StockUnitID]struct{}),
			occupied: make(map[StockUnitID]struct{}),
		}
		m.days[d] = du
	}
	return du
}

// TotalUnits returns the unit count the classification is relative to.
func (m *OccupancyMap) TotalUnits() int { return m.totalUnits }

// Day returns the occupancy of a single day. Days never touched by any
// booking carry zero counts.
func (m *OccupancyMap) Day(d Date) DayOccupancy {
	occ := DayOccupancy{Date: d}
	if du, ok := m.days[d]; ok {
		occ.CoreUnits = len(du.core)
		occ.OccupiedUnits = len(du.occupied)
	}
	occ.Status = m.classify(occ)
	return occ
}

func (m *OccupancyMap) classify(occ DayOccupancy) DayStatus {
	if m.totalUnits <= 0 {
		// A product with no units has nothing to rent; every touched day
		// reads as fully booked, matching the availability check.
		return DayFullyBooked
	}
	if occ.OccupiedUnits < m.totalUnits {
		return DayFree
	}
	if occ.CoreUnits >= m.totalUnits {
		return DayFullyBooked
	}
	return DayBufferOnly
}

// Days returns the occupancy of every day in [from, to], bounds included,
// in ascending order.
func (m *OccupancyMap) Days(from, to Date) []DayOccupancy {
	var out []DayOccupancy
	for d := from; d.BeforeOrEqual(to); d = d.AddDays(1) {
		out = append(out, m.Day(d))
	}
	return out
}

// TouchedDays returns every day that carries any occupancy, ascending.
func (m *OccupancyMap) TouchedDays() []Date {
	out := make([]Date, 0, len(m.days))
	for d := range m.days {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}
