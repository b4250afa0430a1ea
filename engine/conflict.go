/*
conflict.go - Booking conflict resolution for a single candidate range

PURPOSE:
  Given the buffer-expanded blocked range, the units surviving the
  maintenance filter, and the product's bookings, decide which units are
  free for the whole span.

OVERLAP SEMANTICS:
  A booking conflicts when its OWN core range overlaps the candidate's
  blocked range (inclusive on both ends):

      booking.Start <= blockedEnd  AND  booking.End >= blockedStart

  The booking's buffer is never consulted here: the buffer has already been
  folded into the candidate's blocked range, and both reservations share
  the same product-level buffer settings, so expanding one side covers the
  gap between them.

SEE ALSO:
  - occupancy.go: the per-day calendar view, intentionally a different
    computation (see the note there)
*/
package engine

import "sort"

// ResolveConflicts partitions the surviving units into available and
// conflicted sets for the blocked range. Bookings outside the blocking
// status set, and bookings with no unit assigned yet, mark nothing.
// Both result slices are sorted for deterministic output.
//
// Zero surviving units yields an explicit empty result, not an error.
func ResolveConflicts(blocked DateRange, units []StockUnit, bookings []Booking, blocking StatusSet) (available, conflicted []StockUnitID) {
	conflictedSet := make(map[StockUnitID]struct{})
	for _, b := range bookings {
		if !b.Blocks(blocking) || b.StockUnitID == nil {
			continue
		}
		if b.Range.Overlaps(blocked) {
			conflictedSet[*b.StockUnitID] = struct{}{}
		}
	}

	available = make([]StockUnitID, 0, len(units))
	conflicted = make([]StockUnitID, 0, len(conflictedSet))
	for _, u := range units {
		if _, ok := conflictedSet[u.ID]; ok {
			conflicted = append(conflicted, u.ID)
		} else {
			available = append(available, u.ID)
		}
	}

	sortUnitIDs(available)
	sortUnitIDs(conflicted)
	return available, conflicted
}

func sortUnitIDs(ids []StockUnitID) {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
}
