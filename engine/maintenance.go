package engine

// =============================================================================
// UNIT AVAILABILITY FILTER - Maintenance blackouts
// =============================================================================

// InMaintenance reports whether the unit's blackout window excludes it from
// the candidate range. The test runs against the CANDIDATE range, not the
// buffer-expanded blocked range: a maintenance blackout is a hard exclusion
// independent of logistics buffers.
//
// Bound semantics:
//   - neither bound set: the unit is never excluded by maintenance
//   - both set:          standard inclusive interval overlap
//   - only From set:     unavailable from that date onward, unbounded
//   - only To set:       unavailable up through that date, unbounded backward
func (u StockUnit) InMaintenance(candidate DateRange) bool {
	from, to := u.UnavailableFrom, u.UnavailableTo
	switch {
	case from == nil && to == nil:
		return false
	case from != nil && to != nil:
		return candidate.Start.BeforeOrEqual(*to) && candidate.End.AfterOrEqual(*from)
	case from != nil:
		return candidate.End.AfterOrEqual(*from)
	default:
		return candidate.Start.BeforeOrEqual(*to)
	}
}

// FilterMaintenance removes units whose blackout window overlaps the
// candidate range. Runs once per availability check, before conflict
// resolution.
func FilterMaintenance(units []StockUnit, candidate DateRange) []StockUnit {
	surviving := make([]StockUnit, 0, len(units))
	for _, u := range units {
		if !u.InMaintenance(candidate) {
			surviving = append(surviving, u)
		}
	}
	return surviving
}
