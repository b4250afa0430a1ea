package engine

// =============================================================================
// BUFFER RESOLVER - Logistics days around a core rental span
// =============================================================================

// BufferDays are the logistics days reserved before and after a core rental
// span (shipping out, return inspection). During a buffer day the unit
// cannot be rented again even though no customer holds it.
type BufferDays struct {
	Before int
	After  int
}

// Buffers resolves the product's buffer configuration. Each side falls back
// to defaultDays independently when the product carries no override; an
// explicit zero is respected.
func (p Product) Buffers(defaultDays int) BufferDays {
	b := BufferDays{Before: defaultDays, After: defaultDays}
	if p.BufferBeforeDays != nil {
		b.Before = *p.BufferBeforeDays
	}
	if p.BufferAfterDays != nil {
		b.After = *p.BufferAfterDays
	}
	return b
}

// ExpandBy widens the core range into the blocked range:
// [Start - Before, End + After]. Pure arithmetic, no error conditions.
func (r DateRange) ExpandBy(b BufferDays) DateRange {
	return DateRange{
		Start: r.Start.AddDays(-b.Before),
		End:   r.End.AddDays(b.After),
	}
}
