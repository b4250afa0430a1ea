package engine

import (
	"fmt"
	"time"
)

// =============================================================================
// DATE - Whole-calendar-day value in a fixed zone (UTC)
// =============================================================================

// Date is a day-granularity point in time. All engine arithmetic happens on
// whole calendar days in UTC so that daylight-saving transitions can never
// skew a day count.
type Date struct {
	t time.Time
}

// NewDate builds a Date from calendar components.
func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates an arbitrary timestamp to its calendar day.
// The wall-clock date is kept as-is; no local time zone shift is applied.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD): %w", s, err)
	}
	return DateOf(t), nil
}

// Today returns the current calendar day.
func Today() Date {
	return DateOf(time.Now().UTC())
}

// Comparison
func (d Date) Before(other Date) bool        { return d.t.Before(other.t) }
func (d Date) After(other Date) bool         { return d.t.After(other.t) }
func (d Date) Equal(other Date) bool         { return d.t.Equal(other.t) }
func (d Date) BeforeOrEqual(other Date) bool { return !d.t.After(other.t) }
func (d Date) AfterOrEqual(other Date) bool  { return !d.t.Before(other.t) }
func (d Date) IsZero() bool                  { return d.t.IsZero() }

// AddDays returns the date n days later (n may be negative).
func (d Date) AddDays(n int) Date {
	return Date{t: d.t.AddDate(0, 0, n)}
}

// Time exposes the underlying midnight-UTC timestamp for persistence.
func (d Date) Time() time.Time { return d.t }

func (d Date) String() string { return d.t.Format("2006-01-02") }

// DaysBetween returns the whole number of days from 'from' to 'to';
// negative when 'to' precedes 'from'. Both values are already day-aligned,
// so the division is exact.
func DaysBetween(from, to Date) int {
	return int(to.t.Sub(from.t) / (24 * time.Hour))
}

// =============================================================================
// DATE RANGE - Inclusive [Start, End] span of calendar days
// =============================================================================

// DateRange is an inclusive span of calendar days. Every range accepted by a
// public operation must satisfy End > Start; candidates that do not fail with
// ErrInvalidRange at the facade.
type DateRange struct {
	Start Date
	End   Date
}

// NewDateRange validates End > Start and returns the range.
func NewDateRange(start, end Date) (DateRange, error) {
	if !end.After(start) {
		return DateRange{}, &InvalidRangeError{Start: start, End: end}
	}
	return DateRange{Start: start, End: end}, nil
}

// Days returns the day count of the range (End - Start).
func (r DateRange) Days() int {
	return DaysBetween(r.Start, r.End)
}

// Contains reports whether d falls inside the range, bounds included.
func (r DateRange) Contains(d Date) bool {
	return d.AfterOrEqual(r.Start) && d.BeforeOrEqual(r.End)
}

// Overlaps reports whether two inclusive ranges share at least one day.
func (r DateRange) Overlaps(other DateRange) bool {
	return r.Start.BeforeOrEqual(other.End) && r.End.AfterOrEqual(other.Start)
}

// EachDay calls fn for every day in the range, bounds included.
func (r DateRange) EachDay(fn func(Date)) {
	for d := r.Start; d.BeforeOrEqual(r.End); d = d.AddDays(1) {
		fn(d)
	}
}

func (r DateRange) String() string {
	return "[" + r.Start.String() + ", " + r.End.String() + "]"
}
