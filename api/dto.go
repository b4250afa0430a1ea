/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  JSON structures for the API, decoupled from the engine's domain types.
  Dates travel as YYYY-MM-DD strings, money as integer minor currency
  units, multipliers as decimal strings.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Validation happens in handlers, not in DTOs. DTOs are pure data carriers.
*/
package api

import (
	"github.com/orbitrent/availability-engine/engine"
)

// =============================================================================
// REQUEST/RESPONSE TYPES
// =============================================================================

// ProductDTO represents a product in API responses.
type ProductDTO struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	BaseDailyRate    int64  `json:"base_daily_rate"`
	DepositAmount    int64  `json:"deposit_amount"`
	BufferBeforeDays *int   `json:"buffer_before_days,omitempty"`
	BufferAfterDays  *int   `json:"buffer_after_days,omitempty"`
}

// SaveProductRequest creates or updates a product.
type SaveProductRequest struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	BaseDailyRate    int64  `json:"base_daily_rate"`
	DepositAmount    int64  `json:"deposit_amount"`
	BufferBeforeDays *int   `json:"buffer_before_days,omitempty"`
	BufferAfterDays  *int   `json:"buffer_after_days,omitempty"`
}

// StockUnitDTO represents a physical unit.
type StockUnitDTO struct {
	ID              string  `json:"id"`
	ProductID       string  `json:"product_id"`
	Label           string  `json:"label,omitempty"`
	UnavailableFrom *string `json:"unavailable_from,omitempty"`
	UnavailableTo   *string `json:"unavailable_to,omitempty"`
}

// SaveStockUnitRequest creates or updates a unit, including its
// maintenance blackout window.
type SaveStockUnitRequest struct {
	ID              string  `json:"id,omitempty"`
	Label           string  `json:"label,omitempty"`
	UnavailableFrom *string `json:"unavailable_from,omitempty"`
	UnavailableTo   *string `json:"unavailable_to,omitempty"`
}

// PricingTierDTO represents one tier bracket. Multiplier is a decimal
// string to avoid float drift in transit.
type PricingTierDTO struct {
	TierDays   int    `json:"tier_days"`
	Multiplier string `json:"multiplier"`
	Label      string `json:"label,omitempty"`
}

// ReplaceTiersRequest swaps a product's whole tier table.
type ReplaceTiersRequest struct {
	Tiers []PricingTierDTO `json:"tiers"`
}

// AvailabilityDTO is the result of an availability check.
type AvailabilityDTO struct {
	ProductID         string   `json:"product_id"`
	Start             string   `json:"start"`
	End               string   `json:"end"`
	BlockedStart      string   `json:"blocked_start"`
	BlockedEnd        string   `json:"blocked_end"`
	Available         bool     `json:"available"`
	AvailableUnitIDs  []string `json:"available_unit_ids"`
	ConflictedUnitIDs []string `json:"conflicted_unit_ids"`
}

// QuoteDTO is a price quote. Amounts are minor currency units.
type QuoteDTO struct {
	Days               int    `json:"days"`
	EffectiveDailyRate int64  `json:"effective_daily_rate"`
	RentalSubtotal     int64  `json:"rental_subtotal"`
	Deposit            int64  `json:"deposit"`
	Total              int64  `json:"total"`
	TierMatched        bool   `json:"tier_matched"`
	TierLabel          string `json:"tier_label,omitempty"`
}

// CalendarDayDTO is one day of the occupancy calendar.
type CalendarDayDTO struct {
	Date          string `json:"date"`
	Status        string `json:"status"`
	CoreUnits     int    `json:"core_units"`
	OccupiedUnits int    `json:"occupied_units"`
}

// BookingDTO represents a reservation.
type BookingDTO struct {
	ID          string  `json:"id"`
	ProductID   string  `json:"product_id"`
	StockUnitID *string `json:"stock_unit_id,omitempty"`
	Start       string  `json:"start"`
	End         string  `json:"end"`
	Status      string  `json:"status"`
}

// CreateBookingRequest submits a reservation. The server re-checks
// availability, picks the first free unit and claims it transactionally.
type CreateBookingRequest struct {
	ProductID string `json:"product_id"`
	Start     string `json:"start"`
	End       string `json:"end"`
	Status    string `json:"status,omitempty"` // defaults to pending
}

// CreateBookingResponse returns the persisted booking plus the quote the
// caller should charge against.
type CreateBookingResponse struct {
	Booking BookingDTO `json:"booking"`
	Quote   QuoteDTO   `json:"quote"`
}

// SetStatusRequest transitions a booking's order status.
type SetStatusRequest struct {
	Status string `json:"status"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toProductDTO(p engine.Product) ProductDTO {
	return ProductDTO{
		ID:               string(p.ID),
		Name:             p.Name,
		BaseDailyRate:    p.BaseDailyRate,
		DepositAmount:    p.DepositAmount,
		BufferBeforeDays: p.BufferBeforeDays,
		BufferAfterDays:  p.BufferAfterDays,
	}
}

func toStockUnitDTO(u engine.StockUnit) StockUnitDTO {
	return StockUnitDTO{
		ID:              string(u.ID),
		ProductID:       string(u.ProductID),
		Label:           u.Label,
		UnavailableFrom: dateStr(u.UnavailableFrom),
		UnavailableTo:   dateStr(u.UnavailableTo),
	}
}

func toAvailabilityDTO(a *engine.Availability) AvailabilityDTO {
	return AvailabilityDTO{
		ProductID:         string(a.ProductID),
		Start:             a.Range.Start.String(),
		End:               a.Range.End.String(),
		BlockedStart:      a.BlockedStart.String(),
		BlockedEnd:        a.BlockedEnd.String(),
		Available:         a.Available,
		AvailableUnitIDs:  unitIDStrings(a.AvailableUnitIDs),
		ConflictedUnitIDs: unitIDStrings(a.ConflictedUnitIDs),
	}
}

func toQuoteDTO(q *engine.Quote) QuoteDTO {
	return QuoteDTO{
		Days:               q.Days,
		EffectiveDailyRate: q.EffectiveDailyRate,
		RentalSubtotal:     q.RentalSubtotal,
		Deposit:            q.Deposit,
		Total:              q.Total,
		TierMatched:        q.TierMatched,
		TierLabel:          q.TierLabel,
	}
}

func toBookingDTO(b engine.Booking) BookingDTO {
	dto := BookingDTO{
		ID:        string(b.ID),
		ProductID: string(b.ProductID),
		Start:     b.Range.Start.String(),
		End:       b.Range.End.String(),
		Status:    string(b.Status),
	}
	if b.StockUnitID != nil {
		s := string(*b.StockUnitID)
		dto.StockUnitID = &s
	}
	return dto
}

func toCalendarDayDTO(d engine.DayOccupancy) CalendarDayDTO {
	return CalendarDayDTO{
		Date:          d.Date.String(),
		Status:        string(d.Status),
		CoreUnits:     d.CoreUnits,
		OccupiedUnits: d.OccupiedUnits,
	}
}

func unitIDStrings(ids []engine.StockUnitID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	return out
}

func dateStr(d *engine.Date) *string {
	if d == nil {
		return nil
	}
	s := d.String()
	return &s
}
