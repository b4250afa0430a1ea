/*
handlers.go - HTTP API handlers for the availability engine

PURPOSE:
  Thin HTTP shell over the engine and the SQLite store, standing in for
  the three internal callers of the engine: the storefront calendar, the
  checkout submission path and the admin manual-order form.

ENDPOINTS:
  Catalog:
    GET    /api/products                      List products
    POST   /api/products                      Create/update product
    GET    /api/products/{id}                 Get product
    GET    /api/products/{id}/units           List stock units
    POST   /api/products/{id}/units           Create/update stock unit
    GET    /api/products/{id}/tiers           Get tier table
    PUT    /api/products/{id}/tiers           Replace tier table

  Engine:
    GET    /api/products/{id}/availability    Check a candidate range
    GET    /api/products/{id}/quote           Price a candidate range
    GET    /api/products/{id}/calendar        Per-day occupancy view

  Bookings:
    GET    /api/bookings?product_id=          List bookings
    POST   /api/bookings                      Submit (re-check + claim)
    POST   /api/bookings/{id}/status          Transition order status

ERROR HANDLING:
  - 400: invalid input, including engine.ErrInvalidRange/ErrInvalidRate,
         mapped to a field-level validation message
  - 404: unknown product/booking
  - 409: unit claim conflict (lost the race to another booking)
  - 500: storage failures
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/orbitrent/availability-engine/engine"
	"github.com/orbitrent/availability-engine/store/sqlite"
)

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store  *sqlite.Store
	Engine *engine.Engine
}

// NewHandler wires the engine over the store with the given config.
func NewHandler(store *sqlite.Store, config engine.Config) *Handler {
	store.SetBlockingStatuses(config.BlockingStatuses)
	return &Handler{
		Store:  store,
		Engine: engine.New(store, config),
	}
}

// =============================================================================
// CATALOG HANDLERS
// =============================================================================

// ListProducts returns all products.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.Store.ListProducts(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list products", err)
		return
	}

	dtos := make([]ProductDTO, len(products))
	for i, p := range products {
		dtos[i] = toProductDTO(p)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetProduct returns a single product.
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id := engine.ProductID(chi.URLParam(r, "id"))

	p, err := h.Store.Product(r.Context(), id)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductDTO(*p))
}

// SaveProduct creates or updates a product.
func (h *Handler) SaveProduct(w http.ResponseWriter, r *http.Request) {
	var req SaveProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required", nil)
		return
	}
	if req.BaseDailyRate < 0 || req.DepositAmount < 0 {
		writeError(w, http.StatusBadRequest, "rate and deposit must be non-negative", nil)
		return
	}

	p := engine.Product{
		ID:               engine.ProductID(req.ID),
		Name:             req.Name,
		BaseDailyRate:    req.BaseDailyRate,
		DepositAmount:    req.DepositAmount,
		BufferBeforeDays: req.BufferBeforeDays,
		BufferAfterDays:  req.BufferAfterDays,
	}
	if p.ID == "" {
		p.ID = engine.ProductID(uuid.NewString())
	}

	if err := h.Store.SaveProduct(r.Context(), p); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save product", err)
		return
	}
	writeJSON(w, http.StatusCreated, toProductDTO(p))
}

// ListStockUnits returns a product's units.
func (h *Handler) ListStockUnits(w http.ResponseWriter, r *http.Request) {
	productID := engine.ProductID(chi.URLParam(r, "id"))

	units, err := h.Store.StockUnits(r.Context(), productID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list stock units", err)
		return
	}

	dtos := make([]StockUnitDTO, len(units))
	for i, u := range units {
		dtos[i] = toStockUnitDTO(u)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// SaveStockUnit creates or updates a unit under a product.
func (h *Handler) SaveStockUnit(w http.ResponseWriter, r *http.Request) {
	productID := engine.ProductID(chi.URLParam(r, "id"))

	var req SaveStockUnitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	u := engine.StockUnit{
		ID:        engine.StockUnitID(req.ID),
		ProductID: productID,
		Label:     req.Label,
	}
	if u.ID == "" {
		u.ID = engine.StockUnitID(uuid.NewString())
	}

	var err error
	if u.UnavailableFrom, err = parseOptionalDate(req.UnavailableFrom); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid unavailable_from", err)
		return
	}
	if u.UnavailableTo, err = parseOptionalDate(req.UnavailableTo); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid unavailable_to", err)
		return
	}

	if err := h.Store.SaveStockUnit(r.Context(), u); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save stock unit", err)
		return
	}
	writeJSON(w, http.StatusCreated, toStockUnitDTO(u))
}

// GetPricingTiers returns a product's tier table.
func (h *Handler) GetPricingTiers(w http.ResponseWriter, r *http.Request) {
	productID := engine.ProductID(chi.URLParam(r, "id"))

	tiers, err := h.Store.PricingTiers(r.Context(), productID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load pricing tiers", err)
		return
	}

	dtos := make([]PricingTierDTO, len(tiers))
	for i, t := range tiers {
		dtos[i] = PricingTierDTO{TierDays: t.TierDays, Multiplier: t.Multiplier.String(), Label: t.Label}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// ReplacePricingTiers swaps a product's tier table.
func (h *Handler) ReplacePricingTiers(w http.ResponseWriter, r *http.Request) {
	productID := engine.ProductID(chi.URLParam(r, "id"))

	var req ReplaceTiersRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	tiers := make([]engine.PricingTier, len(req.Tiers))
	for i, t := range req.Tiers {
		if t.TierDays < 1 {
			writeError(w, http.StatusBadRequest, "tier_days must be >= 1", nil)
			return
		}
		mult, err := decimal.NewFromString(t.Multiplier)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid multiplier (want a decimal string)", err)
			return
		}
		tiers[i] = engine.PricingTier{TierDays: t.TierDays, Multiplier: mult, Label: t.Label}
	}

	if err := h.Store.ReplacePricingTiers(r.Context(), productID, tiers); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to replace pricing tiers", err)
		return
	}
	writeJSON(w, http.StatusOK, req.Tiers)
}

// =============================================================================
// ENGINE HANDLERS
// =============================================================================

// CheckAvailability runs the per-range availability check.
// GET /api/products/{id}/availability?start=YYYY-MM-DD&end=YYYY-MM-DD
func (h *Handler) CheckAvailability(w http.ResponseWriter, r *http.Request) {
	productID := engine.ProductID(chi.URLParam(r, "id"))

	start, end, ok := dateRangeParams(w, r, "start", "end")
	if !ok {
		return
	}

	result, err := h.Engine.CheckAvailability(r.Context(), productID, start, end)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAvailabilityDTO(result))
}

// GetQuote prices a candidate range.
// GET /api/products/{id}/quote?start=YYYY-MM-DD&end=YYYY-MM-DD
func (h *Handler) GetQuote(w http.ResponseWriter, r *http.Request) {
	productID := engine.ProductID(chi.URLParam(r, "id"))

	start, end, ok := dateRangeParams(w, r, "start", "end")
	if !ok {
		return
	}

	quote, err := h.Engine.Quote(r.Context(), productID, start, end)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toQuoteDTO(quote))
}

// GetCalendar returns the advisory per-day occupancy view.
// GET /api/products/{id}/calendar?from=YYYY-MM-DD&to=YYYY-MM-DD
func (h *Handler) GetCalendar(w http.ResponseWriter, r *http.Request) {
	productID := engine.ProductID(chi.URLParam(r, "id"))

	from, to, ok := dateRangeParams(w, r, "from", "to")
	if !ok {
		return
	}

	days, err := h.Engine.Calendar(r.Context(), productID, from, to)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	dtos := make([]CalendarDayDTO, len(days))
	for i, d := range days {
		dtos[i] = toCalendarDayDTO(d)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// BOOKING HANDLERS
// =============================================================================

// ListBookings returns bookings for a product.
// GET /api/bookings?product_id=...
func (h *Handler) ListBookings(w http.ResponseWriter, r *http.Request) {
	productID := engine.ProductID(r.URL.Query().Get("product_id"))
	if productID == "" {
		writeError(w, http.StatusBadRequest, "product_id query parameter is required", nil)
		return
	}

	bookings, err := h.Store.Bookings(r.Context(), productID, engine.BookingFilter{})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list bookings", err)
		return
	}

	dtos := make([]BookingDTO, len(bookings))
	for i, b := range bookings {
		dtos[i] = toBookingDTO(b)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateBooking is the checkout submission path: it re-checks availability
// against fresh data (defense against stale client state), picks the first
// available unit, prices the stay and claims the unit transactionally. A
// lost race surfaces as 409.
func (h *Handler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	var req CreateBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	start, err := engine.ParseDate(req.Start)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid start date", err)
		return
	}
	end, err := engine.ParseDate(req.End)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid end date", err)
		return
	}

	status := engine.OrderStatus(req.Status)
	if status == "" {
		status = engine.StatusPending
	}

	ctx := r.Context()
	productID := engine.ProductID(req.ProductID)

	availability, err := h.Engine.CheckAvailability(ctx, productID, start, end)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	if !availability.Available {
		writeError(w, http.StatusConflict, "No stock unit available for the requested range", nil)
		return
	}

	quote, err := h.Engine.Quote(ctx, productID, start, end)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	// First-available selection policy.
	unitID := availability.AvailableUnitIDs[0]
	booking := engine.Booking{
		ID:          engine.BookingID(uuid.NewString()),
		ProductID:   productID,
		StockUnitID: &unitID,
		Range:       engine.DateRange{Start: start, End: end},
		Status:      status,
	}

	if err := h.Store.CreateBooking(ctx, booking); err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, CreateBookingResponse{
		Booking: toBookingDTO(booking),
		Quote:   toQuoteDTO(quote),
	})
}

// SetBookingStatus transitions a booking's order status.
// POST /api/bookings/{id}/status
func (h *Handler) SetBookingStatus(w http.ResponseWriter, r *http.Request) {
	id := engine.BookingID(chi.URLParam(r, "id"))

	var req SetStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Status == "" {
		writeError(w, http.StatusBadRequest, "status is required", nil)
		return
	}

	if err := h.Store.SetBookingStatus(r.Context(), id, engine.OrderStatus(req.Status)); err != nil {
		writeEngineError(w, err)
		return
	}

	booking, err := h.Store.GetBooking(r.Context(), id)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBookingDTO(*booking))
}

// =============================================================================
// HELPERS
// =============================================================================

func dateRangeParams(w http.ResponseWriter, r *http.Request, startKey, endKey string) (engine.Date, engine.Date, bool) {
	start, err := engine.ParseDate(r.URL.Query().Get(startKey))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid "+startKey+" date", err)
		return engine.Date{}, engine.Date{}, false
	}
	end, err := engine.ParseDate(r.URL.Query().Get(endKey))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid "+endKey+" date", err)
		return engine.Date{}, engine.Date{}, false
	}
	return start, end, true
}

// writeEngineError maps engine error classes to HTTP statuses. Input
// errors get a client-facing validation message per the error taxonomy;
// everything else is a 500.
func writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case engine.IsNotFound(err):
		writeError(w, http.StatusNotFound, "Not found", err)
	case errors.Is(err, engine.ErrInvalidRange):
		writeError(w, http.StatusBadRequest, "End date must be after start date", err)
	case errors.Is(err, engine.ErrInvalidRate):
		writeError(w, http.StatusBadRequest, "Rate and deposit must be non-negative", err)
	case errors.Is(err, engine.ErrUnitConflict):
		writeError(w, http.StatusConflict, "Stock unit was claimed by another booking", err)
	default:
		writeError(w, http.StatusInternalServerError, "Internal error", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

func parseOptionalDate(s *string) (*engine.Date, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	d, err := engine.ParseDate(*s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
