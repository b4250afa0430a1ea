/*
Package sqlite provides the SQLite-backed store for the availability engine.

PURPOSE:
  Implements engine.SnapshotSource over SQLite and adds the write
  operations the API shell needs (catalog upserts, booking creation,
  status transitions). In production the same patterns apply to
  PostgreSQL - only minor SQL dialect differences.

THE CLAIM GUARANTEE:
  The pure engine cannot prevent two concurrent callers from observing
  the same free unit and both proceeding (check-then-act). CreateBooking
  closes that gap here: inside a single transaction, and under the store's
  write lock, it re-checks that the chosen unit has no blocking booking
  overlapping the new range before inserting. A collision fails with
  engine.ErrUnitConflict and nothing is written. Any caller that persists
  bookings MUST go through this path; the availability check alone is not
  an allocation.

KEY TABLES:
  products:      catalog rows (rate, deposit, buffer overrides)
  stock_units:   physical units with optional maintenance blackout bounds
  bookings:      reservations; stock_unit_id NULL until assigned
  pricing_tiers: per-product tier table (tier_days, multiplier, label)

DATE STORAGE:
  Calendar days are stored as 'YYYY-MM-DD' TEXT. Day strings compare
  lexicographically in date order, so the overlap predicates run directly
  in SQL.

WAL MODE:
  SQLite is opened with WAL for better read concurrency; a sync.RWMutex
  additionally serializes writers in-process.

SEE ALSO:
  - engine/snapshot.go: the interface this implements
  - engine/store/memory.go: in-memory equivalent for tests
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/orbitrent/availability-engine/engine"
)

// Store implements engine.SnapshotSource plus the write operations of the
// booking flow.
type Store struct {
	db *sql.DB
	mu sync.RWMutex

	// Statuses treated as blocking by the claim check. Kept in sync with
	// the engine config by the caller wiring both.
	blocking engine.StatusSet
}

// New opens (and migrates) the database at dbPath. Use ":memory:" for an
// in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db, blocking: engine.DefaultBlockingStatuses()}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// SetBlockingStatuses overrides the status set the claim check uses.
func (s *Store) SetBlockingStatuses(set engine.StatusSet) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blocking = set
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS products (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		base_daily_rate INTEGER NOT NULL,
		deposit_amount INTEGER NOT NULL DEFAULT 0,
		buffer_before_days INTEGER,
		buffer_after_days INTEGER,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS stock_units (
		id TEXT PRIMARY KEY,
		product_id TEXT NOT NULL REFERENCES products(id),
		label TEXT,
		unavailable_from TEXT,
		unavailable_to TEXT,
		retired_at TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_stock_units_product
		ON stock_units(product_id);

	CREATE TABLE IF NOT EXISTS bookings (
		id TEXT PRIMARY KEY,
		product_id TEXT NOT NULL REFERENCES products(id),
		stock_unit_id TEXT REFERENCES stock_units(id),
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		status TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		CHECK (end_date > start_date)
	);

	-- Hot path: conflict and overlap queries per product/unit.
	CREATE INDEX IF NOT EXISTS idx_bookings_product_dates
		ON bookings(product_id, start_date, end_date);
	CREATE INDEX IF NOT EXISTS idx_bookings_unit_dates
		ON bookings(stock_unit_id, start_date, end_date)
		WHERE stock_unit_id IS NOT NULL;
	CREATE INDEX IF NOT EXISTS idx_bookings_status
		ON bookings(status);

	CREATE TABLE IF NOT EXISTS pricing_tiers (
		product_id TEXT NOT NULL REFERENCES products(id),
		tier_days INTEGER NOT NULL,
		multiplier TEXT NOT NULL,
		label TEXT,
		PRIMARY KEY (product_id, tier_days)
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// SNAPSHOT SOURCE (engine.SnapshotSource interface)
// =============================================================================

// Product returns a product row, or engine.ErrProductNotFound.
func (s *Store) Product(ctx context.Context, id engine.ProductID) (*engine.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, base_daily_rate, deposit_amount, buffer_before_days, buffer_after_days
		FROM products WHERE id = ?`, id)

	p, err := scanProduct(row)
	if err == sql.ErrNoRows {
		return nil, engine.ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load product: %w", err)
	}
	return p, nil
}

// StockUnits returns the product's non-retired units.
func (s *Store) StockUnits(ctx context.Context, productID engine.ProductID) ([]engine.StockUnit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, product_id, label, unavailable_from, unavailable_to
		FROM stock_units
		WHERE product_id = ? AND retired_at IS NULL
		ORDER BY id`, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to query stock units: %w", err)
	}
	defer rows.Close()

	var units []engine.StockUnit
	for rows.Next() {
		var (
			u     engine.StockUnit
			label sql.NullString
			from  sql.NullString
			to    sql.NullString
		)
		if err := rows.Scan(&u.ID, &u.ProductID, &label, &from, &to); err != nil {
			return nil, fmt.Errorf("failed to scan stock unit: %w", err)
		}
		u.Label = label.String
		if u.UnavailableFrom, err = nullDate(from); err != nil {
			return nil, err
		}
		if u.UnavailableTo, err = nullDate(to); err != nil {
			return nil, err
		}
		units = append(units, u)
	}
	return units, rows.Err()
}

// Bookings returns the product's bookings matching the filter. The status
// and overlap predicates are pushed into SQL.
func (s *Store) Bookings(ctx context.Context, productID engine.ProductID, filter engine.BookingFilter) ([]engine.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, product_id, stock_unit_id, start_date, end_date, status
		FROM bookings
		WHERE product_id = ?`
	args := []any{productID}

	if len(filter.Statuses) > 0 {
		placeholders, statusArgs := statusIn(filter.Statuses)
		query += " AND status IN (" + placeholders + ")"
		args = append(args, statusArgs...)
	}
	if filter.Overlapping != nil {
		query += " AND start_date <= ? AND end_date >= ?"
		args = append(args, filter.Overlapping.End.String(), filter.Overlapping.Start.String())
	}
	query += " ORDER BY start_date, id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query bookings: %w", err)
	}
	defer rows.Close()

	var bookings []engine.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

// PricingTiers returns the product's tier table.
func (s *Store) PricingTiers(ctx context.Context, productID engine.ProductID) ([]engine.PricingTier, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT tier_days, multiplier, label
		FROM pricing_tiers
		WHERE product_id = ?
		ORDER BY tier_days`, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to query pricing tiers: %w", err)
	}
	defer rows.Close()

	var tiers []engine.PricingTier
	for rows.Next() {
		var (
			t          engine.PricingTier
			multiplier string
			label      sql.NullString
		)
		if err := rows.Scan(&t.TierDays, &multiplier, &label); err != nil {
			return nil, fmt.Errorf("failed to scan pricing tier: %w", err)
		}
		t.Multiplier, err = decimal.NewFromString(multiplier)
		if err != nil {
			return nil, fmt.Errorf("invalid multiplier %q for product %s: %w", multiplier, productID, err)
		}
		t.Label = label.String
		tiers = append(tiers, t)
	}
	return tiers, rows.Err()
}

// =============================================================================
// CATALOG WRITES
// =============================================================================

// SaveProduct upserts a product row.
func (s *Store) SaveProduct(ctx context.Context, p engine.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO products (id, name, base_daily_rate, deposit_amount, buffer_before_days, buffer_after_days, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, datetime('now'), datetime('now'))
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			base_daily_rate = excluded.base_daily_rate,
			deposit_amount = excluded.deposit_amount,
			buffer_before_days = excluded.buffer_before_days,
			buffer_after_days = excluded.buffer_after_days,
			updated_at = datetime('now')`,
		p.ID, p.Name, p.BaseDailyRate, p.DepositAmount, nullInt(p.BufferBeforeDays), nullInt(p.BufferAfterDays))
	if err != nil {
		return fmt.Errorf("failed to save product: %w", err)
	}
	return nil
}

// ListProducts returns all products ordered by id.
func (s *Store) ListProducts(ctx context.Context) ([]engine.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, base_daily_rate, deposit_amount, buffer_before_days, buffer_after_days
		FROM products ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var products []engine.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, *p)
	}
	return products, rows.Err()
}

// SaveStockUnit upserts a unit's label and maintenance blackout window.
func (s *Store) SaveStockUnit(ctx context.Context, u engine.StockUnit) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO stock_units (id, product_id, label, unavailable_from, unavailable_to, created_at)
		VALUES (?, ?, ?, ?, ?, datetime('now'))
		ON CONFLICT(id) DO UPDATE SET
			label = excluded.label,
			unavailable_from = excluded.unavailable_from,
			unavailable_to = excluded.unavailable_to`,
		u.ID, u.ProductID, u.Label, dateArg(u.UnavailableFrom), dateArg(u.UnavailableTo))
	if err != nil {
		return fmt.Errorf("failed to save stock unit: %w", err)
	}
	return nil
}

// RetireStockUnit removes a unit from the rentable pool without deleting
// its booking history.
func (s *Store) RetireStockUnit(ctx context.Context, id engine.StockUnitID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`UPDATE stock_units SET retired_at = datetime('now') WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to retire stock unit: %w", err)
	}
	return nil
}

// ReplacePricingTiers swaps the product's whole tier table atomically.
func (s *Store) ReplacePricingTiers(ctx context.Context, productID engine.ProductID, tiers []engine.PricingTier) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM pricing_tiers WHERE product_id = ?`, productID); err != nil {
		return fmt.Errorf("failed to clear pricing tiers: %w", err)
	}
	for _, t := range tiers {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO pricing_tiers (product_id, tier_days, multiplier, label)
			VALUES (?, ?, ?, ?)`,
			productID, t.TierDays, t.Multiplier.String(), t.Label); err != nil {
			return fmt.Errorf("failed to insert pricing tier: %w", err)
		}
	}
	return tx.Commit()
}

// =============================================================================
// BOOKING WRITES - The transactional claim
// =============================================================================

// CreateBooking persists a booking. When a stock unit is assigned, the
// insert and the conflict re-check run in one transaction under the write
// lock: any existing blocking booking on the same unit overlapping the new
// range fails the call with engine.ErrUnitConflict and nothing is written.
func (s *Store) CreateBooking(ctx context.Context, b engine.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if b.StockUnitID != nil {
		placeholders, statusArgs := statusIn(s.blocking)
		args := append([]any{*b.StockUnitID, b.Range.End.String(), b.Range.Start.String()}, statusArgs...)

		var conflicts int
		err := tx.QueryRowContext(ctx, `
			SELECT COUNT(*) FROM bookings
			WHERE stock_unit_id = ?
			  AND start_date <= ? AND end_date >= ?
			  AND status IN (`+placeholders+`)`, args...).Scan(&conflicts)
		if err != nil {
			return fmt.Errorf("failed to check unit conflicts: %w", err)
		}
		if conflicts > 0 {
			return &engine.UnitConflictError{StockUnitID: *b.StockUnitID, Range: b.Range}
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO bookings (id, product_id, stock_unit_id, start_date, end_date, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, datetime('now'), datetime('now'))`,
		b.ID, b.ProductID, unitArg(b.StockUnitID), b.Range.Start.String(), b.Range.End.String(), b.Status)
	if err != nil {
		return fmt.Errorf("failed to insert booking: %w", err)
	}
	return tx.Commit()
}

// GetBooking returns a booking row, or engine.ErrBookingNotFound.
func (s *Store) GetBooking(ctx context.Context, id engine.BookingID) (*engine.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, product_id, stock_unit_id, start_date, end_date, status
		FROM bookings WHERE id = ?`, id)

	b, err := scanBooking(row)
	if err == sql.ErrNoRows {
		return nil, engine.ErrBookingNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// SetBookingStatus transitions a booking's order status.
func (s *Store) SetBookingStatus(ctx context.Context, id engine.BookingID, status engine.OrderStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		UPDATE bookings SET status = ?, updated_at = datetime('now') WHERE id = ?`,
		status, id)
	if err != nil {
		return fmt.Errorf("failed to update booking status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return engine.ErrBookingNotFound
	}
	return nil
}

// =============================================================================
// SCAN HELPERS
// =============================================================================

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*engine.Product, error) {
	var (
		p      engine.Product
		before sql.NullInt64
		after  sql.NullInt64
	)
	if err := row.Scan(&p.ID, &p.Name, &p.BaseDailyRate, &p.DepositAmount, &before, &after); err != nil {
		return nil, err
	}
	if before.Valid {
		v := int(before.Int64)
		p.BufferBeforeDays = &v
	}
	if after.Valid {
		v := int(after.Int64)
		p.BufferAfterDays = &v
	}
	return &p, nil
}

func scanBooking(row rowScanner) (engine.Booking, error) {
	var (
		b      engine.Booking
		unitID sql.NullString
		start  string
		end    string
	)
	if err := row.Scan(&b.ID, &b.ProductID, &unitID, &start, &end, &b.Status); err != nil {
		return b, err
	}
	if unitID.Valid {
		id := engine.StockUnitID(unitID.String)
		b.StockUnitID = &id
	}
	startDate, err := engine.ParseDate(start)
	if err != nil {
		return b, fmt.Errorf("failed to parse booking start: %w", err)
	}
	endDate, err := engine.ParseDate(end)
	if err != nil {
		return b, fmt.Errorf("failed to parse booking end: %w", err)
	}
	b.Range = engine.DateRange{Start: startDate, End: endDate}
	return b, nil
}

func nullDate(v sql.NullString) (*engine.Date, error) {
	if !v.Valid || v.String == "" {
		return nil, nil
	}
	d, err := engine.ParseDate(v.String)
	if err != nil {
		return nil, fmt.Errorf("failed to parse date column: %w", err)
	}
	return &d, nil
}

func dateArg(d *engine.Date) any {
	if d == nil {
		return nil
	}
	return d.String()
}

func unitArg(id *engine.StockUnitID) any {
	if id == nil {
		return nil
	}
	return string(*id)
}

func nullInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

func statusIn(set engine.StatusSet) (placeholders string, args []any) {
	statuses := set.Slice()
	parts := make([]string, len(statuses))
	for i, status := range statuses {
		parts[i] = "?"
		args = append(args, string(status))
	}
	return strings.Join(parts, ", "), args
}
