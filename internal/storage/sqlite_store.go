package storage

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/denisok6893-rgb/property-valuation/internal/domain"
)

// SQLiteStore is a read-mostly record source for sales and assessment records.
type SQLiteStore struct {
	db *sql.DB
}

func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	if _, err := db.Exec(`PRAGMA journal_mode=WAL;`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set journal mode: %w", err)
	}
	if _, err := db.Exec(`PRAGMA foreign_keys=ON;`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

func (s *SQLiteStore) EnsureSchema() error {
	stmts := []string{`
CREATE TABLE IF NOT EXISTS sales (
  id TEXT PRIMARY KEY,
  address TEXT NOT NULL DEFAULT '',
  sale_price REAL NOT NULL,
  sale_date TEXT NOT NULL,
  living_area REAL NOT NULL DEFAULT 0,
  lot_size REAL NOT NULL DEFAULT 0,
  bedrooms INTEGER NOT NULL DEFAULT 0,
  bathrooms REAL NOT NULL DEFAULT 0,
  year_built INTEGER NOT NULL DEFAULT 0,
  condition TEXT NOT NULL DEFAULT '',
  quality TEXT NOT NULL DEFAULT '',
  latitude REAL NOT NULL DEFAULT 0,
  longitude REAL NOT NULL DEFAULT 0,
  neighborhood TEXT NOT NULL DEFAULT '',
  days_on_market INTEGER NOT NULL DEFAULT 0,
  financing_type TEXT NOT NULL DEFAULT '',
  property_type TEXT NOT NULL DEFAULT ''
);`, `
CREATE TABLE IF NOT EXISTS assessments (
  id TEXT PRIMARY KEY,
  neighborhood TEXT NOT NULL DEFAULT '',
  property_type TEXT NOT NULL DEFAULT '',
  assessed_value REAL NOT NULL,
  sale_price REAL NOT NULL,
  sale_date TEXT NOT NULL DEFAULT '',
  year_built INTEGER NOT NULL DEFAULT 0,
  living_area REAL NOT NULL DEFAULT 0,
  latitude REAL NOT NULL DEFAULT 0,
  longitude REAL NOT NULL DEFAULT 0,
  median_income REAL,
  minority_share REAL,
  median_resident_age REAL,
  college_share REAL,
  urbanicity TEXT NOT NULL DEFAULT '',
  distance_to_center REAL,
  accessibility_score REAL
);`,
		`CREATE INDEX IF NOT EXISTS idx_sales_type ON sales(property_type);`,
		`CREATE INDEX IF NOT EXISTS idx_sales_neighborhood ON sales(neighborhood);`,
		`CREATE INDEX IF NOT EXISTS idx_sales_date ON sales(sale_date);`,
		`CREATE INDEX IF NOT EXISTS idx_assessments_neighborhood ON assessments(neighborhood);`,
	}
	for _, q := range stmts {
		if _, err := s.db.Exec(q); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStore) CountSales() (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM sales`).Scan(&n)
	return n, err
}

func (s *SQLiteStore) CountAssessments() (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM assessments`).Scan(&n)
	return n, err
}

// UpsertSales inserts or replaces sales by id. It returns the number of rows written.
// Property types are stored normalized, with blanks as the default type.
func (s *SQLiteStore) UpsertSales(items []domain.ComparableSale) (int, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(`
INSERT OR REPLACE INTO sales
(id, address, sale_price, sale_date, living_area, lot_size, bedrooms, bathrooms, year_built,
 condition, quality, latitude, longitude, neighborhood, days_on_market, financing_type, property_type)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	for _, c := range items {
		if _, err := stmt.Exec(
			c.ID, c.Address, c.SalePrice, formatDate(c.SaleDate), c.LivingArea, c.LotSize,
			c.Bedrooms, c.Bathrooms, c.YearBuilt, c.Condition, c.Quality, c.Latitude, c.Longitude,
			c.Neighborhood, c.DaysOnMarket, c.FinancingType, domain.NormalizePropertyType(c.PropertyType),
		); err != nil {
			return 0, fmt.Errorf("upsert sale %s: %w", c.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return len(items), nil
}

// UpsertAssessments inserts or replaces assessment records by id.
func (s *SQLiteStore) UpsertAssessments(items []domain.AssessmentRecord) (int, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(`
INSERT OR REPLACE INTO assessments
(id, neighborhood, property_type, assessed_value, sale_price, sale_date, year_built, living_area,
 latitude, longitude, median_income, minority_share, median_resident_age, college_share,
 urbanicity, distance_to_center, accessibility_score)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	for _, r := range items {
		if _, err := stmt.Exec(
			r.ID, r.Neighborhood, domain.NormalizePropertyType(r.PropertyType), r.AssessedValue, r.SalePrice, formatDate(r.SaleDate),
			r.YearBuilt, r.LivingArea, r.Latitude, r.Longitude,
			nullable(r.MedianIncome), nullable(r.MinorityShare), nullable(r.MedianResidentAge),
			nullable(r.CollegeShare), r.Urbanicity, nullable(r.DistanceToCenter), nullable(r.AccessibilityScore),
		); err != nil {
			return 0, fmt.Errorf("upsert assessment %s: %w", r.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return len(items), nil
}

// SalesFilter narrows ListSales. Zero fields are ignored. Undated sales are
// never excluded by SoldAfter.
type SalesFilter struct {
	PropertyType string
	Neighborhood string
	SoldAfter    time.Time
}

const saleColumns = `id, address, sale_price, sale_date, living_area, lot_size, bedrooms, bathrooms, year_built,
 condition, quality, latitude, longitude, neighborhood, days_on_market, financing_type, property_type`

// ListSales returns sales matching f, newest first.
func (s *SQLiteStore) ListSales(f SalesFilter) ([]domain.ComparableSale, error) {
	where := make([]string, 0, 3)
	args := make([]any, 0, 4)

	if t := strings.TrimSpace(f.PropertyType); t != "" {
		// rows written before types were normalized may hold blanks
		where = append(where, "COALESCE(NULLIF(LOWER(TRIM(property_type)), ''), ?) = ?")
		args = append(args, domain.DefaultPropertyType, domain.NormalizePropertyType(t))
	}
	if n := strings.TrimSpace(f.Neighborhood); n != "" {
		where = append(where, "LOWER(neighborhood) = LOWER(?)")
		args = append(args, n)
	}
	if !f.SoldAfter.IsZero() {
		where = append(where, "(sale_date = '' OR sale_date >= ?)")
		args = append(args, formatDate(f.SoldAfter))
	}

	q := "SELECT " + saleColumns + " FROM sales"
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY sale_date DESC, id"

	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}
	defer rows.Close()

	var out []domain.ComparableSale
	for rows.Next() {
		var c domain.ComparableSale
		var date string
		if err := rows.Scan(
			&c.ID, &c.Address, &c.SalePrice, &date, &c.LivingArea, &c.LotSize, &c.Bedrooms,
			&c.Bathrooms, &c.YearBuilt, &c.Condition, &c.Quality, &c.Latitude, &c.Longitude,
			&c.Neighborhood, &c.DaysOnMarket, &c.FinancingType, &c.PropertyType,
		); err != nil {
			return nil, err
		}
		if c.SaleDate, err = parseDate(date); err != nil {
			return nil, fmt.Errorf("sale %s: %w", c.ID, err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ListAssessments returns assessment records, optionally limited to one neighborhood.
func (s *SQLiteStore) ListAssessments(neighborhood string) ([]domain.AssessmentRecord, error) {
	q := `
SELECT id, neighborhood, property_type, assessed_value, sale_price, sale_date, year_built, living_area,
 latitude, longitude, median_income, minority_share, median_resident_age, college_share,
 urbanicity, distance_to_center, accessibility_score
FROM assessments`
	var args []any
	if n := strings.TrimSpace(neighborhood); n != "" {
		q += " WHERE LOWER(neighborhood) = LOWER(?)"
		args = append(args, n)
	}
	q += " ORDER BY id"

	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("list assessments: %w", err)
	}
	defer rows.Close()

	var out []domain.AssessmentRecord
	for rows.Next() {
		var r domain.AssessmentRecord
		var date string
		var income, minority, residentAge, college, center, access sql.NullFloat64
		if err := rows.Scan(
			&r.ID, &r.Neighborhood, &r.PropertyType, &r.AssessedValue, &r.SalePrice, &date,
			&r.YearBuilt, &r.LivingArea, &r.Latitude, &r.Longitude,
			&income, &minority, &residentAge, &college, &r.Urbanicity, &center, &access,
		); err != nil {
			return nil, err
		}
		if r.SaleDate, err = parseDate(date); err != nil {
			return nil, fmt.Errorf("assessment %s: %w", r.ID, err)
		}
		r.MedianIncome = fromNull(income)
		r.MinorityShare = fromNull(minority)
		r.MedianResidentAge = fromNull(residentAge)
		r.CollegeShare = fromNull(college)
		r.DistanceToCenter = fromNull(center)
		r.AccessibilityScore = fromNull(access)
		out = append(out, r)
	}
	return out, rows.Err()
}

// Dates are stored as RFC 3339 text so they sort lexically in UTC.
func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return t, nil
}

func nullable(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}

func fromNull(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Float64
	return &v
}
