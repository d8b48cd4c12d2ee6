// Package sqlite provides a SQLite implementation of the CorpusStore interface.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/minedex/minedex/internal/domain/entities"
	"github.com/minedex/minedex/internal/infrastructure/config"
)

// ErrNotFound is returned when a facility does not exist.
var ErrNotFound = errors.New("facility not found")

// timeNow returns the current time (can be mocked in tests).
var timeNow = time.Now

// Repository implements ports.CorpusStore using SQLite.
type Repository struct {
	db   *sql.DB
	path string
}

// NewRepository creates a new SQLite repository.
func NewRepository(cfg config.SQLiteConfig) (*Repository, error) {
	if cfg.Path == "" {
		return nil, errors.New("sqlite path is required")
	}

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}

	// Enable WAL mode for better concurrent read/write performance
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	// Set busy timeout to avoid "database is locked" errors
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	return &Repository{
		db:   db,
		path: cfg.Path,
	}, nil
}

// Close closes the database connection.
func (r *Repository) Close() error {
	return r.db.Close()
}

// Path returns the database file path.
func (r *Repository) Path() string {
	return r.path
}

// EnsureSchema creates the database schema if it doesn't exist.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	schema := `
	-- Facility records. Nested structures are stored as JSON; the
	-- columns used for lookups and uniqueness are first-class.
	CREATE TABLE IF NOT EXISTS facilities (
		facility_id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		normalized_name TEXT NOT NULL,
		canonical_name TEXT,
		canonical_slug TEXT UNIQUE,
		country_iso3 TEXT,
		region TEXT,
		town TEXT,
		status TEXT,
		lat REAL,
		lon REAL,
		precision TEXT,
		external_ref_id TEXT,
		aliases TEXT NOT NULL DEFAULT '[]',
		commodities TEXT NOT NULL DEFAULT '[]',
		products TEXT NOT NULL DEFAULT '[]',
		operator_link TEXT,
		owner_links TEXT NOT NULL DEFAULT '[]',
		company_mentions TEXT NOT NULL DEFAULT '[]',
		sources TEXT NOT NULL DEFAULT '[]',
		verification TEXT NOT NULL DEFAULT '{}',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_facilities_normalized ON facilities(normalized_name);
	CREATE INDEX IF NOT EXISTS idx_facilities_country ON facilities(country_iso3);
	CREATE INDEX IF NOT EXISTS idx_facilities_external ON facilities(external_ref_id);
	`

	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}

const facilityColumns = `
	facility_id, name, normalized_name, canonical_name, canonical_slug,
	country_iso3, region, town, status, lat, lon, precision,
	external_ref_id, aliases, commodities, products, operator_link,
	owner_links, company_mentions, sources, verification,
	created_at, updated_at`

// SaveFacility inserts or updates a facility record.
func (r *Repository) SaveFacility(ctx context.Context, f *entities.Facility) error {
	return r.saveFacilityTx(ctx, r.db, f)
}

// execer abstracts *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (r *Repository) saveFacilityTx(ctx context.Context, db execer, f *entities.Facility) error {
	if f.FacilityID == "" {
		return errors.New("facility_id is required")
	}

	aliases, err := json.Marshal(emptySlice(f.Aliases))
	if err != nil {
		return fmt.Errorf("marshaling aliases: %w", err)
	}
	commodities, err := json.Marshal(emptySliceC(f.Commodities))
	if err != nil {
		return fmt.Errorf("marshaling commodities: %w", err)
	}
	products, err := json.Marshal(emptySliceP(f.Products))
	if err != nil {
		return fmt.Errorf("marshaling products: %w", err)
	}
	var operator any
	if f.OperatorLink != nil {
		data, err := json.Marshal(f.OperatorLink)
		if err != nil {
			return fmt.Errorf("marshaling operator link: %w", err)
		}
		operator = string(data)
	}
	owners, err := json.Marshal(emptySliceL(f.OwnerLinks))
	if err != nil {
		return fmt.Errorf("marshaling owner links: %w", err)
	}
	mentions, err := json.Marshal(emptySliceM(f.CompanyMentions))
	if err != nil {
		return fmt.Errorf("marshaling company mentions: %w", err)
	}
	sources, err := json.Marshal(emptySliceS(f.Sources))
	if err != nil {
		return fmt.Errorf("marshaling sources: %w", err)
	}
	verification, err := json.Marshal(f.Verification)
	if err != nil {
		return fmt.Errorf("marshaling verification: %w", err)
	}

	var lat, lon, precision any
	if f.Location != nil {
		lat = f.Location.Lat
		lon = f.Location.Lon
		precision = string(f.Location.Precision)
	}

	var slug any
	if f.CanonicalSlug != "" {
		slug = f.CanonicalSlug
	}

	createdAt := f.CreatedAt
	if createdAt.IsZero() {
		createdAt = timeNow()
	}

	query := `
		INSERT INTO facilities (` + facilityColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(facility_id) DO UPDATE SET
			name = excluded.name,
			normalized_name = excluded.normalized_name,
			canonical_name = excluded.canonical_name,
			canonical_slug = excluded.canonical_slug,
			country_iso3 = excluded.country_iso3,
			region = excluded.region,
			town = excluded.town,
			status = excluded.status,
			lat = excluded.lat,
			lon = excluded.lon,
			precision = excluded.precision,
			external_ref_id = excluded.external_ref_id,
			aliases = excluded.aliases,
			commodities = excluded.commodities,
			products = excluded.products,
			operator_link = excluded.operator_link,
			owner_links = excluded.owner_links,
			company_mentions = excluded.company_mentions,
			sources = excluded.sources,
			verification = excluded.verification,
			updated_at = excluded.updated_at
	`
	_, err = db.ExecContext(ctx, query,
		f.FacilityID,
		f.Name,
		entities.NormalizeName(f.Name),
		f.CanonicalName,
		slug,
		f.CountryISO3,
		f.Region,
		f.Town,
		f.Status,
		lat,
		lon,
		precision,
		f.ExternalRefID,
		string(aliases),
		string(commodities),
		string(products),
		operator,
		string(owners),
		string(mentions),
		string(sources),
		string(verification),
		createdAt,
		timeNow(),
	)
	if err != nil {
		return fmt.Errorf("saving facility %s: %w", f.FacilityID, err)
	}
	return nil
}

// FindFacilityByID returns a facility by ID, or ErrNotFound.
func (r *Repository) FindFacilityByID(ctx context.Context, facilityID string) (*entities.Facility, error) {
	query := `SELECT ` + facilityColumns + ` FROM facilities WHERE facility_id = ?`
	row := r.db.QueryRowContext(ctx, query, facilityID)

	f, err := scanFacility(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning facility: %w", err)
	}
	return f, nil
}

// ListFacilities returns the whole corpus ordered by facility_id so
// repeated runs see an identical sequence.
func (r *Repository) ListFacilities(ctx context.Context) ([]*entities.Facility, error) {
	query := `SELECT ` + facilityColumns + ` FROM facilities ORDER BY facility_id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing facilities: %w", err)
	}
	defer rows.Close()

	var out []*entities.Facility
	for rows.Next() {
		f, err := scanFacility(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning facility: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// DeleteFacility removes a facility by ID.
func (r *Repository) DeleteFacility(ctx context.Context, facilityID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM facilities WHERE facility_id = ?`, facilityID)
	if err != nil {
		return fmt.Errorf("deleting facility %s: %w", facilityID, err)
	}
	return nil
}

// CommitMerge persists a merge survivor and deletes the absorbed records
// in one transaction, so the corpus never shows a half-applied merge.
func (r *Repository) CommitMerge(ctx context.Context, canonical *entities.Facility, absorbedIDs []string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning merge transaction: %w", err)
	}
	defer tx.Rollback()

	// Delete first: an absorbed record may hold the slug the survivor keeps.
	for _, id := range absorbedIDs {
		if _, err := tx.ExecContext(ctx, `DELETE FROM facilities WHERE facility_id = ?`, id); err != nil {
			return fmt.Errorf("deleting absorbed facility %s: %w", id, err)
		}
	}
	if err := r.saveFacilityTx(ctx, tx, canonical); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing merge: %w", err)
	}
	return nil
}

// LoadSlugs returns every canonical slug assigned in the corpus.
func (r *Repository) LoadSlugs(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT canonical_slug FROM facilities WHERE canonical_slug IS NOT NULL ORDER BY canonical_slug`)
	if err != nil {
		return nil, fmt.Errorf("loading slugs: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var slug string
		if err := rows.Scan(&slug); err != nil {
			return nil, fmt.Errorf("scanning slug: %w", err)
		}
		out = append(out, slug)
	}
	return out, rows.Err()
}

// CountFacilities returns the corpus size.
func (r *Repository) CountFacilities(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM facilities`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting facilities: %w", err)
	}
	return count, nil
}

// CountByStatus returns facility counts grouped by operational status.
func (r *Repository) CountByStatus(ctx context.Context) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT COALESCE(NULLIF(status, ''), 'unknown'), COUNT(*) FROM facilities GROUP BY 1`)
	if err != nil {
		return nil, fmt.Errorf("counting by status: %w", err)
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scanning status count: %w", err)
		}
		out[status] = count
	}
	return out, rows.Err()
}

// scanner abstracts *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanFacility(row scanner) (*entities.Facility, error) {
	var f entities.Facility
	var normalizedName string
	var canonicalName, canonicalSlug, countryISO3, region, town, status sql.NullString
	var lat, lon sql.NullFloat64
	var precision, externalRefID, operatorLink sql.NullString
	var aliases, commodities, products, owners, mentions, sources, verification string

	err := row.Scan(
		&f.FacilityID,
		&f.Name,
		&normalizedName,
		&canonicalName,
		&canonicalSlug,
		&countryISO3,
		&region,
		&town,
		&status,
		&lat,
		&lon,
		&precision,
		&externalRefID,
		&aliases,
		&commodities,
		&products,
		&operatorLink,
		&owners,
		&mentions,
		&sources,
		&verification,
		&f.CreatedAt,
		&f.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	f.CanonicalName = canonicalName.String
	f.CanonicalSlug = canonicalSlug.String
	f.CountryISO3 = countryISO3.String
	f.Region = region.String
	f.Town = town.String
	f.Status = status.String
	f.ExternalRefID = externalRefID.String

	if lat.Valid && lon.Valid {
		f.Location = &entities.Location{
			Lat:       lat.Float64,
			Lon:       lon.Float64,
			Precision: entities.Precision(precision.String),
		}
	}

	if err := json.Unmarshal([]byte(aliases), &f.Aliases); err != nil {
		return nil, fmt.Errorf("unmarshaling aliases: %w", err)
	}
	if err := json.Unmarshal([]byte(commodities), &f.Commodities); err != nil {
		return nil, fmt.Errorf("unmarshaling commodities: %w", err)
	}
	if err := json.Unmarshal([]byte(products), &f.Products); err != nil {
		return nil, fmt.Errorf("unmarshaling products: %w", err)
	}
	if operatorLink.Valid && operatorLink.String != "" {
		var op entities.CompanyLink
		if err := json.Unmarshal([]byte(operatorLink.String), &op); err != nil {
			return nil, fmt.Errorf("unmarshaling operator link: %w", err)
		}
		f.OperatorLink = &op
	}
	if err := json.Unmarshal([]byte(owners), &f.OwnerLinks); err != nil {
		return nil, fmt.Errorf("unmarshaling owner links: %w", err)
	}
	if err := json.Unmarshal([]byte(mentions), &f.CompanyMentions); err != nil {
		return nil, fmt.Errorf("unmarshaling company mentions: %w", err)
	}
	if err := json.Unmarshal([]byte(sources), &f.Sources); err != nil {
		return nil, fmt.Errorf("unmarshaling sources: %w", err)
	}
	if err := json.Unmarshal([]byte(verification), &f.Verification); err != nil {
		return nil, fmt.Errorf("unmarshaling verification: %w", err)
	}

	return &f, nil
}

// emptySlice helpers keep JSON columns as [] instead of null.
func emptySlice(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func emptySliceC(s []entities.Commodity) []entities.Commodity {
	if s == nil {
		return []entities.Commodity{}
	}
	return s
}

func emptySliceP(s []entities.Product) []entities.Product {
	if s == nil {
		return []entities.Product{}
	}
	return s
}

func emptySliceL(s []entities.CompanyLink) []entities.CompanyLink {
	if s == nil {
		return []entities.CompanyLink{}
	}
	return s
}

func emptySliceM(s []entities.CompanyMention) []entities.CompanyMention {
	if s == nil {
		return []entities.CompanyMention{}
	}
	return s
}

func emptySliceS(s []entities.SourceRef) []entities.SourceRef {
	if s == nil {
		return []entities.SourceRef{}
	}
	return s
}
