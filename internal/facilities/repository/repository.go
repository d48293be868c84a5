package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"georesponse_backend/internal/facility"
	"georesponse_backend/platform/apperr"
	"georesponse_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const facilityNotFoundMessage = "facility not found"

const selectColumns = `id, title, category, address, city, state, latitude, longitude, phone, website, google_location_url, created_at, updated_at`

// Repo implements the Repository interface with PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
	log  *logger.Logger
}

// New creates a new facilities repository.
func New(pool *pgxpool.Pool, log *logger.Logger) *Repo {
	return &Repo{pool: pool, log: log}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

// GetByID retrieves a facility by its ID.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (Record, error) {
	query := `SELECT ` + selectColumns + ` FROM facilities WHERE id = $1`

	rec, err := scanRecord(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Record{}, apperr.NotFound(facilityNotFoundMessage)
		}
		return Record{}, r.fail("get facility by id", err)
	}
	return rec, nil
}

// List retrieves facilities matching params ordered by title.
func (r *Repo) List(ctx context.Context, params ListParams) ([]Record, error) {
	var searchParam, addressParam, categoryParam, cityParam, stateParam interface{}
	if params.Search != "" {
		searchParam = "%" + escapeLike(params.Search) + "%"
	}
	if params.Address != "" {
		addressParam = "%" + escapeLike(params.Address) + "%"
	}
	if wire := params.Category.WireValue(); wire != "" {
		categoryParam = wire
	}
	if params.City != "" {
		cityParam = params.City
	}
	if params.State != "" {
		stateParam = params.State
	}

	query := `
		SELECT ` + selectColumns + `
		FROM facilities
		WHERE ($1::text IS NULL OR title ILIKE $1 OR city ILIKE $1 OR state ILIKE $1 OR address ILIKE $1)
			AND ($2::text IS NULL OR category = $2)
			AND ($3::text IS NULL OR lower(city) = lower($3))
			AND ($4::text IS NULL OR lower(state) = lower($4))
			AND ($5::text IS NULL OR address ILIKE $5)
			AND (NOT $6::boolean OR (latitude IS NOT NULL AND longitude IS NOT NULL))
		ORDER BY title ASC, id ASC`

	rows, err := r.pool.Query(ctx, query, searchParam, categoryParam, cityParam, stateParam, addressParam, params.LocatedOnly)
	if err != nil {
		return nil, r.fail("list facilities", err)
	}
	defer rows.Close()

	results, err := scanRecords(rows)
	if err != nil {
		return nil, r.fail("list facilities", err)
	}
	return results, nil
}

// ListMissingLocation retrieves up to limit facilities without coordinates.
func (r *Repo) ListMissingLocation(ctx context.Context, limit int) ([]Record, error) {
	query := `
		SELECT ` + selectColumns + `
		FROM facilities
		WHERE latitude IS NULL OR longitude IS NULL
		ORDER BY created_at ASC
		LIMIT $1`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, r.fail("list facilities missing location", err)
	}
	defer rows.Close()

	results, err := scanRecords(rows)
	if err != nil {
		return nil, r.fail("list facilities missing location", err)
	}
	return results, nil
}

// Create inserts a new facility.
func (r *Repo) Create(ctx context.Context, params CreateParams) (Record, error) {
	query := `
		INSERT INTO facilities (id, title, category, address, city, state, latitude, longitude, phone, website, google_location_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING ` + selectColumns

	rec, err := scanRecord(r.pool.QueryRow(ctx, query,
		params.ID, params.Title, params.Category.WireValue(), params.Address, params.City, params.State,
		params.Lat, params.Lng, params.Phone, params.Website, params.MapsURL,
	))
	if err != nil {
		return Record{}, r.fail("create facility", err)
	}
	return rec, nil
}

// Update replaces the editable fields of an existing facility.
func (r *Repo) Update(ctx context.Context, params UpdateParams) (Record, error) {
	query := `
		UPDATE facilities SET
			title = $2,
			category = $3,
			address = $4,
			city = $5,
			state = $6,
			latitude = $7,
			longitude = $8,
			phone = $9,
			website = $10,
			google_location_url = $11,
			updated_at = now()
		WHERE id = $1
		RETURNING ` + selectColumns

	rec, err := scanRecord(r.pool.QueryRow(ctx, query,
		params.ID, params.Title, params.Category.WireValue(), params.Address, params.City, params.State,
		params.Lat, params.Lng, params.Phone, params.Website, params.MapsURL,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Record{}, apperr.NotFound(facilityNotFoundMessage)
		}
		return Record{}, r.fail("update facility", err)
	}
	return rec, nil
}

// Delete removes a facility by ID.
func (r *Repo) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM facilities WHERE id = $1`, id)
	if err != nil {
		return r.fail("delete facility", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound(facilityNotFoundMessage)
	}
	return nil
}

// SetLocation stores coordinates for a facility.
func (r *Repo) SetLocation(ctx context.Context, id uuid.UUID, lat, lng float64) error {
	query := `UPDATE facilities SET latitude = $2, longitude = $3, updated_at = now() WHERE id = $1`

	result, err := r.pool.Exec(ctx, query, id, lat, lng)
	if err != nil {
		return r.fail("set facility location", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound(facilityNotFoundMessage)
	}
	return nil
}

// fail logs a driver error and returns an internal error without its details.
func (r *Repo) fail(op string, err error) error {
	r.log.DatabaseError(op, err)
	return apperr.Internal("database error").WithOp(op)
}

func scanRecord(row pgx.Row) (Record, error) {
	var rec Record
	var category string
	err := row.Scan(
		&rec.ID, &rec.Title, &category, &rec.Address, &rec.City, &rec.State,
		&rec.Lat, &rec.Lng, &rec.Phone, &rec.Website, &rec.MapsURL, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return Record{}, err
	}
	rec.Category = facility.ParseCategory(category)
	return rec, nil
}

func scanRecords(rows pgx.Rows) ([]Record, error) {
	results := make([]Record, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan facility: %w", err)
		}
		results = append(results, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate facilities: %w", err)
	}
	return results, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
