package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/presensia/presensia-backend-go/internal/domain/location"
	"github.com/presensia/presensia-backend-go/internal/pkg/database"
)

type locationRepositoryImpl struct {
	db *database.DB
}

func NewLocationRepository(db *database.DB) location.LocationRepository {
	return &locationRepositoryImpl{db: db}
}

const locationColumns = `id, name, latitude, longitude, radius_meters`

// GetByID implements location.LocationRepository.
func (l *locationRepositoryImpl) GetByID(ctx context.Context, id string) (location.Location, error) {
	q := GetQuerier(ctx, l.db)

	query := `SELECT ` + locationColumns + ` FROM locations WHERE id = $1`

	var loc location.Location
	err := q.QueryRow(ctx, query, id).Scan(
		&loc.ID, &loc.Name, &loc.Latitude, &loc.Longitude, &loc.RadiusMeters,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return location.Location{}, location.ErrLocationNotFound
		}
		return location.Location{}, fmt.Errorf("failed to get location: %w", err)
	}

	return loc, nil
}

// GetByIDs implements location.LocationRepository.
func (l *locationRepositoryImpl) GetByIDs(ctx context.Context, ids []string) ([]location.Location, error) {
	q := GetQuerier(ctx, l.db)

	query := `SELECT ` + locationColumns + ` FROM locations WHERE id = ANY($1)`

	rows, err := q.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to get locations: %w", err)
	}
	defer rows.Close()

	return collectLocations(rows)
}

// List implements location.LocationRepository.
func (l *locationRepositoryImpl) List(ctx context.Context) ([]location.Location, error) {
	q := GetQuerier(ctx, l.db)

	query := `SELECT ` + locationColumns + ` FROM locations ORDER BY name ASC`

	rows, err := q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list locations: %w", err)
	}
	defer rows.Close()

	return collectLocations(rows)
}

func collectLocations(rows pgx.Rows) ([]location.Location, error) {
	var locations []location.Location
	for rows.Next() {
		var loc location.Location
		if err := rows.Scan(&loc.ID, &loc.Name, &loc.Latitude, &loc.Longitude, &loc.RadiusMeters); err != nil {
			return nil, fmt.Errorf("failed to scan location: %w", err)
		}
		locations = append(locations, loc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate locations: %w", err)
	}
	return locations, nil
}
