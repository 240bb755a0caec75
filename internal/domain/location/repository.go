package location

import "context"

// LocationRepository is the Directory Service collaborator for location
// configuration lookups.
type LocationRepository interface {
	// GetByID retrieves a location by id
	GetByID(ctx context.Context, id string) (Location, error)

	// GetByIDs retrieves locations by their ids, skipping unknown ids
	GetByIDs(ctx context.Context, ids []string) ([]Location, error)

	// List returns the full location set
	List(ctx context.Context) ([]Location, error)
}
