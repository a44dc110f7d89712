package campaign

import (
	"context"

	"github.com/ignite/leadpilot/internal/domain"
)

// Repository defines the data access contract for campaign aggregates.
// Reads and writes are whole-object: Save persists the entire aggregate
// (schedule, steps, enrollments, stats) atomically, last writer wins.
// Implementations must be safe for concurrent use.
type Repository interface {
	// Get returns a single campaign. Returns ErrNotFound if it doesn't exist.
	Get(ctx context.Context, id string) (*domain.Campaign, error)

	// List returns campaigns matching the filter, ordered by created_at DESC.
	List(ctx context.Context, f ListFilter) ([]domain.Campaign, int, error)

	// Create inserts a new campaign and returns its ID.
	Create(ctx context.Context, c *domain.Campaign) (string, error)

	// Save writes the whole aggregate back. Returns ErrNotFound if the
	// campaign no longer exists.
	Save(ctx context.Context, c *domain.Campaign) error

	// Delete removes a campaign.
	Delete(ctx context.Context, id string) error

	// ListActiveIDs returns the ids of all campaigns with status active,
	// used to resume sequencers after a restart.
	ListActiveIDs(ctx context.Context) ([]string, error)
}

// ListFilter controls pagination and filtering for campaign lists.
type ListFilter struct {
	Status string
	Limit  int
	Offset int
}
