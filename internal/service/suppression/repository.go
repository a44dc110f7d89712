package suppression

import (
	"context"

	"github.com/ignite/leadpilot/internal/domain"
)

// Repository is the storage contract for suppression entries. Emails are
// stored normalized (lowercase, trimmed); implementations treat email as the
// unique key.
type Repository interface {
	// Get returns the entry for a normalized address, or ErrNotFound.
	Get(ctx context.Context, email string) (*domain.Suppression, error)

	// Upsert inserts or refreshes an entry keyed by email.
	Upsert(ctx context.Context, s *domain.Suppression) error

	// Delete removes an entry, or returns ErrNotFound.
	Delete(ctx context.Context, email string) error

	// List returns entries ordered by creation time, newest first.
	List(ctx context.Context, limit, offset int) ([]domain.Suppression, int, error)
}
