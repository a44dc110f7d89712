package lead

import (
	"context"

	"github.com/ignite/leadpilot/internal/domain"
)

// ListFilter narrows lead listings.
type ListFilter struct {
	Company string
	Search  string // matches contact name or email, case-insensitive
	Limit   int
	Offset  int
}

// Repository is the storage contract for leads. Save replaces the whole
// document; last writer wins.
type Repository interface {
	Get(ctx context.Context, id string) (*domain.Lead, error)
	List(ctx context.Context, f ListFilter) ([]domain.Lead, int, error)
	Create(ctx context.Context, l *domain.Lead) (string, error)
	Save(ctx context.Context, l *domain.Lead) error
	Delete(ctx context.Context, id string) error
}
