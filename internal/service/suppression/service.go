package suppression

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ignite/leadpilot/internal/domain"
	"github.com/ignite/leadpilot/internal/pkg/logger"
)

// Service implements suppression list business logic.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Suppress adds an address to the list. Re-suppressing an existing address
// refreshes its reason and source; the operation is idempotent.
func (s *Service) Suppress(ctx context.Context, email string, reason domain.SuppressionReason, source domain.SuppressionSource) error {
	email = domain.NormalizeEmail(email)
	if email == "" || !strings.Contains(email, "@") {
		return ErrInvalidEmail
	}
	entry := &domain.Suppression{
		ID:        uuid.New().String(),
		Email:     email,
		Reason:    reason,
		Source:    source,
		CreatedAt: time.Now(),
	}
	if err := s.repo.Upsert(ctx, entry); err != nil {
		return err
	}
	logger.Info("address suppressed", "email", entry.Email, "reason", reason, "source", source)
	return nil
}

// Remove deletes an address from the list. Only admin tooling calls this;
// callback-sourced entries are removed the same way, there is no
// source-based protection.
func (s *Service) Remove(ctx context.Context, email string) error {
	return s.repo.Delete(ctx, domain.NormalizeEmail(email))
}

// IsSuppressed reports whether an address is on the list. Lookups are
// normalized, so callers may pass raw input.
func (s *Service) IsSuppressed(ctx context.Context, email string) (bool, error) {
	_, err := s.repo.Get(ctx, domain.NormalizeEmail(email))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	return false, err
}

// List returns suppression entries, newest first.
func (s *Service) List(ctx context.Context, limit, offset int) ([]domain.Suppression, int, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return s.repo.List(ctx, limit, offset)
}
