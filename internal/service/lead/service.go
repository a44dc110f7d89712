package lead

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ignite/leadpilot/internal/domain"
)

// Service implements lead business logic.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// CreateInput holds the fields for creating a lead.
type CreateInput struct {
	ContactName string  `json:"contact_name"`
	FirstName   string  `json:"first_name"`
	Company     string  `json:"company"`
	Industry    string  `json:"industry"`
	Website     string  `json:"website"`
	Email       string  `json:"email"`
	Phone       string  `json:"phone"`
	Address     string  `json:"address"`
	DealValue   float64 `json:"deal_value"`
	ManualOnly  bool    `json:"manual_only"`
}

// Create validates and persists a new lead.
func (s *Service) Create(ctx context.Context, in CreateInput) (*domain.Lead, error) {
	email := domain.NormalizeEmail(in.Email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, ErrInvalidEmail
	}
	if in.ContactName == "" {
		return nil, fmt.Errorf("contact_name is required")
	}

	now := time.Now()
	l := &domain.Lead{
		ID:          uuid.New().String(),
		ContactName: in.ContactName,
		FirstName:   in.FirstName,
		Company:     in.Company,
		Industry:    in.Industry,
		Website:     in.Website,
		Email:       email,
		Phone:       in.Phone,
		Address:     in.Address,
		DealValue:   in.DealValue,
		ManualOnly:  in.ManualOnly,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	id, err := s.repo.Create(ctx, l)
	if err != nil {
		return nil, err
	}
	l.ID = id
	return l, nil
}

// Get returns a single lead.
func (s *Service) Get(ctx context.Context, id string) (*domain.Lead, error) {
	return s.repo.Get(ctx, id)
}

// List returns leads matching the filter.
func (s *Service) List(ctx context.Context, f ListFilter) ([]domain.Lead, int, error) {
	if f.Limit <= 0 || f.Limit > 500 {
		f.Limit = 100
	}
	return s.repo.List(ctx, f)
}

// UpdateInput holds the mutable fields for a lead update. Nil fields are not
// applied.
type UpdateInput struct {
	ContactName *string  `json:"contact_name"`
	FirstName   *string  `json:"first_name"`
	Company     *string  `json:"company"`
	Industry    *string  `json:"industry"`
	Website     *string  `json:"website"`
	Email       *string  `json:"email"`
	Phone       *string  `json:"phone"`
	Address     *string  `json:"address"`
	DealValue   *float64 `json:"deal_value"`
	ManualOnly  *bool    `json:"manual_only"`
}

// Update modifies lead attributes.
func (s *Service) Update(ctx context.Context, id string, u UpdateInput) (*domain.Lead, error) {
	l, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if u.Email != nil {
		email := domain.NormalizeEmail(*u.Email)
		if email == "" || !strings.Contains(email, "@") {
			return nil, ErrInvalidEmail
		}
		l.Email = email
	}
	if u.ContactName != nil {
		l.ContactName = *u.ContactName
	}
	if u.FirstName != nil {
		l.FirstName = *u.FirstName
	}
	if u.Company != nil {
		l.Company = *u.Company
	}
	if u.Industry != nil {
		l.Industry = *u.Industry
	}
	if u.Website != nil {
		l.Website = *u.Website
	}
	if u.Phone != nil {
		l.Phone = *u.Phone
	}
	if u.Address != nil {
		l.Address = *u.Address
	}
	if u.DealValue != nil {
		l.DealValue = *u.DealValue
	}
	if u.ManualOnly != nil {
		l.ManualOnly = *u.ManualOnly
	}
	l.UpdatedAt = time.Now()
	if err := s.repo.Save(ctx, l); err != nil {
		return nil, err
	}
	return l, nil
}

// Delete removes a lead.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

// AddNote appends a manual note to the lead's activity log.
func (s *Service) AddNote(ctx context.Context, id, note string) (*domain.Lead, error) {
	if strings.TrimSpace(note) == "" {
		return nil, fmt.Errorf("note is required")
	}
	l, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	l.AppendActivity("note", note, time.Now())
	l.UpdatedAt = time.Now()
	if err := s.repo.Save(ctx, l); err != nil {
		return nil, err
	}
	return l, nil
}

// RecordOutbound appends an outbound message to the lead's history along
// with a matching activity entry. The sequencer calls this after each
// accepted dispatch.
func (s *Service) RecordOutbound(ctx context.Context, id string, m domain.MessageRecord) error {
	l, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	m.Direction = "outbound"
	l.AppendMessage(m)
	l.AppendActivity("email_sent", fmt.Sprintf("Step %d: %s", m.Step, m.Subject), m.SentAt)
	l.UpdatedAt = time.Now()
	return s.repo.Save(ctx, l)
}
