package campaign

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ignite/leadpilot/internal/domain"
	"github.com/ignite/leadpilot/internal/pkg/logger"
)

// Scheduler is the subset of the sequencer supervisor the service needs to
// arm and disarm per-campaign timers on lifecycle changes.
type Scheduler interface {
	Start(id string)
	Stop(id string)
}

// SuppressionWriter records addresses that must never receive automated
// sends again. Bounce and opt-out callbacks write through this.
type SuppressionWriter interface {
	Suppress(ctx context.Context, email string, reason domain.SuppressionReason, source domain.SuppressionSource) error
}

// Service implements campaign business logic. It coordinates the repository,
// the suppression list, and the sequencer supervisor. All public methods are
// safe for concurrent use if the underlying repository is concurrency-safe.
type Service struct {
	repo       Repository
	suppressor SuppressionWriter
	scheduler  Scheduler
}

// NewService creates a campaign service. scheduler may be nil (the headless
// worker wires it later via SetScheduler to break the construction cycle).
func NewService(repo Repository, suppressor SuppressionWriter, scheduler Scheduler) *Service {
	return &Service{repo: repo, suppressor: suppressor, scheduler: scheduler}
}

// SetScheduler wires the sequencer supervisor after construction.
func (s *Service) SetScheduler(sched Scheduler) { s.scheduler = sched }

// CreateInput holds the fields for creating a new campaign.
type CreateInput struct {
	Name       string          `json:"name"`
	WebhookURL string          `json:"webhook_url"`
	Schedule   domain.Schedule `json:"schedule"`
	Steps      []domain.Step   `json:"steps"`
}

// Create validates and persists a new campaign in draft status.
func (s *Service) Create(ctx context.Context, input CreateInput) (*domain.Campaign, error) {
	if input.Name == "" {
		return nil, fmt.Errorf("name is required")
	}
	if input.Schedule.FrequencyMinutes <= 0 {
		input.Schedule.FrequencyMinutes = 60
	}

	now := time.Now()
	c := &domain.Campaign{
		ID:         uuid.New().String(),
		Name:       input.Name,
		Status:     domain.CampaignDraft,
		WebhookURL: input.WebhookURL,
		Schedule:   input.Schedule,
		Steps:      input.Steps,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	c.SortSteps()

	id, err := s.repo.Create(ctx, c)
	if err != nil {
		return nil, err
	}
	c.ID = id
	return c, nil
}

// Get returns a single campaign.
func (s *Service) Get(ctx context.Context, id string) (*domain.Campaign, error) {
	return s.repo.Get(ctx, id)
}

// List returns campaigns matching the filter.
func (s *Service) List(ctx context.Context, f ListFilter) ([]domain.Campaign, int, error) {
	return s.repo.List(ctx, f)
}

// UpdateInput holds the mutable fields for a campaign update. Nil fields are
// not applied.
type UpdateInput struct {
	Name       *string          `json:"name"`
	WebhookURL *string          `json:"webhook_url"`
	Schedule   *domain.Schedule `json:"schedule"`
	Steps      *[]domain.Step   `json:"steps"`
}

// Update modifies campaign configuration. Active campaigns must be paused
// before their schedule or steps change.
func (s *Service) Update(ctx context.Context, id string, u UpdateInput) (*domain.Campaign, error) {
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.Status == domain.CampaignActive && (u.Schedule != nil || u.Steps != nil) {
		return nil, ErrInvalidTransition
	}
	if u.Name != nil {
		c.Name = *u.Name
	}
	if u.WebhookURL != nil {
		c.WebhookURL = *u.WebhookURL
	}
	if u.Schedule != nil {
		c.Schedule = *u.Schedule
	}
	if u.Steps != nil {
		c.Steps = *u.Steps
		c.SortSteps()
	}
	c.UpdatedAt = time.Now()
	if err := s.repo.Save(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Delete removes a campaign. Active campaigns must be paused first.
func (s *Service) Delete(ctx context.Context, id string) error {
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if c.Status == domain.CampaignActive {
		return ErrInvalidTransition
	}
	return s.repo.Delete(ctx, id)
}

// Enroll adds a lead to the campaign. Enrolling the same lead twice is a
// no-op; the bool reports whether a new enrollment was created.
func (s *Service) Enroll(ctx context.Context, campaignID, leadID, email string) (bool, error) {
	c, err := s.repo.Get(ctx, campaignID)
	if err != nil {
		return false, err
	}
	if c.FindEnrollment(leadID) != nil {
		return false, nil
	}
	c.Leads = append(c.Leads, domain.LeadEnrollment{
		LeadID:      leadID,
		Email:       domain.NormalizeEmail(email),
		Status:      domain.EnrollmentPending,
		CurrentStep: 1,
		AddedAt:     time.Now(),
	})
	c.Stats.TotalLeads = len(c.Leads)
	c.UpdatedAt = time.Now()
	if err := s.repo.Save(ctx, c); err != nil {
		return false, err
	}
	return true, nil
}

// Unenroll removes a lead's enrollment from the campaign.
func (s *Service) Unenroll(ctx context.Context, campaignID, leadID string) error {
	c, err := s.repo.Get(ctx, campaignID)
	if err != nil {
		return err
	}
	for i := range c.Leads {
		if c.Leads[i].LeadID == leadID {
			c.Leads = append(c.Leads[:i], c.Leads[i+1:]...)
			c.Stats.TotalLeads = len(c.Leads)
			c.UpdatedAt = time.Now()
			return s.repo.Save(ctx, c)
		}
	}
	return ErrNotEnrolled
}

// SetLeadPaused flips the manual per-lead override; a paused lead is never
// selected regardless of its status.
func (s *Service) SetLeadPaused(ctx context.Context, campaignID, leadID string, paused bool) error {
	c, err := s.repo.Get(ctx, campaignID)
	if err != nil {
		return err
	}
	e := c.FindEnrollment(leadID)
	if e == nil {
		return ErrNotEnrolled
	}
	e.Paused = paused
	c.UpdatedAt = time.Now()
	return s.repo.Save(ctx, c)
}

// Start validates campaign configuration and activates its sequencer.
// Configuration errors are rejected here, synchronously, before any tick is
// armed: missing webhook URL, no active steps, or no enrolled leads.
func (s *Service) Start(ctx context.Context, id string) error {
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if c.Status == domain.CampaignCompleted {
		return ErrInvalidTransition
	}
	if c.WebhookURL == "" {
		return ErrMissingWebhookURL
	}
	if c.ActiveStepCount() == 0 {
		return ErrNoActiveSteps
	}
	if len(c.Leads) == 0 {
		return ErrNoLeads
	}

	now := time.Now()
	c.Status = domain.CampaignActive
	if c.StartedAt == nil {
		c.StartedAt = &now
	}
	c.UpdatedAt = now
	if err := s.repo.Save(ctx, c); err != nil {
		return err
	}

	if s.scheduler != nil {
		s.scheduler.Start(id)
	}
	logger.Info("campaign started",
		"campaign_id", id, "leads", len(c.Leads), "active_steps", c.ActiveStepCount())
	return nil
}

// Pause suspends an active campaign and disarms its timer. A tick already in
// flight still completes and persists its result.
func (s *Service) Pause(ctx context.Context, id string) error {
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if c.Status != domain.CampaignActive {
		return ErrInvalidTransition
	}
	c.Status = domain.CampaignPaused
	c.UpdatedAt = time.Now()
	if err := s.repo.Save(ctx, c); err != nil {
		return err
	}
	if s.scheduler != nil {
		s.scheduler.Stop(id)
	}
	return nil
}

// RecordSendInput carries the counterparty's asynchronous send confirmation.
type RecordSendInput struct {
	Step    int    `json:"step"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
	From    string `json:"from"`
}

// RecordSend applies the success transition for an enrollment when the
// counterparty confirms a send through the log-send callback. Confirmations
// for steps the enrollment has already advanced past are no-ops, so
// redelivered callbacks stay idempotent.
func (s *Service) RecordSend(ctx context.Context, campaignID, leadID string, in RecordSendInput) error {
	c, err := s.repo.Get(ctx, campaignID)
	if err != nil {
		return err
	}
	e := c.FindEnrollment(leadID)
	if e == nil {
		return ErrNotEnrolled
	}
	if e.Status.IsTerminal() {
		return nil
	}
	// A confirmation without a step number counts as the current step only
	// while nothing has been recorded yet; once a send is on the books a
	// stepless redelivery must not advance the enrollment again.
	if e.LastStepSent > 0 && in.Step <= e.LastStepSent {
		return nil // already recorded
	}
	step := c.ResolveStep(e.CurrentStep)
	if step == nil {
		return nil
	}
	c.MarkSent(e, step, time.Now())
	c.UpdatedAt = time.Now()
	return s.repo.Save(ctx, c)
}

// RecordReply marks an enrollment replied (terminal) and bumps reply stats.
func (s *Service) RecordReply(ctx context.Context, campaignID, leadID string) error {
	return s.divert(ctx, campaignID, leadID, domain.EnrollmentReplied, "")
}

// RecordBounce marks an enrollment bounced (terminal), bumps bounce stats,
// and adds the address to the suppression list.
func (s *Service) RecordBounce(ctx context.Context, campaignID, leadID string) error {
	return s.divert(ctx, campaignID, leadID, domain.EnrollmentBounced, domain.ReasonBounce)
}

// RecordOptOut marks an enrollment opted out (terminal), bumps opt-out
// stats, and adds the address to the suppression list.
func (s *Service) RecordOptOut(ctx context.Context, campaignID, leadID string) error {
	return s.divert(ctx, campaignID, leadID, domain.EnrollmentOptedOut, domain.ReasonOptOut)
}

// divert applies a terminal diversion transition. Enrollments that already
// reached any terminal status are left untouched, so redelivered callbacks
// and late callbacks of a different kind cannot double count stats.
func (s *Service) divert(ctx context.Context, campaignID, leadID string, status domain.EnrollmentStatus, reason domain.SuppressionReason) error {
	c, err := s.repo.Get(ctx, campaignID)
	if err != nil {
		return err
	}
	e := c.FindEnrollment(leadID)
	if e == nil {
		return ErrNotEnrolled
	}
	if e.Status.IsTerminal() {
		return nil
	}

	e.Status = status
	switch status {
	case domain.EnrollmentReplied:
		c.Stats.RepliesReceived++
	case domain.EnrollmentBounced:
		c.Stats.Bounces++
	case domain.EnrollmentOptedOut:
		c.Stats.OptedOut++
	}
	c.UpdatedAt = time.Now()
	if err := s.repo.Save(ctx, c); err != nil {
		return err
	}

	if reason != "" && s.suppressor != nil {
		if err := s.suppressor.Suppress(ctx, e.Email, reason, domain.SourceCallback); err != nil {
			logger.Error("suppression write failed",
				"campaign_id", campaignID, "lead_id", e.LeadID, "email", e.Email, "error", err.Error())
		}
	}
	return nil
}
