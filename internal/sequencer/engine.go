package sequencer

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/ignite/leadpilot/internal/domain"
	"github.com/ignite/leadpilot/internal/pkg/distlock"
	"github.com/ignite/leadpilot/internal/service/campaign"
)

// CampaignStore is the persistence surface the sequencer needs. Campaigns
// are read and written whole-object; every tick reloads fresh, never caches.
type CampaignStore interface {
	Get(ctx context.Context, id string) (*domain.Campaign, error)
	Save(ctx context.Context, c *domain.Campaign) error
	ListActiveIDs(ctx context.Context) ([]string, error)
}

// LeadDirectory is the external lead-record collaborator. Get returns
// (nil, nil) when no record exists; RecordOutbound appends an outreach
// entry plus a matching activity to the record.
type LeadDirectory interface {
	Get(ctx context.Context, id string) (*domain.Lead, error)
	RecordOutbound(ctx context.Context, id string, m domain.MessageRecord) error
}

// Dispatcher performs the outbound webhook call. *Gateway in production;
// faked in tests.
type Dispatcher interface {
	Dispatch(ctx context.Context, c *domain.Campaign, step *domain.Step, lead *domain.Lead, subject, body string) *DispatchResult
}

// LockFactory builds a distributed lock for a key. nil disables locking
// (single-process deployments).
type LockFactory func(key string) distlock.Lock

// Engine executes one campaign tick: gate, select, render, dispatch,
// reconcile, persist. At most one lead-step pair per tick.
type Engine struct {
	store    CampaignStore
	leads    LeadDirectory
	selector *Selector
	gateway  Dispatcher
	history  HistorySink
	newLock  LockFactory
}

func NewEngine(store CampaignStore, leads LeadDirectory, suppressions SuppressionChecker, gateway Dispatcher, history HistorySink, newLock LockFactory) *Engine {
	return &Engine{
		store:    store,
		leads:    leads,
		selector: NewSelector(suppressions, leads),
		gateway:  gateway,
		history:  history,
		newLock:  newLock,
	}
}

// RunTick processes one tick for a campaign. The returned stop flag tells
// the supervisor to disarm the campaign's timer (campaign gone, no longer
// active, or just completed). Per-tick failures are scoped to the tick;
// they never escalate to a process fault.
func (e *Engine) RunTick(ctx context.Context, campaignID string) (stop bool, err error) {
	if e.newLock != nil {
		lock := e.newLock("campaign_tick:" + campaignID)
		acquired, lockErr := lock.TryAcquire(ctx)
		if lockErr != nil {
			log.Printf("[sequencer.Engine] tick lock error for %s: %v", campaignID, lockErr)
		} else if !acquired {
			return false, nil // another process holds this campaign's tick
		} else {
			defer lock.Release(ctx)
		}
	}

	c, err := e.store.Get(ctx, campaignID)
	if err != nil {
		if errors.Is(err, campaign.ErrNotFound) {
			return true, nil
		}
		return false, err
	}

	if c.Status != domain.CampaignActive {
		return true, nil
	}

	now := time.Now()
	dirty := ApplyDailyReset(c, now)

	if !WindowOpen(c.Schedule, now) || !UnderDailyLimit(c) {
		if dirty {
			e.persist(ctx, c, now)
		}
		return false, nil
	}

	entry, step, selDirty := e.selector.Next(ctx, c, now)
	dirty = dirty || selDirty

	if entry == nil {
		if len(c.Leads) > 0 && c.AllLeadsTerminal() {
			c.Status = domain.CampaignCompleted
			c.CompletedAt = &now
			e.persist(ctx, c, now)
			log.Printf("[sequencer.Engine] Campaign %s completed (%d leads, %d sends)", c.ID, len(c.Leads), c.Stats.EmailsSent)
			return true, nil
		}
		if dirty {
			e.persist(ctx, c, now)
		}
		return false, nil
	}

	lead, err := e.leads.Get(ctx, entry.LeadID)
	if err != nil {
		// Infrastructure failure reading the collaborator: leave state
		// untouched and let the next tick retry.
		log.Printf("[sequencer.Engine] lead read failed for %s: %v", entry.LeadID, err)
		if dirty {
			e.persist(ctx, c, now)
		}
		return false, nil
	}
	if lead == nil {
		// A missing foreign record will not self-heal; park the enrollment.
		entry.Status = domain.EnrollmentError
		entry.Error = "lead record not found"
		e.persist(ctx, c, now)
		return false, nil
	}

	subject, body := RenderStep(step, lead)
	result := e.gateway.Dispatch(ctx, c, step, lead, subject, body)
	e.record(ctx, c, entry, step, result)

	switch result.Outcome {
	case domain.DispatchSent:
		c.MarkSent(entry, step, now)
		e.persist(ctx, c, now)
		e.logOutreach(ctx, lead.ID, step, result, subject, body, now)
	case domain.DispatchFailed:
		entry.Error = result.Detail
		e.persist(ctx, c, now)
	case domain.DispatchHTTPError:
		log.Printf("[sequencer.Engine] webhook HTTP error for campaign %s lead %s: %s", c.ID, entry.LeadID, result.Detail)
		if dirty {
			e.persist(ctx, c, now)
		}
	case domain.DispatchTransportError:
		log.Printf("[sequencer.Engine] webhook unreachable for campaign %s: %s", c.ID, result.Detail)
		if dirty {
			e.persist(ctx, c, now)
		}
	}
	return false, nil
}

func (e *Engine) persist(ctx context.Context, c *domain.Campaign, now time.Time) {
	c.UpdatedAt = now
	if err := e.store.Save(ctx, c); err != nil {
		log.Printf("[sequencer.Engine] save campaign %s failed: %v", c.ID, err)
	}
}

// record appends the attempt to the bounded history log. Observability
// only: failures are logged and swallowed.
func (e *Engine) record(ctx context.Context, c *domain.Campaign, entry *domain.LeadEnrollment, step *domain.Step, result *DispatchResult) {
	if e.history == nil {
		return
	}
	attempt := domain.DispatchAttempt{
		ID:         uuid.New().String(),
		CampaignID: c.ID,
		LeadID:     entry.LeadID,
		Step:       step.Number,
		Email:      entry.Email,
		Outcome:    result.Outcome,
		Detail:     result.Detail,
		At:         time.Now(),
	}
	if err := e.history.Append(ctx, attempt); err != nil {
		log.Printf("[sequencer.Engine] history append failed: %v", err)
	}
}

// logOutreach writes the sent message onto the external lead record,
// preferring counterparty-supplied text over the local render.
func (e *Engine) logOutreach(ctx context.Context, leadID string, step *domain.Step, result *DispatchResult, subject, body string, now time.Time) {
	if result.Subject != "" {
		subject = result.Subject
	}
	if result.Body != "" {
		body = result.Body
	}
	m := domain.MessageRecord{
		Step:    step.Number,
		Subject: subject,
		Body:    body,
		From:    result.From,
		SentAt:  now,
	}
	if err := e.leads.RecordOutbound(ctx, leadID, m); err != nil {
		log.Printf("[sequencer.Engine] outreach log failed for lead %s: %v", leadID, err)
	}
}
