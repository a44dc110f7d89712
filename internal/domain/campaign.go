package domain

import (
	"sort"
	"time"
)

// CampaignStatus enumerates the lifecycle states of a campaign.
type CampaignStatus string

const (
	CampaignDraft     CampaignStatus = "draft"
	CampaignActive    CampaignStatus = "active"
	CampaignPaused    CampaignStatus = "paused"
	CampaignCompleted CampaignStatus = "completed"
)

// Campaign is a configured multi-step outreach sequence targeting a set of
// enrolled leads. The campaign aggregate is read and written whole-object;
// last writer wins.
type Campaign struct {
	ID         string           `json:"id" db:"id"`
	Name       string           `json:"name" db:"name"`
	Status     CampaignStatus   `json:"status" db:"status"`
	WebhookURL string           `json:"webhook_url" db:"webhook_url"`
	Schedule   Schedule         `json:"schedule" db:"schedule"`
	Steps      []Step           `json:"steps" db:"steps"`
	Leads      []LeadEnrollment `json:"leads" db:"leads"`
	Stats      Stats            `json:"stats" db:"stats"`

	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
	StartedAt   *time.Time `json:"started_at" db:"started_at"`
	CompletedAt *time.Time `json:"completed_at" db:"completed_at"`
}

// Schedule controls when a campaign's sequencer is allowed to send.
type Schedule struct {
	// FrequencyMinutes is the minimum spacing between ticks.
	FrequencyMinutes int `json:"frequency_minutes"`
	// TimeWindows are wall-clock [start,end) windows in the campaign timezone.
	// An empty list means the campaign never sends.
	TimeWindows []TimeWindow `json:"time_windows"`
	// Timezone is an IANA zone id. Resolution errors fall back to local time.
	Timezone string `json:"timezone"`
	// DailyLimit caps successful sends per calendar day in Timezone.
	DailyLimit int `json:"daily_limit"`
	// DaysOfWeek uses ISO weekday numbers: Monday=1 .. Sunday=7.
	DaysOfWeek []int `json:"days_of_week"`
}

// TimeWindow is a wall-clock sending window in "HH:MM" 24h format.
type TimeWindow struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Step is one position in a campaign's message sequence.
type Step struct {
	Number          int    `json:"step_number"`
	SubjectTemplate string `json:"subject_template"`
	BodyTemplate    string `json:"body_template"`
	// DelayDays is the minimum elapsed days since the previous step's send.
	// Ignored for a lead's first send.
	DelayDays int  `json:"delay_days"`
	Active    bool `json:"active"`
}

// EnrollmentStatus enumerates the per-lead progression states within a campaign.
type EnrollmentStatus string

const (
	EnrollmentPending     EnrollmentStatus = "pending"
	EnrollmentSent        EnrollmentStatus = "sent"
	EnrollmentWaiting     EnrollmentStatus = "waiting"
	EnrollmentCompleted   EnrollmentStatus = "completed"
	EnrollmentReplied     EnrollmentStatus = "replied"
	EnrollmentBounced     EnrollmentStatus = "bounced"
	EnrollmentOptedOut    EnrollmentStatus = "opted_out"
	EnrollmentBlacklisted EnrollmentStatus = "blacklisted"
	EnrollmentError       EnrollmentStatus = "error"
)

// IsTerminal reports whether automated progression has ended for this status.
func (s EnrollmentStatus) IsTerminal() bool {
	switch s {
	case EnrollmentCompleted, EnrollmentReplied, EnrollmentBounced,
		EnrollmentOptedOut, EnrollmentBlacklisted, EnrollmentError:
		return true
	}
	return false
}

// LeadEnrollment is the per-lead progress record within a campaign.
// Invariants: CurrentStep never decreases; SentCount never decreases.
type LeadEnrollment struct {
	LeadID       string           `json:"lead_id"`
	Email        string           `json:"email"`
	Status       EnrollmentStatus `json:"status"`
	CurrentStep  int              `json:"current_step"`
	LastSentAt   *time.Time       `json:"last_sent_at"`
	SentCount    int              `json:"sent_count"`
	LastStepSent int              `json:"last_step_sent"`
	// Paused is a manual per-lead override, independent of Status.
	Paused  bool      `json:"paused"`
	AddedAt time.Time `json:"added_at"`
	Error   string    `json:"error,omitempty"`
}

// Stats aggregates campaign-level counters.
type Stats struct {
	TotalLeads      int `json:"total_leads"`
	EmailsSent      int `json:"emails_sent"`
	RepliesReceived int `json:"replies_received"`
	Bounces         int `json:"bounces"`
	OptedOut        int `json:"opted_out"`
	SendsToday      int `json:"sends_today"`
	// LastSendReset is the calendar date ("2006-01-02", campaign timezone)
	// SendsToday was last reset on.
	LastSendReset string `json:"last_send_reset"`
}

// FindEnrollment returns a pointer into Leads for the given lead id, or nil.
func (c *Campaign) FindEnrollment(leadID string) *LeadEnrollment {
	for i := range c.Leads {
		if c.Leads[i].LeadID == leadID {
			return &c.Leads[i]
		}
	}
	return nil
}

// ResolveStep walks step numbers starting at from, skipping inactive steps.
// A numbering gap or running past the last step ends the sequence (nil).
// Step numbers are 1-based and must be contiguous for a lead to progress.
func (c *Campaign) ResolveStep(from int) *Step {
	byNumber := make(map[int]*Step, len(c.Steps))
	max := 0
	for i := range c.Steps {
		byNumber[c.Steps[i].Number] = &c.Steps[i]
		if c.Steps[i].Number > max {
			max = c.Steps[i].Number
		}
	}
	for n := from; n <= max; n++ {
		s, ok := byNumber[n]
		if !ok {
			return nil // gap ends the sequence
		}
		if s.Active {
			return s
		}
	}
	return nil
}

// ActiveStepCount returns how many steps are active.
func (c *Campaign) ActiveStepCount() int {
	n := 0
	for _, s := range c.Steps {
		if s.Active {
			n++
		}
	}
	return n
}

// AllLeadsTerminal reports whether every enrollment has reached a terminal
// status or is manually paused forever; used by the tick engine to decide
// campaign completion. Manual pauses do NOT count as terminal.
func (c *Campaign) AllLeadsTerminal() bool {
	for i := range c.Leads {
		if !c.Leads[i].Status.IsTerminal() {
			return false
		}
	}
	return true
}

// SortSteps orders Steps by step number; repositories call this after load so
// selector logic can rely on stored order.
func (c *Campaign) SortSteps() {
	sort.Slice(c.Steps, func(i, j int) bool { return c.Steps[i].Number < c.Steps[j].Number })
}

// MarkSent applies the confirmed-send transition for an enrollment: record
// the send, then advance to the next active step (status waiting) or finish
// the sequence (status completed). Also bumps the campaign send counters.
func (c *Campaign) MarkSent(e *LeadEnrollment, step *Step, at time.Time) {
	e.LastSentAt = &at
	e.SentCount++
	e.LastStepSent = step.Number
	e.Error = ""
	if next := c.ResolveStep(step.Number + 1); next != nil {
		e.CurrentStep = next.Number
		e.Status = EnrollmentWaiting
	} else {
		e.Status = EnrollmentCompleted
	}
	c.Stats.EmailsSent++
	c.Stats.SendsToday++
}
