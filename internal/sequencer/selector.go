package sequencer

import (
	"context"
	"log"
	"time"

	"github.com/ignite/leadpilot/internal/domain"
)

// SuppressionChecker answers whether an address is on the global
// do-not-contact list.
type SuppressionChecker interface {
	IsSuppressed(ctx context.Context, email string) (bool, error)
}

// Selector picks the next due (enrollment, step) pair for a campaign.
type Selector struct {
	suppressions SuppressionChecker
	leads        LeadDirectory
}

func NewSelector(suppressions SuppressionChecker, leads LeadDirectory) *Selector {
	return &Selector{suppressions: suppressions, leads: leads}
}

// Next scans enrollments in stored order and returns the first pair due to
// be messaged, or (nil, nil) when nothing is due. First match wins; there is
// no priority reordering, which keeps selection deterministic and auditable.
//
// Next may flip an enrollment to blacklisted (address suppressed) or
// completed (sequence exhausted) while scanning. These are corrective
// writes discovered during eligibility checks; the returned dirty flag
// tells the caller the campaign needs persisting even when nothing was
// selected.
func (s *Selector) Next(ctx context.Context, c *domain.Campaign, now time.Time) (e *domain.LeadEnrollment, step *domain.Step, dirty bool) {
	for i := range c.Leads {
		entry := &c.Leads[i]

		if entry.Status.IsTerminal() || entry.Paused {
			continue
		}

		if s.suppressions != nil {
			suppressed, err := s.suppressions.IsSuppressed(ctx, entry.Email)
			if err != nil {
				log.Printf("[sequencer.Selector] suppression check failed for lead %s: %v", entry.LeadID, err)
				continue
			}
			if suppressed {
				entry.Status = domain.EnrollmentBlacklisted
				dirty = true
				continue
			}
		}

		// Manual-only is a hard exclusion on the external lead record, not
		// a state change. An absent record is left for the tick engine to
		// handle after selection.
		if s.leads != nil {
			lead, err := s.leads.Get(ctx, entry.LeadID)
			if err != nil {
				log.Printf("[sequencer.Selector] lead read failed for %s: %v", entry.LeadID, err)
				continue
			}
			if lead != nil && lead.ManualOnly {
				continue
			}
		}

		resolved := c.ResolveStep(entry.CurrentStep)
		if resolved == nil {
			entry.Status = domain.EnrollmentCompleted
			dirty = true
			continue
		}

		// delay_days gates every send after the first.
		if entry.CurrentStep > 1 && entry.LastSentAt != nil {
			due := entry.LastSentAt.Add(time.Duration(resolved.DelayDays) * 24 * time.Hour)
			if now.Before(due) {
				continue
			}
		}

		return entry, resolved, dirty
	}
	return nil, nil, dirty
}
