package sequencer

import (
	"context"
	"errors"

	"github.com/ignite/leadpilot/internal/domain"
	"github.com/ignite/leadpilot/internal/service/lead"
)

// leadServiceDirectory adapts the lead service to LeadDirectory: an absent
// record maps to (nil, nil) so the tick engine can tell "missing" (terminal
// data error) apart from an infrastructure failure (retried next tick).
type leadServiceDirectory struct {
	svc *lead.Service
}

// NewLeadDirectory wraps the lead service for use by the engine.
func NewLeadDirectory(svc *lead.Service) LeadDirectory {
	return &leadServiceDirectory{svc: svc}
}

func (d *leadServiceDirectory) Get(ctx context.Context, id string) (*domain.Lead, error) {
	l, err := d.svc.Get(ctx, id)
	if errors.Is(err, lead.ErrNotFound) {
		return nil, nil
	}
	return l, err
}

func (d *leadServiceDirectory) RecordOutbound(ctx context.Context, id string, m domain.MessageRecord) error {
	return d.svc.RecordOutbound(ctx, id, m)
}
