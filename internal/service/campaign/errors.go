package campaign

import "errors"

// Sentinel errors for the campaign service layer.
var (
	ErrNotFound          = errors.New("campaign not found")
	ErrNotEnrolled       = errors.New("lead is not enrolled in campaign")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrMissingWebhookURL = errors.New("campaign has no webhook URL")
	ErrNoActiveSteps     = errors.New("campaign has no active steps")
	ErrNoLeads           = errors.New("campaign has no enrolled leads")
)
