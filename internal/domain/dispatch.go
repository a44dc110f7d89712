package domain

import "time"

// DispatchOutcome categorizes one webhook dispatch attempt.
type DispatchOutcome string

const (
	// DispatchSent means the counterparty confirmed (or implied) a send.
	DispatchSent DispatchOutcome = "sent"
	// DispatchFailed means the counterparty explicitly reported a failure.
	DispatchFailed DispatchOutcome = "failed"
	// DispatchHTTPError means the call completed with a non-2xx status.
	DispatchHTTPError DispatchOutcome = "http_error"
	// DispatchTransportError means the call produced no HTTP response.
	DispatchTransportError DispatchOutcome = "transport_error"
)

// DispatchAttempt is one entry in the bounded webhook history log. The log is
// observability only; it never influences tick control flow.
type DispatchAttempt struct {
	ID         string          `json:"id"`
	CampaignID string          `json:"campaign_id"`
	LeadID     string          `json:"lead_id"`
	Step       int             `json:"step"`
	Email      string          `json:"email"`
	Outcome    DispatchOutcome `json:"outcome"`
	Detail     string          `json:"detail,omitempty"`
	At         time.Time       `json:"at"`
}
