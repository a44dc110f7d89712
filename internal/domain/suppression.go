package domain

import (
	"strings"
	"time"
)

// SuppressionReason enumerates why an address was suppressed.
type SuppressionReason string

const (
	ReasonBounce SuppressionReason = "bounce"
	ReasonOptOut SuppressionReason = "opt_out"
	ReasonManual SuppressionReason = "manual"
)

// SuppressionSource indicates where the suppression signal originated.
type SuppressionSource string

const (
	SourceCallback SuppressionSource = "webhook_callback"
	SourceAdmin    SuppressionSource = "admin"
)

// Suppression is a single entry in the global suppression list. Entries are
// never removed automatically; only an explicit administrative action may
// delete one.
type Suppression struct {
	ID        string            `json:"id" db:"id"`
	Email     string            `json:"email" db:"email"`
	Reason    SuppressionReason `json:"reason" db:"reason"`
	Source    SuppressionSource `json:"source" db:"source"`
	CreatedAt time.Time         `json:"created_at" db:"created_at"`
}

// NormalizeEmail lowercases and trims an address; every suppression read and
// write goes through this so lookups are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
