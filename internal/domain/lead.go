package domain

import "time"

// Lead is the durable CRM record for a single contact. The sequencer treats
// it as an external collaborator: it reads contact attributes and the manual
// handling flag, and appends to the message history and activity log.
type Lead struct {
	ID          string  `json:"id" db:"id"`
	ContactName string  `json:"contact_name" db:"contact_name"`
	FirstName   string  `json:"first_name" db:"first_name"`
	Company     string  `json:"company" db:"company"`
	Industry    string  `json:"industry" db:"industry"`
	Website     string  `json:"website" db:"website"`
	Email       string  `json:"email" db:"email"`
	Phone       string  `json:"phone" db:"phone"`
	Address     string  `json:"address" db:"address"`
	DealValue   float64 `json:"deal_value" db:"deal_value"`

	// ManualOnly excludes the lead from any automated sequence; only a human
	// may contact it. Hard exclusion, not a state change.
	ManualOnly bool `json:"manual_only" db:"manual_only"`

	MessageHistory []MessageRecord `json:"message_history" db:"message_history"`
	Activities     []Activity      `json:"activities" db:"activities"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// MessageRecord is one entry in a lead's chronological message history.
type MessageRecord struct {
	Direction string    `json:"direction"` // "outbound" or "inbound"
	Step      int       `json:"step,omitempty"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	From      string    `json:"from,omitempty"`
	SentAt    time.Time `json:"sent_at"`
}

// Activity is one entry in a lead's activity log.
type Activity struct {
	Kind string    `json:"kind"`
	Note string    `json:"note"`
	At   time.Time `json:"at"`
}

// AppendMessage appends to the chronological message history.
func (l *Lead) AppendMessage(m MessageRecord) {
	l.MessageHistory = append(l.MessageHistory, m)
}

// AppendActivity appends to the activity log.
func (l *Lead) AppendActivity(kind, note string, at time.Time) {
	l.Activities = append(l.Activities, Activity{Kind: kind, Note: note, At: at})
}
