// Package sequencer drives campaign outreach. Each active campaign owns a
// periodic timer; every tick reloads the campaign, applies the send-window
// and daily-limit gates, selects at most one due (lead, step) pair, renders
// the step templates, dispatches one webhook call to the campaign's
// counterparty, and reconciles the reply into durable enrollment state.
//
// Throughput is deliberately one send per tick per campaign. There is no
// batching within a tick and no retry inside the dispatch layer; a failed or
// unanswered attempt is simply eligible again on the next tick.
package sequencer
