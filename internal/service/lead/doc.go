// Package lead manages the contact records campaigns enroll. A lead is a
// standalone document; campaign enrollment state lives inside each campaign,
// not here. The sequencer reads leads for template rendering and appends
// message history and activity entries after each dispatch.
package lead
