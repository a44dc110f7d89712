// Package campaign implements campaign lifecycle management.
//
// The service layer contains all business logic for creating, enrolling,
// starting, pausing, and reconciling outreach campaigns, including the
// inbound counterparty callbacks (log-send, reply, bounce, opt-out). It
// depends on the Repository interface defined in this package and should
// never import from api/.
//
// Repository implementations live in repository/postgres/; tests use an
// in-memory fake.
package campaign
