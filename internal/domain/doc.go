// Package domain defines the core business types for the LeadPilot CRM.
//
// Types in this package are pure value objects with no behavior beyond
// small helpers, no database dependencies, and no HTTP concerns. They are
// the shared language between handlers, services, repositories, and the
// campaign sequencer.
//
// Rules for this package:
//   - No imports from other internal/ packages
//   - No *sql.DB, no http.Request, no context.Context in struct fields
//   - JSON/DB tags are allowed (they're metadata, not behavior)
//   - Pure helper methods on the types are allowed
//   - Constants and enums belong here
package domain
