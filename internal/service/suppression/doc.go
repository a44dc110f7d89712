// Package suppression manages the global do-not-contact list. Addresses
// land here from bounce and opt-out callbacks and from manual admin entry;
// the sequencer consults the list before every send and quarantines
// enrollments whose address is suppressed.
package suppression
