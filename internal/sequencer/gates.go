package sequencer

import (
	"fmt"
	"time"

	"github.com/ignite/leadpilot/internal/domain"
)

// scheduleLocation resolves the campaign timezone, falling back to the
// system local zone when the IANA id does not resolve. A bad timezone must
// never abort a tick.
func scheduleLocation(s domain.Schedule) *time.Location {
	if s.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// isoWeekday maps time.Weekday to ISO numbering: Monday=1 .. Sunday=7.
func isoWeekday(d time.Weekday) int {
	if d == time.Sunday {
		return 7
	}
	return int(d)
}

// WindowOpen reports whether now falls inside the campaign's sending
// schedule: the local weekday must be listed in DaysOfWeek and the local
// wall-clock time must fall within at least one [start, end) window. An
// empty window list means the campaign never sends; an empty day list
// leaves every weekday eligible.
func WindowOpen(s domain.Schedule, now time.Time) bool {
	local := now.In(scheduleLocation(s))

	if len(s.DaysOfWeek) > 0 {
		day := isoWeekday(local.Weekday())
		ok := false
		for _, d := range s.DaysOfWeek {
			if d == day {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}

	minute := local.Hour()*60 + local.Minute()
	for _, w := range s.TimeWindows {
		start, err := parseClock(w.Start)
		if err != nil {
			continue
		}
		end, err := parseClock(w.End)
		if err != nil {
			continue
		}
		if minute >= start && minute < end {
			return true
		}
	}
	return false
}

// parseClock parses "HH:MM" into minutes since midnight. "24:00" is a
// valid exclusive end meaning end-of-day.
func parseClock(v string) (int, error) {
	var h, m int
	if _, err := fmt.Sscanf(v, "%d:%d", &h, &m); err != nil {
		return 0, err
	}
	if h < 0 || h > 24 || m < 0 || m > 59 || (h == 24 && m != 0) {
		return 0, fmt.Errorf("clock value out of range: %q", v)
	}
	return h*60 + m, nil
}

// ApplyDailyReset zeroes SendsToday the first time a tick observes a new
// calendar date in the campaign timezone. Returns true when the campaign
// was mutated and needs persisting.
func ApplyDailyReset(c *domain.Campaign, now time.Time) bool {
	today := now.In(scheduleLocation(c.Schedule)).Format("2006-01-02")
	if c.Stats.LastSendReset == today {
		return false
	}
	c.Stats.SendsToday = 0
	c.Stats.LastSendReset = today
	return true
}

// UnderDailyLimit reports whether the campaign may still send today. A
// non-positive DailyLimit means uncapped.
func UnderDailyLimit(c *domain.Campaign) bool {
	if c.Schedule.DailyLimit <= 0 {
		return true
	}
	return c.Stats.SendsToday < c.Schedule.DailyLimit
}
