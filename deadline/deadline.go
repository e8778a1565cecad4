// Package deadline computes appeal-deadline verdicts from a violation date
// and a per-jurisdiction deadline window. It is pure date arithmetic; the
// clock is injectable for tests.
package deadline

import "time"

// UrgentWindowDays is the remaining-days threshold at or under which an
// appeal is flagged urgent.
const UrgentWindowDays = 3

// Deadline is the verdict for one violation. DaysRemaining is clamped at
// zero: IsPastDeadline is the only negative-time signal.
type Deadline struct {
	DeadlineDate   time.Time
	DaysRemaining  int
	IsPastDeadline bool
	IsUrgent       bool
}

// Compute evaluates the deadline against the current clock.
func Compute(violationDate time.Time, deadlineDays int) Deadline {
	return ComputeAt(violationDate, deadlineDays, time.Now())
}

// ComputeAt evaluates the deadline as of now. Dates are compared at day
// granularity in the violation date's location, so a deadline holds through
// the end of its calendar day.
func ComputeAt(violationDate time.Time, deadlineDays int, now time.Time) Deadline {
	loc := violationDate.Location()
	deadlineDate := truncateToDay(violationDate.AddDate(0, 0, deadlineDays))
	today := truncateToDay(now.In(loc))

	// Subtract civil dates, not wall-clock durations: a window crossing a DST
	// transition is an hour short or long, and dividing by 24 would truncate a
	// whole day off the count.
	remaining := int(civilUTC(deadlineDate).Sub(civilUTC(today)) / (24 * time.Hour))
	past := remaining < 0
	if past {
		remaining = 0
	}
	return Deadline{
		DeadlineDate:   deadlineDate,
		DaysRemaining:  remaining,
		IsPastDeadline: past,
		// Past-deadline clamps remaining to zero; urgency only applies while
		// an appeal can still be filed.
		IsUrgent: !past && remaining <= UrgentWindowDays,
	}
}

func truncateToDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// civilUTC rebuilds a day-truncated time in UTC, where every day is exactly
// 24 hours.
func civilUTC(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
