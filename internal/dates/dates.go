// Package dates holds the pure date arithmetic of the pipeline: next
// occurrence, age, decade milestones, and whole-day distances. No I/O.
//
// Leap-day policy: birthdays are projected with time.Date, which
// normalizes Feb 29 to Mar 1 in non-leap target years. Occurrence and
// milestone computation both go through the same projection so a
// leapling's records stay consistent.
package dates

import (
	"math"
	"time"

	"github.com/tartampluch/go-birthday-sync/internal/config"
)

// Today truncates t to local midnight. Birthdays are defined by the local
// calendar date of the person, not an absolute UTC timestamp.
func Today(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// NextOccurrence returns the smallest local-midnight date on or after
// 'now' carrying birth's month and day. A birthday falling on the current
// day counts as the next occurrence (days left 0).
func NextOccurrence(birth, now time.Time) time.Time {
	loc := now.Location()
	candidate := time.Date(now.Year(), birth.Month(), birth.Day(), 0, 0, 0, 0, loc)
	if candidate.Before(Today(now)) {
		candidate = time.Date(now.Year()+1, birth.Month(), birth.Day(), 0, 0, 0, 0, loc)
	}
	return candidate
}

// Age returns the whole-year difference between the birth date and an
// occurrence of it.
func Age(birth, occurrence time.Time) int {
	return occurrence.Year() - birth.Year()
}

// Milestone advances an occurrence to the next age that is a multiple of
// MilestoneStep. If the age already is one, the occurrence is returned
// unchanged. The returned age is always >= the input age.
func Milestone(birth, occurrence time.Time, age int) (time.Time, int) {
	target := (age + config.MilestoneStep - 1) / config.MilestoneStep * config.MilestoneStep
	if target == age {
		return occurrence, age
	}
	loc := occurrence.Location()
	next := time.Date(occurrence.Year()+target-age, birth.Month(), birth.Day(), 0, 0, 0, 0, loc)
	return next, target
}

// DaysBetween counts whole days from 'now' (taken at local midnight) to
// the occurrence. The count is clamped at zero and rounds the hour
// difference, so DST transitions cannot skew it.
func DaysBetween(now, occurrence time.Time) int {
	days := int(math.Round(occurrence.Sub(Today(now)).Hours() / 24))
	if days < 0 {
		return 0
	}
	return days
}
