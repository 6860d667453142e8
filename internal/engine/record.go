package engine

import (
	"time"

	"github.com/tartampluch/go-birthday-sync/internal/config"
)

// Record is the per-person computation result for one run. It carries the
// working fields (birth date, projected occurrence) alongside the derived
// values and is never serialized directly; Published strips it down to
// the wire shape.
type Record struct {
	// Name is the display name, also the basis of the identity key.
	Name string

	// BirthDate is the original parsed date (local midnight).
	BirthDate time.Time

	// Next is the projected occurrence this record describes: the next
	// regular birthday, or the next decade birthday for milestone records.
	Next time.Time

	// Age is the age reached at Next.
	Age int

	// DaysLeft is the whole-day distance from today to Next, >= 0.
	DaysLeft int
}

// PublishedRecord is the JSON shape written to the state store summaries
// and rollups.
type PublishedRecord struct {
	Name     string `json:"name"`
	Age      int    `json:"age"`
	Day      int    `json:"day"`
	Month    int    `json:"month"`
	Year     int    `json:"year"`
	DaysLeft int    `json:"daysLeft"`
	Date     string `json:"date"`
}

// Published converts the record into its serialized form.
func (r Record) Published() PublishedRecord {
	return PublishedRecord{
		Name:     r.Name,
		Age:      r.Age,
		Day:      r.BirthDate.Day(),
		Month:    int(r.BirthDate.Month()),
		Year:     r.BirthDate.Year(),
		DaysLeft: r.DaysLeft,
		Date:     r.Next.Format(config.DateFormatFullDash),
	}
}

// PublishedAll maps a collection into its serialized form, preserving
// order. Always returns a non-nil slice so an empty collection publishes
// as [] rather than null.
func PublishedAll(records []Record) []PublishedRecord {
	out := make([]PublishedRecord, 0, len(records))
	for _, r := range records {
		out = append(out, r.Published())
	}
	return out
}
