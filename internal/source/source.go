// Package source contains the three birthday adapters (manual entries,
// iCalendar feed, CardDAV directory) and the HTTP fetcher they share.
package source

import (
	"context"
	"time"
)

// Entry is the normalized output every adapter produces: a display name
// and a full birth date with a known, non-future year.
type Entry struct {
	Name      string
	BirthDate time.Time
}

// Source collects birthday entries from one upstream.
//
// Implementations absorb their own failures: an unreachable endpoint, a
// malformed document, or a bad record degrade to fewer (or zero) entries
// plus log output, never an error. One broken source must not abort the
// others.
type Source interface {
	Name() string
	Collect(ctx context.Context) []Entry
}
