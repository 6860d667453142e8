package source

import (
	"context"
	"log/slog"
	"time"

	"github.com/tartampluch/go-birthday-sync/internal/config"
	"github.com/tartampluch/go-birthday-sync/internal/dates"
)

// ManualSource yields the birthdays listed directly in the configuration
// file. Entries with an empty name, an invalid calendar date, or a birth
// year in the future are skipped with a warning.
type ManualSource struct {
	Entries []config.ManualEntry
	Clock   dates.Clock
}

func (s *ManualSource) Name() string { return config.CompManual }

func (s *ManualSource) Collect(ctx context.Context) []Entry {
	log := slog.With(config.LogKeyComponent, config.CompManual)
	now := s.Clock.Now()

	var out []Entry
	for _, e := range s.Entries {
		if ctx.Err() != nil {
			break
		}
		if e.Name == "" {
			log.Warn(config.MsgSkippedEntry, config.LogKeyValue, e)
			continue
		}

		d := time.Date(e.Year, time.Month(e.Month), e.Day, 0, 0, 0, 0, now.Location())
		// time.Date normalizes out-of-range components (e.g. Feb 30
		// becomes Mar 1/2); a shifted result means the tuple was invalid.
		if d.Year() != e.Year || d.Month() != time.Month(e.Month) || d.Day() != e.Day {
			log.Warn(config.MsgSkippedEntry,
				config.LogKeyName, e.Name,
				config.LogKeyValue, e,
			)
			continue
		}
		if e.Year > now.Year() {
			log.Warn(config.MsgFutureYear,
				config.LogKeyName, e.Name,
				config.LogKeyDOB, d.Format(config.DateFormatFullDash),
			)
			continue
		}

		out = append(out, Entry{Name: e.Name, BirthDate: d})
	}

	log.Info(config.MsgSourceDone, config.LogKeyCount, len(out))
	return out
}
