package source

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/emersion/go-ical"

	"github.com/tartampluch/go-birthday-sync/internal/config"
	"github.com/tartampluch/go-birthday-sync/internal/dates"
)

// CalendarSource reads birthdays from an iCalendar feed. Each VEVENT must
// carry the person's name in SUMMARY, the birth year as an integer in
// DESCRIPTION, and the birth month/day in DTSTART. The locator is either
// an http(s) URL or a local file path.
type CalendarSource struct {
	Locator            string
	Username           string
	Password           string
	InsecureSkipVerify bool

	Fetcher Fetcher
	Clock   dates.Clock
}

func (s *CalendarSource) Name() string { return config.CompCalendar }

func (s *CalendarSource) Collect(ctx context.Context) []Entry {
	log := slog.With(config.LogKeyComponent, config.CompCalendar)
	if s.Locator == "" {
		return nil
	}

	reader, err := s.open(ctx)
	if err != nil {
		log.Warn(config.MsgSourceFailed, config.LogKeyError, err)
		return nil
	}
	defer func() { _ = reader.Close() }()

	now := s.Clock.Now()
	dec := ical.NewDecoder(reader)

	var out []Entry
	for {
		cal, err := dec.Decode()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			// A malformed document yields nothing, not a partial result.
			log.Error(config.ErrCalendarParse, config.LogKeyError, err)
			return nil
		}

		events := cal.Events()
		for i := range events {
			entry, ok := s.parseEvent(&events[i], now, log)
			if ok {
				out = append(out, entry)
			}
		}
	}

	log.Info(config.MsgSourceDone, config.LogKeyCount, len(out))
	return out
}

// parseEvent extracts one (name, birth date) pair from a VEVENT. Events
// missing any required property, or dated in the future, are skipped.
func (s *CalendarSource) parseEvent(ev *ical.Event, now time.Time, log *slog.Logger) (Entry, bool) {
	summary := ev.Props.Get(config.PropSummary)
	if summary == nil || summary.Value == "" {
		log.Warn(config.MsgSkippedEvent, config.LogKeyValue, config.PropSummary)
		return Entry{}, false
	}

	desc := ev.Props.Get(config.PropDescription)
	if desc == nil {
		log.Warn(config.MsgSkippedEvent, config.LogKeyName, summary.Value)
		return Entry{}, false
	}
	year, err := strconv.Atoi(strings.TrimSpace(desc.Value))
	if err != nil {
		log.Warn(config.MsgSkippedEvent,
			config.LogKeyName, summary.Value,
			config.LogKeyValue, desc.Value,
		)
		return Entry{}, false
	}
	if year > now.Year() {
		log.Warn(config.MsgFutureYear, config.LogKeyName, summary.Value)
		return Entry{}, false
	}

	start, err := ev.DateTimeStart(now.Location())
	if err != nil || start.IsZero() {
		log.Warn(config.MsgSkippedDate,
			config.LogKeyName, summary.Value,
			config.LogKeyError, err,
		)
		return Entry{}, false
	}

	d := time.Date(year, start.Month(), start.Day(), 0, 0, 0, 0, now.Location())
	if d.Month() != start.Month() || d.Day() != start.Day() {
		// Feb 29 with a non-leap birth year normalizes away; the
		// combination cannot be a real birth date.
		log.Warn(config.MsgSkippedDate, config.LogKeyName, summary.Value)
		return Entry{}, false
	}

	return Entry{Name: summary.Value, BirthDate: d}, true
}

// open acquires the payload stream, remote or local.
func (s *CalendarSource) open(ctx context.Context) (io.ReadCloser, error) {
	if strings.HasPrefix(s.Locator, config.SchemeHTTP+config.SchemeSeparator) ||
		strings.HasPrefix(s.Locator, config.SchemeHTTPS+config.SchemeSeparator) {
		return s.Fetcher.Fetch(ctx, s.Locator, s.Username, s.Password, s.InsecureSkipVerify)
	}
	return os.Open(s.Locator)
}
