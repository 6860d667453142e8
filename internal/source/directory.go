package source

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/emersion/go-vcard"

	"github.com/tartampluch/go-birthday-sync/internal/config"
	"github.com/tartampluch/go-birthday-sync/internal/dates"
)

// DirectorySource reads birthdays from a CardDAV/vCard endpoint. Each
// card must carry a formatted name (FN) and a full-date birthday (BDAY,
// YYYY-MM-DD); cards missing either are skipped.
type DirectorySource struct {
	URL                string
	Username           string
	Password           string
	InsecureSkipVerify bool

	Fetcher Fetcher
	Clock   dates.Clock
}

func (s *DirectorySource) Name() string { return config.CompDirectory }

func (s *DirectorySource) Collect(ctx context.Context) []Entry {
	log := slog.With(config.LogKeyComponent, config.CompDirectory)
	if s.URL == "" {
		return nil
	}

	reader, err := s.Fetcher.Fetch(ctx, s.URL, s.Username, s.Password, s.InsecureSkipVerify)
	if err != nil {
		log.Warn(config.MsgSourceFailed, config.LogKeyError, err)
		return nil
	}
	defer func() { _ = reader.Close() }()

	now := s.Clock.Now()
	decoder := vcard.NewDecoder(reader)

	var out []Entry
	for {
		if ctx.Err() != nil {
			break
		}

		card, err := decoder.Decode()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			// Log but continue to the next card to maximize data recovery.
			log.Warn(config.MsgSkippedCard, config.LogKeyError, err)
			continue
		}

		fn := card.Get(config.VCardFN)
		if fn == nil || fn.Value == "" {
			log.Warn(config.MsgSkippedCard, config.LogKeyValue, config.VCardFN)
			continue
		}

		bday := card.Get(config.VCardBDAY)
		if bday == nil || bday.Value == "" {
			log.Warn(config.MsgSkippedCard, config.LogKeyName, fn.Value)
			continue
		}

		d, err := time.ParseInLocation(config.DateFormatFullDash, bday.Value, now.Location())
		if err != nil {
			log.Warn(config.MsgSkippedDate,
				config.LogKeyName, fn.Value,
				config.LogKeyValue, bday.Value,
			)
			continue
		}
		if d.Year() > now.Year() {
			log.Warn(config.MsgFutureYear,
				config.LogKeyName, fn.Value,
				config.LogKeyDOB, bday.Value,
			)
			continue
		}

		out = append(out, Entry{Name: fn.Value, BirthDate: d})
	}

	log.Info(config.MsgSourceDone, config.LogKeyCount, len(out))
	return out
}
