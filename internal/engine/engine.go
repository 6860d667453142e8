// Package engine aggregates the source adapters into the two record
// collections the reconciler publishes: all birthdays and the significant
// (decade) milestones.
package engine

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tartampluch/go-birthday-sync/internal/config"
	"github.com/tartampluch/go-birthday-sync/internal/dates"
	"github.com/tartampluch/go-birthday-sync/internal/source"
)

// Aggregator fans out over the configured sources and folds every entry
// into birthday and milestone records.
type Aggregator struct {
	Clock   dates.Clock
	Sources []source.Source
}

// Result holds the two collections of one run, in source order (manual,
// calendar, directory) with per-source encounter order preserved.
type Result struct {
	All         []Record
	Significant []Record
}

// Run executes all sources concurrently, waits for every one of them, and
// builds the record collections. Sources absorb their own failures, so a
// broken source contributes zero entries without cancelling the others.
func (a *Aggregator) Run(ctx context.Context) Result {
	start := time.Now()
	log := slog.With(config.LogKeyComponent, config.CompAggregator)
	now := a.Clock.Now()

	collected := make([][]source.Entry, len(a.Sources))
	g, gctx := errgroup.WithContext(ctx)
	for i, src := range a.Sources {
		i, src := i, src
		g.Go(func() error {
			collected[i] = src.Collect(gctx)
			return nil
		})
	}
	// Barrier only; the group never carries an error.
	_ = g.Wait()

	var res Result
	for _, entries := range collected {
		for _, e := range entries {
			rec, milestone := build(e, now)
			res.All = append(res.All, rec)
			res.Significant = append(res.Significant, milestone)
		}
	}

	if len(res.All) == 0 {
		log.Error(config.MsgNoRecords)
	} else {
		log.Info(config.MsgAggregated,
			config.LogKeyCount, len(res.All),
			config.LogKeyDuration, time.Since(start).Milliseconds(),
		)
	}
	return res
}

// build derives the regular and milestone record for one entry.
func build(e source.Entry, now time.Time) (Record, Record) {
	next := dates.NextOccurrence(e.BirthDate, now)
	age := dates.Age(e.BirthDate, next)
	milestoneNext, milestoneAge := dates.Milestone(e.BirthDate, next, age)

	rec := Record{
		Name:      e.Name,
		BirthDate: e.BirthDate,
		Next:      next,
		Age:       age,
		DaysLeft:  dates.DaysBetween(now, next),
	}
	milestone := Record{
		Name:      e.Name,
		BirthDate: e.BirthDate,
		Next:      milestoneNext,
		Age:       milestoneAge,
		DaysLeft:  dates.DaysBetween(now, milestoneNext),
	}
	return rec, milestone
}
