// Package reconcile diffs the freshly computed birthday set against the
// previously published state and converges the store on it: summaries,
// per-person records, stale deletions, and the next/nextAfter/
// nextSignificant rollups.
package reconcile

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/tartampluch/go-birthday-sync/internal/config"
	"github.com/tartampluch/go-birthday-sync/internal/engine"
	"github.com/tartampluch/go-birthday-sync/internal/format"
	"github.com/tartampluch/go-birthday-sync/internal/store"
)

// Reconciler publishes the aggregated collections into the state store.
// Mutations are issued sequentially per record so the write order stays
// deterministic and auditable; there is no cross-record transaction. A
// crash mid-run leaves partial state that the next full recompute heals.
type Reconciler struct {
	Store store.StateStore
	Text  format.Text
}

// Stats counts the store mutations of one run. A second run over
// identical input must report all zeroes.
type Stats struct {
	Writes  int
	Deleted int
}

// Run executes the full reconciliation. Only store failures abort it;
// empty collections are valid input and result in deletions.
func (r *Reconciler) Run(ctx context.Context, res engine.Result) (Stats, error) {
	start := time.Now()
	var stats Stats
	log := slog.With(config.LogKeyComponent, config.CompReconciler)

	all := sortByDaysLeft(res.All)
	significant := sortByDaysLeft(res.Significant)

	if err := r.write(config.PathSummaryAll, engine.PublishedAll(all), &stats); err != nil {
		return stats, err
	}
	if err := r.write(config.PathSummarySignificant, engine.PublishedAll(significant), &stats); err != nil {
		return stats, err
	}

	if err := ctx.Err(); err != nil {
		return stats, err
	}

	// Desired per-person paths, in encounter order (not sorted order):
	// on an identity-key collision the last-parsed record wins. The path
	// keeps its first position in the write order.
	desired := make(map[string]engine.Record, len(res.All))
	order := make([]string, 0, len(res.All))
	for _, rec := range res.All {
		p := recordPath(rec)
		if _, ok := desired[p]; !ok {
			order = append(order, p)
		}
		desired[p] = rec
	}

	for _, p := range order {
		if err := r.upsert(p, desired[p], &stats); err != nil {
			return stats, err
		}
	}

	stored, err := r.Store.List(config.PathMonthRoot + config.PathSeparator)
	if err != nil {
		return stats, err
	}
	for _, p := range containerPaths(stored) {
		if _, ok := desired[p]; ok {
			continue
		}
		n, err := r.Store.DeleteTree(p)
		if err != nil {
			return stats, err
		}
		stats.Deleted += n
		log.Info(config.MsgDeletedStale, config.LogKeyPath, p)
	}

	if err := ctx.Err(); err != nil {
		return stats, err
	}

	if err := r.publishRollup(config.PathNext, nextGroup(all), &stats); err != nil {
		return stats, err
	}
	if err := r.publishRollup(config.PathNextAfter, nextAfterGroup(all), &stats); err != nil {
		return stats, err
	}
	if err := r.publishRollup(config.PathNextSignificant, nextGroup(significant), &stats); err != nil {
		return stats, err
	}

	log.Info(config.MsgReconciled,
		config.LogKeyWrites, stats.Writes,
		config.LogKeyDeleted, stats.Deleted,
		config.LogKeyDuration, time.Since(start).Milliseconds(),
	)
	return stats, nil
}

// upsert publishes one per-person subtree: container node once, then the
// field leaves with write-if-changed semantics.
func (r *Reconciler) upsert(path string, rec engine.Record, stats *Stats) error {
	if err := r.Store.EnsureNode(path); err != nil {
		return err
	}
	fields := []struct {
		name  string
		value any
	}{
		{config.FieldName, rec.Name},
		{config.FieldAge, rec.Age},
		{config.FieldDay, rec.BirthDate.Day()},
		{config.FieldYear, rec.BirthDate.Year()},
		{config.FieldDaysLeft, rec.DaysLeft},
	}
	for _, f := range fields {
		if err := r.write(path+config.PathSeparator+f.name, f.value, stats); err != nil {
			return err
		}
	}
	return nil
}

// publishRollup writes one rollup group (json, text, daysLeft, timestamp,
// date). An empty group clears any previously published values instead.
func (r *Reconciler) publishRollup(base string, group []engine.Record, stats *Stats) error {
	if len(group) == 0 {
		n, err := r.Store.DeleteTree(base)
		if err != nil {
			return err
		}
		stats.Deleted += n
		return nil
	}

	if err := r.Store.EnsureNode(base); err != nil {
		return err
	}
	occurrence := group[0].Next
	leaves := []struct {
		name  string
		value any
	}{
		{config.LeafJSON, engine.PublishedAll(group)},
		{config.LeafText, r.Text.Render(group)},
		{config.LeafDaysLeft, group[0].DaysLeft},
		{config.LeafTimestamp, occurrence.Unix()},
		{config.LeafDate, occurrence.Format(config.DateFormatFullDash)},
	}
	for _, l := range leaves {
		if err := r.write(base+config.PathSeparator+l.name, l.value, stats); err != nil {
			return err
		}
	}
	return nil
}

func (r *Reconciler) write(path string, value any, stats *Stats) error {
	changed, err := r.Store.WriteValue(path, value)
	if err != nil {
		return err
	}
	if changed {
		stats.Writes++
	}
	return nil
}

// sortByDaysLeft returns a copy sorted ascending by days left. The sort
// is stable: ties (several people sharing a date) keep encounter order.
func sortByDaysLeft(records []engine.Record) []engine.Record {
	out := make([]engine.Record, len(records))
	copy(out, records)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DaysLeft < out[j].DaysLeft
	})
	return out
}

// nextGroup returns the leading records sharing the minimal days-left
// value of a sorted collection.
func nextGroup(sorted []engine.Record) []engine.Record {
	if len(sorted) == 0 {
		return nil
	}
	minDays := sorted[0].DaysLeft
	for i, rec := range sorted {
		if rec.DaysLeft != minDays {
			return sorted[:i]
		}
	}
	return sorted
}

// nextAfterGroup returns the records sharing the smallest days-left value
// strictly greater than the minimum, if any.
func nextAfterGroup(sorted []engine.Record) []engine.Record {
	first := nextGroup(sorted)
	if len(first) == 0 || len(first) == len(sorted) {
		return nil
	}
	return nextGroup(sorted[len(first):])
}

// recordPath derives the storage path of a record from its birth month
// and identity key.
func recordPath(rec engine.Record) string {
	month := strings.ToLower(rec.BirthDate.Month().String())
	return config.PathMonthRoot + config.PathSeparator + month +
		config.PathSeparator + IdentityKey(rec.Name)
}

// containerPaths reduces the stored key set to the per-person container
// paths (month root + month + identity key), deduplicated and sorted.
func containerPaths(keys []string) []string {
	depth := strings.Count(config.PathMonthRoot, config.PathSeparator) + 2
	seen := make(map[string]struct{})
	var out []string
	for _, k := range keys {
		parts := strings.Split(k, config.PathSeparator)
		if len(parts) < depth+1 {
			continue
		}
		p := strings.Join(parts[:depth+1], config.PathSeparator)
		if _, ok := seen[p]; !ok {
			seen[p] = struct{}{}
			out = append(out, p)
		}
	}
	sort.Strings(out)
	return out
}
