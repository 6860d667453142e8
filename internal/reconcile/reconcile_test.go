package reconcile_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tartampluch/go-birthday-sync/internal/config"
	"github.com/tartampluch/go-birthday-sync/internal/engine"
	"github.com/tartampluch/go-birthday-sync/internal/format"
	"github.com/tartampluch/go-birthday-sync/internal/reconcile"
	"github.com/tartampluch/go-birthday-sync/internal/store"
)

func newReconciler(st store.StateStore) *reconcile.Reconciler {
	return &reconcile.Reconciler{
		Store: st,
		Text: format.Text{
			Template:  config.DefaultTextTemplate,
			Separator: config.DefaultTextSeparator,
		},
	}
}

func record(name string, birth time.Time, next time.Time, age, daysLeft int) engine.Record {
	return engine.Record{
		Name:      name,
		BirthDate: birth,
		Next:      next,
		Age:       age,
		DaysLeft:  daysLeft,
	}
}

// readJSON decodes a stored value into out.
func readJSON(t *testing.T, mem *store.Memory, path string, out any) {
	t.Helper()
	raw, ok := mem.Get(path)
	require.True(t, ok, "expected %s to be stored", path)
	require.NoError(t, json.Unmarshal(raw, out))
}

// TestReconciler_PublishesRecordTree verifies the per-person subtree and
// the summary blobs for a small computed set.
func TestReconciler_PublishesRecordTree(t *testing.T) {
	mem := store.NewMemory()
	rec := newReconciler(mem)

	birth := time.Date(1990, 3, 10, 0, 0, 0, 0, time.UTC)
	res := engine.Result{
		All: []engine.Record{
			record("John Doe", birth, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), 35, 12),
		},
		Significant: []engine.Record{
			record("John Doe", birth, time.Date(2030, 3, 10, 0, 0, 0, 0, time.UTC), 40, 1838),
		},
	}

	stats, err := rec.Run(context.Background(), res)
	require.NoError(t, err)
	assert.Positive(t, stats.Writes)

	base := "birthdays/month/march/johnDoe"
	_, ok := mem.Get(base)
	assert.True(t, ok, "Container node should be created")

	var name string
	readJSON(t, mem, base+"/name", &name)
	assert.Equal(t, "John Doe", name)

	var age, day, year, daysLeft int
	readJSON(t, mem, base+"/age", &age)
	readJSON(t, mem, base+"/day", &day)
	readJSON(t, mem, base+"/year", &year)
	readJSON(t, mem, base+"/daysLeft", &daysLeft)
	assert.Equal(t, 35, age)
	assert.Equal(t, 10, day)
	assert.Equal(t, 1990, year)
	assert.Equal(t, 12, daysLeft)

	var summary []engine.PublishedRecord
	readJSON(t, mem, config.PathSummaryAll, &summary)
	require.Len(t, summary, 1)
	assert.Equal(t, "2025-03-10", summary[0].Date)

	var significant []engine.PublishedRecord
	readJSON(t, mem, config.PathSummarySignificant, &significant)
	require.Len(t, significant, 1)
	assert.Equal(t, 40, significant[0].Age)
}

// TestReconciler_Convergence asserts that reconciling the same computed
// set twice issues zero mutations the second time.
func TestReconciler_Convergence(t *testing.T) {
	mem := store.NewMemory()
	rec := newReconciler(mem)

	birthA := time.Date(1990, 1, 5, 0, 0, 0, 0, time.UTC)
	birthB := time.Date(1985, 7, 20, 0, 0, 0, 0, time.UTC)
	res := engine.Result{
		All: []engine.Record{
			record("Alice", birthA, time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC), 36, 90),
			record("Bob", birthB, time.Date(2025, 7, 20, 0, 0, 0, 0, time.UTC), 40, 10),
		},
		Significant: []engine.Record{
			record("Alice", birthA, time.Date(2030, 1, 5, 0, 0, 0, 0, time.UTC), 40, 1551),
			record("Bob", birthB, time.Date(2025, 7, 20, 0, 0, 0, 0, time.UTC), 40, 10),
		},
	}

	_, err := rec.Run(context.Background(), res)
	require.NoError(t, err)

	mem.ResetCounters()
	stats, err := rec.Run(context.Background(), res)
	require.NoError(t, err)

	assert.Zero(t, stats.Writes, "Second run must not write")
	assert.Zero(t, stats.Deleted, "Second run must not delete")
	assert.Zero(t, mem.Mutations, "Store must be untouched by the second run")
}

// TestReconciler_DeletesStaleRecords verifies that a person present in
// the store but absent from the computed set is removed after one run.
func TestReconciler_DeletesStaleRecords(t *testing.T) {
	mem := store.NewMemory()
	rec := newReconciler(mem)

	// Previous run left Bob behind.
	stale := "birthdays/month/july/bob"
	require.NoError(t, mem.EnsureNode(stale))
	_, err := mem.WriteValue(stale+"/name", "Bob")
	require.NoError(t, err)
	_, err = mem.WriteValue(stale+"/age", 40)
	require.NoError(t, err)

	birth := time.Date(1990, 1, 5, 0, 0, 0, 0, time.UTC)
	res := engine.Result{
		All: []engine.Record{
			record("Alice", birth, time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC), 36, 90),
		},
		Significant: []engine.Record{
			record("Alice", birth, time.Date(2030, 1, 5, 0, 0, 0, 0, time.UTC), 40, 1551),
		},
	}

	stats, err := rec.Run(context.Background(), res)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Deleted, "Node plus two fields should be removed")

	keys, err := mem.List(stale)
	require.NoError(t, err)
	assert.Empty(t, keys, "Stale subtree must be gone")

	_, ok := mem.Get("birthdays/month/january/alice")
	assert.True(t, ok, "Fresh record must survive the deletion pass")
}

// TestReconciler_Rollups exercises next, nextAfter, and nextSignificant,
// including ties on the minimal days-left value.
func TestReconciler_Rollups(t *testing.T) {
	mem := store.NewMemory()
	rec := newReconciler(mem)

	birth := time.Date(1990, 4, 1, 0, 0, 0, 0, time.UTC)
	near := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	far := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	res := engine.Result{
		All: []engine.Record{
			// Two people share the nearest date; encounter order matters.
			record("Alice", birth, near, 35, 5),
			record("Bob", time.Date(1980, 4, 1, 0, 0, 0, 0, time.UTC), near, 45, 5),
			record("Carol", time.Date(1970, 5, 1, 0, 0, 0, 0, time.UTC), far, 55, 35),
		},
		Significant: []engine.Record{
			record("Alice", birth, time.Date(2030, 4, 1, 0, 0, 0, 0, time.UTC), 40, 1831),
			record("Bob", time.Date(1980, 4, 1, 0, 0, 0, 0, time.UTC), time.Date(2030, 4, 1, 0, 0, 0, 0, time.UTC), 50, 1831),
			record("Carol", time.Date(1970, 5, 1, 0, 0, 0, 0, time.UTC), time.Date(2030, 5, 1, 0, 0, 0, 0, time.UTC), 60, 1861),
		},
	}

	_, err := rec.Run(context.Background(), res)
	require.NoError(t, err)

	var nextText string
	readJSON(t, mem, config.PathNext+"/text", &nextText)
	assert.Equal(t, "Alice (35), Bob (45)", nextText, "Tied records join in encounter order")

	var nextDays int
	readJSON(t, mem, config.PathNext+"/daysLeft", &nextDays)
	assert.Equal(t, 5, nextDays)

	var nextDate string
	readJSON(t, mem, config.PathNext+"/date", &nextDate)
	assert.Equal(t, "2025-04-01", nextDate)

	var nextTimestamp int64
	readJSON(t, mem, config.PathNext+"/timestamp", &nextTimestamp)
	assert.Equal(t, near.Unix(), nextTimestamp)

	var afterJSON []engine.PublishedRecord
	readJSON(t, mem, config.PathNextAfter+"/json", &afterJSON)
	require.Len(t, afterJSON, 1)
	assert.Equal(t, "Carol", afterJSON[0].Name)

	var sigText string
	readJSON(t, mem, config.PathNextSignificant+"/text", &sigText)
	assert.Equal(t, "Alice (40), Bob (50)", sigText)
}

// TestReconciler_NextAfterAbsentWhenAllTied: when every record shares the
// minimal days-left value there is no "next after" group to publish.
func TestReconciler_NextAfterAbsentWhenAllTied(t *testing.T) {
	mem := store.NewMemory()
	rec := newReconciler(mem)

	birth := time.Date(1990, 4, 1, 0, 0, 0, 0, time.UTC)
	next := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	res := engine.Result{
		All: []engine.Record{
			record("Alice", birth, next, 35, 5),
			record("Bob", time.Date(1980, 4, 1, 0, 0, 0, 0, time.UTC), next, 45, 5),
		},
		Significant: []engine.Record{
			record("Alice", birth, time.Date(2030, 4, 1, 0, 0, 0, 0, time.UTC), 40, 1831),
			record("Bob", time.Date(1980, 4, 1, 0, 0, 0, 0, time.UTC), time.Date(2030, 4, 1, 0, 0, 0, 0, time.UTC), 50, 1831),
		},
	}

	_, err := rec.Run(context.Background(), res)
	require.NoError(t, err)

	keys, err := mem.List(config.PathNextAfter)
	require.NoError(t, err)
	assert.Empty(t, keys, "No nextAfter group should be published")
}

// TestReconciler_SortStability: records tied on days left keep their
// input order in the published summary across repeated runs.
func TestReconciler_SortStability(t *testing.T) {
	mem := store.NewMemory()
	rec := newReconciler(mem)

	next := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	res := engine.Result{
		All: []engine.Record{
			record("Zed", time.Date(1990, 4, 1, 0, 0, 0, 0, time.UTC), next, 35, 5),
			record("Amy", time.Date(1991, 4, 1, 0, 0, 0, 0, time.UTC), next, 34, 5),
		},
		Significant: []engine.Record{
			record("Zed", time.Date(1990, 4, 1, 0, 0, 0, 0, time.UTC), time.Date(2030, 4, 1, 0, 0, 0, 0, time.UTC), 40, 1831),
			record("Amy", time.Date(1991, 4, 1, 0, 0, 0, 0, time.UTC), time.Date(2027, 4, 1, 0, 0, 0, 0, time.UTC), 36, 735),
		},
	}

	for run := 0; run < 2; run++ {
		_, err := rec.Run(context.Background(), res)
		require.NoError(t, err)

		var summary []engine.PublishedRecord
		readJSON(t, mem, config.PathSummaryAll, &summary)
		require.Len(t, summary, 2)
		assert.Equal(t, "Zed", summary[0].Name, "Tie must preserve encounter order")
		assert.Equal(t, "Amy", summary[1].Name)
	}
}

// TestReconciler_EmptyResult: an empty computed set still reconciles,
// deleting everything previously stored under the month tree.
func TestReconciler_EmptyResult(t *testing.T) {
	mem := store.NewMemory()
	rec := newReconciler(mem)

	stale := "birthdays/month/july/bob"
	require.NoError(t, mem.EnsureNode(stale))
	_, err := mem.WriteValue(stale+"/name", "Bob")
	require.NoError(t, err)

	stats, err := rec.Run(context.Background(), engine.Result{})
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Deleted)

	var summary []engine.PublishedRecord
	readJSON(t, mem, config.PathSummaryAll, &summary)
	assert.Empty(t, summary, "Summary publishes as an empty array, not null")

	keys, err := mem.List(config.PathMonthRoot)
	require.NoError(t, err)
	assert.Empty(t, keys)
}

// TestReconciler_IdentityCollision: two records normalizing to the same
// path resolve last-write-wins, leaving a single published subtree.
func TestReconciler_IdentityCollision(t *testing.T) {
	mem := store.NewMemory()
	rec := newReconciler(mem)

	birth := time.Date(1990, 3, 10, 0, 0, 0, 0, time.UTC)
	next := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	res := engine.Result{
		All: []engine.Record{
			record("John Doe", birth, next, 35, 12),
			record("john_doe", time.Date(1990, 3, 2, 0, 0, 0, 0, time.UTC), time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC), 35, 4),
		},
		Significant: []engine.Record{
			record("John Doe", birth, time.Date(2030, 3, 10, 0, 0, 0, 0, time.UTC), 40, 1838),
			record("john_doe", time.Date(1990, 3, 2, 0, 0, 0, 0, time.UTC), time.Date(2030, 3, 2, 0, 0, 0, 0, time.UTC), 40, 1830),
		},
	}

	_, err := rec.Run(context.Background(), res)
	require.NoError(t, err)

	var day int
	readJSON(t, mem, "birthdays/month/march/johnDoe/day", &day)
	assert.Equal(t, 2, day, "Later record wins the collision")

	containers, err := mem.List(config.PathMonthRoot + "/march")
	require.NoError(t, err)
	// One node plus five fields.
	assert.Len(t, containers, 6, "Exactly one subtree for the colliding key")
}
