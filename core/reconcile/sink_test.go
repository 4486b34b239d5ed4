package reconcile

import (
	"context"
	"fmt"
	"testing"
	"time"

	"bitsight-connector/core/database"
	"bitsight-connector/core/database/mocks"
	"bitsight-connector/core/status"
	"bitsight-connector/core/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var sinkSpec = Spec{
	Table:     "companies",
	KeyColumn: "guid",
	Keys:      KeyStrategy{Primary: "guid"},
	Map: func(rec map[string]any) map[string]any {
		return map[string]any{"name": utils.ToString(rec["name"])}
	},
	DeactivateMissing: true,
}

func newSinkDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Connect(database.Config{
		Driver: "sqlite",
		Name:   fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()),
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	_, err = database.EnsureTables(context.Background(), db, []database.TableSpec{
		{Name: "companies", KeyColumn: "guid", Columns: []string{"name"}},
	}, zap.NewNop())
	require.NoError(t, err)
	return db
}

// runOnce writes records through a fresh sink in its own transaction, the
// way a job run does, and returns the resulting delta.
func runOnce(t *testing.T, db *gorm.DB, records []map[string]any, dryRun bool) Delta {
	t.Helper()
	ctx := context.Background()

	tx, err := database.Begin(ctx, db)
	require.NoError(t, err)

	var gw database.Gateway = tx
	if dryRun {
		gw = database.NewDryRun(tx, nil)
	}

	sink := NewSink(gw, sinkSpec, SinkOptions{
		DryRun: dryRun,
		Now:    func() time.Time { return time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC) },
	})
	for _, rec := range records {
		if dryRun {
			require.NoError(t, sink.Preview(ctx, rec))
		} else {
			require.NoError(t, sink.Write(ctx, rec))
		}
	}
	require.NoError(t, sink.Finalize(ctx))

	if dryRun {
		require.NoError(t, gw.Rollback())
	} else {
		require.NoError(t, gw.Commit())
	}
	return sink.Delta()
}

func activeKeys(t *testing.T, db *gorm.DB) []string {
	t.Helper()
	var keys []string
	require.NoError(t, db.Table("companies").Where("is_active = ?", true).Order("guid").Pluck("guid", &keys).Error)
	return keys
}

// TestSink_AcrossRuns tests idempotence, update detection and removal-once semantics.
func TestSink_AcrossRuns(t *testing.T) {
	db := newSinkDB(t)

	a := map[string]any{"guid": "a", "name": "Alpha"}
	b := map[string]any{"guid": "b", "name": "Beta"}
	c := map[string]any{"guid": "c", "name": "Gamma"}

	// Run 1: everything is new.
	delta := runOnce(t, db, []map[string]any{a, b, c}, false)
	assert.Equal(t, Delta{New: 3}, delta)
	assert.Equal(t, []string{"a", "b", "c"}, activeKeys(t, db))

	// Run 2: same upstream data, nothing new.
	delta = runOnce(t, db, []map[string]any{a, b, c}, false)
	assert.Equal(t, Delta{Unchanged: 3}, delta)

	// Run 3: b changed, c gone.
	bChanged := map[string]any{"guid": "b", "name": "Beta Corp"}
	delta = runOnce(t, db, []map[string]any{a, bChanged}, false)
	assert.Equal(t, Delta{Updated: 1, Unchanged: 1, Removed: 1}, delta)
	assert.Equal(t, []string{"a", "b"}, activeKeys(t, db))

	var name string
	require.NoError(t, db.Raw("SELECT name FROM companies WHERE guid = ?", "b").Row().Scan(&name))
	assert.Equal(t, "Beta Corp", name)

	// Run 4: c is reported removed only once.
	delta = runOnce(t, db, []map[string]any{a, bChanged}, false)
	assert.Equal(t, Delta{Unchanged: 2}, delta)

	// Run 5: c comes back and is reactivated without a payload change.
	delta = runOnce(t, db, []map[string]any{a, bChanged, c}, false)
	assert.Equal(t, Delta{Unchanged: 3}, delta)
	assert.Equal(t, []string{"a", "b", "c"}, activeKeys(t, db))
}

// TestSink_DryRunMatchesRealRun tests that a dry run predicts the real delta without writing.
func TestSink_DryRunMatchesRealRun(t *testing.T) {
	db := newSinkDB(t)

	a := map[string]any{"guid": "a", "name": "Alpha"}
	b := map[string]any{"guid": "b", "name": "Beta"}
	runOnce(t, db, []map[string]any{a, b}, false)

	next := []map[string]any{{"guid": "a", "name": "Alpha 2"}, {"guid": "d", "name": "Delta"}}

	preview := runOnce(t, db, next, true)
	assert.Equal(t, Delta{New: 1, Updated: 1, Removed: 1}, preview)
	assert.Equal(t, []string{"a", "b"}, activeKeys(t, db))

	applied := runOnce(t, db, next, false)
	assert.Equal(t, preview, applied)
	assert.Equal(t, []string{"a", "d"}, activeKeys(t, db))
}

func TestSink_RowShape(t *testing.T) {
	ctx := context.Background()
	gw := &mocks.Gateway{}
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rec := map[string]any{"guid": "a", "name": "Alpha", "extra": []any{"x"}}

	gw.On("Scalar", ctx, mock.Anything, []any{"a"}).Return(nil, nil)
	gw.On("Upsert", ctx, "companies", "guid", mock.MatchedBy(func(row map[string]any) bool {
		return row["guid"] == "a" &&
			row["name"] == "Alpha" &&
			row["is_active"] == true &&
			row["payload_hash"] == mustHash(rec) &&
			row["raw_payload"] == `{"extra":["x"],"guid":"a","name":"Alpha"}` &&
			row["ingested_at"] == now
	})).Return(nil)

	sink := NewSink(gw, sinkSpec, SinkOptions{Now: func() time.Time { return now }})
	require.NoError(t, sink.Write(ctx, rec))
	gw.AssertExpectations(t)
}

func TestSink_UnchangedOnlyTouches(t *testing.T) {
	ctx := context.Background()
	gw := &mocks.Gateway{}
	rec := map[string]any{"guid": "a", "name": "Alpha"}

	gw.On("Scalar", ctx, mock.Anything, []any{"a"}).Return(mustHash(rec), nil)
	gw.On("Update", ctx, "companies", "guid", "a", mock.MatchedBy(func(values map[string]any) bool {
		return len(values) == 2 && values["is_active"] == true
	})).Return(nil)

	sink := NewSink(gw, sinkSpec, SinkOptions{})
	require.NoError(t, sink.Write(ctx, rec))
	gw.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	gw.AssertExpectations(t)
}

func TestSink_FinalizeWithoutRemoval(t *testing.T) {
	gw := &mocks.Gateway{}
	spec := sinkSpec
	spec.DeactivateMissing = false

	sink := NewSink(gw, spec, SinkOptions{})
	require.NoError(t, sink.Finalize(context.Background()))
	gw.AssertNotCalled(t, "ActiveKeys", mock.Anything, mock.Anything, mock.Anything)
}

// flakyGateway fails the first Upsert and forwards everything else.
type flakyGateway struct {
	database.Gateway
	failed bool
}

func (g *flakyGateway) Upsert(ctx context.Context, table, keyColumn string, row map[string]any) error {
	if !g.failed {
		g.failed = true
		return status.New(status.DBInsertFailed, "transient write failure")
	}
	return g.Gateway.Upsert(ctx, table, keyColumn, row)
}

func TestSink_FailedWriteIsNotRecorded(t *testing.T) {
	ctx := context.Background()
	db := newSinkDB(t)
	tx, err := database.Begin(ctx, db)
	require.NoError(t, err)

	sink := NewSink(&flakyGateway{Gateway: tx}, sinkSpec, SinkOptions{})
	rec := map[string]any{"guid": "a", "name": "Alpha"}

	err = sink.Write(ctx, rec)
	assert.True(t, status.Is(err, status.DBInsertFailed))
	assert.Equal(t, Delta{}, sink.Delta())
	assert.Empty(t, sink.rec.Seen())

	// The same key again is still new, and this time it is persisted.
	require.NoError(t, sink.Write(ctx, rec))
	assert.Equal(t, Delta{New: 1}, sink.Delta())
	require.NoError(t, tx.Commit())

	var count int64
	require.NoError(t, db.Table("companies").Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestSink_UnchangedWithoutRowFails(t *testing.T) {
	ctx := context.Background()
	gw := &mocks.Gateway{}
	rec := map[string]any{"guid": "a", "name": "Alpha"}
	gw.On("Scalar", mock.Anything, mock.Anything, []any{"a"}).Return(mustHash(rec), nil)
	gw.On("Update", mock.Anything, "companies", "guid", "a", mock.Anything).
		Return(status.New(status.RecordWriteFailed, "no row"))

	sink := NewSink(gw, sinkSpec, SinkOptions{})
	err := sink.Write(ctx, rec)
	assert.True(t, status.Is(err, status.RecordWriteFailed))
	assert.Equal(t, Delta{}, sink.Delta())
}
