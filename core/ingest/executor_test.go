package ingest

import (
	"context"
	"errors"
	"testing"
	"time"

	"bitsight-connector/core/database/mocks"
	"bitsight-connector/core/reconcile"
	"bitsight-connector/core/status"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newTestExecutor(t *testing.T) (*Executor, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	return NewExecutor(WithLogger(zap.New(core))), logs
}

func records(n int) []Record {
	out := make([]Record, n)
	for i := range out {
		out[i] = map[string]any{"guid": string(rune('a' + i))}
	}
	return out
}

func fetchOf(recs []Record) Fetcher {
	return FetcherFunc(func(context.Context) ([]Record, error) { return recs, nil })
}

// recordingWriter fails on the listed indexes and records every call.
type recordingWriter struct {
	failAt    map[int]bool
	writes    []Record
	previews  []Record
	finalized int
	finalErr  error
	delta     reconcile.Delta
	calls     int
}

func (w *recordingWriter) fail(idx int) error {
	if w.failAt[idx] {
		return status.Newf(status.RecordWriteFailed, "record %d rejected", idx)
	}
	return nil
}

func (w *recordingWriter) Write(_ context.Context, rec Record) error {
	idx := w.calls
	w.calls++
	w.writes = append(w.writes, rec)
	return w.fail(idx)
}

func (w *recordingWriter) Preview(_ context.Context, rec Record) error {
	idx := w.calls
	w.calls++
	w.previews = append(w.previews, rec)
	return w.fail(idx)
}

func (w *recordingWriter) Finalize(context.Context) error {
	w.finalized++
	return w.finalErr
}

func (w *recordingWriter) Delta() reconcile.Delta {
	return w.delta
}

func finishedEntries(logs *observer.ObservedLogs) []observer.LoggedEntry {
	return logs.FilterMessage("ingestion run finished").All()
}

// Scenario A
func TestRun_EmptyFetchIsSuccess(t *testing.T) {
	exec, logs := newTestExecutor(t)
	w := &recordingWriter{}

	res := exec.Run(context.Background(), fetchOf([]Record{}), w, Options{Job: "companies"})

	assert.Equal(t, status.OKNoData, res.Status)
	assert.Equal(t, status.ExitSuccessEmptyResult, res.Exit)
	assert.Zero(t, res.Fetched)
	assert.Zero(t, res.Written)
	assert.Zero(t, res.Failed)
	assert.True(t, res.Success())
	assert.Zero(t, w.finalized, "an empty fetch must not trigger removal")

	entries := finishedEntries(logs)
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
}

// Scenario B
func TestRun_PartialWrite(t *testing.T) {
	exec, logs := newTestExecutor(t)
	w := &recordingWriter{failAt: map[int]bool{1: true}}

	res := exec.Run(context.Background(), fetchOf(records(3)), w, Options{Job: "companies"})

	assert.Equal(t, status.IngestionPartialWrite, res.Status)
	assert.Equal(t, status.ExitIngestPartialFailure, res.Exit)
	assert.Equal(t, 3, res.Fetched)
	assert.Equal(t, 2, res.Written)
	assert.Equal(t, 1, res.Failed)
	assert.Len(t, w.writes, 3, "a failure must not stop the loop")
	assert.Zero(t, w.finalized)

	assert.Equal(t, 1, logs.FilterMessage("Record write failed").Len())
	entries := finishedEntries(logs)
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
}

// Scenario C
func TestRun_InterruptedKeepsCounts(t *testing.T) {
	exec, _ := newTestExecutor(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	written := 0
	w := WriterFunc(func(context.Context, Record) error {
		written++
		if written == 2 {
			cancel()
		}
		return nil
	})

	res := exec.Run(ctx, fetchOf(records(5)), w, Options{Job: "companies"})

	assert.Equal(t, status.ExecutionInterrupted, res.Status)
	assert.Equal(t, status.ExitSuccessOperatorExit, res.Exit)
	assert.Equal(t, 5, res.Fetched)
	assert.Equal(t, 2, res.Written)
	assert.Zero(t, res.Failed)
}

func TestRun_WriterReportsCancellation(t *testing.T) {
	exec, _ := newTestExecutor(t)
	w := WriterFunc(func(context.Context, Record) error {
		return status.Wrap(context.Canceled, status.ExecutionInterrupted, "request cancelled")
	})

	res := exec.Run(context.Background(), fetchOf(records(2)), w, Options{})

	assert.Equal(t, status.ExecutionInterrupted, res.Status)
	assert.Zero(t, res.Failed)
}

// Scenario D
func TestRun_KeyMissingCountsAsFailure(t *testing.T) {
	exec, _ := newTestExecutor(t)
	ctx := context.Background()
	gw := &mocks.Gateway{}
	gw.On("Scalar", ctx, mock.Anything, []any{"a"}).Return(nil, nil)
	gw.On("Upsert", ctx, "companies", "guid", mock.Anything).Return(nil)

	sink := reconcile.NewSink(gw, reconcile.Spec{
		Table:             "companies",
		KeyColumn:         "guid",
		Keys:              reconcile.KeyStrategy{Primary: "guid"},
		DeactivateMissing: true,
	}, reconcile.SinkOptions{})

	recs := []Record{
		map[string]any{"guid": "a", "name": "Alpha"},
		map[string]any{"name": "no identity"},
	}
	res := exec.Run(ctx, fetchOf(recs), sink, Options{Job: "companies"})

	assert.Equal(t, 2, res.Fetched)
	assert.Equal(t, 1, res.Written)
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, status.IngestionPartialWrite, res.Status)
	assert.Equal(t, reconcile.Delta{New: 1}, res.Delta)
	gw.AssertNotCalled(t, "ActiveKeys", mock.Anything, mock.Anything, mock.Anything)
}

func TestRun_TotalWriteFailure(t *testing.T) {
	exec, logs := newTestExecutor(t)
	w := &recordingWriter{failAt: map[int]bool{0: true, 1: true, 2: true}}

	res := exec.Run(context.Background(), fetchOf(records(3)), w, Options{})

	assert.Equal(t, status.IngestionWriteFailed, res.Status)
	assert.Equal(t, status.ExitDBWriteFailed, res.Exit)
	assert.Zero(t, res.Written)
	assert.Equal(t, 3, res.Failed)
	assert.Equal(t, zapcore.ErrorLevel, finishedEntries(logs)[0].Level)
}

func TestRun_FetchFailure(t *testing.T) {
	exec, _ := newTestExecutor(t)
	fetch := FetcherFunc(func(context.Context) ([]Record, error) {
		return nil, status.NewHTTP(status.APIServerError, 503, "service unavailable")
	})
	w := &recordingWriter{}

	res := exec.Run(context.Background(), fetch, w, Options{})

	assert.Equal(t, status.IngestionFetchFailed, res.Status)
	assert.Equal(t, status.ExitIngestStartFailed, res.Exit)
	assert.Equal(t, status.APIServerError, res.Cause)
	assert.Zero(t, res.Fetched)
	assert.Empty(t, w.writes)
	assert.Zero(t, w.finalized)
}

func TestRun_FetchInterrupted(t *testing.T) {
	exec, _ := newTestExecutor(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	fetch := FetcherFunc(func(ctx context.Context) ([]Record, error) {
		return nil, ctx.Err()
	})

	res := exec.Run(ctx, fetch, &recordingWriter{}, Options{})

	assert.Equal(t, status.ExecutionInterrupted, res.Status)
	assert.Equal(t, status.ExitSuccessOperatorExit, res.Exit)
}

func TestRun_NilRecordsIsContractViolation(t *testing.T) {
	exec, _ := newTestExecutor(t)

	res := exec.Run(context.Background(), fetchOf(nil), &recordingWriter{}, Options{})

	assert.Equal(t, status.ExecutionUnhandledException, res.Status)
	assert.Equal(t, status.ExitRuntimeException, res.Exit)
}

func TestRun_PanicIsRecovered(t *testing.T) {
	exec, logs := newTestExecutor(t)
	calls := 0
	w := WriterFunc(func(context.Context, Record) error {
		calls++
		if calls == 2 {
			panic("boom")
		}
		return nil
	})

	res := exec.Run(context.Background(), fetchOf(records(3)), w, Options{})

	assert.Equal(t, status.ExecutionUnhandledException, res.Status)
	assert.Equal(t, status.ExitRuntimeException, res.Exit)
	assert.Contains(t, res.Message, "boom")
	assert.Equal(t, 1, res.Written)
	assert.Len(t, finishedEntries(logs), 1)
}

func TestRun_FailurePolicies(t *testing.T) {
	tests := []struct {
		name        string
		opts        Options
		wantWritten int
		wantFailed  int
	}{
		{name: "fail fast", opts: Options{FailFast: true}, wantWritten: 1, wantFailed: 1},
		{name: "max failures", opts: Options{MaxFailures: 2}, wantWritten: 2, wantFailed: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exec, _ := newTestExecutor(t)
			w := &recordingWriter{failAt: map[int]bool{1: true, 3: true, 4: true}}

			res := exec.Run(context.Background(), fetchOf(records(5)), w, tt.opts)

			assert.Equal(t, status.IngestionAborted, res.Status)
			assert.Equal(t, status.ExitIngestAborted, res.Exit)
			assert.Equal(t, status.RecordWriteFailed, res.Cause)
			assert.Equal(t, tt.wantWritten, res.Written)
			assert.Equal(t, tt.wantFailed, res.Failed)
			assert.Zero(t, w.finalized)
		})
	}
}

func TestRun_DryRunParity(t *testing.T) {
	failAt := map[int]bool{2: true}

	exec, _ := newTestExecutor(t)
	realW := &recordingWriter{failAt: failAt}
	realRes := exec.Run(context.Background(), fetchOf(records(4)), realW, Options{})

	dry := &recordingWriter{failAt: failAt}
	dryRes := exec.Run(context.Background(), fetchOf(records(4)), dry, Options{DryRun: true})

	assert.Empty(t, dry.writes, "a dry run must not call Write")
	assert.Len(t, dry.previews, 4)
	assert.True(t, dryRes.DryRun)
	assert.Equal(t, realRes.Status, dryRes.Status)
	assert.Equal(t, realRes.Written, dryRes.Written)
	assert.Equal(t, realRes.Failed, dryRes.Failed)
}

func TestRun_DryRunWithoutPreviewer(t *testing.T) {
	exec, _ := newTestExecutor(t)
	calls := 0
	w := WriterFunc(func(context.Context, Record) error {
		calls++
		return nil
	})

	res := exec.Run(context.Background(), fetchOf(records(3)), w, Options{DryRun: true})

	assert.Zero(t, calls)
	assert.Equal(t, status.OK, res.Status)
	assert.Equal(t, 3, res.Written)
}

func TestRun_Finalize(t *testing.T) {
	t.Run("clean run finalizes once and reports delta", func(t *testing.T) {
		exec, _ := newTestExecutor(t)
		w := &recordingWriter{delta: reconcile.Delta{New: 1, Unchanged: 1, Removed: 2}}

		res := exec.Run(context.Background(), fetchOf(records(2)), w, Options{})

		assert.Equal(t, status.OK, res.Status)
		assert.Equal(t, 1, w.finalized)
		assert.Equal(t, 2, res.Delta.Removed)
	})

	t.Run("typed error keeps its code", func(t *testing.T) {
		exec, _ := newTestExecutor(t)
		w := &recordingWriter{finalErr: status.New(status.IngestionReconcileFailed, "deactivate failed")}

		res := exec.Run(context.Background(), fetchOf(records(2)), w, Options{})

		assert.Equal(t, status.IngestionReconcileFailed, res.Status)
		assert.Equal(t, status.ExitIngestStateCorrupt, res.Exit)
		assert.Equal(t, 2, res.Written)
	})

	t.Run("untyped error is unhandled", func(t *testing.T) {
		exec, _ := newTestExecutor(t)
		w := &recordingWriter{finalErr: errors.New("unexpected")}

		res := exec.Run(context.Background(), fetchOf(records(1)), w, Options{})

		assert.Equal(t, status.ExecutionUnhandledException, res.Status)
		assert.Equal(t, status.ExitRuntimeException, res.Exit)
	})
}

func TestRun_CountInvariant(t *testing.T) {
	for n := 1; n <= 6; n++ {
		for fail := 0; fail < n; fail++ {
			exec, _ := newTestExecutor(t)
			w := &recordingWriter{failAt: map[int]bool{fail: true, (fail + 2) % n: true}}

			res := exec.Run(context.Background(), fetchOf(records(n)), w, Options{})

			assert.Equal(t, res.Fetched, res.Written+res.Failed, "n=%d fail=%d", n, fail)
		}
	}
}

func TestRun_LogFields(t *testing.T) {
	exec, logs := newTestExecutor(t)

	res := exec.Run(context.Background(), fetchOf(records(2)), &recordingWriter{}, Options{
		Job:   "portfolio",
		RunID: "run-1",
	})

	assert.Equal(t, "run-1", res.RunID)
	entries := finishedEntries(logs)
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "portfolio", fields["job"])
	assert.Equal(t, "run-1", fields["run_id"])
	assert.Equal(t, "OK", fields["status"])
	assert.Equal(t, int64(0), fields["exit_code"])
	assert.Equal(t, "SUCCESS", fields["exit_name"])
	assert.Equal(t, int64(2), fields["fetched"])
	assert.Equal(t, int64(2), fields["written"])
	assert.Equal(t, int64(0), fields["failed"])
	assert.Equal(t, false, fields["dry_run"])
}

func TestRun_GeneratesRunID(t *testing.T) {
	exec, _ := newTestExecutor(t)

	res := exec.Run(context.Background(), fetchOf([]Record{}), &recordingWriter{}, Options{})

	assert.Len(t, res.RunID, 36)
}

func TestRun_ExpectedMinOnlyWarns(t *testing.T) {
	exec, logs := newTestExecutor(t)

	res := exec.Run(context.Background(), fetchOf(records(2)), &recordingWriter{}, Options{ExpectedMinRecords: 10})

	assert.Equal(t, status.OK, res.Status)
	assert.Equal(t, 1, logs.FilterMessage("Fewer records than expected").Len())
}

type countingProgress struct {
	total     int
	increment int
	stopped   bool
}

func (p *countingProgress) Increment() { p.increment++ }
func (p *countingProgress) Stop()      { p.stopped = true }

func TestRun_Progress(t *testing.T) {
	p := &countingProgress{}
	exec := NewExecutor(
		WithProgress(func(_ string, total int) Progress {
			p.total = total
			return p
		}),
		WithClock(func() time.Time { return time.Unix(0, 0) }),
	)

	res := exec.Run(context.Background(), fetchOf(records(3)), &recordingWriter{}, Options{ShowProgress: true})

	assert.Equal(t, 3, p.total)
	assert.Equal(t, 3, p.increment)
	assert.True(t, p.stopped)
	assert.Zero(t, res.Duration)
}

func TestRun_DeferSummary(t *testing.T) {
	exec, logs := newTestExecutor(t)

	res := exec.Run(context.Background(), fetchOf(records(1)), &recordingWriter{}, Options{Job: "tiers", DeferSummary: true})
	assert.Empty(t, finishedEntries(logs))

	core, summary := observer.New(zapcore.InfoLevel)
	LogSummary(zap.New(core), res, zap.Bool("committed", true))
	entries := finishedEntries(summary)
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, true, entries[0].ContextMap()["committed"])
	assert.Equal(t, "OK", entries[0].ContextMap()["status"])
}
