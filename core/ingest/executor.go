package ingest

import (
	"context"
	"fmt"
	"time"

	"bitsight-connector/core/logger"
	"bitsight-connector/core/status"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Executor runs ingestion cycles. It holds no state between runs and may be
// reused.
type Executor struct {
	logger   *zap.Logger
	progress ProgressFactory
	now      func() time.Time
}

// Option configures an Executor.
type Option func(*Executor)

// WithLogger sets the logger receiving the run summary.
func WithLogger(l *zap.Logger) Option {
	return func(e *Executor) { e.logger = logger.OrNop(l) }
}

// WithProgress replaces the progress indicator used when ShowProgress is set.
func WithProgress(f ProgressFactory) Option {
	return func(e *Executor) { e.progress = f }
}

// WithClock replaces time.Now for duration measurement.
func WithClock(now func() time.Time) Option {
	return func(e *Executor) { e.now = now }
}

// NewExecutor returns an Executor.
func NewExecutor(opts ...Option) *Executor {
	e := &Executor{
		logger:   zap.NewNop(),
		progress: NewProgressBar,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// tally is the mutable run state folded into the Result at the single
// terminal point.
type tally struct {
	fetched int
	written int
	failed  int
	code    status.Code
	message string
	cause   status.Code
}

func (t *tally) finish(code status.Code, message string) {
	t.code = code
	t.message = message
}

func (t *tally) finishErr(code status.Code, message string, err error) {
	t.finish(code, message)
	if c, ok := status.CodeOf(err); ok {
		t.cause = c
	}
}

// Run fetches once, writes every record in order and returns the outcome.
// It never panics and never returns without a Result.
func (e *Executor) Run(ctx context.Context, fetcher Fetcher, writer Writer, opts Options) (res Result) {
	runID := opts.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	log := logger.WithRun(e.logger, opts.Job, runID)
	started := e.now()
	t := &tally{}

	defer func() {
		panicked := false
		if r := recover(); r != nil {
			panicked = true
			t.finish(status.ExecutionUnhandledException, fmt.Sprintf("panic: %v", r))
			t.cause = ""
		}
		res = Result{
			RunID:    runID,
			Job:      opts.Job,
			Status:   t.code,
			Exit:     status.ExitFor(t.code),
			Fetched:  t.fetched,
			Written:  t.written,
			Failed:   t.failed,
			Duration: e.now().Sub(started),
			Message:  t.message,
			Cause:    t.cause,
			DryRun:   opts.DryRun,
		}
		if reporter, ok := writer.(DeltaReporter); ok && !panicked {
			res.Delta = reporter.Delta()
		}
		if !opts.DeferSummary {
			LogSummary(log, res)
		}
	}()

	e.execute(ctx, log, t, fetcher, writer, opts)
	return res
}

func (e *Executor) execute(ctx context.Context, log *zap.Logger, t *tally, fetcher Fetcher, writer Writer, opts Options) {
	records, err := fetcher.Fetch(ctx)
	if err != nil {
		if interrupted(ctx, err) {
			t.finishErr(status.ExecutionInterrupted, "interrupted during fetch", err)
			return
		}
		t.finishErr(status.IngestionFetchFailed, err.Error(), err)
		return
	}
	if records == nil {
		t.finish(status.ExecutionUnhandledException, "fetcher returned a nil record slice")
		return
	}

	t.fetched = len(records)
	if t.fetched == 0 {
		t.finish(status.OKNoData, "no records returned")
		return
	}
	if opts.ExpectedMinRecords > 0 && t.fetched < opts.ExpectedMinRecords {
		log.Warn("Fewer records than expected",
			zap.Int(logger.FieldFetched, t.fetched),
			zap.Int(logger.FieldExpected, opts.ExpectedMinRecords))
	}

	progress := Progress(noProgress{})
	if opts.ShowProgress && e.progress != nil {
		progress = e.progress(opts.Job, t.fetched)
	}
	defer progress.Stop()

	preview, canPreview := writer.(Previewer)

	for i, rec := range records {
		if ctx.Err() != nil {
			t.finishErr(status.ExecutionInterrupted, fmt.Sprintf("interrupted after %d of %d records", i, t.fetched), ctx.Err())
			return
		}

		var werr error
		switch {
		case opts.DryRun && canPreview:
			werr = preview.Preview(ctx, rec)
		case opts.DryRun:
		default:
			werr = writer.Write(ctx, rec)
		}
		progress.Increment()

		if werr == nil {
			t.written++
			continue
		}
		if interrupted(ctx, werr) {
			t.finishErr(status.ExecutionInterrupted, fmt.Sprintf("interrupted after %d of %d records", i, t.fetched), werr)
			return
		}

		t.failed++
		code, _ := status.CodeOf(werr)
		log.Warn("Record write failed",
			zap.Int(logger.FieldIndex, i),
			zap.String(logger.FieldCode, string(code)),
			zap.Error(werr))

		if opts.FailFast || (opts.MaxFailures > 0 && t.failed >= opts.MaxFailures) {
			t.finishErr(status.IngestionAborted,
				fmt.Sprintf("aborted after %d failures at record %d of %d", t.failed, i+1, t.fetched), werr)
			return
		}
	}

	switch {
	case t.failed == t.fetched:
		t.finish(status.IngestionWriteFailed, "every record failed to write")
		return
	case t.failed > 0:
		t.finish(status.IngestionPartialWrite, fmt.Sprintf("%d of %d records failed to write", t.failed, t.fetched))
		// The seen set misses failed records, so removal is skipped.
		return
	}

	if finalizer, ok := writer.(Finalizer); ok {
		if err := finalizer.Finalize(ctx); err != nil {
			e.finalizeFailed(ctx, t, err)
			return
		}
	}
	t.finish(status.OK, "")
}

func (e *Executor) finalizeFailed(ctx context.Context, t *tally, err error) {
	if interrupted(ctx, err) {
		t.finishErr(status.ExecutionInterrupted, "interrupted during finalize", err)
		return
	}
	code, ok := status.CodeOf(err)
	if !ok {
		code = status.ExecutionUnhandledException
	}
	t.finishErr(code, "finalize: "+err.Error(), err)
}

func interrupted(ctx context.Context, err error) bool {
	if errors.Is(err, context.Canceled) || status.Is(err, status.ExecutionInterrupted) {
		return true
	}
	return ctx.Err() != nil && errors.Is(err, ctx.Err())
}

// SummaryMessage is the message of the one log line summarizing a run.
const SummaryMessage = "ingestion run finished"

// SummaryFields returns the structured fields of the run summary.
func SummaryFields(res Result) []zap.Field {
	fields := []zap.Field{
		zap.String(logger.FieldStatus, string(res.Status)),
		zap.Int(logger.FieldExitCode, res.Exit.Int()),
		zap.String(logger.FieldExitName, res.Exit.String()),
		zap.Int(logger.FieldFetched, res.Fetched),
		zap.Int(logger.FieldWritten, res.Written),
		zap.Int(logger.FieldFailed, res.Failed),
		zap.Int(logger.FieldNew, res.Delta.New),
		zap.Int(logger.FieldUpdated, res.Delta.Updated),
		zap.Int(logger.FieldUnchanged, res.Delta.Unchanged),
		zap.Int(logger.FieldRemoved, res.Delta.Removed),
		zap.Bool(logger.FieldDryRun, res.DryRun),
		zap.Int64(logger.FieldDuration, res.Duration.Milliseconds()),
	}
	if res.Message != "" {
		fields = append(fields, zap.String(logger.FieldDetail, res.Message))
	}
	if res.Cause != "" {
		fields = append(fields, zap.String(logger.FieldCause, string(res.Cause)))
	}
	return fields
}

// LogSummary writes the run summary at the level matching its outcome.
func LogSummary(log *zap.Logger, res Result, extra ...zap.Field) {
	log.Log(levelFor(res), SummaryMessage, append(SummaryFields(res), extra...)...)
}

func levelFor(res Result) zapcore.Level {
	switch {
	case res.Status == status.IngestionPartialWrite || res.Status == status.ExecutionInterrupted:
		return zapcore.WarnLevel
	case res.Success():
		return zapcore.InfoLevel
	default:
		return zapcore.ErrorLevel
	}
}
