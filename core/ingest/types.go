package ingest

import (
	"context"
	"time"

	"bitsight-connector/core/reconcile"
	"bitsight-connector/core/status"
)

// Record is one fetched item. The executor never looks inside it.
type Record = any

// Fetcher produces the complete record set of a run.
type Fetcher interface {
	Fetch(ctx context.Context) ([]Record, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context) ([]Record, error)

// Fetch implements Fetcher.
func (f FetcherFunc) Fetch(ctx context.Context) ([]Record, error) {
	return f(ctx)
}

// Writer persists a single record. Failure is reported through the error
// only.
type Writer interface {
	Write(ctx context.Context, rec Record) error
}

// WriterFunc adapts a function to Writer.
type WriterFunc func(ctx context.Context, rec Record) error

// Write implements Writer.
func (f WriterFunc) Write(ctx context.Context, rec Record) error {
	return f(ctx, rec)
}

// Previewer is implemented by writers that can classify a record without
// side effects. In a dry run it replaces Write.
type Previewer interface {
	Preview(ctx context.Context, rec Record) error
}

// Finalizer is implemented by writers that need a hook once every record
// has been handled, such as removal detection.
type Finalizer interface {
	Finalize(ctx context.Context) error
}

// DeltaReporter is implemented by reconciling writers.
type DeltaReporter interface {
	Delta() reconcile.Delta
}

// Options controls a single run.
type Options struct {
	// Job names the run in logs and in the Result.
	Job string

	// RunID correlates log entries. A random UUID is used when empty.
	RunID string

	// ExpectedMinRecords is an advisory floor; falling short only warns.
	ExpectedMinRecords int

	// ShowProgress renders a progress bar on stderr.
	ShowProgress bool

	// DryRun suppresses writes while keeping classification and counting.
	DryRun bool

	// FailFast aborts on the first failed record.
	FailFast bool

	// MaxFailures aborts once this many records failed. Zero means no limit.
	MaxFailures int

	// DeferSummary leaves the summary line to the caller, which logs it
	// with LogSummary once it knows the fate of the transaction.
	DeferSummary bool
}

// Result is the terminal outcome of a run.
type Result struct {
	RunID    string
	Job      string
	Status   status.Code
	Exit     status.ExitCode
	Fetched  int
	Written  int
	Failed   int
	Duration time.Duration
	Message  string

	// Cause is the typed code of the error behind a failed fetch, finalize
	// or aborting write, when it had one.
	Cause status.Code

	DryRun bool
	Delta  reconcile.Delta
}

// Success reports whether the run ended in a success-band exit code.
func (r Result) Success() bool {
	return r.Exit.IsSuccess()
}
