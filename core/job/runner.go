package job

import (
	"context"
	"strings"
	"time"

	"bitsight-connector/core/database"
	"bitsight-connector/core/ingest"
	"bitsight-connector/core/logger"
	"bitsight-connector/core/status"
	"bitsight-connector/core/storage"
	"bitsight-connector/core/transport"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// archiveTimeout bounds report upload, which runs detached from the run
// context so that interrupted runs are archived too.
const archiveTimeout = 30 * time.Second

// Runner executes registered jobs. It owns the transaction of each run:
// begin, execute, then commit or roll back exactly once.
type Runner struct {
	db       *gorm.DB
	client   *transport.Client
	registry *Registry
	executor *ingest.Executor
	archive  *storage.Archive
	logger   *zap.Logger
	now      func() time.Time
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithArchive uploads a report of every non dry run.
func WithArchive(a *storage.Archive) RunnerOption {
	return func(r *Runner) { r.archive = a }
}

// WithLogger sets the runner logger.
func WithLogger(l *zap.Logger) RunnerOption {
	return func(r *Runner) { r.logger = logger.OrNop(l) }
}

// WithExecutor replaces the default executor.
func WithExecutor(e *ingest.Executor) RunnerOption {
	return func(r *Runner) { r.executor = e }
}

// WithClock replaces time.Now for row stamps and report names.
func WithClock(now func() time.Time) RunnerOption {
	return func(r *Runner) { r.now = now }
}

// NewRunner returns a Runner over db and client.
func NewRunner(db *gorm.DB, client *transport.Client, registry *Registry, opts ...RunnerOption) *Runner {
	r := &Runner{
		db:       db,
		client:   client,
		registry: registry,
		logger:   zap.NewNop(),
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.executor == nil {
		r.executor = ingest.NewExecutor(ingest.WithLogger(r.logger))
	}
	return r
}

// RunOptions selects and tunes one run.
type RunOptions struct {
	Job    string
	Params Params

	DryRun             bool
	Strict             bool
	FailFast           bool
	MaxFailures        int
	ExpectedMinRecords int
	ShowProgress       bool
}

// Report is the outcome of one job run.
type Report struct {
	ingest.Result

	// StartedAt is the UTC start of the run.
	StartedAt time.Time
	// Committed is set when the transaction was committed.
	Committed bool
	// ArchivedAs names the uploaded report object, if any.
	ArchivedAs string
}

// ShouldCommit reports whether a run with the given outcome may be
// committed. Dry runs never are; partial writes only when not strict.
func ShouldCommit(res ingest.Result, strict bool) bool {
	if res.DryRun {
		return false
	}
	switch res.Status {
	case status.OK, status.OKNoData:
		return true
	case status.IngestionPartialWrite:
		return !strict
	default:
		return false
	}
}

// Run executes the named job. A non-nil error means the run could not start
// or could not be committed; otherwise the outcome is in the Report.
func (r *Runner) Run(ctx context.Context, opts RunOptions) (Report, error) {
	def, err := r.registry.Lookup(opts.Job)
	if err != nil {
		return Report{}, err
	}
	if missing := def.Missing(opts.Params); len(missing) > 0 {
		return Report{}, status.Newf(status.ExecutionInvalidArgument, "job %s requires %s", def.Name, strings.Join(missing, ", "))
	}

	runID := uuid.NewString()
	log := logger.WithRun(r.logger, def.Name, runID)
	started := r.now()

	// The transaction outlives cancellation so that it is rolled back here,
	// not behind the runner's back by database/sql.
	tx, err := database.Begin(context.WithoutCancel(ctx), r.db)
	if err != nil {
		return Report{}, err
	}
	var gw database.Gateway = tx
	var dry *database.DryRun
	if opts.DryRun {
		dry = database.NewDryRun(tx, log)
		gw = dry
	}

	j, err := def.New(Deps{
		Client:  r.client,
		Gateway: gw,
		Logger:  log,
		DryRun:  opts.DryRun,
		Now:     r.now,
	}, opts.Params)
	if err != nil {
		_ = gw.Rollback()
		return Report{}, err
	}

	res := r.executor.Run(ctx, j, j, ingest.Options{
		Job:                def.Name,
		RunID:              runID,
		ExpectedMinRecords: opts.ExpectedMinRecords,
		ShowProgress:       opts.ShowProgress,
		DryRun:             opts.DryRun,
		FailFast:           opts.FailFast,
		MaxFailures:        opts.MaxFailures,
		DeferSummary:       true,
	})
	report := Report{Result: res, StartedAt: started}

	var extra []zap.Field
	if dry != nil {
		extra = append(extra, zap.Int64(logger.FieldSuppressed, dry.Suppressed()))
	}

	if ShouldCommit(res, opts.Strict) {
		if err := gw.Commit(); err != nil {
			_ = gw.Rollback()
			fields := append(ingest.SummaryFields(res), zap.Bool(logger.FieldCommitted, false), zap.Error(err))
			log.Error(ingest.SummaryMessage, fields...)
			return report, status.Wrap(err, status.DBTransactionFailed, "commit ingestion run")
		}
		report.Committed = true
	} else if err := gw.Rollback(); err != nil {
		log.Warn("Rollback failed", zap.Error(err))
	}

	ingest.LogSummary(log, res, append(extra, zap.Bool(logger.FieldCommitted, report.Committed))...)

	r.archiveReport(ctx, log, &report)
	return report, nil
}

func (r *Runner) archiveReport(ctx context.Context, log *zap.Logger, report *Report) {
	if r.archive == nil || report.DryRun {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), archiveTimeout)
	defer cancel()

	name, err := r.archive.PutReport(ctx, report.Job, report.RunID, report.StartedAt, report.Document())
	if err != nil {
		log.Warn("Run report not archived", zap.Error(err))
		return
	}
	report.ArchivedAs = name
	log.Debug("Run report archived", zap.String("object", name))
}
