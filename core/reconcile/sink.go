package reconcile

import (
	"context"
	"time"

	"bitsight-connector/core/database"
	"bitsight-connector/core/logger"
	"bitsight-connector/core/status"

	"go.uber.org/zap"
)

// Sink is the reconciling writer used by endpoint jobs. Each record is
// classified first; new and updated records are upserted, unchanged ones are
// only reactivated and stamped.
type Sink struct {
	gw     database.Gateway
	spec   Spec
	rec    *Reconciler
	dryRun bool
	now    func() time.Time
	logger *zap.Logger
}

// SinkOptions configures a Sink.
type SinkOptions struct {
	// DryRun disables every write, including removal.
	DryRun bool

	// Now stamps ingested_at. Defaults to time.Now in UTC.
	Now func() time.Time

	// Logger receives per-record debug output.
	Logger *zap.Logger
}

// NewSink returns a Sink writing spec's table through gw.
func NewSink(gw database.Gateway, spec Spec, opts SinkOptions) *Sink {
	log := logger.OrNop(opts.Logger)
	now := opts.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Sink{
		gw:     gw,
		spec:   spec,
		rec:    New(gw, spec, Options{DryRun: opts.DryRun}, log),
		dryRun: opts.DryRun,
		now:    now,
		logger: log,
	}
}

// Write classifies rec and persists it. The record counts toward the delta
// and the seen set only once the write succeeded.
func (s *Sink) Write(ctx context.Context, rec any) error {
	obs, err := s.rec.Classify(ctx, rec)
	if err != nil {
		return err
	}
	if s.dryRun {
		s.rec.Record(obs)
		return nil
	}

	ingestedAt := s.now()

	if obs.Change == ChangeUnchanged {
		err = s.gw.Update(ctx, s.spec.Table, s.spec.KeyColumn, obs.Key, map[string]any{
			database.ColumnIsActive:   true,
			database.ColumnIngestedAt: ingestedAt,
		})
	} else {
		var row map[string]any
		if row, err = s.row(rec, obs, ingestedAt); err == nil {
			err = s.gw.Upsert(ctx, s.spec.Table, s.spec.KeyColumn, row)
		}
	}
	if err != nil {
		return err
	}

	s.rec.Record(obs)
	s.logger.Debug("Record written",
		zap.String(logger.FieldKey, obs.Key),
		zap.String(logger.FieldChange, string(obs.Change)))
	return nil
}

// Preview classifies rec without writing anything.
func (s *Sink) Preview(ctx context.Context, rec any) error {
	_, err := s.rec.Observe(ctx, rec)
	return err
}

// Finalize runs removal detection when Spec.DeactivateMissing is set. The caller
// guarantees the fetch enumeration was complete.
func (s *Sink) Finalize(ctx context.Context) error {
	if !s.spec.DeactivateMissing {
		return nil
	}
	s.rec.Complete()
	_, err := s.rec.DeactivateMissing(ctx, s.rec.Seen())
	return err
}

// Delta implements the executor's delta reporting.
func (s *Sink) Delta() Delta {
	return s.rec.Delta()
}

// Removals returns the keys deactivated, or that would be in a dry run.
func (s *Sink) Removals() []Action {
	return s.rec.Removals()
}

func (s *Sink) row(rec any, obs Observation, ingestedAt time.Time) (map[string]any, error) {
	obj, ok := rec.(map[string]any)
	if !ok {
		return nil, status.Newf(status.PayloadValidationError, "record is %T, expected a JSON object", rec)
	}
	raw, err := Canonical(rec)
	if err != nil {
		return nil, err
	}

	row := map[string]any{}
	if s.spec.Map != nil {
		for col, v := range s.spec.Map(obj) {
			row[col] = v
		}
	}
	row[s.spec.KeyColumn] = obs.Key
	row[database.ColumnIsActive] = true
	row[database.ColumnPayloadHash] = obs.Hash
	row[database.ColumnRawPayload] = string(raw)
	row[database.ColumnIngestedAt] = ingestedAt
	return row, nil
}
