package reconcile

import (
	"context"
	"fmt"

	"bitsight-connector/core/database"
	"bitsight-connector/core/logger"
	"bitsight-connector/core/status"
	"bitsight-connector/core/utils"

	"go.uber.org/zap"
)

// Reconciler classifies records of one run against persisted state and,
// once the run is complete, finds the keys that disappeared.
//
// A Reconciler is run scoped and not safe for concurrent use.
type Reconciler struct {
	gw      database.Gateway
	spec    Spec
	opts    Options
	logger  *zap.Logger
	seen    map[string]struct{}
	hashes  map[string]string
	delta   Delta
	removed []Action

	complete  bool
	finalized bool
}

// New returns a Reconciler for spec over gw.
func New(gw database.Gateway, spec Spec, opts Options, log *zap.Logger) *Reconciler {
	log = logger.OrNop(log)
	return &Reconciler{
		gw:     gw,
		spec:   spec,
		opts:   opts,
		logger: log.With(zap.String(logger.FieldTable, spec.Table)),
		seen:   make(map[string]struct{}),
		hashes: make(map[string]string),
	}
}

// Observe classifies rec and records it at once. It is the side effect
// free path used by previews.
func (r *Reconciler) Observe(ctx context.Context, rec any) (Observation, error) {
	obs, err := r.Classify(ctx, rec)
	if err != nil {
		return Observation{}, err
	}
	r.Record(obs)
	return obs, nil
}

// Classify resolves the key and hash of rec and compares them with the
// persisted payload hash. It changes no run state, so a record whose write
// fails is never counted or marked as seen.
func (r *Reconciler) Classify(ctx context.Context, rec any) (Observation, error) {
	key, err := r.spec.Keys.Key(rec)
	if err != nil {
		return Observation{}, err
	}
	hash, err := Hash(rec)
	if err != nil {
		return Observation{}, err
	}

	previous, found, err := r.lookup(ctx, key)
	if err != nil {
		return Observation{}, err
	}

	return Observation{
		Key:      key,
		Hash:     hash,
		Previous: previous,
		Change:   Classify(previous, found, hash),
	}, nil
}

// Record adds a classified record to the seen set and the delta. Writers
// call it only once the record is persisted.
func (r *Reconciler) Record(obs Observation) {
	if _, dup := r.seen[obs.Key]; dup {
		r.logger.Debug("Key seen twice in one run", zap.String(logger.FieldKey, obs.Key))
	}
	r.seen[obs.Key] = struct{}{}
	r.hashes[obs.Key] = obs.Hash

	switch obs.Change {
	case ChangeNew:
		r.delta.New++
	case ChangeUpdated:
		r.delta.Updated++
	case ChangeUnchanged:
		r.delta.Unchanged++
	}
}

// lookup returns the hash a key had before this observation. Keys already
// recorded in this run compare against the in-run hash, so a dry run and a
// real run classify duplicates the same way.
func (r *Reconciler) lookup(ctx context.Context, key string) (string, bool, error) {
	if h, ok := r.hashes[key]; ok {
		return h, true, nil
	}
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s = ?", database.ColumnPayloadHash, r.spec.Table, r.spec.KeyColumn)
	value, err := r.gw.Scalar(ctx, query, key)
	if err != nil {
		return "", false, err
	}
	if value == nil {
		return "", false, nil
	}
	return utils.ToString(value), true, nil
}

// Complete marks the fetch enumeration as complete and error free. Only
// then is the seen set authoritative for removal.
func (r *Reconciler) Complete() {
	r.complete = true
}

// Seen returns the keys observed so far. The map must not be modified.
func (r *Reconciler) Seen() map[string]struct{} {
	return r.seen
}

// DeactivateMissing soft deletes every active persisted key absent from
// seen and returns how many there were. In a dry run it only counts.
//
// It must run once, after Complete.
func (r *Reconciler) DeactivateMissing(ctx context.Context, seen map[string]struct{}) (int, error) {
	if !r.complete {
		return 0, status.New(status.InternalInvariantViolation, "removal detection requested before the run completed")
	}
	if r.finalized {
		return 0, status.New(status.InternalInvariantViolation, "removal detection already ran for this run")
	}
	r.finalized = true

	active, err := r.gw.ActiveKeys(ctx, r.spec.Table, r.spec.KeyColumn)
	if err != nil {
		return 0, err
	}

	actions := PlanRemovals(active, seen)
	r.removed = actions

	if !r.opts.DryRun {
		for _, action := range actions {
			if err := r.gw.Deactivate(ctx, r.spec.Table, r.spec.KeyColumn, action.Key); err != nil {
				return 0, status.Wrapf(err, status.IngestionReconcileFailed, "deactivate %s", action.Key)
			}
		}
	}

	r.delta.Removed = len(actions)
	r.logger.Debug("Removal detection finished",
		zap.Int("active", len(active)),
		zap.Int("seen", len(seen)),
		zap.Int(logger.FieldRemoved, len(actions)),
		zap.Bool(logger.FieldDryRun, r.opts.DryRun))

	return len(actions), nil
}

// Removals returns the deactivations planned by DeactivateMissing.
func (r *Reconciler) Removals() []Action {
	return r.removed
}

// Delta returns the counters accumulated so far.
func (r *Reconciler) Delta() Delta {
	return r.delta
}
