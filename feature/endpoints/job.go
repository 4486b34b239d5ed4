package endpoints

import (
	"context"
	"net/url"
	"sort"
	"strings"

	"bitsight-connector/core/database"
	"bitsight-connector/core/ingest"
	"bitsight-connector/core/job"
	"bitsight-connector/core/logger"
	"bitsight-connector/core/reconcile"
	"bitsight-connector/core/status"
	"bitsight-connector/core/transport"
	"bitsight-connector/core/utils"

	"go.uber.org/zap"
)

// Job ingests one endpoint into its table. Writing, preview, removal and
// delta reporting come from the embedded reconcile.Sink.
type Job struct {
	*reconcile.Sink

	ep     endpoint
	client *transport.Client
	params job.Params
	logger *zap.Logger
}

var (
	_ job.Job              = (*Job)(nil)
	_ ingest.Previewer     = (*Job)(nil)
	_ ingest.Finalizer     = (*Job)(nil)
	_ ingest.DeltaReporter = (*Job)(nil)
)

// Name implements job.Job.
func (j *Job) Name() string {
	return j.ep.name
}

// Fetch implements job.Job.
func (j *Job) Fetch(ctx context.Context) ([]ingest.Record, error) {
	path := j.ep.path
	for _, name := range j.ep.requires() {
		path = strings.ReplaceAll(path, "{"+name+"}", url.PathEscape(j.params.Get(name)))
	}
	params := url.Values{}
	for k, v := range j.ep.params {
		params.Set(k, v)
	}

	var (
		items []any
		err   error
	)
	switch j.ep.mode {
	case paged:
		items, err = j.client.FetchAll(ctx, path, params)
	case single:
		items, err = j.fetchSingle(ctx, path, params)
	case report:
		items, err = j.client.GetCSV(ctx, path, params)
	case object:
		items, err = j.fetchObject(ctx, path, params)
	case keyed:
		items, err = j.fetchKeyed(ctx, path, params)
	default:
		err = status.Newf(status.InternalUnreachable, "endpoint %s has no fetch mode", j.ep.name)
	}
	if err != nil {
		return nil, err
	}

	if names := j.ep.requires(); len(names) > 0 {
		for _, item := range items {
			obj, ok := item.(map[string]any)
			if !ok {
				continue
			}
			for _, name := range names {
				obj[name] = j.params.Get(name)
			}
		}
	}

	j.logger.Debug("Fetched records", zap.Int(logger.FieldFetched, len(items)))
	return items, nil
}

func (j *Job) fetchSingle(ctx context.Context, path string, params url.Values) ([]any, error) {
	body, err := j.client.GetJSON(ctx, path, params)
	if err != nil {
		return nil, err
	}
	switch v := body.(type) {
	case []any:
		return v, nil
	case map[string]any:
		if results, ok := v["results"].([]any); ok {
			return results, nil
		}
	}
	return nil, status.Newf(status.APISchemaChanged, "response from %s is neither a list nor has a results array", path)
}

func (j *Job) fetchObject(ctx context.Context, path string, params url.Values) ([]any, error) {
	body, err := j.client.GetJSON(ctx, path, params)
	if err != nil {
		return nil, err
	}
	obj, ok := body.(map[string]any)
	if !ok {
		return nil, status.Newf(status.APISchemaChanged, "response from %s is %T, expected an object", path, body)
	}
	return []any{obj}, nil
}

func (j *Job) fetchKeyed(ctx context.Context, path string, params url.Values) ([]any, error) {
	body, err := j.client.GetJSON(ctx, path, params)
	if err != nil {
		return nil, err
	}
	obj, ok := body.(map[string]any)
	if !ok {
		return nil, status.Newf(status.APISchemaChanged, "response from %s is %T, expected an object", path, body)
	}
	names := make([]string, 0, len(obj))
	for name := range obj {
		names = append(names, name)
	}
	sort.Strings(names)

	items := make([]any, 0, len(names))
	for _, name := range names {
		entry, ok := obj[name].(map[string]any)
		if !ok {
			entry = map[string]any{"value": obj[name]}
		}
		entry[j.ep.entryKey] = name
		items = append(items, entry)
	}
	return items, nil
}

// project converts a looked up value to the storage type of its column.
// Missing and blank values stay NULL.
func project(val any, kind database.ColumnKind) any {
	if val == nil {
		return nil
	}
	if s, ok := val.(string); ok && kind != database.KindText && strings.TrimSpace(s) == "" {
		return nil
	}
	switch kind {
	case database.KindInt:
		return utils.ToInt(val)
	case database.KindNum:
		return utils.ToFloat(val)
	case database.KindFlag:
		return utils.ToBool(val)
	default:
		return utils.ToColumn(val)
	}
}

// mapper builds the column projection of an endpoint.
func mapper(ep endpoint) func(map[string]any) map[string]any {
	return func(rec map[string]any) map[string]any {
		row := make(map[string]any, len(ep.columns))
		for _, col := range ep.columns {
			row[col.name] = project(utils.Lookup(rec, col.path), ep.kinds[col.name])
		}
		return row
	}
}

// tableSpec returns the table an endpoint writes to.
func tableSpec(ep endpoint) database.TableSpec {
	names := make([]string, len(ep.columns))
	for i, col := range ep.columns {
		names[i] = col.name
	}
	return database.TableSpec{Name: ep.table, KeyColumn: ep.keyColumn, Columns: names, Kinds: ep.kinds}
}

func constructor(ep endpoint) job.Constructor {
	return func(deps job.Deps, params job.Params) (job.Job, error) {
		for _, name := range ep.requires() {
			if params.Get(name) == "" {
				return nil, status.Newf(status.ExecutionInvalidArgument, "%s requires %s", ep.name, name)
			}
		}
		if deps.Client == nil {
			return nil, status.New(status.ConfigMissing, "API client is not configured")
		}
		log := logger.OrNop(deps.Logger).With(zap.String(logger.FieldTable, ep.table))

		sink := reconcile.NewSink(deps.Gateway, reconcile.Spec{
			Table:             ep.table,
			KeyColumn:         ep.keyColumn,
			Keys:              ep.keys,
			Map:               mapper(ep),
			DeactivateMissing: ep.reconciled,
		}, reconcile.SinkOptions{
			DryRun: deps.DryRun,
			Now:    deps.Now,
			Logger: log,
		})

		return &Job{
			Sink:   sink,
			ep:     ep,
			client: deps.Client,
			params: params,
			logger: log,
		}, nil
	}
}

// Definitions returns a job definition for every catalogue entry.
func Definitions() []job.Definition {
	defs := make([]job.Definition, len(catalogue))
	for i, ep := range catalogue {
		defs[i] = job.Definition{
			Name:        ep.name,
			Description: ep.description,
			Table:       tableSpec(ep),
			Requires:    ep.requires(),
			Reconciled:  ep.reconciled,
			New:         constructor(ep),
		}
	}
	return defs
}

// Register adds every endpoint job to r.
func Register(r *job.Registry) *job.Registry {
	return r.MustRegister(Definitions()...)
}
