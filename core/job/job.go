package job

import (
	"context"
	"sort"
	"strings"
	"time"

	"bitsight-connector/core/database"
	"bitsight-connector/core/ingest"
	"bitsight-connector/core/status"
	"bitsight-connector/core/transport"

	"go.uber.org/zap"
)

// Job is one ingestion job bound to a single run. It fetches its record set
// once and writes records one at a time.
type Job interface {
	// Name returns the registry name of the job.
	Name() string
	// Fetch returns the complete record set of the run.
	Fetch(ctx context.Context) ([]ingest.Record, error)
	// Write persists a single record.
	Write(ctx context.Context, rec ingest.Record) error
}

// Params are the per-invocation job arguments, keyed by name. Path
// templated endpoints read their placeholders from here.
type Params map[string]string

// Parameter names accepted on the command line.
const (
	ParamCompanyGUID = "company_guid"
	ParamThreatGUID  = "threat_guid"
	ParamEntityGUID  = "entity_guid"
	ParamUserGUID    = "user_guid"
)

// Get returns the trimmed value of name, or "" when it is unset.
func (p Params) Get(name string) string {
	return strings.TrimSpace(p[name])
}

// Deps are the collaborators a job is constructed with.
type Deps struct {
	// Client talks to the vendor API.
	Client *transport.Client
	// Gateway is the run's transaction. In a dry run it suppresses every
	// mutation.
	Gateway database.Gateway
	// Logger is scoped to the run.
	Logger *zap.Logger
	// DryRun is set when no mutation may reach the database.
	DryRun bool
	// Now stamps ingested rows.
	Now func() time.Time
}

// Constructor builds a job for one run.
type Constructor func(deps Deps, params Params) (Job, error)

// Definition describes a registered job.
type Definition struct {
	// Name is the stable identifier used on the command line.
	Name string
	// Description is a one-line summary for listings.
	Description string
	// Table is the target table of the job.
	Table database.TableSpec
	// Requires names the Params a run cannot start without.
	Requires []string
	// Reconciled jobs deactivate rows missing from a complete fetch.
	Reconciled bool
	// New constructs the job.
	New Constructor
}

// Scoped reports whether the job runs against one entity rather than the
// whole account.
func (d Definition) Scoped() bool {
	return len(d.Requires) > 0
}

// Missing returns the required params absent from p, in declared order.
func (d Definition) Missing(p Params) []string {
	var out []string
	for _, name := range d.Requires {
		if p.Get(name) == "" {
			out = append(out, name)
		}
	}
	return out
}

// Registry maps job names to their definitions. Registration happens at
// start-up; lookups are read only.
type Registry struct {
	defs map[string]Definition
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{defs: make(map[string]Definition)}
}

// Register adds def. Names must be unique and non-empty.
func (r *Registry) Register(def Definition) error {
	if def.Name == "" {
		return status.New(status.InternalInvariantViolation, "job definition without a name")
	}
	if def.New == nil {
		return status.Newf(status.InternalInvariantViolation, "job %s has no constructor", def.Name)
	}
	if _, exists := r.defs[def.Name]; exists {
		return status.Newf(status.InternalInvariantViolation, "job %s registered twice", def.Name)
	}
	r.defs[def.Name] = def
	return nil
}

// MustRegister is Register for static catalogues; it panics on error.
func (r *Registry) MustRegister(defs ...Definition) *Registry {
	for _, def := range defs {
		if err := r.Register(def); err != nil {
			panic(err)
		}
	}
	return r
}

// Lookup returns the definition registered under name.
func (r *Registry) Lookup(name string) (Definition, error) {
	def, ok := r.defs[name]
	if !ok {
		return Definition{}, status.Newf(status.ExecutionDispatchFailed, "unknown job %q", name)
	}
	return def, nil
}

// Definitions returns every definition sorted by name.
func (r *Registry) Definitions() []Definition {
	out := make([]Definition, 0, len(r.defs))
	for _, def := range r.defs {
		out = append(out, def)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Names returns every registered name, sorted.
func (r *Registry) Names() []string {
	defs := r.Definitions()
	out := make([]string, len(defs))
	for i, def := range defs {
		out[i] = def.Name
	}
	return out
}

// Tables returns the table specs of every job, sorted by job name.
func (r *Registry) Tables() []database.TableSpec {
	defs := r.Definitions()
	out := make([]database.TableSpec, len(defs))
	for i, def := range defs {
		out[i] = def.Table
	}
	return out
}
