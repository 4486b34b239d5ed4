package reconcile

// Change is the classification of one record against persisted state.
type Change string

const (
	// ChangeNew means the key has never been persisted.
	ChangeNew Change = "NEW"
	// ChangeUpdated means the key exists with a different payload hash.
	ChangeUpdated Change = "UPDATED"
	// ChangeUnchanged means the key exists with the same payload hash.
	ChangeUnchanged Change = "UNCHANGED"
)

// Delta holds the run-scoped reconciliation counters.
type Delta struct {
	// New counts records whose key was never persisted.
	New int `json:"new"`

	// Updated counts records whose payload hash changed.
	Updated int `json:"updated"`

	// Unchanged counts records whose payload hash is identical.
	Unchanged int `json:"unchanged"`

	// Removed counts previously active keys absent from this run.
	Removed int `json:"removed"`
}

// Total returns the number of observed records.
func (d Delta) Total() int {
	return d.New + d.Updated + d.Unchanged
}

// Observation is the outcome of classifying one record.
type Observation struct {
	// Key is the resolved record identity.
	Key string

	// Hash is the payload hash of the record as fetched.
	Hash string

	// Previous is the persisted hash, empty for new records.
	Previous string

	// Change is the classification.
	Change Change
}

// Spec describes how one endpoint's records map onto a reconciled table.
type Spec struct {
	// Table is the destination table.
	Table string

	// KeyColumn is the primary key column of Table.
	KeyColumn string

	// Keys resolves the record identity.
	Keys KeyStrategy

	// Map extracts the mapped columns from a record. The key column and
	// the bookkeeping columns are added by the sink. May be nil.
	Map func(rec map[string]any) map[string]any

	// DeactivateMissing enables removal detection after a complete run.
	// Endpoints fetched with a filter that does not cover the whole
	// table must leave this off.
	DeactivateMissing bool
}

// Options controls reconciler behavior.
type Options struct {
	// DryRun counts removals without deactivating anything.
	DryRun bool
}
