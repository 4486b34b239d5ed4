package job

import (
	"testing"

	"bitsight-connector/core/database"
	"bitsight-connector/core/status"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stubDefinition(name string) Definition {
	return Definition{
		Name:  name,
		Table: database.TableSpec{Name: "bitsight_" + name, KeyColumn: "guid"},
		New: func(Deps, Params) (Job, error) {
			return nil, nil
		},
	}
}

func TestRegistry_RegisterAndLookup(t *testing.T) {
	r := NewRegistry().MustRegister(stubDefinition("tiers"), stubDefinition("alerts"))

	def, err := r.Lookup("alerts")
	require.NoError(t, err)
	assert.Equal(t, "bitsight_alerts", def.Table.Name)

	assert.Equal(t, []string{"alerts", "tiers"}, r.Names())
	assert.Equal(t, "bitsight_alerts", r.Tables()[0].Name)
}

func TestRegistry_UnknownJob(t *testing.T) {
	_, err := NewRegistry().Lookup("nope")
	assert.True(t, status.Is(err, status.ExecutionDispatchFailed))
	assert.Equal(t, status.ExitInternalDispatchFailure, status.ExitForError(err))
}

func TestRegistry_RejectsBadDefinitions(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(stubDefinition("alerts")))

	assert.Error(t, r.Register(stubDefinition("alerts")))
	assert.Error(t, r.Register(Definition{Name: ""}))
	assert.Error(t, r.Register(Definition{Name: "x"}))

	assert.Panics(t, func() { r.MustRegister(stubDefinition("alerts")) })
}

func TestDefinition_Missing(t *testing.T) {
	def := stubDefinition("threats-impact")
	assert.False(t, def.Scoped())
	assert.Empty(t, def.Missing(nil))

	def.Requires = []string{ParamThreatGUID, ParamEntityGUID}
	assert.True(t, def.Scoped())
	assert.Equal(t, []string{ParamThreatGUID, ParamEntityGUID}, def.Missing(nil))
	assert.Equal(t, []string{ParamEntityGUID}, def.Missing(Params{ParamThreatGUID: "t-1"}))
	assert.Empty(t, def.Missing(Params{ParamThreatGUID: "t-1", ParamEntityGUID: "e-1"}))
}
