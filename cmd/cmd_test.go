package cmd

import (
	"testing"

	"bitsight-connector/core/config"
	"bitsight-connector/core/job"
	"bitsight-connector/core/status"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExactArgs_ClassifiesUsageErrors(t *testing.T) {
	err := exactArgs(1)(ingestCmd, nil)
	require.Error(t, err)
	assert.True(t, status.Is(err, status.ExecutionInvalidArgument))
	assert.Equal(t, status.ExitCLIInvalidArgument, status.ExitForError(err))

	assert.NoError(t, exactArgs(1)(ingestCmd, []string{"companies"}))
}

func TestApplyIngestFlags(t *testing.T) {
	cmd := &cobra.Command{Use: "ingest"}
	cmd.Flags().BoolVar(&failFast, "fail-fast", false, "")
	cmd.Flags().IntVar(&maxFailures, "max-failures", 0, "")
	cmd.Flags().BoolVar(&strict, "strict", false, "")
	require.NoError(t, cmd.Flags().Parse([]string{"--max-failures", "5"}))

	cfg := config.IngestConfig{FailFast: true, Strict: true}
	applyIngestFlags(cmd, &cfg)

	assert.True(t, cfg.FailFast, "unchanged flag keeps the configured value")
	assert.Equal(t, 5, cfg.MaxFailures)
	assert.True(t, cfg.Strict)
}

func TestIsSecret(t *testing.T) {
	assert.True(t, isSecret("api.key"))
	assert.True(t, isSecret("database.password"))
	assert.True(t, isSecret("storage.secret_key"))
	assert.False(t, isSecret("database.host"))
}

func TestCommandTree(t *testing.T) {
	for _, path := range [][]string{
		{"config", "init"}, {"config", "show"}, {"config", "validate"}, {"config", "set"},
		{"config", "reset"}, {"config", "clear-keys"},
		{"db", "init"}, {"db", "status"},
		{"api", "validate"},
		{"jobs", "list"},
		{"ingest"},
	} {
		found, _, err := RootCmd.Find(path)
		require.NoError(t, err, path)
		assert.Equal(t, path[len(path)-1], found.Name())
	}
}

func TestRegistryCoversEndpoints(t *testing.T) {
	names := registry().Names()
	assert.Contains(t, names, "companies")
	assert.Contains(t, names, "ratings-history")
}

func TestIngestParams(t *testing.T) {
	t.Cleanup(func() { companyGUID, threatGUID, entityGUID, userGUID = "", "", "", "" })
	threatGUID, entityGUID = "t-1", "e-9"

	assert.Equal(t, job.Params{job.ParamThreatGUID: "t-1", job.ParamEntityGUID: "e-9"}, ingestParams())
	assert.Equal(t, "--threat-guid --entity-guid", flagList([]string{job.ParamThreatGUID, job.ParamEntityGUID}))

	for _, name := range []string{"company-guid", "threat-guid", "entity-guid", "user-guid"} {
		assert.NotNil(t, ingestCmd.Flags().Lookup(name), name)
	}
}
