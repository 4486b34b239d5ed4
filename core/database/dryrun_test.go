package database

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func zapNop() *zap.Logger {
	return zap.NewNop()
}

func TestDryRun_SuppressesMutations(t *testing.T) {
	ctx := context.Background()
	db := newSQLiteDB(t)
	_, err := EnsureTables(ctx, db, []TableSpec{companiesSpec}, zapNop())
	require.NoError(t, err)

	seed, err := Begin(ctx, db)
	require.NoError(t, err)
	require.NoError(t, seed.Upsert(ctx, "companies", "company_guid", row("a", "Alpha", strings.Repeat("a", 64))))
	require.NoError(t, seed.Commit())

	tx, err := Begin(ctx, db)
	require.NoError(t, err)
	dry := NewDryRun(tx, nil)

	require.NoError(t, dry.Upsert(ctx, "companies", "company_guid", row("b", "Beta", strings.Repeat("b", 64))))
	require.NoError(t, dry.Update(ctx, "companies", "company_guid", "a", map[string]any{"name": "changed"}))
	require.NoError(t, dry.Deactivate(ctx, "companies", "company_guid", "a"))
	affected, err := dry.Execute(ctx, "DELETE FROM companies")
	require.NoError(t, err)
	assert.Zero(t, affected)

	// Reads still see persisted state.
	hash, err := dry.Scalar(ctx, "SELECT payload_hash FROM companies WHERE company_guid = ?", "a")
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("a", 64), hash)

	keys, err := dry.ActiveKeys(ctx, "companies", "company_guid")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, keys)

	exists, err := dry.TableExists(ctx, "companies")
	require.NoError(t, err)
	assert.True(t, exists)
	require.NoError(t, dry.Ping(ctx))

	require.NoError(t, dry.Commit())
	assert.Equal(t, int64(5), dry.Suppressed())

	var names []string
	require.NoError(t, db.Table("companies").Pluck("name", &names).Error)
	assert.Equal(t, []string{"Alpha"}, names)
}
