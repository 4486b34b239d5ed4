package database

import (
	"context"
	"sync/atomic"

	"bitsight-connector/core/logger"

	"go.uber.org/zap"
)

// DryRun wraps a Gateway so that no mutating call reaches the database.
// Reads pass through so that classification still sees persisted state.
type DryRun struct {
	inner      Gateway
	log        *zap.Logger
	suppressed atomic.Int64
}

var _ Gateway = (*DryRun)(nil)

// NewDryRun returns a Gateway that suppresses every mutation on inner.
func NewDryRun(inner Gateway, log *zap.Logger) *DryRun {
	return &DryRun{inner: inner, log: logger.OrNop(log)}
}

// Suppressed returns how many mutating calls were swallowed.
func (d *DryRun) Suppressed() int64 {
	return d.suppressed.Load()
}

func (d *DryRun) skip(op, table string) {
	d.suppressed.Add(1)
	d.log.Debug("Dry run: mutation suppressed", zap.String("op", op), zap.String(logger.FieldTable, table))
}

// Scalar implements Gateway.
func (d *DryRun) Scalar(ctx context.Context, query string, args ...any) (any, error) {
	return d.inner.Scalar(ctx, query, args...)
}

// Execute implements Gateway. It never runs the statement.
func (d *DryRun) Execute(_ context.Context, _ string, _ ...any) (int64, error) {
	d.skip("execute", "")
	return 0, nil
}

// Upsert implements Gateway.
func (d *DryRun) Upsert(_ context.Context, table, _ string, _ map[string]any) error {
	d.skip("upsert", table)
	return nil
}

// Update implements Gateway.
func (d *DryRun) Update(_ context.Context, table, _, _ string, _ map[string]any) error {
	d.skip("update", table)
	return nil
}

// Deactivate implements Gateway.
func (d *DryRun) Deactivate(_ context.Context, table, _, _ string) error {
	d.skip("deactivate", table)
	return nil
}

// ActiveKeys implements Gateway.
func (d *DryRun) ActiveKeys(ctx context.Context, table, keyColumn string) ([]string, error) {
	return d.inner.ActiveKeys(ctx, table, keyColumn)
}

// TableExists implements Gateway.
func (d *DryRun) TableExists(ctx context.Context, table string) (bool, error) {
	return d.inner.TableExists(ctx, table)
}

// Ping implements Gateway.
func (d *DryRun) Ping(ctx context.Context) error {
	return d.inner.Ping(ctx)
}

// Commit implements Gateway. A dry run never commits; the underlying
// transaction is rolled back instead.
func (d *DryRun) Commit() error {
	d.skip("commit", "")
	return d.inner.Rollback()
}

// Rollback implements Gateway.
func (d *DryRun) Rollback() error {
	return d.inner.Rollback()
}
