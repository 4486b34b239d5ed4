package database

import (
	"context"
	"database/sql"
	"sort"
	"strings"

	"bitsight-connector/core/status"

	"github.com/cockroachdb/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Column names every reconciled table carries.
const (
	ColumnIsActive    = "is_active"
	ColumnPayloadHash = "payload_hash"
	ColumnRawPayload  = "raw_payload"
	ColumnIngestedAt  = "ingested_at"
)

// Gateway is the persistence capability an ingestion run needs. All
// mutating calls happen inside one transaction owned by the caller.
type Gateway interface {
	// Scalar returns the first column of the first row, or nil when the
	// query returns no rows.
	Scalar(ctx context.Context, query string, args ...any) (any, error)
	// Execute runs a statement and returns the number of affected rows.
	Execute(ctx context.Context, query string, args ...any) (int64, error)
	// Upsert inserts row or, when keyColumn already exists, updates every
	// other column of row.
	Upsert(ctx context.Context, table, keyColumn string, row map[string]any) error
	// Update sets values on the row identified by key. A key matching no
	// row is an error.
	Update(ctx context.Context, table, keyColumn, key string, values map[string]any) error
	// Deactivate soft deletes the row identified by key.
	Deactivate(ctx context.Context, table, keyColumn, key string) error
	// ActiveKeys returns the sorted keys of rows with is_active set.
	ActiveKeys(ctx context.Context, table, keyColumn string) ([]string, error)
	// TableExists reports whether table is present.
	TableExists(ctx context.Context, table string) (bool, error)
	// Ping verifies the connection is alive.
	Ping(ctx context.Context) error
	// Commit makes every mutation durable.
	Commit() error
	// Rollback discards every mutation. It is safe to call after Commit.
	Rollback() error
}

// Tx is a Gateway backed by a gorm transaction.
type Tx struct {
	root *gorm.DB
	tx   *gorm.DB
	done bool
}

var _ Gateway = (*Tx)(nil)

// Begin opens a transaction on db.
func Begin(ctx context.Context, db *gorm.DB) (*Tx, error) {
	if db == nil {
		return nil, status.New(status.DBConnectionFailed, "database is not connected")
	}
	tx := db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, classifyWrite(tx.Error, status.DBTransactionFailed, "begin transaction")
	}
	return &Tx{root: db, tx: tx}, nil
}

// Scalar implements Gateway.
func (t *Tx) Scalar(ctx context.Context, query string, args ...any) (any, error) {
	var value any
	err := t.tx.WithContext(ctx).Raw(query, args...).Row().Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, classifyWrite(err, status.DBReadFailed, "scalar query")
	}
	if b, ok := value.([]byte); ok {
		return string(b), nil
	}
	return value, nil
}

// Execute implements Gateway.
func (t *Tx) Execute(ctx context.Context, query string, args ...any) (int64, error) {
	res := t.tx.WithContext(ctx).Exec(query, args...)
	if res.Error != nil {
		return 0, classifyWrite(res.Error, status.DBInsertFailed, "execute statement")
	}
	return res.RowsAffected, nil
}

// Upsert implements Gateway using the dialect's native upsert (MERGE on
// sqlserver, ON DUPLICATE KEY on mysql, ON CONFLICT on sqlite).
func (t *Tx) Upsert(ctx context.Context, table, keyColumn string, row map[string]any) error {
	if _, ok := row[keyColumn]; !ok {
		return status.Newf(status.RecordKeyMissing, "row for %s has no %s", table, keyColumn)
	}

	updates := make([]string, 0, len(row)-1)
	for col := range row {
		if col != keyColumn {
			updates = append(updates, col)
		}
	}
	sort.Strings(updates)

	if len(updates) == 0 {
		updates = []string{keyColumn}
	}

	db := t.tx.WithContext(ctx)
	if db.Dialector.Name() == "sqlserver" {
		return t.merge(db, table, keyColumn, row, updates)
	}

	conflict := clause.OnConflict{
		Columns:   []clause.Column{{Name: keyColumn}},
		DoUpdates: clause.AssignmentColumns(updates),
	}
	res := db.Table(table).Clauses(conflict).Create(row)
	if res.Error != nil {
		return classifyWrite(res.Error, status.DBInsertFailed, "upsert into "+table)
	}
	return nil
}

// merge issues a MERGE statement. The sqlserver dialector only emits MERGE
// for model-backed creates, and rows here are plain maps.
func (t *Tx) merge(db *gorm.DB, table, keyColumn string, row map[string]any, updates []string) error {
	quote := func(name string) string {
		var b strings.Builder
		db.Dialector.QuoteTo(&b, name)
		return b.String()
	}

	query, cols := mergeSQL(quote, table, keyColumn, row, updates)
	args := make([]any, 0, len(cols))
	for _, col := range cols {
		args = append(args, row[col])
	}

	if err := db.Exec(query, args...).Error; err != nil {
		return classifyWrite(err, status.DBInsertFailed, "merge into "+table)
	}
	return nil
}

// mergeSQL renders the MERGE statement and returns the column order of its
// placeholders.
func mergeSQL(quote func(string) string, table, keyColumn string, row map[string]any, updates []string) (string, []string) {
	cols := make([]string, 0, len(row))
	for col := range row {
		cols = append(cols, col)
	}
	sort.Strings(cols)

	var (
		source = make([]string, 0, len(cols))
		insert = make([]string, 0, len(cols))
		values = make([]string, 0, len(cols))
		sets   = make([]string, 0, len(updates))
	)
	for _, col := range cols {
		source = append(source, "? AS "+quote(col))
		insert = append(insert, quote(col))
		values = append(values, "source."+quote(col))
	}
	for _, col := range updates {
		sets = append(sets, "target."+quote(col)+" = source."+quote(col))
	}

	var sb strings.Builder
	sb.WriteString("MERGE INTO " + quote(table) + " WITH (HOLDLOCK) AS target")
	sb.WriteString(" USING (SELECT " + strings.Join(source, ", ") + ") AS source")
	sb.WriteString(" ON target." + quote(keyColumn) + " = source." + quote(keyColumn))
	sb.WriteString(" WHEN MATCHED THEN UPDATE SET " + strings.Join(sets, ", "))
	sb.WriteString(" WHEN NOT MATCHED THEN INSERT (" + strings.Join(insert, ", ") + ")")
	sb.WriteString(" VALUES (" + strings.Join(values, ", ") + ");")
	return sb.String(), cols
}

// Update implements Gateway.
func (t *Tx) Update(ctx context.Context, table, keyColumn, key string, values map[string]any) error {
	res := t.tx.WithContext(ctx).Table(table).
		Where(clause.Eq{Column: clause.Column{Name: keyColumn}, Value: key}).
		Updates(values)
	if res.Error != nil {
		return classifyWrite(res.Error, status.DBInsertFailed, "update "+table)
	}
	if res.RowsAffected == 0 {
		return status.Newf(status.RecordWriteFailed, "update %s: no row with %s = %q", table, keyColumn, key)
	}
	return nil
}

// Deactivate implements Gateway.
func (t *Tx) Deactivate(ctx context.Context, table, keyColumn, key string) error {
	res := t.tx.WithContext(ctx).Table(table).
		Where(clause.Eq{Column: clause.Column{Name: keyColumn}, Value: key}).
		Update(ColumnIsActive, false)
	if res.Error != nil {
		return classifyWrite(res.Error, status.DBInsertFailed, "deactivate row in "+table)
	}
	return nil
}

// ActiveKeys implements Gateway.
func (t *Tx) ActiveKeys(ctx context.Context, table, keyColumn string) ([]string, error) {
	var keys []string
	res := t.tx.WithContext(ctx).Table(table).
		Where(clause.Eq{Column: clause.Column{Name: ColumnIsActive}, Value: true}).
		Pluck(keyColumn, &keys)
	if res.Error != nil {
		return nil, classifyWrite(res.Error, status.DBReadFailed, "list active keys in "+table)
	}
	sort.Strings(keys)
	return keys, nil
}

// TableExists implements Gateway.
func (t *Tx) TableExists(ctx context.Context, table string) (bool, error) {
	return t.tx.WithContext(ctx).Migrator().HasTable(table), nil
}

// Ping implements Gateway.
func (t *Tx) Ping(ctx context.Context) error {
	sqlDB, err := t.root.DB()
	if err != nil {
		return status.Wrap(err, status.DBConnectionFailed, "get sql.DB")
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return classifyConnect(err, "ping database")
	}
	return nil
}

// Commit implements Gateway.
func (t *Tx) Commit() error {
	if t.done {
		return status.New(status.DBTransactionFailed, "transaction already finished")
	}
	t.done = true
	if err := t.tx.Commit().Error; err != nil {
		return status.Wrap(err, status.DBTransactionFailed, "commit")
	}
	return nil
}

// Rollback implements Gateway.
func (t *Tx) Rollback() error {
	if t.done {
		return nil
	}
	t.done = true
	// database/sql already rolled back transactions whose context ended.
	if err := t.tx.Rollback().Error; err != nil && !errors.Is(err, sql.ErrTxDone) {
		return status.Wrap(err, status.DBTransactionFailed, "rollback")
	}
	return nil
}

// classifyWrite maps a driver error onto a database status code, falling
// back to fallback when nothing more specific applies.
func classifyWrite(err error, fallback status.Code, msg string) error {
	if errors.Is(err, context.Canceled) {
		return status.Wrap(err, status.ExecutionInterrupted, msg)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return status.Wrap(err, status.DBTimeout, msg)
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) || errors.Is(err, gorm.ErrForeignKeyViolated) {
		return status.Wrap(err, status.DBConstraintViolation, msg)
	}
	lower := strings.ToLower(err.Error())
	switch {
	case strings.Contains(lower, "constraint"), strings.Contains(lower, "duplicate"):
		return status.Wrap(err, status.DBConstraintViolation, msg)
	case strings.Contains(lower, "truncat"), strings.Contains(lower, "too long"):
		return status.Wrap(err, status.DataTruncation, msg)
	case strings.Contains(lower, "no such table"), strings.Contains(lower, "doesn't exist"), strings.Contains(lower, "invalid object name"):
		return status.Wrap(err, status.DBSchemaMissing, msg)
	}
	return status.Wrap(err, fallback, msg)
}
