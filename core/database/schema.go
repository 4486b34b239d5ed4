package database

import (
	"bufio"
	"context"
	"regexp"
	"strings"

	"bitsight-connector/core/logger"
	"bitsight-connector/core/status"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ColumnKind is the storage type of a payload column.
type ColumnKind int

const (
	KindText ColumnKind = iota
	KindInt
	KindNum
	KindFlag
)

// TableSpec describes a reconciled table: a key column, the job's mapped
// columns and the standard bookkeeping columns.
type TableSpec struct {
	// Name is the table name.
	Name string
	// KeyColumn is the primary key.
	KeyColumn string
	// Columns are the mapped payload columns, stored as text unless Kinds
	// says otherwise.
	Columns []string
	Kinds   map[string]ColumnKind
}

// RequiredColumns returns every column the table must have.
func (s TableSpec) RequiredColumns() []string {
	out := []string{s.KeyColumn}
	out = append(out, s.Columns...)
	return append(out, ColumnIsActive, ColumnPayloadHash, ColumnRawPayload, ColumnIngestedAt)
}

type columnTypes struct {
	key, text, active, hash, raw, ts string
	integer, number, flag            string
}

func (c columnTypes) payload(kind ColumnKind) string {
	switch kind {
	case KindInt:
		return c.integer
	case KindNum:
		return c.number
	case KindFlag:
		return c.flag
	default:
		return c.text
	}
}

var dialectTypes = map[string]columnTypes{
	"sqlserver": {
		key: "NVARCHAR(255)", text: "NVARCHAR(MAX)", active: "BIT NOT NULL DEFAULT 1",
		hash: "CHAR(64)", raw: "NVARCHAR(MAX)", ts: "DATETIME2",
		integer: "BIGINT", number: "FLOAT", flag: "BIT",
	},
	"mysql": {
		key: "VARCHAR(255)", text: "TEXT", active: "TINYINT(1) NOT NULL DEFAULT 1",
		hash: "CHAR(64)", raw: "LONGTEXT", ts: "DATETIME(6)",
		integer: "BIGINT", number: "DOUBLE", flag: "TINYINT(1)",
	},
	"sqlite": {
		key: "TEXT", text: "TEXT", active: "BOOLEAN NOT NULL DEFAULT 1",
		hash: "TEXT", raw: "TEXT", ts: "DATETIME",
		integer: "INTEGER", number: "REAL", flag: "BOOLEAN",
	},
}

// CreateTableSQL renders the DDL for spec in the dialect of db.
func CreateTableSQL(db *gorm.DB, spec TableSpec) (string, error) {
	types, ok := dialectTypes[db.Dialector.Name()]
	if !ok {
		return "", status.Newf(status.ConfigInvalid, "no DDL mapping for dialect %s", db.Dialector.Name())
	}
	quote := func(name string) string {
		var b strings.Builder
		db.Dialector.QuoteTo(&b, name)
		return b.String()
	}

	defs := []string{quote(spec.KeyColumn) + " " + types.key + " NOT NULL PRIMARY KEY"}
	for _, col := range spec.Columns {
		if col == spec.KeyColumn {
			continue
		}
		defs = append(defs, quote(col)+" "+types.payload(spec.Kinds[col])+" NULL")
	}
	defs = append(defs,
		quote(ColumnIsActive)+" "+types.active,
		quote(ColumnPayloadHash)+" "+types.hash+" NOT NULL",
		quote(ColumnRawPayload)+" "+types.raw+" NULL",
		quote(ColumnIngestedAt)+" "+types.ts+" NOT NULL",
	)
	return "CREATE TABLE " + quote(spec.Name) + " (\n  " + strings.Join(defs, ",\n  ") + "\n)", nil
}

// EnsureTables creates every missing table in one transaction and returns
// the names of the tables it created.
func EnsureTables(ctx context.Context, db *gorm.DB, specs []TableSpec, log *zap.Logger) ([]string, error) {
	var created []string
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, spec := range specs {
			if tx.Migrator().HasTable(spec.Name) {
				continue
			}
			ddl, err := CreateTableSQL(tx, spec)
			if err != nil {
				return err
			}
			if err := tx.Exec(ddl).Error; err != nil {
				return status.Wrapf(err, status.DBTransactionFailed, "create table %s", spec.Name)
			}
			log.Info("Created table", zap.String(logger.FieldTable, spec.Name))
			created = append(created, spec.Name)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

var batchSeparator = regexp.MustCompile(`(?i)^\s*GO\s*;?\s*$`)

// SplitBatches splits a schema script on GO separator lines. Semicolons are
// not batch boundaries. Empty batches are dropped.
func SplitBatches(script string) []string {
	var (
		batches []string
		current strings.Builder
	)
	flush := func() {
		if b := strings.TrimSpace(current.String()); b != "" {
			batches = append(batches, b)
		}
		current.Reset()
	}

	scanner := bufio.NewScanner(strings.NewReader(script))
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if batchSeparator.MatchString(line) {
			flush()
			continue
		}
		current.WriteString(line)
		current.WriteByte('\n')
	}
	flush()
	return batches
}

// ApplySchema executes every batch of script inside one transaction. Any
// failure rolls back the whole script.
func ApplySchema(ctx context.Context, db *gorm.DB, script string, log *zap.Logger) (int, error) {
	batches := SplitBatches(script)
	if len(batches) == 0 {
		return 0, status.New(status.ConfigInvalid, "schema script contains no statements")
	}

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i, batch := range batches {
			log.Info("Executing schema batch", zap.Int("batch", i+1), zap.Int("total", len(batches)))
			if err := tx.Exec(batch).Error; err != nil {
				return status.Wrapf(err, status.DBTransactionFailed, "schema batch %d/%d failed", i+1, len(batches))
			}
		}
		return nil
	})
	if err != nil {
		log.Error("Schema initialization failed, transaction rolled back", zap.Error(err))
		return 0, err
	}
	return len(batches), nil
}
