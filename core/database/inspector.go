package database

import (
	"fmt"
	"sort"
	"strings"

	"bitsight-connector/core/status"

	"gorm.io/gorm"
)

// ColumnInfo describes one column of a live table.
type ColumnInfo struct {
	Field   string
	Type    string
	Null    string
	Key     string
	Default *string // Pointer because NULL default is possible
	Extra   string
}

// GetTableColumns retrieves the column definitions for a given table.
// Field and Type are lower cased. A missing table yields no columns.
func GetTableColumns(db *gorm.DB, tableName string) ([]ColumnInfo, error) {
	var columns []ColumnInfo

	switch db.Dialector.Name() {
	case "sqlite":
		// SQLite uses PRAGMA table_info
		type SQLiteColumn struct {
			Cid        int
			Name       string
			Type       string
			Notnull    int
			DefaultVal *string `gorm:"column:dflt_value"`
			Pk         int
		}
		var sqliteCols []SQLiteColumn
		if err := db.Raw(fmt.Sprintf("PRAGMA table_info('%s')", strings.ReplaceAll(tableName, "'", "''"))).Scan(&sqliteCols).Error; err != nil {
			return nil, status.Wrapf(err, status.DBReadFailed, "failed to get columns for table %s", tableName)
		}
		for _, col := range sqliteCols {
			info := ColumnInfo{Field: col.Name, Type: col.Type, Default: col.DefaultVal}
			if col.Pk > 0 {
				info.Key = "PRI"
			}
			columns = append(columns, info)
		}

	case "sqlserver":
		type SQLServerColumn struct {
			ColumnName    string  `gorm:"column:COLUMN_NAME"`
			DataType      string  `gorm:"column:DATA_TYPE"`
			IsNullable    string  `gorm:"column:IS_NULLABLE"`
			ColumnDefault *string `gorm:"column:COLUMN_DEFAULT"`
		}
		var msCols []SQLServerColumn
		err := db.Raw("SELECT COLUMN_NAME, DATA_TYPE, IS_NULLABLE, COLUMN_DEFAULT FROM INFORMATION_SCHEMA.COLUMNS WHERE TABLE_NAME = ? ORDER BY ORDINAL_POSITION", tableName).
			Scan(&msCols).Error
		if err != nil {
			return nil, status.Wrapf(err, status.DBReadFailed, "failed to get columns for table %s", tableName)
		}
		for _, col := range msCols {
			columns = append(columns, ColumnInfo{Field: col.ColumnName, Type: col.DataType, Null: col.IsNullable, Default: col.ColumnDefault})
		}

	default:
		// MySQL reports exact type strings through SHOW COLUMNS.
		err := db.Raw(fmt.Sprintf("SHOW COLUMNS FROM `%s`", strings.ReplaceAll(tableName, "`", ""))).Scan(&columns).Error
		if err != nil {
			return nil, status.Wrapf(err, status.DBReadFailed, "failed to get columns for table %s", tableName)
		}
	}

	// Normalize names and types to lowercase
	for i := range columns {
		columns[i].Type = strings.ToLower(columns[i].Type)
		columns[i].Field = strings.ToLower(columns[i].Field)
	}
	return columns, nil
}

// VerifyTable checks that table exists and carries every required column.
// A missing table is DB_SCHEMA_MISSING, missing columns DB_SCHEMA_MISMATCH.
func VerifyTable(db *gorm.DB, table string, required []string) error {
	if !db.Migrator().HasTable(table) {
		return status.Newf(status.DBSchemaMissing, "table %s does not exist", table)
	}

	columns, err := GetTableColumns(db, table)
	if err != nil {
		return err
	}

	present := make(map[string]struct{}, len(columns))
	for _, col := range columns {
		present[col.Field] = struct{}{}
	}

	var missing []string
	for _, name := range required {
		if _, ok := present[strings.ToLower(name)]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return status.Newf(status.DBSchemaMismatch, "table %s is missing columns: %s", table, strings.Join(missing, ", "))
	}
	return nil
}
