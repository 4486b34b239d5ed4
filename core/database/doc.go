// Package database handles database connections, the persistence gateway
// used by ingestion runs, and schema inspection.
//
// It provides a wrapper around GORM to configure SQL Server, MySQL and SQLite
// connections from the application's configuration.
//
// # Connect
//
// Connect opens and pings the configured backend. Failures are classified
// as DB_AUTH_FAILED or DB_CONNECTION_FAILED.
//
// # Gateway
//
// Gateway is the capability an ingestion run consumes: scalar reads,
// statement execution, upsert, soft delete, active key listing, commit and
// rollback. Tx implements it over one gorm transaction; the caller owns that
// transaction and finishes it exactly once. Upserts use each backend's
// native mechanism (MERGE, ON DUPLICATE KEY UPDATE, ON CONFLICT).
//
// DryRun wraps any Gateway and swallows every mutation while letting reads
// through, so a dry run still classifies against persisted state.
//
// # Reconciled Tables
//
// Every reconciled table carries a key column plus is_active, payload_hash
// (64 hex characters), raw_payload and ingested_at. EnsureTables creates
// missing tables from a TableSpec; VerifyTable checks a live table against
// its required columns.
//
// # Schema Scripts
//
// ApplySchema runs a script split on GO lines inside one transaction, so a
// failing batch leaves nothing half applied.
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	if err != nil {
//	    return err
//	}
//	tx, err := database.Begin(ctx, db)
//	if err != nil {
//	    return err
//	}
//	defer tx.Rollback()
//
//	err = tx.Upsert(ctx, "bitsight_companies", "company_guid", row)
package database
