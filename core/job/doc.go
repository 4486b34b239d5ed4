// Package job holds the static job registry and the runner that executes
// registered jobs inside a single database transaction.
//
// # Registry
//
// Jobs are registered once at start-up as Definitions: a name, the target
// table and a Constructor. Dispatch is a map lookup; an unknown name is
// EXECUTION_DISPATCH_FAILED.
//
// # Transaction ownership
//
// The Runner begins a transaction, hands it to the job as a
// database.Gateway (wrapped in database.DryRun for dry runs), runs the job
// through ingest.Executor and then commits or rolls back exactly once:
//
//   - OK and OK_NO_DATA commit.
//   - INGESTION_PARTIAL_WRITE commits unless the run is strict.
//   - Everything else, and every dry run, rolls back.
//
// A failed commit is reported as DB_TRANSACTION_FAILED.
//
// # Archival
//
// When an archive is configured, a JSON Document of every non dry run is
// uploaded after the transaction is closed. Upload failures are logged and
// never change the outcome.
package job
