// Package ingest runs one fetch and write cycle and reduces it to a single
// terminal Result.
//
// An Executor is given a Fetcher and a Writer. It fetches exactly once,
// iterates the records in fetch order and calls the writer for each of them.
// Nothing is retried and nothing runs concurrently: writer call order always
// equals fetch order.
//
// # Outcome classification
//
//   - fetch error: INGESTION_FETCH_FAILED
//   - nil record slice: EXECUTION_UNHANDLED_EXCEPTION (a caller bug, not "no data")
//   - zero records: OK_NO_DATA, a success
//   - every write failed: INGESTION_WRITE_FAILED
//   - some writes failed: INGESTION_PARTIAL_WRITE
//   - fail-fast or failure budget reached: INGESTION_ABORTED
//   - context cancelled: EXECUTION_INTERRUPTED, counters preserved
//   - panic: EXECUTION_UNHANDLED_EXCEPTION with the panic message
//
// The exit code of a Result always comes from status.ExitFor.
//
// # Optional writer capabilities
//
// Writers may implement Previewer (used instead of Write in dry runs),
// Finalizer (called once after a clean, complete loop) and DeltaReporter
// (reconciliation counters copied into the Result). reconcile.Sink
// implements all three.
//
// Exactly one "ingestion run finished" entry is logged per run.
package ingest
