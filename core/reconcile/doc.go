// Package reconcile turns a single ingestion run into an idempotent
// synchronisation of one BitSight collection with one relational table.
//
// Every persisted row carries four bookkeeping columns next to its mapped
// payload columns: is_active, payload_hash, raw_payload and ingested_at. A run
// compares the canonical hash of every fetched record with the stored hash
// and classifies it:
//
//   - NEW: the key has never been persisted.
//   - UPDATED: the key exists with a different payload hash.
//   - UNCHANGED: the key exists with an identical hash. Only is_active and
//     ingested_at are touched.
//
// # Keys
//
// KeyStrategy resolves the natural key of a record. The primary field is
// tried first, then each composite candidate (dotted paths into nested
// objects are allowed) and finally, when enabled, the content hash of the
// record itself. A record without any usable key is rejected with
// RECORD_KEY_MISSING.
//
// # Hashing
//
// Canonical serialises a record as compact JSON with sorted object keys,
// numbers kept in their original textual form and HTML left unescaped. Hash
// is the hex SHA-256 of that form, so two records that differ only in key
// order share a hash.
//
// # Removal
//
// When a run fetched the complete collection without error, the set of keys
// seen during the run is authoritative. DeactivateMissing soft deletes every
// active row whose key was not seen. It refuses to run before Complete and
// runs at most once per Reconciler, so a partial or aborted enumeration can
// never mark live rows inactive. Rows are never physically deleted; a key
// that reappears later is simply reactivated.
//
// # Usage
//
//	sink := reconcile.NewSink(gw, spec, reconcile.SinkOptions{Logger: logger})
//	for _, rec := range records {
//	    if err := sink.Write(ctx, rec); err != nil {
//	        // count the failure and continue
//	    }
//	}
//	if err := sink.Finalize(ctx); err != nil {
//	    return err
//	}
//	delta := sink.Delta()
//
// In a dry run the Sink classifies and counts exactly as a real run would,
// including the removals it would perform, but never calls a mutating
// Gateway method.
package reconcile
