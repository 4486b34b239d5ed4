// Package endpoints is the table-driven catalogue of BitSight endpoints the
// connector can ingest.
//
// Each catalogue entry names the API path, how it is fetched (paginated,
// single response, single object, keyed object or CSV report), the target
// table, the key strategy and the columns projected out of each record.
// Columns are text unless typed as integer, number or flag. The full record is always kept
// in raw_payload, so columns are a convenience for querying and can grow
// without a backfill.
//
// Scoped endpoints carry {param} placeholders in their path (company_guid,
// threat_guid, entity_guid, user_guid). Each one must be passed as a job
// param; it is substituted into the path and stamped onto each record
// before hashing. Their tables hold rows for many entities, so they are
// upserted but never swept for removal.
//
// Register installs every endpoint in a job.Registry:
//
//	registry := endpoints.Register(job.NewRegistry())
package endpoints
