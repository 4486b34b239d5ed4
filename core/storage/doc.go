// Package storage archives ingestion run reports in S3-compatible object
// storage.
//
// It wraps the MinIO Go client behind a narrow Client interface so the
// archive can be tested with the mock in core/storage/mocks. Archival is
// optional and never changes the outcome of a run.
//
// # Layout
//
// Reports are JSON objects named
//
//	<prefix>/<job>/<yyyy>/<mm>/<dd>/<run_id>.json
//
// with the date taken in UTC. The bucket is created on first use when it
// does not exist.
//
// # Usage
//
//	client, err := storage.NewClient(cfg)
//	archive := storage.NewArchive(client, cfg)
//	name, err := archive.PutReport(ctx, "companies", runID, time.Now(), report)
package storage
