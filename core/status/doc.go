// Package status defines the closed outcome vocabulary of the connector.
//
// Two independent enumerations live here:
//
//   - Code: the fine-grained "what happened", used in logs and machine-readable
//     diagnostics. Codes are grouped into bands (success, configuration, auth,
//     transport, API, data, database, ingestion, execution, internal).
//   - ExitCode: the coarse "what the process reports". This is the only value
//     that crosses the process boundary and schedulers depend on it.
//
// Both sets are append-only. Published values are never renumbered, renamed or
// reused.
//
// # Mapping
//
// ExitFor is the single conversion from Code to ExitCode. Call sites never
// pick an exit code on their own.
//
// # Typed errors
//
// Components that fail in a classifiable way return *Error, which carries the
// Code and, for HTTP failures, the response status:
//
//	return status.NewHTTP(status.APIRateLimited, 429, "rate limited")
//
//	if code, ok := status.CodeOf(err); ok {
//	    exit := status.ExitFor(code)
//	}
package status
