// Package logger provides a structured logging facility based on Zap.
//
// It offers a configured logger instance that supports a human console
// encoding for operators and a JSON encoding for log shippers. All output
// goes to stderr; stdout is reserved for command results.
//
// # Run Scoping
//
// Every ingestion run carries a job name and a run id. WithRun attaches
// both so that all entries emitted during a run can be correlated:
//
//	l := logger.WithRun(log, "companies", runID)
//	l.Info("ingestion run finished", zap.String(logger.FieldStatus, "OK"))
//
// Field names used across packages are collected in fields.go.
//
// # Configuration
//
// The package supports configuration for:
//   - Level: debug, info, warn, error
//   - Format: json or console
//
// # Usage
//
//	log, _ := logger.New(&logger.Config{Level: "info", Format: "json"})
//	log.Info("connector started")
package logger
