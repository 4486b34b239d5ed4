// Package config provides configuration management for the connector.
//
// It utilizes Viper for loading configuration from struct tag defaults, a
// JSON config file, a .env file, environment variables and command-line
// flags, in that order of precedence (flags win).
//
// # Configuration Structure
//
// The Config struct is divided into subsections:
//   - API: BitSight base URL, API key, timeout, TLS, pacing, page size, proxy
//   - Database: driver (sqlserver, mysql, sqlite) and connection details
//   - Log: logging level and format
//   - Storage: optional S3/MinIO archive of run reports
//   - Ingest: default fail-fast, failure budget and strict commit policy
//
// Environment variables use the BITSIGHT_ prefix with dots replaced by
// underscores, e.g. BITSIGHT_API_KEY or BITSIGHT_DATABASE_HOST.
//
// # Config file
//
// Store manages ~/.bitsight/config.json (owner-only permissions). It backs
// the config init, set, reset and clear-keys commands. ClearKeys removes the
// API key, proxy password, database password and storage secret.
//
// # Usage
//
//	cfg, err := config.LoadConfig(config.Options{File: path, EnvFile: ".env"})
//	if err != nil {
//	    return err
//	}
//	if err := config.Validate(cfg); err != nil {
//	    return err
//	}
package config
