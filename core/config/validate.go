package config

import (
	"fmt"
	"strings"

	"bitsight-connector/core/status"
	"bitsight-connector/core/transport"

	"go.uber.org/zap/zapcore"
)

type problem struct {
	code status.Code
	msg  string
}

// Validate checks cfg as a whole. The returned error carries the code of
// the first problem found and lists all of them.
func Validate(cfg *Config) error {
	var problems []problem
	add := func(code status.Code, format string, args ...any) {
		problems = append(problems, problem{code: code, msg: fmt.Sprintf(format, args...)})
	}

	if strings.TrimSpace(cfg.API.APIKey) == "" {
		add(status.AuthAPIKeyMissing, "api.key is not set")
	}
	if cfg.API.PageSize <= 0 || cfg.API.PageSize > 1000 {
		add(status.ConfigInvalid, "api.page_size must be between 1 and 1000")
	}
	if cfg.API.RequestsPerSecond < 0 {
		add(status.ConfigInvalid, "api.requests_per_second must not be negative")
	}
	// The client builder owns URL, proxy and timeout rules.
	if _, _, err := transport.Build(cfg.API); err != nil {
		code, ok := status.CodeOf(err)
		if !ok {
			code = status.ConfigInvalid
		}
		add(code, "%s", err.Error())
	}

	switch strings.ToLower(cfg.Database.Driver) {
	case "sqlite":
	case "sqlserver", "mssql", "mysql":
		if cfg.Database.Host == "" {
			add(status.ConfigMissing, "database.host is not set")
		}
		if cfg.Database.Port <= 0 || cfg.Database.Port > 65535 {
			add(status.ConfigInvalid, "database.port %d is out of range", cfg.Database.Port)
		}
		if cfg.Database.Name == "" {
			add(status.ConfigMissing, "database.name is not set")
		}
	default:
		add(status.ConfigInvalid, "database.driver %q is not supported", cfg.Database.Driver)
	}

	if _, err := zapcore.ParseLevel(cfg.Log.Level); err != nil {
		add(status.ConfigInvalid, "log.level %q is not a level", cfg.Log.Level)
	}
	if cfg.Log.Format != "json" && cfg.Log.Format != "console" {
		add(status.ConfigInvalid, "log.format must be json or console")
	}

	if cfg.Storage.Enabled {
		if cfg.Storage.Endpoint == "" {
			add(status.ConfigMissing, "storage.endpoint is not set")
		}
		if cfg.Storage.Bucket == "" {
			add(status.ConfigMissing, "storage.bucket is not set")
		}
	}

	if cfg.Ingest.MaxFailures < 0 {
		add(status.ConfigInvalid, "ingest.max_failures must not be negative")
	}
	if cfg.Ingest.FailFast && cfg.Ingest.MaxFailures > 0 {
		add(status.ConfigConflict, "ingest.fail_fast and ingest.max_failures are mutually exclusive")
	}

	if len(problems) == 0 {
		return nil
	}
	msgs := make([]string, len(problems))
	for i, p := range problems {
		msgs[i] = p.msg
	}
	return status.Newf(problems[0].code, "invalid configuration: %s", strings.Join(msgs, "; "))
}
