package cmd

import (
	"bitsight-connector/core/config"
	"bitsight-connector/core/database"
	"bitsight-connector/core/job"
	"bitsight-connector/core/logger"
	"bitsight-connector/core/status"
	"bitsight-connector/core/storage"
	"bitsight-connector/core/transport"
	"bitsight-connector/feature/endpoints"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// app bundles the configuration and logger of one invocation.
type app struct {
	cfg *config.Config
	log *zap.Logger
}

// resolveConfigPath returns --config or the default location. An empty
// path means no config file.
func resolveConfigPath() string {
	if configPath != "" {
		return configPath
	}
	path, err := config.DefaultPath()
	if err != nil {
		return ""
	}
	return path
}

func loadApp(cmd *cobra.Command) (*app, error) {
	cfg, err := config.LoadConfig(config.Options{
		File:    resolveConfigPath(),
		EnvFile: ".env",
		Flags:   cmd.Flags(),
	})
	if err != nil {
		return nil, err
	}
	if verbose {
		cfg.Log.Level = "debug"
	}
	if jsonLogs {
		cfg.Log.Format = "json"
	}

	l, err := logger.New(&cfg.Log)
	if err != nil {
		return nil, status.Wrap(err, status.ConfigInvalid, "create logger")
	}
	zap.ReplaceGlobals(l)
	return &app{cfg: cfg, log: l}, nil
}

func (a *app) close() {
	_ = a.log.Sync()
}

func (a *app) client() (*transport.Client, error) {
	client, proxies, err := transport.Build(a.cfg.API, transport.WithLogger(a.log))
	if err != nil {
		return nil, err
	}
	if proxies != nil {
		a.log.Debug("Using outbound proxy", zap.Any("proxies", proxies.Redacted()))
	}
	return client, nil
}

func (a *app) connect() (*gorm.DB, func(), error) {
	db, err := database.Connect(a.cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	a.log.Debug("Connected to database",
		zap.String("driver", a.cfg.Database.Driver),
		zap.String("name", a.cfg.Database.Name))
	return db, func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}, nil
}

// archive returns nil when report archival is disabled.
func (a *app) archive() (*storage.Archive, error) {
	if !a.cfg.Storage.Enabled {
		return nil, nil
	}
	client, err := storage.NewClient(a.cfg.Storage)
	if err != nil {
		return nil, err
	}
	return storage.NewArchive(client, a.cfg.Storage), nil
}

func registry() *job.Registry {
	return endpoints.Register(job.NewRegistry())
}
