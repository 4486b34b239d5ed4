package config

import (
	"os"
	"reflect"
	"strings"

	"bitsight-connector/core/database"
	"bitsight-connector/core/logger"
	"bitsight-connector/core/status"
	"bitsight-connector/core/storage"
	"bitsight-connector/core/transport"

	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable (BITSIGHT_API_KEY, ...).
const EnvPrefix = "BITSIGHT"

// Config holds all configuration for the connector.
// It is divided into partial configurations for better modularity.
type Config struct {
	// API holds configuration for the BitSight API client.
	API transport.Config `mapstructure:"api"`
	// Database holds configuration for the database connection.
	Database database.Config `mapstructure:"database"`
	// Log holds configuration for the logger.
	Log logger.Config `mapstructure:"log"`
	// Storage holds configuration for the run report archive.
	Storage storage.Config `mapstructure:"storage"`
	// Ingest holds the default run policy.
	Ingest IngestConfig `mapstructure:"ingest"`
}

// IngestConfig holds defaults for ingestion runs.
type IngestConfig struct {
	// FailFast aborts a run on its first failed record.
	FailFast bool `mapstructure:"fail_fast" default:"false"`
	// MaxFailures aborts a run once this many records failed. Zero disables.
	MaxFailures int `mapstructure:"max_failures" default:"0"`
	// Strict rolls back runs that only partially succeeded.
	Strict bool `mapstructure:"strict" default:"false"`
	// ShowProgress renders a progress bar on interactive runs.
	ShowProgress bool `mapstructure:"show_progress" default:"true"`
}

// FlagKeys maps command line flags onto configuration keys. Only flags
// present in the flag set passed to LoadConfig are bound.
var FlagKeys = map[string]string{
	"api-key":    "api.key",
	"base-url":   "api.base_url",
	"timeout":    "api.timeout_seconds",
	"proxy-url":  "api.proxy.url",
	"db-driver":  "database.driver",
	"db-host":    "database.host",
	"db-name":    "database.name",
	"log-level":  "log.level",
	"log-format": "log.format",
}

// Options tell LoadConfig where to look.
type Options struct {
	// File is the JSON config file. Missing files are ignored.
	File string
	// EnvFile is the dotenv file. Missing files are ignored.
	EnvFile string
	// Flags are bound according to FlagKeys.
	Flags *pflag.FlagSet
}

// LoadConfig merges, lowest to highest: struct tag defaults, the JSON config
// file, the dotenv file, the environment and changed command line flags.
func LoadConfig(opts Options) (*Config, error) {
	// Load .env without overriding variables already set.
	if opts.EnvFile != "" {
		_ = godotenv.Load(opts.EnvFile)
	}

	v := viper.New()

	// Recursively parse struct tags to set default values
	bindValues(v, Config{}, "")

	if opts.File != "" {
		if _, err := os.Stat(opts.File); err == nil {
			v.SetConfigFile(opts.File)
			v.SetConfigType("json")
			if err := v.ReadInConfig(); err != nil {
				return nil, status.Wrapf(err, status.ConfigUnreadable, "read config file %s", opts.File)
			}
		}
	}

	// Map environment variables to nested keys (e.g. BITSIGHT_API_KEY -> api.key)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if opts.Flags != nil {
		for name, key := range FlagKeys {
			if f := opts.Flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, status.Wrapf(err, status.ConfigInvalid, "bind flag --%s", name)
				}
			}
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, status.Wrap(err, status.ConfigInvalid, "decode configuration")
	}

	// --insecure-ssl is the inverse of api.verify_ssl, so it is not in FlagKeys.
	if opts.Flags != nil {
		if f := opts.Flags.Lookup("insecure-ssl"); f != nil && f.Changed && f.Value.String() == "true" {
			config.API.VerifySSL = false
		}
	}

	return &config, nil
}

// bindValues uses reflection to iterate over the struct and set default values in Viper
// based on the 'default' and 'mapstructure' tags.
func bindValues(v *viper.Viper, iface any, prefix string) {
	walkFields(reflect.TypeOf(iface), prefix, func(key string, field reflect.StructField) {
		// Always set default (even if empty) to register the key for AutomaticEnv
		v.SetDefault(key, field.Tag.Get("default"))
	})
}

// walkFields calls fn for every leaf field carrying a mapstructure tag.
func walkFields(t reflect.Type, prefix string, fn func(key string, field reflect.StructField)) {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("mapstructure")

		// Skip if no tag
		if tag == "" || tag == "-" {
			continue
		}

		key := tag
		if prefix != "" {
			key = prefix + "." + tag
		}

		// If it's a nested struct, recurse
		if field.Type.Kind() == reflect.Struct {
			walkFields(field.Type, key, fn)
			continue
		}

		fn(key, field)
	}
}

// Keys returns every configuration key with the kind of its field.
func Keys() map[string]reflect.Kind {
	out := map[string]reflect.Kind{}
	walkFields(reflect.TypeOf(Config{}), "", func(key string, field reflect.StructField) {
		out[key] = field.Type.Kind()
	})
	return out
}

// secretKeys are cleared by Store.ClearKeys and masked by Redacted.
var secretKeys = []string{
	"api.key",
	"api.proxy.password",
	"database.password",
	"storage.secret_key",
}

// Redacted returns a copy of cfg with every secret masked.
func Redacted(cfg Config) Config {
	mask := func(s string) string {
		if s == "" {
			return ""
		}
		return "********"
	}
	cfg.API.APIKey = mask(cfg.API.APIKey)
	cfg.API.Proxy.Password = mask(cfg.API.Proxy.Password)
	cfg.Database.Password = mask(cfg.Database.Password)
	cfg.Storage.SecretKey = mask(cfg.Storage.SecretKey)
	return cfg
}

// Document returns cfg as a nested map keyed like the config file, with
// secrets masked.
func Document(cfg Config) (map[string]any, error) {
	doc := map[string]any{}
	if err := mapstructure.Decode(Redacted(cfg), &doc); err != nil {
		return nil, status.Wrap(err, status.ConfigInvalid, "encode configuration")
	}
	return doc, nil
}
