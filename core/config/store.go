package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"bitsight-connector/core/status"
)

// DefaultDir is the per-user configuration directory, relative to $HOME.
const DefaultDir = ".bitsight"

// DefaultPath returns ~/.bitsight/config.json.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", status.Wrap(err, status.ConfigUnreadable, "resolve home directory")
	}
	return filepath.Join(home, DefaultDir, "config.json"), nil
}

// Store reads and writes the JSON config file. Values are kept in the same
// nested layout viper reads (api.key is {"api": {"key": ...}}).
type Store struct {
	path string
}

// NewStore returns a Store for the file at path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the file location.
func (s *Store) Path() string {
	return s.path
}

// Exists reports whether the file is present.
func (s *Store) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

// Load returns the raw document. A missing file is an empty document.
func (s *Store) Load() (map[string]any, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return map[string]any{}, nil
	}
	if err != nil {
		return nil, status.Wrapf(err, status.ConfigUnreadable, "read %s", s.path)
	}
	doc := map[string]any{}
	if len(strings.TrimSpace(string(data))) == 0 {
		return doc, nil
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, status.Wrapf(err, status.ConfigUnreadable, "parse %s", s.path)
	}
	return doc, nil
}

// Save writes doc with owner-only permissions, replacing the file
// atomically.
func (s *Store) Save(doc map[string]any) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return status.Wrapf(err, status.ConfigUnreadable, "create %s", filepath.Dir(s.path))
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return status.Wrap(err, status.ConfigInvalid, "encode config")
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0o600); err != nil {
		return status.Wrapf(err, status.ConfigUnreadable, "write %s", tmp)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return status.Wrapf(err, status.ConfigUnreadable, "replace %s", s.path)
	}
	return nil
}

// Defaults returns a document holding every key at its default value.
func Defaults() map[string]any {
	doc := map[string]any{}
	walkFields(reflect.TypeOf(Config{}), "", func(key string, field reflect.StructField) {
		value, err := coerce(field.Type.Kind(), field.Tag.Get("default"))
		if err != nil {
			value = field.Tag.Get("default")
		}
		setPath(doc, key, value)
	})
	return doc
}

// Reset overwrites the file with the defaults.
func (s *Store) Reset() error {
	return s.Save(Defaults())
}

// Set stores one known key, converting value to the key's type.
func (s *Store) Set(key, value string) error {
	kind, ok := Keys()[key]
	if !ok {
		return status.Newf(status.ConfigInvalid, "unknown configuration key %q", key)
	}
	typed, err := coerce(kind, value)
	if err != nil {
		return status.Wrapf(err, status.ConfigInvalid, "value for %s", key)
	}
	doc, err := s.Load()
	if err != nil {
		return err
	}
	setPath(doc, key, typed)
	return s.Save(doc)
}

// ClearKeys removes every stored secret and returns the keys it removed.
func (s *Store) ClearKeys() ([]string, error) {
	doc, err := s.Load()
	if err != nil {
		return nil, err
	}
	var removed []string
	for _, key := range secretKeys {
		if deletePath(doc, key) {
			removed = append(removed, key)
		}
	}
	sort.Strings(removed)
	if len(removed) == 0 {
		return nil, nil
	}
	return removed, s.Save(doc)
}

func coerce(kind reflect.Kind, value string) (any, error) {
	switch kind {
	case reflect.Bool:
		return strconv.ParseBool(value)
	case reflect.Int, reflect.Int64, reflect.Int32:
		return strconv.Atoi(value)
	case reflect.Float64, reflect.Float32:
		return strconv.ParseFloat(value, 64)
	default:
		return value, nil
	}
}

func setPath(doc map[string]any, key string, value any) {
	parts := strings.Split(key, ".")
	cur := doc
	for _, part := range parts[:len(parts)-1] {
		next, ok := cur[part].(map[string]any)
		if !ok {
			next = map[string]any{}
			cur[part] = next
		}
		cur = next
	}
	cur[parts[len(parts)-1]] = value
}

func deletePath(doc map[string]any, key string) bool {
	parts := strings.Split(key, ".")
	cur := doc
	for _, part := range parts[:len(parts)-1] {
		next, ok := cur[part].(map[string]any)
		if !ok {
			return false
		}
		cur = next
	}
	last := parts[len(parts)-1]
	if _, ok := cur[last]; !ok {
		return false
	}
	delete(cur, last)
	return true
}
