package reconcile

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"

	"bitsight-connector/core/status"
	"bitsight-connector/core/utils"
)

// KeyStrategy resolves a stable identity for a record through an ordered
// fallback chain: the primary field, then the composite fields, then the
// content hash when allowed.
type KeyStrategy struct {
	// Primary is the identifier field. Dotted paths address nested objects.
	Primary string

	// Composite fields are joined with "|" when Primary is absent. Every
	// field must resolve for the composite to be used.
	Composite []string

	// AllowContentHash falls back to the payload hash as the key.
	AllowContentHash bool
}

// Key resolves the identity of rec. A record without a derivable identity
// yields RECORD_KEY_MISSING.
func (k KeyStrategy) Key(rec any) (string, error) {
	obj, ok := rec.(map[string]any)
	if !ok {
		return "", status.Newf(status.PayloadValidationError, "record is %T, expected a JSON object", rec)
	}

	if k.Primary != "" {
		if v := Field(obj, k.Primary); v != "" {
			return v, nil
		}
	}

	if len(k.Composite) > 0 {
		parts := make([]string, 0, len(k.Composite))
		for _, name := range k.Composite {
			v := Field(obj, name)
			if v == "" {
				parts = nil
				break
			}
			parts = append(parts, v)
		}
		if len(parts) == len(k.Composite) {
			return strings.Join(parts, "|"), nil
		}
	}

	if k.AllowContentHash {
		return Hash(rec)
	}

	return "", status.Newf(status.RecordKeyMissing, "no key could be derived (primary=%q composite=%v)", k.Primary, k.Composite)
}

// Field returns the trimmed string form of a possibly nested field, or ""
// when it is absent, null or blank.
func Field(obj map[string]any, path string) string {
	switch v := utils.Lookup(obj, path).(type) {
	case nil, map[string]any, []any:
		return ""
	default:
		return strings.TrimSpace(utils.ToString(v))
	}
}

// Canonical returns the canonical serialization of rec: object keys sorted,
// compact separators, no HTML escaping, numbers as received.
func Canonical(rec any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(rec); err != nil {
		return nil, status.Wrap(err, status.PayloadValidationError, "record is not serializable")
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Hash returns the SHA-256 hex digest of the canonical serialization.
func Hash(rec any) (string, error) {
	canonical, err := Canonical(rec)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}

// Classify compares a persisted hash with a fresh one.
func Classify(existing string, found bool, fresh string) Change {
	switch {
	case !found:
		return ChangeNew
	case existing == fresh:
		return ChangeUnchanged
	default:
		return ChangeUpdated
	}
}
