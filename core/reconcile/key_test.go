package reconcile

import (
	"encoding/json"
	"strings"
	"testing"

	"bitsight-connector/core/status"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, s string) map[string]any {
	t.Helper()
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	var out map[string]any
	require.NoError(t, dec.Decode(&out))
	return out
}

// TestKeyStrategy_FallbackChain tests primary, composite and hash fallbacks in order.
func TestKeyStrategy_FallbackChain(t *testing.T) {
	strategy := KeyStrategy{
		Primary:          "guid",
		Composite:        []string{"company.guid", "evidence_key"},
		AllowContentHash: true,
	}

	tests := []struct {
		name   string
		record string
		expect string
	}{
		{name: "primary", record: `{"guid": " g-1 ", "evidence_key": "e"}`, expect: "g-1"},
		{name: "blank primary uses composite", record: `{"guid": "", "company": {"guid": "c-1"}, "evidence_key": "e-9"}`, expect: "c-1|e-9"},
		{name: "numeric composite", record: `{"company": {"guid": "c-1"}, "evidence_key": 42}`, expect: "c-1|42"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, err := strategy.Key(decode(t, tt.record))
			require.NoError(t, err)
			assert.Equal(t, tt.expect, key)
		})
	}

	t.Run("partial composite falls back to hash", func(t *testing.T) {
		rec := decode(t, `{"company": {"guid": "c-1"}, "other": true}`)
		key, err := strategy.Key(rec)
		require.NoError(t, err)

		hash, _ := Hash(rec)
		assert.Equal(t, hash, key)
		assert.Len(t, key, 64)
	})
}

func TestKeyStrategy_Missing(t *testing.T) {
	strategy := KeyStrategy{Primary: "guid", Composite: []string{"a", "b"}}

	_, err := strategy.Key(map[string]any{"a": "x", "guid": nil})
	code, _ := status.CodeOf(err)
	assert.Equal(t, status.RecordKeyMissing, code)

	_, err = strategy.Key([]any{"not", "an", "object"})
	code, _ = status.CodeOf(err)
	assert.Equal(t, status.PayloadValidationError, code)
}

func TestField_IgnoresContainers(t *testing.T) {
	obj := map[string]any{"tags": []any{"a"}, "nested": map[string]any{"x": "1"}}
	assert.Equal(t, "", Field(obj, "tags"))
	assert.Equal(t, "", Field(obj, "nested"))
	assert.Equal(t, "1", Field(obj, "nested.x"))
	assert.Equal(t, "", Field(obj, "nested.x.y"))
}

// TestHash_Canonical tests that field order and whitespace never affect the hash.
func TestHash_Canonical(t *testing.T) {
	a := decode(t, `{"b": 1, "a": {"y": [1, 2], "x": "v"}}`)
	b := decode(t, `{ "a" : { "x" : "v", "y" : [ 1, 2 ] }, "b" : 1 }`)

	ha, err := Hash(a)
	require.NoError(t, err)
	hb, err := Hash(b)
	require.NoError(t, err)
	assert.Equal(t, ha, hb)
	assert.Len(t, ha, 64)

	canonical, err := Canonical(a)
	require.NoError(t, err)
	assert.Equal(t, `{"a":{"x":"v","y":[1,2]},"b":1}`, string(canonical))
}

func TestHash_DetectsChanges(t *testing.T) {
	base, _ := Hash(decode(t, `{"id": 1, "rating": 700}`))
	changed, _ := Hash(decode(t, `{"id": 1, "rating": 710}`))
	typeChanged, _ := Hash(decode(t, `{"id": 1, "rating": "700"}`))

	assert.NotEqual(t, base, changed)
	assert.NotEqual(t, base, typeChanged)
}

func TestCanonical_KeepsNumbersAndMarkup(t *testing.T) {
	canonical, err := Canonical(decode(t, `{"score": 1.50, "big": 12345678901234567890, "html": "<b>&</b>"}`))
	require.NoError(t, err)
	assert.Equal(t, `{"big":12345678901234567890,"html":"<b>&</b>","score":1.50}`, string(canonical))
}

func TestClassify(t *testing.T) {
	assert.Equal(t, ChangeNew, Classify("", false, "h1"))
	assert.Equal(t, ChangeUnchanged, Classify("h1", true, "h1"))
	assert.Equal(t, ChangeUpdated, Classify("h0", true, "h1"))
}

func TestPlanRemovals(t *testing.T) {
	seen := map[string]struct{}{"b": {}, "d": {}}
	actions := PlanRemovals([]string{"e", "b", "a", "d"}, seen)

	require.Len(t, actions, 2)
	assert.Equal(t, "a", actions[0].Key)
	assert.Equal(t, "e", actions[1].Key)
	assert.Equal(t, ActionDeactivate, actions[0].Type)

	assert.Empty(t, PlanRemovals(nil, seen))
}
