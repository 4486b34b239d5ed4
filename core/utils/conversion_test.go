package utils

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToInt(t *testing.T) {
	assert.Equal(t, 42, ToInt(json.Number("42")))
	assert.Equal(t, 7, ToInt(json.Number("7.9")))
	assert.Equal(t, 3, ToInt(" 3 "))
	assert.Equal(t, 1, ToInt(true))
	assert.Equal(t, 0, ToInt(nil))
	assert.Equal(t, 0, ToInt("abc"))
	assert.Equal(t, 5, ToInt(5.2))
}

func TestToFloat(t *testing.T) {
	assert.InDelta(t, 740.5, ToFloat(json.Number("740.5")), 0.0001)
	assert.InDelta(t, 1.5, ToFloat("1.5"), 0.0001)
	assert.Zero(t, ToFloat(nil))
}

func TestToString(t *testing.T) {
	assert.Equal(t, "", ToString(nil))
	assert.Equal(t, "12.50", ToString(json.Number("12.50")))
	assert.Equal(t, "true", ToString(true))
	assert.Equal(t, "raw", ToString([]byte("raw")))
}

func TestToBool(t *testing.T) {
	assert.True(t, ToBool(true))
	assert.True(t, ToBool("TRUE"))
	assert.True(t, ToBool(json.Number("1")))
	assert.False(t, ToBool("no"))
	assert.False(t, ToBool(nil))
}

func TestToColumn(t *testing.T) {
	assert.Nil(t, ToColumn(nil))
	assert.Equal(t, "x", ToColumn("x"))
	assert.Equal(t, "3", ToColumn(json.Number("3")))
	assert.Equal(t, `{"a":1}`, ToColumn(map[string]any{"a": 1}))
	assert.Equal(t, `["a","b"]`, ToColumn([]any{"a", "b"}))
}

func TestLookup(t *testing.T) {
	obj := map[string]any{
		"rating": map[string]any{"value": json.Number("740")},
		"name":   "Acme",
	}
	assert.Equal(t, json.Number("740"), Lookup(obj, "rating.value"))
	assert.Equal(t, "Acme", Lookup(obj, "name"))
	assert.Nil(t, Lookup(obj, "rating.missing"))
	assert.Nil(t, Lookup(obj, "name.inner"))
}
