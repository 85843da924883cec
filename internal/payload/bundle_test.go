package payload

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshal_NilIsEmptyObject(t *testing.T) {
	raw, err := Marshal(nil)
	require.NoError(t, err)
	assert.Equal(t, "{}", raw)
}

func TestUnmarshal_RestoresNested(t *testing.T) {
	b, err := Unmarshal(`{"ok":true,"count":2,"tags":["a"],"nested":{"k":"v"}}`)
	require.NoError(t, err)
	assert.Equal(t, true, b["ok"])
	assert.Equal(t, float64(2), b["count"])
	assert.Equal(t, []any{"a"}, b["tags"])
	assert.Equal(t, map[string]any{"k": "v"}, b["nested"])
}

func TestBundle_Decode_RejectsUnknownFields(t *testing.T) {
	type req struct {
		Limit int `json:"limit"`
	}
	var ok req
	require.NoError(t, Bundle{"limit": 3}.Decode(&ok))
	assert.Equal(t, 3, ok.Limit)

	var bad req
	assert.Error(t, Bundle{"limit": 3, "extra": 1}.Decode(&bad))
}

func TestFrom(t *testing.T) {
	b, err := From(struct {
		Name string `json:"name"`
	}{Name: "x"})
	require.NoError(t, err)
	assert.Equal(t, Bundle{"name": "x"}, b)
}
