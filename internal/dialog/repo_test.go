package dialog

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecode(t *testing.T) {
	t.Parallel()

	it := Decode(7, string(StateCalc), []byte(`{"wax":3,"conc":"5.0"}`))
	assert.Equal(t, int64(7), it.ChatID)
	assert.Equal(t, StateCalc, it.State)
	id, ok := GetInt64(it.Payload, KeyWax)
	assert.True(t, ok)
	assert.Equal(t, int64(3), id)
	s, ok := GetString(it.Payload, KeyConcentration)
	assert.True(t, ok)
	assert.Equal(t, "5.0", s)

	broken := Decode(7, string(StateCalc), []byte(`{not json`))
	assert.NotNil(t, broken.Payload)
	assert.Empty(t, broken.Payload)

	null := Decode(7, string(StateIdle), []byte(`null`))
	assert.NotNil(t, null.Payload)
}

func TestGetInt64(t *testing.T) {
	t.Parallel()

	p := Payload{"a": 1, "b": int64(2), "c": 3.0, "d": json.Number("4"), "e": "5"}
	for key, want := range map[string]int64{"a": 1, "b": 2, "c": 3, "d": 4} {
		got, ok := GetInt64(p, key)
		assert.True(t, ok, key)
		assert.Equal(t, want, got, key)
	}
	_, ok := GetInt64(p, "e")
	assert.False(t, ok)
	_, ok = GetInt64(p, "missing")
	assert.False(t, ok)
}
