package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTo_Levels(t *testing.T) {
	t.Parallel()

	var prod bytes.Buffer
	NewTo(&prod, "prod").Debug("hidden")
	assert.Zero(t, prod.Len())

	var dev bytes.Buffer
	NewTo(&dev, "dev").Debug("shown", "chat_id", int64(7))

	var rec map[string]any
	require.NoError(t, json.Unmarshal(dev.Bytes(), &rec))
	assert.Equal(t, "shown", rec["msg"])
	assert.Equal(t, "candle-bot", rec["service"])
	assert.InDelta(t, 7, rec["chat_id"], 1e-9)
}
