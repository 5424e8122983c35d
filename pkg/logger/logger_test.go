package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_SalidaJSON(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Env: "production", Level: "info", Output: &buf})

	l.Component("inventory").Info().Str("kind", "SALE").Msg("movement recorded")
	l.Debug().Msg("descartado por nivel")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "inventory", entry["component"])
	assert.Equal(t, "SALE", entry["kind"])
	assert.Equal(t, "movement recorded", entry["message"])
}

func TestParseLevel_PorDefectoInfo(t *testing.T) {
	assert.Equal(t, "info", parseLevel("").String())
	assert.Equal(t, "info", parseLevel("verbose").String())
	assert.Equal(t, "debug", parseLevel("debug").String())
}

func TestNop_DescartaTodo(t *testing.T) {
	assert.NotPanics(t, func() { Nop().Error().Msg("x") })
}
