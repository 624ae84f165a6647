package log

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJSONLoggerFields(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: DebugLevel, JSONOutput: true, Output: &buf})

	nodeLog := WithNode(WithExecution(l, "emu", 15), "15.12.2.10")
	nodeLog.Info().Msg("hello")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "emu", entry["emulation"])
	assert.Equal(t, float64(15), entry["execution_id"])
	assert.Equal(t, "15.12.2.10", entry["node_ip"])
	assert.Equal(t, "hello", entry["message"])
}

func TestNewRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: WarnLevel, JSONOutput: true, Output: &buf})

	l.Info().Msg("dropped")
	assert.Zero(t, buf.Len())

	l.Warn().Msg("kept")
	assert.Contains(t, buf.String(), "kept")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   Level
		want zerolog.Level
	}{
		{DebugLevel, zerolog.DebugLevel},
		{ErrorLevel, zerolog.ErrorLevel},
		{"trace", zerolog.TraceLevel},
		{"", zerolog.InfoLevel},
		{"loud", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, parseLevel(tt.in), string(tt.in))
	}
}
