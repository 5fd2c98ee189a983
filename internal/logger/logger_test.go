package logger

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestWithLevel(t *testing.T) {
	tests := []struct {
		level string
		want  zerolog.Level
	}{
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"", zerolog.DebugLevel},
		{"bogus", zerolog.DebugLevel},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			var buf bytes.Buffer
			l := WithLevel(&buf, tt.level)
			require.Equal(t, tt.want, l.GetLevel())
		})
	}
}

func TestWithLevelWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	l := WithLevel(&buf, "info")
	l.Debug().Msg("hidden")
	l.Info().Str("clan_tag", "LECAT").Msg("visible")

	out := buf.String()
	require.NotContains(t, out, "hidden")
	require.Contains(t, out, `"clan_tag":"LECAT"`)
	require.Contains(t, out, `"message":"visible"`)
}
