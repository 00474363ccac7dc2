package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rgehrsitz/solarplan/internal/economics"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ economics.Logger = CalcLogger{}

func resetLogging(t *testing.T) {
	prev, level := log.Logger, zerolog.GlobalLevel()
	t.Cleanup(func() {
		log.Logger = prev
		zerolog.SetGlobalLevel(level)
	})
}

func readJSONLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	line, _, _ := strings.Cut(strings.TrimSpace(buf.String()), "\n")
	require.NotEmpty(t, line, "expected log output")

	var event map[string]any
	require.NoError(t, json.Unmarshal([]byte(line), &event))
	return event
}

func TestInit_JSON(t *testing.T) {
	resetLogging(t)
	var buf bytes.Buffer

	Init(Config{Format: "json", Level: "debug", Component: "api", Output: &buf})
	log.Debug().Str("host", "greenroof.ie").Msg("resolved")

	assert.Equal(t, zerolog.DebugLevel, zerolog.GlobalLevel())
	event := readJSONLine(t, &buf)
	assert.Equal(t, "api", event["component"])
	assert.Equal(t, "greenroof.ie", event["host"])
	assert.Equal(t, "resolved", event["message"])
	assert.Equal(t, "debug", event["level"])
}

func TestInit_LevelFilters(t *testing.T) {
	resetLogging(t)
	var buf bytes.Buffer

	Init(Config{Format: "json", Level: "warn", Output: &buf})
	log.Info().Msg("hidden")
	assert.Empty(t, buf.String())

	log.Warn().Msg("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestInit_Console(t *testing.T) {
	resetLogging(t)
	var buf bytes.Buffer

	Init(Config{Format: "console", Output: &buf})
	log.Info().Msg("hello")

	out := buf.String()
	assert.Contains(t, out, "hello")
	assert.False(t, json.Valid(bytes.TrimSpace(buf.Bytes())), "console output is not JSON")
}

func TestInit_AutoWithoutTerminalIsJSON(t *testing.T) {
	resetLogging(t)
	var buf bytes.Buffer

	Init(Config{Format: "auto", Output: &buf})
	log.Info().Msg("piped")
	assert.Equal(t, "piped", readJSONLine(t, &buf)["message"])
}

func TestParseLevel(t *testing.T) {
	tests := map[string]zerolog.Level{
		"":         zerolog.InfoLevel,
		"DEBUG":    zerolog.DebugLevel,
		" warning": zerolog.WarnLevel,
		"error":    zerolog.ErrorLevel,
		"disabled": zerolog.Disabled,
		"bogus":    zerolog.InfoLevel,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestRequestID(t *testing.T) {
	ctx, id := WithRequestID(context.Background(), "  req-42 ")
	assert.Equal(t, "req-42", id)
	assert.Equal(t, "req-42", RequestID(ctx))

	_, generated := WithRequestID(context.Background(), "")
	assert.Len(t, generated, 36)

	assert.Empty(t, RequestID(context.Background()))
}

func TestFromContext(t *testing.T) {
	resetLogging(t)
	var buf bytes.Buffer
	Init(Config{Format: "json", Output: &buf})

	ctx, _ := WithRequestID(context.Background(), "req-7")
	FromContext(ctx).Info().Msg("handled")
	assert.Equal(t, "req-7", readJSONLine(t, &buf)["request_id"])
}

func TestCalcLogger(t *testing.T) {
	var buf bytes.Buffer
	l := zerolog.New(&buf).Level(zerolog.DebugLevel)
	resetLogging(t)
	zerolog.SetGlobalLevel(zerolog.DebugLevel)

	calc := CalcLogger{Logger: &l}
	calc.Debugf("array price %s", "6500")
	calc.Warnf("battery %s has no price", "solis-5kwh")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"message":"array price 6500"`)
	assert.Contains(t, lines[1], `"level":"warn"`)
}
