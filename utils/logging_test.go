package utils

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogLevelUnmarshalText(t *testing.T) {
	testCases := []struct {
		input    string
		expected LogLevel
	}{
		{"off", LogLevelOff},
		{"ERROR", LogLevelError},
		{"Warn", LogLevelWarn},
		{"info", LogLevelInfo},
		{"DEBUG", LogLevelDebug},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			var level LogLevel
			require.NoError(t, level.UnmarshalText([]byte(tc.input)))
			assert.Equal(t, tc.expected, level)
		})
	}

	var level LogLevel
	assert.Error(t, level.UnmarshalText([]byte("verbose")))
}

func TestLogLevelString(t *testing.T) {
	assert.Equal(t, "WARN", LogLevelWarn.String())
	assert.Equal(t, "LogLevel(9)", LogLevel(9).String())
}

func TestDefaultLoggerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerTo(&buf, LogLevelWarn)

	logger.Info("hidden")
	logger.Debug("hidden too")
	logger.Warn("shown", "key", "value")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
	assert.Contains(t, buf.String(), "key=value")

	buf.Reset()
	logger.SetLevel(LogLevelDebug)
	logger.Debug("now visible")
	assert.Contains(t, buf.String(), "now visible")
}

func TestDefaultLoggerWith(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerTo(&buf, LogLevelInfo).With("component", "loader")

	logger.Info("ready")
	assert.Contains(t, buf.String(), "component=loader")
}

func TestWithFields(t *testing.T) {
	var buf bytes.Buffer
	logger := WithFields(NewLoggerTo(&buf, LogLevelInfo), "backend", "ollama")
	logger.Info("loading")
	assert.Contains(t, buf.String(), "backend=ollama")

	nop := NewNopLogger()
	assert.Same(t, nop, WithFields(nop, "backend", "ollama"))
}

func TestNopLogger(t *testing.T) {
	var _ Logger = NewNopLogger()
	logger := NewNopLogger()
	logger.Debug("debug")
	logger.Info("info")
	logger.Warn("warn")
	logger.Error("error")
	logger.SetLevel(LogLevelDebug)
}

func TestMockLoggerQuiet(t *testing.T) {
	logger := &MockLogger{Quiet: true}
	logger.Warn("first")
	logger.Error("boom")
	assert.Equal(t, 1, logger.WarnCallCount)
	assert.Equal(t, "first", logger.LastWarnMessage)
	assert.Equal(t, 1, logger.ErrorCallCount)
	assert.Equal(t, "boom", logger.LastErrorMessage)
}
