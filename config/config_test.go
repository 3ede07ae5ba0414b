package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teilomillet/georgianchat/config"
	"github.com/teilomillet/georgianchat/utils"
)

// testLogger captures log messages for testing
type testLogger struct {
	messages []string
}

func (l *testLogger) Debug(msg string, keysAndValues ...any) {
	l.messages = append(l.messages, "DEBUG: "+msg)
}

func (l *testLogger) Info(msg string, keysAndValues ...any) {
	l.messages = append(l.messages, "INFO: "+msg)
}

func (l *testLogger) Warn(msg string, keysAndValues ...any) {
	l.messages = append(l.messages, "WARN: "+msg)
}

func (l *testLogger) Error(msg string, keysAndValues ...any) {
	l.messages = append(l.messages, "ERROR: "+msg)
}

func (l *testLogger) SetLevel(level utils.LogLevel) {}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := config.LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "ollama", cfg.Provider)
	assert.Equal(t, config.DefaultCheckpoint, cfg.Model)
	assert.Equal(t, "fp16", cfg.Precision)
	assert.Equal(t, 0.7, cfg.Temperature)
	assert.Equal(t, 0.9, cfg.TopP)
	assert.Equal(t, 150, cfg.MaxNewTokens)
	assert.True(t, cfg.DoSample)
	assert.Equal(t, 300*time.Second, cfg.Timeout)
	assert.Equal(t, "georgian-gentleman", cfg.DefaultCharacter)
	assert.Equal(t, utils.LogLevelInfo, cfg.LogLevel)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("GEORGIANCHAT_PROVIDER", "tgi")
	t.Setenv("GEORGIANCHAT_ENDPOINT", "http://tgi.internal:8080")
	t.Setenv("GEORGIANCHAT_DEVICE", "cpu")
	t.Setenv("GEORGIANCHAT_MAX_NEW_TOKENS", "64")
	t.Setenv("GEORGIANCHAT_LOG_LEVEL", "debug")
	t.Setenv("GEORGIANCHAT_EXTRA_HEADERS", "X-Team:chat")

	cfg, err := config.LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "tgi", cfg.Provider)
	assert.Equal(t, "http://tgi.internal:8080", cfg.Endpoint)
	assert.Equal(t, "cpu", cfg.Device)
	assert.Equal(t, 64, cfg.MaxNewTokens)
	assert.Equal(t, utils.LogLevelDebug, cfg.LogLevel)
	assert.Equal(t, "chat", cfg.ExtraHeaders["X-Team"])
}

func TestLoadConfigRejectsBadLogLevel(t *testing.T) {
	t.Setenv("GEORGIANCHAT_LOG_LEVEL", "chatty")

	_, err := config.LoadConfig()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		opts    []config.ConfigOption
		wantErr bool
	}{
		{name: "defaults", wantErr: false},
		{name: "ollama tag", opts: []config.ConfigOption{config.SetModel("mistral:7b-instruct-v0.1-fp16")}, wantErr: false},
		{name: "unknown provider", opts: []config.ConfigOption{config.SetProvider("modal")}, wantErr: true},
		{name: "mps alias", opts: []config.ConfigOption{config.SetDevice("mps")}, wantErr: false},
		{name: "bad device", opts: []config.ConfigOption{config.SetDevice("tpu")}, wantErr: true},
		{name: "bad checkpoint", opts: []config.ConfigOption{config.SetModel("not a model")}, wantErr: true},
		{name: "top_p zero", opts: []config.ConfigOption{config.SetTopP(0)}, wantErr: true},
		{name: "temperature too high", opts: []config.ConfigOption{config.SetTemperature(3)}, wantErr: true},
		{name: "endpoint not a url", opts: []config.ConfigOption{config.SetEndpoint("localhost")}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.NewConfig()
			config.ApplyOptions(cfg, tt.opts...)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSetMaxNewTokensClamps(t *testing.T) {
	cfg := config.NewConfig()
	config.ApplyOptions(cfg, config.SetMaxNewTokens(0))
	assert.Equal(t, 1, cfg.MaxNewTokens)
}

func TestSetLogger(t *testing.T) {
	customLogger := &testLogger{}

	cfg := config.NewConfig()
	config.ApplyOptions(cfg, config.SetLogger(customLogger))

	assert.Equal(t, customLogger, cfg.GetLogger())
}

func TestGetLoggerDefault(t *testing.T) {
	cfg := config.NewConfig()
	logger := cfg.GetLogger()
	require.NotNil(t, logger)
	assert.Same(t, logger, cfg.GetLogger())
}

func TestSetExtraHeadersMerges(t *testing.T) {
	cfg := &config.Config{}
	config.ApplyOptions(cfg,
		config.SetExtraHeaders(map[string]string{"A": "1"}),
		config.SetExtraHeaders(map[string]string{"B": "2"}),
	)
	assert.Equal(t, map[string]string{"A": "1", "B": "2"}, cfg.ExtraHeaders)
}
