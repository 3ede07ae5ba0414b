package main

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/teilomillet/georgianchat/config"
	"github.com/teilomillet/georgianchat/internal/device"
	"github.com/teilomillet/georgianchat/llm"
	"github.com/teilomillet/georgianchat/providers"
	"github.com/teilomillet/georgianchat/server"
	"github.com/teilomillet/georgianchat/utils"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCharactersCommand(t *testing.T) {
	out, err := execute(t, "characters")
	require.NoError(t, err)
	for _, id := range []string{"georgian-gentleman", "lady-regent", "colonial-scholar", "mr-boz"} {
		assert.Contains(t, out, id)
	}
}

func TestDeployCommand(t *testing.T) {
	out, err := execute(t, "deploy", "--manifest", filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	var printed map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(out), &printed))
	assert.Equal(t, "georgian-chatbot", printed["app"])

	gen := printed["generate_response"].(map[string]any)
	assert.Equal(t, "A10G", gen["gpu"])
	assert.Equal(t, "5m0s", gen["timeout"])
	assert.Equal(t, 1, gen["min_warm"])
}

func TestGenerateLocalWithMockBackend(t *testing.T) {
	t.Setenv("GEORGIANCHAT_PROVIDER", "mock")
	t.Setenv("GEORGIANCHAT_DEVICE", "cpu")
	t.Setenv("GEORGIANCHAT_LOG_LEVEL", "OFF")
	t.Setenv("GEORGIANCHAT_READY_INTERVAL", "1ms")

	out, err := execute(t, "generate", "--manifest", "")
	require.NoError(t, err)
	assert.Equal(t, "Response: This is a mock response\n", out)
}

func TestGenerateRemote(t *testing.T) {
	backend := providers.NewMockBackend()
	backend.SetMockResponse("A most temperate morning, sir.")

	cfg := config.NewConfig()
	config.ApplyOptions(cfg, config.SetProvider("mock"), config.SetLogger(utils.NewNopLogger()))
	loader := llm.NewLoader(cfg, backend, device.CPU,
		llm.WithTokenizerFactory(func(string) (llm.TokenCounter, error) { return nil, errors.New("offline") }))
	ts := httptest.NewServer(server.New(cfg, nil, llm.NewGenerator(cfg, loader)).Handler())
	defer ts.Close()

	out, err := execute(t, "generate", "--remote", ts.URL)
	require.NoError(t, err)
	assert.Contains(t, out, "Health: healthy (model mistral-7b-instruct, provider mock)")
	assert.Contains(t, out, "Character: georgian-gentleman")
	assert.Contains(t, out, "Response: A most temperate morning, sir.")

	assert.True(t, strings.HasSuffix(backend.LastInput().Prompt, " "+smokeMessage+" [/INST] "))
}

func TestGenerateRemoteUnreachable(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	ts.Close()

	_, err := execute(t, "generate", "--remote", ts.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "health check")
}
