package keepwarm

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teilomillet/georgianchat/config"
	"github.com/teilomillet/georgianchat/internal/device"
	"github.com/teilomillet/georgianchat/llm"
	"github.com/teilomillet/georgianchat/providers"
	"github.com/teilomillet/georgianchat/utils"
)

type wordCount struct{}

func (wordCount) Count(text string) int { return len(strings.Fields(text)) }

func newKeeper(t *testing.T, backend providers.Backend, interval time.Duration, minWarm int) (*Keeper, *llm.Loader) {
	t.Helper()
	cfg := config.NewConfig()
	config.ApplyOptions(cfg,
		config.SetProvider("mock"),
		config.SetLogger(utils.NewNopLogger()),
		config.SetReadyInterval(time.Millisecond),
		config.SetKeepWarmInterval(interval),
	)
	loader := llm.NewLoader(cfg, backend, device.CPU,
		llm.WithTokenizerFactory(func(string) (llm.TokenCounter, error) { return wordCount{}, nil }))

	manifest := config.DefaultManifest()
	manifest.Generate.MinWarm = minWarm

	k, err := New(cfg, manifest, loader)
	require.NoError(t, err)
	t.Cleanup(func() { _ = k.Stop() })
	return k, loader
}

func TestKeeperWarmsAndPings(t *testing.T) {
	backend := providers.NewMockBackend()
	k, loader := newKeeper(t, backend, 20*time.Millisecond, 1)
	require.True(t, k.Enabled())

	require.NoError(t, k.Start(context.Background()))

	assert.Eventually(t, loader.Loaded, time.Second, 5*time.Millisecond)
	assert.Eventually(t, func() bool { return backend.KeepAlives() >= 2 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 1, backend.Loads())
	assert.Zero(t, k.Failures())
}

func TestKeeperDisabled(t *testing.T) {
	backend := providers.NewMockBackend()
	k, loader := newKeeper(t, backend, 20*time.Millisecond, 0)
	require.False(t, k.Enabled())

	require.NoError(t, k.Start(context.Background()))
	time.Sleep(60 * time.Millisecond)

	assert.False(t, loader.Loaded())
	assert.Zero(t, k.Ticks())
	assert.Zero(t, backend.KeepAlives())
}

func TestKeeperRetriesFailedLoad(t *testing.T) {
	backend := providers.NewMockBackend()
	backend.SetLoadError(errors.New("registry offline"))
	k, loader := newKeeper(t, backend, 20*time.Millisecond, 1)

	require.NoError(t, k.Start(context.Background()))
	assert.Eventually(t, func() bool { return k.Failures() >= 1 }, time.Second, 5*time.Millisecond)
	assert.False(t, loader.Loaded())

	backend.SetLoadError(nil)
	assert.Eventually(t, loader.Loaded, 2*time.Second, 10*time.Millisecond)
}
