package providers

import (
	"fmt"
	"net/http"
	"sort"
	"sync"

	"github.com/teilomillet/georgianchat/config"
	"github.com/teilomillet/georgianchat/utils"
)

// BackendConstructor builds a backend from configuration.
type BackendConstructor func(cfg *config.Config, client *http.Client, logger utils.Logger) Backend

// BackendRegistry manages the registration and retrieval of backends.
type BackendRegistry struct {
	backends map[string]BackendConstructor
	mutex    sync.RWMutex
}

// NewBackendRegistry creates a registry with the named backends, or all
// known backends when no names are given.
func NewBackendRegistry(names ...string) *BackendRegistry {
	registry := &BackendRegistry{
		backends: make(map[string]BackendConstructor),
	}

	known := getKnownBackends()
	if len(names) == 0 {
		for name, constructor := range known {
			registry.backends[name] = constructor
		}
		return registry
	}
	for _, name := range names {
		if constructor, ok := known[name]; ok {
			registry.backends[name] = constructor
		}
	}
	return registry
}

func getKnownBackends() map[string]BackendConstructor {
	return map[string]BackendConstructor{
		"ollama": func(cfg *config.Config, client *http.Client, logger utils.Logger) Backend {
			return NewOllamaBackend(cfg, client, logger)
		},
		"tgi": func(cfg *config.Config, client *http.Client, logger utils.Logger) Backend {
			return NewTGIBackend(cfg, client, logger)
		},
		"mock": func(*config.Config, *http.Client, utils.Logger) Backend {
			return NewMockBackend()
		},
	}
}

// Register adds or replaces a backend constructor.
func (r *BackendRegistry) Register(name string, constructor BackendConstructor) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.backends[name] = constructor
}

// Get builds the named backend.
func (r *BackendRegistry) Get(name string, cfg *config.Config, client *http.Client, logger utils.Logger) (Backend, error) {
	r.mutex.RLock()
	constructor, exists := r.backends[name]
	r.mutex.RUnlock()

	if !exists {
		return nil, fmt.Errorf("unknown provider: %s", name)
	}
	return constructor(cfg, client, logger), nil
}

// Names lists the registered backends in sorted order.
func (r *BackendRegistry) Names() []string {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	names := make([]string, 0, len(r.backends))
	for name := range r.backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var (
	defaultRegistry     *BackendRegistry
	defaultRegistryOnce sync.Once
)

// GetDefaultRegistry returns the process-wide registry of known backends.
func GetDefaultRegistry() *BackendRegistry {
	defaultRegistryOnce.Do(func() {
		defaultRegistry = NewBackendRegistry()
	})
	return defaultRegistry
}
