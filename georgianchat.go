package georgianchat

import (
	"context"
	"fmt"
	"net/http"

	"github.com/teilomillet/georgianchat/config"
	"github.com/teilomillet/georgianchat/internal/device"
	"github.com/teilomillet/georgianchat/internal/keepwarm"
	"github.com/teilomillet/georgianchat/llm"
	"github.com/teilomillet/georgianchat/providers"
	"github.com/teilomillet/georgianchat/server"
	"github.com/teilomillet/georgianchat/utils"
)

// Service wires configuration, device, backend and the lazily loaded model
// into the generate_response and health_check functions.
type Service struct {
	cfg       *config.Config
	manifest  *config.Manifest
	device    device.Device
	backend   providers.Backend
	loader    *llm.Loader
	generator *llm.Generator
	logger    utils.Logger
}

// Option customises New.
type Option func(*options)

type options struct {
	backend    providers.Backend
	detector   device.Detector
	httpClient *http.Client
	manifest   *config.Manifest
	loaderOpts []llm.LoaderOption
}

// WithBackend uses b instead of the backend named by the configuration.
func WithBackend(b providers.Backend) Option {
	return func(o *options) { o.backend = b }
}

// WithDetector replaces host accelerator detection.
func WithDetector(p device.Detector) Option {
	return func(o *options) { o.detector = p }
}

// WithHTTPClient sets the client used to reach the backend.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// WithManifest sets the deployment manifest.
func WithManifest(m *config.Manifest) Option {
	return func(o *options) { o.manifest = m }
}

// WithLoaderOptions passes options through to the model loader.
func WithLoaderOptions(opts ...llm.LoaderOption) Option {
	return func(o *options) { o.loaderOpts = append(o.loaderOpts, opts...) }
}

// New validates cfg, resolves the device once and prepares the loader. The
// model itself is not loaded until the first generation or Warm.
func New(cfg *config.Config, opts ...Option) (*Service, error) {
	if cfg == nil {
		cfg = config.NewConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, llm.NewLLMError(llm.ErrorTypeInvalidInput, "invalid configuration", err)
	}

	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.detector == nil {
		o.detector = device.NewHostDetector()
	}
	if o.manifest == nil {
		o.manifest = config.DefaultManifest()
	}

	logger := cfg.GetLogger()

	pref, err := device.Parse(cfg.Device)
	if err != nil {
		return nil, llm.NewLLMError(llm.ErrorTypeInvalidInput, "invalid device", err)
	}
	dev, err := device.Resolve(pref, o.detector)
	if err != nil {
		return nil, llm.NewLLMError(llm.ErrorTypeLoad, "device unavailable", err)
	}

	backend := o.backend
	if backend == nil {
		client := o.httpClient
		if client == nil {
			client = &http.Client{Timeout: cfg.LoadTimeout}
		}
		backend, err = providers.GetDefaultRegistry().Get(cfg.Provider, cfg, client, utils.WithFields(logger, "backend", cfg.Provider))
		if err != nil {
			return nil, llm.NewLLMError(llm.ErrorTypeInvalidInput, "failed to create backend", err)
		}
	}

	loader := llm.NewLoader(cfg, backend, dev, o.loaderOpts...)
	logger.Info("Service configured",
		"provider", backend.Name(),
		"checkpoint", cfg.Model,
		"device", dev,
		"preference", pref)

	return &Service{
		cfg:       cfg,
		manifest:  o.manifest,
		device:    dev,
		backend:   backend,
		loader:    loader,
		generator: llm.NewGenerator(cfg, loader),
		logger:    logger,
	}, nil
}

// GenerateResponse produces one in-character reply to messages.
func (s *Service) GenerateResponse(ctx context.Context, messages []Message, character string) (*GenerationResult, error) {
	return s.generator.Generate(ctx, llm.GenerateRequest{Messages: messages, Character: character})
}

// HealthCheck reports liveness without touching the model.
func (s *Service) HealthCheck() server.HealthResponse {
	return server.Health(s.backend.Name())
}

// Warm loads the model ahead of the first request.
func (s *Service) Warm(ctx context.Context) error {
	return s.loader.Warm(ctx)
}

// NewServer returns the HTTP wrapper for this service.
func (s *Service) NewServer() *server.Server {
	return server.New(s.cfg, s.manifest, s.generator)
}

// NewKeeper returns the warm-instance scheduler for this service.
func (s *Service) NewKeeper() (*keepwarm.Keeper, error) {
	k, err := keepwarm.New(s.cfg, s.manifest, s.loader)
	if err != nil {
		return nil, fmt.Errorf("keep-warm: %w", err)
	}
	return k, nil
}

func (s *Service) Config() *config.Config     { return s.cfg }
func (s *Service) Manifest() *config.Manifest { return s.manifest }
func (s *Service) Device() device.Device      { return s.device }
func (s *Service) Backend() providers.Backend { return s.backend }
func (s *Service) Generator() *llm.Generator  { return s.generator }
func (s *Service) Loaded() bool               { return s.loader.Loaded() }
