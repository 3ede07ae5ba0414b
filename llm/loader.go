package llm

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/teilomillet/georgianchat/config"
	"github.com/teilomillet/georgianchat/internal/device"
	"github.com/teilomillet/georgianchat/internal/observability"
	"github.com/teilomillet/georgianchat/providers"
	"github.com/teilomillet/georgianchat/utils"
)

// ModelState is the process-wide handle to a loaded model. It is created at
// most once per Loader and never mutated afterwards.
type ModelState struct {
	Backend   providers.Backend
	Tokenizer TokenCounter
	Info      providers.ModelInfo
	Device    device.Device
	LoadedAt  time.Time
}

// Loader lazily loads the model on first use. Concurrent first calls share a
// single load; a failed load is not cached and the next call tries again.
type Loader struct {
	backend       providers.Backend
	checkpoint    string
	precision     string
	device        device.Device
	readyInterval time.Duration
	loadTimeout   time.Duration
	newTokenizer  func(model string) (TokenCounter, error)
	logger        utils.Logger

	group singleflight.Group
	mu    sync.RWMutex
	state *ModelState
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithTokenizerFactory replaces the tiktoken-backed tokenizer.
func WithTokenizerFactory(fn func(model string) (TokenCounter, error)) LoaderOption {
	return func(l *Loader) {
		l.newTokenizer = fn
	}
}

// NewLoader prepares a loader for cfg.Model on the already-resolved device.
func NewLoader(cfg *config.Config, backend providers.Backend, dev device.Device, opts ...LoaderOption) *Loader {
	logger := cfg.GetLogger()
	l := &Loader{
		backend:       backend,
		checkpoint:    cfg.Model,
		precision:     cfg.Precision,
		device:        dev,
		readyInterval: cfg.ReadyInterval,
		loadTimeout:   cfg.LoadTimeout,
		logger:        logger,
	}
	l.newTokenizer = func(model string) (TokenCounter, error) {
		return NewTokenizer(model, logger)
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Loaded reports whether the model is resident.
func (l *Loader) Loaded() bool {
	return l.Current() != nil
}

// Backend returns the backend the model is loaded on.
func (l *Loader) Backend() providers.Backend {
	return l.backend
}

// Current returns the loaded model, or nil while it is not resident.
func (l *Loader) Current() *ModelState {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state
}

// Get returns the loaded model, loading it first if necessary. The load
// itself is bounded by the load timeout rather than ctx, so a caller giving
// up does not abort a load other callers are waiting on.
func (l *Loader) Get(ctx context.Context) (*ModelState, error) {
	if s := l.Current(); s != nil {
		return s, nil
	}

	ch := l.group.DoChan("model", func() (any, error) {
		if s := l.Current(); s != nil {
			return s, nil
		}
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), l.loadTimeout)
		defer cancel()

		s, err := l.load(loadCtx)
		if err != nil {
			return nil, err
		}
		l.mu.Lock()
		l.state = s
		l.mu.Unlock()
		return s, nil
	})

	select {
	case <-ctx.Done():
		return nil, classify(ErrorTypeLoad, "gave up waiting for model", ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, classify(ErrorTypeLoad, "failed to load model", res.Err)
		}
		return res.Val.(*ModelState), nil
	}
}

// Warm loads the model ahead of the first request.
func (l *Loader) Warm(ctx context.Context) error {
	_, err := l.Get(ctx)
	return err
}

func (l *Loader) load(ctx context.Context) (_ *ModelState, err error) {
	ctx, span := observability.StartLoadSpan(ctx, l.backend.Name(), l.checkpoint, string(l.device))
	defer func() {
		observability.RecordError(span, err)
		span.End()
	}()

	start := time.Now()
	if err := l.waitReady(ctx); err != nil {
		return nil, err
	}

	info, err := l.backend.Load(ctx, providers.LoadRequest{
		Model:     l.checkpoint,
		Precision: l.precision,
		Device:    l.device,
	})
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", l.checkpoint, err)
	}

	tokenizer, err := l.newTokenizer(l.checkpoint)
	if err != nil {
		l.logger.Warn("Tokenizer unavailable, counting words instead", "error", err)
		tokenizer = wordCounter{}
	}

	l.logger.Info("Model loaded",
		"backend", l.backend.Name(),
		"checkpoint", l.checkpoint,
		"device", l.device,
		"context_length", info.ContextLength,
		"duration", time.Since(start))

	return &ModelState{
		Backend:   l.backend,
		Tokenizer: tokenizer,
		Info:      *info,
		Device:    l.device,
		LoadedAt:  time.Now(),
	}, nil
}

// waitReady polls the backend until it answers, at most once per interval.
func (l *Loader) waitReady(ctx context.Context) error {
	limiter := rate.NewLimiter(rate.Every(l.readyInterval), 1)
	var lastErr error
	for attempt := 1; ; attempt++ {
		if err := limiter.Wait(ctx); err != nil {
			if lastErr != nil {
				return fmt.Errorf("backend %s not ready: %w", l.backend.Name(), lastErr)
			}
			return err
		}
		lastErr = l.backend.Ready(ctx)
		if lastErr == nil {
			return nil
		}
		l.logger.Debug("Backend not ready", "backend", l.backend.Name(), "attempt", attempt, "error", lastErr)
	}
}
