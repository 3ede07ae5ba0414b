package providers

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/teilomillet/georgianchat/internal/device"
)

// MockBackend implements Backend for tests and offline runs.
type MockBackend struct {
	mu sync.Mutex
	// Mock response configuration
	responseText string
	responses    []string // Queue of preset responses
	currentIndex int      // Current position in response queue
	echoPrompt   bool     // Prefix output with the prompt, as decoder-only models do
	loadErr      error
	generateErr  error
	loadDelay    time.Duration

	loads       atomic.Int32
	generations atomic.Int32
	keepAlives  atomic.Int32
	lastInput   GenerateInput
}

func NewMockBackend() *MockBackend {
	return &MockBackend{responseText: "This is a mock response"}
}

func (b *MockBackend) Name() string { return "mock" }

// SetMockResponse configures the text returned when the queue is empty.
func (b *MockBackend) SetMockResponse(response string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.responseText = response
}

// SetResponses queues responses returned in order.
func (b *MockBackend) SetResponses(responses ...string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.responses = responses
	b.currentIndex = 0
}

// SetEchoPrompt makes Generate return the prompt followed by the response.
func (b *MockBackend) SetEchoPrompt(echo bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.echoPrompt = echo
}

func (b *MockBackend) SetLoadError(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.loadErr = err
}

func (b *MockBackend) SetGenerateError(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.generateErr = err
}

// SetLoadDelay slows Load down so concurrent callers overlap.
func (b *MockBackend) SetLoadDelay(d time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.loadDelay = d
}

// Loads returns how many times Load ran.
func (b *MockBackend) Loads() int { return int(b.loads.Load()) }

// Generations returns how many times Generate ran.
func (b *MockBackend) Generations() int { return int(b.generations.Load()) }

// KeepAlives returns how many times KeepAlive ran.
func (b *MockBackend) KeepAlives() int { return int(b.keepAlives.Load()) }

// LastInput returns the most recent GenerateInput.
func (b *MockBackend) LastInput() GenerateInput {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastInput
}

func (b *MockBackend) Load(ctx context.Context, req LoadRequest) (*ModelInfo, error) {
	b.loads.Add(1)

	b.mu.Lock()
	delay, err := b.loadDelay, b.loadErr
	b.mu.Unlock()

	if delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}
	if err != nil {
		return nil, err
	}
	d := req.Device
	if d == "" {
		d = device.CPU
	}
	return &ModelInfo{
		Checkpoint:    req.Model,
		Name:          req.Model,
		Family:        "mock",
		Precision:     req.Precision,
		ContextLength: 8192,
		Device:        d,
	}, nil
}

func (b *MockBackend) Ready(ctx context.Context) error {
	return ctx.Err()
}

func (b *MockBackend) Generate(ctx context.Context, in GenerateInput) (*Output, error) {
	b.generations.Add(1)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.lastInput = in

	if b.generateErr != nil {
		return nil, b.generateErr
	}

	text := b.responseText
	if b.currentIndex < len(b.responses) {
		text = b.responses[b.currentIndex]
		b.currentIndex++
	} else if len(b.responses) > 0 {
		return nil, errors.New("mock backend: no more responses")
	}
	if b.echoPrompt {
		text = in.Prompt + text
	}
	return &Output{Text: text, CompletionTokens: len(text) / 4, FinishReason: "length"}, nil
}

func (b *MockBackend) KeepAlive(ctx context.Context, _ string) error {
	b.keepAlives.Add(1)
	return ctx.Err()
}
