// Package providers implements the inference backends that fetch, place and
// run the chat model.
package providers

import (
	"context"

	"github.com/teilomillet/georgianchat/internal/device"
)

// Backend is an inference server that owns the model weights. The chat
// service never runs the network itself; it asks a Backend to pull the
// checkpoint, keep it resident, and decode raw prompts.
type Backend interface {
	// Name returns the registry name of the backend.
	Name() string

	// Load fetches the checkpoint and places it on the requested device.
	Load(ctx context.Context, req LoadRequest) (*ModelInfo, error)

	// Ready returns nil once the backend accepts requests.
	Ready(ctx context.Context) error

	// Generate continues the raw prompt. The returned text never includes
	// chat-template rewriting by the backend.
	Generate(ctx context.Context, in GenerateInput) (*Output, error)

	// KeepAlive asks the backend to keep model resident.
	KeepAlive(ctx context.Context, model string) error
}

type LoadRequest struct {
	Model     string
	Precision string
	Device    device.Device
}

// ModelInfo describes the model a backend has made resident.
type ModelInfo struct {
	Checkpoint    string
	Name          string
	Family        string
	ParameterSize string
	Precision     string
	ContextLength int
	Device        device.Device
}

// Sampling holds the decoding parameters for one generation.
type Sampling struct {
	Temperature  float64 `json:"temperature"`
	TopP         float64 `json:"top_p"`
	MaxNewTokens int     `json:"max_new_tokens"`
	DoSample     bool    `json:"do_sample"`
	PadWithEOS   bool    `json:"pad_with_eos"`
}

type GenerateInput struct {
	Model    string
	Prompt   string
	Sampling Sampling
	Device   device.Device
}

// Output is what a backend produced. Text may still contain an echo of the
// prompt; callers strip it.
type Output struct {
	Text             string
	PromptTokens     int
	CompletionTokens int
	FinishReason     string
}
