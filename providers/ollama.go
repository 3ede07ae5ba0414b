package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/teilomillet/georgianchat/config"
	"github.com/teilomillet/georgianchat/internal/device"
	"github.com/teilomillet/georgianchat/utils"
)

// Common parameter keys for Ollama
const (
	ollamaKeyModel     = "model"
	ollamaKeyPrompt    = "prompt"
	ollamaKeyStream    = "stream"
	ollamaKeyRaw       = "raw"
	ollamaKeyOptions   = "options"
	ollamaKeyKeepAlive = "keep_alive"
)

// ollamaTags maps hub checkpoints to the Ollama library tags holding the same
// weights at half precision.
var ollamaTags = map[string]string{
	"mistralai/Mistral-7B-Instruct-v0.1": "mistral:7b-instruct-v0.1-fp16",
	"mistralai/Mistral-7B-Instruct-v0.2": "mistral:7b-instruct-v0.2-fp16",
}

// OllamaTag returns the Ollama model name for a checkpoint. Local tags pass
// through; unknown hub ids are pulled from Hugging Face via the hf.co prefix.
func OllamaTag(checkpoint string) string {
	if tag, ok := ollamaTags[checkpoint]; ok {
		return tag
	}
	if !strings.Contains(checkpoint, "/") || strings.HasPrefix(checkpoint, "hf.co/") {
		return checkpoint
	}
	return "hf.co/" + checkpoint
}

// OllamaBackend runs the model on an Ollama server. Prompts are sent in raw
// mode so the server's own chat template never rewrites the [INST] markup.
type OllamaBackend struct {
	http      *httpClient
	keepAlive time.Duration
	logger    utils.Logger

	mu     sync.Mutex
	placed device.Device
}

func NewOllamaBackend(cfg *config.Config, client *http.Client, logger utils.Logger) *OllamaBackend {
	return &OllamaBackend{
		http:      newHTTPClient("ollama", cfg.Endpoint, cfg.ExtraHeaders, client, logger),
		keepAlive: cfg.KeepAlive,
		logger:    logger,
	}
}

func (b *OllamaBackend) Name() string {
	return "ollama"
}

// options converts sampling parameters and device placement to Ollama options.
func (b *OllamaBackend) options(s *Sampling, d device.Device) map[string]any {
	opts := make(map[string]any)
	if s != nil {
		if s.DoSample {
			opts["temperature"] = s.Temperature
			opts["top_p"] = s.TopP
		} else {
			opts["temperature"] = 0
		}
		opts["num_predict"] = s.MaxNewTokens
	}
	if d == device.CPU {
		opts["num_gpu"] = 0
	}
	return opts
}

func (b *OllamaBackend) baseRequest(model string, d device.Device, s *Sampling) map[string]any {
	body := map[string]any{
		ollamaKeyModel:   OllamaTag(model),
		ollamaKeyStream:  false,
		ollamaKeyOptions: b.options(s, d),
	}
	if b.keepAlive != 0 {
		body[ollamaKeyKeepAlive] = b.keepAlive.String()
	}
	return body
}

func (b *OllamaBackend) Load(ctx context.Context, req LoadRequest) (*ModelInfo, error) {
	tag := OllamaTag(req.Model)
	b.logger.Info("Pulling model", "checkpoint", req.Model, "tag", tag)

	var pull struct {
		Status string `json:"status"`
	}
	if err := b.http.postJSON(ctx, "/api/pull", map[string]any{ollamaKeyModel: tag, ollamaKeyStream: false}, &pull); err != nil {
		return nil, fmt.Errorf("pull %s: %w", tag, err)
	}
	if pull.Status != "success" {
		return nil, fmt.Errorf("pull %s: unexpected status %q", tag, pull.Status)
	}

	var show struct {
		Details struct {
			Family            string `json:"family"`
			ParameterSize     string `json:"parameter_size"`
			QuantizationLevel string `json:"quantization_level"`
		} `json:"details"`
		ModelInfo map[string]any `json:"model_info"`
	}
	if err := b.http.postJSON(ctx, "/api/show", map[string]any{ollamaKeyModel: tag}, &show); err != nil {
		return nil, fmt.Errorf("show %s: %w", tag, err)
	}

	// An empty generate call makes the weights resident on the device.
	warm := b.baseRequest(req.Model, req.Device, nil)
	if err := b.http.postJSON(ctx, "/api/generate", warm, nil); err != nil {
		return nil, fmt.Errorf("place %s on %s: %w", tag, req.Device, err)
	}

	b.mu.Lock()
	b.placed = req.Device
	b.mu.Unlock()

	return &ModelInfo{
		Checkpoint:    req.Model,
		Name:          tag,
		Family:        show.Details.Family,
		ParameterSize: show.Details.ParameterSize,
		Precision:     strings.ToLower(show.Details.QuantizationLevel),
		ContextLength: contextLength(show.ModelInfo),
		Device:        req.Device,
	}, nil
}

func contextLength(info map[string]any) int {
	for k, v := range info {
		if !strings.HasSuffix(k, ".context_length") {
			continue
		}
		if n, ok := v.(float64); ok {
			return int(n)
		}
	}
	return 0
}

func (b *OllamaBackend) Ready(ctx context.Context) error {
	return b.http.getJSON(ctx, "/api/tags", nil)
}

func (b *OllamaBackend) Generate(ctx context.Context, in GenerateInput) (*Output, error) {
	body := b.baseRequest(in.Model, in.Device, &in.Sampling)
	body[ollamaKeyPrompt] = in.Prompt
	body[ollamaKeyRaw] = true

	data, err := b.http.do(ctx, http.MethodPost, "/api/generate", body)
	if err != nil {
		return nil, err
	}
	return parseOllamaResponse(data)
}

// parseOllamaResponse accepts both a single JSON object and a stream of
// newline-delimited chunks, concatenating the text.
func parseOllamaResponse(body []byte) (*Output, error) {
	var fullText strings.Builder
	out := &Output{}

	decoder := json.NewDecoder(bytes.NewReader(body))
	for decoder.More() {
		var response struct {
			Response        string `json:"response"`
			Done            bool   `json:"done"`
			DoneReason      string `json:"done_reason"`
			PromptEvalCount int    `json:"prompt_eval_count"`
			EvalCount       int    `json:"eval_count"`
		}
		if err := decoder.Decode(&response); err != nil {
			return nil, fmt.Errorf("error parsing Ollama response: %w", err)
		}
		fullText.WriteString(response.Response)
		if response.PromptEvalCount > 0 {
			out.PromptTokens = response.PromptEvalCount
		}
		if response.EvalCount > 0 {
			out.CompletionTokens = response.EvalCount
		}
		if response.Done {
			out.FinishReason = response.DoneReason
			break
		}
	}

	out.Text = fullText.String()
	return out, nil
}

// KeepAlive repeats the placement request so Ollama does not unload the model
// and reloads it with the same device options if it already did.
func (b *OllamaBackend) KeepAlive(ctx context.Context, model string) error {
	b.mu.Lock()
	placed := b.placed
	b.mu.Unlock()
	return b.http.postJSON(ctx, "/api/generate", b.baseRequest(model, placed, nil), nil)
}
