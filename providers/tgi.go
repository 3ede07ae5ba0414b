package providers

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/teilomillet/georgianchat/config"
	"github.com/teilomillet/georgianchat/utils"
)

// TGIBackend talks to a Hugging Face text-generation-inference server. TGI
// serves exactly one model chosen at launch, so Load verifies rather than
// pulls, and device placement is the server's concern.
type TGIBackend struct {
	http   *httpClient
	logger utils.Logger
}

func NewTGIBackend(cfg *config.Config, client *http.Client, logger utils.Logger) *TGIBackend {
	headers := make(map[string]string, len(cfg.ExtraHeaders)+1)
	for k, v := range cfg.ExtraHeaders {
		headers[k] = v
	}
	if cfg.APIKey != "" {
		headers["Authorization"] = "Bearer " + cfg.APIKey
	}
	return &TGIBackend{
		http:   newHTTPClient("tgi", cfg.Endpoint, headers, client, logger),
		logger: logger,
	}
}

func (b *TGIBackend) Name() string {
	return "tgi"
}

type tgiInfo struct {
	ModelID         string `json:"model_id"`
	ModelDtype      string `json:"model_dtype"`
	ModelDeviceType string `json:"model_device_type"`
	MaxTotalTokens  int    `json:"max_total_tokens"`
}

func (b *TGIBackend) Load(ctx context.Context, req LoadRequest) (*ModelInfo, error) {
	var info tgiInfo
	if err := b.http.getJSON(ctx, "/info", &info); err != nil {
		return nil, fmt.Errorf("info: %w", err)
	}
	if !strings.EqualFold(info.ModelID, req.Model) {
		return nil, fmt.Errorf("server is serving %s, not %s", info.ModelID, req.Model)
	}
	if info.ModelDeviceType != "" && !strings.EqualFold(info.ModelDeviceType, string(req.Device)) {
		b.logger.Warn("Server device differs from resolved device", "server", info.ModelDeviceType, "resolved", req.Device)
	}

	return &ModelInfo{
		Checkpoint:    req.Model,
		Name:          info.ModelID,
		Precision:     info.ModelDtype,
		ContextLength: info.MaxTotalTokens,
		Device:        req.Device,
	}, nil
}

func (b *TGIBackend) Ready(ctx context.Context) error {
	_, err := b.http.do(ctx, http.MethodGet, "/health", nil)
	return err
}

type tgiParameters struct {
	Temperature    *float64 `json:"temperature,omitempty"`
	TopP           *float64 `json:"top_p,omitempty"`
	MaxNewTokens   int      `json:"max_new_tokens"`
	DoSample       bool     `json:"do_sample"`
	ReturnFullText bool     `json:"return_full_text"`
	Details        bool     `json:"details"`
}

func (b *TGIBackend) Generate(ctx context.Context, in GenerateInput) (*Output, error) {
	params := tgiParameters{
		MaxNewTokens:   in.Sampling.MaxNewTokens,
		DoSample:       in.Sampling.DoSample,
		ReturnFullText: false,
		Details:        true,
	}
	// TGI rejects sampling knobs on greedy requests and top_p outside (0, 1).
	if in.Sampling.DoSample {
		params.Temperature = &in.Sampling.Temperature
		if in.Sampling.TopP < 1 {
			params.TopP = &in.Sampling.TopP
		}
	}

	var resp struct {
		GeneratedText string `json:"generated_text"`
		Details       *struct {
			FinishReason    string `json:"finish_reason"`
			GeneratedTokens int    `json:"generated_tokens"`
			Prefill         []any  `json:"prefill"`
		} `json:"details"`
	}
	body := map[string]any{"inputs": in.Prompt, "parameters": params}
	if err := b.http.postJSON(ctx, "/generate", body, &resp); err != nil {
		return nil, err
	}

	out := &Output{Text: resp.GeneratedText}
	if resp.Details != nil {
		out.FinishReason = resp.Details.FinishReason
		out.CompletionTokens = resp.Details.GeneratedTokens
		out.PromptTokens = len(resp.Details.Prefill)
	}
	return out, nil
}

// KeepAlive pings the server; TGI never unloads its model.
func (b *TGIBackend) KeepAlive(ctx context.Context, _ string) error {
	return b.Ready(ctx)
}
