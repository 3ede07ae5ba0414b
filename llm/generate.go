package llm

import (
	"context"
	"strings"
	"time"

	"github.com/teilomillet/georgianchat/config"
	"github.com/teilomillet/georgianchat/internal/observability"
	"github.com/teilomillet/georgianchat/persona"
	"github.com/teilomillet/georgianchat/providers"
	"github.com/teilomillet/georgianchat/utils"
)

// GenerateRequest is the input contract of one invocation.
type GenerateRequest struct {
	Messages  []Message `json:"messages" validate:"required" jsonschema:"required,description=Conversation so far; oldest first"`
	Character string    `json:"character,omitempty" jsonschema:"description=Character id; unknown ids use the default character,default=georgian-gentleman"`
}

// GenerationResult is the output contract of one invocation.
type GenerationResult struct {
	Response  string `json:"response"`
	Character string `json:"character"`
	Model     string `json:"model"`
	Usage     Usage  `json:"-"`
}

// Usage reports token accounting for one generation.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	FinishReason     string
	Duration         time.Duration
}

// DefaultSampling returns the decoding parameters used for every persona reply.
func DefaultSampling() providers.Sampling {
	return providers.Sampling{
		Temperature:  0.7,
		TopP:         0.9,
		MaxNewTokens: 150,
		DoSample:     true,
		PadWithEOS:   true,
	}
}

// SamplingFromConfig reads the decoding parameters from cfg.
func SamplingFromConfig(cfg *config.Config) providers.Sampling {
	return providers.Sampling{
		Temperature:  cfg.Temperature,
		TopP:         cfg.TopP,
		MaxNewTokens: cfg.MaxNewTokens,
		DoSample:     cfg.DoSample,
		PadWithEOS:   true,
	}
}

// Generator turns a conversation and a character into a persona reply.
type Generator struct {
	loader           *Loader
	checkpoint       string
	label            string
	sampling         providers.Sampling
	defaultCharacter persona.Character
	literaryContext  bool
	contextWindow    int
	timeout          time.Duration
	logger           utils.Logger
}

func NewGenerator(cfg *config.Config, loader *Loader) *Generator {
	return &Generator{
		loader:           loader,
		checkpoint:       cfg.Model,
		label:            config.ModelLabel,
		sampling:         SamplingFromConfig(cfg),
		defaultCharacter: persona.Resolve(cfg.DefaultCharacter),
		literaryContext:  cfg.LiteraryContext,
		contextWindow:    cfg.ContextWindow,
		timeout:          cfg.Timeout,
		logger:           cfg.GetLogger(),
	}
}

// Loader exposes the model loader shared with health and warm-up code.
func (g *Generator) Loader() *Loader {
	return g.loader
}

// ResolveCharacter maps a requested id to a character, falling back to the
// configured default for empty or unknown ids.
func (g *Generator) ResolveCharacter(id string) persona.Character {
	if persona.Known(id) {
		return persona.Resolve(id)
	}
	return g.defaultCharacter
}

// BuildPrompt assembles the full model input for req.
func (g *Generator) BuildPrompt(req GenerateRequest) (string, persona.Character) {
	c := g.ResolveCharacter(req.Character)
	system := persona.SystemPrompt(c)
	if g.literaryContext {
		system = persona.SystemPromptWithContext(c, LastUserContent(req.Messages))
	}
	return FormatConversation(system, req.Messages), c
}

// Generate runs one invocation: assemble the prompt, make sure the model is
// loaded, decode, and clean the reply. Any failure aborts the invocation with
// no partial result.
func (g *Generator) Generate(ctx context.Context, req GenerateRequest) (_ *GenerationResult, err error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	prompt, c := g.BuildPrompt(req)

	state, err := g.loader.Get(ctx)
	if err != nil {
		return nil, err
	}

	ctx, span := observability.StartGenerateSpan(ctx, state.Backend.Name(), g.label, c.ID())
	defer func() {
		observability.RecordError(span, err)
		span.End()
	}()

	promptTokens := state.Tokenizer.Count(prompt)
	window := g.contextWindow
	if state.Info.ContextLength > 0 {
		window = state.Info.ContextLength
	}
	if promptTokens+g.sampling.MaxNewTokens > window {
		g.logger.Warn("Prompt may exceed the context window",
			"prompt_tokens", promptTokens,
			"max_new_tokens", g.sampling.MaxNewTokens,
			"context_window", window)
	}

	g.logger.Debug("Generating", "character", c.ID(), "turns", len(req.Messages), "prompt_tokens", promptTokens)

	start := time.Now()
	out, err := state.Backend.Generate(ctx, providers.GenerateInput{
		Model:    g.checkpoint,
		Prompt:   prompt,
		Sampling: g.sampling,
		Device:   state.Device,
	})
	if err != nil {
		return nil, classify(ErrorTypeGeneration, "generation failed", err)
	}

	usage := Usage{
		PromptTokens:     out.PromptTokens,
		CompletionTokens: out.CompletionTokens,
		FinishReason:     out.FinishReason,
		Duration:         time.Since(start),
	}
	if usage.PromptTokens == 0 {
		usage.PromptTokens = promptTokens
	}
	reply := CleanResponse(DecodeNew(prompt, out.Text))
	if usage.CompletionTokens == 0 {
		usage.CompletionTokens = state.Tokenizer.Count(reply)
	}
	observability.RecordLLMMetrics(span, usage.PromptTokens, usage.CompletionTokens, usage.Duration)

	g.logger.Info("Generated response",
		"character", c.ID(),
		"prompt_tokens", usage.PromptTokens,
		"completion_tokens", usage.CompletionTokens,
		"finish_reason", usage.FinishReason,
		"duration", usage.Duration)

	return &GenerationResult{
		Response:  reply,
		Character: c.ID(),
		Model:     g.label,
		Usage:     usage,
	}, nil
}

// DecodeNew keeps only the text generated after prompt. Backends that return
// the full sequence echo the prompt, sometimes with the <s> markers dropped.
func DecodeNew(prompt, output string) string {
	if strings.HasPrefix(output, prompt) {
		return output[len(prompt):]
	}
	if bare := strings.ReplaceAll(prompt, "<s>", ""); strings.HasPrefix(output, bare) {
		return output[len(bare):]
	}
	return output
}

// CleanResponse trims whitespace and any leading instruction-close markers
// the model sometimes emits.
func CleanResponse(text string) string {
	text = strings.TrimSpace(text)
	for strings.HasPrefix(text, InstClose) {
		text = strings.TrimSpace(text[len(InstClose):])
	}
	return text
}
