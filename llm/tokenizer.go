package llm

import (
	"fmt"
	"strings"

	"github.com/pkoukk/tiktoken-go"
	"github.com/teilomillet/georgianchat/utils"
)

// TokenCounter measures text in model tokens.
type TokenCounter interface {
	Count(text string) int
}

// Tokenizer approximates the model's token count with a BPE encoding. The
// backend owns the real vocabulary; this is used for usage reporting and
// context-window warnings only.
type Tokenizer struct {
	encoding *tiktoken.Tiktoken
	name     string
}

// NewTokenizer picks the encoding registered for model, defaulting to the
// gpt-4o encoding for models tiktoken does not know.
func NewTokenizer(model string, logger utils.Logger) (*Tokenizer, error) {
	encoding, err := tiktoken.EncodingForModel(model)
	name := model
	if err != nil {
		logger.Debug("No encoding for model, defaulting to gpt-4o", "model", model, "error", err)
		encoding, err = tiktoken.EncodingForModel("gpt-4o")
		name = "gpt-4o"
		if err != nil {
			return nil, fmt.Errorf("failed to get default encoding: %w", err)
		}
	}
	return &Tokenizer{encoding: encoding, name: name}, nil
}

// Count returns the number of tokens in text. Special-token markup such as
// "<s>" is counted as ordinary text.
func (t *Tokenizer) Count(text string) int {
	return len(t.encoding.Encode(text, nil, nil))
}

// Encoding names the encoding in use.
func (t *Tokenizer) Encoding() string {
	return t.name
}

// wordCounter is a coarse fallback used when no encoding can be loaded.
type wordCounter struct{}

func (wordCounter) Count(text string) int {
	return len(strings.Fields(text))
}
