// File: config/config.go

package config

import (
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/teilomillet/georgianchat/utils"
)

// DefaultCheckpoint is the instruction-tuned model every invocation runs against.
const DefaultCheckpoint = "mistralai/Mistral-7B-Instruct-v0.1"

// ModelLabel is the fixed model name reported to callers.
const ModelLabel = "mistral-7b-instruct"

type Config struct {
	Provider         string            `env:"GEORGIANCHAT_PROVIDER" envDefault:"ollama" validate:"required,oneof=ollama tgi mock"`
	Endpoint         string            `env:"GEORGIANCHAT_ENDPOINT" envDefault:"http://localhost:11434" validate:"required,url"`
	APIKey           string            `env:"HF_TOKEN"`
	Model            string            `env:"GEORGIANCHAT_MODEL" envDefault:"mistralai/Mistral-7B-Instruct-v0.1" validate:"required,checkpoint"`
	Precision        string            `env:"GEORGIANCHAT_PRECISION" envDefault:"fp16" validate:"oneof=fp16 fp32 bf16"`
	Device           string            `env:"GEORGIANCHAT_DEVICE" envDefault:"auto" validate:"oneof=auto cuda metal mps cpu"`
	Temperature      float64           `env:"GEORGIANCHAT_TEMPERATURE" envDefault:"0.7" validate:"gte=0,lte=2"`
	TopP             float64           `env:"GEORGIANCHAT_TOP_P" envDefault:"0.9" validate:"gt=0,lte=1"`
	MaxNewTokens     int               `env:"GEORGIANCHAT_MAX_NEW_TOKENS" envDefault:"150" validate:"gte=1"`
	DoSample         bool              `env:"GEORGIANCHAT_DO_SAMPLE" envDefault:"true"`
	ContextWindow    int               `env:"GEORGIANCHAT_CONTEXT_WINDOW" envDefault:"8192" validate:"gte=1"`
	Timeout          time.Duration     `env:"GEORGIANCHAT_TIMEOUT" envDefault:"300s" validate:"gt=0"`
	LoadTimeout      time.Duration     `env:"GEORGIANCHAT_LOAD_TIMEOUT" envDefault:"15m" validate:"gt=0"`
	ReadyInterval    time.Duration     `env:"GEORGIANCHAT_READY_INTERVAL" envDefault:"2s" validate:"gt=0"`
	KeepAlive        time.Duration     `env:"GEORGIANCHAT_KEEP_ALIVE" envDefault:"30m"`
	KeepWarmInterval time.Duration     `env:"GEORGIANCHAT_KEEP_WARM_INTERVAL" envDefault:"4m" validate:"gt=0"`
	DefaultCharacter string            `env:"GEORGIANCHAT_DEFAULT_CHARACTER" envDefault:"georgian-gentleman"`
	LiteraryContext  bool              `env:"GEORGIANCHAT_LITERARY_CONTEXT" envDefault:"false"`
	ListenAddr       string            `env:"GEORGIANCHAT_LISTEN_ADDR" envDefault:":8000" validate:"required"`
	OTLPEndpoint     string            `env:"GEORGIANCHAT_OTLP_ENDPOINT"`
	LogLevel         utils.LogLevel    `env:"GEORGIANCHAT_LOG_LEVEL" envDefault:"INFO"`
	ExtraHeaders     map[string]string `env:"GEORGIANCHAT_EXTRA_HEADERS"`
	Logger           utils.Logger      `env:"-"`
}

func LoadConfig() (*Config, error) {
	cfg := &Config{
		ExtraHeaders: make(map[string]string),
	}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

type ConfigOption func(*Config)

func NewConfig() *Config {
	return &Config{
		Provider:         "ollama",
		Endpoint:         "http://localhost:11434",
		Model:            DefaultCheckpoint,
		Precision:        "fp16",
		Device:           "auto",
		Temperature:      0.7,
		TopP:             0.9,
		MaxNewTokens:     150,
		DoSample:         true,
		ContextWindow:    8192,
		Timeout:          300 * time.Second,
		LoadTimeout:      15 * time.Minute,
		ReadyInterval:    2 * time.Second,
		KeepAlive:        30 * time.Minute,
		KeepWarmInterval: 4 * time.Minute,
		DefaultCharacter: "georgian-gentleman",
		ListenAddr:       ":8000",
		LogLevel:         utils.LogLevelInfo,
		ExtraHeaders:     make(map[string]string),
	}
}

func SetProvider(provider string) ConfigOption {
	return func(c *Config) {
		c.Provider = provider
	}
}

func SetEndpoint(endpoint string) ConfigOption {
	return func(c *Config) {
		c.Endpoint = endpoint
	}
}

func SetAPIKey(apiKey string) ConfigOption {
	return func(c *Config) {
		c.APIKey = apiKey
	}
}

func SetModel(model string) ConfigOption {
	return func(c *Config) {
		c.Model = model
	}
}

func SetDevice(device string) ConfigOption {
	return func(c *Config) {
		c.Device = device
	}
}

func SetTemperature(temperature float64) ConfigOption {
	return func(c *Config) {
		c.Temperature = temperature
	}
}

func SetTopP(topP float64) ConfigOption {
	return func(c *Config) {
		c.TopP = topP
	}
}

func SetMaxNewTokens(maxNewTokens int) ConfigOption {
	return func(c *Config) {
		if maxNewTokens < 1 {
			maxNewTokens = 1
		}
		c.MaxNewTokens = maxNewTokens
	}
}

func SetTimeout(timeout time.Duration) ConfigOption {
	return func(c *Config) {
		c.Timeout = timeout
	}
}

func SetLoadTimeout(timeout time.Duration) ConfigOption {
	return func(c *Config) {
		c.LoadTimeout = timeout
	}
}

func SetReadyInterval(interval time.Duration) ConfigOption {
	return func(c *Config) {
		c.ReadyInterval = interval
	}
}

func SetKeepWarmInterval(interval time.Duration) ConfigOption {
	return func(c *Config) {
		c.KeepWarmInterval = interval
	}
}

func SetDefaultCharacter(id string) ConfigOption {
	return func(c *Config) {
		c.DefaultCharacter = id
	}
}

func SetLiteraryContext(enabled bool) ConfigOption {
	return func(c *Config) {
		c.LiteraryContext = enabled
	}
}

func SetListenAddr(addr string) ConfigOption {
	return func(c *Config) {
		c.ListenAddr = addr
	}
}

func SetOTLPEndpoint(endpoint string) ConfigOption {
	return func(c *Config) {
		c.OTLPEndpoint = endpoint
	}
}

func SetLogLevel(level utils.LogLevel) ConfigOption {
	return func(c *Config) {
		c.LogLevel = level
	}
}

// SetLogger replaces the slog-backed default logger.
func SetLogger(logger utils.Logger) ConfigOption {
	return func(c *Config) {
		c.Logger = logger
	}
}

func SetExtraHeaders(headers map[string]string) ConfigOption {
	return func(c *Config) {
		if c.ExtraHeaders == nil {
			c.ExtraHeaders = make(map[string]string)
		}
		for k, v := range headers {
			c.ExtraHeaders[k] = v
		}
	}
}

func ApplyOptions(cfg *Config, options ...ConfigOption) {
	for _, option := range options {
		option(cfg)
	}
}

// GetLogger returns the configured logger, creating the default one on first use.
func (c *Config) GetLogger() utils.Logger {
	if c.Logger == nil {
		c.Logger = utils.NewLogger(c.LogLevel)
	}
	return c.Logger
}
