// Package georgianchat serves historical persona conversations on top of a
// Mistral instruction-tuned model. This file re-exports configuration types
// and functions so callers can configure a Service from a single import.
package georgianchat

import (
	"github.com/teilomillet/georgianchat/config"
	"github.com/teilomillet/georgianchat/llm"
	"github.com/teilomillet/georgianchat/persona"
	"github.com/teilomillet/georgianchat/utils"
)

// Re-export core types for easier access
type (
	// Config holds backend, sampling and runtime settings. See config.Config
	// for the environment variable behind each field.
	//
	// Example usage:
	//   cfg := NewConfig()
	//   ApplyOptions(cfg, SetProvider("tgi"), SetEndpoint("http://gpu-box:8080"))
	Config = config.Config

	// ConfigOption modifies a Config in place.
	ConfigOption = config.ConfigOption

	// Manifest declares GPU, timeout and warm-instance requirements.
	Manifest = config.Manifest

	// LogLevel defines the verbosity of logging output.
	LogLevel = utils.LogLevel

	// Message is one conversation turn.
	Message = llm.Message

	// GenerationResult is what one invocation returns to the caller.
	GenerationResult = llm.GenerationResult

	// Character is one of the fixed personas.
	Character = persona.Character
)

// Conversation roles
const (
	RoleSystem    = llm.RoleSystem
	RoleUser      = llm.RoleUser
	RoleAssistant = llm.RoleAssistant
)

// Log levels
const (
	LogLevelOff   = utils.LogLevelOff
	LogLevelError = utils.LogLevelError
	LogLevelWarn  = utils.LogLevelWarn
	LogLevelInfo  = utils.LogLevelInfo
	LogLevelDebug = utils.LogLevelDebug
)

// Re-export core configuration functions
var (
	// LoadConfig reads GEORGIANCHAT_* environment variables over the defaults.
	//
	// Example usage:
	//   cfg, err := LoadConfig()
	//   if err != nil {
	//       log.Fatal(err)
	//   }
	LoadConfig = config.LoadConfig

	// NewConfig returns the defaults without reading the environment.
	NewConfig = config.NewConfig

	// ApplyOptions applies ConfigOption functions in order.
	ApplyOptions = config.ApplyOptions

	// LoadManifest reads a deployment manifest, falling back to defaults.
	LoadManifest = config.LoadManifest

	// DefaultManifest returns the built-in deployment manifest.
	DefaultManifest = config.DefaultManifest
)

// Re-export ConfigOption functions for configuration modification.
var (
	// Backend
	SetProvider     = config.SetProvider // Sets the inference backend ("ollama", "tgi", "mock")
	SetEndpoint     = config.SetEndpoint // Sets the backend base URL
	SetAPIKey       = config.SetAPIKey   // Sets the bearer token sent to TGI
	SetModel        = config.SetModel    // Sets the hub checkpoint id
	SetDevice       = config.SetDevice   // Sets the device preference ("auto", "cuda", "metal", "cpu")
	SetTimeout      = config.SetTimeout  // Bounds one invocation
	SetLogLevel     = config.SetLogLevel // Sets the logging verbosity
	SetLogger       = config.SetLogger   // Replaces the default slog logger
	SetExtraHeaders = config.SetExtraHeaders

	// Decoding
	SetTemperature  = config.SetTemperature
	SetTopP         = config.SetTopP
	SetMaxNewTokens = config.SetMaxNewTokens

	// Personas
	SetDefaultCharacter = config.SetDefaultCharacter // Character used for empty or unknown ids
	SetLiteraryContext  = config.SetLiteraryContext  // Adds Dickens works to Mr. Boz's prompt

	// Runtime
	SetLoadTimeout      = config.SetLoadTimeout
	SetReadyInterval    = config.SetReadyInterval
	SetKeepWarmInterval = config.SetKeepWarmInterval
	SetListenAddr       = config.SetListenAddr
	SetOTLPEndpoint     = config.SetOTLPEndpoint
)
