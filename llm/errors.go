package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/teilomillet/georgianchat/providers"
	"github.com/teilomillet/georgianchat/utils"
)

// ErrorType represents the type of an error
type ErrorType int

const (
	ErrorTypeUnknown ErrorType = iota
	ErrorTypeLoad
	ErrorTypeGeneration
	ErrorTypeTimeout
	ErrorTypeRequest
	ErrorTypeResponse
	ErrorTypeAPI
	ErrorTypeInvalidInput
)

// LLMError represents an error in the LLM package
type LLMError struct {
	Type    ErrorType
	Message string
	Err     error
}

func (e *LLMError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s (%s): %v", e.TypeString(), e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.TypeString(), e.Message)
}

func (e *LLMError) Unwrap() error {
	return e.Err
}

func (e *LLMError) TypeString() string {
	switch e.Type {
	case ErrorTypeLoad:
		return "LoadError"
	case ErrorTypeGeneration:
		return "GenerationError"
	case ErrorTypeTimeout:
		return "TimeoutError"
	case ErrorTypeRequest:
		return "RequestError"
	case ErrorTypeResponse:
		return "ResponseError"
	case ErrorTypeAPI:
		return "APIError"
	case ErrorTypeInvalidInput:
		return "InvalidInputError"
	default:
		return "UnknownError"
	}
}

// LoggableFields returns key/value pairs for structured logging.
func (e *LLMError) LoggableFields() []any {
	var cause any
	if e.Err != nil {
		cause = e.Err.Error()
	}
	return []any{"error_type", e.TypeString(), "message", e.Message, "cause", cause}
}

// NewLLMError creates a new LLMError
func NewLLMError(errType ErrorType, message string, err error) *LLMError {
	return &LLMError{
		Type:    errType,
		Message: message,
		Err:     err,
	}
}

// ErrorTypeOf returns the type of the first LLMError in err's chain.
func ErrorTypeOf(err error) ErrorType {
	var llmErr *LLMError
	if errors.As(err, &llmErr) {
		return llmErr.Type
	}
	return ErrorTypeUnknown
}

// classify wraps a failure from stage with the type callers branch on.
// Deadlines win over the stage type so timeouts are reported as such. During
// generation a 4xx from the backend is a request error, any other status is an
// API error and an undecodable body is a response error.
func classify(stage ErrorType, message string, err error) *LLMError {
	var llmErr *LLMError
	if errors.As(err, &llmErr) {
		return llmErr
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return NewLLMError(ErrorTypeTimeout, message, err)
	}
	if stage != ErrorTypeGeneration {
		return NewLLMError(stage, message, err)
	}

	var statusErr *providers.StatusError
	if errors.As(err, &statusErr) {
		if statusErr.StatusCode >= 400 && statusErr.StatusCode < 500 {
			return NewLLMError(ErrorTypeRequest, message, err)
		}
		return NewLLMError(ErrorTypeAPI, message, err)
	}
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return NewLLMError(ErrorTypeResponse, message, err)
	}
	return NewLLMError(stage, message, err)
}

// HandleError logs err and panics when fatal is set.
func HandleError(err error, fatal bool, logger utils.Logger) {
	var llmErr *LLMError
	if errors.As(err, &llmErr) {
		logger.Error(llmErr.Message, llmErr.LoggableFields()...)
	} else {
		logger.Error("An error occurred", "error", err)
	}
	if fatal {
		panic(err)
	}
}
