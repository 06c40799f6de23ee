package errors

import (
	"fmt"
	"time"
)

// ErrorType represents the category of error
type ErrorType string

const (
	// ErrorTypeConfig represents configuration errors (fatal at construction)
	ErrorTypeConfig ErrorType = "config"
	// ErrorTypeGraph represents graph store errors
	ErrorTypeGraph ErrorType = "graph"
	// ErrorTypeCache represents cache layer errors
	ErrorTypeCache ErrorType = "cache"
	// ErrorTypeMemory represents memory backend errors
	ErrorTypeMemory ErrorType = "memory"
	// ErrorTypeLLM represents LLM adapter errors
	ErrorTypeLLM ErrorType = "llm"
)

// BaseError is the base error type with common fields
type BaseError struct {
	Type      ErrorType
	Message   string
	Timestamp time.Time
	Err       error
}

// Error implements the error interface
func (e *BaseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap returns the wrapped error for error unwrapping
func (e *BaseError) Unwrap() error {
	return e.Err
}

// NewBaseError creates a new base error
func NewBaseError(errType ErrorType, message string, err error) *BaseError {
	return &BaseError{
		Type:      errType,
		Message:   message,
		Timestamp: time.Now(),
		Err:       err,
	}
}

// Config errors

// ErrConfigMissingRequired is returned when a required config value is missing
type ErrConfigMissingRequired struct {
	*BaseError
	Field string
}

func NewConfigMissingRequired(field string) *ErrConfigMissingRequired {
	return &ErrConfigMissingRequired{
		BaseError: NewBaseError(ErrorTypeConfig, fmt.Sprintf("missing required config: %s", field), nil),
		Field:     field,
	}
}

// ErrUnsupportedProvider is returned when a provider selector names an unknown backend
type ErrUnsupportedProvider struct {
	*BaseError
	Provider string
}

func NewUnsupportedProvider(provider string) *ErrUnsupportedProvider {
	return &ErrUnsupportedProvider{
		BaseError: NewBaseError(ErrorTypeConfig, fmt.Sprintf("unsupported graph provider: %s", provider), nil),
		Provider:  provider,
	}
}

// Graph errors

// ErrGraphConnectionFailed is returned when the graph engine cannot be opened
type ErrGraphConnectionFailed struct {
	*BaseError
	Target string
}

func NewGraphConnectionFailed(target string, err error) *ErrGraphConnectionFailed {
	return &ErrGraphConnectionFailed{
		BaseError: NewBaseError(ErrorTypeGraph, fmt.Sprintf("failed to open graph store: %s", target), err),
		Target:    target,
	}
}

// ErrGraphQueryFailed is returned when a single graph read or write fails
type ErrGraphQueryFailed struct {
	*BaseError
	Operation string
}

func NewGraphQueryFailed(operation string, err error) *ErrGraphQueryFailed {
	return &ErrGraphQueryFailed{
		BaseError: NewBaseError(ErrorTypeGraph, fmt.Sprintf("graph operation failed: %s", operation), err),
		Operation: operation,
	}
}

// Cache errors

// ErrCacheStoreFailed is returned when the durable cache tier cannot be opened or written
type ErrCacheStoreFailed struct {
	*BaseError
	Path string
}

func NewCacheStoreFailed(path string, err error) *ErrCacheStoreFailed {
	return &ErrCacheStoreFailed{
		BaseError: NewBaseError(ErrorTypeCache, fmt.Sprintf("cache store failure: %s", path), err),
		Path:      path,
	}
}

// Memory errors

// ErrMemoryStoreFailed is returned when a memory backend cannot be opened or written
type ErrMemoryStoreFailed struct {
	*BaseError
	Operation string
}

func NewMemoryStoreFailed(operation string, err error) *ErrMemoryStoreFailed {
	return &ErrMemoryStoreFailed{
		BaseError: NewBaseError(ErrorTypeMemory, fmt.Sprintf("memory backend failure: %s", operation), err),
		Operation: operation,
	}
}

// LLM errors

// ErrLLMRequestFailed is returned when the chat completion request fails
type ErrLLMRequestFailed struct {
	*BaseError
	Model    string
	Attempts int
}

func NewLLMRequestFailed(model string, attempts int, err error) *ErrLLMRequestFailed {
	return &ErrLLMRequestFailed{
		BaseError: NewBaseError(ErrorTypeLLM, fmt.Sprintf("LLM request failed after %d attempts", attempts), err),
		Model:     model,
		Attempts:  attempts,
	}
}

// ErrLLMEmptyResponse is returned when the completion carries no content
var ErrLLMEmptyResponse = NewBaseError(ErrorTypeLLM, "no content in LLM response", nil)

// IsErrorType checks if an error is of a specific type
func IsErrorType(err error, errType ErrorType) bool {
	if baseErr, ok := err.(*BaseError); ok {
		return baseErr.Type == errType
	}
	if wrapped, ok := err.(interface{ Unwrap() error }); ok {
		if inner := wrapped.Unwrap(); inner != nil {
			return IsErrorType(inner, errType)
		}
	}
	return false
}
