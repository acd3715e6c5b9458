package tlguard

import "fmt"

// TranslationError wraps a failure of the opaque translator with the text
// position it happened at.
type TranslationError struct {
	Message string
	NodeID  string // Node being translated, empty for flat calls
	Cause   error
}

func (e *TranslationError) Error() string {
	msg := e.Message
	if e.NodeID != "" {
		msg = fmt.Sprintf("%s (node %s)", msg, e.NodeID)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *TranslationError) Unwrap() error {
	return e.Cause
}

// ProviderError indicates a translation backend failure (API error, rate limit, etc.).
type ProviderError struct {
	Message   string
	Cause     error
	Retryable bool // Whether the operation can be retried
}

func (e *ProviderError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("provider error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("provider error: %s", e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.Cause
}

// CacheError indicates a cache operation failure.
type CacheError struct {
	Message string
	Cause   error
}

func (e *CacheError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("cache error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("cache error: %s", e.Message)
}

func (e *CacheError) Unwrap() error {
	return e.Cause
}

// ProcessorError indicates a content processing failure.
type ProcessorError struct {
	Message     string
	Cause       error
	ContentType string // The type of content that failed to process
}

func (e *ProcessorError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("processor error (%s): %s: %v", e.ContentType, e.Message, e.Cause)
	}
	return fmt.Sprintf("processor error (%s): %s", e.ContentType, e.Message)
}

func (e *ProcessorError) Unwrap() error {
	return e.Cause
}

// GlossaryError reports a glossary source that could not be read.
// It is a warning: whatever entries were parsed are still usable.
type GlossaryError struct {
	Path  string
	Line  int // 1-based line for line-oriented files, 0 otherwise
	Cause error
}

func (e *GlossaryError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("glossary %s:%d: %v", e.Path, e.Line, e.Cause)
	}
	return fmt.Sprintf("glossary %s: %v", e.Path, e.Cause)
}

func (e *GlossaryError) Unwrap() error {
	return e.Cause
}

// ConfigError reports an invalid configuration value.
type ConfigError struct {
	Field   string
	Message string
	Cause   error
}

func (e *ConfigError) Error() string {
	msg := fmt.Sprintf("config error: %s: %s", e.Field, e.Message)
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *ConfigError) Unwrap() error {
	return e.Cause
}

// CountMismatchError indicates the provider returned a different number of translations than expected.
type CountMismatchError struct {
	Expected int
	Got      int
}

func (e *CountMismatchError) Error() string {
	return fmt.Sprintf("translation count mismatch: expected %d, got %d", e.Expected, e.Got)
}
