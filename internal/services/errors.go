package services

import "fmt"

// ValidationError carries per-field messages for a 400 response.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string { return "Validation error" }

type NotFoundError struct{ Message string }

func (e *NotFoundError) Error() string { return e.Message }

// GenerationFormatError marks a provider response that was not valid
// JSON or did not contain a flashcards array. It never leaves the
// service directly; callers see a GenerationFailedError.
type GenerationFormatError struct{ Detail string }

func (e *GenerationFormatError) Error() string {
	return fmt.Sprintf("invalid response format from Gemini: %s", e.Detail)
}

// GenerationFailedError is the uniform user-facing generation failure.
// The underlying cause is logged server-side only.
type GenerationFailedError struct{ Message string }

func (e *GenerationFailedError) Error() string { return e.Message }

type NoCardsGeneratedError struct{}

func (e *NoCardsGeneratedError) Error() string {
	return "No additional flashcards could be generated"
}

type ConfigurationError struct{ Message string }

func (e *ConfigurationError) Error() string { return e.Message }
