package appcore

import (
	"fmt"
	"net/url"
	"slices"

	"github.com/lllypuk/statuswatch/internal/domain/errs"
)

// Ограничения полей приложения
const (
	MaxNameLength        = 200
	MaxDescriptionLength = 2000
)

// ValidationError describes one rejected input field.
// It matches errs.ErrInvalidInput with errors.Is.
type ValidationError struct {
	Field   string
	Message string
}

// NewValidationError creates a ValidationError
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return errs.ErrInvalidInput }

// ValidateRequired rejects an empty value.
func ValidateRequired(field, value string) error {
	if value == "" {
		return NewValidationError(field, "is required")
	}
	return nil
}

// ValidateMaxLength counts bytes, not runes.
func ValidateMaxLength(field, value string, maxLength int) error {
	if len(value) <= maxLength {
		return nil
	}
	return NewValidationError(field, fmt.Sprintf("must be at most %d characters", maxLength))
}

// ValidateEnum проверяет, что значение входит в список
func ValidateEnum(field, value string, allowed []string) error {
	if !slices.Contains(allowed, value) {
		return NewValidationError(field, fmt.Sprintf("must be one of %v", allowed))
	}
	return nil
}

// ValidateHTTPURL accepts only absolute http and https URLs.
func ValidateHTTPURL(field, value string) error {
	if err := ValidateRequired(field, value); err != nil {
		return err
	}
	u, err := url.Parse(value)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return NewValidationError(field, "must be an absolute http(s) URL")
	}
	return nil
}

// ValidateRange checks min <= value <= max.
func ValidateRange(field string, value, minValue, maxValue int) error {
	if value >= minValue && value <= maxValue {
		return nil
	}
	return NewValidationError(field, fmt.Sprintf("must be between %d and %d", minValue, maxValue))
}
