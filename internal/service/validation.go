package service

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Validation limits.
const (
	MaxTitleLength    = 255
	MaxContentLength  = 100_000
	MaxEmailLength    = 254
	MinPasswordLength = 8
	// MaxPasswordLength is the bcrypt input limit in bytes.
	MaxPasswordLength = 72
)

var emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidationError reports malformed input for a single field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// ValidateArticle checks article title and content.
func ValidateArticle(title, content string) error {
	if strings.TrimSpace(title) == "" {
		return invalid("title", "is required")
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return invalid("title", fmt.Sprintf("must be at most %d characters", MaxTitleLength))
	}
	if !utf8.ValidString(title) || !utf8.ValidString(content) {
		return invalid("content", "must be valid UTF-8")
	}
	if len(content) > MaxContentLength {
		return invalid("content", fmt.Sprintf("must be at most %d bytes", MaxContentLength))
	}
	return nil
}

// ValidateCredentials checks an email and raw password pair for registration.
func ValidateCredentials(email, password string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return invalid("email", "is required")
	}
	if len(email) > MaxEmailLength || !emailRegex.MatchString(email) {
		return invalid("email", "is not a valid email address")
	}
	if len(password) < MinPasswordLength {
		return invalid("password", fmt.Sprintf("must be at least %d characters", MinPasswordLength))
	}
	if len(password) > MaxPasswordLength {
		return invalid("password", fmt.Sprintf("must be at most %d bytes", MaxPasswordLength))
	}
	return nil
}
