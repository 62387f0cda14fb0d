package errors

import (
	"fmt"
	"time"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// ErrorTypeNavigation represents page load and document readiness errors
	ErrorTypeNavigation ErrorType = "navigation"
	// ErrorTypeHeaderNotFound represents a profile page without a resolvable user header
	ErrorTypeHeaderNotFound ErrorType = "header_not_found"
	// ErrorTypeSession represents browser session errors
	ErrorTypeSession ErrorType = "session"
	// ErrorTypeStorage represents snapshot store errors
	ErrorTypeStorage ErrorType = "storage"
	// ErrorTypePublisher represents publisher-related errors
	ErrorTypePublisher ErrorType = "publisher"
	// ErrorTypeModel represents scoring artifact errors
	ErrorTypeModel ErrorType = "model"
	// ErrorTypeConfiguration represents configuration errors
	ErrorTypeConfiguration ErrorType = "configuration"
	// ErrorTypeUnexpected represents anything recovered at the top of an extraction
	ErrorTypeUnexpected ErrorType = "unexpected"
)

// ProfileError represents a monitoring error, optionally bound to one identifier
type ProfileError struct {
	Type       ErrorType
	Identifier string
	Message    string
	Err        error
	Time       time.Time
}

// Error implements the error interface
func (e *ProfileError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %s - %v", e.Type, e.Identifier, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Type, e.Identifier, e.Message)
}

// Unwrap returns the underlying error
func (e *ProfileError) Unwrap() error {
	return e.Err
}

// IsFatal returns true if the error must abort the whole batch
// rather than skip a single identifier
func (e *ProfileError) IsFatal() bool {
	switch e.Type {
	case ErrorTypeSession, ErrorTypeStorage, ErrorTypeConfiguration:
		return true
	default:
		return false
	}
}

// New creates a new ProfileError
func New(errType ErrorType, identifier, message string, err error) *ProfileError {
	return &ProfileError{
		Type:       errType,
		Identifier: identifier,
		Message:    message,
		Err:        err,
		Time:       time.Now(),
	}
}

// NewNavigation creates a new navigation error
func NewNavigation(identifier, message string, err error) *ProfileError {
	return New(ErrorTypeNavigation, identifier, message, err)
}

// NewHeaderNotFound creates a new header-not-found error
func NewHeaderNotFound(identifier string) *ProfileError {
	return New(ErrorTypeHeaderNotFound, identifier, "user header not found", nil)
}

// NewSession creates a new session error
func NewSession(message string, err error) *ProfileError {
	return New(ErrorTypeSession, "", message, err)
}

// NewStorage creates a new storage error
func NewStorage(identifier, message string, err error) *ProfileError {
	return New(ErrorTypeStorage, identifier, message, err)
}

// NewPublisher creates a new publisher error
func NewPublisher(identifier, message string, err error) *ProfileError {
	return New(ErrorTypePublisher, identifier, message, err)
}

// NewModel creates a new scoring artifact error
func NewModel(message string, err error) *ProfileError {
	return New(ErrorTypeModel, "", message, err)
}

// NewConfiguration creates a new configuration error
func NewConfiguration(message string, err error) *ProfileError {
	return New(ErrorTypeConfiguration, "", message, err)
}

// NewUnexpected creates a new unexpected error
func NewUnexpected(identifier, message string, err error) *ProfileError {
	return New(ErrorTypeUnexpected, identifier, message, err)
}
