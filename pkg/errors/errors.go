package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// ErrorTypeNetwork represents page or icon fetch errors
	ErrorTypeNetwork ErrorType = "network"
	// ErrorTypeMarkup represents listing markup missing an expected element
	ErrorTypeMarkup ErrorType = "markup"
	// ErrorTypeDatabase represents store errors
	ErrorTypeDatabase ErrorType = "database"
	// ErrorTypeValidation represents scraped values that cannot be stored
	ErrorTypeValidation ErrorType = "validation"
	// ErrorTypeConfiguration represents configuration errors
	ErrorTypeConfiguration ErrorType = "configuration"
)

// ScrapeError represents an error raised while scraping or reconciling a city
type ScrapeError struct {
	Type    ErrorType
	City    string
	Message string
	Err     error
	Time    time.Time
}

// Error implements the error interface
func (e *ScrapeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %s - %v", e.Type, e.City, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Type, e.City, e.Message)
}

// Unwrap returns the underlying error
func (e *ScrapeError) Unwrap() error {
	return e.Err
}

// Skippable reports whether the error only affects the item it was raised for.
func (e *ScrapeError) Skippable() bool {
	switch e.Type {
	case ErrorTypeMarkup, ErrorTypeValidation:
		return true
	default:
		return false
	}
}

// New creates a new ScrapeError
func New(errType ErrorType, city, message string, err error) *ScrapeError {
	return &ScrapeError{
		Type:    errType,
		City:    city,
		Message: message,
		Err:     err,
		Time:    time.Now(),
	}
}

// NewNetwork creates a new network error
func NewNetwork(city, message string, err error) *ScrapeError {
	return New(ErrorTypeNetwork, city, message, err)
}

// NewMarkup creates a new markup error
func NewMarkup(city, message string) *ScrapeError {
	return New(ErrorTypeMarkup, city, message, nil)
}

// NewDatabase creates a new database error
func NewDatabase(city, message string, err error) *ScrapeError {
	return New(ErrorTypeDatabase, city, message, err)
}

// NewValidation creates a new validation error
func NewValidation(city, message string) *ScrapeError {
	return New(ErrorTypeValidation, city, message, nil)
}

// NewConfiguration creates a new configuration error
func NewConfiguration(message string, err error) *ScrapeError {
	return New(ErrorTypeConfiguration, "", message, err)
}

// TypeOf returns the type of the first ScrapeError in err's chain, or "" if none.
func TypeOf(err error) ErrorType {
	var se *ScrapeError
	if stderrors.As(err, &se) {
		return se.Type
	}
	return ""
}

// IsSkippable reports whether err carries a ScrapeError that only affects one item.
func IsSkippable(err error) bool {
	var se *ScrapeError
	return stderrors.As(err, &se) && se.Skippable()
}

// Is reports whether err carries a ScrapeError of the given type.
func Is(err error, errType ErrorType) bool {
	return TypeOf(err) == errType
}
