package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"time"
)

// ErrorType classifies a ScrapeError
type ErrorType string

const (
	// ErrorTypeNetwork covers transport failures and 5xx responses
	ErrorTypeNetwork ErrorType = "network"
	// ErrorTypeHTTPStatus covers non-retryable response codes such as 404
	ErrorTypeHTTPStatus ErrorType = "http_status"
	// ErrorTypeParsing covers HTML and charset decoding failures
	ErrorTypeParsing ErrorType = "parsing"
	// ErrorTypeRateLimit is returned while the site is throttling us
	ErrorTypeRateLimit ErrorType = "rate_limit"
	ErrorTypeCache     ErrorType = "cache"
	ErrorTypePublisher ErrorType = "publisher"
	ErrorTypeStorage   ErrorType = "storage"
	// ErrorTypeValidation covers scraped data that cannot be aggregated
	ErrorTypeValidation    ErrorType = "validation"
	ErrorTypeConfiguration ErrorType = "configuration"
)

// ScrapeError is the error type shared by the fetch, scrape and
// persistence layers.
type ScrapeError struct {
	Type    ErrorType
	Source  string
	Message string
	Err     error
	Time    time.Time
}

// Error implements the error interface
func (e *ScrapeError) Error() string {
	if e.Source == "" {
		if e.Err != nil {
			return fmt.Sprintf("[%s] %s - %v", e.Type, e.Message, e.Err)
		}
		return fmt.Sprintf("[%s] %s", e.Type, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %s - %v", e.Type, e.Source, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Type, e.Source, e.Message)
}

// Unwrap returns the underlying error
func (e *ScrapeError) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether repeating the operation may succeed.
func (e *ScrapeError) IsRetryable() bool {
	return e.Type == ErrorTypeNetwork
}

// New creates a new ScrapeError
func New(errType ErrorType, source, message string, err error) *ScrapeError {
	return &ScrapeError{
		Type:    errType,
		Source:  source,
		Message: message,
		Err:     err,
		Time:    time.Now(),
	}
}

// NewNetwork creates a new network error
func NewNetwork(source, message string, err error) *ScrapeError {
	return New(ErrorTypeNetwork, source, message, err)
}

// NewHTTPStatus maps a response code to an error. 5xx responses are
// reported as network errors so they get retried.
func NewHTTPStatus(source string, status int) *ScrapeError {
	message := fmt.Sprintf("unexpected status %d %s", status, http.StatusText(status))
	if status >= http.StatusInternalServerError {
		return New(ErrorTypeNetwork, source, message, nil)
	}
	return New(ErrorTypeHTTPStatus, source, message, nil)
}

// NewParsing creates a new parsing error
func NewParsing(source, message string, err error) *ScrapeError {
	return New(ErrorTypeParsing, source, message, err)
}

// NewRateLimit creates a new rate limit error
func NewRateLimit(source string, duration time.Duration) *ScrapeError {
	message := fmt.Sprintf("rate limited for %v", duration)
	return New(ErrorTypeRateLimit, source, message, nil)
}

// NewCache creates a new cache error
func NewCache(source, message string, err error) *ScrapeError {
	return New(ErrorTypeCache, source, message, err)
}

// NewPublisher creates a new publisher error
func NewPublisher(source, message string, err error) *ScrapeError {
	return New(ErrorTypePublisher, source, message, err)
}

// NewStorage creates a new storage error
func NewStorage(source, message string, err error) *ScrapeError {
	return New(ErrorTypeStorage, source, message, err)
}

// NewValidation creates a new validation error
func NewValidation(source, message string, err error) *ScrapeError {
	return New(ErrorTypeValidation, source, message, err)
}

// NewConfiguration creates a new configuration error
func NewConfiguration(message string, err error) *ScrapeError {
	return New(ErrorTypeConfiguration, "", message, err)
}

// IsType reports whether any ScrapeError in err's chain has the given type.
func IsType(err error, errType ErrorType) bool {
	var se *ScrapeError
	for err != nil {
		if !stderrors.As(err, &se) {
			return false
		}
		if se.Type == errType {
			return true
		}
		err = se.Err
	}
	return false
}

// IsRetryable reports whether err wraps a retryable ScrapeError.
func IsRetryable(err error) bool {
	var se *ScrapeError
	if stderrors.As(err, &se) {
		return se.IsRetryable()
	}
	return false
}
