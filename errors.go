package easyrequester

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/caganseyrek/EasyRequester/internal/supersede"
)

// Error types carried in ClientError.Type.
const (
	ErrorTypeConfig         = "ConfigError"
	ErrorTypeValidation     = "ValidationError"
	ErrorTypeRejectedStatus = "RejectedStatus"
	ErrorTypeTransport      = "TransportFailure"
	ErrorTypeCancelled      = "CancellationFailure"
	ErrorTypeRateLimit      = "RateLimit"
	ErrorTypeDecode         = "DecodeError"
)

// Sentinel errors for common failure scenarios
var (
	// ErrInvalidEndpointValue is returned when a mapped endpoint segment is not a string.
	ErrInvalidEndpointValue = errors.New("easyrequester: endpoint value must be a string")

	// ErrInvalidProtocol is returned for protocols other than http and https.
	ErrInvalidProtocol = errors.New("easyrequester: protocol must be http or https")

	// ErrMissingHost is returned when no host is configured.
	ErrMissingHost = errors.New("easyrequester: host is required")

	// ErrInvalidPort is returned for ports outside 0..65535.
	ErrInvalidPort = errors.New("easyrequester: port out of range")

	// ErrMissingEndpoint is returned when no endpoint is configured.
	ErrMissingEndpoint = errors.New("easyrequester: endpoint is required")

	// ErrInvalidMethod is returned for unknown HTTP methods.
	ErrInvalidMethod = errors.New("easyrequester: unsupported method")

	// ErrPayloadEncoding is returned when a payload cannot be serialized.
	ErrPayloadEncoding = errors.New("easyrequester: payload encoding failed")

	// ErrSuperseded is the cause of a request cancelled by a newer request
	// for the same URL.
	ErrSuperseded = supersede.ErrSuperseded

	// ErrRejectedStatus marks a response whose status is not accepted.
	ErrRejectedStatus = errors.New("easyrequester: response status not accepted")

	// ErrRateLimited is returned when the client-side limiter refuses a request.
	ErrRateLimited = errors.New("easyrequester: rate limited")
)

// ClientError is the error carried by failed outcomes and returned for
// configuration problems.
type ClientError struct {
	Type       string
	Message    string
	Cause      error
	RequestID  string
	Method     string
	URL        string
	StatusCode int
	Timestamp  time.Time
	Duration   time.Duration
}

// Error implements error interface.
func (e *ClientError) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := fmt.Sprintf("%s: %s", e.Type, e.Message)
	if e.Cause != nil {
		msg = fmt.Sprintf("%s (%v)", msg, e.Cause)
	}
	if e.RequestID != "" {
		msg = fmt.Sprintf("[%s] %s", e.RequestID, msg)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *ClientError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// Is compares error types for errors.Is.
func (e *ClientError) Is(target error) bool {
	if e == nil {
		return false
	}
	if targetErr, ok := target.(*ClientError); ok {
		return e.Type == targetErr.Type
	}
	return false
}

// DebugInfo renders a multi-line string with diagnostic context.
func (e *ClientError) DebugInfo() string {
	if e == nil {
		return "Error: <nil>"
	}
	info := fmt.Sprintf("Error Type: %s\n", e.Type)
	info += fmt.Sprintf("Message: %s\n", e.Message)
	if e.RequestID != "" {
		info += fmt.Sprintf("Request ID: %s\n", e.RequestID)
	}
	if e.Method != "" {
		info += fmt.Sprintf("Method: %s\n", e.Method)
	}
	if e.URL != "" {
		info += fmt.Sprintf("URL: %s\n", e.URL)
	}
	if e.StatusCode > 0 {
		info += fmt.Sprintf("Status Code: %d\n", e.StatusCode)
	}
	if !e.Timestamp.IsZero() {
		info += fmt.Sprintf("Timestamp: %s\n", e.Timestamp.Format(time.RFC3339))
	}
	if e.Duration > 0 {
		info += fmt.Sprintf("Duration: %v\n", e.Duration)
	}
	if e.Cause != nil {
		info += fmt.Sprintf("Cause: %v\n", e.Cause)
	}
	return info
}

func configError(message string, cause error) *ClientError {
	return &ClientError{Type: ErrorTypeConfig, Message: message, Cause: cause, Timestamp: time.Now()}
}

// IsConfigError reports whether err was raised before any network activity
// because the request configuration was malformed.
func IsConfigError(err error) bool {
	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		return clientErr.Type == ErrorTypeConfig
	}
	return false
}

// IsCancelled reports whether err represents a cancelled request, either
// superseded by a newer request or cancelled by the caller.
func IsCancelled(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrSuperseded) || errors.Is(err, context.Canceled) {
		return true
	}
	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		return clientErr.Type == ErrorTypeCancelled
	}
	return false
}

// IsSuperseded reports whether err was caused by a newer request for the
// same URL.
func IsSuperseded(err error) bool {
	return errors.Is(err, ErrSuperseded)
}
