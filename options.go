package easyrequester

import (
	"fmt"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// WithAdmissionMode selects how concurrent requests are admitted
func WithAdmissionMode(mode AdmissionMode) Option {
	return func(c *Client) {
		c.admissionMode = mode
	}
}

// WithAcceptedStatusCodes adds status codes to the accepted set. The
// baseline 200-206 is always accepted.
func WithAcceptedStatusCodes(codes ...int) Option {
	return func(c *Client) {
		c.acceptedCodes = append(c.acceptedCodes, codes...)
	}
}

// WithTimeout sets the request timeout
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
		if c.httpClient != nil {
			c.httpClient.Timeout = d
		}
	}
}

// WithHTTPClient sets a custom HTTP client for the default transport
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
		if c.httpClient != nil && c.timeout != 0 {
			c.httpClient.Timeout = c.timeout
		}
	}
}

// WithTransport replaces the default net/http transport entirely.
// WithHTTPClient, WithMiddleware and WithCookieJar have no effect with a
// custom transport.
func WithTransport(t Transport) Option {
	return func(c *Client) {
		c.transport = t
		c.customTransport = true
	}
}

// WithMiddleware adds middleware to the default transport
func WithMiddleware(middleware ...Middleware) Option {
	return func(c *Client) {
		c.middleware = append(c.middleware, middleware...)
	}
}

// WithCookieJar sets the jar used by requests configured with
// IncludeCookies.
func WithCookieJar(jar http.CookieJar) Option {
	return func(c *Client) {
		c.cookieJar = jar
	}
}

// WithRateLimit makes every request wait for a token before the transport
// call. Waiting honours cancellation and supersession.
func WithRateLimit(limit rate.Limit, burst int) Option {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(limit, burst)
	}
}

// WithMetrics enables Prometheus metrics collection
func WithMetrics() Option {
	return func(c *Client) {
		c.metrics = NewMetricsCollector()
	}
}

// WithMetricsCollector sets a custom metrics collector
func WithMetricsCollector(collector *MetricsCollector) Option {
	return func(c *Client) {
		c.metrics = collector
	}
}

// WithDebug enables debug logging with default configuration. A console
// logger is installed unless one was already set.
func WithDebug() Option {
	return func(c *Client) {
		if c.debug == nil {
			c.debug = DefaultDebugConfig()
		}
		c.debug.Enabled = true
		if c.logger == nil {
			c.logger = NewSimpleLogger()
		}
	}
}

// WithDebugConfig sets custom debug configuration
func WithDebugConfig(config *DebugConfig) Option {
	return func(c *Client) {
		c.debug = config
	}
}

// WithLogger sets a custom logger for debug output
func WithLogger(logger Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithSimpleLogger enables debug logging with a simple console logger
func WithSimpleLogger() Option {
	return func(c *Client) {
		if c.debug == nil {
			c.debug = DefaultDebugConfig()
		}
		c.debug.Enabled = true
		c.logger = NewSimpleLogger()
	}
}

// WithRequestIDGenerator sets a custom function for generating request IDs
func WithRequestIDGenerator(gen func() string) Option {
	return func(c *Client) {
		if c.debug == nil {
			c.debug = DefaultDebugConfig()
		}
		c.debug.RequestIDGen = gen
	}
}

// ValidateConfiguration validates the client configuration and returns an error if invalid
func (c *Client) ValidateConfiguration() error {
	var errors []string

	errors = append(errors, c.validateAdmissionConfig()...)
	errors = append(errors, c.validateStatusCodes()...)
	errors = append(errors, c.validateTransportConfig()...)
	errors = append(errors, c.validateDebugConfig()...)
	errors = append(errors, c.validateRateLimitConfig()...)
	errors = append(errors, c.validateMiddlewareConfig()...)

	if len(errors) > 0 {
		return &ClientError{
			Type:    ErrorTypeValidation,
			Message: "configuration validation failed",
			Cause:   fmt.Errorf("validation errors: %v", errors),
		}
	}

	return nil
}

func (c *Client) validateAdmissionConfig() []string {
	var errors []string

	if c.admissionMode != EnqueueNew && c.admissionMode != AbortPrevious {
		errors = append(errors, fmt.Sprintf("unknown admission mode %d", c.admissionMode))
	}

	return errors
}

func (c *Client) validateStatusCodes() []string {
	var errors []string

	for _, code := range c.acceptedCodes {
		if code < 100 || code > 599 {
			errors = append(errors, fmt.Sprintf("accepted status code %d is outside 100-599", code))
		}
	}

	return errors
}

func (c *Client) validateTransportConfig() []string {
	var errors []string

	if c.customTransport {
		if c.transport == nil {
			errors = append(errors, "transport cannot be nil")
		}
		return errors
	}

	if c.httpClient == nil {
		errors = append(errors, "HTTP client cannot be nil")
	}
	if c.timeout <= 0 {
		errors = append(errors, "timeout must be positive")
	}
	if c.timeout > 10*time.Minute {
		errors = append(errors, "timeout > 10m may cause requests to hang for too long")
	}

	return errors
}

func (c *Client) validateDebugConfig() []string {
	var errors []string

	if c.debug != nil && c.debug.Enabled && c.logger == nil {
		errors = append(errors, "logger must be set when debug is enabled")
	}
	if c.debug != nil && c.debug.PropagateRequestID && c.debug.RequestIDGen == nil {
		errors = append(errors, "debug RequestIDGen must be set when request IDs are propagated")
	}

	return errors
}

func (c *Client) validateRateLimitConfig() []string {
	var errors []string

	if c.limiter != nil {
		if c.limiter.Limit() <= 0 {
			errors = append(errors, "rate limit must be positive")
		}
		if c.limiter.Burst() <= 0 && c.limiter.Limit() != rate.Inf {
			errors = append(errors, "rate limit burst must be positive")
		}
	}

	return errors
}

func (c *Client) validateMiddlewareConfig() []string {
	var errors []string

	for i, middleware := range c.middleware {
		if middleware == nil {
			errors = append(errors, fmt.Sprintf("middleware[%d] cannot be nil", i))
		}
	}

	return errors
}
