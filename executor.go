package easyrequester

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/caganseyrek/EasyRequester/internal/supersede"
)

// preparedRequest is the assembled, immutable form of one Send call.
type preparedRequest struct {
	method      string
	url         string
	header      http.Header
	body        []byte
	credentials CredentialsMode
	endpoint    string
	requestID   string
	submitted   time.Time
}

// prepare validates and assembles spec and serializes payload. All errors
// returned here are configuration errors raised before admission.
func (c *Client) prepare(spec RequestSpec, payload any) (*preparedRequest, error) {
	var requestID string
	if c.debug.RequestIDGen != nil && (c.debug.Enabled || c.debug.PropagateRequestID) {
		requestID = c.debug.RequestIDGen()
	}

	fail := func(err error) (*preparedRequest, error) {
		var clientErr *ClientError
		if errors.As(err, &clientErr) {
			clientErr.RequestID = requestID
			clientErr.Method = spec.Method
		}
		c.metrics.RecordError(ErrorTypeConfig, spec.Method, "unknown")
		if c.debugOn(true) {
			c.logger.Error("Request configuration rejected", "op", "prepare", "requestID", requestID, "error", err.Error())
		}
		return nil, err
	}

	if err := ValidateRequestSpec(spec); err != nil {
		return fail(err)
	}

	u, err := AssembleURL(spec.URL)
	if err != nil {
		return fail(err)
	}
	header := AssembleHeaders(spec.Header, spec.Auth)
	if c.debug.PropagateRequestID && requestID != "" {
		header.Set(HeaderRequestID, requestID)
	}

	if c.debugOn(c.debug.LogAssembly) {
		c.logger.Debug("Generated request URL", "op", "assembleURL", "requestID", requestID, "url", u)
		c.logger.Debug("Generated headers", "op", "assembleHeaders", "requestID", requestID, "headers", redactHeaders(header))
	}

	body, err := encodePayload(spec.Method, payload)
	if err != nil {
		return fail(configError(fmt.Sprintf("cannot encode %T payload", payload), fmt.Errorf("%w: %v", ErrPayloadEncoding, err)))
	}

	credentials := CredentialsSameOrigin
	if spec.Auth.IncludeCookies {
		credentials = CredentialsInclude
	}

	return &preparedRequest{
		method:      spec.Method,
		url:         u,
		header:      header,
		body:        body,
		credentials: credentials,
		endpoint:    endpointLabel(u),
		requestID:   requestID,
		submitted:   time.Now(),
	}, nil
}

// encodePayload omits the body for GET and HEAD regardless of payload.
// []byte and json.RawMessage payloads are sent verbatim; anything else is
// JSON encoded. A nil payload sends no body.
func encodePayload(method string, payload any) ([]byte, error) {
	if method == http.MethodGet || method == http.MethodHead || payload == nil {
		return nil, nil
	}
	switch v := payload.(type) {
	case json.RawMessage:
		return v, nil
	case []byte:
		return v, nil
	}
	return json.Marshal(payload)
}

// admit routes p according to the admission mode and waits for its outcome.
func (c *Client) admit(ctx context.Context, p *preparedRequest) *Outcome {
	if c.admissionMode == AbortPrevious {
		return c.execute(ctx, p)
	}

	pending := c.queue.Enqueue(func() (*Outcome, error) {
		return c.execute(ctx, p), nil
	})
	if c.debugOn(c.debug.LogQueue) {
		c.logger.Debug("Request enqueued", "op", "enqueue", "requestID", p.requestID, "queued", c.queue.Len())
	}

	out, err := pending.Wait(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return c.contextDone(ctx, p)
		}
		return failureOutcome(OutcomeTransportFailure, c.newError(ErrorTypeTransport, "request unit failed", err, p, 0))
	}
	return out
}

// contextDone settles p after its context ended before the transport call.
// Only cancellation counts as Cancelled; an expired deadline is a transport
// failure wherever it fires.
func (c *Client) contextDone(ctx context.Context, p *preparedRequest) *Outcome {
	if errors.Is(ctx.Err(), context.Canceled) {
		return c.cancelled(ctx, p, nil)
	}
	return failureOutcome(OutcomeTransportFailure, c.newError(ErrorTypeTransport, "request deadline exceeded", ctx.Err(), p, time.Since(p.submitted)))
}

// execute runs one request to a terminal outcome. In AbortPrevious mode
// the tracker entry for p.url is released before execute returns, on every
// path.
func (c *Client) execute(ctx context.Context, p *preparedRequest) (out *Outcome) {
	start := time.Now()
	if c.admissionMode == EnqueueNew {
		c.metrics.RecordQueueWait(p.method, p.endpoint, start.Sub(p.submitted))
	}

	defer func() {
		statusCode := out.StatusCode
		c.metrics.RecordRequest(p.method, p.endpoint, out.Kind, statusCode, time.Since(start))
		if out.Err != nil {
			c.metrics.RecordError(out.Err.Type, p.method, p.endpoint)
		}
		if c.debugOn(c.debug.LogRequests) {
			c.logger.Info("Request settled", "op", "execute", "requestID", p.requestID, "outcome", out.Kind.String(), "statusCode", statusCode, "duration", time.Since(start))
		}
	}()

	if ctx.Err() != nil {
		return c.contextDone(ctx, p)
	}

	if c.admissionMode == AbortPrevious {
		var h *supersede.Handle
		ctx, h = c.tracker.Register(ctx, p.url)
		if c.debugOn(c.debug.LogSupersession) {
			c.logger.Debug("Abort controller set up", "op", "register", "requestID", p.requestID, "url", p.url)
		}
		defer func() {
			c.tracker.ReleaseOwned(p.url, h)
			c.metrics.RecordTrackerEntries("default", c.tracker.Len())
		}()
		c.metrics.RecordTrackerEntries("default", c.tracker.Len())
	}

	c.metrics.RecordRequestStart(p.method, p.endpoint)
	defer c.metrics.RecordRequestEnd(p.method, p.endpoint)

	if c.limiter != nil {
		waitStart := time.Now()
		err := c.limiter.Wait(ctx)
		c.metrics.RecordRateLimitWait(p.endpoint, time.Since(waitStart))
		if err != nil {
			if errors.Is(ctx.Err(), context.Canceled) {
				return c.cancelled(ctx, p, err)
			}
			return failureOutcome(OutcomeTransportFailure, c.newError(ErrorTypeRateLimit, "rate limit wait failed", fmt.Errorf("%w: %v", ErrRateLimited, err), p, time.Since(start)))
		}
	}

	if c.debugOn(c.debug.LogRequests) {
		c.logger.Debug("Sending request", "op", "execute", "requestID", p.requestID, "method", p.method, "url", p.url, "hasBody", p.body != nil)
	}

	resp, err := c.transport.Perform(ctx, &TransportRequest{
		URL:         p.url,
		Method:      p.method,
		Header:      p.header.Clone(),
		Body:        p.body,
		Credentials: p.credentials,
	})

	return c.classify(ctx, p, resp, err, start)
}

// classify turns a transport result into an Outcome.
func (c *Client) classify(ctx context.Context, p *preparedRequest, resp *TransportResponse, err error, start time.Time) *Outcome {
	if err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			return c.cancelled(ctx, p, err)
		}
		if c.debugOn(true) {
			c.logger.Error("An error occurred during request", "op", "execute", "requestID", p.requestID, "error", err.Error())
		}
		return failureOutcome(OutcomeTransportFailure, c.newError(ErrorTypeTransport, "network request failed", err, p, time.Since(start)))
	}

	// A response that lands after the request was superseded or cancelled
	// is not observable.
	if errors.Is(ctx.Err(), context.Canceled) {
		return c.cancelled(ctx, p, nil)
	}

	if !c.policy.Accepts(resp.StatusCode) {
		if c.debugOn(c.debug.LogRequests) {
			c.logger.Warn("Received a response with an unexpected status code", "op", "execute", "requestID", p.requestID, "statusCode", resp.StatusCode)
		}
		e := c.newError(ErrorTypeRejectedStatus, fmt.Sprintf("status %d is not accepted", resp.StatusCode), ErrRejectedStatus, p, time.Since(start))
		e.StatusCode = resp.StatusCode
		return rejectedOutcome(resp, e)
	}

	if isJSONContentType(resp.ContentType) {
		var decoded any
		if len(bytes.TrimSpace(resp.Body)) > 0 {
			if err := json.Unmarshal(resp.Body, &decoded); err != nil {
				e := c.newError(ErrorTypeDecode, "failed to decode JSON response", err, p, time.Since(start))
				e.StatusCode = resp.StatusCode
				return failureOutcome(OutcomeTransportFailure, e)
			}
		}
		if c.debugOn(c.debug.LogRequests) {
			c.logger.Debug("Resolved response message as JSON", "op", "execute", "requestID", p.requestID)
		}
		return successOutcome(resp, decoded, "", true)
	}

	if c.debugOn(c.debug.LogRequests) {
		c.logger.Debug("Resolved response message as text", "op", "execute", "requestID", p.requestID)
	}
	return successOutcome(resp, nil, string(resp.Body), false)
}

func (c *Client) cancelled(ctx context.Context, p *preparedRequest, err error) *Outcome {
	cause := context.Cause(ctx)
	message := "request cancelled"
	if errors.Is(cause, ErrSuperseded) {
		message = "request superseded by a newer request"
	}
	if cause == nil {
		cause = err
	}
	if c.debugOn(c.debug.LogSupersession) {
		c.logger.Info("Request cancelled", "op", "execute", "requestID", p.requestID, "url", p.url, "cause", fmt.Sprint(cause))
	}
	return failureOutcome(OutcomeCancelled, c.newError(ErrorTypeCancelled, message, cause, p, 0))
}

func (c *Client) newError(errorType, message string, cause error, p *preparedRequest, duration time.Duration) *ClientError {
	return &ClientError{
		Type:      errorType,
		Message:   message,
		Cause:     cause,
		RequestID: p.requestID,
		Method:    p.method,
		URL:       p.url,
		Timestamp: time.Now(),
		Duration:  duration,
	}
}

// redactHeaders masks credentials before logging.
func redactHeaders(h http.Header) http.Header {
	out := h.Clone()
	if out.Get(HeaderAuthorization) != "" {
		out.Set(HeaderAuthorization, "Bearer ***")
	}
	return out
}
