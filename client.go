package easyrequester

import (
	"context"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/caganseyrek/EasyRequester/internal/queue"
	"github.com/caganseyrek/EasyRequester/internal/supersede"
)

// Client issues configured requests under a fixed admission policy. The
// sequential queue (EnqueueNew) and the supersession tracker
// (AbortPrevious) are owned by the client and shared by every request it
// issues. A Client is safe for concurrent use.
type Client struct {
	admissionMode   AdmissionMode
	acceptedCodes   []int
	httpClient      *http.Client
	timeout         time.Duration
	middleware      []Middleware
	cookieJar       http.CookieJar
	transport       Transport
	customTransport bool
	limiter         *rate.Limiter
	metrics         *MetricsCollector
	debug           *DebugConfig
	logger          Logger
	validationError error

	policy  ClientPolicy
	queue   *queue.Sequential[*Outcome]
	tracker *supersede.Tracker
}

// New constructs a Client using the provided functional options. A best effort
// validation is performed; call IsValid / ValidationError for errors.
func New(options ...Option) *Client {
	client := &Client{
		admissionMode: EnqueueNew,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		timeout:    30 * time.Second,
		middleware: []Middleware{},
		debug:      DefaultDebugConfig(),
	}

	for _, option := range options {
		option(client)
	}
	if client.debug == nil {
		client.debug = DefaultDebugConfig()
	}

	client.policy = ClientPolicy{
		AdmissionMode:       client.admissionMode,
		AcceptedStatusCodes: acceptedSet(client.acceptedCodes),
		Debug:               client.debug != nil && client.debug.Enabled,
	}

	if !client.customTransport {
		client.transport = NewHTTPTransport(client.httpClient, client.cookieJar, client.middleware...)
	}

	client.queue = queue.New[*Outcome]()
	client.queue.OnStart(func(remaining int) {
		client.metrics.RecordQueueDepth("default", remaining)
	})

	client.tracker = supersede.New()
	client.tracker.OnSupersede(func(key string) {
		client.metrics.RecordSupersession(endpointLabel(key))
		if client.debugOn(client.debug.LogSupersession) {
			client.logger.Info("Aborted previous request for URL", "op", "supersede", "url", key)
		}
	})

	if err := client.ValidateConfiguration(); err != nil {
		client.validationError = err
	}

	if client.debugOn(true) {
		client.logger.Info("Client initialized", "op", "new", "admissionMode", client.admissionMode.String(), "acceptedStatusCodes", client.AcceptedStatusCodes())
	}

	return client
}

func acceptedSet(extra []int) map[int]struct{} {
	set := make(map[int]struct{}, len(DefaultAcceptedStatusCodes)+len(extra))
	for _, code := range DefaultAcceptedStatusCodes {
		set[code] = struct{}{}
	}
	for _, code := range extra {
		set[code] = struct{}{}
	}
	return set
}

// Policy returns a copy of the client's immutable policy.
func (c *Client) Policy() ClientPolicy {
	return c.policy.clone()
}

// AcceptedStatusCodes returns the accepted set in ascending order.
func (c *Client) AcceptedStatusCodes() []int {
	codes := make([]int, 0, len(c.policy.AcceptedStatusCodes))
	for code := range c.policy.AcceptedStatusCodes {
		codes = append(codes, code)
	}
	sort.Ints(codes)
	return codes
}

// QueueLen returns the number of requests waiting behind the one currently
// executing. It is always zero in AbortPrevious mode.
func (c *Client) QueueLen() int {
	return c.queue.Len()
}

// PendingURLs returns how many URLs currently hold a supersession entry. It
// is always zero in EnqueueNew mode.
func (c *Client) PendingURLs() int {
	return c.tracker.Len()
}

// CancelPending cancels the pending AbortPrevious request for rawURL, if
// any. The request settles as Cancelled. rawURL must match the assembled
// URL exactly, e.g. the value returned by ConfiguredRequest.URL.
func (c *Client) CancelPending(rawURL string) bool {
	released := c.tracker.Release(rawURL)
	if released {
		c.metrics.RecordTrackerEntries("default", c.tracker.Len())
		if c.debugOn(c.debug.LogSupersession) {
			c.logger.Info("Pending request cancelled by caller", "op", "cancelPending", "url", rawURL)
		}
	}
	return released
}

// IsValid reports whether configuration validation passed at construction.
func (c *Client) IsValid() bool {
	return c.validationError == nil
}

// ValidationError returns the configuration validation error, if any.
func (c *Client) ValidationError() error {
	return c.validationError
}

// ConfiguredRequest is a RequestSpec bound to the client that will admit
// it. It can be sent any number of times.
type ConfiguredRequest struct {
	client *Client
	spec   RequestSpec
}

// Configure applies defaults to spec (protocol http, content type
// application/json) and binds a private copy to the client.
func (c *Client) Configure(spec RequestSpec) *ConfiguredRequest {
	r := &ConfiguredRequest{client: c, spec: spec.withDefaults()}
	if c.debugOn(c.debug.LogRequests) {
		c.logger.Debug("Request config set up", "op", "configure", "method", r.spec.Method, "host", r.spec.URL.Host)
	}
	return r
}

// Spec returns a copy of the configured request spec.
func (r *ConfiguredRequest) Spec() RequestSpec {
	return r.spec.withDefaults()
}

// URL assembles the request URL without sending anything.
func (r *ConfiguredRequest) URL() (string, error) {
	return AssembleURL(r.spec.URL)
}

// Send assembles and admits the request. The returned error is non-nil only
// for configuration problems detected before any network activity; every
// other result, including failures, is reported through the Outcome.
func (r *ConfiguredRequest) Send(ctx context.Context, payload any) (*Outcome, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	p, err := r.client.prepare(r.spec, payload)
	if err != nil {
		return nil, err
	}
	return r.client.admit(ctx, p), nil
}

// Execute configures spec and sends it once.
func (c *Client) Execute(ctx context.Context, spec RequestSpec, payload any) (*Outcome, error) {
	return c.Configure(spec).Send(ctx, payload)
}

// SendAs sends r and decodes a successful JSON response into T. A non-success
// outcome yields the zero T and a nil error; inspect the Outcome. The error
// is set for configuration problems and for bodies that do not decode into T.
func SendAs[T any](ctx context.Context, r *ConfiguredRequest, payload any) (T, *Outcome, error) {
	var v T
	out, err := r.Send(ctx, payload)
	if err != nil {
		return v, nil, err
	}
	if !out.IsSuccess() {
		return v, out, nil
	}
	if err := out.Decode(&v); err != nil {
		return v, out, err
	}
	return v, out, nil
}

func (c *Client) debugOn(category bool) bool {
	return c.debug != nil && c.debug.Enabled && category && c.logger != nil
}

// endpointLabel reduces a URL to host + path for metric labels.
func endpointLabel(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return "unknown"
	}

	var builder strings.Builder
	builder.WriteString(u.Host)
	if u.Path != "" && u.Path != "/" {
		builder.WriteString(u.Path)
	} else {
		builder.WriteByte('/')
	}
	return builder.String()
}
