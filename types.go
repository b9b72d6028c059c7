package easyrequester

import (
	"net/http"
)

// AdmissionMode selects how a client admits concurrent requests.
type AdmissionMode int

const (
	// EnqueueNew runs requests one at a time in submission order.
	EnqueueNew AdmissionMode = iota
	// AbortPrevious cancels a pending request when a newer one targets the
	// same URL. Requests to different URLs run in parallel.
	AbortPrevious
)

// String returns the configuration name of the mode.
func (m AdmissionMode) String() string {
	switch m {
	case EnqueueNew:
		return "enqueue-new"
	case AbortPrevious:
		return "abort-previous"
	default:
		return "unknown"
	}
}

// ParseAdmissionMode maps "enqueue-new" / "abort-previous" to a mode.
func ParseAdmissionMode(s string) (AdmissionMode, error) {
	switch s {
	case "enqueue-new", "":
		return EnqueueNew, nil
	case "abort-previous":
		return AbortPrevious, nil
	default:
		return EnqueueNew, &ClientError{Type: ErrorTypeValidation, Message: "unknown admission mode " + s}
	}
}

// DefaultAcceptedStatusCodes is the baseline accepted set; caller codes are
// added to it, never replace it.
var DefaultAcceptedStatusCodes = []int{200, 201, 202, 203, 204, 205, 206}

// ClientPolicy is the immutable admission and acceptance policy of a Client.
type ClientPolicy struct {
	AdmissionMode       AdmissionMode
	AcceptedStatusCodes map[int]struct{}
	Debug               bool
}

// Accepts reports whether status is in the accepted set.
func (p ClientPolicy) Accepts(status int) bool {
	_, ok := p.AcceptedStatusCodes[status]
	return ok
}

func (p ClientPolicy) clone() ClientPolicy {
	codes := make(map[int]struct{}, len(p.AcceptedStatusCodes))
	for code := range p.AcceptedStatusCodes {
		codes[code] = struct{}{}
	}
	p.AcceptedStatusCodes = codes
	return p
}

// Protocol is the URL scheme of a request.
type Protocol string

const (
	HTTP  Protocol = "http"
	HTTPS Protocol = "https"
)

// Supported request methods.
const (
	MethodGet     = http.MethodGet
	MethodHead    = http.MethodHead
	MethodOptions = http.MethodOptions
	MethodTrace   = http.MethodTrace
	MethodPut     = http.MethodPut
	MethodDelete  = http.MethodDelete
	MethodPost    = http.MethodPost
	MethodPatch   = http.MethodPatch
	MethodConnect = http.MethodConnect
)

var knownMethods = map[string]struct{}{
	MethodGet: {}, MethodHead: {}, MethodOptions: {}, MethodTrace: {}, MethodPut: {},
	MethodDelete: {}, MethodPost: {}, MethodPatch: {}, MethodConnect: {},
}

// Segment is one key/value entry of a mapped endpoint. Only the value
// contributes to the path.
type Segment struct {
	Key   string
	Value any
}

// Seg builds a Segment.
func Seg(key string, value any) Segment {
	return Segment{Key: key, Value: value}
}

// Endpoint is either a single path string or an ordered list of segments.
type Endpoint struct {
	path     string
	segments []Segment
	mapped   bool
	set      bool
}

// Path builds a string endpoint. Path("") addresses the root.
func Path(p string) Endpoint {
	return Endpoint{path: p, set: true}
}

// Segments builds a mapped endpoint; segment order is preserved.
func Segments(segs ...Segment) Endpoint {
	cp := make([]Segment, len(segs))
	copy(cp, segs)
	return Endpoint{segments: cp, mapped: true, set: true}
}

// IsMapped reports whether the endpoint was built from segments.
func (e Endpoint) IsMapped() bool {
	return e.mapped
}

// IsZero reports whether no endpoint was configured.
func (e Endpoint) IsZero() bool {
	return !e.set
}

// URLSpec holds the structured parts of a request URL.
type URLSpec struct {
	Protocol Protocol
	Host     string
	// Port is omitted from the URL when zero.
	Port     int
	Endpoint Endpoint
	Query    map[string]string
}

// HeaderSpec configures request headers.
type HeaderSpec struct {
	ContentType  string
	ResponseLang string
	Headers      map[string]string
}

// AuthSpec configures credentials.
type AuthSpec struct {
	AccessToken    string
	IncludeCookies bool
}

// RequestSpec is the declarative configuration of one request.
type RequestSpec struct {
	URL    URLSpec
	Method string
	Header HeaderSpec
	Auth   AuthSpec
}

// withDefaults returns a deep copy of spec with defaults applied.
func (s RequestSpec) withDefaults() RequestSpec {
	out := s
	if out.URL.Protocol == "" {
		out.URL.Protocol = HTTP
	}
	if out.Header.ContentType == "" {
		out.Header.ContentType = DefaultContentType
	}
	if s.URL.Endpoint.mapped {
		out.URL.Endpoint = Segments(s.URL.Endpoint.segments...)
	}
	out.URL.Query = copyStringMap(s.URL.Query)
	out.Header.Headers = copyStringMap(s.Header.Headers)
	return out
}

func copyStringMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	cp := make(map[string]string, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return cp
}

// CredentialsMode mirrors the fetch credentials setting: cookies are only
// attached and stored in CredentialsInclude mode.
type CredentialsMode int

const (
	CredentialsSameOrigin CredentialsMode = iota
	CredentialsInclude
)

func (m CredentialsMode) String() string {
	if m == CredentialsInclude {
		return "include"
	}
	return "same-origin"
}

// Middleware wraps the transport round trip.
type Middleware func(req *http.Request, next RoundTripper) (*http.Response, error)

// RoundTripper represents the HTTP transport interface.
type RoundTripper interface {
	RoundTrip(*http.Request) (*http.Response, error)
}

// RoundTripperFunc is a helper type for middleware.
type RoundTripperFunc func(*http.Request) (*http.Response, error)

func (f RoundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

// Option configures a Client.
type Option func(*Client)
