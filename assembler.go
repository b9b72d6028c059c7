package easyrequester

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// DefaultContentType is sent when a request does not configure one.
const DefaultContentType = "application/json"

// Reserved header names set by AssembleHeaders.
const (
	HeaderContentType    = "Content-Type"
	HeaderAuthorization  = "Authorization"
	HeaderAcceptLanguage = "Accept-Language"
	HeaderRequestID      = "X-Request-Id"
)

// AssembleURL builds protocol://host[:port]/segments[?query] from spec.
// String endpoints are trimmed of one leading and one trailing slash; mapped
// endpoints contribute each value, in order, as its own path segment.
func AssembleURL(spec URLSpec) (string, error) {
	var b strings.Builder

	b.WriteString(string(spec.Protocol))
	b.WriteString("://")
	b.WriteString(spec.Host)
	if spec.Port != 0 {
		b.WriteByte(':')
		b.WriteString(strconv.Itoa(spec.Port))
	}

	path, err := assembleEndpoint(spec.Endpoint)
	if err != nil {
		return "", err
	}
	b.WriteString(path)

	if len(spec.Query) > 0 {
		values := make(url.Values, len(spec.Query))
		for k, v := range spec.Query {
			values.Set(k, v)
		}
		b.WriteByte('?')
		b.WriteString(values.Encode())
	}

	return b.String(), nil
}

func assembleEndpoint(e Endpoint) (string, error) {
	if !e.mapped {
		return "/" + trimSlash(e.path), nil
	}

	var b strings.Builder
	for _, seg := range e.segments {
		value, ok := seg.Value.(string)
		if !ok {
			return "", configError(
				fmt.Sprintf("expected value for key %q to be a string, got %T", seg.Key, seg.Value),
				ErrInvalidEndpointValue,
			)
		}
		b.WriteByte('/')
		b.WriteString(trimSlash(value))
	}
	return b.String(), nil
}

// trimSlash drops a single leading and a single trailing slash.
func trimSlash(s string) string {
	s = strings.TrimPrefix(s, "/")
	return strings.TrimSuffix(s, "/")
}

// AssembleHeaders merges custom headers with the reserved Content-Type,
// Authorization and Accept-Language headers. Reserved headers win over
// custom ones with the same (case-insensitive) name.
func AssembleHeaders(spec HeaderSpec, auth AuthSpec) http.Header {
	h := make(http.Header, len(spec.Headers)+3)
	for k, v := range spec.Headers {
		h.Set(k, v)
	}

	contentType := spec.ContentType
	if contentType == "" {
		contentType = DefaultContentType
	}
	h.Set(HeaderContentType, contentType)

	if auth.AccessToken != "" {
		h.Set(HeaderAuthorization, "Bearer "+auth.AccessToken)
	}
	if spec.ResponseLang != "" {
		h.Set(HeaderAcceptLanguage, spec.ResponseLang)
	}

	return h
}

// ValidateRequestSpec checks the parts of spec that must be well formed
// before any network activity.
func ValidateRequestSpec(spec RequestSpec) error {
	switch spec.URL.Protocol {
	case HTTP, HTTPS, "":
	default:
		return configError(fmt.Sprintf("protocol %q is not supported", spec.URL.Protocol), ErrInvalidProtocol)
	}
	if spec.URL.Host == "" {
		return configError("host is required", ErrMissingHost)
	}
	if spec.URL.Port < 0 || spec.URL.Port > 65535 {
		return configError(fmt.Sprintf("port %d is out of range", spec.URL.Port), ErrInvalidPort)
	}
	if spec.URL.Endpoint.IsZero() {
		return configError("endpoint is required", ErrMissingEndpoint)
	}
	if _, ok := knownMethods[spec.Method]; !ok {
		return configError(fmt.Sprintf("method %q is not supported", spec.Method), ErrInvalidMethod)
	}
	return nil
}
