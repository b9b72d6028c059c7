package easyrequester

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"time"
)

// TransportRequest is a fully assembled request handed to a Transport.
type TransportRequest struct {
	URL         string
	Method      string
	Header      http.Header
	Body        []byte
	Credentials CredentialsMode
}

// TransportResponse is the raw result of a transport call. Body has been
// read completely.
type TransportResponse struct {
	StatusCode  int
	Status      string
	Header      http.Header
	ContentType string
	Body        []byte
}

// Transport performs a single HTTP exchange. Cancellation of ctx must abort
// the call; any failure to obtain a response is returned as an error.
type Transport interface {
	Perform(ctx context.Context, req *TransportRequest) (*TransportResponse, error)
}

// TransportFunc adapts a function to the Transport interface.
type TransportFunc func(ctx context.Context, req *TransportRequest) (*TransportResponse, error)

func (f TransportFunc) Perform(ctx context.Context, req *TransportRequest) (*TransportResponse, error) {
	return f(ctx, req)
}

// HTTPTransport is the default net/http backed Transport.
type HTTPTransport struct {
	client     *http.Client
	middleware []Middleware
	jar        http.CookieJar
}

// NewHTTPTransport creates a transport over client. A nil client gets a
// 30 second timeout.
func NewHTTPTransport(client *http.Client, jar http.CookieJar, middleware ...Middleware) *HTTPTransport {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &HTTPTransport{
		client:     client,
		middleware: middleware,
		jar:        jar,
	}
}

// Perform implements Transport.
func (t *HTTPTransport) Perform(ctx context.Context, treq *TransportRequest) (*TransportResponse, error) {
	var body io.Reader
	if treq.Body != nil {
		body = bytes.NewReader(treq.Body)
	}

	req, err := http.NewRequestWithContext(ctx, treq.Method, treq.URL, body)
	if err != nil {
		return nil, err
	}
	req.Header = treq.Header.Clone()
	if req.Header == nil {
		req.Header = make(http.Header)
	}

	include := treq.Credentials == CredentialsInclude && t.jar != nil
	if include {
		for _, cookie := range t.jar.Cookies(req.URL) {
			req.AddCookie(cookie)
		}
	}

	resp, err := t.executeMiddleware(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if include {
		if cookies := resp.Cookies(); len(cookies) > 0 {
			t.jar.SetCookies(cookieURL(req.URL), cookies)
		}
	}

	return &TransportResponse{
		StatusCode:  resp.StatusCode,
		Status:      resp.Status,
		Header:      resp.Header,
		ContentType: resp.Header.Get(HeaderContentType),
		Body:        data,
	}, nil
}

func (t *HTTPTransport) executeMiddleware(req *http.Request) (*http.Response, error) {
	if len(t.middleware) == 0 {
		return t.client.Do(req)
	}

	current := RoundTripperFunc(t.client.Do)

	for i := len(t.middleware) - 1; i >= 0; i-- {
		middleware := t.middleware[i]
		next := current
		current = RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
			return middleware(r, next)
		})
	}

	return current.RoundTrip(req)
}

// cookieURL strips the query so the jar keys cookies by origin and path.
func cookieURL(u *url.URL) *url.URL {
	cp := *u
	cp.RawQuery = ""
	cp.Fragment = ""
	return &cp
}
