package easyrequester

import (
	"context"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"
)

func TestWithAdmissionMode(t *testing.T) {
	client := New(WithAdmissionMode(AbortPrevious))

	if client.admissionMode != AbortPrevious {
		t.Errorf("Expected admissionMode=abort-previous, got %s", client.admissionMode)
	}
	if client.Policy().AdmissionMode != AbortPrevious {
		t.Error("policy does not reflect the admission mode")
	}
}

func TestWithAcceptedStatusCodes(t *testing.T) {
	client := New(WithAcceptedStatusCodes(422, 409), WithAcceptedStatusCodes(200))

	want := []int{200, 201, 202, 203, 204, 205, 206, 409, 422}
	got := client.AcceptedStatusCodes()
	if len(got) != len(want) {
		t.Fatalf("AcceptedStatusCodes() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("AcceptedStatusCodes() = %v, want %v", got, want)
		}
	}
}

func TestWithTimeout(t *testing.T) {
	timeout := 5 * time.Second
	client := New(WithTimeout(timeout))

	if client.httpClient.Timeout != timeout {
		t.Errorf("Expected timeout=%v, got %v", timeout, client.httpClient.Timeout)
	}
}

func TestWithHTTPClient(t *testing.T) {
	customClient := &http.Client{}
	client := New(WithTimeout(7*time.Second), WithHTTPClient(customClient))

	if client.httpClient != customClient {
		t.Error("Expected custom HTTP client to be set")
	}
	if customClient.Timeout != 7*time.Second {
		t.Errorf("Expected configured timeout to carry over, got %v", customClient.Timeout)
	}
}

func TestWithTransport(t *testing.T) {
	transport := TransportFunc(func(ctx context.Context, req *TransportRequest) (*TransportResponse, error) {
		return &TransportResponse{StatusCode: http.StatusAccepted}, nil
	})
	client := New(WithTransport(transport))

	if !client.customTransport {
		t.Error("Expected custom transport flag")
	}
	out, err := client.Execute(context.Background(), RequestSpec{URL: URLSpec{Host: testHost, Endpoint: Path("x")}, Method: MethodGet}, nil)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if out.StatusCode != http.StatusAccepted {
		t.Errorf("StatusCode = %d, want 202", out.StatusCode)
	}
}

func TestWithCookieJar(t *testing.T) {
	jar, _ := cookiejar.New(nil)
	client := New(WithCookieJar(jar))

	if client.cookieJar != jar {
		t.Error("Expected cookie jar to be set")
	}
	httpTransport, ok := client.transport.(*HTTPTransport)
	if !ok {
		t.Fatalf("default transport is %T", client.transport)
	}
	if httpTransport.jar != jar {
		t.Error("Expected default transport to use the jar")
	}
}

func TestWithRateLimit(t *testing.T) {
	client := New(WithRateLimit(rate.Limit(10), 5))

	if client.limiter == nil {
		t.Fatal("Expected limiter to be set")
	}
	if client.limiter.Burst() != 5 {
		t.Errorf("Expected burst=5, got %d", client.limiter.Burst())
	}
}

func TestWithMetricsCollector(t *testing.T) {
	collector := NewMetricsCollectorWithRegistry(prometheus.NewRegistry())
	client := New(WithMetricsCollector(collector))

	if client.metrics != collector {
		t.Error("Expected metrics collector to be set")
	}
}

func TestWithDebug(t *testing.T) {
	client := New(WithDebug())

	if !client.debug.Enabled {
		t.Error("Expected debug to be enabled")
	}
	if client.logger == nil {
		t.Error("Expected a default logger")
	}
	if !client.Policy().Debug {
		t.Error("Expected policy debug flag")
	}
	if !client.IsValid() {
		t.Errorf("unexpected validation error: %v", client.ValidationError())
	}
}

func TestWithDebugKeepsCustomLogger(t *testing.T) {
	logger := &recordingLogger{}
	client := New(WithLogger(logger), WithDebug())

	if client.logger != logger {
		t.Error("WithDebug replaced an existing logger")
	}
}

func TestWithRequestIDGenerator(t *testing.T) {
	client := New(WithRequestIDGenerator(func() string { return "fixed" }))

	if got := client.debug.RequestIDGen(); got != "fixed" {
		t.Errorf("RequestIDGen() = %q, want fixed", got)
	}
}

func TestWithDebugConfigNil(t *testing.T) {
	client := New(WithDebugConfig(nil))

	if client.debug == nil {
		t.Fatal("nil debug config should fall back to defaults")
	}
	if client.debug.Enabled {
		t.Error("fallback debug config should be disabled")
	}
}

func TestValidateConfiguration(t *testing.T) {
	testCases := []struct {
		name    string
		options []Option
		wantErr string
	}{
		{"defaults", nil, ""},
		{"unknown admission mode", []Option{WithAdmissionMode(AdmissionMode(9))}, "unknown admission mode"},
		{"status code out of range", []Option{WithAcceptedStatusCodes(99)}, "outside 100-599"},
		{"zero timeout", []Option{WithTimeout(0)}, "timeout must be positive"},
		{"huge timeout", []Option{WithTimeout(time.Hour)}, "timeout > 10m"},
		{"nil http client", []Option{WithHTTPClient(nil)}, "HTTP client cannot be nil"},
		{"nil transport", []Option{WithTransport(nil)}, "transport cannot be nil"},
		{"debug without logger", []Option{WithDebugConfig(&DebugConfig{Enabled: true})}, "logger must be set"},
		{"propagation without generator", []Option{WithDebugConfig(&DebugConfig{PropagateRequestID: true})}, "RequestIDGen must be set"},
		{"zero rate", []Option{WithRateLimit(0, 1)}, "rate limit must be positive"},
		{"zero burst", []Option{WithRateLimit(10, 0)}, "burst must be positive"},
		{"nil middleware", []Option{WithMiddleware(nil)}, "middleware[0] cannot be nil"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			client := New(tc.options...)
			err := client.ValidateConfiguration()

			if tc.wantErr == "" {
				if err != nil {
					t.Errorf("ValidateConfiguration() error = %v", err)
				}
				if !client.IsValid() {
					t.Error("IsValid() = false")
				}
				return
			}

			if err == nil {
				t.Fatalf("expected error containing %q", tc.wantErr)
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("error = %v, want it to contain %q", err, tc.wantErr)
			}
			if client.IsValid() {
				t.Error("IsValid() = true for invalid configuration")
			}
			var clientErr *ClientError
			if ce, ok := err.(*ClientError); ok {
				clientErr = ce
			}
			if clientErr == nil || clientErr.Type != ErrorTypeValidation {
				t.Errorf("error type = %v, want ValidationError", err)
			}
		})
	}
}

func TestParseAdmissionMode(t *testing.T) {
	testCases := []struct {
		in      string
		want    AdmissionMode
		wantErr bool
	}{
		{"enqueue-new", EnqueueNew, false},
		{"", EnqueueNew, false},
		{"abort-previous", AbortPrevious, false},
		{"abort_previous", EnqueueNew, true},
	}

	for _, tc := range testCases {
		got, err := ParseAdmissionMode(tc.in)
		if (err != nil) != tc.wantErr {
			t.Errorf("ParseAdmissionMode(%q) error = %v", tc.in, err)
		}
		if got != tc.want {
			t.Errorf("ParseAdmissionMode(%q) = %s, want %s", tc.in, got, tc.want)
		}
		if !tc.wantErr && tc.in != "" && got.String() != tc.in {
			t.Errorf("String() = %q, want %q", got.String(), tc.in)
		}
	}
}
