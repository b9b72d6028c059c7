// Package easyrequester is an HTTP request client façade. Requests are
// described declaratively (URL parts, method, headers, auth) and sent with a
// payload; the result is a tagged Outcome instead of a bare *http.Response.
//
// Every Client is built with one admission mode:
//
//   - EnqueueNew: requests run strictly one at a time, in submission order.
//   - AbortPrevious: a new request cancels any still-pending request for the
//     exact same URL; requests to different URLs run in parallel.
//
// Other features:
//   - Deterministic URL and header assembly (AssembleURL, AssembleHeaders)
//   - Accepted status codes: 200-206 plus any codes added by the caller
//   - JSON or text decoding of accepted responses
//   - Optional client-side rate limiting (golang.org/x/time/rate)
//   - Prometheus metrics and opt-in structured debug logging
//
// Typical usage:
//
//	client := easyrequester.New(
//	    easyrequester.WithAdmissionMode(easyrequester.AbortPrevious),
//	    easyrequester.WithAcceptedStatusCodes(422),
//	)
//	login := client.Configure(easyrequester.RequestSpec{
//	    URL: easyrequester.URLSpec{
//	        Protocol: easyrequester.HTTPS,
//	        Host:     "api.example.com",
//	        Endpoint: easyrequester.Segments(
//	            easyrequester.Seg("route", "user"),
//	            easyrequester.Seg("controller", "login"),
//	        ),
//	    },
//	    Method: easyrequester.MethodPost,
//	})
//	out, err := login.Send(ctx, credentials)
//
// Send returns an error only when the request configuration is malformed.
// Rejected statuses, network failures and cancellations are reported through
// the Outcome; nothing is retried automatically.
package easyrequester
