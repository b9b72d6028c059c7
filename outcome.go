package easyrequester

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
)

// OutcomeKind tags an Outcome.
type OutcomeKind int

const (
	OutcomeSuccess OutcomeKind = iota
	OutcomeRejectedStatus
	OutcomeTransportFailure
	OutcomeCancelled
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeRejectedStatus:
		return "rejected_status"
	case OutcomeTransportFailure:
		return "transport_failure"
	case OutcomeCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Outcome is the terminal result of a request. Which fields are set depends
// on Kind:
//
//   - OutcomeSuccess: StatusCode, Status, Header, Body and either JSON or Text
//   - OutcomeRejectedStatus: StatusCode, Status, Err
//   - OutcomeTransportFailure, OutcomeCancelled: Err
type Outcome struct {
	Kind       OutcomeKind
	StatusCode int
	// Status is the reason phrase, e.g. "OK".
	Status string
	Header http.Header
	Body   []byte
	// JSON holds the decoded body when the response declared a JSON
	// content type.
	JSON any
	// Text holds the body when the response was not JSON.
	Text string
	Err  *ClientError

	decodedJSON bool
}

func successOutcome(resp *TransportResponse, decoded any, text string, isJSON bool) *Outcome {
	return &Outcome{
		Kind:        OutcomeSuccess,
		StatusCode:  resp.StatusCode,
		Status:      reasonPhrase(resp),
		Header:      resp.Header,
		Body:        resp.Body,
		JSON:        decoded,
		Text:        text,
		decodedJSON: isJSON,
	}
}

func rejectedOutcome(resp *TransportResponse, err *ClientError) *Outcome {
	return &Outcome{
		Kind:       OutcomeRejectedStatus,
		StatusCode: resp.StatusCode,
		Status:     reasonPhrase(resp),
		Err:        err,
	}
}

func failureOutcome(kind OutcomeKind, err *ClientError) *Outcome {
	return &Outcome{Kind: kind, Err: err}
}

// IsSuccess reports whether the request completed with an accepted status.
func (o *Outcome) IsSuccess() bool {
	return o != nil && o.Kind == OutcomeSuccess
}

// IsCancelled reports whether the request was cancelled before completing.
func (o *Outcome) IsCancelled() bool {
	return o != nil && o.Kind == OutcomeCancelled
}

// Error returns the outcome's error, or nil on success. It returns a plain
// nil interface rather than a typed nil pointer.
func (o *Outcome) Error() error {
	if o == nil || o.Err == nil {
		return nil
	}
	return o.Err
}

// Decode unmarshals a successful JSON body into v.
func (o *Outcome) Decode(v any) error {
	if o == nil || o.Kind != OutcomeSuccess {
		return &ClientError{Type: ErrorTypeDecode, Message: "no successful response to decode", Cause: o.Error()}
	}
	if err := json.Unmarshal(o.Body, v); err != nil {
		return &ClientError{Type: ErrorTypeDecode, Message: "failed to decode response body", Cause: err, StatusCode: o.StatusCode}
	}
	return nil
}

// Result flattens the outcome into the loosely typed result surface:
// isSuccess and message, plus the decoded JSON object's fields or a text
// field. A JSON body that is not an object is exposed under "data".
func (o *Outcome) Result() map[string]any {
	if o == nil {
		return map[string]any{"isSuccess": false}
	}

	switch o.Kind {
	case OutcomeSuccess:
		res := map[string]any{"isSuccess": true, "message": o.Status}
		switch body := o.JSON.(type) {
		case map[string]any:
			for k, v := range body {
				res[k] = v
			}
		case nil:
			if !o.decodedJSON {
				res["text"] = o.Text
			}
		default:
			res["data"] = body
		}
		return res
	case OutcomeRejectedStatus:
		return map[string]any{"isSuccess": false, "message": o.Status}
	default:
		res := map[string]any{"isSuccess": false}
		if o.Err != nil {
			res["message"] = o.Err.Error()
		}
		return res
	}
}

func isJSONContentType(contentType string) bool {
	return strings.Contains(strings.ToLower(contentType), "application/json")
}

func reasonPhrase(resp *TransportResponse) string {
	if resp.Status != "" {
		phrase := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
		if phrase != "" {
			return phrase
		}
	}
	return http.StatusText(resp.StatusCode)
}
