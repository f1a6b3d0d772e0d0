// Package sharefile provides an HTTP client for the ShareFile v3 REST API
// with password-grant authentication, automatic retry, bounded redirects,
// and error classification.
package sharefile

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Sentinel errors for HTTP status code classification.
// Use errors.Is(err, sharefile.ErrNotFound) to check.
var (
	ErrBadRequest   = errors.New("sharefile: bad request")
	ErrUnauthorized = errors.New("sharefile: unauthorized")
	ErrForbidden    = errors.New("sharefile: forbidden")
	ErrNotFound     = errors.New("sharefile: not found")
	ErrConflict     = errors.New("sharefile: conflict")
	ErrThrottled    = errors.New("sharefile: throttled")
	ErrServerError  = errors.New("sharefile: server error")

	// ErrUnexpectedStatus covers non-2xx codes without a dedicated sentinel,
	// and 2xx codes an endpoint does not document (e.g. 200 from DELETE).
	ErrUnexpectedStatus = errors.New("sharefile: unexpected status")
)

// APIError wraps a sentinel error with the HTTP status code, the request ID
// we sent, and the fields of the ShareFile error body.
//
// ShareFile error bodies look like:
//
//	{"code":"BadRequest","message":{"lang":"en-US","value":"..."},"reason":"BadRequest"}
//
// Message holds message.value when present, otherwise the raw body text.
type APIError struct {
	StatusCode int
	RequestID  string
	Code       string
	Reason     string
	Message    string
	Lang       string
	Err        error // sentinel, for errors.Is()
}

func (e *APIError) Error() string {
	if e.RequestID != "" {
		return fmt.Sprintf("sharefile: HTTP %d (request-id: %s): %s", e.StatusCode, e.RequestID, e.Message)
	}

	return fmt.Sprintf("sharefile: HTTP %d: %s", e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// errorResponse mirrors the ShareFile OData error body. Every field is
// optional; message in particular is absent on gateway errors.
type errorResponse struct {
	Code    string          `json:"code"`
	Reason  string          `json:"reason"`
	Message *messageSection `json:"message"`
}

type messageSection struct {
	Lang  string `json:"lang"`
	Value string `json:"value"`
}

// newAPIError builds an APIError from a non-2xx response and its body.
// The body may be JSON, HTML, or empty.
func newAPIError(resp *http.Response, body []byte) *APIError {
	apiErr := &APIError{
		StatusCode: resp.StatusCode,
		Message:    strings.TrimSpace(string(body)),
		Err:        classifyStatus(resp.StatusCode),
	}

	if resp.Request != nil {
		apiErr.RequestID = resp.Request.Header.Get(requestIDHeader)
	}

	var er errorResponse
	if len(body) > 0 && json.Unmarshal(body, &er) == nil {
		apiErr.Code = er.Code
		apiErr.Reason = er.Reason

		if er.Message != nil && er.Message.Value != "" {
			apiErr.Message = er.Message.Value
			apiErr.Lang = er.Message.Lang
		}
	}

	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}

	return apiErr
}

// classifyStatus maps an HTTP status code to a sentinel error.
// Returns nil for 2xx success codes.
func classifyStatus(code int) error {
	switch code {
	case http.StatusBadRequest:
		return ErrBadRequest
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusConflict:
		return ErrConflict
	case http.StatusTooManyRequests:
		return ErrThrottled
	default:
		if code >= http.StatusInternalServerError {
			return ErrServerError
		}

		if code >= http.StatusOK && code < http.StatusMultipleChoices {
			return nil
		}

		return ErrUnexpectedStatus
	}
}

// isRetryable reports whether the given HTTP status code should be retried.
func isRetryable(code int) bool {
	switch code {
	case http.StatusRequestTimeout,
		http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}
