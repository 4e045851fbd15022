package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/qaapi/internal/common"
)

var (
	ErrUnavailable = errors.New("server unavailable")
	ErrRateLimited = errors.New("rate limited")
	ErrNotLoggedIn = errors.New("not logged in")
	errRetryStatus = errors.New("retryable status")
)

// APIError is a non-2xx response. It matches the common sentinels with
// errors.Is, so callers can test for common.ErrorUnauthorized and friends.
type APIError struct {
	StatusCode int
	Message    string
	Detail     any
}

func (e *APIError) Error() string {
	if e.Detail != nil {
		if s, ok := e.Detail.(string); ok {
			return fmt.Sprintf("%d %s: %s", e.StatusCode, e.Message, s)
		}
		return fmt.Sprintf("%d %s: %v", e.StatusCode, e.Message, e.Detail)
	}
	return fmt.Sprintf("%d %s", e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error {
	switch {
	case e.StatusCode == http.StatusUnauthorized:
		return common.ErrorUnauthorized
	case e.StatusCode == http.StatusForbidden:
		return common.ErrorForbidden
	case e.StatusCode == http.StatusNotFound:
		return common.ErrorNotFound
	case e.StatusCode == http.StatusConflict:
		return common.ErrorConflict
	case e.StatusCode == http.StatusUnprocessableEntity:
		return common.ErrorValidation
	case e.StatusCode == http.StatusBadRequest:
		return common.ErrorBadRequest
	case e.StatusCode == http.StatusTooManyRequests:
		return ErrRateLimited
	case e.StatusCode >= 500:
		return ErrUnavailable
	}
	return nil
}

type errorBody struct {
	Error  string `json:"error"`
	Detail any    `json:"detail"`
}

// newAPIError decodes the server's error envelope when present and falls
// back to the status text otherwise.
func newAPIError(r *Response) *APIError {
	e := &APIError{StatusCode: r.StatusCode, Message: http.StatusText(r.StatusCode)}

	var body errorBody
	if err := json.Unmarshal(r.Body, &body); err == nil {
		if body.Error != "" {
			e.Message = body.Error
		}
		e.Detail = body.Detail
	}
	return e
}
