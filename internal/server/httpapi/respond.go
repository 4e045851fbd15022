package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"

	"github.com/dmitrijs2005/qaapi/internal/common"
)

// maxBodyBytes bounds request payloads.
const maxBodyBytes = 1 << 20

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error      string `json:"error"`
	Detail     any    `json:"detail"`
	StatusCode int    `json:"status_code"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

func writeHTTPError(w http.ResponseWriter, status int, detail any) {
	writeJSON(w, status, ErrorBody{Error: "HTTP Exception", Detail: detail, StatusCode: status})
}

// decodeJSON reads a single JSON document from the body into dst.
// Malformed or oversized bodies are reported as validation errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(body)
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return common.NewValidationError(errors.New("request body is empty"))
		}
		return common.NewValidationError(err)
	}
	return nil
}

// statusFor maps a service error to an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, common.ErrorValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, common.ErrorUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, common.ErrorForbidden):
		return http.StatusForbidden
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound
	case errors.Is(err, common.ErrorConflict):
		return http.StatusConflict
	case errors.Is(err, common.ErrorBadRequest):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// writeError translates err into an error response. Internal errors never
// leak their message.
func (a *API) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)

	switch status {
	case http.StatusUnauthorized:
		w.Header().Set("WWW-Authenticate", "Bearer")
		writeHTTPError(w, status, errorDetail(err))
	case http.StatusUnprocessableEntity:
		writeJSON(w, status, ErrorBody{Error: "Validation Error", Detail: validationDetail(err), StatusCode: status})
	case http.StatusInternalServerError:
		a.logger.Error(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		writeJSON(w, status, ErrorBody{Error: "Internal Server Error", Detail: "An unexpected error occurred", StatusCode: status})
	default:
		writeHTTPError(w, status, errorDetail(err))
	}
}

// sentinels are stripped from the front of error messages so clients see
// only the reason, e.g. "cannot delete your own account".
var sentinels = []error{
	common.ErrorUnauthorized,
	common.ErrorForbidden,
	common.ErrorNotFound,
	common.ErrorConflict,
	common.ErrorBadRequest,
}

func errorDetail(err error) string {
	msg := err.Error()
	for _, s := range sentinels {
		if !errors.Is(err, s) {
			continue
		}
		if msg == s.Error() && s == common.ErrorUnauthorized {
			return "Could not validate credentials"
		}
		if rest, ok := strings.CutPrefix(msg, s.Error()+": "); ok {
			return rest
		}
	}
	return msg
}

// validationDetail returns per-field messages when err carries ozzo
// field errors, or the plain message otherwise.
func validationDetail(err error) any {
	var fields validation.Errors
	if errors.As(err, &fields) {
		out := make(map[string]string, len(fields))
		for name, fe := range fields {
			out[name] = fe.Error()
		}
		return out
	}
	return err.Error()
}
