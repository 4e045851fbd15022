package httpapi

import (
	"context"
	"fmt"
	"math"
	"net"
	"net/http"
	"runtime/debug"
	"strconv"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/dmitrijs2005/qaapi/internal/common"
	"github.com/dmitrijs2005/qaapi/internal/server/auth"
	"github.com/dmitrijs2005/qaapi/internal/server/models"
)

type ctxKey string

const (
	userKey    ctxKey = "user"
	serviceKey ctxKey = "service"
)

// UserFromContext returns the principal stored by requireUser.
func UserFromContext(ctx context.Context) (*models.User, bool) {
	u, ok := ctx.Value(userKey).(*models.User)
	return u, ok
}

// ServiceFromContext returns the identity stored by requireAPIKey.
func ServiceFromContext(ctx context.Context) (models.ServiceIdentity, bool) {
	s, ok := ctx.Value(serviceKey).(models.ServiceIdentity)
	return s, ok
}

// processTimeWriter stamps X-Process-Time just before the header is sent.
type processTimeWriter struct {
	http.ResponseWriter
	start       time.Time
	wroteHeader bool
}

func (w *processTimeWriter) WriteHeader(code int) {
	if !w.wroteHeader {
		w.wroteHeader = true
		elapsed := time.Since(w.start).Seconds()
		w.Header().Set("X-Process-Time", strconv.FormatFloat(elapsed, 'f', 6, 64))
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *processTimeWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}

// requestLogger logs one line per request and sets X-Process-Time.
func (a *API) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(&processTimeWriter{ResponseWriter: w, start: start}, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		a.logger.Info(r.Context(), "request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", chimw.GetReqID(r.Context()),
			"remote", r.RemoteAddr,
		)
	})
}

// recoverer turns handler panics into a 500 response.
func (a *API) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				a.logger.Error(r.Context(), "panic", "value", fmt.Sprint(rec), "stack", string(debug.Stack()))
				a.writeError(w, r, fmt.Errorf("panic: %v", rec))
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// clientIP is the socket peer. Forwarding headers are client-controlled
// and never consulted.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// rateLimit enforces the per-IP request budget. Limiter failures let the
// request through.
func (a *API) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)

		res, err := a.limiter.Allow(r.Context(), ip)
		if err != nil {
			a.logger.Warn(r.Context(), "rate limiter unavailable", "error", err)
			next.ServeHTTP(w, r)
			return
		}

		reset := int(math.Ceil(res.RetryAfter(a.now()).Seconds()))
		h := w.Header()
		h.Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
		h.Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
		h.Set("X-RateLimit-Reset", strconv.Itoa(reset))

		if !res.Allowed {
			a.logger.Warn(r.Context(), "rate limit exceeded", "ip", ip)
			h.Set("Retry-After", strconv.Itoa(reset))
			writeJSON(w, http.StatusTooManyRequests, map[string]any{
				"detail":         "Rate limit exceeded. Try again later.",
				"limit":          a.limiter.Limit(),
				"period_seconds": int(a.limiter.Period().Seconds()),
			})
			return
		}

		next.ServeHTTP(w, r)
	})
}

// requireUser authorizes the bearer token against predicates and stores
// the principal in the request context.
func (a *API) requireUser(predicates ...auth.Predicate) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := common.BearerToken(r.Header.Get("Authorization"))
			if !ok {
				a.writeError(w, r, fmt.Errorf("%w: not authenticated", common.ErrorUnauthorized))
				return
			}

			user, err := a.auth.Authorize(r.Context(), token, predicates...)
			if err != nil {
				a.writeError(w, r, err)
				return
			}

			ctx := context.WithValue(r.Context(), userKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// requireAPIKey resolves X-API-Key to a service identity. API keys never
// resolve to a user.
func (a *API) requireAPIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		service, ok := a.apiKeys.Lookup(r.Header.Get(common.APIKeyHeaderName))
		if !ok {
			a.logger.Warn(r.Context(), "api key rejected", "ip", clientIP(r))
			a.writeError(w, r, fmt.Errorf("%w: invalid or missing API key", common.ErrorUnauthorized))
			return
		}
		ctx := context.WithValue(r.Context(), serviceKey, service)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
