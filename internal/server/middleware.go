package server

import (
	"context"
	"log/slog"
	"net/http"
	"regexp"
	"runtime/debug"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/tartampluch/go-compass/internal/config"
)

type ctxKey int

const requestIDKey ctxKey = iota

// validRequestID keeps client supplied IDs out of the logs unless they are plain tokens.
var validRequestID = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)

// RequestIDFrom returns the ID assigned by the RequestID middleware, or "".
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// Recovery turns a panic into a 500 JSON envelope.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				slog.ErrorContext(r.Context(), config.ErrPanic,
					config.LogKeyComponent, config.CompServer,
					config.LogKeyError, rec,
					config.LogKeyStack, string(debug.Stack()),
					config.LogKeyMethod, r.Method,
					config.LogKeyPath, r.URL.Path,
					config.LogKeyRequestID, RequestIDFrom(r.Context()),
				)
				writeJSONError(w, http.StatusInternalServerError, config.CodeInternal, config.HTTPMsgInternalErr)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// RequestID reuses a valid X-Request-ID header or generates a UUID.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(config.HeaderRequestID)
		if !isValidRequestID(id) {
			id = uuid.New().String()
		}
		w.Header().Set(config.HeaderRequestID, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

func isValidRequestID(id string) bool {
	if id == "" || len(id) > config.MaxRequestIDLength {
		return false
	}
	return validRequestID.MatchString(id)
}

// Instrument logs each request and records its latency under the matched route pattern.
func Instrument(m *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(wrapped, r)

			elapsed := time.Since(start)
			route := config.RouteUnmatched
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if pattern := rctx.RoutePattern(); pattern != "" {
					route = pattern
				}
			}
			m.ObserveRequest(route, wrapped.status, elapsed.Seconds())

			// Health checks are noisy; log them only when they fail.
			if route == config.RouteHealth && wrapped.status < http.StatusInternalServerError {
				return
			}
			slog.InfoContext(r.Context(), config.MsgRequest,
				config.LogKeyComponent, config.CompServer,
				config.LogKeyMethod, r.Method,
				config.LogKeyPath, r.URL.Path,
				config.LogKeyStatus, wrapped.status,
				config.LogKeyDuration, elapsed.Milliseconds(),
				config.LogKeyRequestID, RequestIDFrom(r.Context()),
			)
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (rw *statusRecorder) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.status = code
		rw.wroteHeader = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *statusRecorder) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	return rw.ResponseWriter.Write(b)
}
