package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"slices"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/gofrs/uuid/v5"

	"github.com/antqd/emailsender/internal/logger"
)

var skipLogging = map[string]struct{}{
	"/api/health": {},
}

const (
	corsMethods = "GET, POST, OPTIONS"
	corsHeaders = "Content-Type, Authorization, Origin, Accept, X-Request-Id"
)

type Middleware struct {
	origins []string
}

// NewMiddleware creates the middleware set. An empty origins list or one
// containing "*" allows any origin.
func NewMiddleware(origins []string) *Middleware {
	cleaned := make([]string, 0, len(origins))
	for _, o := range origins {
		if o = strings.TrimSpace(o); o != "" {
			cleaned = append(cleaned, o)
		}
	}
	return &Middleware{origins: cleaned}
}

// Log tags the request context with a request id and logs the outcome.
// Bodies are not logged since they carry documents.
func (m *Middleware) Log(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-Id")
		if requestID == "" {
			requestID = uuid.Must(uuid.NewV4()).String()
		}

		ctx := logger.WithRequestID(r.Context(), requestID)
		w.Header().Set("X-Request-Id", requestID)

		if _, ok := skipLogging[r.URL.Path]; ok {
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r.WithContext(ctx))

		slog.InfoContext(ctx, "request served",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes_in", r.ContentLength,
			"duration", time.Since(start),
		)
	})
}

func (m *Middleware) Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				slog.ErrorContext(ctx, "recovered from panic", "error", rec, "stack", string(debug.Stack()))
				SendErr(ctx, w, http.StatusInternalServerError, fmt.Errorf("panic: %v", rec), msgSendFailed)
			}
		}()

		next.ServeHTTP(w, r)
	})
}

// Cors answers preflight requests itself and tags the rest with the allowed
// origin.
func (m *Middleware) Cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")

		switch {
		case m.allowAny():
			w.Header().Set("Access-Control-Allow-Origin", "*")
		case origin != "" && slices.Contains(m.origins, origin):
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Add("Vary", "Origin")
		}

		w.Header().Set("Access-Control-Allow-Methods", corsMethods)
		w.Header().Set("Access-Control-Allow-Headers", corsHeaders)

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (m *Middleware) allowAny() bool {
	if len(m.origins) == 0 {
		return true
	}
	return slices.Contains(m.origins, "*")
}
