package api

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/UnknownOlympus/anvesh/internal/apikey"
	"github.com/UnknownOlympus/anvesh/internal/models"
)

type ctxKey struct{}

func withKey(ctx context.Context, key *models.KeyInfo) context.Context {
	return context.WithValue(ctx, ctxKey{}, key)
}

// callerKey returns the key attached by requireKey.
func callerKey(ctx context.Context) *models.KeyInfo {
	key, _ := ctx.Value(ctxKey{}).(*models.KeyInfo)
	return key
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(status int) {
	sr.status = status
	sr.ResponseWriter.WriteHeader(status)
}

func (s *Server) instrument(endpoint string, next http.Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		elapsed := time.Since(start)
		s.deps.Metrics.HTTPRequests.WithLabelValues(r.Method, endpoint, strconv.Itoa(rec.status)).Inc()
		s.deps.Metrics.HTTPSeconds.WithLabelValues(r.Method, endpoint).Observe(elapsed.Seconds())
		s.log.DebugContext(r.Context(), "HTTP request",
			"method", r.Method, "path", r.URL.Path, "status", rec.status, "duration", elapsed)
	}
}

// requireKey authorizes the X-API-Key header through the quota gate.
func (s *Server) requireKey(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := r.Header.Get("X-API-Key")
		if token == "" {
			s.failure(w, r, http.StatusUnauthorized, "Missing API key. Provide X-API-Key header.")
			return
		}

		key, err := s.deps.Gate.Authorize(r.Context(), token)
		switch {
		case err == nil:
			next(w, r.WithContext(withKey(r.Context(), key)))
		case errors.Is(err, apikey.ErrInvalidKey):
			s.failure(w, r, http.StatusUnauthorized, "Invalid or expired API key.")
		case errors.Is(err, apikey.ErrQuotaExceeded):
			s.failure(w, r, http.StatusTooManyRequests, "Monthly quota exceeded. Please upgrade your plan.")
		case errors.Is(err, apikey.ErrRateLimited):
			s.deps.Metrics.RateLimitRejects.Inc()
			w.Header().Set("Retry-After", "60")
			s.failure(w, r, http.StatusTooManyRequests, "Rate limit exceeded. Try again in a minute.")
		default:
			s.log.ErrorContext(r.Context(), "Failed to authorize request", "error", err)
			s.failure(w, r, http.StatusServiceUnavailable, "Authorization is temporarily unavailable.")
		}
	}
}

// requireAdmin checks the X-Admin-Secret header.
func (s *Server) requireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		secret := r.Header.Get("X-Admin-Secret")
		if secret == "" {
			s.failure(w, r, http.StatusUnauthorized, "Missing admin secret. Provide X-Admin-Secret header.")
			return
		}
		if subtle.ConstantTimeCompare([]byte(secret), []byte(s.deps.AdminSecret)) != 1 {
			s.failure(w, r, http.StatusForbidden, "Invalid admin secret.")
			return
		}
		next(w, r)
	}
}

// logUsage records a zero-lead usage entry for the caller. Failures are logged only.
func (s *Server) logUsage(r *http.Request, endpoint string) {
	key := callerKey(r.Context())
	if key == nil {
		return
	}
	if err := s.deps.Keys.LogUsage(r.Context(), key.ID, endpoint, 0); err != nil {
		s.log.WarnContext(r.Context(), "Failed to log usage", "key", key.ID, "endpoint", endpoint, "error", err)
	}
}
