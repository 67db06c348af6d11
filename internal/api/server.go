// Package api exposes automation, key management and admin operations over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/UnknownOlympus/anvesh/internal/metrics"
	"github.com/UnknownOlympus/anvesh/internal/models"
	"github.com/UnknownOlympus/anvesh/internal/orchestrator"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// TaskRunner is the automation side of the API.
type TaskRunner interface {
	Create(cfg models.TaskConfig, ownerKeyID int64) (string, error)
	Stop(id string) (int, error)
	StopAll() int
	Status(id string) (models.Task, error)
	List() []models.Task
	Stats() orchestrator.Stats
}

// KeyManager manages API keys and their usage log.
type KeyManager interface {
	Create(ctx context.Context, name, tier string, expiresInDays int) (*models.CreatedKey, error)
	Get(ctx context.Context, id int64) (*models.APIKey, error)
	List(ctx context.Context) ([]models.APIKey, error)
	Revoke(ctx context.Context, id int64) error
	Delete(ctx context.Context, id int64) error
	Usage(ctx context.Context, id int64) (*models.Usage, error)
	LogUsage(ctx context.Context, keyID int64, endpoint string, leads int) error
}

// Authorizer resolves the X-API-Key header to a key allowed to make the request.
type Authorizer interface {
	Authorize(ctx context.Context, token string) (*models.KeyInfo, error)
}

// LeadLister reads stored leads for export.
type LeadLister interface {
	ListLeads(ctx context.Context) ([]models.Lead, error)
}

// Pinger reports storage health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the collaborators of the HTTP server.
type Deps struct {
	Tasks       TaskRunner
	Keys        KeyManager
	Gate        Authorizer
	Leads       LeadLister
	DB          Pinger
	Gatherer    prometheus.Gatherer
	AdminSecret string
	Log         *slog.Logger
	Metrics     *metrics.Metrics
}

type Server struct {
	deps Deps
	log  *slog.Logger
	mux  *http.ServeMux
}

func NewServer(deps Deps) *Server {
	s := &Server{deps: deps, log: deps.Log, mux: http.NewServeMux()}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.handle("POST /automation/start", s.requireKey(s.startAutomation))
	s.handle("POST /automation/stop", s.requireKey(s.stopAllAutomation))
	s.handle("POST /automation/tasks/{id}/stop", s.requireKey(s.stopTask))
	s.handle("GET /automation/tasks/{id}", s.requireKey(s.taskStatus))
	s.handle("GET /automation/tasks", s.requireKey(s.listTasks))
	s.handle("GET /automation/export", s.requireKey(s.exportLeads))

	s.handle("POST /admin/keys", s.requireAdmin(s.createKey))
	s.handle("GET /admin/keys", s.requireAdmin(s.listKeys))
	s.handle("GET /admin/keys/{id}", s.requireAdmin(s.getKey))
	s.handle("GET /admin/keys/{id}/usage", s.requireAdmin(s.keyUsage))
	s.handle("POST /admin/keys/{id}/revoke", s.requireAdmin(s.revokeKey))
	s.handle("DELETE /admin/keys/{id}", s.requireAdmin(s.deleteKey))

	s.handle("GET /admin/automation/tasks", s.requireAdmin(s.adminTasks))
	s.handle("POST /admin/automation/stop-all", s.requireAdmin(s.adminStopAll))
	s.handle("GET /admin/automation/stats", s.requireAdmin(s.adminStats))

	s.handle("GET /me", s.requireKey(s.me))
	s.handle("GET /me/usage", s.requireKey(s.myUsage))

	s.handle("GET /healthz", s.healthz)
	if s.deps.Gatherer != nil {
		s.mux.Handle("GET /metrics", promhttp.HandlerFor(s.deps.Gatherer, promhttp.HandlerOpts{}))
	}
}

// handle registers h behind the request metrics middleware, labelled by the pattern's path.
func (s *Server) handle(pattern string, h http.HandlerFunc) {
	_, endpoint, _ := strings.Cut(pattern, " ")
	s.mux.Handle(pattern, s.instrument(endpoint, h))
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Run serves on port until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, port int) error {
	const (
		readTimeout     = 5 * time.Second
		writeTimeout    = 30 * time.Second
		shutdownTimeout = 10 * time.Second
	)
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      s,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.InfoContext(ctx, "Starting API server", "port", port)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("failed to serve API: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down API server: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to serve API: %w", err)
	}
	s.log.InfoContext(ctx, "API server stopped")
	return nil
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	status, body := http.StatusOK, "OK"
	if err := s.deps.DB.Ping(r.Context()); err != nil {
		s.log.WarnContext(r.Context(), "Health check failed", "error", err)
		status, body = http.StatusServiceUnavailable, "DB ping failed"
	}
	w.WriteHeader(status)
	if _, err := w.Write([]byte(body)); err != nil {
		s.log.ErrorContext(r.Context(), "failed to write reply", "error", err)
	}
}
