package api

import (
	"fmt"
	"net/http"
)

func (s *Server) adminTasks(w http.ResponseWriter, r *http.Request) {
	stats := s.deps.Tasks.Stats()
	s.success(w, r, http.StatusOK, "All tasks retrieved", map[string]any{
		"summary": stats.Tasks,
		"tasks":   s.deps.Tasks.List(),
	})
}

func (s *Server) adminStopAll(w http.ResponseWriter, r *http.Request) {
	count := s.deps.Tasks.StopAll()
	s.log.WarnContext(r.Context(), "Admin stop-all issued", "tasks_stopped", count)
	s.success(w, r, http.StatusOK, fmt.Sprintf("Stop signal sent to %d tasks", count),
		map[string]int{"tasks_stopped": count})
}

func (s *Server) adminStats(w http.ResponseWriter, r *http.Request) {
	s.success(w, r, http.StatusOK, "System statistics retrieved", s.deps.Tasks.Stats())
}
