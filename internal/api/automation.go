package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/UnknownOlympus/anvesh/internal/export"
	"github.com/UnknownOlympus/anvesh/internal/models"
	"github.com/UnknownOlympus/anvesh/internal/orchestrator"
)

type startRequest struct {
	Industry         string   `json:"industry"`
	Locations        []string `json:"locations"`
	LimitPerLocation *int     `json:"limit_per_location"`
}

func (s *Server) startAutomation(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.failure(w, r, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	s.logUsage(r, models.EndpointStart)

	cfg := models.TaskConfig{Industry: req.Industry, Locations: req.Locations, LimitPerLocation: models.Unlimited}
	if req.LimitPerLocation != nil {
		cfg.LimitPerLocation = *req.LimitPerLocation
	}

	id, err := s.deps.Tasks.Create(cfg, callerKey(r.Context()).ID)
	if errors.Is(err, orchestrator.ErrInvalidConfig) {
		s.failure(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		s.internalError(w, r, "start automation", err)
		return
	}

	s.success(w, r, http.StatusCreated, "Automation task started", map[string]string{"task_id": id})
}

func (s *Server) stopAllAutomation(w http.ResponseWriter, r *http.Request) {
	s.logUsage(r, models.EndpointStop)

	count := s.deps.Tasks.StopAll()
	if count == 0 {
		s.success(w, r, http.StatusOK, "No running automation found", map[string]int{"tasks_stopped": 0})
		return
	}
	s.success(w, r, http.StatusOK, fmt.Sprintf("Stop signal sent to %d tasks", count),
		map[string]int{"tasks_stopped": count})
}

func (s *Server) stopTask(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	stopped, err := s.deps.Tasks.Stop(id)
	if errors.Is(err, orchestrator.ErrTaskNotFound) {
		s.failure(w, r, http.StatusNotFound, "Task not found")
		return
	}
	if err != nil {
		s.internalError(w, r, "stop task", err)
		return
	}

	if stopped == 0 {
		task, _ := s.deps.Tasks.Status(id)
		s.success(w, r, http.StatusOK, "Task is not running", map[string]any{"task_id": id, "status": task.Status})
		return
	}
	s.success(w, r, http.StatusOK, "Stop signal sent", map[string]string{"task_id": id})
}

func (s *Server) taskStatus(w http.ResponseWriter, r *http.Request) {
	task, err := s.deps.Tasks.Status(r.PathValue("id"))
	if errors.Is(err, orchestrator.ErrTaskNotFound) {
		s.failure(w, r, http.StatusNotFound, "Task not found")
		return
	}
	if err != nil {
		s.internalError(w, r, "task status", err)
		return
	}
	s.success(w, r, http.StatusOK, "Task status retrieved", task)
}

func (s *Server) listTasks(w http.ResponseWriter, r *http.Request) {
	tasks := s.deps.Tasks.List()
	s.success(w, r, http.StatusOK, "All tasks retrieved", map[string]any{"tasks": tasks, "count": len(tasks)})
}

func (s *Server) exportLeads(w http.ResponseWriter, r *http.Request) {
	s.logUsage(r, models.EndpointExport)

	leads, err := s.deps.Leads.ListLeads(r.Context())
	if err != nil {
		s.internalError(w, r, "export leads", err)
		return
	}
	if len(leads) == 0 {
		s.success(w, r, http.StatusOK, "No data found", map[string]int{"count": 0})
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="leads_export.csv"`)
	if err = export.WriteCSV(w, leads); err != nil {
		s.log.ErrorContext(r.Context(), "Failed to stream export", "error", err)
	}
}
