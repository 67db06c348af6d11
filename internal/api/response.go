package api

import (
	"encoding/json"
	"net/http"
)

// envelope is the body of every JSON response.
type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data"`
	Error   bool   `json:"error"`
}

func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.log.ErrorContext(r.Context(), "failed to encode response", "error", err)
	}
}

func (s *Server) success(w http.ResponseWriter, r *http.Request, status int, message string, data any) {
	s.writeJSON(w, r, status, envelope{Success: true, Message: message, Data: data})
}

func (s *Server) failure(w http.ResponseWriter, r *http.Request, status int, message string) {
	s.writeJSON(w, r, status, envelope{Message: message, Error: true})
}

// internalError logs err and answers with a generic 500.
func (s *Server) internalError(w http.ResponseWriter, r *http.Request, op string, err error) {
	s.log.ErrorContext(r.Context(), "Request failed", "op", op, "error", err)
	s.failure(w, r, http.StatusInternalServerError, "Internal server error")
}
