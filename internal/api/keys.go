package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/UnknownOlympus/anvesh/internal/apikey"
)

type createKeyRequest struct {
	Name          string `json:"name"`
	Tier          string `json:"tier"`
	ExpiresInDays *int   `json:"expires_in_days"`
}

func (s *Server) createKey(w http.ResponseWriter, r *http.Request) {
	var req createKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.failure(w, r, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if req.Name == "" {
		s.failure(w, r, http.StatusBadRequest, "name is required")
		return
	}
	if req.Tier == "" {
		req.Tier = "free"
	}
	days := 0
	if req.ExpiresInDays != nil {
		days = *req.ExpiresInDays
	}

	created, err := s.deps.Keys.Create(r.Context(), req.Name, req.Tier, days)
	if errors.Is(err, apikey.ErrUnknownTier) {
		s.failure(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		s.internalError(w, r, "create key", err)
		return
	}

	s.success(w, r, http.StatusCreated, "API key created successfully", created)
}

func (s *Server) listKeys(w http.ResponseWriter, r *http.Request) {
	keys, err := s.deps.Keys.List(r.Context())
	if err != nil {
		s.internalError(w, r, "list keys", err)
		return
	}
	s.success(w, r, http.StatusOK, "API keys retrieved", keys)
}

// keyID parses the {id} path value. It writes the error response itself and reports false on failure.
func (s *Server) keyID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		s.failure(w, r, http.StatusBadRequest, "Invalid key id")
		return 0, false
	}
	return id, true
}

// keyError maps key lookup errors to responses.
func (s *Server) keyError(w http.ResponseWriter, r *http.Request, op string, err error) {
	if errors.Is(err, apikey.ErrKeyNotFound) {
		s.failure(w, r, http.StatusNotFound, "API key not found")
		return
	}
	s.internalError(w, r, op, err)
}

func (s *Server) getKey(w http.ResponseWriter, r *http.Request) {
	id, ok := s.keyID(w, r)
	if !ok {
		return
	}
	key, err := s.deps.Keys.Get(r.Context(), id)
	if err != nil {
		s.keyError(w, r, "get key", err)
		return
	}
	s.success(w, r, http.StatusOK, "API key retrieved", key)
}

func (s *Server) keyUsage(w http.ResponseWriter, r *http.Request) {
	id, ok := s.keyID(w, r)
	if !ok {
		return
	}
	usage, err := s.deps.Keys.Usage(r.Context(), id)
	if err != nil {
		s.keyError(w, r, "key usage", err)
		return
	}
	s.success(w, r, http.StatusOK, "Usage stats retrieved", usage)
}

func (s *Server) revokeKey(w http.ResponseWriter, r *http.Request) {
	id, ok := s.keyID(w, r)
	if !ok {
		return
	}
	if err := s.deps.Keys.Revoke(r.Context(), id); err != nil {
		s.keyError(w, r, "revoke key", err)
		return
	}
	s.success(w, r, http.StatusOK, fmt.Sprintf("API key %d revoked", id), nil)
}

func (s *Server) deleteKey(w http.ResponseWriter, r *http.Request) {
	id, ok := s.keyID(w, r)
	if !ok {
		return
	}
	if err := s.deps.Keys.Delete(r.Context(), id); err != nil {
		s.keyError(w, r, "delete key", err)
		return
	}
	s.success(w, r, http.StatusOK, fmt.Sprintf("API key %d deleted", id), nil)
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	key, err := s.deps.Keys.Get(r.Context(), callerKey(r.Context()).ID)
	if err != nil {
		s.keyError(w, r, "me", err)
		return
	}
	s.success(w, r, http.StatusOK, "Your API key info", key)
}

func (s *Server) myUsage(w http.ResponseWriter, r *http.Request) {
	usage, err := s.deps.Keys.Usage(r.Context(), callerKey(r.Context()).ID)
	if err != nil {
		s.keyError(w, r, "my usage", err)
		return
	}
	s.success(w, r, http.StatusOK, "Your usage stats", usage)
}
