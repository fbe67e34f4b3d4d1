package handlers

import (
	"net/http"
	"strings"
)

type createUserRequest struct {
	Username string `json:"username"`
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "username is required")
		return
	}

	user, err := s.svc.GetOrCreateUser(r.Context(), req.Username)
	if err != nil {
		writeServiceError(s.log, w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	user, err := s.svc.GetUser(r.Context(), userID)
	if err != nil {
		writeServiceError(s.log, w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleGetStats(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "userID")
	if !ok {
		return
	}
	stats, err := s.svc.Stats(r.Context(), userID)
	if err != nil {
		writeServiceError(s.log, w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

type grantTokensRequest struct {
	Gold   int64 `json:"gold"`
	Silver int64 `json:"silver"`
	Spins  int64 `json:"spins"`
}

// handleGrantTokens is mounted only in dev mode.
func (s *Server) handleGrantTokens(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req grantTokensRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	user, err := s.svc.GrantTokens(r.Context(), userID, req.Gold, req.Silver, req.Spins)
	if err != nil {
		writeServiceError(s.log, w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}
