package handlers

import (
	"net/http"
)

func (s *Server) handleListInventory(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "userID")
	if !ok {
		return
	}
	entries, err := s.svc.ListInventory(r.Context(), userID)
	if err != nil {
		writeServiceError(s.log, w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

type favoriteRequest struct {
	UserID    int64 `json:"user_id"`
	Favorited bool  `json:"favorited"`
}

func (s *Server) handleSetFavorite(w http.ResponseWriter, r *http.Request) {
	entryID, ok := pathID(w, r, "entryID")
	if !ok {
		return
	}
	var req favoriteRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := s.svc.SetFavorite(r.Context(), req.UserID, entryID, req.Favorited); err != nil {
		writeServiceError(s.log, w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": entryID, "favorited": req.Favorited})
}

type salvageRequest struct {
	UserID   int64   `json:"user_id"`
	EntryIDs []int64 `json:"entry_ids"`
}

func (s *Server) handleSalvage(w http.ResponseWriter, r *http.Request) {
	var req salvageRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if len(req.EntryIDs) == 0 {
		writeError(w, http.StatusBadRequest, "bad_request", "entry_ids is required")
		return
	}
	res, err := s.svc.Salvage(r.Context(), req.UserID, req.EntryIDs)
	if err != nil {
		writeServiceError(s.log, w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type salvageDuplicatesRequest struct {
	UserID        int64 `json:"user_id"`
	KeepFavorited bool  `json:"keep_favorited"`
}

func (s *Server) handleSalvageDuplicates(w http.ResponseWriter, r *http.Request) {
	var req salvageDuplicatesRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := s.svc.SalvageDuplicates(r.Context(), req.UserID, req.KeepFavorited)
	if err != nil {
		writeServiceError(s.log, w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
