package handlers

import "net/http"

func (s *Server) handleListRewards(w http.ResponseWriter, r *http.Request) {
	rewards, err := s.svc.ListRewards(r.Context())
	if err != nil {
		writeServiceError(s.log, w, err)
		return
	}
	writeJSON(w, http.StatusOK, rewards)
}
