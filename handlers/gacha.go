package handlers

import (
	"net/http"

	"github.com/hallowtide/atelier/economy"
)

func (s *Server) handleActiveBanner(w http.ResponseWriter, r *http.Request) {
	banner, rewards, err := s.svc.ActiveBanner(r.Context())
	if err != nil {
		writeServiceError(s.log, w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"banner":  banner,
		"rewards": rewards,
	})
}

func (s *Server) handleGachaState(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "userID")
	if !ok {
		return
	}
	bannerID, ok := pathID(w, r, "bannerID")
	if !ok {
		return
	}
	st, err := s.svc.PityFor(r.Context(), userID, bannerID)
	if err != nil {
		writeServiceError(s.log, w, err)
		return
	}
	rates := s.svc.Rates()
	writeJSON(w, http.StatusOK, map[string]any{
		"pulls_since_legendary": st.PullsSinceLegendary,
		"pulls_since_epic":      st.PullsSinceEpic,
		"guaranteed_featured":   st.GuaranteedFeatured,
		"wished_reward_id":      st.WishedRewardID,
		"current_rate":          rates.LegendaryRate(st.PullsSinceLegendary),
		"hard_pity":             rates.HardPity,
	})
}

type pullRequest struct {
	UserID   int64 `json:"user_id"`
	BannerID int64 `json:"banner_id"`
	Count    int   `json:"count"`
}

func (s *Server) handlePull(w http.ResponseWriter, r *http.Request) {
	var req pullRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Count != 1 && req.Count != 10 {
		writeError(w, http.StatusBadRequest, "bad_request", "count must be 1 or 10")
		return
	}

	res, err := s.svc.Draw(r.Context(), economy.DrawInput{
		UserID:         req.UserID,
		BannerID:       req.BannerID,
		Count:          req.Count,
		IdempotencyKey: r.Header.Get("Idempotency-Key"),
	})
	if err != nil {
		writeServiceError(s.log, w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type wishRequest struct {
	UserID   int64 `json:"user_id"`
	BannerID int64 `json:"banner_id"`
	RewardID int64 `json:"reward_id"` // zero clears the wish
}

func (s *Server) handleSetWish(w http.ResponseWriter, r *http.Request) {
	var req wishRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := s.svc.SetWish(r.Context(), req.UserID, req.BannerID, req.RewardID); err != nil {
		writeServiceError(s.log, w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"wished_reward_id": req.RewardID})
}
