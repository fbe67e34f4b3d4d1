package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hallowtide/atelier/economy"
	"github.com/hallowtide/atelier/gacha"
)

// ErrorResponse is the JSON error body. Kind is machine-readable; Message is
// for humans.
type ErrorResponse struct {
	Kind    string `json:"error"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, kind, message string) {
	writeJSON(w, status, ErrorResponse{Kind: kind, Message: message})
}

// writeServiceError maps economy errors onto HTTP statuses. Balance and stock
// failures are client errors; a pool configuration defect is a server error.
func writeServiceError(log *slog.Logger, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, economy.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, economy.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden", err.Error())
	case errors.Is(err, economy.ErrInsufficientCurrency):
		writeError(w, http.StatusBadRequest, "insufficient_currency", err.Error())
	case errors.Is(err, economy.ErrStockExhausted):
		writeError(w, http.StatusBadRequest, "stock_exhausted", err.Error())
	case errors.Is(err, economy.ErrDuplicateRequest):
		writeError(w, http.StatusConflict, "duplicate_request", err.Error())
	case errors.Is(err, economy.ErrTxConflict):
		writeError(w, http.StatusServiceUnavailable, "conflict", "please retry")
	case errors.Is(err, gacha.ErrPoolExhausted):
		log.Error("banner pool misconfigured", "error", err)
		writeError(w, http.StatusInternalServerError, "pool_exhausted", "banner is misconfigured")
	default:
		log.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal", "internal server error")
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid request body")
		return false
	}
	return true
}

// pathID parses a numeric chi URL parameter.
func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id < 1 {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid "+name)
		return 0, false
	}
	return id, true
}
