package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hallowtide/atelier/economy"
)

func (s *Server) handleListOffers(w http.ResponseWriter, r *http.Request) {
	currency := chi.URLParam(r, "currency")
	switch currency {
	case "gold", "silver", "all":
	default:
		writeError(w, http.StatusBadRequest, "bad_request", "currency must be gold, silver or all")
		return
	}
	if currency == "all" {
		currency = ""
	}

	offers, err := s.svc.ListOffers(r.Context(), currency)
	if err != nil {
		writeServiceError(s.log, w, err)
		return
	}
	writeJSON(w, http.StatusOK, offers)
}

type purchaseRequest struct {
	UserID   int64 `json:"user_id"`
	OfferID  int64 `json:"offer_id"`
	Quantity int64 `json:"quantity"`
}

func (s *Server) handlePurchase(w http.ResponseWriter, r *http.Request) {
	var req purchaseRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	if req.Quantity < 1 {
		writeError(w, http.StatusBadRequest, "bad_request", "quantity must be >= 1")
		return
	}

	res, err := s.svc.Purchase(r.Context(), economy.PurchaseInput{
		UserID:         req.UserID,
		OfferID:        req.OfferID,
		Quantity:       req.Quantity,
		IdempotencyKey: r.Header.Get("Idempotency-Key"),
	})
	if err != nil {
		writeServiceError(s.log, w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleListPurchases(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "userID")
	if !ok {
		return
	}
	records, err := s.svc.ListPurchases(r.Context(), userID)
	if err != nil {
		writeServiceError(s.log, w, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}
