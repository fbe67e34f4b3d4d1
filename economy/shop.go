package economy

import (
	"context"
	"fmt"

	"github.com/hallowtide/atelier/gacha"
)

// Offer is one shop listing with its remaining stock.
type Offer struct {
	ID              int64      `json:"id"`
	RewardID        int64      `json:"reward_id,omitempty"`
	RewardName      string     `json:"reward_name,omitempty"`
	RewardTier      gacha.Tier `json:"reward_tier,omitempty"`
	Currency        string     `json:"currency"`
	Price           int64      `json:"price"`
	BundleKind      string     `json:"bundle_kind,omitempty"`
	BundleQuantity  int64      `json:"bundle_quantity"`
	UserLimit       *int64     `json:"user_limit,omitempty"`
	GlobalLimit     *int64     `json:"global_limit,omitempty"`
	GlobalRemaining *int64     `json:"global_remaining,omitempty"`
	IsFeatured      bool       `json:"is_featured"`
}

// ListOffers returns shop offers priced in the given currency, or every offer
// when currency is empty.
func (s *Service) ListOffers(ctx context.Context, currency string) ([]Offer, error) {
	rows, err := s.db.Query(ctx, `
		SELECT o.id, o.reward_id, COALESCE(r.name, ''), COALESCE(r.tier, ''),
		       o.currency, o.price, o.bundle_kind, o.bundle_quantity,
		       o.user_limit, o.global_limit, o.global_consumed, o.is_featured
		FROM shop_offers o
		LEFT JOIN rewards r ON r.id = o.reward_id
		WHERE $1 = '' OR o.currency = $1
		ORDER BY o.is_featured DESC, o.price, o.id
	`, currency)
	if err != nil {
		return nil, fmt.Errorf("list offers: %w", err)
	}
	defer rows.Close()

	out := []Offer{}
	for rows.Next() {
		var o Offer
		var rewardID *int64
		var bundleKind *string
		var consumed int64
		err := rows.Scan(&o.ID, &rewardID, &o.RewardName, &o.RewardTier,
			&o.Currency, &o.Price, &bundleKind, &o.BundleQuantity,
			&o.UserLimit, &o.GlobalLimit, &consumed, &o.IsFeatured)
		if err != nil {
			return nil, fmt.Errorf("scan offer: %w", err)
		}
		if rewardID != nil {
			o.RewardID = *rewardID
		}
		if bundleKind != nil {
			o.BundleKind = *bundleKind
		}
		if o.GlobalLimit != nil {
			remaining := *o.GlobalLimit - consumed
			if remaining < 0 {
				remaining = 0
			}
			o.GlobalRemaining = &remaining
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// PurchaseRecord is a user's consumption counter for one offer.
type PurchaseRecord struct {
	OfferID  int64 `json:"offer_id"`
	Consumed int64 `json:"consumed"`
}

// ListPurchases returns the user's per-offer consumption counters.
func (s *Service) ListPurchases(ctx context.Context, userID int64) ([]PurchaseRecord, error) {
	if _, err := s.GetUser(ctx, userID); err != nil {
		return nil, err
	}
	rows, err := s.db.Query(ctx, `
		SELECT offer_id, consumed FROM shop_purchases
		WHERE user_id = $1 AND consumed > 0
		ORDER BY offer_id
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list purchases: %w", err)
	}
	defer rows.Close()

	out := []PurchaseRecord{}
	for rows.Next() {
		var p PurchaseRecord
		if err := rows.Scan(&p.OfferID, &p.Consumed); err != nil {
			return nil, fmt.Errorf("scan purchase record: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
