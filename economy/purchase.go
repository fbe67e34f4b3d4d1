package economy

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/hallowtide/atelier/gacha"
	"github.com/hallowtide/atelier/metrics"
)

// PurchaseInput is one shop purchase request.
type PurchaseInput struct {
	UserID         int64
	OfferID        int64
	Quantity       int64
	IdempotencyKey string
}

// PurchaseResult is the committed result of a purchase.
type PurchaseResult struct {
	User         User    `json:"user"`
	InventoryIDs []int64 `json:"inventory_ids,omitempty"`
}

// offerRow mirrors one shop_offers row under lock.
type offerRow struct {
	rewardID       *int64
	rewardTier     gacha.Tier
	currency       string
	price          int64
	bundleKind     *string
	bundleQuantity int64
	userLimit      *int64
	globalLimit    *int64
	globalConsumed int64
}

// Purchase debits the offer's currency, enforces global and per-user stock
// limits and grants the purchased goods, all in one atomic unit. The stock
// check and the debit run inside the same transaction against locked rows;
// two concurrent purchases of the last unit can never both commit.
func (s *Service) Purchase(ctx context.Context, in PurchaseInput) (PurchaseResult, error) {
	if in.Quantity < 1 {
		return PurchaseResult{}, fmt.Errorf("quantity must be >= 1")
	}

	var out PurchaseResult
	var currency string
	err := s.inSerializableTx(ctx, "purchase", func(tx pgx.Tx) error {
		out = PurchaseResult{}
		if err := claimIdempotency(ctx, tx, in.UserID, in.IdempotencyKey, "purchase"); err != nil {
			return err
		}

		user, err := lockUser(ctx, tx, in.UserID)
		if err != nil {
			return err
		}
		offer, err := lockOffer(ctx, tx, in.OfferID)
		if err != nil {
			return err
		}
		currency = offer.currency

		totalCost := offer.price * in.Quantity
		balance := user.GoldTokens
		if offer.currency == "silver" {
			balance = user.SilverTokens
		}
		if balance < totalCost {
			return fmt.Errorf("need %d %s tokens, have %d: %w",
				totalCost, offer.currency, balance, ErrInsufficientCurrency)
		}

		if offer.globalLimit != nil && offer.globalConsumed+in.Quantity > *offer.globalLimit {
			return fmt.Errorf("offer %d global limit reached: %w", in.OfferID, ErrStockExhausted)
		}
		consumed, err := lockUserConsumption(ctx, tx, in.UserID, in.OfferID)
		if err != nil {
			return err
		}
		if offer.userLimit != nil && consumed+in.Quantity > *offer.userLimit {
			return fmt.Errorf("offer %d per-user limit reached: %w", in.OfferID, ErrStockExhausted)
		}

		if err := debitTokens(ctx, tx, in.UserID, offer.currency, totalCost); err != nil {
			return err
		}
		if err := bumpStock(ctx, tx, in.UserID, in.OfferID, in.Quantity); err != nil {
			return err
		}

		if offer.rewardID != nil {
			for i := int64(0); i < in.Quantity; i++ {
				entryID, _, err := grantReward(ctx, tx, in.UserID, *offer.rewardID, offer.rewardTier)
				if err != nil {
					return err
				}
				out.InventoryIDs = append(out.InventoryIDs, entryID)
			}
		}
		if offer.bundleKind != nil && *offer.bundleKind == "spin_tokens" {
			granted := offer.bundleQuantity * in.Quantity
			_, err := tx.Exec(ctx, `
				UPDATE users SET spin_tokens = spin_tokens + $2 WHERE id = $1
			`, in.UserID, granted)
			if err != nil {
				return fmt.Errorf("credit spin tokens: %w", err)
			}
		}

		after, err := scanUser(tx.QueryRow(ctx, `
			SELECT `+userColumns+` FROM users WHERE id = $1
		`, in.UserID))
		if err != nil {
			return err
		}
		out.User = after
		return nil
	})
	if err != nil {
		return PurchaseResult{}, err
	}

	metrics.PurchasesTotal.WithLabelValues(currency).Inc()
	s.log.Info("purchase committed",
		"user_id", in.UserID, "offer_id", in.OfferID, "quantity", in.Quantity)
	return out, nil
}

func lockOffer(ctx context.Context, tx pgx.Tx, offerID int64) (offerRow, error) {
	var o offerRow
	err := tx.QueryRow(ctx, `
		SELECT reward_id, currency, price, bundle_kind, bundle_quantity,
		       user_limit, global_limit, global_consumed
		FROM shop_offers
		WHERE id = $1
		FOR UPDATE
	`, offerID).Scan(&o.rewardID, &o.currency, &o.price, &o.bundleKind, &o.bundleQuantity,
		&o.userLimit, &o.globalLimit, &o.globalConsumed)
	if errors.Is(err, pgx.ErrNoRows) {
		return offerRow{}, fmt.Errorf("offer %d: %w", offerID, ErrNotFound)
	}
	if err != nil {
		return offerRow{}, fmt.Errorf("lock offer: %w", err)
	}
	if o.rewardID != nil {
		err = tx.QueryRow(ctx, `SELECT tier FROM rewards WHERE id = $1`, *o.rewardID).Scan(&o.rewardTier)
		if err != nil {
			return offerRow{}, fmt.Errorf("load offer reward tier: %w", err)
		}
	}
	return o, nil
}

// lockUserConsumption returns the user's consumed count for the offer,
// creating and locking the counter row.
func lockUserConsumption(ctx context.Context, tx pgx.Tx, userID, offerID int64) (int64, error) {
	_, err := tx.Exec(ctx, `
		INSERT INTO shop_purchases (user_id, offer_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, offer_id) DO NOTHING
	`, userID, offerID)
	if err != nil {
		return 0, fmt.Errorf("init purchase counter: %w", err)
	}
	var consumed int64
	err = tx.QueryRow(ctx, `
		SELECT consumed FROM shop_purchases
		WHERE user_id = $1 AND offer_id = $2
		FOR UPDATE
	`, userID, offerID).Scan(&consumed)
	if err != nil {
		return 0, fmt.Errorf("lock purchase counter: %w", err)
	}
	return consumed, nil
}

func debitTokens(ctx context.Context, tx pgx.Tx, userID int64, currency string, amount int64) error {
	var query string
	switch currency {
	case "gold":
		query = `UPDATE users SET gold_tokens = gold_tokens - $2 WHERE id = $1`
	case "silver":
		query = `UPDATE users SET silver_tokens = silver_tokens - $2 WHERE id = $1`
	default:
		return fmt.Errorf("unknown currency %q", currency)
	}
	if _, err := tx.Exec(ctx, query, userID, amount); err != nil {
		return fmt.Errorf("debit %s tokens: %w", currency, err)
	}
	return nil
}

// bumpStock increments both applicable stock counters.
func bumpStock(ctx context.Context, tx pgx.Tx, userID, offerID, quantity int64) error {
	_, err := tx.Exec(ctx, `
		UPDATE shop_offers SET global_consumed = global_consumed + $2 WHERE id = $1
	`, offerID, quantity)
	if err != nil {
		return fmt.Errorf("bump global stock: %w", err)
	}
	_, err = tx.Exec(ctx, `
		UPDATE shop_purchases SET consumed = consumed + $3
		WHERE user_id = $1 AND offer_id = $2
	`, userID, offerID, quantity)
	if err != nil {
		return fmt.Errorf("bump user stock: %w", err)
	}
	return nil
}
