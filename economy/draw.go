package economy

import (
	"context"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"

	"github.com/hallowtide/atelier/gacha"
	"github.com/hallowtide/atelier/metrics"
)

// DrawInput is one draw request. Count pulls cost Count spin tokens.
type DrawInput struct {
	UserID         int64
	BannerID       int64
	Count          int
	IdempotencyKey string
}

// DrawOutcome is one resolved pull with its granted inventory entry.
type DrawOutcome struct {
	InventoryID int64      `json:"inventory_id"`
	RewardID    int64      `json:"reward_id"`
	Name        string     `json:"name"`
	Tier        gacha.Tier `json:"tier"`
	Featured    bool       `json:"featured"`
}

// DrawResult is the committed result of a draw operation.
type DrawResult struct {
	Outcomes   []DrawOutcome   `json:"outcomes"`
	Pity       gacha.PityState `json:"pity"`
	SpinTokens int64           `json:"spin_tokens"`
}

// Draw debits spin tokens, resolves Count pulls threading the pity state
// through each, grants the rewards and appends history — all in one atomic
// unit. Balance and pool checks run before any effect, so a failed draw
// leaves every row untouched.
func (s *Service) Draw(ctx context.Context, in DrawInput) (DrawResult, error) {
	if in.Count < 1 {
		return DrawResult{}, fmt.Errorf("count must be >= 1")
	}

	var out DrawResult
	err := s.inSerializableTx(ctx, "draw", func(tx pgx.Tx) error {
		out = DrawResult{}
		if err := claimIdempotency(ctx, tx, in.UserID, in.IdempotencyKey, "draw"); err != nil {
			return err
		}

		user, err := lockUser(ctx, tx, in.UserID)
		if err != nil {
			return err
		}
		if user.SpinTokens < int64(in.Count) {
			return fmt.Errorf("need %d spin tokens, have %d: %w",
				in.Count, user.SpinTokens, ErrInsufficientCurrency)
		}

		pool, err := loadBanner(ctx, tx, in.BannerID)
		if err != nil {
			return err
		}
		pity, err := lockPity(ctx, tx, in.UserID, in.BannerID)
		if err != nil {
			return err
		}

		outcomes, finalPity, err := s.rates.ResolveN(pity, pool, s.sampler, in.Count)
		if err != nil {
			return err
		}

		if err := debitSpins(ctx, tx, in.UserID, int64(in.Count)); err != nil {
			return err
		}

		now := s.clock.Now().UTC()
		for i, outcome := range outcomes {
			entryID, name, err := grantReward(ctx, tx, in.UserID, outcome.RewardID, outcome.Tier)
			if err != nil {
				return err
			}
			_, err = tx.Exec(ctx, `
				INSERT INTO draw_history (user_id, banner_id, reward_id, tier, was_featured, pull_number, pulled_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7)
			`, in.UserID, in.BannerID, outcome.RewardID, outcome.Tier, outcome.Featured, i+1, now)
			if err != nil {
				return fmt.Errorf("record draw: %w", err)
			}
			out.Outcomes = append(out.Outcomes, DrawOutcome{
				InventoryID: entryID,
				RewardID:    outcome.RewardID,
				Name:        name,
				Tier:        outcome.Tier,
				Featured:    outcome.Featured,
			})
		}

		if err := savePity(ctx, tx, in.UserID, in.BannerID, finalPity); err != nil {
			return err
		}

		out.Pity = finalPity
		out.SpinTokens = user.SpinTokens - int64(in.Count)
		return nil
	})
	if err != nil {
		return DrawResult{}, err
	}

	for _, o := range out.Outcomes {
		metrics.DrawsTotal.WithLabelValues(string(o.Tier), strconv.FormatBool(o.Featured)).Inc()
	}
	s.log.Info("draw committed",
		"user_id", in.UserID, "banner_id", in.BannerID, "count", in.Count,
		"pulls_since_legendary", out.Pity.PullsSinceLegendary)
	return out, nil
}

// debitSpins removes spin tokens from the locked user row. The non-negative
// CHECK constraint backstops the balance check above.
func debitSpins(ctx context.Context, tx pgx.Tx, userID, count int64) error {
	_, err := tx.Exec(ctx, `
		UPDATE users SET spin_tokens = spin_tokens - $2 WHERE id = $1
	`, userID, count)
	if err != nil {
		return fmt.Errorf("debit spin tokens: %w", err)
	}
	return nil
}

// grantReward inserts one inventory entry. The first copy of an epic-or-
// better reward is auto-favorited; duplicates never are.
func grantReward(ctx context.Context, tx pgx.Tx, userID, rewardID int64, tier gacha.Tier) (int64, string, error) {
	var owned bool
	err := tx.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM inventory WHERE user_id = $1 AND reward_id = $2)
	`, userID, rewardID).Scan(&owned)
	if err != nil {
		return 0, "", fmt.Errorf("check owned copies: %w", err)
	}
	favorite := !owned && tier.AtLeast(gacha.TierEpic)

	var entryID int64
	err = tx.QueryRow(ctx, `
		INSERT INTO inventory (user_id, reward_id, favorited)
		VALUES ($1, $2, $3)
		RETURNING id
	`, userID, rewardID, favorite).Scan(&entryID)
	if err != nil {
		return 0, "", fmt.Errorf("grant inventory entry: %w", err)
	}

	var name string
	err = tx.QueryRow(ctx, `SELECT name FROM rewards WHERE id = $1`, rewardID).Scan(&name)
	if err != nil {
		return 0, "", fmt.Errorf("load reward name: %w", err)
	}
	return entryID, name, nil
}
