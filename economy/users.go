package economy

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// User is an account row with its token balances.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	GoldTokens   int64     `json:"gold_tokens"`
	SilverTokens int64     `json:"silver_tokens"`
	SpinTokens   int64     `json:"spin_tokens"`
	CreatedAt    time.Time `json:"created_at"`
}

const userColumns = `id, username, gold_tokens, silver_tokens, spin_tokens, created_at`

func scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.GoldTokens, &u.SilverTokens, &u.SpinTokens, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, fmt.Errorf("user: %w", ErrNotFound)
	}
	if err != nil {
		return User{}, fmt.Errorf("scan user: %w", err)
	}
	return u, nil
}

// GetOrCreateUser returns the user with the given username, creating the
// account on first sight.
func (s *Service) GetOrCreateUser(ctx context.Context, username string) (User, error) {
	if username == "" {
		return User{}, errors.New("username is required")
	}
	_, err := s.db.Exec(ctx, `
		INSERT INTO users (username) VALUES ($1)
		ON CONFLICT (username) DO NOTHING
	`, username)
	if err != nil {
		return User{}, fmt.Errorf("create user: %w", err)
	}
	return scanUser(s.db.QueryRow(ctx, `
		SELECT `+userColumns+` FROM users WHERE username = $1
	`, username))
}

// GetUser returns one user by id.
func (s *Service) GetUser(ctx context.Context, userID int64) (User, error) {
	return scanUser(s.db.QueryRow(ctx, `
		SELECT `+userColumns+` FROM users WHERE id = $1
	`, userID))
}

// GrantTokens credits token balances directly. Development tooling only; the
// regular economy paths never credit without a matching debit or salvage.
func (s *Service) GrantTokens(ctx context.Context, userID, gold, silver, spins int64) (User, error) {
	var out User
	err := s.inSerializableTx(ctx, "grant_tokens", func(tx pgx.Tx) error {
		u, err := scanUser(tx.QueryRow(ctx, `
			UPDATE users
			SET gold_tokens = gold_tokens + $2,
			    silver_tokens = silver_tokens + $3,
			    spin_tokens = spin_tokens + $4
			WHERE id = $1
			RETURNING `+userColumns+`
		`, userID, gold, silver, spins))
		if err != nil {
			return err
		}
		out = u
		return nil
	})
	return out, err
}

// lockUser locks the user row for the duration of the transaction and
// returns the current balances.
func lockUser(ctx context.Context, tx pgx.Tx, userID int64) (User, error) {
	return scanUser(tx.QueryRow(ctx, `
		SELECT `+userColumns+` FROM users WHERE id = $1 FOR UPDATE
	`, userID))
}

// Stats summarizes a user's economy activity.
type Stats struct {
	GoldEarned      int64            `json:"gold_earned"`
	SilverEarned    int64            `json:"silver_earned"`
	SalvagedByTier  map[string]int64 `json:"salvaged_by_tier"`
	TotalSalvaged   int64            `json:"total_salvaged"`
	InventoryCount  int64            `json:"inventory_count"`
	TotalDraws      int64            `json:"total_draws"`
	LegendaryDraws  int64            `json:"legendary_draws"`
	EpicDraws       int64            `json:"epic_draws"`
	FeaturedDraws   int64            `json:"featured_draws"`
	PurchasedOffers int64            `json:"purchased_offers"`
}

// Stats aggregates history and inventory counters for one user.
func (s *Service) Stats(ctx context.Context, userID int64) (Stats, error) {
	if _, err := s.GetUser(ctx, userID); err != nil {
		return Stats{}, err
	}

	out := Stats{SalvagedByTier: map[string]int64{}}

	err := s.db.QueryRow(ctx, `
		SELECT COALESCE(SUM(gold_earned), 0), COALESCE(SUM(silver_earned), 0), COUNT(*)
		FROM salvage_history WHERE user_id = $1
	`, userID).Scan(&out.GoldEarned, &out.SilverEarned, &out.TotalSalvaged)
	if err != nil {
		return Stats{}, fmt.Errorf("salvage totals: %w", err)
	}

	rows, err := s.db.Query(ctx, `
		SELECT tier, COUNT(*) FROM salvage_history WHERE user_id = $1 GROUP BY tier
	`, userID)
	if err != nil {
		return Stats{}, fmt.Errorf("salvage by tier: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var tier string
		var count int64
		if err := rows.Scan(&tier, &count); err != nil {
			return Stats{}, fmt.Errorf("scan salvage tier: %w", err)
		}
		out.SalvagedByTier[tier] = count
	}
	if err := rows.Err(); err != nil {
		return Stats{}, err
	}

	err = s.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM inventory WHERE user_id = $1
	`, userID).Scan(&out.InventoryCount)
	if err != nil {
		return Stats{}, fmt.Errorf("inventory count: %w", err)
	}

	err = s.db.QueryRow(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE tier = 'legendary'),
		       COUNT(*) FILTER (WHERE tier = 'epic'),
		       COUNT(*) FILTER (WHERE was_featured)
		FROM draw_history WHERE user_id = $1
	`, userID).Scan(&out.TotalDraws, &out.LegendaryDraws, &out.EpicDraws, &out.FeaturedDraws)
	if err != nil {
		return Stats{}, fmt.Errorf("draw totals: %w", err)
	}

	err = s.db.QueryRow(ctx, `
		SELECT COALESCE(SUM(consumed), 0) FROM shop_purchases WHERE user_id = $1
	`, userID).Scan(&out.PurchasedOffers)
	if err != nil {
		return Stats{}, fmt.Errorf("purchase totals: %w", err)
	}

	return out, nil
}
