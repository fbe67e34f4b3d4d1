package catalog

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Apply upserts the catalog into the database. Runs in one transaction so a
// half-applied catalog never goes live.
func (c *Catalog) Apply(ctx context.Context, log *slog.Logger, pool *pgxpool.Pool) error {
	tx, err := pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin seed tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	rewardIDs := make(map[string]int64, len(c.Rewards))
	for _, r := range c.Rewards {
		var id int64
		err := tx.QueryRow(ctx, `
			INSERT INTO rewards (name, kind, tier, image_url, description)
			VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''))
			ON CONFLICT (name) DO UPDATE
			SET kind = EXCLUDED.kind,
			    tier = EXCLUDED.tier,
			    image_url = EXCLUDED.image_url,
			    description = EXCLUDED.description
			RETURNING id
		`, r.Name, r.Kind, r.Tier, r.ImageURL, r.Description).Scan(&id)
		if err != nil {
			return fmt.Errorf("upsert reward %q: %w", r.Name, err)
		}
		rewardIDs[r.Name] = id
	}

	for _, b := range c.Banners {
		var featured *int64
		if b.Featured != "" {
			id := rewardIDs[b.Featured]
			featured = &id
		}
		var bannerID int64
		err := tx.QueryRow(ctx, `
			INSERT INTO banners (name, featured_reward_id, is_active)
			VALUES ($1, $2, $3)
			ON CONFLICT (name) DO UPDATE
			SET featured_reward_id = EXCLUDED.featured_reward_id,
			    is_active = EXCLUDED.is_active
			RETURNING id
		`, b.Name, featured, b.Active).Scan(&bannerID)
		if err != nil {
			return fmt.Errorf("upsert banner %q: %w", b.Name, err)
		}
		for _, name := range b.Rewards {
			_, err := tx.Exec(ctx, `
				INSERT INTO banner_rewards (banner_id, reward_id)
				VALUES ($1, $2)
				ON CONFLICT (banner_id, reward_id) DO NOTHING
			`, bannerID, rewardIDs[name])
			if err != nil {
				return fmt.Errorf("link banner %q reward %q: %w", b.Name, name, err)
			}
		}
	}

	for _, o := range c.Offers {
		var rewardID *int64
		if o.Reward != "" {
			id := rewardIDs[o.Reward]
			rewardID = &id
		}
		var bundleKind *string
		if o.BundleKind != "" {
			bundleKind = &o.BundleKind
		}
		bundleQuantity := o.BundleQuantity
		if bundleQuantity == 0 {
			bundleQuantity = 1
		}
		var userLimit, globalLimit *int64
		if o.UserLimit != 0 {
			userLimit = &o.UserLimit
		}
		if o.GlobalLimit != 0 {
			globalLimit = &o.GlobalLimit
		}
		// global_consumed is deliberately left alone on conflict: reseeding
		// must not reset stock already sold.
		_, err := tx.Exec(ctx, `
			INSERT INTO shop_offers (code, reward_id, currency, price, bundle_kind, bundle_quantity, user_limit, global_limit, is_featured)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			ON CONFLICT (code) DO UPDATE
			SET reward_id = EXCLUDED.reward_id,
			    currency = EXCLUDED.currency,
			    price = EXCLUDED.price,
			    bundle_kind = EXCLUDED.bundle_kind,
			    bundle_quantity = EXCLUDED.bundle_quantity,
			    user_limit = EXCLUDED.user_limit,
			    global_limit = EXCLUDED.global_limit,
			    is_featured = EXCLUDED.is_featured
		`, o.Code, rewardID, o.Currency, o.Price, bundleKind, bundleQuantity, userLimit, globalLimit, o.Featured)
		if err != nil {
			return fmt.Errorf("upsert offer %q: %w", o.Code, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit seed tx: %w", err)
	}
	log.Info("catalog applied",
		"rewards", len(c.Rewards), "banners", len(c.Banners), "offers", len(c.Offers))
	return nil
}
