package economy

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/hallowtide/atelier/gacha"
)

// Banner is one active reward pool.
type Banner struct {
	ID               int64      `json:"id"`
	Name             string     `json:"name"`
	FeaturedRewardID int64      `json:"featured_reward_id"`
	IsActive         bool       `json:"is_active"`
	StartsAt         *time.Time `json:"starts_at,omitempty"`
	EndsAt           *time.Time `json:"ends_at,omitempty"`
}

// BannerReward is one pool entry with its catalog fields.
type BannerReward struct {
	RewardID    int64      `json:"reward_id"`
	Name        string     `json:"name"`
	Kind        string     `json:"kind"`
	Tier        gacha.Tier `json:"tier"`
	ImageURL    string     `json:"image_url,omitempty"`
	Description string     `json:"description,omitempty"`
}

// ActiveBanner returns the most recent active banner and its pool entries.
func (s *Service) ActiveBanner(ctx context.Context) (Banner, []BannerReward, error) {
	var b Banner
	var featured *int64
	err := s.db.QueryRow(ctx, `
		SELECT id, name, featured_reward_id, is_active, starts_at, ends_at
		FROM banners
		WHERE is_active
		ORDER BY id DESC
		LIMIT 1
	`).Scan(&b.ID, &b.Name, &featured, &b.IsActive, &b.StartsAt, &b.EndsAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Banner{}, nil, fmt.Errorf("active banner: %w", ErrNotFound)
	}
	if err != nil {
		return Banner{}, nil, fmt.Errorf("load active banner: %w", err)
	}
	if featured != nil {
		b.FeaturedRewardID = *featured
	}

	rewards, err := s.bannerRewards(ctx, b.ID)
	if err != nil {
		return Banner{}, nil, err
	}
	return b, rewards, nil
}

func (s *Service) bannerRewards(ctx context.Context, bannerID int64) ([]BannerReward, error) {
	rows, err := s.db.Query(ctx, `
		SELECT r.id, r.name, r.kind, r.tier, COALESCE(r.image_url, ''), COALESCE(r.description, '')
		FROM banner_rewards br
		JOIN rewards r ON r.id = br.reward_id
		WHERE br.banner_id = $1
		ORDER BY r.tier, r.name
	`, bannerID)
	if err != nil {
		return nil, fmt.Errorf("load banner rewards: %w", err)
	}
	defer rows.Close()

	out := []BannerReward{}
	for rows.Next() {
		var r BannerReward
		if err := rows.Scan(&r.RewardID, &r.Name, &r.Kind, &r.Tier, &r.ImageURL, &r.Description); err != nil {
			return nil, fmt.Errorf("scan banner reward: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// loadBanner fetches a banner row and its validated pool inside a
// coordinator transaction.
func loadBanner(ctx context.Context, q querier, bannerID int64) (gacha.Pool, error) {
	var featured *int64
	var active bool
	err := q.QueryRow(ctx, `
		SELECT featured_reward_id, is_active FROM banners WHERE id = $1
	`, bannerID).Scan(&featured, &active)
	if errors.Is(err, pgx.ErrNoRows) {
		return gacha.Pool{}, fmt.Errorf("banner %d: %w", bannerID, ErrNotFound)
	}
	if err != nil {
		return gacha.Pool{}, fmt.Errorf("load banner: %w", err)
	}
	if !active {
		return gacha.Pool{}, fmt.Errorf("banner %d is inactive: %w", bannerID, ErrNotFound)
	}

	rows, err := q.Query(ctx, `
		SELECT r.id, r.tier
		FROM banner_rewards br
		JOIN rewards r ON r.id = br.reward_id
		WHERE br.banner_id = $1
		ORDER BY r.id
	`, bannerID)
	if err != nil {
		return gacha.Pool{}, fmt.Errorf("load pool: %w", err)
	}
	defer rows.Close()

	pool := gacha.Pool{}
	if featured != nil {
		pool.FeaturedRewardID = *featured
	}
	for rows.Next() {
		var e gacha.PoolEntry
		if err := rows.Scan(&e.RewardID, &e.Tier); err != nil {
			return gacha.Pool{}, fmt.Errorf("scan pool entry: %w", err)
		}
		pool.Entries = append(pool.Entries, e)
	}
	if err := rows.Err(); err != nil {
		return gacha.Pool{}, err
	}
	if err := pool.Validate(); err != nil {
		// Configuration defect: the banner should have been validated when
		// it was loaded, and must be taken offline rather than retried.
		return gacha.Pool{}, err
	}
	return pool, nil
}

// lockPity returns the pity state for (user, banner), creating the row on
// first draw and locking it for the transaction.
func lockPity(ctx context.Context, tx pgx.Tx, userID, bannerID int64) (gacha.PityState, error) {
	_, err := tx.Exec(ctx, `
		INSERT INTO pity_state (user_id, banner_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, banner_id) DO NOTHING
	`, userID, bannerID)
	if err != nil {
		return gacha.PityState{}, fmt.Errorf("init pity state: %w", err)
	}
	return scanPity(tx.QueryRow(ctx, `
		SELECT pulls_since_legendary, pulls_since_epic, guaranteed_featured, wished_reward_id
		FROM pity_state
		WHERE user_id = $1 AND banner_id = $2
		FOR UPDATE
	`, userID, bannerID))
}

func scanPity(row pgx.Row) (gacha.PityState, error) {
	var st gacha.PityState
	var wished *int64
	err := row.Scan(&st.PullsSinceLegendary, &st.PullsSinceEpic, &st.GuaranteedFeatured, &wished)
	if err != nil {
		return gacha.PityState{}, fmt.Errorf("scan pity state: %w", err)
	}
	if wished != nil {
		st.WishedRewardID = *wished
	}
	return st, nil
}

func savePity(ctx context.Context, tx pgx.Tx, userID, bannerID int64, st gacha.PityState) error {
	var wished *int64
	if st.WishedRewardID != 0 {
		wished = &st.WishedRewardID
	}
	_, err := tx.Exec(ctx, `
		UPDATE pity_state
		SET pulls_since_legendary = $3,
		    pulls_since_epic = $4,
		    guaranteed_featured = $5,
		    wished_reward_id = $6
		WHERE user_id = $1 AND banner_id = $2
	`, userID, bannerID, st.PullsSinceLegendary, st.PullsSinceEpic, st.GuaranteedFeatured, wished)
	if err != nil {
		return fmt.Errorf("save pity state: %w", err)
	}
	return nil
}

// PityFor returns the current pity state for (user, banner), creating a
// zeroed row on first request.
func (s *Service) PityFor(ctx context.Context, userID, bannerID int64) (gacha.PityState, error) {
	if _, err := s.GetUser(ctx, userID); err != nil {
		return gacha.PityState{}, err
	}
	var st gacha.PityState
	err := s.inSerializableTx(ctx, "pity_for", func(tx pgx.Tx) error {
		got, err := lockPity(ctx, tx, userID, bannerID)
		if err != nil {
			return err
		}
		st = got
		return nil
	})
	return st, err
}

// SetWish sets the featured wish target for (user, banner). The target must
// be a legendary entry of the banner's pool; a zero rewardID clears the wish.
func (s *Service) SetWish(ctx context.Context, userID, bannerID, rewardID int64) error {
	return s.inSerializableTx(ctx, "set_wish", func(tx pgx.Tx) error {
		if _, err := lockUser(ctx, tx, userID); err != nil {
			return err
		}
		pool, err := loadBanner(ctx, tx, bannerID)
		if err != nil {
			return err
		}
		if rewardID != 0 && !pool.ContainsLegendary(rewardID) {
			return fmt.Errorf("reward %d is not a legendary entry of banner %d: %w", rewardID, bannerID, ErrNotFound)
		}
		st, err := lockPity(ctx, tx, userID, bannerID)
		if err != nil {
			return err
		}
		st.WishedRewardID = rewardID
		return savePity(ctx, tx, userID, bannerID, st)
	})
}
