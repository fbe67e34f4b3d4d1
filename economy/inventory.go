package economy

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/hallowtide/atelier/gacha"
)

// InventoryEntry is one owned reward copy with its catalog fields.
type InventoryEntry struct {
	ID          int64      `json:"id"`
	RewardID    int64      `json:"reward_id"`
	Name        string     `json:"name"`
	Kind        string     `json:"kind"`
	Tier        gacha.Tier `json:"tier"`
	ImageURL    string     `json:"image_url,omitempty"`
	Description string     `json:"description,omitempty"`
	Favorited   bool       `json:"favorited"`
	AcquiredAt  time.Time  `json:"acquired_at"`
}

// ListInventory returns a user's inventory, best tier first, newest within
// each tier.
func (s *Service) ListInventory(ctx context.Context, userID int64) ([]InventoryEntry, error) {
	if _, err := s.GetUser(ctx, userID); err != nil {
		return nil, err
	}
	rows, err := s.db.Query(ctx, `
		SELECT i.id, i.reward_id, r.name, r.kind, r.tier,
		       COALESCE(r.image_url, ''), COALESCE(r.description, ''),
		       i.favorited, i.acquired_at
		FROM inventory i
		JOIN rewards r ON r.id = i.reward_id
		WHERE i.user_id = $1
		ORDER BY CASE r.tier
		    WHEN 'legendary' THEN 0
		    WHEN 'epic' THEN 1
		    WHEN 'rare' THEN 2
		    WHEN 'uncommon' THEN 3
		    ELSE 4
		END, i.acquired_at DESC, i.id DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list inventory: %w", err)
	}
	defer rows.Close()

	out := []InventoryEntry{}
	for rows.Next() {
		var e InventoryEntry
		err := rows.Scan(&e.ID, &e.RewardID, &e.Name, &e.Kind, &e.Tier,
			&e.ImageURL, &e.Description, &e.Favorited, &e.AcquiredAt)
		if err != nil {
			return nil, fmt.Errorf("scan inventory entry: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// SetFavorite toggles the favorited flag of one inventory entry. The entry
// must belong to the user.
func (s *Service) SetFavorite(ctx context.Context, userID, entryID int64, favorited bool) error {
	var ownerID int64
	err := s.db.QueryRow(ctx, `
		SELECT user_id FROM inventory WHERE id = $1
	`, entryID).Scan(&ownerID)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("inventory entry %d: %w", entryID, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("load inventory entry: %w", err)
	}
	if ownerID != userID {
		return fmt.Errorf("inventory entry %d belongs to another user: %w", entryID, ErrForbidden)
	}
	_, err = s.db.Exec(ctx, `
		UPDATE inventory SET favorited = $2 WHERE id = $1
	`, entryID, favorited)
	if err != nil {
		return fmt.Errorf("set favorite: %w", err)
	}
	return nil
}
