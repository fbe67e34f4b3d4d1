package economy

import (
	"context"
	"fmt"

	"github.com/hallowtide/atelier/gacha"
)

// Reward is one catalog entry.
type Reward struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	Kind        string     `json:"kind"`
	Tier        gacha.Tier `json:"tier"`
	ImageURL    string     `json:"image_url,omitempty"`
	Description string     `json:"description,omitempty"`
}

// ListRewards returns the full reward catalog, best tier first, alphabetical
// within each tier.
func (s *Service) ListRewards(ctx context.Context) ([]Reward, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, name, kind, tier, COALESCE(image_url, ''), COALESCE(description, '')
		FROM rewards
		ORDER BY CASE tier
		    WHEN 'legendary' THEN 0
		    WHEN 'epic' THEN 1
		    WHEN 'rare' THEN 2
		    WHEN 'uncommon' THEN 3
		    ELSE 4
		END, name
	`)
	if err != nil {
		return nil, fmt.Errorf("list rewards: %w", err)
	}
	defer rows.Close()

	out := []Reward{}
	for rows.Next() {
		var r Reward
		if err := rows.Scan(&r.ID, &r.Name, &r.Kind, &r.Tier, &r.ImageURL, &r.Description); err != nil {
			return nil, fmt.Errorf("scan reward: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
