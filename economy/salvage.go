package economy

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/hallowtide/atelier/gacha"
	"github.com/hallowtide/atelier/metrics"
)

// SalvageResult is the committed result of a salvage operation.
type SalvageResult struct {
	SalvagedCount int64 `json:"salvaged_count"`
	GoldEarned    int64 `json:"gold_earned"`
	SilverEarned  int64 `json:"silver_earned"`
	User          User  `json:"user"`
}

// salvageEntry is one inventory row staged for destruction.
type salvageEntry struct {
	entryID  int64
	ownerID  int64
	rewardID int64
	tier     gacha.Tier
}

// Salvage destroys the given inventory entries and credits their token value.
// Every entry must exist and belong to the user; a single bad id fails the
// whole batch and leaves the inventory untouched.
func (s *Service) Salvage(ctx context.Context, userID int64, entryIDs []int64) (SalvageResult, error) {
	if len(entryIDs) == 0 {
		return SalvageResult{}, fmt.Errorf("no inventory entries given")
	}

	var out SalvageResult
	err := s.inSerializableTx(ctx, "salvage", func(tx pgx.Tx) error {
		if _, err := lockUser(ctx, tx, userID); err != nil {
			return err
		}
		entries, err := lockEntries(ctx, tx, entryIDs)
		if err != nil {
			return err
		}
		for _, e := range entries {
			if e.ownerID != userID {
				return fmt.Errorf("inventory entry %d belongs to another user: %w", e.entryID, ErrForbidden)
			}
		}
		res, err := salvageLocked(ctx, tx, s.clock.Now().UTC(), userID, entries)
		if err != nil {
			return err
		}
		out = res
		return nil
	})
	if err != nil {
		return SalvageResult{}, err
	}

	metrics.SalvagedEntriesTotal.Add(float64(out.SalvagedCount))
	s.log.Info("salvage committed",
		"user_id", userID, "entries", out.SalvagedCount,
		"gold", out.GoldEarned, "silver", out.SilverEarned)
	return out, nil
}

// SalvageDuplicates destroys every duplicate copy in the user's inventory,
// keeping one copy per reward. Favorited entries are kept when keepFavorited
// is set, even if that preserves more than one copy.
func (s *Service) SalvageDuplicates(ctx context.Context, userID int64, keepFavorited bool) (SalvageResult, error) {
	var out SalvageResult
	err := s.inSerializableTx(ctx, "salvage_duplicates", func(tx pgx.Tx) error {
		if _, err := lockUser(ctx, tx, userID); err != nil {
			return err
		}
		entries, err := lockDuplicates(ctx, tx, userID, keepFavorited)
		if err != nil {
			return err
		}
		res, err := salvageLocked(ctx, tx, s.clock.Now().UTC(), userID, entries)
		if err != nil {
			return err
		}
		out = res
		return nil
	})
	if err != nil {
		return SalvageResult{}, err
	}

	metrics.SalvagedEntriesTotal.Add(float64(out.SalvagedCount))
	s.log.Info("duplicate salvage committed",
		"user_id", userID, "entries", out.SalvagedCount,
		"gold", out.GoldEarned, "silver", out.SilverEarned)
	return out, nil
}

// salvageLocked credits the token value of the locked entries, deletes them
// and appends salvage history. Callers hold the user row lock and entry locks.
func salvageLocked(ctx context.Context, tx pgx.Tx, now time.Time, userID int64, entries []salvageEntry) (SalvageResult, error) {
	var out SalvageResult
	for _, e := range entries {
		value := gacha.SalvageValue(e.tier)
		out.GoldEarned += value.Gold
		out.SilverEarned += value.Silver

		cmd, err := tx.Exec(ctx, `DELETE FROM inventory WHERE id = $1`, e.entryID)
		if err != nil {
			return SalvageResult{}, fmt.Errorf("delete inventory entry: %w", err)
		}
		if cmd.RowsAffected() == 0 {
			return SalvageResult{}, fmt.Errorf("inventory entry %d: %w", e.entryID, ErrNotFound)
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO salvage_history (user_id, reward_id, tier, gold_earned, silver_earned, salvaged_at)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, userID, e.rewardID, e.tier, value.Gold, value.Silver, now)
		if err != nil {
			return SalvageResult{}, fmt.Errorf("record salvage: %w", err)
		}
	}
	out.SalvagedCount = int64(len(entries))

	user, err := scanUser(tx.QueryRow(ctx, `
		UPDATE users
		SET gold_tokens = gold_tokens + $2,
		    silver_tokens = silver_tokens + $3
		WHERE id = $1
		RETURNING `+userColumns+`
	`, userID, out.GoldEarned, out.SilverEarned))
	if err != nil {
		return SalvageResult{}, err
	}
	out.User = user
	return out, nil
}

// lockEntries locks the requested inventory rows with their reward tiers.
// Ids with no matching row fail the batch with ErrNotFound.
func lockEntries(ctx context.Context, tx pgx.Tx, entryIDs []int64) ([]salvageEntry, error) {
	rows, err := tx.Query(ctx, `
		SELECT i.id, i.user_id, i.reward_id, r.tier
		FROM inventory i
		JOIN rewards r ON r.id = i.reward_id
		WHERE i.id = ANY($1)
		ORDER BY i.id
		FOR UPDATE OF i
	`, entryIDs)
	if err != nil {
		return nil, fmt.Errorf("lock inventory entries: %w", err)
	}
	defer rows.Close()

	found := map[int64]bool{}
	var entries []salvageEntry
	for rows.Next() {
		var e salvageEntry
		if err := rows.Scan(&e.entryID, &e.ownerID, &e.rewardID, &e.tier); err != nil {
			return nil, fmt.Errorf("scan inventory entry: %w", err)
		}
		found[e.entryID] = true
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, id := range entryIDs {
		if !found[id] {
			return nil, fmt.Errorf("inventory entry %d: %w", id, ErrNotFound)
		}
	}
	return entries, nil
}

// lockDuplicates locks every inventory row beyond the first copy of each
// reward. The kept copy is the oldest one, except that favorited copies are
// kept first when keepFavorited is set.
func lockDuplicates(ctx context.Context, tx pgx.Tx, userID int64, keepFavorited bool) ([]salvageEntry, error) {
	query := `
		SELECT id, user_id, reward_id, tier FROM (
			SELECT i.id, i.user_id, i.reward_id, r.tier, i.favorited,
			       ROW_NUMBER() OVER (PARTITION BY i.reward_id ORDER BY i.favorited DESC, i.id) AS copy_rank
			FROM inventory i
			JOIN rewards r ON r.id = i.reward_id
			WHERE i.user_id = $1
		) ranked
		WHERE copy_rank > 1
	`
	if keepFavorited {
		query += ` AND NOT favorited`
	}
	query += ` ORDER BY id`

	rows, err := tx.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("find duplicates: %w", err)
	}
	defer rows.Close()

	var entries []salvageEntry
	for rows.Next() {
		var e salvageEntry
		if err := rows.Scan(&e.entryID, &e.ownerID, &e.rewardID, &e.tier); err != nil {
			return nil, fmt.Errorf("scan duplicate entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := lockByIDs(ctx, tx, entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// lockByIDs takes row locks on already-selected duplicate entries. Window
// functions cannot combine with FOR UPDATE, so the lock is a second pass.
func lockByIDs(ctx context.Context, tx pgx.Tx, entries []salvageEntry) error {
	if len(entries) == 0 {
		return nil
	}
	ids := make([]int64, len(entries))
	for i, e := range entries {
		ids[i] = e.entryID
	}
	_, err := tx.Exec(ctx, `
		SELECT 1 FROM inventory WHERE id = ANY($1) FOR UPDATE
	`, ids)
	if err != nil {
		return fmt.Errorf("lock duplicate entries: %w", err)
	}
	return nil
}
