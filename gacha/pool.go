package gacha

import (
	"errors"
	"fmt"
)

// ErrPoolExhausted reports a banner pool with no entries in a drawable tier.
// It marks a configuration defect: banners must be validated before going
// live, never patched over at draw time.
var ErrPoolExhausted = errors.New("banner pool has no rewards in tier")

// drawableTiers are the tiers a draw can resolve to.
var drawableTiers = []Tier{TierLegendary, TierEpic, TierRare}

// PoolEntry is one reward in a banner pool.
type PoolEntry struct {
	RewardID int64
	Tier     Tier
}

// Pool is the reward set of one banner plus its featured legendary.
type Pool struct {
	Entries          []PoolEntry
	FeaturedRewardID int64
}

// Validate checks that every drawable tier has at least one entry and that
// the featured reward is a legendary entry of the pool.
func (p Pool) Validate() error {
	for _, tier := range drawableTiers {
		if len(p.entriesOf(tier)) == 0 {
			return fmt.Errorf("%w: %s", ErrPoolExhausted, tier)
		}
	}
	if p.FeaturedRewardID != 0 && !p.contains(p.FeaturedRewardID, TierLegendary) {
		return fmt.Errorf("featured reward %d is not a legendary pool entry", p.FeaturedRewardID)
	}
	return nil
}

// ContainsLegendary reports whether rewardID is a legendary entry of the
// pool, i.e. a valid wish target.
func (p Pool) ContainsLegendary(rewardID int64) bool {
	return p.contains(rewardID, TierLegendary)
}

func (p Pool) entriesOf(tier Tier) []PoolEntry {
	var out []PoolEntry
	for _, e := range p.Entries {
		if e.Tier == tier {
			out = append(out, e)
		}
	}
	return out
}

func (p Pool) contains(rewardID int64, tier Tier) bool {
	for _, e := range p.Entries {
		if e.RewardID == rewardID && e.Tier == tier {
			return true
		}
	}
	return false
}
