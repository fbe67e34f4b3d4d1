package gacha

import "fmt"

// PityState is the draw state of one (user, banner) pair.
type PityState struct {
	PullsSinceLegendary int
	PullsSinceEpic      int
	GuaranteedFeatured  bool
	WishedRewardID      int64 // 0 means no wish target
}

// Outcome is the result of one resolved draw.
type Outcome struct {
	RewardID int64
	Tier     Tier
	Featured bool
}

// Resolve performs one draw against the pool and returns the outcome together
// with the next pity state. It is a pure function of (state, pool, samples).
//
// Samples are consumed in a fixed order: one for the tier roll, then on a
// non-guaranteed legendary one for the featured roll, then one for uniform
// in-tier selection unless the featured reward was picked directly. Seeded
// samplers therefore reproduce exact sequences.
//
// Tier resolution: legendary wins when u < LegendaryRate(pulls); otherwise
// epic wins when the epic pity window forces it or u < rate+BaseEpic;
// otherwise the draw is rare. A legendary resets both counters; an epic
// resets only the epic counter; a rare increments both.
//
// Featured resolution: a guaranteed-featured legendary is featured without a
// roll; otherwise featured with probability FeaturedRate. The guarantee flag
// becomes the negation of the featured result, so a lost roll carries over.
func (r Rates) Resolve(state PityState, pool Pool, s Sampler) (Outcome, PityState, error) {
	legendaryRate := r.LegendaryRate(state.PullsSinceLegendary)
	epicForced := state.PullsSinceEpic+1 >= r.EpicWindow

	u := s.Float64()

	var tier Tier
	featured := false
	switch {
	case u < legendaryRate:
		tier = TierLegendary
		if state.GuaranteedFeatured {
			featured = true
		} else {
			featured = s.Float64() < r.FeaturedRate
		}
		state.PullsSinceLegendary = 0
		state.PullsSinceEpic = 0
		state.GuaranteedFeatured = !featured
	case epicForced || u < legendaryRate+r.BaseEpic:
		tier = TierEpic
		state.PullsSinceEpic = 0
		state.PullsSinceLegendary++
	default:
		tier = TierRare
		state.PullsSinceEpic++
		state.PullsSinceLegendary++
	}

	rewardID, err := r.selectReward(state, pool, s, tier, featured)
	if err != nil {
		return Outcome{}, PityState{}, err
	}

	return Outcome{RewardID: rewardID, Tier: tier, Featured: featured}, state, nil
}

// ResolveN folds Resolve n times, threading the pity state through each step.
// A multi-pull is exactly n sequential single pulls.
func (r Rates) ResolveN(state PityState, pool Pool, s Sampler, n int) ([]Outcome, PityState, error) {
	outcomes := make([]Outcome, 0, n)
	for i := 0; i < n; i++ {
		outcome, next, err := r.Resolve(state, pool, s)
		if err != nil {
			return nil, PityState{}, err
		}
		outcomes = append(outcomes, outcome)
		state = next
	}
	return outcomes, state, nil
}

// selectReward picks the concrete reward within the resolved tier. A featured
// legendary resolves to the wish target when set, else the pool's featured
// reward. Everything else is uniform among the tier's entries.
func (r Rates) selectReward(state PityState, pool Pool, s Sampler, tier Tier, featured bool) (int64, error) {
	if tier == TierLegendary && featured {
		if state.WishedRewardID != 0 && pool.contains(state.WishedRewardID, TierLegendary) {
			return state.WishedRewardID, nil
		}
		if pool.FeaturedRewardID != 0 {
			return pool.FeaturedRewardID, nil
		}
		// No featured reward configured; fall through to uniform selection.
	}
	entries := pool.entriesOf(tier)
	if len(entries) == 0 {
		return 0, fmt.Errorf("%w: %s", ErrPoolExhausted, tier)
	}
	idx := int(s.Float64() * float64(len(entries)))
	if idx >= len(entries) {
		idx = len(entries) - 1
	}
	return entries[idx].RewardID, nil
}
