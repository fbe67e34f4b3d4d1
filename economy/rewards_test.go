package economy_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hallowtide/atelier/economy"
	"github.com/hallowtide/atelier/gacha"
)

func TestListRewardsOrdersBestTierFirst(t *testing.T) {
	svc, pool := newService(t)
	seedBanner(t, pool)
	seedReward(t, pool, gacha.TierUncommon, "trinket")

	all, err := svc.ListRewards(t.Context())
	require.NoError(t, err)

	// The container is shared; keep only this test's rewards.
	mine := []economy.Reward{}
	for _, r := range all {
		if strings.HasPrefix(r.Name, t.Name()) {
			mine = append(mine, r)
		}
	}
	require.Len(t, mine, 7)

	wantTiers := []gacha.Tier{
		gacha.TierLegendary, gacha.TierLegendary,
		gacha.TierEpic, gacha.TierEpic,
		gacha.TierRare, gacha.TierRare,
		gacha.TierUncommon,
	}
	for i, r := range mine {
		assert.Equal(t, wantTiers[i], r.Tier, "position %d: %s", i, r.Name)
		assert.Equal(t, "collectible", r.Kind)
	}
}
