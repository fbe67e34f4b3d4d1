package gacha

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLegendaryRateBaseBeforeSoftPity(t *testing.T) {
	r := DefaultRates()
	for pulls := 0; pulls < r.SoftPityStart; pulls++ {
		assert.Equal(t, r.BaseLegendary, r.LegendaryRate(pulls), "pulls=%d", pulls)
	}
}

func TestLegendaryRateGuaranteedAtHardPity(t *testing.T) {
	r := DefaultRates()
	for _, pulls := range []int{r.HardPity - 1, r.HardPity, r.HardPity + 1, r.HardPity + 50} {
		assert.Equal(t, 1.0, r.LegendaryRate(pulls), "pulls=%d", pulls)
	}
}

func TestLegendaryRateRampIsMonotonic(t *testing.T) {
	r := DefaultRates()
	prev := r.LegendaryRate(r.SoftPityStart - 1)
	for pulls := r.SoftPityStart; pulls <= r.HardPity; pulls++ {
		rate := r.LegendaryRate(pulls)
		require.GreaterOrEqual(t, rate, prev, "rate dropped at pulls=%d", pulls)
		require.GreaterOrEqual(t, rate, 0.0)
		require.LessOrEqual(t, rate, 1.0)
		prev = rate
	}
}

func TestLegendaryRateOneShortOfHardPity(t *testing.T) {
	// 89 misses with hard pity at 90: the upcoming draw is the 90th and must
	// be guaranteed; one miss earlier it is not.
	r := DefaultRates()
	assert.Less(t, r.LegendaryRate(r.HardPity-2), 1.0)
	assert.Equal(t, 1.0, r.LegendaryRate(r.HardPity-1))
}

func TestSalvageValueTable(t *testing.T) {
	assert.Equal(t, TokenValue{Gold: 20}, SalvageValue(TierLegendary))
	assert.Equal(t, TokenValue{Gold: 5}, SalvageValue(TierEpic))
	assert.Equal(t, TokenValue{Silver: 15}, SalvageValue(TierRare))
	assert.Equal(t, TokenValue{Silver: 1}, SalvageValue(TierUncommon))
	assert.Equal(t, TokenValue{}, SalvageValue(TierCommon))
	assert.Equal(t, TokenValue{}, SalvageValue(Tier("bogus")))
}
