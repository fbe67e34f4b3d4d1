package gacha

// Rates configures the per-draw probability model.
//
// Below SoftPityStart the legendary rate is BaseLegendary. From SoftPityStart
// up to (but excluding) HardPity it ramps linearly to 1.0. At HardPity and
// beyond the draw is guaranteed legendary.
type Rates struct {
	BaseLegendary float64 // legendary rate far from pity
	BaseEpic      float64 // epic rate, applied when the legendary roll misses
	SoftPityStart int     // pulls-since-legendary where the ramp begins
	HardPity      int     // pulls-since-legendary where the rate is exactly 1
	EpicWindow    int     // at least one epic-or-better every EpicWindow draws
	FeaturedRate  float64 // chance a legendary is the featured reward
}

// DefaultRates returns the live banner configuration.
func DefaultRates() Rates {
	return Rates{
		BaseLegendary: 0.006,
		BaseEpic:      0.051,
		SoftPityStart: 76,
		HardPity:      90,
		EpicWindow:    10,
		FeaturedRate:  0.5,
	}
}

// LegendaryRate returns the legendary probability for the next single draw
// given the number of pulls since the last legendary. The upcoming draw is
// number pullsSinceLegendary+1, so the hard guarantee fires when that draw
// reaches HardPity. Pure; bit-for-bit re-derivable from
// (pulls, SoftPityStart, HardPity, BaseLegendary).
func (r Rates) LegendaryRate(pullsSinceLegendary int) float64 {
	if pullsSinceLegendary+1 >= r.HardPity {
		return 1.0
	}
	if pullsSinceLegendary < r.SoftPityStart {
		return r.BaseLegendary
	}
	progress := float64(pullsSinceLegendary-r.SoftPityStart) / float64(r.HardPity-r.SoftPityStart)
	return r.BaseLegendary + (1.0-r.BaseLegendary)*progress
}
