package gacha

// Tier is a reward rarity class.
type Tier string

const (
	TierLegendary Tier = "legendary"
	TierEpic      Tier = "epic"
	TierRare      Tier = "rare"
	TierUncommon  Tier = "uncommon"
	TierCommon    Tier = "common"
)

// rank orders tiers so "epic or better" comparisons read naturally.
func (t Tier) rank() int {
	switch t {
	case TierLegendary:
		return 5
	case TierEpic:
		return 4
	case TierRare:
		return 3
	case TierUncommon:
		return 2
	case TierCommon:
		return 1
	default:
		return 0
	}
}

// AtLeast reports whether t is the given tier or rarer.
func (t Tier) AtLeast(other Tier) bool { return t.rank() >= other.rank() }

// Valid reports whether t is a known tier.
func (t Tier) Valid() bool { return t.rank() > 0 }

// TokenValue is a pair of swap-token amounts.
type TokenValue struct {
	Gold   int64
	Silver int64
}

// SalvageValue returns the swap tokens credited for salvaging one reward of
// the given tier. Unknown tiers salvage for nothing.
func SalvageValue(t Tier) TokenValue {
	switch t {
	case TierLegendary:
		return TokenValue{Gold: 20}
	case TierEpic:
		return TokenValue{Gold: 5}
	case TierRare:
		return TokenValue{Silver: 15}
	case TierUncommon:
		return TokenValue{Silver: 1}
	default:
		return TokenValue{}
	}
}
