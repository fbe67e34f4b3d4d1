package economy_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hallowtide/atelier/economy"
	"github.com/hallowtide/atelier/gacha"
)

func TestSalvageCreditsTokenValues(t *testing.T) {
	svc, pool := newService(t)
	user := newUser(t, svc, "scrapper", 0, 0, 0)

	legendary := seedReward(t, pool, gacha.TierLegendary, "legendary")
	epic := seedReward(t, pool, gacha.TierEpic, "epic")
	rare := seedReward(t, pool, gacha.TierRare, "rare")
	uncommon := seedReward(t, pool, gacha.TierUncommon, "uncommon")
	common := seedReward(t, pool, gacha.TierCommon, "common")

	entries := []int64{
		grantEntry(t, pool, user.ID, legendary, false),
		grantEntry(t, pool, user.ID, epic, false),
		grantEntry(t, pool, user.ID, rare, false),
		grantEntry(t, pool, user.ID, uncommon, false),
		grantEntry(t, pool, user.ID, common, false),
	}

	res, err := svc.Salvage(t.Context(), user.ID, entries)
	require.NoError(t, err)

	assert.Equal(t, int64(5), res.SalvagedCount)
	assert.Equal(t, int64(25), res.GoldEarned)
	assert.Equal(t, int64(16), res.SilverEarned)

	// Credited tokens match the user's new balances exactly.
	assert.Equal(t, int64(25), res.User.GoldTokens)
	assert.Equal(t, int64(16), res.User.SilverTokens)

	assert.Equal(t, int64(0), countRows(t, pool, `SELECT COUNT(*) FROM inventory WHERE user_id = $1`, user.ID))
	assert.Equal(t, int64(5), countRows(t, pool, `SELECT COUNT(*) FROM salvage_history WHERE user_id = $1`, user.ID))
}

func TestSalvageUnknownEntryFailsWholeBatch(t *testing.T) {
	svc, pool := newService(t)
	user := newUser(t, svc, "scrapper", 0, 0, 0)
	rare := seedReward(t, pool, gacha.TierRare, "rare")
	entryID := grantEntry(t, pool, user.ID, rare, false)

	_, err := svc.Salvage(t.Context(), user.ID, []int64{entryID, 99999999})
	require.ErrorIs(t, err, economy.ErrNotFound)

	assert.Equal(t, int64(1), countRows(t, pool, `SELECT COUNT(*) FROM inventory WHERE user_id = $1`, user.ID))
	after, err := svc.GetUser(t.Context(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), after.SilverTokens)
}

func TestSalvageOtherUsersEntryForbidden(t *testing.T) {
	svc, pool := newService(t)
	owner := newUser(t, svc, "owner", 0, 0, 0)
	thief := newUser(t, svc, "thief", 0, 0, 0)
	rare := seedReward(t, pool, gacha.TierRare, "rare")
	entryID := grantEntry(t, pool, owner.ID, rare, false)

	_, err := svc.Salvage(t.Context(), thief.ID, []int64{entryID})
	require.ErrorIs(t, err, economy.ErrForbidden)

	assert.Equal(t, int64(1), countRows(t, pool, `SELECT COUNT(*) FROM inventory WHERE user_id = $1`, owner.ID))
}

func TestSalvageDuplicatesKeepsOneCopyPerReward(t *testing.T) {
	svc, pool := newService(t)
	user := newUser(t, svc, "hoarder", 0, 0, 0)
	rare := seedReward(t, pool, gacha.TierRare, "rare")
	epic := seedReward(t, pool, gacha.TierEpic, "epic")

	grantEntry(t, pool, user.ID, rare, false)
	grantEntry(t, pool, user.ID, rare, false)
	grantEntry(t, pool, user.ID, rare, false)
	grantEntry(t, pool, user.ID, epic, true)

	res, err := svc.SalvageDuplicates(t.Context(), user.ID, false)
	require.NoError(t, err)

	assert.Equal(t, int64(2), res.SalvagedCount)
	assert.Equal(t, int64(30), res.SilverEarned)
	assert.Equal(t, int64(1), countRows(t, pool, `SELECT COUNT(*) FROM inventory WHERE user_id = $1 AND reward_id = $2`, user.ID, rare))
	assert.Equal(t, int64(1), countRows(t, pool, `SELECT COUNT(*) FROM inventory WHERE user_id = $1 AND reward_id = $2`, user.ID, epic))
}

func TestSalvageDuplicatesKeepFavoritedSparesExtras(t *testing.T) {
	svc, pool := newService(t)
	user := newUser(t, svc, "curator", 0, 0, 0)
	epic := seedReward(t, pool, gacha.TierEpic, "epic")

	grantEntry(t, pool, user.ID, epic, true)
	grantEntry(t, pool, user.ID, epic, true)
	grantEntry(t, pool, user.ID, epic, false)

	res, err := svc.SalvageDuplicates(t.Context(), user.ID, true)
	require.NoError(t, err)

	// Both favorited copies survive; only the plain duplicate is scrapped.
	assert.Equal(t, int64(1), res.SalvagedCount)
	assert.Equal(t, int64(5), res.GoldEarned)
	assert.Equal(t, int64(2), countRows(t, pool, `SELECT COUNT(*) FROM inventory WHERE user_id = $1`, user.ID))
}

func TestSalvageDuplicatesNothingToScrap(t *testing.T) {
	svc, pool := newService(t)
	user := newUser(t, svc, "minimalist", 0, 0, 0)
	rare := seedReward(t, pool, gacha.TierRare, "rare")
	grantEntry(t, pool, user.ID, rare, false)

	res, err := svc.SalvageDuplicates(t.Context(), user.ID, false)
	require.NoError(t, err)

	assert.Equal(t, int64(0), res.SalvagedCount)
	assert.Equal(t, int64(0), res.GoldEarned)
	assert.Equal(t, int64(0), res.SilverEarned)
	assert.Equal(t, int64(1), countRows(t, pool, `SELECT COUNT(*) FROM inventory WHERE user_id = $1`, user.ID))
}
