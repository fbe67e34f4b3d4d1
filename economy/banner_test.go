package economy_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hallowtide/atelier/economy"
)

func TestActiveBannerReturnsPool(t *testing.T) {
	svc, pool := newService(t)
	fx := seedBanner(t, pool)

	banner, rewards, err := svc.ActiveBanner(t.Context())
	require.NoError(t, err)

	// The fixture banner is the newest active one.
	assert.Equal(t, fx.bannerID, banner.ID)
	assert.Equal(t, fx.legendary[0], banner.FeaturedRewardID)
	assert.Len(t, rewards, 6)
}

func TestPityForCreatesZeroedRow(t *testing.T) {
	svc, pool := newService(t)
	fx := seedBanner(t, pool)
	user := newUser(t, svc, "fresh", 0, 0, 0)

	st, err := svc.PityFor(t.Context(), user.ID, fx.bannerID)
	require.NoError(t, err)

	assert.Equal(t, 0, st.PullsSinceLegendary)
	assert.Equal(t, 0, st.PullsSinceEpic)
	assert.False(t, st.GuaranteedFeatured)
	assert.Equal(t, int64(0), st.WishedRewardID)
}

func TestPityForUnknownUser(t *testing.T) {
	svc, pool := newService(t)
	fx := seedBanner(t, pool)

	_, err := svc.PityFor(t.Context(), 99999999, fx.bannerID)
	require.ErrorIs(t, err, economy.ErrNotFound)
}

func TestSetWishRejectsNonLegendaryTarget(t *testing.T) {
	svc, pool := newService(t)
	fx := seedBanner(t, pool)
	user := newUser(t, svc, "wisher", 0, 0, 0)

	err := svc.SetWish(t.Context(), user.ID, fx.bannerID, fx.epics[0])
	require.ErrorIs(t, err, economy.ErrNotFound)
}

func TestSetWishRoundTripsAndClears(t *testing.T) {
	svc, pool := newService(t)
	fx := seedBanner(t, pool)
	user := newUser(t, svc, "wisher", 0, 0, 0)

	require.NoError(t, svc.SetWish(t.Context(), user.ID, fx.bannerID, fx.legendary[1]))
	st, err := svc.PityFor(t.Context(), user.ID, fx.bannerID)
	require.NoError(t, err)
	assert.Equal(t, fx.legendary[1], st.WishedRewardID)

	require.NoError(t, svc.SetWish(t.Context(), user.ID, fx.bannerID, 0))
	st, err = svc.PityFor(t.Context(), user.ID, fx.bannerID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), st.WishedRewardID)
}
