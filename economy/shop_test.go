package economy_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hallowtide/atelier/economy"
)

func TestListOffersFiltersByCurrency(t *testing.T) {
	svc, pool := newService(t)
	fx := seedBanner(t, pool)
	goldOffer := seedOffer(t, pool, offerSpec{rewardID: fx.rares[0], currency: "gold", price: 5})
	seedOffer(t, pool, offerSpec{rewardID: fx.rares[1], currency: "silver", price: 9})

	offers, err := svc.ListOffers(t.Context(), "gold")
	require.NoError(t, err)

	found := false
	for _, o := range offers {
		assert.Equal(t, "gold", o.Currency)
		if o.ID == goldOffer {
			found = true
			assert.Equal(t, fx.rares[0], o.RewardID)
		}
	}
	assert.True(t, found, "seeded gold offer missing from listing")
}

func TestListOffersReportsRemainingStock(t *testing.T) {
	svc, pool := newService(t)
	fx := seedBanner(t, pool)
	offerID := seedOffer(t, pool, offerSpec{rewardID: fx.rares[0], currency: "gold", price: 1, globalLimit: 3})
	user := newUser(t, svc, "buyer", 10, 0, 0)

	_, err := svc.Purchase(t.Context(), economy.PurchaseInput{UserID: user.ID, OfferID: offerID, Quantity: 2})
	require.NoError(t, err)

	offers, err := svc.ListOffers(t.Context(), "gold")
	require.NoError(t, err)

	for _, o := range offers {
		if o.ID != offerID {
			continue
		}
		require.NotNil(t, o.GlobalRemaining)
		assert.Equal(t, int64(1), *o.GlobalRemaining)
		return
	}
	t.Fatalf("offer %d missing from listing", offerID)
}

func TestListPurchasesShowsConsumption(t *testing.T) {
	svc, pool := newService(t)
	fx := seedBanner(t, pool)
	offerID := seedOffer(t, pool, offerSpec{rewardID: fx.rares[0], currency: "gold", price: 1})
	user := newUser(t, svc, "buyer", 10, 0, 0)

	_, err := svc.Purchase(t.Context(), economy.PurchaseInput{UserID: user.ID, OfferID: offerID, Quantity: 3})
	require.NoError(t, err)

	records, err := svc.ListPurchases(t.Context(), user.ID)
	require.NoError(t, err)

	require.Len(t, records, 1)
	assert.Equal(t, offerID, records[0].OfferID)
	assert.Equal(t, int64(3), records[0].Consumed)
}
