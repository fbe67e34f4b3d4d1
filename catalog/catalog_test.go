package catalog_test

import (
	"context"
	"io"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apitesting "github.com/hallowtide/atelier/apitesting"
	"github.com/hallowtide/atelier/catalog"
)

var testDB *apitesting.DB

func TestMain(m *testing.M) {
	ctx := context.Background()
	log := slog.Default()

	var err error
	testDB, err = apitesting.NewDB(ctx, log, nil)
	if err != nil {
		slog.Error("failed to start PostgreSQL container", "error", err)
		os.Exit(1)
	}

	if err := apitesting.MigrateDB(testDB); err != nil {
		slog.Error("failed to migrate test database", "error", err)
		testDB.Close()
		os.Exit(1)
	}

	code := m.Run()

	testDB.Close()
	os.Exit(code)
}

func TestLoadTestdataCatalog(t *testing.T) {
	c, err := catalog.Load("testdata/catalog.yaml")
	require.NoError(t, err)

	assert.Len(t, c.Rewards, 7)
	assert.Len(t, c.Banners, 1)
	assert.Len(t, c.Offers, 3)
	assert.Equal(t, "Auric Regalia", c.Banners[0].Featured)
}

func TestParseRejectsBannerMissingDrawableTier(t *testing.T) {
	_, err := catalog.Parse([]byte(`
rewards:
  - {name: L, kind: outfit, tier: legendary}
  - {name: R, kind: outfit, tier: rare}
banners:
  - name: Broken
    active: true
    rewards: [L, R]
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Broken")
}

func TestParseRejectsNonLegendaryFeatured(t *testing.T) {
	_, err := catalog.Parse([]byte(`
rewards:
  - {name: L, kind: outfit, tier: legendary}
  - {name: E, kind: outfit, tier: epic}
  - {name: R, kind: outfit, tier: rare}
banners:
  - name: Broken
    featured: E
    active: true
    rewards: [L, E, R]
`))
	require.Error(t, err)
}

func TestParseRejectsUnknownTier(t *testing.T) {
	_, err := catalog.Parse([]byte(`
rewards:
  - {name: X, kind: outfit, tier: mythic}
`))
	require.Error(t, err)
}

func TestParseRejectsDuplicateOfferCode(t *testing.T) {
	_, err := catalog.Parse([]byte(`
offers:
  - {code: dup, currency: gold, price: 1, bundle_kind: spin_tokens}
  - {code: dup, currency: gold, price: 2, bundle_kind: spin_tokens}
`))
	require.Error(t, err)
}

func TestParseRejectsOfferWithoutGoods(t *testing.T) {
	_, err := catalog.Parse([]byte(`
offers:
  - {code: empty, currency: gold, price: 1}
`))
	require.Error(t, err)
}

func TestApplyIsIdempotent(t *testing.T) {
	pool := apitesting.NewTestPool(t, testDB)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	c, err := catalog.Load("testdata/catalog.yaml")
	require.NoError(t, err)

	require.NoError(t, c.Apply(t.Context(), log, pool))
	require.NoError(t, c.Apply(t.Context(), log, pool))

	var rewards, banners, offers int64
	require.NoError(t, pool.QueryRow(t.Context(), `SELECT COUNT(*) FROM rewards WHERE name LIKE 'Auric%' OR name LIKE 'Dusk%' OR name LIKE 'Ember%' OR name LIKE 'Tide%' OR name LIKE 'Field%' OR name LIKE 'Lantern%' OR name LIKE 'Plain%'`).Scan(&rewards))
	require.NoError(t, pool.QueryRow(t.Context(), `SELECT COUNT(*) FROM banners WHERE name = 'Gilded Dawn'`).Scan(&banners))
	require.NoError(t, pool.QueryRow(t.Context(), `SELECT COUNT(*) FROM shop_offers WHERE code IS NOT NULL`).Scan(&offers))

	assert.Equal(t, int64(7), rewards)
	assert.Equal(t, int64(1), banners)
	assert.Equal(t, int64(3), offers)
}

func TestApplyUpdatesPriceWithoutResettingStock(t *testing.T) {
	pool := apitesting.NewTestPool(t, testDB)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	c, err := catalog.Load("testdata/catalog.yaml")
	require.NoError(t, err)
	require.NoError(t, c.Apply(t.Context(), log, pool))

	_, err = pool.Exec(t.Context(), `UPDATE shop_offers SET global_consumed = 4 WHERE code = 'weekly-sash'`)
	require.NoError(t, err)

	for i := range c.Offers {
		if c.Offers[i].Code == "weekly-sash" {
			c.Offers[i].Price = 5
		}
	}
	require.NoError(t, c.Apply(t.Context(), log, pool))

	var price, consumed int64
	require.NoError(t, pool.QueryRow(t.Context(), `
		SELECT price, global_consumed FROM shop_offers WHERE code = 'weekly-sash'
	`).Scan(&price, &consumed))
	assert.Equal(t, int64(5), price)
	assert.Equal(t, int64(4), consumed)
}
