package economy_test

import (
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	apitesting "github.com/hallowtide/atelier/apitesting"
	"github.com/hallowtide/atelier/economy"
	"github.com/hallowtide/atelier/gacha"
)

// fixedSampler always returns the same float, making tier rolls and in-tier
// selection deterministic.
type fixedSampler float64

func (f fixedSampler) Float64() float64 { return float64(f) }

func newService(t *testing.T, opts ...func(*economy.Config)) (*economy.Service, *pgxpool.Pool) {
	t.Helper()
	pool := apitesting.NewTestPool(t, testDB)
	cfg := economy.Config{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		Pool:   pool,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	svc, err := economy.New(cfg)
	require.NoError(t, err)
	return svc, pool
}

func withSampler(s gacha.Sampler) func(*economy.Config) {
	return func(cfg *economy.Config) { cfg.Sampler = s }
}

// fixture is one seeded banner with two rewards per drawable tier. Names are
// prefixed with the test name so tests sharing the container never collide.
type fixture struct {
	bannerID  int64
	legendary [2]int64
	epics     [2]int64
	rares     [2]int64
}

func seedBanner(t *testing.T, pool *pgxpool.Pool) fixture {
	t.Helper()
	ctx := t.Context()

	var fx fixture
	insert := func(tier gacha.Tier, n int) int64 {
		var id int64
		err := pool.QueryRow(ctx, `
			INSERT INTO rewards (name, kind, tier)
			VALUES ($1, 'collectible', $2)
			RETURNING id
		`, fmt.Sprintf("%s %s %d", t.Name(), tier, n), tier).Scan(&id)
		require.NoError(t, err)
		return id
	}
	for i := range fx.legendary {
		fx.legendary[i] = insert(gacha.TierLegendary, i)
	}
	for i := range fx.epics {
		fx.epics[i] = insert(gacha.TierEpic, i)
	}
	for i := range fx.rares {
		fx.rares[i] = insert(gacha.TierRare, i)
	}

	err := pool.QueryRow(ctx, `
		INSERT INTO banners (name, featured_reward_id, is_active)
		VALUES ($1, $2, TRUE)
		RETURNING id
	`, t.Name(), fx.legendary[0]).Scan(&fx.bannerID)
	require.NoError(t, err)

	for _, id := range [][2]int64{fx.legendary, fx.epics, fx.rares} {
		for _, rewardID := range id {
			_, err := pool.Exec(ctx, `
				INSERT INTO banner_rewards (banner_id, reward_id) VALUES ($1, $2)
			`, fx.bannerID, rewardID)
			require.NoError(t, err)
		}
	}
	return fx
}

// seedReward inserts one standalone reward outside any banner.
func seedReward(t *testing.T, pool *pgxpool.Pool, tier gacha.Tier, name string) int64 {
	t.Helper()
	var id int64
	err := pool.QueryRow(t.Context(), `
		INSERT INTO rewards (name, kind, tier)
		VALUES ($1, 'collectible', $2)
		RETURNING id
	`, t.Name()+" "+name, tier).Scan(&id)
	require.NoError(t, err)
	return id
}

func newUser(t *testing.T, svc *economy.Service, suffix string, gold, silver, spins int64) economy.User {
	t.Helper()
	ctx := t.Context()
	u, err := svc.GetOrCreateUser(ctx, t.Name()+"/"+suffix)
	require.NoError(t, err)
	if gold != 0 || silver != 0 || spins != 0 {
		u, err = svc.GrantTokens(ctx, u.ID, gold, silver, spins)
		require.NoError(t, err)
	}
	return u
}

type offerSpec struct {
	rewardID       int64
	currency       string
	price          int64
	bundleKind     string
	bundleQuantity int64
	userLimit      int64
	globalLimit    int64
}

func seedOffer(t *testing.T, pool *pgxpool.Pool, spec offerSpec) int64 {
	t.Helper()
	var rewardID *int64
	if spec.rewardID != 0 {
		rewardID = &spec.rewardID
	}
	var bundleKind *string
	if spec.bundleKind != "" {
		bundleKind = &spec.bundleKind
	}
	bundleQuantity := spec.bundleQuantity
	if bundleQuantity == 0 {
		bundleQuantity = 1
	}
	var userLimit, globalLimit *int64
	if spec.userLimit != 0 {
		userLimit = &spec.userLimit
	}
	if spec.globalLimit != 0 {
		globalLimit = &spec.globalLimit
	}

	var id int64
	err := pool.QueryRow(t.Context(), `
		INSERT INTO shop_offers (reward_id, currency, price, bundle_kind, bundle_quantity, user_limit, global_limit)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`, rewardID, spec.currency, spec.price, bundleKind, bundleQuantity, userLimit, globalLimit).Scan(&id)
	require.NoError(t, err)
	return id
}

// grantEntry inserts one inventory row directly, bypassing the draw path.
func grantEntry(t *testing.T, pool *pgxpool.Pool, userID, rewardID int64, favorited bool) int64 {
	t.Helper()
	var id int64
	err := pool.QueryRow(t.Context(), `
		INSERT INTO inventory (user_id, reward_id, favorited)
		VALUES ($1, $2, $3)
		RETURNING id
	`, userID, rewardID, favorited).Scan(&id)
	require.NoError(t, err)
	return id
}

func countRows(t *testing.T, pool *pgxpool.Pool, query string, args ...any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, pool.QueryRow(t.Context(), query, args...).Scan(&n))
	return n
}

// setPity overwrites the pity counters for (user, banner).
func setPity(t *testing.T, pool *pgxpool.Pool, userID, bannerID int64, st gacha.PityState) {
	t.Helper()
	var wished *int64
	if st.WishedRewardID != 0 {
		wished = &st.WishedRewardID
	}
	_, err := pool.Exec(t.Context(), `
		INSERT INTO pity_state (user_id, banner_id, pulls_since_legendary, pulls_since_epic, guaranteed_featured, wished_reward_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id, banner_id) DO UPDATE
		SET pulls_since_legendary = EXCLUDED.pulls_since_legendary,
		    pulls_since_epic = EXCLUDED.pulls_since_epic,
		    guaranteed_featured = EXCLUDED.guaranteed_featured,
		    wished_reward_id = EXCLUDED.wished_reward_id
	`, userID, bannerID, st.PullsSinceLegendary, st.PullsSinceEpic, st.GuaranteedFeatured, wished)
	require.NoError(t, err)
}
