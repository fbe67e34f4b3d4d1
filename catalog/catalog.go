// Package catalog loads seed content (rewards, banners, shop offers) from a
// YAML file and upserts it into Postgres. Seeding is idempotent: rewards and
// banners key on name, offers on code.
package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/hallowtide/atelier/gacha"
)

// Catalog is the full seed content of one deployment.
type Catalog struct {
	Rewards []Reward `yaml:"rewards"`
	Banners []Banner `yaml:"banners"`
	Offers  []Offer  `yaml:"offers"`
}

// Reward is one catalog reward definition.
type Reward struct {
	Name        string     `yaml:"name"`
	Kind        string     `yaml:"kind"`
	Tier        gacha.Tier `yaml:"tier"`
	ImageURL    string     `yaml:"image_url"`
	Description string     `yaml:"description"`
}

// Banner is one banner definition referencing rewards by name.
type Banner struct {
	Name     string   `yaml:"name"`
	Featured string   `yaml:"featured"`
	Active   bool     `yaml:"active"`
	Rewards  []string `yaml:"rewards"`
}

// Offer is one shop offer definition. Either Reward or BundleKind is set.
type Offer struct {
	Code           string `yaml:"code"`
	Reward         string `yaml:"reward"`
	Currency       string `yaml:"currency"`
	Price          int64  `yaml:"price"`
	BundleKind     string `yaml:"bundle_kind"`
	BundleQuantity int64  `yaml:"bundle_quantity"`
	UserLimit      int64  `yaml:"user_limit"`
	GlobalLimit    int64  `yaml:"global_limit"`
	Featured       bool   `yaml:"featured"`
}

// Load reads and validates a catalog file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates catalog YAML.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks referential integrity and that every active banner carries
// a drawable pool.
func (c *Catalog) Validate() error {
	tiers := make(map[string]gacha.Tier, len(c.Rewards))
	for _, r := range c.Rewards {
		if r.Name == "" {
			return fmt.Errorf("reward with empty name")
		}
		if !r.Tier.Valid() {
			return fmt.Errorf("reward %q: unknown tier %q", r.Name, r.Tier)
		}
		if _, dup := tiers[r.Name]; dup {
			return fmt.Errorf("duplicate reward %q", r.Name)
		}
		tiers[r.Name] = r.Tier
	}

	for _, b := range c.Banners {
		if b.Name == "" {
			return fmt.Errorf("banner with empty name")
		}
		pool, err := c.bannerPool(b, tiers)
		if err != nil {
			return err
		}
		if err := pool.Validate(); err != nil {
			return fmt.Errorf("banner %q: %w", b.Name, err)
		}
	}

	seenCodes := map[string]bool{}
	for _, o := range c.Offers {
		if o.Code == "" {
			return fmt.Errorf("offer with empty code")
		}
		if seenCodes[o.Code] {
			return fmt.Errorf("duplicate offer code %q", o.Code)
		}
		seenCodes[o.Code] = true
		if o.Currency != "gold" && o.Currency != "silver" {
			return fmt.Errorf("offer %q: currency must be gold or silver", o.Code)
		}
		if o.Price < 0 {
			return fmt.Errorf("offer %q: negative price", o.Code)
		}
		if o.Reward == "" && o.BundleKind == "" {
			return fmt.Errorf("offer %q: needs a reward or a bundle kind", o.Code)
		}
		if o.Reward != "" {
			if _, ok := tiers[o.Reward]; !ok {
				return fmt.Errorf("offer %q: unknown reward %q", o.Code, o.Reward)
			}
		}
	}
	return nil
}

// bannerPool builds a synthetic gacha.Pool for validation, using reward list
// positions as ids.
func (c *Catalog) bannerPool(b Banner, tiers map[string]gacha.Tier) (gacha.Pool, error) {
	pool := gacha.Pool{}
	ids := make(map[string]int64, len(b.Rewards))
	for i, name := range b.Rewards {
		tier, ok := tiers[name]
		if !ok {
			return gacha.Pool{}, fmt.Errorf("banner %q: unknown reward %q", b.Name, name)
		}
		id := int64(i + 1)
		ids[name] = id
		pool.Entries = append(pool.Entries, gacha.PoolEntry{RewardID: id, Tier: tier})
	}
	if b.Featured != "" {
		id, ok := ids[b.Featured]
		if !ok {
			return gacha.Pool{}, fmt.Errorf("banner %q: featured reward %q not in pool", b.Name, b.Featured)
		}
		pool.FeaturedRewardID = id
	}
	return pool, nil
}
