package repository

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"shethrive-data/internal/domain"
	"shethrive-data/internal/store"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var catalogYAML []byte

type catalogProvider struct {
	ID          string          `yaml:"id"`
	Name        string          `yaml:"name"`
	Specialty   string          `yaml:"specialty"`
	Bio         string          `yaml:"bio"`
	Rate        domain.Money    `yaml:"rate"`
	ImageURL    string          `yaml:"image_url"`
	SlotOffsets []time.Duration `yaml:"slot_offsets"`
}

// Catalog global providers, plans and articles.
type Catalog struct {
	Providers []catalogProvider `yaml:"providers"`
	Plans     []domain.Plan     `yaml:"plans"`
	Articles  []domain.Article  `yaml:"articles"`
}

// LoadCatalog parses the embedded catalogue.
func LoadCatalog() (*Catalog, error) {
	return ParseCatalog(catalogYAML)
}

func ParseCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	return &c, nil
}

// ProvidersAt resolves slot offsets against now, truncated to the minute.
func (c *Catalog) ProvidersAt(now time.Time) []domain.Provider {
	base := now.UTC().Truncate(time.Minute)
	out := make([]domain.Provider, 0, len(c.Providers))
	for _, p := range c.Providers {
		slots := make([]time.Time, 0, len(p.SlotOffsets))
		for _, off := range p.SlotOffsets {
			slots = append(slots, base.Add(off))
		}
		out = append(out, domain.Provider{
			ID:             p.ID,
			Name:           p.Name,
			Specialty:      p.Specialty,
			Bio:            p.Bio,
			Rate:           p.Rate,
			ImageURL:       p.ImageURL,
			AvailableSlots: slots,
		})
	}
	return out
}

// seeded loads key, writing seed first when the collection is empty.
func seeded[T any](ctx context.Context, s *store.Store, key string, seed func() []T) ([]T, error) {
	records, err := store.Load[T](ctx, s, key)
	if err != nil {
		return nil, err
	}
	if len(records) > 0 {
		return records, nil
	}
	err = s.Update(ctx, []string{key}, func(tx *store.Tx) error {
		current, err := store.Read[T](tx, key)
		if err != nil {
			return err
		}
		if len(current) > 0 {
			records = current
			return nil
		}
		records = seed()
		return store.Write(tx, key, records)
	})
	if err != nil {
		return nil, fmt.Errorf("seed %s: %w", key, err)
	}
	return records, nil
}

// Providers telehealth directory.
type Providers struct {
	env     Env
	catalog *Catalog
}

func NewProviders(env Env, catalog *Catalog) *Providers {
	return &Providers{env: env, catalog: catalog}
}

func (r *Providers) List(ctx context.Context) ([]domain.Provider, error) {
	return seeded(ctx, r.env.Store, domain.ProvidersKey, func() []domain.Provider {
		return r.catalog.ProvidersAt(r.env.now())
	})
}

func (r *Providers) Get(ctx context.Context, providerID string) (*domain.Provider, error) {
	all, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, p := range all {
		if p.ID == providerID {
			return &p, nil
		}
	}
	return nil, fmt.Errorf("provider %s: %w", providerID, domain.ErrNotFound)
}

// Plans subscription catalogue.
type Plans struct {
	env     Env
	catalog *Catalog
}

func NewPlans(env Env, catalog *Catalog) *Plans {
	return &Plans{env: env, catalog: catalog}
}

func (r *Plans) List(ctx context.Context) ([]domain.Plan, error) {
	return seeded(ctx, r.env.Store, domain.PlansKey, func() []domain.Plan {
		return append([]domain.Plan{}, r.catalog.Plans...)
	})
}

func (r *Plans) Get(ctx context.Context, planID string) (*domain.Plan, error) {
	all, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, p := range all {
		if p.ID == planID {
			return &p, nil
		}
	}
	return nil, fmt.Errorf("plan %s: %w", planID, domain.ErrNotFound)
}
