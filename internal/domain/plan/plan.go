package plan

import (
	"sort"
	"strings"

	"github.com/quizfunnel/leadsync/internal/config"
	ierr "github.com/quizfunnel/leadsync/internal/errors"
	"github.com/quizfunnel/leadsync/internal/types"
	"github.com/samber/lo"
)

// Plan is a static pricing tier sold through the funnel
type Plan struct {
	Key           types.PlanType
	Label         string
	AmountInCents int64
	Currency      string
	// PriceID is the payment provider price used for checkout
	PriceID string
	// ProductID is the entitlement provider product the plan unlocks
	ProductID string
	Duration  types.EntitlementDuration
}

// Catalog resolves plan keys and provider product ids. It is immutable after construction.
type Catalog struct {
	plans     map[types.PlanType]*Plan
	byProduct map[string]types.PlanType
}

// NewCatalog builds the catalog from configuration
func NewCatalog(cfg *config.Configuration) (*Catalog, error) {
	plans := make([]*Plan, 0, len(cfg.Plans))
	for key, p := range cfg.Plans {
		plans = append(plans, &Plan{
			Key:           types.PlanType(key),
			Label:         p.Label,
			AmountInCents: p.AmountInCents,
			Currency:      cfg.Payment.Currency,
			PriceID:       p.PriceID,
			ProductID:     p.ProductID,
			Duration:      types.EntitlementDuration(p.Duration),
		})
	}
	return NewCatalogFromPlans(plans, cfg.PlanProductAliases)
}

// NewCatalogFromPlans builds a catalog from explicit entries.
// aliases maps extra provider product ids to plan keys.
func NewCatalogFromPlans(plans []*Plan, aliases map[string]string) (*Catalog, error) {
	c := &Catalog{
		plans:     make(map[types.PlanType]*Plan, len(plans)),
		byProduct: make(map[string]types.PlanType),
	}

	for _, p := range plans {
		if p.Key == "" {
			return nil, ierr.NewError("plan key is required").
				WithHint("Every plan in the catalog needs a key").
				Mark(ierr.ErrValidation)
		}
		if p.AmountInCents <= 0 {
			return nil, ierr.NewError("plan amount must be positive").
				WithHintf("Plan %s has an invalid amount", p.Key).
				Mark(ierr.ErrValidation)
		}
		if err := p.Duration.Validate(); err != nil {
			return nil, err
		}
		if _, exists := c.plans[p.Key]; exists {
			return nil, ierr.NewError("duplicate plan key").
				WithHintf("Plan %s is defined twice", p.Key).
				Mark(ierr.ErrAlreadyExists)
		}

		c.plans[p.Key] = p
		for _, id := range []string{p.ProductID, p.PriceID} {
			if id != "" {
				c.byProduct[id] = p.Key
			}
		}
	}

	for productID, key := range aliases {
		if _, ok := c.plans[types.PlanType(key)]; !ok {
			return nil, ierr.NewError("product alias points to unknown plan").
				WithHintf("Product %s is mapped to unknown plan %s", productID, key).
				Mark(ierr.ErrValidation)
		}
		c.byProduct[productID] = types.PlanType(key)
	}

	return c, nil
}

// Get returns the plan for key and rejects unknown keys
func (c *Catalog) Get(key types.PlanType) (*Plan, error) {
	p, ok := c.plans[key]
	if !ok {
		return nil, ierr.NewError("unknown plan").
			WithHintf("Plan %q does not exist", key).
			WithReportableDetails(map[string]any{
				"plan_type": key,
				"allowed":   c.Keys(),
			}).
			Mark(ierr.ErrValidation)
	}
	return p, nil
}

// Lookup is Get without an error for callers that treat unknown keys as absent
func (c *Catalog) Lookup(key types.PlanType) (*Plan, bool) {
	p, ok := c.plans[key]
	return p, ok
}

// AmountInCents resolves the price of key, nil when key is empty or unknown
func (c *Catalog) AmountInCents(key *types.PlanType) *int64 {
	if key == nil {
		return nil
	}
	p, ok := c.plans[*key]
	if !ok {
		return nil
	}
	return lo.ToPtr(p.AmountInCents)
}

// PlanForProduct maps an entitlement or payment provider product id back to a plan.
// Store suffixes such as "new_monthly:base" are ignored.
func (c *Catalog) PlanForProduct(productID string) (types.PlanType, bool) {
	if productID == "" {
		return "", false
	}
	if key, ok := c.byProduct[productID]; ok {
		return key, true
	}
	if base, _, found := strings.Cut(productID, ":"); found {
		key, ok := c.byProduct[base]
		return key, ok
	}
	return "", false
}

// Keys returns the plan keys ordered by price
func (c *Catalog) Keys() []types.PlanType {
	return lo.Map(c.List(), func(p *Plan, _ int) types.PlanType { return p.Key })
}

// List returns all plans ordered by price
func (c *Catalog) List() []*Plan {
	plans := lo.Values(c.plans)
	sort.Slice(plans, func(i, j int) bool {
		if plans[i].AmountInCents == plans[j].AmountInCents {
			return plans[i].Key < plans[j].Key
		}
		return plans[i].AmountInCents < plans[j].AmountInCents
	})
	return plans
}
