package plan

import (
	ierr "github.com/propzen/billing/internal/errors"
	"github.com/propzen/billing/internal/types"
	"github.com/shopspring/decimal"
)

// Plan is a purchasable subscription plan as served by the billing
// engine. Immutable once fetched; the catalog owns it for the lifetime
// of a page view.
type Plan struct {
	Slug     string          `json:"slug"`
	Name     string          `json:"name"`
	Tier     types.PlanTier  `json:"tier"`
	TierRank int             `json:"tier_rank"`
	PriceARS decimal.Decimal `json:"price_ars"`
	PriceUSD decimal.Decimal `json:"price_usd"`
	Features []string        `json:"features"`
}

// Validate checks the plan against the tier table. Unknown tiers fail
// closed rather than rendering as half-configured plans.
func (p *Plan) Validate() error {
	if p.Slug == "" {
		return ierr.NewError("plan slug is required").
			WithHint("El plan recibido es inválido").
			Mark(ierr.ErrValidation)
	}

	if err := p.Tier.Validate(); err != nil {
		return err
	}

	rank, _ := p.Tier.Rank()
	if p.TierRank != rank {
		return ierr.NewError("plan tier rank does not match tier table").
			WithHint("El catálogo de planes está desactualizado").
			WithReportableDetails(map[string]any{
				"slug":          p.Slug,
				"tier":          p.Tier,
				"provided_rank": p.TierRank,
				"expected_rank": rank,
			}).
			Mark(ierr.ErrValidation)
	}

	if p.PriceARS.IsNegative() || p.PriceUSD.IsNegative() {
		return ierr.NewError("plan price cannot be negative").
			WithHint("El catálogo de planes está desactualizado").
			Mark(ierr.ErrValidation)
	}

	return nil
}

// IsUpgradeRelativeTo reports whether selecting this plan would be an
// upgrade for the given current tier rank.
func (p *Plan) IsUpgradeRelativeTo(currentRank int) bool {
	return p.TierRank > currentRank
}
