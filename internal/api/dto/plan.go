package dto

import (
	"github.com/propzen/billing/internal/domain/plan"
	"github.com/propzen/billing/internal/types"
)

// PlanResponse is a catalog entry as rendered on the plan selection
// page. Prices are serialized as strings to preserve decimal precision.
type PlanResponse struct {
	Slug            string   `json:"slug"`
	Name            string   `json:"name"`
	Tier            string   `json:"tier"`
	TierRank        int      `json:"tier_rank"`
	PriceARS        string   `json:"price_ars"`
	PriceARSDisplay string   `json:"price_ars_display"`
	PriceUSD        string   `json:"price_usd"`
	Features        []string `json:"features"`
	IsUpgrade       bool     `json:"is_upgrade"`
	IsCurrent       bool     `json:"is_current"`
}

// ListPlansResponse represents the plan catalog for a tenant
type ListPlansResponse struct {
	Items []*PlanResponse `json:"items"`
	Total int             `json:"total"`
}

// NewPlanResponse builds a catalog entry relative to the tenant's
// current plan slug and tier rank.
func NewPlanResponse(p *plan.Plan, currentSlug string, currentRank int) *PlanResponse {
	return &PlanResponse{
		Slug:            p.Slug,
		Name:            p.Name,
		Tier:            p.Tier.String(),
		TierRank:        p.TierRank,
		PriceARS:        p.PriceARS.String(),
		PriceARSDisplay: types.FormatARS(p.PriceARS),
		PriceUSD:        p.PriceUSD.String(),
		Features:        p.Features,
		IsUpgrade:       p.IsUpgradeRelativeTo(currentRank),
		IsCurrent:       p.Slug == currentSlug,
	}
}
