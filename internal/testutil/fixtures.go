package testutil

import (
	"github.com/propzen/billing/internal/domain/plan"
	"github.com/propzen/billing/internal/domain/subscription"
	"github.com/propzen/billing/internal/types"
	"github.com/shopspring/decimal"
)

func newPlan(slug string, tier types.PlanTier, priceARS int64, priceUSD int64) *plan.Plan {
	rank, _ := tier.Rank()
	features, _ := tier.Features()
	return &plan.Plan{
		Slug:     slug,
		Name:     slug,
		Tier:     tier,
		TierRank: rank,
		PriceARS: decimal.NewFromInt(priceARS),
		PriceUSD: decimal.NewFromInt(priceUSD),
		Features: features,
	}
}

// DefaultPlans returns the catalog used across checkout tests.
func DefaultPlans() []*plan.Plan {
	return []*plan.Plan{
		newPlan("trial", types.PlanTierTrial, 0, 0),
		newPlan("basic", types.PlanTierBasic, 15000, 15),
		newPlan("premium", types.PlanTierPremium, 50000, 50),
		newPlan("enterprise", types.PlanTierEnterprise, 120000, 120),
	}
}

// PlanBySlug returns the default plan with the given slug.
func PlanBySlug(slug string) *plan.Plan {
	for _, p := range DefaultPlans() {
		if p.Slug == slug {
			return p
		}
	}
	return nil
}

// TrialSubscription returns a tenant still on trial.
func TrialSubscription() *subscription.Subscription {
	return &subscription.Subscription{
		CurrentPlanSlug: "trial",
		Tier:            types.PlanTierTrial,
		TierRank:        0,
		Status:          types.SubscriptionStatusTrial,
	}
}

// ActiveSubscription returns a tenant on an active paid plan.
func ActiveSubscription(tier types.PlanTier) *subscription.Subscription {
	rank, _ := tier.Rank()
	return &subscription.Subscription{
		CurrentPlanSlug: tier.String(),
		Tier:            tier,
		TierRank:        rank,
		Status:          types.SubscriptionStatusActive,
	}
}
