package service

import (
	"github.com/propzen/billing/internal/domain/plan"
	"github.com/propzen/billing/internal/domain/subscription"
	"github.com/propzen/billing/internal/types"
)

// UpgradePathEvaluator classifies a plan change relative to the current
// subscription. Pure and total: every (status, rank) combination maps
// to exactly one TransitionKind, and evaluation never fails.
type UpgradePathEvaluator interface {
	Evaluate(sub *subscription.Subscription, target *plan.Plan) types.TransitionKind
}

type upgradePathEvaluator struct{}

func NewUpgradePathEvaluator() UpgradePathEvaluator {
	return &upgradePathEvaluator{}
}

func (e *upgradePathEvaluator) Evaluate(sub *subscription.Subscription, target *plan.Plan) types.TransitionKind {
	if target.Slug == sub.CurrentPlanSlug {
		return types.TransitionNoOp
	}

	if isFree(sub) {
		if target.TierRank > 0 {
			return types.TransitionFreeToPaid
		}
		// Lateral move between free tiers buys nothing.
		return types.TransitionNoOp
	}

	switch {
	case target.TierRank > sub.TierRank:
		return types.TransitionPaidUpgrade
	case target.TierRank < sub.TierRank:
		return types.TransitionDowngrade
	default:
		// Same rank, different slug: not a purchasable change.
		return types.TransitionNoOp
	}
}

// isFree is the single authoritative decision point for whether the
// tenant is on a free footing. Trial status and rank-0 tiers (legacy
// "free" plans) both count; no other code makes this call.
func isFree(sub *subscription.Subscription) bool {
	return sub.Status == types.SubscriptionStatusTrial || sub.TierRank == 0
}
