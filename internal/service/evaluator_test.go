package service

import (
	"testing"

	"github.com/propzen/billing/internal/domain/plan"
	"github.com/propzen/billing/internal/domain/subscription"
	"github.com/propzen/billing/internal/testutil"
	"github.com/propzen/billing/internal/types"
	"github.com/stretchr/testify/assert"
)

func TestEvaluateTransitionKind(t *testing.T) {
	evaluator := NewUpgradePathEvaluator()

	pastDueBasic := testutil.ActiveSubscription(types.PlanTierBasic)
	pastDueBasic.Status = types.SubscriptionStatusPastDue

	// A legacy free plan that is not a trial.
	freeForever := &subscription.Subscription{
		CurrentPlanSlug: "free",
		Tier:            types.PlanTierTrial,
		TierRank:        0,
		Status:          types.SubscriptionStatusActive,
	}

	tests := []struct {
		name   string
		sub    *subscription.Subscription
		target *plan.Plan
		want   types.TransitionKind
	}{
		{
			name:   "same plan is a no-op",
			sub:    testutil.ActiveSubscription(types.PlanTierBasic),
			target: testutil.PlanBySlug("basic"),
			want:   types.TransitionNoOp,
		},
		{
			name:   "trial to paid",
			sub:    testutil.TrialSubscription(),
			target: testutil.PlanBySlug("basic"),
			want:   types.TransitionFreeToPaid,
		},
		{
			name:   "trial to top tier is still free to paid",
			sub:    testutil.TrialSubscription(),
			target: testutil.PlanBySlug("enterprise"),
			want:   types.TransitionFreeToPaid,
		},
		{
			name:   "legacy free plan to paid",
			sub:    freeForever,
			target: testutil.PlanBySlug("premium"),
			want:   types.TransitionFreeToPaid,
		},
		{
			name:   "free to another free tier buys nothing",
			sub:    freeForever,
			target: testutil.PlanBySlug("trial"),
			want:   types.TransitionNoOp,
		},
		{
			name:   "paid to higher tier",
			sub:    testutil.ActiveSubscription(types.PlanTierBasic),
			target: testutil.PlanBySlug("premium"),
			want:   types.TransitionPaidUpgrade,
		},
		{
			name:   "past due tenant still upgrades on paid footing",
			sub:    pastDueBasic,
			target: testutil.PlanBySlug("premium"),
			want:   types.TransitionPaidUpgrade,
		},
		{
			name:   "paid to lower tier",
			sub:    testutil.ActiveSubscription(types.PlanTierPremium),
			target: testutil.PlanBySlug("basic"),
			want:   types.TransitionDowngrade,
		},
		{
			name: "same rank different slug is a no-op",
			sub:  testutil.ActiveSubscription(types.PlanTierBasic),
			target: &plan.Plan{
				Slug:     "basic-legacy",
				Tier:     types.PlanTierBasic,
				TierRank: 1,
			},
			want: types.TransitionNoOp,
		},
		{
			name:   "paid back to the free tier",
			sub:    testutil.ActiveSubscription(types.PlanTierPremium),
			target: testutil.PlanBySlug("trial"),
			want:   types.TransitionDowngrade,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, evaluator.Evaluate(tt.sub, tt.target))
		})
	}
}

func TestEvaluateIsTotal(t *testing.T) {
	evaluator := NewUpgradePathEvaluator()

	statuses := []types.SubscriptionStatus{
		types.SubscriptionStatusTrial,
		types.SubscriptionStatusActive,
		types.SubscriptionStatusPastDue,
		types.SubscriptionStatusCancelled,
	}
	known := []types.TransitionKind{
		types.TransitionNoOp,
		types.TransitionFreeToPaid,
		types.TransitionPaidUpgrade,
		types.TransitionDowngrade,
	}

	// Every combination of status and rank pair must land on a known
	// kind; evaluation has no error path.
	for _, status := range statuses {
		for subRank := 0; subRank <= 3; subRank++ {
			for _, target := range testutil.DefaultPlans() {
				sub := &subscription.Subscription{
					CurrentPlanSlug: "other",
					TierRank:        subRank,
					Status:          status,
				}
				got := evaluator.Evaluate(sub, target)
				assert.Contains(t, known, got,
					"status=%s subRank=%d target=%s", status, subRank, target.Slug)
			}
		}
	}
}
