package subscription

import (
	"context"
	"time"

	"github.com/propzen/billing/internal/types"
)

// Subscription is the read-only view of a tenant's current subscription
// held by the auth context. The billing engine is the source of truth;
// this service never caches it across checkout sessions.
type Subscription struct {
	CurrentPlanSlug string                   `json:"current_plan_slug"`
	Tier            types.PlanTier           `json:"tier"`
	TierRank        int                      `json:"tier_rank"`
	Status          types.SubscriptionStatus `json:"status"`
	TrialEndDate    *time.Time               `json:"trial_end_date,omitempty"`
}

// Provider exposes the tenant's subscription to the checkout flow as an
// explicit dependency. Refresh is invoked by the caller after a
// successful upgrade so the view reflects server-side state.
type Provider interface {
	Current(ctx context.Context) (*Subscription, error)
	Refresh(ctx context.Context) error
}
