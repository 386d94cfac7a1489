package service

import (
	"context"
	"fmt"

	gocache "github.com/patrickmn/go-cache"
	"github.com/propzen/billing/internal/api/dto"
	"github.com/propzen/billing/internal/domain/plan"
	ierr "github.com/propzen/billing/internal/errors"
	"github.com/propzen/billing/internal/types"
)

// PlanCatalogService loads the purchasable plans for a tenant. Pure
// read: the billing engine owns plan state, this service only fetches,
// validates, and caches it for the lifetime of a page view.
type PlanCatalogService interface {
	GetPlans(ctx context.Context) (*dto.ListPlansResponse, error)
	GetPlan(ctx context.Context, slug string) (*plan.Plan, error)
}

type planCatalogService struct {
	ServiceParams
	cache *gocache.Cache
}

func NewPlanCatalogService(params ServiceParams) PlanCatalogService {
	ttl := params.Config.Checkout.CatalogTTL
	return &planCatalogService{
		ServiceParams: params,
		cache:         gocache.New(ttl, 2*ttl),
	}
}

func (s *planCatalogService) GetPlans(ctx context.Context) (*dto.ListPlansResponse, error) {
	plans, err := s.listPlans(ctx)
	if err != nil {
		return nil, err
	}

	sub, err := s.SubscriptionProvider.Current(ctx)
	if err != nil {
		return nil, err
	}

	items := make([]*dto.PlanResponse, 0, len(plans))
	for _, p := range plans {
		items = append(items, dto.NewPlanResponse(p, sub.CurrentPlanSlug, sub.TierRank))
	}

	return &dto.ListPlansResponse{
		Items: items,
		Total: len(items),
	}, nil
}

func (s *planCatalogService) GetPlan(ctx context.Context, slug string) (*plan.Plan, error) {
	if slug == "" {
		return nil, ierr.NewError("plan slug is required").
			WithHint("Elegí un plan para continuar").
			Mark(ierr.ErrValidation)
	}

	plans, err := s.listPlans(ctx)
	if err != nil {
		return nil, err
	}

	for _, p := range plans {
		if p.Slug == slug {
			return p, nil
		}
	}

	return nil, ierr.NewError("plan not found in catalog").
		WithHint("El plan seleccionado ya no está disponible").
		WithReportableDetails(map[string]any{"plan_slug": slug}).
		Mark(ierr.ErrNotFound)
}

// listPlans returns the validated catalog for the tenant, cached per
// tenant for the configured TTL.
func (s *planCatalogService) listPlans(ctx context.Context) ([]*plan.Plan, error) {
	cacheKey := fmt.Sprintf("plans:%s", types.GetTenantID(ctx))
	if cached, found := s.cache.Get(cacheKey); found {
		return cached.([]*plan.Plan), nil
	}

	fetched, err := s.BillingGateway.ListPlans(ctx)
	if err != nil {
		return nil, err
	}

	// Plans that fail the tier table are dropped, not rendered
	// half-configured.
	plans := make([]*plan.Plan, 0, len(fetched))
	for _, p := range fetched {
		if err := p.Validate(); err != nil {
			s.Logger.Warnw("dropping invalid plan from catalog",
				"slug", p.Slug, "tier", p.Tier, "error", err)
			continue
		}
		plans = append(plans, p)
	}

	s.cache.Set(cacheKey, plans, gocache.DefaultExpiration)
	return plans, nil
}
