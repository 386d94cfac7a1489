package billingengine

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/propzen/billing/internal/config"
	"github.com/propzen/billing/internal/domain/subscription"
	ierr "github.com/propzen/billing/internal/errors"
	"github.com/propzen/billing/internal/httpclient"
	"github.com/propzen/billing/internal/logger"
	"github.com/propzen/billing/internal/types"
)

type subscriptionPayload struct {
	CurrentPlanSlug string     `json:"current_plan_slug"`
	Tier            string     `json:"tier"`
	TierRank        int        `json:"tier_rank"`
	Status          string     `json:"status"`
	TrialEndDate    *time.Time `json:"trial_end_date,omitempty"`
}

// SubscriptionProvider reads the tenant's current subscription view
// from the billing engine. The view is fetched per call; Refresh exists
// so callers can force a refetch after a successful upgrade even if an
// implementation adds caching later.
type SubscriptionProvider struct {
	baseURL string
	apiKey  string
	client  httpclient.Client
	logger  *logger.Logger

	mu sync.Mutex
}

func NewSubscriptionProvider(cfg *config.Configuration, log *logger.Logger) subscription.Provider {
	return &SubscriptionProvider{
		baseURL: cfg.BillingEngine.BaseURL,
		apiKey:  cfg.BillingEngine.APIKey,
		client:  httpclient.NewRetryableClient(cfg.BillingEngine.MaxRetries, cfg.BillingEngine.Timeout),
		logger:  log,
	}
}

func NewSubscriptionProviderWithHTTP(baseURL string, client httpclient.Client, log *logger.Logger) subscription.Provider {
	return &SubscriptionProvider{
		baseURL: baseURL,
		client:  client,
		logger:  log,
	}
}

func (p *SubscriptionProvider) Current(ctx context.Context) (*subscription.Subscription, error) {
	headers := map[string]string{}
	if p.apiKey != "" {
		headers["x-api-key"] = p.apiKey
	}
	if tenantID := types.GetTenantID(ctx); tenantID != "" {
		headers[types.HeaderTenantID] = tenantID
	}

	resp, err := p.client.Send(ctx, &httpclient.Request{
		Method:  http.MethodGet,
		URL:     p.baseURL + "/subscriptions/current",
		Headers: headers,
	})
	if err != nil {
		if httpErr, ok := httpclient.IsHTTPError(err); ok && httpErr.StatusCode == http.StatusNotFound {
			return nil, ierr.NewError("tenant has no subscription").
				WithHint("No encontramos una suscripción activa para tu cuenta").
				Mark(ierr.ErrNotFound)
		}
		return nil, err
	}

	var payload subscriptionPayload
	if err := json.Unmarshal(resp.Body, &payload); err != nil {
		return nil, ierr.WithError(err).
			WithHint("No pudimos cargar tu suscripción actual").
			Mark(ierr.ErrHTTPClient)
	}

	status := types.SubscriptionStatus(payload.Status)
	if err := status.Validate(); err != nil {
		return nil, err
	}

	return &subscription.Subscription{
		CurrentPlanSlug: payload.CurrentPlanSlug,
		Tier:            types.PlanTier(payload.Tier),
		TierRank:        payload.TierRank,
		Status:          status,
		TrialEndDate:    payload.TrialEndDate,
	}, nil
}

// Refresh is a no-op for the uncached provider; the next Current call
// always hits the billing engine.
func (p *SubscriptionProvider) Refresh(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.logger.Debugw("subscription view refresh requested", "tenant_id", types.GetTenantID(ctx))
	return nil
}
