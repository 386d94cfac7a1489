package billingengine

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/propzen/billing/internal/config"
	"github.com/propzen/billing/internal/domain/billing"
	"github.com/propzen/billing/internal/domain/plan"
	ierr "github.com/propzen/billing/internal/errors"
	"github.com/propzen/billing/internal/httpclient"
	"github.com/propzen/billing/internal/logger"
	"github.com/propzen/billing/internal/types"
	"github.com/shopspring/decimal"
)

// Client is the REST client for the remote billing engine. It consumes
// the engine's contract; all proration arithmetic happens server-side.
//
// Reads and the proration calculate go through a retrying client. The
// two upgrade POSTs go through a non-retrying one: they are not
// idempotent, and a transport-level re-send after a 502 or a dropped
// response could charge the tenant twice.
type Client struct {
	baseURL   string
	apiKey    string
	reader    httpclient.Client
	submitter httpclient.Client
	logger    *logger.Logger
}

// NewClient creates a billing engine client. Retries are transport-level
// only and apply to safe endpoints; business errors surface immediately
// as GatewayError.
func NewClient(cfg *config.Configuration, log *logger.Logger) billing.Gateway {
	return &Client{
		baseURL:   cfg.BillingEngine.BaseURL,
		apiKey:    cfg.BillingEngine.APIKey,
		reader:    httpclient.NewRetryableClient(cfg.BillingEngine.MaxRetries, cfg.BillingEngine.Timeout),
		submitter: httpclient.NewDefaultClientWithTimeout(cfg.BillingEngine.Timeout),
		logger:    log,
	}
}

// NewClientWithHTTP creates a client over an explicit HTTP client, used
// by tests to script the wire.
func NewClientWithHTTP(baseURL string, client httpclient.Client, log *logger.Logger) billing.Gateway {
	return &Client{
		baseURL:   baseURL,
		reader:    client,
		submitter: client,
		logger:    log,
	}
}

type planPayload struct {
	Slug     string          `json:"slug"`
	Name     string          `json:"name"`
	Tier     string          `json:"tier"`
	TierRank int             `json:"tier_rank"`
	PriceARS decimal.Decimal `json:"price_ars"`
	PriceUSD decimal.Decimal `json:"price_usd"`
}

type calculateUpgradeRequest struct {
	PlanSlug string `json:"plan_slug"`
}

type calculateUpgradeResponse struct {
	Pricing struct {
		FullPriceARS     decimal.Decimal `json:"full_price_ars"`
		CreditAppliedARS decimal.Decimal `json:"credit_applied_ars"`
		UpgradeAmountARS decimal.Decimal `json:"upgrade_amount_ars"`
	} `json:"pricing"`
}

type upgradePaidToPaidRequest struct {
	PlanSlug string `json:"plan_slug"`
	Provider string `json:"provider"`
}

type errorEnvelope struct {
	ErrorCode string `json:"error_code"`
	Message   string `json:"message"`
}

func (c *Client) ListPlans(ctx context.Context) ([]*plan.Plan, error) {
	resp, err := c.send(ctx, c.reader, http.MethodGet, "/plans", nil)
	if err != nil {
		return nil, err
	}

	var payloads []planPayload
	if err := json.Unmarshal(resp.Body, &payloads); err != nil {
		return nil, ierr.WithError(err).
			WithHint("No pudimos cargar los planes disponibles").
			Mark(ierr.ErrHTTPClient)
	}

	plans := make([]*plan.Plan, 0, len(payloads))
	for _, p := range payloads {
		tier := types.PlanTier(p.Tier)
		features, known := tier.Features()
		if !known {
			c.logger.Warnw("unknown plan tier in catalog, features fail closed",
				"slug", p.Slug, "tier", p.Tier)
		}
		plans = append(plans, &plan.Plan{
			Slug:     p.Slug,
			Name:     p.Name,
			Tier:     tier,
			TierRank: p.TierRank,
			PriceARS: p.PriceARS,
			PriceUSD: p.PriceUSD,
			Features: features,
		})
	}
	return plans, nil
}

func (c *Client) CalculateUpgrade(ctx context.Context, planSlug string) (*billing.UpgradeCalculation, error) {
	body, err := json.Marshal(calculateUpgradeRequest{PlanSlug: planSlug})
	if err != nil {
		return nil, ierr.WithError(err).Mark(ierr.ErrSystem)
	}

	resp, err := c.send(ctx, c.reader, http.MethodPost, "/subscriptions/upgrade/calculate", body)
	if err != nil {
		return nil, err
	}

	var parsed calculateUpgradeResponse
	if err := json.Unmarshal(resp.Body, &parsed); err != nil {
		return nil, ierr.WithError(err).
			WithHint("No pudimos calcular el costo del cambio de plan").
			Mark(ierr.ErrHTTPClient)
	}

	calc := &billing.UpgradeCalculation{
		FullPriceARS:     parsed.Pricing.FullPriceARS,
		CreditAppliedARS: parsed.Pricing.CreditAppliedARS,
		UpgradeAmountARS: parsed.Pricing.UpgradeAmountARS,
	}
	if err := calc.Validate(); err != nil {
		return nil, err
	}
	return calc, nil
}

func (c *Client) UpgradeFromFree(ctx context.Context, req *billing.UpgradeFromFreeRequest) (*billing.UpgradeResult, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, ierr.WithError(err).Mark(ierr.ErrSystem)
	}

	// Sent at most once; the orchestrator's single-outstanding-submit
	// guard is only as good as the transport underneath it.
	resp, err := c.send(ctx, c.submitter, http.MethodPost, "/subscriptions/upgrade/from-free", body)
	if err != nil {
		return nil, err
	}
	return parseUpgradeResult(resp.Body)
}

func (c *Client) UpgradePaidToPaid(ctx context.Context, planSlug string, provider string) (*billing.UpgradeResult, error) {
	body, err := json.Marshal(upgradePaidToPaidRequest{PlanSlug: planSlug, Provider: provider})
	if err != nil {
		return nil, ierr.WithError(err).Mark(ierr.ErrSystem)
	}

	resp, err := c.send(ctx, c.submitter, http.MethodPost, "/subscriptions/upgrade/paid-to-paid", body)
	if err != nil {
		return nil, err
	}
	return parseUpgradeResult(resp.Body)
}

func parseUpgradeResult(body []byte) (*billing.UpgradeResult, error) {
	var result billing.UpgradeResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, ierr.WithError(err).
			WithHint("La respuesta del sistema de facturación es inválida").
			Mark(ierr.ErrHTTPClient)
	}
	if result.PreapprovalID == "" {
		return nil, ierr.NewError("upgrade response missing preapproval_id").
			WithHint("La respuesta del sistema de facturación es inválida").
			Mark(ierr.ErrHTTPClient)
	}
	return &result, nil
}

func (c *Client) send(ctx context.Context, via httpclient.Client, method, path string, body []byte) (*httpclient.Response, error) {
	headers := map[string]string{}
	if c.apiKey != "" {
		headers["x-api-key"] = c.apiKey
	}
	if tenantID := types.GetTenantID(ctx); tenantID != "" {
		headers[types.HeaderTenantID] = tenantID
	}

	resp, err := via.Send(ctx, &httpclient.Request{
		Method:  method,
		URL:     c.baseURL + path,
		Headers: headers,
		Body:    body,
	})
	if err != nil {
		// Backend business errors carry an error envelope with a code;
		// surface those as GatewayError for the translator.
		if httpErr, ok := httpclient.IsHTTPError(err); ok {
			var envelope errorEnvelope
			if jsonErr := json.Unmarshal(httpErr.Response, &envelope); jsonErr == nil && envelope.ErrorCode != "" {
				return nil, billing.NewGatewayError(envelope.ErrorCode, envelope.Message, httpErr.StatusCode)
			}
		}
		return nil, err
	}
	return resp, nil
}
