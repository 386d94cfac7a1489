package billing

import (
	"context"

	"github.com/propzen/billing/internal/domain/plan"
)

// UpgradeFromFreeRequest carries the tokenized payment method for a
// trial/free tenant purchasing its first paid plan.
type UpgradeFromFreeRequest struct {
	PlanSlug        string `json:"plan_slug"`
	Token           string `json:"token"`
	PaymentMethodID string `json:"payment_method_id"`
	IssuerID        string `json:"issuer_id"`
	PayerEmail      string `json:"payer_email"`
}

// UpgradeResult is the billing engine's acknowledgement of a purchase.
type UpgradeResult struct {
	PreapprovalID string `json:"preapproval_id"`
}

// Gateway is the remote billing engine consumed by the checkout flow.
// The engine owns all subscription state and performs the proration
// arithmetic; this service only honors its contract.
type Gateway interface {
	ListPlans(ctx context.Context) ([]*plan.Plan, error)
	CalculateUpgrade(ctx context.Context, planSlug string) (*UpgradeCalculation, error)
	UpgradeFromFree(ctx context.Context, req *UpgradeFromFreeRequest) (*UpgradeResult, error)
	UpgradePaidToPaid(ctx context.Context, planSlug string, provider string) (*UpgradeResult, error)
}

// PaymentProvider identifies the payment rail for paid-to-paid upgrades,
// where the charge goes to the payment method on file.
const PaymentProviderMercadoPago = "mercadopago"
