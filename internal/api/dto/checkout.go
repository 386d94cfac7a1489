package dto

import (
	"encoding/json"

	ierr "github.com/propzen/billing/internal/errors"
)

// SelectPlanRequest starts or replaces a checkout session.
type SelectPlanRequest struct {
	PlanSlug string `json:"plan_slug" binding:"required"`
}

func (r *SelectPlanRequest) Validate() error {
	if r.PlanSlug == "" {
		return ierr.NewError("plan_slug is required").
			WithHint("Elegí un plan para continuar").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// SubmitCheckoutRequest confirms the purchase. For free-to-paid the
// payment method is either pre-tokenized (token fields) or collected as
// an opaque card form the tokenizer exchanges server-side. Paid-to-paid
// submits carry nothing; the method on file is charged.
type SubmitCheckoutRequest struct {
	Token           string          `json:"token,omitempty"`
	PaymentMethodID string          `json:"payment_method_id,omitempty"`
	IssuerID        string          `json:"issuer_id,omitempty"`
	PayerEmail      string          `json:"payer_email,omitempty"`
	CardForm        json.RawMessage `json:"card_form,omitempty"`
}

// UpgradeCalculationResponse mirrors the proration pricing block, with
// display strings alongside raw decimals.
type UpgradeCalculationResponse struct {
	FullPriceARS            string `json:"full_price_ars"`
	CreditAppliedARS        string `json:"credit_applied_ars"`
	UpgradeAmountARS        string `json:"upgrade_amount_ars"`
	FullPriceARSDisplay     string `json:"full_price_ars_display"`
	CreditAppliedARSDisplay string `json:"credit_applied_ars_display"`
	UpgradeAmountARSDisplay string `json:"upgrade_amount_ars_display"`
}

// CheckoutErrorResponse is the translated, user-facing error attached
// to a failed session. At most one is visible at a time.
type CheckoutErrorResponse struct {
	Category  string `json:"category"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
}

// CheckoutSessionResponse is the UI's view of the active session.
type CheckoutSessionResponse struct {
	SessionID        string                      `json:"session_id,omitempty"`
	State            string                      `json:"state"`
	PlanSlug         string                      `json:"plan_slug,omitempty"`
	TransitionKind   string                      `json:"transition_kind,omitempty"`
	AmountDueARS     string                      `json:"amount_due_ars,omitempty"`
	AmountDueDisplay string                      `json:"amount_due_display,omitempty"`
	RequiresCardForm bool                        `json:"requires_card_form"`
	Calculation      *UpgradeCalculationResponse `json:"calculation,omitempty"`
	PreapprovalID    string                      `json:"preapproval_id,omitempty"`
	Error            *CheckoutErrorResponse      `json:"error,omitempty"`
}
