package billing

import (
	ierr "github.com/propzen/billing/internal/errors"
	"github.com/shopspring/decimal"
)

// UpgradeCalculation is the proration result computed by the billing
// engine for a paid-to-paid upgrade. Created fresh per evaluation,
// never mutated, discarded the moment a newer plan selection occurs.
type UpgradeCalculation struct {
	FullPriceARS     decimal.Decimal `json:"full_price_ars"`
	CreditAppliedARS decimal.Decimal `json:"credit_applied_ars"`
	UpgradeAmountARS decimal.Decimal `json:"upgrade_amount_ars"`
}

// Validate enforces the pricing invariants on receipt. The service does
// no money arithmetic of its own; an inconsistent payload is rejected
// rather than repaired.
func (c *UpgradeCalculation) Validate() error {
	if c.CreditAppliedARS.IsNegative() {
		return ierr.NewError("credit applied cannot be negative").
			WithHint("El cálculo de prorrateo recibido es inválido").
			WithReportableDetails(map[string]any{
				"credit_applied_ars": c.CreditAppliedARS.String(),
			}).
			Mark(ierr.ErrValidation)
	}

	if c.CreditAppliedARS.GreaterThan(c.FullPriceARS) {
		return ierr.NewError("credit applied exceeds full price").
			WithHint("El cálculo de prorrateo recibido es inválido").
			WithReportableDetails(map[string]any{
				"full_price_ars":     c.FullPriceARS.String(),
				"credit_applied_ars": c.CreditAppliedARS.String(),
			}).
			Mark(ierr.ErrValidation)
	}

	if c.UpgradeAmountARS.IsNegative() {
		return ierr.NewError("upgrade amount cannot be negative").
			WithHint("El cálculo de prorrateo recibido es inválido").
			WithReportableDetails(map[string]any{
				"upgrade_amount_ars": c.UpgradeAmountARS.String(),
			}).
			Mark(ierr.ErrValidation)
	}

	if !c.FullPriceARS.Sub(c.CreditAppliedARS).Equal(c.UpgradeAmountARS) {
		return ierr.NewError("upgrade amount does not equal full price minus credit").
			WithHint("El cálculo de prorrateo recibido es inválido").
			WithReportableDetails(map[string]any{
				"full_price_ars":     c.FullPriceARS.String(),
				"credit_applied_ars": c.CreditAppliedARS.String(),
				"upgrade_amount_ars": c.UpgradeAmountARS.String(),
			}).
			Mark(ierr.ErrValidation)
	}

	return nil
}
