package types

import (
	ierr "github.com/propzen/billing/internal/errors"
)

// PlanTier identifies a purchasable plan level. Tier ranks form a total
// order used to classify upgrades vs downgrades.
type PlanTier string

const (
	PlanTierTrial      PlanTier = "trial"
	PlanTierBasic      PlanTier = "basic"
	PlanTierPremium    PlanTier = "premium"
	PlanTierEnterprise PlanTier = "enterprise"
)

// planTierRanks totally orders tiers. Rank 0 is the free tier.
var planTierRanks = map[PlanTier]int{
	PlanTierTrial:      0,
	PlanTierBasic:      1,
	PlanTierPremium:    2,
	PlanTierEnterprise: 3,
}

// planTierFeatures is the enum-keyed feature table rendered on the plan
// selection page. Unknown tiers fail closed with an empty list.
var planTierFeatures = map[PlanTier][]string{
	PlanTierTrial: {
		"Hasta 10 propiedades publicadas",
		"Sitio web con plantilla estándar",
	},
	PlanTierBasic: {
		"Hasta 100 propiedades publicadas",
		"Sitio web con dominio propio",
		"Fichas de clientes ilimitadas",
	},
	PlanTierPremium: {
		"Propiedades ilimitadas",
		"Plantillas premium y CSS personalizado",
		"Carga de documentos",
		"Soporte prioritario",
	},
	PlanTierEnterprise: {
		"Todo lo incluido en Premium",
		"Multi-sucursal",
		"Integraciones a medida",
	},
}

func (t PlanTier) Validate() error {
	if _, ok := planTierRanks[t]; !ok {
		return ierr.NewError("unknown plan tier").
			WithHint("Plan tier must be trial, basic, premium, or enterprise").
			WithReportableDetails(map[string]any{
				"provided_value": t,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

func (t PlanTier) String() string {
	return string(t)
}

// Rank returns the tier's position in the total order and whether the
// tier is known.
func (t PlanTier) Rank() (int, bool) {
	rank, ok := planTierRanks[t]
	return rank, ok
}

// Features returns the feature list for the tier. Unknown tiers return
// an empty list rather than silently rendering nothing at call sites.
func (t PlanTier) Features() ([]string, bool) {
	features, ok := planTierFeatures[t]
	if !ok {
		return []string{}, false
	}
	return features, true
}
