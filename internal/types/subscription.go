package types

import (
	ierr "github.com/propzen/billing/internal/errors"
	"github.com/samber/lo"
)

// SubscriptionStatus is the lifecycle status of a tenant subscription
// as reported by the billing engine. The service never mutates it.
type SubscriptionStatus string

const (
	SubscriptionStatusTrial     SubscriptionStatus = "trial"
	SubscriptionStatusActive    SubscriptionStatus = "active"
	SubscriptionStatusPastDue   SubscriptionStatus = "past_due"
	SubscriptionStatusCancelled SubscriptionStatus = "canceled"
)

var SubscriptionStatusValues = []SubscriptionStatus{
	SubscriptionStatusTrial,
	SubscriptionStatusActive,
	SubscriptionStatusPastDue,
	SubscriptionStatusCancelled,
}

func (s SubscriptionStatus) Validate() error {
	if !lo.Contains(SubscriptionStatusValues, s) {
		return ierr.NewError("invalid subscription status").
			WithHint("Subscription status must be trial, active, past_due, or canceled").
			WithReportableDetails(map[string]any{
				"allowed_values": SubscriptionStatusValues,
				"provided_value": s,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

func (s SubscriptionStatus) String() string {
	return string(s)
}

// TransitionKind classifies a plan change relative to the current subscription.
type TransitionKind string

const (
	TransitionNoOp        TransitionKind = "no_op"
	TransitionFreeToPaid  TransitionKind = "free_to_paid"
	TransitionPaidUpgrade TransitionKind = "paid_upgrade"
	TransitionDowngrade   TransitionKind = "downgrade"
)

var TransitionKindValues = []TransitionKind{
	TransitionNoOp,
	TransitionFreeToPaid,
	TransitionPaidUpgrade,
	TransitionDowngrade,
}

func (t TransitionKind) String() string {
	return string(t)
}

// RequiresProration reports whether the transition needs a proration
// lookup before the session may reach ready_for_payment.
func (t TransitionKind) RequiresProration() bool {
	return t == TransitionPaidUpgrade
}

// RequiresTokenizer reports whether the transition needs a freshly
// tokenized payment method. Paid-to-paid upgrades charge the method on file.
func (t TransitionKind) RequiresTokenizer() bool {
	return t == TransitionFreeToPaid
}
