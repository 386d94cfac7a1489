package types

// CheckoutState is the explicit state of a checkout session. Exactly one
// state holds at a time; the orchestrator owns every transition so the
// contradictory flag combinations of an implicit encoding cannot occur.
type CheckoutState string

const (
	CheckoutStateIdle            CheckoutState = "idle"
	CheckoutStateEvaluating      CheckoutState = "evaluating"
	CheckoutStateReadyForPayment CheckoutState = "ready_for_payment"
	CheckoutStateSubmitting      CheckoutState = "submitting"
	CheckoutStateSucceeded       CheckoutState = "succeeded"
	CheckoutStateFailed          CheckoutState = "failed"
)

var CheckoutStateValues = []CheckoutState{
	CheckoutStateIdle,
	CheckoutStateEvaluating,
	CheckoutStateReadyForPayment,
	CheckoutStateSubmitting,
	CheckoutStateSucceeded,
	CheckoutStateFailed,
}

func (s CheckoutState) String() string {
	return string(s)
}

// IsTerminal reports whether the session has reached an end state.
func (s CheckoutState) IsTerminal() bool {
	return s == CheckoutStateSucceeded || s == CheckoutStateFailed
}

// ErrorCategory is the closed set of user-facing error classes produced
// by the error translator. No raw backend error ever reaches the UI.
type ErrorCategory string

const (
	ErrorCategoryClientValidation      ErrorCategory = "client_validation"
	ErrorCategoryStateConflict         ErrorCategory = "state_conflict"
	ErrorCategoryUnsupportedTransition ErrorCategory = "unsupported_transition"
	ErrorCategoryGatewayError          ErrorCategory = "gateway_error"
	ErrorCategoryUnknownError          ErrorCategory = "unknown_error"
)

var ErrorCategoryValues = []ErrorCategory{
	ErrorCategoryClientValidation,
	ErrorCategoryStateConflict,
	ErrorCategoryUnsupportedTransition,
	ErrorCategoryGatewayError,
	ErrorCategoryUnknownError,
}

func (c ErrorCategory) String() string {
	return string(c)
}
