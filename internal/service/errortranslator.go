package service

import (
	"github.com/propzen/billing/internal/domain/billing"
	ierr "github.com/propzen/billing/internal/errors"
	"github.com/propzen/billing/internal/logger"
	"github.com/propzen/billing/internal/types"
)

// TranslatedError is what the UI gets. Exactly one message per
// category; raw backend payloads never cross this boundary.
type TranslatedError struct {
	Category  types.ErrorCategory `json:"category"`
	Message   string              `json:"message"`
	Retryable bool                `json:"retryable"`
}

// ErrorTranslator maps backend and gateway errors to the closed set of
// user-facing categories and retry hints.
type ErrorTranslator interface {
	Translate(err error) *TranslatedError
}

type translation struct {
	category  types.ErrorCategory
	retryable bool
}

// codeTranslations is the single source of truth for backend error
// codes. Call sites never match on strings themselves.
var codeTranslations = map[string]translation{
	billing.ErrCodeCardTokenRequired:   {types.ErrorCategoryClientValidation, false},
	billing.ErrCodeNoSubscription:      {types.ErrorCategoryStateConflict, false},
	billing.ErrCodePlanNotFound:        {types.ErrorCategoryStateConflict, false},
	billing.ErrCodeNotAnUpgrade:        {types.ErrorCategoryUnsupportedTransition, false},
	billing.ErrCodeMPSubscriptionError: {types.ErrorCategoryGatewayError, true},
}

// categoryMessages maps every category to its one user-facing message.
var categoryMessages = map[types.ErrorCategory]string{
	types.ErrorCategoryClientValidation:      "Revisá los datos ingresados y volvé a intentar.",
	types.ErrorCategoryStateConflict:         "Tu suscripción cambió. Recargá la página antes de continuar.",
	types.ErrorCategoryUnsupportedTransition: "Este cambio de plan no está disponible desde acá.",
	types.ErrorCategoryGatewayError:          "El medio de pago rechazó la operación. Podés intentar de nuevo.",
	types.ErrorCategoryUnknownError:          "Algo salió mal. Volvé a intentar en unos segundos.",
}

type errorTranslator struct {
	logger *logger.Logger
}

func NewErrorTranslator(log *logger.Logger) ErrorTranslator {
	return &errorTranslator{logger: log}
}

func (t *errorTranslator) Translate(err error) *TranslatedError {
	if err == nil {
		return nil
	}

	if gwErr, ok := billing.AsGatewayError(err); ok {
		if tr, known := codeTranslations[gwErr.Code]; known {
			return newTranslated(tr.category, tr.retryable)
		}
		t.logger.Warnw("unrecognized gateway error code", "code", gwErr.Code, "status", gwErr.StatusCode)
		return newTranslated(types.ErrorCategoryUnknownError, true)
	}

	switch {
	case ierr.IsValidation(err):
		return newTranslated(types.ErrorCategoryClientValidation, false)
	case ierr.IsUnsupportedTransition(err):
		return newTranslated(types.ErrorCategoryUnsupportedTransition, false)
	case ierr.IsStateConflict(err):
		return newTranslated(types.ErrorCategoryStateConflict, false)
	case ierr.IsGateway(err):
		return newTranslated(types.ErrorCategoryGatewayError, true)
	default:
		// Network failures, timeouts, unparsed responses.
		return newTranslated(types.ErrorCategoryUnknownError, true)
	}
}

func newTranslated(category types.ErrorCategory, retryable bool) *TranslatedError {
	return &TranslatedError{
		Category:  category,
		Message:   categoryMessages[category],
		Retryable: retryable,
	}
}
