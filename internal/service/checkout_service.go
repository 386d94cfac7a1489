package service

import (
	"context"
	"sync"

	"github.com/propzen/billing/internal/api/dto"
	"github.com/propzen/billing/internal/domain/payment"
	ierr "github.com/propzen/billing/internal/errors"
	"github.com/propzen/billing/internal/types"
)

// CheckoutService exposes the checkout flow to the API layer. It keeps
// one orchestrator per tenant view, so a tenant can never hold two
// concurrent payment intents by construction.
type CheckoutService interface {
	SelectPlan(ctx context.Context, req dto.SelectPlanRequest) (*dto.CheckoutSessionResponse, error)
	GetSession(ctx context.Context) (*dto.CheckoutSessionResponse, error)
	Submit(ctx context.Context, req dto.SubmitCheckoutRequest) (*dto.CheckoutSessionResponse, error)
	Retry(ctx context.Context) (*dto.CheckoutSessionResponse, error)
	Cancel(ctx context.Context) (*dto.CheckoutSessionResponse, error)
}

type checkoutService struct {
	ServiceParams
	catalog    PlanCatalogService
	evaluator  UpgradePathEvaluator
	translator ErrorTranslator

	mu            sync.Mutex
	orchestrators map[string]*CheckoutOrchestrator
}

func NewCheckoutService(
	params ServiceParams,
	catalog PlanCatalogService,
	evaluator UpgradePathEvaluator,
	translator ErrorTranslator,
) CheckoutService {
	return &checkoutService{
		ServiceParams: params,
		catalog:       catalog,
		evaluator:     evaluator,
		translator:    translator,
		orchestrators: make(map[string]*CheckoutOrchestrator),
	}
}

func (s *checkoutService) orchestratorFor(ctx context.Context) (*CheckoutOrchestrator, error) {
	tenantID := types.GetTenantID(ctx)
	if tenantID == "" {
		return nil, ierr.NewError("tenant is required").
			WithHint("No pudimos identificar tu cuenta").
			Mark(ierr.ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if o, ok := s.orchestrators[tenantID]; ok {
		return o, nil
	}
	o := NewCheckoutOrchestrator(s.ServiceParams, s.evaluator, s.translator)
	s.orchestrators[tenantID] = o
	return o, nil
}

func (s *checkoutService) SelectPlan(ctx context.Context, req dto.SelectPlanRequest) (*dto.CheckoutSessionResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	target, err := s.catalog.GetPlan(ctx, req.PlanSlug)
	if err != nil {
		return nil, err
	}

	o, err := s.orchestratorFor(ctx)
	if err != nil {
		return nil, err
	}

	session, err := o.SelectPlan(ctx, target)
	if err != nil {
		return nil, err
	}
	return toSessionResponse(session), nil
}

func (s *checkoutService) GetSession(ctx context.Context) (*dto.CheckoutSessionResponse, error) {
	o, err := s.orchestratorFor(ctx)
	if err != nil {
		return nil, err
	}
	return toSessionResponse(o.Session()), nil
}

func (s *checkoutService) Submit(ctx context.Context, req dto.SubmitCheckoutRequest) (*dto.CheckoutSessionResponse, error) {
	o, err := s.orchestratorFor(ctx)
	if err != nil {
		return nil, err
	}

	form := &payment.FormData{
		PayerEmail: req.PayerEmail,
		CardForm:   req.CardForm,
	}

	var pretokenized *payment.CardToken
	if req.Token != "" {
		pretokenized = &payment.CardToken{
			Token:           req.Token,
			PaymentMethodID: req.PaymentMethodID,
			IssuerID:        req.IssuerID,
			PayerEmail:      req.PayerEmail,
		}
	}

	session, err := o.Submit(ctx, form, pretokenized)
	if err != nil {
		return nil, err
	}

	// The backend owns subscription state; after a success the view is
	// reloaded rather than patched locally.
	if session.State == types.CheckoutStateSucceeded {
		if err := s.SubscriptionProvider.Refresh(ctx); err != nil {
			s.Logger.Warnw("subscription refresh after checkout failed", "error", err)
		}
	}

	return toSessionResponse(session), nil
}

func (s *checkoutService) Retry(ctx context.Context) (*dto.CheckoutSessionResponse, error) {
	o, err := s.orchestratorFor(ctx)
	if err != nil {
		return nil, err
	}

	session, err := o.Retry(ctx)
	if err != nil {
		return nil, err
	}
	return toSessionResponse(session), nil
}

func (s *checkoutService) Cancel(ctx context.Context) (*dto.CheckoutSessionResponse, error) {
	o, err := s.orchestratorFor(ctx)
	if err != nil {
		return nil, err
	}

	if !o.Cancel() {
		return nil, ierr.NewError("cannot cancel while a payment is processing").
			WithHint("Tu pago se está procesando, esperá un momento").
			Mark(ierr.ErrInvalidOperation)
	}
	return toSessionResponse(o.Session()), nil
}

func toSessionResponse(session *Session) *dto.CheckoutSessionResponse {
	resp := &dto.CheckoutSessionResponse{
		SessionID:      session.ID,
		State:          session.State.String(),
		TransitionKind: session.TransitionKind.String(),
		PreapprovalID:  session.PreapprovalID,
	}

	if session.TargetPlan != nil {
		resp.PlanSlug = session.TargetPlan.Slug
	}

	if session.State == types.CheckoutStateReadyForPayment || session.State == types.CheckoutStateSubmitting {
		resp.AmountDueARS = session.AmountDue.String()
		resp.AmountDueDisplay = "Total a pagar hoy: " + types.FormatARS(session.AmountDue)
		resp.RequiresCardForm = session.TransitionKind.RequiresTokenizer()
	}

	if session.Calculation != nil {
		resp.Calculation = &dto.UpgradeCalculationResponse{
			FullPriceARS:            session.Calculation.FullPriceARS.String(),
			CreditAppliedARS:        session.Calculation.CreditAppliedARS.String(),
			UpgradeAmountARS:        session.Calculation.UpgradeAmountARS.String(),
			FullPriceARSDisplay:     types.FormatARS(session.Calculation.FullPriceARS),
			CreditAppliedARSDisplay: types.FormatARS(session.Calculation.CreditAppliedARS),
			UpgradeAmountARSDisplay: types.FormatARS(session.Calculation.UpgradeAmountARS),
		}
	}

	if session.LastError != nil {
		resp.Error = &dto.CheckoutErrorResponse{
			Category:  session.LastError.Category.String(),
			Message:   session.LastError.Message,
			Retryable: session.LastError.Retryable,
		}
	}

	return resp
}
