package service

import (
	"context"
	"sync"

	"github.com/propzen/billing/internal/domain/billing"
	"github.com/propzen/billing/internal/domain/payment"
	"github.com/propzen/billing/internal/domain/plan"
	ierr "github.com/propzen/billing/internal/errors"
	"github.com/propzen/billing/internal/types"
	"github.com/shopspring/decimal"
)

// Session is an immutable snapshot of the checkout state machine,
// taken under lock. The UI renders from this and nothing else.
type Session struct {
	ID             string
	State          types.CheckoutState
	TargetPlan     *plan.Plan
	TransitionKind types.TransitionKind
	Calculation    *billing.UpgradeCalculation
	AmountDue      decimal.Decimal
	RequestEpoch   int64
	PreapprovalID  string
	LastError      *TranslatedError
}

// Retryable reports whether the session can be retried in place.
func (s *Session) Retryable() bool {
	return s.State == types.CheckoutStateFailed && s.LastError != nil && s.LastError.Retryable
}

// CheckoutOrchestrator owns one active checkout session: it drives the
// transition evaluation, the proration lookup, the payment widget
// lifecycle, and the purchase submission. All transitions happen under
// one lock; asynchronous results carry the epoch they were issued under
// and are discarded when stale.
type CheckoutOrchestrator struct {
	ServiceParams
	evaluator  UpgradePathEvaluator
	translator ErrorTranslator

	mu            sync.Mutex
	sessionID     string
	state         types.CheckoutState
	epoch         int64
	target        *plan.Plan
	kind          types.TransitionKind
	calc          *billing.UpgradeCalculation
	amountDue     decimal.Decimal
	preapprovalID string
	lastError     *TranslatedError
	widget        payment.Widget
	lastToken     *payment.CardToken
	evalCancel    context.CancelFunc
}

func NewCheckoutOrchestrator(params ServiceParams, evaluator UpgradePathEvaluator, translator ErrorTranslator) *CheckoutOrchestrator {
	return &CheckoutOrchestrator{
		ServiceParams: params,
		evaluator:     evaluator,
		translator:    translator,
		state:         types.CheckoutStateIdle,
	}
}

// Session returns a snapshot of the current state.
func (o *CheckoutOrchestrator) Session() *Session {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.snapshotLocked()
}

// State returns the current state only.
func (o *CheckoutOrchestrator) State() types.CheckoutState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// SelectPlan starts a new evaluation for the target plan. Allowed from
// any state: the epoch increment makes every in-flight result for a
// previous selection inert on arrival.
func (o *CheckoutOrchestrator) SelectPlan(ctx context.Context, target *plan.Plan) (*Session, error) {
	sub, err := o.SubscriptionProvider.Current(ctx)
	if err != nil {
		return nil, err
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	o.epoch++
	epoch := o.epoch
	o.abortEvaluationLocked()
	o.unmountWidgetLocked()
	o.resetResultLocked()

	o.sessionID = types.GenerateUUIDWithPrefix(types.UUID_PREFIX_CHECKOUT_SESSION)
	o.target = target
	o.state = types.CheckoutStateEvaluating
	o.kind = o.evaluator.Evaluate(sub, target)

	o.Logger.Infow("plan selected",
		"session_id", o.sessionID,
		"plan_slug", target.Slug,
		"transition_kind", o.kind,
		"epoch", epoch,
	)

	switch o.kind {
	case types.TransitionNoOp, types.TransitionDowngrade:
		// Structurally invalid for the checkout flow; routed elsewhere
		// upstream. No network calls are issued.
		o.failLocked(ierr.NewError("transition is not purchasable from checkout").
			WithHint("Este cambio de plan no está disponible desde acá").
			WithReportableDetails(map[string]any{
				"transition_kind": o.kind,
				"plan_slug":       target.Slug,
			}).
			Mark(ierr.ErrUnsupportedTransition))

	case types.TransitionFreeToPaid:
		// No proration for a first paid plan: full price, tokenizer
		// mounted so the tenant can enter a payment method.
		o.calc = nil
		o.amountDue = target.PriceARS
		o.enterReadyLocked()

	case types.TransitionPaidUpgrade:
		o.startProrationLocked(ctx, epoch, target.Slug)
	}

	return o.snapshotLocked(), nil
}

// startProrationLocked issues the async proration lookup tagged with
// the current epoch. Must be called with the lock held.
func (o *CheckoutOrchestrator) startProrationLocked(ctx context.Context, epoch int64, planSlug string) {
	evalCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.Config.Checkout.ProrationTimeout)
	o.evalCancel = cancel

	go func() {
		defer cancel()
		calc, err := o.BillingGateway.CalculateUpgrade(evalCtx, planSlug)
		o.applyProration(epoch, calc, err)
	}()
}

// applyProration reconciles an async proration result. Results tagged
// with a stale epoch are discarded silently: a slow response for plan A
// must never overwrite the in-progress state for plan B.
func (o *CheckoutOrchestrator) applyProration(epoch int64, calc *billing.UpgradeCalculation, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if epoch != o.epoch {
		o.Logger.Debugw("discarding stale proration result",
			"result_epoch", epoch, "current_epoch", o.epoch)
		return
	}
	if o.state != types.CheckoutStateEvaluating {
		o.Logger.Debugw("discarding proration result outside evaluating state",
			"state", o.state)
		return
	}

	if err != nil {
		// The session survives a failed lookup so the UI can retry the
		// same plan without re-selecting it.
		o.failLocked(err)
		return
	}

	o.calc = calc
	o.amountDue = calc.UpgradeAmountARS
	o.enterReadyLocked()
}

// Submit confirms the purchase. Exactly one request may be outstanding:
// a second call while submitting is a no-op, which is the only
// protection against a double charge from a double click.
func (o *CheckoutOrchestrator) Submit(ctx context.Context, req *payment.FormData, pretokenized *payment.CardToken) (*Session, error) {
	o.mu.Lock()

	if o.state == types.CheckoutStateSubmitting {
		defer o.mu.Unlock()
		o.Logger.Debugw("submit ignored, request already outstanding", "session_id", o.sessionID)
		return o.snapshotLocked(), nil
	}

	if o.state != types.CheckoutStateReadyForPayment {
		defer o.mu.Unlock()
		return nil, ierr.NewError("session is not ready for payment").
			WithHint("La sesión de pago no está lista").
			WithReportableDetails(map[string]any{"state": o.state}).
			Mark(ierr.ErrInvalidOperation)
	}

	o.state = types.CheckoutStateSubmitting
	epoch := o.epoch
	kind := o.kind
	target := o.target
	widget := o.widget
	token := o.lastToken
	if pretokenized != nil {
		token = pretokenized
	}
	o.mu.Unlock()

	result, token, err := o.performSubmit(ctx, kind, target, widget, token, req)
	o.finishSubmit(epoch, result, token, err)
	return o.Session(), nil
}

// performSubmit runs outside the lock: tokenization and the purchase
// request are network calls and must not block state reads.
func (o *CheckoutOrchestrator) performSubmit(
	ctx context.Context,
	kind types.TransitionKind,
	target *plan.Plan,
	widget payment.Widget,
	token *payment.CardToken,
	req *payment.FormData,
) (*billing.UpgradeResult, *payment.CardToken, error) {
	switch kind {
	case types.TransitionFreeToPaid:
		if token == nil {
			if widget == nil {
				return nil, nil, billing.NewGatewayError(billing.ErrCodeCardTokenRequired, "payment widget not mounted", 0)
			}
			var err error
			token, err = widget.Submit(ctx, req)
			if err != nil {
				return nil, nil, err
			}
		}
		if token.Token == "" {
			return nil, nil, billing.NewGatewayError(billing.ErrCodeCardTokenRequired, "card token is required", 0)
		}
		result, err := o.BillingGateway.UpgradeFromFree(ctx, &billing.UpgradeFromFreeRequest{
			PlanSlug:        target.Slug,
			Token:           token.Token,
			PaymentMethodID: token.PaymentMethodID,
			IssuerID:        token.IssuerID,
			PayerEmail:      token.PayerEmail,
		})
		return result, token, err

	case types.TransitionPaidUpgrade:
		result, err := o.BillingGateway.UpgradePaidToPaid(ctx, target.Slug, billing.PaymentProviderMercadoPago)
		return result, nil, err

	default:
		return nil, nil, ierr.NewError("transition is not submittable").
			WithReportableDetails(map[string]any{"transition_kind": kind}).
			Mark(ierr.ErrInvalidOperation)
	}
}

// finishSubmit reconciles the submit outcome. A result from a submit
// issued under an older epoch is discarded: the session it belonged to
// no longer exists.
func (o *CheckoutOrchestrator) finishSubmit(epoch int64, result *billing.UpgradeResult, token *payment.CardToken, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if epoch != o.epoch {
		o.Logger.Debugw("discarding stale submit result",
			"result_epoch", epoch, "current_epoch", o.epoch)
		return
	}

	// The widget is released on every exit from ready_for_payment,
	// success or failure; a retry mounts a fresh one if needed.
	o.unmountWidgetLocked()

	if err != nil {
		// Token already obtained survives a retryable failure so the
		// tenant does not re-enter card data.
		if token != nil && token.Token != "" {
			o.lastToken = token
		}
		o.failLocked(err)
		return
	}

	o.state = types.CheckoutStateSucceeded
	o.preapprovalID = result.PreapprovalID
	o.lastToken = nil
	o.Logger.Infow("checkout succeeded",
		"session_id", o.sessionID,
		"plan_slug", o.target.Slug,
		"preapproval_id", result.PreapprovalID,
	)
}

// Retry re-arms a retryably failed session in place: the plan and any
// completed calculation or tokenization are reused, not recomputed.
func (o *CheckoutOrchestrator) Retry(ctx context.Context) (*Session, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.state != types.CheckoutStateFailed || o.lastError == nil || !o.lastError.Retryable {
		return nil, ierr.NewError("session is not retryable").
			WithHint("Volvé a elegir un plan para continuar").
			WithReportableDetails(map[string]any{"state": o.state}).
			Mark(ierr.ErrInvalidOperation)
	}

	o.lastError = nil

	if o.kind.RequiresProration() && o.calc == nil {
		// The proration lookup itself failed; run it again under a new
		// epoch.
		o.epoch++
		o.state = types.CheckoutStateEvaluating
		o.startProrationLocked(ctx, o.epoch, o.target.Slug)
		return o.snapshotLocked(), nil
	}

	o.enterReadyLocked()
	return o.snapshotLocked(), nil
}

// Cancel dismisses the session. Refused while a purchase request is
// outstanding: its outcome is unknown and must not be abandoned.
func (o *CheckoutOrchestrator) Cancel() bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.state == types.CheckoutStateSubmitting {
		o.Logger.Warnw("cancel refused while submitting", "session_id", o.sessionID)
		return false
	}

	o.epoch++
	o.abortEvaluationLocked()
	o.unmountWidgetLocked()
	o.resetResultLocked()
	o.sessionID = ""
	o.target = nil
	o.kind = ""
	o.state = types.CheckoutStateIdle
	return true
}

// enterReadyLocked transitions to ready_for_payment and mounts a fresh
// widget when the transition needs one. Must be called with the lock
// held.
func (o *CheckoutOrchestrator) enterReadyLocked() {
	o.state = types.CheckoutStateReadyForPayment

	if !o.kind.RequiresTokenizer() || o.lastToken != nil {
		return
	}

	widget, err := o.WidgetFactory.NewWidget(payment.WidgetConfig{
		AmountARS: o.amountDue,
	})
	if err != nil {
		o.failLocked(err)
		return
	}
	o.widget = widget
}

// failLocked translates the error and moves to failed. Exactly one
// error is visible at a time; each failure replaces the previous one.
func (o *CheckoutOrchestrator) failLocked(err error) {
	o.lastError = o.translator.Translate(err)
	o.state = types.CheckoutStateFailed
	o.Logger.Errorw("checkout failed",
		"session_id", o.sessionID,
		"category", o.lastError.Category,
		"retryable", o.lastError.Retryable,
		"error", err,
	)
}

func (o *CheckoutOrchestrator) abortEvaluationLocked() {
	if o.evalCancel != nil {
		o.evalCancel()
		o.evalCancel = nil
	}
}

func (o *CheckoutOrchestrator) unmountWidgetLocked() {
	if o.widget != nil {
		o.widget.Close()
		o.widget = nil
	}
}

func (o *CheckoutOrchestrator) resetResultLocked() {
	o.calc = nil
	o.amountDue = decimal.Zero
	o.preapprovalID = ""
	o.lastError = nil
	o.lastToken = nil
}

func (o *CheckoutOrchestrator) snapshotLocked() *Session {
	return &Session{
		ID:             o.sessionID,
		State:          o.state,
		TargetPlan:     o.target,
		TransitionKind: o.kind,
		Calculation:    o.calc,
		AmountDue:      o.amountDue,
		RequestEpoch:   o.epoch,
		PreapprovalID:  o.preapprovalID,
		LastError:      o.lastError,
	}
}
