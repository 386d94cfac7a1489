package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/propzen/billing/internal/config"
	"github.com/propzen/billing/internal/domain/billing"
	"github.com/propzen/billing/internal/domain/payment"
	ierr "github.com/propzen/billing/internal/errors"
	"github.com/propzen/billing/internal/logger"
	"github.com/propzen/billing/internal/testutil"
	"github.com/propzen/billing/internal/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type CheckoutOrchestratorSuite struct {
	suite.Suite
	ctx          context.Context
	gateway      *testutil.MockBillingGateway
	subscription *testutil.InMemorySubscriptionProvider
	widgets      *testutil.MockWidgetFactory
	orchestrator *CheckoutOrchestrator
}

func TestCheckoutOrchestratorSuite(t *testing.T) {
	suite.Run(t, new(CheckoutOrchestratorSuite))
}

func (s *CheckoutOrchestratorSuite) SetupTest() {
	s.ctx = testutil.SetupContext()

	cfg := config.GetDefaultConfig()
	cfg.Checkout.ProrationTimeout = 2 * time.Second

	log, err := logger.NewLogger(cfg)
	s.Require().NoError(err)

	s.gateway = testutil.NewMockBillingGateway()
	s.gateway.Plans = testutil.DefaultPlans()
	s.subscription = testutil.NewInMemorySubscriptionProvider(testutil.ActiveSubscription(types.PlanTierBasic))
	s.widgets = testutil.NewMockWidgetFactory()

	params := NewServiceParams(log, cfg, s.gateway, s.subscription, s.widgets)
	s.orchestrator = NewCheckoutOrchestrator(params, NewUpgradePathEvaluator(), NewErrorTranslator(log))
}

func (s *CheckoutOrchestratorSuite) waitForState(state types.CheckoutState) {
	s.Require().Eventually(func() bool {
		return s.orchestrator.State() == state
	}, 2*time.Second, 5*time.Millisecond, "expected state %s, got %s", state, s.orchestrator.State())
}

func (s *CheckoutOrchestratorSuite) TestPaidUpgradeReachesReadyWithProration() {
	s.gateway.SetCalculation("premium", &billing.UpgradeCalculation{
		FullPriceARS:     decimal.NewFromInt(50000),
		CreditAppliedARS: decimal.NewFromInt(12000),
		UpgradeAmountARS: decimal.NewFromInt(38000),
	})

	session, err := s.orchestrator.SelectPlan(s.ctx, testutil.PlanBySlug("premium"))
	s.NoError(err)
	s.Equal(types.CheckoutStateEvaluating, session.State)
	s.Equal(types.TransitionPaidUpgrade, session.TransitionKind)

	s.waitForState(types.CheckoutStateReadyForPayment)

	session = s.orchestrator.Session()
	s.Require().NotNil(session.Calculation)
	s.True(session.Calculation.FullPriceARS.Equal(decimal.NewFromInt(50000)))
	s.True(session.Calculation.CreditAppliedARS.Equal(decimal.NewFromInt(12000)))
	s.True(session.AmountDue.Equal(decimal.NewFromInt(38000)))

	resp := toSessionResponse(session)
	s.Equal("Total a pagar hoy: $38.000", resp.AmountDueDisplay)
	s.False(resp.RequiresCardForm)

	// Already on a paid plan: the card form never mounts.
	s.Equal(0, s.widgets.MountCount())
	s.Equal([]string{"premium"}, s.gateway.CalculateCalls())
}

func (s *CheckoutOrchestratorSuite) TestFreeToPaidMountsTokenizerWithoutProration() {
	s.subscription.SetCurrent(testutil.TrialSubscription())

	session, err := s.orchestrator.SelectPlan(s.ctx, testutil.PlanBySlug("basic"))
	s.NoError(err)
	s.Equal(types.CheckoutStateReadyForPayment, session.State)
	s.Equal(types.TransitionFreeToPaid, session.TransitionKind)
	s.Nil(session.Calculation)
	s.True(session.AmountDue.Equal(decimal.NewFromInt(15000)))

	s.Empty(s.gateway.CalculateCalls())
	s.Require().Equal(1, s.widgets.MountCount())
	s.True(s.widgets.Widgets()[0].Config.AmountARS.Equal(decimal.NewFromInt(15000)))

	resp := toSessionResponse(session)
	s.Equal("Total a pagar hoy: $15.000", resp.AmountDueDisplay)
	s.True(resp.RequiresCardForm)
}

func (s *CheckoutOrchestratorSuite) TestSelectingCurrentPlanFailsWithoutNetworkCalls() {
	session, err := s.orchestrator.SelectPlan(s.ctx, testutil.PlanBySlug("basic"))
	s.NoError(err)

	s.Equal(types.CheckoutStateFailed, session.State)
	s.Require().NotNil(session.LastError)
	s.Equal(types.ErrorCategoryUnsupportedTransition, session.LastError.Category)
	s.False(session.LastError.Retryable)

	s.Empty(s.gateway.CalculateCalls())
	s.Equal(0, s.gateway.SubmitCount())
	s.Equal(0, s.widgets.MountCount())
}

func (s *CheckoutOrchestratorSuite) TestDowngradeIsRejected() {
	s.subscription.SetCurrent(testutil.ActiveSubscription(types.PlanTierPremium))

	session, err := s.orchestrator.SelectPlan(s.ctx, testutil.PlanBySlug("basic"))
	s.NoError(err)

	s.Equal(types.CheckoutStateFailed, session.State)
	s.Require().NotNil(session.LastError)
	s.Equal(types.ErrorCategoryUnsupportedTransition, session.LastError.Category)
	s.False(session.LastError.Retryable)
	s.Empty(s.gateway.CalculateCalls())
}

func (s *CheckoutOrchestratorSuite) TestStaleProrationResultIsDiscarded() {
	s.gateway.SetCalculation("premium", &billing.UpgradeCalculation{
		FullPriceARS:     decimal.NewFromInt(50000),
		CreditAppliedARS: decimal.NewFromInt(12000),
		UpgradeAmountARS: decimal.NewFromInt(38000),
	})
	s.gateway.SetCalculationDelay("premium", 150*time.Millisecond)
	s.gateway.SetCalculation("enterprise", &billing.UpgradeCalculation{
		FullPriceARS:     decimal.NewFromInt(120000),
		CreditAppliedARS: decimal.NewFromInt(12000),
		UpgradeAmountARS: decimal.NewFromInt(108000),
	})

	_, err := s.orchestrator.SelectPlan(s.ctx, testutil.PlanBySlug("premium"))
	s.NoError(err)

	// Second selection before the first proration resolves.
	_, err = s.orchestrator.SelectPlan(s.ctx, testutil.PlanBySlug("enterprise"))
	s.NoError(err)

	s.waitForState(types.CheckoutStateReadyForPayment)

	session := s.orchestrator.Session()
	s.Equal("enterprise", session.TargetPlan.Slug)
	s.True(session.AmountDue.Equal(decimal.NewFromInt(108000)))

	// Let the slow premium response land; it must not overwrite anything.
	time.Sleep(250 * time.Millisecond)
	session = s.orchestrator.Session()
	s.Equal(types.CheckoutStateReadyForPayment, session.State)
	s.Equal("enterprise", session.TargetPlan.Slug)
	s.True(session.AmountDue.Equal(decimal.NewFromInt(108000)))
}

func (s *CheckoutOrchestratorSuite) TestConcurrentSubmitsSendOneRequest() {
	s.subscription.SetCurrent(testutil.TrialSubscription())
	_, err := s.orchestrator.SelectPlan(s.ctx, testutil.PlanBySlug("basic"))
	s.NoError(err)
	s.gateway.SetUpgradeDelay(150 * time.Millisecond)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.orchestrator.Submit(s.ctx, &payment.FormData{}, nil)
			s.NoError(err)
		}()
	}
	wg.Wait()

	s.waitForState(types.CheckoutStateSucceeded)
	s.Equal(1, s.gateway.SubmitCount())
}

func (s *CheckoutOrchestratorSuite) TestCancelRefusedWhileSubmitting() {
	s.subscription.SetCurrent(testutil.TrialSubscription())
	_, err := s.orchestrator.SelectPlan(s.ctx, testutil.PlanBySlug("basic"))
	s.NoError(err)
	s.gateway.SetUpgradeDelay(150 * time.Millisecond)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := s.orchestrator.Submit(s.ctx, &payment.FormData{}, nil)
		s.NoError(err)
	}()

	s.waitForState(types.CheckoutStateSubmitting)
	s.False(s.orchestrator.Cancel())
	s.Equal(types.CheckoutStateSubmitting, s.orchestrator.State())

	<-done
	s.Equal(types.CheckoutStateSucceeded, s.orchestrator.State())
	s.Equal("preapproval-test", s.orchestrator.Session().PreapprovalID)
}

func (s *CheckoutOrchestratorSuite) TestCancelResetsSessionAndUnmountsWidget() {
	s.subscription.SetCurrent(testutil.TrialSubscription())
	_, err := s.orchestrator.SelectPlan(s.ctx, testutil.PlanBySlug("basic"))
	s.NoError(err)
	s.Require().Equal(1, s.widgets.MountCount())

	s.True(s.orchestrator.Cancel())

	session := s.orchestrator.Session()
	s.Equal(types.CheckoutStateIdle, session.State)
	s.Empty(session.ID)
	s.Nil(session.TargetPlan)
	s.True(s.widgets.Widgets()[0].Closed())
}

func (s *CheckoutOrchestratorSuite) TestCancelDuringEvaluationDiscardsLateResult() {
	s.gateway.SetCalculation("premium", &billing.UpgradeCalculation{
		FullPriceARS:     decimal.NewFromInt(50000),
		CreditAppliedARS: decimal.NewFromInt(12000),
		UpgradeAmountARS: decimal.NewFromInt(38000),
	})
	s.gateway.SetCalculationDelay("premium", 100*time.Millisecond)

	_, err := s.orchestrator.SelectPlan(s.ctx, testutil.PlanBySlug("premium"))
	s.NoError(err)
	s.Equal(types.CheckoutStateEvaluating, s.orchestrator.State())

	s.True(s.orchestrator.Cancel())
	s.Equal(types.CheckoutStateIdle, s.orchestrator.State())

	time.Sleep(200 * time.Millisecond)
	s.Equal(types.CheckoutStateIdle, s.orchestrator.State())
}

func (s *CheckoutOrchestratorSuite) TestProrationFailureIsRetryableInPlace() {
	s.gateway.SetCalculationError("premium", ierr.NewError("connection reset").Mark(ierr.ErrHTTPClient))

	_, err := s.orchestrator.SelectPlan(s.ctx, testutil.PlanBySlug("premium"))
	s.NoError(err)
	s.waitForState(types.CheckoutStateFailed)

	session := s.orchestrator.Session()
	s.Require().NotNil(session.LastError)
	s.True(session.LastError.Retryable)
	s.Equal("premium", session.TargetPlan.Slug)

	// Lookup recovers on the retry; the same plan is reused.
	s.gateway.SetCalculationError("premium", nil)
	s.gateway.SetCalculation("premium", &billing.UpgradeCalculation{
		FullPriceARS:     decimal.NewFromInt(50000),
		CreditAppliedARS: decimal.NewFromInt(12000),
		UpgradeAmountARS: decimal.NewFromInt(38000),
	})

	_, err = s.orchestrator.Retry(s.ctx)
	s.NoError(err)
	s.waitForState(types.CheckoutStateReadyForPayment)
	s.Equal([]string{"premium", "premium"}, s.gateway.CalculateCalls())
}

func (s *CheckoutOrchestratorSuite) TestGatewayRejectionRetriesWithoutRecalculating() {
	s.gateway.SetCalculation("premium", &billing.UpgradeCalculation{
		FullPriceARS:     decimal.NewFromInt(50000),
		CreditAppliedARS: decimal.NewFromInt(12000),
		UpgradeAmountARS: decimal.NewFromInt(38000),
	})
	s.gateway.SetUpgradeResult(nil, billing.NewGatewayError(billing.ErrCodeMPSubscriptionError, "card declined", 502))

	_, err := s.orchestrator.SelectPlan(s.ctx, testutil.PlanBySlug("premium"))
	s.NoError(err)
	s.waitForState(types.CheckoutStateReadyForPayment)

	session, err := s.orchestrator.Submit(s.ctx, &payment.FormData{}, nil)
	s.NoError(err)
	s.Equal(types.CheckoutStateFailed, session.State)
	s.Require().NotNil(session.LastError)
	s.Equal(types.ErrorCategoryGatewayError, session.LastError.Category)
	s.True(session.LastError.Retryable)

	// Plan and calculation survive the failure.
	s.Equal("premium", session.TargetPlan.Slug)
	s.Require().NotNil(session.Calculation)

	_, err = s.orchestrator.Retry(s.ctx)
	s.NoError(err)
	s.Equal(types.CheckoutStateReadyForPayment, s.orchestrator.State())

	s.gateway.SetUpgradeResult(&billing.UpgradeResult{PreapprovalID: "preapproval-after-retry"}, nil)
	session, err = s.orchestrator.Submit(s.ctx, &payment.FormData{}, nil)
	s.NoError(err)
	s.Equal(types.CheckoutStateSucceeded, session.State)
	s.Equal("preapproval-after-retry", session.PreapprovalID)

	// One proration lookup, two purchase attempts.
	s.Equal([]string{"premium"}, s.gateway.CalculateCalls())
	s.Equal(2, s.gateway.SubmitCount())
}

func (s *CheckoutOrchestratorSuite) TestNonRetryableFailureRefusesRetry() {
	session, err := s.orchestrator.SelectPlan(s.ctx, testutil.PlanBySlug("basic"))
	s.NoError(err)
	s.Equal(types.CheckoutStateFailed, session.State)
	s.False(session.Retryable())

	_, err = s.orchestrator.Retry(s.ctx)
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))
}

func (s *CheckoutOrchestratorSuite) TestSubmitFromIdleIsRejected() {
	_, err := s.orchestrator.Submit(s.ctx, &payment.FormData{}, nil)
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))
}

func (s *CheckoutOrchestratorSuite) TestFreeToPaidSubmitTokenizesThroughWidget() {
	s.subscription.SetCurrent(testutil.TrialSubscription())
	_, err := s.orchestrator.SelectPlan(s.ctx, testutil.PlanBySlug("basic"))
	s.NoError(err)

	session, err := s.orchestrator.Submit(s.ctx, &payment.FormData{PayerEmail: "inmobiliaria@example.com"}, nil)
	s.NoError(err)
	s.Equal(types.CheckoutStateSucceeded, session.State)

	calls := s.gateway.FromFreeCalls()
	s.Require().Len(calls, 1)
	s.Equal("basic", calls[0].PlanSlug)
	s.Equal("tok-test", calls[0].Token)
	s.Equal("visa", calls[0].PaymentMethodID)

	// The widget is released once the purchase resolves.
	s.True(s.widgets.Widgets()[0].Closed())
	s.Equal(1, s.widgets.Widgets()[0].SubmitCalls())
}

func (s *CheckoutOrchestratorSuite) TestFreeToPaidSubmitWithEmptyTokenFails() {
	s.subscription.SetCurrent(testutil.TrialSubscription())
	s.widgets.SetResult(&payment.CardToken{Token: ""}, nil)

	_, err := s.orchestrator.SelectPlan(s.ctx, testutil.PlanBySlug("basic"))
	s.NoError(err)

	session, err := s.orchestrator.Submit(s.ctx, &payment.FormData{}, nil)
	s.NoError(err)
	s.Equal(types.CheckoutStateFailed, session.State)
	s.Require().NotNil(session.LastError)
	s.Equal(types.ErrorCategoryClientValidation, session.LastError.Category)
	s.False(session.LastError.Retryable)
	s.Equal(0, s.gateway.SubmitCount())
}

func (s *CheckoutOrchestratorSuite) TestTokenSurvivesRetryableSubmitFailure() {
	s.subscription.SetCurrent(testutil.TrialSubscription())
	s.gateway.SetUpgradeResult(nil, billing.NewGatewayError(billing.ErrCodeMPSubscriptionError, "issuer unavailable", 502))

	_, err := s.orchestrator.SelectPlan(s.ctx, testutil.PlanBySlug("basic"))
	s.NoError(err)

	session, err := s.orchestrator.Submit(s.ctx, &payment.FormData{}, nil)
	s.NoError(err)
	s.True(session.Retryable())

	_, err = s.orchestrator.Retry(s.ctx)
	s.NoError(err)
	s.Equal(types.CheckoutStateReadyForPayment, s.orchestrator.State())
	// Token retained from the first attempt: no second widget mount.
	s.Equal(1, s.widgets.MountCount())

	s.gateway.SetUpgradeResult(&billing.UpgradeResult{PreapprovalID: "preapproval-retry"}, nil)
	session, err = s.orchestrator.Submit(s.ctx, &payment.FormData{}, nil)
	s.NoError(err)
	s.Equal(types.CheckoutStateSucceeded, session.State)

	calls := s.gateway.FromFreeCalls()
	s.Require().Len(calls, 2)
	s.Equal(calls[0].Token, calls[1].Token)
	// The card form was submitted exactly once across both attempts.
	s.Equal(1, s.widgets.Widgets()[0].SubmitCalls())
}

func (s *CheckoutOrchestratorSuite) TestPretokenizedSubmitSkipsWidget() {
	s.subscription.SetCurrent(testutil.TrialSubscription())
	_, err := s.orchestrator.SelectPlan(s.ctx, testutil.PlanBySlug("basic"))
	s.NoError(err)

	token := &payment.CardToken{
		Token:           "tok-client-side",
		PaymentMethodID: "master",
		IssuerID:        "24",
		PayerEmail:      "dueño@example.com",
	}
	session, err := s.orchestrator.Submit(s.ctx, &payment.FormData{}, token)
	s.NoError(err)
	s.Equal(types.CheckoutStateSucceeded, session.State)

	calls := s.gateway.FromFreeCalls()
	s.Require().Len(calls, 1)
	s.Equal("tok-client-side", calls[0].Token)
	s.Equal(0, s.widgets.Widgets()[0].SubmitCalls())
}

func (s *CheckoutOrchestratorSuite) TestReselectionReplacesFailedSession() {
	_, err := s.orchestrator.SelectPlan(s.ctx, testutil.PlanBySlug("basic"))
	s.NoError(err)
	s.Equal(types.CheckoutStateFailed, s.orchestrator.State())
	firstID := s.orchestrator.Session().ID

	s.gateway.SetCalculation("premium", &billing.UpgradeCalculation{
		FullPriceARS:     decimal.NewFromInt(50000),
		CreditAppliedARS: decimal.NewFromInt(12000),
		UpgradeAmountARS: decimal.NewFromInt(38000),
	})
	session, err := s.orchestrator.SelectPlan(s.ctx, testutil.PlanBySlug("premium"))
	s.NoError(err)
	s.NotEqual(firstID, session.ID)
	s.Nil(session.LastError)
	s.waitForState(types.CheckoutStateReadyForPayment)
}
