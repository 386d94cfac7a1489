package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/propzen/billing/internal/domain/billing"
	"github.com/propzen/billing/internal/domain/plan"
	ierr "github.com/propzen/billing/internal/errors"
)

// MockBillingGateway is a scriptable billing.Gateway for tests. Each
// proration response can be delayed per plan slug to reproduce ordering
// races; call counts are recorded for idempotency assertions.
type MockBillingGateway struct {
	mu sync.Mutex

	Plans []*plan.Plan

	calculations      map[string]*billing.UpgradeCalculation
	calculationErrs   map[string]error
	calculationDelays map[string]time.Duration

	upgradeResult *billing.UpgradeResult
	upgradeErr    error
	upgradeDelay  time.Duration

	listCalls       int
	calculateCalls  []string
	fromFreeCalls   []*billing.UpgradeFromFreeRequest
	paidToPaidCalls []string
}

func NewMockBillingGateway() *MockBillingGateway {
	return &MockBillingGateway{
		calculations:      make(map[string]*billing.UpgradeCalculation),
		calculationErrs:   make(map[string]error),
		calculationDelays: make(map[string]time.Duration),
		upgradeResult:     &billing.UpgradeResult{PreapprovalID: "preapproval-test"},
	}
}

// SetCalculation scripts the proration response for a plan slug.
func (m *MockBillingGateway) SetCalculation(slug string, calc *billing.UpgradeCalculation) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calculations[slug] = calc
}

// SetCalculationError scripts a proration failure for a plan slug.
func (m *MockBillingGateway) SetCalculationError(slug string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calculationErrs[slug] = err
}

// SetCalculationDelay delays the proration response for a plan slug.
func (m *MockBillingGateway) SetCalculationDelay(slug string, delay time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calculationDelays[slug] = delay
}

// SetUpgradeResult scripts the outcome of both upgrade endpoints.
func (m *MockBillingGateway) SetUpgradeResult(result *billing.UpgradeResult, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.upgradeResult = result
	m.upgradeErr = err
}

// SetUpgradeDelay makes upgrade submissions block, so tests can observe
// the submitting state.
func (m *MockBillingGateway) SetUpgradeDelay(delay time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.upgradeDelay = delay
}

func (m *MockBillingGateway) CalculateCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string{}, m.calculateCalls...)
}

func (m *MockBillingGateway) FromFreeCalls() []*billing.UpgradeFromFreeRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*billing.UpgradeFromFreeRequest{}, m.fromFreeCalls...)
}

func (m *MockBillingGateway) PaidToPaidCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string{}, m.paidToPaidCalls...)
}

// SubmitCount is the total number of purchase requests sent.
func (m *MockBillingGateway) SubmitCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.fromFreeCalls) + len(m.paidToPaidCalls)
}

func (m *MockBillingGateway) ListPlansCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.listCalls
}

func (m *MockBillingGateway) ListPlans(ctx context.Context) ([]*plan.Plan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listCalls++
	return append([]*plan.Plan{}, m.Plans...), nil
}

func (m *MockBillingGateway) CalculateUpgrade(ctx context.Context, planSlug string) (*billing.UpgradeCalculation, error) {
	m.mu.Lock()
	m.calculateCalls = append(m.calculateCalls, planSlug)
	delay := m.calculationDelays[planSlug]
	scriptedErr := m.calculationErrs[planSlug]
	calc := m.calculations[planSlug]
	m.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ierr.WithError(ctx.Err()).Mark(ierr.ErrHTTPClient)
		}
	}

	if scriptedErr != nil {
		return nil, scriptedErr
	}
	if calc == nil {
		return nil, ierr.NewError("no calculation scripted for plan").
			WithReportableDetails(map[string]any{"plan_slug": planSlug}).
			Mark(ierr.ErrSystem)
	}
	return calc, nil
}

func (m *MockBillingGateway) UpgradeFromFree(ctx context.Context, req *billing.UpgradeFromFreeRequest) (*billing.UpgradeResult, error) {
	m.mu.Lock()
	m.fromFreeCalls = append(m.fromFreeCalls, req)
	delay := m.upgradeDelay
	result, err := m.upgradeResult, m.upgradeErr
	m.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ierr.WithError(ctx.Err()).Mark(ierr.ErrHTTPClient)
		}
	}
	return result, err
}

func (m *MockBillingGateway) UpgradePaidToPaid(ctx context.Context, planSlug string, provider string) (*billing.UpgradeResult, error) {
	m.mu.Lock()
	m.paidToPaidCalls = append(m.paidToPaidCalls, planSlug)
	delay := m.upgradeDelay
	result, err := m.upgradeResult, m.upgradeErr
	m.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ierr.WithError(ctx.Err()).Mark(ierr.ErrHTTPClient)
		}
	}
	return result, err
}
