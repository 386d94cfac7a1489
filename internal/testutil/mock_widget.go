package testutil

import (
	"context"
	"sync"

	"github.com/propzen/billing/internal/domain/payment"
)

// MockWidget is a scriptable payment.Widget.
type MockWidget struct {
	mu          sync.Mutex
	Config      payment.WidgetConfig
	token       *payment.CardToken
	err         error
	submitCalls int
	closed      bool
}

func (w *MockWidget) SetResult(token *payment.CardToken, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.token = token
	w.err = err
}

func (w *MockWidget) Submit(ctx context.Context, form *payment.FormData) (*payment.CardToken, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.submitCalls++
	if w.err != nil {
		return nil, w.err
	}
	return w.token, nil
}

func (w *MockWidget) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
}

func (w *MockWidget) Closed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closed
}

func (w *MockWidget) SubmitCalls() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.submitCalls
}

// MockWidgetFactory records every widget it mounts, so tests can assert
// the mount-once-per-entry lifecycle.
type MockWidgetFactory struct {
	mu      sync.Mutex
	token   *payment.CardToken
	err     error
	widgets []*MockWidget
}

func NewMockWidgetFactory() *MockWidgetFactory {
	return &MockWidgetFactory{
		token: &payment.CardToken{
			Token:           "tok-test",
			PaymentMethodID: "visa",
			IssuerID:        "310",
			PayerEmail:      "inmobiliaria@example.com",
		},
	}
}

func (f *MockWidgetFactory) SetResult(token *payment.CardToken, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.token = token
	f.err = err
}

func (f *MockWidgetFactory) NewWidget(cfg payment.WidgetConfig) (payment.Widget, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w := &MockWidget{Config: cfg, token: f.token, err: f.err}
	f.widgets = append(f.widgets, w)
	return w, nil
}

// Widgets returns every widget mounted so far.
func (f *MockWidgetFactory) Widgets() []*MockWidget {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*MockWidget{}, f.widgets...)
}

// MountCount returns how many widgets were mounted.
func (f *MockWidgetFactory) MountCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.widgets)
}
