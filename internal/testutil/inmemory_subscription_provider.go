package testutil

import (
	"context"
	"sync"

	"github.com/propzen/billing/internal/domain/subscription"
	ierr "github.com/propzen/billing/internal/errors"
)

// InMemorySubscriptionProvider implements subscription.Provider with a
// settable view, standing in for the tenant auth context.
type InMemorySubscriptionProvider struct {
	mu           sync.Mutex
	current      *subscription.Subscription
	refreshCount int
}

func NewInMemorySubscriptionProvider(sub *subscription.Subscription) *InMemorySubscriptionProvider {
	return &InMemorySubscriptionProvider{current: sub}
}

func (p *InMemorySubscriptionProvider) Current(ctx context.Context) (*subscription.Subscription, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == nil {
		return nil, ierr.NewError("tenant has no subscription").Mark(ierr.ErrNotFound)
	}
	return p.current, nil
}

func (p *InMemorySubscriptionProvider) Refresh(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.refreshCount++
	return nil
}

// SetCurrent replaces the subscription view.
func (p *InMemorySubscriptionProvider) SetCurrent(sub *subscription.Subscription) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current = sub
}

// RefreshCount returns how many refreshes were requested.
func (p *InMemorySubscriptionProvider) RefreshCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.refreshCount
}
