package service

import (
	"github.com/propzen/billing/internal/config"
	"github.com/propzen/billing/internal/domain/billing"
	"github.com/propzen/billing/internal/domain/payment"
	"github.com/propzen/billing/internal/domain/subscription"
	"github.com/propzen/billing/internal/logger"
)

// ServiceParams holds common dependencies for services
type ServiceParams struct {
	Logger *logger.Logger
	Config *config.Configuration

	// External collaborators
	BillingGateway       billing.Gateway
	SubscriptionProvider subscription.Provider
	WidgetFactory        payment.WidgetFactory
}

// NewServiceParams bundles the common service dependencies
func NewServiceParams(
	logger *logger.Logger,
	config *config.Configuration,
	billingGateway billing.Gateway,
	subscriptionProvider subscription.Provider,
	widgetFactory payment.WidgetFactory,
) ServiceParams {
	return ServiceParams{
		Logger:               logger,
		Config:               config,
		BillingGateway:       billingGateway,
		SubscriptionProvider: subscriptionProvider,
		WidgetFactory:        widgetFactory,
	}
}
