package main

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/propzen/billing/internal/api"
	v1 "github.com/propzen/billing/internal/api/v1"
	"github.com/propzen/billing/internal/config"
	"github.com/propzen/billing/internal/gateway/billingengine"
	"github.com/propzen/billing/internal/gateway/mercadopago"
	"github.com/propzen/billing/internal/logger"
	"github.com/propzen/billing/internal/service"
	"go.uber.org/fx"
)

// @title Propzen Billing API
// @version 1.0
// @description Subscription upgrade and checkout API
// @BasePath /v1

func init() {
	// Set UTC timezone for the entire application
	time.Local = time.UTC
}

func main() {
	var opts []fx.Option

	// Core dependencies
	opts = append(opts,
		fx.Provide(
			// Config
			config.NewConfig,

			// Logger
			logger.NewLogger,

			// External gateways
			billingengine.NewClient,
			billingengine.NewSubscriptionProvider,
			mercadopago.NewCardTokenClient,
			mercadopago.NewWidgetFactory,
		),
	)

	// Service layer
	opts = append(opts,
		fx.Provide(
			service.NewServiceParams,
			service.NewUpgradePathEvaluator,
			service.NewErrorTranslator,
			service.NewPlanCatalogService,
			service.NewCheckoutService,
		),
	)

	// API
	opts = append(opts,
		fx.Provide(
			provideHandlers,
			provideRouter,
		),
		fx.Invoke(startServer),
	)

	app := fx.New(opts...)
	app.Run()
}

func provideHandlers(
	log *logger.Logger,
	planService service.PlanCatalogService,
	checkoutService service.CheckoutService,
) api.Handlers {
	return api.Handlers{
		Health:   v1.NewHealthHandler(log),
		Plan:     v1.NewPlanHandler(planService, log),
		Checkout: v1.NewCheckoutHandler(checkoutService, log),
	}
}

func provideRouter(handlers api.Handlers) *gin.Engine {
	return api.NewRouter(handlers)
}

func startServer(
	lc fx.Lifecycle,
	r *gin.Engine,
	cfg *config.Configuration,
	log *logger.Logger,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("Starting API server...")
			go func() {
				if err := r.Run(cfg.Server.Address); err != nil {
					log.Fatalf("Failed to start server: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("Shutting down server...")
			return nil
		},
	})
}
