package api

import (
	"github.com/gin-gonic/gin"
	v1 "github.com/propzen/billing/internal/api/v1"
	"github.com/propzen/billing/internal/rest/middleware"
)

type Handlers struct {
	Health   *v1.HealthHandler
	Plan     *v1.PlanHandler
	Checkout *v1.CheckoutHandler
}

func NewRouter(handlers Handlers) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORSMiddleware)
	router.Use(middleware.RequestIDMiddleware)
	router.Use(middleware.ErrorHandler())

	router.GET("/health", handlers.Health.Health)

	// v1 routes
	v1Group := router.Group("/v1")
	v1Group.Use(middleware.TenantMiddleware)
	registerV1Routes(v1Group, handlers)

	return router
}

func registerV1Routes(router *gin.RouterGroup, handlers Handlers) {
	// Plan catalog routes
	plans := router.Group("/plans")
	{
		plans.GET("", handlers.Plan.GetPlans)
	}

	// Checkout routes
	checkout := router.Group("/checkout")
	{
		checkout.GET("", handlers.Checkout.GetSession)
		checkout.POST("/select", handlers.Checkout.SelectPlan)
		checkout.POST("/submit", handlers.Checkout.Submit)
		checkout.POST("/retry", handlers.Checkout.Retry)
		checkout.POST("/cancel", handlers.Checkout.Cancel)
	}
}
