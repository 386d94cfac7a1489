package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/propzen/billing/internal/api/dto"
	ierr "github.com/propzen/billing/internal/errors"
	"github.com/propzen/billing/internal/logger"
	"github.com/propzen/billing/internal/service"
)

type CheckoutHandler struct {
	service service.CheckoutService
	log     *logger.Logger
}

func NewCheckoutHandler(
	service service.CheckoutService,
	log *logger.Logger,
) *CheckoutHandler {
	return &CheckoutHandler{
		service: service,
		log:     log,
	}
}

// @Summary Select a plan
// @Description Start or replace the checkout session for the given plan
// @Tags Checkout
// @Accept json
// @Produce json
// @Param request body dto.SelectPlanRequest true "Plan selection"
// @Success 200 {object} dto.CheckoutSessionResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Router /checkout/select [post]
func (h *CheckoutHandler) SelectPlan(c *gin.Context) {
	var req dto.SelectPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("El formato de la solicitud es inválido").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.service.SelectPlan(c.Request.Context(), req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary Get the checkout session
// @Description Get the current checkout session snapshot
// @Tags Checkout
// @Produce json
// @Success 200 {object} dto.CheckoutSessionResponse
// @Router /checkout [get]
func (h *CheckoutHandler) GetSession(c *gin.Context) {
	resp, err := h.service.GetSession(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary Submit the purchase
// @Description Confirm the upgrade; at most one purchase request is ever outstanding
// @Tags Checkout
// @Accept json
// @Produce json
// @Param request body dto.SubmitCheckoutRequest true "Payment data"
// @Success 200 {object} dto.CheckoutSessionResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Router /checkout/submit [post]
func (h *CheckoutHandler) Submit(c *gin.Context) {
	var req dto.SubmitCheckoutRequest
	// Paid-to-paid submits carry no payload; only bind when one is sent.
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.Error(ierr.WithError(err).
				WithHint("El formato de la solicitud es inválido").
				Mark(ierr.ErrValidation))
			return
		}
	}

	resp, err := h.service.Submit(c.Request.Context(), req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary Retry a failed checkout
// @Description Retry a retryably failed session without re-selecting the plan
// @Tags Checkout
// @Produce json
// @Success 200 {object} dto.CheckoutSessionResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Router /checkout/retry [post]
func (h *CheckoutHandler) Retry(c *gin.Context) {
	resp, err := h.service.Retry(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary Cancel the checkout session
// @Description Dismiss the session; refused while a payment is processing
// @Tags Checkout
// @Produce json
// @Success 200 {object} dto.CheckoutSessionResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Router /checkout/cancel [post]
func (h *CheckoutHandler) Cancel(c *gin.Context) {
	resp, err := h.service.Cancel(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
