package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/propzen/billing/internal/logger"
	"github.com/propzen/billing/internal/service"
)

type PlanHandler struct {
	service service.PlanCatalogService
	log     *logger.Logger
}

func NewPlanHandler(
	service service.PlanCatalogService,
	log *logger.Logger,
) *PlanHandler {
	return &PlanHandler{
		service: service,
		log:     log,
	}
}

// @Summary Get purchasable plans
// @Description Get the plan catalog for the tenant, relative to its current subscription
// @Tags Plans
// @Accept json
// @Produce json
// @Success 200 {object} dto.ListPlansResponse
// @Failure 500 {object} ierr.ErrorResponse
// @Router /plans [get]
func (h *PlanHandler) GetPlans(c *gin.Context) {
	resp, err := h.service.GetPlans(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
