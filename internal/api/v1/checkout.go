package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/quizfunnel/leadsync/internal/api/dto"
	ierr "github.com/quizfunnel/leadsync/internal/errors"
	"github.com/quizfunnel/leadsync/internal/logger"
	"github.com/quizfunnel/leadsync/internal/service"
)

type CheckoutHandler struct {
	service service.CheckoutService
	log     *logger.Logger
}

func NewCheckoutHandler(service service.CheckoutService, log *logger.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		service: service,
		log:     log,
	}
}

// @Summary Create a checkout session
// @Description Open a hosted payment page for one plan
// @Tags Checkout
// @Accept json
// @Produce json
// @Param checkout body dto.CreateCheckoutRequest true "Checkout"
// @Success 200 {object} dto.CheckoutResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 502 {object} ierr.ErrorResponse
// @Router /checkout [post]
func (h *CheckoutHandler) CreateCheckout(c *gin.Context) {
	var req dto.CreateCheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.service.CreateCheckout(c.Request.Context(), req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary List plans
// @Tags Checkout
// @Produce json
// @Success 200 {array} dto.PlanResponse
// @Router /plans [get]
func (h *CheckoutHandler) ListPlans(c *gin.Context) {
	resp, err := h.service.ListPlans(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
