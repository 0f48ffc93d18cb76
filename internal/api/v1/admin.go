package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	ierr "github.com/quizfunnel/leadsync/internal/errors"
	"github.com/quizfunnel/leadsync/internal/logger"
	"github.com/quizfunnel/leadsync/internal/service"
	"github.com/quizfunnel/leadsync/internal/types"
	"github.com/quizfunnel/leadsync/internal/validator"
)

// AdminHandler serves operator-only lead reads and overrides
type AdminHandler struct {
	service service.LeadService
	log     *logger.Logger
}

func NewAdminHandler(service service.LeadService, log *logger.Logger) *AdminHandler {
	return &AdminHandler{
		service: service,
		log:     log,
	}
}

// @Summary List leads
// @Description Newest first unless order=asc. Without limit every lead is returned.
// @Tags Admin
// @Produce json
// @Security ApiKeyAuth
// @Param filter query types.LeadFilter false "Filter"
// @Success 200 {array} dto.LeadResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Router /admin/leads [get]
func (h *AdminHandler) ListLeads(c *gin.Context) {
	filter := types.NewLeadFilter()
	if err := c.ShouldBindQuery(filter); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid filter parameters").
			Mark(ierr.ErrValidation))
		return
	}
	if err := validator.ValidateRequest(filter); err != nil {
		c.Error(err)
		return
	}

	resp, err := h.service.ListLeads(c.Request.Context(), filter)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary List leads of a quiz
// @Tags Admin
// @Produce json
// @Security ApiKeyAuth
// @Param quizId path string true "Quiz ID"
// @Success 200 {array} dto.LeadResponse
// @Router /admin/leads/quiz/{quizId} [get]
func (h *AdminHandler) ListLeadsByQuiz(c *gin.Context) {
	resp, err := h.service.ListLeadsByQuiz(c.Request.Context(), c.Param("quizId"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary List paid leads
// @Tags Admin
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {array} dto.LeadResponse
// @Router /admin/leads/paid [get]
func (h *AdminHandler) ListPaidLeads(c *gin.Context) {
	resp, err := h.service.ListPaidLeads(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary Revoke a lead's entitlement
// @Description Revokes the upstream entitlement, then expires the lead and clears its payment
// @Tags Admin
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Lead ID"
// @Success 200 {object} dto.LeadResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Router /admin/leads/{id}/revoke [post]
func (h *AdminHandler) RevokeEntitlement(c *gin.Context) {
	id := c.Param("id")

	resp, err := h.service.RevokeEntitlement(c.Request.Context(), id)
	if err != nil {
		h.log.Errorw("failed to revoke entitlement", "lead_id", id, "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
