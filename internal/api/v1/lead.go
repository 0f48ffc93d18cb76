package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/quizfunnel/leadsync/internal/api/dto"
	ierr "github.com/quizfunnel/leadsync/internal/errors"
	"github.com/quizfunnel/leadsync/internal/logger"
	"github.com/quizfunnel/leadsync/internal/service"
)

type LeadHandler struct {
	service service.LeadService
	log     *logger.Logger
}

func NewLeadHandler(service service.LeadService, log *logger.Logger) *LeadHandler {
	return &LeadHandler{
		service: service,
		log:     log,
	}
}

// @Summary Create a lead
// @Description Capture the first email of a quiz taker
// @Tags Leads
// @Accept json
// @Produce json
// @Param lead body dto.CreateLeadRequest true "Lead"
// @Success 201 {object} dto.CreateLeadResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 500 {object} ierr.ErrorResponse
// @Router /leads [post]
func (h *LeadHandler) CreateLead(c *gin.Context) {
	var req dto.CreateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.service.CreateLead(c.Request.Context(), req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// @Summary Update a lead
// @Description Record the second email, the chosen plan and the payment flag
// @Tags Leads
// @Accept json
// @Produce json
// @Param id path string true "Lead ID"
// @Param lead body dto.UpdateLeadRequest true "Lead"
// @Success 200 {object} dto.LeadResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Router /leads/{id} [patch]
func (h *LeadHandler) UpdateLead(c *gin.Context) {
	id := c.Param("id")

	var req dto.UpdateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.service.UpdateLead(c.Request.Context(), id, req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary Get a lead
// @Tags Leads
// @Produce json
// @Param id path string true "Lead ID"
// @Success 200 {object} dto.LeadResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Router /leads/{id} [get]
func (h *LeadHandler) GetLead(c *gin.Context) {
	resp, err := h.service.GetLead(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary Get a lead by checkout session
// @Tags Leads
// @Produce json
// @Param sessionId path string true "Checkout session ID"
// @Success 200 {object} dto.LeadResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Router /leads/session/{sessionId} [get]
func (h *LeadHandler) GetLeadBySession(c *gin.Context) {
	resp, err := h.service.GetLeadBySession(c.Request.Context(), c.Param("sessionId"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary Check premium access
// @Description Unknown leads are reported as not premium
// @Tags Leads
// @Produce json
// @Param id path string true "Lead ID"
// @Success 200 {object} dto.SubscriptionStatusResponse
// @Router /leads/{id}/subscription [get]
func (h *LeadHandler) GetSubscriptionStatus(c *gin.Context) {
	resp, err := h.service.CheckSubscriptionStatus(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
