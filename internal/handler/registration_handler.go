package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-events-api/internal/dto"
	"github.com/noah-isme/campus-events-api/internal/models"
	"github.com/noah-isme/campus-events-api/internal/service"
	"github.com/noah-isme/campus-events-api/pkg/response"
)

type registrationService interface {
	Register(ctx context.Context, req dto.CreateRegistrationRequest, userID string) (*service.RegistrationOutcome, error)
	ListMine(ctx context.Context, userID string) ([]models.RegistrationWithEvent, error)
	Cancel(ctx context.Context, id, userID string) (*models.Registration, error)
	UpdateStatus(ctx context.Context, id string, req dto.UpdateRegistrationStatusRequest, claims *models.JWTClaims) (*models.Registration, error)
}

// RegistrationHandler exposes event sign-up endpoints.
type RegistrationHandler struct {
	service registrationService
}

// NewRegistrationHandler constructs a RegistrationHandler.
func NewRegistrationHandler(svc registrationService) *RegistrationHandler {
	return &RegistrationHandler{service: svc}
}

// Register godoc
// @Summary Register for an event
// @Tags Registrations
// @Accept json
// @Produce json
// @Param payload body dto.CreateRegistrationRequest true "Registration payload"
// @Success 200 {object} response.Envelope "Cancelled registration reactivated"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /registrations [post]
func (h *RegistrationHandler) Register(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	var req dto.CreateRegistrationRequest
	if !bindJSON(c, &req, "invalid registration payload") {
		return
	}
	out, err := h.service.Register(c.Request.Context(), req, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	if out.Reactivated {
		response.WithMessage(c, http.StatusOK, out.Registration, "Registration reactivated")
		return
	}
	response.WithMessage(c, http.StatusCreated, out.Registration, "Registration successful")
}

// Mine godoc
// @Summary List my registrations
// @Tags Registrations
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /registrations/my-registrations [get]
func (h *RegistrationHandler) Mine(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	regs, err := h.service.ListMine(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, regs, nil)
}

// Cancel godoc
// @Summary Cancel my registration
// @Tags Registrations
// @Produce json
// @Param id path string true "Registration ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /registrations/{id}/cancel [patch]
func (h *RegistrationHandler) Cancel(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	reg, err := h.service.Cancel(c.Request.Context(), c.Param("id"), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, reg, nil)
}

// UpdateStatus godoc
// @Summary Approve, reject or waitlist a registration
// @Tags Registrations
// @Accept json
// @Produce json
// @Param id path string true "Registration ID"
// @Param payload body dto.UpdateRegistrationStatusRequest true "Status payload"
// @Success 200 {object} response.Envelope
// @Router /registrations/{id}/status [patch]
func (h *RegistrationHandler) UpdateStatus(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	var req dto.UpdateRegistrationStatusRequest
	if !bindJSON(c, &req, "invalid status payload") {
		return
	}
	reg, err := h.service.UpdateStatus(c.Request.Context(), c.Param("id"), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, reg, nil)
}
