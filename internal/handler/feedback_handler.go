package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-events-api/internal/dto"
	"github.com/noah-isme/campus-events-api/internal/models"
	"github.com/noah-isme/campus-events-api/pkg/response"
)

type feedbackService interface {
	Submit(ctx context.Context, req dto.SubmitFeedbackRequest, userID string) (*models.Feedback, error)
	ListForEvent(ctx context.Context, eventID string, claims *models.JWTClaims) (*models.FeedbackSummary, error)
}

// FeedbackHandler exposes feedback endpoints.
type FeedbackHandler struct {
	service feedbackService
}

// NewFeedbackHandler constructs a FeedbackHandler.
func NewFeedbackHandler(svc feedbackService) *FeedbackHandler {
	return &FeedbackHandler{service: svc}
}

// Submit godoc
// @Summary Rate an attended event
// @Tags Feedback
// @Accept json
// @Produce json
// @Param payload body dto.SubmitFeedbackRequest true "Feedback payload"
// @Success 201 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /feedback [post]
func (h *FeedbackHandler) Submit(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	var req dto.SubmitFeedbackRequest
	if !bindJSON(c, &req, "invalid feedback payload") {
		return
	}
	fb, err := h.service.Submit(c.Request.Context(), req, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, fb)
}

// ForEvent godoc
// @Summary Feedback for an event
// @Tags Feedback
// @Produce json
// @Param eventId path string true "Event ID"
// @Success 200 {object} response.Envelope
// @Router /feedback/events/{eventId} [get]
func (h *FeedbackHandler) ForEvent(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	summary, err := h.service.ListForEvent(c.Request.Context(), c.Param("eventId"), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}
