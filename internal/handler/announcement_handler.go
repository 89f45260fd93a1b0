package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-events-api/internal/dto"
	"github.com/noah-isme/campus-events-api/internal/models"
	"github.com/noah-isme/campus-events-api/pkg/response"
)

type announcementService interface {
	Create(ctx context.Context, req dto.CreateAnnouncementRequest, claims *models.JWTClaims) (*models.Announcement, error)
	ListForEvent(ctx context.Context, eventID string) ([]models.Announcement, error)
}

// AnnouncementHandler exposes event announcements.
type AnnouncementHandler struct {
	service announcementService
}

// NewAnnouncementHandler constructs an AnnouncementHandler.
func NewAnnouncementHandler(svc announcementService) *AnnouncementHandler {
	return &AnnouncementHandler{service: svc}
}

// Create godoc
// @Summary Post an announcement
// @Tags Announcements
// @Accept json
// @Produce json
// @Param payload body dto.CreateAnnouncementRequest true "Announcement payload"
// @Success 201 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /announcements [post]
func (h *AnnouncementHandler) Create(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	var req dto.CreateAnnouncementRequest
	if !bindJSON(c, &req, "invalid announcement payload") {
		return
	}
	ann, err := h.service.Create(c.Request.Context(), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, ann)
}

// ForEvent godoc
// @Summary Announcements of an event
// @Tags Announcements
// @Produce json
// @Param eventId path string true "Event ID"
// @Success 200 {object} response.Envelope
// @Router /announcements/events/{eventId} [get]
func (h *AnnouncementHandler) ForEvent(c *gin.Context) {
	items, err := h.service.ListForEvent(c.Request.Context(), c.Param("eventId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}
