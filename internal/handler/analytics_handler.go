package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-events-api/internal/middleware"
	"github.com/noah-isme/campus-events-api/internal/models"
	"github.com/noah-isme/campus-events-api/pkg/response"
)

type analyticsService interface {
	Organizer(ctx context.Context, claims *models.JWTClaims) (*models.OrganizerStats, bool, error)
	Event(ctx context.Context, eventID string, claims *models.JWTClaims) (*models.EventStats, bool, error)
	Admin(ctx context.Context, claims *models.JWTClaims) (*models.AdminStats, bool, error)
	SystemMetrics(claims *models.JWTClaims) (models.AnalyticsSystemMetrics, error)
}

// AnalyticsHandler exposes dashboard-ready analytics endpoints.
type AnalyticsHandler struct {
	analytics analyticsService
}

// NewAnalyticsHandler constructs the analytics handler.
func NewAnalyticsHandler(analytics analyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analytics}
}

func respondCached(c *gin.Context, data interface{}, hit bool, err error) {
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, data, nil, middleware.ExtractMeta(c))
}

// Organizer godoc
// @Summary Organizer dashboard
// @Tags Analytics
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /analytics/organizer [get]
func (h *AnalyticsHandler) Organizer(c *gin.Context) {
	stats, hit, err := h.analytics.Organizer(c.Request.Context(), claimsFromContext(c))
	respondCached(c, stats, hit, err)
}

// Event godoc
// @Summary Event analytics
// @Tags Analytics
// @Produce json
// @Param id path string true "Event ID"
// @Success 200 {object} response.Envelope
// @Router /analytics/events/{id} [get]
func (h *AnalyticsHandler) Event(c *gin.Context) {
	stats, hit, err := h.analytics.Event(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	respondCached(c, stats, hit, err)
}

// Admin godoc
// @Summary Platform analytics
// @Tags Analytics
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /analytics/admin [get]
func (h *AnalyticsHandler) Admin(c *gin.Context) {
	stats, hit, err := h.analytics.Admin(c.Request.Context(), claimsFromContext(c))
	respondCached(c, stats, hit, err)
}

// System godoc
// @Summary System metrics snapshot
// @Tags Analytics
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /analytics/system [get]
func (h *AnalyticsHandler) System(c *gin.Context) {
	snapshot, err := h.analytics.SystemMetrics(claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, snapshot, nil)
}
