package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-events-api/internal/dto"
	"github.com/noah-isme/campus-events-api/internal/models"
	"github.com/noah-isme/campus-events-api/pkg/response"
)

type attendanceService interface {
	RecordSelfCheckIn(ctx context.Context, req dto.SelfCheckInRequest) (*models.Attendance, error)
	RecordOrganizerMark(ctx context.Context, req dto.OrganizerMarkRequest, claims *models.JWTClaims) (*models.Attendance, error)
	ListForEvent(ctx context.Context, eventID string, claims *models.JWTClaims) ([]models.AttendanceRecord, error)
	ListMine(ctx context.Context, userID string) ([]models.AttendanceWithEvent, error)
	ExportCSV(ctx context.Context, eventID string, claims *models.JWTClaims) (*models.CertificateFile, error)
}

// AttendanceHandler exposes check-in endpoints.
type AttendanceHandler struct {
	service attendanceService
}

// NewAttendanceHandler constructs an AttendanceHandler.
func NewAttendanceHandler(svc attendanceService) *AttendanceHandler {
	return &AttendanceHandler{service: svc}
}

// Mark godoc
// @Summary Check in to an event
// @Description Records the caller's attendance. Geofenced events require latitude and longitude within the allowed radius.
// @Tags Attendance
// @Accept json
// @Produce json
// @Param payload body dto.SelfCheckInRequest true "Check-in payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /attendance/mark [post]
func (h *AttendanceHandler) Mark(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	var req dto.SelfCheckInRequest
	if !bindJSON(c, &req, "invalid check-in payload") {
		return
	}
	req.UserID = claims.UserID

	record, err := h.service.RecordSelfCheckIn(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.WithMessage(c, http.StatusOK, record, "Attendance marked successfully")
}

// MarkUser godoc
// @Summary Mark attendance for a user
// @Tags Attendance
// @Accept json
// @Produce json
// @Param payload body dto.OrganizerMarkRequest true "Mark payload"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /attendance/mark-user [post]
func (h *AttendanceHandler) MarkUser(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	var req dto.OrganizerMarkRequest
	if !bindJSON(c, &req, "invalid mark payload") {
		return
	}
	record, err := h.service.RecordOrganizerMark(c.Request.Context(), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.WithMessage(c, http.StatusOK, record, "Attendance marked successfully")
}

// EventRoster godoc
// @Summary Attendance roster of an event
// @Tags Attendance
// @Produce json
// @Param eventId path string true "Event ID"
// @Success 200 {object} response.Envelope
// @Router /attendance/events/{eventId} [get]
func (h *AttendanceHandler) EventRoster(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	records, err := h.service.ListForEvent(c.Request.Context(), c.Param("eventId"), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, nil)
}

// Export godoc
// @Summary Export attendance as CSV
// @Tags Attendance
// @Produce text/csv
// @Param eventId path string true "Event ID"
// @Success 200 {file} file
// @Router /attendance/events/{eventId}/export [get]
func (h *AttendanceHandler) Export(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	file, err := h.service.ExportCSV(c.Request.Context(), c.Param("eventId"), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Data)
}

// Mine godoc
// @Summary My attendance history
// @Tags Attendance
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /attendance/my-attendance [get]
func (h *AttendanceHandler) Mine(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	records, err := h.service.ListMine(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, nil)
}
