package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-events-api/internal/dto"
	"github.com/noah-isme/campus-events-api/internal/models"
	appErrors "github.com/noah-isme/campus-events-api/pkg/errors"
	"github.com/noah-isme/campus-events-api/pkg/export"
	"github.com/noah-isme/campus-events-api/pkg/geo"
)

type attendanceRepository interface {
	Upsert(ctx context.Context, a *models.Attendance, overrideMethod bool) (*models.Attendance, error)
	ListByEvent(ctx context.Context, eventID string) ([]models.AttendanceRecord, error)
	ListByUser(ctx context.Context, userID string) ([]models.AttendanceWithEvent, error)
}

// AttendanceBroadcaster publishes accepted check-ins to live subscribers.
type AttendanceBroadcaster interface {
	PublishAttendance(ctx context.Context, evt models.AttendanceEvent)
}

// AttendanceService records check-ins and serves attendance rosters.
type AttendanceService struct {
	events      eventReader
	repo        attendanceRepository
	validator   *validator.Validate
	exporter    *export.CSVExporter
	broadcaster AttendanceBroadcaster
	cache       *CacheService
	metrics     *MetricsService
	logger      *zap.Logger
	now         func() time.Time
}

// NewAttendanceService constructs the attendance service.
func NewAttendanceService(events eventReader, repo attendanceRepository, validate *validator.Validate, metrics *MetricsService, logger *zap.Logger) *AttendanceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttendanceService{
		events:    events,
		repo:      repo,
		validator: newValidator(validate),
		exporter:  export.NewCSVExporter(),
		metrics:   metrics,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// UseBroadcaster enables the live attendance feed.
func (s *AttendanceService) UseBroadcaster(b AttendanceBroadcaster) {
	s.broadcaster = b
}

// UseCache invalidates cached analytics whenever attendance is recorded.
func (s *AttendanceService) UseCache(cache *CacheService) {
	s.cache = cache
}

// RecordSelfCheckIn records the caller's own attendance. Geofenced events require coordinates
// inside the configured radius.
func (s *AttendanceService) RecordSelfCheckIn(ctx context.Context, req dto.SelfCheckInRequest) (*models.Attendance, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attendance payload")
	}

	event, err := loadEvent(ctx, s.events, req.EventID)
	if err != nil {
		return nil, err
	}

	if event.AttendanceMethod == models.AttendanceMethodGeofence {
		if req.Latitude == nil || req.Longitude == nil {
			return nil, appErrors.Clone(appErrors.ErrLocationRequired, "Location required for check-in")
		}
		if fence, ok := event.Fence(); ok {
			distance, inside := fence.Contains(geo.Point{Latitude: *req.Latitude, Longitude: *req.Longitude})
			if !inside {
				return nil, appErrors.Clonef(appErrors.ErrOutOfRange,
					"You are too far from the event location. Distance: %sm. Allowed: %sm.",
					formatMeters(math.Round(distance)), formatMeters(fence.RadiusMeters))
			}
		}
	}

	return s.store(ctx, &models.Attendance{
		EventID:       event.ID,
		UserID:        req.UserID,
		Status:        normalizeStatus(req.Status),
		CheckInMethod: event.AttendanceMethod,
		Latitude:      req.Latitude,
		Longitude:     req.Longitude,
	}, false)
}

// RecordOrganizerMark records attendance for another user. Only organizers and admins may mark.
func (s *AttendanceService) RecordOrganizerMark(ctx context.Context, req dto.OrganizerMarkRequest, claims *models.JWTClaims) (*models.Attendance, error) {
	if err := requireRole(claims, models.RoleOrganizer, models.RoleAdmin); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attendance payload")
	}

	event, err := loadEvent(ctx, s.events, req.EventID)
	if err != nil {
		return nil, err
	}

	return s.store(ctx, &models.Attendance{
		EventID:       event.ID,
		UserID:        req.UserID,
		Status:        normalizeStatus(req.Status),
		CheckInMethod: models.AttendanceMethodManual,
	}, true)
}

// ListForEvent returns the roster of an event. Organizers only see their own events.
func (s *AttendanceService) ListForEvent(ctx context.Context, eventID string, claims *models.JWTClaims) ([]models.AttendanceRecord, error) {
	if err := s.authorizeRoster(ctx, eventID, claims); err != nil {
		return nil, err
	}
	records, err := s.repo.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attendance")
	}
	return records, nil
}

// ListMine returns the caller's attendance history.
func (s *AttendanceService) ListMine(ctx context.Context, userID string) ([]models.AttendanceWithEvent, error) {
	records, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attendance")
	}
	return records, nil
}

// ExportCSV renders the event roster as CSV.
func (s *AttendanceService) ExportCSV(ctx context.Context, eventID string, claims *models.JWTClaims) (*models.CertificateFile, error) {
	records, err := s.ListForEvent(ctx, eventID, claims)
	if err != nil {
		return nil, err
	}
	table := export.Table{
		Columns: []export.Column{
			{Key: "name", Title: "Name"},
			{Key: "email", Title: "Email"},
			{Key: "status", Title: "Status"},
			{Key: "method", Title: "Check-in Method"},
			{Key: "time", Title: "Check-in Time"},
		},
	}
	for _, r := range records {
		table.Rows = append(table.Rows, map[string]string{
			"name":   models.JoinName(r.FirstName, r.LastName),
			"email":  r.Email,
			"status": string(r.Status),
			"method": string(r.CheckInMethod),
			"time":   r.CheckInTime.UTC().Format(time.RFC3339),
		})
	}
	data, err := s.exporter.Render(table)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render attendance export")
	}
	return &models.CertificateFile{
		Filename:    fmt.Sprintf("attendance-%s.csv", eventID),
		ContentType: "text/csv",
		Data:        data,
	}, nil
}

// AuthorizeLiveFeed checks that claims may watch the live feed of eventID.
func (s *AttendanceService) AuthorizeLiveFeed(ctx context.Context, eventID string, claims *models.JWTClaims) error {
	return s.authorizeRoster(ctx, eventID, claims)
}

func (s *AttendanceService) authorizeRoster(ctx context.Context, eventID string, claims *models.JWTClaims) error {
	if err := requireRole(claims, models.RoleOrganizer, models.RoleAdmin); err != nil {
		return err
	}
	event, err := loadEvent(ctx, s.events, eventID)
	if err != nil {
		return err
	}
	return requireManager(claims, event)
}

func (s *AttendanceService) store(ctx context.Context, record *models.Attendance, overrideMethod bool) (*models.Attendance, error) {
	record.CheckInTime = s.now()
	stored, err := s.repo.Upsert(ctx, record, overrideMethod)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record attendance")
	}
	s.metrics.RecordCheckIn(stored.CheckInMethod)
	invalidateAnalytics(ctx, s.cache)
	if s.broadcaster != nil {
		s.broadcaster.PublishAttendance(ctx, models.AttendanceEvent{
			EventID:       stored.EventID,
			UserID:        stored.UserID,
			Status:        stored.Status,
			CheckInMethod: stored.CheckInMethod,
			CheckInTime:   stored.CheckInTime,
		})
	}
	return stored, nil
}

func normalizeStatus(raw string) models.AttendanceStatus {
	if raw == "" {
		return models.AttendancePresent
	}
	return models.AttendanceStatus(strings.ToUpper(raw))
}

// formatMeters prints whole numbers without a fractional part.
func formatMeters(v float64) string {
	if v == math.Trunc(v) {
		return fmt.Sprintf("%.0f", v)
	}
	return fmt.Sprintf("%g", v)
}
