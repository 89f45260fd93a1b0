package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-events-api/internal/dto"
	"github.com/noah-isme/campus-events-api/internal/models"
	appErrors "github.com/noah-isme/campus-events-api/pkg/errors"
)

type eventReader interface {
	GetByID(ctx context.Context, id string) (*models.Event, error)
}

type eventRepository interface {
	eventReader
	ListPublic(ctx context.Context, states []models.EventState) ([]models.Event, error)
	ListByOrganizer(ctx context.Context, organizerID string) ([]models.Event, error)
	Create(ctx context.Context, event *models.Event) error
	UpdateState(ctx context.Context, id string, state models.EventState) error
	Delete(ctx context.Context, id string) error
}

// EventService manages the event catalogue.
type EventService struct {
	repo      eventRepository
	validator *validator.Validate
	cache     *CacheService
	logger    *zap.Logger
}

// NewEventService constructs an EventService.
func NewEventService(repo eventRepository, validate *validator.Validate, logger *zap.Logger) *EventService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventService{repo: repo, validator: newValidator(validate), logger: logger}
}

// UseCache invalidates cached analytics whenever events change.
func (s *EventService) UseCache(cache *CacheService) {
	s.cache = cache
}

// List returns published, live and completed events ordered by start time.
func (s *EventService) List(ctx context.Context) ([]models.Event, error) {
	events, err := s.repo.ListPublic(ctx, models.PublicEventStates)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list events")
	}
	return events, nil
}

// Get returns a single event.
func (s *EventService) Get(ctx context.Context, id string) (*models.Event, error) {
	return loadEvent(ctx, s.repo, id)
}

// ListMine returns events organized by the caller.
func (s *EventService) ListMine(ctx context.Context, claims *models.JWTClaims) ([]models.Event, error) {
	if err := requireRole(claims, models.RoleOrganizer, models.RoleAdmin); err != nil {
		return nil, err
	}
	events, err := s.repo.ListByOrganizer(ctx, claims.UserID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list events")
	}
	return events, nil
}

// Create publishes a new event owned by the caller.
func (s *EventService) Create(ctx context.Context, req dto.CreateEventRequest, claims *models.JWTClaims) (*models.Event, error) {
	if err := requireRole(claims, models.RoleOrganizer, models.RoleAdmin); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid event payload")
	}

	method := models.AttendanceMethod(strings.ToUpper(req.AttendanceMethod))
	if method == "" {
		method = models.AttendanceMethodManual
	}

	event := &models.Event{
		Title:            strings.TrimSpace(req.Title),
		Description:      req.Description,
		EventType:        strings.ToUpper(req.EventType),
		Category:         strings.ToUpper(req.Category),
		StartDateTime:    req.StartDateTime.UTC(),
		EndDateTime:      req.EndDateTime.UTC(),
		Venue:            req.Venue,
		IsOnline:         req.IsOnline,
		MaxParticipants:  req.MaxParticipants,
		State:            models.EventStatePublished,
		AttendanceMethod: method,
		Latitude:         req.Latitude,
		Longitude:        req.Longitude,
		GeofenceRadius:   req.GeofenceRadius,
		OrganizerID:      claims.UserID,
	}
	if _, complete := event.Fence(); method == models.AttendanceMethodGeofence && !complete {
		return nil, appErrors.Clone(appErrors.ErrValidation, "geofence events require latitude, longitude and geofence_radius")
	}
	if err := s.repo.Create(ctx, event); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create event")
	}
	s.logger.Info("event created", zap.String("event_id", event.ID), zap.String("organizer_id", event.OrganizerID))
	invalidateAnalytics(ctx, s.cache)
	return event, nil
}

// UpdateState moves an event through its lifecycle. Only the owner or an admin may do so.
func (s *EventService) UpdateState(ctx context.Context, id string, req dto.UpdateEventStateRequest, claims *models.JWTClaims) (*models.Event, error) {
	req.State = strings.ToUpper(req.State)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid event state")
	}
	event, err := s.loadManaged(ctx, id, claims)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdateState(ctx, id, models.EventState(req.State)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update event")
	}
	event.State = models.EventState(req.State)
	invalidateAnalytics(ctx, s.cache)
	return event, nil
}

// Delete removes an event. Only the owner or an admin may do so.
func (s *EventService) Delete(ctx context.Context, id string, claims *models.JWTClaims) error {
	if _, err := s.loadManaged(ctx, id, claims); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete event")
	}
	invalidateAnalytics(ctx, s.cache)
	return nil
}

// invalidateAnalytics drops every cached dashboard. A nil cache is a no-op.
func invalidateAnalytics(ctx context.Context, cache *CacheService) {
	_ = cache.Invalidate(ctx, CacheKey("analytics", "*"))
}

func (s *EventService) loadManaged(ctx context.Context, id string, claims *models.JWTClaims) (*models.Event, error) {
	event, err := loadEvent(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}
	if err := requireManager(claims, event); err != nil {
		return nil, err
	}
	return event, nil
}

// loadEvent fetches an event and maps a missing row to NOT_FOUND.
func loadEvent(ctx context.Context, repo eventReader, id string) (*models.Event, error) {
	event, err := repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load event")
	}
	return event, nil
}

// requireManager allows admins and the organizer who owns the event.
func requireManager(claims *models.JWTClaims, event *models.Event) error {
	if claims == nil {
		return appErrors.Clone(appErrors.ErrUnauthorized, "authentication required")
	}
	if !claims.CanManage(event.OrganizerID) {
		return appErrors.Clone(appErrors.ErrForbidden, "not authorized to manage this event")
	}
	return nil
}

func requireRole(claims *models.JWTClaims, roles ...models.UserRole) error {
	if claims == nil {
		return appErrors.Clone(appErrors.ErrUnauthorized, "authentication required")
	}
	for _, role := range roles {
		if claims.Role == role {
			return nil
		}
	}
	return appErrors.Clone(appErrors.ErrForbidden, "insufficient role")
}
