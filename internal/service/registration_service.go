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
	"github.com/noah-isme/campus-events-api/internal/repository"
	appErrors "github.com/noah-isme/campus-events-api/pkg/errors"
)

type registrationRepository interface {
	FindByEventAndUser(ctx context.Context, eventID, userID string) (*models.Registration, error)
	GetByID(ctx context.Context, id string) (*models.Registration, error)
	Create(ctx context.Context, reg *models.Registration) error
	UpdateStatus(ctx context.Context, id string, status models.RegistrationStatus) (*models.Registration, error)
	CountActiveByEvent(ctx context.Context, eventID string) (int, error)
	ListByUser(ctx context.Context, userID string) ([]models.RegistrationWithEvent, error)
}

// RegistrationNotifier confirms registrations by email.
type RegistrationNotifier interface {
	NotifyRegistration(ctx context.Context, to, userName, eventName string)
}

// RegistrationOutcome reports the stored registration and whether it was reactivated.
type RegistrationOutcome struct {
	Registration *models.Registration
	Reactivated  bool
}

// RegistrationService manages event sign-ups.
type RegistrationService struct {
	events    eventReader
	users     userReader
	repo      registrationRepository
	notifier  RegistrationNotifier
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewRegistrationService constructs a RegistrationService.
func NewRegistrationService(events eventReader, users userReader, repo registrationRepository, notifier RegistrationNotifier, validate *validator.Validate, logger *zap.Logger) *RegistrationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RegistrationService{events: events, users: users, repo: repo, notifier: notifier, validator: newValidator(validate), logger: logger}
}

// UseCache invalidates cached analytics whenever registrations change.
func (s *RegistrationService) UseCache(cache *CacheService) {
	s.cache = cache
}

// Register signs userID up for an event. A cancelled registration is reactivated as PENDING.
func (s *RegistrationService) Register(ctx context.Context, req dto.CreateRegistrationRequest, userID string) (*RegistrationOutcome, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid registration payload")
	}
	event, err := loadEvent(ctx, s.events, req.EventID)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.FindByEventAndUser(ctx, event.ID, userID)
	switch {
	case err == nil && existing.Status == models.RegistrationCancelled:
		reg, err := s.repo.UpdateStatus(ctx, existing.ID, models.RegistrationPending)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reactivate registration")
		}
		invalidateAnalytics(ctx, s.cache)
		s.confirm(ctx, userID, event)
		return &RegistrationOutcome{Registration: reg, Reactivated: true}, nil
	case err == nil:
		return nil, appErrors.Clone(appErrors.ErrAlreadyRegistered, "Already registered for this event")
	case !errors.Is(err, sql.ErrNoRows):
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check registration")
	}

	if event.MaxParticipants != nil {
		count, err := s.repo.CountActiveByEvent(ctx, event.ID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count registrations")
		}
		if count >= *event.MaxParticipants {
			return nil, appErrors.Clone(appErrors.ErrEventFull, "Event is full")
		}
	}

	reg := &models.Registration{EventID: event.ID, UserID: userID, Status: models.RegistrationPending}
	if err := s.repo.Create(ctx, reg); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Clone(appErrors.ErrAlreadyRegistered, "Already registered for this event")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to register")
	}
	invalidateAnalytics(ctx, s.cache)
	s.confirm(ctx, userID, event)
	return &RegistrationOutcome{Registration: reg}, nil
}

// ListMine returns the caller's registrations.
func (s *RegistrationService) ListMine(ctx context.Context, userID string) ([]models.RegistrationWithEvent, error) {
	regs, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list registrations")
	}
	return regs, nil
}

// Cancel cancels the caller's own registration.
func (s *RegistrationService) Cancel(ctx context.Context, id, userID string) (*models.Registration, error) {
	reg, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if reg.UserID != userID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "not authorized to cancel this registration")
	}
	return s.setStatus(ctx, id, models.RegistrationCancelled)
}

// UpdateStatus approves, rejects or waitlists a registration. Only the event owner or an admin may.
func (s *RegistrationService) UpdateStatus(ctx context.Context, id string, req dto.UpdateRegistrationStatusRequest, claims *models.JWTClaims) (*models.Registration, error) {
	req.Status = strings.ToUpper(req.Status)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid registration status")
	}
	reg, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	event, err := loadEvent(ctx, s.events, reg.EventID)
	if err != nil {
		return nil, err
	}
	if err := requireManager(claims, event); err != nil {
		return nil, err
	}
	return s.setStatus(ctx, id, models.RegistrationStatus(req.Status))
}

func (s *RegistrationService) load(ctx context.Context, id string) (*models.Registration, error) {
	reg, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "registration not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load registration")
	}
	return reg, nil
}

func (s *RegistrationService) setStatus(ctx context.Context, id string, status models.RegistrationStatus) (*models.Registration, error) {
	reg, err := s.repo.UpdateStatus(ctx, id, status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "registration not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update registration")
	}
	invalidateAnalytics(ctx, s.cache)
	return reg, nil
}

func (s *RegistrationService) confirm(ctx context.Context, userID string, event *models.Event) {
	if s.notifier == nil || s.users == nil {
		return
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		s.logger.Warn("skipping registration confirmation", zap.String("user_id", userID), zap.Error(err))
		return
	}
	s.notifier.NotifyRegistration(ctx, user.Email, user.FirstName, event.Title)
}
