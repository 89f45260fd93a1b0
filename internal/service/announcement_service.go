package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-events-api/internal/dto"
	"github.com/noah-isme/campus-events-api/internal/models"
	appErrors "github.com/noah-isme/campus-events-api/pkg/errors"
)

type announcementRepository interface {
	Create(ctx context.Context, ann *models.Announcement) error
	ListByEvent(ctx context.Context, eventID string) ([]models.Announcement, error)
	MarkEmailSent(ctx context.Context, id string) error
}

type recipientLister interface {
	ListRecipients(ctx context.Context, eventID string) ([]models.Recipient, error)
}

// AnnouncementNotifier emails announcements to registrants.
type AnnouncementNotifier interface {
	NotifyAnnouncement(ctx context.Context, to, eventName, title, message string)
}

// AnnouncementService posts event updates.
type AnnouncementService struct {
	events     eventReader
	recipients recipientLister
	repo       announcementRepository
	notifier   AnnouncementNotifier
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewAnnouncementService constructs an AnnouncementService.
func NewAnnouncementService(events eventReader, recipients recipientLister, repo announcementRepository, notifier AnnouncementNotifier, validate *validator.Validate, logger *zap.Logger) *AnnouncementService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnnouncementService{events: events, recipients: recipients, repo: repo, notifier: notifier, validator: newValidator(validate), logger: logger}
}

// Create posts an announcement and optionally emails every approved registrant.
func (s *AnnouncementService) Create(ctx context.Context, req dto.CreateAnnouncementRequest, claims *models.JWTClaims) (*models.Announcement, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid announcement payload")
	}
	event, err := loadEvent(ctx, s.events, req.EventID)
	if err != nil {
		return nil, err
	}
	if err := requireManager(claims, event); err != nil {
		return nil, err
	}

	priority := models.AnnouncementPriority(strings.ToUpper(req.Priority))
	if priority == "" {
		priority = models.AnnouncementPriorityNormal
	}
	ann := &models.Announcement{
		EventID:          event.ID,
		Title:            req.Title,
		Content:          req.Content,
		Priority:         priority,
		SendToRegistered: req.SendToRegistered,
		CreatedBy:        claims.UserID,
	}
	if err := s.repo.Create(ctx, ann); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create announcement")
	}

	if ann.SendToRegistered && s.notifier != nil {
		s.broadcast(ctx, event, ann)
	}
	return ann, nil
}

// ListForEvent returns announcements of an event, newest first.
func (s *AnnouncementService) ListForEvent(ctx context.Context, eventID string) ([]models.Announcement, error) {
	items, err := s.repo.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list announcements")
	}
	return items, nil
}

func (s *AnnouncementService) broadcast(ctx context.Context, event *models.Event, ann *models.Announcement) {
	recipients, err := s.recipients.ListRecipients(ctx, event.ID)
	if err != nil {
		s.logger.Warn("failed to list announcement recipients", zap.String("event_id", event.ID), zap.Error(err))
		return
	}
	for _, r := range recipients {
		s.notifier.NotifyAnnouncement(ctx, r.Email, event.Title, ann.Title, ann.Content)
	}
	if err := s.repo.MarkEmailSent(ctx, ann.ID); err != nil {
		s.logger.Warn("failed to mark announcement emailed", zap.String("announcement_id", ann.ID), zap.Error(err))
		return
	}
	ann.EmailSent = true
}
