package service

import (
	"context"
	"database/sql"
	"errors"
	"math"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-events-api/internal/dto"
	"github.com/noah-isme/campus-events-api/internal/models"
	"github.com/noah-isme/campus-events-api/internal/repository"
	appErrors "github.com/noah-isme/campus-events-api/pkg/errors"
)

type feedbackRepository interface {
	Exists(ctx context.Context, eventID, userID string) (bool, error)
	Create(ctx context.Context, fb *models.Feedback) error
	ListByEvent(ctx context.Context, eventID string) ([]models.FeedbackEntry, error)
}

type attendanceLookup interface {
	GetByEventAndUser(ctx context.Context, eventID, userID string) (*models.Attendance, error)
}

// FeedbackService collects post-event ratings.
type FeedbackService struct {
	events     eventReader
	attendance attendanceLookup
	repo       feedbackRepository
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewFeedbackService constructs a FeedbackService.
func NewFeedbackService(events eventReader, attendance attendanceLookup, repo feedbackRepository, validate *validator.Validate, logger *zap.Logger) *FeedbackService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FeedbackService{events: events, attendance: attendance, repo: repo, validator: newValidator(validate), logger: logger}
}

// Submit stores the caller's feedback. Only attendees may submit, once per event.
func (s *FeedbackService) Submit(ctx context.Context, req dto.SubmitFeedbackRequest, userID string) (*models.Feedback, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid feedback payload")
	}
	if _, err := loadEvent(ctx, s.events, req.EventID); err != nil {
		return nil, err
	}

	attendance, err := s.attendance.GetByEventAndUser(ctx, req.EventID, userID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance")
	}
	if attendance == nil || !attendance.Status.Attended() {
		return nil, appErrors.Clone(appErrors.ErrAttendanceRequired, "You must attend the event to leave feedback.")
	}

	exists, err := s.repo.Exists(ctx, req.EventID, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check feedback")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrFeedbackExists, "You have already submitted feedback for this event.")
	}

	fb := &models.Feedback{
		EventID:     req.EventID,
		UserID:      userID,
		Rating:      req.Rating,
		Comments:    req.Comments,
		IsAnonymous: req.IsAnonymous,
	}
	if err := s.repo.Create(ctx, fb); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Clone(appErrors.ErrFeedbackExists, "You have already submitted feedback for this event.")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to submit feedback")
	}
	return fb, nil
}

// ListForEvent returns feedback with the average rating. Anonymous authors are masked.
func (s *FeedbackService) ListForEvent(ctx context.Context, eventID string, claims *models.JWTClaims) (*models.FeedbackSummary, error) {
	event, err := loadEvent(ctx, s.events, eventID)
	if err != nil {
		return nil, err
	}
	if err := requireManager(claims, event); err != nil {
		return nil, err
	}

	entries, err := s.repo.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list feedback")
	}

	summary := &models.FeedbackSummary{Items: make([]models.FeedbackEntry, 0, len(entries)), TotalCount: len(entries)}
	total := 0
	for _, e := range entries {
		total += e.Rating
		if e.IsAnonymous {
			e.AuthorName = models.AnonymousAuthor
		} else {
			e.AuthorName = models.JoinName(e.FirstName, e.LastName)
		}
		summary.Items = append(summary.Items, e)
	}
	if len(entries) > 0 {
		summary.AverageRating = math.Round(float64(total)/float64(len(entries))*10) / 10
	}
	return summary, nil
}
