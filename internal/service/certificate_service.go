package service

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-events-api/internal/dto"
	"github.com/noah-isme/campus-events-api/internal/models"
	appErrors "github.com/noah-isme/campus-events-api/pkg/errors"
)

// CertificateTitlePrefix precedes the event title in every certificate title.
const CertificateTitlePrefix = "Certificate of Participation - "

type certificateRepository interface {
	GetByEventAndUser(ctx context.Context, eventID, userID string) (*models.Certificate, error)
	CreateIfAbsent(ctx context.Context, cert *models.Certificate) (bool, error)
	GetDetail(ctx context.Context, id string) (*models.CertificateDetail, error)
	GetDetailByNumber(ctx context.Context, number string) (*models.CertificateDetail, error)
	ListByUser(ctx context.Context, userID string) ([]models.CertificateDetail, error)
	ListByEvent(ctx context.Context, eventID string) ([]models.CertificateDetail, error)
	Revoke(ctx context.Context, id string, revokedAt time.Time) error
}

type eligibilityReader interface {
	GetByEventAndUser(ctx context.Context, eventID, userID string) (*models.Attendance, error)
	ListEligible(ctx context.Context, eventID string, statuses []models.AttendanceStatus) ([]models.EligibleAttendee, error)
}

type userReader interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// CertificateNotifier is told about newly created certificates. It must not block or fail the caller.
type CertificateNotifier interface {
	NotifyCertificateIssued(ctx context.Context, to, userName, eventName, certificateNumber string)
}

// CertificateService issues, verifies and revokes participation certificates.
type CertificateService struct {
	events     eventReader
	attendance eligibilityReader
	users      userReader
	repo       certificateRepository
	notifier   CertificateNotifier
	cache      *CacheService
	validator  *validator.Validate
	metrics    *MetricsService
	logger     *zap.Logger
	now        func() time.Time
	newNumber  func() string
}

// NewCertificateService constructs a CertificateService.
func NewCertificateService(events eventReader, attendance eligibilityReader, users userReader, repo certificateRepository, notifier CertificateNotifier, validate *validator.Validate, metrics *MetricsService, logger *zap.Logger) *CertificateService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CertificateService{
		events:     events,
		attendance: attendance,
		users:      users,
		repo:       repo,
		notifier:   notifier,
		validator:  newValidator(validate),
		metrics:    metrics,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
		newNumber:  NewCertificateNumber,
	}
}

// NewCertificateNumber returns the first segment of a random UUID, upper-cased.
func NewCertificateNumber() string {
	return strings.ToUpper(strings.SplitN(uuid.NewString(), "-", 2)[0])
}

// VerificationHash is the hex SHA-256 of number, userID and eventID concatenated without separators.
func VerificationHash(number, userID, eventID string) string {
	sum := sha256.Sum256([]byte(number + userID + eventID))
	return hex.EncodeToString(sum[:])
}

type certificateRecipient struct {
	UserID string
	Email  string
	Name   string
}

// UseCache invalidates cached analytics whenever certificates are issued or revoked.
func (s *CertificateService) UseCache(cache *CacheService) {
	s.cache = cache
}

// IssueSingle issues a certificate to one attendee. An existing certificate is returned unchanged
// with Created set to false.
func (s *CertificateService) IssueSingle(ctx context.Context, req dto.IssueCertificateRequest, claims *models.JWTClaims) (*models.IssueResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid certificate payload")
	}
	event, err := s.loadManagedEvent(ctx, req.EventID, claims)
	if err != nil {
		return nil, err
	}

	attendance, err := s.attendance.GetByEventAndUser(ctx, event.ID, req.UserID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance")
	}
	if attendance == nil || !attendance.Status.Attended() {
		return nil, appErrors.Clone(appErrors.ErrNotEligible, "user has not attended this event")
	}

	user, err := s.users.FindByID(ctx, req.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}

	result, err := s.issue(ctx, event, certificateRecipient{UserID: user.ID, Email: user.Email, Name: user.FullName()})
	if err != nil {
		s.metrics.RecordCertificate("failed")
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to issue certificate")
	}
	if result.Created {
		invalidateAnalytics(ctx, s.cache)
	}
	return result, nil
}

// IssueBulk issues certificates to every PRESENT or LATE attendee. Individual failures are
// counted and reported; the batch always runs to the end.
func (s *CertificateService) IssueBulk(ctx context.Context, req dto.BulkIssueRequest, claims *models.JWTClaims) (*models.BulkIssueResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid certificate payload")
	}
	event, err := s.loadManagedEvent(ctx, req.EventID, claims)
	if err != nil {
		return nil, err
	}

	attendees, err := s.attendance.ListEligible(ctx, event.ID, models.CertificateEligibleStatuses)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list eligible attendees")
	}
	if len(attendees) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNoEligibleAttendees, "no eligible attendees found")
	}

	result := &models.BulkIssueResult{Errors: []models.BulkIssueError{}}
	for _, a := range attendees {
		issued, err := s.issue(ctx, event, certificateRecipient{
			UserID: a.UserID,
			Email:  a.Email,
			Name:   models.JoinName(a.FirstName, a.LastName),
		})
		switch {
		case err != nil:
			result.Failed++
			result.Errors = append(result.Errors, models.BulkIssueError{UserID: a.UserID, Message: err.Error()})
			s.metrics.RecordCertificate("failed")
			s.logger.Warn("bulk certificate issuance failed", zap.String("event_id", event.ID), zap.String("user_id", a.UserID), zap.Error(err))
		case issued.Created:
			result.Issued++
		default:
			result.AlreadyIssued++
		}
	}

	s.logger.Info("bulk certificates issued",
		zap.String("event_id", event.ID),
		zap.Int("issued", result.Issued),
		zap.Int("already_issued", result.AlreadyIssued),
		zap.Int("failed", result.Failed),
	)
	if result.Issued > 0 {
		invalidateAnalytics(ctx, s.cache)
	}
	return result, nil
}

func (s *CertificateService) issue(ctx context.Context, event *models.Event, recipient certificateRecipient) (*models.IssueResult, error) {
	existing, err := s.repo.GetByEventAndUser(ctx, event.ID, recipient.UserID)
	if err == nil {
		s.metrics.RecordCertificate("already_issued")
		return &models.IssueResult{Certificate: existing, Created: false}, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	number := s.newNumber()
	cert := &models.Certificate{
		EventID:           event.ID,
		UserID:            recipient.UserID,
		CertificateNumber: number,
		VerificationHash:  VerificationHash(number, recipient.UserID, event.ID),
		Title:             CertificateTitlePrefix + event.Title,
		Status:            models.CertificateIssued,
		IssuedAt:          s.now(),
	}
	created, err := s.repo.CreateIfAbsent(ctx, cert)
	if err != nil {
		return nil, err
	}
	if !created {
		// a concurrent issuer inserted first
		existing, err := s.repo.GetByEventAndUser(ctx, event.ID, recipient.UserID)
		if err != nil {
			return nil, err
		}
		s.metrics.RecordCertificate("already_issued")
		return &models.IssueResult{Certificate: existing, Created: false}, nil
	}

	s.metrics.RecordCertificate("issued")
	if s.notifier != nil {
		s.notifier.NotifyCertificateIssued(ctx, recipient.Email, recipient.Name, event.Title, cert.CertificateNumber)
	}
	return &models.IssueResult{Certificate: cert, Created: true}, nil
}

// Verify looks a certificate up by number and recomputes its hash.
func (s *CertificateService) Verify(ctx context.Context, number string) (*models.CertificateVerification, error) {
	number = strings.ToUpper(strings.TrimSpace(number))
	if number == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "certificate number is required")
	}
	detail, err := s.repo.GetDetailByNumber(ctx, number)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "certificate not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load certificate")
	}
	hashOK := VerificationHash(detail.CertificateNumber, detail.UserID, detail.EventID) == detail.VerificationHash
	return &models.CertificateVerification{
		Valid:             hashOK && detail.Status == models.CertificateIssued,
		Status:            detail.Status,
		CertificateNumber: detail.CertificateNumber,
		EventTitle:        detail.EventTitle,
		RecipientName:     detail.RecipientName(),
		IssuedAt:          detail.IssuedAt,
	}, nil
}

// Revoke marks a certificate REVOKED. Revoking twice is a no-op.
func (s *CertificateService) Revoke(ctx context.Context, id string, claims *models.JWTClaims) (*models.CertificateDetail, error) {
	detail, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if claims == nil || !claims.CanManage(detail.OrganizerID) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "not authorized to revoke this certificate")
	}
	if detail.Status == models.CertificateRevoked {
		return detail, nil
	}
	at := s.now()
	if err := s.repo.Revoke(ctx, id, at); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "certificate not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to revoke certificate")
	}
	invalidateAnalytics(ctx, s.cache)
	detail.Status = models.CertificateRevoked
	detail.RevokedAt = &at
	return detail, nil
}

// Get returns a certificate with recipient and event details.
func (s *CertificateService) Get(ctx context.Context, id string) (*models.CertificateDetail, error) {
	detail, err := s.repo.GetDetail(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "certificate not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load certificate")
	}
	return detail, nil
}

// ListMine returns the caller's certificates.
func (s *CertificateService) ListMine(ctx context.Context, userID string) ([]models.CertificateDetail, error) {
	certs, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list certificates")
	}
	return certs, nil
}

// ListForEvent returns every certificate of an event.
func (s *CertificateService) ListForEvent(ctx context.Context, eventID string, claims *models.JWTClaims) ([]models.CertificateDetail, error) {
	if _, err := s.loadManagedEvent(ctx, eventID, claims); err != nil {
		return nil, err
	}
	certs, err := s.repo.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list certificates")
	}
	return certs, nil
}

func (s *CertificateService) loadManagedEvent(ctx context.Context, eventID string, claims *models.JWTClaims) (*models.Event, error) {
	event, err := loadEvent(ctx, s.events, eventID)
	if err != nil {
		return nil, err
	}
	if err := requireManager(claims, event); err != nil {
		return nil, err
	}
	return event, nil
}
