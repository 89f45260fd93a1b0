package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/campus-events-api/internal/models"
	appErrors "github.com/noah-isme/campus-events-api/pkg/errors"
)

// AnalyticsRepository describes the persistence layer required by AnalyticsService.
type AnalyticsRepository interface {
	OrganizerStats(ctx context.Context, organizerID string) (*models.OrganizerStats, error)
	RegistrationCount(ctx context.Context, eventID string) (int, error)
	AttendanceBreakdown(ctx context.Context, eventID string) ([]models.AttendanceBucket, error)
	AdminStats(ctx context.Context) (*models.AdminStats, error)
}

// AnalyticsService provides dashboard statistics with cache integration.
type AnalyticsService struct {
	events  eventReader
	repo    AnalyticsRepository
	cache   *CacheService
	metrics *MetricsService
	ttl     time.Duration
	logger  *zap.Logger
}

// NewAnalyticsService constructs an analytics service. A zero ttl uses the cache default.
func NewAnalyticsService(events eventReader, repo AnalyticsRepository, cache *CacheService, metrics *MetricsService, ttl time.Duration, logger *zap.Logger) *AnalyticsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnalyticsService{events: events, repo: repo, cache: cache, metrics: metrics, ttl: ttl, logger: logger}
}

// Organizer returns the caller's event statistics. The boolean indicates whether data originated from cache.
func (s *AnalyticsService) Organizer(ctx context.Context, claims *models.JWTClaims) (*models.OrganizerStats, bool, error) {
	if err := requireRole(claims, models.RoleOrganizer); err != nil {
		return nil, false, err
	}
	key := CacheKey("analytics", "organizer", claims.UserID)
	var cached models.OrganizerStats
	if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
		return &cached, true, nil
	}

	start := time.Now()
	stats, err := s.repo.OrganizerStats(ctx, claims.UserID)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch stats")
	}
	s.metrics.ObserveDBQuery("analytics_organizer", time.Since(start))
	s.store(ctx, key, stats)
	return stats, false, nil
}

// Event returns registration and attendance figures for one event.
func (s *AnalyticsService) Event(ctx context.Context, eventID string, claims *models.JWTClaims) (*models.EventStats, bool, error) {
	event, err := loadEvent(ctx, s.events, eventID)
	if err != nil {
		return nil, false, err
	}
	if err := requireManager(claims, event); err != nil {
		return nil, false, err
	}
	key := CacheKey("analytics", "event", eventID)
	var cached models.EventStats
	if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
		return &cached, true, nil
	}

	start := time.Now()
	total, err := s.repo.RegistrationCount(ctx, eventID)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch event stats")
	}
	buckets, err := s.repo.AttendanceBreakdown(ctx, eventID)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch event stats")
	}
	s.metrics.ObserveDBQuery("analytics_event", time.Since(start))
	if buckets == nil {
		buckets = []models.AttendanceBucket{}
	}

	stats := &models.EventStats{EventName: event.Title, TotalRegistrations: total, AttendanceData: buckets}
	s.store(ctx, key, stats)
	return stats, false, nil
}

// Admin returns platform-wide totals.
func (s *AnalyticsService) Admin(ctx context.Context, claims *models.JWTClaims) (*models.AdminStats, bool, error) {
	if err := requireRole(claims, models.RoleAdmin); err != nil {
		return nil, false, err
	}
	key := CacheKey("analytics", "admin")
	var cached models.AdminStats
	if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
		return &cached, true, nil
	}

	start := time.Now()
	stats, err := s.repo.AdminStats(ctx)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch stats")
	}
	s.metrics.ObserveDBQuery("analytics_admin", time.Since(start))
	s.store(ctx, key, stats)
	return stats, false, nil
}

// SystemMetrics returns system instrumentation snapshot.
func (s *AnalyticsService) SystemMetrics(claims *models.JWTClaims) (models.AnalyticsSystemMetrics, error) {
	if err := requireRole(claims, models.RoleAdmin); err != nil {
		return models.AnalyticsSystemMetrics{}, err
	}
	if s.metrics == nil {
		return models.AnalyticsSystemMetrics{}, nil
	}
	return s.metrics.Snapshot(), nil
}

func (s *AnalyticsService) store(ctx context.Context, key string, value interface{}) {
	if err := s.cache.Set(ctx, key, value, s.ttl); err != nil {
		s.logger.Warn(fmt.Sprintf("cache %s", key), zap.Error(err))
	}
}
