package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/campus-events-api/internal/models"
)

// AnalyticsRepository exposes read-optimised queries for analytics endpoints.
type AnalyticsRepository struct {
	db *sqlx.DB
}

// NewAnalyticsRepository instantiates the repository.
func NewAnalyticsRepository(db *sqlx.DB) *AnalyticsRepository {
	return &AnalyticsRepository{db: db}
}

// OrganizerStats aggregates the events owned by organizerID.
func (r *AnalyticsRepository) OrganizerStats(ctx context.Context, organizerID string) (*models.OrganizerStats, error) {
	const query = `SELECT
        (SELECT COUNT(*) FROM events WHERE organizer_id = $1) AS total_events,
        (SELECT COUNT(*) FROM events WHERE organizer_id = $1 AND state IN ('PUBLISHED', 'LIVE')) AS active_events,
        (SELECT COUNT(*) FROM registrations r JOIN events e ON e.id = r.event_id WHERE e.organizer_id = $1) AS total_registrations,
        (SELECT COUNT(*) FROM certificates c JOIN events e ON e.id = c.event_id WHERE e.organizer_id = $1) AS total_certificates`
	var stats models.OrganizerStats
	if err := r.db.GetContext(ctx, &stats, query, organizerID); err != nil {
		return nil, fmt.Errorf("query organizer stats: %w", err)
	}
	return &stats, nil
}

// RegistrationCount counts all registrations of an event.
func (r *AnalyticsRepository) RegistrationCount(ctx context.Context, eventID string) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM registrations WHERE event_id = $1`, eventID); err != nil {
		return 0, fmt.Errorf("count event registrations: %w", err)
	}
	return total, nil
}

// AttendanceBreakdown groups the attendance of an event by status.
func (r *AnalyticsRepository) AttendanceBreakdown(ctx context.Context, eventID string) ([]models.AttendanceBucket, error) {
	const query = `SELECT status AS name, COUNT(*) AS value FROM attendance WHERE event_id = $1 GROUP BY status ORDER BY status`
	var buckets []models.AttendanceBucket
	if err := r.db.SelectContext(ctx, &buckets, query, eventID); err != nil {
		return nil, fmt.Errorf("query attendance breakdown: %w", err)
	}
	return buckets, nil
}

// AdminStats aggregates platform wide counters.
func (r *AnalyticsRepository) AdminStats(ctx context.Context) (*models.AdminStats, error) {
	const query = `SELECT
        (SELECT COUNT(*) FROM users) AS total_users,
        (SELECT COUNT(*) FROM events) AS total_events,
        (SELECT COUNT(*) FROM registrations) AS total_registrations,
        (SELECT COUNT(*) FROM certificates) AS total_certificates`
	var stats models.AdminStats
	if err := r.db.GetContext(ctx, &stats, query); err != nil {
		return nil, fmt.Errorf("query admin stats: %w", err)
	}
	return &stats, nil
}
