package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/campus-events-api/internal/models"
)

const attendanceColumns = `id, event_id, user_id, status, check_in_time, check_in_method, latitude, longitude, created_at, updated_at`

const attendanceUpsert = `INSERT INTO attendance (id, event_id, user_id, status, check_in_time, check_in_method, latitude, longitude, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
ON CONFLICT (event_id, user_id) DO UPDATE SET status = EXCLUDED.status, check_in_time = EXCLUDED.check_in_time, latitude = EXCLUDED.latitude, longitude = EXCLUDED.longitude, updated_at = EXCLUDED.updated_at`

// AttendanceRepository persists check-ins. One row exists per event and user.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository constructs an AttendanceRepository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// Upsert atomically creates or refreshes the attendance row keyed by event and user.
// An existing row keeps its check_in_method unless overrideMethod is set.
// sql.ErrNoRows is returned when the event or user does not exist.
func (r *AttendanceRepository) Upsert(ctx context.Context, a *models.Attendance, overrideMethod bool) (*models.Attendance, error) {
	id := a.ID
	if id == "" {
		id = uuid.NewString()
	}
	now := time.Now().UTC()
	checkIn := a.CheckInTime
	if checkIn.IsZero() {
		checkIn = now
	}

	query := attendanceUpsert
	if overrideMethod {
		query += `, check_in_method = EXCLUDED.check_in_method`
	}
	query += ` RETURNING ` + attendanceColumns

	var stored models.Attendance
	if err := r.db.GetContext(ctx, &stored, query,
		id, a.EventID, a.UserID, a.Status, checkIn, a.CheckInMethod, a.Latitude, a.Longitude, now,
	); err != nil {
		if isNotFound(err) || isForeignKeyViolation(err) {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("upsert attendance: %w", err)
	}
	return &stored, nil
}

// GetByEventAndUser returns the attendance of userID at eventID.
func (r *AttendanceRepository) GetByEventAndUser(ctx context.Context, eventID, userID string) (*models.Attendance, error) {
	query := `SELECT ` + attendanceColumns + ` FROM attendance WHERE event_id = $1 AND user_id = $2`
	var a models.Attendance
	if err := r.db.GetContext(ctx, &a, query, eventID, userID); err != nil {
		if isNotFound(err) {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("get attendance: %w", err)
	}
	return &a, nil
}

// ListByEvent returns the attendance roster of an event.
func (r *AttendanceRepository) ListByEvent(ctx context.Context, eventID string) ([]models.AttendanceRecord, error) {
	const query = `SELECT a.id, a.event_id, a.user_id, a.status, a.check_in_time, a.check_in_method, a.latitude, a.longitude, a.created_at, a.updated_at, u.first_name, u.last_name, u.email
FROM attendance a JOIN users u ON u.id = a.user_id WHERE a.event_id = $1 ORDER BY a.check_in_time ASC`
	var records []models.AttendanceRecord
	if err := r.db.SelectContext(ctx, &records, query, eventID); err != nil {
		return nil, fmt.Errorf("list event attendance: %w", err)
	}
	return records, nil
}

// ListByUser returns a user's attendance history, most recent first.
func (r *AttendanceRepository) ListByUser(ctx context.Context, userID string) ([]models.AttendanceWithEvent, error) {
	const query = `SELECT a.id, a.event_id, a.user_id, a.status, a.check_in_time, a.check_in_method, a.latitude, a.longitude, a.created_at, a.updated_at, e.title AS event_title, e.start_date_time AS event_start
FROM attendance a JOIN events e ON e.id = a.event_id WHERE a.user_id = $1 ORDER BY a.check_in_time DESC`
	var records []models.AttendanceWithEvent
	if err := r.db.SelectContext(ctx, &records, query, userID); err != nil {
		return nil, fmt.Errorf("list user attendance: %w", err)
	}
	return records, nil
}

// ListEligible returns attendees of eventID whose status is one of statuses.
func (r *AttendanceRepository) ListEligible(ctx context.Context, eventID string, statuses []models.AttendanceStatus) ([]models.EligibleAttendee, error) {
	values := make([]string, len(statuses))
	for i, s := range statuses {
		values[i] = string(s)
	}
	const query = `SELECT a.user_id, u.email, u.first_name, u.last_name, a.status
FROM attendance a JOIN users u ON u.id = a.user_id WHERE a.event_id = $1 AND a.status = ANY($2) ORDER BY a.check_in_time ASC`
	var attendees []models.EligibleAttendee
	if err := r.db.SelectContext(ctx, &attendees, query, eventID, pq.Array(values)); err != nil {
		return nil, fmt.Errorf("list eligible attendees: %w", err)
	}
	return attendees, nil
}
