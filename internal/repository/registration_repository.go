package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/campus-events-api/internal/models"
)

const registrationColumns = `id, event_id, user_id, status, registered_at, updated_at`

// RegistrationRepository persists event registrations.
type RegistrationRepository struct {
	db *sqlx.DB
}

// NewRegistrationRepository constructs a RegistrationRepository.
func NewRegistrationRepository(db *sqlx.DB) *RegistrationRepository {
	return &RegistrationRepository{db: db}
}

// FindByEventAndUser returns the registration of userID for eventID.
func (r *RegistrationRepository) FindByEventAndUser(ctx context.Context, eventID, userID string) (*models.Registration, error) {
	query := `SELECT ` + registrationColumns + ` FROM registrations WHERE event_id = $1 AND user_id = $2`
	var reg models.Registration
	if err := r.db.GetContext(ctx, &reg, query, eventID, userID); err != nil {
		if isNotFound(err) {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("find registration: %w", err)
	}
	return &reg, nil
}

// GetByID fetches a registration.
func (r *RegistrationRepository) GetByID(ctx context.Context, id string) (*models.Registration, error) {
	query := `SELECT ` + registrationColumns + ` FROM registrations WHERE id = $1`
	var reg models.Registration
	if err := r.db.GetContext(ctx, &reg, query, id); err != nil {
		if isNotFound(err) {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("get registration: %w", err)
	}
	return &reg, nil
}

// Create inserts a registration. ErrDuplicate is returned when the user is already registered.
func (r *RegistrationRepository) Create(ctx context.Context, reg *models.Registration) error {
	if reg.ID == "" {
		reg.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	reg.RegisteredAt = now
	reg.UpdatedAt = now
	const query = `INSERT INTO registrations (id, event_id, user_id, status, registered_at, updated_at) VALUES (:id, :event_id, :user_id, :status, :registered_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, reg); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("create registration: %w", err)
	}
	return nil
}

// UpdateStatus sets the status of a registration and returns the stored row.
func (r *RegistrationRepository) UpdateStatus(ctx context.Context, id string, status models.RegistrationStatus) (*models.Registration, error) {
	query := `UPDATE registrations SET status = $2, updated_at = $3 WHERE id = $1 RETURNING ` + registrationColumns
	var reg models.Registration
	if err := r.db.GetContext(ctx, &reg, query, id, status, time.Now().UTC()); err != nil {
		if isNotFound(err) {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("update registration status: %w", err)
	}
	return &reg, nil
}

// CountActiveByEvent counts registrations that occupy a seat.
func (r *RegistrationRepository) CountActiveByEvent(ctx context.Context, eventID string) (int, error) {
	const query = `SELECT COUNT(*) FROM registrations WHERE event_id = $1 AND status NOT IN ('CANCELLED', 'REJECTED')`
	var total int
	if err := r.db.GetContext(ctx, &total, query, eventID); err != nil {
		return 0, fmt.Errorf("count registrations: %w", err)
	}
	return total, nil
}

// ListByUser returns the user's registrations with event details, soonest event first.
func (r *RegistrationRepository) ListByUser(ctx context.Context, userID string) ([]models.RegistrationWithEvent, error) {
	const query = `SELECT r.id, r.event_id, r.user_id, r.status, r.registered_at, r.updated_at, e.title AS event_title, e.start_date_time AS event_start, e.venue AS event_venue, e.state AS event_state
FROM registrations r JOIN events e ON e.id = r.event_id WHERE r.user_id = $1 ORDER BY e.start_date_time ASC`
	var regs []models.RegistrationWithEvent
	if err := r.db.SelectContext(ctx, &regs, query, userID); err != nil {
		return nil, fmt.Errorf("list user registrations: %w", err)
	}
	return regs, nil
}

// ListRecipients returns the approved registrants of an event.
func (r *RegistrationRepository) ListRecipients(ctx context.Context, eventID string) ([]models.Recipient, error) {
	const query = `SELECT u.id AS user_id, u.email, u.first_name, u.last_name FROM registrations r JOIN users u ON u.id = r.user_id WHERE r.event_id = $1 AND r.status = 'APPROVED'`
	var recipients []models.Recipient
	if err := r.db.SelectContext(ctx, &recipients, query, eventID); err != nil {
		return nil, fmt.Errorf("list registration recipients: %w", err)
	}
	return recipients, nil
}
