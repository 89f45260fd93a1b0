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

const eventSelect = `SELECT e.id, e.title, e.description, e.event_type, e.category, e.start_date_time, e.end_date_time, e.venue, e.is_online, e.max_participants, e.state, e.attendance_method, e.latitude, e.longitude, e.geofence_radius, e.organizer_id, u.first_name AS organizer_first_name, u.last_name AS organizer_last_name, e.created_at, e.updated_at FROM events e LEFT JOIN users u ON u.id = e.organizer_id`

// EventRepository persists events.
type EventRepository struct {
	db *sqlx.DB
}

// NewEventRepository constructs an EventRepository.
func NewEventRepository(db *sqlx.DB) *EventRepository {
	return &EventRepository{db: db}
}

// ListPublic returns events in the given states ordered by start time.
func (r *EventRepository) ListPublic(ctx context.Context, states []models.EventState) ([]models.Event, error) {
	values := make([]string, len(states))
	for i, s := range states {
		values[i] = string(s)
	}
	query := eventSelect + ` WHERE e.state = ANY($1) ORDER BY e.start_date_time ASC`
	var events []models.Event
	if err := r.db.SelectContext(ctx, &events, query, pq.Array(values)); err != nil {
		return nil, fmt.Errorf("list public events: %w", err)
	}
	return resolveOrganizers(events), nil
}

// ListByOrganizer returns all events owned by organizerID, newest first.
func (r *EventRepository) ListByOrganizer(ctx context.Context, organizerID string) ([]models.Event, error) {
	query := eventSelect + ` WHERE e.organizer_id = $1 ORDER BY e.start_date_time DESC`
	var events []models.Event
	if err := r.db.SelectContext(ctx, &events, query, organizerID); err != nil {
		return nil, fmt.Errorf("list organizer events: %w", err)
	}
	return resolveOrganizers(events), nil
}

// GetByID fetches a single event.
func (r *EventRepository) GetByID(ctx context.Context, id string) (*models.Event, error) {
	query := eventSelect + ` WHERE e.id = $1`
	var event models.Event
	if err := r.db.GetContext(ctx, &event, query, id); err != nil {
		if isNotFound(err) {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	event.ResolveOrganizerName()
	return &event, nil
}

// Create inserts a new event.
func (r *EventRepository) Create(ctx context.Context, event *models.Event) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	event.CreatedAt = now
	event.UpdatedAt = now
	const query = `INSERT INTO events (id, title, description, event_type, category, start_date_time, end_date_time, venue, is_online, max_participants, state, attendance_method, latitude, longitude, geofence_radius, organizer_id, created_at, updated_at)
VALUES (:id, :title, :description, :event_type, :category, :start_date_time, :end_date_time, :venue, :is_online, :max_participants, :state, :attendance_method, :latitude, :longitude, :geofence_radius, :organizer_id, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, event); err != nil {
		return fmt.Errorf("create event: %w", err)
	}
	return nil
}

// UpdateState changes the lifecycle state. sql.ErrNoRows is returned when the event does not exist.
func (r *EventRepository) UpdateState(ctx context.Context, id string, state models.EventState) error {
	const query = `UPDATE events SET state = $2, updated_at = $3 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, state, time.Now().UTC())
	if err != nil {
		if isNotFound(err) {
			return sql.ErrNoRows
		}
		return fmt.Errorf("update event state: %w", err)
	}
	return requireAffected(res)
}

// Delete removes an event and, through cascading keys, its registrations, attendance and certificates.
func (r *EventRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		if isNotFound(err) {
			return sql.ErrNoRows
		}
		return fmt.Errorf("delete event: %w", err)
	}
	return requireAffected(res)
}

func resolveOrganizers(events []models.Event) []models.Event {
	for i := range events {
		events[i].ResolveOrganizerName()
	}
	return events
}

func requireAffected(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
