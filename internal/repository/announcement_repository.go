package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/campus-events-api/internal/models"
)

// AnnouncementRepository handles persistence for event announcements.
type AnnouncementRepository struct {
	db *sqlx.DB
}

// NewAnnouncementRepository constructs the repository.
func NewAnnouncementRepository(db *sqlx.DB) *AnnouncementRepository {
	return &AnnouncementRepository{db: db}
}

// Create inserts a new announcement.
func (r *AnnouncementRepository) Create(ctx context.Context, ann *models.Announcement) error {
	if ann.ID == "" {
		ann.ID = uuid.NewString()
	}
	ann.CreatedAt = time.Now().UTC()
	const query = `INSERT INTO announcements (id, event_id, title, content, priority, send_to_registered, email_sent, created_by, created_at)
VALUES (:id, :event_id, :title, :content, :priority, :send_to_registered, :email_sent, :created_by, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, ann); err != nil {
		return fmt.Errorf("create announcement: %w", err)
	}
	return nil
}

// ListByEvent returns the announcements of an event, newest first.
func (r *AnnouncementRepository) ListByEvent(ctx context.Context, eventID string) ([]models.Announcement, error) {
	const query = `SELECT id, event_id, title, content, priority, send_to_registered, email_sent, created_by, created_at FROM announcements WHERE event_id = $1 ORDER BY created_at DESC`
	var items []models.Announcement
	if err := r.db.SelectContext(ctx, &items, query, eventID); err != nil {
		return nil, fmt.Errorf("list announcements: %w", err)
	}
	return items, nil
}

// MarkEmailSent flags that recipients were notified.
func (r *AnnouncementRepository) MarkEmailSent(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE announcements SET email_sent = TRUE WHERE id = $1`, id); err != nil {
		return fmt.Errorf("mark announcement email sent: %w", err)
	}
	return nil
}
