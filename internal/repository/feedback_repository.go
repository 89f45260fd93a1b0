package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/campus-events-api/internal/models"
)

// FeedbackRepository persists event feedback.
type FeedbackRepository struct {
	db *sqlx.DB
}

// NewFeedbackRepository constructs a FeedbackRepository.
func NewFeedbackRepository(db *sqlx.DB) *FeedbackRepository {
	return &FeedbackRepository{db: db}
}

// Exists reports whether userID already left feedback for eventID.
func (r *FeedbackRepository) Exists(ctx context.Context, eventID, userID string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM feedback WHERE event_id = $1 AND user_id = $2)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, eventID, userID); err != nil {
		return false, fmt.Errorf("check feedback: %w", err)
	}
	return exists, nil
}

// Create stores feedback. ErrDuplicate is returned on a second submission.
func (r *FeedbackRepository) Create(ctx context.Context, fb *models.Feedback) error {
	if fb.ID == "" {
		fb.ID = uuid.NewString()
	}
	fb.CreatedAt = time.Now().UTC()
	const query = `INSERT INTO feedback (id, event_id, user_id, rating, comments, is_anonymous, created_at) VALUES (:id, :event_id, :user_id, :rating, :comments, :is_anonymous, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, fb); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("create feedback: %w", err)
	}
	return nil
}

// ListByEvent returns feedback for an event with author names, newest first.
func (r *FeedbackRepository) ListByEvent(ctx context.Context, eventID string) ([]models.FeedbackEntry, error) {
	const query = `SELECT f.id, f.event_id, f.user_id, f.rating, f.comments, f.is_anonymous, f.created_at, u.first_name, u.last_name
FROM feedback f JOIN users u ON u.id = f.user_id WHERE f.event_id = $1 ORDER BY f.created_at DESC`
	var entries []models.FeedbackEntry
	if err := r.db.SelectContext(ctx, &entries, query, eventID); err != nil {
		return nil, fmt.Errorf("list event feedback: %w", err)
	}
	return entries, nil
}
