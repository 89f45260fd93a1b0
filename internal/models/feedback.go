package models

import "time"

// AnonymousAuthor replaces the author name of anonymous feedback.
const AnonymousAuthor = "Anonymous"

// Feedback is a rating left by an attendee.
type Feedback struct {
	ID          string    `db:"id" json:"id"`
	EventID     string    `db:"event_id" json:"event_id"`
	UserID      string    `db:"user_id" json:"-"`
	Rating      int       `db:"rating" json:"rating"`
	Comments    *string   `db:"comments" json:"comments,omitempty"`
	IsAnonymous bool      `db:"is_anonymous" json:"is_anonymous"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// FeedbackEntry is feedback joined with its author.
type FeedbackEntry struct {
	Feedback
	FirstName  string `db:"first_name" json:"-"`
	LastName   string `db:"last_name" json:"-"`
	AuthorName string `db:"-" json:"author_name"`
}

// FeedbackSummary lists the feedback of an event with aggregate rating.
type FeedbackSummary struct {
	Items         []FeedbackEntry `json:"items"`
	AverageRating float64         `json:"average_rating"`
	TotalCount    int             `json:"total_count"`
}
