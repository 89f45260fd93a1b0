package models

import "time"

// RegistrationStatus tracks where a registration is in the approval flow.
type RegistrationStatus string

const (
	RegistrationPending    RegistrationStatus = "PENDING"
	RegistrationApproved   RegistrationStatus = "APPROVED"
	RegistrationRejected   RegistrationStatus = "REJECTED"
	RegistrationCancelled  RegistrationStatus = "CANCELLED"
	RegistrationWaitlisted RegistrationStatus = "WAITLISTED"
)

// Registration links a user to an event.
type Registration struct {
	ID           string             `db:"id" json:"id"`
	EventID      string             `db:"event_id" json:"event_id"`
	UserID       string             `db:"user_id" json:"user_id"`
	Status       RegistrationStatus `db:"status" json:"status"`
	RegisteredAt time.Time          `db:"registered_at" json:"registered_at"`
	UpdatedAt    time.Time          `db:"updated_at" json:"updated_at"`
}

// RegistrationWithEvent is a registration joined with its event summary.
type RegistrationWithEvent struct {
	Registration
	EventTitle string     `db:"event_title" json:"event_title"`
	EventStart time.Time  `db:"event_start" json:"event_start"`
	EventVenue string     `db:"event_venue" json:"event_venue"`
	EventState EventState `db:"event_state" json:"event_state"`
}

// Recipient is a user reachable by email for an event.
type Recipient struct {
	UserID    string `db:"user_id" json:"user_id"`
	Email     string `db:"email" json:"email"`
	FirstName string `db:"first_name" json:"first_name"`
	LastName  string `db:"last_name" json:"last_name"`
}
