package dto

import "time"

// CreateEventRequest is the payload for publishing a new event.
type CreateEventRequest struct {
	Title            string    `json:"title" validate:"required,max=200"`
	Description      string    `json:"description"`
	EventType        string    `json:"event_type" validate:"required,event_type"`
	Category         string    `json:"category" validate:"required,event_category"`
	StartDateTime    time.Time `json:"start_date_time" validate:"required"`
	EndDateTime      time.Time `json:"end_date_time" validate:"required,gtfield=StartDateTime"`
	Venue            string    `json:"venue"`
	IsOnline         bool      `json:"is_online"`
	MaxParticipants  *int      `json:"max_participants" validate:"omitempty,gt=0"`
	AttendanceMethod string    `json:"attendance_method" validate:"omitempty,attendance_method"`
	Latitude         *float64  `json:"latitude" validate:"omitempty,latitude"`
	Longitude        *float64  `json:"longitude" validate:"omitempty,longitude"`
	GeofenceRadius   *float64  `json:"geofence_radius" validate:"omitempty,gt=0"`
}

// UpdateEventStateRequest moves an event through its lifecycle.
type UpdateEventStateRequest struct {
	State string `json:"state" validate:"required,oneof=DRAFT PUBLISHED LIVE COMPLETED CANCELLED"`
}
