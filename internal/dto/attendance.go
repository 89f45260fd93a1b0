package dto

// SelfCheckInRequest is submitted by an attendee checking themselves in.
// Latitude and Longitude are required when the event uses geofence attendance.
type SelfCheckInRequest struct {
	EventID   string   `json:"event_id" validate:"required"`
	UserID    string   `json:"-"`
	Status    string   `json:"status" validate:"omitempty,attendance_status"`
	Latitude  *float64 `json:"latitude" validate:"omitempty,latitude"`
	Longitude *float64 `json:"longitude" validate:"omitempty,longitude"`
}

// OrganizerMarkRequest records attendance on behalf of a user.
type OrganizerMarkRequest struct {
	EventID string `json:"event_id" validate:"required"`
	UserID  string `json:"user_id" validate:"required"`
	Status  string `json:"status" validate:"omitempty,attendance_status"`
}
