package dto

// CreateRegistrationRequest registers the caller for an event.
type CreateRegistrationRequest struct {
	EventID string `json:"event_id" validate:"required"`
}

// UpdateRegistrationStatusRequest is used by organizers to approve or reject.
type UpdateRegistrationStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=APPROVED REJECTED WAITLISTED"`
}
