package dto

// CreateAnnouncementRequest posts an update to an event.
type CreateAnnouncementRequest struct {
	EventID          string `json:"event_id" validate:"required"`
	Title            string `json:"title" validate:"required,max=200"`
	Content          string `json:"content" validate:"required"`
	Priority         string `json:"priority" validate:"omitempty,announcement_priority"`
	SendToRegistered bool   `json:"send_to_registered"`
}
