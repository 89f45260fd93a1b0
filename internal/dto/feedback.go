package dto

// SubmitFeedbackRequest rates an attended event.
type SubmitFeedbackRequest struct {
	EventID     string  `json:"event_id" validate:"required"`
	Rating      int     `json:"rating" validate:"required,min=1,max=5"`
	Comments    *string `json:"comments" validate:"omitempty,max=2000"`
	IsAnonymous bool    `json:"is_anonymous"`
}
