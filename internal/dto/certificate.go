package dto

// IssueCertificateRequest issues one certificate.
type IssueCertificateRequest struct {
	EventID string `json:"event_id" validate:"required"`
	UserID  string `json:"user_id" validate:"required"`
}

// BulkIssueRequest issues certificates to every eligible attendee of an event.
type BulkIssueRequest struct {
	EventID string `json:"event_id" validate:"required"`
}
