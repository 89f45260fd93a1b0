package models

import "time"

// CertificateStatus tracks whether a certificate is still valid.
type CertificateStatus string

const (
	CertificateIssued  CertificateStatus = "ISSUED"
	CertificateRevoked CertificateStatus = "REVOKED"
)

// Certificate is a participation certificate. At most one exists per event and user.
type Certificate struct {
	ID                string            `db:"id" json:"id"`
	EventID           string            `db:"event_id" json:"event_id"`
	UserID            string            `db:"user_id" json:"user_id"`
	CertificateNumber string            `db:"certificate_number" json:"certificate_number"`
	VerificationHash  string            `db:"verification_hash" json:"verification_hash"`
	Title             string            `db:"title" json:"title"`
	Status            CertificateStatus `db:"status" json:"status"`
	IssuedAt          time.Time         `db:"issued_at" json:"issued_at"`
	RevokedAt         *time.Time        `db:"revoked_at" json:"revoked_at,omitempty"`
	CreatedAt         time.Time         `db:"created_at" json:"created_at"`
}

// CertificateDetail joins a certificate with recipient, event and organizer data.
type CertificateDetail struct {
	Certificate
	RecipientFirstName string    `db:"recipient_first_name" json:"recipient_first_name"`
	RecipientLastName  string    `db:"recipient_last_name" json:"recipient_last_name"`
	RecipientEmail     string    `db:"recipient_email" json:"recipient_email"`
	EventTitle         string    `db:"event_title" json:"event_title"`
	EventStart         time.Time `db:"event_start" json:"event_start"`
	EventVenue         string    `db:"event_venue" json:"event_venue"`
	OrganizerID        string    `db:"organizer_id" json:"organizer_id"`
	OrganizerFirstName string    `db:"organizer_first_name" json:"-"`
	OrganizerLastName  string    `db:"organizer_last_name" json:"-"`
}

// RecipientName returns the display name of the certificate holder.
func (d CertificateDetail) RecipientName() string {
	return JoinName(d.RecipientFirstName, d.RecipientLastName)
}

// OrganizerName returns the display name of the event organizer.
func (d CertificateDetail) OrganizerName() string {
	return JoinName(d.OrganizerFirstName, d.OrganizerLastName)
}

// IssueResult reports the certificate and whether this call created it.
type IssueResult struct {
	Certificate *Certificate `json:"certificate"`
	Created     bool         `json:"created"`
}

// BulkIssueError describes one failed issuance inside a batch.
type BulkIssueError struct {
	UserID  string `json:"user_id"`
	Message string `json:"message"`
}

// BulkIssueResult aggregates the outcome of a bulk issuance.
type BulkIssueResult struct {
	Issued        int              `json:"issued"`
	AlreadyIssued int              `json:"already_issued"`
	Failed        int              `json:"failed"`
	Errors        []BulkIssueError `json:"errors"`
}

// CertificateVerification is the public answer to a verification lookup.
type CertificateVerification struct {
	Valid             bool              `json:"valid"`
	Status            CertificateStatus `json:"status"`
	CertificateNumber string            `json:"certificate_number"`
	EventTitle        string            `json:"event_title"`
	RecipientName     string            `json:"recipient_name"`
	IssuedAt          time.Time         `json:"issued_at"`
}

// CertificateFile is a rendered certificate ready for download.
type CertificateFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// CertificateLink is a time-limited download URL.
type CertificateLink struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}
