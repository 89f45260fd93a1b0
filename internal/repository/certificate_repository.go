package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/campus-events-api/internal/models"
)

const certificateColumns = `id, event_id, user_id, certificate_number, verification_hash, title, status, issued_at, revoked_at, created_at`

const certificateDetailSelect = `SELECT c.id, c.event_id, c.user_id, c.certificate_number, c.verification_hash, c.title, c.status, c.issued_at, c.revoked_at, c.created_at,
u.first_name AS recipient_first_name, u.last_name AS recipient_last_name, u.email AS recipient_email,
e.title AS event_title, e.start_date_time AS event_start, e.venue AS event_venue, e.organizer_id,
COALESCE(o.first_name, '') AS organizer_first_name, COALESCE(o.last_name, '') AS organizer_last_name
FROM certificates c
JOIN users u ON u.id = c.user_id
JOIN events e ON e.id = c.event_id
LEFT JOIN users o ON o.id = e.organizer_id`

// CertificateRepository persists certificates. At most one exists per event and user.
type CertificateRepository struct {
	db *sqlx.DB
}

// NewCertificateRepository constructs a CertificateRepository.
func NewCertificateRepository(db *sqlx.DB) *CertificateRepository {
	return &CertificateRepository{db: db}
}

// GetByEventAndUser returns the certificate of userID for eventID.
func (r *CertificateRepository) GetByEventAndUser(ctx context.Context, eventID, userID string) (*models.Certificate, error) {
	query := `SELECT ` + certificateColumns + ` FROM certificates WHERE event_id = $1 AND user_id = $2`
	var cert models.Certificate
	if err := r.db.GetContext(ctx, &cert, query, eventID, userID); err != nil {
		if isNotFound(err) {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("get certificate by event and user: %w", err)
	}
	return &cert, nil
}

// CreateIfAbsent inserts cert unless a certificate already exists for the same event and user.
// created is false when another writer got there first; cert is left untouched in that case.
func (r *CertificateRepository) CreateIfAbsent(ctx context.Context, cert *models.Certificate) (bool, error) {
	if cert.ID == "" {
		cert.ID = uuid.NewString()
	}
	if cert.IssuedAt.IsZero() {
		cert.IssuedAt = time.Now().UTC()
	}
	query := `INSERT INTO certificates (id, event_id, user_id, certificate_number, verification_hash, title, status, issued_at, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
ON CONFLICT (event_id, user_id) DO NOTHING
RETURNING ` + certificateColumns
	var stored models.Certificate
	err := r.db.GetContext(ctx, &stored, query,
		cert.ID, cert.EventID, cert.UserID, cert.CertificateNumber, cert.VerificationHash, cert.Title, cert.Status, cert.IssuedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("create certificate: %w", err)
	}
	*cert = stored
	return true, nil
}

// GetDetail returns a certificate joined with its recipient, event and organizer.
func (r *CertificateRepository) GetDetail(ctx context.Context, id string) (*models.CertificateDetail, error) {
	return r.getDetail(ctx, `c.id = $1`, id)
}

// GetDetailByNumber looks a certificate up by its public number.
func (r *CertificateRepository) GetDetailByNumber(ctx context.Context, number string) (*models.CertificateDetail, error) {
	return r.getDetail(ctx, `c.certificate_number = $1`, number)
}

func (r *CertificateRepository) getDetail(ctx context.Context, where string, arg string) (*models.CertificateDetail, error) {
	var detail models.CertificateDetail
	if err := r.db.GetContext(ctx, &detail, certificateDetailSelect+` WHERE `+where, arg); err != nil {
		if isNotFound(err) {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("get certificate detail: %w", err)
	}
	return &detail, nil
}

// ListByUser returns a user's certificates, newest first.
func (r *CertificateRepository) ListByUser(ctx context.Context, userID string) ([]models.CertificateDetail, error) {
	var details []models.CertificateDetail
	if err := r.db.SelectContext(ctx, &details, certificateDetailSelect+` WHERE c.user_id = $1 ORDER BY c.issued_at DESC`, userID); err != nil {
		return nil, fmt.Errorf("list user certificates: %w", err)
	}
	return details, nil
}

// ListByEvent returns every certificate issued for an event.
func (r *CertificateRepository) ListByEvent(ctx context.Context, eventID string) ([]models.CertificateDetail, error) {
	var details []models.CertificateDetail
	if err := r.db.SelectContext(ctx, &details, certificateDetailSelect+` WHERE c.event_id = $1 ORDER BY c.issued_at ASC`, eventID); err != nil {
		return nil, fmt.Errorf("list event certificates: %w", err)
	}
	return details, nil
}

// Revoke marks a certificate as revoked.
func (r *CertificateRepository) Revoke(ctx context.Context, id string, revokedAt time.Time) error {
	const query = `UPDATE certificates SET status = 'REVOKED', revoked_at = $2 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, revokedAt)
	if err != nil {
		if isNotFound(err) {
			return sql.ErrNoRows
		}
		return fmt.Errorf("revoke certificate: %w", err)
	}
	return requireAffected(res)
}
