package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/campus-events-api/internal/models"
	appErrors "github.com/noah-isme/campus-events-api/pkg/errors"
	"github.com/noah-isme/campus-events-api/pkg/export"
	"github.com/noah-isme/campus-events-api/pkg/storage"
)

const certificateContentType = "application/pdf"

type certificateDetailReader interface {
	GetDetail(ctx context.Context, id string) (*models.CertificateDetail, error)
}

type certificateRenderer interface {
	Render(doc export.CertificateDocument) ([]byte, error)
}

// DocumentStore archives rendered certificates and hands out time-limited links to them.
// storage.Local and storage.S3 both satisfy it.
type DocumentStore interface {
	Save(ctx context.Context, key string, data []byte, contentType string) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	URL(ctx context.Context, resourceID, key string) (string, time.Time, error)
}

// signedLinkResolver is implemented by stores that serve their own signed links.
type signedLinkResolver interface {
	Resolve(token string) (*storage.SignedToken, error)
}

// CertificateDocumentService renders certificate PDFs and manages their archived copies.
type CertificateDocumentService struct {
	certs      *CertificateService
	renderer   certificateRenderer
	store      DocumentStore
	issuerName string
	logger     *zap.Logger
}

// NewCertificateDocumentService constructs the document service. store may be nil, in which case
// downloads are rendered on demand and links are unavailable.
func NewCertificateDocumentService(certs *CertificateService, renderer certificateRenderer, store DocumentStore, issuerName string, logger *zap.Logger) *CertificateDocumentService {
	if renderer == nil {
		renderer = export.NewCertificateRenderer()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CertificateDocumentService{certs: certs, renderer: renderer, store: store, issuerName: issuerName, logger: logger}
}

// Download renders the certificate PDF. The holder, the event organizer and admins may download.
func (s *CertificateDocumentService) Download(ctx context.Context, id string, claims *models.JWTClaims) (*models.CertificateFile, error) {
	detail, file, err := s.render(ctx, id, claims)
	if err != nil {
		return nil, err
	}
	if s.store != nil {
		if err := s.store.Save(ctx, archiveKey(detail), file.Data, certificateContentType); err != nil {
			s.logger.Warn("failed to archive certificate", zap.String("certificate_id", detail.ID), zap.Error(err))
		}
	}
	return file, nil
}

// DownloadLink archives the certificate and returns a time-limited URL to it.
func (s *CertificateDocumentService) DownloadLink(ctx context.Context, id string, claims *models.JWTClaims) (*models.CertificateLink, error) {
	if s.store == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "certificate links are not enabled")
	}
	detail, file, err := s.render(ctx, id, claims)
	if err != nil {
		return nil, err
	}
	key := archiveKey(detail)
	if err := s.store.Save(ctx, key, file.Data, certificateContentType); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to archive certificate")
	}
	url, expiresAt, err := s.store.URL(ctx, detail.ID, key)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign certificate link")
	}
	return &models.CertificateLink{URL: url, ExpiresAt: expiresAt}, nil
}

// OpenSigned serves an archived certificate addressed by a signed link token.
func (s *CertificateDocumentService) OpenSigned(ctx context.Context, token string) (*models.CertificateFile, error) {
	resolver, ok := s.store.(signedLinkResolver)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "signed links are not served by this instance")
	}
	signed, err := resolver.Resolve(token)
	if err != nil {
		if errors.Is(err, storage.ErrTokenExpired) {
			return nil, appErrors.Wrap(err, appErrors.ErrForbidden.Code, appErrors.ErrForbidden.Status, "link has expired")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrForbidden.Code, appErrors.ErrForbidden.Status, "invalid link")
	}

	rc, err := s.store.Open(ctx, signed.Key)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "certificate file not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open certificate file")
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read certificate file")
	}
	return &models.CertificateFile{Filename: "certificate.pdf", ContentType: certificateContentType, Data: data}, nil
}

func (s *CertificateDocumentService) render(ctx context.Context, id string, claims *models.JWTClaims) (*models.CertificateDetail, *models.CertificateFile, error) {
	detail, err := s.certs.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if claims == nil {
		return nil, nil, appErrors.Clone(appErrors.ErrUnauthorized, "authentication required")
	}
	if claims.UserID != detail.UserID && !claims.CanManage(detail.OrganizerID) {
		return nil, nil, appErrors.Clone(appErrors.ErrForbidden, "not authorized to download this certificate")
	}
	if detail.Status == models.CertificateRevoked {
		return nil, nil, appErrors.Clone(appErrors.ErrCertificateRevoked, "certificate has been revoked")
	}

	data, err := s.renderer.Render(export.CertificateDocument{
		Number:           detail.CertificateNumber,
		RecipientName:    detail.RecipientName(),
		EventTitle:       detail.EventTitle,
		EventDate:        detail.EventStart,
		Location:         detail.EventVenue,
		OrganizerName:    detail.OrganizerName(),
		IssuerName:       s.issuerName,
		IssuedAt:         detail.IssuedAt,
		VerificationHash: detail.VerificationHash,
	})
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render certificate")
	}
	return detail, &models.CertificateFile{
		Filename:    fmt.Sprintf("certificate-%s.pdf", detail.CertificateNumber),
		ContentType: certificateContentType,
		Data:        data,
	}, nil
}

func archiveKey(detail *models.CertificateDetail) string {
	return fmt.Sprintf("certificates/%s/%s.pdf", detail.EventID, detail.CertificateNumber)
}
