package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-events-api/internal/dto"
	"github.com/noah-isme/campus-events-api/internal/models"
	"github.com/noah-isme/campus-events-api/pkg/response"
)

type certificateService interface {
	IssueSingle(ctx context.Context, req dto.IssueCertificateRequest, claims *models.JWTClaims) (*models.IssueResult, error)
	IssueBulk(ctx context.Context, req dto.BulkIssueRequest, claims *models.JWTClaims) (*models.BulkIssueResult, error)
	Verify(ctx context.Context, number string) (*models.CertificateVerification, error)
	Revoke(ctx context.Context, id string, claims *models.JWTClaims) (*models.CertificateDetail, error)
	ListMine(ctx context.Context, userID string) ([]models.CertificateDetail, error)
	ListForEvent(ctx context.Context, eventID string, claims *models.JWTClaims) ([]models.CertificateDetail, error)
}

type certificateDocuments interface {
	Download(ctx context.Context, id string, claims *models.JWTClaims) (*models.CertificateFile, error)
	DownloadLink(ctx context.Context, id string, claims *models.JWTClaims) (*models.CertificateLink, error)
	OpenSigned(ctx context.Context, token string) (*models.CertificateFile, error)
}

// CertificateHandler exposes certificate issuance, download and verification.
type CertificateHandler struct {
	service   certificateService
	documents certificateDocuments
}

// NewCertificateHandler constructs a CertificateHandler.
func NewCertificateHandler(svc certificateService, documents certificateDocuments) *CertificateHandler {
	return &CertificateHandler{service: svc, documents: documents}
}

// Issue godoc
// @Summary Issue one certificate
// @Description Idempotent: issuing again for the same attendee returns the existing certificate with 200.
// @Tags Certificates
// @Accept json
// @Produce json
// @Param payload body dto.IssueCertificateRequest true "Issue payload"
// @Success 200 {object} response.Envelope
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /certificates/issue [post]
func (h *CertificateHandler) Issue(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	var req dto.IssueCertificateRequest
	if !bindJSON(c, &req, "invalid certificate payload") {
		return
	}
	res, err := h.service.IssueSingle(c.Request.Context(), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	if !res.Created {
		response.WithMessage(c, http.StatusOK, res.Certificate, "Certificate already issued")
		return
	}
	response.WithMessage(c, http.StatusCreated, res.Certificate, "Certificate issued successfully")
}

// BulkIssue godoc
// @Summary Issue certificates to every eligible attendee
// @Tags Certificates
// @Accept json
// @Produce json
// @Param payload body dto.BulkIssueRequest true "Bulk payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /certificates/bulk-issue [post]
func (h *CertificateHandler) BulkIssue(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	var req dto.BulkIssueRequest
	if !bindJSON(c, &req, "invalid bulk payload") {
		return
	}
	res, err := h.service.IssueBulk(c.Request.Context(), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}

// Mine godoc
// @Summary My certificates
// @Tags Certificates
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /certificates/my-certificates [get]
func (h *CertificateHandler) Mine(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	certs, err := h.service.ListMine(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, certs, nil)
}

// ForEvent godoc
// @Summary Certificates issued for an event
// @Tags Certificates
// @Produce json
// @Param eventId path string true "Event ID"
// @Success 200 {object} response.Envelope
// @Router /certificates/event/{eventId} [get]
func (h *CertificateHandler) ForEvent(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	certs, err := h.service.ListForEvent(c.Request.Context(), c.Param("eventId"), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, certs, nil)
}

// Download godoc
// @Summary Download certificate PDF
// @Tags Certificates
// @Produce application/pdf
// @Param id path string true "Certificate ID"
// @Success 200 {file} file
// @Failure 410 {object} response.Envelope
// @Router /certificates/download/{id} [get]
func (h *CertificateHandler) Download(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	file, err := h.documents.Download(c.Request.Context(), c.Param("id"), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Data)
}

// Link godoc
// @Summary Time-limited download link
// @Tags Certificates
// @Produce json
// @Param id path string true "Certificate ID"
// @Success 200 {object} response.Envelope
// @Router /certificates/{id}/link [get]
func (h *CertificateHandler) Link(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	link, err := h.documents.DownloadLink(c.Request.Context(), c.Param("id"), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, link, nil)
}

// SignedFile godoc
// @Summary Fetch a certificate through a signed link
// @Tags Certificates
// @Produce application/pdf
// @Param token path string true "Signed token"
// @Success 200 {file} file
// @Failure 403 {object} response.Envelope
// @Router /certificates/files/{token} [get]
func (h *CertificateHandler) SignedFile(c *gin.Context) {
	file, err := h.documents.OpenSigned(c.Request.Context(), c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Data)
}

// Revoke godoc
// @Summary Revoke a certificate
// @Tags Certificates
// @Produce json
// @Param id path string true "Certificate ID"
// @Success 200 {object} response.Envelope
// @Router /certificates/{id}/revoke [patch]
func (h *CertificateHandler) Revoke(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	cert, err := h.service.Revoke(c.Request.Context(), c.Param("id"), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cert, nil)
}

// Verify godoc
// @Summary Verify a certificate number
// @Tags Certificates
// @Produce json
// @Param number path string true "Certificate number"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /certificates/verify/{number} [get]
func (h *CertificateHandler) Verify(c *gin.Context) {
	res, err := h.service.Verify(c.Request.Context(), c.Param("number"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}
