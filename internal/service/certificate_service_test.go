package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-events-api/internal/dto"
	"github.com/noah-isme/campus-events-api/internal/models"
	appErrors "github.com/noah-isme/campus-events-api/pkg/errors"
)

type certificateFixture struct {
	events     *fakeEventRepo
	attendance *fakeAttendanceRepo
	users      *fakeUserRepo
	certs      *fakeCertificateRepo
	notifier   *fakeNotifier
	svc        *CertificateService
}

func newCertificateFixture() *certificateFixture {
	f := &certificateFixture{
		events:     newFakeEventRepo(&models.Event{ID: "evt-1", Title: "Go Workshop", OrganizerID: "org-1"}),
		attendance: newFakeAttendanceRepo(),
		users: &fakeUserRepo{users: map[string]*models.User{
			"u1": {ID: "u1", Email: "u1@example.com", FirstName: "Ada", LastName: "Lovelace"},
			"u2": {ID: "u2", Email: "u2@example.com", FirstName: "Alan", LastName: "Turing"},
		}},
		certs:    newFakeCertificateRepo(),
		notifier: &fakeNotifier{},
	}
	f.svc = NewCertificateService(f.events, f.attendance, f.users, f.certs, f.notifier, nil, NewMetricsService(), zap.NewNop())
	f.svc.now = func() time.Time { return time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC) }
	return f
}

func (f *certificateFixture) attend(userID string, status models.AttendanceStatus) {
	f.attendance.rows[attendanceKey("evt-1", userID)] = &models.Attendance{EventID: "evt-1", UserID: userID, Status: status}
}

func TestVerificationHash(t *testing.T) {
	sum := sha256.Sum256([]byte("ABCD1234" + "user-1" + "event-1"))
	assert.Equal(t, hex.EncodeToString(sum[:]), VerificationHash("ABCD1234", "user-1", "event-1"))
	assert.Len(t, VerificationHash("A", "B", "C"), 64)
}

func TestNewCertificateNumber(t *testing.T) {
	number := NewCertificateNumber()
	assert.Regexp(t, regexp.MustCompile(`^[0-9A-F]{8}$`), number)
}

func TestIssueSingleCreatesCertificate(t *testing.T) {
	f := newCertificateFixture()
	f.attend("u1", models.AttendancePresent)

	res, err := f.svc.IssueSingle(context.Background(), dto.IssueCertificateRequest{EventID: "evt-1", UserID: "u1"}, claimsFor("org-1", models.RoleOrganizer))
	require.NoError(t, err)
	require.True(t, res.Created)

	cert := res.Certificate
	assert.Len(t, cert.CertificateNumber, 8)
	assert.Equal(t, VerificationHash(cert.CertificateNumber, "u1", "evt-1"), cert.VerificationHash)
	assert.Equal(t, "Certificate of Participation - Go Workshop", cert.Title)
	assert.Equal(t, models.CertificateIssued, cert.Status)
	assert.Equal(t, time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC), cert.IssuedAt)

	require.Equal(t, 1, f.notifier.count())
	assert.Equal(t, "u1@example.com", f.notifier.calls[0].To)
	assert.Equal(t, cert.CertificateNumber, f.notifier.calls[0].Detail)
}

func TestIssueSingleIsIdempotent(t *testing.T) {
	f := newCertificateFixture()
	f.attend("u1", models.AttendanceLate)
	claims := claimsFor("admin", models.RoleAdmin)
	req := dto.IssueCertificateRequest{EventID: "evt-1", UserID: "u1"}

	first, err := f.svc.IssueSingle(context.Background(), req, claims)
	require.NoError(t, err)
	second, err := f.svc.IssueSingle(context.Background(), req, claims)
	require.NoError(t, err)

	assert.False(t, second.Created)
	assert.Equal(t, first.Certificate.CertificateNumber, second.Certificate.CertificateNumber)
	assert.Equal(t, first.Certificate.VerificationHash, second.Certificate.VerificationHash)
	assert.Equal(t, 1, f.certs.creates)
	assert.Equal(t, 1, f.notifier.count())
}

func TestIssueSingleLosingRaceReturnsWinner(t *testing.T) {
	f := newCertificateFixture()
	f.attend("u1", models.AttendancePresent)
	f.certs.race["u1"] = true

	res, err := f.svc.IssueSingle(context.Background(), dto.IssueCertificateRequest{EventID: "evt-1", UserID: "u1"}, claimsFor("org-1", models.RoleOrganizer))
	require.NoError(t, err)
	assert.False(t, res.Created)
	assert.Equal(t, "WINNER01", res.Certificate.CertificateNumber)
	assert.Zero(t, f.notifier.count())
}

func TestIssueSingleRequiresEligibleAttendance(t *testing.T) {
	for _, status := range []models.AttendanceStatus{models.AttendanceAbsent, models.AttendanceExcused} {
		f := newCertificateFixture()
		f.attend("u1", status)

		_, err := f.svc.IssueSingle(context.Background(), dto.IssueCertificateRequest{EventID: "evt-1", UserID: "u1"}, claimsFor("org-1", models.RoleOrganizer))
		require.Error(t, err, status)
		assert.Equal(t, "NOT_ELIGIBLE", appErrors.FromError(err).Code)
		assert.Zero(t, f.certs.creates)
	}

	f := newCertificateFixture()
	_, err := f.svc.IssueSingle(context.Background(), dto.IssueCertificateRequest{EventID: "evt-1", UserID: "u1"}, claimsFor("org-1", models.RoleOrganizer))
	assert.Equal(t, "NOT_ELIGIBLE", appErrors.FromError(err).Code)
}

func TestIssueSingleAuthorization(t *testing.T) {
	f := newCertificateFixture()
	f.attend("u1", models.AttendancePresent)
	req := dto.IssueCertificateRequest{EventID: "evt-1", UserID: "u1"}

	_, err := f.svc.IssueSingle(context.Background(), req, claimsFor("org-2", models.RoleOrganizer))
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	_, err = f.svc.IssueSingle(context.Background(), req, claimsFor("org-1", models.RoleStudent))
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	_, err = f.svc.IssueSingle(context.Background(), dto.IssueCertificateRequest{EventID: "missing", UserID: "u1"}, claimsFor("admin", models.RoleAdmin))
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
	assert.Zero(t, f.certs.creates)
}

func TestIssueSingleUnknownUser(t *testing.T) {
	f := newCertificateFixture()
	f.attend("ghost", models.AttendancePresent)

	_, err := f.svc.IssueSingle(context.Background(), dto.IssueCertificateRequest{EventID: "evt-1", UserID: "ghost"}, claimsFor("org-1", models.RoleOrganizer))
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestIssueBulkCountsOutcomes(t *testing.T) {
	f := newCertificateFixture()
	f.attendance.eligible = []models.EligibleAttendee{
		{UserID: "u1", Email: "u1@example.com", FirstName: "Ada", Status: models.AttendancePresent},
		{UserID: "u2", Email: "u2@example.com", FirstName: "Alan", Status: models.AttendanceLate},
		{UserID: "u3", Email: "u3@example.com", FirstName: "Grace", Status: models.AttendancePresent},
		{UserID: "u4", Email: "u4@example.com", FirstName: "Edsger", Status: models.AttendancePresent},
	}
	f.certs.certs[attendanceKey("evt-1", "u2")] = &models.Certificate{ID: "existing", EventID: "evt-1", UserID: "u2"}
	f.certs.createErr["u3"] = errors.New("disk full")

	res, err := f.svc.IssueBulk(context.Background(), dto.BulkIssueRequest{EventID: "evt-1"}, claimsFor("org-1", models.RoleOrganizer))
	require.NoError(t, err)
	assert.Equal(t, 2, res.Issued)
	assert.Equal(t, 1, res.AlreadyIssued)
	assert.Equal(t, 1, res.Failed)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, "u3", res.Errors[0].UserID)
	assert.Contains(t, res.Errors[0].Message, "disk full")
	assert.Equal(t, len(f.attendance.eligible), res.Issued+res.AlreadyIssued+res.Failed)
	assert.Equal(t, 2, f.notifier.count())

	again, err := f.svc.IssueBulk(context.Background(), dto.BulkIssueRequest{EventID: "evt-1"}, claimsFor("org-1", models.RoleOrganizer))
	require.NoError(t, err)
	assert.Equal(t, 0, again.Issued)
	assert.Equal(t, 3, again.AlreadyIssued)
	assert.Equal(t, 2, f.notifier.count())
}

func TestIssueBulkAuthorization(t *testing.T) {
	f := newCertificateFixture()
	f.attendance.eligible = []models.EligibleAttendee{
		{UserID: "u1", Email: "u1@example.com", FirstName: "Ada", Status: models.AttendancePresent},
	}
	req := dto.BulkIssueRequest{EventID: "evt-1"}

	_, err := f.svc.IssueBulk(context.Background(), req, claimsFor("org-2", models.RoleOrganizer))
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	_, err = f.svc.IssueBulk(context.Background(), req, claimsFor("u1", models.RoleStudent))
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
	assert.Zero(t, f.certs.creates)

	res, err := f.svc.IssueBulk(context.Background(), req, claimsFor("admin", models.RoleAdmin))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Issued)
	assert.Equal(t, 1, f.certs.creates)
}

func TestIssuanceInvalidatesAnalytics(t *testing.T) {
	f := newCertificateFixture()
	cacheRepo := newMemoryCache()
	f.svc.UseCache(NewCacheService(cacheRepo, nil, time.Minute, zap.NewNop(), true))
	f.attend("u1", models.AttendancePresent)
	f.attendance.eligible = []models.EligibleAttendee{
		{UserID: "u1", Email: "u1@example.com", FirstName: "Ada", Status: models.AttendancePresent},
		{UserID: "u2", Email: "u2@example.com", FirstName: "Alan", Status: models.AttendancePresent},
	}
	claims := claimsFor("org-1", models.RoleOrganizer)

	_, err := f.svc.IssueSingle(context.Background(), dto.IssueCertificateRequest{EventID: "evt-1", UserID: "u1"}, claims)
	require.NoError(t, err)
	assert.Len(t, cacheRepo.invalidated, 1)

	_, err = f.svc.IssueSingle(context.Background(), dto.IssueCertificateRequest{EventID: "evt-1", UserID: "u1"}, claims)
	require.NoError(t, err)
	assert.Len(t, cacheRepo.invalidated, 1)

	res, err := f.svc.IssueBulk(context.Background(), dto.BulkIssueRequest{EventID: "evt-1"}, claims)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Issued)
	assert.Len(t, cacheRepo.invalidated, 2)

	_, err = f.svc.IssueBulk(context.Background(), dto.BulkIssueRequest{EventID: "evt-1"}, claims)
	require.NoError(t, err)
	assert.Len(t, cacheRepo.invalidated, 2)
}

func TestIssueBulkWithoutEligibleAttendees(t *testing.T) {
	f := newCertificateFixture()

	_, err := f.svc.IssueBulk(context.Background(), dto.BulkIssueRequest{EventID: "evt-1"}, claimsFor("org-1", models.RoleOrganizer))
	require.Error(t, err)
	assert.Equal(t, "NO_ELIGIBLE_ATTENDEES", appErrors.FromError(err).Code)
}

func TestIssueBulkStoreFailure(t *testing.T) {
	f := newCertificateFixture()
	f.attendance.eligibleErr = errors.New("timeout")

	_, err := f.svc.IssueBulk(context.Background(), dto.BulkIssueRequest{EventID: "evt-1"}, claimsFor("org-1", models.RoleOrganizer))
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
}

func seedDetail(f *certificateFixture, status models.CertificateStatus) *models.CertificateDetail {
	d := &models.CertificateDetail{
		Certificate: models.Certificate{
			ID: "cert-1", EventID: "evt-1", UserID: "u1", CertificateNumber: "ABCD1234",
			VerificationHash: VerificationHash("ABCD1234", "u1", "evt-1"), Status: status,
			IssuedAt: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
		},
		RecipientFirstName: "Ada", RecipientLastName: "Lovelace",
		EventTitle: "Go Workshop", EventVenue: "Hall A", OrganizerID: "org-1", OrganizerFirstName: "Grace",
	}
	f.certs.details[d.ID] = d
	return d
}

func TestVerifyCertificate(t *testing.T) {
	f := newCertificateFixture()
	seedDetail(f, models.CertificateIssued)

	res, err := f.svc.Verify(context.Background(), "abcd1234")
	require.NoError(t, err)
	assert.True(t, res.Valid)
	assert.Equal(t, "Ada Lovelace", res.RecipientName)
	assert.Equal(t, "Go Workshop", res.EventTitle)

	f.certs.details["cert-1"].VerificationHash = "tampered"
	res, err = f.svc.Verify(context.Background(), "ABCD1234")
	require.NoError(t, err)
	assert.False(t, res.Valid)

	_, err = f.svc.Verify(context.Background(), "FFFFFFFF")
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestRevokeCertificate(t *testing.T) {
	f := newCertificateFixture()
	seedDetail(f, models.CertificateIssued)

	_, err := f.svc.Revoke(context.Background(), "cert-1", claimsFor("org-2", models.RoleOrganizer))
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	detail, err := f.svc.Revoke(context.Background(), "cert-1", claimsFor("org-1", models.RoleOrganizer))
	require.NoError(t, err)
	assert.Equal(t, models.CertificateRevoked, detail.Status)
	require.NotNil(t, detail.RevokedAt)

	_, err = f.svc.Revoke(context.Background(), "cert-1", claimsFor("admin", models.RoleAdmin))
	require.NoError(t, err)
	assert.Len(t, f.certs.revoked, 1)

	res, err := f.svc.Verify(context.Background(), "ABCD1234")
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.Equal(t, models.CertificateRevoked, res.Status)
}

func TestListCertificates(t *testing.T) {
	f := newCertificateFixture()
	seedDetail(f, models.CertificateIssued)

	mine, err := f.svc.ListMine(context.Background(), "u1")
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	forEvent, err := f.svc.ListForEvent(context.Background(), "evt-1", claimsFor("org-1", models.RoleOrganizer))
	require.NoError(t, err)
	assert.Len(t, forEvent, 1)

	_, err = f.svc.ListForEvent(context.Background(), "evt-1", claimsFor("u1", models.RoleStudent))
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}
