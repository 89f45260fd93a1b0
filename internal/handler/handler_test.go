package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-events-api/internal/dto"
	"github.com/noah-isme/campus-events-api/internal/middleware"
	"github.com/noah-isme/campus-events-api/internal/models"
	"github.com/noah-isme/campus-events-api/internal/service"
	appErrors "github.com/noah-isme/campus-events-api/pkg/errors"
)

func newJSONContext(method, path string, body interface{}) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	var payload []byte
	switch v := body.(type) {
	case nil:
	case string:
		payload = []byte(v)
	default:
		payload, _ = json.Marshal(v)
	}
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	return c, w
}

func withClaims(c *gin.Context, userID string, role models.UserRole) {
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: userID, Role: role})
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

type attendanceServiceMock struct {
	selfReq  dto.SelfCheckInRequest
	selfErr  error
	markErr  error
	export   *models.CertificateFile
}

func (m *attendanceServiceMock) RecordSelfCheckIn(_ context.Context, req dto.SelfCheckInRequest) (*models.Attendance, error) {
	m.selfReq = req
	if m.selfErr != nil {
		return nil, m.selfErr
	}
	return &models.Attendance{ID: "att-1", EventID: req.EventID, UserID: req.UserID, Status: models.AttendancePresent}, nil
}

func (m *attendanceServiceMock) RecordOrganizerMark(_ context.Context, req dto.OrganizerMarkRequest, _ *models.JWTClaims) (*models.Attendance, error) {
	if m.markErr != nil {
		return nil, m.markErr
	}
	return &models.Attendance{ID: "att-2", EventID: req.EventID, UserID: req.UserID}, nil
}

func (m *attendanceServiceMock) ListForEvent(context.Context, string, *models.JWTClaims) ([]models.AttendanceRecord, error) {
	return []models.AttendanceRecord{}, nil
}

func (m *attendanceServiceMock) ListMine(context.Context, string) ([]models.AttendanceWithEvent, error) {
	return nil, nil
}

func (m *attendanceServiceMock) ExportCSV(context.Context, string, *models.JWTClaims) (*models.CertificateFile, error) {
	return m.export, nil
}

func TestAttendanceMarkUsesCallerIdentity(t *testing.T) {
	svc := &attendanceServiceMock{}
	h := NewAttendanceHandler(svc)

	c, w := newJSONContext(http.MethodPost, "/attendance/mark", map[string]interface{}{
		"event_id": "evt-1", "user_id": "someone-else", "latitude": 40.0, "longitude": -74.0,
	})
	withClaims(c, "u1", models.RoleStudent)
	h.Mark(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "u1", svc.selfReq.UserID)
	require.NotNil(t, svc.selfReq.Latitude)
	assert.Equal(t, 40.0, *svc.selfReq.Latitude)
	assert.Equal(t, "Attendance marked successfully", decodeEnvelope(t, w)["message"])
}

func TestAttendanceMarkOutOfRange(t *testing.T) {
	svc := &attendanceServiceMock{selfErr: appErrors.Clone(appErrors.ErrOutOfRange, "You are too far from the event location. Distance: 1112m. Allowed: 100m.")}
	h := NewAttendanceHandler(svc)

	c, w := newJSONContext(http.MethodPost, "/attendance/mark", map[string]interface{}{"event_id": "evt-1", "latitude": 40.01, "longitude": -74.0})
	withClaims(c, "u1", models.RoleStudent)
	h.Mark(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
	errBody := decodeEnvelope(t, w)["error"].(map[string]interface{})
	assert.Equal(t, "OUT_OF_RANGE", errBody["code"])
	assert.Contains(t, errBody["message"], "Distance: 1112m")
}

func TestAttendanceMarkRejectsMalformedBody(t *testing.T) {
	h := NewAttendanceHandler(&attendanceServiceMock{})
	c, w := newJSONContext(http.MethodPost, "/attendance/mark", "{not json")
	withClaims(c, "u1", models.RoleStudent)
	h.Mark(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	c, w = newJSONContext(http.MethodPost, "/attendance/mark", map[string]string{"event_id": "evt-1"})
	h.Mark(c)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAttendanceExportStreamsCSV(t *testing.T) {
	h := NewAttendanceHandler(&attendanceServiceMock{export: &models.CertificateFile{Filename: "attendance-evt-1.csv", ContentType: "text/csv", Data: []byte("Name,Email\n")}})
	c, w := newJSONContext(http.MethodGet, "/attendance/events/evt-1/export", nil)
	c.Params = gin.Params{{Key: "eventId", Value: "evt-1"}}
	withClaims(c, "org-1", models.RoleOrganizer)
	h.Export(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attendance-evt-1.csv")
	assert.Equal(t, "Name,Email\n", w.Body.String())
}

type certificateServiceMock struct {
	issue  *models.IssueResult
	bulk   *models.BulkIssueResult
	verify *models.CertificateVerification
	err    error
}

func (m *certificateServiceMock) IssueSingle(context.Context, dto.IssueCertificateRequest, *models.JWTClaims) (*models.IssueResult, error) {
	return m.issue, m.err
}

func (m *certificateServiceMock) IssueBulk(context.Context, dto.BulkIssueRequest, *models.JWTClaims) (*models.BulkIssueResult, error) {
	return m.bulk, m.err
}

func (m *certificateServiceMock) Verify(context.Context, string) (*models.CertificateVerification, error) {
	return m.verify, m.err
}

func (m *certificateServiceMock) Revoke(context.Context, string, *models.JWTClaims) (*models.CertificateDetail, error) {
	return nil, m.err
}

func (m *certificateServiceMock) ListMine(context.Context, string) ([]models.CertificateDetail, error) {
	return nil, m.err
}

func (m *certificateServiceMock) ListForEvent(context.Context, string, *models.JWTClaims) ([]models.CertificateDetail, error) {
	return nil, m.err
}

type documentsMock struct {
	file *models.CertificateFile
	err  error
}

func (m *documentsMock) Download(context.Context, string, *models.JWTClaims) (*models.CertificateFile, error) {
	return m.file, m.err
}

func (m *documentsMock) DownloadLink(context.Context, string, *models.JWTClaims) (*models.CertificateLink, error) {
	return &models.CertificateLink{URL: "http://files/x"}, m.err
}

func (m *documentsMock) OpenSigned(context.Context, string) (*models.CertificateFile, error) {
	return m.file, m.err
}

func TestCertificateIssueStatusReflectsCreation(t *testing.T) {
	cert := &models.Certificate{ID: "cert-1", CertificateNumber: "ABCD1234"}
	for _, tc := range []struct {
		created bool
		status  int
	}{{true, http.StatusCreated}, {false, http.StatusOK}} {
		h := NewCertificateHandler(&certificateServiceMock{issue: &models.IssueResult{Certificate: cert, Created: tc.created}}, &documentsMock{})
		c, w := newJSONContext(http.MethodPost, "/certificates/issue", dto.IssueCertificateRequest{EventID: "evt-1", UserID: "u1"})
		withClaims(c, "org-1", models.RoleOrganizer)
		h.Issue(c)
		assert.Equal(t, tc.status, w.Code)
	}
}

func TestCertificateBulkIssueReportsCounts(t *testing.T) {
	res := &models.BulkIssueResult{Issued: 2, AlreadyIssued: 1, Failed: 1, Errors: []models.BulkIssueError{{UserID: "u4", Message: "boom"}}}
	h := NewCertificateHandler(&certificateServiceMock{bulk: res}, &documentsMock{})
	c, w := newJSONContext(http.MethodPost, "/certificates/bulk-issue", dto.BulkIssueRequest{EventID: "evt-1"})
	withClaims(c, "org-1", models.RoleOrganizer)
	h.BulkIssue(c)

	require.Equal(t, http.StatusOK, w.Code)
	data := decodeEnvelope(t, w)["data"].(map[string]interface{})
	assert.EqualValues(t, 2, data["issued"])
	assert.EqualValues(t, 1, data["already_issued"])
	assert.EqualValues(t, 1, data["failed"])
}

func TestCertificateDownloadRevoked(t *testing.T) {
	h := NewCertificateHandler(&certificateServiceMock{}, &documentsMock{err: appErrors.ErrCertificateRevoked})
	c, w := newJSONContext(http.MethodGet, "/certificates/download/cert-1", nil)
	c.Params = gin.Params{{Key: "id", Value: "cert-1"}}
	withClaims(c, "u1", models.RoleStudent)
	h.Download(c)
	assert.Equal(t, http.StatusGone, w.Code)
}

func TestCertificateVerifyIsPublic(t *testing.T) {
	h := NewCertificateHandler(&certificateServiceMock{verify: &models.CertificateVerification{Valid: true, CertificateNumber: "ABCD1234"}}, &documentsMock{})
	c, w := newJSONContext(http.MethodGet, "/certificates/verify/abcd1234", nil)
	c.Params = gin.Params{{Key: "number", Value: "abcd1234"}}
	h.Verify(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decodeEnvelope(t, w)["data"].(map[string]interface{})["valid"])
}

type registrationServiceMock struct {
	out *service.RegistrationOutcome
	err error
}

func (m *registrationServiceMock) Register(context.Context, dto.CreateRegistrationRequest, string) (*service.RegistrationOutcome, error) {
	return m.out, m.err
}

func (m *registrationServiceMock) ListMine(context.Context, string) ([]models.RegistrationWithEvent, error) {
	return nil, m.err
}

func (m *registrationServiceMock) Cancel(context.Context, string, string) (*models.Registration, error) {
	return nil, m.err
}

func (m *registrationServiceMock) UpdateStatus(context.Context, string, dto.UpdateRegistrationStatusRequest, *models.JWTClaims) (*models.Registration, error) {
	return nil, m.err
}

func TestRegistrationRegisterStatus(t *testing.T) {
	reg := &models.Registration{ID: "r1", Status: models.RegistrationPending}

	h := NewRegistrationHandler(&registrationServiceMock{out: &service.RegistrationOutcome{Registration: reg}})
	c, w := newJSONContext(http.MethodPost, "/registrations", dto.CreateRegistrationRequest{EventID: "evt-1"})
	withClaims(c, "u1", models.RoleStudent)
	h.Register(c)
	assert.Equal(t, http.StatusCreated, w.Code)

	h = NewRegistrationHandler(&registrationServiceMock{out: &service.RegistrationOutcome{Registration: reg, Reactivated: true}})
	c, w = newJSONContext(http.MethodPost, "/registrations", dto.CreateRegistrationRequest{EventID: "evt-1"})
	withClaims(c, "u1", models.RoleStudent)
	h.Register(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Registration reactivated", decodeEnvelope(t, w)["message"])

	h = NewRegistrationHandler(&registrationServiceMock{err: appErrors.ErrEventFull})
	c, w = newJSONContext(http.MethodPost, "/registrations", dto.CreateRegistrationRequest{EventID: "evt-1"})
	withClaims(c, "u1", models.RoleStudent)
	h.Register(c)
	assert.Equal(t, appErrors.ErrEventFull.Status, w.Code)
}

type analyticsServiceMock struct {
	hit bool
}

func (m *analyticsServiceMock) Organizer(context.Context, *models.JWTClaims) (*models.OrganizerStats, bool, error) {
	return &models.OrganizerStats{TotalEvents: 2}, m.hit, nil
}

func (m *analyticsServiceMock) Event(context.Context, string, *models.JWTClaims) (*models.EventStats, bool, error) {
	return nil, false, appErrors.ErrForbidden
}

func (m *analyticsServiceMock) Admin(context.Context, *models.JWTClaims) (*models.AdminStats, bool, error) {
	return &models.AdminStats{}, m.hit, nil
}

func (m *analyticsServiceMock) SystemMetrics(*models.JWTClaims) (models.AnalyticsSystemMetrics, error) {
	return models.AnalyticsSystemMetrics{Goroutines: 4}, nil
}

func TestAnalyticsReportsCacheHit(t *testing.T) {
	h := NewAnalyticsHandler(&analyticsServiceMock{hit: true})
	c, w := newJSONContext(http.MethodGet, "/analytics/organizer", nil)
	withClaims(c, "org-1", models.RoleOrganizer)
	h.Organizer(c)

	require.Equal(t, http.StatusOK, w.Code)
	meta := decodeEnvelope(t, w)["meta"].(map[string]interface{})
	assert.Equal(t, true, meta["cache_hit"])

	c, w = newJSONContext(http.MethodGet, "/analytics/events/evt-1", nil)
	withClaims(c, "org-2", models.RoleOrganizer)
	h.Event(c)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestReadyReportsFailingDependency(t *testing.T) {
	h := NewMetricsHandler(service.NewMetricsService(), map[string]Pinger{
		"postgres": PingFunc(func(context.Context) error { return nil }),
		"redis":    PingFunc(func(context.Context) error { return errors.New("connection refused") }),
	})
	c, w := newJSONContext(http.MethodGet, "/ready", nil)
	h.Ready(c)
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	checks := decodeEnvelope(t, w)["checks"].(map[string]interface{})
	assert.Equal(t, "ok", checks["postgres"])
	assert.Equal(t, "connection refused", checks["redis"])

	h = NewMetricsHandler(nil, nil)
	c, w = newJSONContext(http.MethodGet, "/ready", nil)
	h.Ready(c)
	assert.Equal(t, http.StatusOK, w.Code)
}
