package service

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/noah-isme/campus-events-api/internal/models"
)

func ptrFloat(v float64) *float64 { return &v }

func ptrInt(v int) *int { return &v }

func claimsFor(userID string, role models.UserRole) *models.JWTClaims {
	return &models.JWTClaims{UserID: userID, Role: role}
}

type fakeEventRepo struct {
	events  map[string]*models.Event
	err     error
	deleted []string
}

func newFakeEventRepo(events ...*models.Event) *fakeEventRepo {
	repo := &fakeEventRepo{events: map[string]*models.Event{}}
	for _, e := range events {
		repo.events[e.ID] = e
	}
	return repo
}

func (f *fakeEventRepo) GetByID(_ context.Context, id string) (*models.Event, error) {
	if f.err != nil {
		return nil, f.err
	}
	e, ok := f.events[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *e
	return &clone, nil
}

func (f *fakeEventRepo) ListPublic(_ context.Context, states []models.EventState) ([]models.Event, error) {
	var out []models.Event
	for _, e := range f.events {
		for _, st := range states {
			if e.State == st {
				out = append(out, *e)
			}
		}
	}
	return out, f.err
}

func (f *fakeEventRepo) ListByOrganizer(_ context.Context, organizerID string) ([]models.Event, error) {
	var out []models.Event
	for _, e := range f.events {
		if e.OrganizerID == organizerID {
			out = append(out, *e)
		}
	}
	return out, f.err
}

func (f *fakeEventRepo) Create(_ context.Context, event *models.Event) error {
	if f.err != nil {
		return f.err
	}
	event.ID = "evt-new"
	f.events[event.ID] = event
	return nil
}

func (f *fakeEventRepo) UpdateState(_ context.Context, id string, state models.EventState) error {
	e, ok := f.events[id]
	if !ok {
		return sql.ErrNoRows
	}
	e.State = state
	return nil
}

func (f *fakeEventRepo) Delete(_ context.Context, id string) error {
	if _, ok := f.events[id]; !ok {
		return sql.ErrNoRows
	}
	delete(f.events, id)
	f.deleted = append(f.deleted, id)
	return nil
}

// fakeAttendanceRepo mirrors the upsert semantics of the SQL repository.
type fakeAttendanceRepo struct {
	rows        map[string]*models.Attendance
	upsertErr   error
	eligible    []models.EligibleAttendee
	eligibleErr error
	upserts     int
}

func newFakeAttendanceRepo() *fakeAttendanceRepo {
	return &fakeAttendanceRepo{rows: map[string]*models.Attendance{}}
}

func attendanceKey(eventID, userID string) string { return eventID + "/" + userID }

func (f *fakeAttendanceRepo) Upsert(_ context.Context, a *models.Attendance, overrideMethod bool) (*models.Attendance, error) {
	if f.upsertErr != nil {
		return nil, f.upsertErr
	}
	f.upserts++
	key := attendanceKey(a.EventID, a.UserID)
	if existing, ok := f.rows[key]; ok {
		existing.Status = a.Status
		existing.CheckInTime = a.CheckInTime
		existing.Latitude = a.Latitude
		existing.Longitude = a.Longitude
		if overrideMethod {
			existing.CheckInMethod = a.CheckInMethod
		}
		clone := *existing
		return &clone, nil
	}
	stored := *a
	stored.ID = "att-" + a.UserID
	f.rows[key] = &stored
	clone := stored
	return &clone, nil
}

func (f *fakeAttendanceRepo) GetByEventAndUser(_ context.Context, eventID, userID string) (*models.Attendance, error) {
	a, ok := f.rows[attendanceKey(eventID, userID)]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *a
	return &clone, nil
}

func (f *fakeAttendanceRepo) ListByEvent(_ context.Context, eventID string) ([]models.AttendanceRecord, error) {
	var out []models.AttendanceRecord
	for _, a := range f.rows {
		if a.EventID == eventID {
			out = append(out, models.AttendanceRecord{Attendance: *a, FirstName: "First " + a.UserID, LastName: "Last", Email: a.UserID + "@example.com"})
		}
	}
	return out, nil
}

func (f *fakeAttendanceRepo) ListByUser(_ context.Context, userID string) ([]models.AttendanceWithEvent, error) {
	var out []models.AttendanceWithEvent
	for _, a := range f.rows {
		if a.UserID == userID {
			out = append(out, models.AttendanceWithEvent{Attendance: *a})
		}
	}
	return out, nil
}

func (f *fakeAttendanceRepo) ListEligible(_ context.Context, _ string, _ []models.AttendanceStatus) ([]models.EligibleAttendee, error) {
	return f.eligible, f.eligibleErr
}

type fakeUserRepo struct {
	users map[string]*models.User
}

func (f *fakeUserRepo) FindByID(_ context.Context, id string) (*models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return u, nil
}

type fakeCertificateRepo struct {
	certs     map[string]*models.Certificate
	details   map[string]*models.CertificateDetail
	createErr map[string]error
	// race makes CreateIfAbsent lose to a concurrent insert for the listed users
	race    map[string]bool
	creates int
	revoked []string
}

func newFakeCertificateRepo() *fakeCertificateRepo {
	return &fakeCertificateRepo{
		certs:     map[string]*models.Certificate{},
		details:   map[string]*models.CertificateDetail{},
		createErr: map[string]error{},
		race:      map[string]bool{},
	}
}

func (f *fakeCertificateRepo) GetByEventAndUser(_ context.Context, eventID, userID string) (*models.Certificate, error) {
	c, ok := f.certs[attendanceKey(eventID, userID)]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return c, nil
}

func (f *fakeCertificateRepo) CreateIfAbsent(_ context.Context, cert *models.Certificate) (bool, error) {
	if err := f.createErr[cert.UserID]; err != nil {
		return false, err
	}
	key := attendanceKey(cert.EventID, cert.UserID)
	if f.race[cert.UserID] {
		f.certs[key] = &models.Certificate{ID: "winner", EventID: cert.EventID, UserID: cert.UserID, CertificateNumber: "WINNER01", Status: models.CertificateIssued}
		return false, nil
	}
	if _, ok := f.certs[key]; ok {
		return false, nil
	}
	f.creates++
	cert.ID = "cert-" + cert.UserID
	cert.CreatedAt = cert.IssuedAt
	stored := *cert
	f.certs[key] = &stored
	return true, nil
}

func (f *fakeCertificateRepo) GetDetail(_ context.Context, id string) (*models.CertificateDetail, error) {
	d, ok := f.details[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *d
	return &clone, nil
}

func (f *fakeCertificateRepo) GetDetailByNumber(_ context.Context, number string) (*models.CertificateDetail, error) {
	for _, d := range f.details {
		if d.CertificateNumber == number {
			clone := *d
			return &clone, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeCertificateRepo) ListByUser(_ context.Context, userID string) ([]models.CertificateDetail, error) {
	var out []models.CertificateDetail
	for _, d := range f.details {
		if d.UserID == userID {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (f *fakeCertificateRepo) ListByEvent(_ context.Context, eventID string) ([]models.CertificateDetail, error) {
	var out []models.CertificateDetail
	for _, d := range f.details {
		if d.EventID == eventID {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (f *fakeCertificateRepo) Revoke(_ context.Context, id string, at time.Time) error {
	d, ok := f.details[id]
	if !ok {
		return sql.ErrNoRows
	}
	d.Status = models.CertificateRevoked
	d.RevokedAt = &at
	f.revoked = append(f.revoked, id)
	return nil
}

type notification struct {
	Kind   string
	To     string
	Event  string
	Detail string
}

type fakeNotifier struct {
	mu    sync.Mutex
	calls []notification
}

func (f *fakeNotifier) record(n notification) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, n)
}

func (f *fakeNotifier) NotifyCertificateIssued(_ context.Context, to, _, eventName, number string) {
	f.record(notification{Kind: NotificationCertificate, To: to, Event: eventName, Detail: number})
}

func (f *fakeNotifier) NotifyRegistration(_ context.Context, to, _, eventName string) {
	f.record(notification{Kind: NotificationRegistration, To: to, Event: eventName})
}

func (f *fakeNotifier) NotifyAnnouncement(_ context.Context, to, eventName, title, _ string) {
	f.record(notification{Kind: NotificationAnnouncement, To: to, Event: eventName, Detail: title})
}

func (f *fakeNotifier) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeBroadcaster struct {
	events []models.AttendanceEvent
}

func (f *fakeBroadcaster) PublishAttendance(_ context.Context, evt models.AttendanceEvent) {
	f.events = append(f.events, evt)
}

type fakeRegistrationRepo struct {
	regs      map[string]*models.Registration
	active    int
	createErr error
}

func newFakeRegistrationRepo(regs ...*models.Registration) *fakeRegistrationRepo {
	repo := &fakeRegistrationRepo{regs: map[string]*models.Registration{}}
	for _, r := range regs {
		repo.regs[r.ID] = r
	}
	return repo
}

func (f *fakeRegistrationRepo) FindByEventAndUser(_ context.Context, eventID, userID string) (*models.Registration, error) {
	for _, r := range f.regs {
		if r.EventID == eventID && r.UserID == userID {
			clone := *r
			return &clone, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeRegistrationRepo) GetByID(_ context.Context, id string) (*models.Registration, error) {
	r, ok := f.regs[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *r
	return &clone, nil
}

func (f *fakeRegistrationRepo) Create(_ context.Context, reg *models.Registration) error {
	if f.createErr != nil {
		return f.createErr
	}
	reg.ID = "reg-" + reg.UserID
	stored := *reg
	f.regs[reg.ID] = &stored
	return nil
}

func (f *fakeRegistrationRepo) UpdateStatus(_ context.Context, id string, status models.RegistrationStatus) (*models.Registration, error) {
	r, ok := f.regs[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	r.Status = status
	clone := *r
	return &clone, nil
}

func (f *fakeRegistrationRepo) CountActiveByEvent(_ context.Context, _ string) (int, error) {
	return f.active, nil
}

func (f *fakeRegistrationRepo) ListByUser(_ context.Context, userID string) ([]models.RegistrationWithEvent, error) {
	var out []models.RegistrationWithEvent
	for _, r := range f.regs {
		if r.UserID == userID {
			out = append(out, models.RegistrationWithEvent{Registration: *r})
		}
	}
	return out, nil
}

func (f *fakeRegistrationRepo) ListRecipients(_ context.Context, eventID string) ([]models.Recipient, error) {
	var out []models.Recipient
	for _, r := range f.regs {
		if r.EventID == eventID && r.Status == models.RegistrationApproved {
			out = append(out, models.Recipient{UserID: r.UserID, Email: r.UserID + "@example.com"})
		}
	}
	return out, nil
}
