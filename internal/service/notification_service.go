package service

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-events-api/pkg/jobs"
	"github.com/noah-isme/campus-events-api/pkg/mailer"
	"github.com/noah-isme/campus-events-api/pkg/middleware/requestid"
)

// Notification job types, also used as metric labels.
const (
	NotificationRegistration = "registration_confirmation"
	NotificationCertificate  = "certificate_issued"
	NotificationAnnouncement = "announcement"
)

var notificationTemplates = template.Must(template.New("notifications").Parse(`
{{define "registration_confirmation"}}<div style="font-family: Arial, sans-serif; padding: 20px;">
<h2>Registration Successful!</h2>
<p>Hi {{.UserName}},</p>
<p>You have successfully registered for <strong>{{.EventName}}</strong>.</p>
<p>You can view your registration in your dashboard.</p>
<br><p>See you there!</p><p>The UCEF Team</p>
</div>{{end}}
{{define "certificate_issued"}}<div style="font-family: Arial, sans-serif; padding: 20px;">
<h2>Congratulations!</h2>
<p>Hi {{.UserName}},</p>
<p>You have earned a certificate for attending <strong>{{.EventName}}</strong>.</p>
<p>Certificate ID: {{.CertificateNumber}}</p>
<p>You can download it from your dashboard.</p>
<br><p>Keep learning!</p><p>The UCEF Team</p>
</div>{{end}}
{{define "announcement"}}<div style="font-family: Arial, sans-serif; padding: 20px;">
<h2>Event Update</h2>
<p><strong>Event:</strong> {{.EventName}}</p>
<hr />
<h3>{{.Title}}</h3>
<p>{{.Message}}</p>
<br><p>The UCEF Team</p>
</div>{{end}}
`))

type notificationData struct {
	UserName          string
	EventName         string
	CertificateNumber string
	Title             string
	Message           string
}

type notificationQueue interface {
	Enqueue(job jobs.Job) error
}

// NotificationService renders transactional email and hands it to the background queue.
// Every Notify* call is fire-and-forget: failures are logged and counted, never returned.
type NotificationService struct {
	mailer  mailer.Mailer
	queue   notificationQueue
	metrics *MetricsService
	logger  *zap.Logger
}

// NewNotificationService constructs the service. Without a queue, messages are sent inline.
func NewNotificationService(m mailer.Mailer, metrics *MetricsService, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{mailer: m, metrics: metrics, logger: logger}
}

// UseQueue routes subsequent notifications through q. Its handler should be Handle.
func (s *NotificationService) UseQueue(q notificationQueue) {
	s.queue = q
}

// Handle delivers a queued message. It is the jobs.Handler for the notification queue.
func (s *NotificationService) Handle(ctx context.Context, job jobs.Job) error {
	msg, ok := job.Payload.(mailer.Message)
	if !ok {
		return fmt.Errorf("unexpected notification payload %T", job.Payload)
	}
	if s.mailer == nil {
		return fmt.Errorf("mailer not configured")
	}
	return s.mailer.Send(ctx, msg)
}

// NotifyRegistration confirms a registration.
func (s *NotificationService) NotifyRegistration(ctx context.Context, to, userName, eventName string) {
	s.dispatch(ctx, NotificationRegistration, to, "Registration Confirmed: "+eventName, notificationData{
		UserName:  userName,
		EventName: eventName,
	})
}

// NotifyCertificateIssued tells a recipient a certificate is ready.
func (s *NotificationService) NotifyCertificateIssued(ctx context.Context, to, userName, eventName, certificateNumber string) {
	s.dispatch(ctx, NotificationCertificate, to, "Certificate Earned: "+eventName, notificationData{
		UserName:          userName,
		EventName:         eventName,
		CertificateNumber: certificateNumber,
	})
}

// NotifyAnnouncement forwards an event announcement.
func (s *NotificationService) NotifyAnnouncement(ctx context.Context, to, eventName, title, message string) {
	s.dispatch(ctx, NotificationAnnouncement, to, fmt.Sprintf("Update for %s: %s", eventName, title), notificationData{
		EventName: eventName,
		Title:     title,
		Message:   message,
	})
}

func (s *NotificationService) dispatch(ctx context.Context, kind, to, subject string, data notificationData) {
	if s == nil {
		return
	}
	log := s.logger.With(zap.String("template", kind), zap.String("to", to))

	var body bytes.Buffer
	if err := notificationTemplates.ExecuteTemplate(&body, kind, data); err != nil {
		log.Warn("failed to render notification", zap.Error(err))
		s.metrics.RecordNotification(kind, err)
		return
	}
	msg := mailer.Message{To: to, Subject: subject, HTML: body.String()}
	if err := msg.Validate(); err != nil {
		log.Warn("skipping notification", zap.Error(err))
		s.metrics.RecordNotification(kind, err)
		return
	}

	job := jobs.Job{
		ID:        uuid.NewString(),
		Type:      kind,
		Payload:   msg,
		RequestID: requestid.FromContext(ctx),
	}
	if s.queue == nil {
		err := s.Handle(context.WithoutCancel(ctx), job)
		if err != nil {
			log.Warn("failed to send notification", zap.Error(err))
		}
		s.metrics.RecordNotification(kind, err)
		return
	}
	if err := s.queue.Enqueue(job); err != nil {
		log.Warn("failed to enqueue notification", zap.Error(err))
		s.metrics.RecordNotification(kind, err)
	}
}
