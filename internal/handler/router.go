package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-events-api/internal/middleware"
	"github.com/noah-isme/campus-events-api/internal/models"
)

// Router groups every API handler for registration under the API prefix.
type Router struct {
	Auth          *AuthHandler
	Events        *EventHandler
	Registrations *RegistrationHandler
	Attendance    *AttendanceHandler
	Certificates  *CertificateHandler
	Feedback      *FeedbackHandler
	Announcements *AnnouncementHandler
	Analytics     *AnalyticsHandler

	// LiveFeed upgrades to the attendance websocket; nil disables the route.
	LiveFeed gin.HandlerFunc

	Tokens middleware.TokenValidator
	Audit  middleware.AuditRecorder
	Logger *zap.Logger
}

// Register mounts the API routes on group.
func (rt *Router) Register(group *gin.RouterGroup) {
	auth := middleware.JWT(rt.Tokens)
	managers := middleware.RequireRoles(models.RoleOrganizer, models.RoleAdmin)
	audit := func(action, resource string) gin.HandlerFunc {
		return middleware.Audit(rt.Audit, rt.Logger, action, resource)
	}

	a := group.Group("/auth")
	a.POST("/register", audit(models.AuditActionRegister, "users"), rt.Auth.Register)
	a.POST("/login", audit(models.AuditActionLogin, "users"), rt.Auth.Login)
	a.POST("/refresh", rt.Auth.Refresh)
	a.POST("/logout", auth, audit(models.AuditActionLogout, "users"), rt.Auth.Logout)
	a.POST("/change-password", auth, audit(models.AuditActionPasswordChange, "users"), rt.Auth.ChangePassword)
	a.GET("/me", auth, rt.Auth.Me)

	ev := group.Group("/events")
	ev.GET("", rt.Events.List)
	ev.GET("/mine", auth, managers, rt.Events.Mine)
	ev.GET("/:id", rt.Events.Get)
	ev.POST("", auth, managers, audit(models.AuditActionEventCreate, "events"), rt.Events.Create)
	ev.PATCH("/:id/state", auth, managers, rt.Events.UpdateState)
	ev.DELETE("/:id", auth, managers, audit(models.AuditActionEventDelete, "events"), rt.Events.Delete)

	reg := group.Group("/registrations", auth)
	reg.POST("", rt.Registrations.Register)
	reg.GET("/my-registrations", rt.Registrations.Mine)
	reg.PATCH("/:id/cancel", rt.Registrations.Cancel)
	reg.PATCH("/:id/status", managers, rt.Registrations.UpdateStatus)

	att := group.Group("/attendance")
	att.POST("/mark", auth, rt.Attendance.Mark)
	att.POST("/mark-user", auth, managers, rt.Attendance.MarkUser)
	att.GET("/my-attendance", auth, rt.Attendance.Mine)
	att.GET("/events/:eventId", auth, managers, rt.Attendance.EventRoster)
	att.GET("/events/:eventId/export", auth, managers, rt.Attendance.Export)
	if rt.LiveFeed != nil {
		att.GET("/events/:eventId/live", rt.LiveFeed)
	}

	certs := group.Group("/certificates")
	certs.GET("/verify/:number", rt.Certificates.Verify)
	certs.GET("/files/:token", rt.Certificates.SignedFile)
	certs.POST("/issue", auth, managers, audit(models.AuditActionCertificateIssue, "certificates"), rt.Certificates.Issue)
	certs.POST("/bulk-issue", auth, managers, audit(models.AuditActionCertificateBulk, "certificates"), rt.Certificates.BulkIssue)
	certs.GET("/my-certificates", auth, rt.Certificates.Mine)
	certs.GET("/event/:eventId", auth, managers, rt.Certificates.ForEvent)
	certs.GET("/download/:id", auth, rt.Certificates.Download)
	certs.GET("/:id/link", auth, rt.Certificates.Link)
	certs.PATCH("/:id/revoke", auth, managers, audit(models.AuditActionCertificateRevoke, "certificates"), rt.Certificates.Revoke)

	fb := group.Group("/feedback", auth)
	fb.POST("", rt.Feedback.Submit)
	fb.GET("/events/:eventId", rt.Feedback.ForEvent)

	ann := group.Group("/announcements")
	ann.POST("", auth, rt.Announcements.Create)
	ann.GET("/events/:eventId", rt.Announcements.ForEvent)

	an := group.Group("/analytics", auth, middleware.WithResponseMeta())
	an.GET("/organizer", rt.Analytics.Organizer)
	an.GET("/events/:id", rt.Analytics.Event)
	an.GET("/admin", rt.Analytics.Admin)
	an.GET("/system", rt.Analytics.System)
}
