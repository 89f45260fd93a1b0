package models

import "time"

// AnnouncementPriority defines ordering for announcements.
type AnnouncementPriority string

const (
	AnnouncementPriorityLow    AnnouncementPriority = "LOW"
	AnnouncementPriorityNormal AnnouncementPriority = "NORMAL"
	AnnouncementPriorityHigh   AnnouncementPriority = "HIGH"
	AnnouncementPriorityUrgent AnnouncementPriority = "URGENT"
)

// Announcement is an update posted to an event.
type Announcement struct {
	ID               string               `db:"id" json:"id"`
	EventID          string               `db:"event_id" json:"event_id"`
	Title            string               `db:"title" json:"title"`
	Content          string               `db:"content" json:"content"`
	Priority         AnnouncementPriority `db:"priority" json:"priority"`
	SendToRegistered bool                 `db:"send_to_registered" json:"send_to_registered"`
	EmailSent        bool                 `db:"email_sent" json:"email_sent"`
	CreatedBy        string               `db:"created_by" json:"created_by"`
	CreatedAt        time.Time            `db:"created_at" json:"created_at"`
}
