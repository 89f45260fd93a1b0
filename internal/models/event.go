package models

import (
	"time"

	"github.com/noah-isme/campus-events-api/pkg/geo"
)

// EventState tracks the publication lifecycle of an event.
type EventState string

const (
	EventStateDraft     EventState = "DRAFT"
	EventStatePublished EventState = "PUBLISHED"
	EventStateLive      EventState = "LIVE"
	EventStateCompleted EventState = "COMPLETED"
	EventStateCancelled EventState = "CANCELLED"
)

// PublicEventStates are visible in the public listing.
var PublicEventStates = []EventState{EventStatePublished, EventStateLive, EventStateCompleted}

// Valid returns true when the state is supported.
func (s EventState) Valid() bool {
	switch s {
	case EventStateDraft, EventStatePublished, EventStateLive, EventStateCompleted, EventStateCancelled:
		return true
	}
	return false
}

// AttendanceMethod is the verification mode configured on an event.
type AttendanceMethod string

const (
	AttendanceMethodManual      AttendanceMethod = "MANUAL"
	AttendanceMethodQRCode      AttendanceMethod = "QR_CODE"
	AttendanceMethodSelfCheckIn AttendanceMethod = "SELF_CHECKIN"
	AttendanceMethodGeofence    AttendanceMethod = "GEOFENCE"
	AttendanceMethodHybrid      AttendanceMethod = "HYBRID"
)

// Valid returns true when the method is supported.
func (m AttendanceMethod) Valid() bool {
	switch m {
	case AttendanceMethodManual, AttendanceMethodQRCode, AttendanceMethodSelfCheckIn, AttendanceMethodGeofence, AttendanceMethodHybrid:
		return true
	}
	return false
}

// EventTypes lists the accepted event_type values.
var EventTypes = []string{
	"WORKSHOP", "HACKATHON", "SEMINAR", "WEBINAR", "CULTURAL_EVENT", "SPORTS_EVENT",
	"CLUB_ACTIVITY", "COMPETITION", "CONFERENCE", "GUEST_LECTURE", "OTHER",
}

// EventCategories lists the accepted category values.
var EventCategories = []string{
	"TECHNICAL", "CULTURAL", "SPORTS", "SOCIAL", "ACADEMIC", "PROFESSIONAL", "ENTERTAINMENT",
}

// Event is a row of the events table. OrganizerFirstName and OrganizerLastName are populated by joins.
type Event struct {
	ID                 string           `db:"id" json:"id"`
	Title              string           `db:"title" json:"title"`
	Description        string           `db:"description" json:"description"`
	EventType          string           `db:"event_type" json:"event_type"`
	Category           string           `db:"category" json:"category"`
	StartDateTime      time.Time        `db:"start_date_time" json:"start_date_time"`
	EndDateTime        time.Time        `db:"end_date_time" json:"end_date_time"`
	Venue              string           `db:"venue" json:"venue"`
	IsOnline           bool             `db:"is_online" json:"is_online"`
	MaxParticipants    *int             `db:"max_participants" json:"max_participants,omitempty"`
	State              EventState       `db:"state" json:"state"`
	AttendanceMethod   AttendanceMethod `db:"attendance_method" json:"attendance_method"`
	Latitude           *float64         `db:"latitude" json:"latitude,omitempty"`
	Longitude          *float64         `db:"longitude" json:"longitude,omitempty"`
	GeofenceRadius     *float64         `db:"geofence_radius" json:"geofence_radius,omitempty"`
	OrganizerID        string           `db:"organizer_id" json:"organizer_id"`
	OrganizerFirstName *string          `db:"organizer_first_name" json:"-"`
	OrganizerLastName  *string          `db:"organizer_last_name" json:"-"`
	OrganizerName      string           `db:"-" json:"organizer_name,omitempty"`
	CreatedAt          time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time        `db:"updated_at" json:"updated_at"`
}

// Fence returns the event geofence. ok is false unless latitude, longitude and radius are all set.
func (e *Event) Fence() (geo.Fence, bool) {
	if e.Latitude == nil || e.Longitude == nil || e.GeofenceRadius == nil {
		return geo.Fence{}, false
	}
	return geo.Fence{
		Center:       geo.Point{Latitude: *e.Latitude, Longitude: *e.Longitude},
		RadiusMeters: *e.GeofenceRadius,
	}, true
}

// ResolveOrganizerName fills OrganizerName from the joined name columns.
func (e *Event) ResolveOrganizerName() {
	var first, last string
	if e.OrganizerFirstName != nil {
		first = *e.OrganizerFirstName
	}
	if e.OrganizerLastName != nil {
		last = *e.OrganizerLastName
	}
	e.OrganizerName = JoinName(first, last)
}
