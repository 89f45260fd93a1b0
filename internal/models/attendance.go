package models

import "time"

// AttendanceStatus represents the status of an attendance record.
type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "PRESENT"
	AttendanceAbsent  AttendanceStatus = "ABSENT"
	AttendanceLate    AttendanceStatus = "LATE"
	AttendanceExcused AttendanceStatus = "EXCUSED"
)

// CertificateEligibleStatuses are the attendance statuses that qualify for a certificate.
var CertificateEligibleStatuses = []AttendanceStatus{AttendancePresent, AttendanceLate}

// Valid returns true when the status is a supported value.
func (s AttendanceStatus) Valid() bool {
	switch s {
	case AttendancePresent, AttendanceAbsent, AttendanceLate, AttendanceExcused:
		return true
	}
	return false
}

// Attended reports whether the status counts as having attended.
func (s AttendanceStatus) Attended() bool {
	return s == AttendancePresent || s == AttendanceLate
}

// Attendance is the single check-in record of a user for an event.
type Attendance struct {
	ID            string           `db:"id" json:"id"`
	EventID       string           `db:"event_id" json:"event_id"`
	UserID        string           `db:"user_id" json:"user_id"`
	Status        AttendanceStatus `db:"status" json:"status"`
	CheckInTime   time.Time        `db:"check_in_time" json:"check_in_time"`
	CheckInMethod AttendanceMethod `db:"check_in_method" json:"check_in_method"`
	Latitude      *float64         `db:"latitude" json:"latitude,omitempty"`
	Longitude     *float64         `db:"longitude" json:"longitude,omitempty"`
	CreatedAt     time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time        `db:"updated_at" json:"updated_at"`
}

// AttendanceRecord is an attendance row joined with the attendee.
type AttendanceRecord struct {
	Attendance
	FirstName string `db:"first_name" json:"first_name"`
	LastName  string `db:"last_name" json:"last_name"`
	Email     string `db:"email" json:"email"`
}

// AttendanceWithEvent is an attendance row joined with its event summary.
type AttendanceWithEvent struct {
	Attendance
	EventTitle string    `db:"event_title" json:"event_title"`
	EventStart time.Time `db:"event_start" json:"event_start"`
}

// EligibleAttendee is a user whose attendance qualifies for a certificate.
type EligibleAttendee struct {
	UserID    string           `db:"user_id"`
	Email     string           `db:"email"`
	FirstName string           `db:"first_name"`
	LastName  string           `db:"last_name"`
	Status    AttendanceStatus `db:"status"`
}

// AttendanceEvent is published on the live feed for every accepted check-in.
type AttendanceEvent struct {
	EventID       string           `json:"event_id"`
	UserID        string           `json:"user_id"`
	Status        AttendanceStatus `json:"status"`
	CheckInMethod AttendanceMethod `json:"check_in_method"`
	CheckInTime   time.Time        `json:"check_in_time"`
}
