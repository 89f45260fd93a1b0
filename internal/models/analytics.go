package models

import "time"

// OrganizerStats summarises an organizer's events.
type OrganizerStats struct {
	TotalEvents        int `db:"total_events" json:"total_events"`
	ActiveEvents       int `db:"active_events" json:"active_events"`
	TotalRegistrations int `db:"total_registrations" json:"total_registrations"`
	TotalCertificates  int `db:"total_certificates" json:"total_certificates"`
}

// AttendanceBucket is one slice of the attendance chart.
type AttendanceBucket struct {
	Name  string `db:"name" json:"name"`
	Value int    `db:"value" json:"value"`
}

// EventStats summarises registrations and attendance for an event.
type EventStats struct {
	EventName          string             `json:"event_name"`
	TotalRegistrations int                `json:"total_registrations"`
	AttendanceData     []AttendanceBucket `json:"attendance_data"`
}

// AdminStats summarises the whole platform.
type AdminStats struct {
	TotalUsers         int `db:"total_users" json:"total_users"`
	TotalEvents        int `db:"total_events" json:"total_events"`
	TotalRegistrations int `db:"total_registrations" json:"total_registrations"`
	TotalCertificates  int `db:"total_certificates" json:"total_certificates"`
}

// AnalyticsSystemMetrics represents system level analytics captured from instrumentation.
type AnalyticsSystemMetrics struct {
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	CacheHits                uint64    `json:"cache_hits"`
	CacheMisses              uint64    `json:"cache_misses"`
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	DBQueryCount             uint64    `json:"db_query_count"`
	AverageDBQueryDurationMs float64   `json:"average_db_query_duration_ms"`
	CheckIns                 uint64    `json:"check_ins"`
	CertificatesIssued       uint64    `json:"certificates_issued"`
	NotificationsFailed      uint64    `json:"notifications_failed"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}
