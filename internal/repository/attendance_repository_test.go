package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-events-api/internal/models"
)

var attendanceRowColumns = []string{"id", "event_id", "user_id", "status", "check_in_time", "check_in_method", "latitude", "longitude", "created_at", "updated_at"}

func TestAttendanceUpsertKeepsMethodOnConflict(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	now := time.Now()
	lat, lon := 1.0, 2.0
	rows := sqlmock.NewRows(attendanceRowColumns).AddRow("a1", "e1", "u1", "LATE", now, "GEOFENCE", lat, lon, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("ON CONFLICT (event_id, user_id) DO UPDATE SET status = EXCLUDED.status, check_in_time = EXCLUDED.check_in_time, latitude = EXCLUDED.latitude, longitude = EXCLUDED.longitude, updated_at = EXCLUDED.updated_at RETURNING")).
		WithArgs(sqlmock.AnyArg(), "e1", "u1", models.AttendanceLate, sqlmock.AnyArg(), models.AttendanceMethodGeofence, &lat, &lon, sqlmock.AnyArg()).
		WillReturnRows(rows)

	stored, err := repo.Upsert(context.Background(), &models.Attendance{
		EventID: "e1", UserID: "u1", Status: models.AttendanceLate,
		CheckInMethod: models.AttendanceMethodGeofence, Latitude: &lat, Longitude: &lon,
	}, false)
	require.NoError(t, err)
	assert.Equal(t, "a1", stored.ID)
	assert.Equal(t, models.AttendanceLate, stored.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceUpsertOverridesMethod(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows(attendanceRowColumns).AddRow("a1", "e1", "u1", "PRESENT", now, "MANUAL", nil, nil, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("updated_at = EXCLUDED.updated_at, check_in_method = EXCLUDED.check_in_method RETURNING")).
		WillReturnRows(rows)

	stored, err := repo.Upsert(context.Background(), &models.Attendance{
		EventID: "e1", UserID: "u1", Status: models.AttendancePresent, CheckInMethod: models.AttendanceMethodManual,
	}, true)
	require.NoError(t, err)
	assert.Equal(t, models.AttendanceMethodManual, stored.CheckInMethod)
	assert.Nil(t, stored.Latitude)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceListEligible(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	rows := sqlmock.NewRows([]string{"user_id", "email", "first_name", "last_name", "status"}).
		AddRow("u1", "a@example.com", "Ada", "Lovelace", "PRESENT").
		AddRow("u2", "g@example.com", "Grace", "Hopper", "LATE")
	mock.ExpectQuery(regexp.QuoteMeta("WHERE a.event_id = $1 AND a.status = ANY($2)")).
		WithArgs("e1", sqlmock.AnyArg()).
		WillReturnRows(rows)

	attendees, err := repo.ListEligible(context.Background(), "e1", models.CertificateEligibleStatuses)
	require.NoError(t, err)
	require.Len(t, attendees, 2)
	assert.Equal(t, models.AttendanceLate, attendees[1].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceUpsertUnknownUser(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	mock.ExpectQuery("INSERT INTO attendance").WillReturnError(&pq.Error{Code: "22P02"})
	mock.ExpectQuery("INSERT INTO attendance").WillReturnError(&pq.Error{Code: "23503"})

	record := &models.Attendance{EventID: "e1", UserID: "abc", Status: models.AttendancePresent, CheckInMethod: models.AttendanceMethodManual}
	_, err := repo.Upsert(context.Background(), record, true)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	_, err = repo.Upsert(context.Background(), record, true)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}
