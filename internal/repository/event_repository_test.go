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

var eventRowColumns = []string{"id", "title", "description", "event_type", "category", "start_date_time", "end_date_time", "venue", "is_online", "max_participants", "state", "attendance_method", "latitude", "longitude", "geofence_radius", "organizer_id", "organizer_first_name", "organizer_last_name", "created_at", "updated_at"}

func TestEventRepositoryGetByID(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEventRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows(eventRowColumns).AddRow(
		"e1", "Hack Night", "", "HACKATHON", "TECHNICAL", now, now.Add(time.Hour), "Lab 1", false, 30,
		"PUBLISHED", "GEOFENCE", 1.5, 2.5, 100.0, "o1", "Grace", "Hopper", now, now,
	)
	mock.ExpectQuery(regexp.QuoteMeta("FROM events e LEFT JOIN users u ON u.id = e.organizer_id WHERE e.id = $1")).
		WithArgs("e1").
		WillReturnRows(rows)

	event, err := repo.GetByID(context.Background(), "e1")
	require.NoError(t, err)
	assert.Equal(t, models.AttendanceMethodGeofence, event.AttendanceMethod)
	assert.Equal(t, "Grace Hopper", event.OrganizerName)
	require.NotNil(t, event.MaxParticipants)
	assert.Equal(t, 30, *event.MaxParticipants)
	_, ok := event.Fence()
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepositoryListPublic(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEventRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows(eventRowColumns).AddRow(
		"e1", "Talk", "", "SEMINAR", "ACADEMIC", now, now, "Hall", false, nil,
		"LIVE", "MANUAL", nil, nil, nil, "o1", nil, nil, now, now,
	)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE e.state = ANY($1) ORDER BY e.start_date_time ASC")).WillReturnRows(rows)

	events, err := repo.ListPublic(context.Background(), models.PublicEventStates)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Nil(t, events[0].MaxParticipants)
	assert.Equal(t, "", events[0].OrganizerName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepositoryUpdateStateMissing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEventRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE events SET state = $2")).WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateState(context.Background(), "missing", models.EventStateLive)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepositoryMalformedIDIsNotFound(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEventRepository(db)

	invalidUUID := &pq.Error{Code: "22P02", Message: `invalid input syntax for type uuid: "abc"`}
	mock.ExpectQuery(regexp.QuoteMeta("WHERE e.id = $1")).WithArgs("abc").WillReturnError(invalidUUID)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE events SET state = $2")).WillReturnError(invalidUUID)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM events WHERE id = $1")).WillReturnError(invalidUUID)

	_, err := repo.GetByID(context.Background(), "abc")
	assert.Equal(t, sql.ErrNoRows, err)
	assert.ErrorIs(t, repo.UpdateState(context.Background(), "abc", models.EventStateLive), sql.ErrNoRows)
	assert.ErrorIs(t, repo.Delete(context.Background(), "abc"), sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepositoryGetByIDError(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEventRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE e.id = $1")).WillReturnError(&pq.Error{Code: "57014"})

	_, err := repo.GetByID(context.Background(), "e1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEventRepository(db)

	mock.ExpectExec("INSERT INTO events").WillReturnResult(sqlmock.NewResult(1, 1))

	event := &models.Event{Title: "Talk", State: models.EventStatePublished, AttendanceMethod: models.AttendanceMethodManual, OrganizerID: "o1"}
	require.NoError(t, repo.Create(context.Background(), event))
	assert.NotEmpty(t, event.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
