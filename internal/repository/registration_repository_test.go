package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-events-api/internal/models"
)

func TestRegistrationRepositoryCreateDuplicate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewRegistrationRepository(db)

	mock.ExpectExec("INSERT INTO registrations").WillReturnError(&pq.Error{Code: "23505"})

	err := repo.Create(context.Background(), &models.Registration{EventID: "e1", UserID: "u1", Status: models.RegistrationPending})
	assert.ErrorIs(t, err, ErrDuplicate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegistrationRepositoryUpdateStatus(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewRegistrationRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "event_id", "user_id", "status", "registered_at", "updated_at"}).
		AddRow("r1", "e1", "u1", "PENDING", now, now)
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE registrations SET status = $2, updated_at = $3 WHERE id = $1 RETURNING")).
		WithArgs("r1", models.RegistrationPending, sqlmock.AnyArg()).
		WillReturnRows(rows)

	reg, err := repo.UpdateStatus(context.Background(), "r1", models.RegistrationPending)
	require.NoError(t, err)
	assert.Equal(t, models.RegistrationPending, reg.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegistrationRepositoryCountActive(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewRegistrationRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM registrations WHERE event_id = $1 AND status NOT IN ('CANCELLED', 'REJECTED')")).
		WithArgs("e1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))

	total, err := repo.CountActiveByEvent(context.Background(), "e1")
	require.NoError(t, err)
	assert.Equal(t, 4, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}
