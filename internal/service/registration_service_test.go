package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-events-api/internal/dto"
	"github.com/noah-isme/campus-events-api/internal/models"
	"github.com/noah-isme/campus-events-api/internal/repository"
	appErrors "github.com/noah-isme/campus-events-api/pkg/errors"
)

func newRegistrationFixture(event *models.Event, regs ...*models.Registration) (*RegistrationService, *fakeRegistrationRepo, *fakeNotifier) {
	repo := newFakeRegistrationRepo(regs...)
	notifier := &fakeNotifier{}
	users := &fakeUserRepo{users: map[string]*models.User{"u1": {ID: "u1", Email: "u1@example.com", FirstName: "Ada"}}}
	return NewRegistrationService(newFakeEventRepo(event), users, repo, notifier, nil, zap.NewNop()), repo, notifier
}

func TestRegisterCreatesPendingRegistration(t *testing.T) {
	svc, _, notifier := newRegistrationFixture(&models.Event{ID: "evt-1", Title: "Go Workshop"})

	out, err := svc.Register(context.Background(), dto.CreateRegistrationRequest{EventID: "evt-1"}, "u1")
	require.NoError(t, err)
	assert.False(t, out.Reactivated)
	assert.Equal(t, models.RegistrationPending, out.Registration.Status)
	require.Equal(t, 1, notifier.count())
	assert.Equal(t, "Go Workshop", notifier.calls[0].Event)
}

func TestRegisterTwiceIsRejected(t *testing.T) {
	svc, _, _ := newRegistrationFixture(&models.Event{ID: "evt-1"},
		&models.Registration{ID: "r1", EventID: "evt-1", UserID: "u1", Status: models.RegistrationApproved})

	_, err := svc.Register(context.Background(), dto.CreateRegistrationRequest{EventID: "evt-1"}, "u1")
	require.Error(t, err)
	assert.Equal(t, "ALREADY_REGISTERED", appErrors.FromError(err).Code)
}

func TestRegisterReactivatesCancelled(t *testing.T) {
	svc, _, notifier := newRegistrationFixture(&models.Event{ID: "evt-1"},
		&models.Registration{ID: "r1", EventID: "evt-1", UserID: "u1", Status: models.RegistrationCancelled})

	out, err := svc.Register(context.Background(), dto.CreateRegistrationRequest{EventID: "evt-1"}, "u1")
	require.NoError(t, err)
	assert.True(t, out.Reactivated)
	assert.Equal(t, models.RegistrationPending, out.Registration.Status)
	assert.Equal(t, 1, notifier.count())
}

func TestRegisterFullEvent(t *testing.T) {
	svc, repo, _ := newRegistrationFixture(&models.Event{ID: "evt-1", MaxParticipants: ptrInt(2)})
	repo.active = 2

	_, err := svc.Register(context.Background(), dto.CreateRegistrationRequest{EventID: "evt-1"}, "u1")
	require.Error(t, err)
	assert.Equal(t, "EVENT_FULL", appErrors.FromError(err).Code)
}

func TestRegisterDuplicateRace(t *testing.T) {
	svc, repo, _ := newRegistrationFixture(&models.Event{ID: "evt-1"})
	repo.createErr = repository.ErrDuplicate

	_, err := svc.Register(context.Background(), dto.CreateRegistrationRequest{EventID: "evt-1"}, "u1")
	assert.Equal(t, "ALREADY_REGISTERED", appErrors.FromError(err).Code)
}

func TestCancelRegistration(t *testing.T) {
	svc, _, _ := newRegistrationFixture(&models.Event{ID: "evt-1"},
		&models.Registration{ID: "r1", EventID: "evt-1", UserID: "u1", Status: models.RegistrationPending})

	_, err := svc.Cancel(context.Background(), "r1", "u2")
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	reg, err := svc.Cancel(context.Background(), "r1", "u1")
	require.NoError(t, err)
	assert.Equal(t, models.RegistrationCancelled, reg.Status)

	_, err = svc.Cancel(context.Background(), "missing", "u1")
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestUpdateRegistrationStatus(t *testing.T) {
	svc, _, _ := newRegistrationFixture(&models.Event{ID: "evt-1", OrganizerID: "org-1"},
		&models.Registration{ID: "r1", EventID: "evt-1", UserID: "u1", Status: models.RegistrationPending})

	_, err := svc.UpdateStatus(context.Background(), "r1", dto.UpdateRegistrationStatusRequest{Status: "approved"}, claimsFor("org-2", models.RoleOrganizer))
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	reg, err := svc.UpdateStatus(context.Background(), "r1", dto.UpdateRegistrationStatusRequest{Status: "approved"}, claimsFor("org-1", models.RoleOrganizer))
	require.NoError(t, err)
	assert.Equal(t, models.RegistrationApproved, reg.Status)

	_, err = svc.UpdateStatus(context.Background(), "r1", dto.UpdateRegistrationStatusRequest{Status: "CANCELLED"}, claimsFor("org-1", models.RoleOrganizer))
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestListMyRegistrations(t *testing.T) {
	svc, _, _ := newRegistrationFixture(&models.Event{ID: "evt-1"},
		&models.Registration{ID: "r1", EventID: "evt-1", UserID: "u1"},
		&models.Registration{ID: "r2", EventID: "evt-2", UserID: "u2"})

	regs, err := svc.ListMine(context.Background(), "u1")
	require.NoError(t, err)
	assert.Len(t, regs, 1)
}

func TestRegistrationChangesInvalidateAnalytics(t *testing.T) {
	cacheRepo := newMemoryCache()
	svc, _, _ := newRegistrationFixture(&models.Event{ID: "evt-1"})
	svc.UseCache(NewCacheService(cacheRepo, nil, time.Minute, zap.NewNop(), true))
	require.NoError(t, cacheRepo.Set(context.Background(), "analytics:event:evt-1", map[string]int{"total_registrations": 0}, time.Minute))

	out, err := svc.Register(context.Background(), dto.CreateRegistrationRequest{EventID: "evt-1"}, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"analytics:*"}, cacheRepo.invalidated)
	assert.Empty(t, cacheRepo.values)

	_, err = svc.Register(context.Background(), dto.CreateRegistrationRequest{EventID: "evt-1"}, "u1")
	require.Error(t, err)
	assert.Len(t, cacheRepo.invalidated, 1)

	_, err = svc.Cancel(context.Background(), out.Registration.ID, "u1")
	require.NoError(t, err)
	assert.Len(t, cacheRepo.invalidated, 2)
}
