package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-events-api/internal/dto"
	"github.com/noah-isme/campus-events-api/internal/models"
	appErrors "github.com/noah-isme/campus-events-api/pkg/errors"
)

type fakeFeedbackRepo struct {
	items []models.FeedbackEntry
}

func (f *fakeFeedbackRepo) Exists(_ context.Context, eventID, userID string) (bool, error) {
	for _, it := range f.items {
		if it.EventID == eventID && it.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeFeedbackRepo) Create(_ context.Context, fb *models.Feedback) error {
	fb.ID = "fb-" + fb.UserID
	f.items = append(f.items, models.FeedbackEntry{Feedback: *fb, FirstName: "First", LastName: fb.UserID})
	return nil
}

func (f *fakeFeedbackRepo) ListByEvent(_ context.Context, eventID string) ([]models.FeedbackEntry, error) {
	var out []models.FeedbackEntry
	for _, it := range f.items {
		if it.EventID == eventID {
			out = append(out, it)
		}
	}
	return out, nil
}

func newFeedbackFixture() (*FeedbackService, *fakeAttendanceRepo) {
	attendance := newFakeAttendanceRepo()
	events := newFakeEventRepo(&models.Event{ID: "evt-1", OrganizerID: "org-1"})
	return NewFeedbackService(events, attendance, &fakeFeedbackRepo{}, nil, zap.NewNop()), attendance
}

func TestSubmitFeedbackRequiresAttendance(t *testing.T) {
	svc, attendance := newFeedbackFixture()

	_, err := svc.Submit(context.Background(), dto.SubmitFeedbackRequest{EventID: "evt-1", Rating: 5}, "u1")
	require.Error(t, err)
	assert.Equal(t, "ATTENDANCE_REQUIRED", appErrors.FromError(err).Code)
	assert.Equal(t, 403, appErrors.FromError(err).Status)

	attendance.rows[attendanceKey("evt-1", "u1")] = &models.Attendance{EventID: "evt-1", UserID: "u1", Status: models.AttendanceAbsent}
	_, err = svc.Submit(context.Background(), dto.SubmitFeedbackRequest{EventID: "evt-1", Rating: 5}, "u1")
	assert.Equal(t, "ATTENDANCE_REQUIRED", appErrors.FromError(err).Code)
}

func TestSubmitFeedbackOnce(t *testing.T) {
	svc, attendance := newFeedbackFixture()
	attendance.rows[attendanceKey("evt-1", "u1")] = &models.Attendance{EventID: "evt-1", UserID: "u1", Status: models.AttendanceLate}

	fb, err := svc.Submit(context.Background(), dto.SubmitFeedbackRequest{EventID: "evt-1", Rating: 4}, "u1")
	require.NoError(t, err)
	assert.Equal(t, 4, fb.Rating)

	_, err = svc.Submit(context.Background(), dto.SubmitFeedbackRequest{EventID: "evt-1", Rating: 2}, "u1")
	assert.Equal(t, "FEEDBACK_EXISTS", appErrors.FromError(err).Code)
}

func TestSubmitFeedbackValidatesRating(t *testing.T) {
	svc, _ := newFeedbackFixture()

	_, err := svc.Submit(context.Background(), dto.SubmitFeedbackRequest{EventID: "evt-1", Rating: 6}, "u1")
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestListFeedbackMasksAnonymousAuthors(t *testing.T) {
	svc, attendance := newFeedbackFixture()
	for _, id := range []string{"u1", "u2", "u3"} {
		attendance.rows[attendanceKey("evt-1", id)] = &models.Attendance{EventID: "evt-1", UserID: id, Status: models.AttendancePresent}
	}
	ctx := context.Background()
	_, err := svc.Submit(ctx, dto.SubmitFeedbackRequest{EventID: "evt-1", Rating: 5}, "u1")
	require.NoError(t, err)
	_, err = svc.Submit(ctx, dto.SubmitFeedbackRequest{EventID: "evt-1", Rating: 4, IsAnonymous: true}, "u2")
	require.NoError(t, err)
	_, err = svc.Submit(ctx, dto.SubmitFeedbackRequest{EventID: "evt-1", Rating: 4}, "u3")
	require.NoError(t, err)

	summary, err := svc.ListForEvent(ctx, "evt-1", claimsFor("org-1", models.RoleOrganizer))
	require.NoError(t, err)
	assert.Equal(t, 3, summary.TotalCount)
	assert.Equal(t, 4.3, summary.AverageRating)
	assert.Equal(t, "First u1", summary.Items[0].AuthorName)
	assert.Equal(t, models.AnonymousAuthor, summary.Items[1].AuthorName)

	_, err = svc.ListForEvent(ctx, "evt-1", claimsFor("u1", models.RoleStudent))
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}
