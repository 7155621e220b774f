package activity_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rpggio/sheetmatch/internal/domain/activity"
	"github.com/rpggio/sheetmatch/internal/repository/mocks"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestActivityService_LogAndList(t *testing.T) {
	ctx := context.Background()

	repo := &mocks.ActivityRepository{}
	entry := &activity.ActivityEntry{
		SessionID:    "sess1",
		ActivityType: activity.TypeUploadRaw,
		Summary:      "uploaded raw.xlsx",
	}

	repo.On("Log", ctx, entry).Return(nil)
	repo.On("List", ctx, activity.ListActivityOptions{SessionID: "sess1"}).Return([]activity.ActivityEntry{*entry}, nil)

	svc := activity.NewService(repo, nil)
	require.NoError(t, svc.LogActivity(ctx, entry))
	require.False(t, entry.CreatedAt.IsZero())

	entries, err := svc.GetRecentActivity(ctx, activity.ListActivityOptions{SessionID: "sess1"})
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestActivityService_LogValidation(t *testing.T) {
	svc := activity.NewService(&mocks.ActivityRepository{}, nil)
	require.ErrorIs(t, svc.LogActivity(context.Background(), nil), activity.ErrInvalidInput)
	require.ErrorIs(t, svc.LogActivity(context.Background(), &activity.ActivityEntry{}), activity.ErrInvalidInput)
}

func TestActivityService_RecordMarshalsDetails(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.ActivityRepository{}
	repo.On("Log", ctx, mock.MatchedBy(func(e *activity.ActivityEntry) bool {
		return e.SessionID == "sess1" &&
			e.ActivityType == activity.TypeCompare &&
			e.Details == `{"matched":3}`
	})).Return(nil)

	svc := activity.NewService(repo, nil)
	svc.Record(ctx, "sess1", activity.TypeCompare, "compared", map[string]int{"matched": 3})
	repo.AssertExpectations(t)
}

func TestActivityService_RecordSwallowsErrors(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.ActivityRepository{}
	repo.On("Log", ctx, mock.Anything).Return(errors.New("disk full"))

	svc := activity.NewService(repo, nil)
	svc.Record(ctx, "sess1", activity.TypeUploadRaw, "uploaded", nil)
	repo.AssertExpectations(t)
}
