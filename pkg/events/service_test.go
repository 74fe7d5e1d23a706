package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dueview/dueview/internal/utils"
	"github.com/dueview/dueview/pkg/user"
)

const testUserId = 123

var serviceNow = time.Date(2025, 11, 20, 12, 0, 0, 0, time.UTC)

// providerStub is a fixed-batch BatchProvider for tests.
type providerStub struct {
	batch []Event
	err   error
}

func (p *providerStub) CachedEvents(ctx context.Context) ([]Event, error) {
	if p.err != nil {
		return nil, p.err
	}
	return p.batch, nil
}

func ctxWithUserId(userId int) context.Context {
	return context.WithValue(context.Background(), user.UserKey, user.User{
		Id:          userId,
		Uid:         uuid.NewString(),
		Username:    "test-user-1",
		DisplayName: "Test User 1",
	})
}

func setupServiceTest(t *testing.T) (*ServiceImpl, *RepositoryStub, *providerStub, *providerStub, context.Context) {
	repo := NewRepositoryStub()
	remote := &providerStub{}
	feed := &providerStub{}
	clock := &utils.MockClock{FixedNow: serviceNow}
	service := NewService(repo, remote, feed, nil, clock)
	ctx := ctxWithUserId(testUserId)
	t.Cleanup(repo.Reset)
	return service, repo, remote, feed, ctx
}

func TestServiceImpl_GetAll(t *testing.T) {
	t.Run("should merge all sources with manual events", func(t *testing.T) {
		// given
		service, _, remote, feed, ctx := setupServiceTest(t)
		remote.batch = []Event{{ID: "assignment-1", Title: "HW 1", SourceKind: SourceRemoteAPI, DueAt: serviceNow.Add(time.Hour)}}
		feed.batch = []Event{{ID: "ics-1", Title: "Quiz", SourceKind: SourceCalendarFeed, DueAt: serviceNow.Add(2 * time.Hour)}}
		_, err := service.AddManualEvent(ctx, Event{Title: "Read paper", DueAt: serviceNow.Add(3 * time.Hour)})
		require.NoError(t, err)

		// when
		all, err := service.GetAll(ctx, Filter{})

		// then
		require.NoError(t, err)
		assert.Len(t, all, 3)
	})

	t.Run("should skip a failing source instead of blanking the list", func(t *testing.T) {
		// given
		service, _, remote, feed, ctx := setupServiceTest(t)
		remote.err = errors.New("remote cache unreadable")
		feed.batch = []Event{{ID: "ics-1", Title: "Quiz", SourceKind: SourceCalendarFeed, DueAt: serviceNow}}

		// when
		all, err := service.GetAll(ctx, Filter{})

		// then
		require.NoError(t, err)
		require.Len(t, all, 1)
		assert.Equal(t, "ics-1", all[0].ID)
	})

	t.Run("should apply the filter to the merged list", func(t *testing.T) {
		service, _, remote, feed, ctx := setupServiceTest(t)
		remote.batch = []Event{
			{ID: "a", Title: "HW 1", Category: CategoryAssignment, CourseCode: "CS101", SourceKind: SourceRemoteAPI, DueAt: serviceNow},
			{ID: "b", Title: "Final Exam", Category: CategoryExam, CourseCode: "CS101", SourceKind: SourceRemoteAPI, DueAt: serviceNow},
		}
		feed.batch = []Event{}

		all, err := service.GetAll(ctx, Filter{Categories: []Category{CategoryExam}})

		require.NoError(t, err)
		require.Len(t, all, 1)
		assert.Equal(t, "b", all[0].ID)
	})
}

func TestServiceImpl_Upcoming(t *testing.T) {
	t.Run("should return future events soonest first, truncated to the limit", func(t *testing.T) {
		service, _, remote, feed, ctx := setupServiceTest(t)
		remote.batch = []Event{
			{ID: "far", Title: "Far", SourceKind: SourceRemoteAPI, DueAt: serviceNow.Add(48 * time.Hour)},
			{ID: "near", Title: "Near", SourceKind: SourceRemoteAPI, DueAt: serviceNow.Add(time.Hour)},
			{ID: "past", Title: "Past", SourceKind: SourceRemoteAPI, DueAt: serviceNow.Add(-time.Hour)},
		}
		feed.batch = []Event{}

		upcoming, err := service.Upcoming(ctx, 1)

		require.NoError(t, err)
		require.Len(t, upcoming, 1)
		assert.Equal(t, "near", upcoming[0].ID)
	})
}

func TestServiceImpl_Discrepancies(t *testing.T) {
	t.Run("should compare remote against feed", func(t *testing.T) {
		service, _, remote, feed, ctx := setupServiceTest(t)
		remote.batch = []Event{{ID: "a", Title: "HW 1", DueAt: serviceNow}}
		feed.batch = []Event{{ID: "b", Title: "HW 1", DueAt: serviceNow.Add(time.Hour)}}

		records, err := service.Discrepancies(ctx)

		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, TimeMismatch, records[0].Kind)
	})

	t.Run("should propagate source failures instead of comparing against nothing", func(t *testing.T) {
		service, _, remote, feed, ctx := setupServiceTest(t)
		remote.batch = []Event{{ID: "a", Title: "HW 1", DueAt: serviceNow}}
		feed.err = errors.New("feed cache unreadable")

		_, err := service.Discrepancies(ctx)

		assert.Error(t, err)
	})
}

func TestServiceImpl_AddManualEvent(t *testing.T) {
	t.Run("should assign id, source and priority", func(t *testing.T) {
		service, _, _, _, ctx := setupServiceTest(t)

		stored, err := service.AddManualEvent(ctx, Event{
			Title:    "Office hours prep",
			Category: CategoryExam,
			DueAt:    serviceNow.Add(time.Hour),
		})

		require.NoError(t, err)
		assert.Contains(t, stored.ID, "manual-")
		assert.Equal(t, SourceManual, stored.SourceKind)
		assert.Equal(t, PriorityHigh, stored.Priority)
	})

	t.Run("should default the category", func(t *testing.T) {
		service, _, _, _, ctx := setupServiceTest(t)

		stored, err := service.AddManualEvent(ctx, Event{Title: "Errand", DueAt: serviceNow})

		require.NoError(t, err)
		assert.Equal(t, CategoryPersonal, stored.Category)
		assert.Equal(t, PriorityLow, stored.Priority)
	})

	t.Run("should reject missing title or due time", func(t *testing.T) {
		service, _, _, _, ctx := setupServiceTest(t)

		_, err := service.AddManualEvent(ctx, Event{DueAt: serviceNow})
		assert.ErrorIs(t, err, ErrInvalidEvent)

		_, err = service.AddManualEvent(ctx, Event{Title: "No due"})
		assert.ErrorIs(t, err, ErrInvalidEvent)
	})
}

func TestServiceImpl_ToggleCompleted(t *testing.T) {
	t.Run("should update a manual event in place", func(t *testing.T) {
		// given
		service, repo, _, _, ctx := setupServiceTest(t)
		stored, err := service.AddManualEvent(ctx, Event{Title: "Read paper", DueAt: serviceNow})
		require.NoError(t, err)

		// when
		err = service.ToggleCompleted(ctx, stored.ID)

		// then
		require.NoError(t, err)
		manual, err := repo.GetManualEvents(ctx, testUserId)
		require.NoError(t, err)
		require.Len(t, manual, 1)
		assert.True(t, manual[0].Completed)
	})

	t.Run("should record an override for synced events", func(t *testing.T) {
		// given
		service, repo, remote, _, ctx := setupServiceTest(t)
		remote.batch = []Event{{ID: "assignment-1", Title: "HW 1", SourceKind: SourceRemoteAPI, DueAt: serviceNow}}

		// when
		err := service.ToggleCompleted(ctx, "assignment-1")

		// then
		require.NoError(t, err)
		completions, err := repo.GetCompletions(ctx, testUserId)
		require.NoError(t, err)
		assert.True(t, completions["assignment-1"])

		// the override survives a batch replacement and keeps applying
		all, err := service.GetAll(ctx, Filter{})
		require.NoError(t, err)
		require.Len(t, all, 1)
		assert.True(t, all[0].Completed)
	})

	t.Run("should toggle back off through the override", func(t *testing.T) {
		service, _, remote, _, ctx := setupServiceTest(t)
		remote.batch = []Event{{ID: "assignment-1", Title: "HW 1", SourceKind: SourceRemoteAPI, DueAt: serviceNow}}

		require.NoError(t, service.ToggleCompleted(ctx, "assignment-1"))
		require.NoError(t, service.ToggleCompleted(ctx, "assignment-1"))

		all, err := service.GetAll(ctx, Filter{})
		require.NoError(t, err)
		require.Len(t, all, 1)
		assert.False(t, all[0].Completed)
	})

	t.Run("should report an unknown event", func(t *testing.T) {
		service, _, _, _, ctx := setupServiceTest(t)

		err := service.ToggleCompleted(ctx, "missing")

		assert.ErrorIs(t, err, ErrEventNotFound)
	})
}

func TestServiceImpl_DeleteManualEvent(t *testing.T) {
	t.Run("should delete and then report not found", func(t *testing.T) {
		service, _, _, _, ctx := setupServiceTest(t)
		stored, err := service.AddManualEvent(ctx, Event{Title: "Temp", DueAt: serviceNow})
		require.NoError(t, err)

		require.NoError(t, service.DeleteManualEvent(ctx, stored.ID))
		assert.ErrorIs(t, service.DeleteManualEvent(ctx, stored.ID), ErrEventNotFound)
	})
}
