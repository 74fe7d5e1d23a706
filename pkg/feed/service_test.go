package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dueview/dueview/internal/event_bus"
	"github.com/dueview/dueview/internal/utils"
	"github.com/dueview/dueview/pkg/user"
)

const testUserId = 123

const sampleFeed = `BEGIN:VCALENDAR
BEGIN:VEVENT
SUMMARY:[CS101] Homework 2
DTSTART:20251210T235900Z
END:VEVENT
BEGIN:VEVENT
SUMMARY:Pop Quiz
DTSTART:20251201T120000Z
END:VEVENT
END:VCALENDAR`

func ctxWithUserId(userId int) context.Context {
	return context.WithValue(context.Background(), user.UserKey, user.User{
		Id:          userId,
		Uid:         uuid.NewString(),
		Username:    "test-user-1",
		DisplayName: "Test User 1",
	})
}

func setupServiceTest(t *testing.T) (*ServiceImpl, *RepositoryStub, context.Context) {
	repo := NewRepositoryStub()
	clock := &utils.MockClock{FixedNow: time.Date(2025, 11, 20, 12, 0, 0, 0, time.UTC)}
	service := NewService(repo, clock, event_bus.NewEventBus())
	ctx := ctxWithUserId(testUserId)
	t.Cleanup(repo.Reset)
	return service, repo, ctx
}

func TestServiceImpl_ImportText(t *testing.T) {
	t.Run("should parse, sort by due time and store the batch", func(t *testing.T) {
		// given
		service, repo, ctx := setupServiceTest(t)

		// when
		parsed, err := service.ImportText(ctx, sampleFeed)

		// then
		require.NoError(t, err)
		require.Len(t, parsed, 2)
		assert.Equal(t, "Pop Quiz", parsed[0].Title)
		assert.Equal(t, "[CS101] Homework 2", parsed[1].Title)

		stored, importedAt, err := repo.GetBatch(ctx, testUserId)
		require.NoError(t, err)
		assert.Len(t, stored, 2)
		require.NotNil(t, importedAt)
	})

	t.Run("should replace the previous batch wholesale", func(t *testing.T) {
		// given
		service, repo, ctx := setupServiceTest(t)
		_, err := service.ImportText(ctx, sampleFeed)
		require.NoError(t, err)

		// when
		_, err = service.ImportText(ctx, `BEGIN:VEVENT
SUMMARY:Only one left
DTSTART:20251215T120000Z
END:VEVENT`)

		// then
		require.NoError(t, err)
		stored, _, err := repo.GetBatch(ctx, testUserId)
		require.NoError(t, err)
		require.Len(t, stored, 1)
		assert.Equal(t, "Only one left", stored[0].Title)
	})

	t.Run("should reject empty text", func(t *testing.T) {
		service, _, ctx := setupServiceTest(t)

		_, err := service.ImportText(ctx, "")

		assert.ErrorIs(t, err, ErrEmptyFeed)
	})
}

func TestServiceImpl_ImportFile(t *testing.T) {
	t.Run("should accept an .ics file regardless of case", func(t *testing.T) {
		service, _, ctx := setupServiceTest(t)

		parsed, err := service.ImportFile(ctx, "Deadlines.ICS", []byte(sampleFeed))

		require.NoError(t, err)
		assert.Len(t, parsed, 2)
	})

	t.Run("should reject other extensions", func(t *testing.T) {
		service, _, ctx := setupServiceTest(t)

		_, err := service.ImportFile(ctx, "deadlines.csv", []byte(sampleFeed))

		assert.ErrorIs(t, err, ErrNotCalendar)
	})
}

func TestServiceImpl_ImportURL(t *testing.T) {
	t.Run("should fetch and parse a feed served as text/calendar", func(t *testing.T) {
		// given
		service, _, ctx := setupServiceTest(t)
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
			_, _ = w.Write([]byte(sampleFeed))
		}))
		defer server.Close()

		// when
		parsed, err := service.ImportURL(ctx, server.URL)

		// then
		require.NoError(t, err)
		assert.Len(t, parsed, 2)
	})

	t.Run("should accept a .ics URL even without the calendar content type", func(t *testing.T) {
		service, _, ctx := setupServiceTest(t)
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/octet-stream")
			_, _ = w.Write([]byte(sampleFeed))
		}))
		defer server.Close()

		parsed, err := service.ImportURL(ctx, server.URL+"/deadlines.ics")

		require.NoError(t, err)
		assert.Len(t, parsed, 2)
	})

	t.Run("should reject a response that is not a calendar", func(t *testing.T) {
		service, _, ctx := setupServiceTest(t)
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte("<html></html>"))
		}))
		defer server.Close()

		_, err := service.ImportURL(ctx, server.URL)

		assert.ErrorIs(t, err, ErrNotCalendar)
	})

	t.Run("should reject non-http URLs", func(t *testing.T) {
		service, _, ctx := setupServiceTest(t)

		_, err := service.ImportURL(ctx, "ftp://example.edu/deadlines.ics")

		assert.ErrorIs(t, err, ErrInvalidURL)
	})

	t.Run("should surface a transport failure as a network error", func(t *testing.T) {
		service, _, ctx := setupServiceTest(t)
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		server.Close() // connection refused from here on

		_, err := service.ImportURL(ctx, server.URL)

		assert.ErrorIs(t, err, ErrNetwork)
	})

	t.Run("should report a non-200 response", func(t *testing.T) {
		service, _, ctx := setupServiceTest(t)
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()

		_, err := service.ImportURL(ctx, server.URL)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "HTTP 404")
	})
}
