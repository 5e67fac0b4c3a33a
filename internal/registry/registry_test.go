package registry

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/devaloi/huddle/internal/domain"
	"github.com/devaloi/huddle/internal/metrics"
	"github.com/devaloi/huddle/internal/store"
	"github.com/devaloi/huddle/internal/testutil"
)

func TestCreateMeeting(t *testing.T) {
	t.Parallel()
	req := require.New(t)
	s := testutil.NewMockStore()
	m := metrics.New()
	r := New(s, "/meeting.html", testutil.Logger(), m)
	ctx := context.Background()

	created, err := r.CreateMeeting(ctx)
	req.NoError(err)
	req.NotEmpty(created.ID)
	req.Equal("/meeting.html?id="+created.ID, created.URL)
	req.True(r.Exists(ctx, created.ID))
	req.Equal(1, s.Len())
	req.Equal(uint64(1), m.Get(metrics.MeetingsCreated))
}

func TestCreateMeetingRetriesOnCollision(t *testing.T) {
	t.Parallel()
	req := require.New(t)
	s := testutil.NewMockStore()
	ctx := context.Background()
	req.NoError(s.CreateMeeting(ctx, domain.Meeting{ID: "taken"}))

	r := New(s, "/meeting.html", testutil.Logger(), nil)
	ids := []string{"taken", "taken", "fresh"}
	r.newID = func() string {
		id := ids[0]
		ids = ids[1:]
		return id
	}

	created, err := r.CreateMeeting(ctx)
	req.NoError(err)
	req.Equal("fresh", created.ID)
	req.Equal(2, s.Len())
}

func TestCreateMeetingIDExhausted(t *testing.T) {
	t.Parallel()
	s := testutil.NewMockStore()
	ctx := context.Background()
	require.NoError(t, s.CreateMeeting(ctx, domain.Meeting{ID: "same"}))

	r := New(s, "/meeting.html", testutil.Logger(), nil)
	r.newID = func() string { return "same" }

	_, err := r.CreateMeeting(ctx)
	require.ErrorIs(t, err, ErrIDExhausted)
}

func TestCreateMeetingStoreFailure(t *testing.T) {
	t.Parallel()
	s := testutil.NewMockStore()
	s.Err = errors.New("disk full")
	r := New(s, "/meeting.html", testutil.Logger(), nil)

	_, err := r.CreateMeeting(context.Background())
	require.Error(t, err)
	require.True(t, strings.Contains(err.Error(), "disk full"))
}

func TestExistsUnknown(t *testing.T) {
	t.Parallel()
	r := New(testutil.NewMockStore(), "/meeting.html", testutil.Logger(), nil)
	ctx := context.Background()

	require.False(t, r.Exists(ctx, "nope"))
	require.False(t, r.Exists(ctx, ""))
}

func TestExistsFallsBackToStore(t *testing.T) {
	t.Parallel()
	s, err := store.NewSQLite(":memory:")
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	require.NoError(t, s.CreateMeeting(ctx, domain.Meeting{ID: "from-disk"}))

	r := New(s, "/meeting.html", testutil.Logger(), nil)
	m, ok := r.Meeting(ctx, "from-disk")
	require.True(t, ok)
	require.Equal(t, "from-disk", m.ID)
}

func TestCreateMeetingConcurrentUnique(t *testing.T) {
	t.Parallel()
	r := New(testutil.NewMockStore(), "/meeting.html", testutil.Logger(), nil)
	ctx := context.Background()

	const n = 50
	var (
		mu  sync.Mutex
		ids = make(map[string]bool)
		wg  sync.WaitGroup
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			created, err := r.CreateMeeting(ctx)
			if err != nil {
				t.Errorf("create: %v", err)
				return
			}
			mu.Lock()
			ids[created.ID] = true
			mu.Unlock()
		}()
	}
	wg.Wait()

	if len(ids) != n {
		t.Errorf("expected %d unique ids, got %d", n, len(ids))
	}
}
