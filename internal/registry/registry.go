package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/devaloi/huddle/internal/domain"
	"github.com/devaloi/huddle/internal/metrics"
	"github.com/devaloi/huddle/internal/store"
)

// maxCreateAttempts bounds id regeneration on collision.
const maxCreateAttempts = 5

// ErrIDExhausted is returned when every generated id collided.
var ErrIDExhausted = errors.New("could not allocate a unique meeting id")

// Created is the result of CreateMeeting.
type Created struct {
	ID  string `json:"meeting_id"`
	URL string `json:"meeting_url"`
}

// Registry creates and looks up meetings. Records are immutable once created,
// so the cache never needs invalidation.
type Registry struct {
	store   store.MeetingStore
	urlBase string
	log     *slog.Logger
	metrics *metrics.Metrics

	newID func() string
	now   func() time.Time

	mu    sync.RWMutex
	known map[string]domain.Meeting
}

// New creates a Registry backed by s. urlBase prefixes the join URL, e.g.
// "/meeting.html".
func New(s store.MeetingStore, urlBase string, log *slog.Logger, m *metrics.Metrics) *Registry {
	return &Registry{
		store:   s,
		urlBase: urlBase,
		log:     log,
		metrics: m,
		newID:   uuid.NewString,
		now:     func() time.Time { return time.Now().UTC() },
		known:   make(map[string]domain.Meeting),
	}
}

// CreateMeeting allocates a fresh meeting and returns its id and join URL.
func (r *Registry) CreateMeeting(ctx context.Context) (Created, error) {
	for attempt := 0; attempt < maxCreateAttempts; attempt++ {
		m := domain.Meeting{ID: r.newID(), CreatedAt: r.now()}
		err := r.store.CreateMeeting(ctx, m)
		if errors.Is(err, store.ErrDuplicateMeeting) {
			r.log.Warn("meeting id collision, retrying", "meeting_id", m.ID, "attempt", attempt+1)
			continue
		}
		if err != nil {
			return Created{}, fmt.Errorf("create meeting: %w", err)
		}

		r.mu.Lock()
		r.known[m.ID] = m
		r.mu.Unlock()

		r.metrics.Inc(metrics.MeetingsCreated)
		r.log.Info("meeting created", "meeting_id", m.ID)
		return Created{ID: m.ID, URL: r.meetingURL(m.ID)}, nil
	}
	return Created{}, ErrIDExhausted
}

// Exists reports whether a meeting with the given id has been created.
func (r *Registry) Exists(ctx context.Context, id string) bool {
	_, ok := r.Meeting(ctx, id)
	return ok
}

// Meeting returns the meeting record for id.
func (r *Registry) Meeting(ctx context.Context, id string) (domain.Meeting, bool) {
	if id == "" {
		return domain.Meeting{}, false
	}

	r.mu.RLock()
	m, ok := r.known[id]
	r.mu.RUnlock()
	if ok {
		return m, true
	}

	m, err := r.store.Meeting(ctx, id)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			r.log.Error("meeting lookup failed", "meeting_id", id, "err", err)
		}
		return domain.Meeting{}, false
	}

	r.mu.Lock()
	r.known[id] = m
	r.mu.Unlock()
	return m, true
}

func (r *Registry) meetingURL(id string) string {
	return r.urlBase + "?id=" + url.QueryEscape(id)
}
