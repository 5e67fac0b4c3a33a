package testutil

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/mama165/sdk-go/logs"

	"github.com/devaloi/huddle/internal/domain"
	"github.com/devaloi/huddle/internal/store"
)

// Logger returns a logger for tests.
func Logger() *slog.Logger {
	return logs.GetLoggerFromLevel(slog.LevelWarn)
}

// MockConn implements hub.Conn for testing.
type MockConn struct {
	ID     string
	frames [][]byte
	mu     sync.Mutex
}

// NewMockConn creates a new MockConn with the given session id.
func NewMockConn(id string) *MockConn {
	return &MockConn{ID: id}
}

// SessionID returns the mock connection's session id.
func (m *MockConn) SessionID() string { return m.ID }

// Send records a frame sent to the mock connection.
func (m *MockConn) Send(data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]byte, len(data))
	copy(cp, data)
	m.frames = append(m.frames, cp)
}

// Envelopes returns every frame received so far, decoded.
func (m *MockConn) Envelopes() []domain.Envelope {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Envelope, 0, len(m.frames))
	for _, f := range m.frames {
		var env domain.Envelope
		if err := json.Unmarshal(f, &env); err == nil {
			out = append(out, env)
		}
	}
	return out
}

// Events returns the data of every received frame with the given event name.
func (m *MockConn) Events(name string) []json.RawMessage {
	var out []json.RawMessage
	for _, env := range m.Envelopes() {
		if env.Event == name {
			out = append(out, env.Data)
		}
	}
	return out
}

// Reset forgets all recorded frames.
func (m *MockConn) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.frames = nil
}

// Decode unmarshals event data, panicking on malformed input.
func Decode[T any](data json.RawMessage) T {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		panic(err)
	}
	return v
}

// MockStore implements store.MeetingStore for testing.
type MockStore struct {
	mu       sync.Mutex
	meetings map[string]domain.Meeting
	// Err, when set, is returned by every CreateMeeting call.
	Err error
}

// NewMockStore creates a new MockStore.
func NewMockStore() *MockStore {
	return &MockStore{meetings: make(map[string]domain.Meeting)}
}

// CreateMeeting records m unless its id is taken.
func (s *MockStore) CreateMeeting(_ context.Context, m domain.Meeting) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	if _, ok := s.meetings[m.ID]; ok {
		return store.ErrDuplicateMeeting
	}
	s.meetings[m.ID] = m
	return nil
}

// Meeting returns a recorded meeting.
func (s *MockStore) Meeting(_ context.Context, id string) (domain.Meeting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.meetings[id]
	if !ok {
		return domain.Meeting{}, store.ErrNotFound
	}
	return m, nil
}

// Len returns the number of recorded meetings.
func (s *MockStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.meetings)
}

// Close is a no-op for the mock store.
func (s *MockStore) Close() error { return nil }

// StaticMeetings is a fixed set of meeting ids implementing hub.MeetingLookup.
type StaticMeetings map[string]bool

// Meetings builds a StaticMeetings from ids.
func Meetings(ids ...string) StaticMeetings {
	s := make(StaticMeetings, len(ids))
	for _, id := range ids {
		s[id] = true
	}
	return s
}

// Exists reports whether id is in the set.
func (s StaticMeetings) Exists(_ context.Context, id string) bool { return s[id] }
