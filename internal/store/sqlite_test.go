package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/devaloi/huddle/internal/domain"
)

func TestSQLiteCreateAndGet(t *testing.T) {
	t.Parallel()
	s, err := NewSQLite(":memory:")
	if err != nil {
		t.Fatalf("new sqlite: %v", err)
	}
	defer s.Close()

	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)
	if err := s.CreateMeeting(ctx, domain.Meeting{ID: "m1", CreatedAt: now}); err != nil {
		t.Fatalf("create: %v", err)
	}

	m, err := s.Meeting(ctx, "m1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if m.ID != "m1" {
		t.Errorf("id: got %q, want %q", m.ID, "m1")
	}
	if !m.CreatedAt.Equal(now) {
		t.Errorf("created_at: got %v, want %v", m.CreatedAt, now)
	}
}

func TestSQLiteDuplicateMeeting(t *testing.T) {
	t.Parallel()
	s, err := NewSQLite(":memory:")
	if err != nil {
		t.Fatalf("new sqlite: %v", err)
	}
	defer s.Close()

	ctx := context.Background()
	if err := s.CreateMeeting(ctx, domain.Meeting{ID: "m1"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	err = s.CreateMeeting(ctx, domain.Meeting{ID: "m1"})
	if !errors.Is(err, ErrDuplicateMeeting) {
		t.Errorf("expected ErrDuplicateMeeting, got %v", err)
	}
}

func TestSQLiteNotFound(t *testing.T) {
	t.Parallel()
	s, err := NewSQLite(":memory:")
	if err != nil {
		t.Fatalf("new sqlite: %v", err)
	}
	defer s.Close()

	if _, err := s.Meeting(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSQLiteFileReopen(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "huddle.db")

	s, err := NewSQLite(path)
	if err != nil {
		t.Fatalf("new sqlite: %v", err)
	}
	if err := s.CreateMeeting(context.Background(), domain.Meeting{ID: "kept"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	s.Close()

	s, err = NewSQLite(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	if _, err := s.Meeting(context.Background(), "kept"); err != nil {
		t.Errorf("expected meeting after reopen, got %v", err)
	}
}
