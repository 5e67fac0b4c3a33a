package store

import (
	"context"
	"errors"

	"github.com/devaloi/huddle/internal/domain"
)

var (
	// ErrDuplicateMeeting is returned when a meeting id is already taken.
	ErrDuplicateMeeting = errors.New("duplicate meeting id")
	// ErrNotFound is returned when no meeting has the requested id.
	ErrNotFound = errors.New("meeting not found")
)

// MeetingStore defines the meeting record persistence interface.
type MeetingStore interface {
	// CreateMeeting inserts m, or returns ErrDuplicateMeeting if its id exists.
	CreateMeeting(ctx context.Context, m domain.Meeting) error
	// Meeting returns the record for id, or ErrNotFound.
	Meeting(ctx context.Context, id string) (domain.Meeting, error)
	// Close releases any resources held by the store.
	Close() error
}
