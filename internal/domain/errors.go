package domain

import "errors"

var (
	// ErrMeetingNotFound is returned when a join references an unknown meeting id.
	ErrMeetingNotFound = errors.New("meeting not found")
	// ErrDuplicateSession is returned when a session id is already connected.
	ErrDuplicateSession = errors.New("session already connected")
)
