package domain

import "time"

// Meeting is an immutable meeting record. Its ID doubles as the room key.
type Meeting struct {
	ID        string    `json:"meeting_id"`
	CreatedAt time.Time `json:"created_at"`
}

// MeetingInfo describes a meeting and its current occupancy.
type MeetingInfo struct {
	ID               string    `json:"meeting_id"`
	CreatedAt        time.Time `json:"created_at"`
	ParticipantCount int       `json:"participant_count"`
}
