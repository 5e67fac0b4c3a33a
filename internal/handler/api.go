package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/pion/webrtc/v4"

	"github.com/devaloi/huddle/internal/hub"
	"github.com/devaloi/huddle/internal/registry"
)

type createMeetingResponse struct {
	Success bool   `json:"success"`
	ID      string `json:"meeting_id,omitempty"`
	URL     string `json:"meeting_url,omitempty"`
	Error   string `json:"error,omitempty"`
}

type meetingInfoResponse struct {
	ID               string    `json:"meeting_id"`
	CreatedAt        time.Time `json:"created_at"`
	ParticipantCount int       `json:"participant_count"`
}

type iceServersResponse struct {
	ICEServers []webrtc.ICEServer `json:"ice_servers"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// Health returns a simple health check handler.
func Health() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// CreateMeeting allocates a new meeting and returns its id and join URL.
func CreateMeeting(reg *registry.Registry, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		created, err := reg.CreateMeeting(r.Context())
		if err != nil {
			log.Error("create meeting failed", "err", err)
			writeJSON(w, http.StatusInternalServerError, createMeetingResponse{Error: "could not create meeting"})
			return
		}
		writeJSON(w, http.StatusOK, createMeetingResponse{Success: true, ID: created.ID, URL: created.URL})
	}
}

// MeetingInfo returns details about a specific meeting: /api/meetings/{id}.
func MeetingInfo(reg *registry.Registry, h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		m, ok := reg.Meeting(r.Context(), id)
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "meeting not found"})
			return
		}
		writeJSON(w, http.StatusOK, meetingInfoResponse{
			ID:               m.ID,
			CreatedAt:        m.CreatedAt,
			ParticipantCount: h.Directory().Count(m.ID),
		})
	}
}

// ICEServers returns the configured STUN/TURN servers for peer connections.
func ICEServers(servers []webrtc.ICEServer) http.HandlerFunc {
	if servers == nil {
		servers = []webrtc.ICEServer{}
	}
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, iceServersResponse{ICEServers: servers})
	}
}
