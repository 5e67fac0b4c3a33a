package hub

import (
	"context"
	"errors"
	"fmt"

	"github.com/devaloi/huddle/internal/domain"
	"github.com/devaloi/huddle/internal/metrics"
)

// Connect registers a new connection and acknowledges it with its session id.
func (h *Hub) Connect(c Conn) error {
	sid := c.SessionID()
	if err := h.sessions.Add(c); err != nil {
		return fmt.Errorf("connect %s: %w", sid, err)
	}
	h.metrics.Inc(metrics.ConnectionsOpened)
	h.log.Info("client connected", "sid", sid)
	h.send(sid, domain.EvConnected, domain.ConnectedEvent{SID: sid})
	return nil
}

// JoinMeeting joins sid to a meeting. Existing members learn about the joiner
// and the joiner receives the members that were there before it, both derived
// from the same committed membership.
func (h *Hub) JoinMeeting(ctx context.Context, sid string, p domain.JoinMeetingPayload) {
	username := p.Username
	if username == "" {
		username = domain.DefaultUsername
	}

	res, err := h.dir.Join(ctx, p.MeetingID, sid, username, func(res JoinResult) {
		if !res.Rejoined {
			joined, ok := h.encode(domain.EvParticipantJoined, domain.ParticipantJoinedEvent{
				SID:              sid,
				Username:         username,
				ParticipantCount: res.Count,
			})
			if ok {
				h.fanOut(res.Existing, sid, joined)
			}
		}
		h.send(sid, domain.EvMeetingJoined, domain.MeetingJoinedEvent{
			MeetingID:        res.MeetingID,
			Participants:     res.Existing,
			ParticipantCount: res.Count,
			YourSID:          sid,
		})
	})
	if errors.Is(err, domain.ErrMeetingNotFound) {
		h.metrics.Inc(metrics.JoinsRejected)
		h.log.Warn("join rejected", "sid", sid, "meeting_id", p.MeetingID, "err", err)
		h.sendError(sid, "Meeting not found")
		return
	}
	if err != nil {
		h.log.Error("join failed", "sid", sid, "meeting_id", p.MeetingID, "err", err)
		return
	}

	if res.Rejoined {
		h.metrics.Inc(metrics.Rejoins)
		h.log.Debug("rejoin ignored", "sid", sid, "meeting_id", p.MeetingID)
		return
	}
	h.metrics.Inc(metrics.Joins)
	h.log.Info("participant joined", "sid", sid, "meeting_id", p.MeetingID, "participant_count", res.Count)
}

// LeaveMeeting removes sid from a meeting and notifies the remaining members.
// Leaving a meeting sid is not in is a no-op.
func (h *Hub) LeaveMeeting(_ context.Context, sid string, p domain.LeaveMeetingPayload) {
	count, ok := h.dir.Leave(p.MeetingID, sid, func(remaining []string) {
		h.notifyLeft(sid, remaining)
	})
	if !ok {
		return
	}
	h.metrics.Inc(metrics.Leaves)
	h.log.Info("participant left", "sid", sid, "meeting_id", p.MeetingID, "participant_count", count)
}

// Disconnect removes sid from every meeting it joined, notifying each room
// once, and forgets the connection.
func (h *Hub) Disconnect(sid string) {
	departures := h.dir.RemoveFromAllRooms(sid, func(_ string, remaining []string) {
		h.notifyLeft(sid, remaining)
	})
	for _, d := range departures {
		h.metrics.Inc(metrics.Leaves)
		h.log.Info("participant left", "sid", sid, "meeting_id", d.MeetingID, "participant_count", d.Count)
	}

	if h.sessions.Remove(sid) {
		h.metrics.Inc(metrics.ConnectionsClosed)
		h.log.Info("client disconnected", "sid", sid, "rooms", len(departures))
	}
}

func (h *Hub) notifyLeft(sid string, remaining []string) {
	left, ok := h.encode(domain.EvParticipantLeft, domain.ParticipantLeftEvent{
		SID:              sid,
		ParticipantCount: len(remaining),
	})
	if ok {
		h.fanOut(remaining, sid, left)
	}
}
