package hub

import (
	"context"

	"github.com/devaloi/huddle/internal/domain"
	"github.com/devaloi/huddle/internal/metrics"
)

// AudioStream fans an audio chunk out to the room, excluding the sender.
func (h *Hub) AudioStream(_ context.Context, sid string, p domain.AudioStreamPayload) {
	h.broadcast(p.MeetingID, sid, domain.EvAudioReceived, domain.AudioReceivedEvent{
		SID:   sid,
		Audio: p.Audio,
	})
}

// Transcription fans transcription text out to the room, excluding the sender.
func (h *Hub) Transcription(_ context.Context, sid string, p domain.TranscriptionPayload) {
	h.broadcast(p.MeetingID, sid, domain.EvTranscriptionReceived, domain.TranscriptionReceivedEvent{
		SID:       sid,
		Text:      p.Text,
		IsFinal:   p.IsFinal,
		Timestamp: p.Timestamp,
	})
}

// Offer relays a WebRTC offer to its target session.
func (h *Hub) Offer(_ context.Context, sid string, p domain.OfferPayload) {
	h.relay(sid, p.Target, domain.EvOffer, domain.OfferEvent{Offer: p.Offer, Sender: sid})
}

// Answer relays a WebRTC answer to its target session.
func (h *Hub) Answer(_ context.Context, sid string, p domain.AnswerPayload) {
	h.relay(sid, p.Target, domain.EvAnswer, domain.AnswerEvent{Answer: p.Answer, Sender: sid})
}

// ICECandidate relays an ICE candidate to its target session.
func (h *Hub) ICECandidate(_ context.Context, sid string, p domain.ICECandidatePayload) {
	h.relay(sid, p.Target, domain.EvICECandidate, domain.ICECandidateEvent{Candidate: p.Candidate, Sender: sid})
}

// broadcast delivers to every member of a room but the sender. Unknown and
// empty rooms are silently ignored.
func (h *Hub) broadcast(meetingID, sender, event string, v any) {
	data, ok := h.encode(event, v)
	if !ok {
		return
	}
	var n int
	if !h.dir.Members(meetingID, func(members []string) {
		n = h.fanOut(members, sender, data)
	}) {
		return
	}
	h.metrics.Inc(metrics.Broadcasts)
	h.log.Debug("broadcast", "sid", sender, "meeting_id", meetingID, "event", event, "recipients", n)
}

// relay delivers to exactly one session regardless of room membership. A
// target that is gone is dropped without telling the sender.
func (h *Hub) relay(sender, target, event string, v any) {
	c, ok := h.sessions.Get(target)
	if !ok {
		h.metrics.Inc(metrics.RelaysDropped)
		h.log.Debug("relay target gone", "sid", sender, "target", target, "event", event)
		return
	}
	data, ok := h.encode(event, v)
	if !ok {
		return
	}
	c.Send(data)
	h.metrics.Inc(metrics.Relays)
	h.log.Debug("relay", "sid", sender, "target", target, "event", event)
}
