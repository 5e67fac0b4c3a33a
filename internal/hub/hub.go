package hub

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/devaloi/huddle/internal/domain"
	"github.com/devaloi/huddle/internal/metrics"
)

type handlerFunc func(ctx context.Context, sid string, data json.RawMessage) error

// Hub reacts to connection lifecycle events and routes signaling messages
// between sessions. It holds no lock of its own: room state is guarded by the
// Directory and live connections by the Sessions table.
type Hub struct {
	dir      *Directory
	sessions *Sessions
	log      *slog.Logger
	metrics  *metrics.Metrics
	handlers map[string]handlerFunc
}

// New creates a Hub whose joins are validated against meetings.
func New(meetings MeetingLookup, log *slog.Logger, m *metrics.Metrics) *Hub {
	h := &Hub{
		dir:      NewDirectory(meetings),
		sessions: NewSessions(),
		log:      log,
		metrics:  m,
	}
	h.handlers = map[string]handlerFunc{
		domain.EvJoinMeeting:   handle(h.JoinMeeting),
		domain.EvLeaveMeeting:  handle(h.LeaveMeeting),
		domain.EvAudioStream:   handle(h.AudioStream),
		domain.EvTranscription: handle(h.Transcription),
		domain.EvOffer:         handle(h.Offer),
		domain.EvAnswer:        handle(h.Answer),
		domain.EvICECandidate:  handle(h.ICECandidate),
	}
	return h
}

// handle adapts a typed event handler to the dispatch table.
func handle[T any](fn func(ctx context.Context, sid string, p T)) handlerFunc {
	return func(ctx context.Context, sid string, data json.RawMessage) error {
		var p T
		if err := domain.DecodePayload(data, &p); err != nil {
			return err
		}
		fn(ctx, sid, p)
		return nil
	}
}

// Dispatch routes one inbound event from sid to its handler. Unknown events
// and undecodable payloads are reported to sid only.
func (h *Hub) Dispatch(ctx context.Context, sid, event string, data json.RawMessage) {
	fn, ok := h.handlers[event]
	if !ok {
		h.metrics.Inc(metrics.InvalidFrames)
		h.log.Debug("unknown event", "sid", sid, "event", event)
		h.sendError(sid, "unknown event: "+event)
		return
	}
	h.log.Debug("dispatch", "sid", sid, "event", event)
	if err := fn(ctx, sid, data); err != nil {
		h.metrics.Inc(metrics.InvalidFrames)
		h.log.Debug("invalid payload", "sid", sid, "event", event, "err", err)
		h.sendError(sid, "invalid payload for "+event)
	}
}

// Directory exposes the participant directory.
func (h *Hub) Directory() *Directory {
	return h.dir
}

// ConnectionCount returns the number of live connections.
func (h *Hub) ConnectionCount() int {
	return h.sessions.Len()
}

// send encodes a single event and queues it for sid, if sid is connected.
func (h *Hub) send(sid, event string, v any) {
	c, ok := h.sessions.Get(sid)
	if !ok {
		return
	}
	if data, ok := h.encode(event, v); ok {
		c.Send(data)
	}
}

func (h *Hub) sendError(sid, message string) {
	h.send(sid, domain.EvError, domain.ErrorEvent{Message: message})
}

// fanOut queues data for every member except exclude and returns how many
// connections it reached.
func (h *Hub) fanOut(members []string, exclude string, data []byte) int {
	n := 0
	for _, sid := range members {
		if sid == exclude {
			continue
		}
		if c, ok := h.sessions.Get(sid); ok {
			c.Send(data)
			n++
		}
	}
	return n
}

func (h *Hub) encode(event string, v any) ([]byte, bool) {
	data, err := domain.Encode(event, v)
	if err != nil {
		h.log.Error("encode failed", "event", event, "err", err)
		return nil, false
	}
	return data, true
}
