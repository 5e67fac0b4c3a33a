package domain

import (
	"encoding/json"
	"errors"
)

// Inbound event names.
const (
	EvJoinMeeting   = "join_meeting"
	EvLeaveMeeting  = "leave_meeting"
	EvAudioStream   = "audio_stream"
	EvTranscription = "transcription"
	EvOffer         = "webrtc_offer"
	EvAnswer        = "webrtc_answer"
	EvICECandidate  = "webrtc_ice_candidate"
)

// Outbound event names. The WebRTC relays reuse their inbound names.
const (
	EvConnected             = "connected"
	EvMeetingJoined         = "meeting_joined"
	EvParticipantJoined     = "participant_joined"
	EvParticipantLeft       = "participant_left"
	EvAudioReceived         = "audio_received"
	EvTranscriptionReceived = "transcription_received"
	EvError                 = "error"
)

// DefaultUsername is used when a join carries no username.
const DefaultUsername = "Anonymous"

// Envelope is the frame exchanged over the socket in both directions.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// JoinMeetingPayload is the data of a join_meeting event.
type JoinMeetingPayload struct {
	MeetingID string `json:"meeting_id"`
	Username  string `json:"username"`
}

// LeaveMeetingPayload is the data of a leave_meeting event.
type LeaveMeetingPayload struct {
	MeetingID string `json:"meeting_id"`
}

// AudioStreamPayload carries an opaque audio chunk for the room.
type AudioStreamPayload struct {
	MeetingID string          `json:"meeting_id"`
	Audio     json.RawMessage `json:"audio"`
}

// TranscriptionPayload carries transcription text for the room.
type TranscriptionPayload struct {
	MeetingID string          `json:"meeting_id"`
	Text      json.RawMessage `json:"text"`
	IsFinal   bool            `json:"is_final"`
	Timestamp json.RawMessage `json:"timestamp"`
}

// OfferPayload is a WebRTC offer addressed to one session.
type OfferPayload struct {
	MeetingID string          `json:"meeting_id"`
	Target    string          `json:"target"`
	Offer     json.RawMessage `json:"offer"`
}

// AnswerPayload is a WebRTC answer addressed to one session.
type AnswerPayload struct {
	Target string          `json:"target"`
	Answer json.RawMessage `json:"answer"`
}

// ICECandidatePayload is an ICE candidate addressed to one session.
type ICECandidatePayload struct {
	Target    string          `json:"target"`
	Candidate json.RawMessage `json:"candidate"`
}

// ConnectedEvent acknowledges a new connection.
type ConnectedEvent struct {
	SID string `json:"sid"`
}

// MeetingJoinedEvent confirms a join to the joiner.
type MeetingJoinedEvent struct {
	MeetingID        string   `json:"meeting_id"`
	Participants     []string `json:"participants"`
	ParticipantCount int      `json:"participant_count"`
	YourSID          string   `json:"your_sid"`
}

// ParticipantJoinedEvent tells existing members about a new joiner.
type ParticipantJoinedEvent struct {
	SID              string `json:"sid"`
	Username         string `json:"username"`
	ParticipantCount int    `json:"participant_count"`
}

// ParticipantLeftEvent tells remaining members that a session left.
type ParticipantLeftEvent struct {
	SID              string `json:"sid"`
	ParticipantCount int    `json:"participant_count"`
}

// AudioReceivedEvent is an audio chunk fanned out to the room.
type AudioReceivedEvent struct {
	SID   string          `json:"sid"`
	Audio json.RawMessage `json:"audio"`
}

// TranscriptionReceivedEvent is transcription text fanned out to the room.
type TranscriptionReceivedEvent struct {
	SID       string          `json:"sid"`
	Text      json.RawMessage `json:"text"`
	IsFinal   bool            `json:"is_final"`
	Timestamp json.RawMessage `json:"timestamp"`
}

// OfferEvent is a relayed WebRTC offer.
type OfferEvent struct {
	Offer  json.RawMessage `json:"offer"`
	Sender string          `json:"sender"`
}

// AnswerEvent is a relayed WebRTC answer.
type AnswerEvent struct {
	Answer json.RawMessage `json:"answer"`
	Sender string          `json:"sender"`
}

// ICECandidateEvent is a relayed ICE candidate.
type ICECandidateEvent struct {
	Candidate json.RawMessage `json:"candidate"`
	Sender    string          `json:"sender"`
}

// ErrorEvent reports an error to a single client.
type ErrorEvent struct {
	Message string `json:"message"`
}

// Encode wraps data in an Envelope for the given event and serializes it.
func Encode(event string, data any) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Event: event, Data: raw})
}

// DecodeEnvelope deserializes a frame. A frame without an event name is rejected.
func DecodeEnvelope(frame []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return env, err
	}
	if env.Event == "" {
		return env, errors.New("missing event name")
	}
	return env, nil
}

// DecodePayload unmarshals event data into v. Absent data decodes as an empty object.
func DecodePayload(data json.RawMessage, v any) error {
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	return json.Unmarshal(data, v)
}
