package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/devaloi/huddle/internal/domain"
	"github.com/devaloi/huddle/internal/hub"
	"github.com/devaloi/huddle/internal/metrics"
	"github.com/devaloi/huddle/internal/testutil"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func setupTestServer(h *hub.Hub, opts Options) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		go New(h, conn, opts).Serve(context.Background())
	}))
}

func dialWS(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(url, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	return conn
}

func readEnvelope(t *testing.T, conn *websocket.Conn) domain.Envelope {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	env, err := domain.DecodeEnvelope(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	return env
}

func readSID(t *testing.T, conn *websocket.Conn) string {
	t.Helper()
	env := readEnvelope(t, conn)
	if env.Event != domain.EvConnected {
		t.Fatalf("expected connected, got %s", env.Event)
	}
	return testutil.Decode[domain.ConnectedEvent](env.Data).SID
}

func writeEvent(t *testing.T, conn *websocket.Conn, frame string) {
	t.Helper()
	if err := conn.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestClientConnectedAck(t *testing.T) {
	t.Parallel()
	h := hub.New(testutil.Meetings(), testutil.Logger(), nil)
	server := setupTestServer(h, Options{Logger: testutil.Logger()})
	defer server.Close()

	conn := dialWS(t, server.URL)
	defer conn.Close()

	sid := readSID(t, conn)
	if sid == "" {
		t.Error("expected a session id")
	}
}

func TestClientInvalidJSON(t *testing.T) {
	t.Parallel()
	h := hub.New(testutil.Meetings(), testutil.Logger(), nil)
	server := setupTestServer(h, Options{Logger: testutil.Logger()})
	defer server.Close()

	conn := dialWS(t, server.URL)
	defer conn.Close()
	readSID(t, conn)

	writeEvent(t, conn, "not json")
	env := readEnvelope(t, conn)
	require.Equal(t, domain.EvError, env.Event)
	require.Equal(t, "invalid JSON", testutil.Decode[domain.ErrorEvent](env.Data).Message)
}

func TestClientJoinAndRelay(t *testing.T) {
	t.Parallel()
	req := require.New(t)
	h := hub.New(testutil.Meetings("m1"), testutil.Logger(), nil)
	server := setupTestServer(h, Options{Logger: testutil.Logger()})
	defer server.Close()

	alice := dialWS(t, server.URL)
	defer alice.Close()
	bob := dialWS(t, server.URL)
	defer bob.Close()
	aliceSID := readSID(t, alice)
	bobSID := readSID(t, bob)

	writeEvent(t, alice, `{"event":"join_meeting","data":{"meeting_id":"m1","username":"alice"}}`)
	req.Equal(domain.EvMeetingJoined, readEnvelope(t, alice).Event)

	writeEvent(t, bob, `{"event":"join_meeting","data":{"meeting_id":"m1","username":"bob"}}`)
	joined := readEnvelope(t, bob)
	req.Equal(domain.EvMeetingJoined, joined.Event)
	req.Equal([]string{aliceSID}, testutil.Decode[domain.MeetingJoinedEvent](joined.Data).Participants)
	req.Equal(domain.EvParticipantJoined, readEnvelope(t, alice).Event)

	offer, _ := json.Marshal(map[string]any{
		"event": "webrtc_offer",
		"data":  map[string]any{"meeting_id": "m1", "target": bobSID, "offer": map[string]string{"type": "offer", "sdp": "v=0"}},
	})
	writeEvent(t, alice, string(offer))

	env := readEnvelope(t, bob)
	req.Equal(domain.EvOffer, env.Event)
	ev := testutil.Decode[domain.OfferEvent](env.Data)
	req.Equal(aliceSID, ev.Sender)
	req.JSONEq(`{"type":"offer","sdp":"v=0"}`, string(ev.Offer))
}

func TestClientDisconnectNotifiesRoom(t *testing.T) {
	t.Parallel()
	h := hub.New(testutil.Meetings("m1"), testutil.Logger(), nil)
	server := setupTestServer(h, Options{Logger: testutil.Logger()})
	defer server.Close()

	alice := dialWS(t, server.URL)
	defer alice.Close()
	bob := dialWS(t, server.URL)
	readSID(t, alice)
	bobSID := readSID(t, bob)

	writeEvent(t, alice, `{"event":"join_meeting","data":{"meeting_id":"m1"}}`)
	readEnvelope(t, alice)
	writeEvent(t, bob, `{"event":"join_meeting","data":{"meeting_id":"m1"}}`)
	readEnvelope(t, bob)
	readEnvelope(t, alice) // participant_joined

	bob.Close()

	env := readEnvelope(t, alice)
	require.Equal(t, domain.EvParticipantLeft, env.Event)
	left := testutil.Decode[domain.ParticipantLeftEvent](env.Data)
	require.Equal(t, bobSID, left.SID)
	require.Equal(t, 1, left.ParticipantCount)
}

func TestClientRateLimitDropsFrames(t *testing.T) {
	t.Parallel()
	m := metrics.New()
	h := hub.New(testutil.Meetings(), testutil.Logger(), m)
	server := setupTestServer(h, Options{
		Logger:            testutil.Logger(),
		Metrics:           m,
		MessagesPerSecond: 1,
		Burst:             1,
	})
	defer server.Close()

	conn := dialWS(t, server.URL)
	defer conn.Close()
	readSID(t, conn)

	for i := 0; i < 5; i++ {
		writeEvent(t, conn, `{"event":"nope"}`)
	}

	// Only the first frame is within budget and yields an error reply.
	env := readEnvelope(t, conn)
	require.Equal(t, domain.EvError, env.Event)
	require.Eventually(t, func() bool { return m.Get(metrics.RateLimited) == 4 }, 2*time.Second, 10*time.Millisecond)
}

func TestClientSendDropsWhenFull(t *testing.T) {
	t.Parallel()
	m := metrics.New()
	c := New(nil, nil, Options{SendBuffer: 1, Logger: testutil.Logger(), Metrics: m})

	c.Send([]byte("one"))
	c.Send([]byte("two"))

	if m.Get(metrics.SendsDropped) != 1 {
		t.Errorf("expected 1 dropped frame, got %d", m.Get(metrics.SendsDropped))
	}
}

func TestClientSendAfterCloseIsNoop(t *testing.T) {
	t.Parallel()
	c := New(nil, nil, Options{Logger: testutil.Logger()})
	c.close()
	c.close()

	// Must not panic on a closed channel.
	c.Send([]byte("late"))
}

func TestClientSessionIDsUnique(t *testing.T) {
	t.Parallel()
	a := New(nil, nil, Options{})
	b := New(nil, nil, Options{})
	if a.SessionID() == b.SessionID() {
		t.Error("expected distinct session ids")
	}
}
