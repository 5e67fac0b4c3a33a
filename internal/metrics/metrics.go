package metrics

import "sync"

// Event counter names.
const (
	ConnectionsOpened = "connections_opened"
	ConnectionsClosed = "connections_closed"
	MeetingsCreated   = "meetings_created"
	Joins             = "joins"
	Rejoins           = "rejoins"
	JoinsRejected     = "joins_rejected"
	Leaves            = "leaves"
	Broadcasts        = "broadcasts"
	Relays            = "relays"
	RelaysDropped     = "relays_dropped"
	SendsDropped      = "sends_dropped"
	RateLimited       = "rate_limited"
	InvalidFrames     = "invalid_frames"
)

// Metrics is a concurrency-safe counter registry. A nil *Metrics is valid and
// discards every increment.
type Metrics struct {
	mu sync.Mutex
	m  map[string]uint64
}

func New() *Metrics {
	return &Metrics{
		m: make(map[string]uint64),
	}
}

func (m *Metrics) Inc(name string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	m.m[name]++
	m.mu.Unlock()
}

func (m *Metrics) Get(name string) uint64 {
	if m == nil {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.m[name]
}

// Snapshot returns a copy of all counters.
func (m *Metrics) Snapshot() map[string]uint64 {
	if m == nil {
		return map[string]uint64{}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]uint64, len(m.m))
	for k, v := range m.m {
		out[k] = v
	}
	return out
}
