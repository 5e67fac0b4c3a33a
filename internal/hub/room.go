package hub

import (
	"sync"

	"github.com/samber/lo"
)

// Room is the participant collection of one meeting. Unexported methods must
// be called with mu held.
type Room struct {
	id      string
	mu      sync.Mutex
	members []string
	names   map[string]string
}

func newRoom(id string) *Room {
	return &Room{
		id:    id,
		names: make(map[string]string),
	}
}

// ID returns the meeting id of the room.
func (r *Room) ID() string {
	return r.id
}

// Count returns the number of joined sessions.
func (r *Room) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.members)
}

// Members returns a copy of the joined session ids in join order.
func (r *Room) Members() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.members...)
}

// Username returns the display name a session joined with.
func (r *Room) Username(sid string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	name, ok := r.names[sid]
	return name, ok
}

func (r *Room) has(sid string) bool {
	_, ok := r.names[sid]
	return ok
}

func (r *Room) add(sid, username string) {
	r.members = append(r.members, sid)
	r.names[sid] = username
}

func (r *Room) remove(sid string) bool {
	if !r.has(sid) {
		return false
	}
	r.members = lo.Without(r.members, sid)
	delete(r.names, sid)
	return true
}

// others returns the members excluding sid, never nil.
func (r *Room) others(sid string) []string {
	return lo.Without(r.members, sid)
}
