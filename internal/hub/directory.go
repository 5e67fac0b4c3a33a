package hub

import (
	"context"
	"slices"
	"sync"

	"github.com/samber/lo"

	"github.com/devaloi/huddle/internal/domain"
)

// MeetingLookup validates meeting ids at join time.
type MeetingLookup interface {
	Exists(ctx context.Context, id string) bool
}

// JoinResult describes a room right after a join committed.
type JoinResult struct {
	MeetingID string
	// Existing lists the members other than the joiner, in join order.
	Existing []string
	Count    int
	// Rejoined is set when the session was already a member.
	Rejoined bool
}

// Departure is the post-removal count of one room a session was removed from.
type Departure struct {
	MeetingID string
	Count     int
}

// Directory tracks which sessions are joined to which meeting.
//
// Each room is guarded by its own mutex, so mutations of different rooms never
// contend. Callbacks passed to Join, Leave and RemoveFromAllRooms run while the
// room's lock is held: notifications built inside them observe exactly the
// membership produced by the mutation. Callbacks must not block and must not
// call back into the Directory.
type Directory struct {
	meetings MeetingLookup

	mu    sync.RWMutex
	rooms map[string]*Room

	// index maps session id to the set of meeting ids it has joined.
	idxMu sync.Mutex
	index map[string]map[string]struct{}
}

// NewDirectory creates an empty Directory that validates joins against meetings.
func NewDirectory(meetings MeetingLookup) *Directory {
	return &Directory{
		meetings: meetings,
		rooms:    make(map[string]*Room),
		index:    make(map[string]map[string]struct{}),
	}
}

// Join adds sid to the meeting's room. It returns domain.ErrMeetingNotFound,
// leaving every room untouched, if the meeting is unknown. Joining a room the
// session is already in changes nothing and reports Rejoined.
func (d *Directory) Join(ctx context.Context, meetingID, sid, username string, fn func(JoinResult)) (JoinResult, error) {
	r := d.room(meetingID)
	if r == nil {
		if !d.meetings.Exists(ctx, meetingID) {
			return JoinResult{}, domain.ErrMeetingNotFound
		}
		r = d.openRoom(meetingID)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	res := JoinResult{MeetingID: meetingID}
	if r.has(sid) {
		res.Rejoined = true
	} else {
		r.add(sid, username)
		d.track(sid, meetingID)
	}
	res.Existing = r.others(sid)
	res.Count = len(r.members)

	if fn != nil {
		fn(res)
	}
	return res, nil
}

// Leave removes sid from the meeting's room and returns the remaining count.
// ok is false, and fn is not called, if sid was not a member.
func (d *Directory) Leave(meetingID, sid string, fn func(remaining []string)) (count int, ok bool) {
	r := d.room(meetingID)
	if r == nil {
		return 0, false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.remove(sid) {
		return len(r.members), false
	}
	d.untrack(sid, meetingID)

	if fn != nil {
		fn(r.members)
	}
	return len(r.members), true
}

// RemoveFromAllRooms removes sid from every room it joined, in meeting id
// order, calling fn once per affected room.
func (d *Directory) RemoveFromAllRooms(sid string, fn func(meetingID string, remaining []string)) []Departure {
	var out []Departure
	for _, id := range d.Rooms(sid) {
		r := d.room(id)
		if r == nil {
			continue
		}

		r.mu.Lock()
		if r.remove(sid) {
			d.untrack(sid, id)
			out = append(out, Departure{MeetingID: id, Count: len(r.members)})
			if fn != nil {
				fn(id, r.members)
			}
		}
		r.mu.Unlock()
	}
	return out
}

// Members calls fn with the room's members under the room lock. fn must not
// retain or modify the slice. It reports false if the room does not exist.
func (d *Directory) Members(meetingID string, fn func(members []string)) bool {
	r := d.room(meetingID)
	if r == nil {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	fn(r.members)
	return true
}

// Room returns the room for a meeting, or nil if no one ever joined it.
func (d *Directory) Room(meetingID string) *Room {
	return d.room(meetingID)
}

// Count returns the number of sessions joined to a meeting.
func (d *Directory) Count(meetingID string) int {
	r := d.room(meetingID)
	if r == nil {
		return 0
	}
	return r.Count()
}

// Rooms returns the sorted meeting ids sid is currently joined to.
func (d *Directory) Rooms(sid string) []string {
	d.idxMu.Lock()
	ids := lo.Keys(d.index[sid])
	d.idxMu.Unlock()
	slices.Sort(ids)
	return ids
}

func (d *Directory) room(id string) *Room {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.rooms[id]
}

func (d *Directory) openRoom(id string) *Room {
	d.mu.Lock()
	defer d.mu.Unlock()
	r, ok := d.rooms[id]
	if !ok {
		r = newRoom(id)
		d.rooms[id] = r
	}
	return r
}

func (d *Directory) track(sid, meetingID string) {
	d.idxMu.Lock()
	defer d.idxMu.Unlock()
	set, ok := d.index[sid]
	if !ok {
		set = make(map[string]struct{})
		d.index[sid] = set
	}
	set[meetingID] = struct{}{}
}

func (d *Directory) untrack(sid, meetingID string) {
	d.idxMu.Lock()
	defer d.idxMu.Unlock()
	set, ok := d.index[sid]
	if !ok {
		return
	}
	delete(set, meetingID)
	if len(set) == 0 {
		delete(d.index, sid)
	}
}
