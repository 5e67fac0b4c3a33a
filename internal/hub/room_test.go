package hub

import "testing"

func TestRoomAddRemove(t *testing.T) {
	t.Parallel()
	r := newRoom("test")

	r.mu.Lock()
	r.add("a", "alice")
	r.add("b", "bob")
	r.mu.Unlock()

	if r.Count() != 2 {
		t.Errorf("expected 2 members, got %d", r.Count())
	}
	if name, ok := r.Username("b"); !ok || name != "bob" {
		t.Errorf("expected bob, got %q (%v)", name, ok)
	}

	r.mu.Lock()
	removed := r.remove("a")
	again := r.remove("a")
	r.mu.Unlock()

	if !removed {
		t.Error("expected first remove to succeed")
	}
	if again {
		t.Error("expected second remove to be a no-op")
	}
	if got := r.Members(); len(got) != 1 || got[0] != "b" {
		t.Errorf("expected [b], got %v", got)
	}
}

func TestRoomOthersNeverNil(t *testing.T) {
	t.Parallel()
	r := newRoom("test")

	r.mu.Lock()
	r.add("a", "alice")
	others := r.others("a")
	r.mu.Unlock()

	if others == nil {
		t.Fatal("expected empty slice, got nil")
	}
	if len(others) != 0 {
		t.Errorf("expected no others, got %v", others)
	}
}

func TestRoomMembersIsCopy(t *testing.T) {
	t.Parallel()
	r := newRoom("test")
	r.mu.Lock()
	r.add("a", "alice")
	r.mu.Unlock()

	m := r.Members()
	m[0] = "mutated"

	if r.Members()[0] != "a" {
		t.Error("Members must return a copy")
	}
}
