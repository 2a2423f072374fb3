package game

import "sync"

// Registry owns the PIN -> Room mapping. It is the only structure shared
// across rooms; everything else mutates under the owning room's lock.
// Constructed at server start and handed to every connection handler, so
// tests can run isolated registries side by side.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*Room
}

func NewRegistry() *Registry {
	return &Registry{rooms: make(map[string]*Room)}
}

// GetOrCreate returns the room for pin, lazily creating an empty one.
// An unknown PIN is a harmless empty room, never an error.
func (r *Registry) GetOrCreate(pin string) *Room {
	r.mu.Lock()
	defer r.mu.Unlock()
	if room, ok := r.rooms[pin]; ok {
		return room
	}
	room := newRoom(pin)
	r.rooms[pin] = room
	return room
}

// Get returns the room for pin if one exists.
func (r *Registry) Get(pin string) (*Room, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	room, ok := r.rooms[pin]
	return room, ok
}

// Len reports the number of live rooms.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}

// DeleteIfIdle drops the room when nothing references it anymore: empty
// roster and no active question. The engine never calls this; it is the
// eviction hook for outer connection tracking.
func (r *Registry) DeleteIfIdle(pin string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.rooms[pin]
	if !ok {
		return
	}
	if room.IsIdle() {
		delete(r.rooms, pin)
	}
}
