package http

import (
	"encoding/json"
	"log"
	"sync"

	"quizroom/internal/game"
)

// client is one websocket connection grouped under a room PIN. Outbound
// traffic goes through the buffered send channel so a single writer
// goroutine owns the connection.
type client struct {
	pin  string
	name string
	host bool
	send chan []byte
}

// Hub groups connections by PIN and implements game.Notifier. Broadcast
// never blocks: the engine calls it while holding the room lock, so a slow
// client loses messages instead of stalling the room.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[*client]struct{}
}

func NewHub() *Hub {
	return &Hub{rooms: make(map[string]map[*client]struct{})}
}

func (h *Hub) add(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	room, ok := h.rooms[c.pin]
	if !ok {
		room = make(map[*client]struct{})
		h.rooms[c.pin] = room
	}
	room[c] = struct{}{}
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	room, ok := h.rooms[c.pin]
	if !ok {
		return
	}
	if _, present := room[c]; !present {
		return
	}
	delete(room, c)
	close(c.send)
	if len(room) == 0 {
		delete(h.rooms, c.pin)
	}
}

// Broadcast fans one engine event out to every connection in the room.
func (h *Hub) Broadcast(pin string, event game.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("marshal broadcast: %v", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.rooms[pin] {
		select {
		case c.send <- data:
		default:
			// Slow client: drop the oldest queued message and retry once.
			select {
			case <-c.send:
			default:
			}
			select {
			case c.send <- data:
			default:
			}
		}
	}
}

// sendTo delivers an event to a single connection, dropping it if the
// client's queue is full.
func (h *Hub) sendTo(c *client, event game.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("marshal direct message: %v", err)
		return
	}
	select {
	case c.send <- data:
	default:
	}
}
