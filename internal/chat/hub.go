package chat

import (
	"sync"

	"backoffice/internal/model"
)

// clientBuffer is the per-client backlog; a full buffer drops messages.
const clientBuffer = 32

// Client is one SSE subscriber of a project.
type Client struct {
	ProjectID string
	C         <-chan model.ChatMessage
	ch        chan model.ChatMessage
}

// Hub fans bus messages out to the local clients of each project.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*Client]struct{}
	dropped func(projectID string)
}

func NewHub() *Hub {
	return &Hub{clients: make(map[string]map[*Client]struct{})}
}

// OnDrop registers a callback invoked when a slow client misses a message.
func (h *Hub) OnDrop(fn func(projectID string)) {
	h.mu.Lock()
	h.dropped = fn
	h.mu.Unlock()
}

// Subscribe registers a client for projectID. The returned function removes
// it and closes its channel; it is safe to call more than once.
func (h *Hub) Subscribe(projectID string) (*Client, func()) {
	ch := make(chan model.ChatMessage, clientBuffer)
	c := &Client{ProjectID: projectID, C: ch, ch: ch}

	h.mu.Lock()
	set, ok := h.clients[projectID]
	if !ok {
		set = make(map[*Client]struct{})
		h.clients[projectID] = set
	}
	set[c] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return c, func() {
		once.Do(func() {
			h.mu.Lock()
			if set, ok := h.clients[projectID]; ok {
				delete(set, c)
				if len(set) == 0 {
					delete(h.clients, projectID)
				}
			}
			h.mu.Unlock()
			close(c.ch)
		})
	}
}

// Dispatch delivers msg to every client of its project without blocking.
func (h *Hub) Dispatch(msg model.ChatMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients[msg.ProjectID] {
		select {
		case c.ch <- msg:
		default:
			if h.dropped != nil {
				h.dropped(msg.ProjectID)
			}
		}
	}
}

// Clients returns the number of subscribers of a project.
func (h *Hub) Clients(projectID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[projectID])
}
