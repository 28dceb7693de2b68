package ws

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/saturnino-fabrica-de-software/vendaval/internal/domain"
)

// Hub fans assessment events out to websocket subscribers. Clients listen to
// one claim or to AllClaims.
type Hub struct {
	clients    map[*Client]bool
	claims     map[string]map[*Client]bool
	broadcast  chan Event
	register   chan *Client
	unregister chan *Client
	// done is closed once Run returns
	done chan struct{}
	mu   sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		claims:     make(map[string]map[*Client]bool),
		broadcast:  make(chan Event, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.closeAll()
			return
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case event := <-h.broadcast:
			h.broadcastToClaim(event)
		}
	}
}

// subscribe hands client to Run. It reports false once the hub has stopped.
func (h *Hub) subscribe(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) unsubscribe(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client] = true

	if h.claims[client.claimID] == nil {
		h.claims[client.claimID] = make(map[*Client]bool)
	}
	h.claims[client.claimID][client] = true
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.drop(client)
}

// drop must be called with mu held
func (h *Hub) drop(client *Client) {
	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	delete(h.claims[client.claimID], client)
	if len(h.claims[client.claimID]) == 0 {
		delete(h.claims, client.claimID)
	}
	close(client.send)
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		h.drop(client)
	}
}

func (h *Hub) broadcastToClaim(event Event) {
	message, err := json.Marshal(event)
	if err != nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	keys := []string{event.ClaimID}
	if event.ClaimID != AllClaims {
		keys = append(keys, AllClaims)
	}

	var slow []*Client
	for _, key := range keys {
		for client := range h.claims[key] {
			select {
			case client.send <- message:
			default:
				slow = append(slow, client)
			}
		}
	}
	for _, client := range slow {
		h.drop(client)
	}
}

// Name implements service.ResultSink
func (h *Hub) Name() string {
	return "ws"
}

// Publish queues a claim.assessed event. It never blocks: when the
// broadcast buffer is full the event is dropped.
func (h *Hub) Publish(_ context.Context, a *domain.Assessment) error {
	h.BroadcastToClaim(a.Summary.ClaimID, EventClaimAssessed, a.Document())
	return nil
}

func (h *Hub) BroadcastToClaim(claimID string, eventType EventType, data interface{}) {
	event := Event{
		ClaimID:   claimID,
		Type:      eventType,
		Data:      data,
		Timestamp: time.Now().UTC(),
	}

	select {
	case h.broadcast <- event:
	default:
	}
}

func (h *Hub) GetConnectedClients(claimID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.claims[claimID])
}
