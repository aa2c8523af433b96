package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/ikkim/storefront-backend/internal/checkout"
	"github.com/ikkim/storefront-backend/pkg/logger"
)

const (
	// Rate limiting: max inbound messages per second per client
	maxMessagesPerSecond = 10

	sendBufferSize = 16
)

// ClientMessage is what a checkout page may send over the socket.
type ClientMessage struct {
	Type string `json:"type"` // refresh, continue
}

// CheckoutMessage is pushed on every checkout state change.
type CheckoutMessage struct {
	Type             string         `json:"type"`
	State            checkout.State `json:"state"`
	RemainingSeconds int64          `json:"remaining_seconds"`
	CanConfirm       bool           `json:"can_confirm"`
}

// NewCheckoutMessage renders st as seen at now.
func NewCheckoutMessage(st checkout.State, now time.Time) CheckoutMessage {
	msg := CheckoutMessage{
		Type:             "checkout_state",
		State:            st,
		RemainingSeconds: int64(st.Remaining(now).Seconds()),
		CanConfirm:       st.CanConfirm(now),
	}
	switch {
	case st.Navigated:
		msg.Type = "checkout_redirect"
	case st.Expired && st.Phase == checkout.PhaseAwaitingConfirmation:
		msg.Type = "checkout_expired"
	}
	return msg
}

// Client is one open checkout socket.
type Client struct {
	Hub       *Hub
	Conn      *Conn
	SessionID string
	Send      chan []byte
	// OnMessage handles parsed inbound messages; may be nil
	OnMessage func(ClientMessage)

	MessageCount  int
	LastResetTime time.Time
	RateMu        sync.Mutex
}

// NewClient wires a connection to the hub for sessionID.
func NewClient(hub *Hub, conn *Conn, sessionID string) *Client {
	return &Client{
		Hub:       hub,
		Conn:      conn,
		SessionID: sessionID,
		Send:      make(chan []byte, sendBufferSize),
	}
}

// Hub fans checkout state out to every socket of a session.
type Hub struct {
	// session id -> open sockets (one per tab)
	clients map[string][]*Client

	register   chan *Client
	unregister chan *Client
	broadcast  chan *BroadcastMessage
	// closed once Run has returned
	done chan struct{}

	now func() time.Time
	mu  sync.RWMutex
}

// BroadcastMessage is a payload addressed to one session.
type BroadcastMessage struct {
	SessionID string
	Message   []byte
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string][]*Client),
		register:   make(chan *Client, 256),
		unregister: make(chan *Client, 256),
		broadcast:  make(chan *BroadcastMessage, 1024),
		done:       make(chan struct{}),
		now:        time.Now,
	}
}

// Run processes registrations and broadcasts until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.SessionID] = append(h.clients[client.SessionID], client)
			total := len(h.clients[client.SessionID])
			h.mu.Unlock()
			logger.Debug("WebSocket client registered", map[string]interface{}{
				"session_id": client.SessionID,
				"sockets":    total,
			})

		case client := <-h.unregister:
			h.remove(client)

		case message := <-h.broadcast:
			h.mu.RLock()
			for _, client := range h.clients[message.SessionID] {
				select {
				case client.Send <- message.Message:
				default:
					go h.Unregister(client)
					logger.Warn("Client send buffer full, disconnecting", map[string]interface{}{
						"session_id": message.SessionID,
					})
				}
			}
			h.mu.RUnlock()
		}
	}
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	list, ok := h.clients[client.SessionID]
	if !ok {
		return
	}
	kept := make([]*Client, 0, len(list))
	found := false
	for _, c := range list {
		if c == client {
			found = true
			continue
		}
		kept = append(kept, c)
	}
	if !found {
		return
	}
	if len(kept) == 0 {
		delete(h.clients, client.SessionID)
	} else {
		h.clients[client.SessionID] = kept
	}
	close(client.Send)

	logger.Debug("WebSocket client unregistered", map[string]interface{}{
		"session_id": client.SessionID,
		"sockets":    len(kept),
	})
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, list := range h.clients {
		for _, c := range list {
			close(c.Send)
		}
		delete(h.clients, id)
	}
}

// SendToSession queues a JSON payload for every socket of the session.
// Messages are dropped when the hub is saturated.
func (h *Hub) SendToSession(sessionID string, message interface{}) error {
	data, err := json.Marshal(message)
	if err != nil {
		logger.Error("Failed to marshal message", err, map[string]interface{}{
			"session_id": sessionID,
		})
		return err
	}

	select {
	case h.broadcast <- &BroadcastMessage{SessionID: sessionID, Message: data}:
	default:
		logger.Warn("Broadcast channel full, message dropped", map[string]interface{}{
			"session_id": sessionID,
		})
	}
	return nil
}

// PublishCheckout pushes a state change to the session's sockets.
func (h *Hub) PublishCheckout(sessionID string, st checkout.State) {
	if !h.IsSessionOnline(sessionID) {
		return
	}
	_ = h.SendToSession(sessionID, NewCheckoutMessage(st, h.now()))
}

// Register and Unregister return immediately once the hub has stopped.
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// IsSessionOnline reports whether any socket is open for the session.
func (h *Hub) IsSessionOnline(sessionID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[sessionID]) > 0
}

// HandleClientMessage rate-limits and parses one inbound frame.
func (h *Hub) HandleClientMessage(client *Client, message []byte) {
	client.RateMu.Lock()
	now := h.now()
	if now.Sub(client.LastResetTime) >= time.Second {
		client.MessageCount = 0
		client.LastResetTime = now
	}
	client.MessageCount++
	count := client.MessageCount
	client.RateMu.Unlock()

	if count > maxMessagesPerSecond {
		logger.Warn("Rate limit exceeded", map[string]interface{}{
			"session_id": client.SessionID,
			"count":      count,
		})
		return
	}

	var msg ClientMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		logger.Warn("Failed to parse client message", map[string]interface{}{
			"session_id": client.SessionID,
			"error":      err.Error(),
		})
		return
	}
	if client.OnMessage != nil {
		client.OnMessage(msg)
	}
}
