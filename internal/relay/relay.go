// Package relay pushes broker events (match found, message, session ended)
// to connected websocket clients. It is delivery glue only: clients that are
// not connected simply miss the push and catch up by polling, and the broker
// never waits on the relay.
package relay

import (
	"log"

	"schoolchat/backend/internal/models"
)

// Client is one connected push subscriber.
type Client interface {
	// UserID returns the user the connection belongs to.
	UserID() string
	// Deliver hands an event to the client without blocking. It reports
	// false when the client's buffer is full.
	Deliver(ev models.Event) bool
	// Close shuts the connection down.
	Close()
}

type notification struct {
	userIDs []string
	event   models.Event
}

// Hub owns the set of connected clients. A single goroutine (Run) serializes
// registration, unregistration, and event dispatch.
type Hub struct {
	clients map[string]Client

	RegisterCh   chan Client
	UnregisterCh chan Client
	notifyCh     chan notification
}

// NewHub creates a hub. Call Run on its own goroutine before registering.
func NewHub() *Hub {
	return &Hub{
		clients:      make(map[string]Client),
		RegisterCh:   make(chan Client),
		UnregisterCh: make(chan Client),
		notifyCh:     make(chan notification, 256),
	}
}

// Notify queues an event for the given users. Implements broker.Notifier;
// it must never block, so an overflowing queue drops the event.
func (h *Hub) Notify(userIDs []string, ev models.Event) {
	select {
	case h.notifyCh <- notification{userIDs: userIDs, event: ev}:
	default:
		log.Printf("WARNING: relay queue full, dropping %s event for session %s", ev.Type, ev.SessionID)
	}
}

// Run is the hub's dispatch loop.
func (h *Hub) Run() {
	log.Println("Relay hub started.")
	for {
		select {
		case client := <-h.RegisterCh:
			// A reconnect replaces the previous connection.
			if old, ok := h.clients[client.UserID()]; ok {
				old.Close()
			}
			h.clients[client.UserID()] = client

		case client := <-h.UnregisterCh:
			if current, ok := h.clients[client.UserID()]; ok && current == client {
				delete(h.clients, client.UserID())
				client.Close()
			}

		case n := <-h.notifyCh:
			for _, userID := range n.userIDs {
				client, ok := h.clients[userID]
				if !ok {
					continue
				}
				if !client.Deliver(n.event) {
					// Slow consumer; drop the connection rather than
					// stall dispatch for everyone else.
					delete(h.clients, userID)
					client.Close()
				}
			}
		}
	}
}
