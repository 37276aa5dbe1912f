package broker

import (
	"sync"
	"time"

	"schoolchat/backend/internal/config"
)

// PresenceTracker records the last heartbeat per user and answers
// online/offline queries. A user is online while their last heartbeat is
// younger than the presence window; unknown users are offline.
//
// Updates are last-write-wins per user, so the tracker carries its own lock
// and does not participate in the broker's match lock.
type PresenceTracker struct {
	mu       sync.RWMutex
	lastSeen map[string]time.Time

	window time.Duration
	now    func() time.Time
}

// NewPresenceTracker creates a tracker with the standard presence window.
func NewPresenceTracker() *PresenceTracker {
	return &PresenceTracker{
		lastSeen: make(map[string]time.Time),
		window:   config.PresenceWindow,
		now:      time.Now,
	}
}

// Heartbeat marks the user as seen now. It never fails; entries are
// overwritten on every call and age out naturally through IsOnline.
func (p *PresenceTracker) Heartbeat(userID string) {
	p.mu.Lock()
	p.lastSeen[userID] = p.now()
	p.mu.Unlock()
}

// IsOnline reports whether the user has sent a heartbeat within the window.
func (p *PresenceTracker) IsOnline(userID string) bool {
	p.mu.RLock()
	last, ok := p.lastSeen[userID]
	p.mu.RUnlock()
	if !ok {
		return false
	}
	return p.now().Sub(last) < p.window
}

// OnlineCount returns how many of the given users are currently online.
func (p *PresenceTracker) OnlineCount(userIDs []string) int {
	count := 0
	for _, id := range userIDs {
		if p.IsOnline(id) {
			count++
		}
	}
	return count
}

// TrackedCount returns the number of users with a recorded heartbeat,
// online or not. Used by the system status endpoint.
func (p *PresenceTracker) TrackedCount() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.lastSeen)
}
