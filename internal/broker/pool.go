package broker

import (
	"container/list"
	"time"

	"schoolchat/backend/internal/models"
)

// WaitingEntry is a user's standing request to be matched, held until it is
// fulfilled, replaced by a newer request, or cancelled.
type WaitingEntry struct {
	User     models.UserRef
	School   string
	JoinedAt time.Time
}

// WaitingPool is the insertion-ordered set of users seeking a partner,
// with at most one entry per user.
//
// The pool is not safe for concurrent use on its own: the MatchBroker
// serializes every access under its match lock, because the double-match
// race spans the pool and the session registry together.
type WaitingPool struct {
	order  *list.List // of WaitingEntry, oldest first
	byUser map[string]*list.Element

	now func() time.Time
}

// NewWaitingPool creates an empty pool.
func NewWaitingPool() *WaitingPool {
	return &WaitingPool{
		order:  list.New(),
		byUser: make(map[string]*list.Element),
		now:    time.Now,
	}
}

// Enqueue adds a waiting entry for the user, replacing any existing one.
// Re-enqueueing moves the user to the back with a fresh JoinedAt.
func (p *WaitingPool) Enqueue(user models.UserRef, school string) {
	p.Remove(user.ID)
	entry := WaitingEntry{User: user, School: school, JoinedAt: p.now()}
	p.byUser[user.ID] = p.order.PushBack(entry)
}

// Remove drops the user's entry if present and reports whether it existed.
func (p *WaitingPool) Remove(userID string) bool {
	elem, ok := p.byUser[userID]
	if !ok {
		return false
	}
	p.order.Remove(elem)
	delete(p.byUser, userID)
	return true
}

// Entry returns the user's waiting entry, if any.
func (p *WaitingPool) Entry(userID string) (WaitingEntry, bool) {
	elem, ok := p.byUser[userID]
	if !ok {
		return WaitingEntry{}, false
	}
	return elem.Value.(WaitingEntry), true
}

// Candidates returns, in insertion order, every entry for the given school
// except excludeID, filtered to users the online predicate accepts.
func (p *WaitingPool) Candidates(school, excludeID string, online func(userID string) bool) []WaitingEntry {
	var out []WaitingEntry
	for elem := p.order.Front(); elem != nil; elem = elem.Next() {
		entry := elem.Value.(WaitingEntry)
		if entry.School != school || entry.User.ID == excludeID {
			continue
		}
		if !online(entry.User.ID) {
			continue
		}
		out = append(out, entry)
	}
	return out
}

// Len returns the number of waiting users.
func (p *WaitingPool) Len() int {
	return len(p.byUser)
}

// Snapshot returns all entries in insertion order.
func (p *WaitingPool) Snapshot() []WaitingEntry {
	out := make([]WaitingEntry, 0, p.order.Len())
	for elem := p.order.Front(); elem != nil; elem = elem.Next() {
		out = append(out, elem.Value.(WaitingEntry))
	}
	return out
}

// Clear empties the pool.
func (p *WaitingPool) Clear() {
	p.order.Init()
	clear(p.byUser)
}
