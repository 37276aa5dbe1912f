package broker

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"schoolchat/backend/internal/models"
)

// sessionNamespace seeds the deterministic session IDs. Fixed so that the
// same pair of users always maps to the same ID within a broker lifetime.
var sessionNamespace = uuid.MustParse("8a9ee21c-2f9e-4b66-b0a4-5c3f0d6e4a71")

// SessionID derives the chat session ID for a pair of users. The derivation
// is order-independent: SessionID(a, b) == SessionID(b, a).
func SessionID(userA, userB string) string {
	if userA > userB {
		userA, userB = userB, userA
	}
	return uuid.NewSHA1(sessionNamespace, []byte(userA+"\x00"+userB)).String()
}

// ChatSession is a live 1-on-1 pairing and its ordered message log.
type ChatSession struct {
	ID        string
	UserA     models.UserRef
	UserB     models.UserRef
	School    string
	Messages  []models.Message
	StartedAt time.Time
	Active    bool
}

// HasParticipant reports whether the user is one of the two participants.
func (s *ChatSession) HasParticipant(userID string) bool {
	return s.UserA.ID == userID || s.UserB.ID == userID
}

// Partner returns the other participant. The second return is false when
// the user is not in the session at all.
func (s *ChatSession) Partner(userID string) (models.UserRef, bool) {
	switch userID {
	case s.UserA.ID:
		return s.UserB, true
	case s.UserB.ID:
		return s.UserA, true
	}
	return models.UserRef{}, false
}

// ParticipantIDs returns both participant IDs.
func (s *ChatSession) ParticipantIDs() []string {
	return []string{s.UserA.ID, s.UserB.ID}
}

// SessionRegistry holds every active chat session, indexed by session ID and
// by participant. Ended sessions are evicted entirely, so a lookup after
// either participant left reports ErrSessionNotFound.
//
// Like the WaitingPool, the registry is not internally locked; the
// MatchBroker serializes access under the match lock.
type SessionRegistry struct {
	sessions map[string]*ChatSession
	active   map[string]string // userID -> sessionID

	now func() time.Time
}

// NewSessionRegistry creates an empty registry.
func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{
		sessions: make(map[string]*ChatSession),
		active:   make(map[string]string),
		now:      time.Now,
	}
}

// Create opens a session between two distinct users. The broker checks both
// users before calling, but the registry re-validates so the one-session-per-
// user invariant stays authoritative in a single place.
func (r *SessionRegistry) Create(userA, userB models.UserRef, school string) (*ChatSession, error) {
	if _, taken := r.active[userA.ID]; taken {
		return nil, ErrAlreadyPaired
	}
	if _, taken := r.active[userB.ID]; taken {
		return nil, ErrAlreadyPaired
	}

	session := &ChatSession{
		ID:        SessionID(userA.ID, userB.ID),
		UserA:     userA,
		UserB:     userB,
		School:    school,
		StartedAt: r.now(),
		Active:    true,
	}
	r.sessions[session.ID] = session
	r.active[userA.ID] = session.ID
	r.active[userB.ID] = session.ID
	return session, nil
}

// Get looks up a session by ID.
func (r *SessionRegistry) Get(sessionID string) (*ChatSession, bool) {
	session, ok := r.sessions[sessionID]
	return session, ok
}

// FindActiveFor returns the session the user currently participates in.
func (r *SessionRegistry) FindActiveFor(userID string) (*ChatSession, bool) {
	sessionID, ok := r.active[userID]
	if !ok {
		return nil, false
	}
	return r.sessions[sessionID], true
}

// AppendMessage appends to an active session's message log, in arrival order.
func (r *SessionRegistry) AppendMessage(sessionID string, msg models.Message) error {
	session, ok := r.sessions[sessionID]
	if !ok || !session.Active {
		return ErrSessionNotActive
	}
	session.Messages = append(session.Messages, msg)
	return nil
}

// End marks the session ended and evicts it from both indexes. The returned
// session is the final state, with Active already false.
func (r *SessionRegistry) End(sessionID string) (*ChatSession, error) {
	session, ok := r.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	session.Active = false
	delete(r.sessions, sessionID)
	delete(r.active, session.UserA.ID)
	delete(r.active, session.UserB.ID)
	return session, nil
}

// Count returns the number of active sessions.
func (r *SessionRegistry) Count() int {
	return len(r.sessions)
}

// Snapshot returns every active session. Callers must not retain the
// pointers beyond the broker's lock.
func (r *SessionRegistry) Snapshot() []*ChatSession {
	out := make([]*ChatSession, 0, len(r.sessions))
	for _, session := range r.sessions {
		out = append(out, session)
	}
	return out
}

// Reset drops every session.
func (r *SessionRegistry) Reset() {
	clear(r.sessions)
	clear(r.active)
}

// joinIDs is a debugging helper for log lines about a pair of users.
func joinIDs(ids []string) string {
	return strings.Join(ids, ", ")
}
