package broker

import (
	"log"
	"math/rand"
	"sync"
	"time"

	"schoolchat/backend/internal/models"
)

// Recorder mirrors broker state changes into durable storage. The broker
// calls it outside the match lock and on its own goroutine; a failing
// recorder is logged and never rolls back in-memory state.
type Recorder interface {
	SaveSession(rec *models.SessionRecord) error
	CloseSession(sessionID string) error
	CloseAllSessions() error
	SaveMessage(h *models.ChatHistory) error
	PublishMessage(sessionID string, msg models.Message) error
	AddWaiting(userID string) error
	RemoveWaiting(userID string) error
	ClearWaiting() error
}

// Notifier pushes realtime events to connected clients. Implementations
// must not block; the broker calls Notify synchronously after releasing
// the match lock.
type Notifier interface {
	Notify(userIDs []string, ev models.Event)
}

// Result statuses, matching the wire contract of the chat endpoints.
const (
	StatusMatched    = "matched"
	StatusWaiting    = "waiting"
	StatusInChat     = "in_chat"
	StatusNotWaiting = "not_waiting"
)

// PartnerInfo describes the other side of a session in responses.
type PartnerInfo struct {
	Username string `json:"username"`
	School   string `json:"school"`
	Online   bool   `json:"online"`
}

// MatchResult is the outcome of StartChat and Status.
type MatchResult struct {
	Status    string       `json:"status"`
	SessionID string       `json:"chat_id,omitempty"`
	School    string       `json:"school,omitempty"`
	Partner   *PartnerInfo `json:"partner,omitempty"`
}

// Transcript is the full message log of a session plus partner liveness.
type Transcript struct {
	Messages []models.Message `json:"messages"`
	Partner  PartnerInfo      `json:"partner"`
}

// WaitingInfo is a debug view of one waiting entry.
type WaitingInfo struct {
	Username string `json:"username"`
	School   string `json:"school"`
	Online   bool   `json:"online"`
}

// SessionInfo is a debug view of one active session.
type SessionInfo struct {
	SessionID string    `json:"chat_id"`
	Users     []string  `json:"users"`
	School    string    `json:"school"`
	StartedAt time.Time `json:"started_at"`
}

// SystemStatus is the operational snapshot of the broker.
type SystemStatus struct {
	WaitingUsers   int       `json:"waiting_users_count"`
	ActiveSessions int       `json:"active_chats_count"`
	TrackedUsers   int       `json:"online_users_count"`
	CurrentTime    time.Time `json:"current_time"`
}

// MatchBroker orchestrates start/leave/send/status atomically across the
// presence tracker, waiting pool, and session registry.
//
// A single mutex serializes every operation that reads or mutates the pool
// and registry together. Locking the structures individually would not do:
// two concurrent StartChat calls could both pick the same waiting entry
// between a pool scan and a session create. Presence updates stay outside
// the lock; they are independently safe.
type MatchBroker struct {
	presence *PresenceTracker

	mu       sync.Mutex
	pool     *WaitingPool
	registry *SessionRegistry
	rng      *rand.Rand

	recorder Recorder
	notifier Notifier

	now func() time.Time
}

// NewMatchBroker creates a broker. Both recorder and notifier may be nil;
// live matching does not depend on either.
func NewMatchBroker(presence *PresenceTracker, recorder Recorder, notifier Notifier) *MatchBroker {
	return &MatchBroker{
		presence: presence,
		pool:     NewWaitingPool(),
		registry: NewSessionRegistry(),
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		recorder: recorder,
		notifier: notifier,
		now:      time.Now,
	}
}

// Heartbeat records a liveness signal for the user. Implicit in every other
// operation, also independently invocable.
func (b *MatchBroker) Heartbeat(userID string) {
	b.presence.Heartbeat(userID)
}

// IsOnline reports whether the user is currently online.
func (b *MatchBroker) IsOnline(userID string) bool {
	return b.presence.IsOnline(userID)
}

// OnlineCount reports how many of the given users are online.
func (b *MatchBroker) OnlineCount(userIDs []string) int {
	return b.presence.OnlineCount(userIDs)
}

// StartChat pairs the user with an online waiter from the same school, or
// enqueues them if nobody is available. The partner is picked uniformly at
// random among eligible candidates rather than oldest-first; random pick is
// what the matching has always done, and it keeps late arrivals from being
// skipped forever.
func (b *MatchBroker) StartChat(user models.UserRef, school string) (*MatchResult, error) {
	b.presence.Heartbeat(user.ID)

	b.mu.Lock()
	if _, inChat := b.registry.FindActiveFor(user.ID); inChat {
		b.mu.Unlock()
		return nil, ErrAlreadyInChat
	}

	// Clear any stale self-entry before scanning.
	b.pool.Remove(user.ID)

	candidates := b.pool.Candidates(school, user.ID, b.presence.IsOnline)
	if len(candidates) == 0 {
		b.pool.Enqueue(user, school)
		b.mu.Unlock()

		log.Printf("INFO: no match for %s (%s), waiting", user.Username, school)
		b.record("mirror waiting entry", func(r Recorder) error {
			return r.AddWaiting(user.ID)
		})
		return &MatchResult{Status: StatusWaiting, School: school}, nil
	}

	chosen := candidates[b.rng.Intn(len(candidates))]
	b.pool.Remove(chosen.User.ID)
	session, err := b.registry.Create(user, chosen.User, school)
	if err != nil {
		// Invariant violation: the candidate scan let through a user who
		// already owns a session. Surface it instead of matching.
		b.mu.Unlock()
		log.Printf("ERROR: registry refused pairing %s: %v", joinIDs([]string{user.ID, chosen.User.ID}), err)
		return nil, err
	}
	b.mu.Unlock()

	log.Printf("INFO: matched %s with %s in session %s", user.Username, chosen.User.Username, session.ID)
	b.record("mirror new session", func(r Recorder) error {
		if err := r.RemoveWaiting(chosen.User.ID); err != nil {
			return err
		}
		return r.SaveSession(&models.SessionRecord{
			SessionID: session.ID,
			User1ID:   session.UserA.ID,
			User2ID:   session.UserB.ID,
			School:    school,
			IsActive:  true,
			StartedAt: session.StartedAt,
		})
	})
	b.notify([]string{chosen.User.ID}, models.Event{
		Type:      models.EventMatched,
		SessionID: session.ID,
		Partner:   user.Username,
	})

	return &MatchResult{
		Status:    StatusMatched,
		SessionID: session.ID,
		Partner:   &PartnerInfo{Username: chosen.User.Username, School: school, Online: true},
	}, nil
}

// SendMessage appends a message to the user's session. Messages to an
// offline partner are rejected, not queued; there is no offline delivery.
func (b *MatchBroker) SendMessage(sessionID string, user models.UserRef, content string) (*models.Message, error) {
	b.presence.Heartbeat(user.ID)

	b.mu.Lock()
	session, ok := b.registry.Get(sessionID)
	if !ok {
		b.mu.Unlock()
		return nil, ErrSessionNotFound
	}
	partner, isParticipant := session.Partner(user.ID)
	if !isParticipant {
		b.mu.Unlock()
		return nil, ErrNotParticipant
	}
	if !b.presence.IsOnline(partner.ID) {
		b.mu.Unlock()
		return nil, ErrPartnerOffline
	}

	msg := models.Message{
		Content:        content,
		SenderID:       user.ID,
		SenderUsername: user.Username,
		CreatedAt:      b.now(),
	}
	if err := b.registry.AppendMessage(sessionID, msg); err != nil {
		b.mu.Unlock()
		return nil, err
	}
	b.mu.Unlock()

	b.record("persist message", func(r Recorder) error {
		if err := r.SaveMessage(&models.ChatHistory{
			SessionID:      sessionID,
			SenderID:       msg.SenderID,
			SenderUsername: msg.SenderUsername,
			Content:        msg.Content,
		}); err != nil {
			return err
		}
		return r.PublishMessage(sessionID, msg)
	})
	b.notify([]string{partner.ID}, models.Event{
		Type:      models.EventMessage,
		SessionID: sessionID,
		Message:   &msg,
	})
	return &msg, nil
}

// GetMessages returns the ordered message log plus the partner's liveness.
// Read-only apart from the implicit heartbeat.
func (b *MatchBroker) GetMessages(sessionID string, user models.UserRef) (*Transcript, error) {
	b.presence.Heartbeat(user.ID)

	b.mu.Lock()
	session, ok := b.registry.Get(sessionID)
	if !ok {
		b.mu.Unlock()
		return nil, ErrSessionNotFound
	}
	partner, isParticipant := session.Partner(user.ID)
	if !isParticipant {
		b.mu.Unlock()
		return nil, ErrNotParticipant
	}
	messages := make([]models.Message, len(session.Messages))
	copy(messages, session.Messages)
	school := session.School
	b.mu.Unlock()

	return &Transcript{
		Messages: messages,
		Partner:  PartnerInfo{Username: partner.Username, School: school, Online: b.presence.IsOnline(partner.ID)},
	}, nil
}

// LeaveChat ends the session for both participants. A second call on the
// same session reports ErrSessionNotFound, which callers should read as
// "already left".
func (b *MatchBroker) LeaveChat(sessionID string, user models.UserRef) error {
	b.presence.Heartbeat(user.ID)

	b.mu.Lock()
	session, ok := b.registry.Get(sessionID)
	if !ok {
		b.mu.Unlock()
		return ErrSessionNotFound
	}
	partner, isParticipant := session.Partner(user.ID)
	if !isParticipant {
		b.mu.Unlock()
		return ErrNotParticipant
	}
	if _, err := b.registry.End(sessionID); err != nil {
		b.mu.Unlock()
		return err
	}
	b.mu.Unlock()

	log.Printf("INFO: %s left session %s", user.Username, sessionID)
	b.record("close session", func(r Recorder) error {
		return r.CloseSession(sessionID)
	})
	b.notify([]string{partner.ID}, models.Event{
		Type:      models.EventSessionEnded,
		SessionID: sessionID,
	})
	return nil
}

// Status reports where the user stands: waiting, in a chat, or neither.
// Waiting membership is checked before session membership.
func (b *MatchBroker) Status(user models.UserRef) *MatchResult {
	b.presence.Heartbeat(user.ID)

	b.mu.Lock()
	if entry, waiting := b.pool.Entry(user.ID); waiting {
		b.mu.Unlock()
		return &MatchResult{Status: StatusWaiting, School: entry.School}
	}
	session, inChat := b.registry.FindActiveFor(user.ID)
	if !inChat {
		b.mu.Unlock()
		return &MatchResult{Status: StatusNotWaiting}
	}
	partner, _ := session.Partner(user.ID)
	sessionID, school := session.ID, session.School
	b.mu.Unlock()

	return &MatchResult{
		Status:    StatusInChat,
		SessionID: sessionID,
		Partner:   &PartnerInfo{Username: partner.Username, School: school, Online: b.presence.IsOnline(partner.ID)},
	}
}

// ListWaiting returns a debug view of the waiting pool, oldest first.
func (b *MatchBroker) ListWaiting() []WaitingInfo {
	b.mu.Lock()
	entries := b.pool.Snapshot()
	b.mu.Unlock()

	out := make([]WaitingInfo, 0, len(entries))
	for _, entry := range entries {
		out = append(out, WaitingInfo{
			Username: entry.User.Username,
			School:   entry.School,
			Online:   b.presence.IsOnline(entry.User.ID),
		})
	}
	return out
}

// ListActiveSessions returns a debug view of every active session.
func (b *MatchBroker) ListActiveSessions() []SessionInfo {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]SessionInfo, 0, b.registry.Count())
	for _, session := range b.registry.Snapshot() {
		out = append(out, SessionInfo{
			SessionID: session.ID,
			Users:     []string{session.UserA.Username, session.UserB.Username},
			School:    session.School,
			StartedAt: session.StartedAt,
		})
	}
	return out
}

// SystemStatus returns counts for the operational status endpoint.
func (b *MatchBroker) SystemStatus() SystemStatus {
	b.mu.Lock()
	waiting, active := b.pool.Len(), b.registry.Count()
	b.mu.Unlock()

	return SystemStatus{
		WaitingUsers:   waiting,
		ActiveSessions: active,
		TrackedUsers:   b.presence.TrackedCount(),
		CurrentTime:    b.now(),
	}
}

// Reset clears the waiting pool and every session. Intended for tests and
// operational recovery only.
func (b *MatchBroker) Reset() {
	b.mu.Lock()
	b.pool.Clear()
	b.registry.Reset()
	b.mu.Unlock()

	log.Printf("WARNING: broker state reset")
	b.record("reset mirrors", func(r Recorder) error {
		if err := r.ClearWaiting(); err != nil {
			return err
		}
		return r.CloseAllSessions()
	})
}

// record runs a recorder operation on its own goroutine. Durable mirroring
// must never stall matching, so nothing here happens under the match lock.
func (b *MatchBroker) record(op string, fn func(Recorder) error) {
	if b.recorder == nil {
		return
	}
	go func() {
		if err := fn(b.recorder); err != nil {
			log.Printf("ERROR: %s: %v", op, err)
		}
	}()
}

func (b *MatchBroker) notify(userIDs []string, ev models.Event) {
	if b.notifier == nil {
		return
	}
	b.notifier.Notify(userIDs, ev)
}
