package broker

import (
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"schoolchat/backend/internal/models"
)

// fakeClock lets tests move time past the presence window.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 9, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

// newTestBroker builds a broker on a fake clock with a deterministic
// random source and no recorder.
func newTestBroker(clk *fakeClock) *MatchBroker {
	presence := NewPresenceTracker()
	presence.now = clk.Now
	b := NewMatchBroker(presence, nil, nil)
	b.now = clk.Now
	b.pool.now = clk.Now
	b.registry.now = clk.Now
	return b
}

func userRef(id, school string) models.UserRef {
	return models.UserRef{ID: id, Username: "name-" + id, School: school}
}

// MockRecorder is a testify double for the Recorder interface. The broker
// invokes it on background goroutines; mock.Mock is safe for that.
type MockRecorder struct {
	mock.Mock
}

func (m *MockRecorder) SaveSession(rec *models.SessionRecord) error {
	args := m.Called(rec)
	return args.Error(0)
}

func (m *MockRecorder) CloseSession(sessionID string) error {
	args := m.Called(sessionID)
	return args.Error(0)
}

func (m *MockRecorder) CloseAllSessions() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockRecorder) SaveMessage(h *models.ChatHistory) error {
	args := m.Called(h)
	return args.Error(0)
}

func (m *MockRecorder) PublishMessage(sessionID string, msg models.Message) error {
	args := m.Called(sessionID, msg)
	return args.Error(0)
}

func (m *MockRecorder) AddWaiting(userID string) error {
	args := m.Called(userID)
	return args.Error(0)
}

func (m *MockRecorder) RemoveWaiting(userID string) error {
	args := m.Called(userID)
	return args.Error(0)
}

func (m *MockRecorder) ClearWaiting() error {
	args := m.Called()
	return args.Error(0)
}

// captureNotifier records every event pushed by the broker.
type captureNotifier struct {
	mu     sync.Mutex
	events []capturedEvent
}

type capturedEvent struct {
	userIDs []string
	event   models.Event
}

func (n *captureNotifier) Notify(userIDs []string, ev models.Event) {
	n.mu.Lock()
	n.events = append(n.events, capturedEvent{userIDs: userIDs, event: ev})
	n.mu.Unlock()
}

func (n *captureNotifier) all() []capturedEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]capturedEvent, len(n.events))
	copy(out, n.events)
	return out
}
