package handler

import (
	"net/http/httptest"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"

	"schoolchat/backend/internal/broker"
	"schoolchat/backend/internal/models"
	"schoolchat/backend/internal/relay"
)

// MockStorage is a testify double for the storage.Storage interface.
type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) CreateUser(user *models.User) error {
	args := m.Called(user)
	return args.Error(0)
}

func (m *MockStorage) UpdateUser(user *models.User) error {
	args := m.Called(user)
	return args.Error(0)
}

func (m *MockStorage) GetUserByUsername(username string) (*models.User, error) {
	args := m.Called(username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockStorage) GetUserByEmail(email string) (*models.User, error) {
	args := m.Called(email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockStorage) UserIDsBySchool(school string) ([]string, error) {
	args := m.Called(school)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockStorage) IsUserBanned(userID string) (bool, error) {
	args := m.Called(userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockStorage) BanUser(userID string, duration time.Duration) error {
	args := m.Called(userID, duration)
	return args.Error(0)
}

func (m *MockStorage) UnbanUser(userID string) error {
	args := m.Called(userID)
	return args.Error(0)
}

func (m *MockStorage) SaveSession(rec *models.SessionRecord) error {
	args := m.Called(rec)
	return args.Error(0)
}

func (m *MockStorage) CloseSession(sessionID string) error {
	args := m.Called(sessionID)
	return args.Error(0)
}

func (m *MockStorage) CloseAllSessions() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockStorage) GetActiveSessionRecords() ([]models.SessionRecord, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.SessionRecord), args.Error(1)
}

func (m *MockStorage) SaveMessage(h *models.ChatHistory) error {
	args := m.Called(h)
	return args.Error(0)
}

func (m *MockStorage) GetChatHistory(sessionID string) ([]models.ChatHistory, error) {
	args := m.Called(sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ChatHistory), args.Error(1)
}

func (m *MockStorage) PublishMessage(sessionID string, msg models.Message) error {
	args := m.Called(sessionID, msg)
	return args.Error(0)
}

func (m *MockStorage) AddWaiting(userID string) error {
	args := m.Called(userID)
	return args.Error(0)
}

func (m *MockStorage) RemoveWaiting(userID string) error {
	args := m.Called(userID)
	return args.Error(0)
}

func (m *MockStorage) ClearWaiting() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockStorage) GetWaiting() ([]string, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

// newTestHandler builds a handler around a live broker (no recorder) and a
// mock storage, with routes mounted on a test engine.
func newTestHandler() (*Handler, *gin.Engine, *MockStorage) {
	gin.SetMode(gin.TestMode)

	store := new(MockStorage)
	hub := relay.NewHub()
	go hub.Run()

	b := broker.NewMatchBroker(broker.NewPresenceTracker(), nil, hub)
	h := NewHandler(b, store, hub, nil, []byte("test-secret"), "admin-token")

	r := gin.New()
	h.RegisterRoutes(r)
	return h, r, store
}

// perform runs a request through the engine and returns the recorder.
func perform(r *gin.Engine, method, path, token, body string) *httptest.ResponseRecorder {
	return performAdmin(r, method, path, token, "", body)
}

// performAdmin additionally sets the admin token header.
func performAdmin(r *gin.Engine, method, path, token, adminToken, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, reqBody(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if adminToken != "" {
		req.Header.Set("X-Admin-Token", adminToken)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}
