package chathub_test

import (
	"time"

	"lawchat/backend/internal/models"

	"github.com/stretchr/testify/mock"
)

// MockStorage is a testify mock of the storage.Storage collaborator.
type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) SaveMessage(msg *models.Message) error {
	args := m.Called(msg)
	return args.Error(0)
}

func (m *MockStorage) GetSessionHistory(sessionID string) ([]models.Message, error) {
	args := m.Called(sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Message), args.Error(1)
}

func (m *MockStorage) SaveSession(session *models.ChatSession) error {
	args := m.Called(session)
	return args.Error(0)
}

func (m *MockStorage) CloseSession(sessionID string) error {
	args := m.Called(sessionID)
	return args.Error(0)
}

func (m *MockStorage) GetActiveSessionIDs() ([]string, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockStorage) GetSessionByID(sessionID string) (*models.ChatSession, error) {
	args := m.Called(sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ChatSession), args.Error(1)
}

// newQuietStorage returns a MockStorage that tolerates the collaborator
// traffic every routed message produces, without asserting on it.
func newQuietStorage() *MockStorage {
	s := new(MockStorage)
	s.On("SaveMessage", mock.Anything).Return(nil).Maybe()
	s.On("GetSessionHistory", mock.Anything).Return([]models.Message{}, nil).Maybe()
	s.On("GetSessionByID", mock.Anything).Return(nil, nil).Maybe()
	s.On("SaveSession", mock.Anything).Return(nil).Maybe()
	return s
}

// mockClient is a test double for the chathub.Client interface with a
// buffered send channel the tests can drain.
type mockClient struct {
	id     string
	send   chan models.Envelope
	closed chan struct{}
}

func newMockClient(id string) *mockClient {
	return &mockClient{
		id:     id,
		send:   make(chan models.Envelope, 32),
		closed: make(chan struct{}),
	}
}

func (c *mockClient) GetID() string                          { return c.id }
func (c *mockClient) GetSendChannel() chan<- models.Envelope { return c.send }
func (c *mockClient) Run()                                   {}

func (c *mockClient) Close() {
	select {
	case <-c.closed:
	default:
		close(c.closed)
	}
}

// receive pops the next outbound envelope, or ok=false when none arrives
// within the wait.
func (c *mockClient) receive(wait time.Duration) (models.Envelope, bool) {
	select {
	case env := <-c.send:
		return env, true
	case <-time.After(wait):
		return models.Envelope{}, false
	}
}

// receiveEvent drains until it sees the named event, or ok=false on timeout.
func (c *mockClient) receiveEvent(name string, wait time.Duration) (models.Envelope, bool) {
	deadline := time.After(wait)
	for {
		select {
		case env := <-c.send:
			if env.Event == name {
				return env, true
			}
		case <-deadline:
			return models.Envelope{}, false
		}
	}
}
