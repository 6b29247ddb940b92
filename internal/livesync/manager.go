package livesync

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const defaultBuffer = 64

// Session is one connected client: a controller plus the buffered stream
// of changes it publishes.
type Session struct {
	ID          uuid.UUID
	OwnerID     uuid.UUID
	ConnectedAt time.Time

	ctrl      *Controller
	events    chan Change
	done      chan struct{}
	closeOnce sync.Once
	log       logrus.FieldLogger
}

// Publish queues a change for the client, dropping it when the client is
// too slow to keep up. Every change carries the full view, so the next one
// delivered makes up for a dropped one.
func (s *Session) Publish(change Change) {
	select {
	case s.events <- change:
	default:
		s.log.WithField("collection", change.Collection).Warn("session buffer full, change dropped")
	}
}

func (s *Session) Events() <-chan Change {
	return s.events
}

func (s *Session) Select(boardID uuid.UUID) error {
	return s.ctrl.Select(boardID)
}

func (s *Session) View() View {
	return s.ctrl.View()
}

// Done is closed once the session has been signed out.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

func (s *Session) close() {
	s.closeOnce.Do(func() {
		s.ctrl.SignOut()
		close(s.done)
	})
}

// Manager tracks the live sessions of the process.
type Manager struct {
	src    Source
	boot   Bootstrapper
	log    logrus.FieldLogger
	buffer int

	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
}

func NewManager(src Source, boot Bootstrapper, log logrus.FieldLogger) *Manager {
	return &Manager{
		src:      src,
		boot:     boot,
		log:      log.WithField("component", "livesync_manager"),
		buffer:   defaultBuffer,
		sessions: make(map[uuid.UUID]*Session),
	}
}

// Open signs a new session in for owner. The session's feeds stop when ctx
// is done or Close is called.
func (m *Manager) Open(ctx context.Context, ownerID uuid.UUID) (*Session, error) {
	id := uuid.New()
	s := &Session{
		ID:          id,
		OwnerID:     ownerID,
		ConnectedAt: time.Now(),
		events:      make(chan Change, m.buffer),
		done:        make(chan struct{}),
		log:         m.log.WithFields(logrus.Fields{"session_id": id, "owner_id": ownerID}),
	}
	s.ctrl = NewController(m.src, m.boot, s, m.log)

	m.mu.Lock()
	m.sessions[id] = s
	m.mu.Unlock()

	if err := s.ctrl.SignIn(ctx, ownerID); err != nil {
		m.mu.Lock()
		delete(m.sessions, id)
		m.mu.Unlock()
		return nil, err
	}
	s.log.Info("sync session opened")
	return s, nil
}

// Get returns the session with id if it belongs to owner.
func (m *Manager) Get(id, ownerID uuid.UUID) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok || s.OwnerID != ownerID {
		return nil, false
	}
	return s, true
}

func (m *Manager) Close(id uuid.UUID) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if ok {
		s.close()
		s.log.Info("sync session closed")
	}
}

func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Shutdown closes every session.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[uuid.UUID]*Session)
	m.mu.Unlock()

	for _, s := range sessions {
		s.close()
	}
	m.log.WithField("sessions", len(sessions)).Info("sync sessions closed")
}
