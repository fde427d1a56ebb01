package session

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

const (
	defaultTTL    = 30 * time.Minute
	sweepInterval = 5 * time.Minute
)

// Manager is the injected session repository: an in-memory map keyed by
// chat id, swappable for a distributed store behind the same surface.
type Manager struct {
	mu       sync.RWMutex
	sessions map[int64]*Session
	ttl      time.Duration
	now      func() time.Time

	runMu   sync.Mutex
	started bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

func NewManager(ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Manager{
		sessions: map[int64]*Session{},
		ttl:      ttl,
		now:      time.Now,
	}
}

// Begin creates (or resets) the chat's session in the default state.
func (m *Manager) Begin(chatID, userID int64) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess := &Session{
		ChatID:    chatID,
		UserID:    userID,
		State:     StateDefault,
		UpdatedAt: m.now(),
	}
	m.sessions[chatID] = sess
	return sess
}

// Active returns the chat's session if one exists and has not idled out.
// Stale sessions are evicted on read.
func (m *Manager) Active(chatID int64) (*Session, bool) {
	m.mu.RLock()
	sess, ok := m.sessions[chatID]
	m.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if m.now().Sub(sess.UpdatedAt) > m.ttl {
		m.Clear(chatID)
		return nil, false
	}
	return sess, true
}

// Touch refreshes the idle clock after the chat's event was applied.
func (m *Manager) Touch(chatID int64) {
	m.mu.RLock()
	sess, ok := m.sessions[chatID]
	m.mu.RUnlock()
	if ok {
		sess.UpdatedAt = m.now()
	}
}

// Clear drops the session, returning the chat to "no session". Terminal
// transitions (cancel, submit, ban, error) end up here.
func (m *Manager) Clear(chatID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, chatID)
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

func (m *Manager) Start(ctx context.Context) error {
	m.runMu.Lock()
	defer m.runMu.Unlock()
	if m.started {
		return nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		ticker := time.NewTicker(sweepInterval)
		defer ticker.Stop()

		for {
			select {
			case <-runCtx.Done():
				return
			case <-ticker.C:
				m.sweep()
			}
		}
	}()

	m.started = true
	return nil
}

func (m *Manager) Stop(ctx context.Context) error {
	m.runMu.Lock()
	if !m.started {
		m.runMu.Unlock()
		return nil
	}
	m.started = false
	cancel := m.cancel
	m.runMu.Unlock()

	if cancel != nil {
		cancel()
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		m.wg.Wait()
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

func (m *Manager) sweep() {
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()
	for chatID, sess := range m.sessions {
		if now.Sub(sess.UpdatedAt) > m.ttl {
			log.WithField("chat_id", chatID).Debug("evicting idle session")
			delete(m.sessions, chatID)
		}
	}
}
