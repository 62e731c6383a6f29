package cooldown

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ogeth777/baseworld/internal/logging"
)

var ErrCooldownActive = errors.New("cooldown active")

// ActiveError is returned when an actor is still inside its cooldown window.
type ActiveError struct {
	Remaining time.Duration
}

func (e ActiveError) Error() string {
	return fmt.Sprintf("%v: %v remaining", ErrCooldownActive, e.Remaining.Round(time.Second))
}

func (e ActiveError) Unwrap() error {
	return ErrCooldownActive
}

// Decision is the outcome of a cooldown check.
type Decision struct {
	Allowed   bool
	Remaining time.Duration
}

// Err returns nil if the decision allows the mutation.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	return ActiveError{Remaining: d.Remaining}
}

// Manager enforces a minimum delay between accepted mutations per actor.
// Checking never changes state, only Commit does.
type Manager struct {
	log    *logging.Logger
	window time.Duration

	mu   sync.Mutex
	last map[string]time.Time
}

func New(log *logging.Logger, cfg Config) *Manager {
	log = log.Named(namedLogger)
	log.SetLevel(cfg.Level.Get())
	return &Manager{
		log:    log,
		window: cfg.Window.Get(),
		last:   map[string]time.Time{},
	}
}

func (m *Manager) Window() time.Duration {
	return m.window
}

// CheckAndGate tells whether actor may mutate at now.
func (m *Manager) CheckAndGate(actor string, now time.Time) Decision {
	m.mu.Lock()
	last, ok := m.last[actor]
	m.mu.Unlock()

	if !ok {
		return Decision{Allowed: true}
	}
	if elapsed := now.Sub(last); elapsed < m.window {
		return Decision{Remaining: m.window - elapsed}
	}
	return Decision{Allowed: true}
}

// Commit records an accepted mutation of actor at now.
func (m *Manager) Commit(actor string, now time.Time) {
	m.mu.Lock()
	m.last[actor] = now
	m.mu.Unlock()
}

// Reset clears the actor's cooldown.
func (m *Manager) Reset(actor string) {
	m.mu.Lock()
	delete(m.last, actor)
	m.mu.Unlock()
	m.log.Debug("cooldown reset", logging.Actor(actor))
}

// LastAccepted returns the time of the last accepted mutation of actor, if any.
func (m *Manager) LastAccepted(actor string) (time.Time, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.last[actor]
	return t, ok
}

// StartCleanup drops records whose window has elapsed, they are equivalent
// to no record at all.
func (m *Manager) StartCleanup(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			m.cleanup(now)
		}
	}
}

func (m *Manager) cleanup(now time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for actor, last := range m.last {
		if now.Sub(last) >= m.window {
			delete(m.last, actor)
			removed++
		}
	}
	if removed > 0 {
		m.log.Debug("expired cooldowns removed", logging.Int("count", removed))
	}
	return removed
}
