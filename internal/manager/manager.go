// Package manager implements the Game Manager (room registry and
// lifecycle owner) and the two single-writer game loops it spawns: Team
// and Competitive. Each room's mutable state is owned exclusively by its
// own loop goroutine; the Manager itself only guards the
// code -> (mode, mailbox sender) mapping, with constant-time critical
// sections.
package manager

import (
	"errors"
	"fmt"
	"sync"

	"github.com/wordloop/hangman/internal/message"
	"github.com/wordloop/hangman/internal/token"
)

// mailboxCapacity is the bounded capacity of every room's inbound
// mailbox: enough to absorb a burst from one client without unbounded
// queueing (spec.md §4.1).
const mailboxCapacity = 10

// Handle is the cheap-to-clone record a Session uses to reach a room's
// loop: its mode (so the Session knows which envelope type to expect)
// and the send-end of its mailbox.
type Handle struct {
	Mode message.GameMode
	Send chan<- Inbound
}

// Manager owns the mapping of GameCode to live room loops. Registry
// mutation is guarded by a single mutex; every operation is an O(1)
// map insert/remove/get-then-clone, per spec.md §5.
type Manager struct {
	mu    sync.Mutex
	rooms map[token.GameCode]Handle
	deps  Deps
}

// New builds a Manager that spawns loops with the given collaborators.
func New(deps Deps) *Manager {
	return &Manager{
		rooms: make(map[token.GameCode]Handle),
		deps:  deps,
	}
}

// Create allocates a fresh room: a random GameCode, a bounded mailbox,
// and a mode-specific loop goroutine that owns it from here on. It
// returns the code the caller should hand back to the room's creator.
func (m *Manager) Create(owner token.UserToken, settings message.GameSettings) (token.GameCode, error) {
	code, err := m.allocateCode()
	if err != nil {
		return 0, err
	}

	mailbox := make(chan Inbound, mailboxCapacity)
	handle := Handle{Mode: settings.Mode, Send: mailbox}

	m.mu.Lock()
	m.rooms[code] = handle
	m.mu.Unlock()

	reap := func() { m.reap(code) }

	switch settings.Mode {
	case message.ModeTeam:
		m.deps.Metrics.GameCreated(settings.Mode)
		go runTeamLoop(mailbox, code, settings, owner, m.deps, reap)
	case message.ModeCompetitive:
		m.deps.Metrics.GameCreated(settings.Mode)
		go runCompetitiveLoop(mailbox, code, settings, owner, m.deps, reap)
	default:
		m.reap(code)
		return 0, fmt.Errorf("manager: unknown game mode %q", settings.Mode)
	}

	return code, nil
}

// Lookup returns a snapshot clone of a room's handle for a Session to
// use. The returned sender is cheap to clone and holds no long-term
// resources of its own.
func (m *Manager) Lookup(code token.GameCode) (Handle, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.rooms[code]
	return h, ok
}

// reap removes a room's registry entry. Called from the loop's own
// teardown path only; the Manager never interrupts a live loop.
func (m *Manager) reap(code token.GameCode) {
	m.mu.Lock()
	h, ok := m.rooms[code]
	if ok {
		delete(m.rooms, code)
	}
	m.mu.Unlock()
	if ok {
		m.deps.Metrics.GameEnded(h.Mode)
	}
}

// allocateCode draws a random GameCode that isn't already live. A
// collision with a live room is astronomically unlikely at expected
// concurrent-room counts (spec.md §4.1); this bounded retry loop exists
// only as a defensive backstop, not because collisions are expected.
func (m *Manager) allocateCode() (token.GameCode, error) {
	const maxAttempts = 32
	for i := 0; i < maxAttempts; i++ {
		code, err := token.NewGameCode()
		if err != nil {
			return 0, err
		}
		m.mu.Lock()
		_, exists := m.rooms[code]
		m.mu.Unlock()
		if !exists {
			return code, nil
		}
	}
	return 0, errors.New("manager: could not allocate a free game code")
}
