// Package registry implements matchmaking and the index from connected
// players to their running session.
package registry

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/life-stream-dev/battleships-server/internal/board"
	"github.com/life-stream-dev/battleships-server/internal/game"
	"github.com/life-stream-dev/battleships-server/internal/logger"
)

var (
	ErrPlayerRegistered = errors.New("player is already registered")
	ErrEmptyPlayerID    = errors.New("player id is empty")
)

// SessionFactory builds the session for a freshly paired couple; the
// waiting player comes first.
type SessionFactory func(first, second *game.Player) (*game.Session, error)

// Pairing is the outcome of Connect.
type Pairing struct {
	// Queued is set when the player now waits for an opponent.
	Queued  bool
	Session *game.Session
	Peer    *game.Player
}

type sessionEntry struct {
	session    *game.Session
	mu         sync.Mutex
	ready      map[string]bool
	started    bool
	terminated atomic.Bool
}

// Registry holds the waiting queue and the session indexes. The queue has
// its own lock; the indexes are concurrent maps so lookups from connection
// goroutines never contend on the queue.
type Registry struct {
	queueMu sync.Mutex
	queue   []*game.Player

	sessions      sync.Map // session id -> *sessionEntry
	playerSession sync.Map // player id -> session id
	terminated    sync.Map // player id -> struct{}
	active        atomic.Int64

	newSession SessionFactory
}

// New returns a registry that builds sessions with factory. A nil factory
// generates boards with gen.
func New(factory SessionFactory, gen *board.Generator) *Registry {
	if factory == nil {
		factory = func(first, second *game.Player) (*game.Session, error) {
			return game.NewSession(first, second, gen)
		}
	}
	return &Registry{newSession: factory}
}

// Connect pairs player with the waiting player if there is one, otherwise
// queues it.
func (r *Registry) Connect(player *game.Player) (Pairing, error) {
	if player == nil || player.ID == "" {
		return Pairing{}, ErrEmptyPlayerID
	}
	if _, ok := r.playerSession.Load(player.ID); ok {
		return Pairing{}, ErrPlayerRegistered
	}

	r.queueMu.Lock()
	for _, waiting := range r.queue {
		if waiting.ID == player.ID {
			r.queueMu.Unlock()
			return Pairing{}, ErrPlayerRegistered
		}
	}
	if len(r.queue) == 0 {
		r.queue = append(r.queue, player)
		r.queueMu.Unlock()
		logger.DebugF("Player %s queued", player.ID)
		return Pairing{Queued: true}, nil
	}
	peer := r.queue[0]
	r.queue = r.queue[1:]

	session, err := r.newSession(peer, player)
	if err != nil {
		// Put the peer back in front so it keeps its place.
		r.queue = append([]*game.Player{peer}, r.queue...)
		r.queueMu.Unlock()
		return Pairing{}, err
	}

	entry := &sessionEntry{session: session, ready: make(map[string]bool, 2)}
	r.sessions.Store(session.ID(), entry)
	r.playerSession.Store(peer.ID, session.ID())
	r.playerSession.Store(player.ID, session.ID())
	r.active.Add(1)
	r.queueMu.Unlock()

	logger.InfoF("Session %s created for %s and %s", session.ID(), peer.ID, player.ID)
	return Pairing{Session: session, Peer: peer}, nil
}

// Resolve returns the active session of a player.
func (r *Registry) Resolve(playerID string) (*game.Session, bool) {
	entry, ok := r.entryFor(playerID)
	if !ok {
		return nil, false
	}
	return entry.session, true
}

func (r *Registry) entryFor(playerID string) (*sessionEntry, bool) {
	sessionID, ok := r.playerSession.Load(playerID)
	if !ok {
		return nil, false
	}
	value, ok := r.sessions.Load(sessionID)
	if !ok {
		return nil, false
	}
	return value.(*sessionEntry), true
}

// MarkReady records that a player acknowledged the start of its session.
// The session starts once both players did; justStarted is true only for
// the call that completed the handshake.
func (r *Registry) MarkReady(playerID string) (justStarted bool, ok bool) {
	entry, found := r.entryFor(playerID)
	if !found || entry.terminated.Load() {
		return false, false
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	entry.ready[playerID] = true
	if entry.started {
		return false, true
	}
	for _, p := range entry.session.Players() {
		if !entry.ready[p.ID] {
			return false, true
		}
	}
	entry.started = true
	logger.InfoF("Session %s started", entry.session.ID())
	return true, true
}

// Started reports whether both players of the session acknowledged.
func (r *Registry) Started(sessionID string) bool {
	value, ok := r.sessions.Load(sessionID)
	if !ok {
		return false
	}
	entry := value.(*sessionEntry)
	entry.mu.Lock()
	defer entry.mu.Unlock()
	return entry.started
}

// Teardown removes every trace of the session. Only the first call does
// anything; it returns true to that caller alone, so concurrent disconnect
// and game end cannot both clean up.
func (r *Registry) Teardown(session *game.Session) bool {
	if session == nil {
		return false
	}
	value, ok := r.sessions.Load(session.ID())
	if !ok {
		return false
	}
	entry := value.(*sessionEntry)
	if !entry.terminated.CompareAndSwap(false, true) {
		return false
	}

	session.Abort()
	for _, p := range session.Players() {
		r.terminated.Store(p.ID, struct{}{})
		r.playerSession.CompareAndDelete(p.ID, session.ID())
	}
	r.sessions.Delete(session.ID())
	r.active.Add(-1)
	logger.InfoF("Session %s removed", session.ID())
	return true
}

// Leave unregisters a disconnecting player. A waiting player is dropped from
// the queue; a player in a session tears it down, and the session is
// returned when this call performed the teardown.
func (r *Registry) Leave(playerID string) (*game.Session, bool) {
	r.queueMu.Lock()
	for i, waiting := range r.queue {
		if waiting.ID == playerID {
			r.queue = append(r.queue[:i], r.queue[i+1:]...)
			r.queueMu.Unlock()
			logger.DebugF("Player %s left the queue", playerID)
			r.terminated.Store(playerID, struct{}{})
			return nil, false
		}
	}
	r.queueMu.Unlock()

	session, ok := r.Resolve(playerID)
	r.terminated.Store(playerID, struct{}{})
	if !ok {
		return nil, false
	}
	if !r.Teardown(session) {
		return nil, false
	}
	return session, true
}

// Terminated reports whether the player's session was torn down (or the
// player left), meaning its connection must stop processing input.
func (r *Registry) Terminated(playerID string) bool {
	_, ok := r.terminated.Load(playerID)
	return ok
}

// Forget drops the terminated marker once the connection is gone.
func (r *Registry) Forget(playerID string) {
	r.terminated.Delete(playerID)
}

// ActiveSessions is the number of sessions not yet torn down.
func (r *Registry) ActiveSessions() int {
	return int(r.active.Load())
}

// Waiting is the number of queued players.
func (r *Registry) Waiting() int {
	r.queueMu.Lock()
	defer r.queueMu.Unlock()
	return len(r.queue)
}
