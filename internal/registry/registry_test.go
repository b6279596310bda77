package registry

import (
	"errors"
	"sync"
	"testing"

	"github.com/life-stream-dev/battleships-server/internal/board"
	"github.com/life-stream-dev/battleships-server/internal/game"
)

func fixedFactory(t *testing.T) SessionFactory {
	t.Helper()
	return func(first, second *game.Player) (*game.Session, error) {
		boardA, err := board.Parse("#...", 2, 2)
		if err != nil {
			return nil, err
		}
		boardB, err := board.Parse("#...", 2, 2)
		if err != nil {
			return nil, err
		}
		return game.NewSessionWithBoards("", first, second, boardA, boardB)
	}
}

func TestConnectPairsInArrivalOrder(t *testing.T) {
	r := New(fixedFactory(t), nil)
	a, b, c := game.NewPlayer("a", nil), game.NewPlayer("b", nil), game.NewPlayer("c", nil)

	pairing, err := r.Connect(a)
	if err != nil || !pairing.Queued {
		t.Fatalf("expected a to be queued, got %+v err=%v", pairing, err)
	}
	if r.Waiting() != 1 {
		t.Fatalf("expected one waiting player, got %d", r.Waiting())
	}

	pairing, err = r.Connect(b)
	if err != nil {
		t.Fatalf("connect b: %v", err)
	}
	if pairing.Queued || pairing.Session == nil || pairing.Peer != a {
		t.Fatalf("expected b to be paired with a, got %+v", pairing)
	}
	if pairing.Session.TurnOwner() != "a" {
		t.Errorf("expected waiting player to move first, got %q", pairing.Session.TurnOwner())
	}
	if r.Waiting() != 0 || r.ActiveSessions() != 1 {
		t.Errorf("expected empty queue and one session, got %d/%d", r.Waiting(), r.ActiveSessions())
	}

	for _, id := range []string{"a", "b"} {
		s, ok := r.Resolve(id)
		if !ok || s != pairing.Session {
			t.Errorf("Resolve(%q): expected the new session", id)
		}
	}

	pairing, err = r.Connect(c)
	if err != nil || !pairing.Queued {
		t.Fatalf("expected c to become the waiting player, got %+v err=%v", pairing, err)
	}
	if _, ok := r.Resolve("c"); ok {
		t.Error("waiting player must not resolve to a session")
	}
}

func TestConnectRejectsDuplicates(t *testing.T) {
	r := New(fixedFactory(t), nil)
	if _, err := r.Connect(game.NewPlayer("a", nil)); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Connect(game.NewPlayer("a", nil)); !errors.Is(err, ErrPlayerRegistered) {
		t.Errorf("expected ErrPlayerRegistered for queued duplicate, got %v", err)
	}
	if _, err := r.Connect(game.NewPlayer("", nil)); !errors.Is(err, ErrEmptyPlayerID) {
		t.Errorf("expected ErrEmptyPlayerID, got %v", err)
	}
}

func TestConnectFactoryFailureKeepsPeerQueued(t *testing.T) {
	failing := func(first, second *game.Player) (*game.Session, error) {
		return nil, errors.New("boom")
	}
	r := New(failing, nil)
	if _, err := r.Connect(game.NewPlayer("a", nil)); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Connect(game.NewPlayer("b", nil)); err == nil {
		t.Fatal("expected factory error")
	}
	if r.Waiting() != 1 {
		t.Errorf("expected a to stay queued, got %d waiting", r.Waiting())
	}
}

func TestHandshakeNeedsBothPlayers(t *testing.T) {
	r := New(fixedFactory(t), nil)
	_, _ = r.Connect(game.NewPlayer("a", nil))
	pairing, _ := r.Connect(game.NewPlayer("b", nil))
	id := pairing.Session.ID()

	started, ok := r.MarkReady("a")
	if !ok || started || r.Started(id) {
		t.Fatalf("one acknowledgment must not start the session (started=%v ok=%v)", started, ok)
	}
	started, ok = r.MarkReady("a")
	if !ok || started {
		t.Fatalf("repeated acknowledgment must not start the session")
	}
	started, ok = r.MarkReady("b")
	if !ok || !started || !r.Started(id) {
		t.Fatalf("second acknowledgment must start the session")
	}
	started, _ = r.MarkReady("b")
	if started {
		t.Error("session must start only once")
	}
	if _, ok := r.MarkReady("nobody"); ok {
		t.Error("unknown player must not be acknowledged")
	}
}

func TestTeardownIsIdempotent(t *testing.T) {
	r := New(fixedFactory(t), nil)
	_, _ = r.Connect(game.NewPlayer("a", nil))
	pairing, _ := r.Connect(game.NewPlayer("b", nil))

	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if r.Teardown(pairing.Session) {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if wins != 1 {
		t.Fatalf("expected exactly one teardown, got %d", wins)
	}
	for _, id := range []string{"a", "b"} {
		if _, ok := r.Resolve(id); ok {
			t.Errorf("%s still resolves after teardown", id)
		}
		if !r.Terminated(id) {
			t.Errorf("%s should be marked terminated", id)
		}
	}
	if r.ActiveSessions() != 0 {
		t.Errorf("expected no active sessions, got %d", r.ActiveSessions())
	}
	if pairing.Session.Status() != game.StatusAborted {
		t.Errorf("expected torn down session to be aborted, got %v", pairing.Session.Status())
	}
	if _, ok := r.MarkReady("a"); ok {
		t.Error("terminated session must not accept acknowledgments")
	}
}

func TestLeave(t *testing.T) {
	r := New(fixedFactory(t), nil)

	_, _ = r.Connect(game.NewPlayer("a", nil))
	if s, ok := r.Leave("a"); ok || s != nil {
		t.Fatalf("leaving the queue must not return a session")
	}
	if r.Waiting() != 0 {
		t.Fatalf("expected empty queue, got %d", r.Waiting())
	}

	_, _ = r.Connect(game.NewPlayer("b", nil))
	pairing, _ := r.Connect(game.NewPlayer("c", nil))

	s, ok := r.Leave("c")
	if !ok || s != pairing.Session {
		t.Fatalf("expected Leave to tear down the session")
	}
	if _, ok := r.Leave("b"); ok {
		t.Error("second Leave must not report a teardown")
	}
	if !r.Terminated("b") {
		t.Error("peer should be marked terminated")
	}
	r.Forget("b")
	if r.Terminated("b") {
		t.Error("Forget should clear the terminated marker")
	}
}
