package game

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/life-stream-dev/battleships-server/internal/board"
)

// Rejection reasons reported to the player whose move was refused.
const (
	ReasonInvalidCoordinate = "invalid coordinate"
	ReasonNotYourTurn       = "not your turn"
	ReasonInvalidSession    = "invalid session"
)

// RejectError is a validation failure. It never changes session state.
type RejectError struct {
	Reason string
}

func (e *RejectError) Error() string {
	return "move rejected: " + e.Reason
}

func reject(reason string) error {
	return &RejectError{Reason: reason}
}

// IsReject reports whether err is a move rejection and returns its reason.
func IsReject(err error) (string, bool) {
	var rejectErr *RejectError
	if errors.As(err, &rejectErr) {
		return rejectErr.Reason, true
	}
	return "", false
}

var ErrPlayersMismatch = errors.New("session needs two distinct players")

// Status is the session state machine position.
type Status int

const (
	StatusAwaitingMove Status = iota
	StatusFinished
	StatusAborted
)

var statusNames = map[Status]string{
	StatusAwaitingMove: "AWAITING_MOVE",
	StatusFinished:     "FINISHED",
	StatusAborted:      "ABORTED",
}

func (s Status) String() string {
	return statusNames[s]
}

// Move is the record of an accepted shot.
type Move struct {
	Attacker   string
	Defender   string
	Coordinate string
	Position   board.Position
	NextTurn   string
	Result     board.ShotResult
}

// Finished is true when the move ended the game; the attacker won.
func (m Move) Finished() bool {
	return m.Result == board.ResultLastSunk
}

// Session pairs two players with one board each. Board i belongs to player i
// and is only ever struck by the other player. ApplyMove is the sole writer
// of the turn owner and of both boards.
type Session struct {
	id      string
	players [2]*Player
	boards  [2]*board.Board

	mu        sync.Mutex
	turnOwner string
	status    Status
	winner    int
	moves     int
	startedAt time.Time
	endedAt   time.Time
}

// NewSession generates a fresh board for each player. The first player
// moves first.
func NewSession(first, second *Player, gen *board.Generator) (*Session, error) {
	if gen == nil {
		gen = board.DefaultGenerator()
	}
	var boards [2]*board.Board
	for i := range boards {
		cells, err := gen.Generate()
		if err != nil {
			return nil, fmt.Errorf("generate board: %w", err)
		}
		b, err := board.New(cells, gen.Rows, gen.Cols)
		if err != nil {
			return nil, fmt.Errorf("build board: %w", err)
		}
		boards[i] = b
	}
	return NewSessionWithBoards(uuid.NewString(), first, second, boards[0], boards[1])
}

// NewSessionWithBoards builds a session around existing boards; firstBoard
// belongs to first.
func NewSessionWithBoards(id string, first, second *Player, firstBoard, secondBoard *board.Board) (*Session, error) {
	if first == nil || second == nil || first.ID == "" || first.ID == second.ID {
		return nil, ErrPlayersMismatch
	}
	if firstBoard == nil || secondBoard == nil {
		return nil, errors.New("session needs two boards")
	}
	if firstBoard.Rows() != secondBoard.Rows() || firstBoard.Cols() != secondBoard.Cols() {
		return nil, fmt.Errorf("board sizes differ: %dx%d and %dx%d",
			firstBoard.Rows(), firstBoard.Cols(), secondBoard.Rows(), secondBoard.Cols())
	}
	if id == "" {
		id = uuid.NewString()
	}
	return &Session{
		id:        id,
		players:   [2]*Player{first, second},
		boards:    [2]*board.Board{firstBoard, secondBoard},
		turnOwner: first.ID,
		status:    StatusAwaitingMove,
		winner:    -1,
		startedAt: time.Now(),
	}, nil
}

func (s *Session) ID() string { return s.id }

func (s *Session) Players() [2]*Player { return s.players }

func (s *Session) Rows() int { return s.boards[0].Rows() }

func (s *Session) Cols() int { return s.boards[0].Cols() }

func (s *Session) StartedAt() time.Time { return s.startedAt }

func (s *Session) index(playerID string) int {
	for i, p := range s.players {
		if p.ID == playerID {
			return i
		}
	}
	return -1
}

// Player returns the participant with the given id.
func (s *Session) Player(playerID string) (*Player, bool) {
	i := s.index(playerID)
	if i < 0 {
		return nil, false
	}
	return s.players[i], true
}

// Opponent returns the other participant.
func (s *Session) Opponent(playerID string) (*Player, bool) {
	i := s.index(playerID)
	if i < 0 {
		return nil, false
	}
	return s.players[1-i], true
}

// ApplyMove validates and resolves a shot. Checks run in a fixed order and
// the first failing one decides the rejection reason. On success the turn
// passes to the defender whatever the outcome.
func (s *Session) ApplyMove(callerID, rawCoordinate string) (Move, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	coord := strings.TrimSpace(rawCoordinate)
	if coord == "" {
		return Move{}, reject(ReasonInvalidCoordinate)
	}

	if callerID == "" || callerID != s.turnOwner {
		return Move{}, reject(ReasonNotYourTurn)
	}

	pos, err := board.ParsePosition(coord, s.Rows(), s.Cols())
	if err != nil {
		return Move{}, reject(ReasonInvalidCoordinate)
	}

	attacker := s.index(callerID)
	if attacker < 0 || s.status != StatusAwaitingMove {
		return Move{}, reject(ReasonInvalidSession)
	}
	defender := 1 - attacker
	target := s.boards[defender]
	if target == nil {
		return Move{}, reject(ReasonInvalidSession)
	}

	result, err := target.Fire(pos)
	if err != nil {
		return Move{}, reject(ReasonInvalidCoordinate)
	}

	s.turnOwner = s.players[defender].ID
	s.moves++
	if result == board.ResultLastSunk {
		s.status = StatusFinished
		s.winner = attacker
		s.endedAt = time.Now()
	}

	return Move{
		Attacker:   s.players[attacker].ID,
		Defender:   s.players[defender].ID,
		Coordinate: pos.String(),
		Position:   pos,
		NextTurn:   s.turnOwner,
		Result:     result,
	}, nil
}

// Abort ends a running session without a winner. It reports whether this
// call changed the state.
func (s *Session) Abort() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != StatusAwaitingMove {
		return false
	}
	s.status = StatusAborted
	s.endedAt = time.Now()
	return true
}

func (s *Session) TurnOwner() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.turnOwner
}

func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *Session) Moves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.moves
}

func (s *Session) EndedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.endedAt
}

// Result returns winner and loser ids once the game is finished.
func (s *Session) Result() (winner, loser string, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != StatusFinished || s.winner < 0 {
		return "", "", false
	}
	return s.players[s.winner].ID, s.players[1-s.winner].ID, true
}

// OwnBoard is the full view of the player's own board.
func (s *Session) OwnBoard(playerID string) (string, bool) {
	i := s.index(playerID)
	if i < 0 {
		return "", false
	}
	return s.boards[i].FullView(), true
}

// OpponentBoard is the masked view of the board the player fires at.
func (s *Session) OpponentBoard(playerID string) (string, bool) {
	i := s.index(playerID)
	if i < 0 {
		return "", false
	}
	return s.boards[1-i].MaskedView(), true
}

// RevealedOpponentBoard shows what the player's shots uncovered so far.
func (s *Session) RevealedOpponentBoard(playerID string) (string, bool) {
	i := s.index(playerID)
	if i < 0 {
		return "", false
	}
	return s.boards[1-i].RevealedView(), true
}
