// Package protocol is the line codec spoken between the battleships server
// and its clients. Every message is one line, fields separated by ';'.
package protocol

import (
	"strings"

	"github.com/life-stream-dev/battleships-server/internal/board"
)

const Separator = ";"

// Server to client event names.
const (
	EventWait          = "czekaj"
	EventStart         = "start"
	EventOwnBoard      = "moja plansza"
	EventOpponentBoard = "plansza przeciwnika"
	EventUI            = "UI"
	EventTurn          = "tura"
	EventStatus        = "status"
	EventInfo          = "info"
	EventHit           = "trafiony"
	EventMiss          = "pudło"
	EventLastSunk      = "ostatni zatopiony"
	EventResult        = "wynik"
)

// Payloads of status, wynik and the disconnect notice.
const (
	StatusYourTurn = "twoja tura"
	StatusWait     = "czekaj"

	ResultWin  = "wygrana"
	ResultLoss = "przegrana"

	InfoOpponentLeft   = "przeciwnik opuścił grę"
	InfoProtocolFailed = "zbyt wiele błędów, sesja zakończona"
	InfoServerShutdown = "serwer zostaje wyłączony"
)

// Client to server keywords.
const (
	CommandQuitKeyword  = "q"
	CommandPingKeyword  = "ping"
	CommandStartKeyword = "start"
)

// Encode joins an event name and its fields into one line without the
// trailing newline.
func Encode(name string, fields ...string) string {
	if len(fields) == 0 {
		return name
	}
	return name + Separator + strings.Join(fields, Separator)
}

func Wait(playerID string) string {
	return Encode(EventWait, playerID)
}

func Start(sessionID, playerID string) string {
	return Encode(EventStart, sessionID, playerID)
}

func OwnBoard(dump string) string {
	return Encode(EventOwnBoard, dump)
}

func OpponentBoard(dump string) string {
	return Encode(EventOpponentBoard, dump)
}

func UI(line string) string {
	return Encode(EventUI, line)
}

func Turn(playerID string) string {
	return Encode(EventTurn, playerID)
}

// Status tells a player whether it is its turn.
func Status(yourTurn bool) string {
	if yourTurn {
		return Encode(EventStatus, StatusYourTurn)
	}
	return Encode(EventStatus, StatusWait)
}

func Info(message string) string {
	return Encode(EventInfo, message)
}

// Shot encodes the broadcast for an accepted move. A last-sunk shot is
// announced without the coordinate.
func Shot(result board.ShotResult, coordinate string) string {
	switch result {
	case board.ResultLastSunk:
		return EventLastSunk
	case board.ResultHit:
		return Encode(EventHit, coordinate)
	default:
		return Encode(EventMiss, coordinate)
	}
}

func Result(won bool) string {
	if won {
		return Encode(EventResult, ResultWin)
	}
	return Encode(EventResult, ResultLoss)
}

// Event is a decoded server line.
type Event struct {
	Name   string
	Fields []string
}

// ParseEvent splits a server line into its name and fields.
func ParseEvent(line string) Event {
	line = strings.TrimRight(line, "\r\n")
	parts := strings.Split(line, Separator)
	return Event{Name: parts[0], Fields: parts[1:]}
}

// Field returns the i-th field or "" when absent.
func (e Event) Field(i int) string {
	if i < 0 || i >= len(e.Fields) {
		return ""
	}
	return e.Fields[i]
}

// Payload rejoins the fields, for events whose payload may contain the
// separator (info, UI).
func (e Event) Payload() string {
	return strings.Join(e.Fields, Separator)
}

type CommandKind int

const (
	CommandMove CommandKind = iota
	CommandStart
	CommandQuit
	CommandPing
)

func (k CommandKind) String() string {
	switch k {
	case CommandMove:
		return "MOVE"
	case CommandStart:
		return "START"
	case CommandQuit:
		return "QUIT"
	case CommandPing:
		return "PING"
	default:
		return "UNKNOWN"
	}
}

// Command is a decoded client line. Coordinate is raw; validation belongs
// to the session.
type Command struct {
	Kind       CommandKind
	Coordinate string
}

// HasMove reports whether the command carries a shot.
func (c Command) HasMove() bool {
	return c.Kind == CommandMove || (c.Kind == CommandStart && c.Coordinate != "")
}

// ParseCommand decodes one client line. Anything that is not a keyword is
// treated as a coordinate, empty lines included.
func ParseCommand(line string) Command {
	line = strings.TrimSpace(line)
	switch {
	case strings.EqualFold(line, CommandQuitKeyword):
		return Command{Kind: CommandQuit}
	case strings.EqualFold(line, CommandPingKeyword):
		return Command{Kind: CommandPing}
	case strings.EqualFold(line, CommandStartKeyword):
		return Command{Kind: CommandStart}
	}

	name, rest, found := strings.Cut(line, Separator)
	if found && strings.EqualFold(strings.TrimSpace(name), CommandStartKeyword) {
		return Command{Kind: CommandStart, Coordinate: strings.TrimSpace(rest)}
	}
	return Command{Kind: CommandMove, Coordinate: line}
}
