// Package board implements ship layout generation and the per-player grid.
package board

import "errors"

// Cell is the state of a single grid position, encoded as its dump symbol.
type Cell byte

const (
	Water   Cell = '.' // untouched empty cell
	Ship    Cell = '#' // untouched ship segment
	Hit     Cell = '@' // ship segment that has been struck
	Miss    Cell = '~' // empty cell that has been struck
	Unknown Cell = '?' // masked cell, never stored on a board
)

const (
	DefaultRows = 10
	DefaultCols = 10
	// MaxCols is bounded by the single letter used for the column.
	MaxCols = 26
)

// DefaultShipSizes is the classic fleet, largest first.
var DefaultShipSizes = []int{4, 3, 3, 2, 2, 2, 1, 1, 1, 1}

var cellNames = map[Cell]string{
	Water:   "WATER",
	Ship:    "SHIP",
	Hit:     "HIT",
	Miss:    "MISS",
	Unknown: "UNKNOWN",
}

func (c Cell) String() string {
	if name, ok := cellNames[c]; ok {
		return name
	}
	return "INVALID"
}

// Valid reports whether c may be stored on a board.
func (c Cell) Valid() bool {
	return c == Water || c == Ship || c == Hit || c == Miss
}

// ShotResult classifies a resolved shot.
type ShotResult int

const (
	ResultMiss ShotResult = iota
	ResultHit
	// ResultLastSunk is a hit that removed the last ship segment on the board.
	ResultLastSunk
)

var shotResultNames = map[ShotResult]string{
	ResultMiss:     "MISS",
	ResultHit:      "HIT",
	ResultLastSunk: "LAST_SUNK",
}

func (r ShotResult) String() string {
	return shotResultNames[r]
}

// IsHit is true for both Hit and LastSunk.
func (r ShotResult) IsHit() bool {
	return r == ResultHit || r == ResultLastSunk
}

var (
	ErrOutOfBounds        = errors.New("position is outside the board")
	ErrInvalidCoordinate  = errors.New("invalid coordinate")
	ErrInvalidDump        = errors.New("invalid board dump")
	ErrInvalidShipSizes   = errors.New("invalid ship sizes")
	ErrGenerationFailed   = errors.New("board generation failed")
	ErrInvalidBoardBounds = errors.New("invalid board dimensions")
)
