package board

import (
	"fmt"
	"sync"
)

// Board is one player's grid. It is struck only by the opponent; all
// operations are serialized by the board's own mutex.
type Board struct {
	mu    sync.Mutex
	rows  int
	cols  int
	cells []Cell
}

// New wraps a row-major grid, typically produced by a Generator. The slice
// is copied.
func New(cells []Cell, rows, cols int) (*Board, error) {
	if rows <= 0 || cols <= 0 || cols > MaxCols {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidBoardBounds, rows, cols)
	}
	if len(cells) != rows*cols {
		return nil, fmt.Errorf("%w: expected %d cells, got %d", ErrInvalidDump, rows*cols, len(cells))
	}
	for i, cell := range cells {
		if !cell.Valid() {
			return nil, fmt.Errorf("%w: symbol %q at index %d", ErrInvalidDump, byte(cell), i)
		}
	}
	b := &Board{rows: rows, cols: cols, cells: make([]Cell, len(cells))}
	copy(b.cells, cells)
	return b, nil
}

// Parse builds a board from a flat dump such as the one FullView returns.
func Parse(dump string, rows, cols int) (*Board, error) {
	cells := make([]Cell, len(dump))
	for i := 0; i < len(dump); i++ {
		cells[i] = Cell(dump[i])
	}
	return New(cells, rows, cols)
}

func (b *Board) Rows() int { return b.rows }

func (b *Board) Cols() int { return b.cols }

// FireAt resolves a shot. Water becomes Miss and Ship becomes Hit; a cell
// that was already resolved keeps its state and reports the same class again.
// The only error is an out-of-bounds position.
func (b *Board) FireAt(row, col int) (ShotResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if row < 0 || row >= b.rows || col < 0 || col >= b.cols {
		return ResultMiss, fmt.Errorf("%w: (%d,%d)", ErrOutOfBounds, row, col)
	}

	idx := row*b.cols + col
	switch b.cells[idx] {
	case Ship:
		b.cells[idx] = Hit
		if b.shipsRemaining() == 0 {
			return ResultLastSunk, nil
		}
		return ResultHit, nil
	case Water:
		b.cells[idx] = Miss
		return ResultMiss, nil
	case Hit:
		return ResultHit, nil
	default:
		return ResultMiss, nil
	}
}

// Fire is FireAt for a Position.
func (b *Board) Fire(pos Position) (ShotResult, error) {
	return b.FireAt(pos.Row, pos.Col)
}

// IsAllSunk is true when no untouched ship segment is left.
func (b *Board) IsAllSunk() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.shipsRemaining() == 0
}

// ShipsRemaining counts untouched ship segments.
func (b *Board) ShipsRemaining() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.shipsRemaining()
}

func (b *Board) shipsRemaining() int {
	n := 0
	for _, cell := range b.cells {
		if cell == Ship {
			n++
		}
	}
	return n
}

// Cell returns the true state at (row, col).
func (b *Board) Cell(row, col int) (Cell, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if row < 0 || row >= b.rows || col < 0 || col >= b.cols {
		return Unknown, fmt.Errorf("%w: (%d,%d)", ErrOutOfBounds, row, col)
	}
	return b.cells[row*b.cols+col], nil
}

// FullView dumps every cell's true state. It is meant for the board's owner.
func (b *Board) FullView() string {
	return b.view(func(c Cell) Cell { return c })
}

// MaskedView hides whether an un-shot cell is water or ship.
func (b *Board) MaskedView() string {
	return b.view(func(c Cell) Cell {
		switch c {
		case Hit, Miss:
			return c
		default:
			return Unknown
		}
	})
}

// RevealedView shows struck cells as what they turned out to be.
func (b *Board) RevealedView() string {
	return b.view(func(c Cell) Cell {
		switch c {
		case Hit:
			return Ship
		case Miss:
			return Water
		default:
			return Unknown
		}
	})
}

func (b *Board) view(project func(Cell) Cell) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]byte, len(b.cells))
	for i, cell := range b.cells {
		out[i] = byte(project(cell))
	}
	return string(out)
}
