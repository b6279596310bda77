package board

import (
	"fmt"
	"math/rand/v2"
)

const (
	DefaultMaxAttempts = 10000
	DefaultMaxRestarts = 100
)

// directions holds the unit vectors (dRow, dCol) a ship may extend along.
var directions = [2][2]int{
	{0, 1}, // horizontal
	{1, 0}, // vertical
}

// Generator places ships at random positions such that no two ships touch,
// not even diagonally.
type Generator struct {
	ShipSizes []int
	Rows      int
	Cols      int
	// MaxAttempts is the number of consecutive rejected placements for a
	// single ship after which the whole board is discarded.
	MaxAttempts int
	// MaxRestarts bounds the number of discarded boards before Generate fails.
	MaxRestarts int

	intn func(n int) int
}

// NewGenerator returns a generator for the given fleet and dimensions using
// the default retry budget.
func NewGenerator(shipSizes []int, rows, cols int) *Generator {
	sizes := make([]int, len(shipSizes))
	copy(sizes, shipSizes)
	return &Generator{
		ShipSizes:   sizes,
		Rows:        rows,
		Cols:        cols,
		MaxAttempts: DefaultMaxAttempts,
		MaxRestarts: DefaultMaxRestarts,
		intn:        rand.IntN,
	}
}

// DefaultGenerator returns a generator for the classic 10x10 fleet.
func DefaultGenerator() *Generator {
	return NewGenerator(DefaultShipSizes, DefaultRows, DefaultCols)
}

// WithRand makes the generator draw from r. *rand.Rand is not safe for
// concurrent use, so neither is the returned generator.
func (g *Generator) WithRand(r *rand.Rand) *Generator {
	g.intn = r.IntN
	return g
}

func (g *Generator) validate() error {
	if g.Rows <= 0 || g.Cols <= 0 || g.Cols > MaxCols {
		return fmt.Errorf("%w: %dx%d", ErrInvalidBoardBounds, g.Rows, g.Cols)
	}
	if len(g.ShipSizes) == 0 {
		return fmt.Errorf("%w: empty fleet", ErrInvalidShipSizes)
	}
	longest := max(g.Rows, g.Cols)
	total := 0
	for _, size := range g.ShipSizes {
		if size <= 0 || size > longest {
			return fmt.Errorf("%w: ship of size %d does not fit a %dx%d board", ErrInvalidShipSizes, size, g.Rows, g.Cols)
		}
		total += size
	}
	if total > g.Rows*g.Cols {
		return fmt.Errorf("%w: fleet of %d cells exceeds board", ErrInvalidShipSizes, total)
	}
	return nil
}

// Generate returns a row-major grid with every ship placed, or an error when
// the retry budget is exhausted. A partially placed board is never returned.
func (g *Generator) Generate() ([]Cell, error) {
	if err := g.validate(); err != nil {
		return nil, err
	}
	intn := g.intn
	if intn == nil {
		intn = rand.IntN
	}
	maxAttempts := g.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	maxRestarts := g.MaxRestarts
	if maxRestarts <= 0 {
		maxRestarts = DefaultMaxRestarts
	}

	cells := make([]Cell, g.Rows*g.Cols)
	for restart := 0; restart <= maxRestarts; restart++ {
		if g.fill(cells, intn, maxAttempts) {
			return cells, nil
		}
	}
	return nil, fmt.Errorf("%w: no layout found after %d restarts", ErrGenerationFailed, maxRestarts)
}

// fill resets cells and places the whole fleet. It reports false as soon as
// one ship exhausts its attempts.
func (g *Generator) fill(cells []Cell, intn func(int) int, maxAttempts int) bool {
	for i := range cells {
		cells[i] = Water
	}
	for _, size := range g.ShipSizes {
		placed := false
		for attempt := 0; attempt < maxAttempts; attempt++ {
			dir := directions[intn(len(directions))]
			row, col := intn(g.Rows), intn(g.Cols)
			if g.canPlace(cells, size, row, col, dir[0], dir[1]) {
				for i := 0; i < size; i++ {
					cells[(row+i*dir[0])*g.Cols+col+i*dir[1]] = Ship
				}
				placed = true
				break
			}
		}
		if !placed {
			return false
		}
	}
	return true
}

func (g *Generator) canPlace(cells []Cell, size, row, col, dRow, dCol int) bool {
	for i := 0; i < size; i++ {
		r, c := row+i*dRow, col+i*dCol
		if !g.inBounds(r, c) {
			return false
		}
		if cells[r*g.Cols+c] == Ship {
			return false
		}
		if !g.hasSpaceAround(cells, r, c) {
			return false
		}
	}
	return true
}

func (g *Generator) hasSpaceAround(cells []Cell, row, col int) bool {
	for dr := -1; dr <= 1; dr++ {
		for dc := -1; dc <= 1; dc++ {
			r, c := row+dr, col+dc
			if g.inBounds(r, c) && cells[r*g.Cols+c] == Ship {
				return false
			}
		}
	}
	return true
}

func (g *Generator) inBounds(row, col int) bool {
	return row >= 0 && row < g.Rows && col >= 0 && col < g.Cols
}

// Generate is a shorthand for NewGenerator(shipSizes, rows, cols).Generate().
func Generate(shipSizes []int, rows, cols int) ([]Cell, error) {
	return NewGenerator(shipSizes, rows, cols).Generate()
}
