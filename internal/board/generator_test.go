package board

import (
	"errors"
	"math/rand/v2"
	"slices"
	"testing"
)

// shipRuns labels orthogonally connected ship cells and returns the label
// grid together with the size of each run.
func shipRuns(cells []Cell, rows, cols int) ([]int, []int) {
	labels := make([]int, len(cells))
	for i := range labels {
		labels[i] = -1
	}
	var sizes []int
	for start := range cells {
		if cells[start] != Ship || labels[start] != -1 {
			continue
		}
		label := len(sizes)
		size := 0
		stack := []int{start}
		labels[start] = label
		for len(stack) > 0 {
			idx := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			size++
			r, c := idx/cols, idx%cols
			for _, d := range [][2]int{{-1, 0}, {1, 0}, {0, -1}, {0, 1}} {
				nr, nc := r+d[0], c+d[1]
				if nr < 0 || nr >= rows || nc < 0 || nc >= cols {
					continue
				}
				n := nr*cols + nc
				if cells[n] == Ship && labels[n] == -1 {
					labels[n] = label
					stack = append(stack, n)
				}
			}
		}
		sizes = append(sizes, size)
	}
	return labels, sizes
}

func TestGenerateFleetInvariants(t *testing.T) {
	gen := DefaultGenerator().WithRand(rand.New(rand.NewPCG(1, 2)))

	for round := 0; round < 200; round++ {
		cells, err := gen.Generate()
		if err != nil {
			t.Fatalf("round %d: unexpected error: %v", round, err)
		}
		if len(cells) != DefaultRows*DefaultCols {
			t.Fatalf("round %d: expected %d cells, got %d", round, DefaultRows*DefaultCols, len(cells))
		}

		shipCells := 0
		for _, cell := range cells {
			if cell == Ship {
				shipCells++
			} else if cell != Water {
				t.Fatalf("round %d: unexpected cell %v on fresh board", round, cell)
			}
		}
		if shipCells != 19 {
			t.Errorf("round %d: expected 19 ship cells, got %d", round, shipCells)
		}

		labels, sizes := shipRuns(cells, DefaultRows, DefaultCols)
		expected := slices.Clone(DefaultShipSizes)
		slices.Sort(expected)
		slices.Sort(sizes)
		if !slices.Equal(expected, sizes) {
			t.Errorf("round %d: expected fleet %v, got %v", round, expected, sizes)
		}

		for idx, cell := range cells {
			if cell != Ship {
				continue
			}
			r, c := idx/DefaultCols, idx%DefaultCols
			for dr := -1; dr <= 1; dr++ {
				for dc := -1; dc <= 1; dc++ {
					nr, nc := r+dr, c+dc
					if nr < 0 || nr >= DefaultRows || nc < 0 || nc >= DefaultCols {
						continue
					}
					n := nr*DefaultCols + nc
					if cells[n] == Ship && labels[n] != labels[idx] {
						t.Fatalf("round %d: ships touch at (%d,%d) and (%d,%d)", round, r, c, nr, nc)
					}
				}
			}
		}
	}
}

func TestGenerateCustomFleet(t *testing.T) {
	gen := NewGenerator([]int{3, 2, 1}, 6, 8).WithRand(rand.New(rand.NewPCG(7, 7)))
	cells, err := gen.Generate()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cells) != 48 {
		t.Fatalf("expected 48 cells, got %d", len(cells))
	}
	_, sizes := shipRuns(cells, 6, 8)
	slices.Sort(sizes)
	if !slices.Equal(sizes, []int{1, 2, 3}) {
		t.Errorf("expected fleet [1 2 3], got %v", sizes)
	}
}

func TestGenerateExhaustsBudget(t *testing.T) {
	// At most four isolated cells fit on a 3x3 board.
	gen := NewGenerator([]int{1, 1, 1, 1, 1}, 3, 3)
	gen.MaxAttempts = 50
	gen.MaxRestarts = 3

	cells, err := gen.Generate()
	if !errors.Is(err, ErrGenerationFailed) {
		t.Fatalf("expected ErrGenerationFailed, got %v", err)
	}
	if cells != nil {
		t.Errorf("expected no board on failure, got %d cells", len(cells))
	}
}

func TestGenerateRejectsBadConfiguration(t *testing.T) {
	tests := []struct {
		name  string
		sizes []int
		rows  int
		cols  int
		want  error
	}{
		{"empty fleet", nil, 10, 10, ErrInvalidShipSizes},
		{"zero size", []int{2, 0}, 10, 10, ErrInvalidShipSizes},
		{"ship longer than board", []int{11}, 10, 10, ErrInvalidShipSizes},
		{"too many columns", []int{1}, 10, 27, ErrInvalidBoardBounds},
		{"no rows", []int{1}, 0, 10, ErrInvalidBoardBounds},
		{"fleet larger than board", []int{2, 2, 2}, 2, 2, ErrInvalidShipSizes},
	}

	for _, tt := range tests {
		_, err := Generate(tt.sizes, tt.rows, tt.cols)
		if !errors.Is(err, tt.want) {
			t.Errorf("%s: expected %v, got %v", tt.name, tt.want, err)
		}
	}
}
