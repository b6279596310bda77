package board

import (
	"fmt"
	"strconv"
	"strings"
)

// Position is a zero-based grid address.
type Position struct {
	Row int
	Col int
}

// String renders the position the way players type it: column letter
// followed by the one-based row, e.g. "A1" or "J10".
func (p Position) String() string {
	return string(rune('A'+p.Col)) + strconv.Itoa(p.Row+1)
}

// ParsePosition converts a coordinate such as "b7" into a Position on a
// rows x cols grid. The first character selects the column case-insensitively
// and the remainder is the one-based row.
func ParsePosition(coord string, rows, cols int) (Position, error) {
	coord = strings.TrimSpace(coord)
	if len(coord) < 2 {
		return Position{}, fmt.Errorf("%w: %q", ErrInvalidCoordinate, coord)
	}

	letter := coord[0]
	if letter >= 'a' && letter <= 'z' {
		letter -= 'a' - 'A'
	}
	if letter < 'A' || letter > 'Z' {
		return Position{}, fmt.Errorf("%w: %q", ErrInvalidCoordinate, coord)
	}
	col := int(letter - 'A')

	number := strings.TrimSpace(coord[1:])
	for _, ch := range number {
		if ch < '0' || ch > '9' {
			return Position{}, fmt.Errorf("%w: %q", ErrInvalidCoordinate, coord)
		}
	}
	row, err := strconv.Atoi(number)
	if err != nil {
		return Position{}, fmt.Errorf("%w: %q", ErrInvalidCoordinate, coord)
	}
	row--

	if row < 0 || row >= rows || col < 0 || col >= cols {
		return Position{}, fmt.Errorf("%w: %q outside %dx%d", ErrInvalidCoordinate, coord, rows, cols)
	}
	return Position{Row: row, Col: col}, nil
}
