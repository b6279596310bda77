// Package render turns flat board dumps into text grids.
package render

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/life-stream-dev/battleships-server/internal/board"
)

const (
	OwnTitle      = "Twoja plansza"
	OpponentTitle = "Plansza przeciwnika"
	gap           = "    "
)

// Grid lays a row-major dump out with column letters on top and 1-based
// row numbers on the left. A dump of the wrong length yields nil.
func Grid(dump string, rows, cols int) []string {
	if rows < 1 || cols < 1 || cols > board.MaxCols || len(dump) != rows*cols {
		return nil
	}
	lines := make([]string, 0, rows+1)

	var header strings.Builder
	header.WriteString("  ")
	for c := 0; c < cols; c++ {
		header.WriteByte(' ')
		header.WriteByte(byte('A' + c))
	}
	lines = append(lines, header.String())

	for r := 0; r < rows; r++ {
		var line strings.Builder
		fmt.Fprintf(&line, "%2d", r+1)
		for c := 0; c < cols; c++ {
			line.WriteByte(' ')
			line.WriteByte(dump[r*cols+c])
		}
		lines = append(lines, line.String())
	}
	return lines
}

// SideBySide renders the player's own board next to the opponent's, each
// under its title.
func SideBySide(own, opponent string, rows, cols int) []string {
	left := Grid(own, rows, cols)
	right := Grid(opponent, rows, cols)
	if left == nil || right == nil {
		return nil
	}
	width := max(len(left[0]), len(OwnTitle))
	lines := make([]string, 0, len(left)+1)
	lines = append(lines, fmt.Sprintf("%-*s%s%s", width, OwnTitle, gap, OpponentTitle))
	for i := range left {
		lines = append(lines, fmt.Sprintf("%-*s%s%s", width, left[i], gap, right[i]))
	}
	return lines
}

// Colorize tints the cell symbols of a rendered line for a terminal.
func Colorize(line string) string {
	var out strings.Builder
	for i := 0; i < len(line); i++ {
		ch := line[i]
		switch board.Cell(ch) {
		case board.Ship:
			out.WriteString(color.GreenString("%c", ch))
		case board.Hit:
			out.WriteString(color.RedString("%c", ch))
		case board.Miss:
			out.WriteString(color.BlueString("%c", ch))
		case board.Unknown:
			out.WriteString(color.HiBlackString("%c", ch))
		default:
			out.WriteByte(ch)
		}
	}
	return out.String()
}
