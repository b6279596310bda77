package board

import (
	"errors"
	"testing"
)

func TestParsePosition(t *testing.T) {
	tests := []struct {
		coord string
		want  Position
	}{
		{"A1", Position{Row: 0, Col: 0}},
		{"a1", Position{Row: 0, Col: 0}},
		{"J10", Position{Row: 9, Col: 9}},
		{"c7", Position{Row: 6, Col: 2}},
		{" B2 ", Position{Row: 1, Col: 1}},
	}

	for _, tt := range tests {
		got, err := ParsePosition(tt.coord, DefaultRows, DefaultCols)
		if err != nil {
			t.Errorf("ParsePosition(%q): unexpected error %v", tt.coord, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParsePosition(%q): expected %+v, got %+v", tt.coord, tt.want, got)
		}
	}
}

func TestParsePositionRejects(t *testing.T) {
	for _, coord := range []string{"", "A", "K1", "A0", "A11", "11", "AA", "A-1", "A+1", "#3", "Ä1"} {
		if _, err := ParsePosition(coord, DefaultRows, DefaultCols); !errors.Is(err, ErrInvalidCoordinate) {
			t.Errorf("ParsePosition(%q): expected ErrInvalidCoordinate, got %v", coord, err)
		}
	}
}

func TestPositionRoundTrip(t *testing.T) {
	for row := 0; row < DefaultRows; row++ {
		for col := 0; col < DefaultCols; col++ {
			pos := Position{Row: row, Col: col}
			got, err := ParsePosition(pos.String(), DefaultRows, DefaultCols)
			if err != nil {
				t.Fatalf("%s: unexpected error %v", pos, err)
			}
			if got != pos {
				t.Fatalf("%s: expected %+v, got %+v", pos, pos, got)
			}
		}
	}
}
