package game

import (
	"fmt"
	"strings"
)

// Color identifies one of the four diseases. Every city belongs to one color.
type Color string

const (
	Blue   Color = "BLUE"
	Red    Color = "RED"
	Yellow Color = "YELLOW"
	Grey   Color = "GREY"
)

// Colors lists the disease colors in a stable order.
var Colors = []Color{Blue, Red, Yellow, Grey}

// Valid reports whether c is one of the four disease colors.
func (c Color) Valid() bool {
	switch c {
	case Blue, Red, Yellow, Grey:
		return true
	default:
		return false
	}
}

func (c Color) String() string {
	return string(c)
}

// ParseColor normalises a color name. "GRAY" is accepted as an alias.
func ParseColor(s string) (Color, error) {
	c := Color(strings.ToUpper(strings.TrimSpace(s)))
	if c == "GRAY" {
		c = Grey
	}
	if !c.Valid() {
		return "", fmt.Errorf("%w: unknown color %q", ErrInvalidArgument, s)
	}
	return c, nil
}

func newColorCounts(initial int) map[Color]int {
	m := make(map[Color]int, len(Colors))
	for _, c := range Colors {
		m[c] = initial
	}
	return m
}

func newColorFlags() map[Color]bool {
	m := make(map[Color]bool, len(Colors))
	for _, c := range Colors {
		m[c] = false
	}
	return m
}
