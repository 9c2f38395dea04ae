package types

import (
	"fmt"
	"strings"
)

// Direction is one of the four map edges or movement directions. The zero
// value means "no direction" and is not valid.
type Direction uint8

const (
	Up Direction = iota + 1
	Down
	Left
	Right
)

// AllDirections returns the four valid directions in unlink order.
func AllDirections() []Direction {
	return []Direction{Down, Left, Right, Up}
}

// Valid reports whether d is one of Up, Down, Left or Right.
func (d Direction) Valid() bool {
	return d >= Up && d <= Right
}

// Opposite returns the direction facing away from d. Invalid directions are
// returned unchanged.
func (d Direction) Opposite() Direction {
	switch d {
	case Up:
		return Down
	case Down:
		return Up
	case Left:
		return Right
	case Right:
		return Left
	default:
		return d
	}
}

// Vertical reports whether d lies on the up/down axis.
func (d Direction) Vertical() bool {
	return d == Up || d == Down
}

// SameAxis reports whether d and other are both vertical or both horizontal.
func (d Direction) SameAxis(other Direction) bool {
	if !d.Valid() || !other.Valid() {
		return false
	}
	return d.Vertical() == other.Vertical()
}

func (d Direction) String() string {
	switch d {
	case Up:
		return "up"
	case Down:
		return "down"
	case Left:
		return "left"
	case Right:
		return "right"
	default:
		return fmt.Sprintf("direction(%d)", uint8(d))
	}
}

// ParseDirection converts a case-insensitive name into a Direction.
// Returns ErrInvalidDirection for anything else.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "up":
		return Up, nil
	case "down":
		return Down, nil
	case "left":
		return Left, nil
	case "right":
		return Right, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidDirection, s)
	}
}

// MarshalText encodes d by name. Invalid directions encode as the empty
// string so a round trip keeps them invalid.
func (d Direction) MarshalText() ([]byte, error) {
	if !d.Valid() {
		return []byte{}, nil
	}
	return []byte(d.String()), nil
}

// UnmarshalText decodes a direction name. Unknown names decode to the zero
// value rather than failing, so one bad entry in a stored link table does
// not reject the whole table; activation drops it later.
func (d *Direction) UnmarshalText(text []byte) error {
	parsed, err := ParseDirection(string(text))
	if err != nil {
		*d = 0
		return nil
	}
	*d = parsed
	return nil
}
