package droprates

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Floor bounds as reported by the game.
const (
	FirstFloor = 1
	LastFloor  = 8

	// OverflowIndex is the table floor that aggregates waves past floor 8.
	OverflowIndex = 9

	overflowText = "8+"
)

// ErrInvalidFloor is returned for floor values outside 1..8 / "8+".
var ErrInvalidFloor = errors.New("invalid floor")

// Floor is a completed floor: either a numbered floor 1..8 or the overflow
// "8+" that covers every wave past the eighth. The zero value is invalid.
type Floor struct {
	index int
}

// NewFloor returns the numbered floor n (1..8).
func NewFloor(n int) (Floor, error) {
	if n < FirstFloor || n > LastFloor {
		return Floor{}, fmt.Errorf("%w: %d", ErrInvalidFloor, n)
	}
	return Floor{index: n}, nil
}

// OverflowFloor returns the "8+" floor.
func OverflowFloor() Floor {
	return Floor{index: OverflowIndex}
}

// ParseFloor parses "1".."8" or "8+". "9" is accepted as an alias of "8+".
func ParseFloor(s string) (Floor, error) {
	s = strings.TrimSpace(s)
	if s == overflowText {
		return OverflowFloor(), nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return Floor{}, fmt.Errorf("%w: %q", ErrInvalidFloor, s)
	}
	if n == OverflowIndex {
		return OverflowFloor(), nil
	}
	return NewFloor(n)
}

// IsValid reports whether f was produced by one of the constructors.
func (f Floor) IsValid() bool {
	return f.index >= FirstFloor && f.index <= OverflowIndex
}

// IsOverflow reports whether f is the "8+" floor.
func (f Floor) IsOverflow() bool {
	return f.index == OverflowIndex
}

// TableIndex returns the drop table floor for f: 1..8, or 9 for "8+".
func (f Floor) TableIndex() int {
	return f.index
}

func (f Floor) String() string {
	if f.IsOverflow() {
		return overflowText
	}
	return strconv.Itoa(f.index)
}

// MarshalText implements encoding.TextMarshaler.
func (f Floor) MarshalText() ([]byte, error) {
	if !f.IsValid() {
		return nil, ErrInvalidFloor
	}
	return []byte(f.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *Floor) UnmarshalText(text []byte) error {
	parsed, err := ParseFloor(string(text))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}
