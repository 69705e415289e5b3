package models

import (
	"fmt"
	"strings"
)

// DisplayMode is the per-item reward display setting.
type DisplayMode int

const (
	DisplayShow DisplayMode = iota
	DisplayGrey
	DisplayHide
)

var displayModeNames = [...]string{"SHOW", "GREY", "HIDE"}

func (m DisplayMode) String() string {
	if m < DisplayShow || m > DisplayHide {
		return fmt.Sprintf("DisplayMode(%d)", int(m))
	}
	return displayModeNames[m]
}

// IncludedInAggregate reports whether the item counts toward "any unique".
// Only SHOW does.
func (m DisplayMode) IncludedInAggregate() bool {
	return m == DisplayShow
}

// ParseDisplayMode accepts SHOW, GREY (or GRAY) and HIDE in any case.
func ParseDisplayMode(s string) (DisplayMode, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "GRAY" {
		s = "GREY"
	}
	for i, name := range displayModeNames {
		if s == name {
			return DisplayMode(i), nil
		}
	}
	return DisplayShow, fmt.Errorf("unknown display mode %q", s)
}

func (m DisplayMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *DisplayMode) UnmarshalText(text []byte) error {
	parsed, err := ParseDisplayMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
