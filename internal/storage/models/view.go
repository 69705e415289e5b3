package models

import (
	"fmt"
	"strings"
)

// View selects one of the three ledgers kept per game mode.
type View int

const (
	// ViewAll is the persistent all-time ledger.
	ViewAll View = iota
	// ViewSession lives only for the current process.
	ViewSession
	// ViewManual is persistent and can be reset by the user.
	ViewManual
)

var viewNames = [...]string{"ALL", "SESSION", "MANUAL"}

func (v View) String() string {
	if v < ViewAll || v > ViewManual {
		return fmt.Sprintf("View(%d)", int(v))
	}
	return viewNames[v]
}

// ParseView accepts ALL, SESSION or MANUAL in any case.
func ParseView(s string) (View, error) {
	for i, name := range viewNames {
		if strings.EqualFold(strings.TrimSpace(s), name) {
			return View(i), nil
		}
	}
	return ViewAll, fmt.Errorf("unknown view %q", s)
}

// Views returns every view in display order.
func Views() []View {
	return []View{ViewAll, ViewSession, ViewManual}
}

func (v View) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

func (v *View) UnmarshalText(text []byte) error {
	parsed, err := ParseView(string(text))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}
