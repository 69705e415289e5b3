package models

import (
	"maps"
)

// OverflowFloor is the table floor that stands for every wave past floor 8.
const OverflowFloor = 9

// Profile is a named ledger of per-floor kill counts and obtained uniques.
// Counts only grow, except through Reset.
type Profile struct {
	Name            string      `json:"name"`
	LevelKills      map[int]int `json:"levelKills"`
	WavesPast8      int         `json:"wavesPast8"`
	ObtainedUniques map[int]int `json:"obtainedUniques"`
}

// NewProfile returns an empty profile with the given display name.
func NewProfile(name string) *Profile {
	return &Profile{
		Name:            name,
		LevelKills:      make(map[int]int),
		ObtainedUniques: make(map[int]int),
	}
}

// AddKills adds count completions to floor. The floor is not range checked.
func (p *Profile) AddKills(floor, count int) {
	if p.LevelKills == nil {
		p.LevelKills = make(map[int]int)
	}
	p.LevelKills[floor] += count
}

// AddWave8 records one completion past floor 8.
func (p *Profile) AddWave8() {
	p.WavesPast8++
}

// AddDrop records one obtained unique. Unknown item IDs are stored as-is.
func (p *Profile) AddDrop(itemID int) {
	if p.ObtainedUniques == nil {
		p.ObtainedUniques = make(map[int]int)
	}
	p.ObtainedUniques[itemID]++
}

// Reset zeroes all counts. The name is kept.
func (p *Profile) Reset() {
	p.LevelKills = make(map[int]int)
	p.WavesPast8 = 0
	p.ObtainedUniques = make(map[int]int)
}

// KillsAt returns the completions counted against a drop table floor.
func (p *Profile) KillsAt(floor int) int {
	if floor == OverflowFloor {
		return p.WavesPast8
	}
	return p.LevelKills[floor]
}

// TotalKills returns every completion, including waves past 8.
func (p *Profile) TotalKills() int {
	total := p.WavesPast8
	for _, n := range p.LevelKills {
		total += n
	}
	return total
}

// ObtainedCount returns how many of itemID were received.
func (p *Profile) ObtainedCount(itemID int) int {
	return p.ObtainedUniques[itemID]
}

// Clone returns a deep copy.
func (p *Profile) Clone() *Profile {
	c := &Profile{
		Name:            p.Name,
		LevelKills:      make(map[int]int, len(p.LevelKills)),
		WavesPast8:      p.WavesPast8,
		ObtainedUniques: make(map[int]int, len(p.ObtainedUniques)),
	}
	maps.Copy(c.LevelKills, p.LevelKills)
	maps.Copy(c.ObtainedUniques, p.ObtainedUniques)
	return c
}

// Equal reports whether two profiles hold the same name and counts.
// A nil map and an empty map compare equal.
func (p *Profile) Equal(other *Profile) bool {
	if p == nil || other == nil {
		return p == other
	}
	return p.Name == other.Name &&
		p.WavesPast8 == other.WavesPast8 &&
		maps.Equal(p.LevelKills, other.LevelKills) &&
		maps.Equal(p.ObtainedUniques, other.ObtainedUniques)
}
