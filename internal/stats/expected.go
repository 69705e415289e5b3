// Package stats turns a delve profile into expected-drop and luck figures.
package stats

import (
	"math"

	"github.com/speaax/delve-companion/internal/droprates"
	"github.com/speaax/delve-companion/internal/storage/models"
)

// Expectation holds the expected (fractional) drop counts for a profile.
type Expectation struct {
	// PerItem has an entry for every item the table tracks.
	PerItem map[droprates.ItemID]float64

	// Any is the "any unique" aggregate over counted items only.
	Any float64
}

// Expected returns the expectation for item, 0 if untracked.
func (e Expectation) Expected(item droprates.ItemID) float64 {
	return e.PerItem[item]
}

// ExpectedDrops accumulates kills(f) * rate(f, item) over floors 2..9, where
// kills(9) is the profile's waves past floor 8. Nothing is rounded.
func ExpectedDrops(p *models.Profile, table *droprates.Table) map[droprates.ItemID]float64 {
	items := table.Items()
	out := make(map[droprates.ItemID]float64, len(items))
	for _, it := range items {
		out[it.ID] = 0
	}
	if p == nil {
		return out
	}

	for floor := droprates.MinTableFloor; floor <= droprates.MaxTableFloor; floor++ {
		kills := p.KillsAt(floor)
		if kills == 0 {
			continue
		}
		rates, ok := table.RatesForFloor(floor)
		if !ok {
			continue
		}
		for _, it := range items {
			out[it.ID] += float64(kills) * rates.Chance(it.ID)
		}
	}
	return out
}

// Calculate computes per-item expectations and the "any unique" aggregate.
// counted decides which items feed the aggregate; nil counts every item.
func Calculate(p *models.Profile, table *droprates.Table, counted func(droprates.ItemID) bool) Expectation {
	per := ExpectedDrops(p, table)
	var anyUnique float64
	for _, it := range table.Items() {
		if counted == nil || counted(it.ID) {
			anyUnique += per[it.ID]
		}
	}
	return Expectation{PerItem: per, Any: anyUnique}
}

// Progress splits an expectation into whole expected drops and the progress
// toward the next one.
type Progress struct {
	Whole    int     `json:"whole"`
	Fraction float64 `json:"fraction"`
}

// Split returns the integer part of expected and its remainder in [0, 1).
func Split(expected float64) Progress {
	if expected <= 0 || math.IsNaN(expected) {
		return Progress{}
	}
	whole := math.Floor(expected)
	return Progress{Whole: int(whole), Fraction: expected - whole}
}
