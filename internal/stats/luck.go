package stats

import (
	"math"

	"github.com/speaax/delve-companion/internal/droprates"
	"github.com/speaax/delve-companion/internal/storage/models"
)

// AnyUniqueName labels the aggregate row of a luck report.
const AnyUniqueName = "Any unique"

// Luck is actual minus expected. Positive means ahead of the rate.
func Luck(expected float64, actual int) float64 {
	return float64(actual) - expected
}

// MaxMagnitude returns the largest absolute luck, never less than 1.
func MaxMagnitude(values []float64) float64 {
	m := 1.0
	for _, v := range values {
		if a := math.Abs(v); a > m {
			m = a
		}
	}
	return m
}

// ItemLuck is one row of a luck report.
type ItemLuck struct {
	Item       droprates.Item `json:"item"`
	Expected   float64        `json:"expected"`
	Actual     int            `json:"actual"`
	Luck       float64        `json:"luck"`
	Normalized float64        `json:"normalized"`
	Progress   Progress       `json:"progress"`
	Counted    bool           `json:"counted"`
}

// Report is the luck of every tracked item plus the "any unique" row.
// Normalized values are luck divided by Scale, so they fall in [-1, 1].
type Report struct {
	Items []ItemLuck `json:"items"`
	Any   ItemLuck   `json:"any"`
	Scale float64    `json:"scale"`
}

// LuckReport compares exp against the profile's obtained counts. Items not
// counted still get a row but do not add to the aggregate's actual count.
func LuckReport(p *models.Profile, table *droprates.Table, exp Expectation, counted func(droprates.ItemID) bool) Report {
	if p == nil {
		p = models.NewProfile("")
	}
	items := table.Items()
	rows := make([]ItemLuck, 0, len(items))
	anyActual := 0
	for _, it := range items {
		actual := p.ObtainedCount(int(it.ID))
		isCounted := counted == nil || counted(it.ID)
		if isCounted {
			anyActual += actual
		}
		expected := exp.Expected(it.ID)
		rows = append(rows, ItemLuck{
			Item:     it,
			Expected: expected,
			Actual:   actual,
			Luck:     Luck(expected, actual),
			Progress: Split(expected),
			Counted:  isCounted,
		})
	}

	anyRow := ItemLuck{
		Item:     droprates.Item{Name: AnyUniqueName, Key: "any"},
		Expected: exp.Any,
		Actual:   anyActual,
		Luck:     Luck(exp.Any, anyActual),
		Progress: Split(exp.Any),
		Counted:  true,
	}

	lucks := make([]float64, 0, len(rows)+1)
	for _, r := range rows {
		lucks = append(lucks, r.Luck)
	}
	lucks = append(lucks, anyRow.Luck)
	scale := MaxMagnitude(lucks)

	for i := range rows {
		rows[i].Normalized = rows[i].Luck / scale
	}
	anyRow.Normalized = anyRow.Luck / scale

	return Report{Items: rows, Any: anyRow, Scale: scale}
}
