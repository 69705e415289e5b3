package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/speaax/delve-companion/internal/droprates"
	"github.com/speaax/delve-companion/internal/stats"
	"github.com/speaax/delve-companion/internal/storage/models"
	"github.com/speaax/delve-companion/internal/tracker"
)

func TestPrintSummary(t *testing.T) {
	p := models.NewProfile("ALL")
	p.AddKills(3, 4)
	p.AddWave8()

	cloth := droprates.Item{ID: droprates.MokhaiotlCloth, Name: "Mokhaiotl cloth"}
	dom := droprates.Item{ID: droprates.Dom, Name: "Dom"}
	s := &tracker.Summary{
		Mode:       "STANDARD",
		View:       models.ViewAll,
		Profile:    p,
		TotalKills: p.TotalKills(),
		Luck: stats.Report{
			Items: []stats.ItemLuck{
				{Item: cloth, Expected: 1.25, Actual: 2, Luck: 0.75, Progress: stats.Split(1.25)},
				{Item: dom, Expected: 0.5, Actual: 0, Luck: -0.5, Progress: stats.Split(0.5)},
			},
			Any: stats.ItemLuck{Expected: 1.75, Actual: 2, Luck: 0.25, Progress: stats.Split(1.75)},
		},
	}

	var buf bytes.Buffer
	printSummary(&buf, s, map[droprates.ItemID]models.DisplayMode{droprates.Dom: models.DisplayHide})
	out := buf.String()

	assert.Contains(t, out, "STANDARD / ALL")
	assert.Contains(t, out, "Total kills: 5")
	assert.Contains(t, out, "Floor 3: 4")
	assert.Contains(t, out, "Floor 8+: 1")
	assert.Contains(t, out, "Mokhaiotl cloth")
	assert.Contains(t, out, "25.0%")
	assert.Contains(t, out, "Any unique")
	assert.NotContains(t, out, "Dom")
}
