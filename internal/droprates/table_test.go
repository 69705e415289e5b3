package droprates

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_RatesForFloor(t *testing.T) {
	table := Default()

	tests := []struct {
		name  string
		floor int
		item  ItemID
		want  float64
		found bool
	}{
		{name: "floor 2 cloth", floor: 2, item: MokhaiotlCloth, want: 1.0 / 2500, found: true},
		{name: "floor 2 dom", floor: 2, item: Dom, want: 0, found: true},
		{name: "floor 4 treads", floor: 4, item: AvernicTreads, want: 1.0 / 1350, found: true},
		{name: "floor 8 dom", floor: 8, item: Dom, want: 1.0 / 500, found: true},
		{name: "overflow dom", floor: 9, item: Dom, want: 1.0 / 250, found: true},
		{name: "floor 1 has no table", floor: 1, item: MokhaiotlCloth, found: false},
		{name: "floor 0 has no table", floor: 0, item: MokhaiotlCloth, found: false},
		{name: "floor 10 has no table", floor: 10, item: MokhaiotlCloth, found: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rates, ok := table.RatesForFloor(tt.floor)
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.want, rates.Chance(tt.item))
			assert.Equal(t, tt.want, table.Chance(tt.floor, tt.item))
		})
	}
}

func TestDefault_IsShared(t *testing.T) {
	assert.Same(t, Default(), Default())
}

func TestRatesForFloor_ReturnsCopy(t *testing.T) {
	table := Default()
	rates, ok := table.RatesForFloor(3)
	require.True(t, ok)

	rates.Chances[MokhaiotlCloth] = 1

	again, _ := table.RatesForFloor(3)
	assert.Equal(t, 1.0/2000, again.Chance(MokhaiotlCloth))
}

func TestDefault_FloorsAndItems(t *testing.T) {
	table := Default()
	assert.Equal(t, []int{2, 3, 4, 5, 6, 7, 8, 9}, table.Floors())

	items := table.Items()
	require.Len(t, items, 4)
	assert.Equal(t, MokhaiotlCloth, items[0].ID)
	assert.Equal(t, Dom, items[3].ID)
}

func TestNewTable_Validation(t *testing.T) {
	items := TrackedItems()

	_, err := NewTable(nil, nil)
	assert.True(t, errors.Is(err, ErrInvalidTable))

	_, err = NewTable(items, map[int]Rates{1: {Chances: map[ItemID]float64{Dom: 0.1}}})
	assert.ErrorIs(t, err, ErrInvalidTable)

	_, err = NewTable(items, map[int]Rates{3: {Chances: map[ItemID]float64{Dom: 1.5}}})
	assert.ErrorIs(t, err, ErrInvalidTable)

	_, err = NewTable(items, map[int]Rates{3: {Chances: map[ItemID]float64{ItemID(42): 0.1}}})
	assert.ErrorIs(t, err, ErrInvalidTable)

	_, err = NewTable(append(items, items[0]), nil)
	assert.ErrorIs(t, err, ErrInvalidTable)
}

func TestItemByName(t *testing.T) {
	tests := []struct {
		in   string
		want ItemID
		ok   bool
	}{
		{in: "Avernic treads", want: AvernicTreads, ok: true},
		{in: "avernic TREADS", want: AvernicTreads, ok: true},
		{in: "Eye of ayak (uncharged)", want: EyeOfAyak, ok: true},
		{in: "Eye of ayak", want: EyeOfAyak, ok: true},
		{in: "dom", want: Dom, ok: true},
		{in: "mokhaiotl_cloth", want: MokhaiotlCloth, ok: true},
		{in: "Abyssal whip", ok: false},
		{in: "  ", ok: false},
	}
	for _, tt := range tests {
		item, ok := ItemByName(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		if tt.ok {
			assert.Equal(t, tt.want, item.ID, tt.in)
		}
	}
}

func TestParseTable(t *testing.T) {
	doc := []byte(`
floors:
  2:
    overall: 1/100
    chances:
      31109: 1/100
  9:
    overall: "0.5"
    chances:
      31130: 0.25
`)
	table, err := ParseTable(doc)
	require.NoError(t, err)

	assert.Equal(t, []int{2, 9}, table.Floors())
	assert.InDelta(t, 0.01, table.Chance(2, MokhaiotlCloth), 1e-12)
	assert.InDelta(t, 0.25, table.Chance(9, Dom), 1e-12)
	assert.Len(t, table.Items(), 4)
}

func TestParseTable_Invalid(t *testing.T) {
	cases := map[string]string{
		"zero denominator": "floors:\n  2:\n    chances:\n      31109: 1/0\n",
		"bad number":       "floors:\n  2:\n    chances:\n      31109: lots\n",
		"out of range":     "floors:\n  2:\n    chances:\n      31109: 2\n",
		"bad floor":        "floors:\n  12:\n    chances:\n      31109: 0.1\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseTable([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestLoadTable(t *testing.T) {
	t.Run("empty path uses default", func(t *testing.T) {
		table, err := LoadTable("")
		require.NoError(t, err)
		assert.Same(t, Default(), table)
	})

	t.Run("missing file uses default", func(t *testing.T) {
		table, err := LoadTable(filepath.Join(t.TempDir(), "nope.yaml"))
		require.NoError(t, err)
		assert.Same(t, Default(), table)
	})

	t.Run("override file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "rates.yaml")
		require.NoError(t, os.WriteFile(path, []byte("floors:\n  5:\n    chances:\n      31088: 1/10\n"), 0o644))

		table, err := LoadTable(path)
		require.NoError(t, err)
		assert.InDelta(t, 0.1, table.Chance(5, AvernicTreads), 1e-12)
		_, ok := table.RatesForFloor(2)
		assert.False(t, ok)
	})
}
