package droprates

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// Table domain. Floor 9 stands for every wave past the 8th floor.
const (
	MinTableFloor = 2
	MaxTableFloor = 9
)

// ErrInvalidTable is returned when a drop table fails validation.
var ErrInvalidTable = errors.New("invalid drop table")

// Rates is the drop record for a single floor.
type Rates struct {
	// Overall is the published chance of any unique. The calculations sum the
	// per-item chances instead; the value is kept for reference.
	Overall float64

	// Chances maps item to its per-kill probability on the floor.
	Chances map[ItemID]float64
}

// Chance returns the probability for item, or 0 if the item cannot drop.
func (r Rates) Chance(item ItemID) float64 {
	return r.Chances[item]
}

func (r Rates) clone() Rates {
	c := Rates{Overall: r.Overall, Chances: make(map[ItemID]float64, len(r.Chances))}
	for k, v := range r.Chances {
		c.Chances[k] = v
	}
	return c
}

// Table is an immutable lookup of per-floor drop rates.
// It is safe for concurrent use; nothing mutates it after construction.
type Table struct {
	floors map[int]Rates
	items  []Item
}

// NewTable validates and copies the given definition into a frozen Table.
func NewTable(items []Item, floors map[int]Rates) (*Table, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: no items", ErrInvalidTable)
	}
	seen := make(map[ItemID]bool, len(items))
	for _, it := range items {
		if seen[it.ID] {
			return nil, fmt.Errorf("%w: duplicate item %d", ErrInvalidTable, it.ID)
		}
		seen[it.ID] = true
	}

	t := &Table{
		floors: make(map[int]Rates, len(floors)),
		items:  append([]Item(nil), items...),
	}
	for floor, rates := range floors {
		if floor < MinTableFloor || floor > MaxTableFloor {
			return nil, fmt.Errorf("%w: floor %d outside %d..%d", ErrInvalidTable, floor, MinTableFloor, MaxTableFloor)
		}
		if err := checkProbability(rates.Overall); err != nil {
			return nil, fmt.Errorf("%w: floor %d overall: %v", ErrInvalidTable, floor, err)
		}
		for item, p := range rates.Chances {
			if !seen[item] {
				return nil, fmt.Errorf("%w: floor %d references unknown item %d", ErrInvalidTable, floor, item)
			}
			if err := checkProbability(p); err != nil {
				return nil, fmt.Errorf("%w: floor %d item %d: %v", ErrInvalidTable, floor, item, err)
			}
		}
		t.floors[floor] = rates.clone()
	}
	return t, nil
}

func checkProbability(p float64) error {
	if p < 0 || p > 1 || p != p {
		return fmt.Errorf("probability %v not in [0,1]", p)
	}
	return nil
}

// RatesForFloor returns the drop record for floor. The second result is false
// for floors with no table entry (0, 1, or outside the domain); callers treat
// that as a zero chance for every item.
func (t *Table) RatesForFloor(floor int) (Rates, bool) {
	r, ok := t.floors[floor]
	if !ok {
		return Rates{}, false
	}
	return r.clone(), true
}

// Chance returns the per-kill probability of item on floor without copying.
func (t *Table) Chance(floor int, item ItemID) float64 {
	return t.floors[floor].Chances[item]
}

// Floors returns the floors that have a table entry, ascending.
func (t *Table) Floors() []int {
	out := make([]int, 0, len(t.floors))
	for f := range t.floors {
		out = append(out, f)
	}
	sort.Ints(out)
	return out
}

// Items returns the items the table tracks, in display order.
func (t *Table) Items() []Item {
	return append([]Item(nil), t.items...)
}

// Item resolves an ID against the table's items.
func (t *Table) Item(id ItemID) (Item, bool) {
	for _, it := range t.items {
		if it.ID == id {
			return it, true
		}
	}
	return Item{}, false
}

// ItemByName resolves a name or key against the table's items.
func (t *Table) ItemByName(name string) (Item, bool) {
	return findItem(t.items, name)
}

func defaultFloors() map[int]Rates {
	row := func(overall, cloth, eye, treads, dom float64) Rates {
		return Rates{
			Overall: overall,
			Chances: map[ItemID]float64{
				MokhaiotlCloth: cloth,
				EyeOfAyak:      eye,
				AvernicTreads:  treads,
				Dom:            dom,
			},
		}
	}
	return map[int]Rates{
		2: row(1.0/2500, 1.0/2500, 0, 0, 0),
		3: row(1.0/1000, 1.0/2000, 1.0/2000, 0, 0),
		4: row(1.0/450, 1.0/1350, 1.0/1350, 1.0/1350, 0),
		5: row(1.0/270, 1.0/810, 1.0/810, 1.0/810, 0),
		6: row(1.0/255, 1.0/765, 1.0/765, 1.0/765, 1.0/1000),
		7: row(1.0/240, 1.0/720, 1.0/720, 1.0/720, 1.0/750),
		8: row(1.0/210, 1.0/630, 1.0/630, 1.0/630, 1.0/500),
		9: row(1.0/180, 1.0/540, 1.0/540, 1.0/540, 1.0/250),
	}
}

var defaultTable = sync.OnceValue(func() *Table {
	t, err := NewTable(trackedItems, defaultFloors())
	if err != nil {
		panic(fmt.Sprintf("droprates: built-in table invalid: %v", err))
	}
	return t
})

// Default returns the built-in table. It is constructed once per process.
func Default() *Table {
	return defaultTable()
}
