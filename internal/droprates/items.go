// Package droprates holds the per-floor unique drop probabilities for the Delve
// and the canonical floor representation used when ingesting completions.
package droprates

import "strings"

// ItemID identifies an item. Values outside the tracked set are legal and are
// carried through the ledger untouched.
type ItemID int

// Tracked unique rewards.
const (
	MokhaiotlCloth ItemID = 31109
	EyeOfAyak      ItemID = 31112
	AvernicTreads  ItemID = 31088
	Dom            ItemID = 31130
)

// Item describes a tracked unique reward.
type Item struct {
	ID   ItemID `yaml:"id" json:"id"`
	Name string `yaml:"name" json:"name"` // Name as shown in game messages
	Key  string `yaml:"key" json:"key"`   // Stable config key (e.g. "avernic_treads")
}

// trackedItems is ordered for display.
var trackedItems = []Item{
	{ID: MokhaiotlCloth, Name: "Mokhaiotl cloth", Key: "mokhaiotl_cloth"},
	{ID: EyeOfAyak, Name: "Eye of ayak (uncharged)", Key: "eye_of_ayak"},
	{ID: AvernicTreads, Name: "Avernic treads", Key: "avernic_treads"},
	{ID: Dom, Name: "Dom", Key: "dom"},
}

// TrackedItems returns the built-in tracked items in display order.
func TrackedItems() []Item {
	out := make([]Item, len(trackedItems))
	copy(out, trackedItems)
	return out
}

// findItem matches name against an item's Name or Key, ignoring case.
// "Eye of ayak" also matches the uncharged variant.
func findItem(items []Item, name string) (Item, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Item{}, false
	}
	for _, it := range items {
		if strings.EqualFold(it.Name, name) || strings.EqualFold(it.Key, name) {
			return it, true
		}
	}
	for _, it := range items {
		base, _, found := strings.Cut(it.Name, " (")
		if found && strings.EqualFold(base, name) {
			return it, true
		}
	}
	return Item{}, false
}

// ItemByName resolves a display name or config key to a built-in tracked item.
func ItemByName(name string) (Item, bool) {
	return findItem(trackedItems, name)
}
