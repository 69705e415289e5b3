package logreader

import (
	"strings"

	"github.com/speaax/delve-companion/internal/droprates"
)

// EventKind classifies a recognized chat message.
type EventKind int

const (
	// FloorCompleted is a "Delve level: N ... duration: ..." message.
	FloorCompleted EventKind = iota + 1

	// DropObtained is a pet message or a collection log entry for a
	// tracked unique.
	DropObtained
)

func (k EventKind) String() string {
	switch k {
	case FloorCompleted:
		return "floor_completed"
	case DropObtained:
		return "drop_obtained"
	default:
		return "unknown"
	}
}

// Event is a chat message recognized by Parse.
type Event struct {
	Kind EventKind

	// Floor is the floor text ("1".."8" or "8+") for FloorCompleted.
	Floor string

	// ItemID is the unique for DropObtained.
	ItemID droprates.ItemID

	// Pet is true when the drop came from a pet message, which the game
	// prints without naming the area it happened in.
	Pet bool
}

const collectionLogPrefix = "New item added to your collection log:"

// petMessages are printed when the Dom pet is rolled, including the variant
// for a pet that was rolled while already owned.
var petMessages = map[string]struct{}{
	"You have a funny feeling like you're being followed.":         {},
	"You feel something weird sneaking into your backpack.":        {},
	"You have a funny feeling like you would have been followed...": {},
}

// Parse recognizes Delve floor completions and unique drops in a chat
// message with markup already removed.
func Parse(message string) (Event, bool) {
	message = strings.TrimSpace(message)

	if strings.Contains(message, "Delve level:") && strings.Contains(message, "duration:") {
		return parseFloor(message)
	}

	if _, ok := petMessages[message]; ok {
		return Event{Kind: DropObtained, ItemID: droprates.Dom, Pet: true}, true
	}

	if name, ok := strings.CutPrefix(message, collectionLogPrefix); ok {
		name = strings.TrimSuffix(strings.TrimSpace(name), ".")
		item, found := droprates.ItemByName(name)
		// A new pet also prints its pet message, which is the only source
		// of Dom drops.
		if !found || item.ID == droprates.Dom {
			return Event{}, false
		}
		return Event{Kind: DropObtained, ItemID: item.ID}, true
	}

	return Event{}, false
}

// parseFloor reads the word following "level:". Anything outside 1..8 and
// "8+" is ignored.
func parseFloor(message string) (Event, bool) {
	fields := strings.Fields(message)
	for i := 0; i+1 < len(fields); i++ {
		if fields[i] != "level:" {
			continue
		}
		text := strings.TrimSuffix(fields[i+1], ",")
		floor, err := droprates.ParseFloor(text)
		if err != nil || (floor.IsOverflow() && text != "8+") {
			return Event{}, false
		}
		return Event{Kind: FloorCompleted, Floor: floor.String()}, true
	}
	return Event{}, false
}
