package droprates

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// tableFile is the on-disk YAML layout for a drop table override.
//
//	items:
//	  - {id: 31109, name: Mokhaiotl cloth, key: mokhaiotl_cloth}
//	floors:
//	  2:
//	    overall: 1/2500
//	    chances: {31109: 1/2500}
type tableFile struct {
	Items  []Item                `yaml:"items"`
	Floors map[int]floorDocument `yaml:"floors"`
}

type floorDocument struct {
	Overall probability         `yaml:"overall"`
	Chances map[int]probability `yaml:"chances"`
}

// probability accepts either a decimal ("0.0004") or a "1/N" fraction.
type probability float64

func (p *probability) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: probability must be a scalar", value.Line)
	}
	v, err := parseProbability(value.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*p = probability(v)
	return nil
}

func parseProbability(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if num, den, ok := strings.Cut(s, "/"); ok {
		n, err := strconv.ParseFloat(strings.TrimSpace(num), 64)
		if err != nil {
			return 0, fmt.Errorf("parse numerator %q: %w", num, err)
		}
		d, err := strconv.ParseFloat(strings.TrimSpace(den), 64)
		if err != nil {
			return 0, fmt.Errorf("parse denominator %q: %w", den, err)
		}
		if d == 0 {
			return 0, fmt.Errorf("zero denominator in %q", s)
		}
		return n / d, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse probability %q: %w", s, err)
	}
	return v, nil
}

// ParseTable decodes a YAML drop table. Items default to the built-in tracked
// set when the document does not list any.
func ParseTable(data []byte) (*Table, error) {
	var doc tableFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTable, err)
	}
	items := doc.Items
	if len(items) == 0 {
		items = TrackedItems()
	}
	floors := make(map[int]Rates, len(doc.Floors))
	for floor, fd := range doc.Floors {
		r := Rates{Overall: float64(fd.Overall), Chances: make(map[ItemID]float64, len(fd.Chances))}
		for id, p := range fd.Chances {
			r.Chances[ItemID(id)] = float64(p)
		}
		floors[floor] = r
	}
	return NewTable(items, floors)
}

// LoadTable reads a YAML drop table from path. An empty path or a missing file
// yields the built-in table.
func LoadTable(path string) (*Table, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, fmt.Errorf("read drop table: %w", err)
	}
	t, err := ParseTable(data)
	if err != nil {
		return nil, fmt.Errorf("load drop table %s: %w", path, err)
	}
	return t, nil
}
