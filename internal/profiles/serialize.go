package profiles

import (
	"bytes"
	"encoding/json"

	"github.com/speaax/delve-companion/internal/storage/models"
)

// document is the persisted layout: {"profiles": {key: profile}}.
type document struct {
	Profiles map[string]*models.Profile `json:"profiles"`
}

func encode(profiles map[string]*models.Profile) ([]byte, error) {
	doc := document{Profiles: profiles}
	if doc.Profiles == nil {
		doc.Profiles = map[string]*models.Profile{}
	}
	return json.Marshal(doc)
}

// Decode parses a persisted document. Malformed or empty input yields an
// empty map and ok=false; null entries are dropped.
func Decode(data []byte) (profiles map[string]*models.Profile, ok bool) {
	profiles = make(map[string]*models.Profile)
	if len(bytes.TrimSpace(data)) == 0 {
		return profiles, false
	}
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return profiles, false
	}
	for key, p := range doc.Profiles {
		if p == nil {
			continue
		}
		profiles[key] = p
	}
	return profiles, true
}

// Serialize encodes every persisted profile. Session profiles are excluded.
func (s *Store) Serialize() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return encode(s.profiles)
}

// Deserialize replaces the persisted profiles with those in data. Anything
// that cannot be parsed leaves the store empty; it is never an error since
// the document is user-editable.
func (s *Store) Deserialize(data []byte) {
	profiles, ok := Decode(data)
	if !ok && len(bytes.TrimSpace(data)) > 0 {
		s.logger.Warn("discarding unreadable profile data", "bytes", len(data))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles = profiles
}
