package entities

import "fmt"

const (
	SentinelPartyID    = 99
	SentinelPartyName  = "その他"
	SentinelPartyColor = "#9e9e9e"
)

type Party struct {
	Id         int    `json:"party_id"`
	Name       string `json:"name"`
	Color      string `json:"color"`
	SeatsLower *int   `json:"seats_lower,omitempty"`
	SeatsUpper *int   `json:"seats_upper,omitempty"`
}

func (p Party) IsSentinel() bool {
	return p.Id == SentinelPartyID
}

// SeatsAnnotation formats the known seat counts, e.g. "衆191 参114".
// It is empty when no seat count is known.
func (p Party) SeatsAnnotation() string {
	switch {
	case p.SeatsLower != nil && p.SeatsUpper != nil:
		return fmt.Sprintf("衆%d 参%d", *p.SeatsLower, *p.SeatsUpper)
	case p.SeatsLower != nil:
		return fmt.Sprintf("衆%d", *p.SeatsLower)
	case p.SeatsUpper != nil:
		return fmt.Sprintf("参%d", *p.SeatsUpper)
	}
	return ""
}

type DuplicatePartyID struct {
	ID int
}

func (e DuplicatePartyID) Error() string {
	return fmt.Sprintf("duplicate party id %d", e.ID)
}

// PartySet is the immutable, ordered set of parties loaded for a session.
type PartySet struct {
	parties []Party
	byName  map[string]int
	byId    map[int]int
}

// NewPartySet checks id uniqueness and appends the sentinel party when the
// loaded set has none, so the bucket unresolved votes land in can always be
// displayed.
func NewPartySet(parties []Party) (PartySet, error) {
	set := PartySet{
		parties: make([]Party, 0, len(parties)+1),
		byName:  make(map[string]int, len(parties)+1),
		byId:    make(map[int]int, len(parties)+1),
	}

	for _, p := range parties {
		if _, found := set.byId[p.Id]; found {
			return PartySet{}, DuplicatePartyID{ID: p.Id}
		}
		set.add(p)
	}

	if _, found := set.byId[SentinelPartyID]; !found {
		set.add(Party{Id: SentinelPartyID, Name: SentinelPartyName, Color: SentinelPartyColor})
	}

	return set, nil
}

func (s *PartySet) add(p Party) {
	s.byId[p.Id] = len(s.parties)
	if _, found := s.byName[p.Name]; !found {
		s.byName[p.Name] = len(s.parties)
	}
	s.parties = append(s.parties, p)
}

func (s PartySet) Len() int {
	return len(s.parties)
}

// All returns a copy of the parties in load order.
func (s PartySet) All() []Party {
	out := make([]Party, len(s.parties))
	copy(out, s.parties)
	return out
}

func (s PartySet) At(i int) (Party, bool) {
	if i < 0 || i >= len(s.parties) {
		return Party{}, false
	}
	return s.parties[i], true
}

func (s PartySet) ByName(name string) (Party, bool) {
	i, found := s.byName[name]
	if !found {
		return Party{}, false
	}
	return s.parties[i], true
}

func (s PartySet) ByID(id int) (Party, bool) {
	i, found := s.byId[id]
	if !found {
		return Party{}, false
	}
	return s.parties[i], true
}
