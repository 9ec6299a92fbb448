package entities

import (
	"fmt"
	"strconv"
)

type NegativeCount struct {
	Key   string
	Count int
}

func (e NegativeCount) Error() string {
	return fmt.Sprintf("negative vote count %d for %q", e.Count, e.Key)
}

// Tally is a complete snapshot of vote counts, one entry per known party.
// It is never patched: a fresh load always produces a new Tally.
type Tally struct {
	counts map[int]int
}

// NewTally builds a Tally from a raw /votes payload. A payload key matches a
// party by name or by its decimal id; parties absent from the payload count
// zero. Keys matching no party are returned in ignored.
func NewTally(parties PartySet, raw map[string]int) (tally Tally, ignored []string, err error) {
	for key, count := range raw {
		if count < 0 {
			return Tally{}, nil, NegativeCount{Key: key, Count: count}
		}
	}

	tally = Tally{counts: make(map[int]int, parties.Len())}
	matched := make(map[string]bool, len(raw))

	for _, p := range parties.parties {
		count := 0
		if c, found := raw[p.Name]; found {
			count = c
			matched[p.Name] = true
		} else if c, found := raw[strconv.Itoa(p.Id)]; found {
			count = c
			matched[strconv.Itoa(p.Id)] = true
		}
		tally.counts[p.Id] = count
	}

	for key := range raw {
		if !matched[key] {
			ignored = append(ignored, key)
		}
	}

	return tally, ignored, nil
}

func (t Tally) Count(partyId int) int {
	return t.counts[partyId]
}

func (t Tally) Has(partyId int) bool {
	_, found := t.counts[partyId]
	return found
}

func (t Tally) Len() int {
	return len(t.counts)
}

func (t Tally) Total() int {
	total := 0
	for _, c := range t.counts {
		total += c
	}
	return total
}
