package application

import (
	"strings"

	"github.com/CedricFinance/partyvote/domain/entities"
)

// ResolveParty maps a selected display name to a party. Names that match no
// loaded party are deliberately counted in the sentinel "other" bucket
// instead of being dropped; resolved reports which branch was taken.
func ResolveParty(parties entities.PartySet, name string) (party entities.Party, resolved bool) {
	if p, found := parties.ByName(strings.TrimSpace(name)); found {
		return p, true
	}

	sentinel, found := parties.ByID(entities.SentinelPartyID)
	if !found {
		sentinel = entities.Party{Id: entities.SentinelPartyID, Name: entities.SentinelPartyName}
	}
	return sentinel, false
}
