package entities

import (
	"time"

	"github.com/google/uuid"
)

// VoteIntent is a single, one-shot vote submission. It is never retried and
// not kept once the submission completes.
type VoteIntent struct {
	Id        string
	UserId    string
	PartyId   int
	CreatedAt time.Time
}

func NewVoteIntent(userId string, partyId int) VoteIntent {
	return VoteIntent{
		Id:        uuid.New().String(),
		UserId:    userId,
		PartyId:   partyId,
		CreatedAt: time.Now().UTC(),
	}
}
