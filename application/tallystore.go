package application

import (
	"context"
	"log/slog"

	"github.com/pkg/errors"

	"github.com/CedricFinance/partyvote/domain/entities"
	"github.com/CedricFinance/partyvote/domain/services"
)

// TallyStore loads complete tallies from the remote store. A load either
// yields a full Tally or fails; there is no merge operation. The last good
// tally is kept by the Synchronizer as its projected view.
type TallyStore struct {
	votes   services.VoteRepository
	parties entities.PartySet
	logger  *slog.Logger
}

func NewTallyStore(votes services.VoteRepository, parties entities.PartySet, logger *slog.Logger) *TallyStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &TallyStore{votes: votes, parties: parties, logger: logger}
}

// Load fetches a fresh tally. On failure no tally is returned.
func (s *TallyStore) Load(ctx context.Context) (entities.Tally, error) {
	raw, err := s.votes.GetAllVotes(ctx)
	if err != nil {
		return entities.Tally{}, errors.Wrap(err, "load votes")
	}

	tally, ignored, err := entities.NewTally(s.parties, raw)
	if err != nil {
		return entities.Tally{}, errors.Wrap(err, "load votes")
	}
	if len(ignored) > 0 {
		s.logger.Debug("ignoring votes for unknown parties", "keys", ignored)
	}

	return tally, nil
}
