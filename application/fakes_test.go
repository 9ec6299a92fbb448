package application

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/CedricFinance/partyvote/domain/entities"
	"github.com/CedricFinance/partyvote/domain/services"
)

type fakeVotes struct {
	mu sync.Mutex

	parties    []entities.Party
	partiesErr error
	votes      map[string]int
	votesErr   error
	saveErr    error

	// failVotesAfterSave makes every GetAllVotes after a successful save fail.
	failVotesAfterSave bool
	// saveStarted/saveRelease let a test hold a submission in flight.
	saveStarted chan struct{}
	saveRelease chan struct{}

	getCalls int
	saved    []entities.VoteIntent
}

func (f *fakeVotes) FindParties(ctx context.Context) ([]entities.Party, error) {
	return f.parties, f.partiesErr
}

func (f *fakeVotes) GetAllVotes(ctx context.Context) (map[string]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getCalls++
	if f.votesErr != nil {
		return nil, f.votesErr
	}
	if f.failVotesAfterSave && len(f.saved) > 0 {
		return nil, services.StatusError{Method: "GET", Path: "/votes", Code: 500}
	}
	out := make(map[string]int, len(f.votes))
	for k, v := range f.votes {
		out[k] = v
	}
	return out, nil
}

func (f *fakeVotes) SaveVote(ctx context.Context, vote entities.VoteIntent) error {
	if f.saveStarted != nil {
		close(f.saveStarted)
		<-f.saveRelease
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved = append(f.saved, vote)

	party := ""
	for _, p := range f.parties {
		if p.Id == vote.PartyId {
			party = p.Name
		}
	}
	if party == "" && vote.PartyId == entities.SentinelPartyID {
		party = entities.SentinelPartyName
	}
	if f.votes == nil {
		f.votes = map[string]int{}
	}
	f.votes[party]++
	return nil
}

func (f *fakeVotes) calls() (gets int, saved []entities.VoteIntent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.getCalls, append([]entities.VoteIntent(nil), f.saved...)
}

type fakeSession struct {
	userId string
	err    error
}

func (f *fakeSession) CurrentUser() (string, bool, error) {
	if f.err != nil {
		return "", false, f.err
	}
	return f.userId, f.userId != "", nil
}

func (f *fakeSession) SetCurrentUser(userId string) error {
	if userId == "" {
		return errors.New("empty user id")
	}
	f.userId = userId
	return nil
}

func (f *fakeSession) Clear() error {
	f.userId = ""
	return nil
}

type fakeNavigator struct {
	redirects int
}

func (f *fakeNavigator) RedirectToLogin() {
	f.redirects++
}

type fakeNotifier struct {
	mu     sync.Mutex
	infos  []string
	warns  []string
	alerts []string
}

func (f *fakeNotifier) Info(message string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.infos = append(f.infos, message)
}

func (f *fakeNotifier) Warn(message string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.warns = append(f.warns, message)
}

func (f *fakeNotifier) Alert(message string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.alerts = append(f.alerts, message)
}

type recordingRenderer struct {
	mu    sync.Mutex
	views []View
}

func (r *recordingRenderer) Render(ctx context.Context, view View) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.views = append(r.views, view)
	return nil
}

func (r *recordingRenderer) last() View {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.views[len(r.views)-1]
}
