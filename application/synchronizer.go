package application

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/atomic"

	"github.com/CedricFinance/partyvote/domain/entities"
	"github.com/CedricFinance/partyvote/domain/services"
)

var (
	ErrVoteInFlight   = errors.New("a vote is already in flight")
	ErrNoSuchSegment  = errors.New("no party at the selected segment")
	ErrNotInitialized = errors.New("synchronizer is not initialized")
)

const (
	stateIdle uint32 = iota
	stateSubmitting
	stateReloading
)

type VoteResult int

const (
	VoteFailed VoteResult = iota
	// VoteRedirected means no one is logged in; nothing was sent.
	VoteRedirected
	VoteBusy
	VoteCommitted
	// VoteCommittedStale means the server accepted the vote but the
	// following reload failed, so the displayed tally is out of date.
	VoteCommittedStale
)

func (r VoteResult) String() string {
	switch r {
	case VoteRedirected:
		return "redirected"
	case VoteBusy:
		return "busy"
	case VoteCommitted:
		return "committed"
	case VoteCommittedStale:
		return "committed-stale"
	default:
		return "failed"
	}
}

// Synchronizer keeps a local view of the vote tally consistent with the
// remote store. A vote is submitted, then the whole tally is fetched again
// and re-rendered; local counts are never incremented.
type Synchronizer struct {
	Votes     services.VoteRepository
	Identity  services.Identity
	Navigator services.Navigator
	Notifier  services.Notifier
	Renderer  Renderer
	Logger    *slog.Logger
	// Timeout bounds each remote call. Zero means no timeout.
	Timeout time.Duration

	state atomic.Uint32

	mu       sync.Mutex
	parties  entities.PartySet
	store    *TallyStore
	view     View
	lastGood *View
}

func (s *Synchronizer) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}

func (s *Synchronizer) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.Timeout > 0 {
		return context.WithTimeout(ctx, s.Timeout)
	}
	return context.WithCancel(ctx)
}

// Init loads the party set for the session and the first tally.
func (s *Synchronizer) Init(ctx context.Context) error {
	callCtx, cancel := s.withTimeout(ctx)
	loaded, err := s.Votes.FindParties(callCtx)
	cancel()
	if err != nil {
		s.render(ctx, View{Status: StatusUnavailable})
		return errors.Wrap(err, "load parties")
	}

	parties, err := entities.NewPartySet(loaded)
	if err != nil {
		s.render(ctx, View{Status: StatusUnavailable})
		return errors.Wrap(err, "load parties")
	}

	s.mu.Lock()
	s.parties = parties
	s.store = NewTallyStore(s.Votes, parties, s.logger())
	s.view = View{Status: StatusUnavailable}
	s.lastGood = nil
	s.mu.Unlock()

	s.logger().Info("parties loaded", "count", parties.Len())

	_, err = s.Refresh(ctx)
	return err
}

// Refresh reloads the authoritative tally and renders it. When the load fails
// the last good view is rendered marked stale, or an unavailable view when
// nothing was ever loaded.
func (s *Synchronizer) Refresh(ctx context.Context) (View, error) {
	view, err := s.reload(ctx)
	renderErr := s.render(ctx, view)
	if err != nil {
		return view, err
	}
	return view, errors.Wrap(renderErr, "render")
}

// Render draws the current view again without contacting the server.
func (s *Synchronizer) Render(ctx context.Context) error {
	return errors.Wrap(s.render(ctx, s.View()), "render")
}

func (s *Synchronizer) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view
}

func (s *Synchronizer) Parties() (entities.PartySet, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.parties, s.store != nil
}

func (s *Synchronizer) reload(ctx context.Context) (View, error) {
	s.mu.Lock()
	store, parties := s.store, s.parties
	s.mu.Unlock()
	if store == nil {
		return View{Status: StatusUnavailable}, ErrNotInitialized
	}

	callCtx, cancel := s.withTimeout(ctx)
	tally, err := store.Load(callCtx)
	cancel()

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.logger().Warn("tally reload failed", "error", err)
		if s.lastGood != nil {
			stale := *s.lastGood
			stale.Status = StatusStale
			s.view = stale
		} else {
			s.view = View{Status: StatusUnavailable}
		}
		return s.view, err
	}

	view := Project(parties, tally)
	s.view = view
	s.lastGood = &view
	return view, nil
}

func (s *Synchronizer) render(ctx context.Context, view View) error {
	if s.Renderer == nil {
		return nil
	}
	if err := s.Renderer.Render(ctx, view); err != nil {
		s.logger().Warn("render failed", "error", err)
		return err
	}
	return nil
}

// Vote casts a vote for the party with the given display name. Unknown names
// go to the sentinel party.
func (s *Synchronizer) Vote(ctx context.Context, name string) (VoteResult, error) {
	return s.vote(ctx, func(parties entities.PartySet) (entities.Party, error) {
		party, resolved := ResolveParty(parties, name)
		if !resolved {
			s.logger().Info("unrecognized party, counting as other", "name", name, "party_id", party.Id)
		}
		return party, nil
	})
}

// Select casts a vote for the party at the given chart segment index.
func (s *Synchronizer) Select(ctx context.Context, index int) (VoteResult, error) {
	return s.vote(ctx, func(parties entities.PartySet) (entities.Party, error) {
		party, found := parties.At(index)
		if !found {
			return entities.Party{}, ErrNoSuchSegment
		}
		return party, nil
	})
}

func (s *Synchronizer) vote(ctx context.Context, resolve func(entities.PartySet) (entities.Party, error)) (VoteResult, error) {
	if !s.state.CAS(stateIdle, stateSubmitting) {
		return VoteBusy, ErrVoteInFlight
	}
	defer s.state.Store(stateIdle)

	userId, loggedIn, err := s.Identity.CurrentUser()
	if err != nil {
		s.Notifier.Alert(fmt.Sprintf("セッションを読み込めませんでした: %v", err))
		return VoteFailed, errors.Wrap(err, "read session")
	}
	if !loggedIn {
		s.Navigator.RedirectToLogin()
		return VoteRedirected, nil
	}

	parties, initialized := s.Parties()
	if !initialized {
		return VoteFailed, ErrNotInitialized
	}

	party, err := resolve(parties)
	if err != nil {
		return VoteFailed, err
	}

	intent := entities.NewVoteIntent(userId, party.Id)
	logger := s.logger().With("vote_id", intent.Id, "party_id", party.Id)

	callCtx, cancel := s.withTimeout(ctx)
	err = s.Votes.SaveVote(callCtx, intent)
	cancel()
	if err != nil {
		logger.Error("vote submission failed", "error", err)
		s.Notifier.Alert(fmt.Sprintf("投票に失敗しました: %v", err))
		return VoteFailed, errors.Wrap(err, "submit vote")
	}
	logger.Info("vote committed")

	s.state.Store(stateReloading)
	view, err := s.reload(ctx)
	renderErr := s.render(ctx, view)
	if err != nil {
		s.Notifier.Warn("投票は受け付けられましたが、最新の集計を取得できませんでした。表示中の票数は古い可能性があります。")
		return VoteCommittedStale, errors.Wrap(err, "reload after vote")
	}

	s.Notifier.Info(fmt.Sprintf("%s に投票しました！", party.Name))
	return VoteCommitted, errors.Wrap(renderErr, "render")
}

// InFlight reports whether a vote is being submitted or reloaded.
func (s *Synchronizer) InFlight() bool {
	return s.state.Load() != stateIdle
}
