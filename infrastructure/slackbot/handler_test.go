package slackbot

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/neilotoole/slogt"
	"github.com/pkg/errors"
	"github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CedricFinance/partyvote/application"
	"github.com/CedricFinance/partyvote/domain/entities"
)

var partyNames = map[int]string{1: "A", 2: "B", entities.SentinelPartyID: entities.SentinelPartyName}

type memoryVotes struct {
	mu      sync.Mutex
	votes   map[string]int
	saveErr error
	saved   []entities.VoteIntent
}

func (m *memoryVotes) FindParties(ctx context.Context) ([]entities.Party, error) {
	return []entities.Party{{Id: 1, Name: "A"}, {Id: 2, Name: "B"}}, nil
}

func (m *memoryVotes) GetAllVotes(ctx context.Context) (map[string]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]int, len(m.votes))
	for k, v := range m.votes {
		out[k] = v
	}
	return out, nil
}

func (m *memoryVotes) SaveVote(ctx context.Context, vote entities.VoteIntent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saved = append(m.saved, vote)
	m.votes[partyNames[vote.PartyId]]++
	return nil
}

type staticIdentity string

func (s staticIdentity) CurrentUser() (string, bool, error) {
	return string(s), s != "", nil
}

type silent struct{}

func (silent) Info(string)      {}
func (silent) Warn(string)      {}
func (silent) Alert(string)     {}
func (silent) RedirectToLogin() {}

func newHandler(t *testing.T, votes *memoryVotes, user string) *Handler {
	t.Helper()
	synchronizer := &application.Synchronizer{
		Votes:     votes,
		Identity:  staticIdentity(user),
		Navigator: silent{},
		Notifier:  silent{},
		Logger:    slogt.New(t),
		Timeout:   time.Second,
	}
	require.NoError(t, synchronizer.Init(context.Background()))
	return &Handler{Sync: synchronizer, VerificationToken: "tok", Logger: slogt.New(t)}
}

func click(t *testing.T, h http.Handler, token string, callbackID string, value string) (*httptest.ResponseRecorder, slack.Msg) {
	t.Helper()
	payload, err := json.Marshal(map[string]interface{}{
		"type":        "interactive_message",
		"callback_id": callbackID,
		"token":       token,
		"user":        map[string]string{"id": "U1", "name": "alice"},
		"actions":     []map[string]string{{"name": "vote", "type": "button", "value": value}},
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/slack/actions", strings.NewReader(url.Values{"payload": {string(payload)}}.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var msg slack.Msg
	if rec.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &msg))
	}
	return rec, msg
}

func TestButtonClickVotesAndReplacesTally(t *testing.T) {
	votes := &memoryVotes{votes: map[string]int{"A": 1}}
	h := newHandler(t, votes, "u-1")

	rec, msg := click(t, h, "tok", "partyvote", "1")
	require.Equal(t, http.StatusOK, rec.Code)

	require.Len(t, votes.saved, 1)
	assert.Equal(t, 2, votes.saved[0].PartyId)
	assert.Equal(t, "u-1", votes.saved[0].UserId)

	assert.True(t, msg.ReplaceOriginal)
	assert.Equal(t, "総投票数: 2票", msg.Text)
	require.NotEmpty(t, msg.Attachments)
	assert.Contains(t, msg.Attachments[0].Fields[1].Value, "B")
}

func TestButtonClickWithBadToken(t *testing.T) {
	votes := &memoryVotes{votes: map[string]int{}}
	h := newHandler(t, votes, "u-1")

	rec, _ := click(t, h, "wrong", "partyvote", "0")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, votes.saved)
}

func TestButtonClickOtherCallback(t *testing.T) {
	votes := &memoryVotes{votes: map[string]int{}}
	h := newHandler(t, votes, "u-1")

	_, msg := click(t, h, "tok", "another-app", "0")
	assert.Equal(t, "ephemeral", msg.ResponseType)
	assert.Empty(t, votes.saved)
}

func TestButtonClickOutOfRange(t *testing.T) {
	votes := &memoryVotes{votes: map[string]int{}}
	h := newHandler(t, votes, "u-1")

	_, msg := click(t, h, "tok", "partyvote", "12")
	assert.Equal(t, "ephemeral", msg.ResponseType)
	assert.Contains(t, msg.Text, "投票に失敗しました")
	assert.Empty(t, votes.saved)
}

func TestButtonClickWithoutSession(t *testing.T) {
	votes := &memoryVotes{votes: map[string]int{}}
	h := newHandler(t, votes, "")

	_, msg := click(t, h, "tok", "partyvote", "0")
	assert.Equal(t, loginRequiredMessage, msg.Text)
	assert.Empty(t, votes.saved)
}

func TestButtonClickRejectedVote(t *testing.T) {
	votes := &memoryVotes{votes: map[string]int{}, saveErr: errors.New("closed")}
	h := newHandler(t, votes, "u-1")

	_, msg := click(t, h, "tok", "partyvote", "0")
	assert.Equal(t, "ephemeral", msg.ResponseType)
	assert.Contains(t, msg.Text, "closed")
}

func TestOnlyPostIsAccepted(t *testing.T) {
	h := newHandler(t, &memoryVotes{votes: map[string]int{}}, "u-1")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/slack/actions", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
