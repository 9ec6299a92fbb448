// Package slackbot answers the interactive message callbacks sent by Slack
// when someone clicks a vote button of a posted tally.
package slackbot

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"

	"github.com/CedricFinance/partyvote/application"
	"github.com/CedricFinance/partyvote/infrastructure/render"
)

const (
	loginRequiredMessage = "投票するには、このボットを動かしている端末でログインしてください。"
	busyMessage          = "別の投票を処理中です。しばらくしてからもう一度お試しください。"
)

// Handler turns a vote button click into Synchronizer.Select and replaces the
// original message with the reloaded tally. Votes are cast as the user logged
// in on the session the Synchronizer reads.
type Handler struct {
	Sync *application.Synchronizer
	// VerificationToken is compared with the token of each payload. Empty
	// disables the check.
	VerificationToken string
	Logger            *slog.Logger
}

func (h *Handler) logger() *slog.Logger {
	if h.Logger == nil {
		return slog.Default()
	}
	return h.Logger
}

func (h *Handler) verifyOption() slackevents.Option {
	if h.VerificationToken == "" {
		return slackevents.OptionNoVerifyToken()
	}
	return slackevents.OptionVerifyToken(&slackevents.TokenComparator{VerificationToken: h.VerificationToken})
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	messageAction, err := slackevents.ParseActionEvent(r.Form.Get("payload"), h.verifyOption())
	if err != nil {
		h.logger().Warn("rejected slack action", "error", err)
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	if messageAction.CallbackID != render.SlackCallbackID || len(messageAction.Actions) == 0 {
		WriteMessage(w, "Sorry, this button is not a vote button")
		return
	}

	index, err := strconv.Atoi(messageAction.Actions[0].Value)
	if err != nil {
		WriteError(w, err)
		return
	}

	logger := h.logger().With("slack_user", messageAction.User.ID, "segment", index)
	result, err := h.Sync.Select(r.Context(), index)
	logger.Info("slack vote", "result", result.String(), "error", err)

	switch result {
	case application.VoteRedirected:
		WriteMessage(w, loginRequiredMessage)
	case application.VoteBusy:
		WriteMessage(w, busyMessage)
	case application.VoteCommitted, application.VoteCommittedStale:
		msg := render.FormatTally(h.Sync.View())
		msg.ReplaceOriginal = true
		WriteJSON(w, msg)
	default:
		WriteError(w, err)
	}
}

func WriteError(w http.ResponseWriter, err error) {
	WriteMessage(w, fmt.Sprintf("投票に失敗しました: %s", err))
}

func WriteMessage(w http.ResponseWriter, message string) {
	msg := slack.Msg{
		ResponseType: "ephemeral",
		Text:         message,
	}

	WriteJSON(w, msg)
}

func WriteJSON(w http.ResponseWriter, d interface{}) {
	res, err := json.Marshal(d)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write(res)
}
