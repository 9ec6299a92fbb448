package render

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"

	"github.com/pkg/errors"
	"github.com/slack-go/slack"

	"github.com/CedricFinance/partyvote/application"
)

const (
	SlackCallbackID = "partyvote"
	buttonsPerRow   = 5
)

// FormatTally builds a Slack message with one field per party and vote
// buttons whose values are segment indexes.
func FormatTally(view application.View) slack.Msg {
	msg := slack.Msg{ResponseType: "in_channel"}

	switch view.Status {
	case application.StatusUnavailable:
		msg.Text = unavailableBanner
		return msg
	case application.StatusStale:
		msg.Text = staleBanner + "\n"
	}
	msg.Text += fmt.Sprintf("総投票数: %d票", view.Total)

	symbols := GetSymbolsSource(len(view.Rows))

	fields := make([]slack.AttachmentField, len(view.Rows))
	for i, r := range view.Rows {
		value := fmt.Sprintf("*%s* %s    `%d`  %.1f%%", symbols.ForIndex(i), r.Name, r.Count, r.Percentage)
		if r.Seats != "" {
			value += "\n" + r.Seats
		}
		fields[i] = slack.AttachmentField{Value: value}
	}

	buttonsAttachmentsCount := int(math.Ceil(float64(len(view.Rows)) / buttonsPerRow))
	msg.Attachments = make([]slack.Attachment, 0, 1+buttonsAttachmentsCount)
	msg.Attachments = append(msg.Attachments, slack.Attachment{
		Title:  defaultChartTitle,
		Fields: fields,
	})

	for i := 0; i < buttonsAttachmentsCount; i++ {
		lowerBound := buttonsPerRow * i
		upperBound := int(math.Min(float64(len(view.Rows)), float64(lowerBound+buttonsPerRow)))

		actions := make([]slack.AttachmentAction, 0, upperBound-lowerBound)
		for j := lowerBound; j < upperBound; j++ {
			actions = append(actions, slack.AttachmentAction{
				Name:  "vote",
				Type:  "button",
				Value: fmt.Sprintf("%d", j),
				Text:  symbols.ForIndex(j),
			})
		}

		msg.Attachments = append(msg.Attachments, slack.Attachment{
			Actions:    actions,
			CallbackID: SlackCallbackID,
		})
	}

	return msg
}

// Slack posts the formatted tally to an incoming webhook, or writes the
// message JSON to Out when no webhook is configured.
type Slack struct {
	WebhookURL string
	Out        io.Writer
}

func (s Slack) Render(ctx context.Context, view application.View) error {
	msg := FormatTally(view)

	if s.WebhookURL == "" {
		enc := json.NewEncoder(s.Out)
		enc.SetIndent("", "  ")
		return errors.Wrap(enc.Encode(msg), "encode slack message")
	}

	err := slack.PostWebhookContext(ctx, s.WebhookURL, &slack.WebhookMessage{
		Text:        msg.Text,
		Attachments: msg.Attachments,
	})
	return errors.Wrap(err, "post slack webhook")
}
