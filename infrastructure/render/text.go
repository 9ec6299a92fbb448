package render

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dustin/go-humanize"

	"github.com/CedricFinance/partyvote/application"
)

const (
	staleBanner       = "※ 最新の集計を取得できませんでした。表示中の票数は古い可能性があります。"
	unavailableBanner = "集計データを取得できません。"
)

// Text writes the tally as an aligned table followed by the total line.
type Text struct {
	Out io.Writer
}

func (t Text) Render(ctx context.Context, view application.View) error {
	if view.Status == application.StatusUnavailable {
		_, err := fmt.Fprintln(t.Out, unavailableBanner)
		return err
	}

	if view.Status == application.StatusStale {
		if _, err := fmt.Fprintln(t.Out, staleBanner); err != nil {
			return err
		}
	}

	symbols := NumbersSymbolsSource{}
	w := tabwriter.NewWriter(t.Out, 0, 0, 2, ' ', 0)
	for _, r := range view.Rows {
		fmt.Fprintf(w, "%s\t%s\t%s票\t%5.1f%%\t%s\n",
			symbols.ForIndex(r.Index), r.Name, humanize.Comma(int64(r.Count)), r.Percentage, r.Seats)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	_, err := fmt.Fprintf(t.Out, "総投票数: %s票\n", humanize.Comma(int64(view.Total)))
	return err
}
