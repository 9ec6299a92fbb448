package render

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/go-echarts/go-echarts/charts"
	"github.com/go-echarts/go-echarts/datatypes"
	"github.com/pkg/errors"

	"github.com/CedricFinance/partyvote/application"
)

const (
	defaultChartTitle   = "政党別投票数"
	defaultSegmentColor = "#cccccc"
)

// Chart renders the tally as an HTML pie chart page: one slice per party in
// party-set order, vote counts as values, party colors as palette.
type Chart struct {
	Title string
	// Path is the file written by Render.
	Path string
}

func ChartFile(path string) application.Renderer {
	return Chart{Path: path}
}

func (c Chart) Render(ctx context.Context, view application.View) error {
	f, err := os.Create(c.Path)
	if err != nil {
		return errors.Wrap(err, "create chart file")
	}

	if err := c.Write(f, view); err != nil {
		f.Close()
		return err
	}
	return errors.Wrap(f.Close(), "close chart file")
}

func (c Chart) Write(w io.Writer, view application.View) error {
	title := c.Title
	if title == "" {
		title = defaultChartTitle
	}

	subtitle := fmt.Sprintf("総投票数: %d票", view.Total)
	switch view.Status {
	case application.StatusStale:
		subtitle += " " + staleBanner
	case application.StatusUnavailable:
		subtitle = unavailableBanner
	}

	pie := charts.NewPie()
	pie.SetGlobalOptions(
		charts.TitleOpts{Title: title, Subtitle: subtitle},
		charts.ColorOpts(paletteOf(view)),
	)
	// Add takes a map; the slices must follow the palette order instead.
	pie.Add("票数", nil)
	pie.Series[0].Data = segmentsOf(view)

	page := charts.NewPage()
	page.PageTitle = title
	page.Add(pie)

	if err := page.Render(w); err != nil {
		return errors.Wrap(err, "unable to render results chart")
	}
	return nil
}

// paletteOf returns one color per row so slice i always gets row i's color.
func paletteOf(view application.View) []string {
	colors := view.Colors()
	for i, c := range colors {
		if c == "" {
			colors[i] = defaultSegmentColor
		}
	}
	return colors
}

func segmentsOf(view application.View) []datatypes.NameValueItem {
	items := make([]datatypes.NameValueItem, len(view.Rows))
	for i, r := range view.Rows {
		items[i] = datatypes.NameValueItem{Name: r.Name, Value: r.Count}
	}
	return items
}
