package application

import (
	"context"

	"github.com/CedricFinance/partyvote/domain/entities"
)

type Status int

const (
	// StatusUnavailable means no authoritative tally has been loaded yet.
	StatusUnavailable Status = iota
	StatusFresh
	// StatusStale is the last good view after a failed reload.
	StatusStale
)

func (s Status) String() string {
	switch s {
	case StatusFresh:
		return "fresh"
	case StatusStale:
		return "stale"
	default:
		return "unavailable"
	}
}

type Row struct {
	Index      int
	PartyId    int
	Name       string
	Color      string
	Seats      string
	Count      int
	Percentage float64
}

// View is the presentation projection of one tally. It is always rebuilt
// from scratch, never updated in place.
type View struct {
	Rows   []Row
	Total  int
	Status Status
}

type Renderer interface {
	Render(ctx context.Context, view View) error
}

type RendererFunc func(ctx context.Context, view View) error

func (f RendererFunc) Render(ctx context.Context, view View) error {
	return f(ctx, view)
}

// Project computes totals and percentages in party-set order. A zero total
// gives every party 0%.
func Project(parties entities.PartySet, tally entities.Tally) View {
	all := parties.All()

	total := 0
	for _, p := range all {
		total += tally.Count(p.Id)
	}

	rows := make([]Row, len(all))
	for i, p := range all {
		count := tally.Count(p.Id)
		pct := 0.0
		if total > 0 {
			pct = float64(count) * 100 / float64(total)
		}
		rows[i] = Row{
			Index:      i,
			PartyId:    p.Id,
			Name:       p.Name,
			Color:      p.Color,
			Seats:      p.SeatsAnnotation(),
			Count:      count,
			Percentage: pct,
		}
	}

	return View{Rows: rows, Total: total, Status: StatusFresh}
}

func (v View) Labels() []string {
	labels := make([]string, len(v.Rows))
	for i, r := range v.Rows {
		labels[i] = r.Name
	}
	return labels
}

func (v View) Values() []int {
	values := make([]int, len(v.Rows))
	for i, r := range v.Rows {
		values[i] = r.Count
	}
	return values
}

func (v View) Colors() []string {
	colors := make([]string, len(v.Rows))
	for i, r := range v.Rows {
		colors[i] = r.Color
	}
	return colors
}
