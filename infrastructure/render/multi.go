package render

import (
	"context"

	"go.uber.org/multierr"

	"github.com/CedricFinance/partyvote/application"
)

// Multi renders the same view with every renderer, even when one fails.
type Multi []application.Renderer

func (m Multi) Render(ctx context.Context, view application.View) error {
	var err error
	for _, r := range m {
		err = multierr.Append(err, r.Render(ctx, view))
	}
	return err
}
