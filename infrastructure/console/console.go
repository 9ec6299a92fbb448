// Package console shows notifications on a terminal and stands in for the
// browser redirect to the login page.
package console

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/CedricFinance/partyvote/domain/services"
)

const loginHint = "ログインしてください: login USER PASSWORD (または register USER PASSWORD)"

type Console struct {
	Out    io.Writer
	Logger *slog.Logger
}

func New(out io.Writer, logger *slog.Logger) *Console {
	if logger == nil {
		logger = slog.Default()
	}
	return &Console{Out: out, Logger: logger}
}

func (c *Console) Info(message string) {
	fmt.Fprintln(c.Out, message)
}

func (c *Console) Warn(message string) {
	c.Logger.Warn(message)
	fmt.Fprintf(c.Out, "警告: %s\n", message)
}

func (c *Console) Alert(message string) {
	c.Logger.Error(message)
	fmt.Fprintf(c.Out, "エラー: %s\n", message)
}

func (c *Console) RedirectToLogin() {
	c.Logger.Info("not logged in, redirecting to login")
	fmt.Fprintln(c.Out, loginHint)
}

var (
	_ services.Notifier  = (*Console)(nil)
	_ services.Navigator = (*Console)(nil)
)
