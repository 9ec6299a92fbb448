package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/CedricFinance/partyvote/application"
	"github.com/CedricFinance/partyvote/infrastructure/render"
	"github.com/CedricFinance/partyvote/infrastructure/slackbot"
)

func newRootCommand(out io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:           "partyvote",
		Short:         "Vote for a party and follow the live results",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.SetOut(out)

	flags := root.PersistentFlags()
	flags.String("config", "", "config file (yaml, toml or json)")
	flags.String("api-url", "http://localhost:8000", "base URL of the voting API")
	flags.Duration("timeout", 0, "timeout of each API request (default 10s)")
	flags.String("session", "", "session file (default ~/.partyvote/session.db)")
	flags.String("log-level", "", "log level: debug, info, warn or error")

	root.AddCommand(
		newResultsCommand(out),
		newVoteCommand(out),
		newSelectCommand(out),
		newLoginCommand(out, "login", "Log in"),
		newLoginCommand(out, "register", "Create an account and log in"),
		newLogoutCommand(out),
		newWhoamiCommand(out),
		newUsersCommand(out),
		newProfileCommand(out),
		newPrefecturesCommand(out),
		newDistrictsCommand(out),
		newShellCommand(out),
		newServeCommand(out),
	)

	return root
}

func newResultsCommand(out io.Writer) *cobra.Command {
	var format, output string

	cmd := &cobra.Command{
		Use:   "results",
		Short: "Fetch and render the current tally",
		Args:  cobra.NoArgs,
		RunE: withApp(out, func(cmd *cobra.Command, args []string, a *app) error {
			renderer, err := a.renderer(format, output)
			if err != nil {
				return err
			}
			return a.synchronizer(renderer).Init(cmd.Context())
		}),
	}
	cmd.Flags().StringVarP(&format, "format", "f", "text", "text, chart, slack or all")
	cmd.Flags().StringVarP(&output, "out", "o", "", "chart output file")
	return cmd
}

var errNotLoggedIn = errors.New("not logged in")

// voteResultError turns the outcome of a vote into the command's exit status.
// Messages were already shown by the console notifier.
func voteResultError(result application.VoteResult, err error) error {
	switch result {
	case application.VoteCommitted:
		return err
	case application.VoteCommittedStale:
		return nil
	case application.VoteRedirected:
		return errNotLoggedIn
	}
	return err
}

// prepareVote checks the session before any request is made, then loads the
// party set. A failed tally load does not stop the vote.
func prepareVote(ctx context.Context, a *app, out io.Writer) (*application.Synchronizer, error) {
	_, loggedIn, err := a.session.CurrentUser()
	if err != nil {
		return nil, err
	}
	if !loggedIn {
		a.console.RedirectToLogin()
		return nil, errNotLoggedIn
	}

	sync := a.synchronizer(render.Text{Out: out})
	if err := sync.Init(ctx); err != nil {
		if _, initialized := sync.Parties(); !initialized {
			return nil, err
		}
		a.logger.Warn("tally unavailable, voting anyway", "error", err)
	}
	return sync, nil
}

func newVoteCommand(out io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "vote NAME",
		Short: "Vote for a party by name (unknown names count as その他)",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(out, func(cmd *cobra.Command, args []string, a *app) error {
			sync, err := prepareVote(cmd.Context(), a, out)
			if err != nil {
				return err
			}
			return voteResultError(sync.Vote(cmd.Context(), args[0]))
		}),
	}
}

func newSelectCommand(out io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "select INDEX",
		Short: "Vote for the party at a chart segment index",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(out, func(cmd *cobra.Command, args []string, a *app) error {
			index, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("%q is not a valid segment index", args[0])
			}
			sync, err := prepareVote(cmd.Context(), a, out)
			if err != nil {
				return err
			}
			return voteResultError(sync.Select(cmd.Context(), index))
		}),
	}
}

func newLoginCommand(out io.Writer, use string, short string) *cobra.Command {
	return &cobra.Command{
		Use:   use + " USER PASSWORD",
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: withApp(out, func(cmd *cobra.Command, args []string, a *app) error {
			accounts := a.accounts()
			login := accounts.Login
			if use == "register" {
				login = accounts.Register
			}
			user, err := login(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "ようこそ %s さん (id %s)\n", user.Username, user.Id)
			return nil
		}),
	}
}

func newLogoutCommand(out io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Log out",
		Args:  cobra.NoArgs,
		RunE: withApp(out, func(cmd *cobra.Command, args []string, a *app) error {
			return a.accounts().Logout()
		}),
	}
}

func newWhoamiCommand(out io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Print the logged-in user id",
		Args:  cobra.NoArgs,
		RunE: withApp(out, func(cmd *cobra.Command, args []string, a *app) error {
			userId, ok, err := a.accounts().Whoami()
			if err != nil {
				return err
			}
			if !ok {
				return errNotLoggedIn
			}
			fmt.Fprintln(out, userId)
			return nil
		}),
	}
}

func newUsersCommand(out io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "users",
		Short: "List users",
		Args:  cobra.NoArgs,
		RunE: withApp(out, func(cmd *cobra.Command, args []string, a *app) error {
			users, err := a.accounts().Users(cmd.Context())
			if err != nil {
				return err
			}
			for _, u := range users {
				fmt.Fprintf(out, "%s\t%s\n", u.Id, u.Username)
			}
			return nil
		}),
	}
}

func newProfileCommand(out io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show or edit your profile",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Show your profile",
		Args:  cobra.NoArgs,
		RunE: withApp(out, func(cmd *cobra.Command, args []string, a *app) error {
			p, err := a.accounts().Profile(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "name: %s\nage: %d\ngender: %s\nprefecture: %d\ndistrict: %d\n",
				p.Name, p.Age, p.Gender, p.PrefectureId, p.DistrictId)
			return nil
		}),
	}

	set := &cobra.Command{
		Use:   "set",
		Short: "Update your profile; only the given fields change",
		Args:  cobra.NoArgs,
		RunE: withApp(out, func(cmd *cobra.Command, args []string, a *app) error {
			accounts := a.accounts()
			current, err := accounts.Profile(cmd.Context())
			if err != nil {
				return err
			}

			var pairs []string
			for _, name := range []string{"name", "age", "gender", "prefecture", "district"} {
				if f := cmd.Flags().Lookup(name); f != nil && f.Changed {
					pairs = append(pairs, name+"="+f.Value.String())
				}
			}

			updated, err := application.ApplyProfileArgs(current, pairs)
			if err != nil {
				return err
			}
			if err := accounts.UpdateProfile(cmd.Context(), updated); err != nil {
				return err
			}
			fmt.Fprintln(out, "プロフィールを更新しました")
			return nil
		}),
	}
	set.Flags().String("name", "", "display name")
	set.Flags().Int("age", 0, "age")
	set.Flags().String("gender", "", "gender")
	set.Flags().Int("prefecture", 0, "prefecture id")
	set.Flags().Int("district", 0, "district id")

	cmd.AddCommand(show, set)
	return cmd
}

func newPrefecturesCommand(out io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "prefectures",
		Short: "List prefectures",
		Args:  cobra.NoArgs,
		RunE: withApp(out, func(cmd *cobra.Command, args []string, a *app) error {
			prefectures, err := a.accounts().Prefectures(cmd.Context())
			if err != nil {
				return err
			}
			for _, p := range prefectures {
				fmt.Fprintf(out, "%d\t%s\n", p.Id, p.Name)
			}
			return nil
		}),
	}
}

func newDistrictsCommand(out io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "districts PREFECTURE_ID",
		Short: "List the districts of a prefecture",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(out, func(cmd *cobra.Command, args []string, a *app) error {
			prefectureId, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("%q is not a valid prefecture id", args[0])
			}
			districts, err := a.accounts().Districts(cmd.Context(), prefectureId)
			if err != nil {
				return err
			}
			for _, d := range districts {
				fmt.Fprintf(out, "%d\t%s\n", d.Id, d.Name)
			}
			return nil
		}),
	}
}

func newShellCommand(out io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Interactive session: vote and watch the results",
		Args:  cobra.NoArgs,
		RunE: withApp(out, func(cmd *cobra.Command, args []string, a *app) error {
			sh := &application.Shell{
				Sync:      a.synchronizer(render.Text{Out: out}),
				Accounts:  a.accounts(),
				Greeter:   a.client,
				ChartFile: render.ChartFile,
				Out:       out,
				Logger:    a.logger.With("component", "shell"),
			}
			return sh.Run(cmd.Context(), os.Stdin)
		}),
	}
}

func newServeCommand(out io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Answer the vote buttons of tallies posted to Slack",
		Args:  cobra.NoArgs,
		RunE: withApp(out, func(cmd *cobra.Command, args []string, a *app) error {
			sync := a.synchronizer(render.Text{Out: out})
			if err := sync.Init(cmd.Context()); err != nil {
				if _, initialized := sync.Parties(); !initialized {
					return err
				}
				a.logger.Warn("tally unavailable at startup", "error", err)
			}

			mux := http.NewServeMux()
			mux.Handle("/slack/actions", &slackbot.Handler{
				Sync:              sync,
				VerificationToken: a.cfg.GetSlackVerificationToken(),
				Logger:            a.logger.With("component", "slackbot"),
			})

			server := &http.Server{
				Addr:              a.cfg.GetSlackListenAddress(),
				Handler:           mux,
				ReadHeaderTimeout: 10 * time.Second,
			}
			return serve(cmd.Context(), server, a.logger)
		}),
	}
	cmd.Flags().String("listen", ":3000", "address of the Slack action endpoint")
	return cmd
}

// serve runs server until ctx is done, then shuts it down.
func serve(ctx context.Context, server *http.Server, logger *slog.Logger) error {
	errc := make(chan error, 1)
	go func() {
		logger.Info("listening for slack actions", "addr", server.Addr)
		errc <- server.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "shutdown")
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
