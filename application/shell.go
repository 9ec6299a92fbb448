package application

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/mattn/go-shellwords"
	"github.com/pkg/errors"

	"github.com/CedricFinance/partyvote/domain/entities"
	"github.com/CedricFinance/partyvote/domain/services"
)

const helpMessage = `Commands:
- results                    show the current tally again
- refresh                    fetch the tally from the server
- vote NAME                  vote for a party (unknown names count as "その他")
- select INDEX               vote for the party at chart segment INDEX (0-based)
- chart FILE                 write the results chart as HTML to FILE
- login USER PASSWORD        log in
- register USER PASSWORD     create an account and log in
- logout                     log out
- whoami                     show the logged-in user id
- users                      list users
- profile                    show your profile
- profile set KEY=VALUE...   update your profile (name, age, gender, prefecture, district)
- prefectures                list prefectures
- districts PREFECTURE_ID    list the districts of a prefecture
- help                       show this message
- quit                       leave the shell
Put a party name between "" if it contains spaces.`

// Shell is the interactive event loop: one command per line, handled one at
// a time. It owns a single Synchronizer for its whole lifetime.
type Shell struct {
	Sync     *Synchronizer
	Accounts *Accounts
	Greeter  services.Greeter
	// ChartFile returns a renderer that writes the chart page to path.
	ChartFile func(path string) Renderer
	Out       io.Writer
	Logger    *slog.Logger
}

func (sh *Shell) logger() *slog.Logger {
	if sh.Logger == nil {
		return slog.Default()
	}
	return sh.Logger
}

// Run greets, loads the tally and then reads commands from in until EOF or
// quit. Command errors are printed and never end the loop.
func (sh *Shell) Run(ctx context.Context, in io.Reader) error {
	sh.greet(ctx)

	if err := sh.Sync.Init(ctx); err != nil {
		fmt.Fprintf(sh.Out, "集計を取得できませんでした: %v\n", err)
	}

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(sh.Out, "> ")
		if !scanner.Scan() {
			break
		}

		quit, err := sh.Execute(ctx, scanner.Text())
		if err != nil {
			fmt.Fprintf(sh.Out, "Sorry, %s\n", err)
		}
		if quit {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return scanner.Err()
}

func (sh *Shell) greet(ctx context.Context) {
	if sh.Greeter == nil {
		return
	}
	msg, err := sh.Greeter.GetMessage(ctx)
	if err != nil {
		fmt.Fprintf(sh.Out, "取得失敗: %v\n", err)
		return
	}
	fmt.Fprintf(sh.Out, "APIからのメッセージ: %s\n", msg)
}

// Execute runs one command line.
func (sh *Shell) Execute(ctx context.Context, line string) (quit bool, err error) {
	args, err := shellwords.Parse(Sanitize(line))
	if err != nil {
		return false, err
	}
	if len(args) == 0 {
		return false, nil
	}

	cmd, args := args[0], args[1:]
	switch cmd {
	case "quit", "exit":
		return true, nil
	case "help":
		fmt.Fprintln(sh.Out, helpMessage)
		return false, nil
	case "results":
		return false, sh.Sync.Render(ctx)
	case "refresh":
		_, err := sh.Sync.Refresh(ctx)
		return false, err
	case "vote":
		if len(args) != 1 {
			return false, errors.New("usage: vote NAME")
		}
		return false, sh.reportVote(sh.Sync.Vote(ctx, args[0]))
	case "select":
		if len(args) != 1 {
			return false, errors.New("usage: select INDEX")
		}
		index, err := strconv.Atoi(args[0])
		if err != nil {
			return false, fmt.Errorf("%q is not a valid segment index", args[0])
		}
		return false, sh.reportVote(sh.Sync.Select(ctx, index))
	case "chart":
		if len(args) != 1 || sh.ChartFile == nil {
			return false, errors.New("usage: chart FILE")
		}
		if err := sh.ChartFile(args[0]).Render(ctx, sh.Sync.View()); err != nil {
			return false, err
		}
		fmt.Fprintf(sh.Out, "wrote %s\n", args[0])
		return false, nil
	case "login", "register":
		if len(args) != 2 {
			return false, fmt.Errorf("usage: %s USER PASSWORD", cmd)
		}
		login := sh.Accounts.Login
		if cmd == "register" {
			login = sh.Accounts.Register
		}
		user, err := login(ctx, args[0], args[1])
		if err != nil {
			return false, err
		}
		fmt.Fprintf(sh.Out, "ようこそ %s さん (id %s)\n", user.Username, user.Id)
		return false, nil
	case "logout":
		if err := sh.Accounts.Logout(); err != nil {
			return false, err
		}
		fmt.Fprintln(sh.Out, "ログアウトしました")
		return false, nil
	case "whoami":
		userId, ok, err := sh.Accounts.Whoami()
		if err != nil {
			return false, err
		}
		if !ok {
			fmt.Fprintln(sh.Out, "not logged in")
			return false, nil
		}
		fmt.Fprintln(sh.Out, userId)
		return false, nil
	case "users":
		users, err := sh.Accounts.Users(ctx)
		if err != nil {
			return false, err
		}
		for _, u := range users {
			fmt.Fprintf(sh.Out, "%s\t%s\n", u.Id, u.Username)
		}
		return false, nil
	case "profile":
		return false, sh.profile(ctx, args)
	case "prefectures":
		prefectures, err := sh.Accounts.Prefectures(ctx)
		if err != nil {
			return false, err
		}
		for _, p := range prefectures {
			fmt.Fprintf(sh.Out, "%d\t%s\n", p.Id, p.Name)
		}
		return false, nil
	case "districts":
		if len(args) != 1 {
			return false, errors.New("usage: districts PREFECTURE_ID")
		}
		prefectureId, err := strconv.Atoi(args[0])
		if err != nil {
			return false, fmt.Errorf("%q is not a valid prefecture id", args[0])
		}
		districts, err := sh.Accounts.Districts(ctx, prefectureId)
		if err != nil {
			return false, err
		}
		for _, d := range districts {
			fmt.Fprintf(sh.Out, "%d\t%s\n", d.Id, d.Name)
		}
		return false, nil
	}

	fmt.Fprintln(sh.Out, helpMessage)
	return false, nil
}

// reportVote hides errors the synchronizer already surfaced through its
// notifier. A render failure after a committed vote is not one of them.
func (sh *Shell) reportVote(result VoteResult, err error) error {
	sh.logger().Debug("vote finished", "result", result.String(), "error", err)
	switch {
	case err == nil:
		return nil
	case result == VoteCommitted:
		return err
	case errors.Is(err, ErrVoteInFlight), errors.Is(err, ErrNoSuchSegment), errors.Is(err, ErrNotInitialized):
		return err
	}
	return nil
}

func (sh *Shell) profile(ctx context.Context, args []string) error {
	if len(args) == 0 {
		profile, err := sh.Accounts.Profile(ctx)
		if err != nil {
			if errors.Is(err, ErrNotAuthenticated) {
				return nil
			}
			return err
		}
		fmt.Fprintf(sh.Out, "name: %s\nage: %d\ngender: %s\nprefecture: %d\ndistrict: %d\n",
			profile.Name, profile.Age, profile.Gender, profile.PrefectureId, profile.DistrictId)
		return nil
	}

	if args[0] != "set" {
		return errors.New("usage: profile [set KEY=VALUE...]")
	}

	current, err := sh.Accounts.Profile(ctx)
	if err != nil {
		if errors.Is(err, ErrNotAuthenticated) {
			return nil
		}
		return err
	}

	updated, err := ApplyProfileArgs(current, args[1:])
	if err != nil {
		return err
	}
	if err := sh.Accounts.UpdateProfile(ctx, updated); err != nil {
		return err
	}
	fmt.Fprintln(sh.Out, "プロフィールを更新しました")
	return nil
}

// ApplyProfileArgs applies KEY=VALUE pairs on top of an existing profile.
func ApplyProfileArgs(profile entities.Profile, args []string) (entities.Profile, error) {
	for _, arg := range args {
		key, value, found := strings.Cut(arg, "=")
		if !found {
			return entities.Profile{}, fmt.Errorf("%q is not a KEY=VALUE pair", arg)
		}

		var err error
		switch key {
		case "name":
			profile.Name = value
		case "gender":
			profile.Gender = value
		case "age":
			profile.Age, err = strconv.Atoi(value)
		case "prefecture":
			profile.PrefectureId, err = strconv.Atoi(value)
		case "district":
			profile.DistrictId, err = strconv.Atoi(value)
		default:
			return entities.Profile{}, fmt.Errorf("unknown profile field %q", key)
		}
		if err != nil {
			return entities.Profile{}, fmt.Errorf("%q is not a valid value for %s", value, key)
		}
	}
	return profile, nil
}

// Sanitize replaces typographic quotes so they group words like plain ones.
func Sanitize(str string) string {
	return strings.NewReplacer("“", "\"", "”", "\"", "「", "\"", "」", "\"").Replace(str)
}
