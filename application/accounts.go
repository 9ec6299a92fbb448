package application

import (
	"context"
	"log/slog"
	"time"

	"github.com/pkg/errors"

	"github.com/CedricFinance/partyvote/domain/entities"
	"github.com/CedricFinance/partyvote/domain/services"
)

var ErrNotAuthenticated = errors.New("not logged in")

// Accounts maps the login, registration and profile forms onto the remote
// API. The session store is only written here.
type Accounts struct {
	Repository services.AccountRepository
	Reference  services.ReferenceData
	Session    services.SessionStore
	Navigator  services.Navigator
	Logger     *slog.Logger
	Timeout    time.Duration
}

func (a *Accounts) logger() *slog.Logger {
	if a.Logger == nil {
		return slog.Default()
	}
	return a.Logger
}

func (a *Accounts) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.Timeout > 0 {
		return context.WithTimeout(ctx, a.Timeout)
	}
	return context.WithCancel(ctx)
}

func (a *Accounts) Login(ctx context.Context, username string, password string) (entities.User, error) {
	credentials := entities.Credentials{Username: username, Password: password}
	if err := credentials.Validate(); err != nil {
		return entities.User{}, err
	}

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	user, err := a.Repository.Login(ctx, credentials)
	if err != nil {
		return entities.User{}, errors.Wrap(err, "login")
	}
	return user, a.startSession(user)
}

func (a *Accounts) Register(ctx context.Context, username string, password string) (entities.User, error) {
	credentials := entities.Credentials{Username: username, Password: password}
	if err := credentials.Validate(); err != nil {
		return entities.User{}, err
	}

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	user, err := a.Repository.Register(ctx, credentials)
	if err != nil {
		return entities.User{}, errors.Wrap(err, "register")
	}
	return user, a.startSession(user)
}

func (a *Accounts) startSession(user entities.User) error {
	if err := a.Session.SetCurrentUser(user.Id); err != nil {
		return err
	}
	a.logger().Info("logged in", "user_id", user.Id, "username", user.Username)
	return nil
}

func (a *Accounts) Logout() error {
	return a.Session.Clear()
}

func (a *Accounts) Whoami() (string, bool, error) {
	return a.Session.CurrentUser()
}

func (a *Accounts) Users(ctx context.Context) ([]entities.User, error) {
	ctx, cancel := a.withTimeout(ctx)
	defer cancel()
	users, err := a.Repository.FindUsers(ctx)
	return users, errors.Wrap(err, "list users")
}

// currentUser returns the logged-in user id, redirecting to login when there
// is none.
func (a *Accounts) currentUser() (string, error) {
	userId, ok, err := a.Session.CurrentUser()
	if err != nil {
		return "", err
	}
	if !ok {
		a.Navigator.RedirectToLogin()
		return "", ErrNotAuthenticated
	}
	return userId, nil
}

func (a *Accounts) Profile(ctx context.Context) (entities.Profile, error) {
	userId, err := a.currentUser()
	if err != nil {
		return entities.Profile{}, err
	}

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	profile, err := a.Repository.FindProfile(ctx, userId)
	if err != nil {
		return entities.Profile{}, errors.Wrap(err, "get profile")
	}
	return profile, nil
}

// UpdateProfile validates the profile against the prefecture/district master
// data before saving it for the current user.
func (a *Accounts) UpdateProfile(ctx context.Context, profile entities.Profile) error {
	userId, err := a.currentUser()
	if err != nil {
		return err
	}
	profile.UserId = userId

	if err := profile.Validate(); err != nil {
		return err
	}

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	if err := a.checkLocation(ctx, profile.PrefectureId, profile.DistrictId); err != nil {
		return err
	}

	if err := a.Repository.SaveProfile(ctx, profile); err != nil {
		return errors.Wrap(err, "update profile")
	}
	return nil
}

func (a *Accounts) checkLocation(ctx context.Context, prefectureId int, districtId int) error {
	prefectures, err := a.Reference.FindPrefectures(ctx)
	if err != nil {
		return errors.Wrap(err, "load prefectures")
	}

	found := false
	for _, p := range prefectures {
		if p.Id == prefectureId {
			found = true
			break
		}
	}
	if !found {
		return entities.ValidationError{Field: "prefecture", Reason: "unknown prefecture"}
	}

	districts, err := a.Reference.FindDistricts(ctx, prefectureId)
	if err != nil {
		return errors.Wrap(err, "load districts")
	}
	for _, d := range districts {
		if d.Id == districtId && d.PrefectureId == prefectureId {
			return nil
		}
	}
	return entities.ValidationError{Field: "district", Reason: "not in the selected prefecture"}
}

func (a *Accounts) Prefectures(ctx context.Context) ([]entities.Prefecture, error) {
	ctx, cancel := a.withTimeout(ctx)
	defer cancel()
	prefectures, err := a.Reference.FindPrefectures(ctx)
	return prefectures, errors.Wrap(err, "load prefectures")
}

func (a *Accounts) Districts(ctx context.Context, prefectureId int) ([]entities.District, error) {
	ctx, cancel := a.withTimeout(ctx)
	defer cancel()
	districts, err := a.Reference.FindDistricts(ctx, prefectureId)
	return districts, errors.Wrap(err, "load districts")
}
