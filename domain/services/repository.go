package services

import (
	"context"
	"fmt"

	"github.com/CedricFinance/partyvote/domain/entities"
)

// VoteRepository is the authoritative remote store for parties and votes.
type VoteRepository interface {
	FindParties(ctx context.Context) ([]entities.Party, error)
	GetAllVotes(ctx context.Context) (map[string]int, error)
	SaveVote(ctx context.Context, vote entities.VoteIntent) error
}

type AccountRepository interface {
	Login(ctx context.Context, credentials entities.Credentials) (entities.User, error)
	Register(ctx context.Context, credentials entities.Credentials) (entities.User, error)
	FindUsers(ctx context.Context) ([]entities.User, error)
	FindProfile(ctx context.Context, userId string) (entities.Profile, error)
	SaveProfile(ctx context.Context, profile entities.Profile) error
}

type ReferenceData interface {
	FindPrefectures(ctx context.Context) ([]entities.Prefecture, error)
	FindDistricts(ctx context.Context, prefectureId int) ([]entities.District, error)
}

type Greeter interface {
	GetMessage(ctx context.Context) (string, error)
}

// Identity exposes the current session user. Absence (ok == false) is the
// normal "not logged in" state, not an error.
type Identity interface {
	CurrentUser() (userId string, ok bool, err error)
}

type SessionStore interface {
	Identity
	SetCurrentUser(userId string) error
	Clear() error
}

type Navigator interface {
	RedirectToLogin()
}

// Notifier surfaces outcomes to the user. Alert is blocking in a UI sense:
// the user must see it before continuing.
type Notifier interface {
	Info(message string)
	Warn(message string)
	Alert(message string)
}

type StatusError struct {
	Method string
	Path   string
	Code   int
}

func (e StatusError) Error() string {
	return fmt.Sprintf("%s %s returned http status %d", e.Method, e.Path, e.Code)
}

// Rejected is returned when the API answers 2xx with success=false.
type Rejected struct {
	Operation string
	Message   string
}

func (e Rejected) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s rejected", e.Operation)
	}
	return fmt.Sprintf("%s rejected: %s", e.Operation, e.Message)
}
