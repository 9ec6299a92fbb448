package api

import (
	"context"
	"strconv"

	"github.com/CedricFinance/partyvote/domain/entities"
	"github.com/CedricFinance/partyvote/domain/services"
)

func (c *Client) Login(ctx context.Context, credentials entities.Credentials) (entities.User, error) {
	return c.authenticate(ctx, "/login", "login", credentials)
}

func (c *Client) Register(ctx context.Context, credentials entities.Credentials) (entities.User, error) {
	return c.authenticate(ctx, "/register", "register", credentials)
}

func (c *Client) authenticate(ctx context.Context, path string, operation string, credentials entities.Credentials) (entities.User, error) {
	var res successResponse
	if err := c.post(ctx, path, "", credentials, &res); err != nil {
		return entities.User{}, err
	}
	if !res.Success || res.UserId == "" {
		return entities.User{}, services.Rejected{Operation: operation, Message: res.Message}
	}
	return entities.User{Id: res.UserId, Username: credentials.Username}, nil
}

func (c *Client) FindUsers(ctx context.Context) ([]entities.User, error) {
	var users []entities.User
	if err := c.get(ctx, "/users", nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (c *Client) FindProfile(ctx context.Context, userId string) (entities.Profile, error) {
	var profile entities.Profile
	if err := c.get(ctx, "/get_profile", map[string]string{"user_id": userId}, &profile); err != nil {
		return entities.Profile{}, err
	}
	return profile, nil
}

func (c *Client) SaveProfile(ctx context.Context, profile entities.Profile) error {
	var res successResponse
	if err := c.post(ctx, "/update_profile", "", profile, &res); err != nil {
		return err
	}
	if !res.Success {
		return services.Rejected{Operation: "update profile", Message: res.Message}
	}
	return nil
}

func (c *Client) FindPrefectures(ctx context.Context) ([]entities.Prefecture, error) {
	var prefectures []entities.Prefecture
	if err := c.get(ctx, "/prefectures", nil, &prefectures); err != nil {
		return nil, err
	}
	return prefectures, nil
}

func (c *Client) FindDistricts(ctx context.Context, prefectureId int) ([]entities.District, error) {
	var districts []entities.District
	query := map[string]string{"prefecture_id": strconv.Itoa(prefectureId)}
	if err := c.get(ctx, "/districts", query, &districts); err != nil {
		return nil, err
	}
	return districts, nil
}
