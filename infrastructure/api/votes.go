package api

import (
	"context"

	"github.com/CedricFinance/partyvote/domain/entities"
	"github.com/CedricFinance/partyvote/domain/services"
)

type voteRequest struct {
	UserId  string `json:"user_id"`
	PartyId int    `json:"party_id"`
}

func (c *Client) FindParties(ctx context.Context) ([]entities.Party, error) {
	var parties []entities.Party
	if err := c.get(ctx, "/party", nil, &parties); err != nil {
		return nil, err
	}
	return parties, nil
}

func (c *Client) GetAllVotes(ctx context.Context) (map[string]int, error) {
	var votes map[string]int
	if err := c.get(ctx, "/votes", nil, &votes); err != nil {
		return nil, err
	}
	return votes, nil
}

func (c *Client) SaveVote(ctx context.Context, vote entities.VoteIntent) error {
	var res successResponse
	err := c.post(ctx, "/vote", vote.Id, voteRequest{UserId: vote.UserId, PartyId: vote.PartyId}, &res)
	if err != nil {
		return err
	}
	if !res.Success {
		return services.Rejected{Operation: "vote", Message: res.Message}
	}
	return nil
}

type messageResponse struct {
	Message string `json:"message"`
}

func (c *Client) GetMessage(ctx context.Context) (string, error) {
	var res messageResponse
	if err := c.get(ctx, "/message", nil, &res); err != nil {
		return "", err
	}
	return res.Message, nil
}
