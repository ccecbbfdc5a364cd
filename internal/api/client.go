package api

import (
	"context"
	"net/http"
	"net/url"

	"botlist/internal/common/errors"
)

// Client exposes the listing service's operations for a single bot. It is a
// thin composition of a Transport and the bound bot ID: no operation
// retries, caches, or rewrites errors.
type Client struct {
	transport *Transport
	botID     string
}

// NewClient creates a client for the bot identified by botID, authenticated
// with the given token.
func NewClient(token, botID string, opts ...TransportOption) (*Client, error) {
	if botID == "" {
		return nil, errors.ConfigError("bot id must not be empty")
	}

	transport, err := NewTransport(token, opts...)
	if err != nil {
		return nil, err
	}

	return &Client{transport: transport, botID: botID}, nil
}

// BotID returns the bot ID the client is bound to.
func (c *Client) BotID() string {
	return c.botID
}

// GetBot fetches a listed bot by its Discord ID.
func (c *Client) GetBot(ctx context.Context, id string) (*Bot, error) {
	var bot Bot
	if err := c.transport.Do(ctx, http.MethodGet, "/bots/"+id, nil, nil, &bot); err != nil {
		return nil, err
	}
	return &bot, nil
}

// GetUser fetches a user by their Discord ID.
func (c *Client) GetUser(ctx context.Context, id string) (*User, error) {
	var user User
	if err := c.transport.Do(ctx, http.MethodGet, "/users/"+id, nil, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// GetBots searches listed bots with the given query. A nil query uses the
// defaults.
func (c *Client) GetBots(ctx context.Context, query *Query) ([]Bot, error) {
	if query == nil {
		query = NewQuery()
	}

	var resp botsResponse
	if err := c.transport.Do(ctx, http.MethodGet, "/bots", query.Values(), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

// GetBotStats fetches the bound bot's posted statistics.
func (c *Client) GetBotStats(ctx context.Context) (*Stats, error) {
	var stats Stats
	if err := c.transport.Do(ctx, http.MethodGet, "/bots/"+c.botID+"/stats", nil, nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// PostStats publishes a statistics snapshot for the bound bot. The snapshot
// is normalized first: per-shard counts take precedence over a plain server
// count.
func (c *Client) PostStats(ctx context.Context, stats Stats) error {
	stats.Normalize()
	return c.transport.Do(ctx, http.MethodPost, "/bots/"+c.botID+"/stats", nil, &stats, nil)
}

// GetVoters fetches the bound bot's recent voters.
func (c *Client) GetVoters(ctx context.Context) ([]Voter, error) {
	var voters []Voter
	if err := c.transport.Do(ctx, http.MethodGet, "/bots/"+c.botID+"/votes", nil, nil, &voters); err != nil {
		return nil, err
	}
	return voters, nil
}

// HasVoted reports whether the given user has voted for the bound bot
// within the service's voting window.
func (c *Client) HasVoted(ctx context.Context, userID string) (bool, error) {
	query := url.Values{}
	query.Set("userId", userID)

	var resp votedResponse
	if err := c.transport.Do(ctx, http.MethodGet, "/bots/"+c.botID+"/check", query, nil, &resp); err != nil {
		return false, err
	}
	return resp.Voted != 0, nil
}

// IsWeekend reports whether the weekend vote multiplier is currently
// active.
func (c *Client) IsWeekend(ctx context.Context) (bool, error) {
	var resp weekendResponse
	if err := c.transport.Do(ctx, http.MethodGet, "/weekend", nil, nil, &resp); err != nil {
		return false, err
	}
	return resp.IsWeekend, nil
}
