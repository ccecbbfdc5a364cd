// Package webhook validates and parses inbound vote notifications from the
// listing service. The authentication state machine is framework-agnostic:
// any HTTP layer that can hand over the secret header and the raw body can
// embed it.
package webhook

import (
	"encoding/json"
	"net/url"
	"strings"

	"botlist/internal/common/errors"
)

// VoteKind distinguishes real votes from test dispatches sent from the
// listing service's webhook editor.
type VoteKind string

const (
	// Upvote is a real vote cast by a user.
	Upvote VoteKind = "upvote"
	// TestVote is a test dispatch triggered by the bot's owner.
	TestVote VoteKind = "test"
)

// Vote is an authenticated vote event. It is immutable once built and is
// handed to exactly one handler invocation.
type Vote struct {
	// ReceiverID is the bot or guild that received the vote.
	ReceiverID string `json:"receiver_id"`
	// VoterID is the user who cast the vote.
	VoterID string `json:"voter_id"`
	// Kind reports whether this is a real or a test vote.
	Kind VoteKind `json:"kind"`
	// IsWeekend reports whether the weekend multiplier was active, making
	// the vote count double. Always false for guild votes.
	IsWeekend bool `json:"is_weekend"`
	// RawQuery holds the query string from the vote page, if any.
	RawQuery string `json:"raw_query,omitempty"`
	// Query is RawQuery decoded into key-value pairs; malformed pairs are
	// skipped.
	Query map[string]string `json:"query,omitempty"`
}

type votePayload struct {
	Bot       string `json:"bot"`
	Guild     string `json:"guild"`
	User      string `json:"user"`
	Type      string `json:"type"`
	IsWeekend bool   `json:"isWeekend"`
	Query     string `json:"query"`
}

// ParseVote decodes a validated request body into a Vote. It is only called
// after the shared secret has been verified.
func ParseVote(body []byte) (*Vote, error) {
	var payload votePayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, errors.BadRequestError("malformed vote body", err)
	}

	if payload.User == "" {
		return nil, errors.BadRequestError("vote body missing user", nil)
	}

	receiver := payload.Bot
	if receiver == "" {
		receiver = payload.Guild
	}
	if receiver == "" {
		return nil, errors.BadRequestError("vote body missing bot or guild", nil)
	}

	kind := Upvote
	if payload.Type == string(TestVote) {
		kind = TestVote
	}

	return &Vote{
		ReceiverID: receiver,
		VoterID:    payload.User,
		Kind:       kind,
		IsWeekend:  payload.IsWeekend,
		RawQuery:   payload.Query,
		Query:      parseQueryString(payload.Query),
	}, nil
}

// parseQueryString decodes a vote-page query string into a map, skipping
// pairs that fail URL decoding.
func parseQueryString(raw string) map[string]string {
	if raw == "" {
		return nil
	}

	out := make(map[string]string)
	for _, pair := range strings.Split(raw, "&") {
		key, value, found := strings.Cut(pair, "=")
		if !found || key == "" {
			continue
		}
		decoded, err := url.QueryUnescape(value)
		if err != nil {
			continue
		}
		out[key] = decoded
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
