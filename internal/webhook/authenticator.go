package webhook

import (
	"crypto/hmac"

	"botlist/internal/common/errors"
)

// Authenticator validates inbound vote notifications against the shared
// webhook secret. The secret is compared in constant time, and the body is
// never parsed before the secret has been verified, so unauthenticated
// callers learn nothing about body validity.
type Authenticator struct {
	secret []byte
	parse  func([]byte) (*Vote, error)
}

// NewAuthenticator creates an authenticator for the given shared secret.
func NewAuthenticator(secret string) (*Authenticator, error) {
	if secret == "" {
		return nil, errors.ConfigError("webhook secret must not be empty")
	}
	return &Authenticator{
		secret: []byte(secret),
		parse:  ParseVote,
	}, nil
}

// Authenticate runs the full state machine over one inbound request:
// verify the provided secret, then parse the body. It returns the
// authenticated Vote, or an unauthorized error (wrong secret) or a
// bad-request error (authenticated but unparseable body).
func (a *Authenticator) Authenticate(providedSecret string, body []byte) (*Vote, error) {
	if !hmac.Equal([]byte(providedSecret), a.secret) {
		return nil, errors.UnauthorizedError("webhook secret mismatch")
	}
	return a.parse(body)
}
