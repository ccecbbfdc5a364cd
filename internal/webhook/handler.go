package webhook

import (
	"context"
	"io"
	"net/http"

	"botlist/internal/common/errors"
	"botlist/internal/common/logging"
)

// maxBodySize bounds inbound webhook bodies; vote payloads are tiny.
const maxBodySize = 64 * 1024

// VoteHandler is the capability invoked with each authenticated vote. The
// call is synchronous from the webhook's perspective; any concurrency is
// the handler's concern.
type VoteHandler interface {
	HandleVote(ctx context.Context, vote *Vote) error
}

// VoteHandlerFunc adapts a function to the VoteHandler interface.
type VoteHandlerFunc func(ctx context.Context, vote *Vote) error

// HandleVote calls fn.
func (fn VoteHandlerFunc) HandleVote(ctx context.Context, vote *Vote) error {
	return fn(ctx, vote)
}

// Handler adapts the authentication state machine to net/http. It extracts
// the secret from the Authorization header and the raw body, and maps the
// terminal outcomes to status codes: unauthorized to 401, bad request to
// 400, authenticated to 204 after exactly one VoteHandler invocation.
func Handler(auth *Authenticator, handler VoteHandler, logger logging.Logger) http.Handler {
	if logger == nil {
		logger = logging.Global()
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
		if err != nil {
			http.Error(w, "failed to read request body", http.StatusBadRequest)
			return
		}

		vote, err := auth.Authenticate(r.Header.Get("Authorization"), body)
		if err != nil {
			switch {
			case errors.IsType(err, errors.ErrTypeUnauthorized):
				logger.Warn("webhook rejected: bad secret",
					logging.Field{Key: "remote", Value: r.RemoteAddr},
				)
				http.Error(w, "unauthorized", http.StatusUnauthorized)
			default:
				logger.Warn("webhook rejected: bad body",
					logging.Field{Key: "remote", Value: r.RemoteAddr},
					logging.Err(err),
				)
				http.Error(w, "bad request", http.StatusBadRequest)
			}
			return
		}

		if err := handler.HandleVote(r.Context(), vote); err != nil {
			logger.Error("vote handler failed", err,
				logging.Field{Key: "voter", Value: vote.VoterID},
			)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		logger.Debug("vote accepted",
			logging.Field{Key: "voter", Value: vote.VoterID},
			logging.Field{Key: "kind", Value: string(vote.Kind)},
		)
		w.WriteHeader(http.StatusNoContent)
	})
}
