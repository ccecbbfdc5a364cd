package main

import (
	"context"
	"crypto/hmac"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"botlist/internal/api"
	"botlist/internal/autoposter"
	"botlist/internal/common/logging"
	"botlist/internal/config"
	"botlist/internal/publish"
	"botlist/internal/ratelimit"
	"botlist/internal/redis"
	"botlist/internal/server"
	"botlist/internal/storage"
	"botlist/internal/webhook"
)

func main() {
	godotenv.Load()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logging.NewDefault().Error("invalid configuration", err)
		os.Exit(1)
	}

	logger, err := logging.NewZapLogger(logging.Config{
		Level: logging.ParseLevel(cfg.LogLevel),
		Name:  "botlist",
	})
	if err != nil {
		logging.NewDefault().Error("failed to build logger", err)
		os.Exit(1)
	}
	logging.SetGlobal(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("daemon exited with error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger logging.Logger) error {
	client, err := api.NewClient(cfg.APIToken, cfg.BotID,
		api.WithTimeout(cfg.RequestTimeout),
		api.WithLogger(logger.WithFields(logging.Field{Key: "component", Value: "api"})),
	)
	if err != nil {
		return err
	}

	store, err := storage.New(storage.Config{
		Type: cfg.StorageType,
		Path: cfg.DatabasePath,
		URL:  cfg.PostgresURL,
	})
	if err != nil {
		return err
	}
	defer store.Close()

	var redisClient *redis.Client
	if cfg.RedisAddress != "" {
		redisClient, err = redis.NewClient(&redis.Config{
			Address:  cfg.RedisAddress,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			PoolSize: cfg.RedisPoolSize,
		})
		if err != nil {
			return err
		}
		defer redisClient.Close()
	}

	publisher, err := publish.New(publish.Config{
		Type:    cfg.PublisherType,
		Channel: cfg.PublishChannel,
		URL:     cfg.AMQPURL,
		Queue:   cfg.AMQPQueue,
	}, redisClient)
	if err != nil {
		return err
	}
	defer publisher.Close()

	scheduler, err := autoposter.New(client, cfg.AutopostInterval,
		autoposter.WithLogger(logger.WithFields(logging.Field{Key: "component", Value: "autoposter"})),
		autoposter.WithPostTimeout(cfg.RequestTimeout),
	)
	if err != nil {
		return err
	}
	if err := scheduler.Start(); err != nil {
		return err
	}
	defer scheduler.Stop()

	auth, err := webhook.NewAuthenticator(cfg.WebhookSecret)
	if err != nil {
		return err
	}

	sink := &voteSink{
		store:     store,
		redis:     redisClient,
		publisher: publisher,
		logger:    logger.WithFields(logging.Field{Key: "component", Value: "votes"}),
	}

	router := mux.NewRouter()

	webhookHandler := http.Handler(webhook.Handler(auth, sink, logger))
	if redisClient != nil && cfg.RateLimitEnabled {
		limiter := ratelimit.NewLimiter(redisClient, &ratelimit.Config{
			DefaultLimit:  cfg.RateLimitDefault,
			DefaultWindow: cfg.RateLimitWindow,
			Enabled:       true,
		}, logger.WithFields(logging.Field{Key: "component", Value: "ratelimit"}))
		webhookHandler = limiter.Middleware(ratelimit.IPBasedKey)(webhookHandler)
	}
	router.Handle("/webhook", webhookHandler).Methods(http.MethodPost)
	router.Handle("/stats", statsHandler(cfg.APIToken, scheduler, logger)).Methods(http.MethodPost)
	router.Handle("/voted/{id}", votedHandler(cfg.APIToken, sink)).Methods(http.MethodGet)
	router.Handle("/votes", votesHandler(cfg.APIToken, store)).Methods(http.MethodGet)
	router.HandleFunc("/healthz", healthHandler(store, redisClient)).Methods(http.MethodGet)

	retention := cron.New()
	_, err = retention.AddFunc(cfg.RetentionSchedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		removed, err := store.PurgeOlderThan(ctx, time.Now().Add(-cfg.VoteRetention))
		if err != nil {
			logger.Error("vote retention purge failed", err)
			return
		}
		logger.Info("purged aged votes", logging.Field{Key: "removed", Value: removed})
	})
	if err != nil {
		return err
	}
	retention.Start()
	defer retention.Stop()

	srv := server.New(router, cfg.Port)
	srv.Start()
	logger.Info("daemon started",
		logging.Field{Key: "port", Value: cfg.Port},
		logging.Field{Key: "autopost_interval", Value: cfg.AutopostInterval.String()},
	)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		logger.Info("shutting down", logging.Field{Key: "signal", Value: sig.String()})
	case err := <-srv.Errors():
		return err
	}

	retention.Stop()
	scheduler.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}

// recentVoteWindow is how long a vote keeps a voter "recent": the cache TTL
// on the redis mark and the lookback for local voted-recently queries.
const recentVoteWindow = 12 * time.Hour

// voteSink is the daemon's vote pipeline: persist, mark the recent-voter
// cache, then fan out. Cache and publish failures are logged but never fail
// the webhook response.
type voteSink struct {
	store     storage.Storage
	redis     *redis.Client
	publisher publish.Publisher
	logger    logging.Logger
}

func (s *voteSink) HandleVote(ctx context.Context, vote *webhook.Vote) error {
	record := &storage.VoteRecord{
		VoterID:    vote.VoterID,
		ReceiverID: vote.ReceiverID,
		Kind:       string(vote.Kind),
		IsWeekend:  vote.IsWeekend,
		ReceivedAt: time.Now().UTC(),
	}
	if err := s.store.RecordVote(ctx, record); err != nil {
		return err
	}

	if s.redis != nil {
		if err := s.redis.MarkVoter(ctx, vote.VoterID, recentVoteWindow); err != nil {
			s.logger.Warn("failed to mark recent voter", logging.Err(err))
		}
	}

	if err := s.publisher.Publish(ctx, vote); err != nil {
		s.logger.Warn("failed to publish vote", logging.Err(err))
	}

	s.logger.Info("vote recorded",
		logging.Field{Key: "voter", Value: vote.VoterID},
		logging.Field{Key: "kind", Value: string(vote.Kind)},
		logging.Field{Key: "weekend", Value: vote.IsWeekend},
	)
	return nil
}

// VotedRecently reports whether the voter cast a vote within the recent
// window. The redis mark is consulted first as a cheap dedup check; only a
// cache miss falls through to persistent storage.
func (s *voteSink) VotedRecently(ctx context.Context, voterID string) (bool, error) {
	if s.redis != nil {
		seen, err := s.redis.SeenVoter(ctx, voterID)
		if err != nil {
			s.logger.Warn("recent-voter cache lookup failed", logging.Err(err))
		} else if seen {
			return true, nil
		}
	}
	return s.store.HasVotedSince(ctx, voterID, time.Now().Add(-recentVoteWindow))
}

// bearerAuthorized compares the request's bearer token against the expected
// one in constant time.
func bearerAuthorized(r *http.Request, token string) bool {
	provided := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	return hmac.Equal([]byte(provided), []byte(token))
}

// statsHandler lets the bot process forward its current stats to the
// autoposter. The body is an api.Stats snapshot; the latest one wins.
func statsHandler(token string, scheduler *autoposter.Scheduler, logger logging.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !bearerAuthorized(r, token) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var stats api.Stats
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&stats); err != nil {
			http.Error(w, "malformed stats body", http.StatusBadRequest)
			return
		}

		scheduler.Feed(stats)
		logger.Debug("stats snapshot accepted")
		w.WriteHeader(http.StatusAccepted)
	})
}

// votedHandler answers local voted-recently queries against the daemon's
// own records, mirroring the shape of the upstream check endpoint.
func votedHandler(token string, sink *voteSink) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !bearerAuthorized(r, token) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		voted, err := sink.VotedRecently(r.Context(), mux.Vars(r)["id"])
		if err != nil {
			http.Error(w, "lookup failed", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]bool{"voted": voted})
	})
}

// votesHandler lists locally recorded votes, newest first, with the total
// count for paging.
func votesHandler(token string, store storage.Storage) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !bearerAuthorized(r, token) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		skip, _ := strconv.Atoi(r.URL.Query().Get("skip"))

		votes, err := store.ListRecentVotes(r.Context(), limit, skip)
		if err != nil {
			http.Error(w, "lookup failed", http.StatusInternalServerError)
			return
		}
		total, err := store.CountVotes(r.Context())
		if err != nil {
			http.Error(w, "lookup failed", http.StatusInternalServerError)
			return
		}
		if votes == nil {
			votes = []*storage.VoteRecord{}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"total": total,
			"votes": votes,
		})
	})
}

func healthHandler(store storage.Storage, redisClient *redis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := map[string]string{"storage": "ok"}
		healthy := true

		if err := store.Health(); err != nil {
			status["storage"] = err.Error()
			healthy = false
		}
		if redisClient != nil {
			status["redis"] = "ok"
			if err := redisClient.Health(); err != nil {
				status["redis"] = err.Error()
				healthy = false
			}
		}

		w.Header().Set("Content-Type", "application/json")
		if !healthy {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(status)
	}
}
