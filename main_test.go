package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"botlist/internal/common/logging"
	"botlist/internal/publish"
	"botlist/internal/redis"
	"botlist/internal/storage"
	"botlist/internal/webhook"
)

func newTestSink(t *testing.T, withRedis bool) *voteSink {
	t.Helper()

	store, err := storage.NewSQLite(filepath.Join(t.TempDir(), "votes.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	var redisClient *redis.Client
	if withRedis {
		mr, err := miniredis.Run()
		require.NoError(t, err)
		t.Cleanup(mr.Close)

		redisClient, err = redis.NewClient(&redis.Config{Address: mr.Addr()})
		require.NoError(t, err)
		t.Cleanup(func() { redisClient.Close() })
	}

	return &voteSink{
		store:     store,
		redis:     redisClient,
		publisher: publish.NoopPublisher{},
		logger:    logging.NewDefault(),
	}
}

func TestHandleVoteMarksVoterAndRecords(t *testing.T) {
	sink := newTestSink(t, true)
	ctx := context.Background()

	require.NoError(t, sink.HandleVote(ctx, &webhook.Vote{
		ReceiverID: "111",
		VoterID:    "42",
		Kind:       webhook.Upvote,
	}))

	seen, err := sink.redis.SeenVoter(ctx, "42")
	require.NoError(t, err)
	assert.True(t, seen)

	voted, err := sink.store.HasVotedSince(ctx, "42", time.Now().Add(-time.Minute))
	require.NoError(t, err)
	assert.True(t, voted)
}

func TestVotedRecentlyPrefersCache(t *testing.T) {
	sink := newTestSink(t, true)
	ctx := context.Background()

	// Mark only the cache: a hit here must answer without a storage row.
	require.NoError(t, sink.redis.MarkVoter(ctx, "42", recentVoteWindow))

	voted, err := sink.VotedRecently(ctx, "42")
	require.NoError(t, err)
	assert.True(t, voted)
}

func TestVotedRecentlyFallsBackToStorage(t *testing.T) {
	sink := newTestSink(t, false)
	ctx := context.Background()

	require.NoError(t, sink.store.RecordVote(ctx, &storage.VoteRecord{
		VoterID:    "42",
		ReceiverID: "111",
		Kind:       "upvote",
	}))

	voted, err := sink.VotedRecently(ctx, "42")
	require.NoError(t, err)
	assert.True(t, voted)

	voted, err = sink.VotedRecently(ctx, "999")
	require.NoError(t, err)
	assert.False(t, voted)
}

func TestVotedRecentlyIgnoresAgedVotes(t *testing.T) {
	sink := newTestSink(t, false)
	ctx := context.Background()

	require.NoError(t, sink.store.RecordVote(ctx, &storage.VoteRecord{
		VoterID:    "42",
		ReceiverID: "111",
		Kind:       "upvote",
		ReceivedAt: time.Now().UTC().Add(-recentVoteWindow - time.Hour),
	}))

	voted, err := sink.VotedRecently(ctx, "42")
	require.NoError(t, err)
	assert.False(t, voted)
}

func votedRequest(t *testing.T, sink *voteSink, voterID, token string) *httptest.ResponseRecorder {
	t.Helper()
	router := mux.NewRouter()
	router.Handle("/voted/{id}", votedHandler("api-token", sink)).Methods(http.MethodGet)

	req := httptest.NewRequest(http.MethodGet, "/voted/"+voterID, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestVotedHandler(t *testing.T) {
	sink := newTestSink(t, true)
	require.NoError(t, sink.HandleVote(context.Background(), &webhook.Vote{
		ReceiverID: "111",
		VoterID:    "42",
		Kind:       webhook.Upvote,
	}))

	rec := votedRequest(t, sink, "42", "api-token")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"voted":true}`, rec.Body.String())

	rec = votedRequest(t, sink, "999", "api-token")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"voted":false}`, rec.Body.String())
}

func TestVotedHandlerRequiresToken(t *testing.T) {
	sink := newTestSink(t, false)

	assert.Equal(t, http.StatusUnauthorized, votedRequest(t, sink, "42", "wrong").Code)
	assert.Equal(t, http.StatusUnauthorized, votedRequest(t, sink, "42", "").Code)
}

func TestVotesHandler(t *testing.T) {
	sink := newTestSink(t, false)
	ctx := context.Background()

	base := time.Now().UTC().Add(-time.Hour)
	for i, voter := range []string{"1", "2", "3"} {
		require.NoError(t, sink.store.RecordVote(ctx, &storage.VoteRecord{
			VoterID:    voter,
			ReceiverID: "111",
			Kind:       "upvote",
			ReceivedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	handler := votesHandler("api-token", sink.store)
	req := httptest.NewRequest(http.MethodGet, "/votes?limit=2", nil)
	req.Header.Set("Authorization", "Bearer api-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Total int                   `json:"total"`
		Votes []*storage.VoteRecord `json:"votes"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 3, body.Total)
	require.Len(t, body.Votes, 2)
	assert.Equal(t, "3", body.Votes[0].VoterID)
	assert.Equal(t, "2", body.Votes[1].VoterID)
}

func TestVotesHandlerEmpty(t *testing.T) {
	sink := newTestSink(t, false)

	handler := votesHandler("api-token", sink.store)
	req := httptest.NewRequest(http.MethodGet, "/votes", nil)
	req.Header.Set("Authorization", "Bearer api-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"total":0,"votes":[]}`, rec.Body.String())
}

func TestVotesHandlerRequiresToken(t *testing.T) {
	sink := newTestSink(t, false)

	handler := votesHandler("api-token", sink.store)
	req := httptest.NewRequest(http.MethodGet, "/votes", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
