package mirrors_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/backgitup/backgitup/internal/mirrors"
	handler "github.com/backgitup/backgitup/internal/server/handlers/mirrors"
	"github.com/backgitup/backgitup/pkg/badgerfx"
	"github.com/dgraph-io/badger/v4"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()

	db, err := badger.Open(badgerfx.Config{InMemory: true}.Build().WithLogger(nil))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	logger := zaptest.NewLogger(t)
	svc := mirrors.NewService(mirrors.Config{Root: t.TempDir()}, nil, mirrors.NewRepository(db), logger)

	ctx := context.Background()
	require.NoError(t, svc.Record(ctx, mirrors.Result{
		Descriptor: mirrors.Descriptor{Owner: "alice", Name: "proj", CloneURL: "https://github.com/alice/proj.git"},
		Path:       "/repos/alice/proj",
		Outcome:    mirrors.OutcomeCloned,
		Head:       "abc123",
		StartedAt:  time.Now(),
	}))
	require.NoError(t, svc.Record(ctx, mirrors.Result{
		Descriptor: mirrors.Descriptor{Owner: "bob", Name: "legacy", CloneURL: "https://github.com/bob/legacy.git"},
		Path:       "/repos/bob/legacy",
		Outcome:    mirrors.OutcomeFailed,
		Err:        errors.New("failed to update mirror: not fast-forward"),
		StartedAt:  time.Now(),
	}))

	app := fiber.New()
	handler.NewHandler(svc, validator.New(), logger).Register(app.Group("/api/v1"))

	return app
}

func doRequest(t *testing.T, app *fiber.App, target string, out any) int {
	t.Helper()

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, target, nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil && resp.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}

	return resp.StatusCode
}

func TestHandler_List(t *testing.T) {
	app := newTestApp(t)

	var all []handler.MirrorResponse
	require.Equal(t, http.StatusOK, doRequest(t, app, "/api/v1/mirrors", &all))
	require.Len(t, all, 2)
	assert.Equal(t, "alice", all[0].Owner)
	assert.Equal(t, "abc123", all[0].Head)

	var failed []handler.MirrorResponse
	require.Equal(t, http.StatusOK, doRequest(t, app, "/api/v1/mirrors?outcome=failed", &failed))
	require.Len(t, failed, 1)
	assert.Equal(t, "bob", failed[0].Owner)
	assert.Equal(t, "failed to update mirror: not fast-forward", failed[0].LastReason)
	assert.Equal(t, 1, failed[0].ConsecutiveFailures)

	assert.Equal(t, http.StatusBadRequest, doRequest(t, app, "/api/v1/mirrors?outcome=exploded", nil))
}

func TestHandler_Get(t *testing.T) {
	app := newTestApp(t)

	var mirror handler.MirrorResponse
	require.Equal(t, http.StatusOK, doRequest(t, app, "/api/v1/mirrors/alice/proj", &mirror))
	assert.Equal(t, "proj", mirror.Name)
	assert.Equal(t, "cloned", mirror.LastOutcome)
	assert.NotNil(t, mirror.LastSuccessAt)

	assert.Equal(t, http.StatusNotFound, doRequest(t, app, "/api/v1/mirrors/alice/missing", nil))
}
