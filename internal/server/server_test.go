package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"blogrr/internal/config"
	"blogrr/internal/database"
	"blogrr/internal/models"
	"blogrr/internal/notifications"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, rdb *redis.Client) (*Server, *fiber.App) {
	t.Helper()
	cfg := &config.Config{
		Port:         "4000",
		Env:          "test",
		DBDriver:     config.DriverSQLite,
		DBPath:       filepath.Join(t.TempDir(), "server.db"),
		DBSchemaMode: config.SchemaModeAuto,
	}

	db, err := database.Connect(cfg)
	require.NoError(t, err)
	require.NoError(t, database.ApplySchema(context.Background(), db, cfg.DBSchemaMode))
	t.Cleanup(func() { _ = database.Close(db) })

	srv, err := NewServerWithDeps(cfg, db, rdb)
	require.NoError(t, err)
	return srv, srv.NewApp()
}

func doJSON(t *testing.T, app *fiber.App, method, path, body string) *http.Response {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, 5000)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decodePost(t *testing.T, resp *http.Response) models.Post {
	t.Helper()
	var post models.Post
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&post))
	return post
}

func TestNewServerWithDeps_RequiresDependencies(t *testing.T) {
	_, err := NewServerWithDeps(nil, nil, nil)
	assert.Error(t, err)

	_, err = NewServerWithDeps(&config.Config{}, nil, nil)
	assert.Error(t, err)
}

func TestPostLifecycle(t *testing.T) {
	_, app := newTestServer(t, nil)

	resp := doJSON(t, app, http.MethodGet, "/api/posts", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list []models.Post
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	assert.Empty(t, list)

	resp = doJSON(t, app, http.MethodPost, "/api/posts", `{"title":"First","content":"Body","author":"Ann"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	first := decodePost(t, resp)
	assert.NotZero(t, first.ID)
	assert.True(t, first.CreatedAt.Equal(first.UpdatedAt))

	time.Sleep(5 * time.Millisecond)
	resp = doJSON(t, app, http.MethodPost, "/posts", `{"title":"Second","content":"Body","author":"Bob"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	second := decodePost(t, resp)

	resp = doJSON(t, app, http.MethodGet, "/posts", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, first.ID, list[1].ID)

	resp = doJSON(t, app, http.MethodPatch, "/api/posts/"+itoa(first.ID), `{"content":"Edited"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	edited := decodePost(t, resp)
	assert.Equal(t, "First", edited.Title)
	assert.Equal(t, "Edited", edited.Content)
	assert.Equal(t, "Ann", edited.Author)
	assert.True(t, edited.CreatedAt.Equal(first.CreatedAt))
	assert.True(t, edited.UpdatedAt.After(first.UpdatedAt))

	resp = doJSON(t, app, http.MethodPut, "/api/posts/"+itoa(first.ID), "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	touched := decodePost(t, resp)
	assert.True(t, touched.UpdatedAt.After(edited.UpdatedAt))

	resp = doJSON(t, app, http.MethodDelete, "/api/posts/"+itoa(first.ID), "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, app, http.MethodGet, "/api/posts/"+itoa(first.ID), "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = doJSON(t, app, http.MethodDelete, "/api/posts/"+itoa(first.ID), "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = doJSON(t, app, http.MethodPatch, "/api/posts/"+itoa(first.ID), `{"title":"x"}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestUnknownRouteUsesErrorBody(t *testing.T) {
	_, app := newTestServer(t, nil)

	resp := doJSON(t, app, http.MethodGet, "/api/nothing-here", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	var body models.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.NotEmpty(t, body.Message)
}

func TestHealthChecks(t *testing.T) {
	_, app := newTestServer(t, nil)

	resp := doJSON(t, app, http.MethodGet, "/health/live", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, app, http.MethodGet, "/health/ready", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "healthy", body.Status)
	assert.Equal(t, "healthy", body.Checks["database"])
	assert.Equal(t, "disabled", body.Checks["redis"])
}

func TestReadinessCheck_RedisDown(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = rdb.Close() })

	_, app := newTestServer(t, rdb)
	mr.Close()

	resp := doJSON(t, app, http.MethodGet, "/health/ready", "")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestRequestIDAndTraceHeaders(t *testing.T) {
	_, app := newTestServer(t, nil)

	resp := doJSON(t, app, http.MethodGet, "/api/posts", "")
	assert.NotEmpty(t, resp.Header.Get(fiber.HeaderXRequestID))
	assert.NotEmpty(t, resp.Header.Get("X-Trace-ID"))
}

func TestPostEventsArePublished(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	ctx := context.Background()
	sub := rdb.Subscribe(ctx, notifications.PostEventsChannel)
	defer func() { _ = sub.Close() }()
	_, err = sub.Receive(ctx)
	require.NoError(t, err)

	_, app := newTestServer(t, rdb)

	resp := doJSON(t, app, http.MethodPost, "/api/posts", `{"title":"t","content":"c","author":"a"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodePost(t, resp)

	resp = doJSON(t, app, http.MethodDelete, "/api/posts/"+itoa(created.ID), "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	recvCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	var types []string
	for i := 0; i < 2; i++ {
		msg, err := sub.ReceiveMessage(recvCtx)
		require.NoError(t, err)
		var event notifications.PostEvent
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &event))
		assert.Equal(t, created.ID, event.PostID)
		types = append(types, event.Type)
	}
	assert.Equal(t, []string{notifications.EventPostCreated, notifications.EventPostDeleted}, types)
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

func TestShutdown_ClosesResources(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	srv, _ := newTestServer(t, rdb)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, srv.Shutdown(ctx))

	assert.Error(t, database.Ping(ctx, srv.db))
	assert.ErrorIs(t, rdb.Ping(ctx).Err(), redis.ErrClosed)
}

func TestDeleteMissingPost_LeavesTableUnchanged(t *testing.T) {
	_, app := newTestServer(t, nil)

	for _, body := range []string{
		`{"title":"One","content":"c","author":"a"}`,
		`{"title":"Two","content":"c","author":"b"}`,
	} {
		resp := doJSON(t, app, http.MethodPost, "/api/posts", body)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}

	listPosts := func() []models.Post {
		resp := doJSON(t, app, http.MethodGet, "/api/posts", "")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var posts []models.Post
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&posts))
		return posts
	}
	before := listPosts()
	require.Len(t, before, 2)

	resp := doJSON(t, app, http.MethodDelete, "/api/posts/999", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	var body models.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, models.CodeNotFound, body.Code)

	after := listPosts()
	require.Len(t, after, len(before))
	for i := range before {
		assert.Equal(t, before[i].ID, after[i].ID)
		assert.Equal(t, before[i].Title, after[i].Title)
		assert.True(t, before[i].UpdatedAt.Equal(after[i].UpdatedAt))
	}
}
