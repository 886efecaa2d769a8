package routers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/haierkeys/fast-note-service/internal/app"
	"github.com/haierkeys/fast-note-service/internal/dao"
	"github.com/haierkeys/fast-note-service/pkg/logger"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type envelope struct {
	Code    int             `json:"code"`
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type testServer struct {
	t *testing.T
	r *gin.Engine
	a *app.App
}

func newTestServer(t *testing.T, mutate func(*app.AppConfig)) *testServer {
	t.Helper()
	return newTestServerWithLogger(t, mutate, zap.NewNop())
}

func newTestServerWithLogger(t *testing.T, mutate func(*app.AppConfig), lg *zap.Logger) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg, err := app.ParseConfig([]byte(""))
	require.NoError(t, err)
	cfg.Database.Type = dao.TypeSQLite
	cfg.Database.Path = ":memory:"
	cfg.Limiter.Enabled = false
	if mutate != nil {
		mutate(cfg)
	}

	db, err := dao.NewDBEngine(cfg.Database)
	require.NoError(t, err)

	a, err := app.NewApp(cfg, lg, db)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Shutdown(context.Background()) })

	return &testServer{t: t, r: NewRouter(a, nil), a: a}
}

func (s *testServer) do(method, path, token string, body any) *httptest.ResponseRecorder {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		b, err := sonic.Marshal(body)
		require.NoError(s.t, err)
		buf.Write(b)
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.r.ServeHTTP(w, req)
	return w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder, data any) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, sonic.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	if data != nil {
		require.NoError(t, sonic.Unmarshal(env.Data, data))
	}
	return env
}

func (s *testServer) signup(name string) string {
	s.t.Helper()
	w := s.do(http.MethodPost, "/api/auth/signup", "", map[string]string{
		"username": name,
		"email":    name + "@example.com",
		"password": "secret-123",
	})
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())
	var auth struct {
		Token string `json:"token"`
	}
	decodeEnvelope(s.t, w, &auth)
	require.NotEmpty(s.t, auth.Token)
	return auth.Token
}

type noteBody struct {
	ID       int64  `json:"id"`
	Owner    int64  `json:"owner"`
	Title    string `json:"title"`
	Content  string `json:"content"`
	Revision int64  `json:"revision"`
	History  []struct {
		Content string `json:"content"`
	} `json:"history"`
}

func TestRouter_NoteLifecycle(t *testing.T) {
	s := newTestServer(t, nil)
	token := s.signup("alice")

	w := s.do(http.MethodPost, "/api/notes", token, map[string]any{"title": "Shopping", "content": "milk"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var note noteBody
	decodeEnvelope(t, w, &note)
	assert.NotZero(t, note.ID)
	assert.Empty(t, note.History)
	path := "/api/notes/" + strconv.FormatInt(note.ID, 10)

	w = s.do(http.MethodPut, path, token, map[string]any{"content": "milk, eggs"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decodeEnvelope(t, w, &note)
	assert.Equal(t, "milk, eggs", note.Content)
	require.Len(t, note.History, 1)
	assert.Equal(t, "milk", note.History[0].Content)

	// 标题变化不产生历史
	w = s.do(http.MethodPut, path, token, map[string]any{"title": "Groceries"})
	require.Equal(t, http.StatusOK, w.Code)
	decodeEnvelope(t, w, &note)
	assert.Equal(t, "Groceries", note.Title)
	assert.Len(t, note.History, 1)

	w = s.do(http.MethodGet, path+"/history?diff=true", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var history []map[string]any
	decodeEnvelope(t, w, &history)
	require.Len(t, history, 1)
	assert.Contains(t, history[0], "diff")

	w = s.do(http.MethodGet, path+"/export?format=markdown", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "# Groceries\n\nmilk, eggs", w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Disposition"), `filename="Groceries.md"`)

	// 非 ASCII 标题使用 filename* 传递原名
	w = s.do(http.MethodPut, path, token, map[string]any{"title": "购物清单"})
	require.Equal(t, http.StatusOK, w.Code)
	w = s.do(http.MethodGet, path+"/export", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "# 购物清单\n\nmilk, eggs", w.Body.String())
	assert.Equal(t,
		`attachment; filename="____.md"; filename*=UTF-8''%E8%B4%AD%E7%89%A9%E6%B8%85%E5%8D%95.md`,
		w.Header().Get("Content-Disposition"))

	w = s.do(http.MethodGet, path+"/export?format=pdf", token, nil)
	assert.Equal(t, http.StatusNotImplemented, w.Code)

	w = s.do(http.MethodGet, path+"/export?format=docx", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodDelete, path, token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var deleted struct {
		ID int64 `json:"id"`
	}
	decodeEnvelope(t, w, &deleted)
	assert.Equal(t, note.ID, deleted.ID)

	w = s.do(http.MethodGet, path, token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_OwnerIsolation(t *testing.T) {
	s := newTestServer(t, nil)
	alice := s.signup("alice")
	bob := s.signup("bob")

	w := s.do(http.MethodPost, "/api/notes", alice, map[string]any{"title": "private", "content": "x"})
	require.Equal(t, http.StatusCreated, w.Code)
	var note noteBody
	decodeEnvelope(t, w, &note)
	path := "/api/notes/" + strconv.FormatInt(note.ID, 10)

	for _, req := range []struct{ method string }{{http.MethodGet}, {http.MethodPut}, {http.MethodDelete}} {
		var body any
		if req.method == http.MethodPut {
			body = map[string]any{"content": "stolen"}
		}
		w = s.do(req.method, path, bob, body)
		assert.Equal(t, http.StatusNotFound, w.Code, req.method)
	}

	w = s.do(http.MethodGet, "/api/notes", bob, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		List  []noteBody `json:"list"`
		Pager struct {
			TotalRows int `json:"totalRows"`
		} `json:"pager"`
	}
	decodeEnvelope(t, w, &list)
	assert.Empty(t, list.List)
	assert.Zero(t, list.Pager.TotalRows)

	w = s.do(http.MethodGet, path, alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	decodeEnvelope(t, w, &note)
	assert.Equal(t, "x", note.Content)
}

func TestRouter_SearchAndPaging(t *testing.T) {
	s := newTestServer(t, nil)
	token := s.signup("carol")

	for _, n := range []map[string]any{
		{"title": "Meeting notes", "content": "agenda"},
		{"title": "Recipe", "content": "Add the MEETING sauce"},
		{"title": "Other", "content": "nothing"},
	} {
		require.Equal(t, http.StatusCreated, s.do(http.MethodPost, "/api/notes", token, n).Code)
	}

	w := s.do(http.MethodGet, "/api/notes?search=meeting&pageSize=1", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		List  []noteBody `json:"list"`
		Pager struct {
			PageSize  int `json:"pageSize"`
			TotalRows int `json:"totalRows"`
		} `json:"pager"`
	}
	decodeEnvelope(t, w, &list)
	assert.Len(t, list.List, 1)
	assert.Equal(t, 1, list.Pager.PageSize)
	assert.Equal(t, 2, list.Pager.TotalRows)
}

func TestRouter_AuthErrors(t *testing.T) {
	s := newTestServer(t, nil)
	s.signup("dave")

	w := s.do(http.MethodGet, "/api/notes", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	env := decodeEnvelope(t, w, nil)
	assert.Equal(t, "No token provided, authorization denied", env.Message)

	w = s.do(http.MethodGet, "/api/notes", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// 重复邮箱
	w = s.do(http.MethodPost, "/api/auth/signup", "", map[string]string{
		"username": "dave2", "email": "dave@example.com", "password": "secret-123",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "dave@example.com", "password": "wrong-password",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "dave@example.com", "password": "secret-123",
	})
	require.Equal(t, http.StatusOK, w.Code)
	var auth struct {
		Token string `json:"token"`
		User  struct {
			Username string `json:"username"`
		} `json:"user"`
	}
	decodeEnvelope(t, w, &auth)
	assert.Equal(t, "dave", auth.User.Username)

	w = s.do(http.MethodGet, "/api/auth/profile", auth.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "password")
}

func TestRouter_ValidationAndBadID(t *testing.T) {
	s := newTestServer(t, nil)
	token := s.signup("erin")

	w := s.do(http.MethodPost, "/api/notes", token, map[string]any{"title": "missing content"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodGet, "/api/notes/abc", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, "/api/notes", token, map[string]any{"title": "t", "content": "c", "folder": 999})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_FoldersAndTags(t *testing.T) {
	s := newTestServer(t, nil)
	token := s.signup("frank")

	w := s.do(http.MethodPost, "/api/folders", token, map[string]string{"name": "Work"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var folder struct {
		ID int64 `json:"id"`
	}
	decodeEnvelope(t, w, &folder)

	w = s.do(http.MethodPost, "/api/tags", token, map[string]string{"name": "urgent"})
	require.Equal(t, http.StatusCreated, w.Code)
	var tag struct {
		ID int64 `json:"id"`
	}
	decodeEnvelope(t, w, &tag)

	w = s.do(http.MethodPost, "/api/tags", token, map[string]string{"name": "urgent"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(http.MethodPost, "/api/notes", token, map[string]any{
		"title": "filed", "content": "c", "folder": folder.ID, "tags": []int64{tag.ID},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.do(http.MethodGet, "/api/notes?tag="+strconv.FormatInt(tag.ID, 10), token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		List []noteBody `json:"list"`
	}
	decodeEnvelope(t, w, &list)
	assert.Len(t, list.List, 1)

	w = s.do(http.MethodGet, "/api/folders", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(http.MethodDelete, "/api/folders/"+strconv.FormatInt(folder.ID, 10), token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = s.do(http.MethodGet, "/api/folders/"+strconv.FormatInt(folder.ID, 10), token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_HealthAndNoRoute(t *testing.T) {
	s := newTestServer(t, nil)

	w := s.do(http.MethodGet, "/api/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var health struct {
		Status    string    `json:"status"`
		Database  string    `json:"database"`
		StartTime time.Time `json:"startTime"`
		Uptime    float64   `json:"uptime"`
		Runtime   struct {
			NumGoroutine int `json:"numGoroutine"`
		} `json:"runtime"`
		Notify struct {
			MaxWorkers    int  `json:"maxWorkers"`
			QueueCapacity int  `json:"queueCapacity"`
			IsClosed      bool `json:"isClosed"`
		} `json:"notify"`
		WriteQueue struct {
			QueueCapacity int `json:"queueCapacity"`
		} `json:"writeQueue"`
	}
	decodeEnvelope(t, w, &health)
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, "connected", health.Database)
	assert.True(t, health.StartTime.Equal(s.a.StartTime))
	assert.GreaterOrEqual(t, health.Uptime, 0.0)
	assert.Positive(t, health.Runtime.NumGoroutine)
	assert.Equal(t, 1, health.Notify.MaxWorkers)
	assert.Equal(t, 1024, health.Notify.QueueCapacity)
	assert.False(t, health.Notify.IsClosed)
	assert.Equal(t, 100, health.WriteQueue.QueueCapacity)

	w = s.do(http.MethodGet, "/api/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_HealthWhileShuttingDown(t *testing.T) {
	s := newTestServer(t, nil)
	require.NoError(t, s.a.Shutdown(context.Background()))

	w := s.do(http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	var health struct {
		Status string `json:"status"`
		Notify struct {
			IsClosed bool `json:"isClosed"`
		} `json:"notify"`
	}
	decodeEnvelope(t, w, &health)
	assert.Equal(t, "shutting_down", health.Status)
	assert.True(t, health.Notify.IsClosed)
}

func TestRouter_AuthRateLimit(t *testing.T) {
	s := newTestServer(t, func(c *app.AppConfig) {
		c.Limiter.AuthCapacity = 2
		c.Limiter.AuthFillInterval = "1h"
	})

	body := map[string]string{"email": "nobody@example.com", "password": "x"}
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodPost, "/api/auth/login", "", body).Code)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodPost, "/api/auth/login", "", body).Code)
	assert.Equal(t, http.StatusTooManyRequests, s.do(http.MethodPost, "/api/auth/login", "", body).Code)
}

func TestPrivateRouter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := NewPrivateRouter("release", zap.NewNop())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/debug/pprof/", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_AuthActivityLog(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	s := newTestServerWithLogger(t, nil, zap.New(core))
	s.signup("dave")

	body := map[string]string{"email": "dave@example.com", "password": "wrong-password"}
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodPost, "/api/auth/login", "", body).Code)

	var actions []string
	var loginStatus int64
	for _, e := range logs.FilterMessage("activity").All() {
		action := e.ContextMap()[logger.FieldAction].(string)
		actions = append(actions, action)
		if action == "user.login" {
			loginStatus = e.ContextMap()["status"].(int64)
		}
	}
	assert.Contains(t, actions, "user.signup")
	assert.Contains(t, actions, "user.login")
	assert.Equal(t, int64(http.StatusBadRequest), loginStatus)
}
