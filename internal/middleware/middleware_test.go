package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/haierkeys/fast-note-service/internal/domain"
	"github.com/haierkeys/fast-note-service/pkg/app"
	"github.com/haierkeys/fast-note-service/pkg/code"
	"github.com/haierkeys/fast-note-service/pkg/limiter"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeVerifier struct {
	known map[int64]bool
	calls atomic.Int32
}

func (f *fakeVerifier) Verify(ctx context.Context, uid int64) (*domain.User, error) {
	f.calls.Add(1)
	if !f.known[uid] {
		return nil, code.ErrorInvalidUserAuthToken
	}
	return &domain.User{UID: uid}, nil
}

func decode(t *testing.T, w *httptest.ResponseRecorder) app.Res {
	t.Helper()
	var res app.Res
	require.NoError(t, sonic.Unmarshal(w.Body.Bytes(), &res))
	return res
}

func authRouter(tm app.TokenManager, v UserVerifier) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Lang(nil))
	r.GET("/me", UserAuthToken(tm, v), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"uid": app.GetUID(c)})
	})
	return r
}

func TestUserAuthToken(t *testing.T) {
	tm := app.NewTokenManager(app.TokenConfig{SecretKey: "mw-secret"})
	v := &fakeVerifier{known: map[int64]bool{7: true}}
	r := authRouter(tm, v)

	good, err := tm.Generate(7)
	require.NoError(t, err)
	ghost, err := tm.Generate(8)
	require.NoError(t, err)

	tests := []struct {
		name    string
		header  string
		status  int
		message string
	}{
		{"missing header", "", http.StatusUnauthorized, "No token provided, authorization denied"},
		{"wrong scheme", "Basic " + good, http.StatusUnauthorized, "No token provided, authorization denied"},
		{"no scheme", good, http.StatusUnauthorized, "No token provided, authorization denied"},
		{"garbage token", "Bearer abc", http.StatusUnauthorized, "Token is not valid"},
		{"user gone", "Bearer " + ghost, http.StatusUnauthorized, "Token is not valid"},
		{"valid", "Bearer " + good, http.StatusOK, ""},
		{"lower case scheme", "bearer " + good, http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			if tt.message != "" {
				res := decode(t, w)
				assert.False(t, res.Status)
				assert.Equal(t, tt.message, res.Message)
			} else {
				assert.JSONEq(t, `{"uid":7}`, w.Body.String())
			}
		})
	}
}

func TestUserAuthToken_ExpiredToken(t *testing.T) {
	tm := app.NewTokenManager(app.TokenConfig{SecretKey: "k", Expiry: time.Millisecond})
	r := authRouter(tm, nil)

	token, err := tm.Generate(1)
	require.NoError(t, err)
	time.Sleep(1100 * time.Millisecond)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLang(t *testing.T) {
	assert.Equal(t, "zh_cn", normalizeLang("zh-CN,zh;q=0.9"))
	assert.Equal(t, "en", normalizeLang("en-US"))
	assert.Equal(t, "en", normalizeLang("fr"))
	assert.Equal(t, "en", normalizeLang(""))

	tm := app.NewTokenManager(app.TokenConfig{SecretKey: "k"})
	r := authRouter(tm, nil)
	req := httptest.NewRequest(http.MethodGet, "/me?lang=zh-CN", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "未提供令牌，拒绝访问", decode(t, w).Message)
}

func TestTracer(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Tracer(""))
	var fromCtx, fromGin string
	r.GET("/x", func(c *gin.Context) {
		fromCtx = GetTraceID(c.Request.Context())
		fromGin = GetTraceIDFromGin(c)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.NotEmpty(t, fromCtx)
	assert.Equal(t, fromCtx, fromGin)
	assert.Equal(t, fromCtx, w.Header().Get(DefaultTraceIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(DefaultTraceIDHeader, "given-id")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "given-id", fromGin)
}

func TestRateLimiter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	l := limiter.NewIPLimiter(limiter.BucketRule{FillInterval: time.Hour, Capacity: 2, Quantum: 1})
	r := gin.New()
	r.Use(RateLimiter("test", l))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{200, 200, 429}, codes)
}

func TestRecovery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RecoveryWithLogger(zap.NewNop()))
	r.GET("/boom", func(c *gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	res := decode(t, w)
	assert.Equal(t, code.ErrorServerInternal.Code(), res.Code)
	assert.Nil(t, res.Details)
}

func TestNoFoundAndTimeout(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(ContextTimeout(50 * time.Millisecond))
	r.NoRoute(NoFound())
	var hasDeadline bool
	r.GET("/x", func(c *gin.Context) {
		_, hasDeadline = c.Request.Context().Deadline()
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/missing", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "GET /missing", decode(t, w).Details)

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.True(t, hasDeadline)
}

// blockingVerifier holds every lookup until release is closed and fails like a
// database driver when its context is already cancelled.
type blockingVerifier struct {
	started chan struct{}
	release chan struct{}
	once    sync.Once
	calls   atomic.Int32
}

func (b *blockingVerifier) Verify(ctx context.Context, uid int64) (*domain.User, error) {
	b.calls.Add(1)
	b.once.Do(func() { close(b.started) })
	<-b.release
	if err := ctx.Err(); err != nil {
		return nil, code.ErrorDBQuery.WithDetails(err.Error())
	}
	return &domain.User{UID: uid, Username: "shared", Password: "$2a$hash"}, nil
}

func TestUserAuthToken_CancelledLeaderDoesNotFailFollower(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tm := app.NewTokenManager(app.TokenConfig{SecretKey: "sf-secret"})
	v := &blockingVerifier{started: make(chan struct{}), release: make(chan struct{})}

	r := gin.New()
	r.GET("/me", UserAuthToken(tm, v), func(c *gin.Context) {
		user := GetUser(c)
		c.JSON(http.StatusOK, gin.H{"uid": user.UID, "username": user.Username, "password": user.Password})
	})

	token, err := tm.Generate(7)
	require.NoError(t, err)
	newReq := func(ctx context.Context) *http.Request {
		req := httptest.NewRequest(http.MethodGet, "/me", nil).WithContext(ctx)
		req.Header.Set("Authorization", "Bearer "+token)
		return req
	}

	leaderCtx, cancelLeader := context.WithCancel(context.Background())
	leaderW := httptest.NewRecorder()
	leaderDone := make(chan struct{})
	go func() {
		defer close(leaderDone)
		r.ServeHTTP(leaderW, newReq(leaderCtx))
	}()
	<-v.started

	followerW := httptest.NewRecorder()
	followerDone := make(chan struct{})
	go func() {
		defer close(followerDone)
		r.ServeHTTP(followerW, newReq(context.Background()))
	}()
	// 等待第二个请求加入同一次查询
	time.Sleep(100 * time.Millisecond)

	cancelLeader()
	<-leaderDone
	assert.Equal(t, http.StatusServiceUnavailable, leaderW.Code)

	close(v.release)
	<-followerDone
	assert.Equal(t, http.StatusOK, followerW.Code, followerW.Body.String())
	assert.JSONEq(t, `{"uid":7,"username":"shared","password":""}`, followerW.Body.String())
	assert.Equal(t, int32(1), v.calls.Load())
}

func TestUserAuthToken_AttachesUserWithoutPassword(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tm := app.NewTokenManager(app.TokenConfig{SecretKey: "attach"})
	v := &blockingVerifier{started: make(chan struct{}), release: make(chan struct{})}
	close(v.release)

	var seen *domain.User
	r := gin.New()
	r.GET("/me", UserAuthToken(tm, v), func(c *gin.Context) {
		seen = GetUser(c)
		c.Status(http.StatusOK)
	})

	token, err := tm.Generate(9)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, seen)
	assert.Equal(t, int64(9), seen.UID)
	assert.Empty(t, seen.Password)
}
