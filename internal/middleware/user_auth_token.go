package middleware

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/haierkeys/fast-note-service/internal/domain"
	"github.com/haierkeys/fast-note-service/pkg/app"
	"github.com/haierkeys/fast-note-service/pkg/code"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/singleflight"
)

// UserVerifier confirms that the user behind a valid token still exists.
type UserVerifier interface {
	Verify(ctx context.Context, uid int64) (*domain.User, error)
}

// bearerToken 从 Authorization 头读取 Bearer 令牌
func bearerToken(c *gin.Context) string {
	header := strings.TrimSpace(c.GetHeader("Authorization"))
	if header == "" {
		return ""
	}
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// UserKey gin context key holding the resolved *domain.User, password cleared
const UserKey = "user"

// GetUser returns the user attached by UserAuthToken, nil before the gate.
func GetUser(c *gin.Context) *domain.User {
	if v, ok := c.Get(UserKey); ok {
		if user, ok := v.(*domain.User); ok {
			return user
		}
	}
	return nil
}

// UserAuthToken is the auth gate: it requires "Authorization: Bearer <token>", verifies the
// token and loads the user. Concurrent requests of the same user share one lookup; the lookup
// is detached from any single request's cancellation and each caller waits on its own context.
// UserAuthToken 用户 Token 认证中间件
func UserAuthToken(tm app.TokenManager, verifier UserVerifier) gin.HandlerFunc {
	var group singleflight.Group

	return func(c *gin.Context) {
		response := app.NewResponse(c)

		token := bearerToken(c)
		if token == "" {
			response.ToResponse(code.ErrorNotUserAuthToken)
			c.Abort()
			return
		}

		claims, err := tm.Parse(token)
		if err != nil {
			response.ToResponse(code.ErrorInvalidUserAuthToken)
			c.Abort()
			return
		}

		if verifier != nil {
			ctx := c.Request.Context()
			lookup := context.WithoutCancel(ctx)
			ch := group.DoChan(strconv.FormatInt(claims.UID, 10), func() (interface{}, error) {
				return verifier.Verify(lookup, claims.UID)
			})

			var res singleflight.Result
			select {
			case res = <-ch:
			case <-ctx.Done():
				// 客户端已断开或请求超时
				response.ToResponse(code.ErrorServerBusy)
				c.Abort()
				return
			}

			user, _ := res.Val.(*domain.User)
			if res.Err != nil || user == nil {
				var codeErr *code.Code
				if errors.As(res.Err, &codeErr) {
					response.ToResponse(codeErr)
				} else {
					response.ToResponse(code.ErrorInvalidUserAuthToken)
				}
				c.Abort()
				return
			}

			// 共享结果按请求复制
			resolved := *user
			resolved.Password = ""
			c.Set(UserKey, &resolved)
		}

		c.Set(app.UserTokenKey, claims)
		c.Next()
	}
}
