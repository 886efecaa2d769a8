package api_router

import (
	"github.com/haierkeys/fast-note-service/internal/app"
	"github.com/haierkeys/fast-note-service/internal/dto"
	pkgapp "github.com/haierkeys/fast-note-service/pkg/app"
	"github.com/haierkeys/fast-note-service/pkg/code"
	apperrors "github.com/haierkeys/fast-note-service/pkg/errors"

	"github.com/gin-gonic/gin"
)

// UserHandler user API router handler
// UserHandler 用户 API 路由处理器
type UserHandler struct {
	*Handler
}

// NewUserHandler creates UserHandler instance
// NewUserHandler 创建 UserHandler 实例
func NewUserHandler(a *app.App) *UserHandler {
	return &UserHandler{
		Handler: NewHandler(a),
	}
}

// Signup registers a user and returns a token.
// POST /api/auth/signup
func (h *UserHandler) Signup(c *gin.Context) {
	params := &dto.UserSignupRequest{}
	if !h.bind(c, "UserHandler.Signup", params) {
		return
	}

	ctx := c.Request.Context()
	auth, err := h.App.UserService.Signup(ctx, params)
	if err != nil {
		h.logError(ctx, "UserHandler.Signup", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	pkgapp.NewResponse(c).ToResponse(code.Created.WithData(auth))
}

// Login user login
// POST /api/auth/login
func (h *UserHandler) Login(c *gin.Context) {
	params := &dto.UserLoginRequest{}
	if !h.bind(c, "UserHandler.Login", params) {
		return
	}

	ctx := c.Request.Context()
	auth, err := h.App.UserService.Login(ctx, params)
	if err != nil {
		h.logError(ctx, "UserHandler.Login", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	pkgapp.NewResponse(c).ToResponse(code.Success.WithData(auth))
}

// Profile 当前用户信息（不含密码）
// GET /api/auth/profile
func (h *UserHandler) Profile(c *gin.Context) {
	uid, ok := h.uid(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	user, err := h.App.UserService.Profile(ctx, uid)
	if err != nil {
		h.logError(ctx, "UserHandler.Profile", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	pkgapp.NewResponse(c).ToResponse(code.Success.WithData(user))
}
