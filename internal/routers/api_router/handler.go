// Package api_router 提供 HTTP API 路由处理器
package api_router

import (
	"context"

	"github.com/haierkeys/fast-note-service/internal/app"
	"github.com/haierkeys/fast-note-service/internal/middleware"
	pkgapp "github.com/haierkeys/fast-note-service/pkg/app"
	"github.com/haierkeys/fast-note-service/pkg/code"
	"github.com/haierkeys/fast-note-service/pkg/convert"
	apperrors "github.com/haierkeys/fast-note-service/pkg/errors"
	"github.com/haierkeys/fast-note-service/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler 基础 Handler 结构体，封装 App Container
// 所有 API Handler 都应该嵌入此结构体以获得依赖注入能力
type Handler struct {
	App *app.App
}

// NewHandler 创建基础 Handler 实例
func NewHandler(a *app.App) *Handler {
	return &Handler{App: a}
}

// logError 记录业务错误，4xx 为预期结果只记 debug
func (h *Handler) logError(ctx context.Context, method string, err error) {
	level := h.App.Logger().Error
	if c, ok := err.(*code.Code); ok && c.StatusCode() < 500 {
		level = h.App.Logger().Debug
	}
	level(method,
		zap.Error(err),
		zap.String(logger.FieldTraceID, middleware.GetTraceID(ctx)),
	)
}

// bind 参数绑定和验证，失败时直接写入 400 响应
func (h *Handler) bind(c *gin.Context, method string, params interface{}) bool {
	valid, errs := pkgapp.BindAndValid(c, params)
	if !valid {
		h.App.Logger().Debug(method+".BindAndValid errs", zap.Error(errs))
		pkgapp.NewResponse(c).ToResponse(code.ErrorInvalidParams.WithDetails(errs.Errors()...).WithData(errs.MapsToString()))
		return false
	}
	return true
}

// pathID 解析路径中的 :id
func (h *Handler) pathID(c *gin.Context) (int64, bool) {
	id, err := convert.StrTo(c.Param("id")).Int64()
	if err != nil || id <= 0 {
		apperrors.ErrorResponse(c, code.ErrorInvalidParams.WithDetails("id must be a positive integer"))
		return 0, false
	}
	return id, true
}

// uid 认证中间件解析出的当前用户
func (h *Handler) uid(c *gin.Context) (int64, bool) {
	user := middleware.GetUser(c)
	if user == nil || user.UID == 0 {
		pkgapp.NewResponse(c).ToResponse(code.ErrorInvalidUserAuthToken)
		return 0, false
	}
	return user.UID, true
}
