package errors

import (
	"errors"
	"net/http"
	"time"

	"github.com/haierkeys/fast-note-service/internal/middleware"
	"github.com/haierkeys/fast-note-service/pkg/code"

	"github.com/gin-gonic/gin"
)

// AppError 统一错误响应体
// 包含错误码、消息、详情、追踪ID和时间戳
type AppError struct {
	// Code 错误码
	Code int `json:"code"`
	// Status 固定为 false
	Status bool `json:"status"`
	// Message 错误消息
	Message string `json:"message"`
	// Details 错误详情（可选）
	Details []string `json:"details,omitempty"`
	// Data 附加数据（可选）
	Data interface{} `json:"data,omitempty"`
	// TraceID 请求追踪ID
	TraceID string `json:"traceId,omitempty"`
	// Timestamp 错误发生时间
	Timestamp time.Time `json:"timestamp"`
}

// ErrorResponse 统一错误响应处理
// 从 gin.Context 获取 TraceID 与语言，Code 错误按其状态码输出，其余错误一律 500
func ErrorResponse(c *gin.Context, err error) {
	traceID := middleware.GetTraceIDFromGin(c)
	language := middleware.GetLangFromGin(c)

	var codeErr *code.Code
	if errors.As(err, &codeErr) {
		c.JSON(codeErr.StatusCode(), &AppError{
			Code:      codeErr.Code(),
			Message:   codeErr.Lang.GetMessageFor(language),
			Details:   codeErr.Details(),
			Data:      codeErr.Data(),
			TraceID:   traceID,
			Timestamp: time.Now(),
		})
		return
	}

	// 未知错误，返回内部错误
	c.JSON(http.StatusInternalServerError, &AppError{
		Code:      code.ErrorServerInternal.Code(),
		Message:   code.ErrorServerInternal.Lang.GetMessageFor(language),
		TraceID:   traceID,
		Timestamp: time.Now(),
	})
}
