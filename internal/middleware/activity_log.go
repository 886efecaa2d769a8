package middleware

import (
	"net/http"

	"github.com/haierkeys/fast-note-service/pkg/app"
	"github.com/haierkeys/fast-note-service/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ActivityLog records who changed what. Reads are left to the access log.
// ActivityLog 记录写操作
func ActivityLog(lg *zap.Logger, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			return
		}

		lg.Info("activity",
			zap.String(logger.FieldAction, action),
			zap.Int64(logger.FieldUID, app.GetUID(c)),
			zap.String(logger.FieldMethod, c.Request.Method),
			zap.String(logger.FieldPath, c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.String(logger.FieldTraceID, GetTraceIDFromGin(c)),
		)
	}
}
