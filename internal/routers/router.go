package routers

import (
	"github.com/haierkeys/fast-note-service/internal/app"
	"github.com/haierkeys/fast-note-service/internal/middleware"
	"github.com/haierkeys/fast-note-service/internal/routers/api_router"
	"github.com/haierkeys/fast-note-service/pkg/limiter"

	"github.com/gin-gonic/gin"
	ut "github.com/go-playground/universal-translator"
)

// NewRouter 创建公开 API 路由
func NewRouter(appContainer *app.App, uni *ut.UniversalTranslator) *gin.Engine {
	cfg := appContainer.Config()
	lg := appContainer.Logger()

	r := gin.New()
	r.Use(middleware.Tracer(cfg.Tracer.Header))
	r.Use(middleware.Metrics())
	r.Use(middleware.AccessLog(lg))
	r.Use(middleware.RecoveryWithLogger(lg))
	r.Use(middleware.Lang(uni))
	if cfg.Limiter.Enabled {
		r.Use(middleware.RateLimiter("ip", appContainer.IPLimiter))
	}

	userHandler := api_router.NewUserHandler(appContainer)
	noteHandler := api_router.NewNoteHandler(appContainer)
	folderHandler := api_router.NewFolderHandler(appContainer)
	tagHandler := api_router.NewTagHandler(appContainer)
	healthHandler := api_router.NewHealthHandler(appContainer)

	authGate := middleware.UserAuthToken(appContainer.TokenManager, appContainer.UserService)

	api := r.Group("/api")

	// 实时通道，长连接不套用请求超时
	api.GET("/ws", appContainer.Hub.Run())

	api.Use(middleware.ContextTimeout(cfg.GetContextTimeout()))
	api.GET("/health", healthHandler.Check)

	auth := api.Group("/auth")
	{
		auth.Use(middleware.RateLimiter("auth", limiter.NewMethodLimiter().AddBuckets(cfg.GetAuthLimiterRule())))
		auth.POST("/signup", middleware.ActivityLog(lg, "user.signup"), userHandler.Signup)
		auth.POST("/login", middleware.ActivityLog(lg, "user.login"), userHandler.Login)
		auth.GET("/profile", authGate, userHandler.Profile)
	}

	notes := api.Group("/notes", authGate, middleware.ActivityLog(lg, "note"))
	{
		notes.GET("", noteHandler.List)
		notes.POST("", noteHandler.Create)
		notes.GET("/:id", noteHandler.Get)
		notes.PUT("/:id", noteHandler.Update)
		notes.DELETE("/:id", noteHandler.Delete)
		notes.GET("/:id/history", noteHandler.History)
		notes.GET("/:id/export", noteHandler.Export)
	}

	folders := api.Group("/folders", authGate, middleware.ActivityLog(lg, "folder"))
	{
		folders.GET("", folderHandler.List)
		folders.POST("", folderHandler.Create)
		folders.GET("/:id", folderHandler.Get)
		folders.PUT("/:id", folderHandler.Update)
		folders.DELETE("/:id", folderHandler.Delete)
	}

	tags := api.Group("/tags", authGate, middleware.ActivityLog(lg, "tag"))
	{
		tags.GET("", tagHandler.List)
		tags.POST("", tagHandler.Create)
		tags.GET("/:id", tagHandler.Get)
		tags.PUT("/:id", tagHandler.Update)
		tags.DELETE("/:id", tagHandler.Delete)
	}

	r.NoRoute(middleware.NoFound())

	return r
}
