package main

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/attendance-tracker-api/api/swagger"
	"github.com/noah-isme/attendance-tracker-api/internal/handler"
	"github.com/noah-isme/attendance-tracker-api/internal/middleware"
	"github.com/noah-isme/attendance-tracker-api/internal/service"
	"github.com/noah-isme/attendance-tracker-api/pkg/config"
	"github.com/noah-isme/attendance-tracker-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/attendance-tracker-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/attendance-tracker-api/pkg/middleware/requestid"
)

type routerDeps struct {
	auth     middleware.Authenticator
	metrics  *service.MetricsService
	authH    *handler.AuthHandler
	groupH   *handler.GroupHandler
	studentH *handler.StudentHandler
	attendH  *handler.AttendanceHandler
	metricsH *handler.MetricsHandler
}

func newRouter(cfg *config.Config, logr *zap.Logger, deps routerDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(deps.metrics))
	r.MaxMultipartMemory = cfg.Import.MaxFileSizeBytes

	r.GET("/health", deps.metricsH.Health)
	r.GET("/ready", deps.metricsH.Ready)
	r.GET("/metrics", deps.metricsH.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	cookie := cfg.Session.CookieName
	auth := r.Group("/auth")
	auth.POST("/register", deps.authH.Register)
	auth.POST("/login", deps.authH.Login)
	auth.POST("/logout", middleware.OptionalSession(deps.auth, cookie), deps.authH.Logout)
	auth.GET("/me", middleware.Session(deps.auth, cookie), deps.authH.Me)

	private := r.Group("/", middleware.Session(deps.auth, cookie))

	groups := private.Group("/groups")
	groups.GET("", deps.groupH.List)
	groups.POST("/create", deps.groupH.Create)
	groups.POST("/delete/:id", deps.groupH.Delete)
	groups.GET("/:id", deps.groupH.Dashboard)

	students := private.Group("/students")
	students.GET("", deps.studentH.List)
	students.GET("/add", deps.studentH.AddForm)
	students.POST("/add", deps.studentH.Create)
	students.GET("/import", deps.studentH.ImportForm)
	students.POST("/import", deps.studentH.Import)
	students.GET("/edit/:id", deps.studentH.EditForm)
	students.POST("/edit/:id", deps.studentH.Update)
	students.POST("/delete/:id", deps.studentH.Delete)
	students.GET("/api/:id", deps.studentH.Get)

	attendance := private.Group("/attendance")
	attendance.GET("/mark", deps.attendH.MarkingPage)
	attendance.POST("/mark", deps.attendH.Mark)
	attendance.GET("/view", deps.attendH.View)
	attendance.GET("/export", deps.attendH.Export)
	attendance.POST("/update/:id", deps.attendH.Update)
	attendance.POST("/delete/:id", deps.attendH.Delete)
	attendance.GET("/stats", deps.attendH.Stats)

	return r
}
