package app

import (
	"testria_backend/docs"
	"testria_backend/internal/config"
	"testria_backend/internal/middleware"
	"testria_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 1. 公共路由(无需登录)
	a.registerPublicRoutes(router, c)

	// 2. 需要授权的路由
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg.JWT.Secret))
	{
		a.registerUserRoutes(authGroup, c)
		a.registerContentRoutes(authGroup, c)
		a.registerTestRoutes(authGroup, c)
	}
}

func (a *App) registerPublicRoutes(router *gin.Engine, c *controllers) {
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/register", c.auth.Register)
		public.POST("/login", c.auth.Login)
		public.POST("/token/refresh", c.auth.Refresh)
		public.GET("/users/verification/:uid/:token", c.auth.VerifyEmail)
		public.POST("/password-reset", c.auth.RequestPasswordReset)
		public.POST("/password-reset/confirm", c.auth.ConfirmPasswordReset)
	}
}

func (a *App) registerUserRoutes(rg *gin.RouterGroup, c *controllers) {
	rg.GET("/profile", c.user.GetProfile)
	rg.PUT("/profile", c.user.UpdateProfile)
	rg.PUT("/profile/password", c.auth.ChangePassword)
	rg.POST("/profile/photo", c.user.UploadPhoto)
	rg.POST("/users/verification/resend", c.auth.ResendVerification)

	// 关注
	rg.GET("/users/:username", c.user.GetUser)
	rg.POST("/users/:username/follow", c.user.Follow)
	rg.DELETE("/users/:username/follow", c.user.Unfollow)
	rg.GET("/users/:username/followers", c.user.Followers)
	rg.GET("/users/:username/following", c.user.Following)
}

func (a *App) registerContentRoutes(rg *gin.RouterGroup, c *controllers) {
	// 文件夹
	rg.GET("/folders", c.folder.ListFolders)
	rg.POST("/folders", c.folder.CreateFolder)
	rg.GET("/folders/:id", c.folder.GetFolder)
	rg.PUT("/folders/:id", c.folder.UpdateFolder)
	rg.DELETE("/folders/:id", c.folder.DeleteFolder)
	rg.POST("/folders/:id/sets", c.folder.CreateSetInFolder)

	// 合集
	rg.GET("/sets", c.set.ListSets)
	rg.POST("/sets", c.set.CreateSet)
	rg.GET("/sets/:id", c.set.GetSet)
	rg.PUT("/sets/:id", c.set.UpdateSet)
	rg.DELETE("/sets/:id", c.set.DeleteSet)

	// 题目
	rg.GET("/sets/:id/questions", c.question.ListQuestions)
	rg.POST("/sets/:id/questions", c.question.CreateQuestion)
	rg.DELETE("/questions/:id", c.question.DeleteQuestion)
}

func (a *App) registerTestRoutes(rg *gin.RouterGroup, c *controllers) {
	tests := rg.Group("", a.userLimiter.Middleware(middleware.UserRateKey))
	tests.POST("/sets/:id/test/start", c.test.StartTest)
	tests.GET("/test-sessions/:id/question", c.test.CurrentQuestion)
	tests.POST("/test-sessions/:id/answer", c.test.SubmitAnswer)
	tests.GET("/test-sessions/:id/results", c.test.Results)
}
