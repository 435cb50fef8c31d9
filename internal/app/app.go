package app

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"testria_backend/internal/config"
	"testria_backend/internal/controller"
	"testria_backend/internal/middleware"
	"testria_backend/internal/repository"
	"testria_backend/internal/service"
	"testria_backend/internal/util"
	"testria_backend/pkg/configwatcher"
	"testria_backend/pkg/database"
	"testria_backend/pkg/logger"
	"testria_backend/pkg/monitoring"
	"testria_backend/pkg/security"
	"testria_backend/pkg/taskqueue"
	"testria_backend/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/robfig/cron/v3"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type App struct {
	Config          *config.Config
	ConfigDir       string
	Router          *gin.Engine
	DB              *gorm.DB
	Redis           *redis.Client
	Queue           *taskqueue.Queue
	cron            *cron.Cron
	ctx             context.Context
	cancel          context.CancelFunc
	userLimiter     *security.RateLimiter
	tracer          *sdktrace.TracerProvider
	services        *services
	configCallbacks []func(*config.Config)
}

type repositories struct {
	user        *repository.UserRepository
	follow      *repository.FollowRepository
	folder      *repository.FolderRepository
	set         *repository.SetRepository
	question    *repository.QuestionRepository
	testSession *repository.TestSessionRepository
}

type services struct {
	auth        *service.AuthService
	storage     *service.StorageService
	mail        *service.MailService
	user        *service.UserService
	follow      *service.FollowService
	folder      *service.FolderService
	set         *service.SetService
	question    *service.QuestionService
	testSession *service.TestSessionService
}

type controllers struct {
	auth     *controller.AuthController
	user     *controller.UserController
	folder   *controller.FolderController
	set      *controller.SetController
	question *controller.QuestionController
	test     *controller.TestController
	health   *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

func (a *App) initRepositories(db *gorm.DB, rdb *redis.Client) *repositories {
	return &repositories{
		user:        repository.NewUserRepository(db),
		follow:      repository.NewFollowRepository(db, rdb),
		folder:      repository.NewFolderRepository(db),
		set:         repository.NewSetRepository(db),
		question:    repository.NewQuestionRepository(db),
		testSession: repository.NewTestSessionRepository(db),
	}
}

func (a *App) initQueue(cfg *config.Config, rdb *redis.Client) *taskqueue.Queue {
	var backend taskqueue.Backend
	if rdb != nil {
		backend = taskqueue.NewRedisBackend(rdb, cfg.Queue.Name)
	} else {
		logger.Log.Warn("Redis disabled, background tasks use the in-memory queue")
		backend = taskqueue.NewMemoryBackend(256)
	}
	return taskqueue.New(backend, taskqueue.Options{
		Workers:     cfg.Queue.Workers,
		MaxAttempts: cfg.Queue.MaxAttempts,
	})
}

func (a *App) initServices(repos *repositories, cfg *config.Config, queue *taskqueue.Queue) *services {
	s := &services{}

	s.storage = service.NewStorageService(cfg)
	s.mail = service.NewMailService(repos.user, service.NewMailSender(&cfg.Mail), cfg)
	s.mail.Register(queue)

	s.auth = service.NewAuthService(repos.user, queue, cfg)
	s.user = service.NewUserService(repos.user, repos.follow, s.storage)
	s.follow = service.NewFollowService(repos.follow, repos.user)
	s.folder = service.NewFolderService(repos.folder, repos.set, s.storage)
	s.set = service.NewSetService(repos.set, repos.folder, repos.question, s.storage)
	s.question = service.NewQuestionService(repos.question, repos.set, s.storage)
	s.testSession = service.NewTestSessionService(repos.testSession, repos.question, repos.set)

	return s
}

func (a *App) initControllers(s *services, db *gorm.DB, rdb *redis.Client) *controllers {
	return &controllers{
		auth:     controller.NewAuthController(s.auth),
		user:     controller.NewUserController(s.user, s.follow),
		folder:   controller.NewFolderController(s.folder, s.set),
		set:      controller.NewSetController(s.set),
		question: controller.NewQuestionController(s.question),
		test:     controller.NewTestController(s.testSession),
		health:   controller.NewHealthController(db, rdb),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger())
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())
	window := time.Duration(cfg.RateLimit.WindowMinutes) * time.Minute
	router.Use(security.NewRateLimiter(a.ctx, cfg.RateLimit.MaxRequests, window).Middleware(security.ClientIP))
	// 会话接口在鉴权之后按用户限流
	a.userLimiter = security.NewRateLimiter(a.ctx, cfg.RateLimit.UserMaxRequests, window)

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

// build 在数据库和 Redis 就绪后装配各层并注册路由
func (a *App) build() {
	cfg := a.Config
	// 后台协程（限流回收、任务消费、定时任务）随 a.ctx 结束
	a.ctx, a.cancel = context.WithCancel(context.Background())
	a.Queue = a.initQueue(cfg, a.Redis)

	repos := a.initRepositories(a.DB, a.Redis)
	a.services = a.initServices(repos, cfg, a.Queue)
	controllers := a.initControllers(a.services, a.DB, a.Redis)

	// 监控初始化
	monitoring.Init()

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	a.Router = router

	a.setupMiddlewares(router, cfg)
	a.registerRoutes(router, controllers, cfg)
	router.NoRoute(util.NotFound)

	if cfg.Storage.Type == util.StorageLocal {
		router.Static("/uploads", cfg.Storage.LocalPath)
	}

	a.RegisterConfigCallback(logger.ApplyConfig)
}

func gormLogLevel(mode string) gormlogger.LogLevel {
	if mode == "debug" {
		return gormlogger.Info
	}
	return gormlogger.Warn
}

func NewApp(cfg *config.Config, configDir string) *App {
	logger.InitLogger(cfg)
	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(&cfg.Database, gormLogLevel(cfg.Server.Mode))
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
	}

	// release 模式默认跳过自动迁移，需显式 -migrate
	if cfg.Server.Mode != "release" || cfg.ForceMigrate {
		if err := database.Migrate(db); err != nil {
			logger.Log.Fatal("Failed to migrate database", zap.Error(err))
		}
	}

	app := &App{
		Config:    cfg,
		ConfigDir: configDir,
		DB:        db,
	}
	if cfg.MigrateOnly {
		return app
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
	}
	app.Redis = rdb

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer(tracing.ServiceName, cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
		app.tracer = tp
	}

	app.build()
	return app
}

func (a *App) reloadConfig(cfg *config.Config) {
	for _, callback := range a.configCallbacks {
		callback(cfg)
	}
}

func (a *App) Run() {
	ctx, cancel := a.ctx, a.cancel
	defer cancel()

	a.Queue.Start(ctx)
	a.startBackgroundJobs(ctx)

	go func() {
		if err := configwatcher.WatchConfig(ctx, a.ConfigDir, a.reloadConfig); err != nil {
			logger.Log.Error("Config watcher stopped", zap.Error(err))
		}
	}()

	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	// 启动服务器
	go func() {
		logger.Log.Info("Server running", zap.String("port", a.Config.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal("listen failed", zap.Error(err))
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error("Server forced to shutdown", zap.Error(err))
	}

	// 停止定时任务和后台任务消费者
	if a.cron != nil {
		<-a.cron.Stop().Done()
	}
	cancel()
	a.Queue.Stop()

	if a.tracer != nil {
		if err := a.tracer.Shutdown(shutdownCtx); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}
	if a.Redis != nil {
		a.Redis.Close()
	}

	logger.Log.Info("Server exiting")
}
