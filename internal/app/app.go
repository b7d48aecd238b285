package app

import (
	"context"
	"lms_backend/internal/config"
	"lms_backend/internal/controller"
	"lms_backend/internal/repository"
	"lms_backend/internal/service"
	"lms_backend/pkg/configwatcher"
	"lms_backend/pkg/database"
	"lms_backend/pkg/logger"
	"lms_backend/pkg/monitoring"
	"lms_backend/pkg/security"
	"lms_backend/pkg/tracing"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config *config.Config
	Router *gin.Engine
	DB     *gorm.DB
	Redis  *redis.Client

	// ConfigFile 非空时启动配置热更新
	ConfigFile string

	services        *services
	tracer          *sdktrace.TracerProvider
	configCallbacks []configwatcher.ConfigReloader
}

type repositories struct {
	user        *repository.UserRepository
	course      *repository.CourseRepository
	module      *repository.ModuleRepository
	contentItem *repository.ContentItemRepository
	enrollment  *repository.EnrollmentRepository
}

type services struct {
	auth       *service.AuthService
	storage    *service.StorageService
	ownership  *service.OwnershipService
	catalog    *service.CatalogService
	course     *service.CourseService
	enrollment *service.EnrollmentService
	faculty    *service.FacultyService
}

type controllers struct {
	auth       *controller.AuthController
	catalog    *controller.CatalogController
	course     *controller.CourseController
	enrollment *controller.EnrollmentController
	upload     *controller.UploadController
	faculty    *controller.FacultyController
	health     *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback configwatcher.ConfigReloader) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		user:        repository.NewUserRepository(db),
		course:      repository.NewCourseRepository(db),
		module:      repository.NewModuleRepository(db),
		contentItem: repository.NewContentItemRepository(db),
		enrollment:  repository.NewEnrollmentRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, rdb *redis.Client) *services {
	s := &services{}

	s.storage = service.NewStorageService(cfg)
	s.auth = service.NewAuthService(repos.user, service.NewRevocationStore(rdb), cfg)
	s.ownership = service.NewOwnershipService(repos.course, repos.module, repos.contentItem)
	s.catalog = service.NewCatalogService(repos.course, &cfg.Catalog)
	s.course = service.NewCourseService(
		repos.course,
		repos.module,
		repos.contentItem,
		repos.enrollment,
		s.ownership,
		cfg.Catalog.RenumberOnDelete,
	)
	s.enrollment = service.NewEnrollmentService(repos.enrollment, repos.course)
	s.faculty = service.NewFacultyService(repos.user)

	// 热更新：日志级别和删除后是否重排序号
	a.RegisterConfigCallback(func(newCfg *config.Config) {
		logger.SetLevel(newCfg)
	})
	a.RegisterConfigCallback(func(newCfg *config.Config) {
		s.course.SetRenumberOnDelete(newCfg.Catalog.RenumberOnDelete)
	})

	return s
}

func (a *App) initControllers(s *services, db *gorm.DB) *controllers {
	return &controllers{
		auth:       controller.NewAuthController(s.auth),
		catalog:    controller.NewCatalogController(s.catalog),
		course:     controller.NewCourseController(s.course),
		enrollment: controller.NewEnrollmentController(s.enrollment),
		upload:     controller.NewUploadController(s.storage),
		faculty:    controller.NewFacultyController(s.faculty),
		health:     controller.NewHealthController(db, a.Redis),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())

	window := time.Duration(cfg.RateLimit.WindowMinutes) * time.Minute
	if window <= 0 {
		window = time.Minute
	}
	router.Use(security.RateLimiter(cfg.RateLimit.MaxRequests, window))

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

// New 用已建立的连接组装路由，rdb 可以为 nil
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client) *App {
	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
	}

	repos := app.initRepositories(db)
	services := app.initServices(repos, cfg, rdb)
	app.services = services
	controllers := app.initControllers(services, db)

	// 监控初始化
	monitoring.Init()

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	if cfg.Server.Mode == "debug" {
		router.Use(gin.Logger())
	}
	app.Router = router

	app.setupMiddlewares(router, cfg)
	app.registerRoutes(router, controllers, cfg)

	if cfg.Storage.Type == "local" {
		prefix := cfg.Storage.PublicPrefix
		if prefix == "" {
			prefix = "/uploads"
		}
		router.Static(prefix, cfg.Storage.LocalPath)
	}

	return app
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)
	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(cfg)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
	}

	if cfg.MigrateOnly {
		return &App{Config: cfg, DB: db}
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
	}
	if rdb == nil {
		logger.Log.Info("Redis disabled, using in-memory token revocation")
	}

	app := New(cfg, db, rdb)

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer("lms-backend", cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
		app.tracer = tp
	}

	return app
}

func (a *App) startConfigWatcher(ctx context.Context) {
	if a.ConfigFile == "" {
		return
	}
	w := configwatcher.New(a.ConfigFile)
	for _, cb := range a.configCallbacks {
		w.OnReload(cb)
	}
	go func() {
		if err := w.Run(ctx); err != nil {
			logger.Log.Error("Config watcher stopped", zap.Error(err))
		}
	}()
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	watchCtx, stopWatch := context.WithCancel(context.Background())
	defer stopWatch()
	a.startConfigWatcher(watchCtx)

	// 启动服务器
	go func() {
		logger.Log.Info("Server running", zap.String("port", a.Config.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Error("Server forced to shutdown", zap.Error(err))
	}

	if a.tracer != nil {
		if err := a.tracer.Shutdown(ctx); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}
	if a.Redis != nil {
		a.Redis.Close()
	}

	logger.Log.Info("Server exiting")
}
