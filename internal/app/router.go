package app

import (
	"lms_backend/docs"
	"lms_backend/internal/config"
	"lms_backend/internal/middleware"
	"lms_backend/internal/model"
	"lms_backend/pkg/monitoring"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 1. 公共路由(无需登录)
	a.registerPublicRoutes(router, c, cfg)

	// 2. 需要登录的路由
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg.JWT.Secret, a.services.auth))
	{
		a.registerLearnerRoutes(authGroup, c)

		// 教师相关接口，ADMIN 同样可以访问
		teacher := authGroup.Group("")
		teacher.Use(middleware.RoleMiddleware(model.RoleTeacher))
		a.registerTeacherRoutes(teacher, c)
	}

	// 3. 管理员相关接口
	admin := router.Group("/api/admin")
	admin.Use(middleware.AuthMiddleware(cfg.JWT.Secret, a.services.auth), middleware.RoleMiddleware(model.RoleAdmin))
	a.registerAdminRoutes(admin, c)
}

func (a *App) registerPublicRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/register", c.auth.Register)

		// 多实例部署时登录限流由 Redis 统一计数
		if a.Redis != nil {
			window := time.Duration(cfg.RateLimit.LoginWindowMinutes) * time.Minute
			if window <= 0 {
				window = time.Minute
			}
			limiter := middleware.NewRedisRateLimiter(a.Redis)
			public.POST("/login", limiter.Limit("login", cfg.RateLimit.LoginMax, window), c.auth.Login)
		} else {
			public.POST("/login", c.auth.Login)
		}

		public.GET("/catalog/search", c.catalog.Search)
		// 未发布课程只有所有者能看到，所以这里尝试解析身份
		public.GET("/courses/:id", middleware.TryAuthMiddleware(cfg.JWT.Secret, a.services.auth), c.course.GetCourse)
	}
}

func (a *App) registerLearnerRoutes(rg *gin.RouterGroup, c *controllers) {
	rg.POST("/logout", c.auth.Logout)
	rg.GET("/profile", c.auth.GetProfile)

	rg.GET("/courses", c.course.ListCourses)

	rg.POST("/enroll", c.enrollment.Enroll)
	rg.GET("/enrollments", c.enrollment.ListEnrolledCourses)
	rg.GET("/enrollments/:courseId", c.enrollment.GetEnrollmentStatus)
}

func (a *App) registerTeacherRoutes(rg *gin.RouterGroup, c *controllers) {
	rg.POST("/courses", c.course.CreateCourse)
	rg.PUT("/courses/:id", c.course.UpdateCourse)
	rg.DELETE("/courses/:id", c.course.DeleteCourse)

	rg.POST("/courses/:id/modules", c.course.AddModule)
	rg.PUT("/courses/:id/modules/order", c.course.ReorderModules)
	rg.PUT("/modules/:id", c.course.UpdateModule)
	rg.DELETE("/modules/:id", c.course.DeleteModule)

	rg.POST("/modules/:id/content-items", c.course.AddContentItem)
	rg.PUT("/content-items/:id", c.course.UpdateContentItem)
	rg.DELETE("/content-items/:id", c.course.DeleteContentItem)

	rg.POST("/uploads", c.upload.Upload)
}

func (a *App) registerAdminRoutes(rg *gin.RouterGroup, c *controllers) {
	rg.GET("/faculties", c.faculty.ListFaculties)
	rg.POST("/faculties", c.faculty.AddFaculty)
	rg.PUT("/faculties/:id", c.faculty.UpdateFaculty)
	rg.DELETE("/faculties/:id", c.faculty.DeleteFaculty)
}
