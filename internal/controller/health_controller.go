package controller

import (
	"context"
	"lms_backend/internal/util"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

const healthProbeTimeout = 2 * time.Second

type HealthController struct {
	DB    *gorm.DB
	Redis *redis.Client
}

// NewHealthController rdb 为 nil 表示未启用 Redis
func NewHealthController(db *gorm.DB, rdb *redis.Client) *HealthController {
	return &HealthController{DB: db, Redis: rdb}
}

// HealthCheck godoc
// @Summary 健康检查
// @Description 检查数据库和 Redis 连接；数据库不可用时返回 503，Redis 故障只标记为 down
// @Tags 系统
// @Produce json
// @Success 200 {object} util.Response
// @Failure 503 {object} util.Response
// @Router /health [get]
func (c *HealthController) HealthCheck(ctx *gin.Context) {
	probeCtx, cancel := context.WithTimeout(ctx.Request.Context(), healthProbeTimeout)
	defer cancel()

	sqlDB, err := c.DB.DB()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	if err := sqlDB.PingContext(probeCtx); err != nil {
		util.Error(ctx, http.StatusServiceUnavailable, "Database unavailable")
		return
	}

	redisStatus := "disabled"
	if c.Redis != nil {
		redisStatus = "up"
		if err := c.Redis.Ping(probeCtx).Err(); err != nil {
			// 公开接口不依赖 Redis
			redisStatus = "down"
		}
	}

	util.Success(ctx, gin.H{
		"status": "ok",
		"components": gin.H{
			"database": "up",
			"redis":    redisStatus,
		},
	})
}
