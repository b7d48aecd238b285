// @title LMS 后端 API
// @version 1.0
// @description 课程目录、课程内容管理与选课服务。

// @host localhost:8080
// @BasePath /api

package main

import (
	"flag"
	"lms_backend/internal/app"
	"lms_backend/internal/config"
	"lms_backend/pkg/logger"
	"log"
	"path/filepath"
)

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization
func main() {
	// 命令行参数
	configDir := flag.String("config", "configs", "配置文件所在目录")
	migrateOnly := flag.Bool("migrate-only", false, "只执行数据库迁移，完成后退出")
	migrate := flag.Bool("migrate", false, "启动时强制执行数据库迁移（即使是 release 模式）")
	watch := flag.Bool("watch-config", true, "配置文件变更时热更新日志级别等运行时参数")
	flag.Parse()

	cfg, err := config.LoadConfig(*configDir)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 设置迁移标志
	cfg.ForceMigrate = *migrate || *migrateOnly
	cfg.MigrateOnly = *migrateOnly

	application := app.NewApp(cfg)
	defer logger.Log.Sync()

	// 迁移完成后直接退出
	if *migrateOnly {
		log.Println("数据库迁移完成，退出程序")
		return
	}

	if *watch {
		application.ConfigFile = filepath.Join(*configDir, "config.yaml")
	}
	application.Run()
}
