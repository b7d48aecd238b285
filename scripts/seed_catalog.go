// 导入演示用的教师和课程数据
//
// 通过 service 层写入，因此课程代码生成、模块序号和校验规则与线上接口一致。
// 已存在的教师会被跳过，课程按课程代码去重。
//
// 用法: go run scripts/seed_catalog.go -file scripts/catalog_seed.yaml

package main

import (
	"context"
	"errors"
	"flag"
	"lms_backend/internal/config"
	"lms_backend/internal/model"
	"lms_backend/internal/repository"
	"lms_backend/internal/service"
	"lms_backend/internal/util"
	"lms_backend/pkg/database"
	"lms_backend/pkg/logger"
	"log"
	"os"

	"gopkg.in/yaml.v3"
)

type seedItem struct {
	Title   string `yaml:"title"`
	Type    string `yaml:"type"`
	FileURL string `yaml:"file_url"`
}

type seedModule struct {
	Title string     `yaml:"title"`
	Items []seedItem `yaml:"items"`
}

type seedCourse struct {
	Title       string       `yaml:"title"`
	Code        string       `yaml:"code"`
	Description string       `yaml:"description"`
	Subject     string       `yaml:"subject"`
	Published   bool         `yaml:"published"`
	Modules     []seedModule `yaml:"modules"`
}

type seedTeacher struct {
	service.AddFacultyRequest `yaml:",inline"`
	Courses                   []seedCourse `yaml:"courses"`
}

type seedFile struct {
	Teachers []seedTeacher `yaml:"teachers"`
}

func main() {
	configDir := flag.String("config", "configs", "配置文件所在目录")
	file := flag.String("file", "scripts/catalog_seed.yaml", "种子数据文件")
	flag.Parse()

	data, err := os.ReadFile(*file)
	if err != nil {
		log.Fatalf("无法读取种子文件: %v", err)
	}
	var seed seedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		log.Fatalf("解析种子文件失败: %v", err)
	}

	cfg, err := config.LoadConfig(*configDir)
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}
	logger.InitLogger(cfg)

	db, err := database.InitDB(cfg)
	if err != nil {
		log.Fatalf("数据库连接失败: %v", err)
	}

	userRepo := repository.NewUserRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	moduleRepo := repository.NewModuleRepository(db)
	itemRepo := repository.NewContentItemRepository(db)
	faculty := service.NewFacultyService(userRepo)
	courses := service.NewCourseService(
		courseRepo, moduleRepo, itemRepo,
		repository.NewEnrollmentRepository(db),
		service.NewOwnershipService(courseRepo, moduleRepo, itemRepo),
		cfg.Catalog.RenumberOnDelete,
	)

	ctx := context.Background()
	admin := &model.Identity{Role: model.RoleAdmin}

	for _, t := range seed.Teachers {
		teacher, _, err := faculty.AddFaculty(ctx, admin, t.AddFacultyRequest)
		if errors.Is(err, util.ErrAlreadyTeacher) {
			teacher, err = userRepo.FindByEmail(ctx, t.Email)
		}
		if err != nil {
			log.Fatalf("创建教师 %s 失败: %v", t.Email, err)
		}
		owner := teacher.Identity()

		for _, c := range t.Courses {
			if c.Code != "" {
				if exists, err := courseRepo.CodeExists(ctx, c.Code); err != nil {
					log.Fatalf("查询课程代码失败: %v", err)
				} else if exists {
					log.Printf("跳过已存在的课程 %s", c.Code)
					continue
				}
			}

			req := service.CreateCourseRequest{
				Title:       c.Title,
				Description: c.Description,
				CourseCode:  c.Code,
				Subject:     c.Subject,
				Published:   c.Published,
			}
			for _, m := range c.Modules {
				req.Modules = append(req.Modules, service.ModuleInput{Title: m.Title})
			}
			course, err := courses.CreateCourse(ctx, owner, req)
			if err != nil {
				log.Fatalf("创建课程 %q 失败: %v", c.Title, err)
			}

			// CreateCourse 按顺序创建模块，这里按同样顺序补充内容项
			modules, err := moduleRepo.FindByCourse(ctx, course.ID)
			if err != nil {
				log.Fatalf("读取模块失败: %v", err)
			}
			for i, m := range c.Modules {
				for _, it := range m.Items {
					_, err := courses.AddContentItem(ctx, owner, modules[i].ID, service.ContentItemRequest{
						Title:   it.Title,
						Type:    it.Type,
						FileURL: it.FileURL,
					})
					if err != nil {
						log.Fatalf("创建内容项 %q 失败: %v", it.Title, err)
					}
				}
			}
			log.Printf("已创建课程 %s (%s)", course.Title, course.CourseCode)
		}
	}
	log.Println("完成！")
}
