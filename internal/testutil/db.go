// Package testutil 提供测试用的 sqlite 数据库和数据构造函数
package testutil

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"lms_backend/internal/model"
	"lms_backend/pkg/database"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB 在临时目录创建 sqlite 库并完成迁移
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "lms_test.db")
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func CreateUser(t *testing.T, db *gorm.DB, role model.Role) *model.User {
	t.Helper()
	id := model.NewID()
	user := &model.User{
		UUIDBase: model.UUIDBase{ID: id},
		Name:     fmt.Sprintf("%s %s", role, id[:8]),
		Email:    fmt.Sprintf("%s@example.com", id[:8]),
		Role:     role,
	}
	require.NoError(t, db.WithContext(context.Background()).Create(user).Error)
	return user
}

// CreateCourse 插入一门课程，code 为空时自动生成
func CreateCourse(t *testing.T, db *gorm.DB, teacherID, title, code string, published bool) *model.Course {
	t.Helper()
	if code == "" {
		code = "C-" + model.NewID()[:8]
	}
	course := &model.Course{
		Title:      title,
		CourseCode: code,
		Published:  published,
		TeacherID:  teacherID,
	}
	require.NoError(t, db.Create(course).Error)
	return course
}

func CreateModule(t *testing.T, db *gorm.DB, courseID, title string, order int) *model.Module {
	t.Helper()
	module := &model.Module{Title: title, CourseID: courseID, Order: order}
	require.NoError(t, db.Create(module).Error)
	return module
}

func CreateContentItem(t *testing.T, db *gorm.DB, moduleID, title string, order int) *model.ContentItem {
	t.Helper()
	item := &model.ContentItem{
		Title:    title,
		Type:     model.ContentPDF,
		FileURL:  "/uploads/" + title + ".pdf",
		ModuleID: moduleID,
		Order:    order,
	}
	require.NoError(t, db.Create(item).Error)
	return item
}

func Enroll(t *testing.T, db *gorm.DB, userID, courseID string) {
	t.Helper()
	require.NoError(t, db.Create(&model.Enrollment{UserID: userID, CourseID: courseID}).Error)
}
