package repository

import (
	"context"
	"lms_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type EnrollmentRepository struct {
	DB *gorm.DB
}

func NewEnrollmentRepository(db *gorm.DB) *EnrollmentRepository {
	return &EnrollmentRepository{DB: db}
}

// FindOrCreate 插入 (user, course)，已存在时不报错，返回已有记录
// created 表示本次是否真正插入
func (r *EnrollmentRepository) FindOrCreate(ctx context.Context, userID, courseID string) (*model.Enrollment, bool, error) {
	enrollment := model.Enrollment{UserID: userID, CourseID: courseID}
	res := r.DB.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&enrollment)
	if res.Error != nil {
		return nil, false, res.Error
	}

	var stored model.Enrollment
	if err := r.DB.WithContext(ctx).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		First(&stored).Error; err != nil {
		return nil, false, err
	}
	return &stored, res.RowsAffected > 0, nil
}

func (r *EnrollmentRepository) Find(ctx context.Context, userID, courseID string) (*model.Enrollment, error) {
	var enrollment model.Enrollment
	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		First(&enrollment).Error
	if err != nil {
		return nil, err
	}
	return &enrollment, nil
}

func (r *EnrollmentRepository) Exists(ctx context.Context, userID, courseID string) (bool, error) {
	var count int64
	err := r.DB.WithContext(ctx).
		Model(&model.Enrollment{}).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Count(&count).Error
	return count > 0, err
}

// ListByUser 返回用户的选课记录及课程信息，最近选的在前
func (r *EnrollmentRepository) ListByUser(ctx context.Context, userID string) ([]model.Enrollment, error) {
	var enrollments []model.Enrollment
	err := r.DB.WithContext(ctx).
		Preload("Course").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&enrollments).Error
	return enrollments, err
}

func (r *EnrollmentRepository) CountByCourse(ctx context.Context, courseID string) (int64, error) {
	var count int64
	err := r.DB.WithContext(ctx).
		Model(&model.Enrollment{}).
		Where("course_id = ?", courseID).
		Count(&count).Error
	return count, err
}
