package repository

import (
	"context"
	"errors"
	"lms_backend/internal/model"

	"gorm.io/gorm"
)

// ErrInvalidOrder 重排时传入的 ID 集合与课程现有模块不一致
var ErrInvalidOrder = errors.New("ids must be a permutation of the existing children")

type ModuleRepository struct {
	DB *gorm.DB
}

func NewModuleRepository(db *gorm.DB) *ModuleRepository {
	return &ModuleRepository{DB: db}
}

// Append 在课程末尾追加模块，order = 当前最大值 + 1
// 课程行被锁住，同一课程的并发追加不会拿到相同的 order
func (r *ModuleRepository) Append(ctx context.Context, module *model.Module) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var course model.Course
		if err := forUpdate(tx).Select("id").First(&course, "id = ?", module.CourseID).Error; err != nil {
			return err
		}

		var maxOrder int
		if err := tx.Model(&model.Module{}).
			Where("course_id = ?", module.CourseID).
			Select("COALESCE(MAX(sort_order), 0)").
			Scan(&maxOrder).Error; err != nil {
			return err
		}

		module.Order = maxOrder + 1
		return tx.Create(module).Error
	})
}

func (r *ModuleRepository) FindByID(ctx context.Context, id string) (*model.Module, error) {
	var module model.Module
	err := r.DB.WithContext(ctx).First(&module, "id = ?", id).Error
	return &module, err
}

func (r *ModuleRepository) FindByCourse(ctx context.Context, courseID string) ([]model.Module, error) {
	var modules []model.Module
	err := r.DB.WithContext(ctx).
		Where("course_id = ?", courseID).
		Order("sort_order ASC").
		Find(&modules).Error
	return modules, err
}

func (r *ModuleRepository) UpdateTitle(ctx context.Context, id, title string) (*model.Module, error) {
	var module model.Module
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&module, "id = ?", id).Error; err != nil {
			return err
		}
		return tx.Model(&module).Update("title", title).Error
	})
	if err != nil {
		return nil, err
	}
	module.Title = title
	return &module, nil
}

// Delete 删除模块及其内容；renumber 为 true 时后续模块 order 依次前移
func (r *ModuleRepository) Delete(ctx context.Context, id string, renumber bool) (*model.Module, error) {
	var module model.Module
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&module, "id = ?", id).Error; err != nil {
			return err
		}
		var course model.Course
		if err := forUpdate(tx).Select("id").First(&course, "id = ?", module.CourseID).Error; err != nil {
			return err
		}
		if err := tx.Where("module_id = ?", id).Delete(&model.ContentItem{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&model.Module{}, "id = ?", id).Error; err != nil {
			return err
		}
		if !renumber {
			return nil
		}
		return tx.Model(&model.Module{}).
			Where("course_id = ? AND sort_order > ?", module.CourseID, module.Order).
			Update("sort_order", gorm.Expr("sort_order - 1")).Error
	})
	if err != nil {
		return nil, err
	}
	return &module, nil
}

// Reorder 按 ids 顺序重写 order 为 1..n
func (r *ModuleRepository) Reorder(ctx context.Context, courseID string, ids []string) ([]model.Module, error) {
	var modules []model.Module
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var course model.Course
		if err := forUpdate(tx).Select("id").First(&course, "id = ?", courseID).Error; err != nil {
			return err
		}
		var existing []string
		if err := tx.Model(&model.Module{}).Where("course_id = ?", courseID).Pluck("id", &existing).Error; err != nil {
			return err
		}
		if !isPermutation(existing, ids) {
			return ErrInvalidOrder
		}
		for i, id := range ids {
			if err := tx.Model(&model.Module{}).Where("id = ?", id).Update("sort_order", i+1).Error; err != nil {
				return err
			}
		}
		return tx.Where("course_id = ?", courseID).Order("sort_order ASC").Find(&modules).Error
	})
	return modules, err
}

// FindOwnerID 通过 modules -> courses 查出所属教师
func (r *ModuleRepository) FindOwnerID(ctx context.Context, moduleID string) (string, error) {
	var owner string
	res := r.DB.WithContext(ctx).
		Table("modules").
		Select("courses.teacher_id").
		Joins("JOIN courses ON courses.id = modules.course_id").
		Where("modules.id = ?", moduleID).
		Limit(1).
		Scan(&owner)
	if res.Error != nil {
		return "", res.Error
	}
	if res.RowsAffected == 0 {
		return "", gorm.ErrRecordNotFound
	}
	return owner, nil
}
