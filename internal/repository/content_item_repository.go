package repository

import (
	"context"
	"lms_backend/internal/model"

	"gorm.io/gorm"
)

type ContentItemRepository struct {
	DB *gorm.DB
}

func NewContentItemRepository(db *gorm.DB) *ContentItemRepository {
	return &ContentItemRepository{DB: db}
}

// Append 在模块末尾追加内容，锁住模块行后取 MAX(order)+1
func (r *ContentItemRepository) Append(ctx context.Context, item *model.ContentItem) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var module model.Module
		if err := forUpdate(tx).Select("id").First(&module, "id = ?", item.ModuleID).Error; err != nil {
			return err
		}

		var maxOrder int
		if err := tx.Model(&model.ContentItem{}).
			Where("module_id = ?", item.ModuleID).
			Select("COALESCE(MAX(sort_order), 0)").
			Scan(&maxOrder).Error; err != nil {
			return err
		}

		item.Order = maxOrder + 1
		return tx.Create(item).Error
	})
}

func (r *ContentItemRepository) FindByID(ctx context.Context, id string) (*model.ContentItem, error) {
	var item model.ContentItem
	err := r.DB.WithContext(ctx).First(&item, "id = ?", id).Error
	return &item, err
}

func (r *ContentItemRepository) FindByModule(ctx context.Context, moduleID string) ([]model.ContentItem, error) {
	var items []model.ContentItem
	err := r.DB.WithContext(ctx).
		Where("module_id = ?", moduleID).
		Order("sort_order ASC").
		Find(&items).Error
	return items, err
}

func (r *ContentItemRepository) Update(ctx context.Context, id string, updates map[string]interface{}) (*model.ContentItem, error) {
	var item model.ContentItem
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&item, "id = ?", id).Error; err != nil {
			return err
		}
		if len(updates) == 0 {
			return nil
		}
		if err := tx.Model(&item).Updates(updates).Error; err != nil {
			return err
		}
		return tx.First(&item, "id = ?", id).Error
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *ContentItemRepository) Delete(ctx context.Context, id string, renumber bool) (*model.ContentItem, error) {
	var item model.ContentItem
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&item, "id = ?", id).Error; err != nil {
			return err
		}
		var module model.Module
		if err := forUpdate(tx).Select("id").First(&module, "id = ?", item.ModuleID).Error; err != nil {
			return err
		}
		if err := tx.Delete(&model.ContentItem{}, "id = ?", id).Error; err != nil {
			return err
		}
		if !renumber {
			return nil
		}
		return tx.Model(&model.ContentItem{}).
			Where("module_id = ? AND sort_order > ?", item.ModuleID, item.Order).
			Update("sort_order", gorm.Expr("sort_order - 1")).Error
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// FindOwnerID content_items -> modules -> courses
func (r *ContentItemRepository) FindOwnerID(ctx context.Context, itemID string) (string, error) {
	var owner string
	res := r.DB.WithContext(ctx).
		Table("content_items").
		Select("courses.teacher_id").
		Joins("JOIN modules ON modules.id = content_items.module_id").
		Joins("JOIN courses ON courses.id = modules.course_id").
		Where("content_items.id = ?", itemID).
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
