package repository

import (
	"context"
	"lms_backend/internal/model"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Catalog sort keys understood by CourseRepository.Search.
const (
	SortCreatedAt       = "createdAt"
	SortTitle           = "title"
	SortEnrollmentCount = "enrollmentCount"
)

// CatalogFilter 目录查询条件，Published 过滤总是生效
type CatalogFilter struct {
	Query     string
	TeacherID string
	SortBy    string
	SortDesc  bool
	Offset    int
	Limit     int
}

type CourseRepository struct {
	DB *gorm.DB
}

func NewCourseRepository(db *gorm.DB) *CourseRepository {
	return &CourseRepository{DB: db}
}

// likePattern 转义 LIKE 通配符，转义字符为 '!'，三种方言通用
func likePattern(q string) string {
	r := strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")
	return "%" + r.Replace(strings.ToLower(q)) + "%"
}

func catalogScope(f CatalogFilter) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		db = db.Where("courses.published = ?", true)
		if f.TeacherID != "" {
			db = db.Where("courses.teacher_id = ?", f.TeacherID)
		}
		if f.Query != "" {
			p := likePattern(f.Query)
			db = db.Where("(LOWER(courses.title) LIKE ? ESCAPE '!' OR LOWER(courses.course_code) LIKE ? ESCAPE '!')", p, p)
		}
		return db
	}
}

func (r *CourseRepository) enrollmentCounts(ctx context.Context) *gorm.DB {
	return r.DB.WithContext(ctx).
		Model(&model.Enrollment{}).
		Select("course_id, COUNT(*) AS enrollment_count").
		Group("course_id")
}

// Search 先按相同过滤条件计数，再排序分页取数据
func (r *CourseRepository) Search(ctx context.Context, f CatalogFilter) ([]model.Course, int64, error) {
	var total int64
	if err := r.DB.WithContext(ctx).
		Model(&model.Course{}).
		Scopes(catalogScope(f)).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query := r.DB.WithContext(ctx).
		Model(&model.Course{}).
		Scopes(catalogScope(f)).
		Select("courses.*, COALESCE(ec.enrollment_count, 0) AS enrollment_count").
		Joins("LEFT JOIN (?) AS ec ON ec.course_id = courses.id", r.enrollmentCounts(ctx))

	switch f.SortBy {
	case SortEnrollmentCount:
		query = query.Order(clause.OrderByColumn{
			Column: clause.Column{Name: "enrollment_count", Raw: true},
			Desc:   f.SortDesc,
		})
	case SortTitle:
		query = query.Order(clause.OrderByColumn{
			Column: clause.Column{Table: "courses", Name: "title"},
			Desc:   f.SortDesc,
		})
	default:
		query = query.Order(clause.OrderByColumn{
			Column: clause.Column{Table: "courses", Name: "created_at"},
			Desc:   f.SortDesc,
		})
	}

	var courses []model.Course
	if err := query.Offset(f.Offset).Limit(f.Limit).Find(&courses).Error; err != nil {
		return nil, 0, err
	}
	return courses, total, nil
}

func (r *CourseRepository) Create(ctx context.Context, course *model.Course) error {
	return r.DB.WithContext(ctx).Create(course).Error
}

func (r *CourseRepository) FindByID(ctx context.Context, id string) (*model.Course, error) {
	var course model.Course
	err := r.DB.WithContext(ctx).First(&course, "id = ?", id).Error
	return &course, err
}

// FindWithContent 预加载模块和内容，均按 order 升序
func (r *CourseRepository) FindWithContent(ctx context.Context, id string) (*model.Course, error) {
	var course model.Course
	err := r.DB.WithContext(ctx).
		Preload("Modules", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC")
		}).
		Preload("Modules.ContentItems", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC")
		}).
		First(&course, "id = ?", id).Error
	return &course, err
}

// ListByTeacher teacherID 为空时返回全部课程
func (r *CourseRepository) ListByTeacher(ctx context.Context, teacherID string) ([]model.Course, error) {
	var courses []model.Course
	query := r.DB.WithContext(ctx).Order("created_at DESC")
	if teacherID != "" {
		query = query.Where("teacher_id = ?", teacherID)
	}
	err := query.Find(&courses).Error
	return courses, err
}

func (r *CourseRepository) CodeExists(ctx context.Context, code string) (bool, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&model.Course{}).Where("course_code = ?", code).Count(&count).Error
	return count > 0, err
}

// Update 只更新传入的列，返回更新后的课程
func (r *CourseRepository) Update(ctx context.Context, id string, updates map[string]interface{}) (*model.Course, error) {
	var course model.Course
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&course, "id = ?", id).Error; err != nil {
			return err
		}
		if len(updates) == 0 {
			return nil
		}
		if err := tx.Model(&course).Updates(updates).Error; err != nil {
			return err
		}
		return tx.First(&course, "id = ?", id).Error
	})
	if err != nil {
		return nil, err
	}
	return &course, nil
}

// Delete 删除课程及其模块、内容和选课记录
func (r *CourseRepository) Delete(ctx context.Context, id string) (*model.Course, error) {
	var course model.Course
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&course, "id = ?", id).Error; err != nil {
			return err
		}
		return deleteCourseTree(tx, []string{id})
	})
	if err != nil {
		return nil, err
	}
	return &course, nil
}

func deleteCourseTree(tx *gorm.DB, courseIDs []string) error {
	if len(courseIDs) == 0 {
		return nil
	}
	moduleIDs := tx.Model(&model.Module{}).Select("id").Where("course_id IN ?", courseIDs)
	if err := tx.Where("module_id IN (?)", moduleIDs).Delete(&model.ContentItem{}).Error; err != nil {
		return err
	}
	if err := tx.Where("course_id IN ?", courseIDs).Delete(&model.Module{}).Error; err != nil {
		return err
	}
	if err := tx.Where("course_id IN ?", courseIDs).Delete(&model.Enrollment{}).Error; err != nil {
		return err
	}
	return tx.Where("id IN ?", courseIDs).Delete(&model.Course{}).Error
}

// FindOwnerID 返回课程的 teacher_id
func (r *CourseRepository) FindOwnerID(ctx context.Context, courseID string) (string, error) {
	var owner string
	res := r.DB.WithContext(ctx).
		Model(&model.Course{}).
		Select("teacher_id").
		Where("id = ?", courseID).
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
