package service

import (
	"context"
	"lms_backend/internal/config"
	"lms_backend/internal/model"
	"lms_backend/internal/repository"
	"lms_backend/internal/util"
	"lms_backend/pkg/monitoring"
	"lms_backend/pkg/tracing"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
)

// sortBy 可选值
const (
	SortByTitle           = "title"
	SortByCreatedAt       = "createdAt"
	SortByEnrollmentCount = "enrollmentCount"
	SortByAverageRating   = "averageRating"
)

const (
	SortAsc  = "asc"
	SortDesc = "desc"
)

// CatalogQuery 目录检索参数，全部可选，来自不可信输入
type CatalogQuery struct {
	Query     string `form:"query" json:"query"`
	SortBy    string `form:"sortBy" json:"sortBy" validate:"omitempty,oneof=title createdAt enrollmentCount averageRating"`
	SortOrder string `form:"sortOrder" json:"sortOrder" validate:"omitempty,oneof=asc desc"`
	TeacherID string `form:"teacherId" json:"teacherId"`
	Page      int    `form:"page" json:"page"`
	Limit     int    `form:"limit" json:"limit"`
}

type CatalogPage struct {
	Items      []model.Course `json:"courses"`
	TotalCount int64          `json:"totalCount"`
	Page       int            `json:"currentPage"`
	TotalPages int            `json:"totalPages"`
}

type CatalogService struct {
	CourseRepo *repository.CourseRepository
	Cfg        *config.CatalogConfig
}

func NewCatalogService(courseRepo *repository.CourseRepository, cfg *config.CatalogConfig) *CatalogService {
	return &CatalogService{CourseRepo: courseRepo, Cfg: cfg}
}

func (s *CatalogService) pageSize(limit int) int {
	def, max := 10, 100
	if s.Cfg != nil {
		if s.Cfg.DefaultLimit > 0 {
			def = s.Cfg.DefaultLimit
		}
		if s.Cfg.MaxLimit > 0 {
			max = s.Cfg.MaxLimit
		}
	}
	if limit < 1 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}

// resolveSort 返回仓储层排序键和方向
// enrollmentCount 默认降序，title/createdAt 默认升序，未指定或 averageRating 时按 createdAt 降序
func resolveSort(sortBy, sortOrder string) (string, bool) {
	switch sortBy {
	case SortByEnrollmentCount:
		return repository.SortEnrollmentCount, sortOrder != SortAsc
	case SortByTitle:
		return repository.SortTitle, sortOrder == SortDesc
	case SortByCreatedAt:
		return repository.SortCreatedAt, sortOrder == SortDesc
	default:
		return repository.SortCreatedAt, true
	}
}

func totalPages(total int64, limit int) int {
	if limit < 1 || total <= 0 {
		return 0
	}
	return int((total + int64(limit) - 1) / int64(limit))
}

// Search 只读，先计数再分页查询
func (s *CatalogService) Search(ctx context.Context, q CatalogQuery) (*CatalogPage, error) {
	if err := util.ValidateStruct(&q); err != nil {
		return nil, err
	}

	page := q.Page
	if page < 1 {
		page = 1
	}
	limit := s.pageSize(q.Limit)
	sortKey, desc := resolveSort(q.SortBy, q.SortOrder)

	ctx, span := tracing.Tracer.Start(ctx, "catalog.search")
	defer span.End()
	span.SetAttributes(
		attribute.String("sort", sortKey),
		attribute.Bool("desc", desc),
		attribute.Int("page", page),
		attribute.Int("limit", limit),
	)
	monitoring.CatalogSearches.WithLabelValues(sortKey).Inc()

	courses, total, err := s.CourseRepo.Search(ctx, repository.CatalogFilter{
		Query:     q.Query,
		TeacherID: q.TeacherID,
		SortBy:    sortKey,
		SortDesc:  desc,
		Offset:    (page - 1) * limit,
		Limit:     limit,
	})
	if err != nil {
		span.RecordError(err)
		return nil, errors.Wrap(err, "search catalog")
	}
	if courses == nil {
		courses = []model.Course{}
	}

	return &CatalogPage{
		Items:      courses,
		TotalCount: total,
		Page:       page,
		TotalPages: totalPages(total, limit),
	}, nil
}
