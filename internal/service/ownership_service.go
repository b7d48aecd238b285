package service

import (
	"context"
	"errors"
	"lms_backend/internal/model"
	"lms_backend/internal/repository"
	"lms_backend/pkg/logger"
	"lms_backend/pkg/monitoring"
	"lms_backend/pkg/tracing"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	kindCourse      = "course"
	kindModule      = "module"
	kindContentItem = "content_item"
)

// OwnershipService 判断调用者能否修改某门课程及其下属模块和内容
type OwnershipService struct {
	CourseRepo      *repository.CourseRepository
	ModuleRepo      *repository.ModuleRepository
	ContentItemRepo *repository.ContentItemRepository
}

func NewOwnershipService(
	courseRepo *repository.CourseRepository,
	moduleRepo *repository.ModuleRepository,
	contentItemRepo *repository.ContentItemRepository,
) *OwnershipService {
	return &OwnershipService{
		CourseRepo:      courseRepo,
		ModuleRepo:      moduleRepo,
		ContentItemRepo: contentItemRepo,
	}
}

// VerifyOwnership 两个 id 只应传一个；都传时以 contentItemID 为准，都不传返回 false
func (s *OwnershipService) VerifyOwnership(ctx context.Context, identity *model.Identity, contentItemID, moduleID string) bool {
	switch {
	case contentItemID != "":
		return s.verify(ctx, identity, kindContentItem, contentItemID, s.ContentItemRepo.FindOwnerID)
	case moduleID != "":
		return s.verify(ctx, identity, kindModule, moduleID, s.ModuleRepo.FindOwnerID)
	default:
		return s.verify(ctx, identity, kindModule, "", nil)
	}
}

func (s *OwnershipService) VerifyCourseOwnership(ctx context.Context, identity *model.Identity, courseID string) bool {
	if courseID == "" {
		return s.verify(ctx, identity, kindCourse, "", nil)
	}
	return s.verify(ctx, identity, kindCourse, courseID, s.CourseRepo.FindOwnerID)
}

func (s *OwnershipService) verify(
	ctx context.Context,
	identity *model.Identity,
	kind, id string,
	findOwner func(context.Context, string) (string, error),
) bool {
	ctx, span := tracing.Tracer.Start(ctx, "ownership.verify")
	defer span.End()
	span.SetAttributes(attribute.String("kind", kind), attribute.String("id", id))

	allowed := s.decide(ctx, identity, kind, id, findOwner)
	span.SetAttributes(attribute.Bool("allowed", allowed))
	if !allowed {
		monitoring.OwnershipDenials.WithLabelValues(kind).Inc()
	}
	return allowed
}

func (s *OwnershipService) decide(
	ctx context.Context,
	identity *model.Identity,
	kind, id string,
	findOwner func(context.Context, string) (string, error),
) bool {
	if identity == nil {
		return false
	}

	switch identity.Role {
	case model.RoleAdmin:
		return true
	case model.RoleTeacher, model.RoleUser:
	default:
		return false
	}

	if id == "" || findOwner == nil {
		return false
	}

	ownerID, err := findOwner(ctx, id)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Log.Error("Failed to resolve owner",
				zap.String("kind", kind),
				zap.String("id", id),
				zap.Error(err),
			)
		}
		return false
	}
	return ownerID == identity.UserID
}
