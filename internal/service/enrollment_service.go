package service

import (
	"context"
	"lms_backend/internal/model"
	"lms_backend/internal/repository"
	"lms_backend/internal/util"
	"lms_backend/pkg/logger"
	"lms_backend/pkg/monitoring"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type EnrollRequest struct {
	CourseID string `json:"courseId" validate:"required"`
}

type EnrollmentService struct {
	EnrollmentRepo *repository.EnrollmentRepository
	CourseRepo     *repository.CourseRepository
}

func NewEnrollmentService(enrollmentRepo *repository.EnrollmentRepository, courseRepo *repository.CourseRepository) *EnrollmentService {
	return &EnrollmentService{
		EnrollmentRepo: enrollmentRepo,
		CourseRepo:     courseRepo,
	}
}

// Enroll 幂等：重复选课返回已有记录，即使课程之后被下架
// 只有新选课要求课程已发布
func (s *EnrollmentService) Enroll(ctx context.Context, identity *model.Identity, req EnrollRequest) (*model.Enrollment, error) {
	if err := requireIdentity(identity); err != nil {
		return nil, err
	}
	if err := util.ValidateStruct(&req); err != nil {
		return nil, err
	}

	existing, err := s.EnrollmentRepo.Find(ctx, identity.UserID, req.CourseID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.Wrap(err, "find enrollment")
	}

	course, err := s.CourseRepo.FindByID(ctx, req.CourseID)
	if err != nil {
		return nil, storeErr(err, "find course")
	}
	if !course.Published {
		return nil, util.ErrNotFound
	}

	enrollment, created, err := s.EnrollmentRepo.FindOrCreate(ctx, identity.UserID, req.CourseID)
	if err != nil {
		return nil, errors.Wrap(err, "enroll")
	}
	if created {
		monitoring.EnrollmentsCreated.Inc()
		logger.Log.Info("User enrolled",
			zap.String("user_id", identity.UserID),
			zap.String("course_id", req.CourseID),
		)
	}
	return enrollment, nil
}

func (s *EnrollmentService) IsEnrolled(ctx context.Context, identity *model.Identity, courseID string) (bool, error) {
	if err := requireIdentity(identity); err != nil {
		return false, err
	}
	ok, err := s.EnrollmentRepo.Exists(ctx, identity.UserID, courseID)
	if err != nil {
		return false, errors.Wrap(err, "check enrollment")
	}
	return ok, nil
}

func (s *EnrollmentService) ListEnrolledCourses(ctx context.Context, identity *model.Identity) ([]model.Course, error) {
	if err := requireIdentity(identity); err != nil {
		return nil, err
	}
	enrollments, err := s.EnrollmentRepo.ListByUser(ctx, identity.UserID)
	if err != nil {
		return nil, errors.Wrap(err, "list enrolled courses")
	}
	courses := make([]model.Course, 0, len(enrollments))
	for _, e := range enrollments {
		if e.Course != nil {
			courses = append(courses, *e.Course)
		}
	}
	return courses, nil
}
