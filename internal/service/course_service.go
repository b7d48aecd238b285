package service

import (
	"context"
	"fmt"
	"lms_backend/internal/model"
	"lms_backend/internal/repository"
	"lms_backend/internal/util"
	"lms_backend/pkg/logger"
	"strings"
	"sync/atomic"
	"unicode"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type ModuleInput struct {
	Title string `json:"title" validate:"required,min=2,max=255"`
}

type CreateCourseRequest struct {
	Title       string        `json:"title" validate:"required,min=2,max=255"`
	Description string        `json:"description" validate:"max=10000"`
	CourseCode  string        `json:"courseCode" validate:"omitempty,min=2,max=64"`
	Subject     string        `json:"subject" validate:"max=100"`
	Language    string        `json:"language" validate:"max=32"`
	Thumbnail   string        `json:"thumbnail" validate:"omitempty,uri,max=512"`
	Published   bool          `json:"published"`
	Modules     []ModuleInput `json:"modules" validate:"omitempty,dive"`
}

// UpdateCourseRequest 所有字段可选，nil 表示不修改
type UpdateCourseRequest struct {
	Title       *string `json:"title" validate:"omitempty,min=2,max=255"`
	Description *string `json:"description" validate:"omitempty,max=10000"`
	CourseCode  *string `json:"courseCode" validate:"omitempty,min=2,max=64"`
	Subject     *string `json:"subject" validate:"omitempty,max=100"`
	Language    *string `json:"language" validate:"omitempty,max=32"`
	Thumbnail   *string `json:"thumbnail" validate:"omitempty,uri,max=512"`
	Published   *bool   `json:"published"`
}

type UpdateModuleRequest struct {
	Title *string `json:"title" validate:"omitempty,min=2,max=255"`
}

type ReorderModulesRequest struct {
	ModuleIDs []string `json:"moduleIds" validate:"required,min=1,dive,required"`
}

type ContentItemRequest struct {
	Title       string `json:"title" validate:"required,min=2,max=255"`
	Description string `json:"description" validate:"max=10000"`
	Type        string `json:"type" validate:"required,oneof=VIDEO PDF DOCX OTHER"`
	FileURL     string `json:"fileUrl" validate:"required,uri,max=1024"`
}

type UpdateContentItemRequest struct {
	Title       *string `json:"title" validate:"omitempty,min=2,max=255"`
	Description *string `json:"description" validate:"omitempty,max=10000"`
	Type        *string `json:"type" validate:"omitempty,oneof=VIDEO PDF DOCX OTHER"`
	FileURL     *string `json:"fileUrl" validate:"omitempty,uri,max=1024"`
}

type CourseService struct {
	CourseRepo      *repository.CourseRepository
	ModuleRepo      *repository.ModuleRepository
	ContentItemRepo *repository.ContentItemRepository
	EnrollmentRepo  *repository.EnrollmentRepository
	Ownership       *OwnershipService

	renumberOnDelete atomic.Bool
}

func NewCourseService(
	courseRepo *repository.CourseRepository,
	moduleRepo *repository.ModuleRepository,
	contentItemRepo *repository.ContentItemRepository,
	enrollmentRepo *repository.EnrollmentRepository,
	ownership *OwnershipService,
	renumberOnDelete bool,
) *CourseService {
	s := &CourseService{
		CourseRepo:      courseRepo,
		ModuleRepo:      moduleRepo,
		ContentItemRepo: contentItemRepo,
		EnrollmentRepo:  enrollmentRepo,
		Ownership:       ownership,
	}
	s.renumberOnDelete.Store(renumberOnDelete)
	return s
}

// SetRenumberOnDelete 配置热更新时调用
func (s *CourseService) SetRenumberOnDelete(v bool) {
	s.renumberOnDelete.Store(v)
}

func (s *CourseService) RenumberOnDelete() bool {
	return s.renumberOnDelete.Load()
}

func requireIdentity(identity *model.Identity) error {
	if identity == nil {
		return util.ErrUnauthorized
	}
	return nil
}

// canCreateCourse 课程只能由 TEACHER 创建，ADMIN 只能修改和删除
func canCreateCourse(identity *model.Identity) bool {
	return identity.Role == model.RoleTeacher
}

// canAuthor TEACHER 和 ADMIN 可以上传素材
func canAuthor(identity *model.Identity) bool {
	switch identity.Role {
	case model.RoleTeacher, model.RoleAdmin:
		return true
	case model.RoleUser:
		return false
	default:
		return false
	}
}

// canView 未发布课程只有所有者和 ADMIN 可见
func canView(identity *model.Identity, course *model.Course) bool {
	if course.Published {
		return true
	}
	if identity == nil {
		return false
	}
	switch identity.Role {
	case model.RoleAdmin:
		return true
	case model.RoleTeacher, model.RoleUser:
		return course.TeacherID == identity.UserID
	default:
		return false
	}
}

// GenerateCourseCode 格式 <SUBJ>-<6 位十六进制>，subject 为空时前缀为 CRS
func GenerateCourseCode(subject string) string {
	var prefix []rune
	for _, r := range strings.ToUpper(subject) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			prefix = append(prefix, r)
		}
		if len(prefix) == 4 {
			break
		}
	}
	if len(prefix) == 0 {
		prefix = []rune("CRS")
	}
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:6])
	return fmt.Sprintf("%s-%s", string(prefix), suffix)
}

func (s *CourseService) uniqueCourseCode(ctx context.Context, subject string) (string, error) {
	for i := 0; i < 5; i++ {
		code := GenerateCourseCode(subject)
		exists, err := s.CourseRepo.CodeExists(ctx, code)
		if err != nil {
			return "", errors.Wrap(err, "check course code")
		}
		if !exists {
			return code, nil
		}
	}
	return "", errors.New("could not allocate a unique course code")
}

func (s *CourseService) CreateCourse(ctx context.Context, identity *model.Identity, req CreateCourseRequest) (*model.Course, error) {
	if err := requireIdentity(identity); err != nil {
		return nil, err
	}
	if !canCreateCourse(identity) {
		return nil, util.ErrForbidden
	}
	if err := util.ValidateStruct(&req); err != nil {
		return nil, err
	}

	code := strings.TrimSpace(req.CourseCode)
	if code == "" {
		generated, err := s.uniqueCourseCode(ctx, req.Subject)
		if err != nil {
			return nil, err
		}
		code = generated
	} else {
		exists, err := s.CourseRepo.CodeExists(ctx, code)
		if err != nil {
			return nil, errors.Wrap(err, "check course code")
		}
		if exists {
			return nil, util.NewValidationError("courseCode already exists")
		}
	}

	course := &model.Course{
		Title:       req.Title,
		Description: req.Description,
		CourseCode:  code,
		Subject:     req.Subject,
		Language:    req.Language,
		Thumbnail:   req.Thumbnail,
		Published:   req.Published,
		TeacherID:   identity.UserID,
	}
	for i, m := range req.Modules {
		course.Modules = append(course.Modules, model.Module{Title: m.Title, Order: i + 1})
	}

	if err := s.CourseRepo.Create(ctx, course); err != nil {
		return nil, storeErr(err, "create course")
	}
	logger.Log.Info("Course created",
		zap.String("course_id", course.ID),
		zap.String("teacher_id", course.TeacherID),
		zap.Int("modules", len(course.Modules)),
	)
	return course, nil
}

// authorizeCourse 课程不存在返回 ErrNotFound，非所有者返回 ErrForbidden
func (s *CourseService) authorizeCourse(ctx context.Context, identity *model.Identity, courseID string) error {
	if err := requireIdentity(identity); err != nil {
		return err
	}
	if _, err := s.CourseRepo.FindOwnerID(ctx, courseID); err != nil {
		return storeErr(err, "find course")
	}
	if !s.Ownership.VerifyCourseOwnership(ctx, identity, courseID) {
		return util.ErrForbidden
	}
	return nil
}

func (s *CourseService) UpdateCourse(ctx context.Context, identity *model.Identity, courseID string, req UpdateCourseRequest) (*model.Course, error) {
	if err := s.authorizeCourse(ctx, identity, courseID); err != nil {
		return nil, err
	}
	if err := util.ValidateStruct(&req); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if req.Title != nil {
		updates["title"] = *req.Title
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.CourseCode != nil {
		code := strings.TrimSpace(*req.CourseCode)
		if len(code) < 2 {
			return nil, util.NewValidationError("courseCode must be at least 2 characters in length")
		}
		current, err := s.CourseRepo.FindByID(ctx, courseID)
		if err != nil {
			return nil, storeErr(err, "find course")
		}
		if code != current.CourseCode {
			exists, err := s.CourseRepo.CodeExists(ctx, code)
			if err != nil {
				return nil, errors.Wrap(err, "check course code")
			}
			if exists {
				return nil, util.NewValidationError("courseCode already exists")
			}
			updates["course_code"] = code
		}
	}
	if req.Subject != nil {
		updates["subject"] = *req.Subject
	}
	if req.Language != nil {
		updates["language"] = *req.Language
	}
	if req.Thumbnail != nil {
		updates["thumbnail"] = *req.Thumbnail
	}
	if req.Published != nil {
		updates["published"] = *req.Published
	}

	course, err := s.CourseRepo.Update(ctx, courseID, updates)
	if err != nil {
		return nil, storeErr(err, "update course")
	}
	return course, nil
}

func (s *CourseService) DeleteCourse(ctx context.Context, identity *model.Identity, courseID string) (*model.Course, error) {
	if err := s.authorizeCourse(ctx, identity, courseID); err != nil {
		return nil, err
	}
	course, err := s.CourseRepo.Delete(ctx, courseID)
	if err != nil {
		return nil, storeErr(err, "delete course")
	}
	logger.Log.Info("Course deleted", zap.String("course_id", courseID), zap.String("by", identity.UserID))
	return course, nil
}

// GetCourseWithContent 模块与内容按 order 升序；对无权查看者隐藏未发布课程
func (s *CourseService) GetCourseWithContent(ctx context.Context, identity *model.Identity, courseID string) (*model.Course, error) {
	course, err := s.CourseRepo.FindWithContent(ctx, courseID)
	if err != nil {
		return nil, storeErr(err, "get course with content")
	}
	if !canView(identity, course) {
		return nil, util.ErrNotFound
	}
	count, err := s.EnrollmentRepo.CountByCourse(ctx, courseID)
	if err != nil {
		logger.Log.Warn("Failed to count enrollments", zap.String("course_id", courseID), zap.Error(err))
	} else {
		course.EnrollmentCount = count
	}
	return course, nil
}

// ListCourses TEACHER 看自己的课程，ADMIN 看全部或指定教师，USER 看已选课程
func (s *CourseService) ListCourses(ctx context.Context, identity *model.Identity, facultyID string) ([]model.Course, error) {
	if err := requireIdentity(identity); err != nil {
		return nil, err
	}

	var (
		courses []model.Course
		err     error
	)
	switch identity.Role {
	case model.RoleTeacher:
		courses, err = s.CourseRepo.ListByTeacher(ctx, identity.UserID)
	case model.RoleAdmin:
		courses, err = s.CourseRepo.ListByTeacher(ctx, facultyID)
	case model.RoleUser:
		var enrollments []model.Enrollment
		enrollments, err = s.EnrollmentRepo.ListByUser(ctx, identity.UserID)
		for _, e := range enrollments {
			if e.Course != nil {
				courses = append(courses, *e.Course)
			}
		}
	default:
		return nil, util.ErrForbidden
	}
	if err != nil {
		return nil, storeErr(err, "list courses")
	}
	if courses == nil {
		courses = []model.Course{}
	}
	return courses, nil
}

func (s *CourseService) AddModule(ctx context.Context, identity *model.Identity, courseID string, req ModuleInput) (*model.Module, error) {
	if err := s.authorizeCourse(ctx, identity, courseID); err != nil {
		return nil, err
	}
	if err := util.ValidateStruct(&req); err != nil {
		return nil, err
	}

	module := &model.Module{Title: req.Title, CourseID: courseID}
	if err := s.ModuleRepo.Append(ctx, module); err != nil {
		return nil, storeErr(err, "add module")
	}
	return module, nil
}

// authorizeModule 模块不存在返回 ErrNotFound，非所有者返回 ErrForbidden
func (s *CourseService) authorizeModule(ctx context.Context, identity *model.Identity, moduleID string) (*model.Module, error) {
	if err := requireIdentity(identity); err != nil {
		return nil, err
	}
	module, err := s.ModuleRepo.FindByID(ctx, moduleID)
	if err != nil {
		return nil, storeErr(err, "find module")
	}
	if !s.Ownership.VerifyOwnership(ctx, identity, "", moduleID) {
		return nil, util.ErrForbidden
	}
	return module, nil
}

func (s *CourseService) UpdateModule(ctx context.Context, identity *model.Identity, moduleID string, req UpdateModuleRequest) (*model.Module, error) {
	module, err := s.authorizeModule(ctx, identity, moduleID)
	if err != nil {
		return nil, err
	}
	if err := util.ValidateStruct(&req); err != nil {
		return nil, err
	}
	if req.Title == nil {
		return module, nil
	}
	module, err = s.ModuleRepo.UpdateTitle(ctx, moduleID, *req.Title)
	if err != nil {
		return nil, storeErr(err, "update module")
	}
	return module, nil
}

func (s *CourseService) DeleteModule(ctx context.Context, identity *model.Identity, moduleID string) (*model.Module, error) {
	if _, err := s.authorizeModule(ctx, identity, moduleID); err != nil {
		return nil, err
	}
	module, err := s.ModuleRepo.Delete(ctx, moduleID, s.RenumberOnDelete())
	if err != nil {
		return nil, storeErr(err, "delete module")
	}
	return module, nil
}

// ReorderModules ids 必须是课程现有模块的一个排列
func (s *CourseService) ReorderModules(ctx context.Context, identity *model.Identity, courseID string, req ReorderModulesRequest) ([]model.Module, error) {
	if err := s.authorizeCourse(ctx, identity, courseID); err != nil {
		return nil, err
	}
	if err := util.ValidateStruct(&req); err != nil {
		return nil, err
	}
	modules, err := s.ModuleRepo.Reorder(ctx, courseID, req.ModuleIDs)
	if errors.Is(err, repository.ErrInvalidOrder) {
		return nil, util.NewValidationError("moduleIds must list every module of the course exactly once")
	}
	if err != nil {
		return nil, storeErr(err, "reorder modules")
	}
	return modules, nil
}

func (s *CourseService) AddContentItem(ctx context.Context, identity *model.Identity, moduleID string, req ContentItemRequest) (*model.ContentItem, error) {
	if _, err := s.authorizeModule(ctx, identity, moduleID); err != nil {
		return nil, err
	}
	if err := util.ValidateStruct(&req); err != nil {
		return nil, err
	}
	contentType, err := model.ParseContentType(req.Type)
	if err != nil {
		return nil, util.NewValidationError(err.Error())
	}

	item := &model.ContentItem{
		Title:       req.Title,
		Description: req.Description,
		Type:        contentType,
		FileURL:     req.FileURL,
		ModuleID:    moduleID,
	}
	if err := s.ContentItemRepo.Append(ctx, item); err != nil {
		return nil, storeErr(err, "add content item")
	}
	return item, nil
}

func (s *CourseService) authorizeContentItem(ctx context.Context, identity *model.Identity, itemID string) error {
	if err := requireIdentity(identity); err != nil {
		return err
	}
	if _, err := s.ContentItemRepo.FindByID(ctx, itemID); err != nil {
		return storeErr(err, "find content item")
	}
	if !s.Ownership.VerifyOwnership(ctx, identity, itemID, "") {
		return util.ErrForbidden
	}
	return nil
}

func (s *CourseService) UpdateContentItem(ctx context.Context, identity *model.Identity, itemID string, req UpdateContentItemRequest) (*model.ContentItem, error) {
	if err := s.authorizeContentItem(ctx, identity, itemID); err != nil {
		return nil, err
	}
	if err := util.ValidateStruct(&req); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if req.Title != nil {
		updates["title"] = *req.Title
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Type != nil {
		contentType, err := model.ParseContentType(*req.Type)
		if err != nil {
			return nil, util.NewValidationError(err.Error())
		}
		updates["type"] = contentType
	}
	if req.FileURL != nil {
		updates["file_url"] = *req.FileURL
	}

	item, err := s.ContentItemRepo.Update(ctx, itemID, updates)
	if err != nil {
		return nil, storeErr(err, "update content item")
	}
	return item, nil
}

func (s *CourseService) DeleteContentItem(ctx context.Context, identity *model.Identity, itemID string) (*model.ContentItem, error) {
	if err := s.authorizeContentItem(ctx, identity, itemID); err != nil {
		return nil, err
	}
	item, err := s.ContentItemRepo.Delete(ctx, itemID, s.RenumberOnDelete())
	if err != nil {
		return nil, storeErr(err, "delete content item")
	}
	return item, nil
}
