package service

import (
	"context"
	"fmt"
	"lms_backend/internal/model"
	"lms_backend/internal/repository"
	"lms_backend/internal/util"
	"lms_backend/pkg/logger"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type AddFacultyRequest struct {
	FirstName         string `json:"firstName" validate:"required,min=2,max=100"`
	LastName          string `json:"lastName" validate:"required,min=2,max=100"`
	Email             string `json:"email" validate:"required,email"`
	Password          string `json:"password" validate:"required,min=8,max=72"`
	Phone             string `json:"phone" validate:"required,min=10,max=32"`
	Department        string `json:"department" validate:"required,min=2,max=100"`
	Subject           string `json:"subject" validate:"required,min=2,max=100"`
	Position          string `json:"position" validate:"required,min=2,max=100"`
	YearsOfExperience int    `json:"yearsOfExperience" validate:"gte=0"`
	ProfileImage      string `json:"profileImage" validate:"omitempty,url"`
}

// UpdateFacultyRequest 至少要有一个字段
type UpdateFacultyRequest struct {
	Email             *string `json:"email" validate:"omitempty,email"`
	Name              *string `json:"name" validate:"omitempty,min=1,max=100"`
	FirstName         *string `json:"firstName" validate:"omitempty,min=2,max=100"`
	LastName          *string `json:"lastName" validate:"omitempty,min=2,max=100"`
	Phone             *string `json:"phone" validate:"omitempty,min=10,max=32"`
	Department        *string `json:"department" validate:"omitempty,min=2,max=100"`
	Subject           *string `json:"subject" validate:"omitempty,min=2,max=100"`
	Position          *string `json:"position" validate:"omitempty,min=2,max=100"`
	YearsOfExperience *int    `json:"yearsOfExperience" validate:"omitempty,gte=0"`
	ProfileImage      *string `json:"profileImage" validate:"omitempty,url"`
}

type FacultyService struct {
	UserRepo *repository.UserRepository
}

func NewFacultyService(userRepo *repository.UserRepository) *FacultyService {
	return &FacultyService{UserRepo: userRepo}
}

func requireAdmin(identity *model.Identity) error {
	if identity == nil {
		return util.ErrUnauthorized
	}
	switch identity.Role {
	case model.RoleAdmin:
		return nil
	case model.RoleTeacher, model.RoleUser:
		return util.ErrForbidden
	default:
		return util.ErrForbidden
	}
}

func (s *FacultyService) ListFaculties(ctx context.Context, identity *model.Identity) ([]repository.FacultyRow, error) {
	if err := requireAdmin(identity); err != nil {
		return nil, err
	}
	rows, err := s.UserRepo.ListFaculties(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list faculties")
	}
	if rows == nil {
		rows = []repository.FacultyRow{}
	}
	return rows, nil
}

// AddFaculty 返回的 created 为 false 表示已有账号被升级为教师
func (s *FacultyService) AddFaculty(ctx context.Context, identity *model.Identity, req AddFacultyRequest) (*model.User, bool, error) {
	if err := requireAdmin(identity); err != nil {
		return nil, false, err
	}
	req.Email = normalizeEmail(req.Email)
	if err := util.ValidateStruct(&req); err != nil {
		return nil, false, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, false, errors.Wrap(err, "hash password")
	}
	profile := &model.TeacherProfile{
		FirstName:         req.FirstName,
		LastName:          req.LastName,
		Phone:             req.Phone,
		Department:        req.Department,
		Subject:           req.Subject,
		Position:          req.Position,
		YearsOfExperience: req.YearsOfExperience,
		ProfileImage:      req.ProfileImage,
	}
	name := fmt.Sprintf("%s %s", req.FirstName, req.LastName)

	existing, err := s.UserRepo.FindByEmail(ctx, req.Email)
	switch {
	case err == nil:
		if existing.Role == model.RoleTeacher {
			return nil, false, util.ErrAlreadyTeacher
		}
		if existing.Name == "" {
			existing.Name = name
		}
		if err := s.UserRepo.PromoteToFaculty(ctx, existing, string(hashed), profile); err != nil {
			return nil, false, errors.Wrap(err, "promote faculty")
		}
		logger.Log.Info("User promoted to teacher", zap.String("user_id", existing.ID))
		return existing, false, nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, false, errors.Wrap(err, "find user by email")
	}

	user := &model.User{
		Name:           name,
		Email:          req.Email,
		HashedPassword: string(hashed),
		Role:           model.RoleTeacher,
	}
	if err := s.UserRepo.CreateFaculty(ctx, user, profile); err != nil {
		return nil, false, errors.Wrap(err, "create faculty")
	}
	logger.Log.Info("Faculty created", zap.String("user_id", user.ID))
	return user, true, nil
}

func (s *FacultyService) UpdateFaculty(ctx context.Context, identity *model.Identity, teacherID string, req UpdateFacultyRequest) (*model.User, error) {
	if err := requireAdmin(identity); err != nil {
		return nil, err
	}
	if req.Email != nil {
		e := normalizeEmail(*req.Email)
		req.Email = &e
	}
	if err := util.ValidateStruct(&req); err != nil {
		return nil, err
	}

	userUpdates := map[string]interface{}{}
	profileUpdates := map[string]interface{}{}
	if req.Email != nil {
		other, err := s.UserRepo.FindByEmail(ctx, *req.Email)
		if err == nil && other.ID != teacherID {
			return nil, util.ErrEmailRegistered
		} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.Wrap(err, "find user by email")
		}
		userUpdates["email"] = *req.Email
	}
	if req.Name != nil {
		userUpdates["name"] = *req.Name
	}
	if req.FirstName != nil {
		profileUpdates["first_name"] = *req.FirstName
	}
	if req.LastName != nil {
		profileUpdates["last_name"] = *req.LastName
	}
	if req.Phone != nil {
		profileUpdates["phone"] = *req.Phone
	}
	if req.Department != nil {
		profileUpdates["department"] = *req.Department
	}
	if req.Subject != nil {
		profileUpdates["subject"] = *req.Subject
	}
	if req.Position != nil {
		profileUpdates["position"] = *req.Position
	}
	if req.YearsOfExperience != nil {
		profileUpdates["years_of_experience"] = *req.YearsOfExperience
	}
	if req.ProfileImage != nil {
		profileUpdates["profile_image"] = *req.ProfileImage
	}
	if len(userUpdates) == 0 && len(profileUpdates) == 0 {
		return nil, util.NewValidationError("At least one field must be provided for update")
	}

	user, err := s.UserRepo.UpdateFaculty(ctx, teacherID, userUpdates, profileUpdates)
	if err != nil {
		return nil, storeErr(err, "update faculty")
	}
	return user, nil
}

func (s *FacultyService) DeleteFaculty(ctx context.Context, identity *model.Identity, teacherID string) error {
	if err := requireAdmin(identity); err != nil {
		return err
	}
	if err := s.UserRepo.DeleteFaculty(ctx, teacherID); err != nil {
		return storeErr(err, "delete faculty")
	}
	logger.Log.Info("Faculty deleted", zap.String("user_id", teacherID), zap.String("by", identity.UserID))
	return nil
}
