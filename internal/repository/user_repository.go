package repository

import (
	"context"
	"lms_backend/internal/model"

	"gorm.io/gorm"
)

type UserRepository struct {
	DB *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{DB: db}
}

func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	return r.DB.WithContext(ctx).Create(user).Error
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	err := r.DB.WithContext(ctx).Preload("TeacherProfile").First(&user, "id = ?", id).Error
	return &user, err
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	err := r.DB.WithContext(ctx).Preload("TeacherProfile").Where("email = ?", email).First(&user).Error
	return &user, err
}

// FacultyRow 教师列表的扁平结构
type FacultyRow struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	Email             string `json:"email"`
	FirstName         string `json:"firstName"`
	LastName          string `json:"lastName"`
	Phone             string `json:"phone"`
	Department        string `json:"department"`
	Subject           string `json:"subject"`
	Position          string `json:"position"`
	YearsOfExperience int    `json:"yearsOfExperience"`
	ProfileImage      string `json:"profileImage,omitempty"`
	CourseCount       int64  `json:"courseCount"`
}

// ListFaculties 所有 TEACHER 及其档案和课程数
func (r *UserRepository) ListFaculties(ctx context.Context) ([]FacultyRow, error) {
	counts := r.DB.WithContext(ctx).
		Model(&model.Course{}).
		Select("teacher_id, COUNT(*) AS course_count").
		Group("teacher_id")

	var rows []FacultyRow
	err := r.DB.WithContext(ctx).
		Table("users").
		Select(`users.id, users.name, users.email,
			teacher_profiles.first_name, teacher_profiles.last_name, teacher_profiles.phone,
			teacher_profiles.department, teacher_profiles.subject, teacher_profiles.position,
			teacher_profiles.years_of_experience, teacher_profiles.profile_image,
			COALESCE(cc.course_count, 0) AS course_count`).
		Joins("LEFT JOIN teacher_profiles ON teacher_profiles.user_id = users.id").
		Joins("LEFT JOIN (?) AS cc ON cc.teacher_id = users.id", counts).
		Where("users.role = ?", model.RoleTeacher).
		Order("users.created_at DESC").
		Scan(&rows).Error
	return rows, err
}

// CreateFaculty 新建教师账号和档案
func (r *UserRepository) CreateFaculty(ctx context.Context, user *model.User, profile *model.TeacherProfile) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("TeacherProfile").Create(user).Error; err != nil {
			return err
		}
		profile.UserID = user.ID
		if err := tx.Create(profile).Error; err != nil {
			return err
		}
		user.TeacherProfile = profile
		return nil
	})
}

// PromoteToFaculty 已有账号升级为教师，重置密码并写入档案
func (r *UserRepository) PromoteToFaculty(ctx context.Context, user *model.User, hashedPassword string, profile *model.TeacherProfile) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.User{}).Where("id = ?", user.ID).Updates(map[string]interface{}{
			"role":            model.RoleTeacher,
			"hashed_password": hashedPassword,
			"name":            user.Name,
		}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", user.ID).Delete(&model.TeacherProfile{}).Error; err != nil {
			return err
		}
		profile.UserID = user.ID
		if err := tx.Create(profile).Error; err != nil {
			return err
		}
		user.Role = model.RoleTeacher
		user.HashedPassword = hashedPassword
		user.TeacherProfile = profile
		return nil
	})
}

// UpdateFaculty 用户和档案在同一事务里更新
func (r *UserRepository) UpdateFaculty(ctx context.Context, userID string, userUpdates, profileUpdates map[string]interface{}) (*model.User, error) {
	var user model.User
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("role = ?", model.RoleTeacher).First(&user, "id = ?", userID).Error; err != nil {
			return err
		}
		if len(userUpdates) > 0 {
			if err := tx.Model(&model.User{}).Where("id = ?", userID).Updates(userUpdates).Error; err != nil {
				return err
			}
		}
		if len(profileUpdates) > 0 {
			res := tx.Model(&model.TeacherProfile{}).Where("user_id = ?", userID).Updates(profileUpdates)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				profile := model.TeacherProfile{UserID: userID}
				if err := tx.Create(&profile).Error; err != nil {
					return err
				}
				if err := tx.Model(&profile).Updates(profileUpdates).Error; err != nil {
					return err
				}
			}
		}
		return tx.Preload("TeacherProfile").First(&user, "id = ?", userID).Error
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// DeleteFaculty 删除档案、名下课程（级联）以及用户本身
func (r *UserRepository) DeleteFaculty(ctx context.Context, userID string) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user model.User
		if err := tx.Where("role = ?", model.RoleTeacher).First(&user, "id = ?", userID).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", userID).Delete(&model.TeacherProfile{}).Error; err != nil {
			return err
		}
		var courseIDs []string
		if err := tx.Model(&model.Course{}).Where("teacher_id = ?", userID).Pluck("id", &courseIDs).Error; err != nil {
			return err
		}
		if err := deleteCourseTree(tx, courseIDs); err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", userID).Delete(&model.Enrollment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.User{}, "id = ?", userID).Error
	})
}
