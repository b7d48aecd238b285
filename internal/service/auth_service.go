package service

import (
	"context"
	"lms_backend/internal/config"
	"lms_backend/internal/model"
	"lms_backend/internal/repository"
	"lms_backend/internal/util"
	"lms_backend/pkg/logger"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type RegisterRequest struct {
	Name     string `json:"name" validate:"required,min=1,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type LoginResult struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expiresAt"`
	User      *model.User `json:"user"`
}

type AuthService struct {
	UserRepo    *repository.UserRepository
	Revocations RevocationStore
	Cfg         *config.Config
}

func NewAuthService(userRepo *repository.UserRepository, revocations RevocationStore, cfg *config.Config) *AuthService {
	return &AuthService{
		UserRepo:    userRepo,
		Revocations: revocations,
		Cfg:         cfg,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register 自助注册只能得到 USER 角色
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*model.User, error) {
	req.Email = normalizeEmail(req.Email)
	if err := util.ValidateStruct(&req); err != nil {
		return nil, err
	}

	_, err := s.UserRepo.FindByEmail(ctx, req.Email)
	if err == nil {
		return nil, util.ErrEmailRegistered
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.Wrap(err, "find user by email")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.Wrap(err, "hash password")
	}

	user := &model.User{
		Name:           req.Name,
		Email:          req.Email,
		HashedPassword: string(hashedPassword),
		Role:           model.RoleUser,
	}
	if err := s.UserRepo.Create(ctx, user); err != nil {
		return nil, errors.Wrap(err, "create user")
	}
	return user, nil
}

func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	req.Email = normalizeEmail(req.Email)
	if err := util.ValidateStruct(&req); err != nil {
		return nil, err
	}

	user, err := s.UserRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrInvalidCredentials
		}
		return nil, errors.Wrap(err, "find user by email")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(req.Password)); err != nil {
		return nil, util.ErrInvalidCredentials
	}

	expire := s.Cfg.JWT.ExpireTime
	if expire <= 0 {
		expire = 24 * time.Hour
	}
	token, err := util.GenerateJWT(user, s.Cfg.JWT.Secret, expire)
	if err != nil {
		return nil, errors.Wrap(err, "sign token")
	}

	return &LoginResult{
		Token:     token,
		ExpiresAt: time.Now().Add(expire),
		User:      user,
	}, nil
}

// Logout 把当前 token 的 jti 加入注销列表
func (s *AuthService) Logout(ctx context.Context, claims *util.Claims) error {
	if claims == nil {
		return util.ErrUnauthorized
	}
	if claims.ID == "" || claims.ExpiresAt == nil {
		return nil
	}
	if err := s.Revocations.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return errors.Wrap(err, "revoke token")
	}
	logger.Log.Debug("Token revoked", zap.String("user_id", claims.UserID))
	return nil
}

func (s *AuthService) IsRevoked(ctx context.Context, jti string) (bool, error) {
	if jti == "" {
		return false, nil
	}
	return s.Revocations.IsRevoked(ctx, jti)
}

func (s *AuthService) CurrentUser(ctx context.Context, identity *model.Identity) (*model.User, error) {
	if identity == nil {
		return nil, util.ErrUnauthorized
	}
	user, err := s.UserRepo.FindByID(ctx, identity.UserID)
	if err != nil {
		return nil, storeErr(err, "find current user")
	}
	return user, nil
}
