package util

import (
	"errors"
	"lms_backend/internal/model"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const identityKey = "identity"

type Claims struct {
	UserID string     `json:"user_id"`
	Role   model.Role `json:"role"`
	Email  string     `json:"email"`
	jwt.RegisteredClaims
}

func GenerateJWT(user *model.User, secret string, expiration time.Duration) (string, error) {
	now := time.Now()

	claims := &Claims{
		UserID: user.ID,
		Role:   user.Role,
		Email:  user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiration)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func ParseJWT(tokenString, secret string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	if !claims.Role.Valid() {
		return nil, errors.New("invalid role in token")
	}
	return claims, nil
}

func (c *Claims) Identity() *model.Identity {
	return &model.Identity{UserID: c.UserID, Role: c.Role}
}

func SetIdentity(c *gin.Context, claims *Claims) {
	c.Set(identityKey, claims)
}

// GetClaimsFromContext 未认证时返回 nil
func GetClaimsFromContext(c *gin.Context) *Claims {
	v, exists := c.Get(identityKey)
	if !exists {
		return nil
	}
	claims, ok := v.(*Claims)
	if !ok {
		return nil
	}
	return claims
}

// GetIdentity 未认证时返回 nil
func GetIdentity(c *gin.Context) *model.Identity {
	claims := GetClaimsFromContext(c)
	if claims == nil {
		return nil
	}
	return claims.Identity()
}
