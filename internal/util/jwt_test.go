package util

import (
	"testing"
	"time"

	"lms_backend/internal/model"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndParseJWT(t *testing.T) {
	user := &model.User{Email: "t1@example.com", Role: model.RoleTeacher}
	user.ID = "user-1"

	token, err := GenerateJWT(user, "secret", time.Hour)
	require.NoError(t, err)

	claims, err := ParseJWT(token, "secret")
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, model.RoleTeacher, claims.Role)
	assert.NotEmpty(t, claims.ID)
	assert.Equal(t, &model.Identity{UserID: "user-1", Role: model.RoleTeacher}, claims.Identity())

	_, err = ParseJWT(token, "other-secret")
	assert.Error(t, err)
}

func TestParseJWTExpired(t *testing.T) {
	user := &model.User{Role: model.RoleUser}
	user.ID = "u"
	token, err := GenerateJWT(user, "secret", -time.Minute)
	require.NoError(t, err)

	_, err = ParseJWT(token, "secret")
	assert.Error(t, err)
}

func TestParseJWTRejectsUnknownRole(t *testing.T) {
	claims := &Claims{
		UserID: "u",
		Role:   model.Role("SUPERUSER"),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = ParseJWT(token, "secret")
	assert.Error(t, err)
}
