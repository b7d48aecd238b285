package service

import (
	"context"
	"testing"
	"time"

	"lms_backend/internal/config"
	"lms_backend/internal/model"
	"lms_backend/internal/repository"
	"lms_backend/internal/testutil"
	"lms_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-that-is-long-enough-for-hs256"

func newAuthService(t *testing.T) *AuthService {
	db := testutil.NewDB(t)
	cfg := &config.Config{}
	cfg.JWT.Secret = testSecret
	cfg.JWT.ExpireTime = time.Hour
	return NewAuthService(repository.NewUserRepository(db), NewMemoryRevocationStore(), cfg)
}

func TestRegisterAndLogin(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterRequest{Name: "Grace", Email: " Grace@Example.com ", Password: "hopper1234"})
	require.NoError(t, err)
	assert.Equal(t, model.RoleUser, user.Role)
	assert.Equal(t, "grace@example.com", user.Email)
	assert.NotEqual(t, "hopper1234", user.HashedPassword)

	_, err = svc.Register(ctx, RegisterRequest{Name: "Grace", Email: "grace@example.com", Password: "hopper1234"})
	assert.ErrorIs(t, err, util.ErrEmailRegistered)

	_, err = svc.Register(ctx, RegisterRequest{Name: "", Email: "bad", Password: "short"})
	var ve *util.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Len(t, ve.Messages, 3)

	res, err := svc.Login(ctx, LoginRequest{Email: "grace@example.com", Password: "hopper1234"})
	require.NoError(t, err)
	claims, err := util.ParseJWT(res.Token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, model.RoleUser, claims.Role)

	_, err = svc.Login(ctx, LoginRequest{Email: "grace@example.com", Password: "wrongpass"})
	assert.ErrorIs(t, err, util.ErrInvalidCredentials)
	_, err = svc.Login(ctx, LoginRequest{Email: "nobody@example.com", Password: "hopper1234"})
	assert.ErrorIs(t, err, util.ErrInvalidCredentials)

	me, err := svc.CurrentUser(ctx, claims.Identity())
	require.NoError(t, err)
	assert.Equal(t, "Grace", me.Name)
}

func TestLogoutRevokesToken(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterRequest{Name: "Alan", Email: "alan@example.com", Password: "turing1234"})
	require.NoError(t, err)
	res, err := svc.Login(ctx, LoginRequest{Email: "alan@example.com", Password: "turing1234"})
	require.NoError(t, err)
	claims, err := util.ParseJWT(res.Token, testSecret)
	require.NoError(t, err)

	revoked, err := svc.IsRevoked(ctx, claims.ID)
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, svc.Logout(ctx, claims))
	revoked, err = svc.IsRevoked(ctx, claims.ID)
	require.NoError(t, err)
	assert.True(t, revoked)

	assert.ErrorIs(t, svc.Logout(ctx, nil), util.ErrUnauthorized)
}

func TestMemoryRevocationStoreExpires(t *testing.T) {
	store := NewMemoryRevocationStore()
	ctx := context.Background()

	require.NoError(t, store.Revoke(ctx, "past", time.Now().Add(-time.Minute)))
	ok, _ := store.IsRevoked(ctx, "past")
	assert.False(t, ok)

	require.NoError(t, store.Revoke(ctx, "future", time.Now().Add(time.Minute)))
	ok, _ = store.IsRevoked(ctx, "future")
	assert.True(t, ok)
}

func TestNewRevocationStoreFallsBackToMemory(t *testing.T) {
	_, ok := NewRevocationStore(nil).(*MemoryRevocationStore)
	assert.True(t, ok)
}
