package service

import (
	"context"
	"testing"

	"lms_backend/internal/model"
	"lms_backend/internal/repository"
	"lms_backend/internal/testutil"
	"lms_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func facultyRequest(email string) AddFacultyRequest {
	return AddFacultyRequest{
		FirstName:         "Barbara",
		LastName:          "Liskov",
		Email:             email,
		Password:          "substitution",
		Phone:             "0123456789",
		Department:        "EECS",
		Subject:           "Programming",
		Position:          "Professor",
		YearsOfExperience: 40,
	}
}

func TestAddFaculty(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewFacultyService(repository.NewUserRepository(db))
	admin := testutil.CreateUser(t, db, model.RoleAdmin)
	ctx := context.Background()

	user, created, err := svc.AddFaculty(ctx, admin.Identity(), facultyRequest("barbara@example.com"))
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, model.RoleTeacher, user.Role)
	assert.Equal(t, "Barbara Liskov", user.Name)
	require.NotNil(t, user.TeacherProfile)
	assert.Equal(t, "EECS", user.TeacherProfile.Department)

	_, _, err = svc.AddFaculty(ctx, admin.Identity(), facultyRequest("barbara@example.com"))
	assert.ErrorIs(t, err, util.ErrAlreadyTeacher)

	learner := testutil.CreateUser(t, db, model.RoleUser)
	promoted, created, err := svc.AddFaculty(ctx, admin.Identity(), facultyRequest(learner.Email))
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, model.RoleTeacher, promoted.Role)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(promoted.HashedPassword), []byte("substitution")))

	rows, err := svc.ListFaculties(ctx, admin.Identity())
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestAddFacultyRequiresAdminAndValidInput(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewFacultyService(repository.NewUserRepository(db))
	teacher := testutil.CreateUser(t, db, model.RoleTeacher)
	admin := testutil.CreateUser(t, db, model.RoleAdmin)
	ctx := context.Background()

	_, _, err := svc.AddFaculty(ctx, teacher.Identity(), facultyRequest("x@example.com"))
	assert.ErrorIs(t, err, util.ErrForbidden)
	_, _, err = svc.AddFaculty(ctx, nil, facultyRequest("x@example.com"))
	assert.ErrorIs(t, err, util.ErrUnauthorized)

	req := facultyRequest("x@example.com")
	req.Phone = "123"
	req.YearsOfExperience = -1
	_, _, err = svc.AddFaculty(ctx, admin.Identity(), req)
	var ve *util.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Len(t, ve.Messages, 2)
}

func TestUpdateAndDeleteFaculty(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewFacultyService(repository.NewUserRepository(db))
	admin := testutil.CreateUser(t, db, model.RoleAdmin)
	ctx := context.Background()

	user, _, err := svc.AddFaculty(ctx, admin.Identity(), facultyRequest("barbara@example.com"))
	require.NoError(t, err)
	testutil.CreateCourse(t, db, user.ID, "CLU", "", true)

	_, err = svc.UpdateFaculty(ctx, admin.Identity(), user.ID, UpdateFacultyRequest{})
	assert.True(t, util.IsValidationError(err))

	years := 41
	updated, err := svc.UpdateFaculty(ctx, admin.Identity(), user.ID, UpdateFacultyRequest{
		Name:              strPtr("B. Liskov"),
		YearsOfExperience: &years,
	})
	require.NoError(t, err)
	assert.Equal(t, "B. Liskov", updated.Name)
	assert.Equal(t, 41, updated.TeacherProfile.YearsOfExperience)

	_, err = svc.UpdateFaculty(ctx, admin.Identity(), admin.ID, UpdateFacultyRequest{Name: strPtr("Nope")})
	assert.ErrorIs(t, err, util.ErrNotFound)

	require.NoError(t, svc.DeleteFaculty(ctx, admin.Identity(), user.ID))
	assert.ErrorIs(t, svc.DeleteFaculty(ctx, admin.Identity(), user.ID), util.ErrNotFound)

	var courses int64
	db.Model(&model.Course{}).Count(&courses)
	assert.Zero(t, courses)
}
