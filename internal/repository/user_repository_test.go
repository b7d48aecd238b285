package repository

import (
	"context"
	"testing"

	"lms_backend/internal/model"
	"lms_backend/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestFacultyLifecycle(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	user := &model.User{Name: "Ada Lovelace", Email: "ada@example.com", Role: model.RoleTeacher}
	profile := &model.TeacherProfile{FirstName: "Ada", LastName: "Lovelace", Department: "CS", Position: "Lecturer"}
	require.NoError(t, repo.CreateFaculty(ctx, user, profile))
	assert.Equal(t, user.ID, profile.UserID)

	testutil.CreateCourse(t, db, user.ID, "Engines", "", true)
	testutil.CreateCourse(t, db, user.ID, "Notes", "", false)

	rows, err := repo.ListFaculties(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Ada", rows[0].FirstName)
	assert.Equal(t, int64(2), rows[0].CourseCount)

	updated, err := repo.UpdateFaculty(ctx, user.ID,
		map[string]interface{}{"name": "Countess"},
		map[string]interface{}{"department": "Maths"})
	require.NoError(t, err)
	assert.Equal(t, "Countess", updated.Name)
	require.NotNil(t, updated.TeacherProfile)
	assert.Equal(t, "Maths", updated.TeacherProfile.Department)

	require.NoError(t, repo.DeleteFaculty(ctx, user.ID))
	var n int64
	db.Model(&model.Course{}).Count(&n)
	assert.Zero(t, n)
	db.Model(&model.TeacherProfile{}).Count(&n)
	assert.Zero(t, n)

	assert.ErrorIs(t, repo.DeleteFaculty(ctx, user.ID), gorm.ErrRecordNotFound)
}

func TestPromoteToFaculty(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()
	learner := testutil.CreateUser(t, db, model.RoleUser)

	require.NoError(t, repo.PromoteToFaculty(ctx, learner, "hash", &model.TeacherProfile{FirstName: "New"}))

	got, err := repo.FindByID(ctx, learner.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RoleTeacher, got.Role)
	assert.Equal(t, "hash", got.HashedPassword)
	require.NotNil(t, got.TeacherProfile)
	assert.Equal(t, "New", got.TeacherProfile.FirstName)
}
