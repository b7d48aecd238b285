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
)

func TestEnrollIsIdempotent(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewEnrollmentService(repository.NewEnrollmentRepository(db), repository.NewCourseRepository(db))
	teacher := testutil.CreateUser(t, db, model.RoleTeacher)
	learner := testutil.CreateUser(t, db, model.RoleUser)
	course := testutil.CreateCourse(t, db, teacher.ID, "Go", "", true)
	ctx := context.Background()

	first, err := svc.Enroll(ctx, learner.Identity(), EnrollRequest{CourseID: course.ID})
	require.NoError(t, err)
	second, err := svc.Enroll(ctx, learner.Identity(), EnrollRequest{CourseID: course.ID})
	require.NoError(t, err)

	assert.Equal(t, first.UserID, second.UserID)
	assert.Equal(t, first.CourseID, second.CourseID)
	assert.True(t, first.CreatedAt.Equal(second.CreatedAt))

	var count int64
	db.Model(&model.Enrollment{}).Count(&count)
	assert.Equal(t, int64(1), count)

	ok, err := svc.IsEnrolled(ctx, learner.Identity(), course.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	courses, err := svc.ListEnrolledCourses(ctx, learner.Identity())
	require.NoError(t, err)
	require.Len(t, courses, 1)
	assert.Equal(t, course.ID, courses[0].ID)
}

func TestReenrollAfterCourseUnpublished(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewEnrollmentService(repository.NewEnrollmentRepository(db), repository.NewCourseRepository(db))
	teacher := testutil.CreateUser(t, db, model.RoleTeacher)
	learner := testutil.CreateUser(t, db, model.RoleUser)
	newcomer := testutil.CreateUser(t, db, model.RoleUser)
	course := testutil.CreateCourse(t, db, teacher.ID, "Go", "", true)
	ctx := context.Background()

	first, err := svc.Enroll(ctx, learner.Identity(), EnrollRequest{CourseID: course.ID})
	require.NoError(t, err)

	require.NoError(t, db.Model(&model.Course{}).Where("id = ?", course.ID).Update("published", false).Error)

	second, err := svc.Enroll(ctx, learner.Identity(), EnrollRequest{CourseID: course.ID})
	require.NoError(t, err)
	require.NotNil(t, second)
	assert.Equal(t, first.UserID, second.UserID)
	assert.True(t, first.CreatedAt.Equal(second.CreatedAt))

	// 新的选课仍然要求课程已发布
	_, err = svc.Enroll(ctx, newcomer.Identity(), EnrollRequest{CourseID: course.ID})
	assert.ErrorIs(t, err, util.ErrNotFound)

	var count int64
	db.Model(&model.Enrollment{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestEnrollRejections(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewEnrollmentService(repository.NewEnrollmentRepository(db), repository.NewCourseRepository(db))
	teacher := testutil.CreateUser(t, db, model.RoleTeacher)
	learner := testutil.CreateUser(t, db, model.RoleUser)
	draft := testutil.CreateCourse(t, db, teacher.ID, "Draft", "", false)
	ctx := context.Background()

	_, err := svc.Enroll(ctx, nil, EnrollRequest{CourseID: draft.ID})
	assert.ErrorIs(t, err, util.ErrUnauthorized)

	_, err = svc.Enroll(ctx, learner.Identity(), EnrollRequest{})
	assert.True(t, util.IsValidationError(err))

	_, err = svc.Enroll(ctx, learner.Identity(), EnrollRequest{CourseID: "missing"})
	assert.ErrorIs(t, err, util.ErrNotFound)

	_, err = svc.Enroll(ctx, learner.Identity(), EnrollRequest{CourseID: draft.ID})
	assert.ErrorIs(t, err, util.ErrNotFound)
}
