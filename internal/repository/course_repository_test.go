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

func titles(courses []model.Course) []string {
	out := make([]string, 0, len(courses))
	for _, c := range courses {
		out = append(out, c.Title)
	}
	return out
}

func TestSearchOnlyPublishedAndCaseInsensitive(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewCourseRepository(db)
	teacher := testutil.CreateUser(t, db, model.RoleTeacher)

	testutil.CreateCourse(t, db, teacher.ID, "Algorithms I", "CS-101", true)
	testutil.CreateCourse(t, db, teacher.ID, "Data Structures", "ALGO-2", true)
	testutil.CreateCourse(t, db, teacher.ID, "Advanced Algorithms", "CS-301", false)
	testutil.CreateCourse(t, db, teacher.ID, "Cooking", "HOME-1", true)

	courses, total, err := repo.Search(context.Background(), CatalogFilter{
		Query:  "aLgO",
		SortBy: SortTitle,
		Limit:  10,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Equal(t, []string{"Algorithms I", "Data Structures"}, titles(courses))
}

func TestSearchEscapesWildcards(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewCourseRepository(db)
	teacher := testutil.CreateUser(t, db, model.RoleTeacher)

	testutil.CreateCourse(t, db, teacher.ID, "100% Go", "GO-1", true)
	testutil.CreateCourse(t, db, teacher.ID, "100 Go tips", "GO-2", true)

	courses, total, err := repo.Search(context.Background(), CatalogFilter{Query: "100%", Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, []string{"100% Go"}, titles(courses))
}

func TestSearchCountIgnoresPagination(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewCourseRepository(db)
	teacher := testutil.CreateUser(t, db, model.RoleTeacher)
	other := testutil.CreateUser(t, db, model.RoleTeacher)

	for _, title := range []string{"A", "B", "C", "D", "E"} {
		testutil.CreateCourse(t, db, teacher.ID, title, "", true)
	}
	testutil.CreateCourse(t, db, other.ID, "F", "", true)

	courses, total, err := repo.Search(context.Background(), CatalogFilter{
		TeacherID: teacher.ID,
		SortBy:    SortTitle,
		Offset:    2,
		Limit:     2,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	assert.Equal(t, []string{"C", "D"}, titles(courses))
}

func TestSearchSortsByEnrollmentCount(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewCourseRepository(db)
	teacher := testutil.CreateUser(t, db, model.RoleTeacher)

	small := testutil.CreateCourse(t, db, teacher.ID, "Small", "", true)
	big := testutil.CreateCourse(t, db, teacher.ID, "Big", "", true)
	testutil.CreateCourse(t, db, teacher.ID, "Empty", "", true)

	for i := 0; i < 5; i++ {
		u := testutil.CreateUser(t, db, model.RoleUser)
		testutil.Enroll(t, db, u.ID, big.ID)
		if i < 2 {
			testutil.Enroll(t, db, u.ID, small.ID)
		}
	}

	courses, _, err := repo.Search(context.Background(), CatalogFilter{
		SortBy:   SortEnrollmentCount,
		SortDesc: true,
		Limit:    10,
	})
	require.NoError(t, err)
	require.Len(t, courses, 3)
	assert.Equal(t, []string{"Big", "Small", "Empty"}, titles(courses))
	assert.Equal(t, int64(5), courses[0].EnrollmentCount)
	assert.Equal(t, int64(2), courses[1].EnrollmentCount)
	assert.Equal(t, int64(0), courses[2].EnrollmentCount)
}

func TestDeleteCourseCascades(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewCourseRepository(db)
	teacher := testutil.CreateUser(t, db, model.RoleTeacher)
	learner := testutil.CreateUser(t, db, model.RoleUser)

	course := testutil.CreateCourse(t, db, teacher.ID, "Go", "", true)
	module := testutil.CreateModule(t, db, course.ID, "Intro", 1)
	testutil.CreateContentItem(t, db, module.ID, "slides", 1)
	testutil.Enroll(t, db, learner.ID, course.ID)

	_, err := repo.Delete(context.Background(), course.ID)
	require.NoError(t, err)

	var n int64
	db.Model(&model.Module{}).Count(&n)
	assert.Zero(t, n)
	db.Model(&model.ContentItem{}).Count(&n)
	assert.Zero(t, n)
	db.Model(&model.Enrollment{}).Count(&n)
	assert.Zero(t, n)

	_, err = repo.Delete(context.Background(), course.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestFindWithContentOrdersChildren(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewCourseRepository(db)
	teacher := testutil.CreateUser(t, db, model.RoleTeacher)

	course := testutil.CreateCourse(t, db, teacher.ID, "Go", "", true)
	second := testutil.CreateModule(t, db, course.ID, "second", 2)
	testutil.CreateModule(t, db, course.ID, "first", 1)
	testutil.CreateContentItem(t, db, second.ID, "b", 2)
	testutil.CreateContentItem(t, db, second.ID, "a", 1)

	got, err := repo.FindWithContent(context.Background(), course.ID)
	require.NoError(t, err)
	require.Len(t, got.Modules, 2)
	assert.Equal(t, "first", got.Modules[0].Title)
	assert.Equal(t, "second", got.Modules[1].Title)
	require.Len(t, got.Modules[1].ContentItems, 2)
	assert.Equal(t, "a", got.Modules[1].ContentItems[0].Title)
}
