package app

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"lms_backend/internal/config"
	"lms_backend/internal/model"
	"lms_backend/internal/testutil"
	"lms_backend/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testSecret = "app-test-secret-0123456789abcdefghij"

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		Server:    config.ServerConfig{Port: "0", Mode: "test"},
		JWT:       config.JWTConfig{Secret: testSecret, ExpireTime: time.Hour},
		Storage:   config.StorageConfig{Type: "local", LocalPath: t.TempDir(), PublicPrefix: "/uploads", MaxUploadMB: 1},
		RateLimit: config.RateLimitConfig{MaxRequests: 1000, WindowMinutes: 1},
		Catalog:   config.CatalogConfig{DefaultLimit: 10, MaxLimit: 100},
	}
}

func newTestApp(t *testing.T) (*App, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := testutil.NewDB(t)
	return New(testConfig(t), db, nil), db
}

func tokenFor(t *testing.T, user *model.User) string {
	t.Helper()
	token, err := util.GenerateJWT(user, testSecret, time.Hour)
	require.NoError(t, err)
	return token
}

func call(t *testing.T, a *App, method, path, token string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.Router.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		_ = json.Unmarshal(w.Body.Bytes(), &env)
	}
	return w, env
}

func decodeID(t *testing.T, env envelope) string {
	t.Helper()
	var v struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &v))
	require.NotEmpty(t, v.ID)
	return v.ID
}

func TestDeleteModuleRequiresOwnership(t *testing.T) {
	a, db := newTestApp(t)
	t1 := testutil.CreateUser(t, db, model.RoleTeacher)
	t2 := testutil.CreateUser(t, db, model.RoleTeacher)
	tok1, tok2 := tokenFor(t, t1), tokenFor(t, t2)

	w, env := call(t, a, http.MethodPost, "/api/courses", tok1, map[string]interface{}{
		"title":     "Distributed Systems",
		"published": true,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	courseID := decodeID(t, env)

	w, env = call(t, a, http.MethodPost, "/api/courses/"+courseID+"/modules", tok1, map[string]string{"title": "Consensus"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	moduleID := decodeID(t, env)

	w, _ = call(t, a, http.MethodPost, "/api/modules/"+moduleID+"/content-items", tok1, map[string]string{
		"title":   "Raft paper",
		"type":    "PDF",
		"fileUrl": "https://example.com/raft.pdf",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w, _ = call(t, a, http.MethodDelete, "/api/modules/"+moduleID, tok2, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	var count int64
	require.NoError(t, db.Model(&model.Module{}).Where("id = ?", moduleID).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	w, _ = call(t, a, http.MethodDelete, "/api/modules/"+moduleID, tok1, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	require.NoError(t, db.Model(&model.Module{}).Where("id = ?", moduleID).Count(&count).Error)
	assert.Zero(t, count)
	require.NoError(t, db.Model(&model.ContentItem{}).Where("module_id = ?", moduleID).Count(&count).Error)
	assert.Zero(t, count)

	w, env = call(t, a, http.MethodGet, "/api/courses/"+courseID, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var course model.Course
	require.NoError(t, json.Unmarshal(env.Data, &course))
	assert.Empty(t, course.Modules)
}

func TestCourseRoutesRejectCallers(t *testing.T) {
	a, db := newTestApp(t)
	learner := testutil.CreateUser(t, db, model.RoleUser)
	teacher := testutil.CreateUser(t, db, model.RoleTeacher)
	course := testutil.CreateCourse(t, db, teacher.ID, "Databases", "", true)

	body := map[string]interface{}{"title": "Compilers"}

	w, _ := call(t, a, http.MethodPost, "/api/courses", "", body)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = call(t, a, http.MethodPost, "/api/courses", tokenFor(t, learner), body)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// ADMIN 可以管理课程，但不能创建
	admin := testutil.CreateUser(t, db, model.RoleAdmin)
	w, _ = call(t, a, http.MethodPost, "/api/courses", tokenFor(t, admin), body)
	assert.Equal(t, http.StatusForbidden, w.Code)
	var created int64
	require.NoError(t, db.Model(&model.Course{}).Where("title = ?", "Compilers").Count(&created).Error)
	assert.Zero(t, created)

	w, env := call(t, a, http.MethodPost, "/api/courses", tokenFor(t, teacher), map[string]interface{}{"title": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, env.Message, "title")

	w, _ = call(t, a, http.MethodPut, "/api/courses/"+course.ID, "not-a-token", map[string]string{"title": "New"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = call(t, a, http.MethodDelete, "/api/modules/"+model.NewID(), tokenFor(t, teacher), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCatalogSearchEndpoint(t *testing.T) {
	a, db := newTestApp(t)
	teacher := testutil.CreateUser(t, db, model.RoleTeacher)
	testutil.CreateCourse(t, db, teacher.ID, "Algorithms", "ALGO-1", true)
	testutil.CreateCourse(t, db, teacher.ID, "Algebra", "MATH-1", true)
	testutil.CreateCourse(t, db, teacher.ID, "Algorithms II", "ALGO-2", false)

	w, env := call(t, a, http.MethodGet, "/api/catalog/search?query=algo&page=abc&limit=-3", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var page struct {
		Courses     []model.Course `json:"courses"`
		TotalCount  int64          `json:"totalCount"`
		CurrentPage int            `json:"currentPage"`
		TotalPages  int            `json:"totalPages"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &page))
	require.Len(t, page.Courses, 1)
	assert.Equal(t, "Algorithms", page.Courses[0].Title)
	assert.Equal(t, int64(1), page.TotalCount)
	assert.Equal(t, 1, page.CurrentPage)
	assert.Equal(t, 1, page.TotalPages)

	w, _ = call(t, a, http.MethodGet, "/api/catalog/search?sortBy=popularity", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEnrollEndpointIsIdempotent(t *testing.T) {
	a, db := newTestApp(t)
	teacher := testutil.CreateUser(t, db, model.RoleTeacher)
	learner := testutil.CreateUser(t, db, model.RoleUser)
	course := testutil.CreateCourse(t, db, teacher.ID, "Networks", "", true)
	tok := tokenFor(t, learner)

	w, _ := call(t, a, http.MethodPost, "/api/enroll", "", map[string]string{"courseId": course.ID})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, first := call(t, a, http.MethodPost, "/api/enroll", tok, map[string]string{"courseId": course.ID})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w, second := call(t, a, http.MethodPost, "/api/enroll", tok, map[string]string{"courseId": course.ID})
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, string(first.Data), string(second.Data))

	var count int64
	require.NoError(t, db.Model(&model.Enrollment{}).Where("course_id = ?", course.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	w, env := call(t, a, http.MethodGet, "/api/enrollments/"+course.ID, tok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"enrolled":true}`, string(env.Data))
}

func TestRegisterLoginLogout(t *testing.T) {
	a, _ := newTestApp(t)

	creds := map[string]string{"name": "Lin", "email": "Lin@Example.com", "password": "s3cret-pass"}
	w, _ := call(t, a, http.MethodPost, "/api/register", "", creds)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w, _ = call(t, a, http.MethodPost, "/api/register", "", creds)
	assert.Equal(t, http.StatusConflict, w.Code)

	w, _ = call(t, a, http.MethodPost, "/api/login", "", map[string]string{"email": "lin@example.com", "password": "wrong-pass"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, env := call(t, a, http.MethodPost, "/api/login", "", map[string]string{"email": "lin@example.com", "password": "s3cret-pass"})
	require.Equal(t, http.StatusOK, w.Code)
	var login struct {
		Token string     `json:"token"`
		User  model.User `json:"user"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &login))
	assert.Equal(t, model.RoleUser, login.User.Role)

	w, _ = call(t, a, http.MethodGet, "/api/profile", login.Token, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = call(t, a, http.MethodPost, "/api/logout", login.Token, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = call(t, a, http.MethodGet, "/api/profile", login.Token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAdminFacultyRoutes(t *testing.T) {
	a, db := newTestApp(t)
	admin := testutil.CreateUser(t, db, model.RoleAdmin)
	teacher := testutil.CreateUser(t, db, model.RoleTeacher)

	w, _ := call(t, a, http.MethodGet, "/api/admin/faculties", tokenFor(t, teacher), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	req := map[string]interface{}{
		"firstName":         "Grace",
		"lastName":          "Hopper",
		"email":             "grace@example.com",
		"password":          "cobol-forever",
		"phone":             "5550100200",
		"department":        "Computer Science",
		"subject":           "Compilers",
		"position":          "Lecturer",
		"yearsOfExperience": 8,
	}
	w, _ = call(t, a, http.MethodPost, "/api/admin/faculties", tokenFor(t, admin), req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w, env := call(t, a, http.MethodPost, "/api/admin/faculties", tokenFor(t, admin), req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "User already exists as a teacher.", env.Message)

	w, env = call(t, a, http.MethodGet, "/api/admin/faculties", tokenFor(t, admin), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var rows []map[string]interface{}
	require.NoError(t, json.Unmarshal(env.Data, &rows))
	assert.Len(t, rows, 2)
}

func TestHealthAndMetrics(t *testing.T) {
	a, _ := newTestApp(t)

	w, _ := call(t, a, http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = call(t, a, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "http_requests_total")
}
