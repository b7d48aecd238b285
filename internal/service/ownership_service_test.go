package service

import (
	"context"
	"testing"

	"lms_backend/internal/model"
	"lms_backend/internal/repository"
	"lms_backend/internal/testutil"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

type ownershipFixture struct {
	svc     *OwnershipService
	owner   *model.User
	other   *model.User
	admin   *model.User
	learner *model.User
	course  *model.Course
	module  *model.Module
	item    *model.ContentItem
}

func newOwnershipService(db *gorm.DB) *OwnershipService {
	return NewOwnershipService(
		repository.NewCourseRepository(db),
		repository.NewModuleRepository(db),
		repository.NewContentItemRepository(db),
	)
}

func setupOwnership(t *testing.T) *ownershipFixture {
	db := testutil.NewDB(t)
	f := &ownershipFixture{svc: newOwnershipService(db)}
	f.owner = testutil.CreateUser(t, db, model.RoleTeacher)
	f.other = testutil.CreateUser(t, db, model.RoleTeacher)
	f.admin = testutil.CreateUser(t, db, model.RoleAdmin)
	f.learner = testutil.CreateUser(t, db, model.RoleUser)
	f.course = testutil.CreateCourse(t, db, f.owner.ID, "Go", "", true)
	f.module = testutil.CreateModule(t, db, f.course.ID, "basics", 1)
	f.item = testutil.CreateContentItem(t, db, f.module.ID, "slides", 1)
	return f
}

func TestVerifyOwnership(t *testing.T) {
	f := setupOwnership(t)
	ctx := context.Background()

	cases := []struct {
		name     string
		identity *model.Identity
		itemID   string
		moduleID string
		want     bool
	}{
		{"owner module", f.owner.Identity(), "", f.module.ID, true},
		{"owner item", f.owner.Identity(), f.item.ID, "", true},
		{"other teacher module", f.other.Identity(), "", f.module.ID, false},
		{"other teacher item", f.other.Identity(), f.item.ID, "", false},
		{"learner", f.learner.Identity(), "", f.module.ID, false},
		{"admin", f.admin.Identity(), f.item.ID, "", true},
		{"admin missing entity", f.admin.Identity(), "", "missing", true},
		{"anonymous", nil, "", f.module.ID, false},
		{"missing module", f.owner.Identity(), "", "missing", false},
		{"missing item", f.owner.Identity(), "missing", "", false},
		{"no ids", f.owner.Identity(), "", "", false},
		{"item wins over module", f.other.Identity(), f.item.ID, f.module.ID, false},
		{"unknown role", &model.Identity{UserID: f.owner.ID, Role: model.Role("ROOT")}, "", f.module.ID, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, f.svc.VerifyOwnership(ctx, tc.identity, tc.itemID, tc.moduleID))
		})
	}
}

func TestVerifyCourseOwnership(t *testing.T) {
	f := setupOwnership(t)
	ctx := context.Background()

	assert.True(t, f.svc.VerifyCourseOwnership(ctx, f.owner.Identity(), f.course.ID))
	assert.True(t, f.svc.VerifyCourseOwnership(ctx, f.admin.Identity(), f.course.ID))
	assert.False(t, f.svc.VerifyCourseOwnership(ctx, f.other.Identity(), f.course.ID))
	assert.False(t, f.svc.VerifyCourseOwnership(ctx, nil, f.course.ID))
	assert.False(t, f.svc.VerifyCourseOwnership(ctx, f.owner.Identity(), "missing"))
	assert.False(t, f.svc.VerifyCourseOwnership(ctx, f.owner.Identity(), ""))
}
