package controller

import (
	"lms_backend/internal/service"
	"lms_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// FacultyController 教师账号管理，仅 ADMIN
type FacultyController struct {
	FacultyService *service.FacultyService
}

func NewFacultyController(facultyService *service.FacultyService) *FacultyController {
	return &FacultyController{FacultyService: facultyService}
}

// ListFaculties godoc
// @Summary 教师列表
// @Tags 管理员
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]repository.FacultyRow} "成功"
// @Failure 403 {object} util.Response "无权限"
// @Router /admin/faculties [get]
func (c *FacultyController) ListFaculties(ctx *gin.Context) {
	rows, err := c.FacultyService.ListFaculties(ctx.Request.Context(), util.GetIdentity(ctx))
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, rows)
}

// AddFaculty godoc
// @Summary 添加教师
// @Description 新邮箱创建教师账号（201）；已有非教师账号则升级为教师（200）
// @Tags 管理员
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body service.AddFacultyRequest true "教师信息"
// @Success 200 {object} util.Response{data=model.User} "已有用户升级为教师"
// @Success 201 {object} util.Response{data=model.User} "创建成功"
// @Failure 400 {object} util.Response "请求参数错误或已是教师"
// @Failure 403 {object} util.Response "无权限"
// @Router /admin/faculties [post]
func (c *FacultyController) AddFaculty(ctx *gin.Context) {
	var req service.AddFacultyRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, "Invalid request body")
		return
	}

	user, created, err := c.FacultyService.AddFaculty(ctx.Request.Context(), util.GetIdentity(ctx), req)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	if created {
		util.Created(ctx, user)
		return
	}
	util.Success(ctx, user)
}

// UpdateFaculty godoc
// @Summary 更新教师信息
// @Tags 管理员
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id   path string true "教师用户ID"
// @Param   body body service.UpdateFacultyRequest true "要更新的字段"
// @Success 200 {object} util.Response{data=model.User} "成功"
// @Failure 400 {object} util.Response "请求参数错误"
// @Failure 404 {object} util.Response "教师不存在"
// @Failure 409 {object} util.Response "邮箱已被使用"
// @Router /admin/faculties/{id} [put]
func (c *FacultyController) UpdateFaculty(ctx *gin.Context) {
	var req service.UpdateFacultyRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, "Invalid request body")
		return
	}

	user, err := c.FacultyService.UpdateFaculty(ctx.Request.Context(), util.GetIdentity(ctx), ctx.Param("id"), req)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, user)
}

// DeleteFaculty godoc
// @Summary 删除教师
// @Description 同时删除教师档案及其全部课程
// @Tags 管理员
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "教师用户ID"
// @Success 200 {object} util.Response "成功"
// @Failure 404 {object} util.Response "教师不存在"
// @Router /admin/faculties/{id} [delete]
func (c *FacultyController) DeleteFaculty(ctx *gin.Context) {
	if err := c.FacultyService.DeleteFaculty(ctx.Request.Context(), util.GetIdentity(ctx), ctx.Param("id")); err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"message": "Faculty deleted successfully"})
}
