package controller

import (
	"lms_backend/internal/service"
	"lms_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// CourseController 课程、模块、内容项的增删改查，所有权校验在 service 层完成
type CourseController struct {
	CourseService *service.CourseService
}

func NewCourseController(courseService *service.CourseService) *CourseController {
	return &CourseController{CourseService: courseService}
}

// ListCourses godoc
// @Summary 课程列表
// @Description TEACHER 返回自己的课程；ADMIN 返回全部或指定教师的课程；USER 返回已选课程
// @Tags 课程
// @Produce  json
// @Security ApiKeyAuth
// @Param   facultyId query string false "教师ID（仅 ADMIN）"
// @Success 200 {object} util.Response{data=[]model.Course} "成功"
// @Failure 401 {object} util.Response "未认证"
// @Router /courses [get]
func (c *CourseController) ListCourses(ctx *gin.Context) {
	courses, err := c.CourseService.ListCourses(ctx.Request.Context(), util.GetIdentity(ctx), ctx.Query("facultyId"))
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, courses)
}

// GetCourse godoc
// @Summary 课程详情
// @Description 包含按顺序排列的模块和内容项；未发布课程仅所有者和 ADMIN 可见
// @Tags 课程
// @Produce  json
// @Param   id path string true "课程ID"
// @Success 200 {object} util.Response{data=model.Course} "成功"
// @Failure 404 {object} util.Response "课程不存在"
// @Router /courses/{id} [get]
func (c *CourseController) GetCourse(ctx *gin.Context) {
	course, err := c.CourseService.GetCourseWithContent(ctx.Request.Context(), util.GetIdentity(ctx), ctx.Param("id"))
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, course)
}

// CreateCourse godoc
// @Summary 创建课程
// @Tags 课程
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body service.CreateCourseRequest true "课程信息"
// @Success 201 {object} util.Response{data=model.Course} "创建成功"
// @Failure 400 {object} util.Response "请求参数错误"
// @Failure 401 {object} util.Response "未认证"
// @Failure 403 {object} util.Response "无权限"
// @Router /courses [post]
func (c *CourseController) CreateCourse(ctx *gin.Context) {
	var req service.CreateCourseRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, "Invalid request body")
		return
	}

	course, err := c.CourseService.CreateCourse(ctx.Request.Context(), util.GetIdentity(ctx), req)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Created(ctx, course)
}

// UpdateCourse godoc
// @Summary 更新课程
// @Description 只更新请求中出现的字段
// @Tags 课程
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id   path string true "课程ID"
// @Param   body body service.UpdateCourseRequest true "要更新的字段"
// @Success 200 {object} util.Response{data=model.Course} "成功"
// @Failure 400 {object} util.Response "请求参数错误"
// @Failure 403 {object} util.Response "无权限"
// @Failure 404 {object} util.Response "课程不存在"
// @Router /courses/{id} [put]
func (c *CourseController) UpdateCourse(ctx *gin.Context) {
	var req service.UpdateCourseRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, "Invalid request body")
		return
	}

	course, err := c.CourseService.UpdateCourse(ctx.Request.Context(), util.GetIdentity(ctx), ctx.Param("id"), req)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, course)
}

// DeleteCourse godoc
// @Summary 删除课程
// @Description 同时删除模块、内容项和选课记录
// @Tags 课程
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "课程ID"
// @Success 200 {object} util.Response{data=model.Course} "成功"
// @Failure 403 {object} util.Response "无权限"
// @Failure 404 {object} util.Response "课程不存在"
// @Router /courses/{id} [delete]
func (c *CourseController) DeleteCourse(ctx *gin.Context) {
	course, err := c.CourseService.DeleteCourse(ctx.Request.Context(), util.GetIdentity(ctx), ctx.Param("id"))
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, course)
}

// AddModule godoc
// @Summary 添加模块
// @Description 新模块排在课程末尾
// @Tags 模块
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id   path string true "课程ID"
// @Param   body body service.ModuleInput true "模块信息"
// @Success 201 {object} util.Response{data=model.Module} "创建成功"
// @Failure 400 {object} util.Response "请求参数错误"
// @Failure 403 {object} util.Response "无权限"
// @Failure 404 {object} util.Response "课程不存在"
// @Router /courses/{id}/modules [post]
func (c *CourseController) AddModule(ctx *gin.Context) {
	var req service.ModuleInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, "Invalid request body")
		return
	}

	module, err := c.CourseService.AddModule(ctx.Request.Context(), util.GetIdentity(ctx), ctx.Param("id"), req)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Created(ctx, module)
}

// ReorderModules godoc
// @Summary 调整模块顺序
// @Description moduleIds 必须恰好包含课程的全部模块
// @Tags 模块
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id   path string true "课程ID"
// @Param   body body service.ReorderModulesRequest true "新的模块顺序"
// @Success 200 {object} util.Response{data=[]model.Module} "成功"
// @Failure 400 {object} util.Response "请求参数错误"
// @Failure 403 {object} util.Response "无权限"
// @Router /courses/{id}/modules/order [put]
func (c *CourseController) ReorderModules(ctx *gin.Context) {
	var req service.ReorderModulesRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, "Invalid request body")
		return
	}

	modules, err := c.CourseService.ReorderModules(ctx.Request.Context(), util.GetIdentity(ctx), ctx.Param("id"), req)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, modules)
}

// UpdateModule godoc
// @Summary 更新模块
// @Tags 模块
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id   path string true "模块ID"
// @Param   body body service.UpdateModuleRequest true "要更新的字段"
// @Success 200 {object} util.Response{data=model.Module} "成功"
// @Failure 403 {object} util.Response "无权限"
// @Failure 404 {object} util.Response "模块不存在"
// @Router /modules/{id} [put]
func (c *CourseController) UpdateModule(ctx *gin.Context) {
	var req service.UpdateModuleRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, "Invalid request body")
		return
	}

	module, err := c.CourseService.UpdateModule(ctx.Request.Context(), util.GetIdentity(ctx), ctx.Param("id"), req)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, module)
}

// DeleteModule godoc
// @Summary 删除模块
// @Description 同时删除其内容项
// @Tags 模块
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "模块ID"
// @Success 200 {object} util.Response{data=model.Module} "成功"
// @Failure 403 {object} util.Response "无权限"
// @Failure 404 {object} util.Response "模块不存在"
// @Router /modules/{id} [delete]
func (c *CourseController) DeleteModule(ctx *gin.Context) {
	module, err := c.CourseService.DeleteModule(ctx.Request.Context(), util.GetIdentity(ctx), ctx.Param("id"))
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, module)
}

// AddContentItem godoc
// @Summary 添加内容项
// @Tags 内容项
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id   path string true "模块ID"
// @Param   body body service.ContentItemRequest true "内容项信息"
// @Success 201 {object} util.Response{data=model.ContentItem} "创建成功"
// @Failure 400 {object} util.Response "请求参数错误"
// @Failure 403 {object} util.Response "无权限"
// @Failure 404 {object} util.Response "模块不存在"
// @Router /modules/{id}/content-items [post]
func (c *CourseController) AddContentItem(ctx *gin.Context) {
	var req service.ContentItemRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, "Invalid request body")
		return
	}

	item, err := c.CourseService.AddContentItem(ctx.Request.Context(), util.GetIdentity(ctx), ctx.Param("id"), req)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Created(ctx, item)
}

// UpdateContentItem godoc
// @Summary 更新内容项
// @Tags 内容项
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id   path string true "内容项ID"
// @Param   body body service.UpdateContentItemRequest true "要更新的字段"
// @Success 200 {object} util.Response{data=model.ContentItem} "成功"
// @Failure 403 {object} util.Response "无权限"
// @Failure 404 {object} util.Response "内容项不存在"
// @Router /content-items/{id} [put]
func (c *CourseController) UpdateContentItem(ctx *gin.Context) {
	var req service.UpdateContentItemRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, "Invalid request body")
		return
	}

	item, err := c.CourseService.UpdateContentItem(ctx.Request.Context(), util.GetIdentity(ctx), ctx.Param("id"), req)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, item)
}

// DeleteContentItem godoc
// @Summary 删除内容项
// @Tags 内容项
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "内容项ID"
// @Success 200 {object} util.Response{data=model.ContentItem} "成功"
// @Failure 403 {object} util.Response "无权限"
// @Failure 404 {object} util.Response "内容项不存在"
// @Router /content-items/{id} [delete]
func (c *CourseController) DeleteContentItem(ctx *gin.Context) {
	item, err := c.CourseService.DeleteContentItem(ctx.Request.Context(), util.GetIdentity(ctx), ctx.Param("id"))
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, item)
}
