package controller

import (
	"lms_backend/internal/service"
	"lms_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type EnrollmentController struct {
	EnrollmentService *service.EnrollmentService
}

func NewEnrollmentController(enrollmentService *service.EnrollmentService) *EnrollmentController {
	return &EnrollmentController{EnrollmentService: enrollmentService}
}

// Enroll godoc
// @Summary 选课
// @Description 幂等，重复选课返回同一条记录
// @Tags 选课
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body service.EnrollRequest true "课程ID"
// @Success 200 {object} util.Response{data=model.Enrollment} "成功"
// @Failure 400 {object} util.Response "请求参数错误"
// @Failure 401 {object} util.Response "未认证"
// @Failure 404 {object} util.Response "课程不存在或未发布"
// @Router /enroll [post]
func (c *EnrollmentController) Enroll(ctx *gin.Context) {
	var req service.EnrollRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, "Invalid request body")
		return
	}

	enrollment, err := c.EnrollmentService.Enroll(ctx.Request.Context(), util.GetIdentity(ctx), req)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, enrollment)
}

// GetEnrollmentStatus godoc
// @Summary 查询是否已选课
// @Tags 选课
// @Produce  json
// @Security ApiKeyAuth
// @Param   courseId path string true "课程ID"
// @Success 200 {object} util.Response{data=object} "成功"
// @Failure 401 {object} util.Response "未认证"
// @Router /enrollments/{courseId} [get]
func (c *EnrollmentController) GetEnrollmentStatus(ctx *gin.Context) {
	enrolled, err := c.EnrollmentService.IsEnrolled(ctx.Request.Context(), util.GetIdentity(ctx), ctx.Param("courseId"))
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"enrolled": enrolled})
}

// ListEnrolledCourses godoc
// @Summary 我的已选课程
// @Tags 选课
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]model.Course} "成功"
// @Failure 401 {object} util.Response "未认证"
// @Router /enrollments [get]
func (c *EnrollmentController) ListEnrolledCourses(ctx *gin.Context) {
	courses, err := c.EnrollmentService.ListEnrolledCourses(ctx.Request.Context(), util.GetIdentity(ctx))
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, courses)
}
