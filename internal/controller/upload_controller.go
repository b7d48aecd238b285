package controller

import (
	"lms_backend/internal/service"
	"lms_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type UploadController struct {
	StorageService *service.StorageService
}

func NewUploadController(storageService *service.StorageService) *UploadController {
	return &UploadController{StorageService: storageService}
}

// Upload godoc
// @Summary 上传文件
// @Description 以唯一文件名保存，返回可访问的 URL，可作为内容项的 fileUrl
// @Tags 文件
// @Accept  multipart/form-data
// @Produce  json
// @Security ApiKeyAuth
// @Param   file formData file true "文件"
// @Success 200 {object} util.Response{data=service.UploadResult} "上传成功"
// @Failure 400 {object} util.Response "缺少文件或文件过大"
// @Failure 401 {object} util.Response "未认证"
// @Failure 403 {object} util.Response "无权限"
// @Router /uploads [post]
func (c *UploadController) Upload(ctx *gin.Context) {
	header, err := ctx.FormFile("file")
	if err != nil {
		util.BadRequest(ctx, "file is required")
		return
	}

	result, err := c.StorageService.Store(ctx.Request.Context(), util.GetIdentity(ctx), header)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, result)
}
