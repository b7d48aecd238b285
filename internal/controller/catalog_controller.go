package controller

import (
	"lms_backend/internal/service"
	"lms_backend/internal/util"
	"strconv"

	"github.com/gin-gonic/gin"
)

type CatalogController struct {
	CatalogService *service.CatalogService
}

func NewCatalogController(catalogService *service.CatalogService) *CatalogController {
	return &CatalogController{CatalogService: catalogService}
}

// 非数字按 0 处理，由 service 归一化为默认值
func queryInt(ctx *gin.Context, key string) int {
	n, err := strconv.Atoi(ctx.Query(key))
	if err != nil {
		return 0
	}
	return n
}

// Search godoc
// @Summary 搜索课程目录
// @Description 只返回已发布课程，按标题或课程代码模糊匹配（不区分大小写）
// @Tags 课程目录
// @Produce  json
// @Param   query     query string false "关键字"
// @Param   sortBy    query string false "排序字段" Enums(title, createdAt, enrollmentCount, averageRating)
// @Param   sortOrder query string false "排序方向" Enums(asc, desc)
// @Param   teacherId query string false "教师ID"
// @Param   page      query int    false "页码" default(1)
// @Param   limit     query int    false "每页数量" default(10)
// @Success 200 {object} util.Response{data=service.CatalogPage} "成功"
// @Failure 400 {object} util.Response "排序参数错误"
// @Failure 500 {object} util.Response "服务器内部错误"
// @Router /catalog/search [get]
func (c *CatalogController) Search(ctx *gin.Context) {
	q := service.CatalogQuery{
		Query:     ctx.Query("query"),
		SortBy:    ctx.Query("sortBy"),
		SortOrder: ctx.Query("sortOrder"),
		TeacherID: ctx.Query("teacherId"),
		Page:      queryInt(ctx, "page"),
		Limit:     queryInt(ctx, "limit"),
	}

	page, err := c.CatalogService.Search(ctx.Request.Context(), q)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, page)
}
