package controller

import (
	"lms_backend/internal/service"
	"lms_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type AuthController struct {
	AuthService *service.AuthService
}

func NewAuthController(authService *service.AuthService) *AuthController {
	return &AuthController{AuthService: authService}
}

// Register godoc
// @Summary 注册新用户
// @Description 自助注册，角色固定为 USER
// @Tags 认证
// @Accept  json
// @Produce  json
// @Param   body body service.RegisterRequest true "用户注册信息"
// @Success 201 {object} util.Response{data=model.User} "创建成功"
// @Failure 400 {object} util.Response "请求参数错误"
// @Failure 409 {object} util.Response "邮箱已被注册"
// @Failure 500 {object} util.Response "服务器内部错误"
// @Router /register [post]
func (c *AuthController) Register(ctx *gin.Context) {
	var req service.RegisterRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, "Invalid request body")
		return
	}

	user, err := c.AuthService.Register(ctx.Request.Context(), req)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}

	util.Created(ctx, user)
}

// Login godoc
// @Summary 用户登录
// @Description 验证用户身份并返回JWT令牌
// @Tags 认证
// @Accept  json
// @Produce  json
// @Param   body body service.LoginRequest true "用户登录凭据"
// @Success 200 {object} util.Response{data=service.LoginResult} "登录成功"
// @Failure 400 {object} util.Response "请求参数错误"
// @Failure 401 {object} util.Response "邮箱或密码错误"
// @Failure 429 {object} util.Response "请求过于频繁"
// @Router /login [post]
func (c *AuthController) Login(ctx *gin.Context) {
	var req service.LoginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, "Invalid request body")
		return
	}

	result, err := c.AuthService.Login(ctx.Request.Context(), req)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}

	util.Success(ctx, result)
}

// Logout godoc
// @Summary 退出登录
// @Description 注销当前 token，直到其过期前都不可再用
// @Tags 认证
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response "成功"
// @Failure 401 {object} util.Response "未认证"
// @Router /logout [post]
func (c *AuthController) Logout(ctx *gin.Context) {
	if err := c.AuthService.Logout(ctx.Request.Context(), util.GetClaimsFromContext(ctx)); err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// GetProfile godoc
// @Summary 获取当前用户
// @Tags 认证
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=model.User} "成功"
// @Failure 401 {object} util.Response "未认证"
// @Router /profile [get]
func (c *AuthController) GetProfile(ctx *gin.Context) {
	user, err := c.AuthService.CurrentUser(ctx.Request.Context(), util.GetIdentity(ctx))
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, user)
}
