package controller

import (
	"testria_backend/internal/service"
	"testria_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type AuthController struct {
	AuthService *service.AuthService
}

func NewAuthController(authService *service.AuthService) *AuthController {
	return &AuthController{AuthService: authService}
}

// RegisterRequest defines model for registration
// swagger:model RegisterRequest
type RegisterRequest struct {
	Username  string `json:"username" binding:"required,max=150,alphanumunicode"`
	Email     string `json:"email" binding:"required,email,max=254"`
	FirstName string `json:"firstName" binding:"max=150"`
	LastName  string `json:"lastName" binding:"max=150"`
	Password1 string `json:"password1" binding:"required,min=8"`
	Password2 string `json:"password2" binding:"required"`
}

// Register godoc
// @Summary 注册新用户
// @Description 注册成功后异步发送邮箱确认邮件
// @Tags 认证
// @Accept  json
// @Produce  json
// @Param   body body RegisterRequest true "用户注册信息"
// @Success 201 {object} util.Response{data=model.PublicUser} "创建成功"
// @Failure 400 {object} util.Response "两次密码不一致"
// @Failure 409 {object} util.Response "邮箱或用户名已被注册"
// @Failure 422 {object} util.Response "请求参数错误"
// @Router /register [post]
func (c *AuthController) Register(ctx *gin.Context) {
	var req RegisterRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.FormError(ctx, "Invalid registration data", util.ValidationErrors(err), nil)
		return
	}

	user, err := c.AuthService.Register(ctx.Request.Context(), &service.RegisterInput{
		Username:  req.Username,
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Password1: req.Password1,
		Password2: req.Password2,
	})
	if err != nil {
		respondError(ctx, err)
		return
	}

	util.Created(ctx, user.Public())
}

// LoginRequest 邮箱或用户名均可登录
// swagger:model LoginRequest
type LoginRequest struct {
	Login    string `json:"login" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login godoc
// @Summary 用户登录
// @Description 使用邮箱或用户名登录，返回 JWT
// @Tags 认证
// @Accept  json
// @Produce  json
// @Param   body body LoginRequest true "登录信息"
// @Success 200 {object} util.Response{data=object} "登录成功"
// @Failure 401 {object} util.Response "用户名或密码错误"
// @Router /login [post]
func (c *AuthController) Login(ctx *gin.Context) {
	var req LoginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.FormError(ctx, "Invalid login data", util.ValidationErrors(err), nil)
		return
	}

	token, user, err := c.AuthService.Login(req.Login, req.Password)
	if err != nil {
		respondError(ctx, err)
		return
	}
	refresh, err := c.AuthService.IssueRefreshToken(user)
	if err != nil {
		respondError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"token": token, "refresh": refresh, "user": user})
}

type RefreshRequest struct {
	Refresh string `json:"refresh" binding:"required"`
}

// Refresh godoc
// @Summary 刷新访问令牌
// @Tags 认证
// @Accept  json
// @Produce  json
// @Param   body body RefreshRequest true "刷新令牌"
// @Success 200 {object} util.Response{data=object} "新的访问令牌"
// @Failure 401 {object} util.Response "刷新令牌无效或已过期"
// @Router /token/refresh [post]
func (c *AuthController) Refresh(ctx *gin.Context) {
	var req RefreshRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.FormError(ctx, "Invalid refresh data", util.ValidationErrors(err), nil)
		return
	}

	token, err := c.AuthService.RefreshToken(req.Refresh)
	if err != nil {
		respondError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"token": token})
}

// VerifyEmail godoc
// @Summary 邮箱确认
// @Description 打开邮件中的确认链接，成功后返回登录令牌
// @Tags 认证
// @Produce  json
// @Param   uid path string true "用户标识"
// @Param   token path string true "确认令牌"
// @Success 200 {object} util.Response{data=object} "确认成功"
// @Failure 400 {object} util.Response "链接无效或已过期"
// @Router /users/verification/{uid}/{token} [get]
func (c *AuthController) VerifyEmail(ctx *gin.Context) {
	token, user, err := c.AuthService.VerifyEmail(ctx.Param("uid"), ctx.Param("token"))
	if err != nil {
		respondError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{
		"message": "Your account has been verified successfully",
		"token":   token,
		"user":    user,
	})
}

// ResendVerification godoc
// @Summary 重新发送确认邮件
// @Tags 认证
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response "已发送"
// @Failure 409 {object} util.Response "邮箱已确认"
// @Router /users/verification/resend [post]
func (c *AuthController) ResendVerification(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	if err := c.AuthService.ResendVerification(ctx.Request.Context(), userID); err != nil {
		respondError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"message": "Confirmation email has been sent"})
}

// swagger:model PasswordResetRequest
type PasswordResetRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// RequestPasswordReset godoc
// @Summary 申请重置密码
// @Description 无论邮箱是否注册都返回相同结果
// @Tags 认证
// @Accept  json
// @Produce  json
// @Param   body body PasswordResetRequest true "邮箱"
// @Success 200 {object} util.Response "已受理"
// @Router /password-reset [post]
func (c *AuthController) RequestPasswordReset(ctx *gin.Context) {
	var req PasswordResetRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.FormError(ctx, "Invalid email", util.ValidationErrors(err), nil)
		return
	}

	if err := c.AuthService.RequestPasswordReset(ctx.Request.Context(), req.Email); err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"message": "If the email is registered, a reset link has been sent"})
}

// swagger:model PasswordResetConfirmRequest
type PasswordResetConfirmRequest struct {
	UID          string `json:"uid" binding:"required"`
	Token        string `json:"token" binding:"required"`
	NewPassword1 string `json:"newPassword1" binding:"required,min=8"`
	NewPassword2 string `json:"newPassword2" binding:"required"`
}

// ConfirmPasswordReset godoc
// @Summary 设置新密码
// @Tags 认证
// @Accept  json
// @Produce  json
// @Param   body body PasswordResetConfirmRequest true "重置信息"
// @Success 200 {object} util.Response "修改成功"
// @Failure 400 {object} util.Response "令牌无效或两次密码不一致"
// @Router /password-reset/confirm [post]
func (c *AuthController) ConfirmPasswordReset(ctx *gin.Context) {
	var req PasswordResetConfirmRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.FormError(ctx, "Invalid password reset data", util.ValidationErrors(err), nil)
		return
	}

	if err := c.AuthService.ConfirmPasswordReset(req.UID, req.Token, req.NewPassword1, req.NewPassword2); err != nil {
		respondError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"message": "Your password has been changed"})
}

type ChangePasswordRequest struct {
	OldPassword  string `json:"oldPassword" binding:"required"`
	NewPassword1 string `json:"newPassword1" binding:"required,min=8"`
	NewPassword2 string `json:"newPassword2" binding:"required"`
}

// ChangePassword godoc
// @Summary 修改密码
// @Description 修改后旧的刷新令牌和重置链接全部失效
// @Tags 认证
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body ChangePasswordRequest true "旧密码与新密码"
// @Success 200 {object} util.Response "修改成功"
// @Failure 400 {object} util.Response "旧密码错误或两次密码不一致"
// @Failure 422 {object} util.Response "请求参数错误"
// @Router /profile/password [put]
func (c *AuthController) ChangePassword(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	var req ChangePasswordRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.FormError(ctx, "Invalid password data", util.ValidationErrors(err), nil)
		return
	}

	if err := c.AuthService.ChangePassword(userID, req.OldPassword, req.NewPassword1, req.NewPassword2); err != nil {
		respondError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"message": "Password has been changed"})
}
