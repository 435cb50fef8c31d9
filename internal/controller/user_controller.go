package controller

import (
	"testria_backend/internal/service"
	"testria_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type UserController struct {
	UserService   *service.UserService
	FollowService *service.FollowService
}

func NewUserController(userService *service.UserService, followService *service.FollowService) *UserController {
	return &UserController{
		UserService:   userService,
		FollowService: followService,
	}
}

// GetProfile godoc
// @Summary 获取当前用户资料
// @Tags 用户
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=service.Profile}
// @Router /profile [get]
func (c *UserController) GetProfile(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	profile, err := c.UserService.GetProfile(userID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, profile)
}

// swagger:model UpdateProfileRequest
type UpdateProfileRequest struct {
	FirstName string `json:"firstName" binding:"max=150"`
	LastName  string `json:"lastName" binding:"max=150"`
	Bio       string `json:"bio" binding:"max=500"`
}

// UpdateProfile godoc
// @Summary 更新个人资料
// @Tags 用户
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body UpdateProfileRequest true "资料"
// @Success 200 {object} util.Response{data=service.Profile}
// @Failure 422 {object} util.Response "参数错误"
// @Router /profile [put]
func (c *UserController) UpdateProfile(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	var req UpdateProfileRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.FormError(ctx, "Invalid profile data", util.ValidationErrors(err), req)
		return
	}

	profile, err := c.UserService.UpdateProfile(userID, req.FirstName, req.LastName, req.Bio)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, profile)
}

// UploadPhoto godoc
// @Summary 上传头像
// @Tags 用户
// @Accept  multipart/form-data
// @Produce  json
// @Security ApiKeyAuth
// @Param   photo formData file true "头像图片"
// @Success 200 {object} util.Response{data=service.Profile}
// @Failure 400 {object} util.Response "文件类型不支持"
// @Router /profile/photo [post]
func (c *UserController) UploadPhoto(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	file, err := ctx.FormFile("photo")
	if err != nil {
		util.BadRequest(ctx, "photo is required")
		return
	}

	profile, err := c.UserService.UpdatePhoto(ctx.Request.Context(), userID, service.UploadFromHeader(file))
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, profile)
}

// GetUser godoc
// @Summary 查看用户资料
// @Tags 用户
// @Produce  json
// @Security ApiKeyAuth
// @Param   username path string true "用户名"
// @Success 200 {object} util.Response{data=service.PublicProfile}
// @Failure 404 {object} util.Response "用户不存在"
// @Router /users/{username} [get]
func (c *UserController) GetUser(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	profile, err := c.UserService.GetPublicProfile(userID, ctx.Param("username"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, profile)
}

// Follow godoc
// @Summary 关注用户
// @Tags 用户
// @Produce  json
// @Security ApiKeyAuth
// @Param   username path string true "用户名"
// @Success 200 {object} util.Response
// @Failure 400 {object} util.Response "不能关注自己"
// @Failure 409 {object} util.Response "已关注"
// @Router /users/{username}/follow [post]
func (c *UserController) Follow(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	if err := c.FollowService.Follow(userID, ctx.Param("username")); err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"following": true})
}

// Unfollow godoc
// @Summary 取消关注
// @Tags 用户
// @Produce  json
// @Security ApiKeyAuth
// @Param   username path string true "用户名"
// @Success 200 {object} util.Response
// @Router /users/{username}/follow [delete]
func (c *UserController) Unfollow(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	if err := c.FollowService.Unfollow(userID, ctx.Param("username")); err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"following": false})
}

// Followers godoc
// @Summary 粉丝列表
// @Tags 用户
// @Produce  json
// @Security ApiKeyAuth
// @Param   username path string true "用户名"
// @Success 200 {object} util.Response{data=[]model.PublicUser}
// @Router /users/{username}/followers [get]
func (c *UserController) Followers(ctx *gin.Context) {
	users, err := c.FollowService.Followers(ctx.Param("username"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, users)
}

// Following godoc
// @Summary 关注列表
// @Tags 用户
// @Produce  json
// @Security ApiKeyAuth
// @Param   username path string true "用户名"
// @Success 200 {object} util.Response{data=[]model.PublicUser}
// @Router /users/{username}/following [get]
func (c *UserController) Following(ctx *gin.Context) {
	users, err := c.FollowService.Following(ctx.Param("username"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, users)
}
