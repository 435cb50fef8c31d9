package controller

import (
	"testria_backend/internal/model"
	"testria_backend/internal/service"
	"testria_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type SetController struct {
	SetService *service.SetService
}

func NewSetController(setService *service.SetService) *SetController {
	return &SetController{SetService: setService}
}

// swagger:model SetRequest
type SetRequest struct {
	Name        string `json:"name" binding:"required,max=100"`
	Type        string `json:"type" binding:"required,oneof=card_set test"`
	Description string `json:"description"`
	FolderID    *uint  `json:"folderId"`
}

func (r *SetRequest) input() *service.SetInput {
	return &service.SetInput{
		Name:        r.Name,
		Type:        model.SetType(r.Type),
		Description: r.Description,
		FolderID:    r.FolderID,
	}
}

// swagger:model UpdateSetRequest
type UpdateSetRequest struct {
	Name        string `json:"name" binding:"required,max=100"`
	Description string `json:"description"`
}

// CreateSet godoc
// @Summary 创建合集
// @Description 指定的文件夹不可用时合集创建在根目录，并在 message 中提示
// @Tags 合集
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body SetRequest true "合集信息"
// @Success 201 {object} util.Response{data=model.Set}
// @Failure 422 {object} util.Response "参数错误"
// @Router /sets [post]
func (c *SetController) CreateSet(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	var req SetRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.FormError(ctx, "Invalid set data", util.ValidationErrors(err), req)
		return
	}

	set, notice, err := c.SetService.Create(userID, req.input())
	if err != nil {
		respondError(ctx, err)
		return
	}

	resp := util.Response{Code: 201, Message: "created", Data: set}
	if notice != "" {
		resp.Message = notice
	}
	ctx.JSON(201, resp)
}

// ListSets godoc
// @Summary 我的合集
// @Tags 合集
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]model.Set}
// @Router /sets [get]
func (c *SetController) ListSets(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	sets, err := c.SetService.List(userID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, sets)
}

// GetSet godoc
// @Summary 合集详情
// @Tags 合集
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "合集ID"
// @Success 200 {object} util.Response{data=service.SetDetail}
// @Failure 404 {object} util.Response "合集不存在"
// @Router /sets/{id} [get]
func (c *SetController) GetSet(ctx *gin.Context) {
	setID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	detail, err := c.SetService.Get(setID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, detail)
}

// UpdateSet godoc
// @Summary 修改合集
// @Tags 合集
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "合集ID"
// @Param   body body UpdateSetRequest true "合集信息"
// @Success 200 {object} util.Response{data=model.Set}
// @Router /sets/{id} [put]
func (c *SetController) UpdateSet(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	setID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	var req UpdateSetRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.FormError(ctx, "Invalid set data", util.ValidationErrors(err), req)
		return
	}

	set, err := c.SetService.Update(userID, setID, req.Name, req.Description)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, set)
}

// DeleteSet godoc
// @Summary 删除合集
// @Description 题目、选项、测试会话及作答记录一并删除
// @Tags 合集
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "合集ID"
// @Success 200 {object} util.Response
// @Router /sets/{id} [delete]
func (c *SetController) DeleteSet(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	setID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	if err := c.SetService.Delete(ctx.Request.Context(), userID, setID); err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}
