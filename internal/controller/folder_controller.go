package controller

import (
	"testria_backend/internal/service"
	"testria_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type FolderController struct {
	FolderService *service.FolderService
	SetService    *service.SetService
}

func NewFolderController(folderService *service.FolderService, setService *service.SetService) *FolderController {
	return &FolderController{
		FolderService: folderService,
		SetService:    setService,
	}
}

// swagger:model FolderRequest
type FolderRequest struct {
	Name        string `json:"name" binding:"required,max=100"`
	Description string `json:"description"`
}

// CreateFolder godoc
// @Summary 创建文件夹
// @Tags 文件夹
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body FolderRequest true "文件夹信息"
// @Success 201 {object} util.Response{data=model.Folder}
// @Failure 409 {object} util.Response "名称已存在"
// @Failure 422 {object} util.Response "参数错误"
// @Router /folders [post]
func (c *FolderController) CreateFolder(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	var req FolderRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.FormError(ctx, "Invalid folder data", util.ValidationErrors(err), req)
		return
	}

	folder, err := c.FolderService.Create(userID, req.Name, req.Description)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Created(ctx, folder)
}

// ListFolders godoc
// @Summary 我的文件夹
// @Description 按最近更新排序
// @Tags 文件夹
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]model.Folder}
// @Router /folders [get]
func (c *FolderController) ListFolders(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	folders, err := c.FolderService.List(userID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, folders)
}

// GetFolder godoc
// @Summary 文件夹详情
// @Tags 文件夹
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "文件夹ID"
// @Success 200 {object} util.Response{data=service.FolderDetail}
// @Failure 404 {object} util.Response "文件夹不存在"
// @Router /folders/{id} [get]
func (c *FolderController) GetFolder(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	folderID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	detail, err := c.FolderService.Get(userID, folderID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, detail)
}

// UpdateFolder godoc
// @Summary 修改文件夹
// @Tags 文件夹
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "文件夹ID"
// @Param   body body FolderRequest true "文件夹信息"
// @Success 200 {object} util.Response{data=model.Folder}
// @Router /folders/{id} [put]
func (c *FolderController) UpdateFolder(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	folderID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	var req FolderRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.FormError(ctx, "Invalid folder data", util.ValidationErrors(err), req)
		return
	}

	folder, err := c.FolderService.Update(userID, folderID, req.Name, req.Description)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, folder)
}

// DeleteFolder godoc
// @Summary 删除文件夹
// @Description 文件夹内的合集、题目及测试记录一并删除
// @Tags 文件夹
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "文件夹ID"
// @Success 200 {object} util.Response
// @Router /folders/{id} [delete]
func (c *FolderController) DeleteFolder(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	folderID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	if err := c.FolderService.Delete(ctx.Request.Context(), userID, folderID); err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// CreateSetInFolder godoc
// @Summary 在文件夹中创建合集
// @Tags 文件夹
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "文件夹ID"
// @Param   body body SetRequest true "合集信息"
// @Success 201 {object} util.Response{data=model.Set}
// @Router /folders/{id}/sets [post]
func (c *FolderController) CreateSetInFolder(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	folderID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	var req SetRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.FormError(ctx, "Invalid set data", util.ValidationErrors(err), req)
		return
	}

	set, err := c.SetService.CreateInFolder(userID, folderID, req.input())
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Created(ctx, set)
}
