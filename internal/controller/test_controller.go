package controller

import (
	"errors"
	"io"

	"testria_backend/internal/service"
	"testria_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type TestController struct {
	SessionService *service.TestSessionService
}

func NewTestController(sessionService *service.TestSessionService) *TestController {
	return &TestController{SessionService: sessionService}
}

// StartTest godoc
// @Summary 开始或继续测试
// @Description 同一用户同一测试只有一个会话，重复调用返回同一会话
// @Tags 测试
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "合集ID"
// @Success 200 {object} util.Response{data=model.TestSession}
// @Failure 400 {object} util.Response "不是测试合集"
// @Router /sets/{id}/test/start [post]
func (c *TestController) StartTest(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	setID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	session, err := c.SessionService.StartOrResume(userID, setID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, session)
}

// CurrentQuestion godoc
// @Summary 获取当前题目
// @Description 获取即消耗该题；status 为 question、skipped 或 completed
// @Tags 测试
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "会话ID"
// @Success 200 {object} util.Response{data=service.SessionStep}
// @Router /test-sessions/{id}/question [get]
func (c *TestController) CurrentQuestion(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	sessionID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	step, err := c.SessionService.ViewCurrentQuestion(userID, sessionID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, step)
}

// swagger:model SubmitAnswerRequest
type SubmitAnswerRequest struct {
	AnswerID *uint `json:"answerId" form:"answer"`
}

// SubmitAnswer godoc
// @Summary 提交答案
// @Description 对最近一次获取的题目评分；未选择答案时跳过下一题
// @Tags 测试
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "会话ID"
// @Param   body body SubmitAnswerRequest false "所选答案"
// @Success 200 {object} util.Response{data=service.SessionStep}
// @Failure 400 {object} util.Response "尚未获取题目"
// @Router /test-sessions/{id}/answer [post]
func (c *TestController) SubmitAnswer(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	sessionID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	var req SubmitAnswerRequest
	if err := ctx.ShouldBind(&req); err != nil && !errors.Is(err, io.EOF) {
		util.FormError(ctx, "Invalid answer", util.ValidationErrors(err), nil)
		return
	}

	step, err := c.SessionService.SubmitAnswer(userID, sessionID, req.AnswerID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, step)
}

// Results godoc
// @Summary 测试结果
// @Tags 测试
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "会话ID"
// @Success 200 {object} util.Response{data=service.TestResult}
// @Failure 409 {object} util.Response "测试尚未完成"
// @Router /test-sessions/{id}/results [get]
func (c *TestController) Results(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	sessionID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	result, err := c.SessionService.Results(userID, sessionID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, result)
}
