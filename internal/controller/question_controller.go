package controller

import (
	"errors"
	"mime/multipart"
	"net/http"

	"testria_backend/internal/service"
	"testria_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type QuestionController struct {
	QuestionService *service.QuestionService
}

func NewQuestionController(questionService *service.QuestionService) *QuestionController {
	return &QuestionController{QuestionService: questionService}
}

// CreateQuestionRequest 出题表单（multipart），四个选项槽位可留空
type CreateQuestionRequest struct {
	QuestionText  string                `form:"question_text" binding:"max=1000"`
	QuestionImage *multipart.FileHeader `form:"question_image"`
	Answer1Text   string                `form:"answer_1_text" binding:"max=255"`
	Answer1Image  *multipart.FileHeader `form:"answer_1_image"`
	Answer2Text   string                `form:"answer_2_text" binding:"max=255"`
	Answer2Image  *multipart.FileHeader `form:"answer_2_image"`
	Answer3Text   string                `form:"answer_3_text" binding:"max=255"`
	Answer3Image  *multipart.FileHeader `form:"answer_3_image"`
	Answer4Text   string                `form:"answer_4_text" binding:"max=255"`
	Answer4Image  *multipart.FileHeader `form:"answer_4_image"`
	CorrectAnswer int                   `form:"correct_answer" binding:"required,gte=1,lte=4"`
}

// AnswerSlotState 回显的选项槽位
type AnswerSlotState struct {
	Text  string `json:"text"`
	Image string `json:"image,omitempty"`
}

// QuestionFormState 失败时回显给客户端的表单内容
// swagger:model QuestionFormState
type QuestionFormState struct {
	QuestionText  string            `json:"questionText"`
	QuestionImage string            `json:"questionImage,omitempty"`
	Answers       []AnswerSlotState `json:"answers"`
	CorrectAnswer int               `json:"correctAnswer"`
}

func fileName(fh *multipart.FileHeader) string {
	if fh == nil {
		return ""
	}
	return fh.Filename
}

func (r *CreateQuestionRequest) slots() [util.MaxAnswerSlots]struct {
	text  string
	image *multipart.FileHeader
} {
	return [util.MaxAnswerSlots]struct {
		text  string
		image *multipart.FileHeader
	}{
		{r.Answer1Text, r.Answer1Image},
		{r.Answer2Text, r.Answer2Image},
		{r.Answer3Text, r.Answer3Image},
		{r.Answer4Text, r.Answer4Image},
	}
}

func (r *CreateQuestionRequest) state() *QuestionFormState {
	st := &QuestionFormState{
		QuestionText:  r.QuestionText,
		QuestionImage: fileName(r.QuestionImage),
		CorrectAnswer: r.CorrectAnswer,
	}
	for _, slot := range r.slots() {
		st.Answers = append(st.Answers, AnswerSlotState{Text: slot.text, Image: fileName(slot.image)})
	}
	return st
}

func (r *CreateQuestionRequest) input() *service.QuestionInput {
	in := &service.QuestionInput{
		Question:      service.BlockInput{Text: r.QuestionText, Image: service.UploadFromHeader(r.QuestionImage)},
		CorrectAnswer: r.CorrectAnswer,
	}
	for _, slot := range r.slots() {
		in.Answers = append(in.Answers, service.BlockInput{Text: slot.text, Image: service.UploadFromHeader(slot.image)})
	}
	return in
}

// 校验错误对应的表单字段
var questionFormFields = map[error]string{
	util.ErrQuestionContentRequired: "question",
	util.ErrInsufficientAnswers:     "answers",
	util.ErrTooManyAnswers:          "answers",
	util.ErrCorrectAnswerNotFilled:  "correctAnswer",
	util.ErrUnsupportedImage:        "image",
}

// CreateQuestion godoc
// @Summary 添加题目
// @Description 题目与已填写的选项在同一事务中创建；失败时回显表单内容
// @Tags 题目
// @Accept  multipart/form-data
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "合集ID"
// @Param   question_text formData string false "题目文本"
// @Param   question_image formData file false "题目图片"
// @Param   answer_1_text formData string false "选项1文本"
// @Param   answer_1_image formData file false "选项1图片"
// @Param   answer_2_text formData string false "选项2文本"
// @Param   answer_2_image formData file false "选项2图片"
// @Param   answer_3_text formData string false "选项3文本"
// @Param   answer_3_image formData file false "选项3图片"
// @Param   answer_4_text formData string false "选项4文本"
// @Param   answer_4_image formData file false "选项4图片"
// @Param   correct_answer formData int true "正确选项序号 1-4"
// @Success 201 {object} util.Response{data=model.Question}
// @Failure 422 {object} util.Response{data=QuestionFormState} "表单校验失败"
// @Failure 500 {object} util.Response{data=QuestionFormState} "创建失败"
// @Router /sets/{id}/questions [post]
func (c *QuestionController) CreateQuestion(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	setID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	var req CreateQuestionRequest
	if err := ctx.ShouldBind(&req); err != nil {
		util.FormError(ctx, "Invalid question form", util.ValidationErrors(err), req.state())
		return
	}

	question, err := c.QuestionService.CreateQuestion(ctx.Request.Context(), userID, setID, req.input())
	if err != nil {
		for target, field := range questionFormFields {
			if errors.Is(err, target) {
				util.FormError(ctx, target.Error(), map[string][]string{field: {target.Error()}}, req.state())
				return
			}
		}
		if errors.Is(err, util.ErrQuestionCreateFailed) {
			util.FormFailure(ctx, http.StatusInternalServerError, util.ErrQuestionCreateFailed.Error(), nil, req.state())
			return
		}
		respondError(ctx, err)
		return
	}

	util.Created(ctx, question)
}

// ListQuestions godoc
// @Summary 合集题目列表
// @Description 仅作者可见，按添加顺序排列，包含正确答案
// @Tags 题目
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "合集ID"
// @Success 200 {object} util.Response{data=[]model.Question}
// @Router /sets/{id}/questions [get]
func (c *QuestionController) ListQuestions(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	setID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	questions, err := c.QuestionService.ListQuestions(userID, setID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, questions)
}

// DeleteQuestion godoc
// @Summary 删除题目
// @Description 连同选项和内容块一起删除
// @Tags 题目
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "题目ID"
// @Success 200 {object} util.Response
// @Router /questions/{id} [delete]
func (c *QuestionController) DeleteQuestion(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	questionID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	if err := c.QuestionService.DeleteQuestion(ctx.Request.Context(), userID, questionID); err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}
