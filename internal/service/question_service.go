package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"testria_backend/internal/model"
	"testria_backend/internal/repository"
	"testria_backend/internal/util"
	"testria_backend/pkg/logger"
	"testria_backend/pkg/monitoring"

	"go.uber.org/zap"
)

// BlockInput 题目或选项的输入，文本和图片均可为空
type BlockInput struct {
	Text  string
	Image *Upload
}

func (b BlockInput) filled() bool {
	return strings.TrimSpace(b.Text) != "" || b.Image != nil
}

// QuestionInput 出题表单：最多四个选项槽位，CorrectAnswer 从 1 开始
type QuestionInput struct {
	Question      BlockInput
	Answers       []BlockInput
	CorrectAnswer int
}

type QuestionService struct {
	QuestionRepo *repository.QuestionRepository
	SetRepo      *repository.SetRepository
	Storage      *StorageService
}

func NewQuestionService(questionRepo *repository.QuestionRepository, setRepo *repository.SetRepository, storage *StorageService) *QuestionService {
	return &QuestionService{
		QuestionRepo: questionRepo,
		SetRepo:      setRepo,
		Storage:      storage,
	}
}

// ValidateQuestionInput 写入前的校验，顺序决定报告哪条错误
func ValidateQuestionInput(in *QuestionInput) error {
	if !in.Question.filled() {
		return util.ErrQuestionContentRequired
	}
	if len(in.Answers) > util.MaxAnswerSlots {
		return util.ErrTooManyAnswers
	}

	filled := 0
	for _, a := range in.Answers {
		if a.filled() {
			filled++
		}
	}
	if filled < util.MinFilledAnswers {
		return util.ErrInsufficientAnswers
	}

	k := in.CorrectAnswer
	if k < 1 || k > len(in.Answers) || !in.Answers[k-1].filled() {
		return util.ErrCorrectAnswerNotFilled
	}

	if in.Question.Image != nil && !util.HasImageExtension(in.Question.Image.Filename) {
		return util.ErrUnsupportedImage
	}
	for _, a := range in.Answers {
		if a.Image != nil && !util.HasImageExtension(a.Image.Filename) {
			return util.ErrUnsupportedImage
		}
	}
	return nil
}

func (s *QuestionService) ownedTestSet(authorID, setID uint) (*model.Set, error) {
	set, err := s.SetRepo.FindByID(setID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, util.ErrSetNotFound
		}
		return nil, err
	}
	if set.AuthorID != authorID {
		return nil, util.ErrPermissionDenied
	}
	if !set.IsTest() {
		return nil, util.ErrNotTestSet
	}
	return set, nil
}

// CreateQuestion 校验通过后上传图片并在单个事务中写入题目和已填写的选项；
// 写入失败时删除本次已上传的图片
func (s *QuestionService) CreateQuestion(ctx context.Context, authorID, setID uint, in *QuestionInput) (*model.Question, error) {
	set, err := s.ownedTestSet(authorID, setID)
	if err != nil {
		return nil, err
	}
	if err := ValidateQuestionInput(in); err != nil {
		return nil, err
	}

	var uploaded []string
	block := func(b BlockInput) (model.Block, error) {
		var blk model.Block
		if text := strings.TrimSpace(b.Text); text != "" {
			blk.Text = &text
		}
		if b.Image != nil {
			url, err := s.Storage.SaveImage(ctx, "blocks", b.Image)
			if err != nil {
				return blk, err
			}
			uploaded = append(uploaded, url)
			blk.Image = &url
		}
		return blk, nil
	}
	fail := func(err error) (*model.Question, error) {
		s.Storage.DeleteURLs(context.Background(), uploaded)
		if errors.Is(err, util.ErrUnsupportedImage) {
			return nil, err
		}
		logger.Log.Error("Failed to create question",
			zap.Uint("setID", set.ID),
			zap.Uint("authorID", authorID),
			zap.Error(err))
		return nil, fmt.Errorf("%w: %v", util.ErrQuestionCreateFailed, err)
	}

	q := &model.Question{SetID: set.ID}
	if q.Content, err = block(in.Question); err != nil {
		return fail(err)
	}
	for i, slot := range in.Answers {
		if !slot.filled() {
			continue
		}
		content, err := block(slot)
		if err != nil {
			return fail(err)
		}
		q.Answers = append(q.Answers, model.Answer{
			Content:   content,
			IsCorrect: i+1 == in.CorrectAnswer,
		})
	}

	if err := s.QuestionRepo.CreateGraph(q); err != nil {
		return fail(err)
	}

	monitoring.QuestionsCreated.Inc()
	logger.Log.Info("Question created",
		zap.Uint("questionID", q.ID),
		zap.Uint("setID", set.ID),
		zap.Int("answers", len(q.Answers)))
	return q, nil
}

func (s *QuestionService) ListQuestions(authorID, setID uint) ([]model.Question, error) {
	if _, err := s.ownedTestSet(authorID, setID); err != nil {
		return nil, err
	}
	return s.QuestionRepo.ListBySet(setID)
}

func (s *QuestionService) DeleteQuestion(ctx context.Context, authorID, questionID uint) error {
	q, err := s.QuestionRepo.FindByID(questionID)
	if err != nil {
		if repository.IsNotFound(err) {
			return util.ErrQuestionNotFound
		}
		return err
	}
	if _, err := s.ownedTestSet(authorID, q.SetID); err != nil {
		return err
	}

	images, err := s.QuestionRepo.Delete(q.ID)
	if err != nil {
		return err
	}
	s.Storage.DeleteURLs(ctx, images)
	return nil
}
