package service

import (
	"testria_backend/internal/model"
	"testria_backend/internal/repository"
	"testria_backend/internal/util"
	"testria_backend/pkg/logger"
	"testria_backend/pkg/monitoring"

	"go.uber.org/zap"
)

const maxAdvanceAttempts = 3

const (
	MsgQuestionNotFound    = "Question not found"
	MsgAnswerNotProvided   = "Answer is not provided"
	MsgCorrectNotFound     = "Correct is not found"
	MsgTestAlreadyPassed   = "Test is completed"
	MsgAnswerNotInQuestion = "Answer does not belong to the question"
)

type StepStatus string

const (
	StepQuestion  StepStatus = "question"
	StepFeedback  StepStatus = "feedback"
	StepSkipped   StepStatus = "skipped"
	StepCompleted StepStatus = "completed"
)

// AnswerView 作答时展示的选项，不暴露正确性
type AnswerView struct {
	ID      uint        `json:"id"`
	Content model.Block `json:"content"`
}

type QuestionView struct {
	ID      uint         `json:"id"`
	Content model.Block  `json:"content"`
	Answers []AnswerView `json:"answers"`
}

func newQuestionView(q *model.Question) *QuestionView {
	v := &QuestionView{ID: q.ID, Content: q.Content, Answers: make([]AnswerView, 0, len(q.Answers))}
	for _, a := range q.Answers {
		v.Answers = append(v.Answers, AnswerView{ID: a.ID, Content: a.Content})
	}
	return v
}

type Feedback struct {
	IsAnsweredCorrect bool          `json:"isAnsweredCorrect"`
	CorrectAnswerID   uint          `json:"correctAnswerId"`
	SelectedAnswerID  uint          `json:"selectedAnswerId"`
	Question          *QuestionView `json:"question"`
}

// SessionStep 每次请求后客户端据 Status 决定下一步
type SessionStep struct {
	Status          StepStatus    `json:"status"`
	Message         string        `json:"message,omitempty"`
	SessionID       uint          `json:"sessionId"`
	NextQuestionNum int           `json:"nextQuestionNum"`
	Question        *QuestionView `json:"question,omitempty"`
	Feedback        *Feedback     `json:"feedback,omitempty"`
}

type TestResult struct {
	SessionID     uint   `json:"sessionId"`
	SetID         uint   `json:"setId"`
	SetName       string `json:"setName"`
	QuestionCount int64  `json:"questionCount"`
	Answered      int64  `json:"answered"`
	Correct       int64  `json:"correct"`
}

type TestSessionService struct {
	SessionRepo  *repository.TestSessionRepository
	QuestionRepo *repository.QuestionRepository
	SetRepo      *repository.SetRepository
}

func NewTestSessionService(sessionRepo *repository.TestSessionRepository, questionRepo *repository.QuestionRepository, setRepo *repository.SetRepository) *TestSessionService {
	return &TestSessionService{
		SessionRepo:  sessionRepo,
		QuestionRepo: questionRepo,
		SetRepo:      setRepo,
	}
}

// StartOrResume 已有会话（包括已完成的）直接返回
func (s *TestSessionService) StartOrResume(userID, setID uint) (*model.TestSession, error) {
	set, err := s.SetRepo.FindByID(setID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, util.ErrSetNotFound
		}
		return nil, err
	}
	if !set.IsTest() {
		return nil, util.ErrNotTestSet
	}

	session, created, err := s.SessionRepo.FindOrCreate(userID, set.ID)
	if err != nil {
		return nil, err
	}
	if created {
		monitoring.TestSessions.WithLabelValues("started").Inc()
		logger.Log.Info("Test session started", zap.Uint("sessionID", session.ID), zap.Uint("userID", userID), zap.Uint("setID", set.ID))
	} else {
		monitoring.TestSessions.WithLabelValues("resumed").Inc()
	}
	return session, nil
}

func (s *TestSessionService) loadOwned(userID, sessionID uint) (*model.TestSession, error) {
	session, err := s.SessionRepo.FindByID(sessionID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, util.ErrSessionNotFound
		}
		return nil, err
	}
	if session.UserID != userID {
		return nil, util.ErrPermissionDenied
	}
	return session, nil
}

func completedStep(session *model.TestSession) *SessionStep {
	return &SessionStep{
		Status:          StepCompleted,
		Message:         MsgTestAlreadyPassed,
		SessionID:       session.ID,
		NextQuestionNum: session.NextQuestionNum,
	}
}

func (s *TestSessionService) complete(session *model.TestSession) (*SessionStep, error) {
	if err := s.SessionRepo.MarkCompleted(session.ID); err != nil {
		return nil, err
	}
	session.IsCompleted = true
	monitoring.TestSessions.WithLabelValues("completed").Inc()
	logger.Log.Info("Test session completed", zap.Uint("sessionID", session.ID))
	return completedStep(session), nil
}

// ViewCurrentQuestion 取出当前序号的题目并推进计数，查看即视为消耗该题；
// 数据缺失时同样推进，避免会话卡死
func (s *TestSessionService) ViewCurrentQuestion(userID, sessionID uint) (*SessionStep, error) {
	for attempt := 0; attempt < maxAdvanceAttempts; attempt++ {
		session, err := s.loadOwned(userID, sessionID)
		if err != nil {
			return nil, err
		}
		if session.IsCompleted {
			return completedStep(session), nil
		}

		count, err := s.QuestionRepo.CountBySet(session.SetID)
		if err != nil {
			return nil, err
		}
		n := session.NextQuestionNum
		if int64(n) >= count {
			return s.complete(session)
		}

		q, err := s.QuestionRepo.FindByOrdinal(session.SetID, n)
		missing := repository.IsNotFound(err) || (err == nil && len(q.Answers) == 0)
		if err != nil && !missing {
			return nil, err
		}

		ok, err := s.SessionRepo.Advance(session.ID, n)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}

		step := &SessionStep{SessionID: session.ID, NextQuestionNum: n + 1}
		if missing {
			logger.Log.Warn("Skipping unreadable question", zap.Uint("sessionID", session.ID), zap.Int("ordinal", n))
			step.Status = StepSkipped
			step.Message = MsgQuestionNotFound
			return step, nil
		}
		step.Status = StepQuestion
		step.Question = newQuestionView(q)
		return step, nil
	}
	return nil, util.ErrSessionConflict
}

// skip 推进一题并返回带提示的跳过结果；是否完成只在取题时判断
func (s *TestSessionService) skip(userID, sessionID uint, message string) (*SessionStep, error) {
	for attempt := 0; attempt < maxAdvanceAttempts; attempt++ {
		session, err := s.loadOwned(userID, sessionID)
		if err != nil {
			return nil, err
		}
		if session.IsCompleted {
			return completedStep(session), nil
		}

		n := session.NextQuestionNum
		ok, err := s.SessionRepo.Advance(session.ID, n)
		if err != nil {
			return nil, err
		}
		if ok {
			return &SessionStep{
				Status:          StepSkipped,
				Message:         message,
				SessionID:       session.ID,
				NextQuestionNum: n + 1,
			}, nil
		}
	}
	return nil, util.ErrSessionConflict
}

// SubmitAnswer 对最近一次展示的题目评分，评分本身不改变计数
func (s *TestSessionService) SubmitAnswer(userID, sessionID uint, answerID *uint) (*SessionStep, error) {
	session, err := s.loadOwned(userID, sessionID)
	if err != nil {
		return nil, err
	}
	if session.IsCompleted {
		return completedStep(session), nil
	}
	if answerID == nil {
		return s.skip(userID, sessionID, MsgAnswerNotProvided)
	}

	n := session.NextQuestionNum
	if n == 0 {
		return nil, util.ErrNoQuestionServed
	}

	q, err := s.QuestionRepo.FindByOrdinal(session.SetID, n-1)
	if err != nil {
		if repository.IsNotFound(err) {
			return s.skip(userID, sessionID, MsgQuestionNotFound)
		}
		return nil, err
	}

	correct, err := s.QuestionRepo.CorrectAnswer(q.ID)
	if err != nil {
		if repository.IsNotFound(err) {
			logger.Log.Warn("Question has no correct answer", zap.Uint("questionID", q.ID))
			return s.skip(userID, sessionID, MsgCorrectNotFound)
		}
		return nil, err
	}

	// 不属于当前题目的选项按答错记录
	belongs := false
	for _, a := range q.Answers {
		if a.ID == *answerID {
			belongs = true
			break
		}
	}
	isCorrect := belongs && correct.ID == *answerID
	recorded, err := s.SessionRepo.RecordAnswer(&model.UserTestAnswer{
		UserID:           userID,
		SetID:            session.SetID,
		SessionID:        session.ID,
		QuestionID:       q.ID,
		SelectedAnswerID: *answerID,
		IsCorrect:        isCorrect,
	})
	if err != nil {
		return nil, err
	}
	if recorded {
		result := "incorrect"
		if isCorrect {
			result = "correct"
		}
		monitoring.TestAnswers.WithLabelValues(result).Inc()
	}

	step := &SessionStep{
		Status:          StepFeedback,
		SessionID:       session.ID,
		NextQuestionNum: n,
		Feedback: &Feedback{
			IsAnsweredCorrect: isCorrect,
			CorrectAnswerID:   correct.ID,
			SelectedAnswerID:  *answerID,
			Question:          newQuestionView(q),
		},
	}
	if !belongs {
		step.Message = MsgAnswerNotInQuestion
	}
	return step, nil
}

func (s *TestSessionService) Results(userID, sessionID uint) (*TestResult, error) {
	session, err := s.loadOwned(userID, sessionID)
	if err != nil {
		return nil, err
	}
	if !session.IsCompleted {
		return nil, util.ErrSessionNotCompleted
	}

	set, err := s.SetRepo.FindByID(session.SetID)
	if err != nil {
		return nil, err
	}
	count, err := s.QuestionRepo.CountBySet(session.SetID)
	if err != nil {
		return nil, err
	}
	answered, correct, err := s.SessionRepo.Tally(session.ID)
	if err != nil {
		return nil, err
	}

	return &TestResult{
		SessionID:     session.ID,
		SetID:         set.ID,
		SetName:       set.Name,
		QuestionCount: count,
		Answered:      answered,
		Correct:       correct,
	}, nil
}
