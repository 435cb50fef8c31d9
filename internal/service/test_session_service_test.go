package service

import (
	"context"
	"errors"
	"testing"

	"testria_backend/internal/model"
	"testria_backend/internal/util"
)

type capitals struct {
	env     *testEnv
	svc     *TestSessionService
	taker   *model.User
	set     *model.Set
	correct []uint
	wrong   []uint
}

// newCapitals 三道题的测试合集
func newCapitals(t *testing.T) *capitals {
	t.Helper()
	env := newTestEnv(t)
	author := env.user(t, "author")
	set := env.set(t, author, "Capitals", model.TestSet)
	c := &capitals{
		env:   env,
		svc:   NewTestSessionService(env.sessions, env.questions, env.sets),
		taker: env.user(t, "taker"),
		set:   set,
	}

	qs := env.questionService()
	for _, pair := range [][2]string{{"Paris", "Lyon"}, {"Rome", "Milan"}, {"Berlin", "Bonn"}} {
		q, err := qs.CreateQuestion(context.Background(), author.ID, set.ID, &QuestionInput{
			Question:      BlockInput{Text: "Capital?"},
			Answers:       textSlots(pair[0], pair[1]),
			CorrectAnswer: 1,
		})
		if err != nil {
			t.Fatalf("create question: %v", err)
		}
		for _, a := range q.Answers {
			if a.IsCorrect {
				c.correct = append(c.correct, a.ID)
			} else {
				c.wrong = append(c.wrong, a.ID)
			}
		}
	}
	return c
}

func (c *capitals) start(t *testing.T) *model.TestSession {
	t.Helper()
	session, err := c.svc.StartOrResume(c.taker.ID, c.set.ID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	return session
}

func (c *capitals) view(t *testing.T, sessionID uint) *SessionStep {
	t.Helper()
	step, err := c.svc.ViewCurrentQuestion(c.taker.ID, sessionID)
	if err != nil {
		t.Fatalf("view: %v", err)
	}
	return step
}

func (c *capitals) counter(t *testing.T, sessionID uint) int {
	t.Helper()
	s, err := c.env.sessions.FindByID(sessionID)
	if err != nil {
		t.Fatalf("reload session: %v", err)
	}
	return s.NextQuestionNum
}

func TestStartOrResumeIsIdempotent(t *testing.T) {
	c := newCapitals(t)
	first := c.start(t)
	if first.NextQuestionNum != 0 || first.IsCompleted {
		t.Fatalf("unexpected fresh session: %+v", first)
	}
	second := c.start(t)
	if first.ID != second.ID {
		t.Fatalf("expected same session, got %d and %d", first.ID, second.ID)
	}
	if got := c.env.count(t, &model.TestSession{}); got != 1 {
		t.Fatalf("expected one session row, got %d", got)
	}
}

func TestStartOrResumeRequiresTestSet(t *testing.T) {
	c := newCapitals(t)
	cards := c.env.set(t, c.taker, "Words", model.CardSet)
	if _, err := c.svc.StartOrResume(c.taker.ID, cards.ID); !errors.Is(err, util.ErrNotTestSet) {
		t.Fatalf("expected not a test set, got %v", err)
	}
	if _, err := c.svc.StartOrResume(c.taker.ID, 12345); !errors.Is(err, util.ErrSetNotFound) {
		t.Fatalf("expected set not found, got %v", err)
	}
}

func TestViewServesFirstQuestionAndAdvances(t *testing.T) {
	c := newCapitals(t)
	session := c.start(t)

	step := c.view(t, session.ID)
	if step.Status != StepQuestion || step.Question == nil {
		t.Fatalf("expected a question, got %+v", step)
	}
	if len(step.Question.Answers) != 2 {
		t.Fatalf("expected 2 answers, got %d", len(step.Question.Answers))
	}
	if step.Question.Answers[0].ID != c.correct[0] {
		t.Fatalf("expected the first question to be served")
	}
	if got := c.counter(t, session.ID); got != 1 {
		t.Fatalf("expected next_question_num=1, got %d", got)
	}
}

func TestSubmitCorrectAnswerGivesFeedback(t *testing.T) {
	c := newCapitals(t)
	session := c.start(t)
	c.view(t, session.ID)

	answer := c.correct[0]
	step, err := c.svc.SubmitAnswer(c.taker.ID, session.ID, &answer)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if step.Status != StepFeedback || step.Feedback == nil {
		t.Fatalf("expected feedback, got %+v", step)
	}
	if !step.Feedback.IsAnsweredCorrect || step.Feedback.CorrectAnswerID != answer || step.Feedback.SelectedAnswerID != answer {
		t.Fatalf("unexpected feedback %+v", step.Feedback)
	}
	if got := c.counter(t, session.ID); got != 1 {
		t.Fatalf("grading must not move the counter, got %d", got)
	}

	wrong := c.wrong[0]
	step, err = c.svc.SubmitAnswer(c.taker.ID, session.ID, &wrong)
	if err != nil {
		t.Fatalf("resubmit: %v", err)
	}
	if step.Feedback.IsAnsweredCorrect || step.Feedback.CorrectAnswerID != answer {
		t.Fatalf("unexpected feedback for wrong answer %+v", step.Feedback)
	}
	if got := c.env.count(t, &model.UserTestAnswer{}); got != 1 {
		t.Fatalf("expected only the first submission recorded, got %d", got)
	}
}

func TestSubmitWithoutAnswerSkipsForward(t *testing.T) {
	c := newCapitals(t)
	session := c.start(t)
	c.view(t, session.ID)

	step, err := c.svc.SubmitAnswer(c.taker.ID, session.ID, nil)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if step.Status != StepSkipped || step.Message != MsgAnswerNotProvided {
		t.Fatalf("expected skipped step, got %+v", step)
	}
	if got := c.counter(t, session.ID); got != 2 {
		t.Fatalf("expected next_question_num=2, got %d", got)
	}

	next := c.view(t, session.ID)
	if next.Question == nil || next.Question.Answers[0].ID != c.correct[2] {
		t.Fatalf("expected the third question after the skip, got %+v", next)
	}
}

func TestSubmitBeforeAnyQuestionIsRejected(t *testing.T) {
	c := newCapitals(t)
	session := c.start(t)

	answer := c.correct[0]
	if _, err := c.svc.SubmitAnswer(c.taker.ID, session.ID, &answer); !errors.Is(err, util.ErrNoQuestionServed) {
		t.Fatalf("expected no question served, got %v", err)
	}
	if got := c.counter(t, session.ID); got != 0 {
		t.Fatalf("rejected submissions must not move the counter, got %d", got)
	}
}

func TestSubmitForeignAnswerCountsAsWrong(t *testing.T) {
	c := newCapitals(t)
	session := c.start(t)
	c.view(t, session.ID)

	foreign := c.correct[1]
	step, err := c.svc.SubmitAnswer(c.taker.ID, session.ID, &foreign)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if step.Status != StepFeedback || step.Message != MsgAnswerNotInQuestion {
		t.Fatalf("expected feedback with a message, got %+v", step)
	}
	if step.Feedback.IsAnsweredCorrect || step.Feedback.CorrectAnswerID != c.correct[0] {
		t.Fatalf("unexpected feedback %+v", step.Feedback)
	}
	if got := c.counter(t, session.ID); got != 1 {
		t.Fatalf("grading must not move the counter, got %d", got)
	}

	// 首次提交已记为答错，之后选对也不改变结果
	answer := c.correct[0]
	if _, err := c.svc.SubmitAnswer(c.taker.ID, session.ID, &answer); err != nil {
		t.Fatalf("resubmit: %v", err)
	}
	answered, correct, err := c.env.sessions.Tally(session.ID)
	if err != nil {
		t.Fatalf("tally: %v", err)
	}
	if answered != 1 || correct != 0 {
		t.Fatalf("expected one wrong answer recorded, got %d/%d", answered, correct)
	}
}

func TestSubmitWithoutAnswerOnLastQuestionSkips(t *testing.T) {
	c := newCapitals(t)
	session := c.start(t)
	for i := 0; i < 3; i++ {
		c.view(t, session.ID)
	}

	step, err := c.svc.SubmitAnswer(c.taker.ID, session.ID, nil)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if step.Status != StepSkipped || step.Message != MsgAnswerNotProvided {
		t.Fatalf("expected skipped step, got %+v", step)
	}
	if got := c.counter(t, session.ID); got != 4 {
		t.Fatalf("expected next_question_num=4, got %d", got)
	}
	reloaded, _ := c.env.sessions.FindByID(session.ID)
	if reloaded.IsCompleted {
		t.Fatal("skipping must not complete the session")
	}

	if step := c.view(t, session.ID); step.Status != StepCompleted {
		t.Fatalf("expected completion on the next view, got %+v", step)
	}
}

func TestSubmitAfterSkipGradesQuestionBehindCounter(t *testing.T) {
	c := newCapitals(t)
	session := c.start(t)
	c.view(t, session.ID)
	if _, err := c.svc.SubmitAnswer(c.taker.ID, session.ID, nil); err != nil {
		t.Fatalf("skip: %v", err)
	}

	// 计数为 2 时评分针对第二题，即使它没有被展示过
	answer := c.correct[1]
	step, err := c.svc.SubmitAnswer(c.taker.ID, session.ID, &answer)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if step.Status != StepFeedback || !step.Feedback.IsAnsweredCorrect {
		t.Fatalf("expected the second question to be graded, got %+v", step)
	}
}

func TestSessionCompletesAfterLastQuestion(t *testing.T) {
	c := newCapitals(t)
	session := c.start(t)

	for i := 0; i < 3; i++ {
		if step := c.view(t, session.ID); step.Status != StepQuestion {
			t.Fatalf("view %d: expected question, got %+v", i, step)
		}
	}
	if got := c.counter(t, session.ID); got != 3 {
		t.Fatalf("expected next_question_num=3, got %d", got)
	}

	step := c.view(t, session.ID)
	if step.Status != StepCompleted || step.Question != nil {
		t.Fatalf("expected completion, got %+v", step)
	}
	reloaded, _ := c.env.sessions.FindByID(session.ID)
	if !reloaded.IsCompleted {
		t.Fatal("expected session to be marked completed")
	}

	// 已完成的会话仍可恢复，但不再出题
	again := c.start(t)
	if again.ID != session.ID || !again.IsCompleted {
		t.Fatalf("expected completed session to be resumed, got %+v", again)
	}
	answer := c.correct[2]
	if step, _ := c.svc.SubmitAnswer(c.taker.ID, session.ID, &answer); step.Status != StepCompleted {
		t.Fatalf("expected completed step on submit, got %+v", step)
	}
}

func TestCounterNeverDecreases(t *testing.T) {
	c := newCapitals(t)
	session := c.start(t)
	last := 0

	answer := c.correct[0]
	ops := []func(){
		func() { c.view(t, session.ID) },
		func() { c.svc.SubmitAnswer(c.taker.ID, session.ID, &answer) },
		func() { c.svc.SubmitAnswer(c.taker.ID, session.ID, nil) },
		func() { c.start(t) },
		func() { c.view(t, session.ID) },
		func() { c.view(t, session.ID) },
		func() { c.svc.SubmitAnswer(c.taker.ID, session.ID, nil) },
	}
	for i, op := range ops {
		op()
		got := c.counter(t, session.ID)
		if got < last {
			t.Fatalf("op %d: counter went from %d to %d", i, last, got)
		}
		last = got
	}
}

func TestViewSkipsQuestionWithoutAnswers(t *testing.T) {
	c := newCapitals(t)
	session := c.start(t)
	c.view(t, session.ID)

	questions, _ := c.env.questions.ListBySet(c.set.ID)
	if err := c.env.db.Where("question_id = ?", questions[1].ID).Delete(&model.Answer{}).Error; err != nil {
		t.Fatalf("delete answers: %v", err)
	}

	step := c.view(t, session.ID)
	if step.Status != StepSkipped || step.Message != MsgQuestionNotFound {
		t.Fatalf("expected skipped step, got %+v", step)
	}
	if got := c.counter(t, session.ID); got != 2 {
		t.Fatalf("expected skip to advance the counter, got %d", got)
	}
}

func TestSubmitSkipsWhenCorrectAnswerMissing(t *testing.T) {
	c := newCapitals(t)
	session := c.start(t)
	c.view(t, session.ID)

	if err := c.env.db.Model(&model.Answer{}).Where("id = ?", c.correct[0]).Update("is_correct", false).Error; err != nil {
		t.Fatalf("update answer: %v", err)
	}

	answer := c.wrong[0]
	step, err := c.svc.SubmitAnswer(c.taker.ID, session.ID, &answer)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if step.Status != StepSkipped || step.Message != MsgCorrectNotFound {
		t.Fatalf("expected correct-not-found skip, got %+v", step)
	}
	if got := c.counter(t, session.ID); got != 2 {
		t.Fatalf("expected counter to advance, got %d", got)
	}
}

func TestSessionBelongsToItsUser(t *testing.T) {
	c := newCapitals(t)
	session := c.start(t)
	stranger := c.env.user(t, "stranger")

	if _, err := c.svc.ViewCurrentQuestion(stranger.ID, session.ID); !errors.Is(err, util.ErrPermissionDenied) {
		t.Fatalf("expected permission denied, got %v", err)
	}
	if _, err := c.svc.ViewCurrentQuestion(c.taker.ID, 9999); !errors.Is(err, util.ErrSessionNotFound) {
		t.Fatalf("expected session not found, got %v", err)
	}
}

func TestResultsAfterCompletion(t *testing.T) {
	c := newCapitals(t)
	session := c.start(t)

	if _, err := c.svc.Results(c.taker.ID, session.ID); !errors.Is(err, util.ErrSessionNotCompleted) {
		t.Fatalf("expected not completed, got %v", err)
	}

	picks := []uint{c.correct[0], c.wrong[1], c.correct[2]}
	for i := range picks {
		c.view(t, session.ID)
		if _, err := c.svc.SubmitAnswer(c.taker.ID, session.ID, &picks[i]); err != nil {
			t.Fatalf("submit %d: %v", i, err)
		}
	}
	c.view(t, session.ID)

	res, err := c.svc.Results(c.taker.ID, session.ID)
	if err != nil {
		t.Fatalf("results: %v", err)
	}
	if res.QuestionCount != 3 || res.Answered != 3 || res.Correct != 2 {
		t.Fatalf("unexpected results %+v", res)
	}
}

func TestAdvanceIsCompareAndSwap(t *testing.T) {
	c := newCapitals(t)
	session := c.start(t)

	ok, err := c.env.sessions.Advance(session.ID, 0)
	if err != nil || !ok {
		t.Fatalf("first advance: ok=%t err=%v", ok, err)
	}
	ok, err = c.env.sessions.Advance(session.ID, 0)
	if err != nil {
		t.Fatalf("stale advance: %v", err)
	}
	if ok {
		t.Fatal("advance from a stale counter must not apply")
	}
	if got := c.counter(t, session.ID); got != 1 {
		t.Fatalf("expected next_question_num=1, got %d", got)
	}
}
