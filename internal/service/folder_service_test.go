package service

import (
	"context"
	"errors"
	"testing"

	"testria_backend/internal/model"
	"testria_backend/internal/util"
)

func TestFolderNamesAreUniquePerAuthor(t *testing.T) {
	env := newTestEnv(t)
	folders := NewFolderService(env.folders, env.sets, env.storage)
	ada := env.user(t, "ada")
	bob := env.user(t, "bob")

	first, err := folders.Create(ada.ID, "Geography", "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := folders.Create(ada.ID, " Geography ", ""); !errors.Is(err, util.ErrFolderNameExists) {
		t.Fatalf("expected duplicate name error, got %v", err)
	}
	if _, err := folders.Create(bob.ID, "Geography", ""); err != nil {
		t.Fatalf("other authors may reuse names: %v", err)
	}
	if _, err := folders.Update(ada.ID, first.ID, "Geography", "updated"); err != nil {
		t.Fatalf("renaming to the same name must pass: %v", err)
	}
	if _, err := folders.Get(bob.ID, first.ID); !errors.Is(err, util.ErrPermissionDenied) {
		t.Fatalf("expected permission denied, got %v", err)
	}
}

func TestSetCreateFallsBackToRootForUnknownFolder(t *testing.T) {
	env := newTestEnv(t)
	sets := NewSetService(env.sets, env.folders, env.questions, env.storage)
	folders := NewFolderService(env.folders, env.sets, env.storage)
	ada := env.user(t, "ada")
	bob := env.user(t, "bob")
	foreign, _ := folders.Create(bob.ID, "Bob's", "")

	set, notice, err := sets.Create(ada.ID, &SetInput{Name: "Capitals", Type: model.TestSet, FolderID: &foreign.ID})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if set.FolderID != nil || notice != MsgFolderNotFound {
		t.Fatalf("expected root set with notice, got folder=%v notice=%q", set.FolderID, notice)
	}
	if set.Slug == "" {
		t.Fatal("expected a generated slug")
	}
	if _, _, err := sets.Create(ada.ID, &SetInput{Name: "Bad", Type: "quiz"}); !errors.Is(err, util.ErrInvalidSetType) {
		t.Fatalf("expected invalid type, got %v", err)
	}
	if _, err := sets.CreateInFolder(ada.ID, foreign.ID, &SetInput{Name: "x", Type: model.CardSet}); !errors.Is(err, util.ErrPermissionDenied) {
		t.Fatalf("expected permission denied, got %v", err)
	}
}

func TestFolderDeleteCascades(t *testing.T) {
	env := newTestEnv(t)
	folders := NewFolderService(env.folders, env.sets, env.storage)
	sets := NewSetService(env.sets, env.folders, env.questions, env.storage)
	sessions := NewTestSessionService(env.sessions, env.questions, env.sets)
	ada := env.user(t, "ada")

	folder, _ := folders.Create(ada.ID, "Geography", "")
	inside, err := sets.CreateInFolder(ada.ID, folder.ID, &SetInput{Name: "Capitals", Type: model.TestSet})
	if err != nil {
		t.Fatalf("create set: %v", err)
	}
	outside, _, _ := sets.Create(ada.ID, &SetInput{Name: "Rivers", Type: model.TestSet})

	qs := env.questionService()
	for _, set := range []*model.Set{inside, outside} {
		_, err := qs.CreateQuestion(context.Background(), ada.ID, set.ID, &QuestionInput{
			Question:      BlockInput{Text: "q", Image: pngUpload("q.png")},
			Answers:       textSlots("a", "b"),
			CorrectAnswer: 1,
		})
		if err != nil {
			t.Fatalf("create question: %v", err)
		}
	}
	session, _ := sessions.StartOrResume(ada.ID, inside.ID)
	sessions.ViewCurrentQuestion(ada.ID, session.ID)

	detail, err := folders.Get(ada.ID, folder.ID)
	if err != nil || len(detail.Sets) != 1 {
		t.Fatalf("unexpected folder detail %+v (%v)", detail, err)
	}

	if err := folders.Delete(context.Background(), ada.ID, folder.ID); err != nil {
		t.Fatalf("delete folder: %v", err)
	}

	checks := map[string]struct {
		m    interface{}
		want int64
	}{
		"folders":   {&model.Folder{}, 0},
		"sets":      {&model.Set{}, 1},
		"questions": {&model.Question{}, 1},
		"answers":   {&model.Answer{}, 2},
		"blocks":    {&model.Block{}, 3},
		"sessions":  {&model.TestSession{}, 0},
	}
	for name, c := range checks {
		if got := env.count(t, c.m); got != c.want {
			t.Fatalf("%s: expected %d rows, got %d", name, c.want, got)
		}
	}
	if n := countFiles(t, env.uploads); n != 1 {
		t.Fatalf("expected only the outside set's image to remain, got %d files", n)
	}
}
