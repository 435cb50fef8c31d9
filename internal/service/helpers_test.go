package service

import (
	"bytes"
	"io"
	"testing"

	"testria_backend/internal/config"
	"testria_backend/internal/model"
	"testria_backend/internal/repository"
	"testria_backend/pkg/database"

	"gorm.io/gorm"
)

type testEnv struct {
	db        *gorm.DB
	uploads   string
	users     *repository.UserRepository
	sets      *repository.SetRepository
	folders   *repository.FolderRepository
	questions *repository.QuestionRepository
	sessions  *repository.TestSessionRepository
	storage   *StorageService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := database.OpenInMemory()
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	uploads := t.TempDir()
	return &testEnv{
		db:        db,
		uploads:   uploads,
		users:     repository.NewUserRepository(db),
		sets:      repository.NewSetRepository(db),
		folders:   repository.NewFolderRepository(db),
		questions: repository.NewQuestionRepository(db),
		sessions:  repository.NewTestSessionRepository(db),
		storage:   &StorageService{Provider: &LocalStorageProvider{Config: &config.StorageConfig{LocalPath: uploads}}},
	}
}

func (e *testEnv) user(t *testing.T, username string) *model.User {
	t.Helper()
	u := &model.User{Username: username, Email: username + "@example.com", Password: "x"}
	if err := e.users.Create(u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func (e *testEnv) set(t *testing.T, author *model.User, name string, typ model.SetType) *model.Set {
	t.Helper()
	s := &model.Set{Name: name, Type: typ, AuthorID: author.ID}
	if err := e.sets.Create(s); err != nil {
		t.Fatalf("create set: %v", err)
	}
	return s
}

func (e *testEnv) questionService() *QuestionService {
	return NewQuestionService(e.questions, e.sets, e.storage)
}

func (e *testEnv) count(t *testing.T, m interface{}) int64 {
	t.Helper()
	var n int64
	if err := e.db.Model(m).Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

func pngUpload(name string) *Upload {
	return &Upload{
		Filename: name,
		Size:     int64(len(pngHeader)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(pngHeader)), nil
		},
	}
}

func textSlots(texts ...string) []BlockInput {
	slots := make([]BlockInput, len(texts))
	for i, text := range texts {
		slots[i] = BlockInput{Text: text}
	}
	return slots
}
