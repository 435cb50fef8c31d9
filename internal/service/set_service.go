package service

import (
	"context"
	"strings"

	"testria_backend/internal/model"
	"testria_backend/internal/repository"
	"testria_backend/internal/util"
)

const MsgFolderNotFound = "Folder not found, the set was created outside of any folder"

type SetInput struct {
	Name        string
	Type        model.SetType
	Description string
	FolderID    *uint
}

// SetDetail 合集及题目数量
// swagger:model SetDetail
type SetDetail struct {
	model.Set
	QuestionCount int64 `json:"questionCount"`
}

type SetService struct {
	SetRepo      *repository.SetRepository
	FolderRepo   *repository.FolderRepository
	QuestionRepo *repository.QuestionRepository
	Storage      *StorageService
}

func NewSetService(setRepo *repository.SetRepository, folderRepo *repository.FolderRepository, questionRepo *repository.QuestionRepository, storage *StorageService) *SetService {
	return &SetService{
		SetRepo:      setRepo,
		FolderRepo:   folderRepo,
		QuestionRepo: questionRepo,
		Storage:      storage,
	}
}

// Create 指定的文件夹不存在或不属于作者时，合集仍在根目录创建并返回提示
func (s *SetService) Create(authorID uint, in *SetInput) (*model.Set, string, error) {
	if !in.Type.Valid() {
		return nil, "", util.ErrInvalidSetType
	}

	set := &model.Set{
		Name:        strings.TrimSpace(in.Name),
		Type:        in.Type,
		Description: in.Description,
		AuthorID:    authorID,
	}

	var notice string
	if in.FolderID != nil {
		folder, err := s.FolderRepo.FindByID(*in.FolderID)
		switch {
		case err == nil && folder.AuthorID == authorID:
			set.FolderID = &folder.ID
		case err == nil || repository.IsNotFound(err):
			notice = MsgFolderNotFound
		default:
			return nil, "", err
		}
	}

	if err := s.SetRepo.Create(set); err != nil {
		return nil, "", err
	}
	return set, notice, nil
}

// CreateInFolder 从文件夹页面创建，文件夹必须存在
func (s *SetService) CreateInFolder(authorID, folderID uint, in *SetInput) (*model.Set, error) {
	folder, err := s.FolderRepo.FindByID(folderID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, util.ErrFolderNotFound
		}
		return nil, err
	}
	if folder.AuthorID != authorID {
		return nil, util.ErrPermissionDenied
	}

	in.FolderID = &folder.ID
	set, _, err := s.Create(authorID, in)
	return set, err
}

func (s *SetService) List(authorID uint) ([]model.Set, error) {
	return s.SetRepo.FindByAuthor(authorID)
}

func (s *SetService) find(setID uint) (*model.Set, error) {
	set, err := s.SetRepo.FindByID(setID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, util.ErrSetNotFound
		}
		return nil, err
	}
	return set, nil
}

func (s *SetService) owned(authorID, setID uint) (*model.Set, error) {
	set, err := s.find(setID)
	if err != nil {
		return nil, err
	}
	if set.AuthorID != authorID {
		return nil, util.ErrPermissionDenied
	}
	return set, nil
}

func (s *SetService) Get(setID uint) (*SetDetail, error) {
	set, err := s.find(setID)
	if err != nil {
		return nil, err
	}
	count, err := s.QuestionRepo.CountBySet(set.ID)
	if err != nil {
		return nil, err
	}
	return &SetDetail{Set: *set, QuestionCount: count}, nil
}

func (s *SetService) Update(authorID, setID uint, name, description string) (*model.Set, error) {
	set, err := s.owned(authorID, setID)
	if err != nil {
		return nil, err
	}
	set.Name = strings.TrimSpace(name)
	set.Description = description
	if err := s.SetRepo.Update(set); err != nil {
		return nil, err
	}
	return set, nil
}

func (s *SetService) Delete(ctx context.Context, authorID, setID uint) error {
	set, err := s.owned(authorID, setID)
	if err != nil {
		return err
	}
	images, err := s.SetRepo.Delete(set.ID)
	if err != nil {
		return err
	}
	s.Storage.DeleteURLs(ctx, images)
	return nil
}
