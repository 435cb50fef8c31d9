package service

import (
	"context"
	"strings"

	"testria_backend/internal/model"
	"testria_backend/internal/repository"
	"testria_backend/internal/util"
	"testria_backend/pkg/logger"

	"go.uber.org/zap"
)

// FolderDetail 文件夹及其中按名称排序的合集
// swagger:model FolderDetail
type FolderDetail struct {
	model.Folder
	Sets []model.Set `json:"sets"`
}

type FolderService struct {
	FolderRepo *repository.FolderRepository
	SetRepo    *repository.SetRepository
	Storage    *StorageService
}

func NewFolderService(folderRepo *repository.FolderRepository, setRepo *repository.SetRepository, storage *StorageService) *FolderService {
	return &FolderService{
		FolderRepo: folderRepo,
		SetRepo:    setRepo,
		Storage:    storage,
	}
}

func (s *FolderService) owned(authorID, folderID uint) (*model.Folder, error) {
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
	return folder, nil
}

func (s *FolderService) checkName(authorID uint, name string, excludeID uint) error {
	exists, err := s.FolderRepo.NameExists(authorID, name, excludeID)
	if err != nil {
		return err
	}
	if exists {
		return util.ErrFolderNameExists
	}
	return nil
}

func (s *FolderService) Create(authorID uint, name, description string) (*model.Folder, error) {
	name = strings.TrimSpace(name)
	if err := s.checkName(authorID, name, 0); err != nil {
		return nil, err
	}
	folder := &model.Folder{Name: name, Description: description, AuthorID: authorID}
	if err := s.FolderRepo.Create(folder); err != nil {
		return nil, err
	}
	return folder, nil
}

func (s *FolderService) List(authorID uint) ([]model.Folder, error) {
	return s.FolderRepo.FindByAuthor(authorID)
}

func (s *FolderService) Get(authorID, folderID uint) (*FolderDetail, error) {
	folder, err := s.owned(authorID, folderID)
	if err != nil {
		return nil, err
	}
	sets, err := s.SetRepo.FindByFolder(folder.ID)
	if err != nil {
		return nil, err
	}
	return &FolderDetail{Folder: *folder, Sets: sets}, nil
}

func (s *FolderService) Update(authorID, folderID uint, name, description string) (*model.Folder, error) {
	folder, err := s.owned(authorID, folderID)
	if err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if err := s.checkName(authorID, name, folder.ID); err != nil {
		return nil, err
	}
	folder.Name = name
	folder.Description = description
	if err := s.FolderRepo.Update(folder); err != nil {
		return nil, err
	}
	return folder, nil
}

// Delete 连同文件夹内的合集、题目和测试会话一起删除
func (s *FolderService) Delete(ctx context.Context, authorID, folderID uint) error {
	folder, err := s.owned(authorID, folderID)
	if err != nil {
		return err
	}
	images, err := s.FolderRepo.Delete(folder.ID)
	if err != nil {
		return err
	}
	s.Storage.DeleteURLs(ctx, images)
	logger.Log.Info("Folder deleted", zap.Uint("folderID", folder.ID), zap.Int("images", len(images)))
	return nil
}
