package service

import (
	"context"

	"testria_backend/internal/model"
	"testria_backend/internal/repository"
	"testria_backend/internal/util"
	"testria_backend/pkg/logger"

	"go.uber.org/zap"
)

// Profile 个人资料及关注统计
// swagger:model Profile
type Profile struct {
	*model.User
	Followers int64 `json:"followers"`
	Following int64 `json:"following"`
}

// PublicProfile 其他用户的资料
// swagger:model PublicProfile
type PublicProfile struct {
	model.PublicUser
	Followers   int64 `json:"followers"`
	Following   int64 `json:"following"`
	IsFollowing bool  `json:"isFollowing"`
}

// UserService 处理用户资料相关的业务逻辑
type UserService struct {
	UserRepo   *repository.UserRepository
	FollowRepo *repository.FollowRepository
	Storage    *StorageService
}

func NewUserService(userRepo *repository.UserRepository, followRepo *repository.FollowRepository, storage *StorageService) *UserService {
	return &UserService{
		UserRepo:   userRepo,
		FollowRepo: followRepo,
		Storage:    storage,
	}
}

func (s *UserService) find(userID uint) (*model.User, error) {
	user, err := s.UserRepo.FindByID(userID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, util.ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *UserService) GetProfile(userID uint) (*Profile, error) {
	user, err := s.find(userID)
	if err != nil {
		return nil, err
	}
	followers, following, err := s.FollowRepo.Counts(user.ID)
	if err != nil {
		return nil, err
	}
	return &Profile{User: user, Followers: followers, Following: following}, nil
}

func (s *UserService) UpdateProfile(userID uint, firstName, lastName, bio string) (*Profile, error) {
	if err := s.UserRepo.UpdateProfile(userID, firstName, lastName, bio); err != nil {
		return nil, err
	}
	return s.GetProfile(userID)
}

// UpdatePhoto 上传新头像后删除旧文件
func (s *UserService) UpdatePhoto(ctx context.Context, userID uint, up *Upload) (*Profile, error) {
	user, err := s.find(userID)
	if err != nil {
		return nil, err
	}

	url, err := s.Storage.SaveImage(ctx, "photos", up)
	if err != nil {
		return nil, err
	}
	if err := s.UserRepo.UpdatePhoto(user.ID, url); err != nil {
		s.Storage.DeleteURLs(context.Background(), []string{url})
		return nil, err
	}
	if user.Photo != "" {
		if err := s.Storage.DeleteURL(ctx, user.Photo); err != nil {
			logger.Log.Warn("Failed to delete old photo", zap.Uint("userID", user.ID), zap.Error(err))
		}
	}
	return s.GetProfile(user.ID)
}

// GetPublicProfile viewerID 为当前登录用户
func (s *UserService) GetPublicProfile(viewerID uint, username string) (*PublicProfile, error) {
	user, err := s.UserRepo.FindByUsername(username)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, util.ErrUserNotFound
		}
		return nil, err
	}
	followers, following, err := s.FollowRepo.Counts(user.ID)
	if err != nil {
		return nil, err
	}

	profile := &PublicProfile{PublicUser: user.Public(), Followers: followers, Following: following}
	ids, err := s.FollowRepo.FollowingIDsCached(viewerID)
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		if id == user.ID {
			profile.IsFollowing = true
			break
		}
	}
	return profile, nil
}
