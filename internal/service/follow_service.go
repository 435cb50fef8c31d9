package service

import (
	"testria_backend/internal/model"
	"testria_backend/internal/repository"
	"testria_backend/internal/util"
)

type FollowService struct {
	FollowRepo *repository.FollowRepository
	UserRepo   *repository.UserRepository
}

func NewFollowService(followRepo *repository.FollowRepository, userRepo *repository.UserRepository) *FollowService {
	return &FollowService{
		FollowRepo: followRepo,
		UserRepo:   userRepo,
	}
}

func (s *FollowService) target(username string) (*model.User, error) {
	user, err := s.UserRepo.FindByUsername(username)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, util.ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *FollowService) Follow(followerID uint, username string) error {
	target, err := s.target(username)
	if err != nil {
		return err
	}
	if target.ID == followerID {
		return util.ErrFollowSelf
	}

	created, err := s.FollowRepo.Create(followerID, target.ID)
	if err != nil {
		return err
	}
	if !created {
		return util.ErrAlreadyFollowing
	}
	return nil
}

// Unfollow 未关注时视为成功
func (s *FollowService) Unfollow(followerID uint, username string) error {
	target, err := s.target(username)
	if err != nil {
		return err
	}
	return s.FollowRepo.Delete(followerID, target.ID)
}

func publicUsers(users []model.User) []model.PublicUser {
	out := make([]model.PublicUser, 0, len(users))
	for i := range users {
		out = append(out, users[i].Public())
	}
	return out
}

func (s *FollowService) Followers(username string) ([]model.PublicUser, error) {
	target, err := s.target(username)
	if err != nil {
		return nil, err
	}
	users, err := s.FollowRepo.Followers(target.ID)
	if err != nil {
		return nil, err
	}
	return publicUsers(users), nil
}

func (s *FollowService) Following(username string) ([]model.PublicUser, error) {
	target, err := s.target(username)
	if err != nil {
		return nil, err
	}
	users, err := s.FollowRepo.Following(target.ID)
	if err != nil {
		return nil, err
	}
	return publicUsers(users), nil
}
