package service

import (
	"errors"
	"testing"

	"testria_backend/internal/repository"
	"testria_backend/internal/util"
)

func TestFollowLifecycle(t *testing.T) {
	env := newTestEnv(t)
	followRepo := repository.NewFollowRepository(env.db, nil)
	follows := NewFollowService(followRepo, env.users)
	users := NewUserService(env.users, followRepo, env.storage)

	ada := env.user(t, "ada")
	env.user(t, "bob")

	if err := follows.Follow(ada.ID, "ada"); !errors.Is(err, util.ErrFollowSelf) {
		t.Fatalf("expected follow self error, got %v", err)
	}
	if err := follows.Follow(ada.ID, "ghost"); !errors.Is(err, util.ErrUserNotFound) {
		t.Fatalf("expected user not found, got %v", err)
	}
	if err := follows.Follow(ada.ID, "bob"); err != nil {
		t.Fatalf("follow: %v", err)
	}
	if err := follows.Follow(ada.ID, "bob"); !errors.Is(err, util.ErrAlreadyFollowing) {
		t.Fatalf("expected already following, got %v", err)
	}

	followers, err := follows.Followers("bob")
	if err != nil || len(followers) != 1 || followers[0].Username != "ada" {
		t.Fatalf("unexpected followers %+v (%v)", followers, err)
	}
	following, err := follows.Following("bob")
	if err != nil || len(following) != 0 {
		t.Fatalf("follow must be one-directional, got %+v (%v)", following, err)
	}

	profile, err := users.GetPublicProfile(ada.ID, "bob")
	if err != nil {
		t.Fatalf("public profile: %v", err)
	}
	if !profile.IsFollowing || profile.Followers != 1 {
		t.Fatalf("unexpected profile %+v", profile)
	}

	if err := follows.Unfollow(ada.ID, "bob"); err != nil {
		t.Fatalf("unfollow: %v", err)
	}
	if err := follows.Unfollow(ada.ID, "bob"); err != nil {
		t.Fatalf("unfollow twice must succeed: %v", err)
	}
	profile, _ = users.GetPublicProfile(ada.ID, "bob")
	if profile.IsFollowing || profile.Followers != 0 {
		t.Fatalf("expected follow to be removed, got %+v", profile)
	}
}
