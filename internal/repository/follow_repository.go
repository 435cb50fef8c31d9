package repository

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"testria_backend/internal/model"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type FollowRepository struct {
	DB    *gorm.DB
	Redis *redis.Client
	ctx   context.Context
}

func NewFollowRepository(db *gorm.DB, rdb *redis.Client) *FollowRepository {
	return &FollowRepository{
		DB:    db,
		Redis: rdb,
		ctx:   context.Background(),
	}
}

func followingKey(userID uint) string {
	return fmt.Sprintf("follow:following:%d", userID)
}

// Create 重复关注返回 false
func (r *FollowRepository) Create(followerID, followingID uint) (bool, error) {
	res := r.DB.Clauses(clause.OnConflict{DoNothing: true}).Create(&model.Follow{
		FollowerID:  followerID,
		FollowingID: followingID,
	})
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected > 0 {
		r.invalidate(followerID)
	}
	return res.RowsAffected > 0, nil
}

func (r *FollowRepository) Delete(followerID, followingID uint) error {
	err := r.DB.Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Delete(&model.Follow{}).Error
	if err == nil {
		r.invalidate(followerID)
	}
	return err
}

func (r *FollowRepository) Exists(followerID, followingID uint) (bool, error) {
	var count int64
	err := r.DB.Model(&model.Follow{}).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Count(&count).Error
	return count > 0, err
}

// Followers 关注了 userID 的用户
func (r *FollowRepository) Followers(userID uint) ([]model.User, error) {
	var users []model.User
	err := r.DB.Joins("JOIN follows ON follows.follower_id = users.id").
		Where("follows.following_id = ?", userID).
		Order("follows.created_at DESC").
		Find(&users).Error
	return users, err
}

// Following userID 关注的用户
func (r *FollowRepository) Following(userID uint) ([]model.User, error) {
	var users []model.User
	err := r.DB.Joins("JOIN follows ON follows.following_id = users.id").
		Where("follows.follower_id = ?", userID).
		Order("follows.created_at DESC").
		Find(&users).Error
	return users, err
}

func (r *FollowRepository) FollowingIDs(userID uint) ([]uint, error) {
	var ids []uint
	err := r.DB.Model(&model.Follow{}).
		Where("follower_id = ?", userID).
		Pluck("following_id", &ids).Error
	return ids, err
}

// FollowingIDsCached 获取关注 ID 列表 (带缓存)
func (r *FollowRepository) FollowingIDsCached(userID uint) ([]uint, error) {
	if r.Redis == nil {
		return r.FollowingIDs(userID)
	}

	key := followingKey(userID)
	cached, err := r.Redis.SMembers(r.ctx, key).Result()
	if err == nil && len(cached) > 0 {
		ids := make([]uint, 0, len(cached))
		for _, s := range cached {
			id, _ := strconv.ParseUint(s, 10, 64)
			if id > 0 {
				ids = append(ids, uint(id))
			}
		}
		return ids, nil
	}

	ids, err := r.FollowingIDs(userID)
	if err != nil {
		return nil, err
	}
	pipe := r.Redis.Pipeline()
	if len(ids) == 0 {
		// 空集合占位，防止缓存穿透
		pipe.SAdd(r.ctx, key, 0)
		pipe.Expire(r.ctx, key, 5*time.Minute)
	} else {
		for _, id := range ids {
			pipe.SAdd(r.ctx, key, id)
		}
		pipe.Expire(r.ctx, key, 24*time.Hour)
	}
	pipe.Exec(r.ctx)
	return ids, nil
}

func (r *FollowRepository) Counts(userID uint) (followers, following int64, err error) {
	if err = r.DB.Model(&model.Follow{}).Where("following_id = ?", userID).Count(&followers).Error; err != nil {
		return
	}
	err = r.DB.Model(&model.Follow{}).Where("follower_id = ?", userID).Count(&following).Error
	return
}

func (r *FollowRepository) invalidate(userID uint) {
	if r.Redis != nil {
		r.Redis.Del(r.ctx, followingKey(userID))
	}
}
