package model

import "time"

// Follow 关注关系（单向）
type Follow struct {
	FollowerID  uint      `gorm:"primaryKey" json:"followerId"`
	FollowingID uint      `gorm:"primaryKey;index" json:"followingId"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

func (Follow) TableName() string {
	return "follows"
}
