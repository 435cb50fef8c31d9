package model

import "time"

// swagger:model User
type User struct {
	BaseModel
	Username   string    `gorm:"size:150;uniqueIndex;not null" json:"username"`
	Email      string    `gorm:"size:254;uniqueIndex;not null" json:"email"`
	FirstName  string    `gorm:"size:150" json:"firstName"`
	LastName   string    `gorm:"size:150" json:"lastName"`
	Password   string    `gorm:"size:100;not null" json:"-"`
	Photo      string    `gorm:"size:255" json:"photo"`
	Bio        string    `gorm:"size:500" json:"bio"`
	IsVerified bool      `gorm:"default:false" json:"isVerified"`
	LastLogin  time.Time `json:"lastLogin"`
}

func (User) TableName() string {
	return "users"
}

// PublicUser 其他用户可见的资料
type PublicUser struct {
	ID        uint   `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Photo     string `json:"photo"`
	Bio       string `json:"bio"`
}

func (u *User) Public() PublicUser {
	return PublicUser{
		ID:        u.ID,
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Photo:     u.Photo,
		Bio:       u.Bio,
	}
}
