package repository

import (
	"errors"
	"time"

	"testria_backend/internal/model"

	"gorm.io/gorm"
)

type UserRepository struct {
	DB *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{DB: db}
}

func (r *UserRepository) Create(user *model.User) error {
	return r.DB.Create(user).Error
}

func (r *UserRepository) FindByID(id uint) (*model.User, error) {
	var user model.User
	err := r.DB.First(&user, id).Error
	return &user, err
}

func (r *UserRepository) FindByEmail(email string) (*model.User, error) {
	var user model.User
	err := r.DB.Where("email = ?", email).First(&user).Error
	return &user, err
}

func (r *UserRepository) FindByUsername(username string) (*model.User, error) {
	var user model.User
	err := r.DB.Where("username = ?", username).First(&user).Error
	return &user, err
}

// FindByLogin 支持邮箱或用户名登录
func (r *UserRepository) FindByLogin(login string) (*model.User, error) {
	var user model.User
	err := r.DB.Where("email = ? OR username = ?", login, login).First(&user).Error
	return &user, err
}

func (r *UserRepository) EmailExists(email string) (bool, error) {
	return r.exists("email = ?", email)
}

func (r *UserRepository) UsernameExists(username string) (bool, error) {
	return r.exists("username = ?", username)
}

func (r *UserRepository) exists(query string, arg interface{}) (bool, error) {
	var count int64
	err := r.DB.Model(&model.User{}).Where(query, arg).Count(&count).Error
	return count > 0, err
}

func (r *UserRepository) UpdateProfile(id uint, firstName, lastName, bio string) error {
	return r.DB.Model(&model.User{}).Where("id = ?", id).Updates(map[string]interface{}{
		"first_name": firstName,
		"last_name":  lastName,
		"bio":        bio,
	}).Error
}

func (r *UserRepository) UpdatePhoto(id uint, photo string) error {
	return r.DB.Model(&model.User{}).Where("id = ?", id).Update("photo", photo).Error
}

func (r *UserRepository) UpdatePassword(id uint, hash string) error {
	return r.DB.Model(&model.User{}).Where("id = ?", id).Update("password", hash).Error
}

func (r *UserRepository) MarkVerified(id uint) error {
	return r.DB.Model(&model.User{}).Where("id = ?", id).Update("is_verified", true).Error
}

func (r *UserRepository) TouchLastLogin(id uint) error {
	return r.DB.Model(&model.User{}).Where("id = ?", id).UpdateColumn("last_login", time.Now()).Error
}

func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
