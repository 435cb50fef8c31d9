package repository

import (
	"testria_backend/internal/model"

	"gorm.io/gorm"
)

type SetRepository struct {
	DB *gorm.DB
}

func NewSetRepository(db *gorm.DB) *SetRepository {
	return &SetRepository{DB: db}
}

func (r *SetRepository) Create(set *model.Set) error {
	return r.DB.Create(set).Error
}

func (r *SetRepository) FindByID(id uint) (*model.Set, error) {
	var set model.Set
	err := r.DB.First(&set, id).Error
	return &set, err
}

func (r *SetRepository) FindByAuthor(authorID uint) ([]model.Set, error) {
	var sets []model.Set
	err := r.DB.Where("author_id = ?", authorID).Order("updated_at DESC").Find(&sets).Error
	return sets, err
}

func (r *SetRepository) FindByFolder(folderID uint) ([]model.Set, error) {
	var sets []model.Set
	err := r.DB.Where("folder_id = ?", folderID).Order("name ASC").Find(&sets).Error
	return sets, err
}

func (r *SetRepository) Update(set *model.Set) error {
	return r.DB.Model(set).Select("name", "description").Updates(set).Error
}

func (r *SetRepository) Delete(id uint) ([]string, error) {
	var images []string
	err := r.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		images, err = deleteSets(tx, []uint{id})
		return err
	})
	return images, err
}
