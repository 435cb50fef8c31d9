package repository

import (
	"testria_backend/internal/model"

	"gorm.io/gorm"
)

type FolderRepository struct {
	DB *gorm.DB
}

func NewFolderRepository(db *gorm.DB) *FolderRepository {
	return &FolderRepository{DB: db}
}

func (r *FolderRepository) Create(folder *model.Folder) error {
	return r.DB.Create(folder).Error
}

func (r *FolderRepository) FindByID(id uint) (*model.Folder, error) {
	var folder model.Folder
	err := r.DB.First(&folder, id).Error
	return &folder, err
}

func (r *FolderRepository) FindByAuthor(authorID uint) ([]model.Folder, error) {
	var folders []model.Folder
	err := r.DB.Where("author_id = ?", authorID).Order("updated_at DESC").Find(&folders).Error
	return folders, err
}

// NameExists 同一作者下文件夹名唯一，excludeID 用于更新时排除自身
func (r *FolderRepository) NameExists(authorID uint, name string, excludeID uint) (bool, error) {
	var count int64
	db := r.DB.Model(&model.Folder{}).Where("author_id = ? AND name = ?", authorID, name)
	if excludeID > 0 {
		db = db.Where("id <> ?", excludeID)
	}
	err := db.Count(&count).Error
	return count > 0, err
}

func (r *FolderRepository) Update(folder *model.Folder) error {
	return r.DB.Model(folder).Select("name", "description").Updates(folder).Error
}

// Delete 文件夹连同其中的合集一起删除
func (r *FolderRepository) Delete(id uint) ([]string, error) {
	var images []string
	err := r.DB.Transaction(func(tx *gorm.DB) error {
		var setIDs []uint
		if err := tx.Model(&model.Set{}).Where("folder_id = ?", id).Pluck("id", &setIDs).Error; err != nil {
			return err
		}
		var err error
		if images, err = deleteSets(tx, setIDs); err != nil {
			return err
		}
		return tx.Delete(&model.Folder{}, id).Error
	})
	return images, err
}
