package model

// swagger:model Folder
type Folder struct {
	BaseModel
	Name        string `gorm:"size:100;not null;uniqueIndex:idx_folder_author_name" json:"name"`
	Description string `gorm:"type:text" json:"description"`
	AuthorID    uint   `gorm:"not null;uniqueIndex:idx_folder_author_name" json:"authorId"`
}

func (Folder) TableName() string {
	return "folders"
}
