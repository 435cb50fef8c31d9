package model

import (
	gonanoid "github.com/matoous/go-nanoid/v2"
	"gorm.io/gorm"
)

type SetType string

const (
	CardSet SetType = "card_set"
	TestSet SetType = "test"
)

func (t SetType) Valid() bool {
	return t == CardSet || t == TestSet
}

// swagger:model Set
type Set struct {
	BaseModel
	Name        string  `gorm:"size:100;not null" json:"name"`
	Type        SetType `gorm:"size:8;not null" json:"type"`
	Description string  `gorm:"type:text" json:"description"`
	Slug        string  `gorm:"size:21;uniqueIndex" json:"slug"`
	AuthorID    uint    `gorm:"index;not null" json:"authorId"`
	FolderID    *uint   `gorm:"index" json:"folderId,omitempty"`
}

func (Set) TableName() string {
	return "sets"
}

func (s *Set) BeforeCreate(tx *gorm.DB) error {
	if s.Slug == "" {
		slug, err := gonanoid.New()
		if err != nil {
			return err
		}
		s.Slug = slug
	}
	return nil
}

func (s *Set) IsTest() bool {
	return s.Type == TestSet
}
