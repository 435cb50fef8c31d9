package model

// Block 题目或选项的内容单元，文本与图片至少其一
// swagger:model Block
type Block struct {
	BaseModel
	Text  *string `gorm:"type:text" json:"text,omitempty"`
	Image *string `gorm:"size:255" json:"image,omitempty"`
}

func (Block) TableName() string {
	return "blocks"
}

func (b *Block) HasContent() bool {
	return (b.Text != nil && *b.Text != "") || (b.Image != nil && *b.Image != "")
}

// Question 按主键升序即插入顺序
// swagger:model Question
type Question struct {
	BaseModel
	ContentID uint     `gorm:"not null" json:"contentId"`
	Content   Block    `gorm:"foreignKey:ContentID" json:"content"`
	SetID     uint     `gorm:"index;not null" json:"setId"`
	Answers   []Answer `gorm:"foreignKey:QuestionID" json:"answers,omitempty"`
}

func (Question) TableName() string {
	return "questions"
}

// swagger:model Answer
type Answer struct {
	BaseModel
	QuestionID uint  `gorm:"index;not null" json:"questionId"`
	ContentID  uint  `gorm:"not null" json:"contentId"`
	Content    Block `gorm:"foreignKey:ContentID" json:"content"`
	IsCorrect  bool  `gorm:"not null" json:"isCorrect"`
}

func (Answer) TableName() string {
	return "answers"
}
