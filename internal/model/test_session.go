package model

// TestSession 同一用户同一测试只有一条会话，由 (user_id, set_id) 唯一索引保证
// swagger:model TestSession
type TestSession struct {
	BaseModel
	UserID          uint `gorm:"not null;uniqueIndex:idx_session_user_set" json:"userId"`
	SetID           uint `gorm:"not null;uniqueIndex:idx_session_user_set" json:"setId"`
	IsCompleted     bool `gorm:"default:false" json:"isCompleted"`
	NextQuestionNum int  `gorm:"default:0;not null" json:"nextQuestionNum"`
}

func (TestSession) TableName() string {
	return "test_sessions"
}

// UserTestAnswer 会话中提交的选项记录
type UserTestAnswer struct {
	BaseModel
	UserID           uint `gorm:"index;not null" json:"userId"`
	SetID            uint `gorm:"index;not null" json:"setId"`
	SessionID        uint `gorm:"not null;uniqueIndex:idx_session_question" json:"sessionId"`
	QuestionID       uint `gorm:"not null;uniqueIndex:idx_session_question" json:"questionId"`
	SelectedAnswerID uint `gorm:"not null" json:"selectedAnswerId"`
	IsCorrect        bool `json:"isCorrect"`
}

func (UserTestAnswer) TableName() string {
	return "user_test_answers"
}
