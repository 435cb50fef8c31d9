package repository

import (
	"time"

	"testria_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TestSessionRepository struct {
	DB *gorm.DB
}

func NewTestSessionRepository(db *gorm.DB) *TestSessionRepository {
	return &TestSessionRepository{DB: db}
}

// FindOrCreate 依赖 (user_id, set_id) 唯一索引，并发首次开始只会产生一条会话
func (r *TestSessionRepository) FindOrCreate(userID, setID uint) (*model.TestSession, bool, error) {
	res := r.DB.Clauses(clause.OnConflict{DoNothing: true}).Create(&model.TestSession{
		UserID: userID,
		SetID:  setID,
	})
	if res.Error != nil {
		return nil, false, res.Error
	}

	var session model.TestSession
	if err := r.DB.Where("user_id = ? AND set_id = ?", userID, setID).First(&session).Error; err != nil {
		return nil, false, err
	}
	return &session, res.RowsAffected > 0, nil
}

func (r *TestSessionRepository) FindByID(id uint) (*model.TestSession, error) {
	var session model.TestSession
	err := r.DB.First(&session, id).Error
	return &session, err
}

// Advance 比较并交换：仅当计数仍为 from 时推进到 from+1
func (r *TestSessionRepository) Advance(id uint, from int) (bool, error) {
	res := r.DB.Model(&model.TestSession{}).
		Where("id = ? AND next_question_num = ? AND is_completed = ?", id, from, false).
		Updates(map[string]interface{}{
			"next_question_num": from + 1,
			"updated_at":        time.Now(),
		})
	return res.RowsAffected == 1, res.Error
}

func (r *TestSessionRepository) MarkCompleted(id uint) error {
	return r.DB.Model(&model.TestSession{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"is_completed": true,
			"updated_at":   time.Now(),
		}).Error
}

// RecordAnswer 每道题只记录首次提交
func (r *TestSessionRepository) RecordAnswer(answer *model.UserTestAnswer) (bool, error) {
	res := r.DB.Clauses(clause.OnConflict{DoNothing: true}).Create(answer)
	return res.RowsAffected > 0, res.Error
}

func (r *TestSessionRepository) Tally(sessionID uint) (answered, correct int64, err error) {
	if err = r.DB.Model(&model.UserTestAnswer{}).Where("session_id = ?", sessionID).Count(&answered).Error; err != nil {
		return
	}
	err = r.DB.Model(&model.UserTestAnswer{}).
		Where("session_id = ? AND is_correct = ?", sessionID, true).
		Count(&correct).Error
	return
}
