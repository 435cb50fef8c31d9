package repository

import (
	"testria_backend/internal/model"

	"gorm.io/gorm"
)

// deleteQuestions 删除题目及其选项、内容块和作答记录，返回被删除内容块引用的图片
func deleteQuestions(tx *gorm.DB, questionIDs []uint) ([]string, error) {
	if len(questionIDs) == 0 {
		return nil, nil
	}

	var blockIDs []uint
	if err := tx.Model(&model.Question{}).Where("id IN ?", questionIDs).Pluck("content_id", &blockIDs).Error; err != nil {
		return nil, err
	}
	var answerBlockIDs []uint
	if err := tx.Model(&model.Answer{}).Where("question_id IN ?", questionIDs).Pluck("content_id", &answerBlockIDs).Error; err != nil {
		return nil, err
	}
	blockIDs = append(blockIDs, answerBlockIDs...)

	var images []string
	if len(blockIDs) > 0 {
		if err := tx.Model(&model.Block{}).
			Where("id IN ? AND image IS NOT NULL AND image <> ''", blockIDs).
			Pluck("image", &images).Error; err != nil {
			return nil, err
		}
	}

	if err := tx.Where("question_id IN ?", questionIDs).Delete(&model.UserTestAnswer{}).Error; err != nil {
		return nil, err
	}
	if err := tx.Where("question_id IN ?", questionIDs).Delete(&model.Answer{}).Error; err != nil {
		return nil, err
	}
	if err := tx.Where("id IN ?", questionIDs).Delete(&model.Question{}).Error; err != nil {
		return nil, err
	}
	if len(blockIDs) > 0 {
		if err := tx.Where("id IN ?", blockIDs).Delete(&model.Block{}).Error; err != nil {
			return nil, err
		}
	}
	return images, nil
}

// deleteSets 删除合集及其题目和测试会话
func deleteSets(tx *gorm.DB, setIDs []uint) ([]string, error) {
	if len(setIDs) == 0 {
		return nil, nil
	}

	var questionIDs []uint
	if err := tx.Model(&model.Question{}).Where("set_id IN ?", setIDs).Pluck("id", &questionIDs).Error; err != nil {
		return nil, err
	}
	images, err := deleteQuestions(tx, questionIDs)
	if err != nil {
		return nil, err
	}

	if err := tx.Where("set_id IN ?", setIDs).Delete(&model.UserTestAnswer{}).Error; err != nil {
		return nil, err
	}
	if err := tx.Where("set_id IN ?", setIDs).Delete(&model.TestSession{}).Error; err != nil {
		return nil, err
	}
	if err := tx.Where("id IN ?", setIDs).Delete(&model.Set{}).Error; err != nil {
		return nil, err
	}
	return images, nil
}
